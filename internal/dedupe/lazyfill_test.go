package dedupe

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"quaver/internal/library"
	"quaver/internal/logging"
	"quaver/internal/testsupport"
)

// A failing persist must not strand the workers and feeder mid-send; the
// collector keeps draining and the call still returns.
func TestFillLazilyDrainsAfterPersistFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Detect.Workers = 2

	tracks := make([]*library.Track, 32)
	for i := range tracks {
		tracks[i] = &library.Track{ID: int64(i + 1), Path: fmt.Sprintf("/lib/%02d.mp3", i)}
	}

	d := New(cfg, nil, nil, logging.NewNop())
	persistErr := errors.New("index write failed")

	done := make(chan error, 1)
	go func() {
		_, err := d.fillLazily(context.Background(), tracks, lazyFill{
			missing: func(*library.Track) bool { return true },
			compute: func(_ context.Context, tr *library.Track) (string, error) {
				return tr.Path, nil
			},
			persist: func(context.Context, *library.Track, string) error {
				return persistErr
			},
			reason: "unreadable",
		})
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, persistErr) {
			t.Fatalf("expected persist error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("fillLazily did not return after persist failure")
	}
}

func TestFillLazilyReportsComputeFailuresUnresolved(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Detect.Workers = 2

	tracks := []*library.Track{
		{ID: 1, Path: "/lib/ok.mp3"},
		{ID: 2, Path: "/lib/broken.mp3"},
	}

	d := New(cfg, nil, nil, logging.NewNop())
	unresolved, err := d.fillLazily(context.Background(), tracks, lazyFill{
		missing: func(*library.Track) bool { return true },
		compute: func(_ context.Context, tr *library.Track) (string, error) {
			if tr.ID == 2 {
				return "", errors.New("corrupt")
			}
			return "value", nil
		},
		persist: func(context.Context, *library.Track, string) error { return nil },
		reason:  "content unreadable",
	})
	if err != nil {
		t.Fatalf("fillLazily failed: %v", err)
	}
	if len(unresolved) != 1 || unresolved[0].Path != "/lib/broken.mp3" {
		t.Fatalf("unexpected unresolved set: %#v", unresolved)
	}
	if unresolved[0].Reason != "content unreadable" {
		t.Fatalf("unexpected reason: %q", unresolved[0].Reason)
	}
}
