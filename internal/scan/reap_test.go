package scan

import (
	"context"
	"path/filepath"
	"testing"

	"quaver/internal/library"
	"quaver/internal/logging"
	"quaver/internal/testsupport"
)

func TestShielded(t *testing.T) {
	shields := []string{"/lib/broken", "/lib/albums/bad.mp3"}

	cases := []struct {
		path string
		want bool
	}{
		{"/lib/broken", true},
		{"/lib/broken/deep/song.mp3", true},
		{"/lib/albums/bad.mp3", true},
		{"/lib/brokenhearted/song.mp3", false},
		{"/lib/albums/good.mp3", false},
	}
	for _, tc := range cases {
		if got := shielded(tc.path, shields); got != tc.want {
			t.Errorf("shielded(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestReapKeepsTracksUnderFailedSubtree(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	root := cfg.Paths.LibraryDir

	seenPath := filepath.Join(root, "albums", "seen.mp3")
	gonePath := filepath.Join(root, "albums", "gone.mp3")
	unreadDir := filepath.Join(root, "unreadable")
	hiddenPath := filepath.Join(unreadDir, "hidden.mp3")
	for _, path := range []string{seenPath, gonePath, hiddenPath} {
		testsupport.SeedTrack(t, store, &library.Track{Path: path, Title: filepath.Base(path)})
	}

	prior, err := store.TracksUnder(context.Background(), root)
	if err != nil {
		t.Fatalf("TracksUnder failed: %v", err)
	}

	o := New(cfg, store, nil, logging.NewNop())
	report := &Report{}
	seen := map[string]struct{}{seenPath: {}}
	// A subtree the walk could not read was never observed; rows under it
	// must survive the reap.
	shields := []string{unreadDir}
	if err := o.reap(context.Background(), prior, seen, shields, report, o.logger); err != nil {
		t.Fatalf("reap failed: %v", err)
	}

	if report.Removed != 1 {
		t.Fatalf("expected 1 removal, got %#v", report)
	}
	hidden, err := store.GetByPath(context.Background(), hiddenPath)
	if err != nil {
		t.Fatalf("GetByPath failed: %v", err)
	}
	if hidden == nil {
		t.Fatal("track under failed subtree was reaped")
	}
	gone, err := store.GetByPath(context.Background(), gonePath)
	if err != nil {
		t.Fatalf("GetByPath failed: %v", err)
	}
	if gone != nil {
		t.Fatal("missing track survived the reap")
	}
}

func TestReapRemovalsReportInPathOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	root := cfg.Paths.LibraryDir

	// Seed out of order; removals must still report sorted by path.
	for _, name := range []string{"zz.mp3", "aa.mp3", "mm.mp3"} {
		testsupport.SeedTrack(t, store, &library.Track{Path: filepath.Join(root, name), Title: name})
	}

	prior, err := store.TracksUnder(context.Background(), root)
	if err != nil {
		t.Fatalf("TracksUnder failed: %v", err)
	}

	o := New(cfg, store, nil, logging.NewNop())
	report := &Report{}
	if err := o.reap(context.Background(), prior, map[string]struct{}{}, nil, report, o.logger); err != nil {
		t.Fatalf("reap failed: %v", err)
	}

	want := []string{
		filepath.Join(root, "aa.mp3"),
		filepath.Join(root, "mm.mp3"),
		filepath.Join(root, "zz.mp3"),
	}
	if len(report.Results) != len(want) {
		t.Fatalf("expected %d results, got %#v", len(want), report.Results)
	}
	for i, res := range report.Results {
		if res.Path != want[i] || res.Outcome != OutcomeRemoved {
			t.Fatalf("result %d = %#v, want removed %s", i, res, want[i])
		}
	}
}
