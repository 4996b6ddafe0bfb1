package dedupe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"

	"quaver/internal/library"
	"quaver/internal/logging"
)

// detectHash groups tracks by exact content. Hashes are computed for tracks
// that lack one, persisted, and reused on later runs.
func (d *Detector) detectHash(ctx context.Context, tracks []*library.Track) (*Report, error) {
	unresolved, err := d.fillLazily(ctx, tracks, lazyFill{
		missing: func(t *library.Track) bool { return t.ContentHash == "" },
		compute: func(ctx context.Context, t *library.Track) (string, error) {
			return hashFile(t.Path)
		},
		persist: func(ctx context.Context, t *library.Track, value string) error {
			t.ContentHash = value
			return d.store.SetContentHash(ctx, t.ID, value)
		},
		reason: "content unreadable",
	})
	if err != nil {
		return nil, err
	}

	uf := newUnionFind(len(tracks))
	byHash := make(map[string][]int)
	for i, track := range tracks {
		if track.ContentHash == "" {
			continue
		}
		byHash[track.ContentHash] = append(byHash[track.ContentHash], i)
	}
	for _, members := range byHash {
		for k := 1; k < len(members); k++ {
			uf.union(members[0], members[k])
		}
	}

	completed := len(tracks) - len(unresolved)
	confidence := func([]int) float64 { return 1.0 }
	return buildReport(StrategyHash, tracks, uf, confidence, unresolved, completed), nil
}

// hashFile streams the file through SHA-256 with a fixed 32 KiB buffer.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, 32*1024)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("read: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// lazyFill describes one cached per-track computation.
type lazyFill struct {
	missing func(*library.Track) bool
	compute func(context.Context, *library.Track) (string, error)
	persist func(context.Context, *library.Track, string) error
	reason  string
}

type fillResult struct {
	index int
	value string
	err   error
}

// fillLazily computes missing values across the worker pool and persists them
// from this goroutine, keeping index writes serialized. Committed fills
// survive cancellation.
func (d *Detector) fillLazily(ctx context.Context, tracks []*library.Track, fill lazyFill) ([]Unresolved, error) {
	var pending []int
	for i, track := range tracks {
		if fill.missing(track) {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}

	workers := d.cfg.Detect.Workers
	if workers > len(pending) {
		workers = len(pending)
	}

	work := make(chan int)
	results := make(chan fillResult)

	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for idx := range work {
				value, err := fill.compute(ctx, tracks[idx])
				select {
				case results <- fillResult{index: idx, value: value, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(work)
		for _, idx := range pending {
			select {
			case work <- idx:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// Keep draining even after a persist failure; returning early would
	// leave workers and the feeder blocked on their sends.
	var persistErr error
	var unresolved []Unresolved
	for res := range results {
		track := tracks[res.index]
		if res.err != nil {
			if ctx.Err() != nil {
				continue
			}
			unresolved = append(unresolved, Unresolved{
				Path:   track.Path,
				Reason: fill.reason,
			})
			d.logger.Debug("lazy fill failed",
				logging.String(logging.FieldPath, track.Path),
				logging.Error(res.err),
			)
			continue
		}
		if persistErr != nil {
			continue
		}
		if err := fill.persist(ctx, track, res.value); err != nil {
			persistErr = err
		}
	}
	if persistErr != nil {
		return unresolved, persistErr
	}
	if err := ctx.Err(); err != nil {
		return unresolved, err
	}
	return unresolved, nil
}
