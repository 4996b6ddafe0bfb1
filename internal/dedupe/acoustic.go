package dedupe

import (
	"context"
	"sort"

	"quaver/internal/fingerprint"
	"quaver/internal/library"
)

// detectFingerprint groups tracks by acoustic similarity. Fingerprints are
// computed lazily and persisted; tracks the provider cannot fingerprint stay
// unresolved. Pairwise comparison slides a window over the duration-sorted
// tracks so cost stays near-linear for large catalogs.
func (d *Detector) detectFingerprint(ctx context.Context, tracks []*library.Track) (*Report, error) {
	var unresolved []Unresolved

	if d.provider == nil {
		for _, track := range tracks {
			unresolved = append(unresolved, Unresolved{Path: track.Path, Reason: "fingerprint provider unavailable"})
		}
		return buildReport(StrategyFingerprint, tracks, newUnionFind(len(tracks)), nil, unresolved, 0), nil
	}

	unresolved, err := d.fillLazily(ctx, tracks, lazyFill{
		missing: func(t *library.Track) bool { return t.Fingerprint == "" },
		compute: func(ctx context.Context, t *library.Track) (string, error) {
			return d.provider.Compute(ctx, t.Path)
		},
		persist: func(ctx context.Context, t *library.Track, value string) error {
			t.Fingerprint = value
			return d.store.SetFingerprint(ctx, t.ID, value)
		},
		reason: "fingerprint unavailable",
	})
	if err != nil {
		return nil, err
	}

	decoded := make([][]uint32, len(tracks))
	for i, track := range tracks {
		decoded[i] = fingerprint.Parse(track.Fingerprint)
	}

	width := d.cfg.Detect.DurationToleranceMillis
	if width <= 0 {
		width = 3000
	}
	order := make([]int, 0, len(tracks))
	for i := range tracks {
		if len(decoded[i]) == 0 {
			continue
		}
		order = append(order, i)
	}
	sort.Slice(order, func(a, b int) bool {
		return tracks[order[a]].DurationMillis < tracks[order[b]].DurationMillis
	})

	threshold := d.cfg.Detect.FingerprintThreshold
	uf := newUnionFind(len(tracks))
	type pair struct {
		a, b int
		sim  float64
	}
	var accepted []pair

	comparePair := func(i, j int) {
		sim := fingerprint.Similarity(decoded[i], decoded[j])
		if sim >= threshold {
			uf.union(i, j)
			accepted = append(accepted, pair{a: i, b: j, sim: sim})
		}
	}

	// Slide over the duration-sorted tracks. On a sorted list the duration
	// gap to a fixed left track only grows, and it grows faster than the
	// proportional allowance, so the first gate failure ends the window.
	for x := 0; x < len(order); x++ {
		i := order[x]
		for y := x + 1; y < len(order); y++ {
			j := order[y]
			if !fingerprint.DurationClose(tracks[i].DurationMillis, tracks[j].DurationMillis, width) {
				break
			}
			comparePair(i, j)
		}
	}

	// Group confidence is the weakest accepted link inside the group.
	minSim := make(map[int]float64)
	for _, p := range accepted {
		root := uf.find(p.a)
		if current, ok := minSim[root]; !ok || p.sim < current {
			minSim[root] = p.sim
		}
	}
	confidence := func(members []int) float64 {
		if sim, ok := minSim[uf.find(members[0])]; ok {
			return sim
		}
		return threshold
	}

	completed := len(tracks) - len(unresolved)
	return buildReport(StrategyFingerprint, tracks, uf, confidence, unresolved, completed), nil
}
