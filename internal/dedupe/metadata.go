package dedupe

import (
	"context"
	"sort"

	"github.com/hbollon/go-edlib"

	"quaver/internal/library"
)

// metadataConfidence reflects that matching tags plus a close duration is
// suggestive, not proof.
const metadataConfidence = 0.6

type tagKey struct {
	artist string
	title  string
}

// detectMetadata buckets tracks by normalized artist and title keys and
// unions pairs whose durations sit within the configured tolerance. With
// fuzzy_tags enabled, buckets whose keys are near-identical by Jaro-Winkler
// similarity also pair up under the same duration gate.
func (d *Detector) detectMetadata(ctx context.Context, tracks []*library.Track) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	uf := newUnionFind(len(tracks))
	var unresolved []Unresolved

	buckets := make(map[tagKey][]int)
	for i, track := range tracks {
		if !track.HasTags() {
			unresolved = append(unresolved, Unresolved{
				Path:   track.Path,
				Reason: "missing artist or title tags",
			})
			continue
		}
		key := tagKey{artist: track.ArtistKey, title: track.TitleKey}
		buckets[key] = append(buckets[key], i)
	}

	tolerance := d.cfg.Detect.DurationToleranceMillis
	for _, members := range buckets {
		d.unionCompatible(uf, tracks, members, members, tolerance)
	}

	if d.cfg.Detect.FuzzyTags {
		d.unionFuzzyBuckets(uf, tracks, buckets, tolerance)
	}

	completed := len(tracks) - len(unresolved)
	confidence := func([]int) float64 { return metadataConfidence }
	return buildReport(StrategyMetadata, tracks, uf, confidence, unresolved, completed), nil
}

// unionCompatible unions cross pairs of the two member sets that pass the
// duration gate.
func (d *Detector) unionCompatible(uf *unionFind, tracks []*library.Track, left, right []int, tolerance int64) {
	for _, i := range left {
		for _, j := range right {
			if j == i {
				continue
			}
			if durationsCompatible(tracks[i], tracks[j], tolerance) {
				uf.union(i, j)
			}
		}
	}
}

// unionFuzzyBuckets pairs buckets whose combined artist+title keys are close
// enough by Jaro-Winkler similarity. Keys are compared in sorted order so the
// pass is deterministic.
func (d *Detector) unionFuzzyBuckets(uf *unionFind, tracks []*library.Track, buckets map[tagKey][]int, tolerance int64) {
	keys := make([]tagKey, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].artist != keys[j].artist {
			return keys[i].artist < keys[j].artist
		}
		return keys[i].title < keys[j].title
	})

	threshold := float32(d.cfg.Detect.FuzzyThreshold)
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			a := keys[i].artist + " " + keys[i].title
			b := keys[j].artist + " " + keys[j].title
			if edlib.JaroWinklerSimilarity(a, b) < threshold {
				continue
			}
			d.unionCompatible(uf, tracks, buckets[keys[i]], buckets[keys[j]], tolerance)
		}
	}
}
