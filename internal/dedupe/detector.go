package dedupe

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"quaver/internal/config"
	"quaver/internal/fingerprint"
	"quaver/internal/library"
	"quaver/internal/logging"
)

// Strategy selects how tracks are compared.
type Strategy string

const (
	// StrategyMetadata groups by normalized tags with a duration gate.
	StrategyMetadata Strategy = "metadata"
	// StrategyHash groups by exact file content.
	StrategyHash Strategy = "hash"
	// StrategyFingerprint groups by acoustic similarity.
	StrategyFingerprint Strategy = "fingerprint"
)

// ParseStrategy validates a strategy name from user input.
func ParseStrategy(value string) (Strategy, error) {
	switch Strategy(value) {
	case StrategyMetadata, StrategyHash, StrategyFingerprint:
		return Strategy(value), nil
	}
	return "", fmt.Errorf("unknown strategy %q (want metadata, hash, or fingerprint)", value)
}

// Group is one set of tracks judged to be the same recording. Paths are
// sorted lexicographically; groups close transitively.
type Group struct {
	Strategy   Strategy `json:"strategy"`
	Confidence float64  `json:"confidence"`
	Paths      []string `json:"paths"`
}

// Unresolved names a track the strategy could not judge.
type Unresolved struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Report is the outcome of one detection pass. Groups are pairwise disjoint
// and ordered by their first path.
type Report struct {
	Strategy   Strategy     `json:"strategy"`
	Groups     []Group      `json:"groups"`
	Unresolved []Unresolved `json:"unresolved,omitempty"`
	Completed  int          `json:"completed"`
}

// Detector runs duplicate detection over a catalog snapshot.
type Detector struct {
	cfg      *config.Config
	store    *library.Store
	provider fingerprint.Provider
	logger   *slog.Logger
}

// New constructs a detector. The provider may be nil when fingerprinting is
// not needed; StrategyFingerprint then reports every track unresolved.
func New(cfg *config.Config, store *library.Store, provider fingerprint.Provider, logger *slog.Logger) *Detector {
	return &Detector{
		cfg:      cfg,
		store:    store,
		provider: provider,
		logger:   logging.WithComponent(logger, "detector"),
	}
}

// Detect runs one strategy against the current catalog snapshot.
func (d *Detector) Detect(ctx context.Context, strategy Strategy) (*Report, error) {
	tracks, err := d.store.List(ctx)
	if err != nil {
		return nil, err
	}

	var report *Report
	switch strategy {
	case StrategyMetadata:
		report, err = d.detectMetadata(ctx, tracks)
	case StrategyHash:
		report, err = d.detectHash(ctx, tracks)
	case StrategyFingerprint:
		report, err = d.detectFingerprint(ctx, tracks)
	default:
		return nil, fmt.Errorf("unknown strategy %q", strategy)
	}
	if err != nil {
		return nil, err
	}

	d.logger.Info("detection complete",
		logging.String(logging.FieldStrategy, string(strategy)),
		logging.Int("tracks", len(tracks)),
		logging.Int("groups", len(report.Groups)),
		logging.Int("unresolved", len(report.Unresolved)),
	)
	return report, nil
}

// buildReport assembles sorted groups out of the union-find state. tracks
// arrive ordered by path, so member indexes are already in path order.
func buildReport(strategy Strategy, tracks []*library.Track, uf *unionFind, confidence func(members []int) float64, unresolved []Unresolved, completed int) *Report {
	report := &Report{
		Strategy:   strategy,
		Unresolved: unresolved,
		Completed:  completed,
	}
	for _, members := range uf.groups() {
		paths := make([]string, len(members))
		for i, idx := range members {
			paths[i] = tracks[idx].Path
		}
		report.Groups = append(report.Groups, Group{
			Strategy:   strategy,
			Confidence: confidence(members),
			Paths:      paths,
		})
	}
	sort.Slice(report.Groups, func(i, j int) bool {
		return report.Groups[i].Paths[0] < report.Groups[j].Paths[0]
	})
	sort.Slice(report.Unresolved, func(i, j int) bool {
		return report.Unresolved[i].Path < report.Unresolved[j].Path
	})
	return report
}

// durationsCompatible gates pairings on duration distance. Unknown durations
// never disqualify a pair.
func durationsCompatible(a, b *library.Track, toleranceMillis int64) bool {
	if a.DurationMillis <= 0 || b.DurationMillis <= 0 {
		return true
	}
	delta := a.DurationMillis - b.DurationMillis
	if delta < 0 {
		delta = -delta
	}
	return delta < toleranceMillis
}
