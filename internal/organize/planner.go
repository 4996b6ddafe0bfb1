package organize

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"quaver/internal/config"
	"quaver/internal/library"
	"quaver/internal/logging"
)

// maxSuffix bounds collision suffixing per base name. Hitting it means the
// catalog funnels an absurd number of tracks onto one destination, which is a
// plan defect rather than something more suffixes should paper over.
const maxSuffix = 1000

// Planner computes rename plans from the catalog and the configured pattern.
type Planner struct {
	cfg    *config.Config
	store  *library.Store
	logger *slog.Logger
}

// NewPlanner wires a planner against the given catalog.
func NewPlanner(cfg *config.Config, store *library.Store, logger *slog.Logger) *Planner {
	return &Planner{
		cfg:    cfg,
		store:  store,
		logger: logging.WithComponent(logger, "planner"),
	}
}

// Plan renders a destination for every cataloged track and resolves
// collisions by suffixing. Tracks already at their destination reserve it but
// produce no entry.
func (p *Planner) Plan(ctx context.Context) (*Plan, error) {
	tracks, err := p.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}

	pattern := p.cfg.Organize.Pattern
	placeholder := p.cfg.Organize.Placeholder
	libraryDir, err := config.ExpandPath(p.cfg.Paths.LibraryDir)
	if err != nil {
		return nil, fmt.Errorf("resolve library dir: %w", err)
	}

	plan := &Plan{
		ID:        uuid.NewString(),
		Pattern:   pattern,
		CreatedAt: time.Now().UTC(),
	}

	// List returns tracks in path order, which fixes suffix priority: the
	// lexicographically first source claims the unsuffixed destination.
	claimed := make(map[string]struct{}, len(tracks))
	for _, track := range tracks {
		rel := renderRelative(pattern, placeholder, track)
		ext := filepath.Ext(track.Path)
		base := filepath.Join(libraryDir, filepath.FromSlash(rel))

		dest, err := claimDestination(claimed, base, ext)
		if err != nil {
			return nil, err
		}
		if dest == filepath.Clean(track.Path) {
			continue
		}
		plan.Entries = append(plan.Entries, Entry{
			SourcePath:      track.Path,
			DestinationPath: dest,
			Action:          actionFor(track.Path, dest),
		})
	}

	p.logger.Info("plan computed",
		logging.Args(
			logging.String(logging.FieldPlanID, plan.ID),
			logging.Int("tracks", len(tracks)),
			logging.Int("entries", len(plan.Entries)),
		)...)
	return plan, nil
}

// claimDestination reserves the first free variant of base+ext, appending
// -2, -3, and so on before the extension. Reservations are case-insensitive
// so plans behave the same on case-preserving filesystems.
func claimDestination(claimed map[string]struct{}, base, ext string) (string, error) {
	for n := 1; n <= maxSuffix; n++ {
		candidate := base + ext
		if n > 1 {
			candidate = fmt.Sprintf("%s-%d%s", base, n, ext)
		}
		key := strings.ToLower(candidate)
		if _, taken := claimed[key]; taken {
			continue
		}
		claimed[key] = struct{}{}
		return candidate, nil
	}
	return "", fmt.Errorf("%w: %s%s", ErrDestinationCollision, base, ext)
}

func actionFor(source, dest string) Action {
	if filepath.Dir(filepath.Clean(source)) == filepath.Dir(dest) {
		return ActionRename
	}
	return ActionMove
}

// ExecutionOrder sequences entries so that an entry whose destination is
// another entry's source runs after that source has moved away; executing in
// plain source order would overwrite the other track's file. Entries caught
// in a dependency cycle (or downstream of one) cannot run safely and are
// returned as blocked. Both slices are deterministic for a given plan.
func ExecutionOrder(entries []Entry) (ordered, blocked []Entry) {
	bySource := make(map[string]int, len(entries))
	for i, entry := range entries {
		bySource[filepath.Clean(entry.SourcePath)] = i
	}

	const (
		unvisited = iota
		visiting
		scheduled
		failed
	)
	state := make([]int, len(entries))

	var visit func(i int) bool
	visit = func(i int) bool {
		switch state[i] {
		case visiting:
			state[i] = failed
			return false
		case scheduled:
			return true
		case failed:
			return false
		}
		state[i] = visiting

		ok := true
		if dep, exists := bySource[filepath.Clean(entries[i].DestinationPath)]; exists && dep != i {
			ok = visit(dep)
		}
		if state[i] == failed {
			return false
		}
		if !ok {
			state[i] = failed
			return false
		}
		state[i] = scheduled
		ordered = append(ordered, entries[i])
		return true
	}

	for i := range entries {
		visit(i)
	}
	for i, entry := range entries {
		if state[i] == failed {
			blocked = append(blocked, entry)
		}
	}
	return ordered, blocked
}

// Validate re-checks a plan against the live filesystem. It reports entries
// whose source vanished, whose destination is occupied by a file the plan
// does not move away, and any destinations shared between entries.
func (p *Planner) Validate(plan *Plan) []Conflict {
	var conflicts []Conflict

	destCount := make(map[string]int, len(plan.Entries))
	sources := make(map[string]struct{}, len(plan.Entries))
	for _, entry := range plan.Entries {
		destCount[entry.DestinationPath]++
		sources[filepath.Clean(entry.SourcePath)] = struct{}{}
	}

	for _, entry := range plan.Entries {
		if destCount[entry.DestinationPath] > 1 {
			conflicts = append(conflicts, Conflict{
				Kind:            ConflictDestinationCollision,
				SourcePath:      entry.SourcePath,
				DestinationPath: entry.DestinationPath,
			})
		}
		if _, err := os.Stat(entry.SourcePath); err != nil {
			conflicts = append(conflicts, Conflict{
				Kind:            ConflictSourceMissing,
				SourcePath:      entry.SourcePath,
				DestinationPath: entry.DestinationPath,
			})
		}
		if _, err := os.Stat(entry.DestinationPath); err == nil {
			if _, moving := sources[filepath.Clean(entry.DestinationPath)]; !moving {
				conflicts = append(conflicts, Conflict{
					Kind:            ConflictDestinationExists,
					SourcePath:      entry.SourcePath,
					DestinationPath: entry.DestinationPath,
				})
			}
		}
	}
	return conflicts
}
