package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"quaver/internal/config"
	"quaver/internal/library"
	"quaver/internal/logging"
	"quaver/internal/metadata"
)

// ErrScanActive indicates another scan already holds the scan lock.
var ErrScanActive = errors.New("scan already in progress")

// Outcome classifies what happened to one file during a scan.
type Outcome string

const (
	OutcomeAdded     Outcome = "added"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeFailed    Outcome = "failed"
	OutcomeRemoved   Outcome = "removed"
)

// Result records the outcome for one file.
type Result struct {
	Path    string  `json:"path"`
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason,omitempty"`
}

// Report summarizes one scan pass, with per-file results and counts.
type Report struct {
	Session   string   `json:"session"`
	Results   []Result `json:"results,omitempty"`
	Scanned   int      `json:"scanned"`
	Added     int      `json:"added"`
	Updated   int      `json:"updated"`
	Unchanged int      `json:"unchanged"`
	Failed    int      `json:"failed"`
	Removed   int      `json:"removed"`
}

func (r *Report) record(path string, outcome Outcome, reason string) {
	r.Results = append(r.Results, Result{Path: path, Outcome: outcome, Reason: reason})
	switch outcome {
	case OutcomeAdded:
		r.Added++
	case OutcomeUpdated:
		r.Updated++
	case OutcomeUnchanged:
		r.Unchanged++
	case OutcomeFailed:
		r.Failed++
	case OutcomeRemoved:
		r.Removed++
	}
}

// Orchestrator drives incremental scans against the track catalog.
type Orchestrator struct {
	cfg       *config.Config
	store     *library.Store
	extractor metadata.Extractor
	logger    *slog.Logger
}

// New constructs a scan orchestrator.
func New(cfg *config.Config, store *library.Store, extractor metadata.Extractor, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		store:     store,
		extractor: extractor,
		logger:    logging.WithComponent(logger, "scanner"),
	}
}

type candidate struct {
	path  string
	size  int64
	mtime time.Time
	prior *library.Track
}

type result struct {
	candidate
	meta *metadata.TrackMetadata
	err  error
}

// Scan walks root and reconciles the catalog with what it finds. On
// cancellation the report reflects the work completed before the cutoff and
// no reaping happens.
func (o *Orchestrator) Scan(ctx context.Context, root string) (*Report, error) {
	resolved, err := config.ExpandPath(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("stat scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %q is not a directory", resolved)
	}

	lock := flock.New(filepath.Join(o.cfg.Paths.DataDir, "scan.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire scan lock: %w", err)
	}
	if !locked {
		return nil, ErrScanActive
	}
	defer func() { _ = lock.Unlock() }()

	report := &Report{Session: uuid.NewString()}
	logger := o.logger.With(logging.Args(logging.String("session", report.Session))...)

	prior, err := o.store.TracksUnder(ctx, resolved)
	if err != nil {
		return report, err
	}
	priorByPath := make(map[string]*library.Track, len(prior))
	for _, track := range prior {
		priorByPath[track.Path] = track
	}

	candidates, shields, err := o.collectCandidates(ctx, resolved, priorByPath, report)
	if err != nil {
		return report, err
	}

	logger.Info("scan starting",
		logging.String(logging.FieldPath, resolved),
		logging.Int("candidates", len(candidates)),
		logging.Int("indexed", len(priorByPath)),
	)

	report.Scanned = len(candidates)
	seen := make(map[string]struct{}, len(candidates))
	var pending []candidate
	for _, cand := range candidates {
		seen[cand.path] = struct{}{}
		if cand.prior != nil && cand.prior.SizeBytes == cand.size && cand.prior.ModTime.Equal(cand.mtime) {
			report.record(cand.path, OutcomeUnchanged, "")
			continue
		}
		pending = append(pending, cand)
	}

	if err := o.processPending(ctx, pending, report); err != nil {
		return report, err
	}

	// Reap rows whose files are gone, but never on a cancelled pass; an
	// interrupted walk has not observed the whole tree.
	if err := ctx.Err(); err != nil {
		return report, err
	}
	if err := o.reap(ctx, prior, seen, shields, report, logger); err != nil {
		return report, err
	}

	logger.Info("scan complete",
		logging.Int("added", report.Added),
		logging.Int("updated", report.Updated),
		logging.Int("unchanged", report.Unchanged),
		logging.Int("failed", report.Failed),
		logging.Int("removed", report.Removed),
	)
	return report, nil
}

// collectCandidates walks the tree gathering supported audio files.
// Unsupported extensions are skipped silently; unreadable directories count
// as failures without aborting the walk. Paths that failed to read come back
// as shields: their subtrees were never observed, so the reap pass must leave
// any indexed tracks beneath them alone.
func (o *Orchestrator) collectCandidates(ctx context.Context, root string, prior map[string]*library.Track, report *Report) ([]candidate, []string, error) {
	var candidates []candidate
	var shields []string

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			report.record(path, OutcomeFailed, walkErr.Error())
			shields = append(shields, path)
			o.logger.Warn("walk error", logging.String(logging.FieldPath, path), logging.Error(walkErr))
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() || !metadata.Supported(path) {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			report.record(path, OutcomeFailed, err.Error())
			shields = append(shields, path)
			return nil
		}
		candidates = append(candidates, candidate{
			path:  path,
			size:  info.Size(),
			mtime: info.ModTime().UTC(),
			prior: prior[path],
		})
		return nil
	})
	if err != nil {
		return candidates, shields, err
	}
	return candidates, shields, nil
}

// reap removes catalog rows whose files were not observed on disk. Prior
// tracks arrive in path order so removals report deterministically. Tracks
// under a shield path are kept: a read failure on a still-present subtree is
// not evidence the files are gone.
func (o *Orchestrator) reap(
	ctx context.Context,
	prior []*library.Track,
	seen map[string]struct{},
	shields []string,
	report *Report,
	logger *slog.Logger,
) error {
	for _, track := range prior {
		if _, ok := seen[track.Path]; ok {
			continue
		}
		if shielded(track.Path, shields) {
			continue
		}
		removed, err := o.store.Remove(ctx, track.Path)
		if err != nil {
			return err
		}
		if removed {
			report.record(track.Path, OutcomeRemoved, "file missing from disk")
			logger.Debug("reaped missing file",
				logging.String(logging.FieldPath, track.Path),
				logging.Int64(logging.FieldTrackID, track.ID),
			)
		}
	}
	return nil
}

// shielded reports whether path equals, or lies under, any shield path.
func shielded(path string, shields []string) bool {
	for _, shield := range shields {
		if path == shield || strings.HasPrefix(path, shield+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// processPending extracts metadata across the worker pool. All index writes
// happen on the collector goroutine.
func (o *Orchestrator) processPending(ctx context.Context, pending []candidate, report *Report) error {
	if len(pending) == 0 {
		return nil
	}

	workers := o.cfg.Scan.Workers
	if workers > len(pending) {
		workers = len(pending)
	}

	work := make(chan candidate)
	results := make(chan result)

	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for cand := range work {
				meta, err := o.extractor.Extract(ctx, cand.path)
				select {
				case results <- result{candidate: cand, meta: meta, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(work)
		for _, cand := range pending {
			select {
			case work <- cand:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var firstErr error
	for res := range results {
		if res.err != nil {
			if errors.Is(res.err, context.Canceled) || errors.Is(res.err, context.DeadlineExceeded) {
				continue
			}
			report.record(res.path, OutcomeFailed, res.err.Error())
			o.logger.Warn("extraction failed",
				logging.String(logging.FieldPath, res.path),
				logging.Error(res.err),
			)
			continue
		}

		track := &library.Track{
			Path:           res.path,
			Artist:         res.meta.Artist,
			Album:          res.meta.Album,
			Title:          res.meta.Title,
			Genre:          res.meta.Genre,
			Year:           res.meta.Year,
			TrackNo:        res.meta.TrackNo,
			DurationMillis: res.meta.DurationMillis,
			SizeBytes:      res.size,
			ModTime:        res.mtime,
		}
		if res.prior != nil {
			track.ID = res.prior.ID
		}
		if err := o.store.Upsert(ctx, track); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if res.prior != nil {
			report.record(res.path, OutcomeUpdated, "")
		} else {
			report.record(res.path, OutcomeAdded, "")
		}
	}
	return firstErr
}
