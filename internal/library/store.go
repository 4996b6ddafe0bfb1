package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"quaver/internal/config"
)

// Store manages track persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the library database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.IndexPath())
}

// OpenPath connects to the database at an explicit location and applies the
// schema. Used directly by tests.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Upsert inserts the track or replaces the existing row with the same path.
// Tag keys are recomputed from the current Artist and Title. The track's ID
// and timestamps are filled in on return.
func (s *Store) Upsert(ctx context.Context, track *Track) error {
	if track == nil {
		return errors.New("track is nil")
	}
	if track.Path == "" {
		return errors.New("track path is empty")
	}

	track.ArtistKey = TagKey(track.Artist)
	track.TitleKey = TagKey(track.Title)

	now := time.Now().UTC()
	track.UpdatedAt = now

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO tracks (
            path, artist, album, title, genre, year, track_no, duration_ms,
            size_bytes, mod_time, artist_key, title_key, content_hash,
            fingerprint, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(path) DO UPDATE SET
            artist = excluded.artist, album = excluded.album,
            title = excluded.title, genre = excluded.genre,
            year = excluded.year, track_no = excluded.track_no,
            duration_ms = excluded.duration_ms,
            size_bytes = excluded.size_bytes, mod_time = excluded.mod_time,
            artist_key = excluded.artist_key, title_key = excluded.title_key,
            content_hash = excluded.content_hash,
            fingerprint = excluded.fingerprint,
            updated_at = excluded.updated_at`,
		track.Path,
		nullableString(track.Artist),
		nullableString(track.Album),
		nullableString(track.Title),
		nullableString(track.Genre),
		track.Year,
		track.TrackNo,
		track.DurationMillis,
		track.SizeBytes,
		nullableTime(track.ModTime),
		track.ArtistKey,
		track.TitleKey,
		nullableString(track.ContentHash),
		nullableString(track.Fingerprint),
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert track: %w", err)
	}

	if track.ID == 0 {
		if id, err := res.LastInsertId(); err == nil && id > 0 {
			track.ID = id
		}
		if track.ID == 0 {
			existing, err := s.GetByPath(ctx, track.Path)
			if err != nil {
				return err
			}
			if existing != nil {
				track.ID = existing.ID
			}
		}
	}
	return nil
}

// GetByPath fetches a track by file path. Returns nil when absent.
func (s *Store) GetByPath(ctx context.Context, path string) (*Track, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE path = ?`, path)
	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get track by path: %w", err)
	}
	return track, nil
}

// GetByID fetches a track by identifier. Returns nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Track, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE id = ?`, id)
	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get track by id: %w", err)
	}
	return track, nil
}

// List returns every track ordered by path.
func (s *Store) List(ctx context.Context) ([]*Track, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+trackColumns+` FROM tracks ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	defer rows.Close()
	return collectTracks(rows)
}

// All lazily enumerates tracks ordered by path. Each call starts a fresh
// query, so the sequence can be ranged over more than once.
func (s *Store) All(ctx context.Context) iter.Seq2[*Track, error] {
	return func(yield func(*Track, error) bool) {
		rows, err := s.db.QueryContext(ctx, `SELECT `+trackColumns+` FROM tracks ORDER BY path`)
		if err != nil {
			yield(nil, fmt.Errorf("enumerate tracks: %w", err))
			return
		}
		defer rows.Close()
		for rows.Next() {
			track, err := scanTrack(rows)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(track, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// TracksUnder returns tracks whose paths live under root, ordered by path.
func (s *Store) TracksUnder(ctx context.Context, root string) ([]*Track, error) {
	prefix := strings.TrimRight(filepath.Clean(root), string(filepath.Separator)) + string(filepath.Separator)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+trackColumns+` FROM tracks WHERE path = ? OR path LIKE ? ESCAPE '\' ORDER BY path`,
		filepath.Clean(root),
		likePrefix(prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("query tracks under %s: %w", root, err)
	}
	defer rows.Close()
	return collectTracks(rows)
}

// FindByTagKey returns tracks sharing the normalized artist and title keys.
func (s *Store) FindByTagKey(ctx context.Context, artistKey, titleKey string) ([]*Track, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+trackColumns+` FROM tracks WHERE artist_key = ? AND title_key = ? ORDER BY path`,
		artistKey,
		titleKey,
	)
	if err != nil {
		return nil, fmt.Errorf("query by tag key: %w", err)
	}
	defer rows.Close()
	return collectTracks(rows)
}

// FindByContentHash returns tracks sharing a content hash.
func (s *Store) FindByContentHash(ctx context.Context, hash string) ([]*Track, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+trackColumns+` FROM tracks WHERE content_hash = ? ORDER BY path`,
		hash,
	)
	if err != nil {
		return nil, fmt.Errorf("query by content hash: %w", err)
	}
	defer rows.Close()
	return collectTracks(rows)
}

// SetContentHash persists a computed content hash for a track.
func (s *Store) SetContentHash(ctx context.Context, id int64, hash string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE tracks SET content_hash = ?, updated_at = ? WHERE id = ?`,
		nullableString(hash),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("set content hash: %w", err)
	}
	return nil
}

// SetFingerprint persists a computed acoustic fingerprint for a track.
func (s *Store) SetFingerprint(ctx context.Context, id int64, fingerprint string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE tracks SET fingerprint = ?, updated_at = ? WHERE id = ?`,
		nullableString(fingerprint),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("set fingerprint: %w", err)
	}
	return nil
}

// Rename updates a track's path in place, keeping its identity and any
// computed hash or fingerprint. Reports whether a row matched oldPath.
func (s *Store) Rename(ctx context.Context, oldPath, newPath string) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE tracks SET path = ?, updated_at = ? WHERE path = ?`,
		newPath,
		time.Now().UTC().Format(time.RFC3339Nano),
		oldPath,
	)
	if err != nil {
		return false, fmt.Errorf("rename track: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Remove deletes a track by path. Reports whether a row was removed.
func (s *Store) Remove(ctx context.Context, path string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tracks WHERE path = ?`, path)
	if err != nil {
		return false, fmt.Errorf("delete track: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Stats returns aggregate catalog counters.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	row := s.db.QueryRowContext(ctx, `SELECT
        COUNT(1),
        COUNT(DISTINCT artist_key),
        COUNT(DISTINCT album),
        COALESCE(SUM(size_bytes), 0),
        COALESCE(SUM(duration_ms), 0),
        COUNT(content_hash),
        COUNT(fingerprint)
        FROM tracks`)

	var stats Stats
	if err := row.Scan(
		&stats.Tracks,
		&stats.Artists,
		&stats.Albums,
		&stats.TotalBytes,
		&stats.TotalMillis,
		&stats.Hashed,
		&stats.Fingerprinted,
	); err != nil {
		return Stats{}, fmt.Errorf("catalog stats: %w", err)
	}
	return stats, nil
}

const trackColumns = "id, path, artist, album, title, genre, year, track_no, duration_ms, size_bytes, mod_time, artist_key, title_key, content_hash, fingerprint, created_at, updated_at"

func scanTrack(scanner interface{ Scan(dest ...any) error }) (*Track, error) {
	var (
		id          int64
		path        string
		artist      sql.NullString
		album       sql.NullString
		title       sql.NullString
		genre       sql.NullString
		year        int
		trackNo     int
		durationMs  int64
		sizeBytes   int64
		modTimeRaw  sql.NullString
		artistKey   string
		titleKey    string
		contentHash sql.NullString
		fingerprint sql.NullString
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&path,
		&artist,
		&album,
		&title,
		&genre,
		&year,
		&trackNo,
		&durationMs,
		&sizeBytes,
		&modTimeRaw,
		&artistKey,
		&titleKey,
		&contentHash,
		&fingerprint,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	track := &Track{
		ID:             id,
		Path:           path,
		Artist:         artist.String,
		Album:          album.String,
		Title:          title.String,
		Genre:          genre.String,
		Year:           year,
		TrackNo:        trackNo,
		DurationMillis: durationMs,
		SizeBytes:      sizeBytes,
		ArtistKey:      artistKey,
		TitleKey:       titleKey,
		ContentHash:    contentHash.String,
		Fingerprint:    fingerprint.String,
	}
	if modTime, err := parseTimeString(modTimeRaw.String); err == nil {
		track.ModTime = modTime
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		track.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		track.UpdatedAt = updated
	}
	return track, nil
}

func collectTracks(rows *sql.Rows) ([]*Track, error) {
	var tracks []*Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return tracks, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}

// likePrefix escapes LIKE metacharacters so the prefix matches literally.
func likePrefix(prefix string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(prefix) + "%"
}
