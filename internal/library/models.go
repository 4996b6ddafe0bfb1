package library

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Track is one catalog row keyed by absolute file path.
type Track struct {
	ID   int64
	Path string

	Artist  string
	Album   string
	Title   string
	Genre   string
	Year    int
	TrackNo int

	// DurationMillis is the decoded audio duration. Zero when the extractor
	// could not determine it.
	DurationMillis int64

	// SizeBytes and ModTime identify the file state at index time. Rescans
	// skip extraction when both still match the filesystem.
	SizeBytes int64
	ModTime   time.Time

	// ArtistKey and TitleKey are normalized forms of Artist and Title used
	// for metadata grouping. The Store maintains them on every upsert.
	ArtistKey string
	TitleKey  string

	// ContentHash and Fingerprint are computed on demand by detection passes
	// and persisted so later runs can reuse them. Empty means not yet
	// computed for the current file state.
	ContentHash string
	Fingerprint string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasTags reports whether the track carries enough tag data for metadata
// grouping.
func (t *Track) HasTags() bool {
	return t != nil && t.ArtistKey != "" && t.TitleKey != ""
}

// Stats summarizes catalog contents for diagnostic output.
type Stats struct {
	Tracks        int
	Artists       int
	Albums        int
	TotalBytes    int64
	TotalMillis   int64
	Hashed        int
	Fingerprinted int
}

var foldCaser = cases.Fold()

// TagKey normalizes a tag value for grouping: Unicode case folding, leading
// and trailing whitespace removal, and internal whitespace collapse.
func TagKey(value string) string {
	folded := foldCaser.String(strings.TrimSpace(value))
	fields := strings.Fields(folded)
	if len(fields) == 0 {
		return ""
	}
	return strings.Join(fields, " ")
}
