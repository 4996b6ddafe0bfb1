package metadata

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
)

// ErrUnreadable indicates the file could not be parsed as any supported
// audio container.
var ErrUnreadable = errors.New("unreadable audio file")

// TrackMetadata carries the tag fields and duration pulled from one file.
type TrackMetadata struct {
	Artist         string
	Album          string
	Title          string
	Genre          string
	Year           int
	TrackNo        int
	DurationMillis int64
}

// Extractor reads tag metadata from an audio file.
type Extractor interface {
	Extract(ctx context.Context, path string) (*TrackMetadata, error)
}

var supportedExtensions = map[string]struct{}{
	".mp3":  {},
	".flac": {},
	".m4a":  {},
	".ogg":  {},
	".wav":  {},
}

// Supported reports whether the path carries a recognized audio extension.
func Supported(path string) bool {
	_, ok := supportedExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}
