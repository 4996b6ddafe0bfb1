package metadata

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// TagReader is the default Extractor backed by dhowden/tag.
type TagReader struct{}

// NewTagReader constructs the default extractor.
func NewTagReader() *TagReader {
	return &TagReader{}
}

// Extract reads tag fields and probes the duration for one audio file.
// A file without embedded tags extracts with empty fields; a file whose
// container cannot be parsed fails with ErrUnreadable.
func (r *TagReader) Extract(ctx context.Context, path string) (*TrackMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat audio file: %w", err)
	}

	meta := &TrackMetadata{}
	tags, err := tag.ReadFrom(file)
	switch {
	case err == nil:
		meta.Artist = cleanTag(tags.Artist())
		meta.Album = cleanTag(tags.Album())
		meta.Title = cleanTag(tags.Title())
		meta.Genre = cleanTag(tags.Genre())
		meta.Year = tags.Year()
		meta.TrackNo, _ = tags.Track()
	case errors.Is(err, tag.ErrNoTagsFound):
		// Untagged but structurally sound. Duration probing below decides
		// whether the container is readable at all.
	default:
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	duration, err := probeDuration(path, ext, info.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}
	meta.DurationMillis = duration
	return meta, nil
}

// cleanTag strips whitespace, null bytes, and replacement characters that
// commonly leak out of malformed tag frames.
func cleanTag(value string) string {
	cleaned := strings.TrimSpace(value)
	cleaned = strings.ReplaceAll(cleaned, "\x00", "")
	cleaned = strings.ReplaceAll(cleaned, "�", "")
	return cleaned
}
