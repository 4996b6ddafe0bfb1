package organize

import (
	"fmt"
	"strings"

	"quaver/internal/library"
)

// invalidNameRunes are stripped from rendered path components. The set covers
// Windows-reserved characters so plans stay portable across filesystems.
const invalidNameRunes = `<>:"/\|?*`

// renderRelative expands the pattern for one track into a relative path.
// Tag values are sanitized before substitution so a slash inside a tag never
// produces an extra directory level; only the pattern's own slashes separate
// components. The source file's extension is appended afterwards by the
// planner.
func renderRelative(pattern, placeholder string, track *library.Track) string {
	expanded := expandTokens(pattern, placeholder, track)
	parts := strings.Split(expanded, "/")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		name := sanitizeComponent(part)
		if name == "" {
			name = placeholder
		}
		cleaned = append(cleaned, name)
	}
	return strings.Join(cleaned, "/")
}

func expandTokens(pattern, placeholder string, track *library.Track) string {
	replacer := strings.NewReplacer(
		"{artist}", orPlaceholder(track.Artist, placeholder),
		"{album}", orPlaceholder(track.Album, placeholder),
		"{title}", orPlaceholder(track.Title, placeholder),
		"{genre}", orPlaceholder(track.Genre, placeholder),
		"{year}", yearToken(track.Year, placeholder),
		"{track}", trackToken(track.TrackNo, placeholder),
	)
	return replacer.Replace(pattern)
}

func orPlaceholder(value, placeholder string) string {
	cleaned := sanitizeComponent(value)
	if cleaned == "" {
		return placeholder
	}
	return cleaned
}

func yearToken(year int, placeholder string) string {
	if year <= 0 {
		return placeholder
	}
	return fmt.Sprintf("%d", year)
}

func trackToken(trackNo int, placeholder string) string {
	if trackNo <= 0 {
		return placeholder
	}
	return fmt.Sprintf("%02d", trackNo)
}

// sanitizeComponent strips filesystem-hostile characters, collapses runs of
// whitespace to single spaces, and trims trailing dots and spaces.
func sanitizeComponent(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if strings.ContainsRune(invalidNameRunes, r) || r < 0x20 {
			continue
		}
		b.WriteRune(r)
	}
	collapsed := strings.Join(strings.Fields(b.String()), " ")
	return strings.TrimRight(collapsed, ". ")
}
