package metadata

import (
	"context"
	"errors"
	"testing"
)

func TestSupportedExtensions(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"/music/song.mp3", true},
		{"/music/song.FLAC", true},
		{"/music/song.m4a", true},
		{"/music/song.ogg", true},
		{"/music/song.wav", true},
		{"/music/cover.jpg", false},
		{"/music/notes.txt", false},
		{"/music/noext", false},
	}
	for _, tc := range cases {
		if got := Supported(tc.path); got != tc.want {
			t.Errorf("Supported(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestExtractFailsOnCorruptFile(t *testing.T) {
	content := make([]byte, 1024)
	for i := range content {
		content[i] = 'x'
	}
	path := writeTestFile(t, "corrupt.mp3", content)

	reader := NewTagReader()
	_, err := reader.Extract(context.Background(), path)
	if err == nil {
		t.Fatal("expected extraction error for corrupt content")
	}
	if !errors.Is(err, ErrUnreadable) {
		t.Fatalf("expected ErrUnreadable, got %v", err)
	}
}

func TestExtractFailsOnMissingFile(t *testing.T) {
	reader := NewTagReader()
	if _, err := reader.Extract(context.Background(), "/nonexistent/file.mp3"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestExtractHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := NewTagReader()
	if _, err := reader.Extract(ctx, "/ignored.mp3"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCleanTag(t *testing.T) {
	if got := cleanTag("  The Beatles\x00 "); got != "The Beatles" {
		t.Fatalf("unexpected cleaned value: %q", got)
	}
}
