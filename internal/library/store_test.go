package library_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"quaver/internal/library"
	"quaver/internal/testsupport"
)

func TestUpsertAssignsIDAndKeys(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	track := &library.Track{
		Path:           "/music/beatles/yesterday.mp3",
		Artist:         "The  Beatles ",
		Album:          "Help!",
		Title:          "Yesterday",
		DurationMillis: 125000,
		SizeBytes:      4096,
		ModTime:        time.Now(),
	}
	if err := store.Upsert(ctx, track); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if track.ID == 0 {
		t.Fatal("expected track ID to be assigned")
	}
	if track.ArtistKey != "the beatles" {
		t.Fatalf("unexpected artist key: %q", track.ArtistKey)
	}

	fetched, err := store.GetByPath(ctx, track.Path)
	if err != nil {
		t.Fatalf("GetByPath failed: %v", err)
	}
	if fetched == nil || fetched.ID != track.ID || fetched.Title != "Yesterday" {
		t.Fatalf("unexpected fetched track: %#v", fetched)
	}
}

func TestUpsertReplacesByPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	original := testsupport.SeedTrack(t, store, &library.Track{
		Path:   "/music/song.flac",
		Artist: "Old Artist",
		Title:  "Old Title",
	})

	updated := &library.Track{
		Path:   "/music/song.flac",
		Artist: "New Artist",
		Title:  "New Title",
	}
	if err := store.Upsert(ctx, updated); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if updated.ID != original.ID {
		t.Fatalf("expected same row ID, got %d and %d", original.ID, updated.ID)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected single row, got %d", len(all))
	}
	if all[0].Artist != "New Artist" {
		t.Fatalf("unexpected artist after replace: %q", all[0].Artist)
	}
}

func TestGetByPathMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	track, err := store.GetByPath(context.Background(), "/nowhere.mp3")
	if err != nil {
		t.Fatalf("GetByPath failed: %v", err)
	}
	if track != nil {
		t.Fatalf("expected nil for missing path, got %#v", track)
	}
}

func TestFindByTagKey(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.SeedTrack(t, store, &library.Track{Path: "/a/yesterday.mp3", Artist: "The Beatles", Title: "Yesterday"})
	testsupport.SeedTrack(t, store, &library.Track{Path: "/b/yesterday.flac", Artist: "the beatles", Title: "YESTERDAY"})
	testsupport.SeedTrack(t, store, &library.Track{Path: "/c/other.mp3", Artist: "The Beatles", Title: "Help!"})

	matches, err := store.FindByTagKey(ctx, library.TagKey("The Beatles"), library.TagKey("Yesterday"))
	if err != nil {
		t.Fatalf("FindByTagKey failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Path != "/a/yesterday.mp3" || matches[1].Path != "/b/yesterday.flac" {
		t.Fatalf("unexpected match order: %s, %s", matches[0].Path, matches[1].Path)
	}
}

func TestTracksUnderScopesToRoot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.SeedTrack(t, store, &library.Track{Path: "/music/albums/a.mp3", Title: "A"})
	testsupport.SeedTrack(t, store, &library.Track{Path: "/music/albums/deep/b.mp3", Title: "B"})
	testsupport.SeedTrack(t, store, &library.Track{Path: "/music/albums-extra/c.mp3", Title: "C"})
	testsupport.SeedTrack(t, store, &library.Track{Path: "/other/d.mp3", Title: "D"})

	under, err := store.TracksUnder(ctx, "/music/albums")
	if err != nil {
		t.Fatalf("TracksUnder failed: %v", err)
	}
	if len(under) != 2 {
		t.Fatalf("expected 2 tracks under root, got %d", len(under))
	}
	for _, track := range under {
		if track.Title == "C" || track.Title == "D" {
			t.Fatalf("track outside root leaked in: %s", track.Path)
		}
	}
}

func TestSetContentHashAndFingerprint(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	track := testsupport.SeedTrack(t, store, &library.Track{Path: "/music/x.mp3", Title: "X"})

	if err := store.SetContentHash(ctx, track.ID, "abc123"); err != nil {
		t.Fatalf("SetContentHash failed: %v", err)
	}
	if err := store.SetFingerprint(ctx, track.ID, "1,2,3"); err != nil {
		t.Fatalf("SetFingerprint failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, track.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.ContentHash != "abc123" || fetched.Fingerprint != "1,2,3" {
		t.Fatalf("persisted values missing: %#v", fetched)
	}

	byHash, err := store.FindByContentHash(ctx, "abc123")
	if err != nil {
		t.Fatalf("FindByContentHash failed: %v", err)
	}
	if len(byHash) != 1 || byHash[0].ID != track.ID {
		t.Fatalf("unexpected hash lookup result: %#v", byHash)
	}
}

func TestRemove(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.SeedTrack(t, store, &library.Track{Path: "/music/gone.mp3", Title: "Gone"})

	removed, err := store.Remove(ctx, "/music/gone.mp3")
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !removed {
		t.Fatal("expected row to be removed")
	}

	removed, err = store.Remove(ctx, "/music/gone.mp3")
	if err != nil {
		t.Fatalf("second Remove failed: %v", err)
	}
	if removed {
		t.Fatal("expected no-op on second removal")
	}
}

func TestAllEnumeratesInPathOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	for i := 3; i >= 1; i-- {
		testsupport.SeedTrack(t, store, &library.Track{
			Path:  fmt.Sprintf("/music/%d.mp3", i),
			Title: fmt.Sprintf("Track %d", i),
		})
	}

	var paths []string
	for track, err := range store.All(ctx) {
		if err != nil {
			t.Fatalf("enumeration failed: %v", err)
		}
		paths = append(paths, track.Path)
	}
	want := []string{"/music/1.mp3", "/music/2.mp3", "/music/3.mp3"}
	if len(paths) != len(want) {
		t.Fatalf("expected %d tracks, got %d", len(want), len(paths))
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("unexpected order at %d: %s", i, paths[i])
		}
	}
}

func TestStats(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.SeedTrack(t, store, &library.Track{Path: "/a.mp3", Artist: "A", Album: "One", Title: "T1", SizeBytes: 100, DurationMillis: 1000, ContentHash: "h1"})
	testsupport.SeedTrack(t, store, &library.Track{Path: "/b.mp3", Artist: "A", Album: "Two", Title: "T2", SizeBytes: 200, DurationMillis: 2000})
	testsupport.SeedTrack(t, store, &library.Track{Path: "/c.mp3", Artist: "B", Album: "One", Title: "T3", SizeBytes: 300, DurationMillis: 3000, Fingerprint: "1,2"})

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Tracks != 3 || stats.Artists != 2 || stats.Albums != 2 {
		t.Fatalf("unexpected counts: %#v", stats)
	}
	if stats.TotalBytes != 600 || stats.TotalMillis != 6000 {
		t.Fatalf("unexpected totals: %#v", stats)
	}
	if stats.Hashed != 1 || stats.Fingerprinted != 1 {
		t.Fatalf("unexpected lazy-fill counters: %#v", stats)
	}
}

func TestTagKeyNormalization(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"The Beatles", "the beatles"},
		{"  The   Beatles  ", "the beatles"},
		{"MOTÖRHEAD", "motörhead"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := library.TagKey(tc.in); got != tc.want {
			t.Errorf("TagKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRenameKeepsIdentity(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	track := testsupport.SeedTrack(t, store, &library.Track{
		Path:   "/music/incoming/track.mp3",
		Artist: "Artist",
		Title:  "Song",
	})
	if err := store.SetContentHash(ctx, track.ID, "abc123"); err != nil {
		t.Fatalf("SetContentHash failed: %v", err)
	}

	moved, err := store.Rename(ctx, track.Path, "/music/Artist/Album/01 - Song.mp3")
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if !moved {
		t.Fatal("expected a row to match the old path")
	}

	fetched, err := store.GetByPath(ctx, "/music/Artist/Album/01 - Song.mp3")
	if err != nil {
		t.Fatalf("GetByPath failed: %v", err)
	}
	if fetched == nil || fetched.ID != track.ID || fetched.ContentHash != "abc123" {
		t.Fatalf("unexpected track after rename: %#v", fetched)
	}

	if stale, err := store.GetByPath(ctx, track.Path); err != nil || stale != nil {
		t.Fatalf("old path still resolves: %#v err=%v", stale, err)
	}

	moved, err = store.Rename(ctx, "/music/never-existed.mp3", "/music/elsewhere.mp3")
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if moved {
		t.Fatal("expected no row to match an unknown path")
	}
}
