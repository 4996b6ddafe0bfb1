package testsupport

import (
	"context"
	"testing"

	"quaver/internal/config"
	"quaver/internal/library"
)

// MustOpenStore opens a library.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *library.Store {
	t.Helper()

	store, err := library.Open(cfg)
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedTrack upserts a track for tests using the provided store.
func SeedTrack(t testing.TB, store *library.Store, track *library.Track) *library.Track {
	t.Helper()

	if err := store.Upsert(context.Background(), track); err != nil {
		t.Fatalf("store.Upsert: %v", err)
	}
	return track
}
