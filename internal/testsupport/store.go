package testsupport

import (
	"context"
	"testing"

	"reel/internal/config"
	"reel/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewScreencast creates a screencast item for tests using the provided store.
func NewScreencast(t testing.TB, store *queue.Store, sourcePath, title, hash string) *queue.Item {
	t.Helper()

	item, err := store.NewScreencast(context.Background(), sourcePath, title, hash)
	if err != nil {
		t.Fatalf("store.NewScreencast: %v", err)
	}
	return item
}

// NewSlideshow creates a slideshow item for tests using the provided store.
func NewSlideshow(t testing.TB, store *queue.Store, sourcePath, title, hash string) *queue.Item {
	t.Helper()

	item, err := store.NewSlideshow(context.Background(), sourcePath, title, hash)
	if err != nil {
		t.Fatalf("store.NewSlideshow: %v", err)
	}
	return item
}
