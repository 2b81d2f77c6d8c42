package testsupport

import (
	"context"
	"testing"

	"podbrief/internal/config"
	"podbrief/internal/queue"
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

// NewEpisode creates a pending episode for tests using the provided store.
func NewEpisode(t testing.TB, store *queue.Store, feedName, guid, title string) *queue.Item {
	t.Helper()

	item, err := store.NewEpisode(context.Background(), queue.EpisodeSeed{
		FeedName: feedName,
		GUID:     guid,
		Title:    title,
		PageURL:  "https://example.com/episodes/" + guid,
	})
	if err != nil {
		t.Fatalf("store.NewEpisode: %v", err)
	}
	return item
}
