package resolver_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"podbrief/internal/logging"
	"podbrief/internal/notifications"
	"podbrief/internal/queue"
	"podbrief/internal/resolver"
	"podbrief/internal/services"
	"podbrief/internal/testsupport"
)

const videoPage = `<!DOCTYPE html>
<html>
<head>
<script type="application/ld+json">{not json at all</script>
<script type="application/ld+json">
[
  {"@type": "PodcastEpisode", "name": "Sleep Toolkit"},
  {"@type": "VideoObject", "embedUrl": "https://www.youtube.com/embed/dQw4w9WgXcQ"}
]
</script>
</head>
<body>Episode page</body>
</html>`

const audioOnlyPage = `<!DOCTYPE html>
<html>
<head>
<script type="application/ld+json">{"@type": "PodcastEpisode", "name": "Audio Only"}</script>
</head>
<body>No video here</body>
</html>`

type stubNotifier struct {
	events []notifications.Event
}

func (s *stubNotifier) Publish(ctx context.Context, event notifications.Event, payload notifications.Payload) error {
	s.events = append(s.events, event)
	return nil
}

type failDoer struct {
	t *testing.T
}

func (d failDoer) Do(req *http.Request) (*http.Response, error) {
	d.t.Fatalf("unexpected page fetch: %s", req.URL)
	return nil, nil
}

func TestResolverAdoptsFeedVideoID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewEpisode(t, store, "Test Feed", "guid-feed-id", "Sleep Toolkit")
	item.FeedVideoID = "abc123XYZ_-"
	item.Status = queue.StatusResolving
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	handler := resolver.NewResolverWithDependencies(cfg, store, logging.NewNop(), failDoer{t}, nil)
	if err := handler.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if item.VideoID != "abc123XYZ_-" {
		t.Fatalf("expected feed video id to be adopted, got %q", item.VideoID)
	}
	if item.ProgressPercent != 100 {
		t.Fatalf("expected progress complete, got %v", item.ProgressPercent)
	}
}

func TestResolverExtractsVideoFromJSONLD(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(videoPage))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewEpisode(t, store, "Test Feed", "guid-page", "Sleep Toolkit")
	item.PageURL = server.URL + "/episodes/sleep-toolkit"
	item.Status = queue.StatusResolving
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	handler := resolver.NewResolverWithDependencies(cfg, store, logging.NewNop(), server.Client(), nil)
	if err := handler.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if item.VideoID != "dQw4w9WgXcQ" {
		t.Fatalf("expected video id from JSON-LD, got %q", item.VideoID)
	}
	if item.WatchURL() != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Fatalf("unexpected watch url %q", item.WatchURL())
	}
}

func TestResolverRoutesMissingVideoToReview(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(audioOnlyPage))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewEpisode(t, store, "Test Feed", "guid-audio", "Audio Only")
	item.PageURL = server.URL + "/episodes/audio-only"
	item.Status = queue.StatusResolving
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	notifier := &stubNotifier{}
	handler := resolver.NewResolverWithDependencies(cfg, store, logging.NewNop(), server.Client(), notifier)
	if err := handler.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if item.Status != queue.StatusReview {
		t.Fatalf("expected review status, got %s", item.Status)
	}
	if !item.NeedsReview {
		t.Fatal("expected needs_review flag")
	}
	if item.ReviewReason == "" {
		t.Fatal("expected review reason")
	}
	if len(notifier.events) != 1 || notifier.events[0] != notifications.EventEpisodeReview {
		t.Fatalf("expected review notification, got %v", notifier.events)
	}
}

func TestResolverWrapsPageFetchErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewEpisode(t, store, "Test Feed", "guid-broken", "Broken Page")
	item.PageURL = server.URL + "/episodes/broken"
	item.Status = queue.StatusResolving
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	handler := resolver.NewResolverWithDependencies(cfg, store, logging.NewNop(), server.Client(), nil)
	if err := handler.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	err := handler.Execute(context.Background(), item)
	if err == nil {
		t.Fatal("expected execute error")
	}
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected external service marker, got %v", err)
	}
}

func TestResolverSkipsFetchWhenDisabledForFeed(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFeed("No Fetch", "https://feeds.example.com/nofetch.xml"))
	cfg.Feeds[0].DisablePageFetch = true
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewEpisode(t, store, "No Fetch", "guid-nofetch", "No Fetch Episode")
	item.Status = queue.StatusResolving
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	handler := resolver.NewResolverWithDependencies(cfg, store, logging.NewNop(), failDoer{t}, nil)
	if err := handler.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if item.Status != queue.StatusReview {
		t.Fatalf("expected review status, got %s", item.Status)
	}
}

func TestResolverHealthReady(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	handler := resolver.NewResolverWithDependencies(cfg, store, logging.NewNop(), &http.Client{}, nil)
	health := handler.HealthCheck(context.Background())
	if !health.Ready {
		t.Fatalf("expected ready health, got %+v", health)
	}
}

func TestResolverHealthMissingClient(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	handler := resolver.NewResolverWithDependencies(cfg, store, logging.NewNop(), nil, nil)
	health := handler.HealthCheck(context.Background())
	if health.Ready {
		t.Fatalf("expected not ready health, got %+v", health)
	}
}
