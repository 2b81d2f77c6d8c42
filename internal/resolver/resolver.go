package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"podbrief/internal/config"
	"podbrief/internal/logging"
	"podbrief/internal/notifications"
	"podbrief/internal/queue"
	"podbrief/internal/services"
	"podbrief/internal/stage"
)

const (
	userAgent          = "podbrief/0.1.0"
	defaultPageTimeout = 30 * time.Second
	maxPageBytes       = 8 << 20
)

// embedPattern extracts the 11-character video id from a YouTube embed URL.
var embedPattern = regexp.MustCompile(`/embed/([A-Za-z0-9_-]{11})`)

// HTTPDoer performs HTTP requests; *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Resolver locates the YouTube video backing a feed episode. Episodes whose
// feed already carried a video id skip the page fetch entirely.
type Resolver struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	client   HTTPDoer
	notifier notifications.Service
}

// NewResolver constructs the resolve stage handler using default dependencies.
func NewResolver(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Resolver {
	client := &http.Client{Timeout: defaultPageTimeout}
	return NewResolverWithDependencies(cfg, store, logger, client, notifications.NewService(cfg))
}

// NewResolverWithDependencies allows injecting collaborators (used in tests).
func NewResolverWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, client HTTPDoer, notifier notifications.Service) *Resolver {
	return &Resolver{
		store:    store,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "resolver"),
		client:   client,
		notifier: notifier,
	}
}

// Prepare initializes progress messaging prior to Execute.
func (r *Resolver) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, r.logger)
	item.InitProgress("Resolving", "Locating episode video")
	logger.Info(
		"starting video resolution",
		logging.String("episode_title", strings.TrimSpace(item.Title)),
		logging.String("page_url", strings.TrimSpace(item.PageURL)),
		logging.String("feed_video_id", strings.TrimSpace(item.FeedVideoID)),
	)
	return nil
}

// Execute resolves the episode's video id, preferring the id supplied by the
// feed and otherwise scraping the episode page for VideoObject metadata.
func (r *Resolver) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, r.logger)

	if feedID := strings.TrimSpace(item.FeedVideoID); feedID != "" {
		item.VideoID = feedID
		item.SetProgressComplete("Resolved", fmt.Sprintf("Video id %s provided by feed", feedID))
		logger.Info("video id provided by feed", logging.String("video_id", feedID))
		return nil
	}

	pageURL := strings.TrimSpace(item.PageURL)
	if pageURL == "" {
		r.flagReview(ctx, item, "Episode has no page URL to resolve")
		return nil
	}
	if r.feedConfig(item.FeedName).DisablePageFetch {
		r.flagReview(ctx, item, "Page fetch disabled for feed and no video id in feed entry")
		return nil
	}

	r.updateProgress(ctx, item, "Fetching episode page", 20)
	doc, err := r.fetchPage(ctx, pageURL)
	if err != nil {
		return services.Wrap(services.ErrExternalService, "resolving", "fetch episode page", "Failed to fetch episode page", err)
	}

	r.updateProgress(ctx, item, "Scanning page metadata", 60)
	videoID := findVideoID(doc)
	if videoID == "" {
		logger.Info("no video reference found on episode page", logging.String("page_url", pageURL))
		r.flagReview(ctx, item, "No YouTube video found on episode page")
		return nil
	}

	item.VideoID = videoID
	item.SetProgressComplete("Resolved", fmt.Sprintf("Resolved video %s", videoID))
	logger.Info(
		"episode video resolved",
		logging.String("video_id", videoID),
		logging.String("watch_url", item.WatchURL()),
	)
	return nil
}

// HealthCheck verifies resolver prerequisites.
func (r *Resolver) HealthCheck(ctx context.Context) stage.Health {
	const name = "resolver"
	if r.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if r.client == nil {
		return stage.Unhealthy(name, "http client unavailable")
	}
	return stage.Healthy(name)
}

func (r *Resolver) fetchPage(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build page request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("episode page: http %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("parse episode page: %w", err)
	}
	return doc, nil
}

func (r *Resolver) feedConfig(name string) config.Feed {
	if r.cfg == nil {
		return config.Feed{}
	}
	for _, feed := range r.cfg.Feeds {
		if feed.Name == name {
			return feed
		}
	}
	return config.Feed{}
}

func (r *Resolver) flagReview(ctx context.Context, item *queue.Item, reason string) {
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("flagging episode for review", logging.String("reason", reason))
	item.SetReview(reason)
	item.ErrorMessage = reason
	if r.notifier != nil {
		if err := r.notifier.Publish(ctx, notifications.EventEpisodeReview, notifications.Payload{
			"episodeTitle": strings.TrimSpace(item.Title),
			"reason":       reason,
		}); err != nil {
			logger.Warn("review notification failed", logging.Error(err))
		}
	}
}

func (r *Resolver) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	item.ProgressMessage = message
	item.ProgressPercent = percent
	if err := r.store.UpdateProgress(ctx, item); err != nil {
		logging.WithContext(ctx, r.logger).Warn("failed to persist resolver progress", logging.Error(err))
	}
}

// findVideoID walks the page's JSON-LD blocks looking for a VideoObject whose
// embed URL carries a YouTube video id.
func findVideoID(doc *goquery.Document) string {
	var videoID string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, selection *goquery.Selection) bool {
		videoID = videoIDFromJSONLD(selection.Text())
		return videoID == ""
	})
	return videoID
}

// jsonLDNode is the subset of schema.org metadata the resolver inspects.
type jsonLDNode struct {
	Type     string `json:"@type"`
	EmbedURL string `json:"embedUrl"`
}

// videoIDFromJSONLD scans one JSON-LD payload for a VideoObject embed URL.
// Payloads are either a single object or an array of objects; malformed
// payloads are skipped so one bad block cannot sink the whole page.
func videoIDFromJSONLD(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	var nodes []jsonLDNode
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &nodes); err != nil {
			return ""
		}
	} else {
		var node jsonLDNode
		if err := json.Unmarshal([]byte(trimmed), &node); err != nil {
			return ""
		}
		nodes = []jsonLDNode{node}
	}
	for _, node := range nodes {
		if node.Type != "VideoObject" {
			continue
		}
		if match := embedPattern.FindStringSubmatch(node.EmbedURL); match != nil {
			return match[1]
		}
	}
	return ""
}
