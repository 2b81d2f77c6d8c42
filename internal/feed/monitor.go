package feed

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"podbrief/internal/config"
	"podbrief/internal/logging"
	"podbrief/internal/queue"
)

// Monitor polls the configured feeds and enqueues entries that have not been
// seen before. Dedup runs against the episode store, so restarting the daemon
// never re-announces an episode.
type Monitor struct {
	cfg     *config.Config
	store   *queue.Store
	logger  *slog.Logger
	fetcher *Fetcher

	pollInterval time.Duration
	kick         chan struct{}

	mu      sync.Mutex
	running bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// PollSummary reports the outcome of one pass over all configured feeds.
type PollSummary struct {
	Feeds       int
	Failed      int
	NewEpisodes int
}

// MonitorOption customizes the monitor.
type MonitorOption func(*Monitor)

// WithFetcher overrides the fetcher used for feed downloads.
func WithFetcher(fetcher *Fetcher) MonitorOption {
	return func(m *Monitor) {
		if fetcher != nil {
			m.fetcher = fetcher
		}
	}
}

// NewMonitor constructs a feed monitor. Returns nil when the configuration or
// store is missing.
func NewMonitor(cfg *config.Config, store *queue.Store, logger *slog.Logger, opts ...MonitorOption) *Monitor {
	if cfg == nil || store == nil {
		return nil
	}

	poll := time.Duration(cfg.Workflow.FeedPollInterval) * time.Second
	if poll <= 0 {
		poll = 15 * time.Minute
	}

	m := &Monitor{
		cfg:          cfg,
		store:        store,
		logger:       logging.NewComponentLogger(logger, "feed-monitor"),
		fetcher:      NewFetcher(),
		pollInterval: poll,
		kick:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches the poll loop. The first pass runs immediately.
func (m *Monitor) Start(ctx context.Context) error {
	if m == nil {
		return errors.New("feed monitor unavailable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return errors.New("feed monitor already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.ctx = runCtx
	m.cancel = cancel
	m.running = true

	m.wg.Add(1)
	go m.loop()
	return nil
}

// Stop halts the poll loop and waits for the in-flight pass to finish.
func (m *Monitor) Stop() {
	if m == nil {
		return
	}
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

// Kick requests an immediate poll without waiting for the next tick. The
// request is dropped when a poll is already queued.
func (m *Monitor) Kick() {
	if m == nil {
		return
	}
	select {
	case m.kick <- struct{}{}:
	default:
	}
}

func (m *Monitor) loop() {
	defer m.wg.Done()

	m.runPass()

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.runPass()
		case <-m.kick:
			m.runPass()
		}
	}
}

func (m *Monitor) runPass() {
	ctx := m.ctx
	if ctx == nil {
		return
	}
	if _, err := m.PollOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		m.logger.Warn("feed poll pass failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "feed_poll_failed"),
		)
	}
}

// PollOnce fetches every configured feed one time and enqueues unseen entries.
// Per-feed fetch errors are logged and counted but do not abort the pass; only
// context cancellation and store failures do.
func (m *Monitor) PollOnce(ctx context.Context) (PollSummary, error) {
	summary := PollSummary{}
	for _, feedCfg := range m.cfg.Feeds {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Feeds++

		enqueued, err := m.pollFeed(ctx, feedCfg)
		summary.NewEpisodes += enqueued
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return summary, err
			}
			summary.Failed++
			m.logger.Warn("feed fetch failed; will retry on next pass",
				logging.String(logging.FieldFeed, feedCfg.Name),
				logging.Error(err),
				logging.String(logging.FieldEventType, "feed_fetch_failed"),
				logging.String(logging.FieldErrorHint, "check the feed url and network reachability"),
			)
		}
	}
	return summary, nil
}

func (m *Monitor) pollFeed(ctx context.Context, feedCfg config.Feed) (int, error) {
	fetched, err := m.fetcher.Fetch(ctx, feedCfg.URL)
	if err != nil {
		return 0, err
	}
	if len(fetched.Entries) == 0 {
		m.logger.Debug("feed has no entries",
			logging.String(logging.FieldFeed, feedCfg.Name),
		)
		return 0, nil
	}

	known, baseline, err := m.store.LatestPublished(ctx, feedCfg.Name)
	if err != nil {
		return 0, err
	}

	// A feed with no stored episodes gets only its newest entry queued.
	// Announcing the entire back catalog on first contact would flood the
	// chat with years-old episodes.
	entries := fetched.Entries
	if !known {
		entries = entries[:1]
	}

	enqueued := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return enqueued, err
		}
		if known && baseline != nil && entry.PublishedAt != nil && entry.PublishedAt.Before(*baseline) {
			continue
		}
		guid := strings.TrimSpace(entry.Identity())
		if guid == "" {
			continue
		}

		existing, err := m.store.FindByFeedGUID(ctx, feedCfg.Name, guid)
		if err != nil {
			return enqueued, err
		}
		if existing != nil {
			continue
		}

		item, err := m.store.NewEpisode(ctx, queue.EpisodeSeed{
			FeedName:    feedCfg.Name,
			GUID:        guid,
			Title:       entry.Title,
			PageURL:     entry.PageURL,
			FeedVideoID: entry.VideoID,
			ShowNotes:   entry.ShowNotes,
			PublishedAt: entry.PublishedAt,
		})
		if err != nil {
			return enqueued, err
		}
		enqueued++
		m.logger.Info("new episode queued",
			logging.Int64(logging.FieldItemID, item.ID),
			logging.String(logging.FieldFeed, feedCfg.Name),
			logging.String(logging.FieldGUID, guid),
			logging.String("episode_title", item.Title),
			logging.String(logging.FieldEventType, "episode_enqueued"),
		)
	}
	return enqueued, nil
}
