package publish

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"podbrief/internal/config"
	"podbrief/internal/logging"
	"podbrief/internal/notifications"
	"podbrief/internal/queue"
	"podbrief/internal/services"
	"podbrief/internal/services/telegram"
	"podbrief/internal/stage"
)

// Messenger defines the subset of the Telegram client used by the stage.
type Messenger interface {
	SendMessage(ctx context.Context, text string) (int64, error)
}

// Publisher posts the episode announcement to Telegram.
type Publisher struct {
	store     *queue.Store
	cfg       *config.Config
	logger    *slog.Logger
	messenger Messenger
	notifier  notifications.Service
}

// NewPublisher constructs the publish stage handler using default dependencies.
func NewPublisher(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Publisher {
	client := telegram.NewClientFrom(cfg.GetTelegram())
	return NewPublisherWithDependencies(cfg, store, logger, client, notifications.NewService(cfg))
}

// NewPublisherWithDependencies allows injecting collaborators (used in tests).
func NewPublisherWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, messenger Messenger, notifier notifications.Service) *Publisher {
	return &Publisher{
		store:     store,
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "publish"),
		messenger: messenger,
		notifier:  notifier,
	}
}

// Prepare initializes progress messaging prior to Execute.
func (p *Publisher) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, p.logger)
	item.InitProgress("Publishing", "Posting announcement")
	logger.Info(
		"starting publish",
		logging.String("episode_title", strings.TrimSpace(item.Title)),
		logging.String("feed_name", strings.TrimSpace(item.FeedName)),
	)
	return nil
}

// Execute formats the announcement and sends it to the configured chat. The
// Telegram message id of the first chunk is recorded on the episode.
func (p *Publisher) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, p.logger)
	if err := stage.RequireSummary(item); err != nil {
		return err
	}
	if p.messenger == nil {
		return services.Wrap(
			services.ErrConfiguration,
			"publishing",
			"initialize client",
			"Telegram client unavailable; set telegram.bot_token and telegram.chat_id in your podbrief config",
			nil,
		)
	}

	text := Message(item)
	p.updateProgress(ctx, item, "Sending Telegram message", 40)
	messageID, err := p.messenger.SendMessage(ctx, text)
	if err != nil {
		return services.Wrap(services.ErrExternalService, "publishing", "send message", "Failed to send Telegram announcement", err)
	}

	item.MessageID = messageID
	item.SetProgressComplete("Published", fmt.Sprintf("Announcement posted (message %d)", messageID))
	logger.Info(
		"announcement posted",
		logging.Int64("message_id", messageID),
		logging.String("link", announcementLink(item)),
		logging.Int("message_chars", len(text)),
	)

	if p.notifier != nil {
		if err := p.notifier.Publish(ctx, notifications.EventEpisodePublished, notifications.Payload{
			"episodeTitle": strings.TrimSpace(item.Title),
			"feedName":     strings.TrimSpace(item.FeedName),
		}); err != nil {
			logger.Warn("published notification failed", logging.Error(err))
		}
	}
	return nil
}

// HealthCheck verifies the Telegram configuration is usable.
func (p *Publisher) HealthCheck(ctx context.Context) stage.Health {
	const name = "publisher"
	if p.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(p.cfg.Telegram.BotToken) == "" {
		return stage.Unhealthy(name, "telegram bot token missing")
	}
	if strings.TrimSpace(p.cfg.Telegram.ChatID) == "" {
		return stage.Unhealthy(name, "telegram chat id missing")
	}
	if p.messenger == nil {
		return stage.Unhealthy(name, "telegram client unavailable")
	}
	return stage.Healthy(name)
}

func (p *Publisher) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	item.ProgressMessage = message
	item.ProgressPercent = percent
	if err := p.store.UpdateProgress(ctx, item); err != nil {
		logging.WithContext(ctx, p.logger).Warn("failed to persist publish progress", logging.Error(err))
	}
}

// Message renders the announcement text for an episode. The link prefers the
// resolved watch URL and falls back to the episode page when no video was
// found.
func Message(item *queue.Item) string {
	return fmt.Sprintf(
		"New %s Episode: %s\nLink: %s\n\nSummary:\n%s",
		item.FeedName,
		item.Title,
		announcementLink(item),
		item.Summary,
	)
}

func announcementLink(item *queue.Item) string {
	if url := item.WatchURL(); url != "" {
		return url
	}
	return item.PageURL
}
