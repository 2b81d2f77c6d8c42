package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"podbrief/internal/config"
	"podbrief/internal/logging"
	"podbrief/internal/queue"
	"podbrief/internal/services"
	"podbrief/internal/services/gemini"
	"podbrief/internal/stage"
	"podbrief/internal/textutil"
)

// SummaryClient defines the subset of the Gemini client used by the stage.
type SummaryClient interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// Summarizer generates an episode summary from transcript text.
type Summarizer struct {
	store  *queue.Store
	cfg    *config.Config
	logger *slog.Logger
	client SummaryClient
}

// NewSummarizer constructs the summarize stage handler using default dependencies.
func NewSummarizer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Summarizer {
	return NewSummarizerWithDependencies(cfg, store, logger, gemini.NewClientFrom(cfg.GetGemini()))
}

// NewSummarizerWithDependencies allows injecting the Gemini client (used in tests).
func NewSummarizerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, client SummaryClient) *Summarizer {
	return &Summarizer{
		store:  store,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "summarize"),
		client: client,
	}
}

// Prepare initializes progress messaging prior to Execute.
func (s *Summarizer) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, s.logger)
	item.InitProgress("Summarizing", "Generating summary")
	logger.Info(
		"starting summarization",
		logging.String("episode_title", strings.TrimSpace(item.Title)),
		logging.String("transcript_source", item.TranscriptSource),
		logging.Int("transcript_chars", len(item.Transcript)),
	)
	return nil
}

// Execute sends the transcript to Gemini and stores the returned summary.
func (s *Summarizer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, s.logger)
	if err := stage.RequireTranscript(item); err != nil {
		return err
	}
	if s.client == nil {
		return services.Wrap(
			services.ErrConfiguration,
			"summarizing",
			"initialize client",
			"Gemini client unavailable; set gemini.api_key in your podbrief config",
			nil,
		)
	}

	s.updateProgress(ctx, item, "Requesting summary from Gemini", 30)
	summary, err := s.client.Summarize(ctx, item.Transcript)
	if err != nil {
		return services.Wrap(services.ErrExternalService, "summarizing", "generate summary", "Gemini summarization failed", err)
	}

	item.Summary = summary
	item.SetProgressComplete("Summarized", fmt.Sprintf("Summary generated (%d chars)", len(summary)))
	logger.Info(
		"summary generated",
		logging.Int("summary_chars", len(summary)),
		logging.String("transcript_source", item.TranscriptSource),
		logging.String("summary_preview", textutil.Truncate(summary, 120)),
	)
	return nil
}

// HealthCheck verifies the Gemini configuration is usable.
func (s *Summarizer) HealthCheck(ctx context.Context) stage.Health {
	const name = "summarizer"
	if s.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(s.cfg.Gemini.APIKey) == "" {
		return stage.Unhealthy(name, "gemini api key missing")
	}
	if s.client == nil {
		return stage.Unhealthy(name, "gemini client unavailable")
	}
	return stage.Healthy(name)
}

func (s *Summarizer) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	item.ProgressMessage = message
	item.ProgressPercent = percent
	if err := s.store.UpdateProgress(ctx, item); err != nil {
		logging.WithContext(ctx, s.logger).Warn("failed to persist summarize progress", logging.Error(err))
	}
}
