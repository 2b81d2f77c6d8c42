package transcript

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"podbrief/internal/config"
	"podbrief/internal/logging"
	"podbrief/internal/queue"
	"podbrief/internal/services/youtube"
	"podbrief/internal/stage"
	"podbrief/internal/textutil"
)

// unavailableText is stored when neither captions nor show notes yield any
// transcript content. Downstream stages summarize and publish it as-is.
const unavailableText = "Transcript unavailable."

// CaptionFetcher defines the subset of the YouTube client used by the stage.
type CaptionFetcher interface {
	FetchTranscript(ctx context.Context, videoID string) (youtube.Transcript, error)
}

// Transcriber obtains transcript text for an episode. YouTube captions are
// preferred; feed show notes serve as the fallback. The stage never fails an
// episode over a missing transcript.
type Transcriber struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	captions CaptionFetcher
}

// NewTranscriber constructs the transcript stage handler using default dependencies.
func NewTranscriber(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Transcriber {
	client := youtube.NewClientFrom(cfg.GetYouTube())
	return NewTranscriberWithDependencies(cfg, store, logger, client)
}

// NewTranscriberWithDependencies allows injecting the caption client (used in tests).
func NewTranscriberWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, captions CaptionFetcher) *Transcriber {
	return &Transcriber{
		store:    store,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "transcript"),
		captions: captions,
	}
}

// Prepare initializes progress messaging prior to Execute.
func (t *Transcriber) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, t.logger)
	item.InitProgress("Transcribing", "Fetching transcript")
	logger.Info(
		"starting transcript retrieval",
		logging.String("episode_title", strings.TrimSpace(item.Title)),
		logging.String("video_id", strings.TrimSpace(item.VideoID)),
	)
	return nil
}

// Execute fetches captions for the resolved video and records the transcript
// source. Any caption failure degrades to show notes, then to the unavailable
// placeholder, so the episode always leaves this stage with transcript text.
func (t *Transcriber) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, t.logger)

	videoID := strings.TrimSpace(item.VideoID)
	switch {
	case videoID == "":
		logger.Info("no video id resolved; using show notes")
	case t.captions == nil:
		logger.Warn("caption client unavailable; using show notes")
	default:
		t.updateProgress(ctx, item, "Fetching YouTube captions", 20)
		transcript, err := t.captions.FetchTranscript(ctx, videoID)
		if err == nil && strings.TrimSpace(transcript.Text) != "" {
			item.Transcript = transcript.Text
			item.TranscriptSource = queue.TranscriptSourceCaptions
			item.SetProgressComplete("Transcribed", fmt.Sprintf("Captions fetched (%s)", transcript.Language))
			logger.Info(
				"captions fetched",
				logging.String("language", transcript.Language),
				logging.Bool("generated", transcript.Generated),
				logging.Int("transcript_chars", len(transcript.Text)),
			)
			return nil
		}
		if err != nil {
			logger.Warn("caption fetch failed; falling back to show notes", logging.Error(err))
		}
	}

	t.updateProgress(ctx, item, "Extracting show notes", 60)
	if notes := showNotesText(item.ShowNotes); notes != "" {
		item.Transcript = notes
		item.TranscriptSource = queue.TranscriptSourceShowNotes
		item.SetProgressComplete("Transcribed", "Using feed show notes")
		logger.Info("using show notes as transcript", logging.Int("transcript_chars", len(notes)))
		return nil
	}

	item.Transcript = unavailableText
	item.TranscriptSource = queue.TranscriptSourceUnavailable
	item.SetProgressComplete("Transcribed", "No transcript available")
	logger.Warn("no transcript source available for episode")
	return nil
}

// HealthCheck verifies transcript stage prerequisites.
func (t *Transcriber) HealthCheck(ctx context.Context) stage.Health {
	const name = "transcript"
	if t.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if t.captions == nil {
		return stage.Unhealthy(name, "caption client unavailable")
	}
	return stage.Healthy(name)
}

func (t *Transcriber) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	item.ProgressMessage = message
	item.ProgressPercent = percent
	if err := t.store.UpdateProgress(ctx, item); err != nil {
		logging.WithContext(ctx, t.logger).Warn("failed to persist transcript progress", logging.Error(err))
	}
}

// showNotesText strips markup from feed show notes, yielding plain text
// suitable as a transcript substitute. Text nodes are joined with spaces so
// adjacent block elements keep their word boundaries.
func showNotesText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(trimmed))
	if err != nil {
		return textutil.CollapseWhitespace(trimmed)
	}
	doc.Find("script, style").Remove()

	var builder strings.Builder
	for _, root := range doc.Nodes {
		collectText(root, &builder)
	}
	return textutil.CollapseWhitespace(builder.String())
}

func collectText(node *html.Node, builder *strings.Builder) {
	if node.Type == html.TextNode {
		if text := strings.TrimSpace(node.Data); text != "" {
			builder.WriteString(text)
			builder.WriteByte(' ')
		}
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, builder)
	}
}
