package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"podbrief/internal/logging"
	"podbrief/internal/notifications"
	"podbrief/internal/queue"
	"podbrief/internal/services"
)

type failureResolution int

const (
	failureTerminal failureResolution = iota
	failureRetry
	failureReview
)

func (m *Manager) handleStageFailure(ctx context.Context, stg pipelineStage, item *queue.Item, stageErr error) {
	base := m.logger
	if base == nil {
		base = logging.NewNop()
	}
	logger := logging.WithContext(ctx, base.With(logging.String(logging.FieldComponent, "workflow-manager")))

	message := m.classifyStageFailure(stg.name, stageErr)
	resolution := m.applyFailureState(stg, item, message, stageErr)

	attrs := []logging.Attr{
		logging.String("resolved_status", string(item.Status)),
		logging.String("error_message", strings.TrimSpace(message)),
		logging.Int("retry_count", item.RetryCount),
		logging.Alert("stage_failure"),
		logging.Error(stageErr),
		logging.String(logging.FieldEventType, "stage_failure"),
	}
	if resolution == failureRetry {
		logger.Warn("stage failed; retry scheduled", logging.Args(attrs...)...)
	} else {
		logger.Error("stage failed", logging.Args(attrs...)...)
	}

	if err := m.store.Update(ctx, item); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not update stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}

	m.setLastItem(item)
	switch resolution {
	case failureReview:
		m.notifyEpisodeReview(ctx, logger, item)
	case failureTerminal:
		m.notifyEpisodeFailure(ctx, logger, item, message)
	}
}

// applyFailureState decides what happens to a failed episode: manual review
// for validation and configuration problems, another attempt while retry
// budget remains, and a terminal failure otherwise.
func (m *Manager) applyFailureState(stg pipelineStage, item *queue.Item, message string, stageErr error) failureResolution {
	if services.FailureStatus(stageErr) == queue.StatusReview {
		item.SetReview(message)
		item.ErrorMessage = message
		return failureReview
	}
	if item.RetryCount < m.maxRetries() {
		item.RetryCount++
		item.Status = stg.startStatus
		item.ErrorMessage = message
		item.ProgressStage = "Retrying"
		item.ProgressPercent = 0
		item.ProgressMessage = fmt.Sprintf("Attempt %d of %d failed; retrying", item.RetryCount, m.maxRetries()+1)
		item.LastHeartbeat = nil
		return failureRetry
	}
	item.SetFailed(message)
	return failureTerminal
}

func (m *Manager) maxRetries() int {
	if m.cfg == nil || m.cfg.Workflow.MaxRetries < 0 {
		return 0
	}
	return m.cfg.Workflow.MaxRetries
}

func (m *Manager) classifyStageFailure(stageName string, stageErr error) string {
	if stageErr == nil {
		return m.getStageFailureMessage(stageName, "failed without error detail")
	}
	message := strings.TrimSpace(stageErr.Error())
	if message == "" {
		message = m.getStageFailureMessage(stageName, "failed")
	}
	return message
}

func (m *Manager) getStageFailureMessage(stageName, defaultMsg string) string {
	if stageName != "" {
		return fmt.Sprintf("%s %s", stageName, defaultMsg)
	}
	return fmt.Sprintf("workflow %s", defaultMsg)
}

func (m *Manager) notifyEpisodeReview(ctx context.Context, logger *slog.Logger, item *queue.Item) {
	if m.notifier == nil {
		return
	}
	err := m.notifier.Publish(ctx, notifications.EventEpisodeReview, notifications.Payload{
		"episodeTitle": item.Title,
		"reason":       item.ReviewReason,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not send review notification")
		} else {
			logger.Debug("review notification failed", logging.Error(err))
		}
	}
}

func (m *Manager) notifyEpisodeFailure(ctx context.Context, logger *slog.Logger, item *queue.Item, message string) {
	if m.notifier == nil {
		return
	}
	err := m.notifier.Publish(ctx, notifications.EventEpisodeFailed, notifications.Payload{
		"episodeTitle": item.Title,
		"feedName":     item.FeedName,
		"error":        message,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not send failure notification")
		} else {
			logger.Debug("failure notification failed", logging.Error(err))
		}
	}
}
