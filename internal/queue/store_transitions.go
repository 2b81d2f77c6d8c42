package queue

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ResetStuckProcessing resets episodes in processing states back to the start of their current stage.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE episodes
         SET status = CASE status
             WHEN ? THEN ?
             WHEN ? THEN ?
             WHEN ? THEN ?
             WHEN ? THEN ?
             ELSE status
         END,
             progress_stage = 'Reset from stuck processing',
             progress_percent = 0, progress_message = NULL, last_heartbeat = NULL, updated_at = ?
         WHERE status IN (?, ?, ?, ?)`,
		StatusResolving, StatusPending,
		StatusTranscribing, StatusResolved,
		StatusSummarizing, StatusTranscribed,
		StatusPublishing, StatusSummarized,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusResolving,
		StatusTranscribing,
		StatusSummarizing,
		StatusPublishing,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck episodes: %w", err)
	}
	return res.RowsAffected()
}

// UpdateHeartbeat updates the last heartbeat timestamp for an in-flight episode.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE episodes SET last_heartbeat = ?, updated_at = ? WHERE id = ?`,
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
		id,
	); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ReclaimStaleProcessing returns episodes stuck in processing back to the start
// of their current stage when heartbeats expire. When statuses are provided,
// only those processing statuses are considered.
func (s *Store) ReclaimStaleProcessing(ctx context.Context, cutoff time.Time, statuses ...Status) (int64, error) {
	eligible := make(map[Status]struct{}, len(processingStatuses))
	if len(statuses) == 0 {
		for status := range processingStatuses {
			eligible[status] = struct{}{}
		}
	} else {
		for _, status := range statuses {
			if _, ok := processingStatuses[status]; ok {
				eligible[status] = struct{}{}
			}
		}
	}

	transitions := processingRollbackTransitions()
	selected := make([]statusTransition, 0, len(transitions))
	for _, tr := range transitions {
		if _, ok := eligible[tr.from]; ok {
			selected = append(selected, tr)
		}
	}
	if len(selected) == 0 {
		return 0, nil
	}

	var caseSQL strings.Builder
	caseSQL.WriteString("CASE status")
	args := make([]any, 0, len(selected)*3+2)
	for _, tr := range selected {
		caseSQL.WriteString(" WHEN ? THEN ?")
		args = append(args, tr.from, tr.to)
	}
	caseSQL.WriteString(" ELSE status END")

	args = append(args, time.Now().UTC().Format(time.RFC3339Nano))
	for _, tr := range selected {
		args = append(args, tr.from)
	}
	args = append(args, cutoff.UTC().Format(time.RFC3339Nano))

	query := `UPDATE episodes
        SET status = ` + caseSQL.String() + `,
            progress_stage = 'Reclaimed from stale processing',
            progress_percent = 0, progress_message = NULL, last_heartbeat = NULL, updated_at = ?
        WHERE status IN (` + makePlaceholders(len(selected)) + `) AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`

	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale episodes: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailed moves failed and review episodes back to pending for
// reprocessing, clearing their error and review state.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	if len(ids) == 0 {
		res, err := s.execWithRetry(
			ctx,
			`UPDATE episodes
            SET status = ?, progress_stage = 'Retry requested', progress_percent = 0,
                progress_message = NULL, error_message = NULL, retry_count = 0,
                needs_review = 0, review_reason = NULL, updated_at = ?
            WHERE status IN (?, ?)`,
			StatusPending,
			time.Now().UTC().Format(time.RFC3339Nano),
			StatusFailed,
			StatusReview,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed episodes: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+2)
	args = append(args, StatusPending, time.Now().UTC().Format(time.RFC3339Nano))
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE episodes
        SET status = ?, progress_stage = 'Retry requested', progress_percent = 0,
            progress_message = NULL, error_message = NULL, retry_count = 0,
            needs_review = 0, review_reason = NULL, updated_at = ?
        WHERE id IN (` + placeholders + `) AND status IN ('` + string(StatusFailed) + `', '` + string(StatusReview) + `')`
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry selected episodes: %w", err)
	}
	return res.RowsAffected()
}
