package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// EpisodeSeed captures the feed entry fields used to enqueue a new episode.
type EpisodeSeed struct {
	FeedName    string
	GUID        string
	Title       string
	PageURL     string
	FeedVideoID string
	ShowNotes   string
	PublishedAt *time.Time
}

// NewEpisode inserts a new episode awaiting resolution. The feed name and guid
// are required; the pair must be unique across the queue.
func (s *Store) NewEpisode(ctx context.Context, seed EpisodeSeed) (*Item, error) {
	feedName := strings.TrimSpace(seed.FeedName)
	guid := strings.TrimSpace(seed.GUID)
	if feedName == "" {
		return nil, errors.New("feed name is required")
	}
	if guid == "" {
		return nil, errors.New("episode guid is required")
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO episodes (
            feed_name, guid, title, page_url, feed_video_id, show_notes,
            published_at, status, created_at, updated_at,
            progress_stage, progress_percent, progress_message
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		feedName,
		guid,
		nullableString(strings.TrimSpace(seed.Title)),
		nullableString(strings.TrimSpace(seed.PageURL)),
		nullableString(strings.TrimSpace(seed.FeedVideoID)),
		nullableString(seed.ShowNotes),
		nullableTime(seed.PublishedAt),
		StatusPending,
		timestamp,
		timestamp,
		nil,
		0.0,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("insert episode: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches an episode by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM episodes WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get episode: %w", err)
	}
	return item, nil
}

// FindByFeedGUID returns the episode matching a feed name and guid, or nil
// when the entry has never been enqueued.
func (s *Store) FindByFeedGUID(ctx context.Context, feedName, guid string) (*Item, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+itemColumns+` FROM episodes WHERE feed_name = ? AND guid = ? LIMIT 1`,
		feedName,
		guid,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by feed guid: %w", err)
	}
	return item, nil
}

// LatestPublished reports whether any episode exists for the feed and, when
// available, the most recent published timestamp among them. Feeds whose
// entries carry no publish dates yield a nil timestamp with known=true.
func (s *Store) LatestPublished(ctx context.Context, feedName string) (bool, *time.Time, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*), MAX(published_at) FROM episodes WHERE feed_name = ?`,
		feedName,
	)
	var count int
	var latest sql.NullString
	if err := row.Scan(&count, &latest); err != nil {
		return false, nil, fmt.Errorf("latest published: %w", err)
	}
	if count == 0 {
		return false, nil, nil
	}
	if !latest.Valid || strings.TrimSpace(latest.String) == "" {
		return true, nil, nil
	}
	parsed, err := parseTimeString(latest.String)
	if err != nil {
		return true, nil, nil
	}
	return true, &parsed, nil
}

// Update persists changes to an existing episode.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE episodes
         SET feed_name = ?, guid = ?, title = ?, page_url = ?, feed_video_id = ?,
             show_notes = ?, published_at = ?, status = ?, video_id = ?,
             transcript_source = ?, transcript = ?, summary = ?, message_id = ?,
             retry_count = ?, error_message = ?, updated_at = ?,
             progress_stage = ?, progress_percent = ?, progress_message = ?,
             last_heartbeat = ?, needs_review = ?, review_reason = ?
         WHERE id = ?`,
		item.FeedName,
		item.GUID,
		nullableString(item.Title),
		nullableString(item.PageURL),
		nullableString(item.FeedVideoID),
		nullableString(item.ShowNotes),
		nullableTime(item.PublishedAt),
		item.Status,
		nullableString(item.VideoID),
		nullableString(item.TranscriptSource),
		nullableString(item.Transcript),
		nullableString(item.Summary),
		nullableInt64(item.MessageID),
		item.RetryCount,
		nullableString(item.ErrorMessage),
		item.UpdatedAt.Format(time.RFC3339Nano),
		nullableString(item.ProgressStage),
		item.ProgressPercent,
		nullableString(item.ProgressMessage),
		nullableTime(item.LastHeartbeat),
		boolToInt(item.NeedsReview),
		nullableString(item.ReviewReason),
		item.ID,
	); err != nil {
		return fmt.Errorf("update episode: %w", err)
	}
	return nil
}

// UpdateProgress persists only the progress fields for an episode, leaving the
// heartbeat untouched so frequent progress writes do not mask a stalled stage.
func (s *Store) UpdateProgress(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE episodes
         SET progress_stage = ?, progress_percent = ?, progress_message = ?, updated_at = ?
         WHERE id = ?`,
		nullableString(item.ProgressStage),
		item.ProgressPercent,
		nullableString(item.ProgressMessage),
		item.UpdatedAt.Format(time.RFC3339Nano),
		item.ID,
	); err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

// ItemsByStatus returns episodes matching a status ordered by creation time.
func (s *Store) ItemsByStatus(ctx context.Context, status Status) ([]*Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM episodes WHERE status = ? ORDER BY created_at`, status)
	if err != nil {
		return nil, fmt.Errorf("query by status: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// List returns episodes filtered by status set (or all episodes when no status is provided).
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + itemColumns + ` FROM episodes`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// NextForStatuses returns the oldest episode matching any of the provided statuses.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Item, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := makePlaceholders(len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}

	query := `SELECT ` + itemColumns + ` FROM episodes WHERE status IN (` + placeholders + `) ORDER BY created_at LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, args...)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Remove deletes an episode by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM episodes WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete episode: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearCompleted removes only completed episodes from the queue.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM episodes WHERE status = ?`, StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	return res.RowsAffected()
}

// ClearFailed removes only failed episodes from the queue.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM episodes WHERE status = ?`, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("clear failed: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes all episodes from the queue. Cleared entries are eligible to
// be enqueued again on the next feed poll.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM episodes`)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return res.RowsAffected()
}
