package queue

import (
	"database/sql"
	"errors"
	"time"
)

const itemColumns = "id, feed_name, guid, title, page_url, feed_video_id, show_notes, published_at, status, video_id, transcript_source, transcript, summary, message_id, retry_count, error_message, created_at, updated_at, progress_stage, progress_percent, progress_message, last_heartbeat, needs_review, review_reason"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id               int64
		feedName         string
		guid             string
		title            sql.NullString
		pageURL          sql.NullString
		feedVideoID      sql.NullString
		showNotes        sql.NullString
		publishedRaw     sql.NullString
		statusStr        string
		videoID          sql.NullString
		transcriptSource sql.NullString
		transcript       sql.NullString
		summary          sql.NullString
		messageID        sql.NullInt64
		retryCount       sql.NullInt64
		errorMessage     sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
		progressStage    sql.NullString
		progressPercent  sql.NullFloat64
		progressMessage  sql.NullString
		lastHeartbeatRaw sql.NullString
		needsReview      sql.NullInt64
		reviewReason     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&feedName,
		&guid,
		&title,
		&pageURL,
		&feedVideoID,
		&showNotes,
		&publishedRaw,
		&statusStr,
		&videoID,
		&transcriptSource,
		&transcript,
		&summary,
		&messageID,
		&retryCount,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&lastHeartbeatRaw,
		&needsReview,
		&reviewReason,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:               id,
		FeedName:         feedName,
		GUID:             guid,
		Title:            title.String,
		PageURL:          pageURL.String,
		FeedVideoID:      feedVideoID.String,
		ShowNotes:        showNotes.String,
		Status:           Status(statusStr),
		VideoID:          videoID.String,
		TranscriptSource: transcriptSource.String,
		Transcript:       transcript.String,
		Summary:          summary.String,
		ErrorMessage:     errorMessage.String,
		ProgressStage:    progressStage.String,
		ProgressPercent:  progressPercent.Float64,
		ProgressMessage:  progressMessage.String,
	}
	if messageID.Valid {
		item.MessageID = messageID.Int64
	}
	if retryCount.Valid {
		item.RetryCount = int(retryCount.Int64)
	}
	if needsReview.Valid {
		item.NeedsReview = needsReview.Int64 != 0
	}
	item.ReviewReason = reviewReason.String

	if publishedRaw.Valid {
		if published, err := parseTimeString(publishedRaw.String); err == nil {
			item.PublishedAt = &published
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(lastHeartbeatRaw.String); err == nil {
			item.LastHeartbeat = &heartbeat
		}
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt64(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	v := value.UTC().Format(time.RFC3339Nano)
	return v
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
