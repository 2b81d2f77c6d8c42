package api

import (
	"slices"
	"sort"
	"time"

	"podbrief/internal/queue"
	"podbrief/internal/stage"
	"podbrief/internal/workflow"
)

// FromEpisode converts a queue record to its API representation.
func FromEpisode(item *queue.Item) QueueItem {
	if item == nil {
		return QueueItem{}
	}

	dto := QueueItem{
		ID:             item.ID,
		FeedName:       item.FeedName,
		GUID:           item.GUID,
		Title:          item.Title,
		PageURL:        item.PageURL,
		WatchURL:       item.WatchURL(),
		Status:         string(item.Status),
		ProcessingLane: string(queue.LaneForItem(item)),
		Progress: QueueProgress{
			Stage:   item.ProgressStage,
			Percent: item.ProgressPercent,
			Message: item.ProgressMessage,
		},
		ErrorMessage:     item.ErrorMessage,
		VideoID:          item.VideoID,
		TranscriptSource: item.TranscriptSource,
		TranscriptChars:  len(item.Transcript),
		Summary:          item.Summary,
		MessageID:        item.MessageID,
		RetryCount:       item.RetryCount,
		NeedsReview:      item.NeedsReview,
		ReviewReason:     item.ReviewReason,
	}

	if item.PublishedAt != nil && !item.PublishedAt.IsZero() {
		dto.PublishedAt = item.PublishedAt.UTC().Format(dateTimeFormat)
	}
	if !item.CreatedAt.IsZero() {
		dto.CreatedAt = item.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !item.UpdatedAt.IsZero() {
		dto.UpdatedAt = item.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromEpisodes converts a slice of queue records into API DTOs.
func FromEpisodes(items []*queue.Item) []QueueItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]QueueItem, 0, len(items))
	for _, item := range items {
		out = append(out, FromEpisode(item))
	}
	return out
}

// FromStatusSummary converts a workflow status summary to its API payload.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	wf := WorkflowStatus{
		Running:     summary.Running,
		QueueStats:  MergeQueueStats(summary.QueueStats),
		StageHealth: StageHealthSlice(summary.StageHealth),
	}
	if summary.LastError != "" {
		wf.LastError = summary.LastError
	}
	if summary.LastItem != nil {
		last := FromEpisode(summary.LastItem)
		wf.LastItem = &last
	}
	return wf
}

// MergeQueueStats produces a string-keyed representation of queue stats.
func MergeQueueStats(stats map[queue.Status]int) map[string]int {
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out
}

// StageHealthSlice converts a stage health map into a deterministic slice.
func StageHealthSlice(health map[string]stage.Health) []StageHealth {
	if len(health) == 0 {
		return nil
	}
	names := make([]string, 0, len(health))
	for name := range health {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]StageHealth, 0, len(names))
	for _, name := range names {
		h := health[name]
		out = append(out, StageHealth{Name: name, Ready: h.Ready, Detail: h.Detail})
	}
	return out
}

// SortQueueItemsNewestFirst orders queue items by CreatedAt descending,
// breaking ties by ID descending.
func SortQueueItemsNewestFirst(items []QueueItem) []QueueItem {
	if len(items) == 0 {
		return nil
	}
	sorted := make([]QueueItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		ti := ParseQueueTime(sorted[i].CreatedAt)
		tj := ParseQueueTime(sorted[j].CreatedAt)
		if ti.Equal(tj) {
			return sorted[i].ID > sorted[j].ID
		}
		return ti.After(tj)
	})
	return sorted
}

// ParseQueueTime parses an API timestamp for display formatting. Unparseable
// values yield the zero time.
func ParseQueueTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}
