package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a queued episode.
type Status string

const (
	StatusPending      Status = "pending"
	StatusResolving    Status = "resolving"
	StatusResolved     Status = "resolved"
	StatusTranscribing Status = "transcribing"
	StatusTranscribed  Status = "transcribed"
	StatusSummarizing  Status = "summarizing"
	StatusSummarized   Status = "summarized"
	StatusPublishing   Status = "publishing"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusReview       Status = "review"
)

// Transcript sources recorded on an episode after the transcript stage runs.
const (
	TranscriptSourceCaptions    = "captions"
	TranscriptSourceShowNotes   = "shownotes"
	TranscriptSourceUnavailable = "unavailable"
)

var allStatuses = []Status{
	StatusPending,
	StatusResolving,
	StatusResolved,
	StatusTranscribing,
	StatusTranscribed,
	StatusSummarizing,
	StatusSummarized,
	StatusPublishing,
	StatusCompleted,
	StatusFailed,
	StatusReview,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusResolving:    {},
	StatusTranscribing: {},
	StatusSummarizing:  {},
	StatusPublishing:   {},
}

type statusTransition struct {
	from Status
	to   Status
}

var stageRollbackTransitions = []statusTransition{
	{from: StatusResolving, to: StatusPending},
	{from: StatusTranscribing, to: StatusResolved},
	{from: StatusSummarizing, to: StatusTranscribed},
	{from: StatusPublishing, to: StatusSummarized},
}

func processingRollbackTransitions() []statusTransition {
	return stageRollbackTransitions
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalItems       int
	Error            string
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Review     int
	Completed  int
}

// Item represents a feed episode persisted in SQLite.
//
// FeedName plus GUID uniquely identify an episode; the GUID is the entry's
// video id when the feed carries one, otherwise the entry guid. The remaining
// fields accumulate as the episode moves through the pipeline.
type Item struct {
	ID               int64
	FeedName         string
	GUID             string
	Title            string
	PageURL          string
	FeedVideoID      string
	ShowNotes        string
	PublishedAt      *time.Time
	Status           Status
	VideoID          string
	TranscriptSource string
	Transcript       string
	Summary          string
	MessageID        int64
	RetryCount       int
	ErrorMessage     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ProgressStage    string
	ProgressPercent  float64
	ProgressMessage  string
	LastHeartbeat    *time.Time
	NeedsReview      bool
	ReviewReason     string
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (i Item) IsProcessing() bool {
	_, ok := processingStatuses[i.Status]
	return ok
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// WatchURL returns the public video URL for a resolved episode, or the empty
// string when no video id has been resolved yet.
func (i Item) WatchURL() string {
	if i.VideoID == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + i.VideoID
}

// InitProgress resets progress fields for a new stage.
// If ProgressStage is currently empty, it is set to the provided stage value;
// otherwise the existing stage is preserved (to support resume scenarios).
// ProgressMessage is set to message, ProgressPercent is reset to 0,
// and ErrorMessage is cleared.
func (i *Item) InitProgress(stage, message string) {
	if i.ProgressStage == "" {
		i.ProgressStage = stage
	}
	i.ProgressMessage = message
	i.ProgressPercent = 0
	i.ErrorMessage = ""
}

// SetProgress updates all three progress fields atomically.
// Use this instead of setting ProgressStage, ProgressPercent, and ProgressMessage individually.
func (i *Item) SetProgress(stage, message string, percent float64) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = percent
}

// SetProgressComplete sets progress to 100% with the given stage and message.
// Convenience method for stage completion.
func (i *Item) SetProgressComplete(stage, message string) {
	i.SetProgress(stage, message, 100)
}

// SetFailed marks the episode as failed with the given error message.
// Clears heartbeat and sets progress fields appropriately.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.ProgressPercent = 0
	i.ProgressMessage = message
	i.LastHeartbeat = nil
	i.ProgressStage = "Failed"
}

// SetReview flags the episode for manual intervention with the given reason.
func (i *Item) SetReview(reason string) {
	i.Status = StatusReview
	i.NeedsReview = true
	i.ReviewReason = reason
	i.ProgressPercent = 0
	i.ProgressMessage = reason
	i.LastHeartbeat = nil
	i.ProgressStage = "Review"
}

// ProcessingLane partitions workflow into feed-side fetch stages and
// delivery-side stages that talk to the summarization and messaging services.
type ProcessingLane string

const (
	LaneFetch   ProcessingLane = "fetch"
	LaneDeliver ProcessingLane = "deliver"
)

// LaneForItem maps an episode to its processing lane for observability purposes.
func LaneForItem(item *Item) ProcessingLane {
	if item == nil {
		return LaneFetch
	}
	switch item.Status {
	case StatusPending, StatusResolving, StatusResolved, StatusTranscribing:
		return LaneFetch
	case StatusTranscribed, StatusSummarizing, StatusSummarized, StatusPublishing, StatusCompleted:
		return LaneDeliver
	case StatusFailed, StatusReview:
		if item.Transcript != "" {
			return LaneDeliver
		}
		return LaneFetch
	default:
		return LaneFetch
	}
}
