package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// QueueItem describes an episode in a transport-friendly format.
type QueueItem struct {
	ID               int64         `json:"id"`
	FeedName         string        `json:"feedName"`
	GUID             string        `json:"guid"`
	Title            string        `json:"title"`
	PageURL          string        `json:"pageUrl,omitempty"`
	WatchURL         string        `json:"watchUrl,omitempty"`
	Status           string        `json:"status"`
	ProcessingLane   string        `json:"processingLane"`
	Progress         QueueProgress `json:"progress"`
	ErrorMessage     string        `json:"errorMessage"`
	VideoID          string        `json:"videoId,omitempty"`
	TranscriptSource string        `json:"transcriptSource,omitempty"`
	TranscriptChars  int           `json:"transcriptChars,omitempty"`
	Summary          string        `json:"summary,omitempty"`
	MessageID        int64         `json:"messageId,omitempty"`
	RetryCount       int           `json:"retryCount"`
	NeedsReview      bool          `json:"needsReview"`
	ReviewReason     string        `json:"reviewReason,omitempty"`
	PublishedAt      string        `json:"publishedAt,omitempty"`
	CreatedAt        string        `json:"createdAt,omitempty"`
	UpdatedAt        string        `json:"updatedAt,omitempty"`
}

// QueueProgress captures stage progress information for an episode.
type QueueProgress struct {
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running     bool           `json:"running"`
	QueueStats  map[string]int `json:"queueStats"`
	LastError   string         `json:"lastError,omitempty"`
	LastItem    *QueueItem     `json:"lastItem,omitempty"`
	StageHealth []StageHealth  `json:"stageHealth"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// StatusLine is a labelled severity/detail pair rendered by the status command.
type StatusLine struct {
	Label    string `json:"label"`
	Severity string `json:"severity"`
	Detail   string `json:"detail"`
}
