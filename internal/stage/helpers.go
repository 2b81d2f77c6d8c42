package stage

import (
	"strings"

	"podbrief/internal/queue"
	"podbrief/internal/services"
)

// RequireTranscript checks that the transcript stage left text on the episode
// before a delivery stage consumes it. On failure it returns a
// services.ErrValidation suitable for stage Execute methods.
func RequireTranscript(item *queue.Item) error {
	if item == nil || strings.TrimSpace(item.Transcript) == "" {
		return services.Wrap(
			services.ErrValidation, "stage", "check transcript",
			"Episode has no transcript text; rerun the transcript stage", nil)
	}
	return nil
}

// RequireSummary checks that summarization produced text before publishing.
func RequireSummary(item *queue.Item) error {
	if item == nil || strings.TrimSpace(item.Summary) == "" {
		return services.Wrap(
			services.ErrValidation, "stage", "check summary",
			"Episode has no summary text; rerun summarization", nil)
	}
	return nil
}
