package stage

import (
	"errors"
	"testing"

	"podbrief/internal/queue"
	"podbrief/internal/services"
)

func TestRequireTranscript(t *testing.T) {
	if err := RequireTranscript(&queue.Item{Transcript: "some text"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := RequireTranscript(&queue.Item{Transcript: "   "})
	if err == nil {
		t.Fatal("expected error for blank transcript")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	if RequireTranscript(nil) == nil {
		t.Fatal("expected error for nil item")
	}
}

func TestRequireSummary(t *testing.T) {
	if err := RequireSummary(&queue.Item{Summary: "short summary"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := RequireSummary(&queue.Item{}); err == nil {
		t.Fatal("expected error for missing summary")
	}
}
