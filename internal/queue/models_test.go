package queue_test

import (
	"testing"

	"podbrief/internal/queue"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		input string
		want  queue.Status
		ok    bool
	}{
		{"pending", queue.StatusPending, true},
		{"  Resolved ", queue.StatusResolved, true},
		{"PUBLISHING", queue.StatusPublishing, true},
		{"review", queue.StatusReview, true},
		{"", "", false},
		{"bogus", "", false},
	}
	for _, tc := range cases {
		got, ok := queue.ParseStatus(tc.input)
		if ok != tc.ok {
			t.Fatalf("ParseStatus(%q): expected ok=%v, got %v", tc.input, tc.ok, ok)
		}
		if ok && got != tc.want {
			t.Fatalf("ParseStatus(%q): expected %s, got %s", tc.input, tc.want, got)
		}
	}
}

func TestIsProcessingStatus(t *testing.T) {
	processing := []queue.Status{
		queue.StatusResolving,
		queue.StatusTranscribing,
		queue.StatusSummarizing,
		queue.StatusPublishing,
	}
	for _, status := range processing {
		if !queue.IsProcessingStatus(status) {
			t.Fatalf("expected %s to be processing", status)
		}
	}
	settled := []queue.Status{
		queue.StatusPending,
		queue.StatusResolved,
		queue.StatusTranscribed,
		queue.StatusSummarized,
		queue.StatusCompleted,
		queue.StatusFailed,
		queue.StatusReview,
	}
	for _, status := range settled {
		if queue.IsProcessingStatus(status) {
			t.Fatalf("expected %s not to be processing", status)
		}
	}
}

func TestLaneForItem(t *testing.T) {
	cases := []struct {
		status     queue.Status
		transcript string
		want       queue.ProcessingLane
	}{
		{queue.StatusPending, "", queue.LaneFetch},
		{queue.StatusResolving, "", queue.LaneFetch},
		{queue.StatusTranscribing, "", queue.LaneFetch},
		{queue.StatusTranscribed, "text", queue.LaneDeliver},
		{queue.StatusPublishing, "text", queue.LaneDeliver},
		{queue.StatusCompleted, "text", queue.LaneDeliver},
		{queue.StatusFailed, "", queue.LaneFetch},
		{queue.StatusFailed, "text", queue.LaneDeliver},
	}
	for _, tc := range cases {
		item := &queue.Item{Status: tc.status, Transcript: tc.transcript}
		if got := queue.LaneForItem(item); got != tc.want {
			t.Fatalf("LaneForItem(%s, transcript=%q): expected %s, got %s", tc.status, tc.transcript, tc.want, got)
		}
	}
	if queue.LaneForItem(nil) != queue.LaneFetch {
		t.Fatal("expected nil item to map to fetch lane")
	}
}

func TestSetFailedAndSetReview(t *testing.T) {
	item := &queue.Item{Status: queue.StatusSummarizing}
	item.SetFailed("summarize blew up")
	if item.Status != queue.StatusFailed {
		t.Fatalf("expected failed status, got %s", item.Status)
	}
	if item.ErrorMessage != "summarize blew up" || item.ProgressMessage != "summarize blew up" {
		t.Fatalf("expected failure message recorded, got %q / %q", item.ErrorMessage, item.ProgressMessage)
	}
	if item.LastHeartbeat != nil {
		t.Fatal("expected heartbeat cleared")
	}

	item = &queue.Item{Status: queue.StatusResolving}
	item.SetReview("no video found on episode page")
	if item.Status != queue.StatusReview || !item.NeedsReview {
		t.Fatalf("expected review status, got %s needsReview=%v", item.Status, item.NeedsReview)
	}
	if item.ReviewReason != "no video found on episode page" {
		t.Fatalf("unexpected review reason: %q", item.ReviewReason)
	}
}

func TestWatchURL(t *testing.T) {
	item := queue.Item{}
	if item.WatchURL() != "" {
		t.Fatalf("expected empty watch url, got %q", item.WatchURL())
	}
	item.VideoID = "abc123XYZ_-"
	if item.WatchURL() != "https://www.youtube.com/watch?v=abc123XYZ_-" {
		t.Fatalf("unexpected watch url: %q", item.WatchURL())
	}
}

func TestInitProgressPreservesExistingStage(t *testing.T) {
	item := &queue.Item{ProgressStage: "Transcribe", ErrorMessage: "old error"}
	item.InitProgress("Resolve", "starting")
	if item.ProgressStage != "Transcribe" {
		t.Fatalf("expected existing stage preserved, got %q", item.ProgressStage)
	}
	if item.ErrorMessage != "" {
		t.Fatal("expected error message cleared")
	}
	if item.ProgressPercent != 0 || item.ProgressMessage != "starting" {
		t.Fatalf("unexpected progress state: %f %q", item.ProgressPercent, item.ProgressMessage)
	}

	fresh := &queue.Item{}
	fresh.InitProgress("Resolve", "starting")
	if fresh.ProgressStage != "Resolve" {
		t.Fatalf("expected stage set on fresh item, got %q", fresh.ProgressStage)
	}
}
