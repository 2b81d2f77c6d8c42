package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"podbrief/internal/config"
	"podbrief/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventEpisodePublished, notifications.Payload{"episodeTitle": "Example"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "daemon started",
			event: notifications.EventDaemonStarted,
			payload: notifications.Payload{
				"feedCount": 3,
			},
			expectTitle:   "Podbrief - Daemon Started",
			expectMessage: "Watching 3 feeds for new episodes",
			expectTags:    "podbrief,daemon,started",
		},
		{
			name:          "daemon stopped",
			event:         notifications.EventDaemonStopped,
			payload:       nil,
			expectTitle:   "Podbrief - Daemon Stopped",
			expectMessage: "Daemon shut down",
			expectTags:    "podbrief,daemon,stopped",
		},
		{
			name:  "episode published",
			event: notifications.EventEpisodePublished,
			payload: notifications.Payload{
				"episodeTitle": "Sleep Toolkit",
				"feedName":     "Huberman Lab",
			},
			expectTitle:   "Podbrief - Episode Published",
			expectMessage: "✅ Posted: Sleep Toolkit\nFeed: Huberman Lab",
			expectTags:    "podbrief,episode,published",
		},
		{
			name:  "episode failed",
			event: notifications.EventEpisodeFailed,
			payload: notifications.Payload{
				"episodeTitle": "Sleep Toolkit",
				"error":        "telegram sendMessage: api error 400",
			},
			expectTitle:    "Podbrief - Episode Failed",
			expectMessage:  "❌ Failed: Sleep Toolkit\ntelegram sendMessage: api error 400",
			expectTags:     "podbrief,error,alert",
			expectPriority: "high",
		},
		{
			name:  "episode review",
			event: notifications.EventEpisodeReview,
			payload: notifications.Payload{
				"episodeTitle": "Sleep Toolkit",
				"reason":       "No YouTube video found on episode page",
			},
			expectTitle:   "Podbrief - Needs Review",
			expectMessage: "Manual review required: Sleep Toolkit\nReason: No YouTube video found on episode page",
			expectTags:    "podbrief,review,required",
		},
		{
			name:           "test",
			event:          notifications.EventTest,
			payload:        nil,
			expectTitle:    "Podbrief - Test",
			expectMessage:  "🧪 Notification system test",
			expectTags:     "podbrief,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceHonorsConfigToggles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected call for disabled event: %s", r.Header.Get("Title"))
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Published = false
	cfg.Notifications.Errors = false
	cfg.Notifications.Daemon = false

	svc := notifications.NewService(&cfg)
	disabled := []notifications.Event{
		notifications.EventDaemonStarted,
		notifications.EventDaemonStopped,
		notifications.EventEpisodePublished,
		notifications.EventEpisodeFailed,
		notifications.EventEpisodeReview,
	}

	for _, event := range disabled {
		if err := svc.Publish(context.Background(), event, notifications.Payload{"episodeTitle": "ignored"}); err != nil {
			t.Fatalf("expected no error for disabled event %s, got %v", event, err)
		}
	}
}

func TestNtfyServiceSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg)
	err := svc.Publish(context.Background(), notifications.EventTest, nil)
	if err == nil {
		t.Fatal("expected error from failing ntfy server")
	}
}
