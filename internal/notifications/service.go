package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"podbrief/internal/config"
)

const userAgent = "podbrief/0.1.0"

// Event identifies a notification category published by the daemon.
type Event string

const (
	EventDaemonStarted    Event = "daemon_started"
	EventDaemonStopped    Event = "daemon_stopped"
	EventEpisodePublished Event = "episode_published"
	EventEpisodeFailed    Event = "episode_failed"
	EventEpisodeReview    Event = "episode_review"
	EventTest             Event = "test"
)

// Payload carries event fields consumed by the message templates.
type Payload map[string]any

// Service defines the notification surface exposed to workflow components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventDaemonStarted:    cfg.Notifications.Daemon,
			EventDaemonStopped:    cfg.Notifications.Daemon,
			EventEpisodePublished: cfg.Notifications.Published,
			EventEpisodeFailed:    cfg.Notifications.Errors,
			EventEpisodeReview:    cfg.Notifications.Errors,
			EventTest:             true,
		},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

// Publish renders the event into an ntfy message and posts it. Events disabled
// in the configuration return nil without sending.
func (n *ntfyService) Publish(ctx context.Context, event Event, data Payload) error {
	if !n.enabled[event] {
		return nil
	}
	body, ok := render(event, data)
	if !ok {
		return nil
	}
	return n.send(ctx, body)
}

func render(event Event, data Payload) (payload, bool) {
	switch event {
	case EventDaemonStarted:
		message := "Watching feeds for new episodes"
		if count := payloadInt(data, "feedCount"); count > 0 {
			message = fmt.Sprintf("Watching %d feeds for new episodes", count)
		}
		return payload{
			title:   "Podbrief - Daemon Started",
			message: message,
			tags:    []string{"podbrief", "daemon", "started"},
		}, true
	case EventDaemonStopped:
		return payload{
			title:   "Podbrief - Daemon Stopped",
			message: "Daemon shut down",
			tags:    []string{"podbrief", "daemon", "stopped"},
		}, true
	case EventEpisodePublished:
		message := fmt.Sprintf("✅ Posted: %s", payloadString(data, "episodeTitle"))
		if feed := payloadString(data, "feedName"); feed != "" {
			message = fmt.Sprintf("%s\nFeed: %s", message, feed)
		}
		return payload{
			title:   "Podbrief - Episode Published",
			message: message,
			tags:    []string{"podbrief", "episode", "published"},
		}, true
	case EventEpisodeFailed:
		var builder strings.Builder
		builder.WriteString("❌ Failed")
		if title := payloadString(data, "episodeTitle"); title != "" {
			builder.WriteString(": ")
			builder.WriteString(title)
		}
		if reason := payloadString(data, "error"); reason != "" {
			builder.WriteString("\n")
			builder.WriteString(reason)
		}
		return payload{
			title:    "Podbrief - Episode Failed",
			message:  builder.String(),
			tags:     []string{"podbrief", "error", "alert"},
			priority: "high",
		}, true
	case EventEpisodeReview:
		message := fmt.Sprintf("Manual review required: %s", payloadString(data, "episodeTitle"))
		if reason := payloadString(data, "reason"); reason != "" {
			message = fmt.Sprintf("%s\nReason: %s", message, reason)
		}
		return payload{
			title:   "Podbrief - Needs Review",
			message: message,
			tags:    []string{"podbrief", "review", "required"},
		}, true
	case EventTest:
		return payload{
			title:    "Podbrief - Test",
			message:  "🧪 Notification system test",
			tags:     []string{"podbrief", "test"},
			priority: "low",
		}, true
	default:
		return payload{}, false
	}
}

func payloadString(data Payload, key string) string {
	if data == nil {
		return ""
	}
	value, _ := data[key].(string)
	return strings.TrimSpace(value)
}

func payloadInt(data Payload, key string) int {
	if data == nil {
		return 0
	}
	switch value := data[key].(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		return int(value)
	}
	return 0
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
