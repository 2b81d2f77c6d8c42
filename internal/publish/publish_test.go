package publish_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"podbrief/internal/logging"
	"podbrief/internal/notifications"
	"podbrief/internal/publish"
	"podbrief/internal/queue"
	"podbrief/internal/services"
	"podbrief/internal/testsupport"
)

type stubMessenger struct {
	texts     []string
	messageID int64
	err       error
}

func (s *stubMessenger) SendMessage(ctx context.Context, text string) (int64, error) {
	s.texts = append(s.texts, text)
	if s.err != nil {
		return 0, s.err
	}
	return s.messageID, nil
}

type stubNotifier struct {
	events []notifications.Event
}

func (s *stubNotifier) Publish(ctx context.Context, event notifications.Event, payload notifications.Payload) error {
	s.events = append(s.events, event)
	return nil
}

func TestPublisherSendsAnnouncement(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewEpisode(t, store, "Huberman Lab", "guid-publish", "Sleep Toolkit")
	item.VideoID = "dQw4w9WgXcQ"
	item.Summary = "A concise episode summary."
	item.Status = queue.StatusPublishing
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	messenger := &stubMessenger{messageID: 42}
	notifier := &stubNotifier{}
	handler := publish.NewPublisherWithDependencies(cfg, store, logging.NewNop(), messenger, notifier)
	if err := handler.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	want := "New Huberman Lab Episode: Sleep Toolkit\n" +
		"Link: https://www.youtube.com/watch?v=dQw4w9WgXcQ\n\n" +
		"Summary:\nA concise episode summary."
	if len(messenger.texts) != 1 || messenger.texts[0] != want {
		t.Fatalf("unexpected message text %q", messenger.texts)
	}
	if item.MessageID != 42 {
		t.Fatalf("expected message id recorded, got %d", item.MessageID)
	}
	if len(notifier.events) != 1 || notifier.events[0] != notifications.EventEpisodePublished {
		t.Fatalf("expected published notification, got %v", notifier.events)
	}
}

func TestPublisherFallsBackToPageURL(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewEpisode(t, store, "Huberman Lab", "guid-nopage", "Audio Only")
	item.Summary = "Summary text."
	item.Status = queue.StatusPublishing
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	messenger := &stubMessenger{messageID: 7}
	handler := publish.NewPublisherWithDependencies(cfg, store, logging.NewNop(), messenger, nil)
	if err := handler.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(messenger.texts) != 1 || !strings.Contains(messenger.texts[0], "Link: "+item.PageURL+"\n") {
		t.Fatalf("expected page url link, got %q", messenger.texts)
	}
}

func TestPublisherRequiresSummary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewEpisode(t, store, "Huberman Lab", "guid-nosummary", "Unsummarized")
	item.Status = queue.StatusPublishing
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	handler := publish.NewPublisherWithDependencies(cfg, store, logging.NewNop(), &stubMessenger{}, nil)
	if err := handler.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	err := handler.Execute(context.Background(), item)
	if err == nil {
		t.Fatal("expected execute error for missing summary")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
}

func TestPublisherWrapsSendErrors(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewEpisode(t, store, "Huberman Lab", "guid-senderr", "Failing Episode")
	item.Summary = "Summary text."
	item.Status = queue.StatusPublishing
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	messenger := &stubMessenger{err: errors.New("telegram sendMessage: api error 400: chat not found")}
	notifier := &stubNotifier{}
	handler := publish.NewPublisherWithDependencies(cfg, store, logging.NewNop(), messenger, notifier)
	if err := handler.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	err := handler.Execute(context.Background(), item)
	if err == nil {
		t.Fatal("expected execute error")
	}
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected external service marker, got %v", err)
	}
	if len(notifier.events) != 0 {
		t.Fatalf("did not expect notifications on failure, got %v", notifier.events)
	}
	if item.MessageID != 0 {
		t.Fatalf("did not expect message id on failure, got %d", item.MessageID)
	}
}

func TestPublisherWithConfiguredClient(t *testing.T) {
	var gotPath, gotChatID, gotText string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var req struct {
			ChatID string `json:"chat_id"`
			Text   string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		gotChatID = req.ChatID
		gotText = req.Text
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":77}}`))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithTelegramBaseURL(server.URL))
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewEpisode(t, store, "Huberman Lab", "guid-live", "Live Episode")
	item.VideoID = "abc123XYZ_-"
	item.Summary = "Live summary."
	item.Status = queue.StatusPublishing
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	handler := publish.NewPublisher(cfg, store, logging.NewNop())
	if err := handler.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if gotPath != "/bottest-bot-token/sendMessage" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotChatID != "1000001" {
		t.Fatalf("unexpected chat id %q", gotChatID)
	}
	if !strings.HasPrefix(gotText, "New Huberman Lab Episode: Live Episode\n") {
		t.Fatalf("unexpected message text %q", gotText)
	}
	if item.MessageID != 77 {
		t.Fatalf("expected message id 77, got %d", item.MessageID)
	}
}

func TestPublisherHealthReady(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	handler := publish.NewPublisherWithDependencies(cfg, store, logging.NewNop(), &stubMessenger{}, nil)
	health := handler.HealthCheck(context.Background())
	if !health.Ready {
		t.Fatalf("expected ready health, got %+v", health)
	}
}

func TestPublisherHealthMissingToken(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Telegram.BotToken = ""
	store := testsupport.MustOpenStore(t, cfg)

	handler := publish.NewPublisherWithDependencies(cfg, store, logging.NewNop(), &stubMessenger{}, nil)
	health := handler.HealthCheck(context.Background())
	if health.Ready {
		t.Fatalf("expected not ready health, got %+v", health)
	}
	if !strings.Contains(strings.ToLower(health.Detail), "token") {
		t.Fatalf("expected detail to reference token, got %q", health.Detail)
	}
}
