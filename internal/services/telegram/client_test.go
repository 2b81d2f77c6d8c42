package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestClientSendMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bot123:ABC/sendMessage" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var request struct {
			ChatID                string `json:"chat_id"`
			Text                  string `json:"text"`
			DisableWebPagePreview bool   `json:"disable_web_page_preview"`
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if request.ChatID != "1000001" {
			t.Fatalf("unexpected chat id %q", request.ChatID)
		}
		if request.Text != "New episode announcement" {
			t.Fatalf("unexpected text %q", request.Text)
		}
		if !request.DisableWebPagePreview {
			t.Fatal("expected disable_web_page_preview to be set")
		}
		payload := map[string]any{
			"ok":     true,
			"result": map[string]any{"message_id": 42},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(Config{
		BotToken:           "123:ABC",
		ChatID:             "1000001",
		BaseURL:            server.URL,
		DisableLinkPreview: true,
	})
	messageID, err := client.SendMessage(context.Background(), "New episode announcement")
	if err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
	if messageID != 42 {
		t.Fatalf("expected message id 42, got %d", messageID)
	}
}

func TestClientSendMessageSplitsLongText(t *testing.T) {
	var texts []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var request struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		texts = append(texts, request.Text)
		payload := map[string]any{
			"ok":     true,
			"result": map[string]any{"message_id": 100 + len(texts)},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	line := strings.Repeat("x", 1000)
	text := strings.Join([]string{line, line, line, line, line, line}, "\n")

	client := NewClient(Config{BotToken: "123:ABC", ChatID: "1", BaseURL: server.URL})
	messageID, err := client.SendMessage(context.Background(), text)
	if err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
	if messageID != 101 {
		t.Fatalf("expected first chunk message id 101, got %d", messageID)
	}
	if len(texts) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(texts))
	}
	for i, chunk := range texts {
		if utf8.RuneCountInString(chunk) > MessageLimit {
			t.Fatalf("chunk %d exceeds limit: %d runes", i, utf8.RuneCountInString(chunk))
		}
	}
	if strings.Join(texts, "\n") != text {
		t.Fatal("expected chunks to reassemble into the original text")
	}
}

func TestClientSendMessageAPIError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":          false,
			"error_code":  400,
			"description": "Bad Request: chat not found",
		})
	}))
	defer server.Close()

	client := NewClient(Config{BotToken: "123:ABC", ChatID: "1", BaseURL: server.URL})
	_, err := client.SendMessage(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected send to fail")
	}
	if !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("expected API description in error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected no retries for a 400, got %d calls", calls)
	}
}

func TestClientRetriesOnRetryAfter(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"ok":          false,
				"error_code":  429,
				"description": "Too Many Requests: retry after 1",
				"parameters":  map[string]any{"retry_after": 1},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"message_id": 7},
		})
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{BotToken: "123:ABC", ChatID: "1", BaseURL: server.URL},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
	)
	messageID, err := client.SendMessage(context.Background(), "hello")
	if err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
	if messageID != 7 {
		t.Fatalf("expected message id 7, got %d", messageID)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s, got %v", slept)
	}
}

func TestClientGetMe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bot123:ABC/getMe" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"result": map[string]any{
				"id":       99,
				"is_bot":   true,
				"username": "podbrief_bot",
			},
		})
	}))
	defer server.Close()

	client := NewClient(Config{BotToken: "123:ABC", ChatID: "1", BaseURL: server.URL})
	profile, err := client.GetMe(context.Background())
	if err != nil {
		t.Fatalf("GetMe returned error: %v", err)
	}
	if profile.Username != "podbrief_bot" || !profile.IsBot {
		t.Fatalf("unexpected profile %+v", profile)
	}
}

func TestClientGetMeUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":          false,
			"error_code":  401,
			"description": "Unauthorized",
		})
	}))
	defer server.Close()

	client := NewClient(Config{BotToken: "bad", ChatID: "1", BaseURL: server.URL})
	if _, err := client.GetMe(context.Background()); err == nil {
		t.Fatal("expected getMe to fail")
	}
}

func TestClientTransportErrorMasksToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(Config{BotToken: "123:SECRET", ChatID: "1", BaseURL: server.URL})
	_, err := client.SendMessage(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected send to fail")
	}
	if strings.Contains(err.Error(), "123:SECRET") {
		t.Fatalf("expected bot token to be masked, got %v", err)
	}
}

func TestSplitMessage(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{"fits", "short", 10, []string{"short"}},
		{"exact", "12345", 5, []string{"12345"}},
		{"line boundary", "aaa\nbbb\nccc", 7, []string{"aaa\nbbb", "ccc"}},
		{"single long line", "aaaaaa", 4, []string{"aaaa", "aa"}},
		{"long line between short", "aa\ncccccc\nbb", 4, []string{"aa", "cccc", "cc", "bb"}},
		{"multibyte", "ééé\nûûû", 3, []string{"ééé", "ûûû"}},
	}
	for _, tc := range cases {
		got := splitMessage(tc.text, tc.limit)
		if len(got) != len(tc.want) {
			t.Fatalf("%s: expected %d chunks, got %v", tc.name, len(tc.want), got)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("%s: chunk %d: expected %q, got %q", tc.name, i, tc.want[i], got[i])
			}
		}
	}
}
