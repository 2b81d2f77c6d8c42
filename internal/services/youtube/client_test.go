package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func watchPage(t *testing.T, player map[string]any) string {
	t.Helper()
	encoded, err := json.Marshal(player)
	if err != nil {
		t.Fatalf("marshal player response: %v", err)
	}
	return "<html><head><script>var ytInitialPlayerResponse = " + string(encoded) +
		";var ytcfg = {};</script></head><body></body></html>"
}

func TestClientFetchTranscript(t *testing.T) {
	const timedText = `<?xml version="1.0" encoding="utf-8" ?><transcript>` +
		"<text start=\"0\" dur=\"3.1\">Welcome to\nthe lab</text>" +
		`<text start="3.1" dur="2.8">I&amp;#39;m your host</text>` +
		`<text start="5.9" dur="1.2"> </text>` +
		`</transcript>`

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("v"); got != "dQw4w9WgXcQ" {
			t.Fatalf("unexpected video id %q", got)
		}
		player := map[string]any{
			"playabilityStatus": map[string]any{"status": "OK"},
			"captions": map[string]any{
				"playerCaptionsTracklistRenderer": map[string]any{
					"captionTracks": []any{
						map[string]any{
							"baseUrl":      "/api/timedtext?lang=en",
							"languageCode": "en",
						},
					},
				},
			},
		}
		fmt.Fprint(w, watchPage(t, player))
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, timedText)
	})

	client := NewClient(Config{BaseURL: server.URL, Languages: []string{"en"}})
	transcript, err := client.FetchTranscript(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("FetchTranscript returned error: %v", err)
	}
	if transcript.Text != "Welcome to the lab I'm your host" {
		t.Fatalf("unexpected transcript %q", transcript.Text)
	}
	if transcript.Language != "en" || transcript.Generated {
		t.Fatalf("unexpected track metadata %+v", transcript)
	}
}

func TestClientFetchTranscriptNoCaptions(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		player := map[string]any{
			"playabilityStatus": map[string]any{"status": "OK"},
		}
		fmt.Fprint(w, watchPage(t, player))
	})

	client := NewClient(Config{BaseURL: server.URL})
	_, err := client.FetchTranscript(context.Background(), "dQw4w9WgXcQ")
	if !errors.Is(err, ErrNoCaptionTracks) {
		t.Fatalf("expected ErrNoCaptionTracks, got %v", err)
	}
}

func TestClientFetchTranscriptUnplayable(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		player := map[string]any{
			"playabilityStatus": map[string]any{"status": "LOGIN_REQUIRED", "reason": "Sign in"},
		}
		fmt.Fprint(w, watchPage(t, player))
	})

	client := NewClient(Config{BaseURL: server.URL})
	_, err := client.FetchTranscript(context.Background(), "dQw4w9WgXcQ")
	if !errors.Is(err, ErrNoCaptionTracks) {
		t.Fatalf("expected ErrNoCaptionTracks, got %v", err)
	}
	if !strings.Contains(err.Error(), "LOGIN_REQUIRED") {
		t.Fatalf("expected playability status in error, got %v", err)
	}
}

func TestSelectCaptionTrack(t *testing.T) {
	manualEN := captionTrack{BaseURL: "manual-en", LanguageCode: "en"}
	asrEN := captionTrack{BaseURL: "asr-en", LanguageCode: "en", Kind: "asr"}
	manualENUS := captionTrack{BaseURL: "manual-en-us", LanguageCode: "en-US"}
	manualDE := captionTrack{BaseURL: "manual-de", LanguageCode: "de"}
	asrES := captionTrack{BaseURL: "asr-es", LanguageCode: "es", Kind: "asr"}

	cases := []struct {
		name      string
		tracks    []captionTrack
		languages []string
		want      string
	}{
		{"manual beats asr", []captionTrack{asrEN, manualEN}, []string{"en"}, "manual-en"},
		{"prefix match", []captionTrack{manualDE, manualENUS}, []string{"en"}, "manual-en-us"},
		{"asr when no manual in language", []captionTrack{manualDE, asrEN}, []string{"en"}, "asr-en"},
		{"language order wins", []captionTrack{manualDE, manualEN}, []string{"de", "en"}, "manual-de"},
		{"no language match falls back to manual", []captionTrack{asrES, manualDE}, []string{"en"}, "manual-de"},
		{"all generated", []captionTrack{asrES, asrEN}, []string{"fr"}, "asr-es"},
		{"no preferences", []captionTrack{asrES, manualDE}, nil, "manual-de"},
	}
	for _, tc := range cases {
		if got := selectCaptionTrack(tc.tracks, tc.languages); got.BaseURL != tc.want {
			t.Fatalf("%s: expected track %q, got %q", tc.name, tc.want, got.BaseURL)
		}
	}
}

func TestExtractPlayerResponseMissingMarker(t *testing.T) {
	if _, err := extractPlayerResponse("<html><body>nothing here</body></html>"); err == nil {
		t.Fatal("expected extraction to fail")
	}
}

func TestDecodeTimedTextEmpty(t *testing.T) {
	_, err := decodeTimedText([]byte(`<?xml version="1.0" encoding="utf-8" ?><transcript></transcript>`))
	if !errors.Is(err, ErrEmptyTranscript) {
		t.Fatalf("expected ErrEmptyTranscript, got %v", err)
	}
}
