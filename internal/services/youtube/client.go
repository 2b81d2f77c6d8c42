package youtube

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"podbrief/internal/config"
	"podbrief/internal/textutil"
)

const (
	defaultHTTPTimeout   = 30 * time.Second
	playerResponseMarker = "ytInitialPlayerResponse = "
)

// Sentinel errors reported by FetchTranscript. The transcript stage treats
// every client error as a fallback trigger, so these exist for logging and
// tests rather than control flow.
var (
	ErrNoCaptionTracks = errors.New("youtube: no caption tracks")
	ErrEmptyTranscript = errors.New("youtube: empty transcript")
)

// Config holds settings for transcript retrieval.
type Config struct {
	BaseURL        string
	Languages      []string
	TimeoutSeconds int
}

// Client fetches caption transcripts from YouTube watch pages.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a YouTube transcript client using the supplied
// configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Languages:      append([]string(nil), cfg.Languages...),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://www.youtube.com"
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// NewClientFrom constructs a client from the resolved YouTube configuration.
func NewClientFrom(cfg config.YouTubeConfig, opts ...Option) *Client {
	return NewClient(Config{
		BaseURL:        cfg.BaseURL,
		Languages:      cfg.Languages,
		TimeoutSeconds: cfg.TimeoutSeconds,
	}, opts...)
}

// Transcript is a fetched caption transcript.
type Transcript struct {
	Text      string
	Language  string
	Generated bool
}

// FetchTranscript loads the watch page for videoID, picks the best caption
// track (configured languages first, manual tracks over auto-generated), and
// returns the joined segment text.
func (c *Client) FetchTranscript(ctx context.Context, videoID string) (Transcript, error) {
	var empty Transcript
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return empty, errors.New("youtube transcript: video id required")
	}

	watchURL, err := url.JoinPath(c.cfg.BaseURL, "watch")
	if err != nil {
		return empty, fmt.Errorf("youtube transcript: build url: %w", err)
	}
	watchURL += "?" + url.Values{"v": {videoID}}.Encode()

	page, err := c.fetch(ctx, watchURL, "watch page")
	if err != nil {
		return empty, err
	}
	player, err := extractPlayerResponse(string(page))
	if err != nil {
		return empty, err
	}

	tracks := player.captionTracks()
	if len(tracks) == 0 {
		if status := strings.TrimSpace(player.PlayabilityStatus.Status); status != "" && status != "OK" {
			return empty, fmt.Errorf("%w (playability %s)", ErrNoCaptionTracks, status)
		}
		return empty, ErrNoCaptionTracks
	}
	track := selectCaptionTrack(tracks, c.cfg.Languages)

	trackURL, err := c.resolveTrackURL(track.BaseURL)
	if err != nil {
		return empty, err
	}
	captions, err := c.fetch(ctx, trackURL, "captions")
	if err != nil {
		return empty, err
	}
	text, err := decodeTimedText(captions)
	if err != nil {
		return empty, err
	}
	return Transcript{
		Text:      text,
		Language:  track.LanguageCode,
		Generated: track.Kind == "asr",
	}, nil
}

func (c *Client) fetch(ctx context.Context, rawURL, what string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("youtube %s: new request: %w", what, err)
	}
	if len(c.cfg.Languages) > 0 {
		req.Header.Set("Accept-Language", strings.Join(c.cfg.Languages, ", "))
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("youtube %s: http error: %w", what, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("youtube %s: read body: %w", what, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("youtube %s: http %d", what, resp.StatusCode)
	}
	return body, nil
}

func (c *Client) resolveTrackURL(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("youtube captions: parse track url: %w", err)
	}
	if parsed.IsAbs() {
		return parsed.String(), nil
	}
	base, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("youtube captions: parse base url: %w", err)
	}
	return base.ResolveReference(parsed).String(), nil
}

type playerResponse struct {
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
}

func (p playerResponse) captionTracks() []captionTrack {
	if p.Captions == nil {
		return nil
	}
	return p.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	// Kind is "asr" for auto-generated tracks.
	Kind string `json:"kind"`
}

// extractPlayerResponse pulls the embedded ytInitialPlayerResponse object out
// of the watch page HTML. The decoder stops at the end of the JSON value, so
// the trailing script text does not matter.
func extractPlayerResponse(page string) (playerResponse, error) {
	var parsed playerResponse
	index := strings.Index(page, playerResponseMarker)
	if index < 0 {
		return parsed, errors.New("youtube transcript: player response not found")
	}
	decoder := json.NewDecoder(strings.NewReader(page[index+len(playerResponseMarker):]))
	if err := decoder.Decode(&parsed); err != nil {
		return parsed, fmt.Errorf("youtube transcript: decode player response: %w", err)
	}
	return parsed, nil
}

// selectCaptionTrack picks the transcript source: for each preferred
// language, a manual track beats an auto-generated one; with no language
// match, any manual track beats the first auto-generated track.
func selectCaptionTrack(tracks []captionTrack, languages []string) captionTrack {
	manual := func(track captionTrack) bool { return track.Kind != "asr" }
	any := func(captionTrack) bool { return true }

	for _, language := range languages {
		if track, ok := findTrack(tracks, language, manual); ok {
			return track
		}
		if track, ok := findTrack(tracks, language, any); ok {
			return track
		}
	}
	for _, track := range tracks {
		if manual(track) {
			return track
		}
	}
	return tracks[0]
}

func findTrack(tracks []captionTrack, language string, accept func(captionTrack) bool) (captionTrack, bool) {
	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		return captionTrack{}, false
	}
	for _, track := range tracks {
		code := strings.ToLower(strings.TrimSpace(track.LanguageCode))
		if code != language && !strings.HasPrefix(code, language+"-") {
			continue
		}
		if accept(track) {
			return track, true
		}
	}
	return captionTrack{}, false
}

type timedTextDocument struct {
	Segments []struct {
		Value string `xml:",chardata"`
	} `xml:"text"`
}

// decodeTimedText joins the caption segments with single spaces. Segment text
// is HTML-unescaped after XML decoding because the timedtext endpoint
// double-escapes entities.
func decodeTimedText(body []byte) (string, error) {
	var document timedTextDocument
	if err := xml.Unmarshal(body, &document); err != nil {
		return "", fmt.Errorf("youtube captions: decode timedtext: %w", err)
	}
	parts := make([]string, 0, len(document.Segments))
	for _, segment := range document.Segments {
		text := textutil.CollapseWhitespace(html.UnescapeString(segment.Value))
		if text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return "", ErrEmptyTranscript
	}
	return strings.Join(parts, " "), nil
}
