package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"podbrief/internal/config"
	"podbrief/internal/textutil"
)

// MessageLimit is the maximum message length accepted by the Bot API.
// Longer announcements are split on line boundaries before sending.
const MessageLimit = 4096

const (
	defaultHTTPTimeout    = 30 * time.Second
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = time.Second
	defaultRetryMaxDelay  = 30 * time.Second
)

// Config holds connection settings for the Telegram Bot API.
type Config struct {
	BotToken           string
	ChatID             string
	BaseURL            string
	DisableLinkPreview bool
	TimeoutSeconds     int
}

// Client wraps the Telegram Bot API methods used for announcements.
type Client struct {
	cfg        Config
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
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

// WithRetryMaxAttempts overrides the default retry count (defaults to 3).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a Telegram client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BotToken:           strings.TrimSpace(cfg.BotToken),
			ChatID:             strings.TrimSpace(cfg.ChatID),
			BaseURL:            strings.TrimSpace(cfg.BaseURL),
			DisableLinkPreview: cfg.DisableLinkPreview,
			TimeoutSeconds:     cfg.TimeoutSeconds,
		},
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://api.telegram.org"
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// NewClientFrom constructs a client from the resolved Telegram configuration.
func NewClientFrom(cfg config.TelegramConfig, opts ...Option) *Client {
	return NewClient(Config{
		BotToken:           cfg.BotToken,
		ChatID:             cfg.ChatID,
		BaseURL:            cfg.BaseURL,
		DisableLinkPreview: cfg.DisableLinkPreview,
		TimeoutSeconds:     cfg.TimeoutSeconds,
	}, opts...)
}

// APIError is a Bot API response with ok=false.
type APIError struct {
	Method      string
	ErrorCode   int
	Description string
	RetryAfter  time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: api error %d: %s", e.Method, e.ErrorCode, e.Description)
}

type httpStatusError struct {
	Method     string
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("telegram %s: http %d: %s", e.Method, e.StatusCode, strings.TrimSpace(e.Body))
}

type transportError struct {
	method string
	token  string
	err    error
}

func (e *transportError) Error() string {
	return fmt.Sprintf("telegram %s: http error: %s", e.method, textutil.MaskSecret(e.err.Error(), e.token))
}

func (e *transportError) Unwrap() error { return e.err }

// BotProfile identifies the authenticated bot account.
type BotProfile struct {
	ID       int64  `json:"id"`
	IsBot    bool   `json:"is_bot"`
	Username string `json:"username"`
}

// SendMessage delivers text to the configured chat, splitting announcements
// that exceed MessageLimit on line boundaries. It returns the message id of
// the first delivered chunk.
func (c *Client) SendMessage(ctx context.Context, text string) (int64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, errors.New("telegram send: text required")
	}
	if strings.TrimSpace(c.cfg.BotToken) == "" {
		return 0, errors.New("telegram send: bot token required")
	}
	if strings.TrimSpace(c.cfg.ChatID) == "" {
		return 0, errors.New("telegram send: chat id required")
	}

	var firstID int64
	for index, chunk := range splitMessage(text, MessageLimit) {
		payload := sendMessageRequest{
			ChatID:                c.cfg.ChatID,
			Text:                  chunk,
			DisableWebPagePreview: c.cfg.DisableLinkPreview,
		}
		var sent sentMessage
		if err := c.callWithRetry(ctx, "sendMessage", payload, &sent); err != nil {
			return 0, err
		}
		if index == 0 {
			firstID = sent.MessageID
		}
	}
	return firstID, nil
}

// GetMe verifies the bot token and returns the authenticated bot profile.
func (c *Client) GetMe(ctx context.Context) (BotProfile, error) {
	var profile BotProfile
	if strings.TrimSpace(c.cfg.BotToken) == "" {
		return profile, errors.New("telegram getme: bot token required")
	}
	if err := c.callWithRetry(ctx, "getMe", nil, &profile); err != nil {
		return profile, err
	}
	return profile, nil
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type sentMessage struct {
	MessageID int64 `json:"message_id"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

func (c *Client) callWithRetry(ctx context.Context, method string, payload, result any) error {
	attempts := c.retryAttempts()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		err := c.callOnce(ctx, method, payload, result)
		if err == nil {
			return nil
		}
		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return err
		}
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return fmt.Errorf("telegram %s: failed after %d attempts: %w", method, attempts, lastErr)
}

func (c *Client) callOnce(ctx context.Context, method string, payload, result any) error {
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "bot"+c.cfg.BotToken, method)
	if err != nil {
		return fmt.Errorf("telegram %s: build url: %w", method, err)
	}
	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("telegram %s: encode body: %w", method, err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, reader)
	if err != nil {
		return fmt.Errorf("telegram %s: new request: %w", method, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &transportError{method: method, token: c.cfg.BotToken, err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("telegram %s: read body: %w", method, err)
	}

	// The Bot API reports failures inside the JSON envelope, including on
	// non-2xx statuses. Fall back to the raw status when the body is not the
	// envelope (reverse proxies, outages).
	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		if resp.StatusCode >= http.StatusMultipleChoices {
			return &httpStatusError{Method: method, StatusCode: resp.StatusCode, Body: string(body)}
		}
		return fmt.Errorf("telegram %s: decode response: %w", method, err)
	}
	if !envelope.OK {
		apiErr := &APIError{
			Method:      method,
			ErrorCode:   envelope.ErrorCode,
			Description: strings.TrimSpace(envelope.Description),
		}
		if envelope.Parameters != nil && envelope.Parameters.RetryAfter > 0 {
			apiErr.RetryAfter = time.Duration(envelope.Parameters.RetryAfter) * time.Second
		}
		return apiErr
	}
	if result != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("telegram %s: decode result: %w", method, err)
		}
	}
	return nil
}

func (c *Client) retryAttempts() int {
	if c == nil {
		return 1
	}
	if c.retryMaxAttempts <= 0 {
		return 1
	}
	return c.retryMaxAttempts
}

func (c *Client) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts {
		return 0, false
	}
	if err == nil {
		return 0, false
	}
	if ctx == nil {
		return 0, false
	}
	if ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.ErrorCode == http.StatusTooManyRequests:
			if apiErr.RetryAfter > 0 {
				return c.capDelay(apiErr.RetryAfter), true
			}
			return c.backoffDelay(attempt), true
		case apiErr.ErrorCode >= http.StatusInternalServerError:
			return c.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= http.StatusInternalServerError {
			return c.backoffDelay(attempt), true
		}
		return 0, false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return c.backoffDelay(attempt), true
		}
	}

	return 0, false
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	base := c.retryBaseDelay
	if base <= 0 {
		return 0
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if c.retryMaxDelay > 0 && delay >= c.retryMaxDelay {
			delay = c.retryMaxDelay
			break
		}
	}
	return c.capDelay(delay)
}

func (c *Client) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if c.retryMaxDelay > 0 && delay > c.retryMaxDelay {
		return c.retryMaxDelay
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx == nil {
		return errors.New("telegram retry: nil context")
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c != nil && c.sleeper != nil {
		c.sleeper(delay)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// splitMessage breaks text into chunks of at most limit runes, preferring
// line boundaries. A single line longer than the limit is split mid-line.
func splitMessage(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	currentRunes := 0
	flush := func() {
		if currentRunes > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			currentRunes = 0
		}
	}

	for _, line := range strings.Split(text, "\n") {
		lineRunes := utf8.RuneCountInString(line)
		if lineRunes > limit {
			flush()
			chunks = append(chunks, splitRunes(line, limit)...)
			continue
		}
		separator := 0
		if currentRunes > 0 {
			separator = 1
		}
		if currentRunes+separator+lineRunes > limit {
			flush()
			separator = 0
		}
		if separator == 1 {
			current.WriteString("\n")
			currentRunes++
		}
		current.WriteString(line)
		currentRunes += lineRunes
	}
	flush()

	if len(chunks) == 0 {
		chunks = []string{""}
	}
	return chunks
}

func splitRunes(text string, limit int) []string {
	runes := []rune(text)
	var pieces []string
	for len(runes) > limit {
		pieces = append(pieces, string(runes[:limit]))
		runes = runes[limit:]
	}
	if len(runes) > 0 {
		pieces = append(pieces, string(runes))
	}
	return pieces
}
