package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/mmcdole/gofeed"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	userAgent          = "podbrief/0.1.0"
	defaultHTTPTimeout = 30 * time.Second
)

// Entry is a single feed item in pipeline terms.
type Entry struct {
	GUID        string
	Title       string
	PageURL     string
	VideoID     string
	PublishedAt *time.Time
	ShowNotes   string
}

// Identity returns the dedup key for the entry: the feed-supplied video id
// when present, else the GUID.
func (e Entry) Identity() string {
	if e.VideoID != "" {
		return e.VideoID
	}
	return e.GUID
}

// Feed is a fetched podcast feed.
type Feed struct {
	Title   string
	Entries []Entry
}

// Fetcher downloads and converts podcast RSS feeds.
type Fetcher struct {
	parser *gofeed.Parser
}

// Option customizes the fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.parser.Client = client
		}
	}
}

// NewFetcher constructs a feed fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	parser.Client = &http.Client{Timeout: defaultHTTPTimeout}
	fetcher := &Fetcher{parser: parser}
	for _, opt := range opts {
		opt(fetcher)
	}
	return fetcher
}

// Fetch downloads and parses the feed at feedURL. A feed without items is
// not an error; it yields zero entries.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) (Feed, error) {
	parsed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return Feed{}, fmt.Errorf("fetch feed: %w", err)
	}
	return convertFeed(parsed), nil
}

func convertFeed(parsed *gofeed.Feed) Feed {
	converted := Feed{Title: strings.TrimSpace(parsed.Title)}
	converted.Entries = make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		converted.Entries = append(converted.Entries, convertItem(item))
	}
	return converted
}

func convertItem(item *gofeed.Item) Entry {
	entry := Entry{
		GUID:        strings.TrimSpace(item.GUID),
		Title:       strings.TrimSpace(item.Title),
		PageURL:     strings.TrimSpace(item.Link),
		VideoID:     videoIDExtension(item),
		PublishedAt: item.PublishedParsed,
		ShowNotes:   showNotes(item),
	}
	if entry.GUID == "" {
		entry.GUID = entry.PageURL
	}
	if entry.Title == "" {
		entry.Title = deriveTitle(entry.PageURL)
	}
	return entry
}

// videoIDExtension reads the yt:videoId element carried by YouTube channel
// feeds. Podcast hosts usually omit it; the resolve stage then extracts the
// id from the episode page instead.
func videoIDExtension(item *gofeed.Item) string {
	namespace, ok := item.Extensions["yt"]
	if !ok {
		return ""
	}
	for _, key := range []string{"videoId", "videoid"} {
		for _, extension := range namespace[key] {
			if value := strings.TrimSpace(extension.Value); value != "" {
				return value
			}
		}
	}
	return ""
}

// showNotes keeps the raw item HTML; the transcript stage strips markup when
// it needs the notes as fallback text.
func showNotes(item *gofeed.Item) string {
	if content := strings.TrimSpace(item.Content); content != "" {
		return content
	}
	return strings.TrimSpace(item.Description)
}

// deriveTitle builds a display title from the episode page URL slug for
// entries whose feed omits a title.
func deriveTitle(pageURL string) string {
	const fallback = "Untitled Episode"
	parsed, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil || parsed.Path == "" {
		return fallback
	}
	base := path.Base(strings.TrimRight(parsed.Path, "/"))
	if base == "." || base == "/" {
		return fallback
	}
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return fallback
	}
	return cases.Title(language.Und).String(title)
}
