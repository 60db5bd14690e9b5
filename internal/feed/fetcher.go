package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"newsdigest/internal/domain"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/rss"
)

const (
	DefaultTimeout = 20 * time.Second

	userAgent       = "news-summarizer/1.0"
	maxFeedBodySize = 16 << 20
)

// Fetcher downloads a feed and turns its entries into stories.
type Fetcher struct {
	client    *http.Client
	libParser *gofeed.Parser
	log       *slog.Logger
}

func NewFetcher(timeout time.Duration, log *slog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		libParser: gofeed.NewParser(),
		log:       log,
	}
}

// Fetch returns at most limit stories in feed order. A non-positive limit
// returns every entry.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string, limit int) ([]domain.Story, error) {
	feedURL = strings.TrimSpace(feedURL)
	if feedURL == "" {
		return nil, errors.New("feed URL is empty")
	}

	body, err := f.download(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("download feed (URL = %s): %w", feedURL, err)
	}

	parsed, err := f.libParser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed (URL = %s): %w", feedURL, err)
	}

	sources := rssSources(body)

	items := parsed.Items
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	stories := make([]domain.Story, 0, len(items))
	for i, item := range items {
		if item == nil {
			continue
		}

		story := storyFromItem(item)
		if i < len(sources) && sources[i] != "" {
			story.Source = sources[i]
		}

		if story.Link == "" {
			story.Link = firstLink(story.Summary)
			if story.Link != "" {
				f.log.DebugContext(ctx, "Recovered story link from snippet",
					"feedURL", feedURL,
					"title", story.Title,
					"link", story.Link)
			}
		}

		stories = append(stories, story)
	}

	return stories, nil
}

func (f *Fetcher) download(ctx context.Context, feedURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			f.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"feedURL", feedURL,
				"operation", "download")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("do request: unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return body, nil
}

func storyFromItem(item *gofeed.Item) domain.Story {
	summary := strings.TrimSpace(item.Description)
	if summary == "" {
		summary = strings.TrimSpace(item.Content)
	}

	// Author is a fallback for feeds without an RSS <source> element.
	var source string
	if item.Author != nil {
		source = strings.TrimSpace(item.Author.Name)
	}

	return domain.Story{
		Title:     strings.TrimSpace(item.Title),
		Link:      strings.TrimSpace(item.Link),
		Source:    source,
		Published: strings.TrimSpace(item.Published),
		Summary:   summary,
	}
}

// rssSources returns the <source> title of every RSS item, in item order. The
// universal feed model drops that element.
func rssSources(body []byte) []string {
	if gofeed.DetectFeedType(bytes.NewReader(body)) != gofeed.FeedTypeRSS {
		return nil
	}

	parsed, err := (&rss.Parser{}).Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	sources := make([]string, len(parsed.Items))
	for i, item := range parsed.Items {
		if item != nil && item.Source != nil {
			sources[i] = strings.TrimSpace(item.Source.Title)
		}
	}

	return sources
}
