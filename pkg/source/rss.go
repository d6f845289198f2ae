package source

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/civicmeter/paragon/pkg/evidence"
)

// Feed is one RSS/Atom feed to collect, tied to a registered source key.
type Feed struct {
	Key  string
	Name string
	URL  string
}

// RSS collects evidence drafts from RSS/Atom feeds.
type RSS struct {
	client *http.Client
	parser *gofeed.Parser
	feeds  []Feed
	filter *Filter
}

// NewRSS creates a new RSS collector.
func NewRSS(feeds []Feed, filter *Filter) *RSS {
	return &RSS{
		client: &http.Client{Timeout: 30 * time.Second},
		parser: gofeed.NewParser(),
		feeds:  feeds,
		filter: filter,
	}
}

func (r *RSS) Name() string { return "rss" }

func (r *RSS) Collect(ctx context.Context) ([]evidence.Item, error) {
	var allItems []evidence.Item

	for _, feed := range r.feeds {
		items, err := r.collectFeed(ctx, feed)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  rss feed %s error: %v\n", feed.Key, err)
			continue
		}
		allItems = append(allItems, items...)
	}

	return allItems, nil
}

func (r *RSS) collectFeed(ctx context.Context, feed Feed) ([]evidence.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create rss request %s: %w", feed.Key, err)
	}
	req.Header.Set("User-Agent", "paragon/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rss %s: %w", feed.Key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rss %s status %d", feed.Key, resp.StatusCode)
	}

	parsed, err := r.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse rss %s: %w", feed.Key, err)
	}

	var items []evidence.Item
	for _, entry := range parsed.Items {
		text := entry.Title + " " + entry.Description
		var entities []string
		if r.filter != nil {
			entities = r.filter.Matching(text)
			if len(entities) == 0 {
				continue
			}
		}

		link := entry.Link
		if link == "" && len(entry.Links) > 0 {
			link = entry.Links[0]
		}
		if link == "" {
			continue
		}

		// Published stays nil when the feed timestamp is unparseable;
		// the reliability scorer treats that explicitly.
		published := entry.PublishedParsed
		if published == nil {
			published = entry.UpdatedParsed
		}

		raw := entry.Content
		if raw == "" {
			raw = entry.Description
		}

		items = append(items, evidence.Item{
			SourceKey:            feed.Key,
			URL:                  link,
			Title:                entry.Title,
			PublishedAt:          published,
			ContentType:          "article",
			Language:             parsed.Language,
			Snippet:              truncate(entry.Description, 500),
			RawText:              raw,
			Entities:             entities,
			Topics:               entry.Categories,
			Signals:              map[string]float64{},
			ExtractionConfidence: 0.6,
		})
	}

	return items, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
