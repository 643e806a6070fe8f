package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"golang-deal-sentinel/internal/sentinel/dto"
	"golang-deal-sentinel/pkg/logger"
	"golang-deal-sentinel/pkg/utils"

	"github.com/mmcdole/gofeed"
)

const googleNewsBase = "https://news.google.com/rss/search"

// FeedFetcher retrieves and parses RSS/Atom feeds. One fetch handles one
// source; concurrency across sources is the orchestrator's concern.
type FeedFetcher struct {
	logger     *logger.Logger
	client     *http.Client
	maxEntries int
}

// NewFeedFetcher creates a new FeedFetcher. maxEntries caps the number of
// entries returned per source, newest first.
func NewFeedFetcher(log *logger.Logger, timeout time.Duration, maxEntries int) *FeedFetcher {
	return &FeedFetcher{
		logger:     log,
		client:     &http.Client{Timeout: timeout},
		maxEntries: maxEntries,
	}
}

// Fetch retrieves one feed and returns its entries newest first, capped at
// the configured per-source limit.
func (f *FeedFetcher) Fetch(ctx context.Context, sourceURL string) ([]dto.RawEntry, error) {
	fp := gofeed.NewParser()
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(sourceURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", sourceURL, err)
	}

	items := feed.Items
	sort.Slice(items, func(i, j int) bool {
		if items[i].PublishedParsed == nil || items[j].PublishedParsed == nil {
			return false
		}
		return items[i].PublishedParsed.After(*items[j].PublishedParsed)
	})

	if len(items) > f.maxEntries {
		items = items[:f.maxEntries]
	}

	entries := make([]dto.RawEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, dto.RawEntry{
			Title:       utils.CleanToValidUTF8(item.Title),
			Summary:     utils.CleanToValidUTF8(item.Description),
			Link:        item.Link,
			PublishedAt: item.Published,
		})
	}

	f.logger.Info("Fetched feed",
		logger.StringField("url", sourceURL),
		logger.IntField("total_entries", len(feed.Items)),
		logger.IntField("returned", len(entries)),
	)

	return entries, nil
}

// WatchlistQueryURL builds the targeted Google News query for one monitored
// company: the quoted name AND a boolean group of deal-context terms, scoped
// to a short recency window.
func WatchlistQueryURL(companyName string) string {
	query := fmt.Sprintf(`"%s" AND (acquisition OR restructuring OR "strategic review" OR PE OR refinancing) when:28d`, companyName)
	return fmt.Sprintf("%s?q=%s&hl=en-GB&gl=GB&ceid=GB:en", googleNewsBase, url.QueryEscape(query))
}
