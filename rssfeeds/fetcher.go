package rssfeeds

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"compass/logging"
	"compass/types"
)

const fetchTimeout = 30 * time.Second

// Fetcher retrieves RSS/Atom feeds.
type Fetcher struct {
	client *http.Client
}

// NewFetcher returns a fetcher using client, or a default client with a
// request timeout when client is nil.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	return &Fetcher{client: client}
}

// FetchFeed retrieves and parses an RSS/Atom feed, returning raw signals.
// The feed title becomes each signal's source.
func (f *Fetcher) FetchFeed(ctx context.Context, feedURL string, maxCount int) ([]types.Signal, error) {
	parser := gofeed.NewParser()
	parser.Client = f.client
	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed %s: %w", feedURL, err)
	}

	count := len(feed.Items)
	if maxCount > 0 {
		count = min(count, maxCount)
	}
	signals := make([]types.Signal, 0, count)

	for _, item := range feed.Items[:count] {
		date := itemDate(item.PublishedParsed, item.UpdatedParsed)

		// Use GUID if available, otherwise the link
		key := item.GUID
		if key == "" {
			key = item.Link
		}
		if key == "" {
			key = item.Title
		}

		summary := item.Description
		if summary == "" {
			summary = item.Content
		}

		signals = append(signals, types.Signal{
			ID:          types.GenerateID(feed.Title, key, date),
			Title:       types.Plain(item.Title),
			BodySnippet: types.Plain(plainText(summary)),
			URL:         item.Link,
			Date:        date,
			Source:      types.Plain(feed.Title),
		})
	}

	return signals, nil
}

// FetchAll fetches every feed with at most limit requests in flight. A
// failing feed is logged and skipped; an error is returned only when every
// feed failed. Signals keep the order of feeds.
func (f *Fetcher) FetchAll(ctx context.Context, feeds []FeedConfig, maxCount, limit int) ([]types.Signal, error) {
	if len(feeds) == 0 {
		return nil, nil
	}
	results := make([][]types.Signal, len(feeds))
	errs := make([]error, len(feeds))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, feed := range feeds {
		g.Go(func() error {
			signals, err := f.FetchFeed(gctx, feed.URL, maxCount)
			if err != nil {
				logging.Warn("feed failed", "feed", feed.Name, "url", feed.URL, "err", err)
				errs[i] = err
				return nil
			}
			for j := range signals {
				if signals[j].Source.IsZero() {
					signals[j].Source = types.Plain(feed.Name)
				}
			}
			logging.Info("fetched feed", "feed", feed.Name, "items", len(signals))
			results[i] = signals
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []types.Signal
	failed := 0
	for i := range feeds {
		if errs[i] != nil {
			failed++
			continue
		}
		all = append(all, results[i]...)
	}
	if failed == len(feeds) {
		return nil, fmt.Errorf("failed to fetch all %d feeds: %w", failed, errors.Join(errs...))
	}
	return all, nil
}
