package rssfeeds

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/time/rate"

	"compass/logging"
	"compass/types"
)

const (
	WorkerCount      = 5
	extractorTimeout = 30 * time.Second
)

// ContentFunc returns the readable text of the page at rawURL.
type ContentFunc func(ctx context.Context, rawURL string) (string, error)

// Extractor fills body_text from article pages with a bounded worker pool.
type Extractor struct {
	workers int
	content ContentFunc
	limiter *rate.Limiter
}

// NewExtractor builds an extractor backed by readability. workers <= 0 uses
// WorkerCount; perSecond <= 0 disables pacing.
func NewExtractor(client *http.Client, workers int, perSecond float64) *Extractor {
	if client == nil {
		client = &http.Client{Timeout: extractorTimeout}
	}
	return NewExtractorWith(ReadabilityContent(client), workers, perSecond)
}

// NewExtractorWith builds an extractor around a custom content function.
func NewExtractorWith(content ContentFunc, workers int, perSecond float64) *Extractor {
	if workers <= 0 {
		workers = WorkerCount
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if perSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	return &Extractor{workers: workers, content: content, limiter: limiter}
}

// ExtractAllContent fills body_text on every signal that has a link and no
// body_text yet. Failures are logged and leave the signal unchanged. It
// returns the number of signals filled.
func (e *Extractor) ExtractAllContent(ctx context.Context, signals []types.Signal) int {
	var wg sync.WaitGroup
	var mu sync.Mutex
	filled := 0
	jobs := make(chan int)

	// Start worker pool
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := range jobs {
				sig := &signals[i]
				if err := e.extract(ctx, sig); err != nil {
					logging.Debug("extraction failed", "worker", workerID, "url", sig.Link(), "err", err)
					continue
				}
				mu.Lock()
				filled++
				mu.Unlock()
			}
		}(w)
	}

queue:
	for i := range signals {
		if signals[i].Link() == "" || !signals[i].BodyText.IsZero() {
			continue
		}
		select {
		case jobs <- i:
		case <-ctx.Done():
			break queue
		}
	}
	close(jobs)
	wg.Wait()

	logging.Info("extracted article content", "filled", filled, "signals", len(signals))
	return filled
}

func (e *Extractor) extract(ctx context.Context, sig *types.Signal) error {
	if err := e.limiter.Wait(ctx); err != nil {
		return err
	}
	text, err := e.content(ctx, sig.Link())
	if err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("no readable content")
	}
	sig.BodyText = types.Plain(text)
	return nil
}

// ReadabilityContent fetches a page with client and extracts its main text.
func ReadabilityContent(client *http.Client) ContentFunc {
	return func(ctx context.Context, rawURL string) (string, error) {
		pageURL, err := url.Parse(rawURL)
		if err != nil {
			return "", fmt.Errorf("failed to parse article url: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return "", fmt.Errorf("failed to build request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return "", fmt.Errorf("failed to fetch article: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("failed to fetch article: status %d", resp.StatusCode)
		}

		article, err := readability.FromReader(resp.Body, pageURL)
		if err != nil {
			return "", fmt.Errorf("readability extraction failed: %w", err)
		}
		return article.TextContent, nil
	}
}
