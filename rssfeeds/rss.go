package rssfeeds

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"compass/logging"
	"compass/types"
)

// FeedResult is the raw file written by a fetch run.
type FeedResult struct {
	FetchedAt   time.Time      `json:"fetched_at"`
	Feeds       []FeedConfig   `json:"feeds"`
	SignalCount int            `json:"signal_count"`
	Signals     []types.Signal `json:"signals"`
}

// Options controls a fetch run.
type Options struct {
	Feeds          []string
	MaxPerFeed     int
	ExtractContent bool
	Workers        int
}

// Collect fetches the configured feeds and optionally extracts article text.
func Collect(ctx context.Context, fetcher *Fetcher, extractor *Extractor, opts Options) (*FeedResult, error) {
	feeds := ResolveFeeds(opts.Feeds)
	maxPer := opts.MaxPerFeed
	if maxPer <= 0 {
		maxPer = DefaultCount
	}

	signals, err := fetcher.FetchAll(ctx, feeds, maxPer, opts.Workers)
	if err != nil {
		return nil, err
	}
	if opts.ExtractContent && extractor != nil {
		extractor.ExtractAllContent(ctx, signals)
	}

	return &FeedResult{
		FetchedAt:   time.Now().UTC(),
		Feeds:       feeds,
		SignalCount: len(signals),
		Signals:     signals,
	}, nil
}

// WriteRawSignals writes result to {dir}/{date}.json for LoadRawSignals to
// pick up, replacing any earlier fetch for that date.
func WriteRawSignals(dir, date string, result *FeedResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create raw directory: %w", err)
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode raw signals: %w", err)
	}
	path := filepath.Join(dir, date+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write raw signals: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("failed to write raw signals: %w", err)
	}
	logging.Info("wrote raw signals", "path", path, "signals", result.SignalCount)
	return path, nil
}
