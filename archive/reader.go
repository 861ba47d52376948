package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"compass/common"
	"compass/logging"
	"compass/types"

	"github.com/charmbracelet/log"
)

// DefaultLookbackDays is how many previous days feed cross-day dedup.
const DefaultLookbackDays = 3

// Reader loads persisted briefings by date.
type Reader struct {
	cfg    Config
	logger *log.Logger
}

// NewReader creates a reader over the configured directories.
func NewReader(cfg Config) *Reader {
	return &Reader{cfg: cfg, logger: logging.WithPrefix("archive")}
}

// Accept inspects a candidate briefing. A non-nil error rejects it and the
// lookup moves on to the next location.
type Accept func(*Document) error

// LoadBriefing returns the briefing for date. Local files are tried in order
// processed, archive, flat archive; then the cache and the remote mirror when
// configured. Unreadable or malformed entries are logged and skipped.
func (r *Reader) LoadBriefing(ctx context.Context, date string) (*Document, error) {
	return r.FindBriefing(ctx, date, nil)
}

// FindBriefing is LoadBriefing with a caller check: a candidate that accept
// rejects is skipped like a malformed file. A nil accept takes the first
// well-formed JSON document.
func (r *Reader) FindBriefing(ctx context.Context, date string, accept Accept) (*Document, error) {
	usable := func(doc *Document) bool {
		if accept == nil {
			return true
		}
		if err := accept(doc); err != nil {
			r.logger.Warn("skipping unusable briefing", "path", doc.Path, "err", err)
			return false
		}
		return true
	}

	for _, path := range r.localPaths(date) {
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			r.logger.Warn("failed to read briefing", "path", path, "err", err)
			continue
		}
		if !json.Valid(data) {
			r.logger.Warn("skipping malformed briefing", "path", path)
			continue
		}
		if doc := (&Document{Date: date, Path: path, Raw: data}); usable(doc) {
			return doc, nil
		}
	}

	if r.cfg.Cache != nil {
		data, err := r.cfg.Cache.Get(ctx, date)
		switch {
		case err == nil && json.Valid(data):
			if doc := (&Document{Date: date, Path: "redis:" + cacheKeyPrefix + date, Raw: data}); usable(doc) {
				return doc, nil
			}
		case err != nil && !errors.Is(err, ErrNotFound):
			r.logger.Warn("briefing cache lookup failed", "date", date, "err", err)
		}
	}

	if r.cfg.Remote != nil {
		data, err := r.cfg.Remote.GetObject(ctx, remoteName(date))
		switch {
		case err == nil && json.Valid(data):
			doc := &Document{Date: date, Path: "remote:" + remoteName(date), Raw: data}
			if !usable(doc) {
				break
			}
			if r.cfg.Cache != nil {
				if err := r.cfg.Cache.Set(ctx, date, data); err != nil {
					r.logger.Warn("failed to cache remote briefing", "date", date, "err", err)
				}
			}
			return doc, nil
		case err == nil:
			r.logger.Warn("skipping malformed remote briefing", "date", date)
		case !errors.Is(err, common.ErrObjectNotFound):
			r.logger.Warn("remote briefing lookup failed", "date", date, "err", err)
		}
	}

	return nil, fmt.Errorf("%w for %s", ErrNotFound, date)
}

// LoadPreviousBriefing loads the briefing for the calendar day before date.
func (r *Reader) LoadPreviousBriefing(ctx context.Context, date string) (*Document, error) {
	return r.FindPreviousBriefing(ctx, date, nil)
}

// FindPreviousBriefing is FindBriefing for the calendar day before date.
func (r *Reader) FindPreviousBriefing(ctx context.Context, date string, accept Accept) (*Document, error) {
	day, err := time.Parse(types.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("failed to parse date %q: %w", date, err)
	}
	return r.FindBriefing(ctx, day.AddDate(0, 0, -1).Format(types.DateLayout), accept)
}

// LoadLatest returns processed/latest/briefing.json.
func (r *Reader) LoadLatest(ctx context.Context) (*Document, error) {
	return r.LoadBriefing(ctx, "latest")
}

// LoadRecentSignals walks back lookback days from date (exclusive) and
// concatenates each day's signals, newest day first. Missing days are
// skipped; a day whose first copy does not decode falls back to the next
// location. An unparseable date yields no signals.
func (r *Reader) LoadRecentSignals(ctx context.Context, date string, lookback int) []types.Signal {
	day, err := time.Parse(types.DateLayout, date)
	if err != nil {
		r.logger.Warn("invalid date for dedup lookback", "date", date)
		return nil
	}

	var all []types.Signal
	for offset := 1; offset <= lookback; offset++ {
		prev := day.AddDate(0, 0, -offset).Format(types.DateLayout)
		var briefing struct {
			Signals []types.Signal `json:"signals"`
		}
		doc, err := r.FindBriefing(ctx, prev, func(d *Document) error {
			briefing.Signals = nil
			return d.Decode(&briefing)
		})
		if err != nil {
			continue
		}
		r.logger.Info("loaded previous signals", "date", prev, "count", len(briefing.Signals), "path", doc.Path)
		all = append(all, briefing.Signals...)
	}
	r.logger.Info("previous signals for dedup", "count", len(all), "days", lookback)
	return all
}

func (r *Reader) localPaths(date string) []string {
	if date == "latest" {
		return []string{processedPath(r.cfg.ProcessedDir, date)}
	}
	return []string{
		processedPath(r.cfg.ProcessedDir, date),
		archivePath(r.cfg.ArchiveDir, date),
		flatArchivePath(r.cfg.ArchiveDir, date),
	}
}
