// Package compile rolls archived daily briefings up into monthly volumes and
// the long-running Canada-China timeline, and flags milestone signals.
package compile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"compass/archive"
	"compass/logging"
	"compass/types"

	"github.com/charmbracelet/log"
)

// ErrSignalNotFound is returned when no archived briefing holds the signal.
var ErrSignalNotFound = errors.New("signal not found in archive")

// ErrInvalidTimelineCategory is returned for a category outside
// TimelineCategories.
var ErrInvalidTimelineCategory = errors.New("invalid timeline category")

// TimelineCategories are the labels a milestone may carry.
var TimelineCategories = []string{
	"crisis", "escalation", "de-escalation", "agreement", "policy_shift",
	"leadership", "incident", "sanction", "negotiation",
}

// Compiler reads the archive and writes volumes and timelines next to it.
type Compiler struct {
	reader       *archive.Reader
	writer       *archive.Writer
	timelinesDir string
	now          func() time.Time
	logger       *log.Logger
}

// New creates a compiler over an archive. Timelines are written under
// timelinesDir.
func New(cfg archive.Config, timelinesDir string) *Compiler {
	return &Compiler{
		reader:       archive.NewReader(cfg),
		writer:       archive.NewWriter(cfg),
		timelinesDir: timelinesDir,
		now:          time.Now,
		logger:       logging.WithPrefix("compile"),
	}
}

// archived is the part of a stored briefing the compilers read.
type archived struct {
	Date         string         `json:"date"`
	Signals      []types.Signal `json:"signals"`
	TensionIndex *struct {
		Composite *float64   `json:"composite"`
		Level     types.Text `json:"level"`
	} `json:"tension_index"`
}

func (a *archived) composite() (float64, bool) {
	if a.TensionIndex == nil || a.TensionIndex.Composite == nil {
		return 0, false
	}
	return *a.TensionIndex.Composite, true
}

// load decodes the first readable copy of the briefing for date.
func (c *Compiler) load(ctx context.Context, date string) (*archived, error) {
	var b archived
	_, err := c.reader.FindBriefing(ctx, date, func(d *archive.Document) error {
		b = archived{}
		return d.Decode(&b)
	})
	if err != nil {
		return nil, err
	}
	if b.Date == "" {
		b.Date = date
	}
	return &b, nil
}

// loadRange loads every archived briefing dated within [start, end]. Empty
// bounds are open.
func (c *Compiler) loadRange(ctx context.Context, start, end string) ([]string, []*archived, error) {
	dates, err := c.reader.ArchivedDates(ctx)
	if err != nil {
		return nil, nil, err
	}
	var kept []string
	var out []*archived
	for _, d := range dates {
		if (start != "" && d < start) || (end != "" && d > end) {
			continue
		}
		kept = append(kept, d)
		b, err := c.load(ctx, d)
		if err != nil {
			c.logger.Warn("skipping archived briefing", "date", d, "err", err)
			continue
		}
		out = append(out, b)
	}
	return kept, out, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(types.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", s, err)
	}
	return t, nil
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
