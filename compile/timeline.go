package compile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"compass/types"
)

// TimelineID names the Canada-China relationship timeline.
const TimelineID = "canada-china"

// Timeline is the long-running record of notable events and daily tension.
type Timeline struct {
	ID           string            `json:"id"`
	Name         types.Text        `json:"name"`
	Description  types.Text        `json:"description"`
	DateRange    DateRange         `json:"date_range"`
	Events       []Event           `json:"events"`
	Periods      []json.RawMessage `json:"periods"`
	TensionTrend []TensionPoint    `json:"tension_trend"`
	Metadata     TimelineMetadata  `json:"metadata"`
}

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Event is a signal promoted onto the timeline.
type Event struct {
	ID                 string         `json:"id"`
	Date               string         `json:"date"`
	Title              types.Text     `json:"title"`
	Description        types.Text     `json:"description"`
	Category           types.Category `json:"category"`
	TimelineCategory   string         `json:"timeline_category,omitempty"`
	Severity           types.Severity `json:"severity"`
	IsMilestone        bool           `json:"is_milestone"`
	SourceSignalID     string         `json:"source_signal_id,omitempty"`
	SourceBriefingDate string         `json:"source_briefing_date"`
	Tags               []string       `json:"tags"`
}

type TensionPoint struct {
	Date  string  `json:"date"`
	Score float64 `json:"score"`
	Level string  `json:"level"`
}

type TimelineMetadata struct {
	GeneratedAt     string `json:"generated_at,omitempty"`
	SourceBriefings int    `json:"source_briefings"`
	TotalEvents     int    `json:"total_events"`
	TotalMilestones int    `json:"total_milestones"`
}

// NewTimeline returns an empty timeline with the given id.
func NewTimeline(id string) *Timeline {
	return &Timeline{
		ID:           id,
		Name:         types.Bilingual(id+" Timeline", id+"时间线"),
		Description:  types.Bilingual("", ""),
		Events:       []Event{},
		Periods:      []json.RawMessage{},
		TensionTrend: []TensionPoint{},
	}
}

// TimelinePath is where the Canada-China timeline is kept.
func (c *Compiler) TimelinePath() string {
	return filepath.Join(c.timelinesDir, TimelineID+".json")
}

func (c *Compiler) loadTimeline() (*Timeline, error) {
	data, err := os.ReadFile(c.TimelinePath())
	if errors.Is(err, os.ErrNotExist) {
		return NewTimeline(TimelineID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read timeline: %w", err)
	}
	tl := NewTimeline(TimelineID)
	if err := json.Unmarshal(data, tl); err != nil {
		return nil, fmt.Errorf("failed to decode timeline %s: %w", c.TimelinePath(), err)
	}
	return tl, nil
}

// Timeline merges the archived briefings dated within [start, end] into the
// stored timeline. Milestones and critical or high signals become events;
// events already on the timeline are kept as they are.
func (c *Compiler) Timeline(ctx context.Context, start, end string) (*Timeline, error) {
	for _, d := range []string{start, end} {
		if d == "" {
			continue
		}
		if _, err := parseDate(d); err != nil {
			return nil, err
		}
	}
	tl, err := c.loadTimeline()
	if err != nil {
		return nil, err
	}
	dates, briefings, err := c.loadRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	c.logger.Info("compiling timeline", "briefings", len(dates))

	seen := make(map[string]bool, len(tl.Events))
	for _, e := range tl.Events {
		seen[e.ID] = true
	}
	trendDates := make(map[string]bool, len(tl.TensionTrend))
	for _, p := range tl.TensionTrend {
		trendDates[p.Date] = true
	}

	added := 0
	for _, b := range briefings {
		if composite, ok := b.composite(); ok && !trendDates[b.Date] {
			tl.TensionTrend = append(tl.TensionTrend, TensionPoint{
				Date:  b.Date,
				Score: composite,
				Level: b.TensionIndex.Level.English(),
			})
			trendDates[b.Date] = true
		}
		for _, s := range b.Signals {
			if !s.IsMilestone && s.Severity != types.SeverityCritical && s.Severity != types.SeverityHigh {
				continue
			}
			e := toEvent(s, b.Date)
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			tl.Events = append(tl.Events, e)
			added++
		}
	}

	sort.SliceStable(tl.Events, func(i, j int) bool { return tl.Events[i].Date < tl.Events[j].Date })
	sort.SliceStable(tl.TensionTrend, func(i, j int) bool { return tl.TensionTrend[i].Date < tl.TensionTrend[j].Date })

	if len(dates) > 0 {
		if tl.DateRange.Start == "" {
			tl.DateRange.Start = dates[0]
		}
		tl.DateRange.End = dates[len(dates)-1]
	}

	milestones := 0
	for _, e := range tl.Events {
		if e.IsMilestone {
			milestones++
		}
	}
	tl.Metadata = TimelineMetadata{
		GeneratedAt:     c.now().UTC().Format(time.RFC3339),
		SourceBriefings: len(dates),
		TotalEvents:     len(tl.Events),
		TotalMilestones: milestones,
	}
	c.logger.Info("timeline updated", "new_events", added, "events", len(tl.Events), "tension_points", len(tl.TensionTrend))
	return tl, nil
}

// WriteTimeline stores tl under the timelines directory and mirrors it.
func (c *Compiler) WriteTimeline(ctx context.Context, tl *Timeline) ([]string, error) {
	data, err := encode(tl)
	if err != nil {
		return nil, fmt.Errorf("failed to encode timeline: %w", err)
	}
	name := tl.ID + ".json"
	return c.writer.Publish(ctx, filepath.Join(c.timelinesDir, name), "timelines/"+name, data)
}

func toEvent(s types.Signal, briefingDate string) Event {
	id := s.ID
	if id == "" {
		id = briefingDate + "-" + orUnknown(string(s.Category))
	}
	date := briefingDate
	if len(s.Date) >= 10 {
		date = s.Date[:10]
	}
	return Event{
		ID:                 id,
		Date:               date,
		Title:              s.Title.Pair(),
		Description:        s.Content().Pair(),
		Category:           s.Category,
		TimelineCategory:   s.TimelineCategory,
		Severity:           s.Severity,
		IsMilestone:        s.IsMilestone,
		SourceSignalID:     s.ID,
		SourceBriefingDate: briefingDate,
		Tags:               tags(s),
	}
}

func tags(s types.Signal) []string {
	out := []string{}
	if s.Category != "" {
		out = append(out, string(s.Category))
	}
	out = append(out, s.EntityIDs...)
	if s.Severity == types.SeverityCritical || s.Severity == types.SeverityHigh {
		out = append(out, "severity-"+string(s.Severity))
	}
	return out
}
