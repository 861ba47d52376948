package compile

import (
	"context"
	"fmt"

	"compass/types"
)

// Volume is the monthly roll-up of daily briefings.
type Volume struct {
	VolumeNumber      int            `json:"volume_number"`
	PeriodStart       string         `json:"period_start"`
	PeriodEnd         string         `json:"period_end"`
	BriefingCount     int            `json:"briefing_count"`
	SignalCount       int            `json:"signal_count"`
	TensionTrend      []VolumePoint  `json:"tension_trend"`
	CategoryBreakdown map[string]int `json:"category_breakdown"`
	SeverityBreakdown map[string]int `json:"severity_breakdown"`
}

// VolumePoint is one day's composite tension.
type VolumePoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// MonthBefore returns the first and last day of the calendar month before
// the one containing ref.
func MonthBefore(ref string) (string, string, error) {
	t, err := parseDate(ref)
	if err != nil {
		return "", "", err
	}
	first := t.AddDate(0, 0, 1-t.Day())
	last := first.AddDate(0, 0, -1)
	start := last.AddDate(0, 0, 1-last.Day())
	return start.Format(types.DateLayout), last.Format(types.DateLayout), nil
}

// Volume aggregates the month before ref into the next monthly volume.
func (c *Compiler) Volume(ctx context.Context, ref string) (*Volume, error) {
	start, end, err := MonthBefore(ref)
	if err != nil {
		return nil, err
	}
	_, briefings, err := c.loadRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	v := &Volume{
		VolumeNumber:      c.reader.NextMonthlyVolume(ctx),
		PeriodStart:       start,
		PeriodEnd:         end,
		BriefingCount:     len(briefings),
		TensionTrend:      []VolumePoint{},
		CategoryBreakdown: map[string]int{},
		SeverityBreakdown: map[string]int{},
	}
	for _, b := range briefings {
		v.SignalCount += len(b.Signals)
		for _, s := range b.Signals {
			v.CategoryBreakdown[orUnknown(string(s.Category))]++
			v.SeverityBreakdown[orUnknown(string(s.Severity))]++
		}
		if composite, ok := b.composite(); ok {
			v.TensionTrend = append(v.TensionTrend, VolumePoint{Date: b.Date, Value: composite})
		}
	}
	c.logger.Info("compiled volume", "volume", v.VolumeNumber, "start", start, "end", end,
		"briefings", v.BriefingCount, "signals", v.SignalCount)
	return v, nil
}

// WriteVolume stores v under archive/volumes and mirrors it.
func (c *Compiler) WriteVolume(ctx context.Context, v *Volume) ([]string, error) {
	data, err := encode(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode volume: %w", err)
	}
	return c.writer.WriteVolume(ctx, v.VolumeNumber, data)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
