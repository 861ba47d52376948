package compile

import (
	"context"
	"fmt"
	"slices"

	"compass/archive"
	"compass/types"
)

// MarkMilestone flags the archived signal with id as a milestone, optionally
// tagging it with a timeline category, and rewrites every published copy of
// its briefing. It returns the date of that briefing.
func (c *Compiler) MarkMilestone(ctx context.Context, id, category string) (string, error) {
	if category != "" && !slices.Contains(TimelineCategories, category) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTimelineCategory, category)
	}
	dates, err := c.reader.ArchivedDates(ctx)
	if err != nil {
		return "", err
	}
	for _, date := range dates {
		var b types.Briefing
		if _, err := c.reader.FindBriefing(ctx, date, func(d *archive.Document) error {
			b = types.Briefing{}
			return d.Decode(&b)
		}); err != nil {
			c.logger.Warn("skipping archived briefing", "date", date, "err", err)
			continue
		}
		i := slices.IndexFunc(b.Signals, func(s types.Signal) bool { return s.ID == id })
		if i < 0 {
			continue
		}
		b.Signals[i].IsMilestone = true
		if category != "" {
			b.Signals[i].TimelineCategory = category
		}
		if b.Date == "" {
			b.Date = date
		}
		if _, err := c.writer.Update(ctx, &b); err != nil {
			return "", fmt.Errorf("failed to update briefing %s: %w", date, err)
		}
		c.logger.Info("marked milestone", "signal", id, "date", date, "category", category)
		return date, nil
	}
	c.logger.Warn("signal not found in archive", "signal", id)
	return "", fmt.Errorf("%w: %s", ErrSignalNotFound, id)
}
