package compile

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compass/archive"
	"compass/logging"
	"compass/types"
)

func TestMain(m *testing.M) {
	logging.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type env struct {
	cfg      archive.Config
	compiler *Compiler
}

func newEnv(t *testing.T) *env {
	t.Helper()
	root := t.TempDir()
	cfg := archive.Config{
		ProcessedDir: filepath.Join(root, "processed"),
		ArchiveDir:   filepath.Join(root, "archive"),
	}
	c := New(cfg, filepath.Join(root, "timelines"))
	c.now = func() time.Time { return time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC) }
	return &env{cfg: cfg, compiler: c}
}

func signal(id string, cat types.Category, sev types.Severity) types.Signal {
	return types.Signal{
		ID:       id,
		Title:    types.Bilingual("Title "+id, "标题 "+id),
		Body:     types.Plain("Body " + id),
		Category: cat,
		Severity: sev,
	}
}

func (e *env) publish(t *testing.T, date string, composite float64, signals ...types.Signal) {
	t.Helper()
	b := &types.Briefing{
		Date:    date,
		Volume:  1,
		Signals: signals,
		TensionIndex: &types.TensionIndex{
			Composite: composite,
			Level:     types.Bilingual("Elevated", "升高"),
		},
	}
	_, err := archive.NewWriter(e.cfg).Write(context.Background(), b)
	require.NoError(t, err)
}

func TestMonthBefore(t *testing.T) {
	tests := []struct {
		ref, start, end string
	}{
		{"2026-03-01", "2026-02-01", "2026-02-28"},
		{"2026-03-31", "2026-02-01", "2026-02-28"},
		{"2024-03-15", "2024-02-01", "2024-02-29"},
		{"2026-01-10", "2025-12-01", "2025-12-31"},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			start, end, err := MonthBefore(tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}

	_, _, err := MonthBefore("March 2026")
	assert.Error(t, err)
}

func TestVolume(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.publish(t, "2026-01-31", 9, signal("jan", types.CategoryTrade, types.SeverityHigh))
	e.publish(t, "2026-02-02", 4.5,
		signal("a", types.CategoryTrade, types.SeverityHigh),
		signal("b", types.CategoryDiplomatic, types.SeverityLow),
	)
	e.publish(t, "2026-02-10", 5.25, signal("c", types.CategoryTrade, types.SeverityModerate))
	e.publish(t, "2026-03-01", 7, signal("mar", types.CategoryMilitary, types.SeverityCritical))

	v, err := e.compiler.Volume(ctx, "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, &Volume{
		VolumeNumber:  1,
		PeriodStart:   "2026-02-01",
		PeriodEnd:     "2026-02-28",
		BriefingCount: 2,
		SignalCount:   3,
		TensionTrend: []VolumePoint{
			{Date: "2026-02-02", Value: 4.5},
			{Date: "2026-02-10", Value: 5.25},
		},
		CategoryBreakdown: map[string]int{"trade": 2, "diplomatic": 1},
		SeverityBreakdown: map[string]int{"high": 1, "low": 1, "moderate": 1},
	}, v)

	paths, err := e.compiler.WriteVolume(ctx, v)
	require.NoError(t, err)
	assert.Equal(t, []string{archive.VolumePath(e.cfg.ArchiveDir, 1)}, paths)

	next, err := e.compiler.Volume(ctx, "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 2, next.VolumeNumber)

	_, err = e.compiler.Volume(ctx, "2026/03/01")
	assert.Error(t, err)
}

func TestVolumeEmptyMonth(t *testing.T) {
	e := newEnv(t)

	v, err := e.compiler.Volume(context.Background(), "2026-03-01")
	require.NoError(t, err)
	assert.Zero(t, v.BriefingCount)
	assert.NotNil(t, v.TensionTrend)
	assert.NotNil(t, v.CategoryBreakdown)

	data, err := encode(v)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tension_trend": []`)
}

func TestTimeline(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	milestone := signal("m1", types.CategoryDiplomatic, types.SeverityModerate)
	milestone.IsMilestone = true
	milestone.TimelineCategory = "agreement"
	milestone.Date = "2026-02-01T08:30:00Z"
	critical := signal("c1", types.CategoryMilitary, types.SeverityCritical)
	critical.EntityIDs = []string{"pla"}
	unnamed := signal("", types.CategoryTrade, types.SeverityHigh)
	low := signal("l1", types.CategoryTrade, types.SeverityLow)

	e.publish(t, "2026-02-02", 4.5, milestone, low)
	e.publish(t, "2026-02-03", 6, critical, unnamed)

	tl, err := e.compiler.Timeline(ctx, "", "")
	require.NoError(t, err)

	require.Len(t, tl.Events, 3)
	first := tl.Events[0]
	assert.Equal(t, "m1", first.ID)
	assert.Equal(t, "2026-02-01", first.Date)
	assert.Equal(t, "2026-02-02", first.SourceBriefingDate)
	assert.Equal(t, "agreement", first.TimelineCategory)
	assert.True(t, first.IsMilestone)
	assert.Equal(t, types.Bilingual("Body m1", "Body m1"), first.Description)
	assert.Equal(t, []string{"diplomatic"}, first.Tags)

	byID := map[string]Event{}
	for _, ev := range tl.Events {
		byID[ev.ID] = ev
	}
	assert.Equal(t, []string{"military", "pla", "severity-critical"}, byID["c1"].Tags)
	assert.Equal(t, "2026-02-03", byID["c1"].Date)
	assert.Contains(t, byID, "2026-02-03-trade")
	assert.Empty(t, byID["2026-02-03-trade"].SourceSignalID)
	assert.NotContains(t, byID, "l1")

	assert.Equal(t, []TensionPoint{
		{Date: "2026-02-02", Score: 4.5, Level: "Elevated"},
		{Date: "2026-02-03", Score: 6, Level: "Elevated"},
	}, tl.TensionTrend)
	assert.Equal(t, DateRange{Start: "2026-02-02", End: "2026-02-03"}, tl.DateRange)
	assert.Equal(t, TimelineMetadata{
		GeneratedAt:     "2026-03-01T06:00:00Z",
		SourceBriefings: 2,
		TotalEvents:     3,
		TotalMilestones: 1,
	}, tl.Metadata)
	assert.Equal(t, types.Bilingual("canada-china Timeline", "canada-china时间线"), tl.Name)

	paths, err := e.compiler.WriteTimeline(ctx, tl)
	require.NoError(t, err)
	assert.Equal(t, []string{e.compiler.TimelinePath()}, paths)

	t.Run("merges into stored timeline", func(t *testing.T) {
		e.publish(t, "2026-02-04", 7, signal("c2", types.CategoryMilitary, types.SeverityHigh))

		again, err := e.compiler.Timeline(ctx, "2026-02-03", "")
		require.NoError(t, err)
		assert.Len(t, again.Events, 4)
		assert.Len(t, again.TensionTrend, 3)
		assert.Equal(t, DateRange{Start: "2026-02-02", End: "2026-02-04"}, again.DateRange)
		assert.Equal(t, 2, again.Metadata.SourceBriefings)
		assert.Equal(t, "c2", again.Events[3].ID)
	})

	t.Run("end bound", func(t *testing.T) {
		require.NoError(t, os.Remove(e.compiler.TimelinePath()))
		bounded, err := e.compiler.Timeline(ctx, "", "2026-02-02")
		require.NoError(t, err)
		assert.Len(t, bounded.Events, 1)
		assert.Equal(t, "2026-02-02", bounded.DateRange.End)
	})

	t.Run("invalid bound", func(t *testing.T) {
		_, err := e.compiler.Timeline(ctx, "Feb 2", "")
		assert.Error(t, err)
	})
}

func TestTimelineRejectsCorruptFile(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(e.compiler.TimelinePath()), 0o755))
	require.NoError(t, os.WriteFile(e.compiler.TimelinePath(), []byte("{"), 0o644))

	_, err := e.compiler.Timeline(context.Background(), "", "")
	assert.Error(t, err)
}

func TestMarkMilestone(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.publish(t, "2026-02-02", 4.5, signal("a", types.CategoryTrade, types.SeverityLow))
	e.publish(t, "2026-02-03", 5, signal("b", types.CategoryDiplomatic, types.SeverityLow))

	date, err := e.compiler.MarkMilestone(ctx, "a", "sanction")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-02", date)

	data, err := os.ReadFile(filepath.Join(e.cfg.ArchiveDir, "daily", "2026-02-02", "briefing.json"))
	require.NoError(t, err)
	var b types.Briefing
	require.NoError(t, json.Unmarshal(data, &b))
	require.Len(t, b.Signals, 1)
	assert.True(t, b.Signals[0].IsMilestone)
	assert.Equal(t, "sanction", b.Signals[0].TimelineCategory)
	assert.Equal(t, 4.5, b.TensionIndex.Composite)

	latest, err := os.ReadFile(filepath.Join(e.cfg.ProcessedDir, "latest", "briefing.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(latest), `"is_milestone"`)

	tl, err := e.compiler.Timeline(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, tl.Events, 1)
	assert.Equal(t, "a", tl.Events[0].ID)
	assert.Equal(t, 1, tl.Metadata.TotalMilestones)

	t.Run("without category", func(t *testing.T) {
		_, err := e.compiler.MarkMilestone(ctx, "b", "")
		require.NoError(t, err)
	})

	t.Run("unknown signal", func(t *testing.T) {
		_, err := e.compiler.MarkMilestone(ctx, "zzz", "")
		assert.ErrorIs(t, err, ErrSignalNotFound)
	})

	t.Run("invalid category", func(t *testing.T) {
		_, err := e.compiler.MarkMilestone(ctx, "a", "skirmish")
		assert.ErrorIs(t, err, ErrInvalidTimelineCategory)
	})
}
