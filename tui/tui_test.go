package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compass/archive"
	"compass/tension"
	"compass/types"
)

func testBriefing() *types.Briefing {
	signals := []types.Signal{
		{ID: "a", Title: types.Plain("China halts canola imports"), Category: types.CategoryTrade,
			Severity: types.SeverityHigh, Source: types.Plain("Reuters"), Date: "2026-02-01"},
		{ID: "b", Title: types.Plain("Envoy summoned in Ottawa"), Category: types.CategoryDiplomatic,
			Severity: types.SeverityModerate},
	}
	ti := tension.Compute(signals, tension.Previous{}, tension.Config{CapDenominator: 20})
	return &types.Briefing{
		Date:         "2026-02-01",
		Volume:       12,
		GeneratedAt:  time.Date(2026, 2, 1, 6, 0, 0, 0, time.UTC),
		Signals:      signals,
		TensionIndex: &ti,
		ActiveSituations: []types.Situation{{
			ID:        "canola_trade_dispute",
			Name:      types.Bilingual("Canola Trade Dispute", "油菜籽贸易争端"),
			Detail:    types.Bilingual("1 related signal(s) detected today.", "今日检测到1条相关信号。"),
			Severity:  types.SeverityHigh,
			StartDate: "2019-03-01",
			DayCount:  2529,
			SignalIDs: []string{"a"},
		}},
		Entities: []types.EntityMention{},
	}
}

func press(t *testing.T, m Model, key tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(key)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func TestViewShowsTension(t *testing.T) {
	m := NewModel(testBriefing())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = next.(Model)

	view := m.View()
	assert.Contains(t, view, "2026-02-01")
	assert.Contains(t, view, "Vol. 12")
	assert.Contains(t, view, "Tension")
	assert.Contains(t, view, "Trade")
	assert.Contains(t, view, "Diplomatic")
	assert.Contains(t, view, "/10")
	assert.Contains(t, view, TextFooter)
}

func TestTabCyclesPanes(t *testing.T) {
	m := NewModel(testBriefing())
	assert.Equal(t, PaneTension, m.Pane)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, PaneSituations, m.Pane)
	assert.Contains(t, m.View(), "Canola Trade Dispute")
	assert.Contains(t, m.View(), "day 2529")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, PaneSignals, m.Pane)
	assert.Contains(t, m.View(), "China halts canola imports")
	assert.Contains(t, m.View(), "Reuters")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, PaneTension, m.Pane)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, PaneSignals, m.Pane)
}

func TestQuit(t *testing.T) {
	m := NewModel(testBriefing())
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyCtrlC},
	} {
		_, cmd := press(t, m, key)
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}

func TestEmptyBriefing(t *testing.T) {
	m := NewModel(&types.Briefing{Date: "2026-02-01", Volume: 1})
	assert.Contains(t, m.View(), TextNoTension)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Contains(t, m.View(), TextNoSituations)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Contains(t, m.View(), TextNoSignals)
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	cfg := archive.Config{ProcessedDir: filepath.Join(root, "processed"), ArchiveDir: filepath.Join(root, "archive")}
	_, err := archive.NewWriter(cfg).Write(context.Background(), testBriefing())
	require.NoError(t, err)
	r := archive.NewReader(cfg)

	b, err := Load(context.Background(), r, "2026-02-01")
	require.NoError(t, err)
	assert.Equal(t, 12, b.Volume)
	require.Len(t, b.ActiveSituations, 1)
	assert.Equal(t, "油菜籽贸易争端", b.ActiveSituations[0].Name.ZH)

	latest, err := Load(context.Background(), r, "")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-01", latest.Date)

	_, err = Load(context.Background(), r, "2025-01-01")
	assert.ErrorIs(t, err, archive.ErrNotFound)
}

func TestSeverityStyleRamp(t *testing.T) {
	seen := map[string]types.Severity{}
	for _, sev := range []types.Severity{
		types.SeverityLow, types.SeverityModerate, types.SeverityElevated, types.SeverityHigh, types.SeverityCritical,
	} {
		style := severityStyle(sev)
		key := styleColorKey(style)
		_, dup := seen[key]
		assert.False(t, dup, "severity %s shares a color", sev)
		seen[key] = sev
		assert.Equal(t, sev.Rank() >= types.SeverityHigh.Rank(), style.GetBold(), sev)
	}
	assert.Equal(t, styleColorKey(severityStyle(types.SeverityLow)), styleColorKey(severityStyle("unknown")))
}

func styleColorKey(s lipgloss.Style) string {
	return fmt.Sprintf("%v", s.GetForeground())
}
