// Package tui is a read-only terminal viewer for one briefing.
package tui

import (
	"context"
	"fmt"

	"compass/archive"
	"compass/types"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Pane selects what the scrollable body shows
type Pane int

const (
	PaneTension Pane = iota
	PaneSituations
	PaneSignals
	paneCount
)

func (p Pane) String() string {
	switch p {
	case PaneTension:
		return "Tension"
	case PaneSituations:
		return "Situations"
	case PaneSignals:
		return "Signals"
	default:
		return ""
	}
}

// headerHeight is the number of lines above the viewport.
const headerHeight = 7

// Model is the viewer state
type Model struct {
	Briefing *types.Briefing
	Pane     Pane

	width    int
	height   int
	ready    bool
	viewport viewport.Model
	bar      progress.Model
}

// NewModel creates a viewer over b
func NewModel(b *types.Briefing) Model {
	m := Model{
		Briefing: b,
		Pane:     PaneTension,
		bar: progress.New(
			progress.WithGradient(colorSuccess, colorError),
			progress.WithoutPercentage(),
			progress.WithWidth(20),
		),
		viewport: viewport.New(80, 20),
	}
	m.viewport.SetContent(m.paneContent())
	return m
}

// Init implements tea.Model interface
func (m Model) Init() tea.Cmd {
	return nil
}

// Load reads the briefing for date, or the latest one when date is empty.
func Load(ctx context.Context, r *archive.Reader, date string) (*types.Briefing, error) {
	var (
		doc *archive.Document
		err error
	)
	if date == "" {
		doc, err = r.LoadLatest(ctx)
	} else {
		doc, err = r.LoadBriefing(ctx, date)
	}
	if err != nil {
		return nil, err
	}
	var b types.Briefing
	if err := doc.Decode(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Run starts the viewer on the terminal and blocks until it quits.
func Run(b *types.Briefing) error {
	p := tea.NewProgram(NewModel(b), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run viewer: %w", err)
	}
	return nil
}
