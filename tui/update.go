package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model interface
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}
	return m, nil
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width, m.height = msg.Width, msg.Height
	m.viewport.Width = msg.Width
	m.viewport.Height = max(msg.Height-headerHeight-2, 3)
	m.bar.Width = max(msg.Width/4, 10)
	m.ready = true
	m.viewport.SetContent(m.paneContent())
	return m, nil
}

// handleKeyPress processes keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "tab":
		m.Pane = (m.Pane + 1) % paneCount
		m.viewport.SetContent(m.paneContent())
		m.viewport.GotoTop()
		return m, nil
	case "shift+tab":
		m.Pane = (m.Pane + paneCount - 1) % paneCount
		m.viewport.SetContent(m.paneContent())
		m.viewport.GotoTop()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}
