package tui

import (
	"fmt"
	"strings"

	"compass/types"
)

// View implements tea.Model interface
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.header())
	b.WriteString("\n")
	b.WriteString(m.tabs())
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(InfoStyle.Render(TextFooter))

	return b.String()
}

func (m Model) header() string {
	br := m.Briefing
	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("%s · %s · Vol. %d", TextTitle, br.Date, br.Volume)))
	b.WriteString("\n")

	ti := br.TensionIndex
	if ti == nil {
		b.WriteString(InfoStyle.Render(TextNoTension))
		b.WriteString("\n\n")
		return b.String()
	}
	b.WriteString(HighlightStyle.Render(fmt.Sprintf("Tension %.1f / 10", ti.Composite)))
	b.WriteString(" ")
	b.WriteString(levelText(ti.Level))
	b.WriteString("\n")
	b.WriteString(InfoStyle.Render(fmt.Sprintf("%+.1f  %s", ti.Delta, ti.DeltaDescription.String())))
	b.WriteString("\n")
	if d := br.Dedup; d != nil {
		b.WriteString(InfoStyle.Render(fmt.Sprintf("%d signals (%d duplicates removed)", d.TotalAfter, d.TotalDropped())))
	} else {
		b.WriteString(InfoStyle.Render(fmt.Sprintf("%d signals", len(br.Signals))))
	}
	b.WriteString("\n")
	return b.String()
}

func levelText(level types.Text) string {
	s := level.English()
	if level.IsBilingual() && level.ZH != "" {
		s += " " + level.ZH
	}
	return StatusStyle.Render(s)
}

func (m Model) tabs() string {
	parts := make([]string, 0, paneCount)
	for p := PaneTension; p < paneCount; p++ {
		label := p.String()
		if p == m.Pane {
			parts = append(parts, HighlightStyle.Render(label))
		} else {
			parts = append(parts, TabStyle.Render(label))
		}
	}
	return strings.Join(parts, " ")
}

// paneContent renders the body of the selected pane.
func (m Model) paneContent() string {
	switch m.Pane {
	case PaneSituations:
		return m.situationsContent()
	case PaneSignals:
		return m.signalsContent()
	default:
		return m.tensionContent()
	}
}

func (m Model) tensionContent() string {
	ti := m.Briefing.TensionIndex
	if ti == nil {
		return InfoStyle.Render(TextNoTension)
	}
	var b strings.Builder
	for _, c := range ti.Components {
		fmt.Fprintf(&b, "%-12s %s %2d/10 %s",
			c.Name.English(), m.bar.ViewAs(float64(c.Score)/10), c.Score, trendArrow(c.Trend))
		if driver := c.KeyDriver.String(); driver != "" {
			b.WriteString("  ")
			b.WriteString(InfoStyle.Render(driver))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) situationsContent() string {
	if len(m.Briefing.ActiveSituations) == 0 {
		return InfoStyle.Render(TextNoSituations)
	}
	var b strings.Builder
	for _, s := range m.Briefing.ActiveSituations {
		label := severityStyle(s.Severity).Render(strings.ToUpper(string(s.Severity)))
		fmt.Fprintf(&b, "%s %s  day %d\n", label, s.Name.English(), s.DayCount)
		if detail := s.Detail.String(); detail != "" {
			b.WriteString("   ")
			b.WriteString(InfoStyle.Render(detail))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) signalsContent() string {
	if len(m.Briefing.Signals) == 0 {
		return InfoStyle.Render(TextNoSignals)
	}
	var b strings.Builder
	for i, s := range m.Briefing.Signals {
		label := severityStyle(s.Severity).Render(fmt.Sprintf("%-8s", s.Severity))
		fmt.Fprintf(&b, "%3d. %s [%s] %s\n", i+1, label, s.Category, s.Title.String())
		meta := []string{}
		if src := s.Source.String(); src != "" {
			meta = append(meta, src)
		}
		if s.Date != "" {
			meta = append(meta, s.Date)
		}
		if len(meta) > 0 {
			b.WriteString("     ")
			b.WriteString(InfoStyle.Render(strings.Join(meta, " · ")))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func trendArrow(t types.Trend) string {
	switch t {
	case types.TrendUp:
		return ErrorStyle.Render("▲")
	case types.TrendDown:
		return StatusStyle.Render("▼")
	default:
		return InfoStyle.Render("▬")
	}
}
