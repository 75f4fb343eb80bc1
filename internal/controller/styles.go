package controller

import (
	"github.com/charmbracelet/lipgloss"

	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	mutedStyle = lipgloss.NewStyle().Faint(true)

	severityStyles = map[m.Severity]lipgloss.Style{
		m.SeverityCritical: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("160")),
		m.SeverityHigh:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("202")),
		m.SeverityMedium:   lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		m.SeverityLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	}
)

func severityBadge(s m.Severity) string {
	style, ok := severityStyles[s]
	if !ok {
		return string(s)
	}

	return style.Render(string(s))
}
