package home

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/tutor/internal/tutor"
	"github.com/abhisek/tutor/internal/ui/theme"
)

const titleFull = ` ╔╦╗╦ ╦╔╦╗╔═╗╦═╗
  ║ ║ ║ ║ ║ ║╠╦╝
  ╩ ╚═╝ ╩ ╚═╝╩╚═`

const titleCompact = "T · U · T · O · R"

func renderTitle(cw int, compact bool) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	title := titleFull
	if compact {
		title = titleCompact
	}
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(style.Render(title))
}

// renderStats shows overall accuracy and what to study next.
func renderStats(v *tutor.ProgressView, cw int) string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)

	var lines []string
	switch {
	case v == nil:
		lines = append(lines, dim.Render("Loading progress..."))
	case len(v.Report.Topics) == 0:
		lines = append(lines, dim.Render("No quizzes taken yet."))
	default:
		o := v.Report.Overall
		lines = append(lines,
			fmt.Sprintf("%s  %s  %s",
				lipgloss.NewStyle().Foreground(theme.Success).Bold(true).Render(fmt.Sprintf("%d STRONG", o.Strong)),
				lipgloss.NewStyle().Foreground(theme.Warning).Bold(true).Render(fmt.Sprintf("%d DEVELOPING", o.Developing)),
				lipgloss.NewStyle().Foreground(theme.Error).Bold(true).Render(fmt.Sprintf("%d WEAK", o.Weak)),
			),
			dim.Render(v.Report.Recommendation.Message),
		)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Secondary).
		Width(cw).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}
