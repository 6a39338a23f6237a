package progress

import (
	"context"
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	pg "github.com/abhisek/tutor/internal/progress"
	"github.com/abhisek/tutor/internal/screen"
	"github.com/abhisek/tutor/internal/tutor"
	"github.com/abhisek/tutor/internal/ui/components"
	"github.com/abhisek/tutor/internal/ui/layout"
	"github.com/abhisek/tutor/internal/ui/theme"
)

// Source supplies a student's progress report.
type Source interface {
	GetProgress(ctx context.Context, studentID string) (*tutor.ProgressView, error)
}

type loadedMsg struct {
	View *tutor.ProgressView
	Err  error
}

// ProgressScreen shows per-topic accuracy bars and the recommendation.
type ProgressScreen struct {
	source    Source
	studentID string
	view      *tutor.ProgressView
	errMsg    string
}

var _ screen.Screen = (*ProgressScreen)(nil)
var _ screen.KeyHintProvider = (*ProgressScreen)(nil)

// New creates a progress screen for studentID.
func New(source Source, studentID string) *ProgressScreen {
	return &ProgressScreen{source: source, studentID: studentID}
}

func (s *ProgressScreen) Init() tea.Cmd {
	return s.load()
}

func (s *ProgressScreen) Title() string {
	return "Progress"
}

func (s *ProgressScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "R", Description: "Refresh"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *ProgressScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		s.view = msg.View
		s.errMsg = ""
		if msg.Err != nil {
			s.errMsg = tutor.UserMessage(msg.Err)
		}
	case tea.KeyMsg:
		if msg.String() == "r" {
			s.view = nil
			return s, s.load()
		}
	}
	return s, nil
}

func (s *ProgressScreen) load() tea.Cmd {
	source, student := s.source, s.studentID
	return func() tea.Msg {
		v, err := source.GetProgress(context.Background(), student)
		return loadedMsg{View: v, Err: err}
	}
}

func (s *ProgressScreen) View(width, height int) string {
	if s.errMsg != "" {
		return components.Notice("Error: "+s.errMsg, theme.Error, width)
	}
	if s.view == nil {
		return components.Notice("Loading progress...", theme.TextDim, width)
	}

	cw := components.ContentWidth(width)
	rep := s.view.Report

	var b strings.Builder
	if len(rep.Topics) > 0 {
		o := rep.Overall
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(fmt.Sprintf(
			"%d topics  ·  %d of %d correct (%.0f%%)", o.Topics, o.Correct, o.Total, o.Accuracy*100)))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf(
			"%d strong  ·  %d developing  ·  %d weak", o.Strong, o.Developing, o.Weak)))
		b.WriteString("\n\n")

		labelWidth := 0
		for _, tp := range rep.Topics {
			labelWidth = max(labelWidth, lipgloss.Width(tp.DisplayTopic))
		}
		labelWidth = min(labelWidth, cw/3)
		for _, tp := range rep.Topics {
			b.WriteString(topicLine(tp, labelWidth, cw-4))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Accent).Width(cw - 4).Render(rep.Recommendation.Message))
		b.WriteString("\n\n")
	}
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Width(cw - 4).Render(s.view.Summary))

	return "\n" + components.Centered(components.Card(b.String(), cw), width)
}

func topicLine(tp pg.TopicProgress, labelWidth, width int) string {
	label := lipgloss.NewStyle().Width(labelWidth).MaxWidth(labelWidth).Render(tp.DisplayTopic)
	tag := fmt.Sprintf("  %d/%d %s", tp.Correct, tp.Total, tp.Strength)
	bar := components.NewProgressBar("", tp.Accuracy, true, width-labelWidth-lipgloss.Width(tag)-2)
	bar.Color = strengthColor(tp.Strength)
	return label + "  " + bar.View() + lipgloss.NewStyle().Foreground(strengthColor(tp.Strength)).Render(tag)
}

func strengthColor(st pg.Strength) color.Color {
	switch st {
	case pg.StrengthStrong:
		return theme.Success
	case pg.StrengthWeak:
		return theme.Error
	default:
		return theme.Warning
	}
}
