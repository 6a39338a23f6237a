package quiz

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/tutor/internal/ui/components"
	"github.com/abhisek/tutor/internal/ui/theme"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (s *QuizScreen) View(width, height int) string {
	switch s.phase {
	case phaseTopic:
		return s.renderTopic(width)
	case phaseGenerating:
		return components.Notice(s.spin()+" Writing a quiz on "+s.topic+"...", theme.TextDim, width)
	case phaseSubmitting:
		return components.Notice(s.spin()+" Grading your answers...", theme.TextDim, width)
	case phaseError:
		return components.Notice("Error: "+s.errMsg+"\n\nPress any key to go back.", theme.Error, width)
	case phaseResult:
		return s.renderResult(width)
	}
	return s.renderQuestion(width)
}

func (s *QuizScreen) spin() string {
	return spinnerFrames[s.spinner%len(spinnerFrames)]
}

func (s *QuizScreen) renderTopic(width int) string {
	cw := components.ContentWidth(width)
	var b strings.Builder
	b.WriteString(theme.Title.Width(cw).Render("What should the quiz cover?"))
	b.WriteString("\n\n")
	b.WriteString(s.input.View())
	return "\n\n" + components.Centered(components.Card(b.String(), cw), width)
}

func (s *QuizScreen) renderQuestion(width int) string {
	cw := components.ContentWidth(width)
	var b strings.Builder

	answered := 0
	for _, c := range s.choices {
		if c.Answered() {
			answered++
		}
	}
	b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf(
		"Question %d of %d  ·  %s  ·  %d answered",
		s.current+1, len(s.choices), s.quiz.Difficulty, answered)))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Width(cw - 4).Render(s.choices[s.current].View()))

	if answered == len(s.choices) {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Accent).Render("All answered. Press S to submit."))
	}

	return "\n" + components.Centered(components.Card(b.String(), cw), width)
}

func (s *QuizScreen) renderResult(width int) string {
	cw := components.ContentWidth(width)
	res := s.feedback.Result

	scoreColor := theme.Success
	if res.Score < 0.5 {
		scoreColor = theme.Error
	}

	var head strings.Builder
	head.WriteString(lipgloss.NewStyle().Foreground(scoreColor).Bold(true).Render(
		fmt.Sprintf("%d / %d correct (%d%%)", res.Correct, res.Total, res.Percent())))
	head.WriteString("\n\n")
	head.WriteString(lipgloss.NewStyle().Width(cw - 4).Foreground(theme.Text).Render(s.feedback.Message))
	head.WriteString("\n\n")
	head.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf(
		"%s is now %s: %d of %d correct overall",
		res.Mastery.DisplayTopic, res.Mastery.Strength(), res.Mastery.Correct, res.Mastery.Total)))

	var review strings.Builder
	if len(s.choices) > 0 {
		review.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render(
			fmt.Sprintf("Review %d of %d", s.current+1, len(s.choices))))
		review.WriteString("\n\n")
		review.WriteString(lipgloss.NewStyle().Width(cw - 4).Render(s.choices[s.current].View()))
		if s.current < len(res.Items) {
			item := res.Items[s.current]
			if !item.Correct && item.Answer == "" {
				review.WriteString(theme.Incorrect.Render("Not answered"))
				review.WriteString("\n")
			}
			if item.Explanation != "" {
				review.WriteString("\n")
				review.WriteString(theme.Hint.Width(cw - 4).Render(item.Explanation))
			}
		}
	}

	return "\n" + components.Centered(components.Card(head.String(), cw), width) +
		"\n" + components.Centered(components.Card(review.String(), cw), width)
}
