package ask

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tutor/internal/screen"
	"github.com/abhisek/tutor/internal/tutor"
	"github.com/abhisek/tutor/internal/ui/components"
	"github.com/abhisek/tutor/internal/ui/layout"
	"github.com/abhisek/tutor/internal/ui/theme"
)

// Asker answers questions from the study material.
type Asker interface {
	Ask(ctx context.Context, question, studentID string) (*tutor.Answer, error)
}

type answeredMsg struct {
	Question string
	Answer   *tutor.Answer
	Err      error
}

// maxSnippet bounds how much of each source chunk is shown.
const maxSnippet = 160

// AskScreen is a question box with the latest answer below it.
type AskScreen struct {
	asker     Asker
	studentID string
	input     components.TextInput
	pending   bool
	question  string
	answer    *tutor.Answer
	errMsg    string
}

var _ screen.Screen = (*AskScreen)(nil)
var _ screen.KeyHintProvider = (*AskScreen)(nil)

// New creates an ask screen for studentID.
func New(asker Asker, studentID string) *AskScreen {
	return &AskScreen{
		asker:     asker,
		studentID: studentID,
		input:     components.NewTextInput("Ask about your study material...", 500),
	}
}

func (s *AskScreen) Init() tea.Cmd {
	return s.input.Init()
}

func (s *AskScreen) Title() string {
	return "Ask"
}

func (s *AskScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Ask"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *AskScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case answeredMsg:
		s.pending = false
		s.question = msg.Question
		s.answer = msg.Answer
		s.errMsg = ""
		if msg.Err != nil {
			s.answer = nil
			s.errMsg = tutor.UserMessage(msg.Err)
		}
		return s, nil

	case tea.KeyMsg:
		if msg.String() == "enter" {
			q := s.input.Value()
			if q == "" || s.pending {
				return s, nil
			}
			s.pending = true
			s.input.Reset()
			asker, student := s.asker, s.studentID
			return s, func() tea.Msg {
				a, err := asker.Ask(context.Background(), q, student)
				return answeredMsg{Question: q, Answer: a, Err: err}
			}
		}
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *AskScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	text := lipgloss.NewStyle().Width(cw - 4)

	var top strings.Builder
	top.WriteString(theme.Title.Width(cw - 4).Render("Ask a question"))
	top.WriteString("\n\n")
	top.WriteString(s.input.View())

	out := "\n" + components.Centered(components.Card(top.String(), cw), width)

	var b strings.Builder
	switch {
	case s.pending:
		b.WriteString(theme.Hint.Render("Looking through your notes..."))
	case s.errMsg != "":
		b.WriteString(theme.Incorrect.Render("Error: " + s.errMsg))
	case s.answer != nil:
		b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render("Q: " + s.question))
		b.WriteString("\n\n")
		b.WriteString(text.Foreground(theme.Text).Render(s.answer.Text))
		if len(s.answer.Sources) > 0 {
			b.WriteString("\n\n")
			b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Bold(true).Render("Sources"))
			for _, src := range s.answer.Sources {
				b.WriteString("\n")
				b.WriteString(theme.Hint.Width(cw - 4).Render(fmt.Sprintf("[%.2f] %s", src.Score, snippet(src.Chunk.Text))))
			}
		}
	default:
		return out
	}
	return out + "\n" + components.Centered(components.Card(b.String(), cw), width)
}

func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= maxSnippet {
		return s
	}
	return string(r[:maxSnippet]) + "…"
}
