package components

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tutor/internal/ui/theme"
)

// MultiChoice is a multiple-choice selector. The correct option is not
// known while the student is choosing; Reveal marks it after grading.
type MultiChoice struct {
	Question    string
	Options     []string
	Labels      []string
	Selected    int
	Chosen      int
	RevealIndex int
}

// NewMultiChoice creates a selector with nothing chosen yet. labels pairs
// with options; missing labels fall back to A, B, C...
func NewMultiChoice(question string, options, labels []string) MultiChoice {
	if len(labels) < len(options) {
		labels = make([]string, len(options))
		for i := range labels {
			labels[i] = string(rune('A' + i))
		}
	}
	return MultiChoice{
		Question:    question,
		Options:     options,
		Labels:      labels,
		Chosen:      -1,
		RevealIndex: -1,
	}
}

// Init returns nil.
func (m MultiChoice) Init() tea.Cmd {
	return nil
}

// Update handles keyboard navigation and selection. A letter key jumps to
// and chooses the matching option.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	if m.Revealed() {
		return m, nil
	}

	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Options)-1 {
			m.Selected++
		}
	case "enter", "space":
		m.Chosen = m.Selected
	default:
		for i, l := range m.Labels {
			if i < len(m.Options) && (key == l || key == lowerASCII(l)) {
				m.Selected = i
				m.Chosen = i
			}
		}
	}

	return m, nil
}

// Answered reports whether an option has been chosen.
func (m MultiChoice) Answered() bool {
	return m.Chosen >= 0
}

// ChosenLabel returns the label of the chosen option, or "" when unanswered.
func (m MultiChoice) ChosenLabel() string {
	if !m.Answered() {
		return ""
	}
	return m.Labels[m.Chosen]
}

// Reveal marks the correct option. Navigation is disabled afterwards.
func (m *MultiChoice) Reveal(correct int) {
	m.RevealIndex = correct
}

// Revealed reports whether the correct option has been shown.
func (m MultiChoice) Revealed() bool {
	return m.RevealIndex >= 0
}

// View renders the multiple-choice component.
func (m MultiChoice) View() string {
	questionStyle := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	s := questionStyle.Render(m.Question) + "\n\n"

	for i, opt := range m.Options {
		prefix := "  "
		if i == m.Selected && !m.Revealed() {
			prefix = "▸ "
		}
		mark := " "
		if i == m.Chosen {
			mark = "•"
		}

		line := fmt.Sprintf("%s%s %s)  %s", prefix, mark, m.Labels[i], opt)

		switch {
		case m.Revealed() && i == m.RevealIndex:
			s += lipgloss.NewStyle().Foreground(theme.Success).Bold(true).Render(line) + "\n"
		case m.Revealed() && i == m.Chosen:
			s += lipgloss.NewStyle().Foreground(theme.Error).Bold(true).Render(line) + "\n"
		case m.Revealed():
			s += lipgloss.NewStyle().Foreground(theme.TextDim).Render(line) + "\n"
		case i == m.Selected:
			s += lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(line) + "\n"
		case i == m.Chosen:
			s += lipgloss.NewStyle().Foreground(theme.Accent).Render(line) + "\n"
		default:
			s += lipgloss.NewStyle().Foreground(theme.Text).Render(line) + "\n"
		}
	}

	return s
}

// IsCorrect returns true if the revealed answer matches the chosen one.
func (m MultiChoice) IsCorrect() bool {
	return m.Revealed() && m.Chosen == m.RevealIndex
}

func lowerASCII(s string) string {
	if len(s) == 1 && s[0] >= 'A' && s[0] <= 'Z' {
		return string(s[0] + ('a' - 'A'))
	}
	return s
}
