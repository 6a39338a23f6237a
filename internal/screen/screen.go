// Package screen defines what the play TUI's router stacks: a screen owns a
// region between the header and footer and may opt into extra behaviour.
package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/tutor/internal/ui/layout"
)

// Screen is one page of the tutor UI.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the area between header and footer.
	View(width, height int) string

	// Title is shown in the header.
	Title() string
}

// KeyHintProvider is implemented by screens with their own footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// Refresher is implemented by screens that show tutor state which can
// change while another screen is on top, such as mastery after a quiz.
// The app calls Refresh when the screen becomes active again.
type Refresher interface {
	Refresh() tea.Cmd
}
