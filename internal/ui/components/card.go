package components

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/tutor/internal/ui/theme"
)

// ContentWidth returns the inner width shared by stacked cards so they line up.
func ContentWidth(frameWidth int) int {
	w := frameWidth - 6
	if w > 72 {
		w = 72
	}
	if w < 20 {
		w = 20
	}
	return w
}

// Card wraps content in a rounded card whose text area is cw wide.
func Card(content string, cw int) string {
	// Style width covers the border (2) and horizontal padding (4).
	return theme.Card.
		Width(cw + 6).
		Render(content)
}

// Centered places a block horizontally in the middle of width.
func Centered(block string, width int) string {
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, block)
}

// Notice renders a single centered status line, used for loading and error
// states.
func Notice(text string, c color.Color, width int) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(c).
		Render("\n\n\n" + text)
}
