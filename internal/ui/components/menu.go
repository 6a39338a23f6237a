package components

import (
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tutor/internal/ui/theme"
)

// ButtonWidth is the fixed width of a rendered menu button.
const ButtonWidth = 26

// MenuItem is one entry of a Menu.
type MenuItem struct {
	Label string
	// Hint is shown under the buttons while the item is selected.
	Hint     string
	Action   func() tea.Cmd
	Disabled bool
}

// Menu is a vertical menu. Navigation wraps and skips disabled items;
// digits 1-9 activate the item at that position.
type Menu struct {
	Items    []MenuItem
	Selected int
}

// NewMenu selects the first enabled item.
func NewMenu(items []MenuItem) Menu {
	m := Menu{Items: items}
	if next, ok := m.step(-1, 1); ok {
		m.Selected = next
	}
	return m
}

func (m Menu) Init() tea.Cmd {
	return nil
}

// step walks from index from in direction dir and returns the next
// enabled item, wrapping at both ends.
func (m Menu) step(from, dir int) (int, bool) {
	n := len(m.Items)
	for i := 1; i <= n; i++ {
		idx := ((from+dir*i)%n + n) % n
		if !m.Items[idx].Disabled {
			return idx, true
		}
	}
	return 0, false
}

func (m Menu) activate(i int) tea.Cmd {
	if i < 0 || i >= len(m.Items) {
		return nil
	}
	item := m.Items[i]
	if item.Disabled || item.Action == nil {
		return nil
	}
	return item.Action()
}

func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || len(m.Items) == 0 {
		return m, nil
	}

	switch k := kmsg.String(); k {
	case "up", "k":
		if i, ok := m.step(m.Selected, -1); ok {
			m.Selected = i
		}
	case "down", "j", "tab":
		if i, ok := m.step(m.Selected, 1); ok {
			m.Selected = i
		}
	case "enter":
		return m, m.activate(m.Selected)
	default:
		if n, err := strconv.Atoi(k); err == nil && n >= 1 && n <= 9 && n <= len(m.Items) {
			if !m.Items[n-1].Disabled {
				m.Selected = n - 1
				return m, m.activate(n - 1)
			}
		}
	}
	return m, nil
}

// View renders a plain list.
func (m Menu) View() string {
	var b strings.Builder
	for i, item := range m.Items {
		switch {
		case item.Disabled:
			b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render("    " + item.Label))
		case i == m.Selected:
			b.WriteString(lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render("  ▸ " + item.Label))
		default:
			b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Render("    " + item.Label))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Buttons renders each item as a fixed-width button centred in width,
// followed by the selected item's hint.
func (m Menu) Buttons(width int) string {
	base := lipgloss.NewStyle().
		Width(ButtonWidth).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)
	selected := base.
		Bold(true).
		Foreground(theme.BgDark).
		Background(theme.Accent).
		BorderForeground(theme.Accent)
	normal := base.
		Foreground(theme.Text).
		BorderForeground(theme.Border)
	disabled := base.
		Foreground(theme.TextDim).
		BorderForeground(theme.BgCard)

	buttons := make([]string, 0, len(m.Items)+1)
	for i, item := range m.Items {
		switch {
		case item.Disabled:
			buttons = append(buttons, disabled.Render(item.Label))
		case i == m.Selected:
			buttons = append(buttons, selected.Render("▸ "+item.Label))
		default:
			buttons = append(buttons, normal.Render(item.Label))
		}
	}
	if m.Selected < len(m.Items) {
		if hint := m.Items[m.Selected].Hint; hint != "" {
			buttons = append(buttons, theme.Hint.Render(hint))
		}
	}

	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Render(strings.Join(buttons, "\n"))
}
