package home

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/tutor/internal/router"
	"github.com/abhisek/tutor/internal/screen"
	"github.com/abhisek/tutor/internal/screens/ask"
	progressscreen "github.com/abhisek/tutor/internal/screens/progress"
	quizscreen "github.com/abhisek/tutor/internal/screens/quiz"
	"github.com/abhisek/tutor/internal/tutor"
	"github.com/abhisek/tutor/internal/ui/components"
)

// Backend is everything the interactive app needs from the tutor core.
// *tutor.Service satisfies it.
type Backend interface {
	quizscreen.Backend
	ask.Asker
	progressscreen.Source
}

type statsMsg struct {
	View *tutor.ProgressView
	Err  error
}

// HomeScreen is the main menu.
type HomeScreen struct {
	backend   Backend
	studentID string
	menu      components.Menu
	stats     *tutor.ProgressView
}

var (
	_ screen.Screen    = (*HomeScreen)(nil)
	_ screen.Refresher = (*HomeScreen)(nil)
)

// New creates the home screen. A non-empty topic adds a shortcut to quiz
// on it directly.
func New(backend Backend, studentID, topic string) *HomeScreen {
	h := &HomeScreen{backend: backend, studentID: studentID}

	var items []components.MenuItem
	if topic != "" {
		items = append(items, components.MenuItem{Label: "QUIZ: " + strings.ToUpper(topic), Hint: "Start a quiz on " + topic + " right away", Action: func() tea.Cmd {
			return push(quizscreen.New(backend, studentID, topic))
		}})
	}
	items = append(items,
		components.MenuItem{Label: "TAKE A QUIZ", Hint: "Pick a topic and answer multiple-choice questions", Action: func() tea.Cmd {
			return push(quizscreen.New(backend, studentID, ""))
		}},
		components.MenuItem{Label: "ASK A QUESTION", Hint: "Get an answer grounded in your documents", Action: func() tea.Cmd {
			return push(ask.New(backend, studentID))
		}},
		components.MenuItem{Label: "PROGRESS", Hint: "See mastery by topic", Action: func() tea.Cmd {
			return push(progressscreen.New(backend, studentID))
		}},
		components.MenuItem{Label: "QUIT", Hint: "Your progress is saved", Action: func() tea.Cmd {
			return tea.Quit
		}},
	)

	h.menu = components.NewMenu(items)
	return h
}

func push(s screen.Screen) tea.Cmd {
	return func() tea.Msg { return router.PushScreenMsg{Screen: s} }
}

func (h *HomeScreen) Init() tea.Cmd {
	return h.Refresh()
}

// Refresh reloads the stats card.
func (h *HomeScreen) Refresh() tea.Cmd {
	backend, student := h.backend, h.studentID
	return func() tea.Msg {
		v, err := backend.GetProgress(context.Background(), student)
		return statsMsg{View: v, Err: err}
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case statsMsg:
		if msg.Err == nil {
			h.stats = msg.View
		}
		return h, nil
	}
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	compact := height < 22

	sections := []string{
		renderTitle(cw, compact),
		renderStats(h.stats, cw),
		h.menu.Buttons(cw),
	}
	return components.Centered(strings.Join(sections, "\n\n"), width)
}

func (h *HomeScreen) Title() string {
	return "Home"
}
