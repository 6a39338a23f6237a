package quiz

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"

	qz "github.com/abhisek/tutor/internal/quiz"
	"github.com/abhisek/tutor/internal/router"
	"github.com/abhisek/tutor/internal/screen"
	"github.com/abhisek/tutor/internal/tutor"
	"github.com/abhisek/tutor/internal/ui/components"
	"github.com/abhisek/tutor/internal/ui/layout"
)

// Backend generates and grades quizzes. *tutor.Service satisfies it.
type Backend interface {
	GenerateQuiz(ctx context.Context, topic, studentID string) (*qz.Quiz, error)
	SubmitQuiz(ctx context.Context, in qz.GradeInput) (*tutor.Feedback, error)
}

type phase int

const (
	phaseTopic phase = iota
	phaseGenerating
	phaseAnswering
	phaseSubmitting
	phaseResult
	phaseError
)

const spinnerInterval = 120 * time.Millisecond

// QuizScreen runs one quiz from topic entry to graded result.
type QuizScreen struct {
	backend   Backend
	studentID string
	topic     string

	phase    phase
	input    components.TextInput
	quiz     *qz.Quiz
	choices  []components.MultiChoice
	current  int
	feedback *tutor.Feedback
	errMsg   string
	spinner  int
}

var _ screen.Screen = (*QuizScreen)(nil)
var _ screen.KeyHintProvider = (*QuizScreen)(nil)

// New creates a quiz screen. An empty topic asks the student for one first.
func New(backend Backend, studentID, topic string) *QuizScreen {
	s := &QuizScreen{
		backend:   backend,
		studentID: studentID,
		topic:     topic,
		input:     components.NewTextInput("Topic, e.g. photosynthesis", 60),
	}
	if topic == "" {
		s.phase = phaseTopic
	} else {
		s.phase = phaseGenerating
	}
	return s
}

func (s *QuizScreen) Init() tea.Cmd {
	if s.phase == phaseTopic {
		return s.input.Init()
	}
	return tea.Batch(s.generate(), spinnerTick())
}

func (s *QuizScreen) Title() string {
	if s.topic == "" {
		return "Quiz"
	}
	return "Quiz: " + s.topic
}

func (s *QuizScreen) KeyHints() []layout.KeyHint {
	switch s.phase {
	case phaseTopic:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Start"},
			{Key: "Esc", Description: "Back"},
		}
	case phaseAnswering:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Move"},
			{Key: "A-D/Enter", Description: "Choose"},
			{Key: "←→", Description: "Question"},
			{Key: "S", Description: "Submit"},
		}
	case phaseResult:
		return []layout.KeyHint{
			{Key: "←→", Description: "Review"},
			{Key: "N", Description: "New quiz"},
			{Key: "Esc", Description: "Back"},
		}
	}
	return []layout.KeyHint{{Key: "Esc", Description: "Back"}}
}

func (s *QuizScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case quizReadyMsg:
		return s.handleQuizReady(msg)
	case gradedMsg:
		return s.handleGraded(msg)
	case spinnerTickMsg:
		if s.phase == phaseGenerating || s.phase == phaseSubmitting {
			s.spinner++
			return s, spinnerTick()
		}
		return s, nil
	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.phase == phaseTopic {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *QuizScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()
	switch s.phase {
	case phaseTopic:
		if key == "enter" {
			topic := s.input.Value()
			if topic == "" {
				return s, nil
			}
			s.topic = topic
			s.phase = phaseGenerating
			return s, tea.Batch(s.generate(), spinnerTick())
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd

	case phaseAnswering:
		switch key {
		case "left", "h":
			if s.current > 0 {
				s.current--
			}
			return s, nil
		case "right", "l", "tab":
			if s.current < len(s.choices)-1 {
				s.current++
			}
			return s, nil
		case "s", "S":
			return s.submit()
		}
		before := s.choices[s.current].Answered()
		s.choices[s.current], _ = s.choices[s.current].Update(msg)
		// First answer on a question moves on to the next one.
		if !before && s.choices[s.current].Answered() && s.current < len(s.choices)-1 {
			s.current++
		}
		return s, nil

	case phaseResult:
		switch key {
		case "left", "h":
			if s.current > 0 {
				s.current--
			}
		case "right", "l", "tab":
			if s.current < len(s.choices)-1 {
				s.current++
			}
		case "n", "N":
			next := New(s.backend, s.studentID, s.topic)
			return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
		case "enter":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
		return s, nil

	case phaseError:
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}
	return s, nil
}

func (s *QuizScreen) handleQuizReady(msg quizReadyMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.phase = phaseError
		s.errMsg = tutor.UserMessage(msg.Err)
		return s, nil
	}
	s.quiz = msg.Quiz
	s.choices = make([]components.MultiChoice, len(msg.Quiz.Questions))
	for i, q := range msg.Quiz.Questions {
		labels := make([]string, len(q.Options))
		for j := range labels {
			labels[j] = qz.OptionLabel(j)
		}
		s.choices[i] = components.NewMultiChoice(q.Prompt, q.Options, labels)
	}
	s.current = 0
	s.phase = phaseAnswering
	return s, nil
}

func (s *QuizScreen) submit() (screen.Screen, tea.Cmd) {
	in := qz.GradeInput{
		QuizID:    s.quiz.ID,
		StudentID: s.studentID,
		Topic:     s.quiz.Topic,
	}
	for i, q := range s.quiz.Questions {
		if !s.choices[i].Answered() {
			continue
		}
		in.Submissions = append(in.Submissions, qz.Submission{
			QuestionID:    q.ID,
			StudentAnswer: s.choices[i].ChosenLabel(),
		})
	}
	s.phase = phaseSubmitting
	backend := s.backend
	return s, tea.Batch(func() tea.Msg {
		fb, err := backend.SubmitQuiz(context.Background(), in)
		return gradedMsg{Feedback: fb, Err: err}
	}, spinnerTick())
}

func (s *QuizScreen) handleGraded(msg gradedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.phase = phaseError
		s.errMsg = tutor.UserMessage(msg.Err)
		return s, nil
	}
	s.feedback = msg.Feedback
	for i, item := range msg.Feedback.Result.Items {
		if i < len(s.choices) {
			s.choices[i].Reveal(qz.LabelIndex(item.CorrectAnswer))
		}
	}
	s.current = 0
	s.phase = phaseResult
	return s, nil
}

func (s *QuizScreen) generate() tea.Cmd {
	backend, topic, student := s.backend, s.topic, s.studentID
	return func() tea.Msg {
		q, err := backend.GenerateQuiz(context.Background(), topic, student)
		return quizReadyMsg{Quiz: q, Err: err}
	}
}

func spinnerTick() tea.Cmd {
	return tea.Tick(spinnerInterval, func(t time.Time) tea.Msg {
		return spinnerTickMsg(t)
	})
}
