package quiz

import (
	"strings"
	"time"

	"github.com/abhisek/tutor/internal/progress"
)

// Difficulty is the target difficulty of a generated quiz.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// DifficultyFor maps a topic strength to a quiz difficulty. A topic the
// student has never answered gets medium.
func DifficultyFor(s progress.Strength, known bool) Difficulty {
	if !known {
		return DifficultyMedium
	}
	switch s {
	case progress.StrengthWeak:
		return DifficultyEasy
	case progress.StrengthStrong:
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

// OptionCount is the number of options every question carries.
const OptionCount = 4

// OptionLabel returns the label for the i-th option: 0 -> "A".
func OptionLabel(i int) string {
	if i < 0 || i >= OptionCount {
		return ""
	}
	return string(rune('A' + i))
}

// LabelIndex returns the option index for a label, case-insensitively,
// or -1 if the label is not one of A-D.
func LabelIndex(label string) int {
	l := strings.ToUpper(strings.TrimSpace(label))
	if len(l) != 1 || l[0] < 'A' || l[0] >= 'A'+OptionCount {
		return -1
	}
	return int(l[0] - 'A')
}

// Question is one multiple-choice question.
type Question struct {
	ID            int // 1-based within its quiz
	Topic         string
	Prompt        string
	Options       []string
	CorrectAnswer string // option label, A-D
	Difficulty    Difficulty
	Explanation   string
}

// State is the lifecycle of a quiz instance.
type State string

const (
	StateIdle               State = "idle"
	StateGenerating         State = "generating"
	StateAwaitingSubmission State = "awaiting_submission"
	StateGraded             State = "graded"
)

// Quiz is a generated question set. The engine keeps the authoritative
// copy; callers only ever see it for display.
type Quiz struct {
	ID         string
	StudentID  string
	Topic      string
	Difficulty Difficulty
	Questions  []Question
	State      State
	CreatedAt  time.Time
	GradedAt   time.Time
}

// Clone returns a deep copy of q.
func (q *Quiz) Clone() *Quiz {
	if q == nil {
		return nil
	}
	c := *q
	c.Questions = make([]Question, len(q.Questions))
	for i, qq := range q.Questions {
		qq.Options = append([]string(nil), qq.Options...)
		c.Questions[i] = qq
	}
	return &c
}

// Submission is a student's answer to one question. CorrectAnswer may be
// supplied by clients but is never used for scoring.
type Submission struct {
	QuestionID    int
	StudentAnswer string // empty when unanswered
	CorrectAnswer string
}

// GradeInput identifies a quiz and carries the student's answers.
type GradeInput struct {
	QuizID      string
	StudentID   string
	Topic       string
	Submissions []Submission
}

// ItemResult is the outcome of one question.
type ItemResult struct {
	QuestionID    int
	Answer        string
	CorrectAnswer string
	Correct       bool
	Explanation   string
}

// Result is the graded outcome of a quiz.
type Result struct {
	QuizID     string
	StudentID  string
	Topic      string
	Difficulty Difficulty
	Correct    int
	Total      int
	Score      float64
	Items      []ItemResult

	// Mastery is the topic record after this quiz was applied.
	Mastery progress.Record
}

// Percent is Score rounded to a whole percentage.
func (r *Result) Percent() int {
	return int(r.Score*100 + 0.5)
}
