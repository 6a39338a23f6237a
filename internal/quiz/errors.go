package quiz

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Sessions for unknown quiz ids.
var ErrNotFound = errors.New("quiz not found")

// ErrAlreadyGraded is returned by Sessions.MarkGraded when the quiz has
// already been graded.
var ErrAlreadyGraded = errors.New("quiz already graded")

// QuizGenerationError is returned when no valid question set could be
// produced within the attempt budget.
type QuizGenerationError struct {
	Topic    string
	Attempts int
	Err      error
}

func (e *QuizGenerationError) Error() string {
	return fmt.Sprintf("quiz generation for %q failed after %d attempt(s): %v", e.Topic, e.Attempts, e.Err)
}

func (e *QuizGenerationError) Unwrap() error { return e.Err }

// ValidationError reports a malformed submission.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid submission: " + e.Message
	}
	return fmt.Sprintf("invalid submission: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// InvalidQuestionError describes why a generated question was rejected.
type InvalidQuestionError struct {
	Validator string
	Question  int // 1-based position in the generated set, 0 for the whole set
	Message   string
}

func (e *InvalidQuestionError) Error() string {
	if e.Question == 0 {
		return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
	}
	return fmt.Sprintf("validator %q: question %d: %s", e.Validator, e.Question, e.Message)
}
