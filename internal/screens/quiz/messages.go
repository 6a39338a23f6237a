package quiz

import (
	"time"

	qz "github.com/abhisek/tutor/internal/quiz"
	"github.com/abhisek/tutor/internal/tutor"
)

// quizReadyMsg is sent when generation finishes.
type quizReadyMsg struct {
	Quiz *qz.Quiz
	Err  error
}

// gradedMsg is sent when the submission has been graded.
type gradedMsg struct {
	Feedback *tutor.Feedback
	Err      error
}

// spinnerTickMsg animates the waiting indicator.
type spinnerTickMsg time.Time
