package tutor

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/tutor/internal/corpus"
	"github.com/abhisek/tutor/internal/llm"
	"github.com/abhisek/tutor/internal/progress"
	"github.com/abhisek/tutor/internal/quiz"
	"github.com/abhisek/tutor/internal/retrieval"
)

// UserMessage maps an error from any Service operation to a short message
// suitable for showing to a student.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		ingestErr   *corpus.IngestionError
		timeoutErr  *llm.ErrTimeout
		embedErr    *llm.ErrEmbeddingUnavailable
		rateErr     *llm.ErrRateLimit
		genErr      *quiz.QuizGenerationError
		validateErr *quiz.ValidationError
	)

	switch {
	case errors.Is(err, corpus.ErrEmptyDocument):
		return "The document contains no text to learn from."
	case errors.As(err, &ingestErr) && errors.As(err, &embedErr):
		return "Could not embed the document because the embedding service is unavailable. Your previous material is still available."
	case errors.As(err, &ingestErr):
		return fmt.Sprintf("Could not ingest the document (%s). Your previous material is still available.", ingestErr.Reason)
	case errors.Is(err, retrieval.ErrEmbeddingMismatch):
		return "Your study material was embedded with a different model. Ingest it again with the current settings."
	case errors.As(err, &timeoutErr):
		return "The tutor took too long to respond. Please try again."
	case errors.As(err, &embedErr):
		return "The embedding service is unavailable right now. Please try again shortly."
	case errors.As(err, &rateErr):
		return "The tutor is receiving too many requests. Please wait a moment and try again."
	case errors.As(err, &genErr):
		return fmt.Sprintf("Could not create a valid quiz on %q. Try another topic.", genErr.Topic)
	case errors.As(err, &validateErr):
		return fmt.Sprintf("That submission is not valid: %s.", validateErr.Message)
	case errors.Is(err, ErrEmptyQuestion):
		return "Please enter a question."
	case errors.Is(err, progress.ErrInvalidKey):
		return "A student id and topic are required."
	case errors.Is(err, ErrGenerationUnavailable), isProviderDown(err):
		return "The tutor is unavailable right now. Please try again shortly."
	case errors.Is(err, context.Canceled):
		return "The request was cancelled."
	default:
		return "Something went wrong. Run with --verbose for details."
	}
}

func isProviderDown(err error) bool {
	var down *llm.ErrProviderUnavailable
	return errors.As(err, &down)
}
