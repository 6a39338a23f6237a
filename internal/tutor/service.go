// Package tutor is the outward face of the tutor core. It wires the corpus,
// retrieval, quiz and progress components together and turns their typed
// results into the answers, feedback and reports students see.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/tutor/internal/corpus"
	"github.com/abhisek/tutor/internal/llm"
	"github.com/abhisek/tutor/internal/logger"
	"github.com/abhisek/tutor/internal/progress"
	"github.com/abhisek/tutor/internal/quiz"
	"github.com/abhisek/tutor/internal/retrieval"
)

// ErrGenerationUnavailable wraps any failure of the text generation
// collaborator while answering a question.
var ErrGenerationUnavailable = errors.New("answer generation unavailable")

// ErrEmptyQuestion is returned by Ask for a blank question.
var ErrEmptyQuestion = errors.New("question is empty")

// Config tunes the orchestrator.
type Config struct {
	// TopK is the number of chunks used to ground an answer.
	TopK int

	AnswerMaxTokens int
	Temperature     float64
}

// DefaultConfig returns the standard settings.
func DefaultConfig() Config {
	return Config{TopK: retrieval.DefaultTopK, AnswerMaxTokens: 1024, Temperature: 0.3}
}

// Service implements ingest, ask, quiz and progress operations.
type Service struct {
	corpus    *corpus.Store
	retriever quiz.Retriever
	quizzes   *quiz.Engine
	tracker   *progress.Tracker
	provider  llm.Provider
	cfg       Config

	closers []func() error
}

// New creates a Service from its collaborators.
func New(cs *corpus.Store, r quiz.Retriever, q *quiz.Engine, t *progress.Tracker, p llm.Provider, cfg Config) *Service {
	def := DefaultConfig()
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	if cfg.AnswerMaxTokens <= 0 {
		cfg.AnswerMaxTokens = def.AnswerMaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = def.Temperature
	}
	return &Service{corpus: cs, retriever: r, quizzes: q, tracker: t, provider: p, cfg: cfg}
}

// Close releases resources held by collaborators, such as a local model.
func (s *Service) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// Corpus exposes the chunk store for status displays.
func (s *Service) Corpus() *corpus.Store { return s.corpus }

// IngestResult reports the outcome of an ingestion.
type IngestResult struct {
	Success    bool
	Message    string
	Version    string
	ChunkCount int
	Err        error
}

// IngestDocument replaces the corpus with a single text.
func (s *Service) IngestDocument(ctx context.Context, text string) IngestResult {
	return s.IngestDocuments(ctx, []corpus.Document{{Name: "document", Text: text}})
}

// IngestDocuments replaces the corpus with docs.
func (s *Service) IngestDocuments(ctx context.Context, docs []corpus.Document) IngestResult {
	version, err := s.corpus.IngestDocuments(ctx, docs)
	if err != nil {
		logger.Warn("ingest failed: %v", err)
		return IngestResult{Message: UserMessage(err), Err: err}
	}
	n := s.corpus.Len()
	return IngestResult{
		Success:    true,
		Message:    fmt.Sprintf("Ingested %d document(s) into %d chunks.", len(docs), n),
		Version:    version,
		ChunkCount: n,
	}
}

// Answer is a response to a free-form question.
type Answer struct {
	Text     string
	Sources  []retrieval.RankedChunk
	Grounded bool
}

const (
	noCorpusAnswer   = "No study material has been added yet. Ingest some documents first, then ask again."
	noEvidenceAnswer = "I could not find anything in your study material about this, so I can't answer it from your documents."
)

// Ask answers question using only retrieved material. Mastery is not
// touched.
func (s *Service) Ask(ctx context.Context, question, studentID string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if s.corpus.Len() == 0 {
		return &Answer{Text: noCorpusAnswer}, nil
	}

	ranked, err := s.retriever.Retrieve(ctx, question, s.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	if len(ranked) == 0 {
		return &Answer{Text: noEvidenceAnswer}, nil
	}

	logger.Debug("ask: %s asked %q, %d chunks", studentID, question, len(ranked))
	req := llm.UserRequest(answerSystemPrompt, buildAnswerMessage(question, retrieval.Context(ranked)),
		nil, s.cfg.AnswerMaxTokens, s.cfg.Temperature)
	resp, err := s.provider.Generate(llm.WithPurpose(ctx, llm.PurposeAnswer), req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationUnavailable, err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", ErrGenerationUnavailable)
	}
	return &Answer{Text: text, Sources: ranked, Grounded: true}, nil
}

// GenerateQuiz creates an adaptive quiz on topic.
func (s *Service) GenerateQuiz(ctx context.Context, topic, studentID string) (*quiz.Quiz, error) {
	return s.quizzes.Generate(ctx, topic, studentID)
}

// Feedback is the graded result with its natural-language message.
type Feedback struct {
	Result  *quiz.Result
	Message string
}

// SubmitQuiz grades a submission and describes the result. The score
// sentence is computed locally; the collaborator may only add a line of
// encouragement.
func (s *Service) SubmitQuiz(ctx context.Context, in quiz.GradeInput) (*Feedback, error) {
	res, err := s.quizzes.Grade(ctx, in)
	if err != nil {
		return nil, err
	}
	msg := ScoreMessage(res)
	if extra := s.encouragement(ctx, res); extra != "" {
		msg += " " + extra
	}
	return &Feedback{Result: res, Message: msg}, nil
}

// ScoreMessage is the deterministic summary sentence of a result.
func ScoreMessage(r *quiz.Result) string {
	return fmt.Sprintf("You scored %d out of %d (%d%%) on the %s quiz. Your progress profile has been updated.",
		r.Correct, r.Total, r.Percent(), r.Topic)
}

// ProgressView is a report plus its natural-language summary.
type ProgressView struct {
	Report  progress.Report
	Summary string
}

const (
	noProgressSummary       = "No quiz results yet. Take a quiz to start tracking your progress."
	fallbackProgressSummary = "Could not generate personalized recommendation."
)

// GetProgress returns the structured report for studentID. Numbers come
// from the tracker; the collaborator only phrases the summary.
func (s *Service) GetProgress(ctx context.Context, studentID string) (*ProgressView, error) {
	if strings.TrimSpace(studentID) == "" {
		return nil, progress.ErrInvalidKey
	}
	rep := s.tracker.Report(studentID)
	view := &ProgressView{Report: rep, Summary: noProgressSummary}
	if len(rep.Topics) > 0 {
		view.Summary = s.progressSummary(ctx, rep)
	}
	return view, nil
}

// ResetProgress forgets every mastery record of studentID.
func (s *Service) ResetProgress(ctx context.Context, studentID string) error {
	return s.tracker.Reset(ctx, studentID)
}
