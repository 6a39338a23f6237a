// Package quiz generates multiple-choice quizzes at a difficulty matched to
// the student's mastery of the topic, and grades submissions against the
// retained question set.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/tutor/internal/llm"
	"github.com/abhisek/tutor/internal/logger"
	"github.com/abhisek/tutor/internal/progress"
	"github.com/abhisek/tutor/internal/retrieval"
	"github.com/abhisek/tutor/internal/store"
)

// Mastery is the slice of the progress tracker the engine needs.
type Mastery interface {
	StrengthOf(studentID, topic string) (progress.Strength, bool)
	RecordResults(ctx context.Context, studentID, topic string, correct, total int) (progress.Record, error)
}

// Retriever supplies grounding chunks for a topic.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]retrieval.RankedChunk, error)
}

// AnswerRecorder appends graded answers to the event log.
type AnswerRecorder interface {
	AppendAnswer(ctx context.Context, data store.AnswerEventData) error
}

// Config controls generation.
type Config struct {
	// QuestionCount is the fixed number of questions per quiz.
	QuestionCount int

	// GroundingK is how many chunks are retrieved for the topic.
	GroundingK int

	// MaxAttempts bounds generation attempts, including the first.
	MaxAttempts int

	MaxTokens   int
	Temperature float64

	// Validators run in order on every generated question.
	Validators []Validator
}

// DefaultConfig returns the standard settings and validator chain.
func DefaultConfig() Config {
	return Config{
		QuestionCount: 4,
		GroundingK:    4,
		MaxAttempts:   2,
		MaxTokens:     2048,
		Temperature:   0.7,
		Validators:    DefaultValidators(),
	}
}

// Engine generates and grades quizzes.
type Engine struct {
	provider  llm.Provider
	retriever Retriever
	mastery   Mastery
	sessions  Sessions
	answers   AnswerRecorder
	cfg       Config
	now       func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithAnswerRecorder logs every graded answer to r.
func WithAnswerRecorder(r AnswerRecorder) EngineOption {
	return func(e *Engine) { e.answers = r }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine. Zero config fields take their defaults.
func NewEngine(provider llm.Provider, retriever Retriever, mastery Mastery, sessions Sessions, cfg Config, opts ...EngineOption) *Engine {
	def := DefaultConfig()
	if cfg.QuestionCount <= 0 {
		cfg.QuestionCount = def.QuestionCount
	}
	if cfg.GroundingK <= 0 {
		cfg.GroundingK = def.GroundingK
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.Validators == nil {
		cfg.Validators = def.Validators
	}

	e := &Engine{
		provider:  provider,
		retriever: retriever,
		mastery:   mastery,
		sessions:  sessions,
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Generate produces a quiz on topic for studentID. On failure the returned
// quiz is idle with no questions, alongside the error.
func (e *Engine) Generate(ctx context.Context, topic, studentID string) (*Quiz, error) {
	topic = strings.TrimSpace(topic)
	studentID = strings.TrimSpace(studentID)
	if topic == "" || studentID == "" {
		return nil, &ValidationError{Field: "topic", Message: "topic and student id are required"}
	}

	strength, known := e.mastery.StrengthOf(studentID, topic)
	q := &Quiz{
		ID:         uuid.NewString(),
		StudentID:  studentID,
		Topic:      topic,
		Difficulty: DifficultyFor(strength, known),
		State:      StateGenerating,
		CreatedAt:  e.now().UTC(),
	}
	fail := func(err error) (*Quiz, error) {
		q.State = StateIdle
		q.Questions = nil
		return q, err
	}

	logger.Section("Quiz")
	logger.Info("quiz: generating %d %s questions on %q for %s", e.cfg.QuestionCount, q.Difficulty, topic, studentID)

	ranked, err := e.retriever.Retrieve(ctx, topic, e.cfg.GroundingK)
	if err != nil {
		return fail(fmt.Errorf("retrieve material for %q: %w", topic, err))
	}
	if len(ranked) == 0 {
		logger.Info("quiz: no material found for %q, generating ungrounded", topic)
	}

	req := llm.UserRequest(systemPrompt,
		buildUserMessage(topic, q.Difficulty, e.cfg.QuestionCount, retrieval.Context(ranked)),
		QuizSchema, e.cfg.MaxTokens, e.cfg.Temperature)
	genCtx := llm.WithPurpose(ctx, llm.PurposeQuizGen)

	var lastErr error
	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		questions, err := e.attempt(genCtx, req, topic, q.Difficulty)
		if err == nil {
			q.Questions = questions
			q.State = StateAwaitingSubmission
			if err := e.sessions.Save(ctx, q); err != nil {
				return fail(fmt.Errorf("save quiz: %w", err))
			}
			logger.Debug("quiz: %s ready after %d attempt(s)", q.ID, attempt)
			return q, nil
		}

		var invalid *llm.ErrInvalidResponse
		var rejected *InvalidQuestionError
		if !errors.As(err, &invalid) && !errors.As(err, &rejected) {
			// Provider failures are the caller's to retry.
			return fail(fmt.Errorf("generate quiz: %w", err))
		}
		lastErr = err
		logger.Debug("quiz: attempt %d rejected: %v", attempt, err)
	}

	return fail(&QuizGenerationError{Topic: topic, Attempts: e.cfg.MaxAttempts, Err: lastErr})
}

// attempt runs one generation call and validates its output.
func (e *Engine) attempt(ctx context.Context, req llm.Request, topic string, d Difficulty) ([]Question, error) {
	resp, err := e.provider.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	questions, err := parseQuestions(resp.Content, topic, d)
	if err != nil {
		return nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: err}
	}
	if verr := validateSet(questions, e.cfg.QuestionCount, e.cfg.Validators); verr != nil {
		return nil, verr
	}
	return questions, nil
}

// Grade scores a submission against the retained quiz and records every
// question in the mastery model exactly once, in a single write. If that
// write fails the quiz is reopened so the submission can be retried.
// Unanswered questions are incorrect. Client-supplied correct answers are
// ignored.
func (e *Engine) Grade(ctx context.Context, in GradeInput) (*Result, error) {
	q, err := e.sessions.Get(ctx, in.QuizID)
	if errors.Is(err, ErrNotFound) {
		return nil, &ValidationError{Field: "quiz_id", Message: fmt.Sprintf("unknown quiz %q", in.QuizID), Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("load quiz %s: %w", in.QuizID, err)
	}

	if err := checkOwner(q, in); err != nil {
		return nil, err
	}
	if q.State != StateAwaitingSubmission {
		return nil, &ValidationError{Field: "quiz_id", Message: "quiz has already been graded", Err: ErrAlreadyGraded}
	}

	answers, err := collectAnswers(q, in.Submissions)
	if err != nil {
		return nil, err
	}

	// Claim the quiz before touching mastery so a concurrent resubmission
	// cannot count twice.
	gradedAt := e.now().UTC()
	if err := e.sessions.MarkGraded(ctx, q.ID, gradedAt); err != nil {
		if errors.Is(err, ErrAlreadyGraded) {
			return nil, &ValidationError{Field: "quiz_id", Message: "quiz has already been graded", Err: err}
		}
		return nil, fmt.Errorf("mark quiz %s graded: %w", q.ID, err)
	}

	res := &Result{
		QuizID:     q.ID,
		StudentID:  q.StudentID,
		Topic:      q.Topic,
		Difficulty: q.Difficulty,
		Total:      len(q.Questions),
		Items:      make([]ItemResult, 0, len(q.Questions)),
	}
	for _, qq := range q.Questions {
		ans := answers[qq.ID]
		correct := ans != "" && strings.EqualFold(ans, qq.CorrectAnswer)
		if correct {
			res.Correct++
		}
		res.Items = append(res.Items, ItemResult{
			QuestionID:    qq.ID,
			Answer:        ans,
			CorrectAnswer: qq.CorrectAnswer,
			Correct:       correct,
			Explanation:   qq.Explanation,
		})
	}

	rec, err := e.mastery.RecordResults(ctx, q.StudentID, q.Topic, res.Correct, res.Total)
	if err != nil {
		if rerr := e.sessions.Reopen(ctx, q.ID); rerr != nil {
			logger.Warn("quiz: reopen %s after failed grading: %v", q.ID, rerr)
		}
		return nil, fmt.Errorf("record results for quiz %s: %w", q.ID, err)
	}
	res.Mastery = rec
	for _, it := range res.Items {
		e.recordAnswer(ctx, q, it.QuestionID, it.Answer, it.Correct)
	}
	if res.Total > 0 {
		res.Score = float64(res.Correct) / float64(res.Total)
	}

	logger.Info("quiz: %s graded %d/%d for %s", q.ID, res.Correct, res.Total, q.StudentID)
	return res, nil
}

func checkOwner(q *Quiz, in GradeInput) error {
	if s := strings.TrimSpace(in.StudentID); s != "" && s != q.StudentID {
		return &ValidationError{Field: "student_id", Message: "quiz belongs to another student"}
	}
	if t := in.Topic; strings.TrimSpace(t) != "" && progress.NormalizeTopic(t) != progress.NormalizeTopic(q.Topic) {
		return &ValidationError{Field: "topic", Message: fmt.Sprintf("quiz is on %q, not %q", q.Topic, t)}
	}
	return nil
}

// collectAnswers maps question id to the normalized answer label. Unknown
// and duplicate ids are rejected.
func collectAnswers(q *Quiz, subs []Submission) (map[int]string, error) {
	byID := make(map[int]*Question, len(q.Questions))
	for i := range q.Questions {
		byID[q.Questions[i].ID] = &q.Questions[i]
	}

	answers := make(map[int]string, len(subs))
	for _, s := range subs {
		qq, ok := byID[s.QuestionID]
		if !ok {
			return nil, &ValidationError{Field: "question_id", Message: fmt.Sprintf("unknown question %d", s.QuestionID)}
		}
		if _, dup := answers[s.QuestionID]; dup {
			return nil, &ValidationError{Field: "question_id", Message: fmt.Sprintf("question %d answered twice", s.QuestionID)}
		}
		ans := strings.ToUpper(strings.TrimSpace(s.StudentAnswer))
		if ans != "" && LabelIndex(ans) < 0 {
			return nil, &ValidationError{Field: "student_answer", Message: fmt.Sprintf("question %d: %q is not an option label", s.QuestionID, s.StudentAnswer)}
		}
		if c := strings.TrimSpace(s.CorrectAnswer); c != "" && !strings.EqualFold(c, qq.CorrectAnswer) {
			logger.Warn("quiz %s: client correct answer for question %d disagrees with the retained answer; ignoring it", q.ID, s.QuestionID)
		}
		answers[s.QuestionID] = ans
	}
	return answers, nil
}

// recordAnswer appends an answer event. Failures are logged, not returned.
func (e *Engine) recordAnswer(ctx context.Context, q *Quiz, questionID int, ans string, correct bool) {
	if e.answers == nil {
		return
	}
	err := e.answers.AppendAnswer(context.WithoutCancel(ctx), store.AnswerEventData{
		QuizID:     q.ID,
		StudentID:  q.StudentID,
		Topic:      progress.NormalizeTopic(q.Topic),
		QuestionID: questionID,
		Answer:     ans,
		Correct:    correct,
	})
	if err != nil {
		logger.Warn("quiz %s: failed to record answer event: %v", q.ID, err)
	}
}
