package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyGraded is returned by MarkGraded when the quiz has already
// left the awaiting_submission state.
var ErrAlreadyGraded = errors.New("quiz already graded")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	Before  int64     // sequence < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // exact purpose match when set
}

// CorpusData is one persisted corpus version.
type CorpusData struct {
	Version   string
	Model     string
	CreatedAt time.Time
	Chunks    []ChunkRow
}

// ChunkRow is a persisted chunk and its embedding.
type ChunkRow struct {
	ID     int
	Source string
	Offset int
	Text   string
	Vector []float32
}

// CorpusRepo persists the live corpus. Only one version is kept.
type CorpusRepo interface {
	// ReplaceCorpus atomically replaces the stored corpus with data.
	ReplaceCorpus(ctx context.Context, data CorpusData) error

	// LoadCorpus returns the stored corpus, or nil if none exists.
	LoadCorpus(ctx context.Context) (*CorpusData, error)
}

// MasteryRow is the persisted per-(student, topic) counter.
type MasteryRow struct {
	StudentID    string
	Topic        string
	DisplayTopic string
	Correct      int
	Total        int
	UpdatedAt    time.Time
}

// MasteryRepo persists mastery counters.
type MasteryRepo interface {
	// UpsertMastery writes the full row, replacing any previous value.
	UpsertMastery(ctx context.Context, row MasteryRow) error

	// DeleteStudent removes every row for studentID.
	DeleteStudent(ctx context.Context, studentID string) error

	// ListMastery returns all rows ordered by student then topic.
	ListMastery(ctx context.Context) ([]MasteryRow, error)
}

// QuizRow is a persisted quiz with its authoritative questions.
type QuizRow struct {
	ID         string
	StudentID  string
	Topic      string
	Difficulty string
	State      string
	Questions  []QuestionRow
	CreatedAt  time.Time
	GradedAt   time.Time // zero until graded
}

// QuestionRow is one persisted multiple-choice question.
type QuestionRow struct {
	ID            int      `json:"id"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// QuizRepo persists generated quizzes.
type QuizRepo interface {
	SaveQuiz(ctx context.Context, row QuizRow) error

	// GetQuiz returns ErrNotFound if id is unknown.
	GetQuiz(ctx context.Context, id string) (*QuizRow, error)

	// MarkGraded moves an awaiting quiz to graded. It returns ErrNotFound
	// for unknown ids and ErrAlreadyGraded when the transition already happened.
	MarkGraded(ctx context.Context, id string, at time.Time) error

	// ReopenQuiz moves a graded quiz back to awaiting submission. It
	// returns ErrNotFound for unknown ids.
	ReopenQuiz(ctx context.Context, id string) error

	// ListQuizzes returns the newest quizzes for a student.
	ListQuizzes(ctx context.Context, studentID string, limit int) ([]QuizRow, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLM request event.
type LLMRequestEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// AnswerEventData captures one graded quiz answer.
type AnswerEventData struct {
	QuizID     string
	StudentID  string
	Topic      string
	QuestionID int
	Answer     string
	Correct    bool
}

// AnswerEvent is a stored answer event.
type AnswerEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	AnswerEventData
}

// PurposeUsage aggregates LLM usage for one purpose.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates LLM usage for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// AppendAnswer records a graded quiz answer.
	AppendAnswer(ctx context.Context, data AnswerEventData) error

	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// GetLLMEvent returns nil when id is unknown.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEvent, error)

	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)

	QueryAnswers(ctx context.Context, studentID string, opts QueryOpts) ([]AnswerEvent, error)
}
