package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tutor/internal/corpus"
	"github.com/abhisek/tutor/internal/llm"
	"github.com/abhisek/tutor/internal/progress"
	"github.com/abhisek/tutor/internal/quiz"
	"github.com/abhisek/tutor/internal/retrieval"
)

var studyNotes = []corpus.Document{
	{Name: "ai.txt", Text: "Artificial Intelligence is a field of computer science that focuses on building systems capable of performing tasks that normally require human intelligence."},
	{Name: "probability.txt", Text: "Probability is the measure of how likely an event is to occur."},
	{Name: "physics.txt", Text: "Newton's first law of motion states that an object remains in the state of rest or uniform motion unless acted upon by an external unbalanced force."},
}

type fixture struct {
	svc      *Service
	provider *llm.MockProvider
	tracker  *progress.Tracker
	corpus   *corpus.Store
	engine   *retrieval.Engine
}

func newFixture(t *testing.T, provider llm.Provider) *fixture {
	t.Helper()
	mock, _ := provider.(*llm.MockProvider)
	embedder := llm.NewHashEmbedder(512)
	cs := corpus.NewStore(embedder)
	tracker := progress.NewTracker()
	engine := retrieval.NewEngine(cs, embedder, retrieval.Config{})
	qe := quiz.NewEngine(provider, engine, tracker, quiz.NewMemorySessions(), quiz.DefaultConfig())
	return &fixture{
		svc:      New(cs, engine, qe, tracker, provider, DefaultConfig()),
		provider: mock,
		tracker:  tracker,
		corpus:   cs,
		engine:   engine,
	}
}

func quizJSON(labels ...string) json.RawMessage {
	var qs []string
	for i, l := range labels {
		qs = append(qs, fmt.Sprintf(`{"prompt":"Q%d?","options":["w%d","x%d","y%d","z%d"],"correct_answer":%q,"explanation":"E"}`,
			i+1, i, i, i, i, l))
	}
	return json.RawMessage(`{"questions":[` + strings.Join(qs, ",") + `]}`)
}

func TestAsk_NoCorpus(t *testing.T) {
	f := newFixture(t, llm.NewMockProvider())

	ans, err := f.svc.Ask(context.Background(), "What is probability?", "s")
	require.NoError(t, err)
	assert.False(t, ans.Grounded)
	assert.Equal(t, noCorpusAnswer, ans.Text)
	assert.Equal(t, 0, f.provider.CallCount())
}

func TestAsk_Grounded(t *testing.T) {
	f := newFixture(t, llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage("  It measures how likely an event is.  ")}))
	ctx := context.Background()
	require.True(t, f.svc.IngestDocuments(ctx, studyNotes).Success)

	ans, err := f.svc.Ask(ctx, "What is probability?", "s")
	require.NoError(t, err)
	assert.True(t, ans.Grounded)
	assert.Equal(t, "It measures how likely an event is.", ans.Text)
	require.NotEmpty(t, ans.Sources)
	assert.Equal(t, "probability.txt", ans.Sources[0].Chunk.Source)

	req := f.provider.LastCall()
	assert.Nil(t, req.Schema)
	assert.Contains(t, req.System, "ONLY")
	assert.Contains(t, req.Messages[0].Content, "how likely an event is to occur")

	_, known := f.tracker.StrengthOf("s", "probability")
	assert.False(t, known, "asking must not touch mastery")
}

func TestAsk_PartialConfigUsesDefaultTemperature(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage("Likelihood.")})
	f := newFixture(t, mock)
	f.svc = New(f.corpus, f.engine, nil, f.tracker, mock, Config{TopK: 2})
	ctx := context.Background()
	require.True(t, f.svc.IngestDocuments(ctx, studyNotes).Success)

	_, err := f.svc.Ask(ctx, "What is probability?", "s")
	require.NoError(t, err)
	assert.InDelta(t, DefaultConfig().Temperature, mock.LastCall().Temperature, 1e-9)
	assert.Equal(t, 2, f.svc.cfg.TopK)
}

func TestAsk_Failures(t *testing.T) {
	tests := []struct {
		name     string
		provider llm.Provider
		check    func(t *testing.T, err error)
	}{
		{
			name:     "provider unavailable",
			provider: llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("503")}}),
			check: func(t *testing.T, err error) {
				var down *llm.ErrProviderUnavailable
				assert.ErrorAs(t, err, &down)
			},
		},
		{
			name:     "timeout",
			provider: llm.WithTimeout(llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage("late"), Delay: time.Second}), 20*time.Millisecond),
			check: func(t *testing.T, err error) {
				var timeout *llm.ErrTimeout
				assert.ErrorAs(t, err, &timeout)
				assert.Equal(t, "The tutor took too long to respond. Please try again.", UserMessage(err))
			},
		},
		{
			name:     "empty text",
			provider: llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage("   ")}),
			check:    func(t *testing.T, err error) {},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.provider)
			ctx := context.Background()
			require.True(t, f.svc.IngestDocuments(ctx, studyNotes).Success)

			ans, err := f.svc.Ask(ctx, "What is probability?", "s")
			assert.Nil(t, ans)
			require.ErrorIs(t, err, ErrGenerationUnavailable)
			tt.check(t, err)
		})
	}
}

func TestAsk_EmptyQuestion(t *testing.T) {
	f := newFixture(t, llm.NewMockProvider())
	_, err := f.svc.Ask(context.Background(), "   ", "s")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestIngest(t *testing.T) {
	f := newFixture(t, llm.NewMockProvider())
	ctx := context.Background()

	res := f.svc.IngestDocument(ctx, " \n ")
	assert.False(t, res.Success)
	assert.Equal(t, "The document contains no text to learn from.", res.Message)
	assert.Error(t, res.Err)

	res = f.svc.IngestDocuments(ctx, studyNotes)
	assert.True(t, res.Success)
	assert.Equal(t, 3, res.ChunkCount)
	assert.NotEmpty(t, res.Version)
	assert.Equal(t, res.Version, f.corpus.Snapshot().Version)
}

// The scenario walks through ingest, retrieval, quiz generation and two
// graded submissions.
func TestEndToEndScenario(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: quizJSON("A", "B", "C", "D")},
		llm.MockResponse{Content: json.RawMessage(`{"encouragement":"Keep it up!"}`)},
		llm.MockResponse{Content: quizJSON("B", "B", "B", "B")},
		// No response left for the second feedback call.
	)
	f := newFixture(t, mock)
	ctx := context.Background()
	require.True(t, f.svc.IngestDocuments(ctx, studyNotes).Success)

	top, err := f.engine.Retrieve(ctx, "What is probability?", 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Contains(t, top[0].Chunk.Text, "Probability is the measure of how likely an event is to occur.")

	q, err := f.svc.GenerateQuiz(ctx, "Probability", "student-1")
	require.NoError(t, err)
	assert.Equal(t, quiz.DifficultyMedium, q.Difficulty)
	require.Len(t, q.Questions, 4)
	for _, qq := range q.Questions {
		assert.Len(t, qq.Options, 4)
	}

	var subs []quiz.Submission
	for _, qq := range q.Questions {
		subs = append(subs, quiz.Submission{QuestionID: qq.ID, StudentAnswer: qq.CorrectAnswer})
	}
	fb, err := f.svc.SubmitQuiz(ctx, quiz.GradeInput{QuizID: q.ID, StudentID: "student-1", Topic: "Probability", Submissions: subs})
	require.NoError(t, err)
	assert.Equal(t, "You scored 4 out of 4 (100%) on the Probability quiz. Your progress profile has been updated. Keep it up!", fb.Message)
	s, _ := f.tracker.StrengthOf("student-1", "Probability")
	assert.Equal(t, progress.StrengthStrong, s)

	q2, err := f.svc.GenerateQuiz(ctx, "Probability", "student-1")
	require.NoError(t, err)
	assert.Equal(t, quiz.DifficultyHard, q2.Difficulty)
	fb, err = f.svc.SubmitQuiz(ctx, quiz.GradeInput{QuizID: q2.ID, Submissions: []quiz.Submission{
		{QuestionID: 1, StudentAnswer: "B"},
		{QuestionID: 2, StudentAnswer: "A"},
		{QuestionID: 3, StudentAnswer: "C"},
		{QuestionID: 4},
	}})
	require.NoError(t, err)
	assert.Equal(t, "You scored 1 out of 4 (25%) on the Probability quiz. Your progress profile has been updated.", fb.Message)

	rec, _ := f.tracker.Get("student-1", "probability")
	assert.Equal(t, 5, rec.Correct)
	assert.Equal(t, 8, rec.Total)
	assert.InDelta(t, 0.625, rec.Accuracy(), 1e-9)
	assert.Equal(t, progress.StrengthDeveloping, rec.Strength())
}

func TestGetProgress(t *testing.T) {
	t.Run("no results", func(t *testing.T) {
		f := newFixture(t, llm.NewMockProvider())
		view, err := f.svc.GetProgress(context.Background(), "s")
		require.NoError(t, err)
		assert.Equal(t, noProgressSummary, view.Summary)
		assert.True(t, view.Report.Recommendation.Broad)
		assert.Equal(t, 0, f.provider.CallCount())
	})

	t.Run("summary from collaborator", func(t *testing.T) {
		f := newFixture(t, llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"summary":"Work on Bayes next."}`)}))
		f.tracker.Load([]progress.Record{
			{StudentID: "s", Topic: "bayes", DisplayTopic: "Bayes", Correct: 1, Total: 4},
			{StudentID: "s", Topic: "ai", DisplayTopic: "AI", Correct: 4, Total: 4},
		})
		view, err := f.svc.GetProgress(context.Background(), "s")
		require.NoError(t, err)
		assert.Equal(t, "Work on Bayes next.", view.Summary)
		assert.Equal(t, "Bayes", view.Report.Recommendation.FocusTopic)

		prompt := f.provider.LastCall().Messages[0].Content
		assert.Contains(t, prompt, `"correct":1`)
		assert.Contains(t, prompt, "Focus on Bayes")
	})

	t.Run("fallback summary", func(t *testing.T) {
		f := newFixture(t, llm.NewMockProvider())
		f.tracker.Load([]progress.Record{{StudentID: "s", Topic: "ai", Correct: 1, Total: 1}})
		view, err := f.svc.GetProgress(context.Background(), "s")
		require.NoError(t, err)
		assert.Equal(t, fallbackProgressSummary, view.Summary)
		assert.Len(t, view.Report.Topics, 1)
	})

	t.Run("student required", func(t *testing.T) {
		f := newFixture(t, llm.NewMockProvider())
		_, err := f.svc.GetProgress(context.Background(), "")
		assert.ErrorIs(t, err, progress.ErrInvalidKey)
	})
}

func TestResetProgress(t *testing.T) {
	f := newFixture(t, llm.NewMockProvider())
	f.tracker.Load([]progress.Record{{StudentID: "s", Topic: "ai", Correct: 1, Total: 3}})

	require.NoError(t, f.svc.ResetProgress(context.Background(), "s"))
	_, ok := f.tracker.Get("s", "ai")
	assert.False(t, ok)
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&corpus.IngestionError{Reason: "embedding failed", Err: &llm.ErrEmbeddingUnavailable{Err: errors.New("x")}},
			"Could not embed the document because the embedding service is unavailable. Your previous material is still available."},
		{&corpus.IngestionError{Reason: "persist corpus", Err: errors.New("disk")},
			"Could not ingest the document (persist corpus). Your previous material is still available."},
		{fmt.Errorf("retrieve: %w", retrieval.ErrEmbeddingMismatch),
			"Your study material was embedded with a different model. Ingest it again with the current settings."},
		{&llm.ErrEmbeddingUnavailable{Err: errors.New("x")}, "The embedding service is unavailable right now. Please try again shortly."},
		{&llm.ErrRateLimit{Err: errors.New("429")}, "The tutor is receiving too many requests. Please wait a moment and try again."},
		{&quiz.QuizGenerationError{Topic: "Bayes", Attempts: 2}, `Could not create a valid quiz on "Bayes". Try another topic.`},
		{&quiz.ValidationError{Field: "quiz_id", Message: "quiz has already been graded"}, "That submission is not valid: quiz has already been graded."},
		{fmt.Errorf("generate quiz: %w", &llm.ErrProviderUnavailable{}), "The tutor is unavailable right now. Please try again shortly."},
		{context.Canceled, "The request was cancelled."},
		{errors.New("boom"), "Something went wrong. Run with --verbose for details."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UserMessage(tt.err), "UserMessage(%v)", tt.err)
	}
}
