package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/abhisek/tutor/internal/corpus"
	"github.com/abhisek/tutor/internal/llm"
	"github.com/abhisek/tutor/internal/progress"
	"github.com/abhisek/tutor/internal/retrieval"
	"github.com/abhisek/tutor/internal/store"
)

type fakeRetriever struct {
	chunks []retrieval.RankedChunk
	err    error
	calls  int
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string, _ int) ([]retrieval.RankedChunk, error) {
	f.calls++
	return f.chunks, f.err
}

type fakeAnswers struct {
	mu     sync.Mutex
	events []store.AnswerEventData
}

func (f *fakeAnswers) AppendAnswer(_ context.Context, d store.AnswerEventData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, d)
	return nil
}

// quizJSON renders n questions whose correct answers are given by labels.
func quizJSON(labels ...string) json.RawMessage {
	var qs []string
	for i, l := range labels {
		qs = append(qs, fmt.Sprintf(`{
			"prompt": "Question %d about probability?",
			"options": ["opt %d-a", "opt %d-b", "opt %d-c", "opt %d-d"],
			"correct_answer": %q,
			"explanation": "Because."
		}`, i+1, i, i, i, i, l))
	}
	return json.RawMessage(`{"questions": [` + strings.Join(qs, ",") + `]}`)
}

func groundingChunks() []retrieval.RankedChunk {
	return []retrieval.RankedChunk{{
		Chunk: corpus.Chunk{ID: 1, Text: "Probability is the measure of how likely an event is to occur."},
		Score: 0.9,
	}}
}

type harness struct {
	provider  *llm.MockProvider
	retriever *fakeRetriever
	tracker   *progress.Tracker
	sessions  *MemorySessions
	answers   *fakeAnswers
	engine    *Engine
}

func newHarness(responses ...llm.MockResponse) *harness {
	h := &harness{
		provider:  llm.NewMockProvider(responses...),
		retriever: &fakeRetriever{chunks: groundingChunks()},
		tracker:   progress.NewTracker(),
		sessions:  NewMemorySessions(),
		answers:   &fakeAnswers{},
	}
	h.engine = NewEngine(h.provider, h.retriever, h.tracker, h.sessions, DefaultConfig(), WithAnswerRecorder(h.answers))
	return h
}

func TestGenerate_DefaultsToMedium(t *testing.T) {
	h := newHarness(llm.MockResponse{Content: quizJSON("A", "B", "C", "D")})

	q, err := h.engine.Generate(context.Background(), "Probability", "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Difficulty != DifficultyMedium {
		t.Errorf("difficulty = %s, want medium", q.Difficulty)
	}
	if q.State != StateAwaitingSubmission {
		t.Errorf("state = %s", q.State)
	}
	if len(q.Questions) != 4 {
		t.Fatalf("got %d questions, want 4", len(q.Questions))
	}
	for i, qq := range q.Questions {
		if qq.ID != i+1 {
			t.Errorf("question %d has id %d", i, qq.ID)
		}
		if len(qq.Options) != OptionCount || LabelIndex(qq.CorrectAnswer) < 0 {
			t.Errorf("question %d malformed: %+v", qq.ID, qq)
		}
	}

	req := h.provider.LastCall()
	if req.Schema != QuizSchema {
		t.Error("quiz schema not requested")
	}
	msg := req.Messages[0].Content
	if !strings.Contains(msg, "Difficulty: medium") || !strings.Contains(msg, "how likely an event") {
		t.Errorf("prompt missing difficulty or material:\n%s", msg)
	}

	if _, err := h.sessions.Get(context.Background(), q.ID); err != nil {
		t.Errorf("quiz not retained: %v", err)
	}
}

func TestGenerate_DifficultyFollowsStrength(t *testing.T) {
	tests := []struct {
		correct, total int
		want           Difficulty
	}{
		{1, 4, DifficultyEasy},
		{2, 4, DifficultyMedium},
		{4, 4, DifficultyHard},
		{0, 2, DifficultyMedium},
	}
	for _, tt := range tests {
		h := newHarness(llm.MockResponse{Content: quizJSON("A", "A", "A", "A")})
		h.tracker.Load([]progress.Record{{StudentID: "s", Topic: "probability", Correct: tt.correct, Total: tt.total}})

		q, err := h.engine.Generate(context.Background(), "Probability", "s")
		if err != nil {
			t.Fatal(err)
		}
		if q.Difficulty != tt.want {
			t.Errorf("%d/%d: difficulty = %s, want %s", tt.correct, tt.total, q.Difficulty, tt.want)
		}
		for _, qq := range q.Questions {
			if qq.Difficulty != tt.want {
				t.Errorf("question difficulty = %s", qq.Difficulty)
			}
		}
	}
}

func TestGenerate_RetriesOnceOnInvalidOutput(t *testing.T) {
	tests := []struct {
		name  string
		first llm.MockResponse
	}{
		{"label outside options", llm.MockResponse{Content: quizJSON("A", "E", "B", "C")}},
		{"missing label", llm.MockResponse{Content: quizJSON("A", "", "B", "C")}},
		{"wrong count", llm.MockResponse{Content: quizJSON("A", "B")}},
		{"not json", llm.MockResponse{Content: json.RawMessage(`here are your questions`)}},
		{"duplicate options", llm.MockResponse{Content: json.RawMessage(`{"questions":[
			{"prompt":"p","options":["x","x","x","x"],"correct_answer":"A","explanation":""},
			{"prompt":"p","options":["a","b","c","d"],"correct_answer":"A","explanation":""},
			{"prompt":"p","options":["a","b","c","d"],"correct_answer":"A","explanation":""},
			{"prompt":"p","options":["a","b","c","d"],"correct_answer":"A","explanation":""}]}`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(tt.first, llm.MockResponse{Content: quizJSON("A", "B", "C", "D")})
			q, err := h.engine.Generate(context.Background(), "Probability", "s")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(q.Questions) != 4 {
				t.Errorf("got %d questions", len(q.Questions))
			}
			if n := h.provider.CallCount(); n != 2 {
				t.Errorf("provider called %d times, want 2", n)
			}
		})
	}
}

func TestGenerate_FailsAfterBoundedRetry(t *testing.T) {
	bad := llm.MockResponse{Content: quizJSON("A", "Z", "B", "C")}
	h := newHarness(bad, bad, bad)

	q, err := h.engine.Generate(context.Background(), "Probability", "s")
	var genErr *QuizGenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("err = %v, want QuizGenerationError", err)
	}
	if genErr.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", genErr.Attempts)
	}
	if q == nil || len(q.Questions) != 0 || q.State != StateIdle {
		t.Errorf("want idle quiz with no questions, got %+v", q)
	}
	if n := h.provider.CallCount(); n != 2 {
		t.Errorf("provider called %d times, want 2", n)
	}
	if _, err := h.sessions.Get(context.Background(), q.ID); !errors.Is(err, ErrNotFound) {
		t.Error("failed quiz must not be retained")
	}
}

func TestGenerate_ProviderFailureIsNotRetried(t *testing.T) {
	h := newHarness(llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("503")}})

	q, err := h.engine.Generate(context.Background(), "Probability", "s")
	var unavail *llm.ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("err = %v, want ErrProviderUnavailable", err)
	}
	var genErr *QuizGenerationError
	if errors.As(err, &genErr) {
		t.Error("provider failure should not be reported as a generation error")
	}
	if len(q.Questions) != 0 {
		t.Error("expected no questions")
	}
	if n := h.provider.CallCount(); n != 1 {
		t.Errorf("provider called %d times, want 1", n)
	}
}

func TestGenerate_RetrievalFailurePropagates(t *testing.T) {
	h := newHarness(llm.MockResponse{Content: quizJSON("A", "B", "C", "D")})
	h.retriever.err = &llm.ErrEmbeddingUnavailable{Err: errors.New("down")}

	_, err := h.engine.Generate(context.Background(), "Probability", "s")
	var unavail *llm.ErrEmbeddingUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("err = %v, want ErrEmbeddingUnavailable", err)
	}
	if h.provider.CallCount() != 0 {
		t.Error("provider should not be called without grounding")
	}
}

func TestGenerate_EmptyCorpusIsUngrounded(t *testing.T) {
	h := newHarness(llm.MockResponse{Content: quizJSON("A", "B", "C", "D")})
	h.retriever.chunks = nil

	if _, err := h.engine.Generate(context.Background(), "Probability", "s"); err != nil {
		t.Fatal(err)
	}
	if msg := h.provider.LastCall().Messages[0].Content; !strings.Contains(msg, "None available") {
		t.Errorf("prompt should note missing material:\n%s", msg)
	}
}

func TestGenerate_RequiresTopic(t *testing.T) {
	h := newHarness()
	_, err := h.engine.Generate(context.Background(), "  ", "s")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func answersFor(q *Quiz, wrong ...int) []Submission {
	isWrong := map[int]bool{}
	for _, id := range wrong {
		isWrong[id] = true
	}
	var subs []Submission
	for _, qq := range q.Questions {
		ans := qq.CorrectAnswer
		if isWrong[qq.ID] {
			ans = OptionLabel((LabelIndex(ans) + 1) % OptionCount)
		}
		subs = append(subs, Submission{QuestionID: qq.ID, StudentAnswer: strings.ToLower(ans)})
	}
	return subs
}

func TestGrade_EndToEnd(t *testing.T) {
	h := newHarness(
		llm.MockResponse{Content: quizJSON("A", "B", "C", "D")},
		llm.MockResponse{Content: quizJSON("D", "C", "B", "A")},
	)
	ctx := context.Background()

	q1, err := h.engine.Generate(ctx, "Probability", "s")
	if err != nil {
		t.Fatal(err)
	}
	res, err := h.engine.Grade(ctx, GradeInput{QuizID: q1.ID, StudentID: "s", Topic: "Probability", Submissions: answersFor(q1)})
	if err != nil {
		t.Fatal(err)
	}
	if res.Correct != 4 || res.Total != 4 || res.Percent() != 100 {
		t.Errorf("result = %d/%d", res.Correct, res.Total)
	}
	if s, _ := h.tracker.StrengthOf("s", "probability"); s != progress.StrengthStrong {
		t.Errorf("strength = %s, want strong", s)
	}

	q2, err := h.engine.Generate(ctx, "probability", "s")
	if err != nil {
		t.Fatal(err)
	}
	if q2.Difficulty != DifficultyHard {
		t.Errorf("second quiz difficulty = %s, want hard", q2.Difficulty)
	}
	res, err = h.engine.Grade(ctx, GradeInput{QuizID: q2.ID, Submissions: answersFor(q2, 2, 3, 4)})
	if err != nil {
		t.Fatal(err)
	}
	if res.Correct != 1 {
		t.Errorf("second quiz correct = %d, want 1", res.Correct)
	}
	if m := res.Mastery; m.Correct != 5 || m.Total != 8 || m.Strength() != progress.StrengthDeveloping {
		t.Errorf("mastery = %d/%d %s, want 5/8 developing", m.Correct, m.Total, m.Strength())
	}
	if len(h.answers.events) != 8 {
		t.Errorf("recorded %d answer events, want 8", len(h.answers.events))
	}
}

func TestGrade_AbsentAnswersAreIncorrect(t *testing.T) {
	h := newHarness(llm.MockResponse{Content: quizJSON("A", "B", "C", "D")})
	ctx := context.Background()
	q, _ := h.engine.Generate(ctx, "Probability", "s")

	res, err := h.engine.Grade(ctx, GradeInput{QuizID: q.ID, Submissions: []Submission{
		{QuestionID: 1, StudentAnswer: "A"},
		{QuestionID: 2, StudentAnswer: ""},
		// 3 and 4 omitted entirely
	}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Correct != 1 || res.Total != 4 || len(res.Items) != 4 {
		t.Errorf("result = %d/%d with %d items", res.Correct, res.Total, len(res.Items))
	}
	if r, _ := h.tracker.Get("s", "probability"); r.Total != 4 {
		t.Errorf("mastery total = %d, want every question recorded", r.Total)
	}
}

func TestGrade_IgnoresClientCorrectAnswers(t *testing.T) {
	h := newHarness(llm.MockResponse{Content: quizJSON("A", "B", "C", "D")})
	ctx := context.Background()
	q, _ := h.engine.Generate(ctx, "Probability", "s")

	var subs []Submission
	for _, qq := range q.Questions {
		// Claim every answer is D and answer D everywhere.
		subs = append(subs, Submission{QuestionID: qq.ID, StudentAnswer: "D", CorrectAnswer: "D"})
	}
	res, err := h.engine.Grade(ctx, GradeInput{QuizID: q.ID, Submissions: subs})
	if err != nil {
		t.Fatal(err)
	}
	if res.Correct != 1 {
		t.Errorf("correct = %d, want 1 (only question 4 is really D)", res.Correct)
	}
}

func TestGrade_RejectsMalformedSubmissions(t *testing.T) {
	tests := []struct {
		name string
		in   func(q *Quiz) GradeInput
	}{
		{"unknown quiz", func(q *Quiz) GradeInput { return GradeInput{QuizID: "nope"} }},
		{"unknown question", func(q *Quiz) GradeInput {
			return GradeInput{QuizID: q.ID, Submissions: []Submission{{QuestionID: 9, StudentAnswer: "A"}}}
		}},
		{"duplicate question", func(q *Quiz) GradeInput {
			return GradeInput{QuizID: q.ID, Submissions: []Submission{{QuestionID: 1, StudentAnswer: "A"}, {QuestionID: 1, StudentAnswer: "B"}}}
		}},
		{"bad label", func(q *Quiz) GradeInput {
			return GradeInput{QuizID: q.ID, Submissions: []Submission{{QuestionID: 1, StudentAnswer: "Paris"}}}
		}},
		{"other student", func(q *Quiz) GradeInput { return GradeInput{QuizID: q.ID, StudentID: "mallory"} }},
		{"other topic", func(q *Quiz) GradeInput { return GradeInput{QuizID: q.ID, Topic: "Physics"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(llm.MockResponse{Content: quizJSON("A", "B", "C", "D")})
			ctx := context.Background()
			q, _ := h.engine.Generate(ctx, "Probability", "s")

			_, err := h.engine.Grade(ctx, tt.in(q))
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if _, ok := h.tracker.Get("s", "probability"); ok {
				t.Error("mastery changed by a rejected submission")
			}
			// The quiz is still gradable.
			if _, err := h.engine.Grade(ctx, GradeInput{QuizID: q.ID, Submissions: answersFor(q)}); err != nil {
				t.Errorf("valid resubmission failed: %v", err)
			}
		})
	}
}

func TestGrade_TwiceFails(t *testing.T) {
	h := newHarness(llm.MockResponse{Content: quizJSON("A", "B", "C", "D")})
	ctx := context.Background()
	q, _ := h.engine.Generate(ctx, "Probability", "s")
	in := GradeInput{QuizID: q.ID, Submissions: answersFor(q)}

	if _, err := h.engine.Grade(ctx, in); err != nil {
		t.Fatal(err)
	}
	_, err := h.engine.Grade(ctx, in)
	var verr *ValidationError
	if !errors.As(err, &verr) || !errors.Is(err, ErrAlreadyGraded) {
		t.Fatalf("err = %v, want already-graded ValidationError", err)
	}
	if r, _ := h.tracker.Get("s", "probability"); r.Total != 4 {
		t.Errorf("mastery total = %d after resubmission, want 4", r.Total)
	}
}

func TestGrade_ConcurrentResubmissionCountsOnce(t *testing.T) {
	h := newHarness(llm.MockResponse{Content: quizJSON("A", "B", "C", "D")})
	ctx := context.Background()
	q, _ := h.engine.Generate(ctx, "Probability", "s")
	in := GradeInput{QuizID: q.ID, Submissions: answersFor(q)}

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.engine.Grade(ctx, in); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Errorf("%d submissions succeeded, want 1", succeeded)
	}
	if r, _ := h.tracker.Get("s", "probability"); r.Total != 4 {
		t.Errorf("mastery total = %d, want 4", r.Total)
	}
}

type failingMasteryRepo struct {
	mu    sync.Mutex
	fail  int // remaining saves to fail
	saves int
}

func (r *failingMasteryRepo) SaveMastery(context.Context, progress.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail > 0 {
		r.fail--
		return errors.New("disk full")
	}
	r.saves++
	return nil
}

func (r *failingMasteryRepo) DeleteMastery(context.Context, string) error { return nil }

func TestGrade_MasteryFailureLeavesQuizRetryable(t *testing.T) {
	h := newHarness(llm.MockResponse{Content: quizJSON("A", "B", "C", "D")})
	repo := &failingMasteryRepo{fail: 1}
	h.tracker = progress.NewTracker(progress.WithRepo(repo))
	h.engine = NewEngine(h.provider, h.retriever, h.tracker, h.sessions, DefaultConfig(), WithAnswerRecorder(h.answers))
	ctx := context.Background()

	q, err := h.engine.Generate(ctx, "Probability", "s1")
	if err != nil {
		t.Fatal(err)
	}
	in := GradeInput{QuizID: q.ID, Submissions: answersFor(q)}

	if _, err := h.engine.Grade(ctx, in); err == nil {
		t.Fatal("expected grading to fail when mastery cannot be saved")
	}
	if _, ok := h.tracker.Get("s1", "probability"); ok {
		t.Error("failed grading left a partial mastery record")
	}
	if len(h.answers.events) != 0 {
		t.Errorf("answer events = %d after failed grading, want 0", len(h.answers.events))
	}
	if stored, _ := h.sessions.Get(ctx, q.ID); stored.State != StateAwaitingSubmission {
		t.Errorf("quiz state = %s, want awaiting submission", stored.State)
	}

	res, err := h.engine.Grade(ctx, in)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if res.Mastery.Total != 4 {
		t.Errorf("mastery total = %d after retry, want 4", res.Mastery.Total)
	}
	if repo.saves != 1 {
		t.Errorf("mastery saves = %d, want 1", repo.saves)
	}
	if len(h.answers.events) != 4 {
		t.Errorf("answer events = %d, want 4", len(h.answers.events))
	}
}
