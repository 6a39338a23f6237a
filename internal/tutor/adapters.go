package tutor

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/tutor/internal/corpus"
	"github.com/abhisek/tutor/internal/progress"
	"github.com/abhisek/tutor/internal/quiz"
	"github.com/abhisek/tutor/internal/store"
)

// corpusPersister saves corpus snapshots through a store.CorpusRepo.
type corpusPersister struct {
	repo store.CorpusRepo
}

func (p corpusPersister) SaveCorpus(ctx context.Context, snap corpus.Snapshot) error {
	data := store.CorpusData{
		Version:   snap.Version,
		Model:     snap.Model,
		CreatedAt: snap.CreatedAt,
		Chunks:    make([]store.ChunkRow, len(snap.Chunks)),
	}
	for i, c := range snap.Chunks {
		data.Chunks[i] = store.ChunkRow{ID: c.ID, Source: c.Source, Offset: c.SourceOffset, Text: c.Text, Vector: c.Vector}
	}
	return p.repo.ReplaceCorpus(ctx, data)
}

// loadCorpus restores the persisted corpus into cs, if there is one.
func loadCorpus(ctx context.Context, repo store.CorpusRepo, cs *corpus.Store) error {
	data, err := repo.LoadCorpus(ctx)
	if err != nil || data == nil {
		return err
	}
	snap := corpus.Snapshot{
		Version:   data.Version,
		Model:     data.Model,
		CreatedAt: data.CreatedAt,
		Chunks:    make([]corpus.Chunk, len(data.Chunks)),
	}
	for i, c := range data.Chunks {
		snap.Chunks[i] = corpus.Chunk{ID: c.ID, Source: c.Source, SourceOffset: c.Offset, Text: c.Text, Vector: c.Vector}
	}
	cs.Load(snap)
	return nil
}

// masteryRepo adapts store.MasteryRepo to progress.Repo.
type masteryRepo struct {
	repo store.MasteryRepo
}

func (m masteryRepo) SaveMastery(ctx context.Context, r progress.Record) error {
	return m.repo.UpsertMastery(ctx, store.MasteryRow{
		StudentID:    r.StudentID,
		Topic:        r.Topic,
		DisplayTopic: r.DisplayTopic,
		Correct:      r.Correct,
		Total:        r.Total,
		UpdatedAt:    r.UpdatedAt,
	})
}

func (m masteryRepo) DeleteMastery(ctx context.Context, studentID string) error {
	return m.repo.DeleteStudent(ctx, studentID)
}

// loadMastery restores every persisted record into t.
func loadMastery(ctx context.Context, repo store.MasteryRepo, t *progress.Tracker) error {
	rows, err := repo.ListMastery(ctx)
	if err != nil {
		return err
	}
	records := make([]progress.Record, len(rows))
	for i, r := range rows {
		records[i] = progress.Record{
			StudentID:    r.StudentID,
			Topic:        r.Topic,
			DisplayTopic: r.DisplayTopic,
			Correct:      r.Correct,
			Total:        r.Total,
			UpdatedAt:    r.UpdatedAt,
		}
	}
	t.Load(records)
	return nil
}

// quizSessions adapts store.QuizRepo to quiz.Sessions.
type quizSessions struct {
	repo store.QuizRepo
}

func (s quizSessions) Save(ctx context.Context, q *quiz.Quiz) error {
	return s.repo.SaveQuiz(ctx, quizToRow(q))
}

func (s quizSessions) Get(ctx context.Context, id string) (*quiz.Quiz, error) {
	row, err := s.repo.GetQuiz(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, quiz.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rowToQuiz(row), nil
}

func (s quizSessions) MarkGraded(ctx context.Context, id string, at time.Time) error {
	err := s.repo.MarkGraded(ctx, id, at)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return quiz.ErrNotFound
	case errors.Is(err, store.ErrAlreadyGraded):
		return quiz.ErrAlreadyGraded
	}
	return err
}

func (s quizSessions) Reopen(ctx context.Context, id string) error {
	err := s.repo.ReopenQuiz(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return quiz.ErrNotFound
	}
	return err
}

func quizToRow(q *quiz.Quiz) store.QuizRow {
	row := store.QuizRow{
		ID:         q.ID,
		StudentID:  q.StudentID,
		Topic:      q.Topic,
		Difficulty: string(q.Difficulty),
		State:      string(q.State),
		CreatedAt:  q.CreatedAt,
		GradedAt:   q.GradedAt,
		Questions:  make([]store.QuestionRow, len(q.Questions)),
	}
	for i, qq := range q.Questions {
		row.Questions[i] = store.QuestionRow{
			ID:            qq.ID,
			Prompt:        qq.Prompt,
			Options:       qq.Options,
			CorrectAnswer: qq.CorrectAnswer,
			Explanation:   qq.Explanation,
		}
	}
	return row
}

func rowToQuiz(row *store.QuizRow) *quiz.Quiz {
	q := &quiz.Quiz{
		ID:         row.ID,
		StudentID:  row.StudentID,
		Topic:      row.Topic,
		Difficulty: quiz.Difficulty(row.Difficulty),
		State:      quiz.State(row.State),
		CreatedAt:  row.CreatedAt,
		GradedAt:   row.GradedAt,
		Questions:  make([]quiz.Question, len(row.Questions)),
	}
	for i, qr := range row.Questions {
		q.Questions[i] = quiz.Question{
			ID:            qr.ID,
			Topic:         row.Topic,
			Prompt:        qr.Prompt,
			Options:       qr.Options,
			CorrectAnswer: qr.CorrectAnswer,
			Difficulty:    q.Difficulty,
			Explanation:   qr.Explanation,
		}
	}
	return q
}
