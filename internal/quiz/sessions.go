package quiz

import (
	"context"
	"sync"
	"time"
)

// Sessions retains generated quizzes between generation and grading.
type Sessions interface {
	Save(ctx context.Context, q *Quiz) error

	// Get returns ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (*Quiz, error)

	// MarkGraded atomically moves a quiz from awaiting_submission to
	// graded. Exactly one caller wins; the rest get ErrAlreadyGraded.
	MarkGraded(ctx context.Context, id string, at time.Time) error

	// Reopen returns a graded quiz to awaiting_submission. It is used
	// only to undo a claim whose mastery update failed.
	Reopen(ctx context.Context, id string) error
}

// MemorySessions keeps quizzes in process memory.
type MemorySessions struct {
	mu      sync.Mutex
	quizzes map[string]*Quiz
}

// NewMemorySessions creates an empty MemorySessions.
func NewMemorySessions() *MemorySessions {
	return &MemorySessions{quizzes: make(map[string]*Quiz)}
}

func (m *MemorySessions) Save(_ context.Context, q *Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quizzes[q.ID] = q.Clone()
	return nil
}

func (m *MemorySessions) Get(_ context.Context, id string) (*Quiz, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quizzes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return q.Clone(), nil
}

func (m *MemorySessions) MarkGraded(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quizzes[id]
	if !ok {
		return ErrNotFound
	}
	if q.State != StateAwaitingSubmission {
		return ErrAlreadyGraded
	}
	q.State = StateGraded
	q.GradedAt = at
	return nil
}

func (m *MemorySessions) Reopen(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quizzes[id]
	if !ok {
		return ErrNotFound
	}
	q.State = StateAwaitingSubmission
	q.GradedAt = time.Time{}
	return nil
}
