package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Quiz states as persisted. They mirror the quiz package's State values.
const (
	quizStateAwaiting = "awaiting_submission"
	quizStateGraded   = "graded"
)

type quizRepo struct {
	db *sql.DB
}

func (r *quizRepo) SaveQuiz(ctx context.Context, row QuizRow) error {
	questions, err := json.Marshal(row.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}

	var graded sql.NullInt64
	if !row.GradedAt.IsZero() {
		graded = sql.NullInt64{Int64: toMillis(row.GradedAt), Valid: true}
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO quizzes
		(id, student_id, topic, difficulty, state, questions, created_at, graded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.StudentID, row.Topic, row.Difficulty, row.State, string(questions),
		toMillis(row.CreatedAt), graded)
	if err != nil {
		return fmt.Errorf("save quiz %s: %w", row.ID, err)
	}
	return nil
}

const quizColumns = `id, student_id, topic, difficulty, state, questions, created_at, graded_at`

func (r *quizRepo) GetQuiz(ctx context.Context, id string) (*QuizRow, error) {
	row, err := scanQuiz(r.db.QueryRowContext(ctx, "SELECT "+quizColumns+" FROM quizzes WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return row, err
}

// MarkGraded uses a conditional update so concurrent graders cannot both
// succeed.
func (r *quizRepo) MarkGraded(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE quizzes SET state = ?, graded_at = ? WHERE id = ? AND state = ?`,
		quizStateGraded, toMillis(at), id, quizStateAwaiting)
	if err != nil {
		return fmt.Errorf("mark quiz %s graded: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark quiz %s graded: %w", id, err)
	}
	if n == 1 {
		return nil
	}

	var state string
	err = r.db.QueryRowContext(ctx, `SELECT state FROM quizzes WHERE id = ?`, id).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read quiz %s state: %w", id, err)
	}
	return ErrAlreadyGraded
}

func (r *quizRepo) ReopenQuiz(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE quizzes SET state = ?, graded_at = NULL WHERE id = ?`, quizStateAwaiting, id)
	if err != nil {
		return fmt.Errorf("reopen quiz %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("reopen quiz %s: %w", id, err)
	} else if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *quizRepo) ListQuizzes(ctx context.Context, studentID string, limit int) ([]QuizRow, error) {
	q := "SELECT " + quizColumns + " FROM quizzes WHERE student_id = ? ORDER BY created_at DESC"
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := r.db.QueryContext(ctx, q, studentID)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var out []QuizRow
	for rows.Next() {
		row, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *row)
	}
	return out, rows.Err()
}

func scanQuiz(s rowScanner) (*QuizRow, error) {
	var row QuizRow
	var questions string
	var created int64
	var graded sql.NullInt64
	err := s.Scan(&row.ID, &row.StudentID, &row.Topic, &row.Difficulty, &row.State,
		&questions, &created, &graded)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan quiz: %w", err)
	}
	if err := json.Unmarshal([]byte(questions), &row.Questions); err != nil {
		return nil, fmt.Errorf("decode quiz %s questions: %w", row.ID, err)
	}
	row.CreatedAt = fromMillis(created)
	if graded.Valid {
		row.GradedAt = fromMillis(graded.Int64)
	}
	return &row, nil
}
