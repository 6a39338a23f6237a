package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

func (r *eventRepo) AppendAnswer(ctx context.Context, data AnswerEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO answer_events
		(sequence, timestamp, quiz_id, student_id, topic, question_id, answer, correct)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		seqNum, toMillis(time.Now()), data.QuizID, data.StudentID, data.Topic,
		data.QuestionID, data.Answer, data.Correct,
	)
	if err != nil {
		return fmt.Errorf("save answer event: %w", err)
	}
	return nil
}

// QueryAnswers returns a student's answer events in sequence order.
func (r *eventRepo) QueryAnswers(ctx context.Context, studentID string, opts QueryOpts) ([]AnswerEvent, error) {
	where := []string{"student_id = ?"}
	args := []any{studentID}
	where, args = appendWhere(where, args, opts)

	q := `SELECT id, sequence, timestamp, quiz_id, student_id, topic, question_id, answer, correct
		FROM answer_events WHERE ` + strings.Join(where, " AND ") + " ORDER BY sequence"
	if opts.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()

	var out []AnswerEvent
	for rows.Next() {
		var e AnswerEvent
		var ts int64
		if err := rows.Scan(&e.ID, &e.Sequence, &ts, &e.QuizID, &e.StudentID,
			&e.Topic, &e.QuestionID, &e.Answer, &e.Correct); err != nil {
			return nil, fmt.Errorf("scan answer event: %w", err)
		}
		e.Timestamp = fromMillis(ts)
		out = append(out, e)
	}
	return out, rows.Err()
}
