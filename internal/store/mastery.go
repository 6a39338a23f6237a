package store

import (
	"context"
	"database/sql"
	"fmt"
)

type masteryRepo struct {
	db *sql.DB
}

func (r *masteryRepo) UpsertMastery(ctx context.Context, row MasteryRow) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO mastery
		(student_id, topic, display_topic, correct, total, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (student_id, topic) DO UPDATE SET
			display_topic = excluded.display_topic,
			correct = excluded.correct,
			total = excluded.total,
			updated_at = excluded.updated_at`,
		row.StudentID, row.Topic, row.DisplayTopic, row.Correct, row.Total, toMillis(row.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert mastery %s/%s: %w", row.StudentID, row.Topic, err)
	}
	return nil
}

func (r *masteryRepo) DeleteStudent(ctx context.Context, studentID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM mastery WHERE student_id = ?`, studentID); err != nil {
		return fmt.Errorf("delete mastery for %s: %w", studentID, err)
	}
	return nil
}

func (r *masteryRepo) ListMastery(ctx context.Context) ([]MasteryRow, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT student_id, topic, display_topic, correct, total, updated_at
		FROM mastery ORDER BY student_id, topic`)
	if err != nil {
		return nil, fmt.Errorf("list mastery: %w", err)
	}
	defer rows.Close()

	var out []MasteryRow
	for rows.Next() {
		var m MasteryRow
		var updated int64
		if err := rows.Scan(&m.StudentID, &m.Topic, &m.DisplayTopic, &m.Correct, &m.Total, &updated); err != nil {
			return nil, fmt.Errorf("scan mastery: %w", err)
		}
		m.UpdatedAt = fromMillis(updated)
		out = append(out, m)
	}
	return out, rows.Err()
}
