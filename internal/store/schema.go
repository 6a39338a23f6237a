package store

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are applied in order; the index+1 is the schema version.
// Append only.
var migrations = []string{
	`CREATE TABLE corpus_versions (
		version    TEXT PRIMARY KEY,
		model      TEXT NOT NULL,
		dimensions INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE TABLE corpus_chunks (
		version TEXT NOT NULL REFERENCES corpus_versions(version) ON DELETE CASCADE,
		id      INTEGER NOT NULL,
		source  TEXT NOT NULL,
		source_offset INTEGER NOT NULL,
		content TEXT NOT NULL,
		vector  BLOB NOT NULL,
		PRIMARY KEY (version, id)
	);
	CREATE TABLE mastery (
		student_id    TEXT NOT NULL,
		topic         TEXT NOT NULL,
		display_topic TEXT NOT NULL,
		correct       INTEGER NOT NULL,
		total         INTEGER NOT NULL,
		updated_at    INTEGER NOT NULL,
		PRIMARY KEY (student_id, topic)
	);
	CREATE TABLE quizzes (
		id         TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		topic      TEXT NOT NULL,
		difficulty TEXT NOT NULL,
		state      TEXT NOT NULL,
		questions  TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		graded_at  INTEGER
	);
	CREATE INDEX idx_quizzes_student ON quizzes(student_id, created_at);
	CREATE TABLE llm_request_events (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence      INTEGER NOT NULL,
		timestamp     INTEGER NOT NULL,
		provider      TEXT NOT NULL,
		model         TEXT NOT NULL,
		purpose       TEXT NOT NULL,
		input_tokens  INTEGER NOT NULL,
		output_tokens INTEGER NOT NULL,
		latency_ms    INTEGER NOT NULL,
		success       BOOLEAN NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		request_body  TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE answer_events (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence    INTEGER NOT NULL,
		timestamp   INTEGER NOT NULL,
		quiz_id     TEXT NOT NULL,
		student_id  TEXT NOT NULL,
		topic       TEXT NOT NULL,
		question_id INTEGER NOT NULL,
		answer      TEXT NOT NULL,
		correct     BOOLEAN NOT NULL
	);
	CREATE INDEX idx_answer_events_student ON answer_events(student_id, topic);`,
}

// migrate brings the schema up to date, tracking the applied version in
// PRAGMA user_version.
func migrate(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for i := version; i < len(migrations); i++ {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", i+1, err)
		}
		if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", i+1, err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", i+1, err)
		}
	}
	return nil
}
