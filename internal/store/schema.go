package store

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied on every Open. Statements must stay idempotent.
// Timestamps are unix milliseconds.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS quizzes (
		id                TEXT PRIMARY KEY,
		title             TEXT NOT NULL,
		difficulty        TEXT NOT NULL,
		requested_count   INTEGER NOT NULL,
		taxonomy_override TEXT NOT NULL DEFAULT '',
		source_text       TEXT NOT NULL,
		status            TEXT NOT NULL,
		refined           INTEGER NOT NULL DEFAULT 0,
		error_message     TEXT NOT NULL DEFAULT '',
		created_at        INTEGER NOT NULL,
		updated_at        INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS quizzes_created_at ON quizzes (created_at)`,

	`CREATE TABLE IF NOT EXISTS questions (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		quiz_id      TEXT NOT NULL REFERENCES quizzes (id) ON DELETE CASCADE,
		position     INTEGER NOT NULL,
		category     TEXT NOT NULL,
		text         TEXT NOT NULL,
		source_quote TEXT NOT NULL DEFAULT '',
		explanation  TEXT NOT NULL DEFAULT '',
		UNIQUE (quiz_id, position)
	)`,

	`CREATE TABLE IF NOT EXISTS options (
		question_id INTEGER NOT NULL REFERENCES questions (id) ON DELETE CASCADE,
		position    INTEGER NOT NULL,
		text        TEXT NOT NULL,
		is_correct  INTEGER NOT NULL,
		PRIMARY KEY (question_id, position)
	)`,

	`CREATE TABLE IF NOT EXISTS attempts (
		id          TEXT PRIMARY KEY,
		quiz_id     TEXT NOT NULL REFERENCES quizzes (id) ON DELETE CASCADE,
		player      TEXT NOT NULL,
		correct     INTEGER NOT NULL,
		total       INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		created_at  INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS attempts_quiz_id ON attempts (quiz_id)`,

	`CREATE TABLE IF NOT EXISTS llm_request_events (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence      INTEGER NOT NULL,
		timestamp     INTEGER NOT NULL,
		provider      TEXT NOT NULL,
		model         TEXT NOT NULL,
		purpose       TEXT NOT NULL,
		input_tokens  INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms    INTEGER NOT NULL DEFAULT 0,
		success       INTEGER NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		request_body  TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS llm_request_events_sequence ON llm_request_events (sequence)`,

	`CREATE TABLE IF NOT EXISTS sequences (
		name     TEXT PRIMARY KEY,
		next_val INTEGER NOT NULL
	)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}
	return tx.Commit()
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
