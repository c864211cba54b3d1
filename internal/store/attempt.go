package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type attemptRepo struct {
	db *sql.DB
}

func (r *attemptRepo) Record(ctx context.Context, a Attempt) (string, error) {
	if a.Total < 0 || a.Correct < 0 || a.Correct > a.Total {
		return "", fmt.Errorf("invalid attempt score %d/%d", a.Correct, a.Total)
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO attempts
		(id, quiz_id, player, correct, total, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.QuizID, a.Player, a.Correct, a.Total,
		a.Duration.Milliseconds(), a.CreatedAt.UnixMilli())
	if err != nil {
		return "", fmt.Errorf("insert attempt: %w", err)
	}
	return a.ID, nil
}

func (r *attemptRepo) Leaderboard(ctx context.Context, quizID string, limit int) ([]LeaderboardEntry, error) {
	q := `SELECT id, quiz_id, player, correct, total, duration_ms, created_at
		FROM attempts
		WHERE quiz_id = ?
		ORDER BY CASE WHEN total = 0 THEN 0 ELSE correct * 1.0 / total END DESC,
			duration_ms ASC, created_at ASC`
	args := []any{quizID}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []LeaderboardEntry
	for rows.Next() {
		var (
			a                   Attempt
			durationMs, created int64
		)
		if err := rows.Scan(&a.ID, &a.QuizID, &a.Player, &a.Correct, &a.Total, &durationMs, &created); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.Duration = time.Duration(durationMs) * time.Millisecond
		a.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, LeaderboardEntry{Rank: len(out) + 1, Attempt: a})
	}
	return out, rows.Err()
}
