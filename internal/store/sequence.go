package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Sequence names.
const seqLLMEvents = "llm_request_events"

// sequences hands out monotonic numbers per name from the sequences table.
// Unlike AUTOINCREMENT row IDs they stay stable when rows are copied into
// another database, so QueryOpts.After cursors remain valid.
type sequences struct {
	db *sql.DB
}

// Next returns the next value of the named sequence, starting at 1. The
// upsert is a single statement, so concurrent callers never share a value.
func (s *sequences) Next(ctx context.Context, name string) (int64, error) {
	var v int64
	err := s.db.QueryRowContext(ctx, `INSERT INTO sequences (name, next_val) VALUES (?, 2)
		ON CONFLICT (name) DO UPDATE SET next_val = next_val + 1
		RETURNING next_val - 1`, name).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("next %s sequence: %w", name, err)
	}
	return v, nil
}
