package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrQuizNotFound is returned by writes that target a missing quiz.
var ErrQuizNotFound = errors.New("quiz not found")

type quizRepo struct {
	db *sql.DB
}

func (r *quizRepo) Create(ctx context.Context, q NewQuiz) (string, error) {
	id := uuid.NewString()
	now := time.Now().UnixMilli()

	_, err := r.db.ExecContext(ctx, `INSERT INTO quizzes
		(id, title, difficulty, requested_count, taxonomy_override, source_text,
		 status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, q.Title, q.Difficulty, q.RequestedCount, q.TaxonomyOverride, q.SourceText,
		string(StatusGenerating), now, now,
	)
	if err != nil {
		return "", fmt.Errorf("insert quiz: %w", err)
	}
	return id, nil
}

func (r *quizRepo) SaveQuestions(ctx context.Context, quizID string, refined bool, questions []StoredQuestion) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE quizzes SET status = ?, refined = ?, error_message = '', updated_at = ? WHERE id = ?`,
		string(StatusReady), refined, time.Now().UnixMilli(), quizID)
	if err != nil {
		return fmt.Errorf("update quiz: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrQuizNotFound, quizID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE quiz_id = ?`, quizID); err != nil {
		return fmt.Errorf("clear questions: %w", err)
	}

	for i, q := range questions {
		res, err := tx.ExecContext(ctx, `INSERT INTO questions
			(quiz_id, position, category, text, source_quote, explanation)
			VALUES (?, ?, ?, ?, ?, ?)`,
			quizID, i, q.Category, q.Text, q.SourceQuote, q.Explanation)
		if err != nil {
			return fmt.Errorf("insert question %d: %w", i, err)
		}
		qid, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("question id: %w", err)
		}
		for j, o := range q.Options {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO options (question_id, position, text, is_correct) VALUES (?, ?, ?, ?)`,
				qid, j, o.Text, o.IsCorrect)
			if err != nil {
				return fmt.Errorf("insert option %d of question %d: %w", j, i, err)
			}
		}
	}

	return tx.Commit()
}

func (r *quizRepo) MarkFailed(ctx context.Context, quizID string, reason string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE quizzes SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		string(StatusFailed), reason, time.Now().UnixMilli(), quizID)
	if err != nil {
		return fmt.Errorf("mark quiz failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrQuizNotFound, quizID)
	}
	return nil
}

const quizMetaColumns = `q.id, q.title, q.difficulty, q.requested_count, q.taxonomy_override,
	q.status, q.refined, q.error_message, q.created_at, q.updated_at,
	(SELECT COUNT(*) FROM questions WHERE quiz_id = q.id)`

func (r *quizRepo) Get(ctx context.Context, quizID string) (*Quiz, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+quizMetaColumns+", q.source_text FROM quizzes q WHERE q.id = ?", quizID)

	var quiz Quiz
	meta, err := scanQuizMeta(row, &quiz.SourceText)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	quiz.QuizMeta = *meta

	questions, err := r.loadQuestions(ctx, quizID)
	if err != nil {
		return nil, err
	}
	quiz.Questions = questions
	return &quiz, nil
}

// loadQuestions reads questions and options in position order with one
// joined query.
func (r *quizRepo) loadQuestions(ctx context.Context, quizID string) ([]StoredQuestion, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT qu.id, qu.position, qu.category, qu.text,
		qu.source_quote, qu.explanation, o.text, o.is_correct
		FROM questions qu
		LEFT JOIN options o ON o.question_id = qu.id
		WHERE qu.quiz_id = ?
		ORDER BY qu.position, o.position`, quizID)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var (
		out    []StoredQuestion
		lastID int64 = -1
	)
	for rows.Next() {
		var (
			id         int64
			q          StoredQuestion
			optText    sql.NullString
			optCorrect sql.NullBool
		)
		if err := rows.Scan(&id, &q.Position, &q.Category, &q.Text,
			&q.SourceQuote, &q.Explanation, &optText, &optCorrect); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if id != lastID {
			out = append(out, q)
			lastID = id
		}
		if optText.Valid {
			cur := &out[len(out)-1]
			cur.Options = append(cur.Options, StoredOption{Text: optText.String, IsCorrect: optCorrect.Bool})
		}
	}
	return out, rows.Err()
}

func (r *quizRepo) List(ctx context.Context, limit int) ([]QuizMeta, error) {
	q := "SELECT " + quizMetaColumns + " FROM quizzes q ORDER BY q.created_at DESC, q.id"
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var out []QuizMeta
	for rows.Next() {
		m, err := scanQuizMeta(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *quizRepo) Delete(ctx context.Context, quizID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id = ?`, quizID)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrQuizNotFound, quizID)
	}
	return nil
}

func scanQuizMeta(s rowScanner, extra ...any) (*QuizMeta, error) {
	var (
		m                QuizMeta
		status           string
		created, updated int64
	)
	dest := []any{&m.ID, &m.Title, &m.Difficulty, &m.RequestedCount, &m.TaxonomyOverride,
		&status, &m.Refined, &m.ErrorMessage, &created, &updated, &m.QuestionCount}
	dest = append(dest, extra...)

	if err := s.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan quiz: %w", err)
	}
	m.Status = QuizStatus(status)
	m.CreatedAt = time.UnixMilli(created).UTC()
	m.UpdatedAt = time.UnixMilli(updated).UTC()
	return &m, nil
}
