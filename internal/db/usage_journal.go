package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-writer/internal/usage"
)

// ErrNotConnected is returned by journal calls made without a pool.
var ErrNotConnected = errors.New("usage journal is not connected")

// UsageJournal records one row per completion and reports on them. It implements usage.Journal
// and usage.Reporter.
type UsageJournal struct {
	db *DB
}

var (
	_ usage.Journal  = (*UsageJournal)(nil)
	_ usage.Reporter = (*UsageJournal)(nil)
)

// NewUsageJournal returns a journal backed by db.
func NewUsageJournal(db *DB) *UsageJournal {
	return &UsageJournal{db: db}
}

// Record inserts an entry. Entries without an ID get a fresh one.
func (j *UsageJournal) Record(ctx context.Context, e usage.Entry) error {
	if j == nil || j.db == nil || j.db.pool == nil {
		return ErrNotConnected
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := j.db.pool.Exec(ctx,
		`INSERT INTO token_usage (id, user_id, section, tool_name, total_tokens, streamed, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.UserID, e.Section, e.ToolName, e.TotalTokens, e.Streamed, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record token usage: %w", err)
	}
	return nil
}

// Recent returns the latest entries, newest first.
func (j *UsageJournal) Recent(ctx context.Context, limit int) ([]usage.Entry, error) {
	if j == nil || j.db == nil || j.db.pool == nil {
		return nil, ErrNotConnected
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := j.db.pool.Query(ctx,
		`SELECT id, user_id, section, tool_name, total_tokens, streamed, created_at
		 FROM token_usage ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list token usage: %w", err)
	}
	defer rows.Close()

	var entries []usage.Entry
	for rows.Next() {
		var e usage.Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Section, &e.ToolName, &e.TotalTokens, &e.Streamed, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan token usage: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ByUser aggregates journal rows per user, heaviest first.
func (j *UsageJournal) ByUser(ctx context.Context) ([]usage.UserTotal, error) {
	if j == nil || j.db == nil || j.db.pool == nil {
		return nil, ErrNotConnected
	}

	rows, err := j.db.pool.Query(ctx,
		`SELECT user_id, COUNT(*), COALESCE(SUM(total_tokens), 0), MAX(created_at)
		 FROM token_usage GROUP BY user_id ORDER BY 3 DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate token usage: %w", err)
	}
	defer rows.Close()

	var out []usage.UserTotal
	for rows.Next() {
		var u usage.UserTotal
		if err := rows.Scan(&u.UserID, &u.Requests, &u.TotalTokens, &u.LastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan usage aggregate: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
