// Package usage tracks the tokens consumed by completion calls over the life of the process.
package usage

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Counter is a process-lifetime total of reported completion tokens.
// The zero value is ready to use; share it by pointer.
type Counter struct {
	total atomic.Int64
}

// NewCounter returns a counter starting at zero.
func NewCounter() *Counter {
	return &Counter{}
}

// Add increments the total. Negative values are ignored.
func (c *Counter) Add(tokens int64) {
	if tokens <= 0 {
		return
	}
	c.total.Add(tokens)
}

// Total returns the current total.
func (c *Counter) Total() int64 {
	return c.total.Load()
}

// Entry is one completion recorded in a Journal.
type Entry struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"userId"`
	Section     string    `json:"section"`
	ToolName    string    `json:"toolName"`
	TotalTokens int64     `json:"totalTokens"`
	Streamed    bool      `json:"streamed"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewEntry fills the ID and timestamp of an entry.
func NewEntry(userID, section, toolName string, tokens int64, streamed bool) Entry {
	return Entry{
		ID:          uuid.New(),
		UserID:      userID,
		Section:     section,
		ToolName:    toolName,
		TotalTokens: tokens,
		Streamed:    streamed,
		CreatedAt:   time.Now().UTC(),
	}
}

// Journal persists individual completions. It never feeds back into Counter.
type Journal interface {
	Record(ctx context.Context, entry Entry) error
}

// NopJournal discards every entry.
type NopJournal struct{}

// Record implements Journal.
func (NopJournal) Record(context.Context, Entry) error { return nil }

// UserTotal aggregates the journal rows of one user.
type UserTotal struct {
	UserID      string    `json:"userId"`
	Requests    int64     `json:"requests"`
	TotalTokens int64     `json:"totalTokens"`
	LastSeen    time.Time `json:"lastSeen"`
}

// Reporter reads back what a Journal stored. Unlike Counter it survives restarts.
type Reporter interface {
	ByUser(ctx context.Context) ([]UserTotal, error)
	Recent(ctx context.Context, limit int) ([]Entry, error)
}
