// Package stream re-emits a completed description as paced, framed units over one response channel.
package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonathan/resume-writer/internal/types"
)

// DefaultDelay is the pause between two emitted units.
const DefaultDelay = 20 * time.Millisecond

// State is the segmenter's position in its single-pass lifecycle.
type State int

const (
	AwaitingResult State = iota
	Segmenting
	Done
	Errored
)

func (s State) String() string {
	switch s {
	case AwaitingResult:
		return "awaiting_result"
	case Segmenting:
		return "segmenting"
	case Done:
		return "done"
	case Errored:
		return "errored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrAlreadyRun is returned when Run is called a second time.
var ErrAlreadyRun = errors.New("segmenter already ran")

// FrameWriter is the response channel a segmenter owns while running.
type FrameWriter interface {
	// WriteData emits one unit.
	WriteData(unit string) error
	// WriteDone emits the completion marker.
	WriteDone() error
	// WriteError emits the terminal error marker.
	WriteError(message string) error
}

// Resolver produces the description to stream, typically by running a dispatch.
type Resolver func(ctx context.Context) (types.Description, error)

// StreamMessager is implemented by errors that carry their own error-frame text.
type StreamMessager interface {
	StreamMessage() string
}

// Segmenter drives one stream: AwaitingResult, then Segmenting, then Done, or Errored from any state.
type Segmenter struct {
	w     FrameWriter
	delay time.Duration

	mu    sync.Mutex
	state State
	ran   bool
}

// New creates a segmenter writing to w with delay between units. A negative delay means DefaultDelay.
func New(w FrameWriter, delay time.Duration) *Segmenter {
	if delay < 0 {
		delay = DefaultDelay
	}
	return &Segmenter{w: w, delay: delay, state: AwaitingResult}
}

// State returns the current state.
func (s *Segmenter) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Segmenter) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Run resolves the description and streams it. It writes exactly one terminal frame unless
// ctx is cancelled, in which case it stops without writing anything further.
func (s *Segmenter) Run(ctx context.Context, resolve Resolver) error {
	s.mu.Lock()
	if s.ran {
		s.mu.Unlock()
		return ErrAlreadyRun
	}
	s.ran = true
	s.mu.Unlock()

	desc, err := resolve(ctx)
	if err != nil {
		s.setState(Errored)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if werr := s.w.WriteError(ErrorMessage(err)); werr != nil {
			return fmt.Errorf("write error frame: %w", werr)
		}
		return err
	}

	s.setState(Segmenting)
	for i, unit := range desc.Units() {
		if i > 0 && !s.pause(ctx) {
			s.setState(Errored)
			return ctx.Err()
		}
		if ctx.Err() != nil {
			s.setState(Errored)
			return ctx.Err()
		}
		if err := s.w.WriteData(unit); err != nil {
			s.setState(Errored)
			return fmt.Errorf("write data frame: %w", err)
		}
	}

	if err := s.w.WriteDone(); err != nil {
		s.setState(Errored)
		return fmt.Errorf("write done frame: %w", err)
	}
	s.setState(Done)
	return nil
}

// pause waits for the pacing delay. It reports false if ctx ended first.
func (s *Segmenter) pause(ctx context.Context) bool {
	if s.delay == 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// ErrorMessage returns the error-frame text for err.
func ErrorMessage(err error) string {
	var sm StreamMessager
	if errors.As(err, &sm) {
		return sm.StreamMessage()
	}
	return "AI service error: " + err.Error()
}
