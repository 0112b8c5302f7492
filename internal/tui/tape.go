// Package tui renders pipeline progress in the terminal.
package tui

import (
	"io"
	"sync"

	"github.com/vito/progrock"
)

const tapeBuffer = 256

// TapeSource is an interface for reading progrock updates.
type TapeSource interface {
	Read() (*progrock.StatusUpdate, error)
}

var (
	_ progrock.Writer = (*Tape)(nil)
	_ TapeSource      = (*Tape)(nil)
)

// Tape is a progrock.Writer that queues status updates for a single reader.
type Tape struct {
	updates chan *progrock.StatusUpdate
	done    chan struct{}

	mu     sync.Mutex
	closed bool
	stop   sync.Once
}

// NewTape creates an empty Tape.
func NewTape() *Tape {
	return &Tape{
		updates: make(chan *progrock.StatusUpdate, tapeBuffer),
		done:    make(chan struct{}),
	}
}

// WriteStatus queues update. Updates written after the reader stopped are
// dropped.
func (t *Tape) WriteStatus(update *progrock.StatusUpdate) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	select {
	case t.updates <- update:
	case <-t.done:
	}
	return nil
}

// Read returns the next update, or io.EOF once the tape is closed and
// drained.
func (t *Tape) Read() (*progrock.StatusUpdate, error) {
	update, ok := <-t.updates
	if !ok {
		return nil, io.EOF
	}
	return update, nil
}

// Close ends the tape. Pending updates remain readable.
func (t *Tape) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.updates)
	}
	return nil
}

// release unblocks writers once the reader has gone away.
func (t *Tape) release() {
	t.stop.Do(func() { close(t.done) })
}
