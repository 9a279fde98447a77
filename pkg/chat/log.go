package chat

import (
	"errors"
	"sync"
)

// ErrEmptyLog is returned by UpdateLast when there is no turn to update.
var ErrEmptyLog = errors.New("chat: conversation log is empty")

// Log is the ordered, append-only sequence of turns and the single source of
// truth for transcript state.
//
// There is exactly one writer at any instant (the ingester for the in-flight
// turn, or the human-input handler), enforced by the session's single-flight
// discipline. The mutex only makes snapshots safe for concurrent read-only
// observers such as the TUI.
type Log struct {
	mu    sync.RWMutex
	turns []Turn
}

// NewLog creates an empty conversation log.
func NewLog() *Log {
	return &Log{}
}

// Append adds a turn at the end of the log.
func (l *Log) Append(t Turn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.turns = append(l.turns, t)
}

// UpdateLast applies a mutation to the last turn. It is the only way existing
// content changes: the ingester uses it to append streamed increments and to
// stamp terminal error state.
func (l *Log) UpdateLast(mutate func(*Turn)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.turns) == 0 {
		return ErrEmptyLog
	}
	mutate(&l.turns[len(l.turns)-1])
	return nil
}

// Len returns the number of turns.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.turns)
}

// Last returns a copy of the last turn, or nil if the log is empty.
func (l *Log) Last() *Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.turns) == 0 {
		return nil
	}
	t := l.turns[len(l.turns)-1]
	return &t
}

// All returns an ordered snapshot of every turn.
func (l *Log) All() []Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

// Messages returns the transcript reduced to its wire form, oldest first.
func (l *Log) Messages() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Message, len(l.turns))
	for i, t := range l.turns {
		out[i] = Message{Role: t.Role, Content: t.Content}
	}
	return out
}
