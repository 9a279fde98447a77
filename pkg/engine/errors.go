// Package engine implements the turn orchestration core: a session state
// machine that decides who speaks next, a single-flight stream ingester that
// materializes generated turns into the conversation log, and the generation
// client both are built on.
package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy means a generation call was attempted while another was in
	// flight. The call is dropped, not queued.
	ErrBusy = errors.New("engine: generation already in flight")

	// ErrNotAwaitingHuman means a human turn was submitted while the session
	// was not waiting for one. The turn is rejected locally and never reaches
	// the transcript.
	ErrNotAwaitingHuman = errors.New("engine: session is not awaiting human input")

	// ErrEmptyInput means a human turn contained no text.
	ErrEmptyInput = errors.New("engine: human turn is empty")
)

// TransportError is a non-success response from a generation endpoint. The
// body is the upstream error description and is surfaced verbatim.
type TransportError struct {
	Status int
	Body   string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("[HTTP %d] %s", e.Status, e.Body)
}

// Synthetic messages written into terminal turns. The rejection message marks
// an upstream content-policy refusal, the crash prefix a connectivity failure;
// the two must stay distinguishable for the user.
const (
	rejectionNotice = "🚨 the model refused to answer (likely tripped a safety filter)"
	crashNoticeFmt  = "\n\n🚨 connection crashed: %s"
)
