package engine

import "github.com/quarrelhq/quarrel/pkg/chat"

// State is the session's scheduler state.
type State int

const (
	// StateWaitingKickoff means no turn exists yet.
	StateWaitingKickoff State = iota

	// StateGenerating means a stream ingestion is in flight.
	StateGenerating

	// StateAwaitingHuman means the floor belongs to the human player.
	StateAwaitingHuman

	// StateEnded is terminal; the only remaining action is teardown.
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateWaitingKickoff:
		return "waiting-kickoff"
	case StateGenerating:
		return "generating"
	case StateAwaitingHuman:
		return "awaiting-human"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// EndReason says why a conversation ended.
type EndReason int

const (
	// EndTurnCap means the fixed turn cap was reached.
	EndTurnCap EndReason = iota

	// EndError means a terminal crash or rejection turn was written.
	EndError
)

// Event is a notification emitted by the session for read-only observers.
// Observers render from Snapshot; events only say that something changed.
type Event interface{ event() }

// TurnOpened announces a new (possibly still empty) turn at Index.
type TurnOpened struct {
	Index int
	Role  chat.Role
}

// TurnDelta announces streamed text appended to the turn at Index.
type TurnDelta struct {
	Index int
	Text  string
}

// TurnSettled announces that the turn at Index will not change again.
type TurnSettled struct {
	Index int
}

// StateChanged announces a scheduler state transition.
type StateChanged struct {
	State State
}

// ConversationEnded announces terminal state with its reason.
type ConversationEnded struct {
	Reason EndReason
}

func (TurnOpened) event()        {}
func (TurnDelta) event()         {}
func (TurnSettled) event()       {}
func (StateChanged) event()      {}
func (ConversationEnded) event() {}
