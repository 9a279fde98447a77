package chat

// Turn is one role's contribution to the transcript, built incrementally
// from streamed text.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// IsError marks a terminal crash or rejection turn. Set at most once,
	// never cleared; once true the turn is frozen and the conversation ends.
	IsError bool `json:"is_error"`
}

// Message is the wire form of a turn sent to the generation service.
// Error state is local bookkeeping and never leaves the process.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
