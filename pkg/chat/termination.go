package chat

// MaxTurns is the fixed conversation cap: six full exchanges.
const MaxTurns = 12

// Ended reports whether the conversation is over. It is a pure predicate over
// the log and mode, re-evaluated after every log mutation:
//
//  1. a terminal error turn ends the conversation immediately;
//  2. reaching the turn cap ends it;
//  3. otherwise it continues.
//
// The mode parameter is part of the contract so mode-aware rules can be added
// without touching call sites; the current rules apply to both modes.
func Ended(log *Log, mode Mode) bool {
	if last := log.Last(); last != nil && last.IsError {
		return true
	}
	return log.Len() >= MaxTurns
}
