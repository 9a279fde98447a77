// Package chat provides the internal representation of a quarrel transcript:
// roles, turns, the append-only conversation log, and the pure rules that
// decide who speaks next and when the quarrel is over.
package chat

// Role identifies the speaking side of a turn.
type Role string

const (
	// RoleJudge is the furious witness who opens the quarrel.
	RoleJudge Role = "judge"

	// RolePartner is the side that screwed up and refuses to admit it.
	RolePartner Role = "partner"
)

// Opponent returns the other speaking side.
func (r Role) Opponent() Role {
	if r == RoleJudge {
		return RolePartner
	}
	return RoleJudge
}

// Valid reports whether r is one of the two speaking sides.
func (r Role) Valid() bool {
	return r == RoleJudge || r == RolePartner
}

// Mode selects how the two sides are driven.
type Mode string

const (
	// ModeAuto drives both sides from the generation service.
	ModeAuto Mode = "AUTO"

	// ModeHalf lets a human play one side (fixed by the session's user role)
	// while the other side is machine-driven.
	ModeHalf Mode = "HALF"
)

// NextSpeaker decides the next action after a settled log change.
//
// It returns the role whose turn should be generated next, or awaitHuman=true
// when the floor belongs to the human player and no generation may happen
// until a human turn is appended. The judge always opens the conversation.
func NextSpeaker(mode Mode, userRole Role, last *Turn) (next Role, awaitHuman bool) {
	if last == nil {
		if mode == ModeHalf && userRole == RoleJudge {
			return RoleJudge, true
		}
		return RoleJudge, false
	}

	if mode == ModeAuto {
		return last.Role.Opponent(), false
	}

	// HALF mode: a machine turn hands the floor to the human; a human turn
	// triggers the opposing machine side.
	if last.Role == userRole {
		return userRole.Opponent(), false
	}
	return userRole, true
}
