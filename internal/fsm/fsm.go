// Package fsm holds the gate pacing phases and the acceptance predicate.
package fsm

import "github.com/aegatekeeper/backend/internal/model/gate"

// Phase paces the doorkeeper's tone over the conversation. Phases are
// presentation only; acceptance is gated separately by ShouldAccept.
type Phase string

const (
	PhaseIntro      Phase = "intro"
	PhaseChallenge1 Phase = "challenge1"
	PhaseChallenge2 Phase = "challenge2"
	PhaseChallenge3 Phase = "challenge3"
	PhaseWarm       Phase = "warm"
	PhaseAccept     Phase = "accept"
)

// MinAcceptTurns is the floor below which callers must not evaluate
// ShouldAccept, so the door never opens on the first exchange.
const MinAcceptTurns = 8

// AcceptThreshold is the weighted readiness score that opens the door.
const AcceptThreshold = 0.65

// TurnCeiling forces resolution regardless of score.
const TurnCeiling = 12

// NextPhase maps a turn count to its phase. Total and monotonic.
func NextPhase(turn int) Phase {
	switch {
	case turn < 2:
		return PhaseIntro
	case turn < 5:
		return PhaseChallenge1
	case turn < 8:
		return PhaseChallenge2
	case turn < 10:
		return PhaseChallenge3
	case turn < TurnCeiling:
		return PhaseWarm
	default:
		return PhaseAccept
	}
}

// ShouldAccept reports whether the conversation has earned entry: either the
// weighted score clears the threshold or the turn ceiling forces a result.
func ShouldAccept(score gate.Score, turns int) bool {
	return score.Weighted() >= AcceptThreshold || turns >= TurnCeiling
}
