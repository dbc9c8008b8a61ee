package game

import "github.com/quizroyale/quizroyale/internal/protocol"

// Input is one occurrence the state machine reacts to: a received
// broadcast, a local action, or an expired timer. Apply never errors on
// any of them; inputs that no longer fit the current state are dropped
// as logged no-ops.
type Input interface {
	isInput()
}

// EventReceived carries a decoded room broadcast, including echoes of
// this client's own sends.
type EventReceived struct {
	Event protocol.Event
}

// AnswerSubmitted is the local participant's answer attempt, already
// checked against the question. A wrong attempt changes nothing; the
// clock keeps running and the participant may retry.
type AnswerSubmitted struct {
	Correct bool
	Elapsed float64
}

// CountdownFinished fires when the pre-question countdown elapses.
type CountdownFinished struct {
	Version int
}

// GraceExpired fires when the post-elimination grace delay elapses.
type GraceExpired struct {
	Version int
}

// PeerExited reports a transport-level disconnect of another client.
// Leaving is not losing: the participant is removed from the roster,
// never eliminated.
type PeerExited struct {
	PlayerID string
}

// StartRequested is an explicit local request to start the game from
// the lobby.
type StartRequested struct{}

func (EventReceived) isInput()     {}
func (AnswerSubmitted) isInput()   {}
func (CountdownFinished) isInput() {}
func (GraceExpired) isInput()      {}
func (PeerExited) isInput()        {}
func (StartRequested) isInput()    {}
