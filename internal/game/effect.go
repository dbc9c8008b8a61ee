package game

import (
	"time"

	"github.com/quizroyale/quizroyale/internal/protocol"
	"github.com/quizroyale/quizroyale/internal/roster"
)

// Effect is a command the state machine asks its runtime to carry out.
// Apply itself performs no I/O and owns no timers; the engine executes
// the effects against the room, the clock and the UI sink.
type Effect interface {
	isEffect()
}

// BroadcastEvent publishes an event to the room.
type BroadcastEvent struct {
	Event protocol.Event
}

// DistributeQuestion asks a hosting client to broadcast the round's
// question in-band. The engine fills in the body from its bank.
type DistributeQuestion struct {
	Index int
}

// StartCountdown arms the pre-question countdown.
type StartCountdown struct {
	Version int
	Ticks   int
}

// StartClock starts the per-question answer clock from zero.
type StartClock struct {
	Version int
}

// StopClock stops the answer clock.
type StopClock struct{}

// ScheduleGrace arms the delay that keeps an elimination on screen
// before the next countdown.
type ScheduleGrace struct {
	Version int
	Delay   time.Duration
}

// PhaseChanged notifies the UI sink of a transition.
type PhaseChanged struct {
	Phase   Phase
	Payload any
}

// RosterChanged notifies the UI sink that the participant list moved.
type RosterChanged struct{}

func (BroadcastEvent) isEffect()     {}
func (DistributeQuestion) isEffect() {}
func (StartCountdown) isEffect()     {}
func (StartClock) isEffect()         {}
func (StopClock) isEffect()          {}
func (ScheduleGrace) isEffect()      {}
func (PhaseChanged) isEffect()       {}
func (RosterChanged) isEffect()      {}

// UI payloads attached to PhaseChanged notifications.

// CountdownInfo reports ticks remaining before the question.
type CountdownInfo struct {
	Remaining int
}

// QuestionInfo announces a round. Body is set when the question arrived
// in-band from a host; otherwise the UI reads its own bank by Index.
type QuestionInfo struct {
	Index int
	Body  *protocol.QuestionBody
}

// WrongAnswerInfo reports a rejected attempt; the clock keeps running.
type WrongAnswerInfo struct{}

// AnswerProgressInfo reports how many active participants have answered.
type AnswerProgressInfo struct {
	Answered int
	Active   int
	// Elapsed is the local submission time, set only on the client's
	// own accepted answer.
	Elapsed float64
}

// EliminationInfo reports the round's eliminated participant.
type EliminationInfo struct {
	PlayerID   string
	PlayerName string
	Elapsed    float64
	Self       bool
}

// GameOverInfo reports the end of the session. Winner fields are empty
// when the bank ran out with several participants standing, or when the
// host vanished.
type GameOverInfo struct {
	WinnerID   string
	WinnerName string
	Self       bool
	HostLost   bool
	Survivors  []roster.Participant
}

// UISink receives the engine's outbound notifications. The core never
// depends on anything a sink does.
type UISink interface {
	OnPhaseChange(phase Phase, payload any)
	OnRosterChange(players []roster.Participant)
	OnClockTick(elapsed float64)
	OnConnectionChange(connected bool)
}
