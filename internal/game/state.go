// Package game implements the distributed synchronization core of the
// elimination quiz: the phase state machine, the answer arbiter and the
// coordination strategies that keep independent clients convergent over
// an unordered, at-least-once broadcast channel.
package game

import (
	"time"

	"github.com/quizroyale/quizroyale/internal/protocol"
	"github.com/quizroyale/quizroyale/internal/roster"
)

// Phase is the client's position in the game lifecycle.
type Phase string

const (
	PhaseLobby       Phase = "lobby"
	PhaseCountdown   Phase = "countdown"
	PhaseQuestion    Phase = "question"
	PhaseCollecting  Phase = "collecting"
	PhaseEliminating Phase = "eliminating"
	PhaseGameOver    Phase = "game-over"
)

// AnswerRecord is one participant's correct answer for the current
// round, ranked by the arbiter when the set completes.
type AnswerRecord struct {
	PlayerID   string
	PlayerName string
	// Elapsed is the answering client's own clock reading in seconds.
	// Clocks start on local question receipt, so readings skew by
	// network propagation; the design accepts that.
	Elapsed float64
	Round   int
}

// Rules are the fixed parameters of a session. Every client of a room
// must run the same rules.
type Rules struct {
	MinPlayers     int
	CountdownTicks int
	// TickInterval paces countdown ticks.
	TickInterval time.Duration
	// ClockInterval paces the per-question answer clock.
	ClockInterval time.Duration
	// GraceDelay holds the elimination on screen before the next round.
	GraceDelay    time.Duration
	QuestionCount int
}

// DefaultRules returns the standard session parameters.
func DefaultRules(questionCount int) Rules {
	return Rules{
		MinPlayers:     2,
		CountdownTicks: 3,
		TickInterval:   time.Second,
		ClockInterval:  100 * time.Millisecond,
		GraceDelay:     3 * time.Second,
		QuestionCount:  questionCount,
	}
}

// State is one client's view of the shared game. Each client owns its
// copy outright; consistency comes only from every client applying the
// same broadcast events, so State is a value that Apply transforms
// without touching the original.
type State struct {
	SelfID   string
	SelfName string

	Phase Phase
	// Round is the current question index, -1 before the first round.
	// It only ever increases.
	Round int
	// Version counts phase and round transitions. Timers carry the
	// version they were armed under and fire as no-ops when it has
	// moved on.
	Version int

	Roster roster.Roster

	// Answers holds the current round's records in arrival order.
	Answers []AnswerRecord
	// Submitted blocks further local submissions for this round.
	Submitted bool

	// Eliminated marks this client out of the game: it keeps observing
	// the broadcast stream read-only and takes no further actions.
	Eliminated bool

	WinnerID   string
	WinnerName string

	// CurrentQuestion is the host-distributed question body, when the
	// session runs host-coordinated. Peer sessions read their own bank.
	CurrentQuestion *protocol.QuestionBody

	// lastElimRound is the highest round an elimination was applied
	// for; at most one elimination is accepted per round.
	lastElimRound int

	applied map[protocol.Key]struct{}
}

// NewState creates the lobby state with the local participant enrolled.
func NewState(selfID, selfName string) State {
	s := State{
		SelfID:        selfID,
		SelfName:      selfName,
		Phase:         PhaseLobby,
		Round:         -1,
		lastElimRound: -1,
		applied:       make(map[protocol.Key]struct{}),
	}
	s.Roster.Add(selfID, selfName, true)
	return s
}

// Over reports whether the session has ended.
func (s *State) Over() bool {
	return s.Phase == PhaseGameOver
}

func (s *State) isApplied(k protocol.Key) bool {
	_, ok := s.applied[k]
	return ok
}

func (s *State) markApplied(k protocol.Key) {
	if s.applied == nil {
		s.applied = make(map[protocol.Key]struct{})
	}
	s.applied[k] = struct{}{}
}

// clone detaches all shared structures so the returned state can be
// mutated without aliasing the receiver.
func (s State) clone() State {
	s.Roster = s.Roster.Clone()
	s.Answers = append([]AnswerRecord(nil), s.Answers...)
	applied := make(map[protocol.Key]struct{}, len(s.applied))
	for k := range s.applied {
		applied[k] = struct{}{}
	}
	s.applied = applied
	return s
}
