package game

import (
	"github.com/rs/zerolog/log"

	"github.com/quizroyale/quizroyale/internal/protocol"
)

// Machine is the pure transition core. Apply consumes one input and
// returns the next state plus the effects to execute; it performs no
// I/O, owns no timers and never fails. Inputs that no longer fit the
// state (stale rounds, duplicate events, timers from a superseded
// phase) are dropped as no-ops, which is what keeps application
// idempotent under at-least-once delivery and self-echoed broadcasts.
type Machine struct {
	Rules Rules
	Coord Coordinator
}

// NewMachine builds a transition core from session rules and a
// coordination strategy.
func NewMachine(rules Rules, coord Coordinator) *Machine {
	return &Machine{Rules: rules, Coord: coord}
}

// Apply advances the state by one input.
func (m *Machine) Apply(s State, in Input) (State, []Effect) {
	s = s.clone()

	switch in := in.(type) {
	case EventReceived:
		return m.applyEvent(s, in.Event)
	case AnswerSubmitted:
		return m.applySubmission(s, in)
	case CountdownFinished:
		if in.Version != s.Version || s.Phase != PhaseCountdown {
			log.Debug().Int("version", in.Version).Int("current", s.Version).Msg("stale countdown timer")
			return s, nil
		}
		return m.advanceRound(s)
	case GraceExpired:
		if in.Version != s.Version || s.Phase != PhaseEliminating {
			log.Debug().Int("version", in.Version).Int("current", s.Version).Msg("stale grace timer")
			return s, nil
		}
		return m.beginCountdown(s)
	case PeerExited:
		return m.applyExit(s, in.PlayerID)
	case StartRequested:
		if s.Phase != PhaseLobby {
			return s, nil
		}
		if s.Roster.ActiveCount() < m.Rules.MinPlayers {
			log.Info().Int("active", s.Roster.ActiveCount()).Int("min", m.Rules.MinPlayers).Msg("quorum not met, staying in lobby")
			return s, nil
		}
		return m.localBroadcast(s, protocol.NewStartGame())
	default:
		return s, nil
	}
}

// localBroadcast applies an event this client produced through the same
// transition path every other client will use, and emits the broadcast.
// The echoed copy coming back from the room deduplicates by key.
func (m *Machine) localBroadcast(s State, ev protocol.Event) (State, []Effect) {
	next, effects := m.applyEvent(s, ev)
	return next, append([]Effect{BroadcastEvent{Event: ev}}, effects...)
}

func (m *Machine) applyEvent(s State, ev protocol.Event) (State, []Effect) {
	// Presence never enters the applied set: clients re-announce after
	// every reconnect, and a participant removed on exit must be
	// re-addable when they rejoin. Roster.Add is the dedup for these.
	if ev.Kind() != protocol.KindPlayerReady && s.isApplied(ev.Key()) {
		log.Debug().Str("kind", string(ev.Kind())).Msg("duplicate event, already applied")
		return s, nil
	}

	switch ev := ev.(type) {
	case protocol.PlayerReady:
		return m.applyPlayerReady(s, ev)
	case protocol.StartGame:
		return m.applyStartGame(s, ev)
	case protocol.StartQuestion:
		return m.applyStartQuestion(s, ev)
	case protocol.PlayerAnswer:
		return m.applyPlayerAnswer(s, ev)
	case protocol.PlayerEliminated:
		return m.applyElimination(s, ev)
	case protocol.GameOver:
		return m.applyGameOver(s, ev.WinnerID, ev.WinnerName, false)
	case protocol.HostDisconnected:
		return m.applyGameOver(s, "", "", true)
	default:
		log.Debug().Str("kind", string(ev.Kind())).Msg("ignoring unhandled event kind")
		return s, nil
	}
}

func (m *Machine) applyPlayerReady(s State, ev protocol.PlayerReady) (State, []Effect) {
	// Participants announcing after the start come in as spectators so
	// they never block the answer quorum.
	if !s.Roster.Add(ev.ID, ev.Name, s.Phase == PhaseLobby) {
		return s, nil
	}
	log.Info().Str("player_id", ev.ID).Str("name", ev.Name).Msg("participant joined")

	effects := []Effect{RosterChanged{}}
	if ev.ID != s.SelfID && s.Phase == PhaseLobby {
		// Announce back: on transports without enter notices this
		// gossip is how a joiner learns the existing roster. Peers that
		// already know us absorb the repeat as a duplicate.
		effects = append(effects, BroadcastEvent{Event: protocol.NewPlayerReady(s.SelfID, s.SelfName)})
	}
	if s.Phase == PhaseLobby && m.Coord.ShouldStart(&s) {
		next, more := m.localBroadcast(s, protocol.NewStartGame())
		return next, append(effects, more...)
	}
	return s, effects
}

func (m *Machine) applyStartGame(s State, ev protocol.StartGame) (State, []Effect) {
	// A re-broadcast or late echo of the start must not replay round
	// zero on a game already underway.
	if s.Phase != PhaseLobby || s.Round >= 0 {
		log.Debug().Msg("ignoring start for a game already in progress")
		return s, nil
	}
	if s.Roster.ActiveCount() < m.Rules.MinPlayers {
		log.Warn().Int("active", s.Roster.ActiveCount()).Msg("start received below quorum, holding in lobby")
		return s, nil
	}
	s.markApplied(ev.Key())
	return m.beginCountdown(s)
}

func (m *Machine) beginCountdown(s State) (State, []Effect) {
	s.Phase = PhaseCountdown
	s.Version++
	s.Submitted = false
	s.CurrentQuestion = nil
	effects := []Effect{
		StopClock{},
		StartCountdown{Version: s.Version, Ticks: m.Rules.CountdownTicks},
		PhaseChanged{Phase: PhaseCountdown, Payload: CountdownInfo{Remaining: m.Rules.CountdownTicks}},
	}
	return s, effects
}

// advanceRound moves Countdown → Question when this client advances
// locally; host-coordinated followers wait for the in-band question
// instead.
func (m *Machine) advanceRound(s State) (State, []Effect) {
	if m.Coord.AdvancesLocally() {
		next := s.Round + 1
		if m.Rules.QuestionCount > 0 && next >= m.Rules.QuestionCount {
			// Bank exhausted: the survivors share the win.
			return m.applyGameOver(s, "", "", false)
		}
		s.Round = next
		s.Version++
		s.Phase = PhaseQuestion
		s.Answers = nil
		s.Submitted = false
		s.markApplied(protocol.Key{Kind: protocol.KindStartQuestion, Round: next})

		effects := []Effect{
			StartClock{Version: s.Version},
			PhaseChanged{Phase: PhaseQuestion, Payload: QuestionInfo{Index: next, Body: s.CurrentQuestion}},
		}
		if m.Coord.DistributesQuestions() {
			effects = append(effects, DistributeQuestion{Index: next})
		}
		return s, effects
	}
	// Follower in a hosted room: hold until the host's question lands.
	return s, nil
}

func (m *Machine) applyStartQuestion(s State, ev protocol.StartQuestion) (State, []Effect) {
	if s.Over() {
		return s, nil
	}
	// Never re-enter a completed round, whatever order frames land in.
	if ev.QuestionIndex <= s.Round {
		log.Debug().Int("round", ev.QuestionIndex).Int("current", s.Round).Msg("stale question start")
		return s, nil
	}
	s.markApplied(ev.Key())
	s.Round = ev.QuestionIndex
	s.Version++
	s.Phase = PhaseQuestion
	s.Answers = nil
	s.Submitted = false
	s.CurrentQuestion = ev.Question

	return s, []Effect{
		StopClock{},
		StartClock{Version: s.Version},
		PhaseChanged{Phase: PhaseQuestion, Payload: QuestionInfo{Index: ev.QuestionIndex, Body: ev.Question}},
	}
}

func (m *Machine) applySubmission(s State, in AnswerSubmitted) (State, []Effect) {
	if s.Phase != PhaseQuestion || s.Submitted || s.Eliminated || s.Over() {
		return s, nil
	}
	if !in.Correct {
		// Retry until correct; the clock keeps running.
		return s, []Effect{PhaseChanged{Phase: PhaseQuestion, Payload: WrongAnswerInfo{}}}
	}

	ev := protocol.NewPlayerAnswer(s.SelfID, s.SelfName, in.Elapsed, s.Round)
	next, effects := m.localBroadcast(s, ev)
	return next, append([]Effect{StopClock{}}, effects...)
}

func (m *Machine) applyPlayerAnswer(s State, ev protocol.PlayerAnswer) (State, []Effect) {
	if s.Over() {
		return s, nil
	}
	// An answer for a superseded round is a slow network path, not an
	// error; count only current-round answers.
	if ev.QuestionIndex != s.Round {
		log.Debug().Int("round", ev.QuestionIndex).Int("current", s.Round).Str("player_id", ev.PlayerID).Msg("stale answer dropped")
		return s, nil
	}
	if s.Phase != PhaseQuestion && s.Phase != PhaseCollecting {
		log.Debug().Str("phase", string(s.Phase)).Msg("answer outside collection window dropped")
		return s, nil
	}
	p, ok := s.Roster.Get(ev.PlayerID)
	if !ok || !p.Active {
		log.Debug().Str("player_id", ev.PlayerID).Msg("answer from unknown or inactive participant dropped")
		return s, nil
	}

	s.markApplied(ev.Key())
	s.Answers = append(s.Answers, AnswerRecord{
		PlayerID:   ev.PlayerID,
		PlayerName: ev.PlayerName,
		Elapsed:    ev.Time,
		Round:      ev.QuestionIndex,
	})

	var effects []Effect
	progress := AnswerProgressInfo{Answered: len(s.Answers), Active: s.Roster.ActiveCount()}
	if ev.PlayerID == s.SelfID {
		s.Submitted = true
		if s.Phase == PhaseQuestion {
			s.Phase = PhaseCollecting
			s.Version++
		}
		progress.Elapsed = ev.Time
		effects = append(effects, PhaseChanged{Phase: PhaseCollecting, Payload: progress})
	} else {
		effects = append(effects, PhaseChanged{Phase: s.Phase, Payload: progress})
	}

	next, more := m.checkCompletion(s)
	return next, append(effects, more...)
}

// checkCompletion runs after every accepted answer and after roster
// shrinkage: either may be what completes the active set.
func (m *Machine) checkCompletion(s State) (State, []Effect) {
	if s.Phase != PhaseQuestion && s.Phase != PhaseCollecting {
		return s, nil
	}
	active := s.Roster.ActiveCount()
	if active == 0 || len(s.Answers) < active {
		return s, nil
	}

	s.Phase = PhaseEliminating
	s.Version++

	if active == 1 {
		// Solo remainder: nobody to eliminate, straight to the next
		// round after the grace delay.
		log.Info().Int("round", s.Round).Msg("solo remainder, advancing without elimination")
		return s, []Effect{
			PhaseChanged{Phase: PhaseEliminating, Payload: nil},
			ScheduleGrace{Version: s.Version, Delay: m.Rules.GraceDelay},
		}
	}

	effects := []Effect{PhaseChanged{Phase: PhaseEliminating, Payload: nil}}
	if m.Coord.Arbitrates(&s) {
		rec, ok := slowest(s.Answers, &s.Roster)
		if ok {
			log.Info().Str("player_id", rec.PlayerID).Float64("elapsed", rec.Elapsed).Int("round", s.Round).Msg("arbiter selected slowest")
			ev := protocol.NewPlayerEliminated(rec.PlayerID, rec.PlayerName, rec.Elapsed, s.Round)
			next, more := m.localBroadcast(s, ev)
			return next, append(effects, more...)
		}
	}
	return s, effects
}

func (m *Machine) applyElimination(s State, ev protocol.PlayerEliminated) (State, []Effect) {
	if s.Over() {
		return s, nil
	}
	// One elimination per round: a competing broadcast naming a second
	// victim for the same round is absorbed, as is anything stale.
	if ev.QuestionIndex != s.Round || ev.QuestionIndex <= s.lastElimRound {
		log.Debug().Int("round", ev.QuestionIndex).Int("current", s.Round).Msg("stale or duplicate elimination dropped")
		return s, nil
	}
	if !s.Roster.Eliminate(ev.PlayerID) {
		s.markApplied(ev.Key())
		return s, nil
	}
	s.markApplied(ev.Key())
	s.lastElimRound = ev.QuestionIndex
	log.Info().Str("player_id", ev.PlayerID).Str("name", ev.PlayerName).Float64("elapsed", ev.Time).Msg("participant eliminated")

	if s.Phase != PhaseEliminating {
		s.Version++
	}
	s.Phase = PhaseEliminating

	self := ev.PlayerID == s.SelfID
	if self {
		s.Eliminated = true
	}

	effects := []Effect{
		StopClock{},
		RosterChanged{},
		PhaseChanged{Phase: PhaseEliminating, Payload: EliminationInfo{
			PlayerID:   ev.PlayerID,
			PlayerName: ev.PlayerName,
			Elapsed:    ev.Time,
			Self:       self,
		}},
	}

	switch remaining := s.Roster.ActiveCount(); {
	case remaining == 1:
		winner := s.Roster.Active()[0]
		next, more := m.declareWinner(s, winner.ID, winner.Name)
		return next, append(effects, more...)
	case remaining == 0:
		// Everybody out; nothing left to play.
		next, more := m.applyGameOver(s, "", "", false)
		return next, append(effects, more...)
	default:
		effects = append(effects, ScheduleGrace{Version: s.Version, Delay: m.Rules.GraceDelay})
		return s, effects
	}
}

// declareWinner ends the game on a last participant standing. Every
// client derives the same result locally; the arbitrating client also
// broadcasts it for stragglers that missed the final elimination.
func (m *Machine) declareWinner(s State, winnerID, winnerName string) (State, []Effect) {
	next, effects := m.applyGameOver(s, winnerID, winnerName, false)
	if m.Coord.Arbitrates(&next) {
		effects = append(effects, BroadcastEvent{Event: protocol.NewGameOver(winnerID, winnerName)})
	}
	return next, effects
}

func (m *Machine) applyGameOver(s State, winnerID, winnerName string, hostLost bool) (State, []Effect) {
	if s.Over() {
		return s, nil
	}
	s.Phase = PhaseGameOver
	s.Version++
	s.WinnerID = winnerID
	s.WinnerName = winnerName
	if winnerID != "" {
		s.markApplied(protocol.Key{Kind: protocol.KindGameOver, PlayerID: winnerID})
	}
	log.Info().Str("winner_id", winnerID).Bool("host_lost", hostLost).Msg("game over")

	return s, []Effect{
		StopClock{},
		PhaseChanged{Phase: PhaseGameOver, Payload: GameOverInfo{
			WinnerID:   winnerID,
			WinnerName: winnerName,
			Self:       winnerID != "" && winnerID == s.SelfID,
			HostLost:   hostLost,
			Survivors:  s.Roster.Active(),
		}},
	}
}

func (m *Machine) applyExit(s State, playerID string) (State, []Effect) {
	if m.Coord.HostLost(playerID) {
		log.Warn().Str("player_id", playerID).Msg("host disconnected, ending game")
		return m.applyGameOver(s, "", "", true)
	}
	if !s.Roster.Remove(playerID) {
		return s, nil
	}
	log.Info().Str("player_id", playerID).Msg("participant left")

	// Drop the leaver's answer so the arbiter never eliminates a ghost.
	for i, rec := range s.Answers {
		if rec.PlayerID == playerID {
			s.Answers = append(s.Answers[:i], s.Answers[i+1:]...)
			break
		}
	}

	effects := []Effect{RosterChanged{}}
	// The departure may be what completes the remaining answer set.
	next, more := m.checkCompletion(s)
	return next, append(effects, more...)
}
