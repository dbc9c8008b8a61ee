package game

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/quizroyale/quizroyale/internal/protocol"
	"github.com/quizroyale/quizroyale/internal/questions"
	"github.com/quizroyale/quizroyale/internal/transport"
)

// EngineConfig wires a state machine to its runtime collaborators.
type EngineConfig struct {
	Name      string
	Rules     Rules
	Coord     Coordinator
	Room      transport.Room
	Clock     clockwork.Clock
	Questions questions.Source
	UI        UISink
}

// Engine runs one client's game session: a single cooperative loop that
// feeds transport messages, local actions and timer expiries through
// the machine and executes the resulting effects. Nothing here blocks;
// all waiting happens in the select.
type Engine struct {
	machine *Machine
	config  EngineConfig

	state       State
	initialized bool

	actions chan func()

	// Countdown timer, re-armed per tick.
	cdTimer   clockwork.Timer
	cdLeft    int
	cdVersion int

	// Per-question answer clock.
	clockTicker  clockwork.Ticker
	clockStart   time.Time
	clockRunning bool

	// Post-elimination grace timer.
	graceTimer   clockwork.Timer
	graceVersion int
}

// NewEngine builds an engine. Run must be called before any action.
func NewEngine(config EngineConfig) *Engine {
	return &Engine{
		machine: NewMachine(config.Rules, config.Coord),
		config:  config,
		actions: make(chan func(), 16),
	}
}

// Run drives the session until the context ends or the room closes.
// Game over does not stop the loop: an eliminated or finished client
// keeps observing the room until it leaves.
func (e *Engine) Run(ctx context.Context) error {
	log.Info().Str("name", e.config.Name).Msg("engine starting")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-e.config.Room.Events():
			if !ok {
				log.Info().Msg("room closed, engine stopping")
				return nil
			}
			e.handleTransport(msg)

		case act := <-e.actions:
			act()

		case <-e.cdChan():
			e.handleCountdownTick()

		case tick := <-e.clockChan():
			if e.clockRunning {
				e.config.UI.OnClockTick(tick.Sub(e.clockStart).Seconds())
			}

		case <-e.graceChan():
			e.graceTimer = nil
			e.dispatch(GraceExpired{Version: e.graceVersion})
		}
	}
}

// SubmitChoice checks a multiple-choice pick against the current
// question and feeds the attempt to the machine. Safe to call from any
// goroutine.
func (e *Engine) SubmitChoice(option int) {
	e.enqueue(func() {
		q, ok := e.currentQuestion()
		if !ok {
			return
		}
		e.dispatch(AnswerSubmitted{Correct: q.CheckChoice(option), Elapsed: e.elapsed()})
	})
}

// SubmitOrdering checks a sort-question permutation and feeds the
// attempt to the machine.
func (e *Engine) SubmitOrdering(order []int) {
	e.enqueue(func() {
		q, ok := e.currentQuestion()
		if !ok {
			return
		}
		e.dispatch(AnswerSubmitted{Correct: q.CheckOrdering(order), Elapsed: e.elapsed()})
	})
}

// RequestStart asks to start the game from the lobby. Held as a no-op
// until quorum is met.
func (e *Engine) RequestStart() {
	e.enqueue(func() {
		e.dispatch(StartRequested{})
	})
}

// Leave announces departure where the protocol calls for it and closes
// the room, which ends Run.
func (e *Engine) Leave() {
	e.enqueue(func() {
		if e.initialized && e.config.Coord.DistributesQuestions() && !e.state.Over() {
			e.broadcast(protocol.NewHostDisconnected())
		}
		e.config.Room.Close()
	})
}

func (e *Engine) enqueue(act func()) {
	select {
	case e.actions <- act:
	default:
		log.Warn().Msg("action queue full, dropping local action")
	}
}

func (e *Engine) handleTransport(msg transport.Message) {
	switch msg.Kind {
	case transport.KindConnected:
		e.handleConnected(msg.PeerID)
	case transport.KindDisconnected:
		e.config.UI.OnConnectionChange(false)
	case transport.KindPeerEnter:
		// Newcomers missed every earlier announcement; hand them ours
		// directly, since the relay replays nothing.
		if e.initialized {
			data, err := protocol.MarshalEvent(protocol.NewPlayerReady(e.state.SelfID, e.state.SelfName))
			if err == nil {
				e.config.Room.SendTo(msg.PeerID, data)
			}
		}
	case transport.KindPeerExit:
		e.dispatch(PeerExited{PlayerID: protocol.PlayerID(msg.PeerID)})
	case transport.KindFrame:
		ev, err := protocol.DecodeBroadcast(msg.Data)
		if err != nil {
			log.Debug().Err(err).Msg("dropping undecodable frame")
			return
		}
		e.dispatch(EventReceived{Event: ev})
	}
}

// handleConnected runs on every (re)join. The first one fixes the
// session identity; all of them re-announce presence, because the relay
// holds no session memory across reconnects.
func (e *Engine) handleConnected(clientID int) {
	if !e.initialized {
		selfID := protocol.PlayerID(clientID)
		if clientID < 0 {
			selfID = uuid.NewString()
		}
		e.state = NewState(selfID, e.config.Name)
		e.initialized = true
		log.Info().Str("self_id", selfID).Str("name", e.config.Name).Msg("session identity assigned")
		e.config.UI.OnRosterChange(e.state.Roster.All())
	}
	e.config.UI.OnConnectionChange(true)
	e.broadcast(protocol.NewPlayerReady(e.state.SelfID, e.state.SelfName))
}

func (e *Engine) dispatch(in Input) {
	if !e.initialized {
		return
	}
	next, effects := e.machine.Apply(e.state, in)
	e.state = next
	for _, eff := range effects {
		e.execute(eff)
	}
}

func (e *Engine) execute(eff Effect) {
	switch eff := eff.(type) {
	case BroadcastEvent:
		e.broadcast(eff.Event)

	case DistributeQuestion:
		q, ok := e.config.Questions.Get(eff.Index)
		if !ok {
			log.Error().Int("index", eff.Index).Msg("question index out of range, not distributing")
			return
		}
		body := &protocol.QuestionBody{
			Text:    q.Text,
			Options: q.Options,
			Sort:    q.Type == questions.TypeSort,
		}
		e.broadcast(protocol.NewStartQuestion(eff.Index, body))

	case StartCountdown:
		e.stopCountdown()
		e.cdVersion = eff.Version
		e.cdLeft = eff.Ticks
		e.cdTimer = e.config.Clock.NewTimer(e.config.Rules.TickInterval)

	case StartClock:
		e.stopClock()
		e.clockStart = e.config.Clock.Now()
		e.clockTicker = e.config.Clock.NewTicker(e.config.Rules.ClockInterval)
		e.clockRunning = true

	case StopClock:
		e.stopClock()

	case ScheduleGrace:
		if e.graceTimer != nil {
			e.graceTimer.Stop()
		}
		e.graceVersion = eff.Version
		e.graceTimer = e.config.Clock.NewTimer(eff.Delay)

	case PhaseChanged:
		e.config.UI.OnPhaseChange(eff.Phase, eff.Payload)

	case RosterChanged:
		e.config.UI.OnRosterChange(e.state.Roster.All())
	}
}

func (e *Engine) handleCountdownTick() {
	// The state may have moved on since the tick was armed, from a
	// game-over or elimination landing mid-countdown. A stale tick
	// must neither render nor re-arm.
	if !e.initialized || e.state.Phase != PhaseCountdown || e.cdVersion != e.state.Version {
		e.cdTimer = nil
		return
	}
	e.cdLeft--
	if e.cdLeft > 0 {
		e.config.UI.OnPhaseChange(PhaseCountdown, CountdownInfo{Remaining: e.cdLeft})
		e.cdTimer = e.config.Clock.NewTimer(e.config.Rules.TickInterval)
		return
	}
	e.cdTimer = nil
	e.dispatch(CountdownFinished{Version: e.cdVersion})
}

func (e *Engine) broadcast(ev protocol.Event) {
	data, err := protocol.MarshalEvent(ev)
	if err != nil {
		log.Error().Err(err).Str("kind", string(ev.Kind())).Msg("event marshal failed")
		return
	}
	e.config.Room.Broadcast(data)
}

func (e *Engine) currentQuestion() (questions.Question, bool) {
	if !e.initialized || e.state.Phase != PhaseQuestion {
		return questions.Question{}, false
	}
	// A host-distributed body carries no answer key; correctness always
	// checks against the local bank, which every client shares.
	return e.config.Questions.Get(e.state.Round)
}

func (e *Engine) elapsed() float64 {
	if !e.clockRunning {
		return 0
	}
	return e.config.Clock.Now().Sub(e.clockStart).Seconds()
}

func (e *Engine) stopCountdown() {
	if e.cdTimer != nil {
		e.cdTimer.Stop()
		e.cdTimer = nil
	}
}

func (e *Engine) stopClock() {
	if e.clockTicker != nil {
		e.clockTicker.Stop()
		e.clockTicker = nil
	}
	e.clockRunning = false
}

func (e *Engine) cdChan() <-chan time.Time {
	if e.cdTimer == nil {
		return nil
	}
	return e.cdTimer.Chan()
}

func (e *Engine) clockChan() <-chan time.Time {
	if e.clockTicker == nil {
		return nil
	}
	return e.clockTicker.Chan()
}

func (e *Engine) graceChan() <-chan time.Time {
	if e.graceTimer == nil {
		return nil
	}
	return e.graceTimer.Chan()
}
