package protocol

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates game events on the wire via the "type" field.
type Kind string

const (
	KindPlayerReady      Kind = "player-ready"
	KindStartGame        Kind = "start-game"
	KindStartQuestion    Kind = "start-question"
	KindPlayerAnswer     Kind = "player-answer"
	KindPlayerEliminated Kind = "player-eliminated"
	KindGameOver         Kind = "game-over"
	KindHostDisconnected Kind = "host-disconnected"
)

// Aliases written by older client builds. Decoded to the canonical kinds
// above; never emitted.
const (
	aliasGamePlayerReady Kind = "game-player-ready"
	aliasPlayerAnswered  Kind = "player-answered"
	aliasHostQuestion    Kind = "host-question"
	aliasHostElimination Kind = "host-elimination"
	aliasHostWinner      Kind = "host-winner"
)

// Key identifies an event for duplicate suppression. The transport is
// at-least-once and echoes broadcasts back to the sender, so every event
// must be re-appliable; events with the same key are applied once.
type Key struct {
	Kind     Kind
	PlayerID string
	Round    int
}

// Event is one game event carried inside a room broadcast.
type Event interface {
	Kind() Kind
	Key() Key
}

// PlayerReady announces a participant to the room. Sent on join and
// re-sent after a reconnect, since the relay keeps no session state.
// Repeats are absorbed by roster membership rather than the applied-key
// set, so a participant who left can announce their way back in.
type PlayerReady struct {
	Type Kind   `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

func NewPlayerReady(id, name string) PlayerReady {
	return PlayerReady{Type: KindPlayerReady, ID: id, Name: name}
}

func (e PlayerReady) Kind() Kind { return KindPlayerReady }
func (e PlayerReady) Key() Key   { return Key{Kind: KindPlayerReady, PlayerID: e.ID} }

// StartGame moves the room out of the lobby into the first countdown.
type StartGame struct {
	Type          Kind `json:"type"`
	QuestionIndex int  `json:"questionIndex"`
}

func NewStartGame() StartGame {
	return StartGame{Type: KindStartGame}
}

func (e StartGame) Kind() Kind { return KindStartGame }
func (e StartGame) Key() Key   { return Key{Kind: KindStartGame, Round: e.QuestionIndex} }

// QuestionBody is the display form of a question, distributed in-band by
// a host so clients can render without consulting their own bank. The
// correct answer never travels on the wire.
type QuestionBody struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Sort    bool     `json:"sort,omitempty"`
}

// StartQuestion advances the room to the given round. The question body
// is only present in host-coordinated games.
type StartQuestion struct {
	Type          Kind          `json:"type"`
	QuestionIndex int           `json:"questionIndex"`
	Question      *QuestionBody `json:"question,omitempty"`
}

func NewStartQuestion(index int, body *QuestionBody) StartQuestion {
	return StartQuestion{Type: KindStartQuestion, QuestionIndex: index, Question: body}
}

func (e StartQuestion) Kind() Kind { return KindStartQuestion }
func (e StartQuestion) Key() Key   { return Key{Kind: KindStartQuestion, Round: e.QuestionIndex} }

// PlayerAnswer records that a participant answered the round's question
// correctly after Time seconds on their local clock.
type PlayerAnswer struct {
	Type          Kind    `json:"type"`
	PlayerID      string  `json:"playerId"`
	PlayerName    string  `json:"playerName"`
	Time          float64 `json:"time"`
	QuestionIndex int     `json:"questionIndex"`
}

func NewPlayerAnswer(id, name string, elapsed float64, round int) PlayerAnswer {
	return PlayerAnswer{
		Type:          KindPlayerAnswer,
		PlayerID:      id,
		PlayerName:    name,
		Time:          elapsed,
		QuestionIndex: round,
	}
}

func (e PlayerAnswer) Kind() Kind { return KindPlayerAnswer }
func (e PlayerAnswer) Key() Key {
	return Key{Kind: KindPlayerAnswer, PlayerID: e.PlayerID, Round: e.QuestionIndex}
}

// PlayerEliminated declares the round's slowest participant out of the
// game. Broadcast by whichever client computed the result first; applied
// identically by every client including the broadcaster.
type PlayerEliminated struct {
	Type          Kind    `json:"type"`
	PlayerID      string  `json:"playerId"`
	PlayerName    string  `json:"playerName"`
	Time          float64 `json:"time"`
	QuestionIndex int     `json:"questionIndex"`
}

func NewPlayerEliminated(id, name string, elapsed float64, round int) PlayerEliminated {
	return PlayerEliminated{
		Type:          KindPlayerEliminated,
		PlayerID:      id,
		PlayerName:    name,
		Time:          elapsed,
		QuestionIndex: round,
	}
}

func (e PlayerEliminated) Kind() Kind { return KindPlayerEliminated }
func (e PlayerEliminated) Key() Key {
	return Key{Kind: KindPlayerEliminated, PlayerID: e.PlayerID, Round: e.QuestionIndex}
}

// GameOver ends the session. Winner fields are empty when the question
// bank ran out with more than one participant standing.
type GameOver struct {
	Type       Kind   `json:"type"`
	WinnerID   string `json:"winnerId,omitempty"`
	WinnerName string `json:"winnerName,omitempty"`
}

func NewGameOver(winnerID, winnerName string) GameOver {
	return GameOver{Type: KindGameOver, WinnerID: winnerID, WinnerName: winnerName}
}

func (e GameOver) Kind() Kind { return KindGameOver }
func (e GameOver) Key() Key   { return Key{Kind: KindGameOver, PlayerID: e.WinnerID} }

// HostDisconnected tells a host-coordinated room that its authority is
// gone and the game cannot continue.
type HostDisconnected struct {
	Type Kind `json:"type"`
}

func NewHostDisconnected() HostDisconnected {
	return HostDisconnected{Type: KindHostDisconnected}
}

func (e HostDisconnected) Kind() Kind { return KindHostDisconnected }
func (e HostDisconnected) Key() Key   { return Key{Kind: KindHostDisconnected} }

// MarshalEvent serializes an event as a flat JSON object carrying its
// "type" discriminator.
func MarshalEvent(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", ev.Kind(), err)
	}
	return data, nil
}

// UnmarshalEvent decodes a flat JSON event object. Alias kinds from older
// builds are normalized to their canonical kind.
func UnmarshalEvent(data []byte) (Event, error) {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	kind := canonicalKind(head.Type)

	var (
		ev  Event
		err error
	)
	switch kind {
	case KindPlayerReady:
		var e PlayerReady
		err = json.Unmarshal(data, &e)
		e.Type = kind
		ev = e
	case KindStartGame:
		var e StartGame
		err = json.Unmarshal(data, &e)
		e.Type = kind
		ev = e
	case KindStartQuestion:
		var e StartQuestion
		err = json.Unmarshal(data, &e)
		e.Type = kind
		ev = e
	case KindPlayerAnswer:
		var e PlayerAnswer
		err = json.Unmarshal(data, &e)
		e.Type = kind
		ev = e
	case KindPlayerEliminated:
		var e PlayerEliminated
		err = json.Unmarshal(data, &e)
		e.Type = kind
		ev = e
	case KindGameOver:
		var e GameOver
		err = json.Unmarshal(data, &e)
		e.Type = kind
		ev = e
	case KindHostDisconnected:
		ev = NewHostDisconnected()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, head.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	return ev, nil
}

func canonicalKind(k Kind) Kind {
	switch k {
	case aliasGamePlayerReady:
		return KindPlayerReady
	case aliasPlayerAnswered:
		return KindPlayerAnswer
	case aliasHostQuestion:
		return KindStartQuestion
	case aliasHostElimination:
		return KindPlayerEliminated
	case aliasHostWinner:
		return KindGameOver
	default:
		return k
	}
}
