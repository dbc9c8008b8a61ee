package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRoundTrip(t *testing.T) {
	events := []Event{
		NewPlayerReady("player-3", "alice"),
		NewStartGame(),
		NewStartQuestion(2, &QuestionBody{Text: "q", Options: []string{"a", "b"}, Sort: true}),
		NewPlayerAnswer("player-1", "bob", 1.25, 4),
		NewPlayerEliminated("player-2", "carol", 3.5, 4),
		NewGameOver("player-0", "alice"),
		NewHostDisconnected(),
	}

	for _, ev := range events {
		data, err := MarshalEvent(ev)
		require.NoError(t, err)

		got, err := UnmarshalEvent(data)
		require.NoError(t, err, "kind %s", ev.Kind())
		assert.Equal(t, ev, got)
	}
}

func TestUnmarshalEventNormalizesAliases(t *testing.T) {
	cases := []struct {
		name string
		data string
		kind Kind
	}{
		{"ready alias", `{"type":"game-player-ready","id":"player-1","name":"bob"}`, KindPlayerReady},
		{"answer alias", `{"type":"player-answered","playerId":"player-1","playerName":"bob","time":0.5,"questionIndex":1}`, KindPlayerAnswer},
		{"question alias", `{"type":"host-question","questionIndex":3}`, KindStartQuestion},
		{"elimination alias", `{"type":"host-elimination","playerId":"player-2","playerName":"carol","time":2.5,"questionIndex":3}`, KindPlayerEliminated},
		{"winner alias", `{"type":"host-winner","winnerId":"player-1","winnerName":"bob"}`, KindGameOver},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := UnmarshalEvent([]byte(tc.data))
			require.NoError(t, err)
			assert.Equal(t, tc.kind, ev.Kind())
		})
	}
}

func TestUnmarshalEventUnknownType(t *testing.T) {
	_, err := UnmarshalEvent([]byte(`{"type":"no-such-event"}`))
	assert.ErrorIs(t, err, ErrUnknownEventType)
}

func TestDecodeBroadcastShapes(t *testing.T) {
	want := NewPlayerAnswer("player-1", "bob", 1.5, 0)
	inner, err := MarshalEvent(want)
	require.NoError(t, err)
	quoted, err := json.Marshal(string(inner))
	require.NoError(t, err)

	cases := []struct {
		name string
		data string
	}{
		{"single element array with encoded event", `[` + string(quoted) + `]`},
		{"single element array with inline object", `[` + string(inner) + `]`},
		{"selector frame with encoded event", `["*broadcast-message*",` + string(quoted) + `]`},
		{"selector frame with inline object", `["*broadcast-message*",` + string(inner) + `]`},
		{"bare object", string(inner)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := DecodeBroadcast([]byte(tc.data))
			require.NoError(t, err)
			assert.Equal(t, want, ev)
		})
	}
}

func TestDecodeBroadcastRejectsGarbage(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"empty", ``},
		{"not json", `{{{`},
		{"number", `42`},
		{"empty array", `[]`},
		{"selector with no event", `["*broadcast-message*",7]`},
		{"string that is not json", `["hello there"]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeBroadcast([]byte(tc.data))
			assert.Error(t, err)
		})
	}
}

func TestDecodeBroadcastUnknownTypeIsTerminal(t *testing.T) {
	_, err := DecodeBroadcast([]byte(`["*broadcast-message*","{\"type\":\"no-such-event\"}"]`))
	assert.ErrorIs(t, err, ErrUnknownEventType)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	frame, err := EncodeEnvelope(SelSendMessage, 3, "payload")
	require.NoError(t, err)

	env, err := DecodeEnvelope(frame)
	require.NoError(t, err)
	assert.Equal(t, SelSendMessage, env.Selector())

	n, err := env.IntArg(0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	s, err := env.StringArg(1)
	require.NoError(t, err)
	assert.Equal(t, "payload", s)
}

func TestDecodeEnvelopeRejectsEmpty(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`[]`))
	assert.ErrorIs(t, err, ErrMalformedEnvelope)

	_, err = DecodeEnvelope([]byte(`"not an array"`))
	assert.ErrorIs(t, err, ErrMalformedEnvelope)
}

func TestEnvelopeMissingArg(t *testing.T) {
	frame, err := EncodeEnvelope(SelClientID)
	require.NoError(t, err)

	env, err := DecodeEnvelope(frame)
	require.NoError(t, err)
	_, err = env.IntArg(0)
	assert.ErrorIs(t, err, ErrMalformedEnvelope)
}

func TestEventKeysDistinguishRounds(t *testing.T) {
	a := NewPlayerAnswer("player-1", "bob", 1.0, 0)
	b := NewPlayerAnswer("player-1", "bob", 1.0, 1)
	assert.NotEqual(t, a.Key(), b.Key())

	// Re-sends of the same logical event share a key whatever the
	// payload details.
	c := NewPlayerAnswer("player-1", "bob", 1.7, 0)
	assert.Equal(t, a.Key(), c.Key())
}

func TestPlayerID(t *testing.T) {
	assert.Equal(t, "player-0", PlayerID(0))
	assert.Equal(t, "player-17", PlayerID(17))
}
