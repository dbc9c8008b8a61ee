package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, TransportWebsocket, cfg.Transport)
	assert.Equal(t, ModePeer, cfg.Mode)
	assert.Equal(t, "player-0", cfg.HostID)
	assert.Equal(t, 2, cfg.MinPlayers)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiz.yaml")
	data := `transport: nats
nats_url: nats://example:4222
room: friday-night
name: alice
mode: host
host: true
min_players: 3
shuffle_seed: 7
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, TransportNATS, cfg.Transport)
	assert.Equal(t, "nats://example:4222", cfg.NATSURL)
	assert.Equal(t, "friday-night", cfg.Room)
	assert.Equal(t, "alice", cfg.Name)
	assert.Equal(t, ModeHost, cfg.Mode)
	assert.True(t, cfg.Host)
	assert.Equal(t, 3, cfg.MinPlayers)
	assert.Equal(t, int64(7), cfg.ShuffleSeed)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiz.yaml")
	require.NoError(t, os.WriteFile(path, []byte("room: from-file\nname: filename\n"), 0o644))

	t.Setenv("QUIZ_ROOM", "from-env")
	t.Setenv("QUIZ_MIN_PLAYERS", "4")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Room)
	assert.Equal(t, "filename", cfg.Name, "unset env vars leave file values alone")
	assert.Equal(t, 4, cfg.MinPlayers)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"bad transport", map[string]string{"QUIZ_TRANSPORT": "carrier-pigeon"}},
		{"bad mode", map[string]string{"QUIZ_MODE": "referee"}},
		{"bad min players", map[string]string{"QUIZ_MIN_PLAYERS": "0"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
