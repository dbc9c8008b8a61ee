// Package config loads client settings from an optional YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Mode selects the coordination strategy.
const (
	ModePeer = "peer"
	ModeHost = "host"
)

// Transport backends.
const (
	TransportWebsocket = "websocket"
	TransportNATS      = "nats"
	TransportLoopback  = "loopback"
)

// Config holds everything a client needs to join a game.
type Config struct {
	Transport string `yaml:"transport"`
	RelayURL  string `yaml:"relay_url"`
	NATSURL   string `yaml:"nats_url"`
	Room      string `yaml:"room"`
	Name      string `yaml:"name"`

	// Mode is peer for host-less rooms, host for host-coordinated ones.
	Mode string `yaml:"mode"`
	// Host marks this client as the room's authority in host mode.
	Host bool `yaml:"host"`
	// HostID is the participant id followers treat as the authority.
	HostID string `yaml:"host_id"`

	MinPlayers int `yaml:"min_players"`

	// QuestionsFile points at a YAML bank; empty uses the builtin one.
	QuestionsFile string `yaml:"questions_file"`
	// ShuffleSeed permutes the bank. All clients of a room must agree.
	ShuffleSeed int64 `yaml:"shuffle_seed"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the standard client settings.
func Default() Config {
	return Config{
		Transport:  TransportWebsocket,
		RelayURL:   "ws://localhost:8080/",
		NATSURL:    "nats://localhost:4222",
		Room:       "quiz-royale",
		Name:       "anonymous",
		Mode:       ModePeer,
		HostID:     "player-0",
		MinPlayers: 2,
		LogLevel:   "info",
	}
}

// Load reads the YAML file when path is non-empty, then applies QUIZ_*
// environment overrides on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Transport = getEnv("QUIZ_TRANSPORT", cfg.Transport)
	cfg.RelayURL = getEnv("QUIZ_RELAY_URL", cfg.RelayURL)
	cfg.NATSURL = getEnv("QUIZ_NATS_URL", cfg.NATSURL)
	cfg.Room = getEnv("QUIZ_ROOM", cfg.Room)
	cfg.Name = getEnv("QUIZ_NAME", cfg.Name)
	cfg.Mode = getEnv("QUIZ_MODE", cfg.Mode)
	cfg.Host = getEnvBool("QUIZ_HOST", cfg.Host)
	cfg.HostID = getEnv("QUIZ_HOST_ID", cfg.HostID)
	cfg.MinPlayers = getEnvInt("QUIZ_MIN_PLAYERS", cfg.MinPlayers)
	cfg.QuestionsFile = getEnv("QUIZ_QUESTIONS_FILE", cfg.QuestionsFile)
	cfg.ShuffleSeed = int64(getEnvInt("QUIZ_SHUFFLE_SEED", int(cfg.ShuffleSeed)))
	cfg.LogLevel = getEnv("QUIZ_LOG_LEVEL", cfg.LogLevel)

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Transport {
	case TransportWebsocket, TransportNATS, TransportLoopback:
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	switch c.Mode {
	case ModePeer, ModeHost:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	if c.MinPlayers < 1 {
		return fmt.Errorf("min_players must be at least 1, got %d", c.MinPlayers)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
