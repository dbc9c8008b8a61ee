package main

import (
	"bufio"
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quizroyale/quizroyale/internal/config"
	"github.com/quizroyale/quizroyale/internal/game"
	"github.com/quizroyale/quizroyale/internal/questions"
	"github.com/quizroyale/quizroyale/internal/transport"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	configPath := flag.String("config", "", "path to a YAML config file")
	name := flag.String("name", "", "display name, overrides config")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if *name != "" {
		cfg.Name = *name
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	bank, err := loadBank(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load question bank")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	room, err := openRoom(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open room")
	}

	log.Info().
		Str("transport", cfg.Transport).
		Str("room", cfg.Room).
		Str("mode", cfg.Mode).
		Str("name", cfg.Name).
		Int("questions", bank.Count()).
		Msg("joining game")

	ui := newTerminalUI(bank)
	engine := game.NewEngine(game.EngineConfig{
		Name:      cfg.Name,
		Rules:     game.DefaultRules(bank.Count()),
		Coord:     coordinator(cfg),
		Room:      room,
		Clock:     clockwork.NewRealClock(),
		Questions: bank,
		UI:        ui,
	})

	go readInput(engine, ui)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		engine.Leave()
	}()

	if err := engine.Run(ctx); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("engine stopped")
	}
}

func loadBank(cfg config.Config) (*questions.Bank, error) {
	bank := questions.Builtin()
	if cfg.QuestionsFile != "" {
		loaded, err := questions.LoadFile(cfg.QuestionsFile)
		if err != nil {
			return nil, err
		}
		bank = loaded
	}
	if cfg.ShuffleSeed != 0 {
		bank = bank.Shuffled(cfg.ShuffleSeed)
	}
	return bank, nil
}

func coordinator(cfg config.Config) game.Coordinator {
	if cfg.Mode == config.ModeHost {
		return game.HostCoordinator{
			IsHost:     cfg.Host,
			HostID:     cfg.HostID,
			MinPlayers: cfg.MinPlayers,
		}
	}
	return game.PeerCoordinator{MinPlayers: cfg.MinPlayers}
}

func openRoom(ctx context.Context, cfg config.Config) (transport.Room, error) {
	switch cfg.Transport {
	case config.TransportNATS:
		return transport.DialNATS(transport.DefaultNATSConfig(cfg.NATSURL, cfg.Room))
	case config.TransportLoopback:
		// Solo practice against the local bank.
		return transport.NewLoopbackHub().Join(), nil
	default:
		return transport.DialRoom(ctx, transport.DefaultWSConfig(cfg.RelayURL, cfg.Room)), nil
	}
}

// readInput turns stdin lines into engine actions: "start" from the
// lobby, an option number or a comma-separated ordering during a
// question, "quit" to leave.
func readInput(engine *game.Engine, ui *terminalUI) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "start":
			engine.RequestStart()
		case line == "quit" || line == "exit":
			engine.Leave()
			return
		case ui.sortMode():
			order, err := parseOrdering(line)
			if err != nil {
				log.Warn().Str("input", line).Msg("expected an order like 3,1,2")
				continue
			}
			engine.SubmitOrdering(order)
		default:
			n, err := strconv.Atoi(line)
			if err != nil {
				log.Warn().Str("input", line).Msg("expected an option number")
				continue
			}
			engine.SubmitChoice(n - 1)
		}
	}
}

func parseOrdering(line string) ([]int, error) {
	parts := strings.Split(line, ",")
	order := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		order = append(order, n-1)
	}
	return order, nil
}
