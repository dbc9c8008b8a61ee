package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/quizroyale/quizroyale/internal/game"
	"github.com/quizroyale/quizroyale/internal/questions"
	"github.com/quizroyale/quizroyale/internal/roster"
)

// terminalUI renders engine notifications as plain lines on stdout.
// Engine callbacks and the prompt writer share one mutex so output
// lines never interleave.
type terminalUI struct {
	mu   sync.Mutex
	bank questions.Source

	sort bool
}

func newTerminalUI(bank questions.Source) *terminalUI {
	return &terminalUI{bank: bank}
}

func (u *terminalUI) OnPhaseChange(phase game.Phase, payload any) {
	u.mu.Lock()
	defer u.mu.Unlock()

	switch p := payload.(type) {
	case game.CountdownInfo:
		fmt.Printf("\nnext question in %d...\n", p.Remaining)

	case game.QuestionInfo:
		u.printQuestion(p)

	case game.WrongAnswerInfo:
		fmt.Println("wrong, try again")

	case game.AnswerProgressInfo:
		if p.Elapsed > 0 {
			fmt.Printf("answered in %.2fs, waiting for the others (%d/%d)\n", p.Elapsed, p.Answered, p.Active)
		} else {
			fmt.Printf("answers in: %d/%d\n", p.Answered, p.Active)
		}

	case game.EliminationInfo:
		if p.Self {
			fmt.Printf("\nyou were the slowest (%.2fs) and are out. Spectating.\n", p.Elapsed)
		} else {
			fmt.Printf("\n%s was the slowest (%.2fs) and is out\n", p.PlayerName, p.Elapsed)
		}

	case game.GameOverInfo:
		u.printGameOver(p)

	default:
		switch phase {
		case game.PhaseCountdown:
			fmt.Println("\nget ready...")
		}
	}
}

func (u *terminalUI) printQuestion(info game.QuestionInfo) {
	text := ""
	options := []string(nil)
	u.sort = false

	if info.Body != nil {
		text = info.Body.Text
		options = info.Body.Options
		u.sort = info.Body.Sort
	} else if q, ok := u.bank.Get(info.Index); ok {
		text = q.Text
		options = q.Options
		u.sort = q.Type == questions.TypeSort
	}

	fmt.Printf("\n--- question %d ---\n%s\n", info.Index+1, text)
	for i, opt := range options {
		fmt.Printf("  %d) %s\n", i+1, opt)
	}
	if u.sort {
		fmt.Println("type the correct order, e.g. 3,1,2")
	} else {
		fmt.Println("type the number of your answer")
	}
}

func (u *terminalUI) printGameOver(info game.GameOverInfo) {
	fmt.Println("\n=== game over ===")
	switch {
	case info.HostLost:
		fmt.Println("the host left, the game is over")
	case info.Self:
		fmt.Println("you win!")
	case info.WinnerName != "":
		fmt.Printf("%s wins!\n", info.WinnerName)
	case len(info.Survivors) > 0:
		fmt.Println("no questions left, still standing:")
		for _, p := range info.Survivors {
			fmt.Printf("  %s\n", p.Name)
		}
	default:
		fmt.Println("nobody survived")
	}
	fmt.Println("press enter to leave")
}

func (u *terminalUI) OnRosterChange(players []roster.Participant) {
	u.mu.Lock()
	defer u.mu.Unlock()

	fmt.Print("players:")
	for _, p := range players {
		if p.Active {
			fmt.Printf(" %s", p.Name)
		} else {
			fmt.Printf(" %s(out)", p.Name)
		}
	}
	fmt.Println()
}

func (u *terminalUI) OnClockTick(elapsed float64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprintf(os.Stdout, "\r%.1fs ", elapsed)
}

func (u *terminalUI) OnConnectionChange(connected bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if connected {
		fmt.Println("connected")
	} else {
		fmt.Println("connection lost, retrying...")
	}
}

// sortMode reports whether the current question expects an ordering.
func (u *terminalUI) sortMode() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.sort
}
