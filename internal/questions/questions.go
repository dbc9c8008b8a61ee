// Package questions provides the quiz bank consumed by the game engine.
// The engine only ever asks for a question by index and checks a
// submission against it; authoring and storage live outside the core.
package questions

import (
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"
)

// Type distinguishes how a question is answered.
type Type string

const (
	// TypeChoice questions are answered by picking one option.
	TypeChoice Type = "choice"
	// TypeSort questions are answered by arranging all options into the
	// correct order.
	TypeSort Type = "sort"
)

// Question is one quiz item.
type Question struct {
	Type    Type     `yaml:"type"`
	Text    string   `yaml:"text"`
	Options []string `yaml:"options"`
	// Correct is the winning option index for choice questions.
	Correct int `yaml:"correct"`
	// Ordering is the winning permutation of option indexes for sort
	// questions.
	Ordering []int `yaml:"ordering"`
}

// CheckChoice reports whether the picked option answers the question.
func (q Question) CheckChoice(option int) bool {
	return q.Type == TypeChoice && option == q.Correct
}

// CheckOrdering reports whether the submitted permutation answers a sort
// question.
func (q Question) CheckOrdering(order []int) bool {
	if q.Type != TypeSort || len(order) != len(q.Ordering) {
		return false
	}
	for i, v := range order {
		if v != q.Ordering[i] {
			return false
		}
	}
	return true
}

// Source hands out questions by round index.
type Source interface {
	Get(index int) (Question, bool)
	Count() int
}

// Bank is an in-memory Source.
type Bank struct {
	questions []Question
}

// NewBank wraps a fixed question list.
func NewBank(qs []Question) *Bank {
	return &Bank{questions: qs}
}

// Get returns the question for a round, or false past the end of the
// bank.
func (b *Bank) Get(index int) (Question, bool) {
	if index < 0 || index >= len(b.questions) {
		return Question{}, false
	}
	return b.questions[index], true
}

// Count returns the bank size.
func (b *Bank) Count() int {
	return len(b.questions)
}

// Shuffled returns a new bank with the questions permuted by the given
// seed. Every client of a session must use the same seed, otherwise
// round indexes refer to different questions on different clients.
func (b *Bank) Shuffled(seed int64) *Bank {
	qs := make([]Question, len(b.questions))
	copy(qs, b.questions)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(qs), func(i, j int) {
		qs[i], qs[j] = qs[j], qs[i]
	})
	return NewBank(qs)
}

type bankFile struct {
	Questions []Question `yaml:"questions"`
}

// LoadFile reads a YAML question bank.
func LoadFile(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	var f bankFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	if err := validate(f.Questions); err != nil {
		return nil, err
	}
	return NewBank(f.Questions), nil
}

func validate(qs []Question) error {
	for i, q := range qs {
		switch q.Type {
		case TypeChoice:
			if q.Correct < 0 || q.Correct >= len(q.Options) {
				return fmt.Errorf("question %d: correct index %d out of range", i, q.Correct)
			}
		case TypeSort:
			if len(q.Ordering) != len(q.Options) {
				return fmt.Errorf("question %d: ordering length %d does not cover %d options", i, len(q.Ordering), len(q.Options))
			}
		default:
			return fmt.Errorf("question %d: unknown type %q", i, q.Type)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("question %d: needs at least two options", i)
		}
	}
	return nil
}
