package questions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckChoice(t *testing.T) {
	q := Question{Type: TypeChoice, Options: []string{"a", "b", "c"}, Correct: 1}

	assert.True(t, q.CheckChoice(1))
	assert.False(t, q.CheckChoice(0))
	assert.False(t, q.CheckChoice(-1))

	sort := Question{Type: TypeSort, Options: []string{"a", "b"}, Ordering: []int{1, 0}}
	assert.False(t, sort.CheckChoice(0), "a sort question has no single answer")
}

func TestCheckOrdering(t *testing.T) {
	q := Question{Type: TypeSort, Options: []string{"a", "b", "c"}, Ordering: []int{2, 0, 1}}

	assert.True(t, q.CheckOrdering([]int{2, 0, 1}))
	assert.False(t, q.CheckOrdering([]int{0, 1, 2}))
	assert.False(t, q.CheckOrdering([]int{2, 0}))
	assert.False(t, q.CheckOrdering(nil))

	choice := Question{Type: TypeChoice, Options: []string{"a", "b"}, Correct: 0}
	assert.False(t, choice.CheckOrdering([]int{0}))
}

func TestBankGet(t *testing.T) {
	b := NewBank([]Question{
		{Type: TypeChoice, Text: "one", Options: []string{"a", "b"}, Correct: 0},
		{Type: TypeChoice, Text: "two", Options: []string{"a", "b"}, Correct: 1},
	})

	q, ok := b.Get(1)
	require.True(t, ok)
	assert.Equal(t, "two", q.Text)

	_, ok = b.Get(2)
	assert.False(t, ok)
	_, ok = b.Get(-1)
	assert.False(t, ok)
	assert.Equal(t, 2, b.Count())
}

func TestShuffledIsDeterministic(t *testing.T) {
	b := Builtin()

	a := b.Shuffled(42)
	c := b.Shuffled(42)
	for i := 0; i < a.Count(); i++ {
		qa, _ := a.Get(i)
		qc, _ := c.Get(i)
		assert.Equal(t, qa.Text, qc.Text, "index %d", i)
	}

	assert.Equal(t, b.Count(), a.Count())

	// The original bank is untouched.
	orig, _ := b.Get(0)
	again, _ := Builtin().Get(0)
	assert.Equal(t, again.Text, orig.Text)
}

func TestBuiltinIsValid(t *testing.T) {
	b := Builtin()
	require.Greater(t, b.Count(), 0)
	for i := 0; i < b.Count(); i++ {
		q, ok := b.Get(i)
		require.True(t, ok)
		assert.NoError(t, validate([]Question{q}), "question %d", i)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.yaml")
	data := `questions:
  - type: choice
    text: "Which planet is closest to the sun?"
    options: ["Venus", "Mercury", "Mars"]
    correct: 1
  - type: sort
    text: "Order these from smallest to largest"
    options: ["Moon", "Earth", "Sun"]
    ordering: [0, 1, 2]
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	b, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, b.Count())

	q, _ := b.Get(0)
	assert.True(t, q.CheckChoice(1))
	q, _ = b.Get(1)
	assert.True(t, q.CheckOrdering([]int{0, 1, 2}))
}

func TestLoadFileRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"correct out of range", "questions:\n  - type: choice\n    text: q\n    options: [a, b]\n    correct: 5\n"},
		{"ordering mismatch", "questions:\n  - type: sort\n    text: q\n    options: [a, b, c]\n    ordering: [0, 1]\n"},
		{"unknown type", "questions:\n  - type: essay\n    text: q\n    options: [a, b]\n"},
		{"too few options", "questions:\n  - type: choice\n    text: q\n    options: [a]\n    correct: 0\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bank.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.data), 0o644))
			_, err := LoadFile(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
