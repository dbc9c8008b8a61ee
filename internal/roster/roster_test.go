package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddKeepsIDOrder(t *testing.T) {
	var r Roster
	require.True(t, r.Add("player-2", "carol", true))
	require.True(t, r.Add("player-0", "alice", true))
	require.True(t, r.Add("player-1", "bob", true))

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, "player-0", all[0].ID)
	assert.Equal(t, "player-1", all[1].ID)
	assert.Equal(t, "player-2", all[2].ID)

	first, ok := r.First()
	require.True(t, ok)
	assert.Equal(t, "player-0", first.ID)
}

func TestAddDuplicateIsNoOp(t *testing.T) {
	var r Roster
	require.True(t, r.Add("player-0", "alice", true))
	assert.False(t, r.Add("player-0", "alice again", true))
	assert.Equal(t, 1, r.Len())

	p, ok := r.Get("player-0")
	require.True(t, ok)
	assert.Equal(t, "alice", p.Name)
}

func TestEliminateIsMonotonic(t *testing.T) {
	var r Roster
	r.Add("player-0", "alice", true)
	r.Add("player-1", "bob", true)

	assert.True(t, r.Eliminate("player-1"))
	assert.False(t, r.Eliminate("player-1"), "a second flip must report false")
	assert.False(t, r.Eliminate("player-9"), "unknown ids flip nothing")

	assert.Equal(t, 1, r.ActiveCount())
	assert.Equal(t, 2, r.Len(), "elimination keeps the participant listed")
}

func TestRemoveDropsEntirely(t *testing.T) {
	var r Roster
	r.Add("player-0", "alice", true)
	r.Add("player-1", "bob", true)

	assert.True(t, r.Remove("player-0"))
	assert.False(t, r.Remove("player-0"))
	assert.Equal(t, 1, r.Len())

	first, ok := r.First()
	require.True(t, ok)
	assert.Equal(t, "player-1", first.ID)
}

func TestActiveFiltersSpectators(t *testing.T) {
	var r Roster
	r.Add("player-0", "alice", true)
	r.Add("player-1", "bob", false)
	r.Add("player-2", "carol", true)

	active := r.Active()
	require.Len(t, active, 2)
	assert.Equal(t, "player-0", active[0].ID)
	assert.Equal(t, "player-2", active[1].ID)
	assert.Equal(t, 2, r.ActiveCount())
}

func TestCloneSharesNothing(t *testing.T) {
	var r Roster
	r.Add("player-0", "alice", true)

	c := r.Clone()
	c.Add("player-1", "bob", true)
	c.Eliminate("player-0")

	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 1, r.ActiveCount())
}

func TestEmptyRoster(t *testing.T) {
	var r Roster
	_, ok := r.First()
	assert.False(t, ok)
	assert.Equal(t, 0, r.ActiveCount())
	assert.Empty(t, r.All())
}
