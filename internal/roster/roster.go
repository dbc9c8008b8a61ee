// Package roster tracks the participants of one game session and the
// active-player count every quorum check runs against.
package roster

import "sort"

// Participant is one known player in the room. Active flips to false on
// elimination and never back; a participant that merely disconnects is
// removed instead, since leaving is a different lifecycle than losing.
type Participant struct {
	ID     string
	Name   string
	Active bool
}

// Roster is the participant list of a session, kept ordered by id.
// Clients learn of each other in whatever order the network delivers,
// so arrival order differs per client; id order is the one ordering
// every client agrees on, and the answer arbiter's tie-break and the
// peer coordinator's start rule both depend on that agreement.
//
// Roster is a value type. Clone before mutating a copy that must not
// alias the original.
type Roster struct {
	players []Participant
}

// Add inserts an unknown participant at its id-ordered position and
// reports whether it was new. A duplicate presence announcement for a
// known id is a no-op.
func (r *Roster) Add(id, name string, active bool) bool {
	i := sort.Search(len(r.players), func(i int) bool {
		return r.players[i].ID >= id
	})
	if i < len(r.players) && r.players[i].ID == id {
		return false
	}
	r.players = append(r.players, Participant{})
	copy(r.players[i+1:], r.players[i:])
	r.players[i] = Participant{ID: id, Name: name, Active: active}
	return true
}

// Remove drops a participant entirely, for transport-level exits.
// It reports whether the id was known.
func (r *Roster) Remove(id string) bool {
	for i, p := range r.players {
		if p.ID == id {
			r.players = append(r.players[:i], r.players[i+1:]...)
			return true
		}
	}
	return false
}

// Eliminate marks a participant inactive. The flip is monotonic: a
// second elimination of the same id reports false and changes nothing.
func (r *Roster) Eliminate(id string) bool {
	for i, p := range r.players {
		if p.ID == id {
			if !p.Active {
				return false
			}
			r.players[i].Active = false
			return true
		}
	}
	return false
}

// Get looks up a participant by id.
func (r *Roster) Get(id string) (Participant, bool) {
	for _, p := range r.players {
		if p.ID == id {
			return p, true
		}
	}
	return Participant{}, false
}

// ActiveCount is the synchronization quorum: the number of participants
// still in the game.
func (r *Roster) ActiveCount() int {
	n := 0
	for _, p := range r.players {
		if p.Active {
			n++
		}
	}
	return n
}

// Active returns the still-in participants in id order.
func (r *Roster) Active() []Participant {
	var out []Participant
	for _, p := range r.players {
		if p.Active {
			out = append(out, p)
		}
	}
	return out
}

// All returns every known participant in id order.
func (r *Roster) All() []Participant {
	out := make([]Participant, len(r.players))
	copy(out, r.players)
	return out
}

// First returns the lowest-id participant still present. The peer
// coordinator uses it to pick the one client that initiates the game.
func (r *Roster) First() (Participant, bool) {
	if len(r.players) == 0 {
		return Participant{}, false
	}
	return r.players[0], true
}

// Len is the total participant count, eliminated included.
func (r *Roster) Len() int {
	return len(r.players)
}

// Clone returns a roster that shares nothing with the receiver.
func (r *Roster) Clone() Roster {
	players := make([]Participant, len(r.players))
	copy(players, r.players)
	return Roster{players: players}
}
