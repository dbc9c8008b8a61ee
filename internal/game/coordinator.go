package game

// Coordinator decides which client performs the shared transitions that
// must happen exactly once per room: starting the game, ranking the
// answers, distributing questions. Both strategies drive the same state
// machine; they only differ in who acts.
type Coordinator interface {
	// ShouldStart reports whether this client initiates the game from
	// the lobby given the current state.
	ShouldStart(s *State) bool
	// Arbitrates reports whether this client computes and broadcasts
	// the elimination when the answer set completes.
	Arbitrates(s *State) bool
	// DistributesQuestions reports whether this client broadcasts each
	// round's question in-band.
	DistributesQuestions() bool
	// AdvancesLocally reports whether this client moves Countdown →
	// Question on its own timer. Hosted followers instead wait for the
	// host's in-band question.
	AdvancesLocally() bool
	// HostLost reports whether the exit of the given participant ends
	// the game for lack of an authority.
	HostLost(playerID string) bool
}

// PeerCoordinator runs a host-less room: the lowest-id client initiates
// the start once quorum is met, and every client arbitrates.
// Competing elimination broadcasts for the same round are expected and
// absorbed by idempotent application.
type PeerCoordinator struct {
	MinPlayers int
}

func (c PeerCoordinator) ShouldStart(s *State) bool {
	if s.Roster.ActiveCount() < c.MinPlayers {
		return false
	}
	first, ok := s.Roster.First()
	return ok && first.ID == s.SelfID
}

func (PeerCoordinator) Arbitrates(*State) bool        { return true }
func (PeerCoordinator) DistributesQuestions() bool    { return false }
func (PeerCoordinator) AdvancesLocally() bool         { return true }
func (PeerCoordinator) HostLost(playerID string) bool { return false }

// HostCoordinator runs a host-authoritative room: only the host starts,
// distributes questions, arbitrates and declares the winner. Everyone
// else reacts to the broadcast stream, and loses the game with the host.
type HostCoordinator struct {
	IsHost     bool
	HostID     string
	MinPlayers int
}

func (c HostCoordinator) ShouldStart(s *State) bool {
	return c.IsHost && s.Roster.ActiveCount() >= c.MinPlayers
}

func (c HostCoordinator) Arbitrates(*State) bool     { return c.IsHost }
func (c HostCoordinator) DistributesQuestions() bool { return c.IsHost }
func (c HostCoordinator) AdvancesLocally() bool      { return c.IsHost }

func (c HostCoordinator) HostLost(playerID string) bool {
	return !c.IsHost && playerID == c.HostID
}
