package game

import (
	"math/rand"
	"sync"
)

// Phase is the lifecycle state of a match.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseInProgress
	PhaseOver
)

type moveKey struct {
	player int64
	square Square
}

// Match is one active game between exactly two players. All state behind the
// mutex; every mutating operation completes its state change inside the lock
// before the caller performs any network or database work, so a duplicate
// event arriving mid-resolution can never slip past the dedup ledger.
type Match struct {
	mu sync.Mutex

	id          string
	players     []int64
	boards      map[int64]*Board
	ready       map[int64]bool
	currentTurn int64
	processed   map[moveKey]struct{}
	phase       Phase
}

func NewMatch(id string, playerA, playerB int64) *Match {
	return &Match{
		id:      id,
		players: []int64{playerA, playerB},
		boards: map[int64]*Board{
			playerA: NewBoard(nil),
			playerB: NewBoard(nil),
		},
		ready:     make(map[int64]bool),
		processed: make(map[moveKey]struct{}),
		phase:     PhaseSetup,
	}
}

func (m *Match) ID() string { return m.id }

func (m *Match) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

func (m *Match) CurrentTurn() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTurn
}

func (m *Match) HasPlayer(player int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasPlayer(player)
}

// Opponent returns the other member of the pair, or false if the player is
// not in the match or the other side already departed.
func (m *Match) Opponent(player int64) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opponent(player)
}

// ReadyResult reports what MarkReady did. When the second player readies up
// the match starts and CurrentTurn holds the randomly chosen opening actor.
type ReadyResult struct {
	OK          bool
	AllReady    bool
	CurrentTurn int64
}

// MarkReady attaches the submitted layout to the player's board and marks the
// player ready. Re-submitting while the match is still in setup is allowed
// (the reset flow depends on it) and wipes any prior hits and misses.
func (m *Match) MarkReady(player int64, ships []Ship) ReadyResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseSetup || !m.hasPlayer(player) {
		return ReadyResult{}
	}

	m.boards[player].Reset(ships)
	m.ready[player] = true

	if len(m.players) == 2 && m.ready[m.players[0]] && m.ready[m.players[1]] {
		m.phase = PhaseInProgress
		m.currentTurn = m.players[rand.Intn(2)]
		return ReadyResult{OK: true, AllReady: true, CurrentTurn: m.currentTurn}
	}
	return ReadyResult{OK: true}
}

// ResetBoard clears the player's layout so a fresh one can be submitted via
// MarkReady. Only valid for a player who is already ready while the match has
// not left setup; ready membership is untouched.
func (m *Match) ResetBoard(player int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseSetup || !m.ready[player] {
		return false
	}
	m.boards[player].Reset(nil)
	return true
}

// ShotOutcome is the observable effect of one resolved shot.
type ShotOutcome struct {
	OK       bool
	Result   ShotResult
	NextTurn int64 // meaningless once GameOver
	GameOver bool
	Winner   int64
}

// ResolveShot applies the acting player's shot to the opponent's board.
// Rejected as a no-op when the match is not in progress, it is not the
// actor's turn, or the (actor, square) pair was already resolved. The dedup
// ledger is written in the same critical section as the board mutation, so a
// rapid duplicate of the same shot observes it immediately. The turn passes
// to the opponent after every resolved shot regardless of outcome.
func (m *Match) ResolveShot(player int64, sq Square) ShotOutcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseInProgress || player != m.currentTurn {
		return ShotOutcome{}
	}
	key := moveKey{player: player, square: sq}
	if _, done := m.processed[key]; done {
		return ShotOutcome{}
	}
	opponent, ok := m.opponent(player)
	if !ok {
		return ShotOutcome{}
	}

	m.processed[key] = struct{}{}
	result := m.boards[opponent].ApplyShot(sq)
	m.currentTurn = opponent

	out := ShotOutcome{OK: true, Result: result, NextTurn: opponent}
	if result.Outcome == OutcomeAllSunk {
		m.phase = PhaseOver
		out.GameOver = true
		out.Winner = player
	}
	return out
}

// BoardSnapshot returns the hit/miss view of the given player's own board.
func (m *Match) BoardSnapshot(player int64) (hits, misses []Square, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, found := m.boards[player]
	if !found || !m.hasPlayer(player) {
		return nil, nil, false
	}
	hits, misses = b.Snapshot()
	return hits, misses, true
}

// Departure reports the consequences of a player leaving.
type Departure struct {
	Removed   bool
	Forfeit   bool  // match was in progress, the remaining player wins
	Winner    int64 // set when Forfeit
	Cancelled bool  // match never started, the remaining player is just notified
	Opponent  int64 // set when Forfeit or Cancelled
	Empty     bool  // nobody left, the session should be destroyed
}

// RemovePlayer takes the player out of the match. A departure from an
// in-progress game forfeits it to whoever stayed; a departure during setup
// merely cancels.
func (m *Match) RemovePlayer(player int64) Departure {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.hasPlayer(player) {
		return Departure{Empty: len(m.players) == 0}
	}

	remaining := m.players[:0]
	for _, p := range m.players {
		if p != player {
			remaining = append(remaining, p)
		}
	}
	m.players = remaining
	delete(m.ready, player)

	dep := Departure{Removed: true, Empty: len(m.players) == 0}
	if len(m.players) != 1 {
		return dep
	}

	dep.Opponent = m.players[0]
	switch m.phase {
	case PhaseInProgress:
		m.phase = PhaseOver
		dep.Forfeit = true
		dep.Winner = dep.Opponent
	case PhaseSetup:
		dep.Cancelled = true
	}
	return dep
}

func (m *Match) hasPlayer(player int64) bool {
	for _, p := range m.players {
		if p == player {
			return true
		}
	}
	return false
}

func (m *Match) opponent(player int64) (int64, bool) {
	if !m.hasPlayer(player) {
		return 0, false
	}
	for _, p := range m.players {
		if p != player {
			return p, true
		}
	}
	return 0, false
}
