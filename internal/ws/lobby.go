package ws

import (
	"sort"
	"sync"
)

// ChallengeStatus is the result of trying to open a challenge between two
// lobby users.
type ChallengeStatus int

const (
	ChallengeOpened ChallengeStatus = iota
	ChallengeUnavailable     // challenged user already has a pending challenge
	ChallengeTargetMissing   // challenged user is not in the lobby
	ChallengeSourceMissing   // challenger is not in the lobby
)

// Lobby is the directory of users waiting for a match. One mutex covers
// every read-modify-write of the pending flags, so a concurrent pair of
// challenge requests can never both claim the same user.
type Lobby struct {
	mu      sync.Mutex
	entries map[int64]*LobbyEntry
}

func NewLobby() *Lobby {
	return &Lobby{entries: make(map[int64]*LobbyEntry)}
}

// Join upserts the user with the pending flag cleared.
func (l *Lobby) Join(userID int64, username string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[userID] = &LobbyEntry{UserID: userID, Username: username}
}

func (l *Lobby) Leave(userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.entries[userID]
	delete(l.entries, userID)
	return ok
}

func (l *Lobby) Contains(userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.entries[userID]
	return ok
}

func (l *Lobby) Get(userID int64) (LobbyEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[userID]
	if !ok {
		return LobbyEntry{}, false
	}
	return *e, true
}

// BeginChallenge atomically checks availability and flags both users as
// pending. On ChallengeOpened the returned name is the challenger's username
// for the challenge_received notification; no state changes on any other
// status.
func (l *Lobby) BeginChallenge(challengerID, challengedID int64) (ChallengeStatus, string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	challenged, ok := l.entries[challengedID]
	if !ok {
		return ChallengeTargetMissing, ""
	}
	challenger, ok := l.entries[challengerID]
	if !ok {
		return ChallengeSourceMissing, ""
	}
	if challenged.PendingChallenge {
		return ChallengeUnavailable, ""
	}

	challenged.PendingChallenge = true
	challenger.PendingChallenge = true
	return ChallengeOpened, challenger.Username
}

// ClearPending drops the pending flag on both sides of a pair. Either user
// may have left the lobby already; the absent one is simply skipped.
func (l *Lobby) ClearPending(userIDs ...int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range userIDs {
		if e, ok := l.entries[id]; ok {
			e.PendingChallenge = false
		}
	}
}

// Snapshot returns the full directory ordered by user id. Every broadcast
// carries the whole set; there is no diff protocol.
func (l *Lobby) Snapshot() []LobbyEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]LobbyEntry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

func (l *Lobby) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
