package ws

import "testing"

func TestLobbyJoinLeaveSnapshot(t *testing.T) {
	l := NewLobby()
	l.Join(2, "bob")
	l.Join(1, "alice")

	snap := l.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot size = %d; want 2", len(snap))
	}
	if snap[0].UserID != 1 || snap[1].UserID != 2 {
		t.Fatalf("snapshot not ordered by user id: %+v", snap)
	}
	for _, e := range snap {
		if e.PendingChallenge {
			t.Fatalf("fresh entry %d has pending flag set", e.UserID)
		}
	}

	if !l.Leave(1) {
		t.Fatal("leave of present user returned false")
	}
	if l.Leave(1) {
		t.Fatal("second leave of same user returned true")
	}
	if l.Contains(1) {
		t.Fatal("user still present after leave")
	}
}

func TestLobbyJoinIsUpsert(t *testing.T) {
	l := NewLobby()
	l.Join(1, "alice")
	l.Join(2, "bob")
	l.BeginChallenge(1, 2)

	// re-joining resets the pending flag
	l.Join(2, "bob")
	e, _ := l.Get(2)
	if e.PendingChallenge {
		t.Fatal("rejoin kept the pending flag")
	}
}

func TestBeginChallenge(t *testing.T) {
	l := NewLobby()
	l.Join(1, "alice")
	l.Join(2, "bob")

	status, name := l.BeginChallenge(1, 2)
	if status != ChallengeOpened || name != "alice" {
		t.Fatalf("got %v %q; want ChallengeOpened alice", status, name)
	}
	for _, id := range []int64{1, 2} {
		if e, _ := l.Get(id); !e.PendingChallenge {
			t.Fatalf("user %d not flagged pending", id)
		}
	}
}

func TestBeginChallengeUnavailable(t *testing.T) {
	l := NewLobby()
	l.Join(1, "alice")
	l.Join(2, "bob")
	l.Join(3, "carol")
	l.BeginChallenge(1, 2)

	status, _ := l.BeginChallenge(3, 2)
	if status != ChallengeUnavailable {
		t.Fatalf("status = %v; want ChallengeUnavailable", status)
	}
	// nothing changed for anyone
	if e, _ := l.Get(3); e.PendingChallenge {
		t.Fatal("rejected challenger was flagged pending")
	}
	if e, _ := l.Get(2); !e.PendingChallenge {
		t.Fatal("original pending flag lost")
	}
}

func TestBeginChallengeMissingUsers(t *testing.T) {
	l := NewLobby()
	l.Join(1, "alice")

	if status, _ := l.BeginChallenge(1, 9); status != ChallengeTargetMissing {
		t.Fatalf("status = %v; want ChallengeTargetMissing", status)
	}
	if status, _ := l.BeginChallenge(9, 1); status != ChallengeSourceMissing {
		t.Fatalf("status = %v; want ChallengeSourceMissing", status)
	}
	if e, _ := l.Get(1); e.PendingChallenge {
		t.Fatal("failed challenge left a pending flag behind")
	}
}

func TestClearPendingSkipsAbsent(t *testing.T) {
	l := NewLobby()
	l.Join(1, "alice")
	l.Join(2, "bob")
	l.BeginChallenge(1, 2)
	l.Leave(1)

	// must not blow up on the absent user
	l.ClearPending(1, 2)

	if e, _ := l.Get(2); e.PendingChallenge {
		t.Fatal("pending flag not cleared for remaining user")
	}
}
