package integration

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"battleship_server/internal/domain"
	"battleship_server/internal/repository"
)

func TestMatchRepositoryRoundTrip(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	dbp, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	defer dbp.Close()

	applyMigrationsToPool(t, dbp)

	ctx := context.Background()
	ur := repository.NewUserRepository(dbp)

	winner := &domain.User{Username: "repo_winner"}
	if err := ur.Create(ctx, winner); err != nil {
		t.Fatalf("create winner: %v", err)
	}
	loser := &domain.User{Username: "repo_loser"}
	if err := ur.Create(ctx, loser); err != nil {
		t.Fatalf("create loser: %v", err)
	}

	got, err := ur.GetByID(ctx, winner.ID)
	if err != nil {
		t.Fatalf("get winner: %v", err)
	}
	if got.Username != "repo_winner" {
		t.Fatalf("username = %q", got.Username)
	}
	if _, err := ur.GetByID(ctx, -1); err != repository.ErrUserNotFound {
		t.Fatalf("missing user error = %v; want ErrUserNotFound", err)
	}

	mr := repository.NewMatchRepository(dbp)
	rec := &domain.MatchRecord{
		RoomID:   "room-int-test",
		WinnerID: winner.ID,
		LoserID:  loser.ID,
		Forfeit:  true,
	}
	if err := mr.Create(ctx, rec); err != nil {
		t.Fatalf("create match: %v", err)
	}
	if rec.ID == 0 || rec.CreatedAt.IsZero() {
		t.Fatalf("insert did not populate id/created_at: %+v", rec)
	}

	for _, id := range []int64{winner.ID, loser.ID} {
		recs, err := mr.GetByUser(ctx, id)
		if err != nil {
			t.Fatalf("get matches for %d: %v", id, err)
		}
		if len(recs) != 1 || recs[0].ID != rec.ID {
			t.Fatalf("matches for %d = %+v; want the inserted record", id, recs)
		}
	}

	rows, err := ur.GetTopByWins(ctx, 500)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	var found bool
	for _, row := range rows {
		if row.User.ID == winner.ID {
			found = true
			if row.Wins < 1 {
				t.Fatalf("winner has %d wins on the leaderboard", row.Wins)
			}
		}
	}
	if !found {
		t.Fatal("winner missing from leaderboard")
	}
}
