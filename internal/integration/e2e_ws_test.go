package integration

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"

	"battleship_server/internal/config"
	"battleship_server/internal/domain"
	httpserver "battleship_server/internal/http"
	"battleship_server/internal/repository"
	"battleship_server/internal/service"
)

func applyMigrationsToPool(t *testing.T, dbp *pgxpool.Pool) {
	t.Helper()
	migDir := filepath.Join("..", "..", "internal", "migrations")
	files, err := os.ReadDir(migDir)
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		if strings.HasSuffix(f.Name(), ".sql") {
			names = append(names, f.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		b, err := os.ReadFile(filepath.Join(migDir, name))
		if err != nil {
			t.Fatalf("read file: %v", err)
		}
		if _, err := dbp.Exec(context.Background(), string(b)); err != nil {
			t.Fatalf("apply migration %s: %v", name, err)
		}
	}
}

type reader struct {
	ch chan map[string]any
}

// startReader keeps a single goroutine on ReadMessage and decodes frames into
// generic maps for the assertions below.
func startReader(conn *websocket.Conn) *reader {
	r := &reader{ch: make(chan map[string]any, 32)}
	go func() {
		defer close(r.ch)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var obj map[string]any
			if json.Unmarshal(msg, &obj) == nil {
				r.ch <- obj
			}
		}
	}()
	return r
}

// waitFor discards frames until one of the wanted type shows up.
func (r *reader) waitFor(t *testing.T, eventType string, tmo time.Duration) map[string]any {
	t.Helper()
	deadline := time.After(tmo)
	for {
		select {
		case obj, ok := <-r.ch:
			if !ok {
				t.Fatalf("connection closed waiting for %q", eventType)
			}
			if obj["type"] == eventType {
				payload, _ := obj["payload"].(map[string]any)
				return payload
			}
		case <-deadline:
			t.Fatalf("timeout waiting for %q", eventType)
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, eventType string, payload any) {
	t.Helper()
	frame := map[string]any{"type": eventType, "payload": payload}
	b, err := json.Marshal(frame)
	if err != nil {
		t.Fatalf("marshal %q: %v", eventType, err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatalf("write %q: %v", eventType, err)
	}
}

func TestE2E_WS_Match(t *testing.T) {
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

	uA := &domain.User{Username: "e2e_alice"}
	if err := ur.Create(ctx, uA); err != nil {
		t.Fatalf("create user A: %v", err)
	}
	uB := &domain.User{Username: "e2e_bob"}
	if err := ur.Create(ctx, uB); err != nil {
		t.Fatalf("create user B: %v", err)
	}

	service.InitJWT("test-secret")
	tokenA, err := service.GenerateJWT(uA.ID)
	if err != nil {
		t.Fatalf("gen token A: %v", err)
	}
	tokenB, err := service.GenerateJWT(uB.ID)
	if err != nil {
		t.Fatalf("gen token B: %v", err)
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	cfg := &config.Config{
		AppSecret:      "test-app-secret",
		APIRateLimit:   100,
		APIRateWindow:  time.Minute,
		AuthRateLimit:  100,
		AuthRateWindow: time.Minute,
	}
	httpserver.RegisterRoutes(r, dbp, cfg, "test")
	ts := httptest.NewServer(r)
	defer ts.Close()

	wsBase := strings.Replace(ts.URL, "http", "ws", 1) + "/ws?token="
	connA, _, err := websocket.DefaultDialer.Dial(wsBase+tokenA, nil)
	if err != nil {
		t.Fatalf("dial A: %v", err)
	}
	defer connA.Close()
	connB, _, err := websocket.DefaultDialer.Dial(wsBase+tokenB, nil)
	if err != nil {
		t.Fatalf("dial B: %v", err)
	}
	defer connB.Close()

	rdA := startReader(connA)
	rdB := startReader(connB)

	// lobby and handshake
	send(t, connA, "join_pvp_lobby", map[string]any{"userId": uA.ID})
	send(t, connB, "join_pvp_lobby", map[string]any{"userId": uB.ID})
	rdA.waitFor(t, "update_lobby", 2*time.Second)
	rdB.waitFor(t, "update_lobby", 2*time.Second)

	challenge := map[string]any{"challengerUserId": uA.ID, "challengedUserId": uB.ID}
	send(t, connA, "request_challenge", challenge)
	received := rdB.waitFor(t, "challenge_received", 2*time.Second)
	if received["challengerUsername"] != "e2e_alice" {
		t.Fatalf("challenge_received = %v", received)
	}

	send(t, connB, "accept_challenge", challenge)
	room := rdA.waitFor(t, "room_ready", 2*time.Second)
	roomID, _ := room["roomId"].(string)
	if roomID == "" {
		t.Fatalf("room_ready without room id: %v", room)
	}
	rdB.waitFor(t, "room_ready", 2*time.Second)

	// single one-square ship each, so one hit decides the match
	ships := []map[string]any{{"name": "raft", "squares": []string{"A1"}}}
	send(t, connA, "player_ready", map[string]any{"playerId": uA.ID, "roomId": roomID, "ships": ships})
	send(t, connB, "player_ready", map[string]any{"playerId": uB.ID, "roomId": roomID, "ships": ships})

	ready := rdA.waitFor(t, "all_players_ready", 2*time.Second)
	turn := int64(ready["currentPlayerTurn"].(float64))
	rdB.waitFor(t, "all_players_ready", 2*time.Second)

	shooter, winner := connA, uA.ID
	if turn == uB.ID {
		shooter, winner = connB, uB.ID
	}

	send(t, shooter, "shot_called", map[string]any{
		"square": "A1", "roomId": roomID, "currentPlayerId": turn,
	})
	rdA.waitFor(t, "ship_sunk", 2*time.Second)
	over := rdA.waitFor(t, "game_over", 2*time.Second)
	if int64(over["winnerId"].(float64)) != winner {
		t.Fatalf("game_over winner = %v; want %d", over["winnerId"], winner)
	}
	rdB.waitFor(t, "game_over", 2*time.Second)

	// the result lands in history asynchronously
	deadline := time.Now().Add(5 * time.Second)
	mr := repository.NewMatchRepository(dbp)
	for {
		recs, err := mr.GetByUser(ctx, winner)
		if err != nil {
			t.Fatalf("get matches: %v", err)
		}
		if len(recs) > 0 && recs[0].RoomID == roomID {
			if recs[0].WinnerID != winner || recs[0].Forfeit {
				t.Fatalf("stored match = %+v", recs[0])
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("match never stored")
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func TestE2E_WS_DisconnectForfeits(t *testing.T) {
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
	uA := &domain.User{Username: "e2e_quitter"}
	if err := ur.Create(ctx, uA); err != nil {
		t.Fatalf("create user A: %v", err)
	}
	uB := &domain.User{Username: "e2e_stayer"}
	if err := ur.Create(ctx, uB); err != nil {
		t.Fatalf("create user B: %v", err)
	}

	service.InitJWT("test-secret")
	tokenA, _ := service.GenerateJWT(uA.ID)
	tokenB, _ := service.GenerateJWT(uB.ID)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	cfg := &config.Config{
		AppSecret:      "test-app-secret",
		APIRateLimit:   100,
		APIRateWindow:  time.Minute,
		AuthRateLimit:  100,
		AuthRateWindow: time.Minute,
	}
	httpserver.RegisterRoutes(r, dbp, cfg, "test")
	ts := httptest.NewServer(r)
	defer ts.Close()

	wsBase := strings.Replace(ts.URL, "http", "ws", 1) + "/ws?token="
	connA, _, err := websocket.DefaultDialer.Dial(wsBase+tokenA, nil)
	if err != nil {
		t.Fatalf("dial A: %v", err)
	}
	defer connA.Close()
	connB, _, err := websocket.DefaultDialer.Dial(wsBase+tokenB, nil)
	if err != nil {
		t.Fatalf("dial B: %v", err)
	}
	defer connB.Close()

	rdA := startReader(connA)
	rdB := startReader(connB)

	send(t, connA, "join_pvp_lobby", map[string]any{"userId": uA.ID})
	send(t, connB, "join_pvp_lobby", map[string]any{"userId": uB.ID})
	rdA.waitFor(t, "update_lobby", 2*time.Second)

	challenge := map[string]any{"challengerUserId": uA.ID, "challengedUserId": uB.ID}
	send(t, connA, "request_challenge", challenge)
	rdB.waitFor(t, "challenge_received", 2*time.Second)
	send(t, connB, "accept_challenge", challenge)
	room := rdA.waitFor(t, "room_ready", 2*time.Second)
	roomID, _ := room["roomId"].(string)

	ships := []map[string]any{{"name": "raft", "squares": []string{"A1"}}}
	send(t, connA, "player_ready", map[string]any{"playerId": uA.ID, "roomId": roomID, "ships": ships})
	send(t, connB, "player_ready", map[string]any{"playerId": uB.ID, "roomId": roomID, "ships": ships})
	rdB.waitFor(t, "all_players_ready", 2*time.Second)

	// A's connection drops mid-game
	connA.Close()

	over := rdB.waitFor(t, "game_over", 5*time.Second)
	if int64(over["winnerId"].(float64)) != uB.ID {
		t.Fatalf("forfeit winner = %v; want %d", over["winnerId"], uB.ID)
	}
}
