package app

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/dvanwesh/ramsita-game/internal/api"
	"github.com/dvanwesh/ramsita-game/internal/game"
	"github.com/dvanwesh/ramsita-game/internal/session"
	"github.com/dvanwesh/ramsita-game/internal/store"
)

type driverAPI struct {
	mu      sync.Mutex
	creates int
	starts  int
}

func (a *driverAPI) CreateGame(ctx context.Context, playerName string, totalRounds int) (api.CreatedGame, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.creates++
	return api.CreatedGame{GameID: "g1", GameCode: "ABCD"}, nil
}

func (a *driverAPI) JoinGame(ctx context.Context, code, playerName string) (api.CreatedGame, error) {
	return api.CreatedGame{GameID: "g1", GameCode: code}, nil
}

func (a *driverAPI) StartGame(ctx context.Context, gameID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.starts++
	return nil
}

func (a *driverAPI) Guess(ctx context.Context, gameID, guessedPlayerID string) error {
	return nil
}

func (a *driverAPI) FetchMe(ctx context.Context, gameID string) (game.MyState, error) {
	return game.MyState{
		PublicState: game.PublicState{
			GameID:      "g1",
			GameCode:    "ABCD",
			GameStatus:  game.StatusLobby,
			TotalRounds: 5,
			Players:     []game.Player{{ID: "A", Name: "Asha", Host: true}},
		},
		Me: game.Player{ID: "A", Name: "Asha", Host: true},
	}, nil
}

func (a *driverAPI) createCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.creates
}

type driverSubscription struct {
	ch        chan game.PublicState
	closeOnce sync.Once
}

func (s *driverSubscription) Snapshots() <-chan game.PublicState { return s.ch }

func (s *driverSubscription) Close() {
	s.closeOnce.Do(func() { close(s.ch) })
}

type driverBroadcast struct{}

func (driverBroadcast) Attach(gameID string) store.Subscription {
	return &driverSubscription{ch: make(chan game.PublicState)}
}

type driverStorage struct {
	mu     sync.Mutex
	record *session.Record
}

func (s *driverStorage) Save(ctx context.Context, record session.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = &record
	return nil
}

func (s *driverStorage) Load(ctx context.Context) (session.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record == nil {
		return session.Record{}, false, nil
	}
	return *s.record, true, nil
}

func (s *driverStorage) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = nil
	return nil
}

func runDriverScript(t *testing.T, script string) (*driverAPI, string) {
	t.Helper()
	gameAPI := &driverAPI{}
	st := store.New(gameAPI, driverBroadcast{}, &driverStorage{}, nil, nil)

	var out strings.Builder
	if err := runDriver(context.Background(), st, strings.NewReader(script), &out); err != nil {
		t.Fatalf("runDriver returned error: %v", err)
	}
	st.LeaveGame(context.Background())
	st.Wait()
	return gameAPI, out.String()
}

func TestDriver_CreateThenState(t *testing.T) {
	gameAPI, out := runDriverScript(t, "create Asha 5\nstate\nquit\n")

	if gameAPI.createCount() != 1 {
		t.Fatalf("expected one create call, got %d", gameAPI.createCount())
	}
	if !strings.Contains(out, "game g1 (code ABCD)") {
		t.Fatalf("expected session line in output, got %q", out)
	}
	if !strings.Contains(out, "LOBBY round 0/5") {
		t.Fatalf("expected state line in output, got %q", out)
	}
	if !strings.Contains(out, "Asha (host)") {
		t.Fatalf("expected host marker in output, got %q", out)
	}
}

func TestDriver_RejectsBadCreateInput(t *testing.T) {
	gameAPI, out := runDriverScript(t, "create\ncreate Asha zero\ncreate Asha -1\nquit\n")

	if gameAPI.createCount() != 0 {
		t.Fatalf("expected no create calls for invalid input, got %d", gameAPI.createCount())
	}
	if strings.Count(out, "usage: create <name> <rounds>") != 3 {
		t.Fatalf("expected three usage lines, got %q", out)
	}
}

func TestDriver_UnknownCommand(t *testing.T) {
	_, out := runDriverScript(t, "dance\nquit\n")

	if !strings.Contains(out, `unknown command "dance"`) {
		t.Fatalf("expected unknown-command line, got %q", out)
	}
}

func TestDriver_StateBeforeSession(t *testing.T) {
	_, out := runDriverScript(t, "state\nhistory\nquit\n")

	if !strings.Contains(out, "no state yet") {
		t.Fatalf("expected empty-state line, got %q", out)
	}
	if !strings.Contains(out, "no rounds recorded") {
		t.Fatalf("expected empty-history line, got %q", out)
	}
}

func TestDriver_LeaveClearsSession(t *testing.T) {
	_, out := runDriverScript(t, "create Asha 5\nleave\nstate\nquit\n")

	if !strings.Contains(out, "left game") {
		t.Fatalf("expected leave acknowledgement, got %q", out)
	}
	if !strings.Contains(out, "no state yet") {
		t.Fatalf("expected state to be cleared after leave, got %q", out)
	}
}
