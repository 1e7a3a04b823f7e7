package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/dvanwesh/ramsita-game/internal/game"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New returned error: %v", err)
	}
	return NewClient(server.URL+"/api", jar), server
}

func TestCreateGame_SendsRequestAndKeepsCookie(t *testing.T) {
	var sawCookie string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/games", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method for /api/games: %s", r.Method)
		}
		var body struct {
			PlayerName  string `json:"playerName"`
			TotalRounds int    `json:"totalRounds"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode create body: %v", err)
		}
		if body.PlayerName != "Priya" || body.TotalRounds != 5 {
			t.Errorf("unexpected create body: %+v", body)
		}
		http.SetCookie(w, &http.Cookie{Name: "PLAYER_TOKEN", Value: "tok-1", HttpOnly: true, Path: "/"})
		json.NewEncoder(w).Encode(map[string]string{"gameId": "g1", "gameCode": "ABCD"})
	})
	mux.HandleFunc("/api/games/g1/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method for /api/games/g1/me: %s", r.Method)
		}
		cookie, err := r.Cookie("PLAYER_TOKEN")
		if err == nil {
			sawCookie = cookie.Value
		}
		json.NewEncoder(w).Encode(game.MyState{
			PublicState: game.PublicState{GameID: "g1", GameCode: "ABCD", GameStatus: game.StatusLobby, TotalRounds: 5},
			Me:          game.Player{ID: "A", Name: "Priya", Host: true},
		})
	})

	client, _ := newTestClient(t, mux)

	created, err := client.CreateGame(context.Background(), "Priya", 5)
	if err != nil {
		t.Fatalf("CreateGame returned error: %v", err)
	}
	if created.GameID != "g1" || created.GameCode != "ABCD" {
		t.Fatalf("unexpected create response: %+v", created)
	}

	state, err := client.FetchMe(context.Background(), "g1")
	if err != nil {
		t.Fatalf("FetchMe returned error: %v", err)
	}
	if state.Me.Name != "Priya" {
		t.Fatalf("expected me to be Priya, got %+v", state.Me)
	}
	if sawCookie != "tok-1" {
		t.Fatalf("expected PLAYER_TOKEN to be forwarded, got %q", sawCookie)
	}
}

func TestJoinGame_SendsRequest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/games/join", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method for /api/games/join: %s", r.Method)
		}
		var body struct {
			Code       string `json:"code"`
			PlayerName string `json:"playerName"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode join body: %v", err)
		}
		if body.Code != "ABCD" || body.PlayerName != "Ramudu" {
			t.Errorf("unexpected join body: %+v", body)
		}
		json.NewEncoder(w).Encode(map[string]string{"gameId": "g1", "gameCode": "ABCD"})
	})

	client, _ := newTestClient(t, mux)

	joined, err := client.JoinGame(context.Background(), "ABCD", "Ramudu")
	if err != nil {
		t.Fatalf("JoinGame returned error: %v", err)
	}
	if joined.GameID != "g1" {
		t.Fatalf("unexpected join response: %+v", joined)
	}
}

func TestStartAndGuess_HitRoundEndpoints(t *testing.T) {
	var started, guessed string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/games/g1/start", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method for /api/games/g1/start: %s", r.Method)
		}
		started = r.URL.Path
	})
	mux.HandleFunc("/api/games/g1/rounds/current/guess", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method for /api/games/g1/rounds/current/guess: %s", r.Method)
		}
		var body struct {
			GuessedPlayerID string `json:"guessedPlayerId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode guess body: %v", err)
		}
		guessed = body.GuessedPlayerID
	})

	client, _ := newTestClient(t, mux)

	if err := client.StartGame(context.Background(), "g1"); err != nil {
		t.Fatalf("StartGame returned error: %v", err)
	}
	if started != "/api/games/g1/start" {
		t.Fatalf("expected start endpoint hit, got %q", started)
	}

	if err := client.Guess(context.Background(), "g1", "B"); err != nil {
		t.Fatalf("Guess returned error: %v", err)
	}
	if guessed != "B" {
		t.Fatalf("expected guess for B, got %q", guessed)
	}
}

func TestFetchMe_InvalidSessionStatuses(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound} {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		_, err := client.FetchMe(context.Background(), "gone")
		if !errors.Is(err, ErrInvalidSession) {
			t.Fatalf("expected ErrInvalidSession for status %d, got %v", status, err)
		}
	}
}

func TestFetchMe_ServerErrorIsTransportError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.FetchMe(context.Background(), "g1")
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if transportErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", transportErr.StatusCode)
	}
}

func TestFetchMe_BadBodyIsDecodeError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))

	_, err := client.FetchMe(context.Background(), "g1")
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}

func TestUnreachableServer_IsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New returned error: %v", err)
	}
	client := NewClient(url+"/api", jar)

	_, err = client.CreateGame(context.Background(), "Priya", 5)
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if transportErr.StatusCode != 0 {
		t.Fatalf("expected no status code for a failed request, got %d", transportErr.StatusCode)
	}
}
