package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dvanwesh/ramsita-game/internal/game"
)

const defaultTimeout = 10 * time.Second

// Client talks to the game server's REST endpoints. The cookie jar keeps
// the PLAYER_TOKEN credential the server sets on create/join; the client
// never inspects it, only forwards it.
type Client struct {
	baseURL string
	http    *http.Client
}

// CreatedGame is the response to both the create and join endpoints.
type CreatedGame struct {
	GameID   string `json:"gameId"`
	GameCode string `json:"gameCode"`
}

// NewClient constructs a REST client rooted at baseURL (including the
// /api prefix). The jar should be shared with the broadcast dialer so
// the websocket handshake carries the same credential.
func NewClient(baseURL string, jar http.CookieJar) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Jar:     jar,
			Timeout: defaultTimeout,
		},
	}
}

// CreateGame provisions a new game owned by playerName.
func (c *Client) CreateGame(ctx context.Context, playerName string, totalRounds int) (CreatedGame, error) {
	const op = "create game"
	body := map[string]any{"playerName": playerName, "totalRounds": totalRounds}
	var created CreatedGame
	if err := c.postJSON(ctx, op, "/games", body, &created); err != nil {
		return CreatedGame{}, err
	}
	return created, nil
}

// JoinGame enters an existing game identified by its human-readable code.
func (c *Client) JoinGame(ctx context.Context, code, playerName string) (CreatedGame, error) {
	const op = "join game"
	body := map[string]any{"code": code, "playerName": playerName}
	var created CreatedGame
	if err := c.postJSON(ctx, op, "/games/join", body, &created); err != nil {
		return CreatedGame{}, err
	}
	return created, nil
}

// StartGame asks the server to begin the first round. State changes
// arrive via broadcast, not in this response.
func (c *Client) StartGame(ctx context.Context, gameID string) error {
	const op = "start game"
	return c.postJSON(ctx, op, fmt.Sprintf("/games/%s/start", gameID), nil, nil)
}

// Guess submits the requesting player's guess for the current round.
func (c *Client) Guess(ctx context.Context, gameID, guessedPlayerID string) error {
	const op = "submit guess"
	body := map[string]any{"guessedPlayerId": guessedPlayerID}
	return c.postJSON(ctx, op, fmt.Sprintf("/games/%s/rounds/current/guess", gameID), body, nil)
}

// FetchMe retrieves the requesting participant's private view. A 401,
// 403 or 404 means the server no longer recognizes the session; those
// wrap ErrInvalidSession so restoration can discard the stale record.
func (c *Client) FetchMe(ctx context.Context, gameID string) (game.MyState, error) {
	const op = "fetch private view"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+fmt.Sprintf("/games/%s/me", gameID), nil)
	if err != nil {
		return game.MyState{}, &TransportError{Op: op, Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return game.MyState{}, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return game.MyState{}, fmt.Errorf("%s: status %d: %w", op, resp.StatusCode, ErrInvalidSession)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return game.MyState{}, &TransportError{Op: op, StatusCode: resp.StatusCode}
	}

	var state game.MyState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return game.MyState{}, &DecodeError{Op: op, Err: err}
	}
	return state, nil
}

func (c *Client) postJSON(ctx context.Context, op, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &TransportError{Op: op, Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{Op: op, StatusCode: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{Op: op, Err: err}
	}
	return nil
}
