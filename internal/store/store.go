package store

import (
	"context"
	"errors"
	"sync"

	"github.com/dvanwesh/ramsita-game/internal/api"
	"github.com/dvanwesh/ramsita-game/internal/game"
	"github.com/dvanwesh/ramsita-game/internal/session"
	"github.com/dvanwesh/ramsita-game/internal/telemetry"
	"github.com/dvanwesh/ramsita-game/logging"
	sessionlog "github.com/dvanwesh/ramsita-game/logging/session"
)

const eventRoundRecorded logging.EventType = "store.round_recorded"

type roundRecordedPayload struct {
	RoundNumber int `json:"roundNumber"`
}

// GameAPI is the request/response surface the store drives. Implemented
// by api.Client; stubbed in tests.
type GameAPI interface {
	CreateGame(ctx context.Context, playerName string, totalRounds int) (api.CreatedGame, error)
	JoinGame(ctx context.Context, code, playerName string) (api.CreatedGame, error)
	StartGame(ctx context.Context, gameID string) error
	Guess(ctx context.Context, gameID, guessedPlayerID string) error
	FetchMe(ctx context.Context, gameID string) (game.MyState, error)
}

// Subscription is one live attachment to a game's broadcast topic.
type Subscription interface {
	Snapshots() <-chan game.PublicState
	Close()
}

// Broadcast owns subscription lifecycles. Implemented by the ws
// subscriber; stubbed in tests.
type Broadcast interface {
	Attach(gameID string) Subscription
}

// SessionStorage persists the session record across process restarts.
type SessionStorage interface {
	Save(ctx context.Context, record session.Record) error
	Load(ctx context.Context) (session.Record, bool, error)
	Clear(ctx context.Context) error
}

// View is the merged state exposed to consumers: the latest broadcast
// snapshot overlaid with the private fields of the latest private-view
// fetch. Me is nil until the first fetch resolves.
type View struct {
	game.PublicState
	Me          *game.Player
	MyChit      game.ChitType
	RoundStatus game.RoundStatus
}

// Store is the single owned cell of client game state. All mutation
// happens under one mutex, as an atomic replace of the relevant fields,
// so readers always observe a consistent merge. Lifecycle is
// NO_SESSION -> ACTIVE -> NO_SESSION; the richer game-status machine
// belongs to the server and is carried through untouched.
type Store struct {
	api       GameAPI
	broadcast Broadcast
	storage   SessionStorage
	pub       logging.Publisher
	logger    telemetry.Logger

	mu          sync.Mutex
	session     *session.Record
	public      game.PublicState
	hasState    bool
	me          *game.Player
	myChit      game.ChitType
	roundStatus game.RoundStatus
	history     []HistoryEntry
	sub         Subscription
	// version counts broadcast applications. Private-view fetches are
	// tagged with the version they were issued at so a fetch that lost
	// the race against a newer snapshot cannot roll public fields back.
	version uint64

	wg sync.WaitGroup
}

// New constructs an empty store in the NO_SESSION state.
func New(gameAPI GameAPI, broadcast Broadcast, storage SessionStorage, pub logging.Publisher, logger telemetry.Logger) *Store {
	if pub == nil {
		pub = logging.NopPublisher()
	}
	return &Store{
		api:       gameAPI,
		broadcast: broadcast,
		storage:   storage,
		pub:       pub,
		logger:    logger,
	}
}

// CreateGame provisions a new game and installs the resulting session.
// On any failure the store is left exactly as it was.
func (s *Store) CreateGame(ctx context.Context, playerName string, totalRounds int) error {
	created, err := s.api.CreateGame(ctx, playerName, totalRounds)
	if err != nil {
		return err
	}
	state, err := s.api.FetchMe(ctx, created.GameID)
	if err != nil {
		return err
	}

	record := session.Record{GameID: created.GameID, GameCode: created.GameCode}
	s.installSession(ctx, record, state)
	sessionlog.Created(ctx, s.pub, record.GameID, sessionlog.Payload{GameCode: record.GameCode})
	return nil
}

// JoinGame enters an existing game by code and installs the session.
// The caller is responsible for trimming and rejecting empty inputs.
func (s *Store) JoinGame(ctx context.Context, code, playerName string) error {
	joined, err := s.api.JoinGame(ctx, code, playerName)
	if err != nil {
		return err
	}
	state, err := s.api.FetchMe(ctx, joined.GameID)
	if err != nil {
		return err
	}

	record := session.Record{GameID: joined.GameID, GameCode: joined.GameCode}
	s.installSession(ctx, record, state)
	sessionlog.Joined(ctx, s.pub, record.GameID, sessionlog.Payload{GameCode: record.GameCode})
	return nil
}

// StartGame asks the server to begin the game. No direct state change:
// the resulting transition arrives over the broadcast channel. No-op
// without an active session.
func (s *Store) StartGame(ctx context.Context) error {
	gameID, ok := s.activeGameID()
	if !ok {
		return nil
	}
	return s.api.StartGame(ctx, gameID)
}

// Guess submits a guess for the current round. Like StartGame, the
// outcome arrives via broadcast. No-op without an active session.
func (s *Store) Guess(ctx context.Context, targetPlayerID string) error {
	gameID, ok := s.activeGameID()
	if !ok {
		return nil
	}
	return s.api.Guess(ctx, gameID, targetPlayerID)
}

// LoadMe re-runs the private-view fetch and overlays the result. Used
// for manual refresh; no-op without an active session.
func (s *Store) LoadMe(ctx context.Context) error {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return nil
	}
	gameID := s.session.GameID
	sub := s.sub
	issuedAt := s.version
	s.mu.Unlock()

	state, err := s.api.FetchMe(ctx, gameID)
	if err != nil {
		return err
	}
	s.overlay(sub, gameID, issuedAt, state)
	return nil
}

// RestoreFromStorage revives a persisted session after a restart. An
// absent record is a no-op. A record the server rejects is discarded
// and the store stays empty without surfacing an error; the round
// history is never recoverable across a restart. A transport failure
// keeps the record so a later retry can still succeed.
func (s *Store) RestoreFromStorage(ctx context.Context) error {
	record, ok, err := s.storage.Load(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	state, err := s.api.FetchMe(ctx, record.GameID)
	if err != nil {
		if errors.Is(err, api.ErrInvalidSession) {
			if clearErr := s.storage.Clear(ctx); clearErr != nil {
				sessionlog.PersistFailed(ctx, s.pub, record.GameID, clearErr)
			}
			sessionlog.RestoreRejected(ctx, s.pub, record.GameID, err)
			return nil
		}
		return err
	}

	s.installSession(ctx, record, state)
	sessionlog.Restored(ctx, s.pub, record.GameID, sessionlog.Payload{GameCode: record.GameCode})
	return nil
}

// LeaveGame tears the session down: the persisted record is removed,
// the subscription closed best-effort, and every field reset. Failures
// along the way are logged, never surfaced.
func (s *Store) LeaveGame(ctx context.Context) {
	s.mu.Lock()
	record := s.session
	sub := s.sub
	s.session = nil
	s.public = game.PublicState{}
	s.hasState = false
	s.me = nil
	s.myChit = ""
	s.roundStatus = ""
	s.history = nil
	s.sub = nil
	s.version++
	s.mu.Unlock()

	gameID := ""
	if record != nil {
		gameID = record.GameID
	}
	if err := s.storage.Clear(ctx); err != nil {
		sessionlog.PersistFailed(ctx, s.pub, gameID, err)
	}
	if sub != nil {
		sub.Close()
	}
	if record != nil {
		sessionlog.Left(ctx, s.pub, gameID)
	}
}

// Active reports whether a session is installed.
func (s *Store) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil
}

// Session returns the current session record.
func (s *Store) Session() (session.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return session.Record{}, false
	}
	return *s.session, true
}

// Me returns the participant's own identity from the latest fetch.
func (s *Store) Me() (game.Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.me == nil {
		return game.Player{}, false
	}
	return *s.me, true
}

// Snapshot returns a consistent copy of the merged view. ok is false
// before any state is known.
func (s *Store) Snapshot() (View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasState {
		return View{}, false
	}
	view := View{
		PublicState: s.public.Clone(),
		MyChit:      s.myChit,
		RoundStatus: s.roundStatus,
	}
	if s.me != nil {
		me := *s.me
		view.Me = &me
	}
	return view, true
}

// History returns a copy of the round-history ledger in append order.
func (s *Store) History() []HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneHistory(s.history)
}

// Wait blocks until all snapshot consumers have exited. Intended for
// orderly shutdown after LeaveGame.
func (s *Store) Wait() {
	s.wg.Wait()
}

func (s *Store) activeGameID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return "", false
	}
	return s.session.GameID, true
}

// installSession atomically replaces the whole cell with a fresh
// session: record persisted, ledger reset, subscriber attached. Any
// prior subscription is replaced, never duplicated.
func (s *Store) installSession(ctx context.Context, record session.Record, state game.MyState) {
	sub := s.broadcast.Attach(record.GameID)

	s.mu.Lock()
	prior := s.sub
	s.session = &record
	s.public = state.PublicState.Clone()
	s.hasState = true
	me := state.Me
	s.me = &me
	s.myChit = state.MyChit
	s.roundStatus = state.RoundStatus
	s.history = nil
	s.sub = sub
	s.version++
	s.mu.Unlock()

	if prior != nil {
		prior.Close()
	}
	if err := s.storage.Save(ctx, record); err != nil {
		sessionlog.PersistFailed(ctx, s.pub, record.GameID, err)
	}

	s.wg.Add(1)
	go s.consume(sub)
}

// consume drains one subscription in arrival order. It exits when the
// subscription's channel closes; snapshots from a replaced subscription
// are discarded by the ownership check in applySnapshot.
func (s *Store) consume(sub Subscription) {
	defer s.wg.Done()
	for snap := range sub.Snapshots() {
		s.applySnapshot(sub, snap)
	}
}

// applySnapshot installs a broadcast snapshot's public fields, folds it
// into the history ledger, and kicks off the asynchronous private-view
// refetch. The raw snapshot is always applied before the overlay is
// even requested, so consumers observe the public transition first.
func (s *Store) applySnapshot(sub Subscription, snap game.PublicState) {
	s.mu.Lock()
	if s.sub != sub || s.session == nil || snap.GameID != s.session.GameID {
		s.mu.Unlock()
		return
	}
	s.public = snap.Clone()
	s.hasState = true
	s.version++
	issuedAt := s.version
	gameID := s.session.GameID
	var appended bool
	s.history, appended = appendRound(s.history, snap)
	s.mu.Unlock()

	if appended {
		s.pub.Publish(context.Background(), logging.Event{
			Type:     eventRoundRecorded,
			GameID:   gameID,
			Severity: logging.SeverityInfo,
			Category: logging.CategoryStore,
			Payload:  roundRecordedPayload{RoundNumber: snap.CurrentRoundNumber},
		})
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		state, err := s.api.FetchMe(context.Background(), gameID)
		if err != nil {
			if s.logger != nil {
				s.logger.Printf("private view refetch for game %s failed: %v", gameID, err)
			}
			return
		}
		s.overlay(sub, gameID, issuedAt, state)
	}()
}

// overlay applies a resolved private-view fetch. If no newer broadcast
// arrived since the fetch was issued, the full view is installed (the
// shallow union, private fields winning). If the fetch was superseded,
// only the private fields land: its public copies are stale, while the
// identity they describe is still current.
func (s *Store) overlay(sub Subscription, gameID string, issuedAt uint64, state game.MyState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != sub || s.session == nil || s.session.GameID != gameID {
		return
	}
	if s.version == issuedAt {
		s.public = state.PublicState.Clone()
		s.hasState = true
	}
	me := state.Me
	s.me = &me
	s.myChit = state.MyChit
	s.roundStatus = state.RoundStatus
}
