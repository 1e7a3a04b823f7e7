package ws

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dvanwesh/ramsita-game/internal/game"
	"github.com/dvanwesh/ramsita-game/internal/telemetry"
	"github.com/dvanwesh/ramsita-game/logging"
	networklog "github.com/dvanwesh/ramsita-game/logging/network"
)

const defaultReconnectDelay = 2 * time.Second

// Subscriber owns at most one live broadcast connection. Attaching while
// a subscription is live replaces it; two subscriptions for the same
// session never coexist.
type Subscriber struct {
	baseURL string
	dialer  *websocket.Dialer
	delay   time.Duration
	pub     logging.Publisher
	logger  telemetry.Logger

	mu      sync.Mutex
	current *Subscription
}

// NewSubscriber constructs a subscriber dialing topics under baseURL
// (e.g. ws://host/ws). The jar must be the one the REST client uses so
// the handshake carries the session credential.
func NewSubscriber(baseURL string, jar http.CookieJar, delay time.Duration, pub logging.Publisher, logger telemetry.Logger) *Subscriber {
	if delay <= 0 {
		delay = defaultReconnectDelay
	}
	if pub == nil {
		pub = logging.NopPublisher()
	}
	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 10 * time.Second,
		Jar:              jar,
	}
	return &Subscriber{
		baseURL: strings.TrimRight(baseURL, "/"),
		dialer:  dialer,
		delay:   delay,
		pub:     pub,
		logger:  logger,
	}
}

// Attach opens a subscription to the game's state topic and starts its
// read loop. Any prior subscription is closed first.
func (s *Subscriber) Attach(gameID string) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.current.Close()
	}

	id := uuid.NewString()
	sub := &Subscription{
		id:        id,
		gameID:    gameID,
		url:       s.baseURL + fmt.Sprintf("/games/%s/state", gameID),
		dialer:    s.dialer,
		delay:     s.delay,
		pub:       logging.WithFields(s.pub, map[string]any{"subscriptionId": id}),
		logger:    s.logger,
		snapshots: make(chan game.PublicState, 16),
		done:      make(chan struct{}),
	}
	s.current = sub
	go sub.run()
	return sub
}

// Subscription is one attachment to a game's state topic. Snapshots are
// delivered in arrival order on a single channel; the channel closes
// when the subscription is closed.
type Subscription struct {
	id     string
	gameID string
	url    string
	dialer *websocket.Dialer
	delay  time.Duration
	pub    logging.Publisher
	logger telemetry.Logger

	snapshots chan game.PublicState
	done      chan struct{}
	closeOnce sync.Once

	connMu sync.Mutex
	conn   *websocket.Conn
}

// Snapshots returns the channel of decoded broadcast snapshots.
func (s *Subscription) Snapshots() <-chan game.PublicState {
	return s.snapshots
}

// GameID returns the game this subscription is scoped to.
func (s *Subscription) GameID() string {
	return s.gameID
}

// ID returns the unique handle of this attachment.
func (s *Subscription) ID() string {
	return s.id
}

// Close tears the subscription down best-effort: the close frame may or
// may not reach the server, and failures are only logged.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()
		if conn != nil {
			message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			if err := conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(time.Second)); err != nil && s.logger != nil {
				s.logger.Printf("close frame for game %s not sent: %v", s.gameID, err)
			}
			conn.Close()
		}
	})
}

func (s *Subscription) run() {
	defer close(s.snapshots)

	ctx := context.Background()
	attempt := 0
	for {
		select {
		case <-s.done:
			return
		default:
		}

		conn, resp, err := s.dialer.Dial(s.url, nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			attempt++
			networklog.ReconnectScheduled(ctx, s.pub, s.gameID, networklog.ReconnectPayload{
				DelayMillis: s.delay.Milliseconds(),
				Attempt:     attempt,
			})
			if !s.sleep() {
				return
			}
			continue
		}

		s.connMu.Lock()
		s.conn = conn
		s.connMu.Unlock()

		select {
		case <-s.done:
			conn.Close()
			return
		default:
		}

		networklog.Connected(ctx, s.pub, s.gameID)
		attempt = 0

		s.readLoop(ctx, conn)
		conn.Close()

		select {
		case <-s.done:
			return
		default:
		}

		attempt++
		networklog.ReconnectScheduled(ctx, s.pub, s.gameID, networklog.ReconnectPayload{
			DelayMillis: s.delay.Milliseconds(),
			Attempt:     attempt,
		})
		if !s.sleep() {
			return
		}
	}
}

func (s *Subscription) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			networklog.Disconnected(ctx, s.pub, s.gameID, networklog.DisconnectPayload{Reason: err.Error()})
			return
		}

		snap, err := game.DecodeSnapshot(data)
		if err != nil {
			// One malformed message must not take down the stream.
			networklog.DecodeError(ctx, s.pub, s.gameID, err)
			continue
		}

		networklog.SnapshotReceived(ctx, s.pub, s.gameID, networklog.SnapshotPayload{
			GameStatus:  string(snap.GameStatus),
			RoundNumber: snap.CurrentRoundNumber,
			Players:     len(snap.Players),
		})

		select {
		case s.snapshots <- snap:
		case <-s.done:
			return
		}
	}
}

// sleep waits one reconnect delay, returning false if the subscription
// closed while waiting.
func (s *Subscription) sleep() bool {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-s.done:
		return false
	}
}
