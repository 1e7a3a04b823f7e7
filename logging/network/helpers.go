package network

import (
	"context"

	"github.com/dvanwesh/ramsita-game/logging"
)

const (
	// EventConnected is emitted when the broadcast subscription is live.
	EventConnected logging.EventType = "network.connected"
	// EventDisconnected is emitted when the broadcast connection drops.
	EventDisconnected logging.EventType = "network.disconnected"
	// EventReconnectScheduled is emitted before a reconnect attempt is timed.
	EventReconnectScheduled logging.EventType = "network.reconnect_scheduled"
	// EventDecodeError is emitted when an inbound message fails to decode.
	EventDecodeError logging.EventType = "network.decode_error"
	// EventSnapshotReceived is emitted for every decoded broadcast snapshot.
	EventSnapshotReceived logging.EventType = "network.snapshot_received"
)

// DisconnectPayload captures why a live connection ended.
type DisconnectPayload struct {
	Reason string `json:"reason"`
}

// ReconnectPayload captures retry scheduling details.
type ReconnectPayload struct {
	DelayMillis int64 `json:"delayMillis"`
	Attempt     int   `json:"attempt"`
}

// SnapshotPayload summarizes a decoded snapshot without repeating it.
type SnapshotPayload struct {
	GameStatus  string `json:"gameStatus"`
	RoundNumber int    `json:"roundNumber"`
	Players     int    `json:"players"`
}

// Connected publishes an info event when a subscription becomes live.
func Connected(ctx context.Context, pub logging.Publisher, gameID string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventConnected,
		GameID:   gameID,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
	})
}

// Disconnected publishes a warning event when the connection drops.
func Disconnected(ctx context.Context, pub logging.Publisher, gameID string, payload DisconnectPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDisconnected,
		GameID:   gameID,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}

// ReconnectScheduled publishes a debug event before the retry timer fires.
func ReconnectScheduled(ctx context.Context, pub logging.Publisher, gameID string, payload ReconnectPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventReconnectScheduled,
		GameID:   gameID,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}

// DecodeError publishes a warning event for a dropped malformed message.
func DecodeError(ctx context.Context, pub logging.Publisher, gameID string, err error) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventDecodeError,
		GameID:   gameID,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
	}
	if err != nil {
		event = event.WithExtra("error", err.Error())
	}
	pub.Publish(ctx, event)
}

// SnapshotReceived publishes a debug event for a delivered snapshot.
func SnapshotReceived(ctx context.Context, pub logging.Publisher, gameID string, payload SnapshotPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSnapshotReceived,
		GameID:   gameID,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}
