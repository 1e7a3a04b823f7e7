package session

import (
	"context"

	"github.com/dvanwesh/ramsita-game/logging"
)

const (
	// EventCreated is emitted when a new game session is established.
	EventCreated logging.EventType = "session.created"
	// EventJoined is emitted when an existing game is joined.
	EventJoined logging.EventType = "session.joined"
	// EventRestored is emitted when a persisted session is revived.
	EventRestored logging.EventType = "session.restored"
	// EventRestoreRejected is emitted when the server no longer knows the
	// persisted session and the record is discarded.
	EventRestoreRejected logging.EventType = "session.restore_rejected"
	// EventLeft is emitted when the session is torn down on request.
	EventLeft logging.EventType = "session.left"
	// EventPersistFailed is emitted when the session record cannot be
	// written to or removed from local storage.
	EventPersistFailed logging.EventType = "session.persist_failed"
)

// Payload carries the session identity for lifecycle events.
type Payload struct {
	GameCode string `json:"gameCode"`
}

// Created publishes an info event for a freshly created game.
func Created(ctx context.Context, pub logging.Publisher, gameID string, payload Payload) {
	publish(ctx, pub, EventCreated, gameID, logging.SeverityInfo, payload, nil)
}

// Joined publishes an info event for a joined game.
func Joined(ctx context.Context, pub logging.Publisher, gameID string, payload Payload) {
	publish(ctx, pub, EventJoined, gameID, logging.SeverityInfo, payload, nil)
}

// Restored publishes an info event for a revived session.
func Restored(ctx context.Context, pub logging.Publisher, gameID string, payload Payload) {
	publish(ctx, pub, EventRestored, gameID, logging.SeverityInfo, payload, nil)
}

// RestoreRejected publishes a warning when restoration is refused.
func RestoreRejected(ctx context.Context, pub logging.Publisher, gameID string, err error) {
	extra := map[string]any(nil)
	if err != nil {
		extra = map[string]any{"error": err.Error()}
	}
	publish(ctx, pub, EventRestoreRejected, gameID, logging.SeverityWarn, nil, extra)
}

// Left publishes an info event for an explicit teardown.
func Left(ctx context.Context, pub logging.Publisher, gameID string) {
	publish(ctx, pub, EventLeft, gameID, logging.SeverityInfo, nil, nil)
}

// PersistFailed publishes a warning for a failed storage write or removal.
func PersistFailed(ctx context.Context, pub logging.Publisher, gameID string, err error) {
	extra := map[string]any(nil)
	if err != nil {
		extra = map[string]any{"error": err.Error()}
	}
	publish(ctx, pub, EventPersistFailed, gameID, logging.SeverityWarn, nil, extra)
}

func publish(ctx context.Context, pub logging.Publisher, eventType logging.EventType, gameID string, severity logging.Severity, payload any, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     eventType,
		GameID:   gameID,
		Severity: severity,
		Category: logging.CategorySession,
		Payload:  payload,
		Extra:    extra,
	})
}
