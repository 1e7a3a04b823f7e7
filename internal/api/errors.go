package api

import (
	"errors"
	"fmt"
)

// ErrInvalidSession marks a private-view fetch the server refused because
// the game is gone or the credential no longer identifies a participant.
var ErrInvalidSession = errors.New("session no longer valid")

// TransportError reports a request that could not complete or came back
// with a non-success status. StatusCode is zero when no response arrived.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError reports a response body that could not be parsed into the
// expected shape.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
