package xenoclient

import (
	"errors"
	"fmt"
	"time"
)

// Common errors
var (
	// ErrNotConnected is returned when submitting an operation while the
	// connection is not open.
	ErrNotConnected = errors.New("not connected to server")

	// ErrClosed is returned when operating on a closed connection.
	ErrClosed = errors.New("connection closed")
)

// ConnectionError represents a connection failure.
type ConnectionError struct {
	Address string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Address, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// KeyError reports a structurally invalid key. Index is the position of the
// key within a batch operation, or -1 for single-key operations.
type KeyError struct {
	Key    string
	Index  int
	Reason string
}

func (e *KeyError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid key at index %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("invalid key: %s", e.Reason)
}

// ValidationError reports a batch element or value rejected before any
// request was submitted. Index is -1 outside batch operations; Field names
// the offending part of a composite element ("key" or "value").
type ValidationError struct {
	Index int
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid %s at index %d: %v", e.Field, e.Index, e.Err)
	}
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// TimeoutError is the forced settlement of a request that received no
// response within the timeout window.
type TimeoutError struct {
	RequestID string
	After     time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request %s timed out after %s", e.RequestID, e.After)
}

// ServerError represents an error returned by the server.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: %s", e.Message)
}

// ProtocolError represents a protocol-level error.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: %s", e.Message)
}
