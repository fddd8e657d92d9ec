package cmerrors

import (
	"errors"
	"fmt"
)

// ClientError is the base interface for all cmake server client errors.
type ClientError interface {
	error
	IsClientError() bool
}

// Compile-time verification that all error types implement ClientError.
var (
	_ ClientError = (*ConnectError)(nil)
	_ ClientError = (*ProtocolViolationError)(nil)
	_ ClientError = (*UnhandledResponseError)(nil)
	_ ClientError = (*DecodeError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrTransportNotConnected indicates an I/O call on a transport that
	// was never connected.
	ErrTransportNotConnected = errors.New("transport not connected")

	// ErrTransportClosed indicates an I/O call on a closed transport.
	ErrTransportClosed = errors.New("transport closed")
)

// ConnectError indicates the transport endpoint could not be opened.
//
// This is a user-facing condition, not an internal bug: callers should
// print a short message and exit without a stack trace.
type ConnectError struct {
	Endpoint string
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("could not connect to %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// IsClientError implements ClientError.
func (e *ConnectError) IsClientError() bool { return true }

// ProtocolViolationError indicates the peer broke the protocol contract:
// a cookie mismatch, an unexpected first message, or a stream that ended
// mid-handshake. The engine never attempts recovery, because a
// desynchronized stream cannot be safely repaired.
type ProtocolViolationError struct {
	Reason  string
	Message map[string]any
}

func (e *ProtocolViolationError) Error() string {
	if e.Message != nil {
		return fmt.Sprintf("protocol violation: %s (message: %v)", e.Reason, e.Message)
	}

	return fmt.Sprintf("protocol violation: %s", e.Reason)
}

// IsClientError implements ClientError.
func (e *ProtocolViolationError) IsClientError() bool { return true }

// UnhandledResponseError indicates an inbound message whose kind has no
// registered handler. Unknown kinds signal a protocol mismatch the request
// sequence did not account for, so this is fatal.
type UnhandledResponseError struct {
	Kind    string
	Message map[string]any
}

func (e *UnhandledResponseError) Error() string {
	return fmt.Sprintf("no handler for message kind %q", e.Kind)
}

// IsClientError implements ClientError.
func (e *UnhandledResponseError) IsClientError() bool { return true }

// DecodeError indicates a framed message body failed to parse as JSON.
// The original raw fragment is preserved for diagnostics.
type DecodeError struct {
	RawData string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode message body: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsClientError implements ClientError.
func (e *DecodeError) IsClientError() bool { return true }
