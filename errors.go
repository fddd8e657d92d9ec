package cmakeserver

import "github.com/cmakeutil/cmake-server-go/internal/cmerrors"

// Re-export error types from the internal package.

// ConnectError indicates the transport endpoint could not be opened.
// This is a user-facing condition: print a short message, no stack trace.
type ConnectError = cmerrors.ConnectError

// ProtocolViolationError indicates the peer broke the protocol contract:
// a cookie mismatch, an unexpected first message, or a stream that ended
// mid-handshake.
type ProtocolViolationError = cmerrors.ProtocolViolationError

// UnhandledResponseError indicates an inbound message kind with no
// registered handler.
type UnhandledResponseError = cmerrors.UnhandledResponseError

// DecodeError indicates a framed message body failed to parse as JSON.
type DecodeError = cmerrors.DecodeError

// ClientError is the base interface for all client errors.
type ClientError = cmerrors.ClientError

// Re-export sentinel errors from the internal package.
var (
	// ErrTransportNotConnected indicates an I/O call on a transport that
	// was never connected.
	ErrTransportNotConnected = cmerrors.ErrTransportNotConnected

	// ErrTransportClosed indicates an I/O call on a closed transport.
	ErrTransportClosed = cmerrors.ErrTransportClosed
)
