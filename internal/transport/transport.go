// Package transport provides the byte-stream transports the protocol
// engine runs over.
//
// Two variants exist behind one capability interface: a unix stream socket
// and, on Windows, a named pipe. The concrete variant is selected at
// construction time based on the host platform.
package transport

import "context"

// State tracks the connection lifecycle of a transport.
type State int

const (
	// Disconnected is the initial state, before Connect.
	Disconnected State = iota

	// Connected means reads and writes are legal.
	Connected

	// Closed is terminal; the transport cannot be reused.
	Closed
)

// String returns a readable name for logging.
func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Transport is the capability set the protocol engine needs from a
// byte-stream duplex channel.
//
// Implement this to provide custom transports for testing or alternative
// communication methods. The engine drives a Transport from a single
// goroutine; only Close must be safe to call concurrently, because closing
// the transport from outside the read loop is the one cancellation path.
type Transport interface {
	// Connect opens the channel. Reads and writes are only legal after a
	// successful Connect.
	Connect(ctx context.Context) error

	// Close releases the channel. It is safe to call multiple times and
	// interrupts a blocked ReadUpTo, which then reports end of stream.
	Close() error

	// ReadUpTo performs one blocking read of at most n bytes. It may
	// return fewer bytes than requested. End of stream is reported as
	// (nil, io.EOF).
	ReadUpTo(n int) ([]byte, error)

	// WriteAll writes the full buffer before returning.
	WriteAll(p []byte) error
}
