package transport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/cmakeutil/cmake-server-go/internal/cmerrors"
)

// Socket is the stream-socket transport variant. It dials a unix domain
// socket at the endpoint path the cmake server was started with.
type Socket struct {
	log      *slog.Logger
	endpoint string

	mu        sync.Mutex
	state     State
	conn      net.Conn
	closeOnce sync.Once
}

// Compile-time verification that Socket implements the Transport interface.
var _ Transport = (*Socket)(nil)

// NewSocket creates a socket transport for the given endpoint path.
// The connection is not opened until Connect.
func NewSocket(log *slog.Logger, endpoint string) *Socket {
	return &Socket{
		log:      log.With("component", "socket_transport"),
		endpoint: endpoint,
	}
}

// Connect dials the endpoint. A failure to open the socket is a
// ConnectError, the user-facing "could not connect" condition.
func (s *Socket) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Closed {
		return cmerrors.ErrTransportClosed
	}

	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "unix", s.endpoint)
	if err != nil {
		return &cmerrors.ConnectError{Endpoint: s.endpoint, Err: err}
	}

	s.conn = conn
	s.state = Connected
	s.log.Info("Connected", "endpoint", s.endpoint)

	return nil
}

// ReadUpTo performs one blocking read of at most n bytes.
//
// A read interrupted by Close and a peer that hung up both surface as
// (nil, io.EOF): either way the stream is over and the engine should shut
// down cleanly.
func (s *Socket) ReadUpTo(n int) ([]byte, error) {
	s.mu.Lock()
	conn, state := s.conn, s.state
	s.mu.Unlock()

	if state != Connected || conn == nil {
		if state == Closed {
			return nil, io.EOF
		}

		return nil, cmerrors.ErrTransportNotConnected
	}

	buf := make([]byte, n)

	read, err := conn.Read(buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
			return nil, io.EOF
		}

		return nil, err
	}

	return buf[:read], nil
}

// WriteAll writes the full buffer to the socket.
func (s *Socket) WriteAll(p []byte) error {
	s.mu.Lock()
	conn, state := s.conn, s.state
	s.mu.Unlock()

	if state != Connected || conn == nil {
		if state == Closed {
			return cmerrors.ErrTransportClosed
		}

		return cmerrors.ErrTransportNotConnected
	}

	for len(p) > 0 {
		written, err := conn.Write(p)
		if err != nil {
			return err
		}

		p = p[written:]
	}

	return nil
}

// Close releases the socket. Safe to call multiple times; the underlying
// connection is closed exactly once, and any blocked ReadUpTo is woken.
func (s *Socket) Close() error {
	var err error

	s.closeOnce.Do(func() {
		s.mu.Lock()
		conn := s.conn
		s.state = Closed
		s.mu.Unlock()

		if conn != nil {
			err = conn.Close()
		}

		s.log.Info("Closed", "endpoint", s.endpoint)
	})

	return err
}
