//go:build windows

package transport

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/cmakeutil/cmake-server-go/internal/cmerrors"
)

// Pipe is the named-pipe transport variant for Windows hosts. Its contract
// is identical to the socket variant's; the endpoint is a `\\.\pipe\...`
// path.
type Pipe struct {
	log      *slog.Logger
	endpoint string

	mu        sync.Mutex
	state     State
	file      *os.File
	closeOnce sync.Once
}

// Compile-time verification that Pipe implements the Transport interface.
var _ Transport = (*Pipe)(nil)

// NewPipe creates a named-pipe transport for the given endpoint path.
func NewPipe(log *slog.Logger, endpoint string) *Pipe {
	return &Pipe{
		log:      log.With("component", "pipe_transport"),
		endpoint: endpoint,
	}
}

// New selects the transport variant for the host platform. On Windows the
// endpoint is a named pipe path.
func New(log *slog.Logger, endpoint string) Transport {
	return NewPipe(log, endpoint)
}

// Connect opens the pipe for duplex I/O.
func (p *Pipe) Connect(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == Closed {
		return cmerrors.ErrTransportClosed
	}

	file, err := os.OpenFile(p.endpoint, os.O_RDWR, 0)
	if err != nil {
		return &cmerrors.ConnectError{Endpoint: p.endpoint, Err: err}
	}

	p.file = file
	p.state = Connected
	p.log.Info("Connected", "endpoint", p.endpoint)

	return nil
}

// ReadUpTo performs one blocking read of at most n bytes.
func (p *Pipe) ReadUpTo(n int) ([]byte, error) {
	p.mu.Lock()
	file, state := p.file, p.state
	p.mu.Unlock()

	if state != Connected || file == nil {
		if state == Closed {
			return nil, io.EOF
		}

		return nil, cmerrors.ErrTransportNotConnected
	}

	buf := make([]byte, n)

	read, err := file.Read(buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, fs.ErrClosed) {
			return nil, io.EOF
		}

		return nil, err
	}

	return buf[:read], nil
}

// WriteAll writes the full buffer to the pipe.
func (p *Pipe) WriteAll(buf []byte) error {
	p.mu.Lock()
	file, state := p.file, p.state
	p.mu.Unlock()

	if state != Connected || file == nil {
		if state == Closed {
			return cmerrors.ErrTransportClosed
		}

		return cmerrors.ErrTransportNotConnected
	}

	for len(buf) > 0 {
		written, err := file.Write(buf)
		if err != nil {
			return err
		}

		buf = buf[written:]
	}

	return nil
}

// Close releases the pipe. Safe to call multiple times.
func (p *Pipe) Close() error {
	var err error

	p.closeOnce.Do(func() {
		p.mu.Lock()
		file := p.file
		p.state = Closed
		p.mu.Unlock()

		if file != nil {
			err = file.Close()
		}

		p.log.Info("Closed", "endpoint", p.endpoint)
	})

	return err
}
