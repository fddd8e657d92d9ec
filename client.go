package cmakeserver

import (
	"context"

	"github.com/cmakeutil/cmake-server-go/internal/config"
	"github.com/cmakeutil/cmake-server-go/internal/wire"
)

// Message is the wire representation of one protocol message: a mapping
// from string keys to JSON-compatible values with at least a "type" field.
type Message = wire.Message

// Handler is one pluggable action invoked for a reply kind or an
// unsolicited message kind. Handlers run on the goroutine driving the
// protocol; a handler that blocks stalls the dispatch loop.
type Handler = config.Handler

// Client drives one full run of the cmake server protocol.
//
// Lifecycle: clients are single-use. Run executes the handshake, the
// request sequence and the dispatch loop, and returns when the server
// closes the stream or a fatal protocol error occurs.
//
// Example usage:
//
//	client := New("/tmp/cmake-pipe", "Ninja", "/tmp/build",
//	    WithSourceDirectory("/tmp/src"),
//	    WithLogger(slog.Default()),
//	)
//	defer client.Close()
//
//	if err := client.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
type Client interface {
	// Run executes the full protocol sequence against the endpoint.
	// It blocks until the stream ends (nil) or a fatal error occurs.
	// Cancelling the context closes the transport, which Run observes
	// as end of stream.
	Run(ctx context.Context) error

	// Close releases the transport. Safe to call multiple times and
	// concurrently with Run; it is the external cancellation path.
	Close() error
}

// New creates a client for the cmake server listening on endpoint.
//
// The generator and buildDirectory are sent in the handshake. Everything
// else is configured through functional options.
func New(endpoint, generator, buildDirectory string, opts ...Option) Client {
	options := &config.Options{
		Endpoint:       endpoint,
		Generator:      generator,
		BuildDirectory: buildDirectory,
	}
	for _, opt := range opts {
		opt(options)
	}

	return newClientImpl(options)
}
