package cmakeserver

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/cmakeutil/cmake-server-go/internal/config"
	"github.com/cmakeutil/cmake-server-go/internal/engine"
	"github.com/cmakeutil/cmake-server-go/internal/transport"
)

// clientImpl wires the transport, the engine and the handler table
// together for one protocol run.
type clientImpl struct {
	options   *config.Options
	transport transport.Transport
}

// Compile-time verification that clientImpl implements the Client interface.
var _ Client = (*clientImpl)(nil)

func newClientImpl(options *config.Options) *clientImpl {
	log := options.Logger
	if log == nil {
		log = NopLogger()
		options.Logger = log
	}

	tr := options.Transport
	if tr == nil {
		tr = transport.New(log, options.Endpoint)
	}

	return &clientImpl{
		options:   options,
		transport: tr,
	}
}

// Run executes the full protocol sequence.
//
// A second goroutine watches the context and closes the transport on
// cancellation; the engine observes the closed transport as end of stream
// and shuts down. The engine itself guarantees the transport is closed
// exactly once on every exit route.
func (c *clientImpl) Run(ctx context.Context) error {
	log := c.options.Logger

	handlers := defaultHandlers(log)
	for kind, handler := range c.options.Handlers {
		handlers[kind] = handler
	}

	eng := engine.New(log, c.transport, c.options, handlers)

	done := make(chan struct{})

	var group errgroup.Group

	group.Go(func() error {
		defer close(done)

		return eng.Run(ctx)
	})

	group.Go(func() error {
		select {
		case <-ctx.Done():
			log.Info("Context cancelled, closing transport")

			return c.transport.Close()
		case <-done:
			return nil
		}
	})

	return group.Wait()
}

// Close releases the transport. Safe to call multiple times.
func (c *clientImpl) Close() error {
	return c.transport.Close()
}
