package cmakeserver

import (
	"log/slog"

	"github.com/cmakeutil/cmake-server-go/internal/config"
)

// Option configures a client using the functional options pattern.
type Option func(*config.Options)

// WithLogger sets the logger for the one-line-per-message wire log and
// lifecycle events. If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *config.Options) {
		o.Logger = logger
	}
}

// WithSourceDirectory sets the optional source directory sent in the
// handshake. Omitted from the handshake when empty.
func WithSourceDirectory(dir string) Option {
	return func(o *config.Options) {
		o.SourceDirectory = dir
	}
}

// WithCacheArguments sets the -D cache definitions sent with the configure
// request, replacing the defaults.
func WithCacheArguments(args []string) Option {
	return func(o *config.Options) {
		o.CacheArguments = args
	}
}

// WithProtocolVersion sets the protocol major version requested in the
// handshake. The default is 1.
func WithProtocolVersion(major int) Option {
	return func(o *config.Options) {
		o.ProtocolMajor = major
	}
}

// WithTransport injects a custom transport, bypassing the platform
// selection. Used for testing, mocking, or alternative communication
// methods.
func WithTransport(t Transport) Option {
	return func(o *config.Options) {
		o.Transport = t
	}
}

// WithHandler overrides the handler for one message kind. Reply kinds are
// keyed by the lower-cased request type ("handshake", "configure",
// "compute", "globalsettings", "cmakeinputs", "cache", "codemodel");
// unsolicited kinds by their type ("hello", "message", "progress").
func WithHandler(kind string, handler Handler) Option {
	return func(o *config.Options) {
		if o.Handlers == nil {
			o.Handlers = make(map[string]config.Handler, 4)
		}

		o.Handlers[kind] = handler
	}
}
