// Package config provides configuration types for the cmake server client.
package config

import (
	"log/slog"

	"github.com/cmakeutil/cmake-server-go/internal/transport"
	"github.com/cmakeutil/cmake-server-go/internal/wire"
)

// DefaultProtocolMajor is the protocol version requested in the handshake
// when no override is configured.
const DefaultProtocolMajor = 1

// DefaultCacheArguments returns the cache definitions sent with the
// configure request when no override is configured.
func DefaultCacheArguments() []string {
	return []string{
		"-DTESTVAR=NEWVAL",
		"-DCMAKE_BUILD_TYPE:STRING=Debug",
	}
}

// Handler is one pluggable action invoked for a reply kind or an
// unsolicited message kind.
type Handler func(msg wire.Message)

// Options holds everything a client run needs. The three required fields
// (Endpoint, Generator, BuildDirectory) come from the constructor; the rest
// are populated by functional options.
type Options struct {
	// Endpoint is the domain socket path (or named pipe path on Windows)
	// the cmake server is listening on.
	Endpoint string

	// Generator names the build system generator, e.g. "Ninja".
	Generator string

	// BuildDirectory is the build tree passed in the handshake.
	BuildDirectory string

	// SourceDirectory is optional; when empty it is omitted from the
	// handshake.
	SourceDirectory string

	// CacheArguments are the -D definitions sent with configure.
	// Nil means DefaultCacheArguments().
	CacheArguments []string

	// ProtocolMajor is the protocol version requested in the handshake.
	// Zero means DefaultProtocolMajor.
	ProtocolMajor int

	// Logger receives one line per sent and received message plus
	// lifecycle events. Nil means silent operation.
	Logger *slog.Logger

	// Transport overrides the platform-selected transport. Used for
	// testing and alternative communication methods.
	Transport transport.Transport

	// Handlers overrides entries of the default dispatch table, keyed by
	// message kind.
	Handlers map[string]Handler
}
