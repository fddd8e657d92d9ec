package cmakeserver

import "github.com/cmakeutil/cmake-server-go/internal/transport"

// Transport defines the byte-stream channel the protocol engine runs over.
// Implement this to provide custom transports for testing, mocking, or
// alternative communication methods.
//
// The default implementations are the unix domain socket transport and, on
// Windows, the named pipe transport. Custom transports can be injected via
// WithTransport.
type Transport = transport.Transport
