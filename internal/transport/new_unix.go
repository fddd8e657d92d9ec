//go:build !windows

package transport

import "log/slog"

// New selects the transport variant for the host platform. On unix-like
// systems the endpoint is a domain socket path.
func New(log *slog.Logger, endpoint string) Transport {
	return NewSocket(log, endpoint)
}
