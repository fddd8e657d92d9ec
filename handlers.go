package cmakeserver

import "log/slog"

// defaultHandlers builds the dispatch table the engine consults for every
// inbound message: one entry per reply kind and per unsolicited kind. The
// defaults just log the payload; callers override individual entries with
// WithHandler. The table is built once at startup, so dispatch is a map
// lookup, never reflection.
func defaultHandlers(log *slog.Logger) map[string]Handler {
	kinds := []string{
		// Unsolicited kinds, keyed by type.
		"hello",
		"message",
		"progress",
		// Reply kinds, keyed by lower-cased inReplyTo.
		"handshake",
		"configure",
		"compute",
		"globalsettings",
		"cmakeinputs",
		"cache",
		"codemodel",
	}

	handlers := make(map[string]Handler, len(kinds))
	for _, kind := range kinds {
		handlers[kind] = func(msg Message) {
			log.Info("Handled message", "kind", kind, "body", slog.AnyValue(msg))
		}
	}

	return handlers
}
