// Package cmakeserver provides a Go client for the cmake server-mode
// protocol: a framed, JSON-message, request/reply IPC protocol exposed by
// cmake over a local transport (domain socket or named pipe).
//
// The client performs the fixed startup handshake, issues the batch of
// introspection requests (compute, globalSettings, cmakeInputs, cache,
// codemodel) and correlates the asynchronous replies back to the requests
// that produced them via opaque cookies.
//
// # Basic Usage
//
//	client := cmakeserver.New("/tmp/cmake-pipe", "Ninja", "/tmp/build",
//	    cmakeserver.WithLogger(slog.Default()),
//	)
//	defer client.Close()
//
//	if err := client.Run(ctx); err != nil {
//	    var connErr *cmakeserver.ConnectError
//	    if errors.As(err, &connErr) {
//	        fmt.Fprintln(os.Stderr, "could not connect")
//	        os.Exit(1)
//	    }
//	    log.Fatal(err)
//	}
//
// Run drives the whole protocol sequence and returns nil when the server
// closes the stream, which is the normal shutdown path.
//
// # Handlers
//
// Each reply kind and each unsolicited message kind (hello, message,
// progress) has one handler. The defaults log the payload; override any of
// them with WithHandler:
//
//	cmakeserver.WithHandler("codemodel", func(msg cmakeserver.Message) {
//	    // inspect msg["configurations"]...
//	})
//
// # Error Handling
//
// Fatal conditions surface as typed errors: ConnectError when the endpoint
// cannot be opened, ProtocolViolationError on a cookie mismatch or an
// unexpected first message, UnhandledResponseError for a message kind with
// no handler, DecodeError when a framed body is not valid JSON. The engine
// never attempts recovery: a desynchronized stream cannot be safely
// repaired. The transport is closed exactly once on every exit route.
package cmakeserver
