// Package engine implements the protocol state machine of the cmake server
// client.
//
// The Engine drives the fixed startup handshake, issues the batch of
// introspection requests, and dispatches each inbound message to a named
// handler based on message kind or on the request it answers.
//
// The sequence is strictly linear, with no backtracking:
//
//	connect -> await hello -> send handshake -> await handshake reply ->
//	send configure -> fire the five introspection requests -> dispatch loop
//
// The five introspection requests are sent back-to-back without waiting for
// individual replies; replies are reconciled purely via the inReplyTo +
// cookie mechanism, so they may arrive interleaved and out of send order.
// The dispatch loop ends cleanly when the transport reports end of stream.
//
// Example usage:
//
//	tr := transport.New(log, endpoint)
//	eng := engine.New(log, tr, opts, handlers)
//	err := eng.Run(ctx)
package engine
