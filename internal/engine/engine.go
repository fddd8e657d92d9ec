package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/cmakeutil/cmake-server-go/internal/cmerrors"
	"github.com/cmakeutil/cmake-server-go/internal/config"
	"github.com/cmakeutil/cmake-server-go/internal/correlate"
	"github.com/cmakeutil/cmake-server-go/internal/transport"
	"github.com/cmakeutil/cmake-server-go/internal/wire"
)

// readChunkSize bounds a single blocking read. The framer tolerates
// arbitrary fragmentation, so the value only affects syscall granularity.
const readChunkSize = 4096

// introspectionRequests are the request kinds fired back-to-back once the
// configure request is out, in this exact order, each exactly once.
var introspectionRequests = []string{
	"compute",
	"globalSettings",
	"cmakeInputs",
	"cache",
	"codemodel",
}

// Engine is the protocol state machine. It owns the framer, the correlator,
// the inbound queue and the dispatch table, and drives the transport from a
// single goroutine.
type Engine struct {
	log        *slog.Logger
	transport  transport.Transport
	framer     *wire.Framer
	correlator *correlate.Correlator
	handlers   map[string]config.Handler
	queue      []wire.Message

	generator       string
	buildDirectory  string
	sourceDirectory string
	cacheArguments  []string
	protocolMajor   int
}

// New creates an engine for one protocol run.
//
// The handlers map must cover every message kind the server can produce;
// a kind without a handler is a fatal UnhandledResponseError at dispatch
// time, not at construction time.
func New(
	log *slog.Logger,
	tr transport.Transport,
	opts *config.Options,
	handlers map[string]config.Handler,
) *Engine {
	cacheArguments := opts.CacheArguments
	if cacheArguments == nil {
		cacheArguments = config.DefaultCacheArguments()
	}

	protocolMajor := opts.ProtocolMajor
	if protocolMajor == 0 {
		protocolMajor = config.DefaultProtocolMajor
	}

	return &Engine{
		log:             log.With("component", "engine"),
		transport:       tr,
		framer:          &wire.Framer{},
		correlator:      correlate.New(),
		handlers:        handlers,
		generator:       opts.Generator,
		buildDirectory:  opts.BuildDirectory,
		sourceDirectory: opts.SourceDirectory,
		cacheArguments:  cacheArguments,
		protocolMajor:   protocolMajor,
	}
}

// Run executes the full protocol sequence: connect, handshake, configure,
// the five introspection requests, then the dispatch loop until the server
// closes the stream.
//
// The transport is closed exactly once on every exit route, fatal ones
// included. A nil return means the stream ended gracefully.
func (e *Engine) Run(ctx context.Context) error {
	defer func() {
		if err := e.transport.Close(); err != nil {
			e.log.Warn("Transport close failed", "error", err)
		}
	}()

	if err := e.transport.Connect(ctx); err != nil {
		return err
	}

	if err := e.handshake(); err != nil {
		e.log.Error("Protocol run failed", "error", err)

		return err
	}

	if err := e.sendRequest("configure", wire.Message{
		"cacheArguments": e.cacheArguments,
	}); err != nil {
		return err
	}

	for _, kind := range introspectionRequests {
		if err := e.sendRequest(kind, nil); err != nil {
			return err
		}
	}

	e.log.Info("Request sequence sent, entering dispatch loop")

	if err := e.dispatchLoop(); err != nil {
		e.log.Error("Protocol run failed", "error", err)

		return err
	}

	e.log.Info("Stream ended, shutting down")

	return nil
}

// handshake consumes the server's hello and negotiates the protocol
// version. The first inbound message must be a hello; anything else, or a
// stream that ends before the handshake reply, is a protocol violation.
func (e *Engine) handshake() error {
	first, err := e.recv()
	if err != nil {
		return err
	}

	if first == nil {
		return &cmerrors.ProtocolViolationError{
			Reason: "connection closed before hello",
		}
	}

	if kind, _ := first["type"].(string); kind != "hello" {
		return &cmerrors.ProtocolViolationError{
			Reason:  "first message is not hello",
			Message: first,
		}
	}

	if err := e.dispatch(first); err != nil {
		return err
	}

	handshake := wire.Message{
		"protocolVersion": wire.Message{"major": e.protocolMajor},
		"buildDirectory":  e.buildDirectory,
		"generator":       e.generator,
	}
	if e.sourceDirectory != "" {
		handshake["sourceDirectory"] = e.sourceDirectory
	}

	if err := e.sendRequest("handshake", handshake); err != nil {
		return err
	}

	return e.awaitReply("handshake")
}

// awaitReply dispatches inbound messages until one answers the given
// request type. Interleaved messages (progress, diagnostics) are processed
// immediately through the normal dispatch path.
func (e *Engine) awaitReply(requestType string) error {
	for {
		msg, err := e.recv()
		if err != nil {
			return err
		}

		if msg == nil {
			return &cmerrors.ProtocolViolationError{
				Reason: "stream ended awaiting reply to " + requestType,
			}
		}

		if err := e.dispatch(msg); err != nil {
			return err
		}

		if inReplyTo, _ := msg["inReplyTo"].(string); inReplyTo == requestType {
			return nil
		}
	}
}

// dispatchLoop processes inbound messages until the stream ends. End of
// stream is the normal shutdown path once the server has sent everything
// it will send.
func (e *Engine) dispatchLoop() error {
	for {
		msg, err := e.recv()
		if err != nil {
			return err
		}

		if msg == nil {
			return nil
		}

		if err := e.dispatch(msg); err != nil {
			return err
		}
	}
}

// dispatch verifies a message's cookie and invokes the handler for its
// kind. A missing handler is fatal: an unknown kind signals a protocol
// mismatch the request sequence did not account for.
func (e *Engine) dispatch(msg wire.Message) error {
	if err := e.correlator.Verify(msg); err != nil {
		return err
	}

	kind := kindOf(msg)

	handler, ok := e.handlers[kind]
	if !ok {
		return &cmerrors.UnhandledResponseError{Kind: kind, Message: msg}
	}

	handler(msg)

	return nil
}

// kindOf derives the dispatch key: unsolicited kinds and progress streams
// dispatch on their type, replies on their lower-cased inReplyTo.
func kindOf(msg wire.Message) string {
	msgType, _ := msg["type"].(string)
	if msgType == "message" || msgType == "progress" || msgType == "hello" {
		return msgType
	}

	if inReplyTo, ok := msg["inReplyTo"].(string); ok && inReplyTo != "" {
		return strings.ToLower(inReplyTo)
	}

	return msgType
}

// recv returns the next inbound message in FIFO order, reading from the
// transport as needed. A nil message with a nil error means end of stream.
func (e *Engine) recv() (wire.Message, error) {
	for len(e.queue) == 0 {
		chunk, err := e.transport.ReadUpTo(readChunkSize)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil
			}

			return nil, err
		}

		if len(chunk) == 0 {
			return nil, nil
		}

		msgs, ferr := e.framer.Feed(chunk)

		for _, msg := range msgs {
			e.log.Debug("Received message", "body", slog.AnyValue(msg))
		}

		e.queue = append(e.queue, msgs...)

		if ferr != nil {
			return nil, ferr
		}
	}

	msg := e.queue[0]
	e.queue = e.queue[1:]

	return msg, nil
}

// sendRequest attaches a fresh cookie, frames the message and writes the
// whole envelope in one transport write.
func (e *Engine) sendRequest(requestType string, fields wire.Message) error {
	msg := wire.Message{
		"type":   requestType,
		"cookie": e.correlator.Issue(requestType),
	}
	for key, value := range fields {
		msg[key] = value
	}

	data, err := wire.Encode(msg)
	if err != nil {
		return err
	}

	e.log.Debug("Sending message", "body", slog.AnyValue(msg))

	if err := e.transport.WriteAll(data); err != nil {
		return err
	}

	return nil
}
