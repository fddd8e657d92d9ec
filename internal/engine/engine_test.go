package engine

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cmakeutil/cmake-server-go/internal/cmerrors"
	"github.com/cmakeutil/cmake-server-go/internal/config"
	"github.com/cmakeutil/cmake-server-go/internal/wire"
)

// scriptTransport plays the server side of the protocol in-process. Inbound
// chunks are served to the engine in order; outbound envelopes are decoded
// and recorded, and the respond callback can enqueue replies, echoing
// cookies the way a real server would.
type scriptTransport struct {
	mu           sync.Mutex
	inbound      [][]byte
	sent         []wire.Message
	respond      func(msg wire.Message) []wire.Message
	connectErr   error
	connectCalls int
	closeCalls   int
}

func (s *scriptTransport) Connect(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connectCalls++

	return s.connectErr
}

func (s *scriptTransport) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeCalls++

	return nil
}

func (s *scriptTransport) ReadUpTo(n int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.inbound) == 0 {
		return nil, io.EOF
	}

	chunk := s.inbound[0]
	if len(chunk) > n {
		s.inbound[0] = chunk[n:]

		return chunk[:n], nil
	}

	s.inbound = s.inbound[1:]

	return chunk, nil
}

func (s *scriptTransport) WriteAll(p []byte) error {
	var framer wire.Framer

	msgs, err := framer.Feed(p)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, msg := range msgs {
		s.sent = append(s.sent, msg)

		if s.respond == nil {
			continue
		}

		for _, reply := range s.respond(msg) {
			s.enqueueLocked(reply)
		}
	}

	return nil
}

func (s *scriptTransport) enqueue(msg wire.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enqueueLocked(msg)
}

func (s *scriptTransport) enqueueLocked(msg wire.Message) {
	data, err := wire.Encode(msg)
	if err != nil {
		panic(err)
	}

	s.inbound = append(s.inbound, data)
}

func (s *scriptTransport) sentTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	types := make([]string, 0, len(s.sent))
	for _, msg := range s.sent {
		msgType, _ := msg["type"].(string)
		types = append(types, msgType)
	}

	return types
}

// echoServer replies to every request the way a well-behaved server does:
// one reply per request, echoing the cookie.
func echoServer(msg wire.Message) []wire.Message {
	msgType, _ := msg["type"].(string)

	return []wire.Message{{
		"type":      "reply",
		"inReplyTo": msgType,
		"cookie":    msg["cookie"],
	}}
}

// countingHandlers builds a full dispatch table whose handlers just count
// invocations per kind.
func countingHandlers() (map[string]config.Handler, map[string]int) {
	counts := make(map[string]int)

	var mu sync.Mutex

	kinds := []string{
		"hello", "message", "progress",
		"handshake", "configure", "compute",
		"globalsettings", "cmakeinputs", "cache", "codemodel",
	}

	handlers := make(map[string]config.Handler, len(kinds))
	for _, kind := range kinds {
		handlers[kind] = func(wire.Message) {
			mu.Lock()
			counts[kind]++
			mu.Unlock()
		}
	}

	return handlers, counts
}

func testOptions() *config.Options {
	return &config.Options{
		Endpoint:       "/tmp/test-pipe",
		Generator:      "Ninja",
		BuildDirectory: "/tmp/b",
	}
}

func newTestEngine(tr *scriptTransport, opts *config.Options) (*Engine, map[string]int) {
	handlers, counts := countingHandlers()

	return New(slog.Default(), tr, opts, handlers), counts
}

func TestRun_FullSequence(t *testing.T) {
	tr := &scriptTransport{respond: echoServer}
	tr.enqueue(wire.Message{"type": "hello", "supportedProtocolVersions": []any{}})

	eng, counts := newTestEngine(tr, testOptions())
	require.NoError(t, eng.Run(context.Background()))

	// The fixed request sequence, in order, each exactly once.
	require.Equal(t, []string{
		"handshake", "configure",
		"compute", "globalSettings", "cmakeInputs", "cache", "codemodel",
	}, tr.sentTypes())

	// Every outbound request carries a cookie.
	for _, msg := range tr.sent {
		cookie, _ := msg["cookie"].(string)
		require.NotEmpty(t, cookie, "request %v has no cookie", msg["type"])
	}

	// Handshake body per the protocol contract. sourceDirectory was not
	// configured, so it must be absent.
	handshake := tr.sent[0]
	require.Equal(t, "/tmp/b", handshake["buildDirectory"])
	require.Equal(t, "Ninja", handshake["generator"])
	require.Equal(t, map[string]any{"major": float64(1)}, handshake["protocolVersion"])
	require.NotContains(t, handshake, "sourceDirectory")

	// Configure carries the default cache arguments.
	configure := tr.sent[1]
	require.Equal(t,
		[]any{"-DTESTVAR=NEWVAL", "-DCMAKE_BUILD_TYPE:STRING=Debug"},
		configure["cacheArguments"],
	)

	// One handler invocation per reply kind, one for hello.
	for _, kind := range []string{
		"hello", "handshake", "configure", "compute",
		"globalsettings", "cmakeinputs", "cache", "codemodel",
	} {
		require.Equal(t, 1, counts[kind], "handler %q", kind)
	}

	require.Equal(t, 1, tr.closeCalls)
}

func TestRun_SourceDirectoryIncludedWhenSet(t *testing.T) {
	tr := &scriptTransport{respond: echoServer}
	tr.enqueue(wire.Message{"type": "hello"})

	opts := testOptions()
	opts.SourceDirectory = "/tmp/src"

	eng, _ := newTestEngine(tr, opts)
	require.NoError(t, eng.Run(context.Background()))

	require.Equal(t, "/tmp/src", tr.sent[0]["sourceDirectory"])
}

func TestRun_FirstMessageNotHello(t *testing.T) {
	tr := &scriptTransport{}
	tr.enqueue(wire.Message{"type": "progress", "progressCurrent": float64(1)})

	eng, _ := newTestEngine(tr, testOptions())
	err := eng.Run(context.Background())

	var violation *cmerrors.ProtocolViolationError

	require.ErrorAs(t, err, &violation)
	require.Empty(t, tr.sent, "no handshake may be sent before hello")
	require.Equal(t, 1, tr.closeCalls)
}

func TestRun_StreamEndsBeforeHello(t *testing.T) {
	tr := &scriptTransport{}

	eng, _ := newTestEngine(tr, testOptions())
	err := eng.Run(context.Background())

	var violation *cmerrors.ProtocolViolationError
	require.ErrorAs(t, err, &violation)
}

func TestRun_StreamEndsAwaitingHandshakeReply(t *testing.T) {
	tr := &scriptTransport{}
	tr.enqueue(wire.Message{"type": "hello"})

	eng, _ := newTestEngine(tr, testOptions())
	err := eng.Run(context.Background())

	var violation *cmerrors.ProtocolViolationError

	require.ErrorAs(t, err, &violation)
	require.Equal(t, []string{"handshake"}, tr.sentTypes())
}

func TestRun_ConnectFailure(t *testing.T) {
	connectErr := &cmerrors.ConnectError{Endpoint: "/tmp/test-pipe"}
	tr := &scriptTransport{connectErr: connectErr}

	eng, _ := newTestEngine(tr, testOptions())
	err := eng.Run(context.Background())

	var got *cmerrors.ConnectError

	require.ErrorAs(t, err, &got)
	require.Empty(t, tr.sent)
	require.Equal(t, 1, tr.closeCalls)
}

func TestRun_CookieMismatchIsFatal(t *testing.T) {
	// Scenario: the reply to compute echoes a cookie that was never
	// issued for it. The run must abort and close the transport once.
	tr := &scriptTransport{}
	tr.respond = func(msg wire.Message) []wire.Message {
		msgType, _ := msg["type"].(string)
		if msgType == "compute" {
			return []wire.Message{{
				"type":      "reply",
				"inReplyTo": "compute",
				"cookie":    "not-the-issued-cookie",
			}}
		}

		return echoServer(msg)
	}
	tr.enqueue(wire.Message{"type": "hello"})

	eng, _ := newTestEngine(tr, testOptions())
	err := eng.Run(context.Background())

	var violation *cmerrors.ProtocolViolationError

	require.ErrorAs(t, err, &violation)
	require.Equal(t, 1, tr.closeCalls)
}

func TestRun_UnknownKindIsFatal(t *testing.T) {
	tr := &scriptTransport{}
	tr.respond = func(msg wire.Message) []wire.Message {
		replies := echoServer(msg)

		if msgType, _ := msg["type"].(string); msgType == "codemodel" {
			replies = append(replies, wire.Message{"type": "fileChange"})
		}

		return replies
	}
	tr.enqueue(wire.Message{"type": "hello"})

	eng, _ := newTestEngine(tr, testOptions())
	err := eng.Run(context.Background())

	var unhandled *cmerrors.UnhandledResponseError

	require.ErrorAs(t, err, &unhandled)
	require.Equal(t, "fileChange", unhandled.Kind)
	require.Equal(t, 1, tr.closeCalls)
}

func TestRun_ProgressDispatchedWithoutStateChange(t *testing.T) {
	// Progress messages arriving during the dispatch loop invoke the
	// progress handler and nothing else; the run still ends cleanly.
	tr := &scriptTransport{}
	tr.respond = func(msg wire.Message) []wire.Message {
		replies := []wire.Message{}

		if msgType, _ := msg["type"].(string); msgType == "configure" {
			replies = append(replies,
				wire.Message{
					"type":            "progress",
					"inReplyTo":       "configure",
					"cookie":          msg["cookie"],
					"progressCurrent": float64(1),
				},
			)
		}

		return append(replies, echoServer(msg)...)
	}
	tr.enqueue(wire.Message{"type": "hello"})

	eng, counts := newTestEngine(tr, testOptions())
	require.NoError(t, eng.Run(context.Background()))

	require.Equal(t, 1, counts["progress"])
	require.Equal(t, 1, counts["configure"])
}

func TestRun_RepliesArriveOutOfSendOrder(t *testing.T) {
	// The five introspection replies are delivered in reverse order; the
	// correlator, not send order, maps each reply to its request.
	tr := &scriptTransport{}

	var deferred []wire.Message

	tr.respond = func(msg wire.Message) []wire.Message {
		msgType, _ := msg["type"].(string)

		switch msgType {
		case "handshake", "configure":
			return echoServer(msg)
		case "codemodel":
			deferred = append(deferred, echoServer(msg)...)

			reversed := make([]wire.Message, 0, len(deferred))
			for i := len(deferred) - 1; i >= 0; i-- {
				reversed = append(reversed, deferred[i])
			}

			return reversed
		default:
			deferred = append(deferred, echoServer(msg)...)

			return nil
		}
	}
	tr.enqueue(wire.Message{"type": "hello"})

	eng, counts := newTestEngine(tr, testOptions())
	require.NoError(t, eng.Run(context.Background()))

	for _, kind := range []string{
		"compute", "globalsettings", "cmakeinputs", "cache", "codemodel",
	} {
		require.Equal(t, 1, counts[kind], "handler %q", kind)
	}
}

func TestRun_FragmentedHello(t *testing.T) {
	data, err := wire.Encode(wire.Message{"type": "hello"})
	require.NoError(t, err)

	tr := &scriptTransport{respond: echoServer}
	for _, b := range data {
		tr.inbound = append(tr.inbound, []byte{b})
	}

	eng, counts := newTestEngine(tr, testOptions())
	require.NoError(t, eng.Run(context.Background()))

	require.Equal(t, 1, counts["hello"])
}

func TestKindOf(t *testing.T) {
	require.Equal(t, "progress", kindOf(wire.Message{"type": "progress", "inReplyTo": "configure"}))
	require.Equal(t, "message", kindOf(wire.Message{"type": "message", "inReplyTo": "configure"}))
	require.Equal(t, "hello", kindOf(wire.Message{"type": "hello"}))
	require.Equal(t, "globalsettings", kindOf(wire.Message{"type": "reply", "inReplyTo": "globalSettings"}))
	require.Equal(t, "signal", kindOf(wire.Message{"type": "signal"}))
}
