// Package wire implements the cmake server envelope codec.
//
// Every message travels as HEADER || utf8(json(message)) || FOOTER, where the
// header and footer are fixed sentinels that cannot appear inside a
// well-formed JSON payload. The Framer encodes outbound messages into that
// envelope and decodes an arbitrarily fragmented inbound byte stream into
// complete messages, buffering incomplete trailing data.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cmakeutil/cmake-server-go/internal/cmerrors"
)

// Wire sentinels, bit-exact per the cmake server protocol.
const (
	Header = "\n[== \"CMake Server\" ==[\n"
	Footer = "\n]== \"CMake Server\" ==]\n"
)

// Message is the wire representation of one protocol message.
type Message = map[string]any

// Encode wraps a message in the protocol envelope.
//
// The result is written to the transport whole, in a single write call.
func Encode(msg Message) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}

	out := make([]byte, 0, len(Header)+len(body)+len(Footer))
	out = append(out, Header...)
	out = append(out, body...)
	out = append(out, Footer...)

	return out, nil
}

// Framer accumulates raw inbound bytes and yields complete decoded messages.
//
// A Framer is owned by a single goroutine; it is not safe for concurrent use.
type Framer struct {
	buf []byte
}

// Feed appends raw bytes to the accumulator and returns every complete
// message the accumulator now contains, in arrival order.
//
// Decoding is only attempted once the accumulator ends with the footer
// sentinel; until then Feed returns no messages, tolerating arbitrary read
// fragmentation. When the footer boundary is observed the accumulator may
// hold several concatenated envelopes; all of them are decoded and the
// accumulator is cleared.
func (f *Framer) Feed(p []byte) ([]Message, error) {
	f.buf = append(f.buf, p...)

	if !bytes.HasSuffix(f.buf, []byte(Footer)) {
		return nil, nil
	}

	raw := f.buf
	f.buf = nil

	raw = bytes.TrimPrefix(raw, []byte(Header))
	raw = bytes.TrimSuffix(raw, []byte(Footer))

	fragments := bytes.Split(raw, []byte(Footer+Header))
	messages := make([]Message, 0, len(fragments))

	for _, fragment := range fragments {
		var msg Message
		if err := json.Unmarshal(fragment, &msg); err != nil {
			return messages, &cmerrors.DecodeError{
				RawData: string(fragment),
				Err:     err,
			}
		}

		messages = append(messages, msg)
	}

	return messages, nil
}

// Buffered reports how many undecoded bytes the accumulator holds.
func (f *Framer) Buffered() int {
	return len(f.buf)
}
