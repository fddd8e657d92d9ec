// Package correlate implements cookie-based request/reply correlation.
//
// Every outbound request carries a generated cookie; the server echoes it on
// the matching reply along with an inReplyTo field naming the request type.
// The Correlator records the cookie issued for each request type and verifies
// that replies echo the cookie of the request they claim to answer. A
// mismatch means the stream is desynchronized and the run must abort.
package correlate

import (
	"github.com/oklog/ulid/v2"

	"github.com/cmakeutil/cmake-server-go/internal/cmerrors"
)

// Correlator tracks the cookie issued for the most recent outstanding
// request of each type.
//
// The pending table is owned by the single goroutine driving the protocol;
// no synchronization is needed as long as no second goroutine touches it.
type Correlator struct {
	pending map[string]string
}

// New creates an empty Correlator.
func New() *Correlator {
	return &Correlator{
		pending: make(map[string]string, 8),
	}
}

// Issue generates a cookie for a request of the given type and records it
// in the pending table. Issuing again for the same type overwrites the
// previous cookie: at most one outstanding cookie is tracked per type.
//
// ULIDs are unique for the lifetime of a connection, which is all the
// protocol needs; there is no cryptographic requirement.
func (c *Correlator) Issue(requestType string) string {
	cookie := ulid.Make().String()
	c.pending[requestType] = cookie

	return cookie
}

// Verify checks a reply's echoed cookie against the pending table.
//
// Messages without a cookie field (the unsolicited kinds) skip verification.
// A reply whose cookie is present must match the cookie recorded for its
// inReplyTo type; an absent or mismatched entry is a protocol violation.
func (c *Correlator) Verify(msg map[string]any) error {
	cookie, ok := msg["cookie"].(string)
	if !ok || cookie == "" {
		return nil
	}

	inReplyTo, _ := msg["inReplyTo"].(string)

	expected, ok := c.pending[inReplyTo]
	if !ok {
		return &cmerrors.ProtocolViolationError{
			Reason:  "reply to " + inReplyTo + " was never requested",
			Message: msg,
		}
	}

	if cookie != expected {
		return &cmerrors.ProtocolViolationError{
			Reason:  "cookie mismatch on reply to " + inReplyTo,
			Message: msg,
		}
	}

	return nil
}
