package cmerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConnectError_MessageAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &ConnectError{Endpoint: "/tmp/pipe", Err: cause}

	require.Contains(t, err.Error(), "could not connect to /tmp/pipe")
	require.ErrorIs(t, err, cause)
}

func TestProtocolViolationError_IncludesMessage(t *testing.T) {
	err := &ProtocolViolationError{
		Reason:  "cookie mismatch on reply to compute",
		Message: map[string]any{"type": "reply", "inReplyTo": "compute"},
	}

	require.Contains(t, err.Error(), "cookie mismatch")
	require.Contains(t, err.Error(), "compute")
}

func TestUnhandledResponseError_NamesKind(t *testing.T) {
	err := &UnhandledResponseError{Kind: "fileChange"}

	require.Contains(t, err.Error(), `"fileChange"`)
}

func TestDecodeError_PreservesRawData(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := &DecodeError{RawData: "{truncated", Err: cause}

	require.Equal(t, "{truncated", err.RawData)
	require.ErrorIs(t, err, cause)
}

func TestTypedErrorsSurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("run failed: %w", &ProtocolViolationError{Reason: "x"})

	var violation *ProtocolViolationError
	require.ErrorAs(t, wrapped, &violation)
}
