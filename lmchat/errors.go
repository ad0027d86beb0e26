package lmchat

import (
	"context"
	"errors"
)

// ErrStreamActive is returned by [Client.Stream] when a stream is already in
// flight. A client handles at most one request at a time; starting another
// before the first terminates is a caller error, not a queued operation.
var ErrStreamActive = errors.New("a chat stream is already active on this client")

// ErrTimeout reports a transport-level timeout. The streaming client is
// configured for unbounded request duration, so a timeout indicates a
// misconfigured HTTP client rather than an ordinary transport failure.
var ErrTimeout = errors.New("chat stream timed out: the HTTP client must not set a timeout for streaming completions")

// streamFailureMessage is the single user-facing message for transport and
// protocol failures. The raw cause is logged, not exposed.
const streamFailureMessage = "the chat stream failed: check the inference server logs, and consider increasing the model's context length"

// APIError is a failure reported by the server or raised by the transport.
type APIError struct {
	Message string
	Type    string
	Code    string
}

func (e *APIError) Error() string { return e.Message }

// isCancellation reports whether err is the transport's way of signalling a
// cancelled request, as opposed to a genuine failure.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}
