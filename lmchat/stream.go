package lmchat

// Stream is the consumer handle for one streaming chat completion. The event
// sequence is lazy, single-pass, and non-restartable: range over Events until
// it closes, then check Err.
type Stream struct {
	s *session
}

// Events returns the output event channel. It closes when the stream
// terminates, whether normally, by cancellation, or on failure. Ordering
// follows arrival order, except the Usage event, which is always last and is
// only present on normal completion.
func (st *Stream) Events() <-chan Event {
	return st.s.events
}

// Err reports why the stream terminated. It is valid once Events has closed.
// It returns nil both on normal completion and after cancellation;
// cancellation surfaces as silence, not as an error.
func (st *Stream) Err() error {
	return st.s.err
}

// Cancel stops this stream. Equivalent to [Client.Cancel] while the stream is
// the client's active one.
func (st *Stream) Cancel() {
	st.s.cancel()
}
