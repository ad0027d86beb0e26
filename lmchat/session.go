package lmchat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/modelfold/lms-sdk-go/lmwire"
)

// session owns one in-flight streaming request: the response body, the
// cancellation context, and the translation state. It is created by
// [Client.Stream] and invalidated when the stream terminates; nothing else
// retains the body or the context beyond that lifetime.
type session struct {
	id        string
	client    *Client
	ctx       context.Context
	cancelCtx context.CancelFunc
	demux     *lmwire.Demuxer
	state     *streamState
	tok       Tokenizer
	events    chan Event
	log       *slog.Logger

	promptTokens int

	mu       sync.Mutex
	body     io.ReadCloser
	canceled bool

	// err is written by the producer before events closes; the channel close
	// orders it before any Stream.Err read.
	err error
}

func (s *session) setBody(body io.ReadCloser) {
	s.mu.Lock()
	s.body = body
	s.mu.Unlock()
}

func (s *session) isCanceled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canceled
}

// cancel stops the stream. The body is closed first: it is the most common
// point of resource leakage and closing it unblocks a pending read
// immediately. The context is signalled second so every downstream consumer
// observes the cancellation. Both steps are best-effort.
func (s *session) cancel() {
	s.mu.Lock()
	if s.canceled {
		s.mu.Unlock()
		return
	}
	s.canceled = true
	body := s.body
	s.mu.Unlock()

	if body != nil {
		if err := body.Close(); err != nil {
			s.log.Debug("closing response body on cancel", "err", err)
		}
	}
	s.cancelCtx()
	s.client.clearActive(s)
	s.log.Debug("chat stream cancelled")
}

// run is the producer loop: it pulls raw chunks from the response body,
// demultiplexes them into frames, and emits the resulting events. It checks
// for cancellation on every iteration, so the loop stops within one chunk of
// a cancel. Cleanup runs exactly once via the finish defer, on every exit
// path.
func (s *session) run(body io.Reader) {
	defer s.finish()

	buf := make([]byte, 4096)
	for {
		if s.ctx.Err() != nil || s.isCanceled() {
			return
		}

		n, err := body.Read(buf)
		if n > 0 {
			for _, payload := range s.demux.Feed(string(buf[:n])) {
				if !s.handlePayload(payload) {
					return
				}
			}
		}
		if err != nil {
			if err == io.EOF {
				if s.isCanceled() {
					return
				}
				s.complete()
				return
			}
			if s.isCanceled() || isCancellation(err) {
				return
			}
			s.fail(err)
			return
		}
	}
}

// handlePayload decodes and dispatches one frame payload. It returns false
// when the stream should stop (consumer gone, cancellation, or a server
// error frame). Malformed payloads are logged and skipped.
func (s *session) handlePayload(payload string) bool {
	frame, err := lmwire.DecodeFrame(payload)
	if err != nil {
		s.log.Warn("skipping malformed frame", "err", err)
		return true
	}
	if frame.Error != nil {
		s.log.Error("server reported stream error", "type", frame.Error.Type, "message", frame.Error.Message)
		s.err = &APIError{Message: streamFailureMessage, Type: frame.Error.Type, Code: frame.Error.Code}
		return false
	}

	for _, ev := range s.state.apply(frame) {
		if !s.emit(ev) {
			return false
		}
	}
	return true
}

// complete flushes buffered data through the demuxer and splitter, then
// appends the Usage event. It runs only on normal termination of the body.
func (s *session) complete() {
	for _, payload := range s.demux.Flush() {
		if !s.handlePayload(payload) {
			return
		}
	}
	for _, ev := range s.state.finish() {
		if !s.emit(ev) {
			return
		}
	}

	completion := countTokens(s.tok, s.state.outputText(), "completion", s.log)
	s.emit(Event{Kind: EventUsage, Usage: &lmwire.Usage{
		PromptTokens:     s.promptTokens,
		CompletionTokens: completion,
		TotalTokens:      s.promptTokens + completion,
	}})
	s.log.Debug("chat stream completed", "completion_tokens", completion)
}

func (s *session) fail(err error) {
	s.log.Error("chat stream failed", "err", err)
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		s.err = ErrTimeout
		return
	}
	s.err = &APIError{Message: streamFailureMessage, Type: "transport_error"}
}

// emit hands one event to the consumer. The select on the session context
// keeps cancellation prompt even when the consumer has stopped reading.
func (s *session) emit(ev Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// finish releases the session's resources and closes the event channel. It
// runs exactly once per session: deferred from run, or called directly by
// Client.Stream when the request fails before the producer starts.
func (s *session) finish() {
	s.mu.Lock()
	body := s.body
	s.body = nil
	s.mu.Unlock()

	if body != nil {
		if err := body.Close(); err != nil && !s.isCanceled() {
			s.log.Debug("closing response body", "err", err)
		}
	}
	s.cancelCtx()
	s.client.clearActive(s)
	close(s.events)
}
