// Package lmchat provides a streaming chat-completion client for local
// OpenAI-compatible inference servers such as LM Studio.
//
// A [Client] issues one streaming request at a time and turns the server's
// SSE response into a typed event sequence: answer text, reasoning segments,
// partial and completed tool calls, and final token usage. The sequence is
// consumed from a channel and is lazy, single-pass, and non-restartable:
//
//	client := lmchat.NewClient(lmchat.ClientConfig{})
//	stream, err := client.Stream(ctx, lmchat.StreamRequest{
//	    Model:        "qwen3-8b",
//	    SystemPrompt: "You are a helpful assistant.",
//	    Messages:     history,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for ev := range stream.Events() {
//	    switch ev.Kind {
//	    case lmchat.EventText:
//	        fmt.Print(ev.Text)
//	    case lmchat.EventToolCallEnd:
//	        run(ev.ToolCall)
//	    }
//	}
//	if err := stream.Err(); err != nil {
//	    log.Fatal(err)
//	}
//
// [Client.Cancel] stops an in-flight stream from any goroutine. Cancellation
// is not an error: the event channel closes early and Err returns nil.
package lmchat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/modelfold/lms-sdk-go/lmwire"
)

// Client is a streaming chat-completion client. It owns at most one in-flight
// request at a time; see [Client.Stream] and [Client.Cancel].
type Client struct {
	baseURL string
	httpc   *http.Client
	tok     Tokenizer
	thinkO  string
	thinkC  string
	log     *slog.Logger

	mu     sync.Mutex
	active *session
}

// NewClient creates a Client with the given configuration, applying defaults
// for zero-valued fields.
func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpc:   cfg.HTTPClient,
		tok:     cfg.Tokenizer,
		thinkO:  cfg.ThinkOpen,
		thinkC:  cfg.ThinkClose,
		log:     cfg.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.httpc == nil {
		// No timeout: a completion may stream for minutes to hours.
		c.httpc = &http.Client{}
	}
	if c.tok == nil {
		c.tok = heuristicTokenizer{}
	}
	if c.thinkO == "" {
		c.thinkO = DefaultThinkOpen
	}
	if c.thinkC == "" {
		c.thinkC = DefaultThinkClose
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c
}

// Stream issues a streaming chat-completion request and returns the event
// stream. It returns [ErrStreamActive] if another stream is in flight on this
// client. The request runs until the server finishes, the stream is
// cancelled, or a failure occurs; the caller's ctx bounds its lifetime.
func (c *Client) Stream(ctx context.Context, req StreamRequest) (*Stream, error) {
	sctx, cancel := context.WithCancel(ctx)
	s := &session{
		id:        uuid.NewString(),
		client:    c,
		ctx:       sctx,
		cancelCtx: cancel,
		demux:     &lmwire.Demuxer{},
		tok:       c.tok,
		events:    make(chan Event),
	}
	s.log = c.log.With("stream", s.id)
	s.state = newStreamState(c.thinkO, c.thinkC, s.log)

	c.mu.Lock()
	if c.active != nil {
		c.mu.Unlock()
		cancel()
		return nil, ErrStreamActive
	}
	c.active = s
	c.mu.Unlock()

	// Prompt-side accounting happens before the request; failures degrade to
	// zero and never block the request from starting.
	s.promptTokens = countTokens(c.tok, promptText(req), "prompt", s.log)

	resp, err := c.post(sctx, req)
	if err != nil {
		if s.isCanceled() || isCancellation(err) {
			// Cancelled before streaming began: silence, not an error.
			s.finish()
			return &Stream{s: s}, nil
		}
		s.finish()
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			c.log.Error("chat request timed out", "err", err)
			return nil, ErrTimeout
		}
		c.log.Error("chat request failed", "err", err)
		return nil, &APIError{Message: streamFailureMessage, Type: "transport_error"}
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		s.finish()
		c.log.Error("chat request rejected", "status", resp.StatusCode, "body", string(body))
		return nil, &APIError{
			Message: streamFailureMessage,
			Type:    "api_error",
			Code:    strconv.Itoa(resp.StatusCode),
		}
	}

	s.setBody(resp.Body)
	s.log.Debug("chat stream started", "model", req.Model)
	go s.run(resp.Body)
	return &Stream{s: s}, nil
}

// Cancel stops the in-flight stream, if any. It is idempotent, safe to call
// from any goroutine, and a no-op when no stream is active. The consumer's
// event channel closes shortly after; no Usage event is emitted.
func (c *Client) Cancel() {
	c.mu.Lock()
	s := c.active
	c.mu.Unlock()
	if s != nil {
		s.cancel()
	}
}

// ListModels returns the model identifiers served by the endpoint. This is a
// convenience surface: request failures and invalid base URLs degrade to an
// empty list rather than an error.
func (c *Client) ListModels(ctx context.Context) []lmwire.Model {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		c.log.Warn("listing models", "err", err)
		return nil
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		c.log.Warn("listing models", "err", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("listing models", "status", resp.StatusCode)
		return nil
	}
	var list lmwire.ModelList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		c.log.Warn("decoding model list", "err", err)
		return nil
	}
	return list.Data
}

func (c *Client) post(ctx context.Context, req StreamRequest) (*http.Response, error) {
	body := lmwire.ChatRequest{
		Model:       req.Model,
		Messages:    req.wireMessages(),
		Temperature: req.Temperature,
		Stream:      true,
		MaxTokens:   req.MaxTokens,
		DraftModel:  req.DraftModel,
	}
	if len(req.Tools) > 0 {
		body.Tools = req.Tools
		body.ToolChoice = req.ToolChoice
		body.ParallelToolCalls = req.ParallelToolCalls
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	return c.httpc.Do(httpReq)
}

func (c *Client) clearActive(s *session) {
	c.mu.Lock()
	if c.active == s {
		c.active = nil
	}
	c.mu.Unlock()
}

// promptText concatenates the system prompt and message contents for
// prompt-side token accounting.
func promptText(req StreamRequest) string {
	var b strings.Builder
	b.WriteString(req.SystemPrompt)
	for _, m := range req.Messages {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.StringContent())
	}
	return b.String()
}
