package lmchat

import (
	"log/slog"
	"net/http"

	"github.com/modelfold/lms-sdk-go/lmwire"
)

// Default endpoint and reasoning delimiters. LM Studio serves its
// OpenAI-compatible API on port 1234; reasoning models wrap their thinking in
// <think> tags when the server does not separate it natively.
const (
	DefaultBaseURL    = "http://localhost:1234/v1"
	DefaultThinkOpen  = "<think>"
	DefaultThinkClose = "</think>"
)

// ClientConfig configures a [Client].
type ClientConfig struct {
	// BaseURL is the server's OpenAI-compatible API root.
	// Default: "http://localhost:1234/v1".
	BaseURL string

	// HTTPClient issues the requests. It must have no overall timeout:
	// a streaming completion may legitimately run for minutes to hours.
	// Default: a fresh http.Client with Timeout zero.
	HTTPClient *http.Client

	// Tokenizer counts tokens for usage reporting. Counting is best-effort;
	// failures degrade to zero counts. Default: a character heuristic.
	Tokenizer Tokenizer

	// ThinkOpen and ThinkClose delimit inline reasoning in the content
	// stream. Defaults: "<think>" and "</think>".
	ThinkOpen  string
	ThinkClose string

	// Logger receives internal diagnostics. Default: slog.Default().
	Logger *slog.Logger
}

// StreamRequest describes one streaming chat-completion request. The system
// prompt and history are combined into the wire message list; everything else
// maps directly onto the request body.
type StreamRequest struct {
	// Model is the model identifier. Required.
	Model string

	// SystemPrompt, when non-empty, is prepended as a system message.
	SystemPrompt string

	// Messages is the ordered conversation history.
	Messages []lmwire.ChatMessage

	// Temperature is the sampling temperature. Nil leaves the server default.
	Temperature *float64

	// MaxTokens caps the completion length. Nil leaves the server default.
	MaxTokens *int

	// Tools, ToolChoice, and ParallelToolCalls enable native tool use.
	// They are only sent when Tools is non-empty.
	Tools             []lmwire.Tool
	ToolChoice        any
	ParallelToolCalls *bool

	// DraftModel enables speculative decoding with the given draft model.
	DraftModel string
}

func (r *StreamRequest) wireMessages() []lmwire.ChatMessage {
	msgs := make([]lmwire.ChatMessage, 0, len(r.Messages)+1)
	if r.SystemPrompt != "" {
		msgs = append(msgs, lmwire.ChatMessage{Role: "system", Content: r.SystemPrompt})
	}
	return append(msgs, r.Messages...)
}
