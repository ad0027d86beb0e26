// Package lmwire defines the wire format types and the SSE demultiplexer for
// the OpenAI-compatible chat-completions streaming protocol spoken by local
// inference servers such as LM Studio.
//
// A streaming response is framed as newline-delimited "data: <json>" lines,
// terminated by a "[DONE]" sentinel. [Demuxer] turns an arbitrary chunking of
// that byte stream into complete frame payloads, and [DecodeFrame] decodes one
// payload into a [ChunkFrame]:
//
//	var d lmwire.Demuxer
//	for chunk := range chunks {
//	    for _, payload := range d.Feed(chunk) {
//	        frame, err := lmwire.DecodeFrame(payload)
//	        if err != nil {
//	            continue // malformed frames are skipped, never fatal
//	        }
//	        if delta := frame.Delta(); delta != nil && delta.Content != nil {
//	            fmt.Print(*delta.Content)
//	        }
//	    }
//	}
//
// This is the lowest-level package in the SDK. It has no dependencies outside
// the Go standard library.
package lmwire

import (
	"encoding/json"
	"fmt"
)

// ChunkFrame is one decoded frame of a streaming chat-completion response.
// Each frame carries an optional content delta, an optional list of tool-call
// deltas, and an optional finish reason, nested under Choices. Servers may
// also report an in-band error instead of choices.
type ChunkFrame struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"`
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Choices []ChunkChoice `json:"choices"`
	Usage   *Usage        `json:"usage,omitempty"`
	Error   *ErrorDetail  `json:"error,omitempty"`
}

// ChunkChoice is a single choice within a [ChunkFrame]. FinishReason is nil
// for intermediate frames and non-nil on the final frame of a turn ("stop"
// for natural completion, "tool_calls" when the model requested tools).
type ChunkChoice struct {
	Index        int        `json:"index"`
	Delta        ChunkDelta `json:"delta"`
	FinishReason *string    `json:"finish_reason"`
}

// ChunkDelta is the incremental content of one frame. Content and
// ReasoningContent are pointers so an empty fragment can be distinguished
// from an absent field. Servers that separate reasoning natively put it in
// ReasoningContent; servers that inline it wrap it in delimiter tags inside
// Content.
type ChunkDelta struct {
	Role             string          `json:"role,omitempty"`
	Content          *string         `json:"content,omitempty"`
	ReasoningContent *string         `json:"reasoning_content,omitempty"`
	ToolCalls        []ToolCallDelta `json:"tool_calls,omitempty"`
}

// ToolCallDelta is one fragment of an incrementally streamed tool call.
// Index is the call's position in the turn's tool-call array and is the only
// stable correlation key: ID and the function name typically appear on the
// first fragment only, while Arguments accumulates across fragments and must
// be concatenated in arrival order.
type ToolCallDelta struct {
	Index    int           `json:"index"`
	ID       string        `json:"id,omitempty"`
	Type     string        `json:"type,omitempty"`
	Function FunctionDelta `json:"function"`
}

// FunctionDelta carries the partial function name and arguments text of a
// [ToolCallDelta].
type FunctionDelta struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// Usage contains token totals for one request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ErrorDetail is a server-reported error, either in-band on a frame or as the
// body of a non-streaming error response.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

// DecodeFrame decodes one frame payload into a [ChunkFrame]. Payloads that
// are not valid frame objects return an error; callers log and skip them
// rather than aborting the stream, since an upstream model or proxy may emit
// partial or garbled frames.
func DecodeFrame(payload string) (*ChunkFrame, error) {
	var frame ChunkFrame
	if err := json.Unmarshal([]byte(payload), &frame); err != nil {
		return nil, fmt.Errorf("decoding chunk frame: %w", err)
	}
	return &frame, nil
}

// Delta returns the delta of the first choice, or nil if the frame has no
// choices.
func (f *ChunkFrame) Delta() *ChunkDelta {
	if len(f.Choices) == 0 {
		return nil
	}
	return &f.Choices[0].Delta
}

// FinishReason returns the finish reason of the first choice, or "" if the
// frame does not carry one.
func (f *ChunkFrame) FinishReason() string {
	if len(f.Choices) == 0 || f.Choices[0].FinishReason == nil {
		return ""
	}
	return *f.Choices[0].FinishReason
}
