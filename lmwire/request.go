package lmwire

import "encoding/json"

// ChatRequest is the request body for POST /chat/completions. The request is
// immutable once issued; Stream is always true for the streaming client.
//
// DraftModel selects a smaller draft model for speculative decoding, an
// LM Studio extension; servers that do not support it ignore the field.
type ChatRequest struct {
	Model             string        `json:"model"`
	Messages          []ChatMessage `json:"messages"`
	Temperature       *float64      `json:"temperature,omitempty"`
	Stream            bool          `json:"stream"`
	MaxTokens         *int          `json:"max_tokens,omitempty"`
	Tools             []Tool        `json:"tools,omitempty"`
	ToolChoice        any           `json:"tool_choice,omitempty"`
	ParallelToolCalls *bool         `json:"parallel_tool_calls,omitempty"`
	DraftModel        string        `json:"draft_model,omitempty"`
}

// ChatMessage is a single message in the conversation history. Role must be
// one of "system", "user", "assistant", or "tool".
//
// Content may be either a plain string or an array of [ContentPart] objects.
// Use [ChatMessage.StringContent] to extract the text regardless of form.
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    any        `json:"content,omitempty"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// StringContent extracts the textual content of the message as a plain
// string. It handles both content forms: a plain string and an array of
// [ContentPart] objects, in which case all "text" parts are concatenated.
// Returns "" if Content is nil or cannot be interpreted.
func (m ChatMessage) StringContent() string {
	if m.Content == nil {
		return ""
	}
	switch v := m.Content.(type) {
	case string:
		return v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		var parts []ContentPart
		if err := json.Unmarshal(data, &parts); err != nil {
			var s string
			if err := json.Unmarshal(data, &s); err != nil {
				return ""
			}
			return s
		}
		var text string
		for _, p := range parts {
			if p.Type == "text" {
				text += p.Text
			}
		}
		return text
	}
}

// ContentPart is one element of a multi-part message content array. Only the
// "text" type carries content relevant to this SDK; other types are accepted
// but ignored by [ChatMessage.StringContent].
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Tool is a tool definition passed to the model. Type must be "function".
type Tool struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes a callable function exposed to the model.
// Parameters is typically a JSON Schema object describing the expected
// arguments.
type FunctionDefinition struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters,omitempty"`
}

// ToolCall is a complete tool invocation, as carried on assistant messages in
// the history or assembled from streamed [ToolCallDelta] fragments.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall contains the function name and its arguments as a raw JSON
// string, matching the wire convention of returning arguments as text rather
// than a parsed object.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Model is one entry of the models-listing endpoint.
type Model struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	OwnedBy string `json:"owned_by"`
}

// ModelList is the response body of GET /models.
type ModelList struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}
