package lmchat

import "github.com/modelfold/lms-sdk-go/lmwire"

// EventKind identifies the kind of an [Event].
type EventKind string

const (
	// EventText is a fragment of ordinary answer text.
	EventText EventKind = "text"

	// EventReasoning is a fragment of reasoning output, either delimited by
	// think tags in the content stream or reported natively by the server.
	EventReasoning EventKind = "reasoning"

	// EventToolCall is a partial tool-call fragment. ToolCall carries
	// whatever fields were present on this fragment; Arguments is an
	// incremental append, never a replacement.
	EventToolCall EventKind = "tool_call"

	// EventToolCallEnd marks a tool call as complete. ToolCall carries the
	// fully assembled id, name, and arguments.
	EventToolCallEnd EventKind = "tool_call_end"

	// EventUsage carries the request's token totals. It is emitted exactly
	// once, last, and only when the stream completed normally.
	EventUsage EventKind = "usage"
)

// Event is one element of the output sequence produced by a [Stream].
// Exactly one of the payload fields is meaningful, selected by Kind.
type Event struct {
	Kind EventKind

	// Text holds the fragment for EventText and EventReasoning.
	Text string

	// ToolCall holds the fragment or assembled call for EventToolCall and
	// EventToolCallEnd.
	ToolCall *ToolCallEvent

	// Usage holds the totals for EventUsage.
	Usage *lmwire.Usage
}

// ToolCallEvent describes a streamed tool call. Index correlates fragments of
// the same call across events; ID and Name may be empty on intermediate
// fragments and are always populated on the end event.
type ToolCallEvent struct {
	Index     int
	ID        string
	Name      string
	Arguments string
}
