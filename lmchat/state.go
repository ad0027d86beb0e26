package lmchat

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/modelfold/lms-sdk-go/lmwire"
)

// streamState tracks per-stream translation state: the reasoning splitter and
// the tool-call accumulators keyed by index. One streamState serves exactly
// one request.
type streamState struct {
	splitter *thinkSplitter
	calls    map[int]*toolCallAcc
	open     []int // indexes seen since the last finish signal
	output   strings.Builder
	log      *slog.Logger
}

// toolCallAcc accumulates the fragments of one tool call. The wire protocol
// sends id and name on the first fragment only and streams arguments as
// cumulative appends.
type toolCallAcc struct {
	id   string
	name string
	args strings.Builder
}

func newStreamState(thinkOpen, thinkClose string, log *slog.Logger) *streamState {
	return &streamState{
		splitter: newThinkSplitter(thinkOpen, thinkClose),
		calls:    make(map[int]*toolCallAcc),
		log:      log,
	}
}

// apply translates one decoded frame into output events, in arrival order.
func (st *streamState) apply(frame *lmwire.ChunkFrame) []Event {
	var events []Event

	if d := frame.Delta(); d != nil {
		if d.ReasoningContent != nil && *d.ReasoningContent != "" {
			events = append(events, Event{Kind: EventReasoning, Text: *d.ReasoningContent})
		}
		if d.Content != nil && *d.Content != "" {
			st.output.WriteString(*d.Content)
			events = append(events, segmentEvents(st.splitter.update(*d.Content))...)
		}
		for _, tc := range d.ToolCalls {
			events = append(events, st.applyToolDelta(tc))
		}
	}

	if reason := frame.FinishReason(); reason != "" {
		events = append(events, st.finishToolCalls(reason)...)
	}
	return events
}

// finish flushes any text still held back by the splitter once input ends.
func (st *streamState) finish() []Event {
	return segmentEvents(st.splitter.final())
}

// outputText returns the concatenation of all content deltas seen so far,
// used for completion-token accounting.
func (st *streamState) outputText() string {
	return st.output.String()
}

func (st *streamState) applyToolDelta(tc lmwire.ToolCallDelta) Event {
	acc, ok := st.calls[tc.Index]
	if !ok {
		acc = &toolCallAcc{}
		st.calls[tc.Index] = acc
		st.open = append(st.open, tc.Index)
	}
	if tc.ID != "" {
		acc.id = tc.ID
	}
	if tc.Function.Name != "" {
		acc.name = tc.Function.Name
	}
	acc.args.WriteString(tc.Function.Arguments)

	return Event{Kind: EventToolCall, ToolCall: &ToolCallEvent{
		Index:     tc.Index,
		ID:        tc.ID,
		Name:      tc.Function.Name,
		Arguments: tc.Function.Arguments,
	}}
}

// finishToolCalls translates the turn-level finish signal into one explicit
// end event per open call, in ascending index order. The protocol never marks
// individual calls as finished, only the turn as a whole.
func (st *streamState) finishToolCalls(reason string) []Event {
	if len(st.open) == 0 {
		return nil
	}
	st.log.Debug("ending tool calls", "reason", reason, "count", len(st.open))

	sort.Ints(st.open)
	events := make([]Event, 0, len(st.open))
	for _, idx := range st.open {
		acc := st.calls[idx]
		if acc.id == "" {
			acc.id = newCallID()
		}
		events = append(events, Event{Kind: EventToolCallEnd, ToolCall: &ToolCallEvent{
			Index:     idx,
			ID:        acc.id,
			Name:      acc.name,
			Arguments: acc.args.String(),
		}})
		delete(st.calls, idx)
	}
	st.open = st.open[:0]
	return events
}

// newCallID generates a tool-call id for servers that omit one.
func newCallID() string {
	id, err := gonanoid.New()
	if err != nil {
		return fmt.Sprintf("call_%d", time.Now().UnixNano())
	}
	return "call_" + id
}

func segmentEvents(segs []segment) []Event {
	events := make([]Event, 0, len(segs))
	for _, s := range segs {
		kind := EventText
		if s.reasoning {
			kind = EventReasoning
		}
		events = append(events, Event{Kind: kind, Text: s.text})
	}
	return events
}
