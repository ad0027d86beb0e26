package lmchat

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/modelfold/lms-sdk-go/lmwire"
)

func testState() *streamState {
	return newStreamState(DefaultThinkOpen, DefaultThinkClose, slog.Default())
}

func strptr(s string) *string { return &s }

func contentFrame(text string) *lmwire.ChunkFrame {
	return &lmwire.ChunkFrame{Choices: []lmwire.ChunkChoice{
		{Delta: lmwire.ChunkDelta{Content: strptr(text)}},
	}}
}

func finishFrame(reason string) *lmwire.ChunkFrame {
	return &lmwire.ChunkFrame{Choices: []lmwire.ChunkChoice{
		{FinishReason: &reason},
	}}
}

func toolFrame(deltas ...lmwire.ToolCallDelta) *lmwire.ChunkFrame {
	return &lmwire.ChunkFrame{Choices: []lmwire.ChunkChoice{
		{Delta: lmwire.ChunkDelta{ToolCalls: deltas}},
	}}
}

// TestToolCallAssembly covers the canonical fragment sequence: id and name on
// the first fragment, arguments accumulated across both, one end event on the
// finish signal.
func TestToolCallAssembly(t *testing.T) {
	st := testState()

	ev1 := st.apply(toolFrame(lmwire.ToolCallDelta{
		Index:    0,
		ID:       "a",
		Function: lmwire.FunctionDelta{Name: "x", Arguments: `{"p":`},
	}))
	ev2 := st.apply(toolFrame(lmwire.ToolCallDelta{
		Index:    0,
		Function: lmwire.FunctionDelta{Arguments: `1}`},
	}))
	ev3 := st.apply(finishFrame("tool_calls"))

	if len(ev1) != 1 || ev1[0].Kind != EventToolCall {
		t.Fatalf("first fragment events = %+v, want one EventToolCall", ev1)
	}
	if tc := ev1[0].ToolCall; tc.Index != 0 || tc.ID != "a" || tc.Name != "x" || tc.Arguments != `{"p":` {
		t.Errorf("first fragment = %+v", tc)
	}

	if len(ev2) != 1 || ev2[0].Kind != EventToolCall {
		t.Fatalf("second fragment events = %+v, want one EventToolCall", ev2)
	}
	if tc := ev2[0].ToolCall; tc.Index != 0 || tc.ID != "" || tc.Arguments != `1}` {
		t.Errorf("second fragment = %+v", tc)
	}

	if len(ev3) != 1 || ev3[0].Kind != EventToolCallEnd {
		t.Fatalf("finish events = %+v, want one EventToolCallEnd", ev3)
	}
	end := ev3[0].ToolCall
	if end.Index != 0 || end.ID != "a" || end.Name != "x" || end.Arguments != `{"p":1}` {
		t.Errorf("assembled call = %+v", end)
	}
}

func TestToolCallEndAscendingOrder(t *testing.T) {
	st := testState()

	// Fragments arrive out of index order.
	st.apply(toolFrame(
		lmwire.ToolCallDelta{Index: 1, ID: "b", Function: lmwire.FunctionDelta{Name: "second"}},
		lmwire.ToolCallDelta{Index: 0, ID: "a", Function: lmwire.FunctionDelta{Name: "first"}},
	))
	events := st.apply(finishFrame("tool_calls"))

	if len(events) != 2 {
		t.Fatalf("end events = %d, want 2", len(events))
	}
	if events[0].ToolCall.Index != 0 || events[1].ToolCall.Index != 1 {
		t.Errorf("end order = [%d, %d], want [0, 1]",
			events[0].ToolCall.Index, events[1].ToolCall.Index)
	}
}

func TestToolCallEndGeneratesID(t *testing.T) {
	st := testState()

	st.apply(toolFrame(lmwire.ToolCallDelta{
		Index:    0,
		Function: lmwire.FunctionDelta{Name: "anon", Arguments: "{}"},
	}))
	events := st.apply(finishFrame("tool_calls"))

	if len(events) != 1 {
		t.Fatalf("end events = %d, want 1", len(events))
	}
	id := events[0].ToolCall.ID
	if !strings.HasPrefix(id, "call_") || len(id) <= len("call_") {
		t.Errorf("generated ID = %q, want call_ prefix with nonempty suffix", id)
	}
}

func TestFinishResetsOpenCalls(t *testing.T) {
	st := testState()

	st.apply(toolFrame(lmwire.ToolCallDelta{Index: 0, ID: "a"}))
	if got := st.apply(finishFrame("tool_calls")); len(got) != 1 {
		t.Fatalf("first finish = %d events, want 1", len(got))
	}

	// A second finish with no new fragments ends nothing.
	if got := st.apply(finishFrame("stop")); len(got) != 0 {
		t.Errorf("second finish = %d events, want 0", len(got))
	}

	// New fragments after an end start a fresh accumulation.
	st.apply(toolFrame(lmwire.ToolCallDelta{Index: 0, ID: "b"}))
	events := st.apply(finishFrame("tool_calls"))
	if len(events) != 1 || events[0].ToolCall.ID != "b" {
		t.Errorf("second turn end = %+v, want one end with ID b", events)
	}
}

func TestStateContentAndReasoning(t *testing.T) {
	st := testState()

	var events []Event
	events = append(events, st.apply(contentFrame("a<think>b"))...)
	events = append(events, st.apply(contentFrame("</think>c"))...)
	events = append(events, st.finish()...)

	var text, reasoning strings.Builder
	for _, ev := range events {
		switch ev.Kind {
		case EventText:
			text.WriteString(ev.Text)
		case EventReasoning:
			reasoning.WriteString(ev.Text)
		default:
			t.Fatalf("unexpected event kind %q", ev.Kind)
		}
	}
	if text.String() != "ac" {
		t.Errorf("text = %q, want %q", text.String(), "ac")
	}
	if reasoning.String() != "<think>b</think>" {
		t.Errorf("reasoning = %q, want %q", reasoning.String(), "<think>b</think>")
	}
	if st.outputText() != "a<think>b</think>c" {
		t.Errorf("outputText = %q, want full content", st.outputText())
	}
}

func TestStateNativeReasoningDelta(t *testing.T) {
	st := testState()

	frame := &lmwire.ChunkFrame{Choices: []lmwire.ChunkChoice{
		{Delta: lmwire.ChunkDelta{ReasoningContent: strptr("thinking...")}},
	}}
	events := st.apply(frame)

	if len(events) != 1 || events[0].Kind != EventReasoning || events[0].Text != "thinking..." {
		t.Errorf("events = %+v, want one reasoning event", events)
	}
}

func TestStateEmptyFrame(t *testing.T) {
	st := testState()

	if events := st.apply(&lmwire.ChunkFrame{}); len(events) != 0 {
		t.Errorf("events for choice-less frame = %+v, want none", events)
	}
	if events := st.apply(contentFrame("")); len(events) != 0 {
		t.Errorf("events for empty content = %+v, want none", events)
	}
}
