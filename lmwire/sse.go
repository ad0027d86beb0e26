package lmwire

import "strings"

const (
	dataPrefix   = "data:"
	doneSentinel = "[DONE]"
)

// Demuxer converts an arbitrarily chunked SSE byte stream into discrete frame
// payloads. The transport delivers chunks with no alignment guarantee: a chunk
// boundary may fall in the middle of a line, a JSON object, or the "data:"
// prefix itself. The Demuxer buffers the trailing incomplete line between
// [Demuxer.Feed] calls so that every returned payload is exactly one complete
// frame, regardless of how the stream was split.
//
// The line is the frame unit. JSON decoding happens one layer up (see
// [DecodeFrame]) and is allowed to fail independently of framing.
type Demuxer struct {
	pending string
}

// Feed appends a raw chunk to the pending buffer and returns the payloads of
// all frames completed by it, in arrival order. Lines without the "data:"
// prefix, empty payloads, and the "[DONE]" terminator are dropped.
func (d *Demuxer) Feed(chunk string) []string {
	d.pending += chunk

	var payloads []string
	for {
		i := strings.IndexByte(d.pending, '\n')
		if i < 0 {
			return payloads
		}
		line := d.pending[:i]
		d.pending = d.pending[i+1:]
		if p, ok := framePayload(line); ok {
			payloads = append(payloads, p)
		}
	}
}

// Flush treats whatever remains in the buffer as a final, unterminated line
// and returns its payload, if any. The last frame of a stream is not
// guaranteed to be followed by a trailing newline, so callers must Flush once
// input ends.
func (d *Demuxer) Flush() []string {
	line := d.pending
	d.pending = ""
	if p, ok := framePayload(line); ok {
		return []string{p}
	}
	return nil
}

func framePayload(line string) (string, bool) {
	line = strings.TrimSuffix(line, "\r")
	if !strings.HasPrefix(line, dataPrefix) {
		return "", false
	}
	p := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))
	if p == "" || p == doneSentinel {
		return "", false
	}
	return p, true
}
