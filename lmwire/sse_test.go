package lmwire

import (
	"reflect"
	"testing"
)

func demux(t *testing.T, chunks ...string) []string {
	t.Helper()
	var d Demuxer
	var payloads []string
	for _, c := range chunks {
		payloads = append(payloads, d.Feed(c)...)
	}
	return append(payloads, d.Flush()...)
}

func TestDemuxerFeed(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		want   []string
	}{
		{
			name:   "single frame",
			chunks: []string{"data: {\"x\":1}\n\n"},
			want:   []string{`{"x":1}`},
		},
		{
			name:   "frame split mid payload",
			chunks: []string{"data: {\"choices\":[{\"delta\":{\"content\":\"Hel", "lo\"}}]}\n\n"},
			want:   []string{`{"choices":[{"delta":{"content":"Hello"}}]}`},
		},
		{
			name:   "prefix split across chunks",
			chunks: []string{"da", "ta: {\"x\":1}\n"},
			want:   []string{`{"x":1}`},
		},
		{
			name:   "crlf line endings",
			chunks: []string{"data: {\"x\":1}\r\n\r\n"},
			want:   []string{`{"x":1}`},
		},
		{
			name:   "done sentinel dropped",
			chunks: []string{"data: {\"x\":1}\n\ndata: [DONE]\n\n"},
			want:   []string{`{"x":1}`},
		},
		{
			name:   "empty payload dropped",
			chunks: []string{"data:\n\ndata: {\"x\":1}\n\n"},
			want:   []string{`{"x":1}`},
		},
		{
			name:   "non data lines ignored",
			chunks: []string{"event: ping\nid: 7\ndata: {\"x\":1}\n\n"},
			want:   []string{`{"x":1}`},
		},
		{
			name:   "final frame without trailing newline",
			chunks: []string{"data: {\"x\":1}\n\ndata: {\"y\":2}"},
			want:   []string{`{"x":1}`, `{"y":2}`},
		},
		{
			name:   "no prefix no payload",
			chunks: []string{"hello\nworld\n"},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := demux(t, tt.chunks...)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("payloads = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestDemuxerChunkBoundaryIndependence verifies that every chunking of a
// fixed byte stream yields the same payload list.
func TestDemuxerChunkBoundaryIndependence(t *testing.T) {
	stream := "data: {\"a\":1}\n\ndata:{\"b\":2}\r\nevent: noise\ndata: {\"c\":3}\n\ndata: [DONE]\n\ndata: {\"d\":4}"
	want := []string{`{"a":1}`, `{"b":2}`, `{"c":3}`, `{"d":4}`}

	// Every two-chunk split.
	for i := 0; i <= len(stream); i++ {
		got := demux(t, stream[:i], stream[i:])
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("split at %d: payloads = %q, want %q", i, got, want)
		}
	}

	// Byte at a time.
	chunks := make([]string, len(stream))
	for i := range stream {
		chunks[i] = stream[i : i+1]
	}
	if got := demux(t, chunks...); !reflect.DeepEqual(got, want) {
		t.Fatalf("byte-at-a-time: payloads = %q, want %q", got, want)
	}
}

func TestDemuxerFlushEmpty(t *testing.T) {
	var d Demuxer
	if got := d.Flush(); got != nil {
		t.Errorf("Flush on empty demuxer = %q, want nil", got)
	}

	d.Feed("data: [DONE]")
	if got := d.Flush(); got != nil {
		t.Errorf("Flush of unterminated [DONE] = %q, want nil", got)
	}
}
