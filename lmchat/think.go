package lmchat

import "strings"

// segment is a contiguous run of classified output text.
type segment struct {
	reasoning bool
	text      string
}

// thinkSplitter incrementally classifies a content delta stream into answer
// text and tag-delimited reasoning. The delimiter tag may arrive split across
// any number of deltas, so the splitter holds back the longest buffer suffix
// that could still grow into a tag and only emits it once disambiguated.
//
// Classification is lossless: delimiter characters stay in the reasoning
// segments, so concatenating every emitted segment reproduces the input
// exactly.
type thinkSplitter struct {
	open   string
	close  string
	inside bool
	buf    string
}

func newThinkSplitter(open, close string) *thinkSplitter {
	return &thinkSplitter{open: open, close: close}
}

// update consumes one content delta and returns the segments it completes.
// Adjacent segments of the same kind are merged.
func (t *thinkSplitter) update(delta string) []segment {
	t.buf += delta

	var segs []segment
	for {
		tag := t.open
		if t.inside {
			tag = t.close
		}

		i := strings.Index(t.buf, tag)
		if i < 0 {
			// No full tag. Hold back a partial tag prefix, emit the rest.
			hold := tagOverlap(t.buf, tag)
			if cut := len(t.buf) - hold; cut > 0 {
				segs = appendSegment(segs, segment{t.inside, t.buf[:cut]})
				t.buf = t.buf[cut:]
			}
			return segs
		}

		if t.inside {
			// The closing tag ends the reasoning span and belongs to it.
			segs = appendSegment(segs, segment{true, t.buf[:i+len(tag)]})
			t.inside = false
		} else {
			if i > 0 {
				segs = appendSegment(segs, segment{false, t.buf[:i]})
			}
			segs = appendSegment(segs, segment{true, tag})
			t.inside = true
		}
		t.buf = t.buf[i+len(tag):]
	}
}

// final flushes any buffered content, classified by the last confirmed state.
// A held-back partial tag prefix that never completed is emitted as-is.
func (t *thinkSplitter) final() []segment {
	if t.buf == "" {
		return nil
	}
	seg := segment{t.inside, t.buf}
	t.buf = ""
	return []segment{seg}
}

// tagOverlap returns the length of the longest proper prefix of tag that is a
// suffix of buf. That many trailing bytes are ambiguous: they may be ordinary
// text or the start of a split tag.
func tagOverlap(buf, tag string) int {
	max := len(tag) - 1
	if len(buf) < max {
		max = len(buf)
	}
	for l := max; l > 0; l-- {
		if strings.HasSuffix(buf, tag[:l]) {
			return l
		}
	}
	return 0
}

func appendSegment(segs []segment, s segment) []segment {
	if s.text == "" {
		return segs
	}
	if n := len(segs); n > 0 && segs[n-1].reasoning == s.reasoning {
		segs[n-1].text += s.text
		return segs
	}
	return append(segs, s)
}
