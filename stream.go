package bitcalc

import (
	"strings"
)

// symbol is a rune of source text along with its position in the original
// input, so that positions survive filtering.
type symbol struct {
	r   rune
	col int
}

// Stream is an immutable view over a sequence of runes. Advancing a Stream
// produces a new Stream over the remaining suffix and never changes the
// original, so a parser can hold on to a Stream to rewind to it later.
type Stream struct {
	syms []symbol
	// end is the position one past the last symbol of the original input.
	end int
}

// NewStream creates a stream over src. Positions count runes from 1.
func NewStream(src string) Stream {
	s := Stream{syms: make([]symbol, 0, len(src))}
	col := 1
	for _, r := range src {
		s.syms = append(s.syms, symbol{r: r, col: col})
		col++
	}
	s.end = col
	return s
}

// Peek returns the front rune of the stream. The second result is false if
// the stream is empty.
func (s Stream) Peek() (rune, bool) {
	if len(s.syms) == 0 {
		return 0, false
	}
	return s.syms[0].r, true
}

// is reports whether the front rune of the stream is r.
func (s Stream) is(r rune) bool {
	c, ok := s.Peek()
	return ok && c == r
}

// Next returns the stream following the front rune. Panics if the stream is
// empty.
func (s Stream) Next() Stream {
	if len(s.syms) == 0 {
		panic("bitcalc: Next on empty stream")
	}
	return Stream{syms: s.syms[1:], end: s.end}
}

// HasNext reports whether the stream has at least one rune.
func (s Stream) HasNext() bool {
	return len(s.syms) > 0
}

// IsEmpty reports whether the stream is exhausted.
func (s Stream) IsEmpty() bool {
	return len(s.syms) == 0
}

// Len returns the number of runes remaining in the stream.
func (s Stream) Len() int {
	return len(s.syms)
}

// Pos returns the position in the original input of the front rune, or the
// position just past the end of the input if the stream is empty.
func (s Stream) Pos() int {
	if len(s.syms) == 0 {
		return s.end
	}
	return s.syms[0].col
}

// Filter returns a new stream containing only the runes for which keep
// returns true, in their original order.
func (s Stream) Filter(keep func(rune) bool) Stream {
	r := Stream{syms: make([]symbol, 0, len(s.syms)), end: s.end}
	for _, c := range s.syms {
		if keep(c.r) {
			r.syms = append(r.syms, c)
		}
	}
	return r
}

// String returns the remaining runes of the stream.
func (s Stream) String() string {
	var b strings.Builder
	for _, c := range s.syms {
		b.WriteRune(c.r)
	}
	return b.String()
}
