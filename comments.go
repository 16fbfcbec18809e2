package bitcalc

import (
	"strings"
	"unicode"
)

// Quotes contains the runes which delimit comments. Any run of three of them,
// in any combination, opens or closes a comment.
const Quotes = `'"`

func isQuote(r rune) bool {
	return strings.ContainsRune(Quotes, r)
}

// isDelim reports whether the stream starts with a comment delimiter.
func isDelim(s Stream) bool {
	if s.Len() < 3 {
		return false
	}
	for _, c := range s.syms[:3] {
		if !isQuote(c.r) {
			return false
		}
	}
	return true
}

// RemoveComments returns a stream with every comment removed, including its
// delimiters. A comment that is never closed extends to the end of the input.
func RemoveComments(s Stream) Stream {
	r, _ := removeComments(s)
	return r
}

// EndsInComment reports whether src ends inside a comment that has not been
// closed.
func EndsInComment(src string) bool {
	_, open := removeComments(NewStream(src))
	return open
}

// removeComments filters comments from s and reports whether the input ended
// inside one.
func removeComments(s Stream) (Stream, bool) {
	r := Stream{syms: make([]symbol, 0, s.Len()), end: s.end}
	inside := false
	for s.HasNext() {
		switch {
		case isDelim(s):
			s = Stream{syms: s.syms[3:], end: s.end}
			inside = !inside
		case inside:
			s = s.Next()
		default:
			r.syms = append(r.syms, s.syms[0])
			s = s.Next()
		}
	}
	return r, inside
}

// StripSpace returns a stream with all whitespace removed.
func StripSpace(s Stream) Stream {
	return s.Filter(func(r rune) bool { return !unicode.IsSpace(r) })
}

// Clean prepares source text for parsing by removing comments and then
// whitespace.
func Clean(src string) Stream {
	return StripSpace(RemoveComments(NewStream(src)))
}
