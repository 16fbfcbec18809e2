package bitcalc

import (
	"testing"
	"unicode"
)

func TestStreamValueSemantics(t *testing.T) {
	s := NewStream("a1;")
	n := s.Next()
	if r, ok := s.Peek(); !ok || r != 'a' {
		t.Errorf("original stream changed: peek gives %q, %t", r, ok)
	}
	if r, ok := n.Peek(); !ok || r != '1' {
		t.Errorf("wrong next: peek gives %q, %t", r, ok)
	}
	if got := s.String(); got != "a1;" {
		t.Errorf("original stream has %q", got)
	}
	if got := n.String(); got != "1;" {
		t.Errorf("next stream has %q", got)
	}
	if s.Len() != 3 || n.Len() != 2 {
		t.Errorf("wrong lengths %d, %d", s.Len(), n.Len())
	}
}

func TestStreamEnd(t *testing.T) {
	s := NewStream("x")
	if !s.HasNext() || s.IsEmpty() {
		t.Fatal("stream with one rune is empty")
	}
	s = s.Next()
	if s.HasNext() || !s.IsEmpty() {
		t.Fatal("stream is not empty after last rune")
	}
	if r, ok := s.Peek(); ok {
		t.Errorf("empty stream peeked %q", r)
	}
	if s.Pos() != 2 {
		t.Errorf("empty stream at pos %d, want 2", s.Pos())
	}
	defer func() {
		if recover() == nil {
			t.Error("Next on empty stream didn't panic")
		}
	}()
	s.Next()
}

func TestStreamFilter(t *testing.T) {
	s := NewStream("a b\nc")
	f := s.Filter(func(r rune) bool { return !unicode.IsSpace(r) })
	if got := f.String(); got != "abc" {
		t.Errorf("filtered to %q, want abc", got)
	}
	if got := s.String(); got != "a b\nc" {
		t.Errorf("filter changed original to %q", got)
	}
	cols := []int{1, 3, 5}
	for i, want := range cols {
		if got := f.Pos(); got != want {
			t.Errorf("rune %d of filtered stream at pos %d, want %d", i, got, want)
		}
		f = f.Next()
	}
	if f.Pos() != 6 {
		t.Errorf("end of filtered stream at pos %d, want 6", f.Pos())
	}
}

func TestStreamRunes(t *testing.T) {
	s := NewStream("×1")
	if r, _ := s.Peek(); r != '×' {
		t.Errorf("first rune is %q", r)
	}
	if p := s.Next().Pos(); p != 2 {
		t.Errorf("second rune at pos %d, want 2", p)
	}
}
