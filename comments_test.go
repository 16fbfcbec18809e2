package bitcalc

import "testing"

func TestRemoveComments(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"none", "1+1;", "1+1;"},
		{"empty", "", ""},
		{"single", "a'''b'''c", "ac"},
		{"double", `a"""b"""c`, "ac"},
		{"mixed-close", `a'''b"""c`, "ac"},
		{"mixed-run", `a''"b"''c`, "ac"},
		{"two-quotes", "a''b", "a''b"},
		{"one-quote", `a"b`, `a"b`},
		{"unterminated", "a'''bc", "a"},
		{"four", "''''x", ""},
		{"adjacent", "'''a''''''b'''c", "c"},
		{"multiline", "1;'''\nnote\n'''10;", "1;10;"},
		{"at-end", "1;''''''", "1;"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := RemoveComments(NewStream(c.src)).String()
			if got != c.want {
				t.Errorf("%q: want %q, got %q", c.src, c.want, got)
			}
		})
	}
}

func TestCleanKeepsPositions(t *testing.T) {
	s := Clean("'''c''' 1 ;")
	if got := s.String(); got != "1;" {
		t.Fatalf("cleaned to %q", got)
	}
	if p := s.Pos(); p != 9 {
		t.Errorf("1 at pos %d, want 9", p)
	}
	if p := s.Next().Pos(); p != 11 {
		t.Errorf("; at pos %d, want 11", p)
	}
}

func TestStripSpace(t *testing.T) {
	got := StripSpace(NewStream(" 1\t+\r\n1 ;\n")).String()
	if got != "1+1;" {
		t.Errorf("stripped to %q", got)
	}
}

func TestEndsInComment(t *testing.T) {
	cases := []struct {
		src  string
		want bool
	}{
		{"", false},
		{"1;", false},
		{"'''a note", true},
		{"1; '''note", true},
		{"'''a note'''", false},
		{"'''a\nb''' 1; \"\"\"c", true},
		{"1;''", false},
	}
	for _, c := range cases {
		if got := EndsInComment(c.src); got != c.want {
			t.Errorf("%q: want %t, got %t", c.src, c.want, got)
		}
	}
}
