package bitcalc_test

import (
	"math"
	"strings"
	"testing"

	"github.com/zephyrtronium/bitcalc"
)

func FuzzParse(f *testing.F) {
	f.Add("x")
	f.Add("1;")
	f.Add("x = 1.1; x * 10;")
	f.Add("'''c'''(1-)")
	f.Add("1×10;")
	f.Fuzz(func(t *testing.T, s string) {
		p, err := bitcalc.Parse(s, bitcalc.MaxDepth(64))
		if err != nil {
			return
		}
		q, err := bitcalc.UnmarshalTree([]byte(bitcalc.Render(p, bitcalc.ParseTree)))
		if err != nil {
			t.Fatalf("tree of %q doesn't unmarshal: %v", s, err)
		}
		if p.String() != q.String() {
			t.Errorf("tree of %q changed from %q to %q", s, p, q)
		}
	})
}

func FuzzEval(f *testing.F) {
	f.Add("x;")
	f.Add("y = x / 0;")
	f.Add("1×10;")
	f.Add("x = 1" + strings.Repeat("0", 1023) + "; x + x;")
	n, err := bitcalc.ParseNum("-1.01")
	if err != nil {
		f.Fatal(err)
	}
	f.Fuzz(func(t *testing.T, s string) {
		r, err := bitcalc.EvalString(s, bitcalc.SetVar("x", n), bitcalc.WithBackend(bitcalc.Float64()))
		if err != nil {
			return
		}
		for i, v := range r {
			if v.Err != nil {
				continue
			}
			if x := v.Value.(float64); math.IsInf(x, 0) || math.IsNaN(x) {
				t.Errorf("%q statement %d evaluated to %v without error", s, i, x)
			}
		}
	})
}
