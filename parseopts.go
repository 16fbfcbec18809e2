package bitcalc

import "strconv"

// DefaultMaxDepth is the default limit on how deeply sums, products, and
// parentheses may nest. Each operator in a chain like 1+1+1 counts as one
// level, since the grammar nests to the right.
const DefaultMaxDepth = 1024

// ParseOption is an option for parsing.
type ParseOption interface {
	parseOption(parsecfg) parsecfg
}

type (
	strictopt bool
	depthopt  int
)

// parsecfg holds the settings for a single parse.
type parsecfg struct {
	// strict indicates that unconsumed input is an error.
	strict bool
	// maxDepth is the nesting limit.
	maxDepth int
}

// Strict makes Parse return an error when the input contains text after the
// last complete statement. Without Strict, such text is dropped, and it is
// only reported through the Rest and Err fields of the program.
func Strict() ParseOption {
	return strictopt(true)
}

func (o strictopt) parseOption(p parsecfg) parsecfg {
	p.strict = bool(o)
	return p
}

// MaxDepth sets the limit on expression nesting. Exceeding the limit results
// in a *DepthError. Panics if n is not positive.
func MaxDepth(n int) ParseOption {
	if n <= 0 {
		panic("bitcalc: invalid max depth " + strconv.Itoa(n))
	}
	return depthopt(n)
}

func (o depthopt) parseOption(p parsecfg) parsecfg {
	p.maxDepth = int(o)
	return p
}
