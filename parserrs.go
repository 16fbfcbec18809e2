package bitcalc

import "strconv"

// ParseError is an error indicating that no alternative of a grammar rule
// matched the input. It implements InputError.
type ParseError struct {
	// Col is the position of the first rune the rule could not consume.
	Col int
	// Rule is the grammar rule that failed, e.g. "S" or "Expression".
	Rule string
	// Want describes what the rule expected to find at Col, if anything.
	Want string
	// rest is the cleaned input remaining at the point of failure.
	rest Stream
}

// Rest returns the cleaned input that remained at the point of failure.
func (err *ParseError) Rest() string {
	return err.rest.String()
}

func (err *ParseError) Error() string {
	msg := "cannot parse " + err.Rule
	if err.Want != "" {
		msg += ": expected " + err.Want
	}
	if err.rest.IsEmpty() {
		return errpos(err.Col, msg+" at end of input")
	}
	return errpos(err.Col, msg+" before "+strconv.Quote(clip(err.Rest())))
}

func (err *ParseError) Pos() int {
	return err.Col
}

// DepthError is an error indicating that expressions were nested more deeply
// than the parser allows. Unlike ParseError, it stops parsing entirely rather
// than causing the parser to try another alternative. It implements
// InputError.
type DepthError struct {
	// Col is the position at which the limit was exceeded.
	Col int
	// Max is the nesting limit.
	Max int
}

func (err *DepthError) Error() string {
	return errpos(err.Col, "expression nested deeper than "+strconv.Itoa(err.Max)+" levels")
}

func (err *DepthError) Pos() int {
	return err.Col
}

// errpos is a shortcut to create an error message with a position.
func errpos(pos int, msg string) string {
	return strconv.Itoa(pos) + ": " + msg
}

// clip shortens long remaining input for error messages.
func clip(s string) string {
	const max = 24
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

// InputError is an error with position information. Every error resulting from
// invalid input implements InputError.
type InputError interface {
	error
	// Pos returns the position of the error as the number of runes up to and
	// including the rune that caused the error.
	Pos() int
}

var (
	_ InputError = (*ParseError)(nil)
	_ InputError = (*DepthError)(nil)
)
