package bitcalc

import (
	"strings"
)

// Program is a parsed program: the statements in source order.
type Program struct {
	// Exprs is the list of statements that were parsed.
	Exprs []Expression
	// Rest is the cleaned input that the parser did not consume. It is empty
	// when the whole input formed a program.
	Rest string
	// Err is the failure that ended the program early, or nil if Rest is
	// empty.
	Err error
}

// Expression is a statement: either an *Assign or a *Bare.
type Expression interface {
	expression()
	String() string
}

// Sum is the additive level of the grammar: *SumNS, *SumNF, *SumFS, or *SumF.
type Sum interface {
	sum()
	String() string
}

// Factor is the multiplicative level of the grammar: *FactorNF, *FactorNE,
// *FactorEF, or *FactorE.
type Factor interface {
	factor()
	String() string
}

// Atom is the innermost level of the grammar: *Paren, *Lit, or *Ref.
type Atom interface {
	atom()
	String() string
}

// Op is an arithmetic operator.
type Op byte

const (
	OpAdd Op = '+'
	OpSub Op = '-'
	OpMul Op = '*'
	OpDiv Op = '/'
)

func (op Op) String() string {
	return string(rune(op))
}

// Digits is a sequence of bits written as the characters 0 and 1. An empty
// Digits means no digits were written, which has the value zero.
type Digits string

// Num is a binary number literal.
type Num struct {
	// Int is the integer part, most significant bit first.
	Int Digits
	// Frac is the fractional part, most significant bit first.
	Frac Digits
	// Point is whether the literal was written with a radix point.
	Point bool
	// Negative is whether the literal was written with a leading minus.
	Negative bool
}

func (n Num) String() string {
	var b strings.Builder
	if n.Negative {
		b.WriteByte('-')
	}
	b.WriteString(string(n.Int))
	if n.Point {
		b.WriteByte('.')
		b.WriteString(string(n.Frac))
	}
	return b.String()
}

// Var is a variable name. The empty name is a valid name.
type Var struct {
	Name string
}

func (v Var) String() string {
	return v.Name
}

type (
	// Assign is the statement Var = S.
	Assign struct {
		Var Var
		S   Sum
	}
	// Bare is a statement that is only an expression.
	Bare struct {
		S Sum
	}
)

type (
	// SumNS is N op S.
	SumNS struct {
		N  Num
		Op Op
		S  Sum
	}
	// SumNF is N op F.
	SumNF struct {
		N  Num
		Op Op
		F  Factor
	}
	// SumFS is F op S.
	SumFS struct {
		F  Factor
		Op Op
		S  Sum
	}
	// SumF is a lone F.
	SumF struct {
		F Factor
	}
)

type (
	// FactorNF is N op F.
	FactorNF struct {
		N  Num
		Op Op
		F  Factor
	}
	// FactorNE is N op E.
	FactorNE struct {
		N  Num
		Op Op
		E  Atom
	}
	// FactorEF is E op F.
	FactorEF struct {
		E  Atom
		Op Op
		F  Factor
	}
	// FactorE is a lone E.
	FactorE struct {
		E Atom
	}
)

type (
	// Paren is a parenthesized S.
	Paren struct {
		S Sum
	}
	// Lit is a number literal.
	Lit struct {
		N Num
	}
	// Ref is a variable reference.
	Ref struct {
		Var Var
	}
)

func (*Assign) expression() {}
func (*Bare) expression()   {}

func (*SumNS) sum() {}
func (*SumNF) sum() {}
func (*SumFS) sum() {}
func (*SumF) sum()  {}

func (*FactorNF) factor() {}
func (*FactorNE) factor() {}
func (*FactorEF) factor() {}
func (*FactorE) factor()  {}

func (*Paren) atom() {}
func (*Lit) atom()   {}
func (*Ref) atom()   {}

// String formats the program back into source text, one statement per line.
func (p *Program) String() string {
	var b strings.Builder
	for _, e := range p.Exprs {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func (a *Assign) String() string { return a.Var.Name + " = " + a.S.String() + ";" }
func (e *Bare) String() string   { return e.S.String() + ";" }

func (s *SumNS) String() string { return binstr(s.N.String(), s.Op, s.S.String()) }
func (s *SumNF) String() string { return binstr(s.N.String(), s.Op, s.F.String()) }
func (s *SumFS) String() string { return binstr(s.F.String(), s.Op, s.S.String()) }
func (s *SumF) String() string  { return s.F.String() }

func (f *FactorNF) String() string { return binstr(f.N.String(), f.Op, f.F.String()) }
func (f *FactorNE) String() string { return binstr(f.N.String(), f.Op, f.E.String()) }
func (f *FactorEF) String() string { return binstr(f.E.String(), f.Op, f.F.String()) }
func (f *FactorE) String() string  { return f.E.String() }

func (e *Paren) String() string { return "(" + e.S.String() + ")" }
func (e *Lit) String() string   { return e.N.String() }
func (e *Ref) String() string   { return e.Var.Name }

func binstr(l string, op Op, r string) string {
	return l + " " + op.String() + " " + r
}
