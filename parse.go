package bitcalc

import (
	"strings"
)

// Program = Expression Program | ε
// Expression = Assign ';' | S ';'
// Assign = Var '=' S
// Var = VarChar Var | ε
// S = N ('+'|'-') S | N ('+'|'-') F | F ('+'|'-') S | F
// F = N ('*'|'/') F | N ('*'|'/') E | E ('*'|'/') F | E
// E = '(' S ')' | N | Var
// N = D '.' D | '-' D '.' D | '-' D | D
// D = '0' D | '1' D | ε
//
// VarChar is any rune not in Reserved. Alternatives are tried in the order
// written; the first one that matches wins.

// Reserved contains the runes which cannot appear in variable names.
const Reserved = ";01+-*/=()"

// Parse parses a program. Comments and whitespace are removed before parsing.
// Parsing stops at the first text which does not form a complete statement;
// unless the Strict option is given, that is not an error, and the returned
// program describes the unparsed remainder in its Rest and Err fields.
//
// The only errors without Strict are *DepthError, when the input nests more
// deeply than allowed.
//
// The parser remembers the outcome of S and F at each position, so
// backtracking never reparses the same text as the same rule twice.
func Parse(src string, opts ...ParseOption) (*Program, error) {
	cfg := parsecfg{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		cfg = opt.parseOption(cfg)
	}
	p := parser{max: cfg.maxDepth}
	prog, err := p.program(Clean(src))
	if err != nil {
		return nil, err
	}
	if cfg.strict && prog.Err != nil {
		return nil, prog.Err
	}
	return prog, nil
}

// parser holds the state of a single parse.
type parser struct {
	// depth is the current nesting of sums and factors.
	depth int
	// max is the nesting limit.
	max int
	// peak is the deepest nesting reached by the rule being memoized.
	peak int
	// memo holds the outcomes of rules by position.
	memo map[memoKey]parsed
}

// memoKey identifies a rule at a position. All streams in one parse are
// suffixes of the same input, so the remaining length is the position.
type memoKey struct {
	rule byte
	pos  int
}

// parsed is the outcome of a rule at a position. height is the nesting the
// rule needed, counted from the depth at which it started.
type parsed struct {
	v      any
	rest   Stream
	err    error
	height int
}

// memo parses rule at s, or reuses the outcome from an earlier attempt at the
// same position. An outcome is reused only when its nesting still fits under
// the limit at the current depth; otherwise the rule runs again, so depth
// errors arise exactly where they would without memoization.
func memo[T any](p *parser, rule byte, s Stream, parse func(Stream) (T, Stream, error)) (T, Stream, error) {
	key := memoKey{rule: rule, pos: s.Len()}
	if m, ok := p.memo[key]; ok && p.depth+m.height <= p.max {
		p.peak = max(p.peak, p.depth+m.height)
		v, _ := m.v.(T)
		return v, m.rest, m.err
	}
	outer, start := p.peak, p.depth
	p.peak = p.depth
	v, rest, err := parse(s)
	height := p.peak - start
	p.peak = max(outer, p.peak)
	if _, ok := err.(*DepthError); ok {
		return v, rest, err
	}
	if p.memo == nil {
		p.memo = make(map[memoKey]parsed)
	}
	p.memo[key] = parsed{v: v, rest: rest, err: err, height: height}
	return v, rest, err
}

// enter records a level of nesting, or returns a *DepthError if that would
// exceed the limit. Each successful enter must be paired with leave.
func (p *parser) enter(s Stream) error {
	if p.depth >= p.max {
		return &DepthError{Col: s.Pos(), Max: p.max}
	}
	p.depth++
	p.peak = max(p.peak, p.depth)
	return nil
}

func (p *parser) leave() {
	p.depth--
}

// fail creates a parse failure for rule at the front of s.
func fail(s Stream, rule, want string) error {
	return &ParseError{Col: s.Pos(), Rule: rule, Want: want, rest: s}
}

// alt tries each rule in order against the same stream and returns the first
// success. If every rule fails, the result is the last failure. Errors other
// than *ParseError are returned immediately.
func alt[T any](s Stream, rules ...func(Stream) (T, Stream, error)) (T, Stream, error) {
	var zero T
	var err error
	for _, rule := range rules {
		v, rest, e := rule(s)
		if e == nil {
			return v, rest, nil
		}
		if _, ok := e.(*ParseError); !ok {
			return zero, s, e
		}
		err = e
	}
	return zero, s, err
}

// opset is a set of operators along with its description for errors.
type opset struct {
	ops  string
	want string
}

var (
	sumOps    = opset{ops: "+-", want: "operator + or -"}
	factorOps = opset{ops: "*/", want: "operator * or /"}
)

// binary parses left, then one of the operators in ops, then right.
func binary[L, R, T any](
	s Stream,
	rule string,
	ops opset,
	left func(Stream) (L, Stream, error),
	right func(Stream) (R, Stream, error),
	compose func(L, Op, R) T,
) (T, Stream, error) {
	var zero T
	l, rest, err := left(s)
	if err != nil {
		return zero, s, err
	}
	c, ok := rest.Peek()
	if !ok || !strings.ContainsRune(ops.ops, c) {
		return zero, s, fail(rest, rule, ops.want)
	}
	r, rest, err := right(rest.Next())
	if err != nil {
		return zero, s, err
	}
	return compose(l, Op(c), r), rest, nil
}

// program parses statements until one fails. Statements always consume at
// least their semicolon, so this terminates.
func (p *parser) program(s Stream) (*Program, error) {
	prog := &Program{}
	for {
		e, rest, err := p.expression(s)
		if err != nil {
			if _, ok := err.(*ParseError); !ok {
				return nil, err
			}
			if s.HasNext() {
				prog.Rest = s.String()
				prog.Err = err
			}
			return prog, nil
		}
		prog.Exprs = append(prog.Exprs, e)
		s = rest
	}
}

func (p *parser) expression(s Stream) (Expression, Stream, error) {
	return alt(s,
		func(s Stream) (Expression, Stream, error) {
			a, rest, err := p.assign(s)
			if err != nil {
				return nil, s, err
			}
			if !rest.is(';') {
				return nil, s, fail(rest, "Expression", `";"`)
			}
			return a, rest.Next(), nil
		},
		func(s Stream) (Expression, Stream, error) {
			sm, rest, err := p.sum(s)
			if err != nil {
				return nil, s, err
			}
			if !rest.is(';') {
				return nil, s, fail(rest, "Expression", `";"`)
			}
			return &Bare{S: sm}, rest.Next(), nil
		},
	)
}

func (p *parser) assign(s Stream) (*Assign, Stream, error) {
	v, rest := p.varname(s)
	if !rest.is('=') {
		return nil, s, fail(rest, "Assign", `"="`)
	}
	sm, rest, err := p.sum(rest.Next())
	if err != nil {
		return nil, s, err
	}
	return &Assign{Var: v, S: sm}, rest, nil
}

// varname parses a possibly empty name. It never fails.
func (p *parser) varname(s Stream) (Var, Stream) {
	var b strings.Builder
	for {
		c, ok := s.Peek()
		if !ok || strings.ContainsRune(Reserved, c) {
			return Var{Name: b.String()}, s
		}
		b.WriteRune(c)
		s = s.Next()
	}
}

func (p *parser) sum(s Stream) (Sum, Stream, error) {
	return memo(p, 'S', s, p.sumAlts)
}

func (p *parser) sumAlts(s Stream) (Sum, Stream, error) {
	if err := p.enter(s); err != nil {
		return nil, s, err
	}
	defer p.leave()
	ops := sumOps
	return alt(s,
		func(s Stream) (Sum, Stream, error) {
			return binary(s, "S", ops, p.num, p.sum, func(n Num, op Op, r Sum) Sum {
				return &SumNS{N: n, Op: op, S: r}
			})
		},
		func(s Stream) (Sum, Stream, error) {
			return binary(s, "S", ops, p.num, p.factor, func(n Num, op Op, r Factor) Sum {
				return &SumNF{N: n, Op: op, F: r}
			})
		},
		func(s Stream) (Sum, Stream, error) {
			return binary(s, "S", ops, p.factor, p.sum, func(l Factor, op Op, r Sum) Sum {
				return &SumFS{F: l, Op: op, S: r}
			})
		},
		func(s Stream) (Sum, Stream, error) {
			f, rest, err := p.factor(s)
			if err != nil {
				return nil, s, err
			}
			return &SumF{F: f}, rest, nil
		},
	)
}

func (p *parser) factor(s Stream) (Factor, Stream, error) {
	return memo(p, 'F', s, p.factorAlts)
}

func (p *parser) factorAlts(s Stream) (Factor, Stream, error) {
	if err := p.enter(s); err != nil {
		return nil, s, err
	}
	defer p.leave()
	ops := factorOps
	return alt(s,
		func(s Stream) (Factor, Stream, error) {
			return binary(s, "F", ops, p.num, p.factor, func(n Num, op Op, r Factor) Factor {
				return &FactorNF{N: n, Op: op, F: r}
			})
		},
		func(s Stream) (Factor, Stream, error) {
			return binary(s, "F", ops, p.num, p.atom, func(n Num, op Op, r Atom) Factor {
				return &FactorNE{N: n, Op: op, E: r}
			})
		},
		func(s Stream) (Factor, Stream, error) {
			return binary(s, "F", ops, p.atom, p.factor, func(l Atom, op Op, r Factor) Factor {
				return &FactorEF{E: l, Op: op, F: r}
			})
		},
		func(s Stream) (Factor, Stream, error) {
			e, rest, err := p.atom(s)
			if err != nil {
				return nil, s, err
			}
			return &FactorE{E: e}, rest, nil
		},
	)
}

func (p *parser) atom(s Stream) (Atom, Stream, error) {
	return alt(s,
		func(s Stream) (Atom, Stream, error) {
			if !s.is('(') {
				return nil, s, fail(s, "E", `"("`)
			}
			sm, rest, err := p.sum(s.Next())
			if err != nil {
				return nil, s, err
			}
			if !rest.is(')') {
				return nil, s, fail(rest, "E", `")"`)
			}
			return &Paren{S: sm}, rest.Next(), nil
		},
		func(s Stream) (Atom, Stream, error) {
			n, rest, err := p.num(s)
			if err != nil {
				return nil, s, err
			}
			return &Lit{N: n}, rest, nil
		},
		func(s Stream) (Atom, Stream, error) {
			v, rest := p.varname(s)
			return &Ref{Var: v}, rest, nil
		},
	)
}

func (p *parser) num(s Stream) (Num, Stream, error) {
	return alt(s,
		func(s Stream) (Num, Stream, error) {
			i, rest := p.digits(s)
			if !rest.is('.') {
				return Num{}, s, fail(rest, "N", `"."`)
			}
			f, rest := p.digits(rest.Next())
			return Num{Int: i, Frac: f, Point: true}, rest, nil
		},
		func(s Stream) (Num, Stream, error) {
			if !s.is('-') {
				return Num{}, s, fail(s, "N", `"-"`)
			}
			i, rest := p.digits(s.Next())
			if !rest.is('.') {
				return Num{}, s, fail(rest, "N", `"."`)
			}
			f, rest := p.digits(rest.Next())
			return Num{Int: i, Frac: f, Point: true, Negative: true}, rest, nil
		},
		func(s Stream) (Num, Stream, error) {
			if !s.is('-') {
				return Num{}, s, fail(s, "N", `"-"`)
			}
			i, rest := p.digits(s.Next())
			return Num{Int: i, Negative: true}, rest, nil
		},
		func(s Stream) (Num, Stream, error) {
			i, rest := p.digits(s)
			if i == "" {
				return Num{}, s, fail(s, "N", "binary digit")
			}
			return Num{Int: i}, rest, nil
		},
	)
}

// digits parses a possibly empty run of binary digits. It never fails.
func (p *parser) digits(s Stream) (Digits, Stream) {
	var b strings.Builder
	for {
		c, ok := s.Peek()
		if !ok || (c != '0' && c != '1') {
			return Digits(b.String()), s
		}
		b.WriteRune(c)
		s = s.Next()
	}
}
