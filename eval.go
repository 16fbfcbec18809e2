package bitcalc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/btree"
)

// Context is a context for evaluating programs. It holds the arithmetic
// backend and the variables assigned so far. It is not safe to use a Context
// concurrently, but clones may be used concurrently with each other.
type Context struct {
	backend Backend
	prec    uint
	names   *btree.BTreeG[binding]
	nums    map[Num]Value
}

// binding is a variable and its value.
type binding struct {
	name string
	val  Value
}

func lessBindings(a, b binding) bool {
	return a.name < b.name
}

func newNames() *btree.BTreeG[binding] {
	return btree.NewG[binding](8, lessBindings)
}

// ContextOption is an option used when creating a context.
type ContextOption interface {
	ctxOption()
}

type (
	varopt struct {
		name string
		num  Num
	}
	precopt    uint
	backendopt struct {
		b Backend
	}
)

func (varopt) ctxOption()     {}
func (precopt) ctxOption()    {}
func (backendopt) ctxOption() {}

// SetVar sets the value of a variable in the context to a number literal. The
// variable is left unset if the literal is out of range for the backend.
func SetVar(name string, n Num) ContextOption {
	return varopt{name, n}
}

// Prec sets the precision in bits of arbitrary-precision backends. A new
// context without WithBackend uses Rational with this precision. A clone of
// a BigFloat or Rational context switches to the same kind of backend with
// this precision and keeps its variables; a clone of a Float64 context is
// unaffected. Prec has no effect if WithBackend is also given.
func Prec(prec uint) ContextOption {
	return precopt(prec)
}

// WithBackend sets the arithmetic backend.
func WithBackend(b Backend) ContextOption {
	return backendopt{b}
}

// NewContext creates a new evaluation context. If no backend is given, the
// context uses Rational with the precision set by Prec, or DefaultPrec.
func NewContext(opts ...ContextOption) *Context {
	ctx := Context{names: newNames(), prec: DefaultPrec}
	return ctx.Clone(opts...)
}

// Clone creates a copy of a context and applies options to it. Variables
// set in ctx are shared with the clone until either one assigns to them. If
// the options include WithBackend, the variables of ctx are not copied, since
// their values belong to the old backend.
func (ctx *Context) Clone(opts ...ContextOption) *Context {
	n := Context{
		backend: ctx.backend,
		prec:    ctx.prec,
		nums:    make(map[Num]Value, len(ctx.nums)),
	}
	// First, find the backend. Loop backward so we apply the last one.
	var b Backend
	setprec := false
	for i := len(opts) - 1; i >= 0; i-- {
		switch o := opts[i].(type) {
		case precopt:
			if !setprec {
				n.prec, setprec = uint(o), true
			}
		case backendopt:
			if b == nil {
				b = o.b
			}
		}
	}
	keepNames, keepNums := false, false
	switch {
	case b != nil:
		n.backend = b
	case n.backend == nil:
		n.backend = Rational(n.prec)
	case n.prec != ctx.prec:
		// Values stay valid, but literals are converted at the new precision.
		if pb, ok := n.backend.(precBackend); ok {
			n.backend = pb.withPrec(n.prec)
		}
		keepNames = true
	default:
		keepNames, keepNums = true, true
	}
	if keepNames {
		n.names = ctx.names.Clone()
	} else {
		n.names = newNames()
	}
	if keepNums {
		for k, v := range ctx.nums {
			n.nums[k] = v
		}
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		switch opt := opt.(type) {
		case varopt:
			if v, err := n.num(opt.num); err == nil {
				n.Set(opt.name, v)
			}
		case precopt, backendopt:
			// Already done. Do nothing.
		default:
			panic("bitcalc: unknown option type")
		}
	}
	return &n
}

// Backend returns the context's arithmetic backend.
func (ctx *Context) Backend() Backend {
	return ctx.backend
}

// Set sets the value of a variable. v must come from the context's backend.
// Returns ctx for chaining.
func (ctx *Context) Set(name string, v Value) *Context {
	ctx.names.ReplaceOrInsert(binding{name: name, val: v})
	return ctx
}

// Lookup returns the value of a variable. If there is no such variable in the
// context, then the result is nil.
func (ctx *Context) Lookup(name string) Value {
	b, ok := ctx.names.Get(binding{name: name})
	if !ok {
		return nil
	}
	return b.val
}

// Vars returns the names of the variables set in the context, in sorted
// order.
func (ctx *Context) Vars() []string {
	names := make([]string, 0, ctx.names.Len())
	ctx.names.Ascend(func(b binding) bool {
		names = append(names, b.name)
		return true
	})
	return names
}

// Result is the outcome of evaluating one statement.
type Result struct {
	// Name is the variable assigned by the statement, if Assign is true.
	Name string
	// Assign is whether the statement was an assignment.
	Assign bool
	// Value is the value of the statement. It is nil if Err is not nil.
	Value Value
	// Text is Value formatted by the backend that produced it.
	Text string
	// Err is the error that prevented evaluating the statement, if any. It is
	// an *ArithmeticError or a *NameError.
	Err error
}

func (r Result) String() string {
	if r.Err != nil {
		return "error: " + r.Err.Error()
	}
	return r.Text
}

// Eval evaluates each statement of a program in order and returns their
// results. Assignments are visible to later statements and remain set in ctx
// afterward. An error in one statement does not stop the others.
func (ctx *Context) Eval(p *Program) []Result {
	r := make([]Result, 0, len(p.Exprs))
	for _, e := range p.Exprs {
		r = append(r, ctx.exec(e))
	}
	return r
}

func (ctx *Context) exec(e Expression) Result {
	var r Result
	switch e := e.(type) {
	case *Assign:
		r.Name, r.Assign = e.Var.Name, true
		r.Value, r.Err = ctx.sum(e.S)
		if r.Err == nil {
			ctx.Set(e.Var.Name, r.Value)
		}
	case *Bare:
		r.Value, r.Err = ctx.sum(e.S)
	default:
		panic(fmt.Sprintf("bitcalc: invalid expression %T", e))
	}
	if r.Err == nil {
		r.Text = ctx.backend.Format(r.Value)
	}
	return r
}

func (ctx *Context) sum(s Sum) (Value, error) {
	switch s := s.(type) {
	case *SumNS:
		r, err := ctx.sum(s.S)
		if err != nil {
			return nil, err
		}
		return ctx.numop(s.N, s.Op, r)
	case *SumNF:
		r, err := ctx.factor(s.F)
		if err != nil {
			return nil, err
		}
		return ctx.numop(s.N, s.Op, r)
	case *SumFS:
		l, err := ctx.factor(s.F)
		if err != nil {
			return nil, err
		}
		r, err := ctx.sum(s.S)
		if err != nil {
			return nil, err
		}
		return ctx.op(l, s.Op, r)
	case *SumF:
		return ctx.factor(s.F)
	default:
		panic(fmt.Sprintf("bitcalc: invalid S node %T", s))
	}
}

func (ctx *Context) factor(f Factor) (Value, error) {
	switch f := f.(type) {
	case *FactorNF:
		r, err := ctx.factor(f.F)
		if err != nil {
			return nil, err
		}
		return ctx.numop(f.N, f.Op, r)
	case *FactorNE:
		r, err := ctx.atom(f.E)
		if err != nil {
			return nil, err
		}
		return ctx.numop(f.N, f.Op, r)
	case *FactorEF:
		l, err := ctx.atom(f.E)
		if err != nil {
			return nil, err
		}
		r, err := ctx.factor(f.F)
		if err != nil {
			return nil, err
		}
		return ctx.op(l, f.Op, r)
	case *FactorE:
		return ctx.atom(f.E)
	default:
		panic(fmt.Sprintf("bitcalc: invalid F node %T", f))
	}
}

func (ctx *Context) atom(e Atom) (Value, error) {
	switch e := e.(type) {
	case *Paren:
		return ctx.sum(e.S)
	case *Lit:
		return ctx.num(e.N)
	case *Ref:
		v := ctx.Lookup(e.Var.Name)
		if v == nil {
			return nil, &NameError{Name: e.Var.Name}
		}
		return v, nil
	default:
		panic(fmt.Sprintf("bitcalc: invalid E node %T", e))
	}
}

// numop applies op to a literal and an evaluated right operand.
func (ctx *Context) numop(n Num, op Op, r Value) (Value, error) {
	l, err := ctx.num(n)
	if err != nil {
		return nil, err
	}
	return ctx.op(l, op, r)
}

func (ctx *Context) op(l Value, op Op, r Value) (Value, error) {
	b := ctx.backend
	switch op {
	case OpAdd:
		return b.Add(l, r)
	case OpSub:
		return b.Sub(l, r)
	case OpMul:
		return b.Mul(l, r)
	case OpDiv:
		return b.Div(l, r)
	default:
		panic("bitcalc: invalid operator " + strconv.QuoteRune(rune(op)))
	}
}

// num converts a literal to a value, possibly cached. Integer bits are
// accumulated from the least significant with a doubling place value, and
// fractional bits from the most significant with a halving place value. The
// error is an *ArithmeticError if the literal is out of range.
func (ctx *Context) num(n Num) (Value, error) {
	if v := ctx.nums[n]; v != nil {
		return v, nil
	}
	v, err := ctx.convert(n)
	if err != nil {
		return nil, &ArithmeticError{X: n.String(), Err: ErrOverflow}
	}
	ctx.nums[n] = v
	return v, nil
}

func (ctx *Context) convert(n Num) (Value, error) {
	b := ctx.backend
	one := b.Bit(true)
	v := b.Bit(false)
	place := one
	// Leading zeros would only grow the place value.
	bits := strings.TrimLeft(string(n.Int), "0")
	var err error
	for i := len(bits) - 1; i >= 0; i-- {
		if i < len(bits)-1 {
			if place, err = b.Add(place, place); err != nil {
				return nil, err
			}
		}
		if bits[i] == '1' {
			if v, err = b.Add(v, place); err != nil {
				return nil, err
			}
		}
	}
	if len(n.Frac) > 0 {
		two, err := b.Add(one, one)
		if err != nil {
			return nil, err
		}
		if place, err = b.Div(one, two); err != nil {
			return nil, err
		}
		for i := 0; i < len(n.Frac); i++ {
			if n.Frac[i] == '1' {
				if v, err = b.Add(v, place); err != nil {
					return nil, err
				}
			}
			if place, err = b.Div(place, two); err != nil {
				return nil, err
			}
		}
	}
	if n.Negative {
		v = b.Neg(v)
	}
	return v, nil
}

// Num returns the value of a literal in the context's backend. The error is
// an *ArithmeticError if the literal is out of range.
func (ctx *Context) Num(n Num) (Value, error) {
	return ctx.num(n)
}

// EvalString is a shortcut to parse a program and evaluate it in a new
// context.
func EvalString(src string, opts ...ContextOption) ([]Result, error) {
	p, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return NewContext(opts...).Eval(p), nil
}

// ParseNum parses a single number literal, such as "-10.01".
func ParseNum(src string) (Num, error) {
	s := Clean(src)
	p := parser{max: DefaultMaxDepth}
	n, rest, err := p.num(s)
	if err != nil {
		return Num{}, err
	}
	if rest.HasNext() {
		return Num{}, fail(rest, "N", "end of number")
	}
	return n, nil
}

// NameError is an error from a lookup for a variable that has not been
// assigned.
type NameError struct {
	// Name is the name that was missing.
	Name string
}

func (err *NameError) Error() string {
	return "undefined variable: " + strconv.Quote(err.Name)
}
