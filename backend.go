package bitcalc

import (
	"errors"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/zephyrtronium/bigfloat"
)

// Value is a number produced by a Backend. A Value must only be passed to
// the Backend that created it. Backends never modify Values, so they may be
// shared freely.
type Value interface{}

// Backend is a strategy for arithmetic. The evaluator builds every number out
// of Bit and the arithmetic operations, so swapping the Backend changes the
// precision of every step of a calculation.
type Backend interface {
	// Name identifies the backend, e.g. for ParseBackend.
	Name() string
	// Bit returns the value 1 if one is true, otherwise 0.
	Bit(one bool) Value
	// Add returns x+y.
	Add(x, y Value) (Value, error)
	// Sub returns x-y.
	Sub(x, y Value) (Value, error)
	// Mul returns x*y.
	Mul(x, y Value) (Value, error)
	// Div returns x/y. If y is zero, the error is an *ArithmeticError.
	Div(x, y Value) (Value, error)
	// Neg returns -x.
	Neg(x Value) Value
	// Format formats a value in decimal.
	Format(x Value) string
}

// DefaultPrec is the default precision in bits for arbitrary-precision
// backends.
const DefaultPrec = 128

// ErrDivisionByZero is the error that every *ArithmeticError for a division
// by zero unwraps to.
var ErrDivisionByZero = errors.New("division by zero")

// ErrOverflow is the error that every *ArithmeticError for a result too
// large for its backend unwraps to.
var ErrOverflow = errors.New("result out of range")

// ArithmeticError is an error returned when an operation is undefined for its
// arguments or its result cannot be represented. Every Backend operation that
// can fail returns one.
type ArithmeticError struct {
	// Op is the operator that failed, or 0 if converting a literal failed.
	Op Op
	// X is the formatted left operand, or the literal.
	X string
	// Y is the formatted right operand.
	Y string
	// Err is the reason for the failure.
	Err error
}

func (err *ArithmeticError) Error() string {
	if err.Op == 0 {
		return err.Err.Error() + " in literal " + clipLiteral(err.X)
	}
	return err.Err.Error() + " in " + err.X + " " + err.Op.String() + " " + err.Y
}

// clipLiteral shortens long literals for error messages.
func clipLiteral(s string) string {
	const n = 32
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func (err *ArithmeticError) Unwrap() error {
	return err.Err
}

// ParseBackend returns the backend with the given name, "float64", "big", or
// "rat". prec is the precision in bits for the latter two.
func ParseBackend(name string, prec uint) (Backend, error) {
	switch strings.ToLower(name) {
	case "float64", "float", "fixed":
		return Float64(), nil
	case "big", "bigfloat":
		return BigFloat(prec), nil
	case "rat", "rational", "exact", "":
		return Rational(prec), nil
	default:
		return nil, errors.New("unknown backend " + strconv.Quote(name))
	}
}

// Float64 returns a fixed-precision backend using float64 arithmetic.
func Float64() Backend {
	return float64Backend{}
}

type float64Backend struct{}

func (float64Backend) Name() string { return "float64" }

func (float64Backend) Bit(one bool) Value {
	if one {
		return 1.0
	}
	return 0.0
}

func (b float64Backend) Add(x, y Value) (Value, error) {
	return b.result(OpAdd, x, y, x.(float64)+y.(float64))
}

func (b float64Backend) Sub(x, y Value) (Value, error) {
	return b.result(OpSub, x, y, x.(float64)-y.(float64))
}

func (b float64Backend) Mul(x, y Value) (Value, error) {
	return b.result(OpMul, x, y, x.(float64)*y.(float64))
}

func (float64Backend) Neg(x Value) Value { return -x.(float64) }

func (b float64Backend) Div(x, y Value) (Value, error) {
	if y.(float64) == 0 {
		return nil, &ArithmeticError{Op: OpDiv, X: b.Format(x), Y: "0", Err: ErrDivisionByZero}
	}
	return b.result(OpDiv, x, y, x.(float64)/y.(float64))
}

// result rejects infinities and NaNs, so no Value of this backend is ever
// either.
func (b float64Backend) result(op Op, x, y Value, r float64) (Value, error) {
	if math.IsInf(r, 0) || math.IsNaN(r) {
		return nil, &ArithmeticError{Op: op, X: b.Format(x), Y: b.Format(y), Err: ErrOverflow}
	}
	return r, nil
}

// Format uses plain decimal notation except for very large or very small
// magnitudes, where it switches to exponent notation.
func (float64Backend) Format(x Value) string {
	f := x.(float64)
	if f == 0 {
		return "0"
	}
	if a := math.Abs(f); a >= 1e21 || a < 1e-6 {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// BigFloat returns an arbitrary-precision backend computing with prec bits of
// mantissa. Every binary literal with at most prec significant bits is
// represented exactly, as are sums and products of such literals whose
// results fit in prec bits. If prec is 0, DefaultPrec is used.
func BigFloat(prec uint) Backend {
	if prec == 0 {
		prec = DefaultPrec
	}
	return bigBackend{prec: prec, digits: digits10(prec)}
}

type bigBackend struct {
	prec   uint
	digits int
}

func (b bigBackend) Name() string { return "big" }

func (b bigBackend) new() *big.Float {
	return new(big.Float).SetPrec(b.prec)
}

func (b bigBackend) Bit(one bool) Value {
	if one {
		return b.new().SetInt64(1)
	}
	return b.new()
}

func (b bigBackend) Add(x, y Value) (Value, error) {
	return b.result(OpAdd, x, y, b.new().Add(x.(*big.Float), y.(*big.Float)))
}

func (b bigBackend) Sub(x, y Value) (Value, error) {
	return b.result(OpSub, x, y, b.new().Sub(x.(*big.Float), y.(*big.Float)))
}

func (b bigBackend) Mul(x, y Value) (Value, error) {
	return b.result(OpMul, x, y, b.new().Mul(x.(*big.Float), y.(*big.Float)))
}

func (b bigBackend) Div(x, y Value) (Value, error) {
	if y.(*big.Float).Sign() == 0 {
		return nil, &ArithmeticError{Op: OpDiv, X: b.Format(x), Y: "0", Err: ErrDivisionByZero}
	}
	return b.result(OpDiv, x, y, b.new().Quo(x.(*big.Float), y.(*big.Float)))
}

// result rejects results past the exponent range of big.Float.
func (b bigBackend) result(op Op, x, y Value, r *big.Float) (Value, error) {
	if r.IsInf() {
		return nil, &ArithmeticError{Op: op, X: b.Format(x), Y: b.Format(y), Err: ErrOverflow}
	}
	return r, nil
}

func (b bigBackend) withPrec(prec uint) Backend {
	return BigFloat(prec)
}

func (b bigBackend) Neg(x Value) Value {
	return b.new().Neg(x.(*big.Float))
}

func (b bigBackend) Format(x Value) string {
	f := x.(*big.Float)
	if f.Sign() == 0 {
		return "0"
	}
	return f.Text('g', b.digits)
}

// Rational returns an exact backend using rational arithmetic. Results whose
// decimal expansions terminate are formatted exactly. Others are rounded to
// as many decimal places as prec bits can distinguish. If prec is 0,
// DefaultPrec is used.
func Rational(prec uint) Backend {
	if prec == 0 {
		prec = DefaultPrec
	}
	return ratBackend{digits: digits10(prec)}
}

type ratBackend struct {
	digits int
}

func (ratBackend) Name() string { return "rat" }

func (ratBackend) Bit(one bool) Value {
	if one {
		return big.NewRat(1, 1)
	}
	return new(big.Rat)
}

// Rationals never overflow, so only division can fail.

func (ratBackend) Add(x, y Value) (Value, error) {
	return new(big.Rat).Add(x.(*big.Rat), y.(*big.Rat)), nil
}

func (ratBackend) Sub(x, y Value) (Value, error) {
	return new(big.Rat).Sub(x.(*big.Rat), y.(*big.Rat)), nil
}

func (ratBackend) Mul(x, y Value) (Value, error) {
	return new(big.Rat).Mul(x.(*big.Rat), y.(*big.Rat)), nil
}

func (ratBackend) Neg(x Value) Value { return new(big.Rat).Neg(x.(*big.Rat)) }

func (b ratBackend) Div(x, y Value) (Value, error) {
	if y.(*big.Rat).Sign() == 0 {
		return nil, &ArithmeticError{Op: OpDiv, X: b.Format(x), Y: "0", Err: ErrDivisionByZero}
	}
	return new(big.Rat).Quo(x.(*big.Rat), y.(*big.Rat)), nil
}

func (ratBackend) withPrec(prec uint) Backend {
	return Rational(prec)
}

func (b ratBackend) Format(x Value) string {
	r := x.(*big.Rat)
	if r.IsInt() {
		return r.Num().String()
	}
	if n, exact := r.FloatPrec(); exact {
		return r.FloatString(n)
	}
	s := strings.TrimRight(r.FloatString(b.digits), "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		// Negative values too small to show.
		return "0"
	}
	return s
}

// precBackend is a Backend whose precision can be changed without
// invalidating its values.
type precBackend interface {
	Backend
	withPrec(prec uint) Backend
}

// digits10 returns the number of decimal digits needed to write any number of
// prec bits, i.e. ceil(prec * log10(2)).
func digits10(prec uint) int {
	var l2, l10 big.Float
	l2.SetPrec(64).SetInt64(2)
	l10.SetPrec(64).SetInt64(10)
	bigfloat.Log(&l2, &l2)
	bigfloat.Log(&l10, &l10)
	l2.Quo(&l2, &l10)
	l2.Mul(&l2, new(big.Float).SetUint64(uint64(prec)))
	d, acc := l2.Int64()
	if acc == big.Below {
		d++
	}
	return int(d)
}
