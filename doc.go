// Package bitcalc implements a calculator for programs written with binary
// literals.
//
// A program is a sequence of semicolon-terminated statements. Each statement
// is an arithmetic expression over binary numbers like "101", "-1.01", or
// ".1", optionally assigned to a name: "x = 1.1 * 10;". Comments are
// delimited by runs of three quote characters, ''' or """ or any mix of the
// two, and whitespace is insignificant.
//
// The grammar is ambiguous and left-recursive in spirit. The parser resolves
// it by trying each rule's alternatives in a fixed order and backtracking on
// failure, so the same text always produces the same tree.
//
// Evaluation is done through a Backend, which may be fixed-precision
// (Float64) or arbitrary-precision (BigFloat, Rational). Names assigned in a
// program are visible to the statements after them.
package bitcalc
