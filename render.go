package bitcalc

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// RenderMode selects the output of Render.
type RenderMode int

const (
	// Calculator renders the value of each statement on its own line, or
	// "Empty" if there are no statements.
	Calculator RenderMode = iota
	// ParseTree renders the syntax tree as indented JSON.
	ParseTree
	// ParseTreeYAML renders the syntax tree as YAML.
	ParseTreeYAML
)

// ResultMarker starts each line of Calculator output.
const ResultMarker = "> "

// EmptyOutput is the Calculator output for a program without statements.
const EmptyOutput = "Empty"

func (m RenderMode) String() string {
	switch m {
	case Calculator:
		return "Calculator"
	case ParseTree:
		return "Parse Tree"
	case ParseTreeYAML:
		return "Parse Tree (YAML)"
	default:
		return "RenderMode(" + strconv.Itoa(int(m)) + ")"
	}
}

// ParseRenderMode gets a render mode from its name. Names are not case
// sensitive.
func ParseRenderMode(name string) (RenderMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "calculator", "calc", "eval":
		return Calculator, nil
	case "parse tree", "tree", "json":
		return ParseTree, nil
	case "parse tree (yaml)", "yaml":
		return ParseTreeYAML, nil
	default:
		return 0, errors.New("unknown render mode " + strconv.Quote(name))
	}
}

// Render formats a program according to mode. Calculator mode evaluates the
// program in a new context created with opts. Panics if mode is not one of
// the defined modes.
func Render(p *Program, mode RenderMode, opts ...ContextOption) string {
	switch mode {
	case Calculator:
		return RenderResults(NewContext(opts...).Eval(p))
	case ParseTree:
		b, err := json.MarshalIndent(p.tree(), "", "   ")
		if err != nil {
			panic("bitcalc: marshaling parse tree: " + err.Error())
		}
		return string(b)
	case ParseTreeYAML:
		b, err := yaml.Marshal(p.tree())
		if err != nil {
			panic("bitcalc: marshaling parse tree: " + err.Error())
		}
		return string(b)
	default:
		panic("bitcalc: invalid render mode " + mode.String())
	}
}

// RenderResults formats evaluation results the way Render does in Calculator
// mode.
func RenderResults(results []Result) string {
	if len(results) == 0 {
		return EmptyOutput
	}
	lines := make([]string, len(results))
	for i, r := range results {
		lines[i] = ResultMarker + r.String()
	}
	return strings.Join(lines, "\n")
}

// treeNode is the serialized form of every kind of syntax tree node. Which
// fields are set identifies the alternative that the node represents.
type treeNode struct {
	Type        string      `json:"type" yaml:"type"`
	Expressions []*treeNode `json:"expressions,omitempty" yaml:"expressions,omitempty"`
	Assign      *treeNode   `json:"Assign,omitempty" yaml:"Assign,omitempty"`
	Var         *treeNode   `json:"Var,omitempty" yaml:"Var,omitempty"`
	Name        *string     `json:"name,omitempty" yaml:"name,omitempty"`
	N           *treeNode   `json:"N,omitempty" yaml:"N,omitempty"`
	E           *treeNode   `json:"E,omitempty" yaml:"E,omitempty"`
	F           *treeNode   `json:"F,omitempty" yaml:"F,omitempty"`
	S           *treeNode   `json:"S,omitempty" yaml:"S,omitempty"`
	Op          string      `json:"op,omitempty" yaml:"op,omitempty"`
	Int         *string     `json:"int,omitempty" yaml:"int,omitempty"`
	Decimal     *string     `json:"decimal,omitempty" yaml:"decimal,omitempty"`
	Negative    bool        `json:"negative,omitempty" yaml:"negative,omitempty"`
}

func (p *Program) tree() *treeNode {
	t := &treeNode{Type: "program", Expressions: make([]*treeNode, 0, len(p.Exprs))}
	for _, e := range p.Exprs {
		t.Expressions = append(t.Expressions, exprTree(e))
	}
	return t
}

func exprTree(e Expression) *treeNode {
	switch e := e.(type) {
	case *Assign:
		return &treeNode{
			Type:   "expression",
			Assign: &treeNode{Type: "assign", Var: e.Var.tree(), S: sumTree(e.S)},
		}
	case *Bare:
		return &treeNode{Type: "expression", S: sumTree(e.S)}
	default:
		panic(fmt.Sprintf("bitcalc: invalid expression %T", e))
	}
}

func sumTree(s Sum) *treeNode {
	switch s := s.(type) {
	case *SumNS:
		return &treeNode{Type: "S", N: s.N.tree(), S: sumTree(s.S), Op: s.Op.String()}
	case *SumNF:
		return &treeNode{Type: "S", N: s.N.tree(), F: factorTree(s.F), Op: s.Op.String()}
	case *SumFS:
		return &treeNode{Type: "S", F: factorTree(s.F), S: sumTree(s.S), Op: s.Op.String()}
	case *SumF:
		return &treeNode{Type: "S", F: factorTree(s.F)}
	default:
		panic(fmt.Sprintf("bitcalc: invalid S node %T", s))
	}
}

func factorTree(f Factor) *treeNode {
	switch f := f.(type) {
	case *FactorNF:
		return &treeNode{Type: "F", N: f.N.tree(), F: factorTree(f.F), Op: f.Op.String()}
	case *FactorNE:
		return &treeNode{Type: "F", N: f.N.tree(), E: atomTree(f.E), Op: f.Op.String()}
	case *FactorEF:
		return &treeNode{Type: "F", E: atomTree(f.E), F: factorTree(f.F), Op: f.Op.String()}
	case *FactorE:
		return &treeNode{Type: "F", E: atomTree(f.E)}
	default:
		panic(fmt.Sprintf("bitcalc: invalid F node %T", f))
	}
}

func atomTree(e Atom) *treeNode {
	switch e := e.(type) {
	case *Paren:
		return &treeNode{Type: "E", S: sumTree(e.S)}
	case *Lit:
		return &treeNode{Type: "E", N: e.N.tree()}
	case *Ref:
		return &treeNode{Type: "E", Var: e.Var.tree()}
	default:
		panic(fmt.Sprintf("bitcalc: invalid E node %T", e))
	}
}

func (n Num) tree() *treeNode {
	i := string(n.Int)
	t := &treeNode{Type: "N", Int: &i, Negative: n.Negative}
	if n.Point {
		f := string(n.Frac)
		t.Decimal = &f
	}
	return t
}

func (v Var) tree() *treeNode {
	name := v.Name
	return &treeNode{Type: "var", Name: &name}
}

// UnmarshalTree reconstructs a program from the output of Render in ParseTree
// mode.
func UnmarshalTree(b []byte) (*Program, error) {
	var t treeNode
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, err
	}
	if t.Type != "program" {
		return nil, treeError(&t, "program")
	}
	p := &Program{}
	for _, e := range t.Expressions {
		x, err := e.expression()
		if err != nil {
			return nil, err
		}
		p.Exprs = append(p.Exprs, x)
	}
	return p, nil
}

// TreeError is an error indicating a serialized syntax tree node which does
// not match any alternative of its grammar rule.
type TreeError struct {
	// Type is the node's type field.
	Type string
	// Want is the node type that was expected.
	Want string
}

func (err *TreeError) Error() string {
	return "invalid " + strconv.Quote(err.Type) + " node where " + err.Want + " was expected"
}

func treeError(t *treeNode, want string) error {
	if t == nil {
		return &TreeError{Want: want}
	}
	return &TreeError{Type: t.Type, Want: want}
}

func (t *treeNode) expression() (Expression, error) {
	switch {
	case t == nil || t.Type != "expression":
		return nil, treeError(t, "expression")
	case t.Assign != nil:
		a := t.Assign
		if a.Type != "assign" {
			return nil, treeError(a, "assign")
		}
		v, err := a.Var.variable()
		if err != nil {
			return nil, err
		}
		s, err := a.S.sum()
		if err != nil {
			return nil, err
		}
		return &Assign{Var: v, S: s}, nil
	default:
		s, err := t.S.sum()
		if err != nil {
			return nil, err
		}
		return &Bare{S: s}, nil
	}
}

func (t *treeNode) sum() (Sum, error) {
	if t == nil || t.Type != "S" {
		return nil, treeError(t, "S")
	}
	switch {
	case t.N != nil && t.S != nil:
		n, s, err := both(t.N.num, t.S.sum)
		if err != nil {
			return nil, err
		}
		op, err := t.op("+-")
		return &SumNS{N: n, Op: op, S: s}, err
	case t.N != nil && t.F != nil:
		n, f, err := both(t.N.num, t.F.factor)
		if err != nil {
			return nil, err
		}
		op, err := t.op("+-")
		return &SumNF{N: n, Op: op, F: f}, err
	case t.F != nil && t.S != nil:
		f, s, err := both(t.F.factor, t.S.sum)
		if err != nil {
			return nil, err
		}
		op, err := t.op("+-")
		return &SumFS{F: f, Op: op, S: s}, err
	case t.F != nil:
		f, err := t.F.factor()
		if err != nil {
			return nil, err
		}
		return &SumF{F: f}, nil
	default:
		return nil, treeError(t, "S with operands")
	}
}

func (t *treeNode) factor() (Factor, error) {
	if t == nil || t.Type != "F" {
		return nil, treeError(t, "F")
	}
	switch {
	case t.N != nil && t.F != nil:
		n, f, err := both(t.N.num, t.F.factor)
		if err != nil {
			return nil, err
		}
		op, err := t.op("*/")
		return &FactorNF{N: n, Op: op, F: f}, err
	case t.N != nil && t.E != nil:
		n, e, err := both(t.N.num, t.E.atom)
		if err != nil {
			return nil, err
		}
		op, err := t.op("*/")
		return &FactorNE{N: n, Op: op, E: e}, err
	case t.E != nil && t.F != nil:
		e, f, err := both(t.E.atom, t.F.factor)
		if err != nil {
			return nil, err
		}
		op, err := t.op("*/")
		return &FactorEF{E: e, Op: op, F: f}, err
	case t.E != nil:
		e, err := t.E.atom()
		if err != nil {
			return nil, err
		}
		return &FactorE{E: e}, nil
	default:
		return nil, treeError(t, "F with operands")
	}
}

func (t *treeNode) atom() (Atom, error) {
	if t == nil || t.Type != "E" {
		return nil, treeError(t, "E")
	}
	switch {
	case t.S != nil:
		s, err := t.S.sum()
		if err != nil {
			return nil, err
		}
		return &Paren{S: s}, nil
	case t.N != nil:
		n, err := t.N.num()
		if err != nil {
			return nil, err
		}
		return &Lit{N: n}, nil
	case t.Var != nil:
		v, err := t.Var.variable()
		if err != nil {
			return nil, err
		}
		return &Ref{Var: v}, nil
	default:
		return nil, treeError(t, "E with an operand")
	}
}

func (t *treeNode) num() (Num, error) {
	if t == nil || t.Type != "N" || t.Int == nil {
		return Num{}, treeError(t, "N")
	}
	n := Num{Int: Digits(*t.Int), Negative: t.Negative}
	if t.Decimal != nil {
		n.Frac, n.Point = Digits(*t.Decimal), true
	}
	if strings.Trim(string(n.Int)+string(n.Frac), "01") != "" {
		return Num{}, treeError(t, "N with binary digits")
	}
	return n, nil
}

func (t *treeNode) variable() (Var, error) {
	if t == nil || t.Type != "var" || t.Name == nil {
		return Var{}, treeError(t, "var")
	}
	return Var{Name: *t.Name}, nil
}

func (t *treeNode) op(ops string) (Op, error) {
	if len(t.Op) != 1 || !strings.Contains(ops, t.Op) {
		return 0, treeError(t, "operator in "+strconv.Quote(ops))
	}
	return Op(t.Op[0]), nil
}

// both decodes two child nodes, stopping at the first error.
func both[L, R any](l func() (L, error), r func() (R, error)) (L, R, error) {
	var rz R
	lv, err := l()
	if err != nil {
		return lv, rz, err
	}
	rv, err := r()
	return lv, rv, err
}
