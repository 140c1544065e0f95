// Package symbolic provides a deterministic symbolic math kernel for the
// reconstruction engine.
//
// Design goals:
//   - Exact rational arithmetic (math/big.Rat), decimals kept exact
//   - Deterministic simplification and stable output ordering
//   - Immutable expression values: every operation returns a new Expr
//   - Plain text, LaTeX and JSON renderings of every node
package symbolic

import (
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
)

// ============================================================
// Core Interface
// ============================================================

// Expr is a node of an expression tree.
type Expr interface {
	Simplify() Expr
	String() string
	LaTeX() string
	Sub(varName string, value Expr) Expr
	Diff(varName string) Expr
	Eval() (*Num, bool)
	Equal(other Expr) bool
	exprType() string
	toJSON() map[string]interface{}
}

// ============================================================
// Num: exact rational number
// ============================================================

// Num is an exact rational. Values derived from floating point evaluation
// (sin(2), sqrt(3), ...) are flagged approximate and render as decimals.
type Num struct {
	val    *big.Rat
	approx bool
}

func N(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }
func F(p, q int64) *Num {
	if q == 0 {
		panic("symbolic: denominator is zero")
	}
	return &Num{val: new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q))}
}

// NFloat converts a finite float. It panics on NaN or Inf.
func NFloat(f float64) *Num {
	n, ok := numFromFloat(f)
	if !ok {
		panic(fmt.Sprintf("symbolic: non-finite value %v", f))
	}
	return n
}

// NRat wraps a copy of r.
func NRat(r *big.Rat) *Num { return &Num{val: new(big.Rat).Set(r)} }

var numberPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ParseNum parses a decimal literal ("2", "-0.5", "1e-3") exactly.
func ParseNum(s string) (*Num, error) {
	if !numberPattern.MatchString(s) {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return &Num{val: r}, nil
}

func numFromFloat(f float64) (*Num, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	r := new(big.Rat).SetFloat64(f)
	return &Num{val: r, approx: f != math.Trunc(f) || math.Abs(f) > 1<<53}, true
}

func (n *Num) Simplify() Expr        { return n }
func (n *Num) Sub(string, Expr) Expr { return n }
func (n *Num) Diff(string) Expr      { return N(0) }
func (n *Num) Eval() (*Num, bool)    { return n, true }
func (n *Num) Equal(other Expr) bool { o, ok := other.(*Num); return ok && n.val.Cmp(o.val) == 0 }
func (n *Num) exprType() string      { return "num" }
func (n *Num) Float64() float64      { f, _ := n.val.Float64(); return f }
func (n *Num) IsZero() bool          { return n.val.Sign() == 0 }
func (n *Num) IsOne() bool           { return n.val.Cmp(big.NewRat(1, 1)) == 0 }
func (n *Num) IsNegOne() bool        { return n.val.Cmp(big.NewRat(-1, 1)) == 0 }
func (n *Num) IsInteger() bool       { return n.val.IsInt() }
func (n *Num) Rat() *big.Rat         { return new(big.Rat).Set(n.val) }
func (n *Num) IsPositive() bool      { return n.val.Sign() > 0 }
func (n *Num) IsNegative() bool      { return n.val.Sign() < 0 }
func (n *Num) IsApprox() bool        { return n.approx }

func (n *Num) String() string {
	if n.approx {
		return strconv.FormatFloat(n.Float64(), 'g', -1, 64)
	}
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	return n.val.RatString()
}

func (n *Num) LaTeX() string {
	if n.approx || n.val.IsInt() {
		return n.String()
	}
	sign := ""
	v := new(big.Rat).Set(n.val)
	if v.Sign() < 0 {
		sign = "-"
		v.Neg(v)
	}
	return fmt.Sprintf("%s\\frac{%s}{%s}", sign, v.Num().String(), v.Denom().String())
}

func (n *Num) toJSON() map[string]interface{} {
	m := map[string]interface{}{"type": "num", "value": n.String()}
	if n.approx {
		m["approx"] = true
	}
	return m
}

func numAdd(a, b *Num) *Num {
	return &Num{val: new(big.Rat).Add(a.val, b.val), approx: a.approx || b.approx}
}
func numSub(a, b *Num) *Num {
	return &Num{val: new(big.Rat).Sub(a.val, b.val), approx: a.approx || b.approx}
}
func numMul(a, b *Num) *Num {
	return &Num{val: new(big.Rat).Mul(a.val, b.val), approx: a.approx || b.approx}
}
func numNeg(a *Num) *Num { return &Num{val: new(big.Rat).Neg(a.val), approx: a.approx} }
func numRecip(a *Num) *Num {
	if a.IsZero() {
		panic("symbolic: division by zero")
	}
	return &Num{val: new(big.Rat).Inv(a.val), approx: a.approx}
}
func numDiv(a, b *Num) *Num { return numMul(a, numRecip(b)) }
func numAbs(a *Num) *Num {
	r := new(big.Rat).Set(a.val)
	if r.Sign() < 0 {
		r.Neg(r)
	}
	return &Num{val: r, approx: a.approx}
}
func numCmp(a, b *Num) int { return a.val.Cmp(b.val) }

// negligible reports whether n is zero, allowing rounding noise on
// approximate values.
func negligible(n *Num) bool {
	if !n.approx {
		return n.IsZero()
	}
	return math.Abs(n.Float64()) < 1e-12
}

// ============================================================
// Sym: symbolic variable
// ============================================================

type Sym struct{ name string }

func S(name string) *Sym      { return &Sym{name: name} }
func (s *Sym) Simplify() Expr { return s }
func (s *Sym) String() string { return s.name }
func (s *Sym) Eval() (*Num, bool) {
	return nil, false
}
func (s *Sym) Equal(other Expr) bool { o, ok := other.(*Sym); return ok && s.name == o.name }
func (s *Sym) exprType() string      { return "sym" }
func (s *Sym) Name() string          { return s.name }
func (s *Sym) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "sym", "name": s.name}
}
func (s *Sym) Sub(varName string, value Expr) Expr {
	if s.name == varName {
		return value
	}
	return s
}
func (s *Sym) Diff(varName string) Expr {
	if s.name == varName {
		return N(1)
	}
	return N(0)
}

var subscripted = regexp.MustCompile(`^([A-Za-z]+)(\d+)$`)

// LaTeX renders C1 as C_{1}.
func (s *Sym) LaTeX() string {
	if m := subscripted.FindStringSubmatch(s.name); m != nil {
		return m[1] + "_{" + m[2] + "}"
	}
	return s.name
}

// ============================================================
// Const: named mathematical constant
// ============================================================

type Const struct {
	name  string
	value float64
}

func Pi() *Const    { return &Const{name: "pi", value: math.Pi} }
func Euler() *Const { return &Const{name: "E", value: math.E} }

func (c *Const) Simplify() Expr        { return c }
func (c *Const) String() string        { return c.name }
func (c *Const) Sub(string, Expr) Expr { return c }
func (c *Const) Diff(string) Expr      { return N(0) }
func (c *Const) Eval() (*Num, bool)    { return numFromFloat(c.value) }
func (c *Const) Equal(other Expr) bool { o, ok := other.(*Const); return ok && c.name == o.name }
func (c *Const) exprType() string      { return "const" }
func (c *Const) Value() float64        { return c.value }
func (c *Const) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "const", "name": c.name}
}
func (c *Const) LaTeX() string {
	if c.name == "pi" {
		return "\\pi"
	}
	return "e"
}

func constByName(name string) (*Const, bool) {
	switch name {
	case "pi":
		return Pi(), true
	case "E":
		return Euler(), true
	}
	return nil, false
}
