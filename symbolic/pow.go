package symbolic

import (
	"math"
	"math/big"
)

// ============================================================
// Pow: base^exponent
// ============================================================

type Pow struct{ base, exp Expr }

func PowOf(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }

// maxExactExponent bounds exact integer powers of rationals.
const maxExactExponent = 64

func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()

	en, expIsNum := exp.(*Num)
	if expIsNum && en.IsZero() {
		return N(1)
	}
	if expIsNum && en.IsOne() {
		return base
	}

	// 0^0 is handled above; 0^negative stays unevaluated.
	if bn, ok := base.(*Num); ok && bn.IsZero() {
		if expIsNum && en.IsNegative() {
			return &Pow{base: base, exp: exp}
		}
		return N(0)
	}
	if bn, ok := base.(*Num); ok && bn.IsOne() {
		return N(1)
	}
	if bn, ok := base.(*Num); ok && expIsNum {
		if r, ok := numPow(bn, en); ok {
			return r
		}
	}
	if inner, ok := base.(*Pow); ok && expIsNum && en.IsInteger() {
		return PowOf(inner.base, MulOf(inner.exp, exp))
	}
	if m, ok := base.(*Mul); ok && expIsNum && en.IsInteger() {
		factors := make([]Expr, len(m.factors))
		for i, f := range m.factors {
			factors[i] = PowOf(f, exp)
		}
		return MulOf(factors...)
	}
	return &Pow{base: base, exp: exp}
}

// numPow evaluates b^e exactly when the result is rational.
func numPow(b, e *Num) (*Num, bool) {
	if b.approx || e.approx {
		v := math.Pow(b.Float64(), e.Float64())
		return numFromFloat(v)
	}
	if e.IsInteger() {
		k := e.val.Num()
		if !k.IsInt64() || absInt64(k.Int64()) > maxExactExponent {
			return nil, false
		}
		n := k.Int64()
		num := new(big.Int).Exp(b.val.Num(), big.NewInt(absInt64(n)), nil)
		den := new(big.Int).Exp(b.val.Denom(), big.NewInt(absInt64(n)), nil)
		r := new(big.Rat).SetFrac(num, den)
		if n < 0 {
			r.Inv(r)
		}
		return &Num{val: r}, true
	}
	// Rational exponent p/q: exact only for perfect q-th powers.
	if b.IsNegative() {
		return nil, false
	}
	q := e.val.Denom()
	if !q.IsInt64() || q.Int64() > maxExactExponent {
		return nil, false
	}
	rn, ok1 := exactRoot(b.val.Num(), q.Int64())
	rd, ok2 := exactRoot(b.val.Denom(), q.Int64())
	if !ok1 || !ok2 {
		return nil, false
	}
	root := &Num{val: new(big.Rat).SetFrac(rn, rd)}
	return numPow(root, &Num{val: new(big.Rat).SetInt(e.val.Num())})
}

// exactRoot returns the integer k-th root of n when one exists.
func exactRoot(n *big.Int, k int64) (*big.Int, bool) {
	if n.Sign() < 0 {
		return nil, false
	}
	if k == 2 {
		r := new(big.Int).Sqrt(n)
		return r, new(big.Int).Mul(r, r).Cmp(n) == 0
	}
	f, _ := new(big.Float).SetInt(n).Float64()
	guess := int64(math.Round(math.Pow(f, 1/float64(k))))
	for _, c := range []int64{guess - 1, guess, guess + 1} {
		if c < 0 {
			continue
		}
		r := big.NewInt(c)
		if new(big.Int).Exp(r, big.NewInt(k), nil).Cmp(n) == 0 {
			return r, true
		}
	}
	return nil, false
}

func absInt64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

func (p *Pow) String() string {
	baseStr := p.base.String()
	expStr := p.exp.String()
	switch b := p.base.(type) {
	case *Add, *Mul, *Pow:
		baseStr = "(" + baseStr + ")"
	case *Num:
		if !b.IsInteger() || b.IsNegative() {
			baseStr = "(" + baseStr + ")"
		}
	}
	switch e := p.exp.(type) {
	case *Add, *Mul, *Pow:
		expStr = "(" + expStr + ")"
	case *Num:
		if !e.IsInteger() {
			expStr = "(" + expStr + ")"
		}
	}
	return baseStr + "^" + expStr
}

func (p *Pow) LaTeX() string {
	if n, ok := p.exp.(*Num); ok && !n.approx && n.val.Cmp(big.NewRat(1, 2)) == 0 {
		return "\\sqrt{" + p.base.LaTeX() + "}"
	}
	baseStr := p.base.LaTeX()
	expStr := p.exp.LaTeX()
	switch p.base.(type) {
	case *Add, *Mul, *Pow:
		baseStr = "\\left(" + baseStr + "\\right)"
	}
	return baseStr + "^{" + expStr + "}"
}

func (p *Pow) Sub(varName string, value Expr) Expr {
	return PowOf(p.base.Sub(varName, value), p.exp.Sub(varName, value))
}

func (p *Pow) Diff(varName string) Expr {
	du := p.base.Diff(varName)
	dv := p.exp.Diff(varName)
	if !dependsOn(p.exp, varName) {
		newExp := AddOf(p.exp, N(-1))
		return MulOf(p.exp, PowOf(p.base, newExp), du)
	}
	if !dependsOn(p.base, varName) {
		return MulOf(PowOf(p.base, p.exp), LnOf(p.base), dv)
	}
	logTerm := MulOf(dv, LnOf(p.base))
	divTerm := MulOf(p.exp, du, PowOf(p.base, N(-1)))
	return MulOf(PowOf(p.base, p.exp), AddOf(logTerm, divTerm))
}

func (p *Pow) Eval() (*Num, bool) {
	b, ok1 := p.base.Eval()
	e, ok2 := p.exp.Eval()
	if !ok1 || !ok2 {
		return nil, false
	}
	if b.IsZero() && e.IsNegative() {
		return nil, false
	}
	if r, ok := numPow(b, e); ok {
		return r, true
	}
	return numFromFloat(math.Pow(b.Float64(), e.Float64()))
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) exprType() string { return "pow" }
func (p *Pow) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "pow", "base": p.base.toJSON(), "exp": p.exp.toJSON()}
}
func (p *Pow) Base() Expr    { return p.base }
func (p *Pow) ExpExpr() Expr { return p.exp }
