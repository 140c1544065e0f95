package symbolic

import (
	"context"
	"errors"
)

// ============================================================
// Integration (rule-based symbolic)
// ============================================================

// ErrNoAntiderivative is returned by IntegrateContext when no rule applies.
var ErrNoAntiderivative = errors.New("symbolic: no closed-form antiderivative")

// Integrate returns an antiderivative of expr with respect to varName,
// without a constant of integration. ok is false when no rule applies;
// there is no numeric fallback.
func Integrate(expr Expr, varName string) (Expr, bool) {
	r, err := IntegrateContext(context.Background(), expr, varName)
	return r, err == nil
}

// IntegrateContext is Integrate with cancellation. It returns ctx.Err()
// once ctx is done and ErrNoAntiderivative when no rule applies.
func IntegrateContext(ctx context.Context, expr Expr, varName string) (Expr, error) {
	in := &integrator{ctx: ctx, v: varName}
	expr = expr.Simplify()
	if r, ok := in.integrate(expr); ok {
		return r.Simplify(), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if expanded := Expand(expr); !expanded.Equal(expr) {
		if r, ok := in.integrate(expanded); ok {
			return r.Simplify(), nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, ErrNoAntiderivative
}

// integrator carries the variable and the cancellation context through
// the rule recursion. Every rule entry checks ctx, so abandoned work
// stops at the next step.
type integrator struct {
	ctx context.Context
	v   string
}

func (in *integrator) integrate(e Expr) (Expr, bool) {
	if in.ctx.Err() != nil {
		return nil, false
	}
	varName := in.v
	x := S(varName)
	if !dependsOn(e, varName) {
		return MulOf(e, x), true
	}
	switch v := e.(type) {
	case *Sym:
		return MulOf(F(1, 2), PowOf(x, N(2))), true
	case *Add:
		terms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			it, ok := in.integrate(t)
			if !ok {
				return nil, false
			}
			terms[i] = it
		}
		return AddOf(terms...), true
	case *Mul:
		return in.product(v)
	case *Pow:
		return in.pow(v)
	case *Func:
		return integrateFunc(v, varName)
	}
	return nil, false
}

func (in *integrator) product(m *Mul) (Expr, bool) {
	varName := in.v
	var consts, deps []Expr
	for _, f := range m.factors {
		if dependsOn(f, varName) {
			deps = append(deps, f)
		} else {
			consts = append(consts, f)
		}
	}
	coeff := MulOf(consts...)
	if len(deps) == 1 {
		r, ok := in.integrate(deps[0])
		if !ok {
			return nil, false
		}
		return MulOf(coeff, r), true
	}
	if IsPolynomial(m, varName) {
		if expanded := Expand(m); !expanded.Equal(m) {
			return in.integrate(expanded)
		}
	}
	if len(deps) == 2 {
		if r, ok := in.byParts(deps[0], deps[1]); ok {
			return MulOf(coeff, r), true
		}
		if r, ok := in.byParts(deps[1], deps[0]); ok {
			return MulOf(coeff, r), true
		}
	}
	return nil, false
}

// byParts handles poly*g where g is exp/sin/cos/sinh/cosh or a
// numeric base raised to a linear argument (tabular method), and poly*g
// where g is ln/atan/asin/acos (differentiate g, integrate poly).
func (in *integrator) byParts(poly, g Expr) (Expr, bool) {
	varName := in.v
	if !IsPolynomial(poly, varName) {
		return nil, false
	}
	if repeatable(g, varName) {
		terms := []Expr{}
		deriv := poly
		anti := g
		sign := int64(1)
		for dependsOn(deriv, varName) || !isNumEqual(deriv, 0) {
			next, ok := in.integrate(anti)
			if !ok {
				return nil, false
			}
			anti = next
			terms = append(terms, MulOf(N(sign), deriv, anti))
			if !dependsOn(deriv, varName) {
				break
			}
			deriv = Diff(deriv, varName)
			sign = -sign
		}
		return AddOf(terms...), true
	}
	if f, ok := g.(*Func); ok {
		switch f.name {
		case "ln", "atan", "asin", "acos":
			q, ok := in.integrate(poly)
			if !ok {
				return nil, false
			}
			rest, err := IntegrateContext(in.ctx, Expand(MulOf(q, Diff(g, varName))), varName)
			if err != nil {
				return nil, false
			}
			return AddOf(MulOf(q, g), MulOf(N(-1), rest)), true
		}
	}
	return nil, false
}

// repeatable reports whether g can be integrated any number of times.
func repeatable(g Expr, varName string) bool {
	switch v := g.(type) {
	case *Func:
		switch v.name {
		case "exp", "sin", "cos", "sinh", "cosh":
			_, _, ok := linearParts(v.arg, varName)
			return ok
		}
	case *Pow:
		if !dependsOn(v.base, varName) {
			_, _, ok := linearParts(v.exp, varName)
			return ok
		}
	}
	return false
}

func (in *integrator) pow(p *Pow) (Expr, bool) {
	varName := in.v
	en, expIsNum := p.exp.(*Num)
	if !dependsOn(p.exp, varName) {
		if a, _, ok := linearParts(p.base, varName); ok {
			if expIsNum && en.IsNegOne() {
				return MulOf(PowOf(a, N(-1)), LnOf(p.base)), true
			}
			newExp := AddOf(p.exp, N(1))
			return MulOf(PowOf(MulOf(a, newExp), N(-1)), PowOf(p.base, newExp)), true
		}
		if expIsNum && en.IsInteger() && en.IsPositive() && IsPolynomial(p.base, varName) {
			if expanded := Expand(p); !expanded.Equal(p) {
				return in.integrate(expanded)
			}
			return nil, false
		}
		if expIsNum && en.IsNegOne() {
			return integrateArctan(p.base, varName)
		}
		return nil, false
	}
	if !dependsOn(p.base, varName) {
		if a, _, ok := linearParts(p.exp, varName); ok {
			return MulOf(p, PowOf(MulOf(a, LnOf(p.base)), N(-1))), true
		}
	}
	return nil, false
}

// integrateArctan handles 1/(c*x^2 + d) with numeric c, d > 0.
func integrateArctan(base Expr, varName string) (Expr, bool) {
	if !IsPolynomial(base, varName) || Degree(Expand(base), varName) != 2 {
		return nil, false
	}
	coeffs := PolyCoeffs(base, varName)
	if b, ok := coeffs[1]; ok && !isNumEqual(b, 0) {
		return nil, false
	}
	c, ok1 := coeffs[2].(*Num)
	d, ok2 := coeffs[0].(*Num)
	if !ok1 || !ok2 || !c.IsPositive() || !d.IsPositive() {
		return nil, false
	}
	k := SqrtOf(numDiv(c, d))
	scale := PowOf(SqrtOf(numMul(c, d)), N(-1))
	return MulOf(scale, AtanOf(MulOf(k, S(varName)))), true
}

func integrateFunc(f *Func, varName string) (Expr, bool) {
	a, _, ok := linearParts(f.arg, varName)
	if !ok {
		return nil, false
	}
	inv := PowOf(a, N(-1))
	u := f.arg
	switch f.name {
	case "sin":
		return MulOf(N(-1), inv, CosOf(u)), true
	case "cos":
		return MulOf(inv, SinOf(u)), true
	case "exp":
		return MulOf(inv, ExpOf(u)), true
	case "tan":
		return MulOf(N(-1), inv, LnOf(CosOf(u))), true
	case "sinh":
		return MulOf(inv, CoshOf(u)), true
	case "cosh":
		return MulOf(inv, SinhOf(u)), true
	case "tanh":
		return MulOf(inv, LnOf(CoshOf(u))), true
	case "ln":
		return MulOf(inv, AddOf(MulOf(u, LnOf(u)), MulOf(N(-1), u))), true
	case "atan":
		return MulOf(inv, AddOf(
			MulOf(u, AtanOf(u)),
			MulOf(F(-1, 2), LnOf(AddOf(N(1), PowOf(u, N(2))))),
		)), true
	case "asin":
		return MulOf(inv, AddOf(
			MulOf(u, AsinOf(u)),
			SqrtOf(AddOf(N(1), MulOf(N(-1), PowOf(u, N(2))))),
		)), true
	case "acos":
		return MulOf(inv, AddOf(
			MulOf(u, AcosOf(u)),
			MulOf(N(-1), SqrtOf(AddOf(N(1), MulOf(N(-1), PowOf(u, N(2)))))),
		)), true
	}
	return nil, false
}

func isNumEqual(e Expr, v int64) bool {
	n, ok := e.(*Num)
	return ok && n.Equal(N(v))
}
