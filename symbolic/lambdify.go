package symbolic

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnbound is returned by Lambdify when expr mentions a symbol other
// than the evaluation variable.
var ErrUnbound = errors.New("symbolic: unbound symbol")

// Lambdify compiles expr into a float function of varName. Domain errors
// surface as NaN or Inf in the returned values, never as panics.
func Lambdify(expr Expr, varName string) (func(float64) float64, error) {
	for _, name := range SortedSymbols(expr) {
		if name != varName {
			return nil, fmt.Errorf("%w %q in %s", ErrUnbound, name, expr)
		}
	}
	return compile(expr.Simplify(), varName)
}

func compile(e Expr, varName string) (func(float64) float64, error) {
	switch v := e.(type) {
	case *Num:
		c := v.Float64()
		return func(float64) float64 { return c }, nil
	case *Const:
		c := v.value
		return func(float64) float64 { return c }, nil
	case *Sym:
		return func(x float64) float64 { return x }, nil
	case *Add:
		fs, err := compileAll(v.terms, varName)
		if err != nil {
			return nil, err
		}
		return func(x float64) float64 {
			s := 0.0
			for _, f := range fs {
				s += f(x)
			}
			return s
		}, nil
	case *Mul:
		fs, err := compileAll(v.factors, varName)
		if err != nil {
			return nil, err
		}
		return func(x float64) float64 {
			p := 1.0
			for _, f := range fs {
				p *= f(x)
			}
			return p
		}, nil
	case *Pow:
		base, err := compile(v.base, varName)
		if err != nil {
			return nil, err
		}
		if n, ok := v.exp.(*Num); ok && !n.approx {
			if n.val.Cmp(F(1, 2).val) == 0 {
				return func(x float64) float64 { return math.Sqrt(base(x)) }, nil
			}
			if n.val.Cmp(F(-1, 1).val) == 0 {
				return func(x float64) float64 { return 1 / base(x) }, nil
			}
		}
		exp, err := compile(v.exp, varName)
		if err != nil {
			return nil, err
		}
		return func(x float64) float64 { return math.Pow(base(x), exp(x)) }, nil
	case *Func:
		fn, ok := floatFuncs[v.name]
		if !ok {
			return nil, fmt.Errorf("symbolic: no numeric implementation of %s", v.name)
		}
		arg, err := compile(v.arg, varName)
		if err != nil {
			return nil, err
		}
		return func(x float64) float64 { return fn(arg(x)) }, nil
	}
	return nil, fmt.Errorf("symbolic: cannot compile %s node", e.exprType())
}

func compileAll(es []Expr, varName string) ([]func(float64) float64, error) {
	out := make([]func(float64) float64, len(es))
	for i, e := range es {
		f, err := compile(e, varName)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}
