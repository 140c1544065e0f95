package symbolic

import (
	"sort"
)

// Sub replaces varName with value and simplifies.
func Sub(expr Expr, varName string, value Expr) Expr {
	return expr.Sub(varName, value).Simplify()
}

// Subs replaces every symbol named in mapping in a single pass, so values
// that mention other mapped symbols are not substituted again.
func Subs(expr Expr, mapping map[string]Expr) Expr {
	if len(mapping) == 0 {
		return expr.Simplify()
	}
	return subsExpr(expr, mapping).Simplify()
}

func subsExpr(e Expr, mapping map[string]Expr) Expr {
	switch v := e.(type) {
	case *Sym:
		if val, ok := mapping[v.name]; ok {
			return val
		}
		return v
	case *Add:
		terms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			terms[i] = subsExpr(t, mapping)
		}
		return AddOf(terms...)
	case *Mul:
		factors := make([]Expr, len(v.factors))
		for i, f := range v.factors {
			factors[i] = subsExpr(f, mapping)
		}
		return MulOf(factors...)
	case *Pow:
		return PowOf(subsExpr(v.base, mapping), subsExpr(v.exp, mapping))
	case *Func:
		return funcOf(v.name, subsExpr(v.arg, mapping)).Simplify()
	}
	return e
}

// Diff differentiates with respect to varName and simplifies.
func Diff(expr Expr, varName string) Expr {
	return expr.Diff(varName).Simplify()
}

func DiffN(expr Expr, varName string, n int) Expr {
	result := expr
	for i := 0; i < n; i++ {
		result = Diff(result, varName)
	}
	return result
}

// EquivalentAt reports whether a and b agree numerically at every point,
// substituting varName; symbols in fixed are bound first.
func EquivalentAt(a, b Expr, varName string, points []float64, fixed map[string]Expr) bool {
	diff := Subs(AddOf(a, MulOf(N(-1), b)), fixed)
	for _, p := range points {
		v, ok := Sub(diff, varName, NFloat(p)).Eval()
		if !ok {
			return false
		}
		scale := 1.0
		if av, ok := Sub(Subs(a, fixed), varName, NFloat(p)).Eval(); ok && abs(av.Float64()) > 1 {
			scale = abs(av.Float64())
		}
		if abs(v.Float64()) > 1e-9*scale {
			return false
		}
	}
	return true
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func Expand(e Expr) Expr { return expandExpr(e).Simplify() }

func expandExpr(e Expr) Expr {
	switch v := e.(type) {
	case *Mul:
		acc := Expr(N(1))
		for _, f := range v.factors {
			acc = distribute(acc, expandExpr(f))
		}
		return acc
	case *Add:
		newTerms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			newTerms[i] = expandExpr(t)
		}
		return AddOf(newTerms...)
	case *Pow:
		base := expandExpr(v.base)
		if _, isSum := base.(*Add); isSum {
			if n, ok := v.exp.(*Num); ok && n.IsInteger() {
				if exp := n.val.Num().Int64(); exp >= 0 && exp <= maxExpandPower {
					acc := Expr(N(1))
					for i := int64(0); i < exp; i++ {
						acc = distribute(acc, base)
					}
					return acc
				}
			}
		}
		return PowOf(base, expandExpr(v.exp))
	case *Func:
		return funcOf(v.name, expandExpr(v.arg)).Simplify()
	}
	return e
}

// maxExpandPower bounds the integer powers of sums that Expand multiplies
// out.
const maxExpandPower = 10

// distribute multiplies two expanded expressions term by term. It never
// re-enters expandExpr, so a product folding back into a power cannot
// loop.
func distribute(a, b Expr) Expr {
	as, bs := addends(a), addends(b)
	products := make([]Expr, 0, len(as)*len(bs))
	for _, ta := range as {
		for _, tb := range bs {
			products = append(products, MulOf(ta, tb))
		}
	}
	return AddOf(products...)
}

func addends(e Expr) []Expr {
	if a, ok := e.(*Add); ok {
		return a.terms
	}
	return []Expr{e}
}

// ============================================================
// Free Symbols
// ============================================================

func FreeSymbols(e Expr) map[string]struct{} {
	result := map[string]struct{}{}
	collectSymbols(e, result)
	return result
}

// SortedSymbols returns the free symbol names of e in lexical order.
func SortedSymbols(e Expr) []string {
	syms := FreeSymbols(e)
	names := make([]string, 0, len(syms))
	for n := range syms {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func collectSymbols(e Expr, out map[string]struct{}) {
	switch v := e.(type) {
	case *Sym:
		out[v.name] = struct{}{}
	case *Add:
		for _, t := range v.terms {
			collectSymbols(t, out)
		}
	case *Mul:
		for _, f := range v.factors {
			collectSymbols(f, out)
		}
	case *Pow:
		collectSymbols(v.base, out)
		collectSymbols(v.exp, out)
	case *Func:
		collectSymbols(v.arg, out)
	}
}

func dependsOn(e Expr, varName string) bool {
	_, ok := FreeSymbols(e)[varName]
	return ok
}

// DependsOn reports whether varName occurs in e.
func DependsOn(e Expr, varName string) bool { return dependsOn(e, varName) }

// ============================================================
// Polynomial utilities
// ============================================================

func Degree(expr Expr, varName string) int {
	expr = expr.Simplify()
	switch v := expr.(type) {
	case *Sym:
		if v.name == varName {
			return 1
		}
		return 0
	case *Pow:
		if n, ok := v.exp.(*Num); ok && n.IsInteger() && n.IsPositive() {
			return Degree(v.base, varName) * int(n.val.Num().Int64())
		}
		return 0
	case *Add:
		maxDeg := 0
		for _, t := range v.terms {
			if d := Degree(t, varName); d > maxDeg {
				maxDeg = d
			}
		}
		return maxDeg
	case *Mul:
		totalDeg := 0
		for _, f := range v.factors {
			totalDeg += Degree(f, varName)
		}
		return totalDeg
	}
	return 0
}

// IsPolynomial reports whether expr is a polynomial in varName. Subterms
// free of varName count as coefficients.
func IsPolynomial(expr Expr, varName string) bool {
	if !dependsOn(expr, varName) {
		return true
	}
	switch v := expr.(type) {
	case *Sym:
		return true
	case *Pow:
		n, ok := v.exp.(*Num)
		return ok && n.IsInteger() && !n.IsNegative() && IsPolynomial(v.base, varName)
	case *Add:
		for _, t := range v.terms {
			if !IsPolynomial(t, varName) {
				return false
			}
		}
		return true
	case *Mul:
		for _, f := range v.factors {
			if !IsPolynomial(f, varName) {
				return false
			}
		}
		return true
	}
	return false
}

type PolyCoeffsResult map[int]Expr

// PolyCoeffs extracts coefficients by degree from the expanded form of expr.
func PolyCoeffs(expr Expr, varName string) PolyCoeffsResult {
	result := PolyCoeffsResult{}
	extractCoeffs(Expand(expr), varName, result)
	return result
}

func extractCoeffs(e Expr, varName string, out PolyCoeffsResult) {
	switch v := e.(type) {
	case *Sym:
		if v.name == varName {
			addCoeff(out, 1, N(1))
		} else {
			addCoeff(out, 0, v)
		}
	case *Pow:
		if sym, ok := v.base.(*Sym); ok && sym.name == varName {
			if n, ok2 := v.exp.(*Num); ok2 && n.IsInteger() {
				addCoeff(out, int(n.val.Num().Int64()), N(1))
				return
			}
		}
		addCoeff(out, 0, e)
	case *Mul:
		deg := 0
		coeffFactors := []Expr{}
		for _, f := range v.factors {
			if d := Degree(f, varName); d > 0 {
				deg += d
			} else {
				coeffFactors = append(coeffFactors, f)
			}
		}
		addCoeff(out, deg, MulOf(coeffFactors...))
	case *Add:
		for _, t := range v.terms {
			extractCoeffs(t, varName, out)
		}
	default:
		addCoeff(out, 0, e)
	}
}

func addCoeff(out PolyCoeffsResult, deg int, val Expr) {
	if existing, ok := out[deg]; ok {
		out[deg] = AddOf(existing, val)
	} else {
		out[deg] = val.Simplify()
	}
}

// linearParts returns (a, b) with expr == a*varName + b when expr is affine
// in varName with coefficients free of it.
func linearParts(expr Expr, varName string) (a, b Expr, ok bool) {
	if !IsPolynomial(expr, varName) || Degree(Expand(expr), varName) != 1 {
		return nil, nil, false
	}
	coeffs := PolyCoeffs(expr, varName)
	a, hasA := coeffs[1]
	if !hasA || dependsOn(a, varName) {
		return nil, nil, false
	}
	b, hasB := coeffs[0]
	if !hasB {
		b = N(0)
	}
	return a, b, true
}
