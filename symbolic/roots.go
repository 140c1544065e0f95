package symbolic

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// ============================================================
// Solvers
// ============================================================

// ErrNoClosedForm is returned by RealRoots when no rule applies.
var ErrNoClosedForm = errors.New("symbolic: no closed-form real roots")

type SolveResult struct {
	Solutions []Expr
	ExactForm bool
	Error     string
}

func SolveLinear(a, b Expr) SolveResult {
	an, aok := a.Eval()
	bn, bok := b.Eval()
	if aok && bok {
		if an.IsZero() {
			if bn.IsZero() {
				return SolveResult{Error: "identity (0 = 0): infinite solutions"}
			}
			return SolveResult{Error: "no solution (inconsistent)"}
		}
		return SolveResult{Solutions: []Expr{numMul(numNeg(bn), numRecip(an))}, ExactForm: true}
	}
	return SolveResult{Solutions: []Expr{MulOf(N(-1), b, PowOf(a, N(-1)))}, ExactForm: false}
}

// SolveQuadraticExact returns the real roots of a*x^2 + b*x + c. Roots are
// exact when the discriminant is a perfect square of a rational.
func SolveQuadraticExact(a, b, c Expr) SolveResult {
	an, aok := a.Eval()
	bn, bok := b.Eval()
	cn, cok := c.Eval()
	if !aok || !bok || !cok {
		disc := AddOf(PowOf(b, N(2)), MulOf(N(-4), a, c))
		denom := MulOf(N(2), a)
		x1 := MulOf(AddOf(MulOf(N(-1), b), SqrtOf(disc)), PowOf(denom, N(-1)))
		x2 := MulOf(AddOf(MulOf(N(-1), b), MulOf(N(-1), SqrtOf(disc))), PowOf(denom, N(-1)))
		return SolveResult{Solutions: []Expr{x1, x2}, ExactForm: true}
	}
	if an.IsZero() {
		return SolveLinear(b, c)
	}
	disc := numSub(numMul(bn, bn), numMul(N(4), numMul(an, cn)))
	twoA := numMul(N(2), an)
	if disc.IsNegative() && !negligible(disc) {
		re := -bn.Float64() / twoA.Float64()
		im := math.Sqrt(-disc.Float64()) / twoA.Float64()
		return SolveResult{Error: fmt.Sprintf("complex roots: %g ± %gi", re, math.Abs(im))}
	}
	if negligible(disc) {
		return SolveResult{Solutions: []Expr{numDiv(numNeg(bn), twoA)}, ExactForm: !disc.approx}
	}
	if sq, ok := numPow(disc, F(1, 2)); ok && !sq.approx {
		x1 := numDiv(numAdd(numNeg(bn), sq), twoA)
		x2 := numDiv(numSub(numNeg(bn), sq), twoA)
		return SolveResult{Solutions: []Expr{x1, x2}, ExactForm: true}
	}
	bf, af := bn.Float64(), an.Float64()
	sq := math.Sqrt(disc.Float64())
	return SolveResult{Solutions: []Expr{NFloat((-bf + sq) / (2 * af)), NFloat((-bf - sq) / (2 * af))}, ExactForm: false}
}

// SolveCubic returns the real roots of a*x^3 + b*x^2 + c*x + d (Cardano).
func SolveCubic(a, b, c, d Expr) SolveResult {
	an, aok := a.Eval()
	bn, bok := b.Eval()
	cn, cok := c.Eval()
	dn, dok := d.Eval()
	if !aok || !bok || !cok || !dok {
		return SolveResult{Error: "SolveCubic requires numeric coefficients"}
	}
	af, bf, cf, df := an.Float64(), bn.Float64(), cn.Float64(), dn.Float64()
	if af == 0 {
		return SolveQuadraticExact(b, c, d)
	}
	p := (3*af*cf - bf*bf) / (3 * af * af)
	q := (2*bf*bf*bf - 9*af*bf*cf + 27*af*af*df) / (27 * af * af * af)
	offset := bf / (3 * af)
	disc := -(4*p*p*p + 27*q*q)

	var roots []float64
	switch {
	case math.Abs(disc) < 1e-12:
		if math.Abs(q) < 1e-12 {
			roots = []float64{-offset}
		} else {
			roots = []float64{3*q/p - offset, -3*q/(2*p) - offset}
		}
	case disc > 0:
		m := 2 * math.Sqrt(-p/3)
		theta := math.Acos(3*q/(p*m)) / 3
		for k := 0; k < 3; k++ {
			roots = append(roots, m*math.Cos(theta-2*math.Pi*float64(k)/3)-offset)
		}
	default:
		s := math.Sqrt(q*q/4 + p*p*p/27)
		roots = []float64{math.Cbrt(-q/2+s) + math.Cbrt(-q/2-s) - offset}
	}
	coeffs := []float64{df, cf, bf, af}
	solutions := make([]Expr, len(roots))
	for i, r := range roots {
		solutions[i] = NFloat(newtonPolish(coeffs, r))
	}
	return SolveResult{Solutions: solutions, ExactForm: false}
}

// PolyRealRoots returns the real roots of sum coeffs[i]*x^i via the
// eigenvalues of the companion matrix, polished by Newton iteration.
func PolyRealRoots(coeffs []float64) ([]float64, error) {
	for len(coeffs) > 0 && coeffs[len(coeffs)-1] == 0 {
		coeffs = coeffs[:len(coeffs)-1]
	}
	n := len(coeffs) - 1
	if n < 1 {
		return nil, nil
	}
	lead := coeffs[n]
	a := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		a.Set(0, j, -coeffs[n-1-j]/lead)
	}
	for i := 1; i < n; i++ {
		a.Set(i, i-1, 1)
	}
	var eig mat.Eigen
	if ok := eig.Factorize(a, mat.EigenNone); !ok {
		return nil, fmt.Errorf("eigen decomposition of degree %d companion matrix failed", n)
	}
	var roots []float64
	for _, v := range eig.Values(nil) {
		re, im := real(v), imag(v)
		if math.Abs(im) > 1e-6*math.Max(1, math.Abs(re)) {
			continue
		}
		roots = append(roots, newtonPolish(coeffs, re))
	}
	sort.Float64s(roots)
	return roots, nil
}

func hornerFloat(coeffs []float64, x float64) (p, dp float64) {
	for i := len(coeffs) - 1; i >= 0; i-- {
		dp = dp*x + p
		p = p*x + coeffs[i]
	}
	return p, dp
}

func newtonPolish(coeffs []float64, x float64) float64 {
	for iter := 0; iter < 50; iter++ {
		p, dp := hornerFloat(coeffs, x)
		if p == 0 || dp == 0 || math.IsNaN(dp) {
			break
		}
		step := p / dp
		x -= step
		if math.Abs(step) <= 1e-15*math.Max(1, math.Abs(x)) {
			break
		}
	}
	return x
}

// ============================================================
// Real roots
// ============================================================

// RealRoots returns the distinct real roots of expr = 0 in varName, in
// ascending order. Roots that depend on other free symbols are dropped.
// Periodic functions report the roots in one period of their argument.
func RealRoots(expr Expr, varName string) ([]Expr, error) {
	return RealRootsContext(context.Background(), expr, varName)
}

// RealRootsContext is RealRoots with cancellation; it returns ctx.Err()
// once ctx is done.
func RealRootsContext(ctx context.Context, expr Expr, varName string) ([]Expr, error) {
	roots, err := realRoots(ctx, expr.Simplify(), varName)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return normalizeRoots(roots), nil
}

func realRoots(ctx context.Context, e Expr, varName string) ([]Expr, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !dependsOn(e, varName) {
		return nil, nil
	}
	switch v := e.(type) {
	case *Sym:
		return []Expr{N(0)}, nil
	case *Mul:
		var out []Expr
		for _, f := range v.factors {
			rs, err := realRoots(ctx, f, varName)
			if err != nil {
				return nil, err
			}
			out = append(out, rs...)
		}
		return out, nil
	case *Pow:
		if dependsOn(v.exp, varName) {
			if !dependsOn(v.base, varName) {
				return nil, nil
			}
			return nil, ErrNoClosedForm
		}
		n, ok := v.exp.Eval()
		if !ok {
			return nil, nil
		}
		if n.IsNegative() {
			return nil, nil
		}
		return realRoots(ctx, v.base, varName)
	case *Func:
		return funcRoots(ctx, v, varName)
	case *Add:
		if IsPolynomial(v, varName) {
			return polyRoots(v, varName)
		}
	}
	if hasOtherSymbols(e, varName) {
		return nil, nil
	}
	return nil, ErrNoClosedForm
}

func hasOtherSymbols(e Expr, varName string) bool {
	for name := range FreeSymbols(e) {
		if name != varName {
			return true
		}
	}
	return false
}

func polyRoots(e Expr, varName string) ([]Expr, error) {
	if hasOtherSymbols(e, varName) {
		return nil, nil
	}
	pc := PolyCoeffs(e, varName)
	deg := 0
	for d := range pc {
		if d < 0 {
			return nil, ErrNoClosedForm
		}
		if d > deg {
			deg = d
		}
	}
	coeffs := make([]*Num, deg+1)
	for d := 0; d <= deg; d++ {
		coeffs[d] = N(0)
		if c, ok := pc[d]; ok {
			n, ok := c.Eval()
			if !ok {
				return nil, nil
			}
			coeffs[d] = n
		}
	}
	return polyRealRoots(coeffs)
}

// polyRealRoots solves sum c[i]*x^i = 0. Exact rational roots are peeled
// off first; what remains is solved by degree.
func polyRealRoots(c []*Num) ([]Expr, error) {
	for len(c) > 1 && negligible(c[len(c)-1]) {
		c = c[:len(c)-1]
	}
	var roots []Expr
	for len(c) > 1 && negligible(c[0]) {
		roots = append(roots, N(0))
		c = c[1:]
	}
	if allExact(c) {
		for len(c) > 3 {
			r, ok := rationalRoot(c)
			if !ok {
				break
			}
			roots = append(roots, r)
			c = deflate(c, r)
		}
	}
	switch deg := len(c) - 1; {
	case deg <= 0:
	case deg == 1:
		roots = append(roots, SolveLinear(c[1], c[0]).Solutions...)
	case deg == 2:
		roots = append(roots, SolveQuadraticExact(c[2], c[1], c[0]).Solutions...)
	case deg == 3:
		roots = append(roots, SolveCubic(c[3], c[2], c[1], c[0]).Solutions...)
	default:
		fs := make([]float64, len(c))
		for i, n := range c {
			fs[i] = n.Float64()
		}
		rs, err := PolyRealRoots(fs)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoClosedForm, err)
		}
		for _, r := range rs {
			roots = append(roots, NFloat(r))
		}
	}
	return roots, nil
}

func allExact(c []*Num) bool {
	for _, n := range c {
		if n.approx {
			return false
		}
	}
	return true
}

// maxRationalSearch bounds the constant and leading coefficients for which
// candidate rational roots are enumerated.
const maxRationalSearch = 1_000_000

// rationalRoot finds a rational root p/q of an exact polynomial, where p
// divides the constant term and q the leading coefficient.
func rationalRoot(c []*Num) (*Num, bool) {
	ints := integerCoeffs(c)
	a0 := new(big.Int).Abs(ints[0])
	an := new(big.Int).Abs(ints[len(ints)-1])
	if !a0.IsInt64() || !an.IsInt64() || a0.Int64() > maxRationalSearch || an.Int64() > maxRationalSearch {
		return nil, false
	}
	for _, q := range divisors(an.Int64()) {
		for _, p := range divisors(a0.Int64()) {
			for _, sign := range []int64{1, -1} {
				cand := &Num{val: new(big.Rat).SetFrac64(sign*p, q)}
				if hornerExact(c, cand).IsZero() {
					return cand, true
				}
			}
		}
	}
	return nil, false
}

func integerCoeffs(c []*Num) []*big.Int {
	lcm := big.NewInt(1)
	for _, n := range c {
		d := n.val.Denom()
		g := new(big.Int).GCD(nil, nil, lcm, d)
		lcm.Mul(lcm, new(big.Int).Quo(d, g))
	}
	out := make([]*big.Int, len(c))
	for i, n := range c {
		r := new(big.Rat).Mul(n.val, new(big.Rat).SetInt(lcm))
		out[i] = new(big.Int).Set(r.Num())
	}
	return out
}

func divisors(n int64) []int64 {
	if n == 0 {
		return []int64{1}
	}
	var small, large []int64
	for d := int64(1); d*d <= n; d++ {
		if n%d == 0 {
			small = append(small, d)
			if d*d != n {
				large = append(large, n/d)
			}
		}
	}
	for i := len(large) - 1; i >= 0; i-- {
		small = append(small, large[i])
	}
	return small
}

func hornerExact(c []*Num, x *Num) *Num {
	acc := N(0)
	for i := len(c) - 1; i >= 0; i-- {
		acc = numAdd(numMul(acc, x), c[i])
	}
	return acc
}

// deflate divides the polynomial by (x - r) (synthetic division).
func deflate(c []*Num, r *Num) []*Num {
	n := len(c) - 1
	out := make([]*Num, n)
	acc := N(0)
	for i := n; i >= 1; i-- {
		acc = numAdd(numMul(acc, r), c[i])
		out[i-1] = acc
	}
	return out
}

func funcRoots(ctx context.Context, f *Func, varName string) ([]Expr, error) {
	if f.name == "abs" {
		return realRoots(ctx, f.arg, varName)
	}
	a, b, ok := linearParts(f.arg, varName)
	if !ok {
		switch f.name {
		case "exp", "cosh":
			return nil, nil
		}
		if hasOtherSymbols(f, varName) {
			return nil, nil
		}
		return nil, ErrNoClosedForm
	}
	if hasOtherSymbols(a, varName) || hasOtherSymbols(b, varName) {
		return nil, nil
	}
	// f(u) = 0 for u in targets, with u = a*x + b.
	var targets []Expr
	switch f.name {
	case "sin":
		targets = []Expr{N(0), Pi()}
	case "cos":
		targets = []Expr{MulOf(F(1, 2), Pi()), MulOf(F(3, 2), Pi())}
	case "tan", "sinh", "tanh", "asin", "atan":
		targets = []Expr{N(0)}
	case "ln", "acos":
		targets = []Expr{N(1)}
	case "exp", "cosh":
		return nil, nil
	default:
		return nil, ErrNoClosedForm
	}
	roots := make([]Expr, len(targets))
	for i, t := range targets {
		roots[i] = MulOf(AddOf(t, MulOf(N(-1), b)), PowOf(a, N(-1)))
	}
	return roots, nil
}

// normalizeRoots sorts roots by value and drops duplicates, preferring
// exact forms over approximations.
func normalizeRoots(roots []Expr) []Expr {
	type valued struct {
		e Expr
		v float64
	}
	vs := make([]valued, 0, len(roots))
	for _, r := range roots {
		n, ok := r.Eval()
		if !ok {
			continue
		}
		f := n.Float64()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		vs = append(vs, valued{e: r, v: f})
	}
	sort.SliceStable(vs, func(i, j int) bool { return vs[i].v < vs[j].v })
	out := []Expr{}
	last := math.Inf(-1)
	for _, v := range vs {
		if len(out) > 0 && math.Abs(v.v-last) <= 1e-9*math.Max(1, math.Abs(v.v)) {
			if n, ok := out[len(out)-1].(*Num); ok && n.approx {
				out[len(out)-1] = v.e
			}
			continue
		}
		out = append(out, v.e)
		last = v.v
	}
	return out
}
