package symbolic_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/njchilds90/antideriv/symbolic"
)

// ============================================================
// Num tests
// ============================================================

func TestNum_Integer(t *testing.T) {
	n := symbolic.N(42)
	if n.String() != "42" {
		t.Errorf("want 42, got %s", n.String())
	}
}

func TestNum_Rational(t *testing.T) {
	n := symbolic.F(1, 3)
	if n.String() != "1/3" {
		t.Errorf("want 1/3, got %s", n.String())
	}
}

func TestNum_LaTeX_Rational(t *testing.T) {
	n := symbolic.F(2, 5)
	if n.LaTeX() != `\frac{2}{5}` {
		t.Errorf("want \\frac{2}{5}, got %s", n.LaTeX())
	}
}

func TestNum_ParseDecimalIsExact(t *testing.T) {
	n, err := symbolic.ParseNum("-0.25")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.String() != "-1/4" {
		t.Errorf("want -1/4, got %s", n.String())
	}
	if _, err := symbolic.ParseNum("1..2"); err == nil {
		t.Error("expected error for 1..2")
	}
}

func TestNum_FloatIsApprox(t *testing.T) {
	if symbolic.NFloat(2).IsApprox() {
		t.Error("integral float should stay exact")
	}
	if !symbolic.NFloat(0.1).IsApprox() {
		t.Error("0.1 should be flagged approximate")
	}
}

// ============================================================
// Sym tests
// ============================================================

func TestSym_Sub_Match(t *testing.T) {
	result := symbolic.S("x").Sub("x", symbolic.N(3))
	if result.String() != "3" {
		t.Errorf("want 3, got %s", result.String())
	}
}

func TestSym_Sub_NoMatch(t *testing.T) {
	result := symbolic.S("x").Sub("y", symbolic.N(3))
	if result.String() != "x" {
		t.Errorf("want x, got %s", result.String())
	}
}

func TestSym_LaTeX_Subscript(t *testing.T) {
	if got := symbolic.S("C1").LaTeX(); got != "C_{1}" {
		t.Errorf("want C_{1}, got %s", got)
	}
}

// ============================================================
// Add / Mul tests
// ============================================================

func TestAdd_Simple(t *testing.T) {
	expr := symbolic.AddOf(symbolic.S("x"), symbolic.N(3))
	if expr.String() != "x + 3" {
		t.Errorf("want 'x + 3', got %s", expr.String())
	}
}

func TestAdd_CollapseToZero(t *testing.T) {
	expr := symbolic.AddOf(symbolic.N(1), symbolic.N(-1))
	if expr.String() != "0" {
		t.Errorf("want 0, got %s", expr.String())
	}
}

func TestAdd_LikeTerms(t *testing.T) {
	expr := symbolic.AddOf(symbolic.S("x"), symbolic.S("x"))
	if expr.String() != "2*x" {
		t.Errorf("want '2*x', got %s", expr.String())
	}
}

func TestAdd_DescendingDegree(t *testing.T) {
	x := symbolic.S("x")
	expr := symbolic.AddOf(symbolic.S("C1"), symbolic.PowOf(x, symbolic.N(2)))
	if expr.String() != "x^2 + C1" {
		t.Errorf("want 'x^2 + C1', got %s", expr.String())
	}
}

func TestAdd_Diff(t *testing.T) {
	// d/dx(x^2 + 3x + 1) = 2x + 3
	x := symbolic.S("x")
	expr := symbolic.AddOf(symbolic.PowOf(x, symbolic.N(2)), symbolic.MulOf(symbolic.N(3), x), symbolic.N(1))
	d := symbolic.Diff(expr, "x")
	if d.String() != "2*x + 3" {
		t.Errorf("want '2*x + 3', got %s", d.String())
	}
}

func TestMul_ZeroCollapse(t *testing.T) {
	expr := symbolic.MulOf(symbolic.N(0), symbolic.S("x"))
	if expr.String() != "0" {
		t.Errorf("0*x should be 0, got %s", expr.String())
	}
}

func TestMul_MergesPowers(t *testing.T) {
	x := symbolic.S("x")
	expr := symbolic.MulOf(x, symbolic.PowOf(x, symbolic.N(2)))
	if expr.String() != "x^3" {
		t.Errorf("want x^3, got %s", expr.String())
	}
}

func TestMul_DistributesCoefficient(t *testing.T) {
	x := symbolic.S("x")
	expr := symbolic.MulOf(symbolic.N(2), symbolic.AddOf(x, symbolic.N(1)))
	if expr.String() != "2*x + 2" {
		t.Errorf("want '2*x + 2', got %s", expr.String())
	}
}

// ============================================================
// Pow / Func tests
// ============================================================

func TestPow_NumericEval(t *testing.T) {
	expr := symbolic.PowOf(symbolic.N(2), symbolic.N(3))
	if expr.String() != "8" {
		t.Errorf("2^3 should be 8, got %s", expr.String())
	}
}

func TestPow_ExactRoot(t *testing.T) {
	expr := symbolic.SqrtOf(symbolic.F(9, 4))
	if expr.String() != "3/2" {
		t.Errorf("sqrt(9/4) should be 3/2, got %s", expr.String())
	}
}

func TestPow_LaTeX(t *testing.T) {
	expr := symbolic.PowOf(symbolic.S("x"), symbolic.N(2))
	if expr.LaTeX() != "x^{2}" {
		t.Errorf("want x^{2}, got %s", expr.LaTeX())
	}
}

func TestFunc_Sin_Diff(t *testing.T) {
	d := symbolic.Diff(symbolic.SinOf(symbolic.S("x")), "x")
	if d.String() != "cos(x)" {
		t.Errorf("d/dx(sin(x)) should be cos(x), got %s", d.String())
	}
}

func TestFunc_Cos_Diff(t *testing.T) {
	d := symbolic.Diff(symbolic.CosOf(symbolic.S("x")), "x")
	if d.String() != "-sin(x)" {
		t.Errorf("d/dx(cos(x)) should be -sin(x), got %s", d.String())
	}
}

func TestFunc_LnExp(t *testing.T) {
	x := symbolic.S("x")
	if got := symbolic.LnOf(symbolic.ExpOf(x)).String(); got != "x" {
		t.Errorf("ln(exp(x)) should be x, got %s", got)
	}
	if got := symbolic.LnOf(symbolic.N(1)).String(); got != "0" {
		t.Errorf("ln(1) should be 0, got %s", got)
	}
}

func TestFunc_LaTeX_Sin(t *testing.T) {
	expr := symbolic.SinOf(symbolic.S("x"))
	if expr.LaTeX() != `\sin\left(x\right)` {
		t.Errorf("unexpected LaTeX %s", expr.LaTeX())
	}
}

// ============================================================
// Expand / polynomial tests
// ============================================================

func TestExpand_Distribution(t *testing.T) {
	x := symbolic.S("x")
	expr := symbolic.MulOf(
		symbolic.AddOf(x, symbolic.N(1)),
		symbolic.AddOf(x, symbolic.N(2)),
	)
	if got := symbolic.Expand(expr).String(); got != "x^2 + 3*x + 2" {
		t.Errorf("want 'x^2 + 3*x + 2', got %s", got)
	}
}

func TestFreeSymbols(t *testing.T) {
	expr := symbolic.AddOf(symbolic.S("x"), symbolic.MulOf(symbolic.S("C1"), symbolic.N(2)))
	got := symbolic.SortedSymbols(expr)
	if strings.Join(got, ",") != "C1,x" {
		t.Errorf("want [C1 x], got %v", got)
	}
	if len(symbolic.FreeSymbols(symbolic.Pi())) != 0 {
		t.Error("pi should have no free symbols")
	}
}

func TestDegree(t *testing.T) {
	x := symbolic.S("x")
	cases := []struct {
		expr symbolic.Expr
		want int
	}{
		{x, 1},
		{symbolic.PowOf(x, symbolic.N(2)), 2},
		{symbolic.N(5), 0},
		{symbolic.MulOf(symbolic.S("C1"), symbolic.PowOf(x, symbolic.N(3))), 3},
	}
	for _, c := range cases {
		if got := symbolic.Degree(c.expr, "x"); got != c.want {
			t.Errorf("Degree(%s) want %d, got %d", c.expr, c.want, got)
		}
	}
}

func TestPolyCoeffs(t *testing.T) {
	x := symbolic.S("x")
	// 3x^2 + 2x + 1
	expr := symbolic.AddOf(
		symbolic.MulOf(symbolic.N(3), symbolic.PowOf(x, symbolic.N(2))),
		symbolic.MulOf(symbolic.N(2), x),
		symbolic.N(1),
	)
	coeffs := symbolic.PolyCoeffs(expr, "x")
	for deg, want := range map[int]string{2: "3", 1: "2", 0: "1"} {
		c, ok := coeffs[deg]
		if !ok {
			t.Errorf("expected coefficient for degree %d", deg)
			continue
		}
		if c.String() != want {
			t.Errorf("degree %d: want %s, got %s", deg, want, c)
		}
	}
}

func TestIsPolynomial(t *testing.T) {
	x := symbolic.S("x")
	if !symbolic.IsPolynomial(symbolic.AddOf(symbolic.PowOf(x, symbolic.N(4)), symbolic.S("C1")), "x") {
		t.Error("x^4 + C1 is a polynomial in x")
	}
	if symbolic.IsPolynomial(symbolic.PowOf(x, symbolic.N(-1)), "x") {
		t.Error("1/x is not a polynomial")
	}
	if symbolic.IsPolynomial(symbolic.SinOf(x), "x") {
		t.Error("sin(x) is not a polynomial")
	}
}

// ============================================================
// Substitution tests
// ============================================================

func TestSubs_Simultaneous(t *testing.T) {
	a, b := symbolic.S("a"), symbolic.S("b")
	expr := symbolic.AddOf(a, symbolic.MulOf(symbolic.N(2), b))
	got := symbolic.Subs(expr, map[string]symbolic.Expr{"a": b, "b": a})
	if got.String() != "2*a + b" {
		t.Errorf("want '2*a + b', got %s", got.String())
	}
}

// ============================================================
// Solver tests
// ============================================================

func TestSolveLinear_Rational(t *testing.T) {
	// 3x + 1 = 0 => x = -1/3
	res := symbolic.SolveLinear(symbolic.N(3), symbolic.N(1))
	if res.Error != "" {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if res.Solutions[0].String() != "-1/3" {
		t.Errorf("expected -1/3, got %s", res.Solutions[0].String())
	}
}

func TestSolveLinear_ZeroA_ZeroB(t *testing.T) {
	res := symbolic.SolveLinear(symbolic.N(0), symbolic.N(0))
	if res.Error == "" {
		t.Error("expected error for 0x+0=0 (infinite solutions)")
	}
}

func TestSolveQuadraticExact_TwoRoots(t *testing.T) {
	// x^2 - 5x + 6 = 0 => x = 3, 2
	res := symbolic.SolveQuadraticExact(symbolic.N(1), symbolic.N(-5), symbolic.N(6))
	if res.Error != "" {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if len(res.Solutions) != 2 || !res.ExactForm {
		t.Fatalf("expected 2 exact solutions, got %v", res.Solutions)
	}
	if res.Solutions[0].String() != "3" || res.Solutions[1].String() != "2" {
		t.Errorf("expected 3 and 2, got %s and %s", res.Solutions[0], res.Solutions[1])
	}
}

func TestSolveQuadraticExact_Complex(t *testing.T) {
	res := symbolic.SolveQuadraticExact(symbolic.N(1), symbolic.N(0), symbolic.N(1))
	if !strings.Contains(res.Error, "complex") {
		t.Errorf("expected 'complex' in error, got %q", res.Error)
	}
}

// ============================================================
// JSON tests
// ============================================================

func TestToJSON_Num(t *testing.T) {
	j, err := symbolic.ToJSON(symbolic.N(3))
	if err != nil {
		t.Fatalf("ToJSON error: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(j), &m); err != nil {
		t.Fatal(err)
	}
	if m["type"] != "num" {
		t.Errorf("expected type=num, got %v", m["type"])
	}
}

func TestFromJSON_RoundTrip(t *testing.T) {
	x := symbolic.S("x")
	original := symbolic.AddOf(
		symbolic.MulOf(symbolic.N(2), x),
		symbolic.SinOf(symbolic.MulOf(symbolic.Pi(), x)),
		symbolic.PowOf(x, symbolic.F(1, 2)),
		symbolic.S("C1"),
	)
	j, _ := symbolic.ToJSON(original)
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(j), &m); err != nil {
		t.Fatal(err)
	}
	rebuilt, err := symbolic.FromJSON(m)
	if err != nil {
		t.Fatalf("FromJSON error: %v", err)
	}
	if rebuilt.String() != original.String() {
		t.Errorf("round-trip mismatch: %s != %s", rebuilt.String(), original.String())
	}
}

func TestFromJSON_UnknownFunction(t *testing.T) {
	_, err := symbolic.FromJSON(map[string]interface{}{
		"type": "func",
		"name": "gamma",
		"arg":  map[string]interface{}{"type": "sym", "name": "x"},
	})
	if err == nil {
		t.Error("expected error for unknown function")
	}
}

// ============================================================
// Higher-order derivative / determinism tests
// ============================================================

func TestDiffN(t *testing.T) {
	expr := symbolic.PowOf(symbolic.S("x"), symbolic.N(4))
	if got := symbolic.DiffN(expr, "x", 4).String(); got != "24" {
		t.Errorf("d^4/dx^4(x^4) should be 24, got %s", got)
	}
}

func TestEqual_CrossType(t *testing.T) {
	if symbolic.N(1).Equal(symbolic.S("x")) {
		t.Error("N(1) should not equal S(x)")
	}
}

func TestDeterminism(t *testing.T) {
	for i := 0; i < 10; i++ {
		expr := symbolic.AddOf(symbolic.S("z"), symbolic.S("a"), symbolic.S("m"), symbolic.N(1))
		result := expr.String()
		expected := symbolic.AddOf(symbolic.S("m"), symbolic.N(1), symbolic.S("z"), symbolic.S("a")).String()
		if result != expected {
			t.Errorf("non-deterministic output on iteration %d: %s != %s", i, result, expected)
		}
	}
}
