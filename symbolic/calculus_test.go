package symbolic_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/njchilds90/antideriv/symbolic"
)

func mustParse(t *testing.T, text string) symbolic.Expr {
	t.Helper()
	e, err := symbolic.Parse(text, "x", "C1", "C2")
	require.NoError(t, err, "parse %q", text)
	return e
}

func rootValues(t *testing.T, roots []symbolic.Expr) []float64 {
	t.Helper()
	out := make([]float64, len(roots))
	for i, r := range roots {
		n, ok := r.Eval()
		require.True(t, ok, "root %s is not numeric", r)
		out[i] = n.Float64()
	}
	return out
}

var samplePoints = []float64{0.3, 0.7, 1.3, 2.1}

// ============================================================
// Parser
// ============================================================

func TestParse_Precedence(t *testing.T) {
	cases := map[string]string{
		"2*x + 1":    "2*x + 1",
		"-x^2":       "-x^2",
		"2^3^2":      "512",
		"x**2":       "x^2",
		"log(x)":     "ln(x)",
		"sqrt(4)":    "2",
		"1/2":        "1/2",
		"x - 1":      "x - 1",
		"0.5*x":      "1/2*x",
		"(x + 1)*2":  "2*x + 2",
		"2^-1":       "1/2",
		"E":          "E",
		"pi/pi":      "1",
		"C1 + x^2":   "x^2 + C1",
		"+x - (-3)":  "x + 3",
		"1.5e1 * x ": "15*x",
	}
	for in, want := range cases {
		got := mustParse(t, in)
		assert.Equal(t, want, got.String(), "Parse(%q)", in)
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		in  string
		pos int
	}{
		{"2x", 1},
		{"y + 1", 0},
		{"sin(x", 5},
		{"x +", 3},
		{"", 0},
		{"foo(x)", 0},
		{"x $ 1", 2},
		{"1..2", 0},
	}
	for _, c := range cases {
		_, err := symbolic.Parse(c.in, "x")
		var se *symbolic.SyntaxError
		if assert.ErrorAs(t, err, &se, "Parse(%q)", c.in) {
			assert.Equal(t, c.pos, se.Pos, "Parse(%q): %v", c.in, err)
		}
	}
}

// ============================================================
// Integration
// ============================================================

func TestIntegrate_Strings(t *testing.T) {
	cases := map[string]string{
		"5":      "5*x",
		"x":      "1/2*x^2",
		"2*x":    "x^2",
		"x^2":    "1/3*x^3",
		"1/x":    "ln(x)",
		"sin(x)": "-cos(x)",
		"cos(x)": "sin(x)",
		"exp(x)": "exp(x)",
		"C1":     "C1*x",
	}
	for in, want := range cases {
		got, ok := symbolic.Integrate(mustParse(t, in), "x")
		require.True(t, ok, "Integrate(%s)", in)
		assert.Equal(t, want, got.String(), "Integrate(%s)", in)
	}
}

func TestIntegrate_RoundTripThroughDiff(t *testing.T) {
	inputs := []string{
		"3*x^2 + 2*x - 7",
		"(x + 1)^3",
		"(2*x + 1)^5",
		"1/(3*x + 1)",
		"sqrt(x)",
		"exp(2*x) + sin(3*x - 1)",
		"cos(x/2)",
		"x*exp(x)",
		"x^2*sin(x)",
		"x*cos(2*x)",
		"x*ln(x)",
		"ln(x)",
		"atan(x)",
		"1/(x^2 + 1)",
		"1/(4*x^2 + 9)",
		"2^x",
		"sinh(x) + cosh(2*x)",
		"tan(x)",
		"(x + 1)*(x - 2)",
		"C1*x + C2",
	}
	fixed := map[string]symbolic.Expr{"C1": symbolic.N(3), "C2": symbolic.F(-1, 2)}
	for _, in := range inputs {
		f := mustParse(t, in)
		anti, ok := symbolic.Integrate(f, "x")
		if !assert.True(t, ok, "Integrate(%s)", in) {
			continue
		}
		back := symbolic.Diff(anti, "x")
		assert.True(t, symbolic.EquivalentAt(back, f, "x", samplePoints, fixed),
			"d/dx(%s) = %s, want %s", anti, back, f)
	}
}

func TestIntegrate_Unsupported(t *testing.T) {
	for _, in := range []string{"exp(x^2)", "sin(x)/x", "1/(x^3 + 1)"} {
		_, ok := symbolic.Integrate(mustParse(t, in), "x")
		assert.False(t, ok, "Integrate(%s) should fail", in)
	}
}

func TestIntegrateContext_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := symbolic.IntegrateContext(ctx, mustParse(t, "x^2*sin(x)"), "x")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = symbolic.IntegrateContext(context.Background(), mustParse(t, "exp(x^2)"), "x")
	assert.ErrorIs(t, err, symbolic.ErrNoAntiderivative)
}

func TestExpand_Powers(t *testing.T) {
	cases := map[string]string{
		"x^2 - 2":       "x^2 - 2",
		"x^3":           "x^3",
		"x^3 - x":       "x^3 - x",
		"x*(x + 1)":     "x^2 + x",
		"(x + 1)^2":     "x^2 + 2*x + 1",
		"(x - 1)^3":     "x^3 - 3*x^2 + 3*x - 1",
		"2*(x + 3)":     "2*x + 6",
		"(x + 1)^2*x":   "x^3 + 2*x^2 + x",
		"sin(x^2)":      "sin(x^2)",
		"(x + 1)^(1/2)": "(x + 1)^(1/2)",
	}
	for in, want := range cases {
		e := mustParse(t, in)
		done := make(chan string, 1)
		go func() { done <- symbolic.Expand(e).String() }()
		select {
		case got := <-done:
			assert.Equal(t, mustParse(t, want).String(), got, "Expand(%s)", in)
		case <-time.After(2 * time.Second):
			t.Fatalf("Expand(%s) did not return", in)
		}
	}
}

// ============================================================
// Real roots
// ============================================================

func TestRealRoots_Exact(t *testing.T) {
	cases := map[string][]string{
		"x^2 - 1":                 {"-1", "1"},
		"x^3 - 6*x^2 + 11*x - 6":  {"1", "2", "3"},
		"x^5 - x":                 {"-1", "0", "1"},
		"2*x + 1":                 {"-1/2"},
		"(x - 1)^2*(x + 2)":       {"-2", "1"},
		"x*exp(x)":                {"0"},
		"sin(x)":                  {"0", "pi"},
		"ln(x)":                   {"1"},
		"exp(x)":                  {},
		"1/x":                     {},
		"x^2 + 1":                 {},
		"7":                       {},
		"2*x + C1":                {},
		"x*(x + C1)":              {"0"},
		"3*x^2 - 12":              {"-2", "2"},
		"x^4 - 5*x^2 + 4":         {"-2", "-1", "1", "2"},
		"x^3 - 3/4*x + 1/4":       {"-1", "1/2"},
		"abs(x - 3)":              {"3"},
		"atan(2*x - 4)":           {"2"},
		"sinh(x) * (x^2 - 9)":     {"-3", "0", "3"},
		"0.5*x - 1":               {"2"},
		"(x^2 - 2*x + 1)*cosh(x)": {"1"},
	}
	for in, want := range cases {
		roots, err := symbolic.RealRoots(mustParse(t, in), "x")
		require.NoError(t, err, "RealRoots(%s)", in)
		got := make([]string, len(roots))
		for i, r := range roots {
			got[i] = r.String()
		}
		assert.Equal(t, want, got, "RealRoots(%s)", in)
	}
}

func TestRealRoots_Numeric(t *testing.T) {
	cases := map[string][]float64{
		"x^2 - 2":         {-math.Sqrt2, math.Sqrt2},
		"x^3 - 2":         {math.Cbrt(2)},
		"x^4 - 3":         {-math.Pow(3, 0.25), math.Pow(3, 0.25)},
		"x^5 - x - 1":     {1.1673039782614187},
		"cos(x)":          {math.Pi / 2, 3 * math.Pi / 2},
		"x^3 - 3*x + 1":   {-1.8793852415718169, 0.34729635533386066, 1.532088886237956},
		"x^6 - 3*x^2 + 1": {-1.23777578189184, -0.5893185516627325, 0.5893185516627325, 1.23777578189184},
		"x^3 + 2":               {-math.Cbrt(2)},
		"x^3 + 3*x^2 + 3*x + 3": {-1 - math.Cbrt(2)},
		"x^3 + x + 1":           {-0.6823278038280193},
	}
	approx := cmpopts.EquateApprox(0, 1e-9)
	for in, want := range cases {
		roots, err := symbolic.RealRoots(mustParse(t, in), "x")
		require.NoError(t, err, "RealRoots(%s)", in)
		if diff := cmp.Diff(want, rootValues(t, roots), approx); diff != "" {
			t.Errorf("RealRoots(%s) mismatch (-want +got):\n%s", in, diff)
		}
	}
}

func TestSolveCubic_SingleRealRoot(t *testing.T) {
	res := symbolic.SolveCubic(symbolic.N(1), symbolic.N(0), symbolic.N(0), symbolic.N(2))
	require.Empty(t, res.Error)
	require.Len(t, res.Solutions, 1)
	n, ok := res.Solutions[0].Eval()
	require.True(t, ok)
	assert.InDelta(t, -math.Cbrt(2), n.Float64(), 1e-12)
}

func TestRealRootsContext_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := symbolic.RealRootsContext(ctx, mustParse(t, "x^2 - 1"), "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRealRoots_NoClosedForm(t *testing.T) {
	_, err := symbolic.RealRoots(mustParse(t, "x - cos(x)"), "x")
	assert.True(t, errors.Is(err, symbolic.ErrNoClosedForm), "got %v", err)
}

func TestPolyRealRoots_Companion(t *testing.T) {
	// (x - 1)(x - 2)(x - 3)(x - 4)(x + 5)
	coeffs := []float64{120, -226, 125, -15, -5, 1}
	roots, err := symbolic.PolyRealRoots(coeffs)
	require.NoError(t, err)
	if diff := cmp.Diff([]float64{-5, 1, 2, 3, 4}, roots, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

// ============================================================
// Linear systems
// ============================================================

func TestSolveLinearSystem_Unique(t *testing.T) {
	eqs := []symbolic.Expr{mustParse(t, "C1 + C2 - 3"), mustParse(t, "C1 - C2 - 1")}
	sol, err := symbolic.SolveLinearSystem(eqs, []string{"C1", "C2"})
	require.NoError(t, err)
	assert.Equal(t, symbolic.LinearUnique, sol.Outcome)
	assert.Equal(t, "2", sol.Values["C1"].String())
	assert.Equal(t, "1", sol.Values["C2"].String())
	assert.Equal(t, 2, sol.Rank)
}

func TestSolveLinearSystem_Overdetermined(t *testing.T) {
	eqs := []symbolic.Expr{mustParse(t, "C1 - 2"), mustParse(t, "2*C1 - 4"), mustParse(t, "C1 + C2")}
	sol, err := symbolic.SolveLinearSystem(eqs, []string{"C1", "C2"})
	require.NoError(t, err)
	assert.Equal(t, symbolic.LinearUnique, sol.Outcome)
	assert.Equal(t, "2", sol.Values["C1"].String())
	assert.Equal(t, "-2", sol.Values["C2"].String())
}

func TestSolveLinearSystem_Inconsistent(t *testing.T) {
	eqs := []symbolic.Expr{mustParse(t, "C1 - 1"), mustParse(t, "C1 - 2")}
	sol, err := symbolic.SolveLinearSystem(eqs, []string{"C1"})
	require.NoError(t, err)
	assert.Equal(t, symbolic.LinearInconsistent, sol.Outcome)
	assert.Nil(t, sol.Values)
}

func TestSolveLinearSystem_Parametric(t *testing.T) {
	eqs := []symbolic.Expr{mustParse(t, "C1 + C2 - 1")}
	sol, err := symbolic.SolveLinearSystem(eqs, []string{"C1", "C2"})
	require.NoError(t, err)
	assert.Equal(t, symbolic.LinearParametric, sol.Outcome)
	assert.Equal(t, []string{"C2"}, sol.Free)
	assert.Equal(t, "-C2 + 1", sol.Values["C1"].String())
}

func TestSolveLinearSystem_NonLinear(t *testing.T) {
	_, err := symbolic.SolveLinearSystem([]symbolic.Expr{mustParse(t, "C1^2 - 1")}, []string{"C1"})
	assert.ErrorIs(t, err, symbolic.ErrNonLinear)
}

func TestMatrix_RREF(t *testing.T) {
	m := symbolic.MatrixFromSlice(2, 3, []symbolic.Expr{
		symbolic.N(2), symbolic.N(4), symbolic.N(6),
		symbolic.N(1), symbolic.N(3), symbolic.N(5),
	})
	pivots := m.RREF(2)
	assert.Equal(t, []int{0, 1}, pivots)
	assert.Equal(t, "[[1, 0, -1], [0, 1, 2]]", m.String())
}

// ============================================================
// Lambdify
// ============================================================

func TestLambdify_MatchesFiniteDifference(t *testing.T) {
	f := mustParse(t, "x^3*sin(x) + exp(x/3) - ln(x)")
	fn, err := symbolic.Lambdify(f, "x")
	require.NoError(t, err)
	dfn, err := symbolic.Lambdify(symbolic.Diff(f, "x"), "x")
	require.NoError(t, err)
	for _, x := range samplePoints {
		want := fd.Derivative(fn, x, &fd.Settings{Formula: fd.Central})
		assert.InDelta(t, want, dfn(x), 1e-5, "f'(%g)", x)
	}
}

func TestLambdify_Values(t *testing.T) {
	fn, err := symbolic.Lambdify(mustParse(t, "x^2 + 1"), "x")
	require.NoError(t, err)
	assert.Equal(t, 10.0, fn(3))

	sq, err := symbolic.Lambdify(mustParse(t, "sqrt(x) + pi"), "x")
	require.NoError(t, err)
	assert.InDelta(t, 2+math.Pi, sq(4), 1e-12)

	ln, err := symbolic.Lambdify(mustParse(t, "ln(x)"), "x")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(ln(-1)))
}

func TestLambdify_Unbound(t *testing.T) {
	_, err := symbolic.Lambdify(mustParse(t, "C1*x"), "x")
	assert.ErrorIs(t, err, symbolic.ErrUnbound)
}
