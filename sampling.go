package antideriv

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/njchilds90/antideriv/symbolic"
)

// DefaultSamples is the grid size used when a caller does not choose one.
const DefaultSamples = 600

// MaxSamples is the largest grid Grid will build.
const MaxSamples = 10000

// Grid returns n evenly spaced points covering [min, max], 2 <= n <=
// MaxSamples.
func Grid(min, max float64, n int) ([]float64, error) {
	if n < 2 || n > MaxSamples {
		return nil, fmt.Errorf("grid needs between 2 and %d points, got %d", MaxSamples, n)
	}
	if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) || !(max > min) {
		return nil, fmt.Errorf("invalid interval [%v, %v]", min, max)
	}
	return floats.Span(make([]float64, n), min, max), nil
}

// Curves holds the sampled triple.
type Curves struct {
	X            []float64 `json:"x"`
	F            []float64 `json:"f"`
	FPrime       []float64 `json:"f_prime"`
	FDoublePrime []float64 `json:"f_double_prime"`
}

// MarshalJSON writes NaN samples as null.
func (c Curves) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		X            []*float64 `json:"x"`
		F            []*float64 `json:"f"`
		FPrime       []*float64 `json:"f_prime"`
		FDoublePrime []*float64 `json:"f_double_prime"`
	}{nullable(c.X), nullable(c.F), nullable(c.FPrime), nullable(c.FDoublePrime)})
}

func nullable(xs []float64) []*float64 {
	out := make([]*float64, len(xs))
	for i := range xs {
		if !math.IsNaN(xs[i]) {
			out[i] = &xs[i]
		}
	}
	return out
}

// EvaluationError reports a curve that could not be evaluated at some
// points.
type EvaluationError struct {
	Member string
	Bad    int
	Total  int
	Err    error
}

func (e *EvaluationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", StageSampling, e.Member, e.Err)
	}
	return fmt.Sprintf("%s: %s: %d of %d points not finite", StageSampling, e.Member, e.Bad, e.Total)
}

func (e *EvaluationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrEvaluation, e.Err}
	}
	return []error{ErrEvaluation}
}

// Sample evaluates every member of t at xs. Points that cannot be
// evaluated are NaN in the result; each affected member adds an
// *EvaluationError to the returned error.
func Sample(t Triple, xs []float64) (Curves, error) {
	c := Curves{X: append([]float64(nil), xs...)}
	var errs []error
	members := []struct {
		name string
		expr symbolic.Expr
		dst  *[]float64
	}{
		{"f", t.F, &c.F},
		{"f'", t.FPrime, &c.FPrime},
		{"f''", t.FDoublePrime, &c.FDoublePrime},
	}
	for _, m := range members {
		ys, err := sampleExpr(m.expr, xs)
		*m.dst = ys
		if err != nil {
			err.Member = m.name
			errs = append(errs, err)
		}
	}
	return c, errors.Join(errs...)
}

func sampleExpr(e symbolic.Expr, xs []float64) ([]float64, *EvaluationError) {
	ys := make([]float64, len(xs))
	fn, err := symbolic.Lambdify(e, Variable)
	if err != nil {
		for i := range ys {
			ys[i] = math.NaN()
		}
		return ys, &EvaluationError{Bad: len(xs), Total: len(xs), Err: err}
	}
	bad := 0
	for i, x := range xs {
		y := fn(x)
		if math.IsNaN(y) || math.IsInf(y, 0) {
			y = math.NaN()
			bad++
		}
		ys[i] = y
	}
	if bad > 0 {
		return ys, &EvaluationError{Bad: bad, Total: len(xs)}
	}
	return ys, nil
}
