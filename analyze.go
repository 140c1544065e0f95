package antideriv

import (
	"context"
	"errors"
	"fmt"

	"github.com/njchilds90/antideriv/symbolic"
)

// Root is a real root kept both exactly and as a float.
type Root struct {
	Expr  symbolic.Expr
	Value float64
}

// Analysis is the substituted triple with its critical and inflection
// points.
type Analysis struct {
	Triple     Triple
	Critical   []Root
	Inflection []Root
}

// Analyze substitutes sol into t and finds the real roots of f' and f''.
// A root-finding failure leaves that list empty and is returned as an
// error wrapping ErrRootFinding; the rest of the analysis is still valid.
func Analyze(t Triple, sol Solution) (Analysis, error) {
	a := Analysis{Triple: t.Subs(sol)}
	var errs []error
	var err error
	if a.Critical, err = FindRoots(context.Background(), a.Triple.FPrime); err != nil {
		errs = append(errs, err)
	}
	if a.Inflection, err = FindRoots(context.Background(), a.Triple.FDoublePrime); err != nil {
		errs = append(errs, err)
	}
	return a, errors.Join(errs...)
}

// FindRoots is the root step of Analyze on its own. A ctx that ends
// first yields an error wrapping ErrRootFinding and ctx.Err().
func FindRoots(ctx context.Context, e symbolic.Expr) ([]Root, error) {
	exprs, err := symbolic.RealRootsContext(ctx, e, Variable)
	if err != nil {
		return nil, stageErr(StageAnalysis, 0, e.String(), fmt.Errorf("%w: %w", ErrRootFinding, err))
	}
	roots := make([]Root, 0, len(exprs))
	for _, r := range exprs {
		n, ok := r.Eval()
		if !ok {
			continue
		}
		roots = append(roots, Root{Expr: r, Value: n.Float64()})
	}
	return roots, nil
}

// Values returns the float values of roots.
func Values(roots []Root) []float64 {
	out := make([]float64, len(roots))
	for i, r := range roots {
		out[i] = r.Value
	}
	return out
}
