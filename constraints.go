package antideriv

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/njchilds90/antideriv/symbolic"
)

// EquationSystem pairs equations (each read as expr = 0) with the
// constants to solve for. Sources[i] describes where Equations[i] came
// from.
type EquationSystem struct {
	Equations []symbolic.Expr
	Sources   []string
	Unknowns  []string
}

// BuildEquations turns conditions and zeros into equations over the
// triple's constants, conditions first, each group in input order.
func BuildEquations(t Triple, conds []Condition, zeros []ZeroConstraint, unknowns []string) EquationSystem {
	sys := EquationSystem{Unknowns: unknowns}
	for _, c := range conds {
		at := symbolic.Sub(t.Member(c.Target), Variable, c.Point)
		sys.Equations = append(sys.Equations, symbolic.AddOf(at, symbolic.MulOf(symbolic.N(-1), c.Value)))
		sys.Sources = append(sys.Sources, c.String())
	}
	for _, z := range zeros {
		sys.Equations = append(sys.Equations, symbolic.Sub(t.FPrime, Variable, z.Point))
		sys.Sources = append(sys.Sources, fmt.Sprintf("f'(%s)=0", z.Point))
	}
	return sys
}

// Outcome classifies a solve.
type Outcome int

const (
	// OutcomeSkipped: no equations or no unknowns.
	OutcomeSkipped Outcome = iota
	// OutcomeNoSolution: inconsistent, or beyond the solver.
	OutcomeNoSolution
	// OutcomeUnique: every constant determined.
	OutcomeUnique
	// OutcomeUnderdetermined: some constants remain free.
	OutcomeUnderdetermined
	// OutcomeMultiple: several solutions; the first in solver order was
	// selected.
	OutcomeMultiple
)

var outcomeNames = map[Outcome]string{
	OutcomeSkipped:         "skipped",
	OutcomeNoSolution:      "no_solution",
	OutcomeUnique:          "unique",
	OutcomeUnderdetermined: "underdetermined",
	OutcomeMultiple:        "multiple",
}

func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// Solved reports whether a mapping was applied.
func (o Outcome) Solved() bool {
	return o == OutcomeUnique || o == OutcomeUnderdetermined || o == OutcomeMultiple
}

// Solution maps constants to their solved values. Values may mention
// constants that remain free.
type Solution map[string]symbolic.Expr

// SolveReport is the outcome of SolveConstraints. Solution is nil unless
// Outcome.Solved().
type SolveReport struct {
	Outcome    Outcome
	Solution   Solution
	Candidates []Solution
	Free       []string
	Detail     string
}

// SolveConstraints solves sys for its unknowns. Inconsistent and
// underdetermined systems are outcomes, not errors.
func SolveConstraints(sys EquationSystem) SolveReport {
	return SolveConstraintsContext(context.Background(), sys)
}

// SolveConstraintsContext is SolveConstraints with cancellation. A ctx
// that ends during the solve yields OutcomeNoSolution.
func SolveConstraintsContext(ctx context.Context, sys EquationSystem) SolveReport {
	if len(sys.Equations) == 0 || len(sys.Unknowns) == 0 {
		return SolveReport{Outcome: OutcomeSkipped}
	}
	if ctx.Err() != nil {
		return SolveReport{Outcome: OutcomeNoSolution, Detail: "solve timed out"}
	}
	lin, err := symbolic.SolveLinearSystem(sys.Equations, sys.Unknowns)
	switch {
	case err == nil:
		return linearReport(lin)
	case errors.Is(err, symbolic.ErrNonLinear) && len(sys.Unknowns) == 1:
		return solveSingle(ctx, sys)
	}
	return SolveReport{Outcome: OutcomeNoSolution, Detail: err.Error()}
}

func linearReport(lin symbolic.LinearSolution) SolveReport {
	switch lin.Outcome {
	case symbolic.LinearInconsistent:
		return SolveReport{Outcome: OutcomeNoSolution, Detail: "inconsistent system"}
	case symbolic.LinearParametric:
		sol := Solution(lin.Values)
		return SolveReport{Outcome: OutcomeUnderdetermined, Solution: sol, Candidates: []Solution{sol}, Free: lin.Free}
	}
	sol := Solution(lin.Values)
	return SolveReport{Outcome: OutcomeUnique, Solution: sol, Candidates: []Solution{sol}}
}

// solveSingle handles a single constant entering non-linearly: candidates
// are the real roots of the first equation that satisfy the rest.
func solveSingle(ctx context.Context, sys EquationSystem) SolveReport {
	u := sys.Unknowns[0]
	roots, err := symbolic.RealRootsContext(ctx, sys.Equations[0], u)
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return SolveReport{Outcome: OutcomeNoSolution, Detail: "solve timed out"}
	case err != nil:
		return SolveReport{Outcome: OutcomeNoSolution, Detail: err.Error()}
	}
	var candidates []Solution
	for _, r := range roots {
		if satisfiesAll(sys.Equations[1:], u, r) {
			candidates = append(candidates, Solution{u: r})
		}
	}
	switch len(candidates) {
	case 0:
		return SolveReport{Outcome: OutcomeNoSolution, Detail: "no real root satisfies every equation"}
	case 1:
		return SolveReport{Outcome: OutcomeUnique, Solution: candidates[0], Candidates: candidates}
	}
	return SolveReport{
		Outcome:    OutcomeMultiple,
		Solution:   candidates[0],
		Candidates: candidates,
		Detail:     fmt.Sprintf("%d solutions, first in solver order selected", len(candidates)),
	}
}

func satisfiesAll(eqs []symbolic.Expr, u string, value symbolic.Expr) bool {
	for _, eq := range eqs {
		n, ok := symbolic.Sub(eq, u, value).Eval()
		if !ok || math.Abs(n.Float64()) > 1e-9 {
			return false
		}
	}
	return true
}
