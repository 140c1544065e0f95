package antideriv

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/njchilds90/antideriv/symbolic"
)

// Variable is the free variable of every reconstructed function.
const Variable = "x"

// Order is the order of the supplied derivative.
type Order int

const (
	First  Order = 1
	Second Order = 2
)

// ParseOrder validates n as a derivative order.
func ParseOrder(n int) (Order, error) {
	switch Order(n) {
	case First, Second:
		return Order(n), nil
	}
	return 0, fmt.Errorf("derivative order must be 1 or 2, got %d", n)
}

func (o Order) String() string {
	switch o {
	case First:
		return "first"
	case Second:
		return "second"
	}
	return fmt.Sprintf("Order(%d)", int(o))
}

// Constants names the free constants introduced for o, one per
// antidifferentiation step.
func (o Order) Constants() []string {
	names := make([]string, 0, int(o))
	for i := 1; i <= int(o); i++ {
		names = append(names, fmt.Sprintf("C%d", i))
	}
	return names
}

// Triple is f together with its first two derivatives. Members are kept
// consistent by construction: FPrime is d/dx F and FDoublePrime is d/dx
// FPrime.
type Triple struct {
	F            symbolic.Expr
	FPrime       symbolic.Expr
	FDoublePrime symbolic.Expr
}

// Member returns F for Value and FPrime for FirstDerivative.
func (t Triple) Member(target Target) symbolic.Expr {
	if target == FirstDerivative {
		return t.FPrime
	}
	return t.F
}

// Subs applies mapping to all three members at once.
func (t Triple) Subs(mapping map[string]symbolic.Expr) Triple {
	if len(mapping) == 0 {
		return t
	}
	return Triple{
		F:            symbolic.Subs(t.F, mapping),
		FPrime:       symbolic.Subs(t.FPrime, mapping),
		FDoublePrime: symbolic.Subs(t.FDoublePrime, mapping),
	}
}

// FreeConstants lists the symbols other than Variable still present in the
// triple, sorted.
func (t Triple) FreeConstants() []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range []symbolic.Expr{t.F, t.FPrime, t.FDoublePrime} {
		for _, name := range symbolic.SortedSymbols(e) {
			if name != Variable && !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	sort.Strings(out)
	return out
}

// BuildTriple antidifferentiates d according to order. For Second the
// integration is sequential so C1 enters f' and f with matching
// coefficients.
func BuildTriple(d symbolic.Expr, order Order) (Triple, []string, error) {
	return BuildTripleContext(context.Background(), d, order)
}

// BuildTripleContext is BuildTriple with cancellation. When ctx ends first
// the *StageError wraps both ErrUnintegrable and ctx.Err().
func BuildTripleContext(ctx context.Context, d symbolic.Expr, order Order) (Triple, []string, error) {
	constants := order.Constants()
	switch order {
	case First:
		f, err := antiderivative(ctx, d, constants[0])
		if err != nil {
			return Triple{}, nil, err
		}
		return Triple{F: f, FPrime: d, FDoublePrime: symbolic.Diff(d, Variable)}, constants, nil
	case Second:
		fp, err := antiderivative(ctx, d, constants[0])
		if err != nil {
			return Triple{}, nil, err
		}
		f, err := antiderivative(ctx, fp, constants[1])
		if err != nil {
			return Triple{}, nil, err
		}
		return Triple{F: f, FPrime: fp, FDoublePrime: d}, constants, nil
	}
	return Triple{}, nil, fmt.Errorf("unsupported derivative order %d", int(order))
}

func antiderivative(ctx context.Context, e symbolic.Expr, constant string) (symbolic.Expr, error) {
	prim, err := symbolic.IntegrateContext(ctx, e, Variable)
	switch {
	case errors.Is(err, symbolic.ErrNoAntiderivative):
		return nil, stageErr(StageIntegration, 0, e.String(), ErrUnintegrable)
	case err != nil:
		return nil, stageErr(StageIntegration, 0, e.String(), fmt.Errorf("%w: %w", ErrUnintegrable, err))
	}
	return symbolic.AddOf(prim, symbolic.S(constant)), nil
}
