package antideriv

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/antideriv/symbolic"
)

func TestWithTimeoutZeroHasNoDeadline(t *testing.T) {
	ctx, cancel := withTimeout(context.Background(), 0)
	defer cancel()
	_, ok := ctx.Deadline()
	assert.False(t, ok)

	ctx, cancel = withTimeout(context.Background(), time.Minute)
	defer cancel()
	_, ok = ctx.Deadline()
	assert.True(t, ok)
}

func TestSolveConstraintsContextCanceled(t *testing.T) {
	tr, consts, err := BuildTriple(mustDerivative(t, "2*x"), First)
	require.NoError(t, err)
	conds, err := ParseConditions("f(0)=1")
	require.NoError(t, err)
	sys := BuildEquations(tr, conds, nil, consts)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := SolveConstraintsContext(ctx, sys)
	assert.Equal(t, OutcomeNoSolution, report.Outcome)
	assert.Equal(t, "solve timed out", report.Detail)
}

func TestBuildTripleContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := BuildTripleContext(ctx, mustDerivative(t, "x^2*sin(x)"), Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnintegrable)
	assert.ErrorIs(t, err, context.Canceled)
	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageIntegration, se.Stage)
}

func TestFindRootsContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	roots, err := FindRoots(ctx, mustDerivative(t, "x^2 - 1"))
	assert.Empty(t, roots)
	assert.ErrorIs(t, err, ErrRootFinding)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTinyTimeoutsDegrade(t *testing.T) {
	e := New(WithSolveTimeout(time.Nanosecond), WithRootTimeout(time.Nanosecond))
	res, err := e.Reconstruct(context.Background(), Request{Derivative: "2*x", Order: First, Conditions: "f(0)=1"})
	require.NoError(t, err)
	// Either stage may finish before a nanosecond deadline fires; both
	// outcomes must leave a usable triple.
	if res.Triple.F == nil || res.Triple.FPrime == nil || res.Triple.FDoublePrime == nil {
		t.Fatalf("incomplete triple: %+v", res.Triple)
	}
	assert.Contains(t, []Outcome{OutcomeUnique, OutcomeNoSolution}, res.Solve.Outcome)
}

func TestIntegrationTimeoutAborts(t *testing.T) {
	e := New(WithIntegrateTimeout(time.Nanosecond))
	res, err := e.Reconstruct(context.Background(), Request{Derivative: "x^2*sin(x)", Order: Second})
	if err == nil {
		require.NotNil(t, res.Triple.F)
		return
	}
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrUnintegrable)
}

func mustDerivative(t *testing.T, text string) symbolic.Expr {
	t.Helper()
	d, err := ParseDerivative(text)
	require.NoError(t, err)
	return d
}
