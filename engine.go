package antideriv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/njchilds90/antideriv/symbolic"
)

// Request is one reconstruction job in the textual form users type.
type Request struct {
	Derivative string
	Order      Order
	Conditions string
	Zeros      string
}

// Result is everything Reconstruct learned about f.
type Result struct {
	Derivative symbolic.Expr
	Order      Order
	// General is the triple before any constants were solved.
	General    Triple
	Triple     Triple
	Constants  []string
	Conditions []Condition
	Zeros      []ZeroConstraint
	System     EquationSystem
	Solve      SolveReport
	Critical   []Root
	Inflection []Root
	Warnings   []string
}

// FreeConstants lists constants still present in the final triple.
func (r *Result) FreeConstants() []string { return r.Triple.FreeConstants() }

// Observer receives per-stage timings and solve outcomes.
type Observer interface {
	ObserveStage(stage string, d time.Duration, err error)
	ObserveOutcome(o Outcome)
}

type nopObserver struct{}

func (nopObserver) ObserveStage(string, time.Duration, error) {}
func (nopObserver) ObserveOutcome(Outcome)                    {}

// Engine runs reconstructions. It holds no per-request state and is safe
// for concurrent use.
type Engine struct {
	log              *zap.Logger
	integrateTimeout time.Duration
	solveTimeout     time.Duration
	rootTimeout      time.Duration
	observer         Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithIntegrateTimeout bounds antidifferentiation. Zero means no limit.
func WithIntegrateTimeout(d time.Duration) Option {
	return func(e *Engine) { e.integrateTimeout = d }
}

// WithSolveTimeout bounds the constraint solve. Zero means no limit.
func WithSolveTimeout(d time.Duration) Option { return func(e *Engine) { e.solveTimeout = d } }

// WithRootTimeout bounds critical point finding and, separately,
// inflection point finding. Zero means no limit.
func WithRootTimeout(d time.Duration) Option { return func(e *Engine) { e.rootTimeout = d } }

// WithObserver registers o for stage metrics.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// New returns an Engine with the given options applied.
func New(opts ...Option) *Engine {
	e := &Engine{
		log:              zap.NewNop(),
		integrateTimeout: 5 * time.Second,
		solveTimeout:     5 * time.Second,
		rootTimeout:      5 * time.Second,
		observer:         nopObserver{},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// ParseDerivative parses text as an expression in x.
func ParseDerivative(text string) (symbolic.Expr, error) {
	d, err := symbolic.Parse(text, Variable)
	if err != nil {
		return nil, stageErr(StageParse, 0, text, fmt.Errorf("%w: %w", ErrParse, err))
	}
	return d, nil
}

// Reconstruct runs the whole pipeline. Parse, condition and integration
// failures abort with a *StageError; an integration timeout wraps
// context.DeadlineExceeded. An unsolvable system, a solve or root timeout
// and failed root finding are reported in Result instead.
func (e *Engine) Reconstruct(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := ParseOrder(int(req.Order)); err != nil {
		return nil, stageErr(StageParse, 0, "", err)
	}
	log := e.log.With(zap.String("derivative", req.Derivative), zap.Stringer("order", req.Order))

	var d symbolic.Expr
	if err := e.stage(StageParse, func() (err error) {
		d, err = ParseDerivative(req.Derivative)
		return err
	}); err != nil {
		log.Info("reconstruction aborted", zap.Error(err))
		return nil, err
	}

	res := &Result{Derivative: d, Order: req.Order}
	if err := e.stage(StageIntegration, func() error {
		ictx, cancel := withTimeout(ctx, e.integrateTimeout)
		defer cancel()
		var err error
		res.General, res.Constants, err = BuildTripleContext(ictx, d, req.Order)
		return err
	}); err != nil {
		log.Info("reconstruction aborted", zap.Error(err))
		return nil, err
	}

	if err := e.stage(StageConditions, func() (err error) {
		if res.Conditions, err = ParseConditions(req.Conditions); err != nil {
			return err
		}
		res.Zeros, err = ParseZeros(req.Zeros)
		return err
	}); err != nil {
		log.Info("reconstruction aborted", zap.Error(err))
		return nil, err
	}
	res.System = BuildEquations(res.General, res.Conditions, res.Zeros, res.Constants)

	start := time.Now()
	sctx, cancel := withTimeout(ctx, e.solveTimeout)
	report := SolveConstraintsContext(sctx, res.System)
	cancel()
	res.Solve = report
	e.observer.ObserveStage(StageSolve, time.Since(start), nil)
	e.observer.ObserveOutcome(report.Outcome)
	log.Debug("constraints solved",
		zap.Int("equations", len(res.System.Equations)),
		zap.Stringer("outcome", report.Outcome),
		zap.String("detail", report.Detail))
	switch report.Outcome {
	case OutcomeNoSolution:
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s: no solution for %v (%s); constants left symbolic", StageSolve, res.Constants, report.Detail))
	case OutcomeMultiple:
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %s", StageSolve, report.Detail))
	}

	start = time.Now()
	res.Triple = res.General.Subs(report.Solution)
	var errs []error
	var err error
	if res.Critical, err = e.findRoots(ctx, res.Triple.FPrime); err != nil {
		errs = append(errs, err)
	}
	if res.Inflection, err = e.findRoots(ctx, res.Triple.FDoublePrime); err != nil {
		errs = append(errs, err)
	}
	rootErr := errors.Join(errs...)
	e.observer.ObserveStage(StageAnalysis, time.Since(start), rootErr)
	if rootErr != nil {
		log.Debug("root finding degraded", zap.Error(rootErr))
		res.Warnings = append(res.Warnings, splitErrors(rootErr)...)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Debug("reconstruction complete",
		zap.Stringer("f", res.Triple.F),
		zap.Int("critical", len(res.Critical)),
		zap.Int("inflection", len(res.Inflection)))
	return res, nil
}

func (e *Engine) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	e.observer.ObserveStage(name, time.Since(start), err)
	return err
}

// findRoots runs FindRoots under its own rootTimeout deadline.
func (e *Engine) findRoots(ctx context.Context, expr symbolic.Expr) ([]Root, error) {
	rctx, cancel := withTimeout(ctx, e.rootTimeout)
	defer cancel()
	return FindRoots(rctx, expr)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func splitErrors(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}

// Sample evaluates the result's final triple on n points of [min, max].
// Evaluation failures are returned as warnings alongside the curves.
func (r *Result) Sample(min, max float64, n int) (Curves, []string, error) {
	xs, err := Grid(min, max, n)
	if err != nil {
		return Curves{}, nil, err
	}
	c, err := Sample(r.Triple, xs)
	if err != nil {
		if !errors.Is(err, ErrEvaluation) {
			return Curves{}, nil, err
		}
		return c, splitErrors(err), nil
	}
	return c, nil, nil
}
