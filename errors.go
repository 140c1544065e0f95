package antideriv

import (
	"errors"
	"fmt"
)

// Sentinel errors for the reconstruction pipeline. Each is returned wrapped
// in a *StageError so callers can match with errors.Is and still recover
// the stage and input with errors.As.
var (
	// ErrParse indicates the derivative text is not a valid expression.
	ErrParse = errors.New("derivative could not be parsed")

	// ErrMalformedCondition indicates a condition line or zero token does
	// not follow the condition grammar.
	ErrMalformedCondition = errors.New("malformed condition")

	// ErrUnintegrable indicates no antiderivative rule applies.
	ErrUnintegrable = errors.New("no closed-form antiderivative")

	// ErrRootFinding indicates critical or inflection points could not be
	// determined in closed form.
	ErrRootFinding = errors.New("root finding failed")

	// ErrEvaluation indicates a curve could not be evaluated at some sample
	// points.
	ErrEvaluation = errors.New("evaluation failed")
)

// Stage names used in StageError and in logs.
const (
	StageParse       = "parse"
	StageConditions  = "conditions"
	StageIntegration = "integration"
	StageSolve       = "solve"
	StageAnalysis    = "analysis"
	StageSampling    = "sampling"
)

// StageError attributes a failure to a pipeline stage. Line is the 1-based
// condition line when the failure came from a condition, otherwise 0.
type StageError struct {
	Stage string
	Line  int
	Input string
	Err   error
}

func (e *StageError) Error() string {
	switch {
	case e.Line > 0:
		return fmt.Sprintf("%s: line %d %q: %v", e.Stage, e.Line, e.Input, e.Err)
	case e.Input != "":
		return fmt.Sprintf("%s: %q: %v", e.Stage, e.Input, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage string, line int, input string, err error) *StageError {
	return &StageError{Stage: stage, Line: line, Input: input, Err: err}
}
