package antideriv

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/njchilds90/antideriv/symbolic"
)

// Target selects the member of the triple a condition pins.
type Target int

const (
	// Value pins f itself.
	Value Target = iota
	// FirstDerivative pins f'.
	FirstDerivative
)

func (t Target) String() string {
	if t == FirstDerivative {
		return "f'"
	}
	return "f"
}

// Condition states that f (or f') at Point equals Value.
type Condition struct {
	Line   int
	Text   string
	Point  *symbolic.Num
	Target Target
	Value  *symbolic.Num
}

func (c Condition) String() string {
	return fmt.Sprintf("%s(%s)=%s", c.Target, c.Point, c.Value)
}

// ZeroConstraint asserts f'(Point) = 0.
type ZeroConstraint struct {
	Point *symbolic.Num
}

// Condition returns the equivalent f'(Point)=0 condition.
func (z ZeroConstraint) Condition() Condition {
	return Condition{Text: z.Point.String(), Point: z.Point, Target: FirstDerivative, Value: symbolic.N(0)}
}

var lhsPattern = regexp.MustCompile(`^f\s*('?)\s*\(\s*([^()]*?)\s*\)$`)

const conditionHelp = "expected f(<number>)=<number> or f'(<number>)=<number>"

// ParseConditions reads one condition per line. Lines without '=' are
// skipped. Any other deviation from the grammar aborts with a *StageError
// wrapping ErrMalformedCondition and naming the 1-based line.
func ParseConditions(text string) ([]Condition, error) {
	var out []Condition
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if !strings.Contains(line, "=") {
			continue
		}
		c, err := parseCondition(line)
		if err != nil {
			return nil, stageErr(StageConditions, i+1, line, err)
		}
		c.Line = i + 1
		out = append(out, c)
	}
	return out, nil
}

func parseCondition(line string) (Condition, error) {
	parts := strings.Split(line, "=")
	if len(parts) != 2 {
		return Condition{}, fmt.Errorf("%w: more than one '=' (%s)", ErrMalformedCondition, conditionHelp)
	}
	lhs, rhs := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])

	m := lhsPattern.FindStringSubmatch(lhs)
	if m == nil {
		return Condition{}, fmt.Errorf("%w: left-hand side %q (%s)", ErrMalformedCondition, lhs, conditionHelp)
	}
	point, err := symbolic.ParseNum(m[2])
	if err != nil {
		return Condition{}, fmt.Errorf("%w: point %q is not a number", ErrMalformedCondition, m[2])
	}
	value, err := symbolic.ParseNum(rhs)
	if err != nil {
		return Condition{}, fmt.Errorf("%w: right-hand side %q is not a number", ErrMalformedCondition, rhs)
	}
	target := Value
	if m[1] == "'" {
		target = FirstDerivative
	}
	return Condition{Text: line, Point: point, Target: target, Value: value}, nil
}

// ParseZeros reads a comma-separated list of reals. Empty text yields no
// constraints; an empty or non-numeric token is malformed.
func ParseZeros(text string) ([]ZeroConstraint, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	var out []ZeroConstraint
	for _, tok := range strings.Split(text, ",") {
		tok = strings.TrimSpace(tok)
		p, err := symbolic.ParseNum(tok)
		if err != nil {
			return nil, stageErr(StageConditions, 0, tok, fmt.Errorf("%w: zero %q is not a number", ErrMalformedCondition, tok))
		}
		out = append(out, ZeroConstraint{Point: p})
	}
	return out, nil
}
