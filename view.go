package antideriv

import "github.com/njchilds90/antideriv/symbolic"

// ExprView is the serialisable rendering of an expression.
type ExprView struct {
	Text  string                 `json:"text"`
	LaTeX string                 `json:"latex"`
	Tree  map[string]interface{} `json:"tree"`
}

// NewExprView renders e.
func NewExprView(e symbolic.Expr) ExprView {
	return ExprView{Text: e.String(), LaTeX: e.LaTeX(), Tree: symbolic.Tree(e)}
}

// RootView is a root as a float and in exact form.
type RootView struct {
	Value float64 `json:"value"`
	Exact string  `json:"exact"`
}

// ResultView is the wire form of a Result.
type ResultView struct {
	Derivative       ExprView   `json:"derivative"`
	Order            int        `json:"order"`
	F                ExprView   `json:"f"`
	FPrime           ExprView   `json:"f_prime"`
	FDoublePrime     ExprView   `json:"f_double_prime"`
	General          ExprView   `json:"general_f"`
	FreeConstants    []string   `json:"free_constants"`
	Outcome          Outcome    `json:"outcome"`
	Solution         []string   `json:"solution,omitempty"`
	Equations        []string   `json:"equations,omitempty"`
	CriticalPoints   []float64  `json:"critical_points"`
	InflectionPoints []float64  `json:"inflection_points"`
	Critical         []RootView `json:"critical_exact"`
	Inflection       []RootView `json:"inflection_exact"`
	Warnings         []string   `json:"warnings,omitempty"`
	Curves           *Curves    `json:"curves,omitempty"`
}

// View renders r for JSON output.
func (r *Result) View() ResultView {
	v := ResultView{
		Derivative:       NewExprView(r.Derivative),
		Order:            int(r.Order),
		F:                NewExprView(r.Triple.F),
		FPrime:           NewExprView(r.Triple.FPrime),
		FDoublePrime:     NewExprView(r.Triple.FDoublePrime),
		General:          NewExprView(r.General.F),
		FreeConstants:    nonNil(r.FreeConstants()),
		Outcome:          r.Solve.Outcome,
		CriticalPoints:   Values(r.Critical),
		InflectionPoints: Values(r.Inflection),
		Critical:         rootViews(r.Critical),
		Inflection:       rootViews(r.Inflection),
		Warnings:         r.Warnings,
	}
	for _, name := range r.Constants {
		if val, ok := r.Solve.Solution[name]; ok {
			v.Solution = append(v.Solution, name+" = "+val.String())
		}
	}
	for i, eq := range r.System.Equations {
		v.Equations = append(v.Equations, r.System.Sources[i]+": "+eq.String()+" = 0")
	}
	return v
}

func rootViews(roots []Root) []RootView {
	out := make([]RootView, len(roots))
	for i, r := range roots {
		out[i] = RootView{Value: r.Value, Exact: r.Expr.String()}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
