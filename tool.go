package antideriv

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/njchilds90/antideriv/symbolic"
)

// ============================================================
// Tool interface for agents and the HTTP /tool endpoint
// ============================================================

// maxDiffOrder caps the diff tool's n.
const maxDiffOrder = 20

// ToolRequest names a tool and its parameters. Expression parameters are
// either a JSON tree or a string in algebraic notation.
type ToolRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

type ToolResponse struct {
	Result interface{} `json:"result,omitempty"`
	LaTeX  string      `json:"latex,omitempty"`
	String string      `json:"string,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// HandleToolCall runs req on a default engine.
func HandleToolCall(req ToolRequest) ToolResponse {
	return New().HandleToolCall(context.Background(), req)
}

// HandleToolCall dispatches req. Failures are reported in
// ToolResponse.Error, never as a Go error.
func (e *Engine) HandleToolCall(ctx context.Context, req ToolRequest) ToolResponse {
	symbols := []string{Variable, "C1", "C2"}
	if raw, ok := req.Params["symbols"].([]interface{}); ok {
		for _, r := range raw {
			if s, ok := r.(string); ok {
				symbols = append(symbols, s)
			}
		}
	}
	getExpr := func(key string) (symbolic.Expr, error) {
		v, ok := req.Params[key]
		if !ok {
			return nil, fmt.Errorf("missing param: %s", key)
		}
		switch val := v.(type) {
		case map[string]interface{}:
			return symbolic.FromJSON(val)
		case string:
			return symbolic.Parse(val, symbols...)
		case float64:
			return symbolic.NFloat(val), nil
		}
		return nil, fmt.Errorf("invalid type for param %s", key)
	}
	getString := func(key, def string) (string, error) {
		v, ok := req.Params[key]
		if !ok {
			if def != "" {
				return def, nil
			}
			return "", fmt.Errorf("missing param: %s", key)
		}
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("param %s must be a string", key)
		}
		return s, nil
	}
	getOptString := func(key string) (string, error) {
		v, ok := req.Params[key]
		if !ok || v == nil {
			return "", nil
		}
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("param %s must be a string", key)
		}
		return s, nil
	}
	getNumber := func(key string, def float64) (float64, error) {
		v, ok := req.Params[key]
		if !ok {
			return def, nil
		}
		f, ok := v.(float64)
		if !ok {
			return 0, fmt.Errorf("param %s must be a number", key)
		}
		return f, nil
	}
	// getInt reads an integral number in [lo, hi].
	getInt := func(key string, def, lo, hi int) (int, error) {
		f, err := getNumber(key, float64(def))
		if err != nil {
			return 0, err
		}
		if f != math.Trunc(f) || f < float64(lo) || f > float64(hi) {
			return 0, fmt.Errorf("param %s must be an integer in [%d, %d], got %v", key, lo, hi, f)
		}
		return int(f), nil
	}
	respond := func(ex symbolic.Expr) ToolResponse {
		return ToolResponse{Result: symbolic.Tree(ex), LaTeX: ex.LaTeX(), String: ex.String()}
	}
	fail := func(err error) ToolResponse { return ToolResponse{Error: err.Error()} }

	switch req.Tool {
	case "reconstruct":
		deriv, err := getString("derivative", "")
		if err != nil {
			return fail(err)
		}
		order, err := getInt("order", int(First), int(First), int(Second))
		if err != nil {
			return fail(err)
		}
		conds, err := getOptString("conditions")
		if err != nil {
			return fail(err)
		}
		zeros, err := getOptString("zeros")
		if err != nil {
			return fail(err)
		}
		res, err := e.Reconstruct(ctx, Request{Derivative: deriv, Order: Order(order), Conditions: conds, Zeros: zeros})
		if err != nil {
			return fail(err)
		}
		view := res.View()
		if _, ok := req.Params["points"]; ok {
			lo, err := getNumber("x_min", -5)
			if err != nil {
				return fail(err)
			}
			hi, err := getNumber("x_max", 5)
			if err != nil {
				return fail(err)
			}
			n, err := getInt("points", DefaultSamples, 2, MaxSamples)
			if err != nil {
				return fail(err)
			}
			curves, warnings, err := res.Sample(lo, hi, n)
			if err != nil {
				return fail(err)
			}
			view.Curves = &curves
			view.Warnings = append(view.Warnings, warnings...)
		}
		return ToolResponse{Result: view, LaTeX: "f(x) = " + res.Triple.F.LaTeX(), String: res.Triple.F.String()}

	case "parse", "simplify":
		ex, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		return respond(ex.Simplify())

	case "expand":
		ex, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		return respond(symbolic.Expand(ex))

	case "diff":
		ex, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		v, err := getString("var", Variable)
		if err != nil {
			return fail(err)
		}
		n, err := getInt("n", 1, 0, maxDiffOrder)
		if err != nil {
			return fail(err)
		}
		return respond(symbolic.DiffN(ex, v, n))

	case "integrate":
		ex, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		v, err := getString("var", Variable)
		if err != nil {
			return fail(err)
		}
		prim, ok := symbolic.Integrate(ex, v)
		if !ok {
			return fail(stageErr(StageIntegration, 0, ex.String(), ErrUnintegrable))
		}
		return respond(prim)

	case "substitute":
		ex, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		v, err := getString("var", "")
		if err != nil {
			return fail(err)
		}
		val, err := getExpr("value")
		if err != nil {
			return fail(err)
		}
		return respond(symbolic.Sub(ex, v, val))

	case "roots":
		ex, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		v, err := getString("var", Variable)
		if err != nil {
			return fail(err)
		}
		roots, err := symbolic.RealRoots(ex, v)
		if err != nil {
			return fail(fmt.Errorf("%w: %w", ErrRootFinding, err))
		}
		strs := make([]string, len(roots))
		for i, r := range roots {
			strs[i] = r.String()
		}
		return ToolResponse{Result: strs, String: strings.Join(strs, ", ")}

	case "sample":
		ex, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		lo, err := getNumber("x_min", -5)
		if err != nil {
			return fail(err)
		}
		hi, err := getNumber("x_max", 5)
		if err != nil {
			return fail(err)
		}
		n, err := getInt("points", DefaultSamples, 2, MaxSamples)
		if err != nil {
			return fail(err)
		}
		xs, err := Grid(lo, hi, n)
		if err != nil {
			return fail(err)
		}
		ys, evalErr := sampleExpr(ex, xs)
		resp := ToolResponse{Result: map[string]interface{}{"x": nullable(xs), "y": nullable(ys)}, String: ex.String()}
		if evalErr != nil {
			evalErr.Member = ex.String()
			resp.Error = evalErr.Error()
		}
		return resp

	case "to_latex":
		ex, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		return ToolResponse{Result: ex.LaTeX(), LaTeX: ex.LaTeX(), String: ex.String()}

	case "free_symbols":
		ex, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		names := symbolic.SortedSymbols(ex)
		return ToolResponse{Result: names, String: strings.Join(names, ", ")}

	case "tool_spec":
		return ToolResponse{Result: json.RawMessage(ToolSpec())}
	}
	return ToolResponse{Error: fmt.Sprintf("unknown tool: %s", req.Tool)}
}

// ToolSpec returns the JSON schema of every tool.
func ToolSpec() string {
	tools := []map[string]interface{}{
		ts("reconstruct", "Reconstruct f from f' (order 1) or f'' (order 2) with optional conditions and zeros of f'. Add points/x_min/x_max to sample the curves",
			[]string{"derivative"}, map[string]string{"derivative": "string", "order": "integer", "conditions": "string", "zeros": "string", "points": "integer", "x_min": "number", "x_max": "number"}),
		ts("parse", "Parse algebraic text into an expression tree", []string{"expr"}, map[string]string{"expr": "string", "symbols": "array"}),
		ts("simplify", "Simplify a symbolic expression", []string{"expr"}, map[string]string{"expr": "object"}),
		ts("expand", "Algebraically expand expression", []string{"expr"}, map[string]string{"expr": "object"}),
		ts("diff", "nth derivative (n defaults to 1)", []string{"expr"}, map[string]string{"expr": "object", "var": "string", "n": "integer"}),
		ts("integrate", "Symbolic antiderivative (rule-based)", []string{"expr"}, map[string]string{"expr": "object", "var": "string"}),
		ts("substitute", "Substitute var with value", []string{"expr", "var", "value"}, map[string]string{"expr": "object", "var": "string", "value": "object"}),
		ts("roots", "Real roots in closed form where possible", []string{"expr"}, map[string]string{"expr": "object", "var": "string"}),
		ts("sample", "Evaluate expression in x on an evenly spaced grid", []string{"expr"}, map[string]string{"expr": "object", "x_min": "number", "x_max": "number", "points": "integer"}),
		ts("to_latex", "Convert to LaTeX", []string{"expr"}, map[string]string{"expr": "object"}),
		ts("free_symbols", "Return free symbol names", []string{"expr"}, map[string]string{"expr": "object"}),
		ts("tool_spec", "Return this tool schema", []string{}, map[string]string{}),
	}
	spec := map[string]interface{}{"tools": tools}
	b, _ := json.MarshalIndent(spec, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, typ := range props {
		properties[k] = map[string]interface{}{"type": typ}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
