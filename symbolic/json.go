package symbolic

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// ToJSON encodes e as its tree form.
func ToJSON(e Expr) (string, error) {
	b, err := json.Marshal(e.toJSON())
	return string(b), err
}

// Tree returns the JSON-ready map form of e.
func Tree(e Expr) map[string]interface{} { return e.toJSON() }

// node wraps one decoded tree object; every accessor reports errors
// prefixed with the node type.
type node struct {
	kind string
	m    map[string]interface{}
}

func (n node) errorf(format string, args ...interface{}) error {
	return fmt.Errorf(n.kind+": "+format, args...)
}

func (n node) str(field string) (string, error) {
	s, ok := n.m[field].(string)
	if !ok || s == "" {
		return "", n.errorf("%q must be a non-empty string", field)
	}
	return s, nil
}

func (n node) child(field string) (Expr, error) {
	m, ok := n.m[field].(map[string]interface{})
	if !ok {
		return nil, n.errorf("%q must be an object", field)
	}
	e, err := FromJSON(m)
	if err != nil {
		return nil, n.errorf("%s: %w", field, err)
	}
	return e, nil
}

func (n node) children(field string) ([]Expr, error) {
	raw, ok := n.m[field].([]interface{})
	if !ok {
		return nil, n.errorf("%q must be an array", field)
	}
	out := make([]Expr, len(raw))
	for i, it := range raw {
		m, ok := it.(map[string]interface{})
		if !ok {
			return nil, n.errorf("%s[%d] must be an object", field, i)
		}
		e, err := FromJSON(m)
		if err != nil {
			return nil, n.errorf("%s[%d]: %w", field, i, err)
		}
		out[i] = e
	}
	return out, nil
}

// FromJSON decodes the tree form produced by Tree. Nodes are rebuilt
// through the simplifying constructors.
func FromJSON(data map[string]interface{}) (Expr, error) {
	if data == nil {
		return nil, fmt.Errorf("expression must be an object")
	}
	kind, ok := data["type"].(string)
	if !ok || kind == "" {
		return nil, fmt.Errorf("field 'type' must be a non-empty string")
	}
	n := node{kind: kind, m: data}

	switch kind {
	case "num":
		val, err := n.str("value")
		if err != nil {
			return nil, err
		}
		r, ok := new(big.Rat).SetString(val)
		if !ok {
			return nil, n.errorf("invalid value %q", val)
		}
		approx, _ := data["approx"].(bool)
		return &Num{val: r, approx: approx}, nil

	case "sym":
		name, err := n.str("name")
		if err != nil {
			return nil, err
		}
		return S(name), nil

	case "const":
		name, err := n.str("name")
		if err != nil {
			return nil, err
		}
		if c, ok := constByName(name); ok {
			return c, nil
		}
		return nil, n.errorf("unknown constant %q", name)

	case "add", "mul":
		field := "terms"
		if kind == "mul" {
			field = "factors"
		}
		parts, err := n.children(field)
		if err != nil {
			return nil, err
		}
		if kind == "add" {
			return AddOf(parts...), nil
		}
		return MulOf(parts...), nil

	case "pow":
		base, err := n.child("base")
		if err != nil {
			return nil, err
		}
		exp, err := n.child("exp")
		if err != nil {
			return nil, err
		}
		return PowOf(base, exp), nil

	case "func":
		name, err := n.str("name")
		if err != nil {
			return nil, err
		}
		arg, err := n.child("arg")
		if err != nil {
			return nil, err
		}
		if f, ok := FuncByName(name, arg); ok {
			return f, nil
		}
		return nil, n.errorf("unknown function %q", name)
	}
	return nil, fmt.Errorf("unknown expression type: %s", kind)
}
