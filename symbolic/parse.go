package symbolic

import (
	"fmt"
	"strings"
	"unicode"
)

// ============================================================
// Parser: algebraic notation to Expr
// ============================================================

// SyntaxError reports where parsing stopped. Pos is a 0-based byte offset
// into Input.
type SyntaxError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d in %q: %s", e.Pos+1, e.Input, e.Msg)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNum
	tokIdent
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func tokenize(input string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(input) {
		c := rune(input[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case isDigit(input[i]) || c == '.':
			start := i
			for i < len(input) && (isDigit(input[i]) || input[i] == '.') {
				i++
			}
			if i < len(input) && (input[i] == 'e' || input[i] == 'E') {
				j := i + 1
				if j < len(input) && (input[j] == '+' || input[j] == '-') {
					j++
				}
				if j < len(input) && isDigit(input[j]) {
					for j < len(input) && isDigit(input[j]) {
						j++
					}
					i = j
				}
			}
			toks = append(toks, token{kind: tokNum, text: input[start:i], pos: start})
		case isLetter(input[i]):
			start := i
			for i < len(input) && (isDigit(input[i]) || isLetter(input[i])) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: input[start:i], pos: start})
		case c == '*' && i+1 < len(input) && input[i+1] == '*':
			toks = append(toks, token{kind: tokOp, text: "^", pos: i})
			i += 2
		case strings.ContainsRune("+-*/^", c):
			toks = append(toks, token{kind: tokOp, text: string(c), pos: i})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		default:
			return nil, &SyntaxError{Input: input, Pos: i, Msg: fmt.Sprintf("unexpected character %q", c)}
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(input)})
	return toks, nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isLetter(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

type parser struct {
	input   string
	toks    []token
	pos     int
	symbols map[string]bool
}

// Parse reads an expression in the named symbols. Supported syntax:
// numbers (exact), + - * / ^ ** with the usual precedence, unary signs,
// parentheses, the functions sin cos tan exp ln log sqrt abs asin acos
// atan sinh cosh tanh, and the constants pi and E. Multiplication must be
// written explicitly.
func Parse(input string, symbols ...string) (Expr, error) {
	toks, err := tokenize(input)
	if err != nil {
		return nil, err
	}
	p := &parser{input: input, toks: toks, symbols: map[string]bool{}}
	for _, s := range symbols {
		p.symbols[s] = true
	}
	if p.peek().kind == tokEOF {
		return nil, p.errorf("empty expression")
	}
	e, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf("unexpected %q", t.text)
	}
	return e.Simplify(), nil
}

func (p *parser) peek() token { return p.toks[p.pos] }
func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &SyntaxError{Input: p.input, Pos: p.peek().pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) isOp(ops string) bool {
	t := p.peek()
	return t.kind == tokOp && strings.Contains(ops, t.text)
}

// sum := product (('+' | '-') product)*
func (p *parser) parseSum() (Expr, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	terms := []Expr{left}
	for p.isOp("+-") {
		op := p.next().text
		right, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		if op == "-" {
			right = &Mul{factors: []Expr{N(-1), right}}
		}
		terms = append(terms, right)
	}
	if len(terms) == 1 {
		return left, nil
	}
	return &Add{terms: terms}, nil
}

// product := unary (('*' | '/') unary)*
func (p *parser) parseProduct() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	factors := []Expr{left}
	for p.isOp("*/") {
		op := p.next().text
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if op == "/" {
			right = &Pow{base: right, exp: N(-1)}
		}
		factors = append(factors, right)
	}
	if len(factors) == 1 {
		return left, nil
	}
	return &Mul{factors: factors}, nil
}

// unary := ('+' | '-') unary | power
func (p *parser) parseUnary() (Expr, error) {
	if p.isOp("+-") {
		op := p.next().text
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if op == "-" {
			return &Mul{factors: []Expr{N(-1), operand}}, nil
		}
		return operand, nil
	}
	return p.parsePower()
}

// power := primary ('^' unary)?   (right associative)
func (p *parser) parsePower() (Expr, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.isOp("^") {
		p.next()
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Pow{base: base, exp: exp}, nil
	}
	return base, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.peek()
	switch t.kind {
	case tokNum:
		p.next()
		n, err := ParseNum(t.text)
		if err != nil {
			return nil, &SyntaxError{Input: p.input, Pos: t.pos, Msg: err.Error()}
		}
		return n, nil
	case tokLParen:
		p.next()
		e, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, p.errorf("missing closing parenthesis")
		}
		p.next()
		return e, nil
	case tokIdent:
		p.next()
		if p.peek().kind == tokLParen {
			return p.parseCall(t)
		}
		if c, ok := constByName(t.text); ok {
			return c, nil
		}
		if p.symbols[t.text] {
			return S(t.text), nil
		}
		return nil, &SyntaxError{Input: p.input, Pos: t.pos, Msg: fmt.Sprintf("unknown identifier %q", t.text)}
	case tokEOF:
		return nil, p.errorf("unexpected end of input")
	}
	return nil, p.errorf("unexpected %q", t.text)
}

func (p *parser) parseCall(name token) (Expr, error) {
	fn := name.text
	switch fn {
	case "log":
		fn = "ln"
	case "sqrt":
	default:
		if _, ok := floatFuncs[fn]; !ok {
			return nil, &SyntaxError{Input: p.input, Pos: name.pos, Msg: fmt.Sprintf("unknown function %q", name.text)}
		}
	}
	p.next()
	arg, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokRParen {
		return nil, p.errorf("missing closing parenthesis after %s argument", name.text)
	}
	p.next()
	if fn == "sqrt" {
		return &Pow{base: arg, exp: F(1, 2)}, nil
	}
	return funcOf(fn, arg), nil
}
