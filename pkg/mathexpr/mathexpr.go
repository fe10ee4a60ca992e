// Package mathexpr evaluates arithmetic expressions over a fixed grammar.
//
// The grammar covers numbers, + - * / % ^, parentheses, unary minus, the
// constants pi and e, and a fixed function set. There is no identifier
// resolution beyond that list and no evaluation path other than the
// recursive-descent interpreter, so arbitrary code can never run.
package mathexpr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokIdent
	tokOperator
	tokLeftParen
	tokRightParen
	tokComma
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

// Evaluate parses and evaluates an expression. Any input outside the fixed
// grammar returns an error; the input is never executed as code.
func Evaluate(input string) (float64, error) {
	tokens, err := tokenize(input)
	if err != nil {
		return 0, err
	}

	p := &parser{tokens: tokens}
	value, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return 0, fmt.Errorf("unexpected token %q at position %d", tok.text, tok.pos)
	}
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, fmt.Errorf("expression result is not a finite number")
	}
	return value, nil
}

func tokenize(input string) ([]token, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("expression is empty")
	}

	var tokens []token
	runes := []rune(input)
	i := 0

	for i < len(runes) {
		r := runes[i]

		switch {
		case unicode.IsSpace(r):
			i++

		case unicode.IsDigit(r) || r == '.':
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			// scientific notation
			if i < len(runes) && (runes[i] == 'e' || runes[i] == 'E') {
				j := i + 1
				if j < len(runes) && (runes[j] == '+' || runes[j] == '-') {
					j++
				}
				if j < len(runes) && unicode.IsDigit(runes[j]) {
					i = j
					for i < len(runes) && unicode.IsDigit(runes[i]) {
						i++
					}
				}
			}
			text := string(runes[start:i])
			num, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q at position %d", text, start)
			}
			tokens = append(tokens, token{kind: tokNumber, text: text, num: num, pos: start})

		case unicode.IsLetter(r):
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			tokens = append(tokens, token{kind: tokIdent, text: string(runes[start:i]), pos: start})

		case r == '+' || r == '-' || r == '*' || r == '/' || r == '%' || r == '^':
			tokens = append(tokens, token{kind: tokOperator, text: string(r), pos: i})
			i++

		case r == '(':
			tokens = append(tokens, token{kind: tokLeftParen, text: "(", pos: i})
			i++

		case r == ')':
			tokens = append(tokens, token{kind: tokRightParen, text: ")", pos: i})
			i++

		case r == ',':
			tokens = append(tokens, token{kind: tokComma, text: ",", pos: i})
			i++

		default:
			return nil, fmt.Errorf("unexpected character %q at position %d", string(r), i)
		}
	}

	tokens = append(tokens, token{kind: tokEOF, pos: len(runes)})
	return tokens, nil
}

type parser struct {
	tokens []token
	idx    int
}

func (p *parser) peek() token {
	return p.tokens[p.idx]
}

func (p *parser) next() token {
	tok := p.tokens[p.idx]
	if tok.kind != tokEOF {
		p.idx++
	}
	return tok
}

// expr := term (("+"|"-") term)*
func (p *parser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}

	for {
		tok := p.peek()
		if tok.kind != tokOperator || (tok.text != "+" && tok.text != "-") {
			return left, nil
		}
		p.next()

		right, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if tok.text == "+" {
			left += right
		} else {
			left -= right
		}
	}
}

// term := unary (("*"|"/"|"%") unary)*
func (p *parser) parseTerm() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}

	for {
		tok := p.peek()
		if tok.kind != tokOperator || (tok.text != "*" && tok.text != "/" && tok.text != "%") {
			return left, nil
		}
		p.next()

		right, err := p.parseUnary()
		if err != nil {
			return 0, err
		}

		switch tok.text {
		case "*":
			left *= right
		case "/":
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		case "%":
			if right == 0 {
				return 0, fmt.Errorf("modulo by zero")
			}
			left = math.Mod(left, right)
		}
	}
}

// unary := "-" unary | power
func (p *parser) parseUnary() (float64, error) {
	tok := p.peek()
	if tok.kind == tokOperator && tok.text == "-" {
		p.next()
		value, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return -value, nil
	}
	return p.parsePower()
}

// power := atom ("^" unary)?  -- right associative
func (p *parser) parsePower() (float64, error) {
	base, err := p.parseAtom()
	if err != nil {
		return 0, err
	}

	tok := p.peek()
	if tok.kind == tokOperator && tok.text == "^" {
		p.next()
		exponent, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return math.Pow(base, exponent), nil
	}
	return base, nil
}

// atom := number | ident ("(" args ")")? | "(" expr ")"
func (p *parser) parseAtom() (float64, error) {
	tok := p.next()

	switch tok.kind {
	case tokNumber:
		return tok.num, nil

	case tokLeftParen:
		value, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if closing := p.next(); closing.kind != tokRightParen {
			return 0, fmt.Errorf("expected ')' at position %d", closing.pos)
		}
		return value, nil

	case tokIdent:
		name := strings.ToLower(tok.text)
		if p.peek().kind == tokLeftParen {
			p.next()
			args, err := p.parseArgs()
			if err != nil {
				return 0, err
			}
			return callFunction(name, args, tok.pos)
		}
		switch name {
		case "pi":
			return math.Pi, nil
		case "e":
			return math.E, nil
		}
		return 0, fmt.Errorf("unknown identifier %q at position %d", tok.text, tok.pos)

	case tokEOF:
		return 0, fmt.Errorf("unexpected end of expression")

	default:
		return 0, fmt.Errorf("unexpected token %q at position %d", tok.text, tok.pos)
	}
}

func (p *parser) parseArgs() ([]float64, error) {
	var args []float64

	if p.peek().kind == tokRightParen {
		p.next()
		return args, nil
	}

	for {
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, value)

		tok := p.next()
		switch tok.kind {
		case tokComma:
			continue
		case tokRightParen:
			return args, nil
		default:
			return nil, fmt.Errorf("expected ',' or ')' at position %d", tok.pos)
		}
	}
}

func callFunction(name string, args []float64, pos int) (float64, error) {
	arity := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("%s expects %d argument(s), got %d", name, n, len(args))
		}
		return nil
	}

	switch name {
	case "abs":
		if err := arity(1); err != nil {
			return 0, err
		}
		return math.Abs(args[0]), nil
	case "sqrt":
		if err := arity(1); err != nil {
			return 0, err
		}
		if args[0] < 0 {
			return 0, fmt.Errorf("sqrt of negative number")
		}
		return math.Sqrt(args[0]), nil
	case "floor":
		if err := arity(1); err != nil {
			return 0, err
		}
		return math.Floor(args[0]), nil
	case "ceil":
		if err := arity(1); err != nil {
			return 0, err
		}
		return math.Ceil(args[0]), nil
	case "round":
		if err := arity(1); err != nil {
			return 0, err
		}
		return math.Round(args[0]), nil
	case "pow":
		if err := arity(2); err != nil {
			return 0, err
		}
		return math.Pow(args[0], args[1]), nil
	case "min":
		if len(args) < 2 {
			return 0, fmt.Errorf("min expects at least 2 arguments, got %d", len(args))
		}
		value := args[0]
		for _, arg := range args[1:] {
			value = math.Min(value, arg)
		}
		return value, nil
	case "max":
		if len(args) < 2 {
			return 0, fmt.Errorf("max expects at least 2 arguments, got %d", len(args))
		}
		value := args[0]
		for _, arg := range args[1:] {
			value = math.Max(value, arg)
		}
		return value, nil
	default:
		return 0, fmt.Errorf("unknown function %q at position %d", name, pos)
	}
}
