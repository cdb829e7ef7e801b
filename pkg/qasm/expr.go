package qasm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// evalExpr evaluates a constant gate parameter: numbers, pi (π), tau, e,
// + - * / ^, unary minus and parentheses.
func evalExpr(text string) (float64, error) {
	e := &exprParser{src: strings.TrimSpace(text)}
	if e.src == "" {
		return 0, fmt.Errorf("empty expression")
	}
	v, err := e.sum()
	if err != nil {
		return 0, err
	}
	e.skipSpace()
	if e.pos != len(e.src) {
		return 0, fmt.Errorf("unexpected %q", e.src[e.pos:])
	}
	return v, nil
}

type exprParser struct {
	src string
	pos int
}

func (e *exprParser) skipSpace() {
	for e.pos < len(e.src) && e.src[e.pos] == ' ' {
		e.pos++
	}
}

func (e *exprParser) peek() byte {
	e.skipSpace()
	if e.pos >= len(e.src) {
		return 0
	}
	return e.src[e.pos]
}

func (e *exprParser) sum() (float64, error) {
	v, err := e.product()
	if err != nil {
		return 0, err
	}
	for {
		switch e.peek() {
		case '+':
			e.pos++
			r, err := e.product()
			if err != nil {
				return 0, err
			}
			v += r
		case '-':
			e.pos++
			r, err := e.product()
			if err != nil {
				return 0, err
			}
			v -= r
		default:
			return v, nil
		}
	}
}

func (e *exprParser) product() (float64, error) {
	v, err := e.power()
	if err != nil {
		return 0, err
	}
	for {
		switch e.peek() {
		case '*':
			e.pos++
			r, err := e.power()
			if err != nil {
				return 0, err
			}
			v *= r
		case '/':
			e.pos++
			r, err := e.power()
			if err != nil {
				return 0, err
			}
			if r == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			v /= r
		default:
			return v, nil
		}
	}
}

// power is right associative.
func (e *exprParser) power() (float64, error) {
	base, err := e.unary()
	if err != nil {
		return 0, err
	}
	if e.peek() == '^' {
		e.pos++
		exp, err := e.power()
		if err != nil {
			return 0, err
		}
		return math.Pow(base, exp), nil
	}
	return base, nil
}

func (e *exprParser) unary() (float64, error) {
	switch e.peek() {
	case '-':
		e.pos++
		v, err := e.unary()
		return -v, err
	case '+':
		e.pos++
		return e.unary()
	}
	return e.atom()
}

func (e *exprParser) atom() (float64, error) {
	c := e.peek()
	switch {
	case c == 0:
		return 0, fmt.Errorf("unexpected end of expression")
	case c == '(':
		e.pos++
		v, err := e.sum()
		if err != nil {
			return 0, err
		}
		if e.peek() != ')' {
			return 0, fmt.Errorf("missing ')'")
		}
		e.pos++
		return v, nil
	case c == '.' || (c >= '0' && c <= '9'):
		return e.number()
	case strings.HasPrefix(e.src[e.pos:], "π"):
		e.pos += len("π")
		return math.Pi, nil
	}

	start := e.pos
	for e.pos < len(e.src) && (unicode.IsLetter(rune(e.src[e.pos])) || e.src[e.pos] == '_') {
		e.pos++
	}
	switch name := e.src[start:e.pos]; name {
	case "pi":
		return math.Pi, nil
	case "tau":
		return 2 * math.Pi, nil
	case "euler":
		return math.E, nil
	case "":
		return 0, fmt.Errorf("unexpected %q", e.src[start:])
	default:
		return 0, fmt.Errorf("unknown identifier %q", name)
	}
}

func (e *exprParser) number() (float64, error) {
	start := e.pos
	for e.pos < len(e.src) {
		c := e.src[e.pos]
		if (c >= '0' && c <= '9') || c == '.' {
			e.pos++
			continue
		}
		// exponent, with optional sign
		if (c == 'e' || c == 'E') && e.pos+1 < len(e.src) {
			next := e.src[e.pos+1]
			if next >= '0' && next <= '9' {
				e.pos += 2
				continue
			}
			if (next == '+' || next == '-') && e.pos+2 < len(e.src) && e.src[e.pos+2] >= '0' && e.src[e.pos+2] <= '9' {
				e.pos += 3
				continue
			}
		}
		break
	}
	return strconv.ParseFloat(e.src[start:e.pos], 64)
}
