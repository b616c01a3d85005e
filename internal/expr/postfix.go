package expr

import (
	"math"

	"github.com/quarterbit/formulary/internal/types"
)

/*
 * Infix-to-postfix conversion and stack evaluation.
 *
 * Precedence table: + - (1), * / % (2), ** (3), unary sign (4).
 * ** and the unary forms are right-associative, everything else left.
 * All faults carry the expression text; division and modulo by zero are
 * hard errors, never Inf/NaN.
 */

var precedence = map[string]int{
	"+": 1, "-": 1,
	"*": 2, "/": 2, "%": 2,
	"**": 3,
	"u+": 4, "u-": 4,
}

func rightAssociative(op string) bool {
	return op == "**" || op == "u+" || op == "u-"
}

// toPostfix converts a token sequence to reverse-Polish order via the
// shunting-yard algorithm.
func toPostfix(tokens []token, text string) ([]token, error) {
	output := make([]token, 0, len(tokens))
	var stack []token

	for _, t := range tokens {
		switch t.kind {
		case tokNumber:
			output = append(output, t)
		case tokOperator:
			prec, ok := precedence[t.text]
			if !ok {
				return nil, &types.ExpressionError{Expr: text, Reason: "unknown operator " + t.text}
			}
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				if top.kind != tokOperator {
					break
				}
				topPrec := precedence[top.text]
				if topPrec > prec || (topPrec == prec && !rightAssociative(t.text)) {
					output = append(output, top)
					stack = stack[:len(stack)-1]
					continue
				}
				break
			}
			stack = append(stack, t)
		case tokLeftParen:
			stack = append(stack, t)
		case tokRightParen:
			matched := false
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if top.kind == tokLeftParen {
					matched = true
					break
				}
				output = append(output, top)
			}
			if !matched {
				return nil, &types.ExpressionError{Expr: text, Reason: "unbalanced parentheses"}
			}
		}
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.kind == tokLeftParen {
			return nil, &types.ExpressionError{Expr: text, Reason: "unbalanced parentheses"}
		}
		output = append(output, top)
	}

	return output, nil
}

// evalPostfix reduces a postfix token sequence on an operand stack.
// Raises on stack underflow and on leftover stack depth != 1.
func evalPostfix(tokens []token, text string) (float64, error) {
	var stack []float64

	pop := func() (float64, bool) {
		if len(stack) == 0 {
			return 0, false
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, true
	}

	for _, t := range tokens {
		if t.kind == tokNumber {
			stack = append(stack, t.value)
			continue
		}

		if t.text == "u-" || t.text == "u+" {
			v, ok := pop()
			if !ok {
				return 0, &types.ExpressionError{Expr: text, Reason: "operand stack underflow"}
			}
			if t.text == "u-" {
				v = -v
			}
			stack = append(stack, v)
			continue
		}

		b, okB := pop()
		a, okA := pop()
		if !okA || !okB {
			return 0, &types.ExpressionError{Expr: text, Reason: "operand stack underflow"}
		}

		var v float64
		switch t.text {
		case "+":
			v = a + b
		case "-":
			v = a - b
		case "*":
			v = a * b
		case "/":
			if b == 0 {
				return 0, &types.ExpressionError{Expr: text, Reason: "division by zero", Err: types.ErrDivisionByZero}
			}
			v = a / b
		case "%":
			if b == 0 {
				return 0, &types.ExpressionError{Expr: text, Reason: "modulo by zero", Err: types.ErrDivisionByZero}
			}
			v = math.Mod(a, b)
		case "**":
			v = math.Pow(a, b)
		default:
			return 0, &types.ExpressionError{Expr: text, Reason: "unknown operator " + t.text}
		}
		stack = append(stack, v)
	}

	if len(stack) != 1 {
		return 0, &types.ExpressionError{Expr: text, Reason: "malformed expression: leftover operands"}
	}
	return stack[0], nil
}
