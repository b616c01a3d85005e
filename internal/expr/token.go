package expr

import (
	"strconv"

	"github.com/quarterbit/formulary/internal/types"
)

// tokenKind discriminates tokens of the numeric expression grammar.
type tokenKind int

const (
	tokNumber tokenKind = iota
	tokOperator
	tokLeftParen
	tokRightParen
)

// token is one lexeme of a substituted, function-free expression.
// Operators are identified by text: + - * / % ** and the unary forms u+ u-.
type token struct {
	kind  tokenKind
	text  string
	value float64 // set for tokNumber
}

// tokenize splits numeric-only expression text into numbers, parentheses,
// and operators, then rewrites unary plus/minus into distinct tokens.
//
// An identifier at this stage is a variable that survived substitution and
// function resolution, which means it is unresolved.
func tokenize(text string) ([]token, error) {
	var tokens []token

	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			i++
		case c >= '0' && c <= '9' || c == '.':
			start := i
			for i < len(text) && (text[i] >= '0' && text[i] <= '9' || text[i] == '.') {
				i++
			}
			lit := text[start:i]
			v, err := strconv.ParseFloat(lit, 64)
			if err != nil {
				return nil, &types.ExpressionError{Expr: text, Reason: "invalid number " + strconv.Quote(lit)}
			}
			tokens = append(tokens, token{kind: tokNumber, text: lit, value: v})
		case c == '(':
			tokens = append(tokens, token{kind: tokLeftParen, text: "("})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokRightParen, text: ")"})
			i++
		case c == '*':
			if i+1 < len(text) && text[i+1] == '*' {
				tokens = append(tokens, token{kind: tokOperator, text: "**"})
				i += 2
			} else {
				tokens = append(tokens, token{kind: tokOperator, text: "*"})
				i++
			}
		case c == '+' || c == '-' || c == '/' || c == '%':
			tokens = append(tokens, token{kind: tokOperator, text: string(c)})
			i++
		case isIdentStart(c):
			start := i
			if c == '$' {
				i++
			}
			for i < len(text) && isIdentByte(text[i]) {
				i++
			}
			return nil, &types.UnresolvedVariableError{Name: types.CanonicalName(text[start:i])}
		case c == '"' || c == '\'':
			return nil, &types.ExpressionError{Expr: text, Reason: "string value in arithmetic position"}
		default:
			return nil, &types.ExpressionError{Expr: text, Reason: "unexpected character " + strconv.Quote(string(c))}
		}
	}

	if len(tokens) == 0 {
		return nil, &types.ExpressionError{Expr: text, Reason: "empty expression"}
	}

	markUnary(tokens)
	return tokens, nil
}

// markUnary rewrites + and - into u+ and u- where the lookback rule applies:
// an operator is unary if it is the first token or directly follows another
// operator or an open parenthesis. The distinct token gets its own highest,
// right-associative precedence tier so it can never be confused with
// subtraction.
func markUnary(tokens []token) {
	for i := range tokens {
		t := &tokens[i]
		if t.kind != tokOperator || (t.text != "+" && t.text != "-") {
			continue
		}
		if i == 0 || tokens[i-1].kind == tokOperator || tokens[i-1].kind == tokLeftParen {
			t.text = "u" + t.text
		}
	}
}
