package codegen

import (
	"fmt"
	"strings"
)

/*
 * Expression scanning for translation.
 *
 * The interpreter substitutes variables textually before tokenizing, so its
 * tokenizer never sees identifiers. Code generation goes the other way:
 * identifiers must survive into the output as context accesses and mapped
 * function names. This scanner produces the richer token stream both back
 * ends translate from.
 */

type exprTokenKind int

const (
	exprNumber exprTokenKind = iota
	exprIdent                // variable reference (sigil or bare)
	exprFunc                 // identifier directly followed by "("
	exprOperator
	exprLeftParen
	exprRightParen
	exprComma
	exprString
)

type exprToken struct {
	kind exprTokenKind
	text string // canonical name for idents/funcs, literal text otherwise
}

// scanExpression splits expression text into translation tokens.
// Rejects characters outside the expression grammar so unsupported
// constructs surface at lowering time, not in broken output.
func scanExpression(text string) ([]exprToken, error) {
	var tokens []exprToken

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
			tokens = append(tokens, exprToken{kind: exprNumber, text: text[start:i]})
		case c == '$' || c == '_' || isAlpha(c):
			start := i
			if c == '$' {
				i++
			}
			for i < len(text) && (text[i] == '_' || isAlpha(text[i]) || text[i] >= '0' && text[i] <= '9') {
				i++
			}
			name := strings.TrimPrefix(text[start:i], "$")
			kind := exprIdent
			if nextNonSpace(text, i) == '(' {
				kind = exprFunc
			}
			tokens = append(tokens, exprToken{kind: kind, text: name})
		case c == '(':
			tokens = append(tokens, exprToken{kind: exprLeftParen, text: "("})
			i++
		case c == ')':
			tokens = append(tokens, exprToken{kind: exprRightParen, text: ")"})
			i++
		case c == ',':
			tokens = append(tokens, exprToken{kind: exprComma, text: ","})
			i++
		case c == '*':
			if i+1 < len(text) && text[i+1] == '*' {
				tokens = append(tokens, exprToken{kind: exprOperator, text: "**"})
				i += 2
			} else {
				tokens = append(tokens, exprToken{kind: exprOperator, text: "*"})
				i++
			}
		case c == '+' || c == '-' || c == '/' || c == '%':
			tokens = append(tokens, exprToken{kind: exprOperator, text: string(c)})
			i++
		case c == '"' || c == '\'':
			quote := c
			j := i + 1
			for j < len(text) && text[j] != quote {
				j++
			}
			if j == len(text) {
				return nil, fmt.Errorf("unterminated string literal")
			}
			tokens = append(tokens, exprToken{kind: exprString, text: text[i+1 : j]})
			i = j + 1
		default:
			return nil, fmt.Errorf("unsupported character %q in expression", string(c))
		}
	}

	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty expression")
	}
	return tokens, nil
}

// isExpressionText reports whether s scans as an expression that actually
// computes something (at least one operator or function call). Bare
// identifiers and plain literals are not expressions.
func isExpressionText(s string) bool {
	tokens, err := scanExpression(s)
	if err != nil {
		return false
	}
	for _, t := range tokens {
		if t.kind == exprOperator || t.kind == exprFunc {
			return true
		}
	}
	return false
}

func isAlpha(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func nextNonSpace(text string, i int) byte {
	for ; i < len(text); i++ {
		if text[i] != ' ' && text[i] != '\t' {
			return text[i]
		}
	}
	return 0
}
