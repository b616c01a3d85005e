package codegen

import (
	"fmt"
)

/*
 * Expression parsing for code generation.
 *
 * Back ends cannot emit expression text verbatim: JavaScript rejects a
 * unary minus directly before "**", Python's "%" has different sign
 * semantics, and division must stay a hard fault instead of producing
 * Infinity. So lowered expressions are parsed into a small tree and each
 * back end renders it fully parenthesized in its own vocabulary.
 *
 * Grammar (unary binds tighter than "**", matching the interpreter's
 * precedence table):
 *
 *   expr    := term (("+" | "-") term)*
 *   term    := factor (("*" | "/" | "%") factor)*
 *   factor  := unary ("**" factor)?
 *   unary   := ("+" | "-") unary | primary
 *   primary := number | string | ident | func "(" args ")" | "(" expr ")"
 */

type exprNode interface{ exprNode() }

type numNode struct{ text string }

type strNode struct{ text string }

type varNode struct{ name string }

type callNode struct {
	name string
	args []exprNode
}

type unaryNode struct {
	op      string
	operand exprNode
}

type binNode struct {
	op          string
	left, right exprNode
}

func (numNode) exprNode()   {}
func (strNode) exprNode()   {}
func (varNode) exprNode()   {}
func (callNode) exprNode()  {}
func (unaryNode) exprNode() {}
func (binNode) exprNode()   {}

type exprParser struct {
	tokens []exprToken
	pos    int
}

// parseExpression turns scanned tokens into a tree, rejecting anything that
// is not a complete expression.
func parseExpression(tokens []exprToken) (exprNode, error) {
	p := &exprParser{tokens: tokens}
	node, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, fmt.Errorf("unexpected %q after expression", p.peekText())
	}
	return node, nil
}

func (p *exprParser) parseExpr() (exprNode, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.peekOp("+") || p.peekOp("-") {
		op := p.next().text
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = binNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *exprParser) parseTerm() (exprNode, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.peekOp("*") || p.peekOp("/") || p.peekOp("%") {
		op := p.next().text
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = binNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *exprParser) parseFactor() (exprNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.peekOp("**") {
		p.next()
		// right-associative
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return binNode{op: "**", left: left, right: right}, nil
	}
	return left, nil
}

func (p *exprParser) parseUnary() (exprNode, error) {
	if p.peekOp("+") || p.peekOp("-") {
		op := p.next().text
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: op, operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (exprNode, error) {
	if p.pos >= len(p.tokens) {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	t := p.next()
	switch t.kind {
	case exprNumber:
		return numNode{text: t.text}, nil
	case exprString:
		return strNode{text: t.text}, nil
	case exprIdent:
		return varNode{name: t.text}, nil
	case exprFunc:
		return p.parseCall(t.text)
	case exprLeftParen:
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if !p.expect(exprRightParen) {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		return inner, nil
	default:
		return nil, fmt.Errorf("unexpected %q", t.text)
	}
}

func (p *exprParser) parseCall(name string) (exprNode, error) {
	if !p.expect(exprLeftParen) {
		return nil, fmt.Errorf("function %q missing argument list", name)
	}
	call := callNode{name: name}
	if p.expect(exprRightParen) {
		return call, nil
	}
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		call.args = append(call.args, arg)
		if p.expect(exprComma) {
			continue
		}
		if p.expect(exprRightParen) {
			return call, nil
		}
		return nil, fmt.Errorf("function %q: expected \",\" or \")\"", name)
	}
}

func (p *exprParser) peekOp(op string) bool {
	return p.pos < len(p.tokens) && p.tokens[p.pos].kind == exprOperator && p.tokens[p.pos].text == op
}

func (p *exprParser) expect(kind exprTokenKind) bool {
	if p.pos < len(p.tokens) && p.tokens[p.pos].kind == kind {
		p.pos++
		return true
	}
	return false
}

func (p *exprParser) next() exprToken {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

func (p *exprParser) peekText() string {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos].text
	}
	return ""
}
