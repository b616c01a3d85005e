package codegen

import (
	"testing"
)

func parse(t *testing.T, text string) (exprNode, error) {
	t.Helper()
	tokens, err := scanExpression(text)
	if err != nil {
		t.Fatalf("scanExpression(%q) error = %v, want nil", text, err)
	}
	return parseExpression(tokens)
}

func TestParseExpression_Shapes(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"addition chain", "a + b + c"},
		{"mixed precedence", "a + b * c"},
		{"parens", "(a + b) * c"},
		{"power", "a ** b"},
		{"unary", "-a + +b"},
		{"function call", "max(a, b)"},
		{"nested calls", "round(sqrt(x), 2)"},
		{"string argument", `coalesce(name, "unknown")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := parse(t, tt.text)
			if err != nil {
				t.Fatalf("parseExpression(%q) error = %v, want nil", tt.text, err)
			}
			if node == nil {
				t.Fatalf("parseExpression(%q) = nil node", tt.text)
			}
		})
	}
}

func TestParseExpression_UnaryBindsTighterThanPower(t *testing.T) {
	node, err := parse(t, "-2 ** 2")
	if err != nil {
		t.Fatalf("parseExpression() error = %v, want nil", err)
	}
	bin, ok := node.(binNode)
	if !ok {
		t.Fatalf("root = %T, want binNode", node)
	}
	if bin.op != "**" {
		t.Fatalf("root op = %q, want **", bin.op)
	}
	if _, ok := bin.left.(unaryNode); !ok {
		t.Errorf("left = %T, want unaryNode (unary minus binds tighter than **)", bin.left)
	}
}

func TestParseExpression_PowerRightAssociative(t *testing.T) {
	node, err := parse(t, "2 ** 3 ** 2")
	if err != nil {
		t.Fatalf("parseExpression() error = %v, want nil", err)
	}
	bin, ok := node.(binNode)
	if !ok || bin.op != "**" {
		t.Fatalf("root = %T %v, want ** binNode", node, node)
	}
	right, ok := bin.right.(binNode)
	if !ok || right.op != "**" {
		t.Errorf("right = %T, want nested ** (right associative)", bin.right)
	}
	if _, ok := bin.left.(numNode); !ok {
		t.Errorf("left = %T, want numNode 2", bin.left)
	}
}

func TestParseExpression_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"dangling operator", "a +"},
		{"leading binary operator", "* a"},
		{"unbalanced open", "(a + b"},
		{"unbalanced close", "a + b)"},
		{"adjacent operands", "a b"},
		{"empty parens", "a + ()"},
		{"comma outside call", "a, b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parse(t, tt.text); err == nil {
				t.Errorf("parseExpression(%q) error = nil, want error", tt.text)
			}
		})
	}
}
