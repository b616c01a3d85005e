package types

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for Formulary operations. Typed errors below wrap these so
// callers can branch with errors.Is while still receiving the offending
// expression text, variable name, or formula id.
var (
	// ErrMalformedExpression indicates expression text that cannot be parsed.
	ErrMalformedExpression = errors.New("malformed expression")

	// ErrDisallowedOperator indicates a logical/ternary operator inside an
	// arithmetic expression (those belong to condition trees only).
	ErrDisallowedOperator = errors.New("operator not allowed in arithmetic expression")

	// ErrDivisionByZero indicates division or modulo by zero.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrMathDomain indicates a negative-input domain fault (sqrt, log).
	ErrMathDomain = errors.New("math domain error")

	// ErrUnresolvedVariable indicates a reference to an absent context key.
	ErrUnresolvedVariable = errors.New("unresolved variable")

	// ErrUnknownFunction indicates a call to an unregistered function.
	ErrUnknownFunction = errors.New("unknown function")

	// ErrUnknownOperator indicates an unrecognized comparison operator.
	ErrUnknownOperator = errors.New("unknown operator")

	// ErrInvalidStructure indicates a formula missing its required shape.
	ErrInvalidStructure = errors.New("invalid formula structure")

	// ErrCodegen indicates an unsupported operator or structure during lowering.
	ErrCodegen = errors.New("code generation failed")
)

// ExpressionError reports a fault while evaluating one arithmetic expression.
// Carries the original expression text so callers can build actionable messages.
type ExpressionError struct {
	Expr   string
	Reason string
	Err    error // sentinel cause, nil for plain parse faults
}

func (e *ExpressionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("expression %q: %s: %v", e.Expr, e.Reason, e.Err)
	}
	return fmt.Sprintf("expression %q: %s", e.Expr, e.Reason)
}

func (e *ExpressionError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrMalformedExpression
}

// UnresolvedVariableError reports a reference to a context key that is absent
// at evaluation time.
type UnresolvedVariableError struct {
	Name string
}

func (e *UnresolvedVariableError) Error() string {
	return fmt.Sprintf("unresolved variable %q", e.Name)
}

func (e *UnresolvedVariableError) Unwrap() error { return ErrUnresolvedVariable }

// UnknownFunctionError reports a call to a function the catalog does not
// know. Available lists registered names so the message is self-serving.
type UnknownFunctionError struct {
	Name      string
	Available []string
}

func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("unknown function %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

func (e *UnknownFunctionError) Unwrap() error { return ErrUnknownFunction }

// StructureError reports a formula missing its required shape, for example a
// switch without cases or a boolean group without children.
type StructureError struct {
	FormulaID string
	Reason    string
}

func (e *StructureError) Error() string {
	if e.FormulaID == "" {
		return fmt.Sprintf("invalid structure: %s", e.Reason)
	}
	return fmt.Sprintf("formula %q: invalid structure: %s", e.FormulaID, e.Reason)
}

func (e *StructureError) Unwrap() error { return ErrInvalidStructure }

// FormulaError wraps any per-formula evaluation failure with the formula id.
// The dispatch engine never lets a failure escape without this wrapper.
type FormulaError struct {
	FormulaID string
	Err       error
}

func (e *FormulaError) Error() string {
	return fmt.Sprintf("formula %q: %v", e.FormulaID, e.Err)
}

func (e *FormulaError) Unwrap() error { return e.Err }

// CodegenError reports an operator or structure the code generator cannot
// lower for the requested target.
type CodegenError struct {
	FormulaID string
	Target    string
	Reason    string
}

func (e *CodegenError) Error() string {
	if e.FormulaID == "" {
		return fmt.Sprintf("codegen (%s): %s", e.Target, e.Reason)
	}
	return fmt.Sprintf("codegen (%s): formula %q: %s", e.Target, e.FormulaID, e.Reason)
}

func (e *CodegenError) Unwrap() error { return ErrCodegen }

// CircularDependencyWarning reports formulas the dependency resolver could
// only place by breaking a deadlock heuristically. It is a value, not an
// error: the produced order still runs, but its correctness is not
// guaranteed for the listed formulas.
type CircularDependencyWarning struct {
	FormulaIDs []string
}

func (w *CircularDependencyWarning) String() string {
	return fmt.Sprintf("circular dependency suspected among formulas: %s", strings.Join(w.FormulaIDs, ", "))
}
