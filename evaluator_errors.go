package userstate

import (
	"errors"
	"fmt"
	"strings"
)

// EvaluationError records which engine and expression produced Err.
type EvaluationError struct {
	Engine string
	Expr   string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("userstate: %s rule %s: %v", e.Engine, describeExpression(e.Expr), e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

// wrapEvaluationError attaches engine/expr metadata, filling blanks on an
// existing EvaluationError instead of nesting a second one.
func wrapEvaluationError(engine, expr string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		return err
	}
	if errors.Is(err, ErrEmptyExpression) || strings.HasPrefix(err.Error(), "userstate:") {
		return err
	}
	return &EvaluationError{Engine: engine, Expr: expr, Err: err}
}
