package userstate

import (
	"errors"
	"time"
)

var (
	// ErrNoEvaluator indicates no evaluator could be resolved.
	ErrNoEvaluator = errors.New("userstate: evaluator not configured")
	// ErrEmptyExpression indicates an empty rule expression.
	ErrEmptyExpression = errors.New("userstate: expression must not be empty")
)

// RuleContext carries the inputs a rule expression is evaluated against.
type RuleContext struct {
	// Snapshot is the JSON-shaped user state; see State.Snapshot.
	Snapshot map[string]any
	Now      *time.Time
	Args     map[string]any
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Snapshot == nil {
		ctx.Snapshot = map[string]any{}
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	return *ctx.withDefaults().Now
}

// Evaluator executes rule expressions against a RuleContext.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule is a reusable, pre-parsed expression.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// Engine names the expression language behind e.
func Engine(e Evaluator) string {
	switch e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return "expr"
	case *celEvaluator:
		return "cel"
	default:
		if named, ok := e.(interface{ Engine() string }); ok {
			return named.Engine()
		}
		return "custom"
	}
}
