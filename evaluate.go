package userstate

import (
	"fmt"
	"strings"
	"time"
)

func (s *State) resolveEvaluator(cfg stateConfig) Evaluator {
	if cfg.evaluator != nil {
		return cfg.evaluator
	}

	registry := cfg.functions
	if registry == nil {
		registry = NewFunctionRegistry()
	}
	s.registerBuiltins(registry)

	cache := cfg.programCache
	if cache == nil {
		cache = NewProgramCache()
	}
	return NewExprEvaluator(
		ExprWithProgramCache(cache),
		ExprWithFunctionRegistry(registry),
	)
}

// registerBuiltins adds hasPermission and hasRole unless the caller already
// registered helpers under those names.
func (s *State) registerBuiltins(registry *FunctionRegistry) {
	builtins := map[string]func(string) bool{
		"hasPermission": s.HasPermission,
		"hasRole":       s.HasRole,
	}
	for name, check := range builtins {
		if registry.Has(name) {
			continue
		}
		_ = registry.Register(name, stringPredicate(name, check))
	}
}

func stringPredicate(name string, check func(string) bool) Function {
	return func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("userstate: %s expects 1 argument, got %d", name, len(args))
		}
		value, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("userstate: %s expects a string, got %T", name, args[0])
		}
		return check(value), nil
	}
}

// Evaluate runs expression against the current Snapshot.
func (s *State) Evaluate(expression string) (any, error) {
	return s.EvaluateWith(expression, nil)
}

// EvaluateWith runs expression against the current Snapshot with args bound
// under the args variable.
func (s *State) EvaluateWith(expression string, args map[string]any) (any, error) {
	if s.evaluator == nil {
		return nil, ErrNoEvaluator
	}
	if strings.TrimSpace(expression) == "" {
		return nil, ErrEmptyExpression
	}

	engine := Engine(s.evaluator)
	started := time.Now()
	result, err := s.evaluator.Evaluate(RuleContext{
		Snapshot: s.Snapshot(),
		Now:      &started,
		Args:     args,
	}, expression)
	err = wrapEvaluationError(engine, expression, err)
	fields := []any{
		"engine", engine,
		"expr", expression,
		"duration", time.Since(started),
	}
	if err != nil {
		fields = append(fields, "error", err)
	}
	s.logger.Debug("userstate: rule evaluated", fields...)
	return result, err
}

// Check evaluates expression and requires a boolean result.
func (s *State) Check(expression string) (bool, error) {
	result, err := s.Evaluate(expression)
	if err != nil {
		return false, err
	}
	ok, isBool := result.(bool)
	if !isBool {
		return false, &EvaluationError{
			Engine: Engine(s.evaluator),
			Expr:   expression,
			Err:    fmt.Errorf("result is %T, want bool", result),
		}
	}
	return ok, nil
}
