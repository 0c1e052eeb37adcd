package userstate

import "time"

// DefaultJSTimeout bounds a single JS rule run. Rules gate UI features and
// must not stall the caller.
const DefaultJSTimeout = 250 * time.Millisecond

// JSEvaluatorOption configures the goja-backed evaluator. Options are
// accepted in every build so callers compile without the js_eval tag.
type JSEvaluatorOption func(*jsSettings)

type jsSettings struct {
	cache    ProgramCache
	registry *FunctionRegistry
	timeout  time.Duration
}

// JSWithProgramCache shares compiled scripts across evaluations.
func JSWithProgramCache(cache ProgramCache) JSEvaluatorOption {
	return func(s *jsSettings) {
		s.cache = cache
	}
}

// JSWithFunctionRegistry exposes a copy of registry as JS globals and
// through call(name, ...args).
func JSWithFunctionRegistry(registry *FunctionRegistry) JSEvaluatorOption {
	return func(s *jsSettings) {
		s.registry = registry.Clone()
	}
}

// JSWithTimeout interrupts rules running longer than d. Zero or negative
// values disable the limit.
func JSWithTimeout(d time.Duration) JSEvaluatorOption {
	return func(s *jsSettings) {
		s.timeout = d
	}
}

func newJSSettings(opts []JSEvaluatorOption) jsSettings {
	settings := jsSettings{timeout: DefaultJSTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(&settings)
		}
	}
	return settings
}
