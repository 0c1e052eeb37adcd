package userstate

import "github.com/goliatone/go-userstate/pkg/activity"

// Option configures a State at construction.
type Option func(*stateConfig)

type stateConfig struct {
	logger        Logger
	render        Renderer
	preferences   Preferences
	activityHooks activity.Hooks
	activity      activity.Config
	evaluator     Evaluator
	programCache  ProgramCache
	functions     *FunctionRegistry
}

func applyOptions(opts []Option) stateConfig {
	cfg := stateConfig{
		render:      RenderJSON,
		preferences: DefaultPreferences(),
		activity:    activity.Config{Enabled: true},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithLogger routes slot and evaluator diagnostics to logger.
func WithLogger(logger Logger) Option {
	return func(cfg *stateConfig) {
		cfg.logger = logger
	}
}

// WithValueRenderer replaces RenderJSON for every slot's log output.
func WithValueRenderer(render Renderer) Option {
	return func(cfg *stateConfig) {
		if render != nil {
			cfg.render = render
		}
	}
}

// WithPreferences seeds the currency, theme and mode slots. Zero fields keep
// the built-in defaults.
func WithPreferences(prefs Preferences) Option {
	return func(cfg *stateConfig) {
		cfg.preferences = prefs.withDefaults()
	}
}

// WithActivityHooks attaches hooks notified after every Set. Nil entries are
// dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *stateConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityConfig controls whether activity is emitted and on which channel.
func WithActivityConfig(config activity.Config) Option {
	return func(cfg *stateConfig) {
		cfg.activity = config
	}
}

// WithEvaluator replaces the default expr evaluator used by State.Evaluate.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *stateConfig) {
		cfg.evaluator = e
	}
}

// WithProgramCache shares compiled programs across evaluations.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *stateConfig) {
		cfg.programCache = cache
	}
}

// WithFunctionRegistry exposes the registry's functions to rule expressions.
// The registry is cloned.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *stateConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction registers a single function for rule expressions.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *stateConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}
