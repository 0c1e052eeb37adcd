package userstate

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-userstate/internal/hydrate"
	"github.com/goliatone/go-userstate/pkg/activity"
	"github.com/goliatone/go-userstate/pkg/logging"
)

// ErrConfigPathRequired indicates LoadConfig was called without a path.
var ErrConfigPathRequired = errors.New("userstate: config path must be provided")

// Config is the file-level configuration of a State.
type Config struct {
	Logging     logging.Config    `yaml:"logging"`
	Activity    activity.Config   `yaml:"activity"`
	Preferences []PreferenceScope `yaml:"preferences"`
}

// PreferenceScope is one entry of the preferences list. Priority defaults to
// DefaultScopePriority(Scope) when omitted.
type PreferenceScope struct {
	Scope    string    `yaml:"scope"`
	Priority int       `yaml:"priority"`
	Label    string    `yaml:"label,omitempty"`
	Currency *Currency `yaml:"currency,omitempty"`
	Theme    *Theme    `yaml:"theme,omitempty"`
	Mode     *Mode     `yaml:"mode,omitempty"`
}

// Layer converts the entry into a preference layer.
func (p PreferenceScope) Layer() Layer[PreferenceLayer] {
	priority := p.Priority
	if priority == 0 {
		priority = DefaultScopePriority(p.Scope)
	}
	var opts []ScopeOption
	if p.Label != "" {
		opts = append(opts, WithScopeLabel(p.Label))
	}
	return NewLayer(NewScope(p.Scope, priority, opts...), PreferenceLayer{
		Currency: p.Currency,
		Theme:    p.Theme,
		Mode:     p.Mode,
	})
}

// LoadConfig reads and parses the YAML file at path.
func LoadConfig(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return Config{}, ErrConfigPathRequired
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("userstate: read config %s: %w", path, err)
	}
	return parseConfig(hydrate.Context{Source: path}, data)
}

// ParseConfig parses YAML configuration held in memory.
func ParseConfig(data []byte) (Config, error) {
	return parseConfig(hydrate.Context{}, data)
}

func parseConfig(ctx hydrate.Context, data []byte) (Config, error) {
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("userstate: parse config %s: %w", ctx, err)
	}

	decoder := hydrate.NewDecoder(
		hydrate.WithDisallowUnknownFields[Config](),
		hydrate.WithPreHook[Config](defaultActivitySection),
		hydrate.WithPostHook[Config](func(_ hydrate.Context, cfg *Config) error {
			return cfg.Validate()
		}),
	)
	return decoder.Decode(ctx, raw)
}

// defaultActivitySection enables activity emission unless the file says
// otherwise.
func defaultActivitySection(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
	section, ok := payload["activity"].(map[string]any)
	if !ok || section == nil {
		section = map[string]any{}
	}
	if _, set := section["enabled"]; !set {
		section["enabled"] = true
	}
	payload["activity"] = section
	return payload, nil
}

// Validate checks preference values and scope ordering.
func (c Config) Validate() error {
	layers := make([]Layer[PreferenceLayer], 0, len(c.Preferences))
	for i, entry := range c.Preferences {
		layer := entry.Layer()
		if err := layer.Snapshot.Validate(); err != nil {
			return fmt.Errorf("userstate: preferences[%d] (%s): %w", i, entry.Scope, err)
		}
		layers = append(layers, layer)
	}
	if _, err := NewStack(layers...); err != nil {
		return err
	}
	return nil
}

// ResolvedPreferences merges the configured preference layers.
func (c Config) ResolvedPreferences() (Preferences, error) {
	layers := make([]Layer[PreferenceLayer], 0, len(c.Preferences))
	for _, entry := range c.Preferences {
		layers = append(layers, entry.Layer())
	}
	return ResolvePreferences(layers...)
}

// NewStateFromConfig builds a State seeded from cfg with a logrus logger.
// opts are applied after the configuration and can override any of it.
func NewStateFromConfig(cfg Config, opts ...Option) (*State, error) {
	prefs, err := cfg.ResolvedPreferences()
	if err != nil {
		return nil, err
	}
	base := []Option{
		WithLogger(logging.New(cfg.Logging)),
		WithPreferences(prefs),
		WithActivityConfig(cfg.Activity),
	}
	return NewState(append(base, opts...)...), nil
}
