package userstate

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTheme indicates a configured theme outside Themes.
	ErrInvalidTheme = errors.New("userstate: invalid theme")
	// ErrInvalidMode indicates a configured mode outside Modes.
	ErrInvalidMode = errors.New("userstate: invalid mode")
)

// DefaultCurrency seeds the currency slot.
var DefaultCurrency = Currency{ID: "USD", Name: "United States Dollar"}

const (
	DefaultTheme = ThemeDefault
	DefaultMode  = ModeLight
)

// Preferences holds the values the defaulted slots start with.
type Preferences struct {
	Currency Currency
	Theme    Theme
	Mode     Mode
}

// DefaultPreferences returns the built-in seed values.
func DefaultPreferences() Preferences {
	return Preferences{
		Currency: DefaultCurrency,
		Theme:    DefaultTheme,
		Mode:     DefaultMode,
	}
}

func (p Preferences) withDefaults() Preferences {
	defaults := DefaultPreferences()
	if p.Currency == (Currency{}) {
		p.Currency = defaults.Currency
	}
	if p.Theme == "" {
		p.Theme = defaults.Theme
	}
	if p.Mode == "" {
		p.Mode = defaults.Mode
	}
	return p
}

// Validate checks that Theme and Mode belong to their enumerations.
func (p Preferences) Validate() error {
	if p.Theme != "" && !p.Theme.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, p.Theme)
	}
	if p.Mode != "" && !p.Mode.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, p.Mode)
	}
	return nil
}

// PreferenceLayer is one scope's contribution to the seeded preferences. Nil
// fields defer to weaker layers.
type PreferenceLayer struct {
	Currency *Currency `yaml:"currency"`
	Theme    *Theme    `yaml:"theme"`
	Mode     *Mode     `yaml:"mode"`
}

// Validate checks the theme and mode the layer sets, if any.
func (l PreferenceLayer) Validate() error {
	var prefs Preferences
	if l.Theme != nil {
		prefs.Theme = *l.Theme
	}
	if l.Mode != nil {
		prefs.Mode = *l.Mode
	}
	return prefs.Validate()
}

func (l PreferenceLayer) preferences() Preferences {
	var prefs Preferences
	if l.Currency != nil {
		prefs.Currency = *l.Currency
	}
	if l.Theme != nil {
		prefs.Theme = *l.Theme
	}
	if l.Mode != nil {
		prefs.Mode = *l.Mode
	}
	return prefs.withDefaults()
}

// ResolvePreferences merges layers by scope priority, strongest first, and
// fills anything still unset from DefaultPreferences.
func ResolvePreferences(layers ...Layer[PreferenceLayer]) (Preferences, error) {
	if len(layers) == 0 {
		return DefaultPreferences(), nil
	}
	stack, err := NewStack(layers...)
	if err != nil {
		return Preferences{}, err
	}
	merged, err := stack.Merge()
	if err != nil {
		return Preferences{}, err
	}
	prefs := merged.preferences()
	if err := prefs.Validate(); err != nil {
		return Preferences{}, err
	}
	return prefs, nil
}
