package userstate

import (
	"errors"
	"fmt"
	"sort"

	"github.com/goliatone/go-userstate/layering"
)

const (
	// Recommended priorities for preference layers. Higher numbers win.
	ScopePrioritySystem = 100
	ScopePriorityTenant = 200
	ScopePriorityOrg    = 300
	ScopePriorityTeam   = 400
	ScopePriorityUser   = 500
)

// Scope names one precedence bucket that contributes preference defaults.
type Scope struct {
	Name     string
	Label    string
	Priority int
	Metadata map[string]any
}

// ScopeOption configures a Scope at construction.
type ScopeOption func(*Scope)

// WithScopeLabel sets a human-friendly label.
func WithScopeLabel(label string) ScopeOption {
	return func(s *Scope) {
		s.Label = label
	}
}

// WithScopeMetadata attaches a copy of metadata to the scope.
func WithScopeMetadata(metadata map[string]any) ScopeOption {
	return func(s *Scope) {
		s.Metadata = copyMetadata(metadata)
	}
}

// NewScope builds a Scope. Validation happens in NewStack.
func NewScope(name string, priority int, opts ...ScopeOption) Scope {
	scope := Scope{Name: name, Priority: priority}
	for _, opt := range opts {
		if opt != nil {
			opt(&scope)
		}
	}
	return scope
}

// DefaultScopePriority maps the well-known scope names onto their
// recommended priority. Unknown names return 0.
func DefaultScopePriority(name string) int {
	switch name {
	case "system":
		return ScopePrioritySystem
	case "tenant":
		return ScopePriorityTenant
	case "org":
		return ScopePriorityOrg
	case "team":
		return ScopePriorityTeam
	case "user":
		return ScopePriorityUser
	default:
		return 0
	}
}

func (s Scope) clone() Scope {
	s.Metadata = copyMetadata(s.Metadata)
	return s
}

// Layer pairs a scope with the snapshot it contributes.
type Layer[T any] struct {
	Scope    Scope
	Snapshot T
}

// NewLayer constructs a Layer holding deep copies of scope and snapshot.
func NewLayer[T any](scope Scope, snapshot T) Layer[T] {
	return Layer[T]{
		Scope:    scope.clone(),
		Snapshot: layering.Clone(snapshot),
	}
}

var (
	// ErrScopeNameRequired indicates a layer without a scope name.
	ErrScopeNameRequired = errors.New("userstate: scope name must be provided")
	// ErrDuplicateScopeName indicates two layers share a scope name.
	ErrDuplicateScopeName = errors.New("userstate: scope names must be unique")
	// ErrPriorityOrder indicates two layers share a priority.
	ErrPriorityOrder = errors.New("userstate: scope priorities must be strictly ordered")
)

// Stack is an immutable set of layers ordered strongest to weakest.
type Stack[T any] struct {
	layers []Layer[T]
}

// NewStack validates layers and sorts them by descending priority.
func NewStack[T any](layers ...Layer[T]) (*Stack[T], error) {
	seen := make(map[string]struct{}, len(layers))
	ordered := make([]Layer[T], 0, len(layers))
	for _, layer := range layers {
		if layer.Scope.Name == "" {
			return nil, ErrScopeNameRequired
		}
		if _, ok := seen[layer.Scope.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateScopeName, layer.Scope.Name)
		}
		seen[layer.Scope.Name] = struct{}{}
		ordered = append(ordered, NewLayer(layer.Scope, layer.Snapshot))
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Scope.Priority > ordered[j].Scope.Priority
	})
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].Scope.Priority == ordered[i].Scope.Priority {
			return nil, fmt.Errorf("%w: %s and %s share %d", ErrPriorityOrder,
				ordered[i-1].Scope.Name, ordered[i].Scope.Name, ordered[i].Scope.Priority)
		}
	}
	return &Stack[T]{layers: ordered}, nil
}

// Layers returns copies of the ordered layers.
func (s *Stack[T]) Layers() []Layer[T] {
	if s == nil || len(s.layers) == 0 {
		return nil
	}
	out := make([]Layer[T], len(s.layers))
	for i, layer := range s.layers {
		out[i] = NewLayer(layer.Scope, layer.Snapshot)
	}
	return out
}

// Len returns the number of layers.
func (s *Stack[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.layers)
}

// Merge folds the layers into one snapshot.
func (s *Stack[T]) Merge() (T, error) {
	var zero T
	if s == nil || len(s.layers) == 0 {
		return zero, fmt.Errorf("userstate: stack must include at least one layer")
	}
	snapshots := make([]T, len(s.layers))
	for i, layer := range s.layers {
		snapshots[i] = layer.Snapshot
	}
	return layering.MergeLayers(snapshots...), nil
}

func copyMetadata(origin map[string]any) map[string]any {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]any, len(origin))
	for key, value := range origin {
		out[key] = value
	}
	return out
}
