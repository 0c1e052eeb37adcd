package userstate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
)

// ReplayPolicy controls what a newly attached observer receives.
type ReplayPolicy int

const (
	// ReplayLast hands the most recently set value (or the default) to an
	// observer as soon as it attaches.
	ReplayLast ReplayPolicy = iota
	// ReplayNone only delivers values set after the observer attached.
	ReplayNone
)

func (p ReplayPolicy) String() string {
	switch p {
	case ReplayLast:
		return "replay-last"
	case ReplayNone:
		return "replay-none"
	default:
		return "unknown"
	}
}

// Renderer turns a slot value into the text written to the log on Set.
type Renderer func(value any) string

// RenderJSON renders value as compact JSON without HTML escaping, falling
// back to %+v when the value cannot be marshalled.
func RenderJSON(value any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return fmt.Sprintf("%+v", value)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// Change describes a completed Set, handed to change hooks after delivery.
type Change[T any] struct {
	Slot        string
	Previous    T
	HadPrevious bool
	Value       T
}

// SlotOption configures a Slot at construction.
type SlotOption[T any] func(*slotConfig[T])

type slotConfig[T any] struct {
	policy     ReplayPolicy
	defaultVal T
	hasDefault bool
	logger     Logger
	render     Renderer
	message    string
	onChange   []func(Change[T])
}

// WithDefault pre-seeds the slot so observers never see an absent state.
func WithDefault[T any](value T) SlotOption[T] {
	return func(cfg *slotConfig[T]) {
		cfg.defaultVal = value
		cfg.hasDefault = true
	}
}

// WithReplayPolicy overrides the default ReplayLast policy.
func WithReplayPolicy[T any](policy ReplayPolicy) SlotOption[T] {
	return func(cfg *slotConfig[T]) {
		cfg.policy = policy
	}
}

// WithSlotLogger sets the logger that receives one debug entry per Set.
func WithSlotLogger[T any](logger Logger) SlotOption[T] {
	return func(cfg *slotConfig[T]) {
		cfg.logger = logger
	}
}

// WithRenderer replaces RenderJSON for log output.
func WithRenderer[T any](render Renderer) SlotOption[T] {
	return func(cfg *slotConfig[T]) {
		if render != nil {
			cfg.render = render
		}
	}
}

// WithMessage sets the log format used on Set. The format receives the
// rendered value as its only %s verb.
func WithMessage[T any](format string) SlotOption[T] {
	return func(cfg *slotConfig[T]) {
		if format != "" {
			cfg.message = format
		}
	}
}

// WithChangeHook registers fn to run after every Set has been delivered.
func WithChangeHook[T any](fn func(Change[T])) SlotOption[T] {
	return func(cfg *slotConfig[T]) {
		if fn != nil {
			cfg.onChange = append(cfg.onChange, fn)
		}
	}
}

// Slot holds the latest value of T and broadcasts every Set to its observers.
// History depth is one: only the latest value is retained or replayed.
type Slot[T any] struct {
	name     string
	policy   ReplayPolicy
	logger   Logger
	render   Renderer
	message  string
	onChange []func(Change[T])

	mu        sync.Mutex
	current   T
	has       bool
	observers []*observer[T]
	nextID    uint64
}

type observer[T any] struct {
	id     uint64
	fn     func(T)
	active atomic.Bool
	// primed is set once the observer has been handed any value.
	primed atomic.Bool
}

// NewSlot constructs a slot named name. Without options the slot starts empty
// and replays its last value.
func NewSlot[T any](name string, opts ...SlotOption[T]) *Slot[T] {
	cfg := slotConfig[T]{
		policy:  ReplayLast,
		render:  RenderJSON,
		message: "Setting the user's " + name + " to %s",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Slot[T]{
		name:     name,
		policy:   cfg.policy,
		logger:   loggerOrNoop(cfg.logger),
		render:   cfg.render,
		message:  cfg.message,
		onChange: cfg.onChange,
		current:  cfg.defaultVal,
		has:      cfg.hasDefault,
	}
}

// Name returns the slot name used in log lines and activity events.
func (s *Slot[T]) Name() string {
	return s.name
}

// Policy returns the replay policy the slot was built with.
func (s *Slot[T]) Policy() ReplayPolicy {
	return s.policy
}

// Set records value as current, logs it, then delivers it to every attached
// observer in attachment order before returning. Values are never compared,
// so setting the same value twice delivers twice.
func (s *Slot[T]) Set(value T) {
	s.mu.Lock()
	previous, hadPrevious := s.current, s.has
	s.current, s.has = value, true
	observers := slices.Clone(s.observers)
	s.mu.Unlock()

	s.logger.Debug(fmt.Sprintf(s.message, s.render(value)), "slot", s.name)

	for _, o := range observers {
		if !o.active.Load() {
			continue
		}
		s.deliver(o, value)
	}

	if len(s.onChange) == 0 {
		return
	}
	change := Change[T]{
		Slot:        s.name,
		Previous:    previous,
		HadPrevious: hadPrevious,
		Value:       value,
	}
	for i, fn := range s.onChange {
		s.runChangeHook(i, fn, change)
	}
}

// Subscribe attaches fn. Under ReplayLast a slot holding a value hands it to
// fn before Subscribe returns. If a concurrent Set reaches fn first, the
// replay is dropped so fn never sees an older value after a newer one.
func (s *Slot[T]) Subscribe(fn func(T)) *Subscription {
	if fn == nil {
		return &Subscription{}
	}

	s.mu.Lock()
	s.nextID++
	o := &observer[T]{id: s.nextID, fn: fn}
	o.active.Store(true)
	s.observers = append(s.observers, o)
	value, replayable := s.current, s.has && s.policy == ReplayLast
	s.mu.Unlock()

	if replayable {
		s.replay(o, value)
	}

	return &Subscription{detach: func() { s.detach(o) }}
}

// Current returns the stored value and whether the slot holds one.
func (s *Slot[T]) Current() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.has
}

// Observers reports how many observers are attached.
func (s *Slot[T]) Observers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observers)
}

// Stream returns the read-only handle for this slot.
func (s *Slot[T]) Stream() Stream[T] {
	return Stream[T]{slot: s}
}

func (s *Slot[T]) detach(o *observer[T]) {
	if !o.active.CompareAndSwap(true, false) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = slices.DeleteFunc(s.observers, func(candidate *observer[T]) bool {
		return candidate.id == o.id
	})
}

func (s *Slot[T]) deliver(o *observer[T], value T) {
	o.primed.Store(true)
	s.invoke(o, value)
}

// replay hands the value read at Subscribe time to o unless a concurrent Set
// already reached it, in which case the replayed value is stale.
func (s *Slot[T]) replay(o *observer[T], value T) {
	if !o.primed.CompareAndSwap(false, true) {
		return
	}
	s.invoke(o, value)
}

// invoke isolates observer panics so the remaining observers still run.
func (s *Slot[T]) invoke(o *observer[T], value T) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("userstate: observer panicked", "slot", s.name, "observer", o.id, "panic", r)
		}
	}()
	o.fn(value)
}

// runChangeHook applies the same isolation to change hooks, which run after
// every observer has been served.
func (s *Slot[T]) runChangeHook(index int, fn func(Change[T]), change Change[T]) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("userstate: change hook panicked", "slot", s.name, "hook", index, "panic", r)
		}
	}()
	fn(change)
}

// Subscription detaches an observer from its slot.
type Subscription struct {
	once   sync.Once
	detach func()
}

// Unsubscribe stops further deliveries. Calling it more than once is a no-op.
func (sub *Subscription) Unsubscribe() {
	if sub == nil || sub.detach == nil {
		return
	}
	sub.once.Do(sub.detach)
}
