package activity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNormalizeEventTrimsClonesAndDefaults(t *testing.T) {
	meta := map[string]any{"k": "v"}
	evt := Event{
		Verb:       " userstate.slot.set ",
		ActorID:    " actor ",
		UserID:     " user ",
		TenantID:   " tenant ",
		ObjectType: " userstate.slot ",
		ObjectID:   " theme ",
		Channel:    " userstate ",
		Metadata:   meta,
	}

	got := NormalizeEvent(evt)

	if got.Verb != "userstate.slot.set" || got.ObjectType != "userstate.slot" || got.ObjectID != "theme" {
		t.Fatalf("unexpected normalized fields: %+v", got)
	}
	if got.ActorID != "actor" || got.UserID != "user" || got.TenantID != "tenant" || got.Channel != "userstate" {
		t.Fatalf("unexpected trimming: %+v", got)
	}
	if got.OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt to be set")
	}
	got.Metadata["k"] = "changed"
	if evt.Metadata["k"] != "v" {
		t.Fatalf("expected original metadata untouched: %+v", evt.Metadata)
	}
}

func TestHooksNotifyShortCircuitsMissingRequired(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}
	if err := hooks.Notify(context.Background(), Event{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events()) != 0 {
		t.Fatalf("expected no events captured, got %d", len(capture.Events()))
	}
}

func TestHooksNotifyFanOutAndJoinErrors(t *testing.T) {
	capture := &CaptureHook{}
	boom1 := errors.New("boom1")
	boom2 := errors.New("boom2")
	var ctxSeen bool
	hooks := Hooks{
		HookFunc(func(ctx context.Context, _ Event) error {
			ctxSeen = ctx != nil
			return nil
		}),
		capture,
		HookFunc(func(context.Context, Event) error { return boom1 }),
		nil,
		HookFunc(func(context.Context, Event) error { return boom2 }),
	}

	err := hooks.Notify(nil, Event{Verb: "userstate.slot.set", ObjectType: "userstate.slot", ObjectID: "mode"})
	if !errors.Is(err, boom1) || !errors.Is(err, boom2) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if !ctxSeen {
		t.Fatalf("expected context fallback to be non-nil")
	}
	if len(capture.Events()) != 1 {
		t.Fatalf("expected event to be captured once, got %d", len(capture.Events()))
	}
}

func TestEmitterDisabledAndEnabled(t *testing.T) {
	capture := &CaptureHook{}
	event := Event{Verb: "userstate.slot.set", ObjectType: "userstate.slot", ObjectID: "theme"}

	disabled := NewEmitter(Hooks{capture}, Config{Enabled: false})
	if disabled.Enabled() {
		t.Fatalf("expected emitter to be disabled")
	}
	if err := disabled.Emit(context.Background(), event); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events()) != 0 {
		t.Fatalf("expected no events captured when disabled")
	}

	if NewEmitter(Hooks{nil}, Config{Enabled: true}).Enabled() {
		t.Fatalf("expected emitter without hooks to be disabled")
	}

	enabled := NewEmitter(Hooks{capture}, Config{Enabled: true})
	if err := enabled.Emit(context.Background(), event); err != nil {
		t.Fatalf("emit: %v", err)
	}
	events := capture.Events()
	if len(events) != 1 {
		t.Fatalf("expected one event captured, got %d", len(events))
	}
	if events[0].Channel != DefaultChannel {
		t.Fatalf("expected default channel applied, got %q", events[0].Channel)
	}
}

func TestEmitterPreservesExplicitChannel(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "prefs"})
	occurred := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := emitter.Emit(context.Background(), Event{
		Verb:       "userstate.slot.set",
		ObjectType: "userstate.slot",
		ObjectID:   "theme",
		Channel:    "custom",
		OccurredAt: occurred,
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	got := capture.Events()[0]
	if got.Channel != "custom" {
		t.Fatalf("expected explicit channel preserved, got %q", got.Channel)
	}
	if !got.OccurredAt.Equal(occurred) {
		t.Fatalf("expected occurred_at preserved, got %v", got.OccurredAt)
	}
	if emitter.Channel() != "prefs" {
		t.Fatalf("expected configured channel, got %q", emitter.Channel())
	}
}

func TestBuildSlotSetEventMetadata(t *testing.T) {
	event := BuildSlotSetEvent(SlotEventInput{
		Slot:        " currency ",
		UserID:      " u1 ",
		OldValue:    `{"id":"USD"}`,
		NewValue:    `{"id":"EUR"}`,
		HadPrevious: true,
		Metadata:    map[string]any{"source": "picker"},
	})

	if event.Verb != VerbSlotSet || event.ObjectType != ObjectTypeSlot || event.ObjectID != "currency" {
		t.Fatalf("unexpected object fields: %+v", event)
	}
	if event.UserID != "u1" {
		t.Fatalf("expected trimmed user id, got %q", event.UserID)
	}
	if event.Metadata["field"] != "currency" || event.Metadata["had_previous"] != true {
		t.Fatalf("unexpected metadata: %+v", event.Metadata)
	}
	if event.Metadata["old_value"] != `{"id":"USD"}` || event.Metadata["new_value"] != `{"id":"EUR"}` {
		t.Fatalf("expected old/new values, got %+v", event.Metadata)
	}
	if event.Metadata["source"] != "picker" {
		t.Fatalf("expected custom metadata passthrough, got %+v", event.Metadata)
	}
}

func TestBuildSlotSetEventOmitsOldValueOnFirstSet(t *testing.T) {
	event := BuildSlotSetEvent(SlotEventInput{Slot: "roles", OldValue: "null", NewValue: "[]"})
	if _, ok := event.Metadata["old_value"]; ok {
		t.Fatalf("expected no old_value on first set, got %+v", event.Metadata)
	}
	hooks := Hooks{&CaptureHook{}}
	if err := hooks.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(hooks[0].(*CaptureHook).Events()) != 1 {
		t.Fatalf("expected slot event to pass normalization")
	}
}
