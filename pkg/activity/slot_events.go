package activity

import (
	"strings"
	"time"
)

const (
	// VerbSlotSet is the verb of events emitted after a slot Set.
	VerbSlotSet = "userstate.slot.set"
	// ObjectTypeSlot is the object type of slot events.
	ObjectTypeSlot = "userstate.slot"
)

// SlotEventInput describes one completed Set on a user-state slot.
type SlotEventInput struct {
	Slot        string
	ActorID     string
	UserID      string
	TenantID    string
	Channel     string
	OldValue    any
	NewValue    any
	HadPrevious bool
	Metadata    map[string]any
	OccurredAt  time.Time
}

// BuildSlotSetEvent constructs the activity event for a slot Set. The object
// id is the slot name.
func BuildSlotSetEvent(input SlotEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	slot := strings.TrimSpace(input.Slot)
	metadata["field"] = slot
	metadata["had_previous"] = input.HadPrevious
	if input.HadPrevious && input.OldValue != nil {
		metadata["old_value"] = input.OldValue
	}
	if input.NewValue != nil {
		metadata["new_value"] = input.NewValue
	}

	return Event{
		Verb:       VerbSlotSet,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypeSlot,
		ObjectID:   slot,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
