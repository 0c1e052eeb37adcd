package userstate

import (
	"context"

	"github.com/goliatone/go-userstate/pkg/activity"
)

// recordChange emits one slot-set event per Set once delivery finished.
// Hook failures are logged and never surface to the setter.
func (s *State) recordChange(slot string, previous any, hadPrevious bool, value any) {
	if s.emitter == nil || !s.emitter.Enabled() {
		return
	}

	var actor string
	if identity, ok := s.identity.Current(); ok {
		actor = identity.ID
	}

	input := activity.SlotEventInput{
		Slot:        slot,
		ActorID:     actor,
		UserID:      actor,
		Channel:     s.emitter.Channel(),
		NewValue:    jsonShape(value),
		HadPrevious: hadPrevious,
	}
	if hadPrevious {
		input.OldValue = jsonShape(previous)
	}

	if err := s.emitter.Emit(context.Background(), activity.BuildSlotSetEvent(input)); err != nil {
		s.logger.Error("userstate: activity hook failed", "slot", slot, "error", err)
	}
}
