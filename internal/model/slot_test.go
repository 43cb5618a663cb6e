package model

import "testing"

func TestSlotStatusTransitions(t *testing.T) {
	tests := []struct {
		from SlotStatus
		to   SlotStatus
		want bool
	}{
		{SlotStatusBooked, SlotStatusCancelled, true},
		{SlotStatusBooked, SlotStatusCompleted, true},
		{SlotStatusBooked, SlotStatusBooked, false},
		{SlotStatusCancelled, SlotStatusBooked, false},
		{SlotStatusCancelled, SlotStatusCompleted, false},
		{SlotStatusCompleted, SlotStatusCancelled, false},
		{SlotStatusCompleted, SlotStatusBooked, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestSlotStatusIsTerminal(t *testing.T) {
	if SlotStatusBooked.IsTerminal() {
		t.Error("booked must not be terminal")
	}
	if !SlotStatusCancelled.IsTerminal() {
		t.Error("cancelled must be terminal")
	}
	if !SlotStatusCompleted.IsTerminal() {
		t.Error("completed must be terminal")
	}
}
