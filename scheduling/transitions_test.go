package scheduling

import (
	"errors"
	"testing"

	"salonpro-scheduler/models"
)

func TestNext_AllowedTransitions(t *testing.T) {
	tests := []struct {
		from models.AppointmentStatus
		ev   Event
		to   models.AppointmentStatus
	}{
		{models.StatusBooked, EventStart, models.StatusInProgress},
		{models.StatusBooked, EventComplete, models.StatusCompleted},
		{models.StatusBooked, EventCancel, models.StatusCancelled},
		{models.StatusBooked, EventNoShow, models.StatusNoShow},
		{models.StatusBooked, EventReschedule, models.StatusBooked},
		{models.StatusInProgress, EventComplete, models.StatusCompleted},
	}
	for _, tt := range tests {
		tr, err := Next(tt.from, tt.ev)
		if err != nil {
			t.Errorf("%s + %s: unexpected error: %v", tt.from, tt.ev, err)
			continue
		}
		if tr.To != tt.to {
			t.Errorf("%s + %s: expected %s, got %s", tt.from, tt.ev, tt.to, tr.To)
		}
	}
}

func TestNext_RejectsEverythingElse(t *testing.T) {
	allowed := map[models.AppointmentStatus]map[Event]bool{}
	for _, tr := range Transitions() {
		if allowed[tr.From] == nil {
			allowed[tr.From] = map[Event]bool{}
		}
		allowed[tr.From][tr.Event] = true
	}
	statuses := []models.AppointmentStatus{
		models.StatusBooked, models.StatusInProgress, models.StatusCompleted,
		models.StatusCancelled, models.StatusNoShow,
	}
	evs := []Event{EventStart, EventComplete, EventCancel, EventNoShow, EventReschedule}
	for _, s := range statuses {
		for _, ev := range evs {
			if allowed[s][ev] {
				continue
			}
			if _, err := Next(s, ev); !errors.Is(err, ErrInvalidStateTransition) {
				t.Errorf("%s + %s: expected invalid transition, got %v", s, ev, err)
			}
		}
	}
}

func TestNext_Effects(t *testing.T) {
	tr, _ := Next(models.StatusBooked, EventCancel)
	if !tr.Has(EffectMatchWaitlist) || !tr.Has(EffectNotifyCancellation) {
		t.Errorf("cancel should match the waitlist and notify, got %v", tr.Effects)
	}
	tr, _ = Next(models.StatusInProgress, EventComplete)
	if !tr.Has(EffectCommission) {
		t.Error("completion should trigger commission")
	}
	tr, _ = Next(models.StatusBooked, EventNoShow)
	if tr.Has(EffectMatchWaitlist) {
		t.Error("a no-show should not match the waitlist")
	}
}

func TestDeleteEffects(t *testing.T) {
	if _, err := DeleteEffects(models.StatusCompleted); !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("completed appointments must not be deletable, got %v", err)
	}
	effects, err := DeleteEffects(models.StatusBooked)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(effects) != 1 || effects[0] != EffectMatchWaitlist {
		t.Errorf("deleting a booked appointment should match the waitlist, got %v", effects)
	}
	if effects, _ := DeleteEffects(models.StatusCancelled); len(effects) != 0 {
		t.Errorf("deleting a cancelled appointment has no effects, got %v", effects)
	}
}

func TestEventFor(t *testing.T) {
	if _, ok := EventFor(models.StatusBooked); ok {
		t.Error("BOOKED is not reachable through a status change")
	}
	if ev, ok := EventFor(models.StatusNoShow); !ok || ev != EventNoShow {
		t.Errorf("expected no_show event, got %v %v", ev, ok)
	}
}
