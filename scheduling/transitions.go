package scheduling

import (
	"salonpro-scheduler/models"
)

type Event string

const (
	EventStart      Event = "start"
	EventComplete   Event = "complete"
	EventCancel     Event = "cancel"
	EventNoShow     Event = "no_show"
	EventReschedule Event = "reschedule"
)

// Effect names a side effect the caller runs after the transition commits.
type Effect string

const (
	EffectConflictCheck      Effect = "conflict_check"
	EffectCommission         Effect = "commission"
	EffectNotifyStatus       Effect = "notify_status"
	EffectNotifyCancellation Effect = "notify_cancellation"
	EffectNotifyReschedule   Effect = "notify_reschedule"
	EffectMatchWaitlist      Effect = "match_waitlist"
)

type Transition struct {
	From    models.AppointmentStatus
	Event   Event
	To      models.AppointmentStatus
	Effects []Effect
}

// transitions is the complete appointment lifecycle. Anything not listed is
// rejected.
var transitions = []Transition{
	{models.StatusBooked, EventStart, models.StatusInProgress, nil},
	{models.StatusBooked, EventComplete, models.StatusCompleted, []Effect{EffectCommission, EffectNotifyStatus}},
	{models.StatusBooked, EventCancel, models.StatusCancelled, []Effect{EffectMatchWaitlist, EffectNotifyCancellation}},
	{models.StatusBooked, EventNoShow, models.StatusNoShow, nil},
	{models.StatusBooked, EventReschedule, models.StatusBooked, []Effect{EffectConflictCheck, EffectNotifyReschedule}},
	{models.StatusInProgress, EventComplete, models.StatusCompleted, []Effect{EffectCommission, EffectNotifyStatus}},
}

// deletable maps the statuses that may be physically deleted to the effects
// of doing so. COMPLETED is absent.
var deletable = map[models.AppointmentStatus][]Effect{
	models.StatusBooked:     {EffectMatchWaitlist},
	models.StatusInProgress: nil,
	models.StatusCancelled:  nil,
	models.StatusNoShow:     nil,
}

// Next looks up the transition for event from the current status.
func Next(from models.AppointmentStatus, ev Event) (Transition, error) {
	for _, t := range transitions {
		if t.From == from && t.Event == ev {
			return t, nil
		}
	}
	return Transition{}, InvalidTransition("cannot %s an appointment that is %s", ev, from).
		Arg("from", from).Arg("event", ev)
}

// EventFor maps a requested target status onto the event that reaches it.
func EventFor(to models.AppointmentStatus) (Event, bool) {
	switch to {
	case models.StatusInProgress:
		return EventStart, true
	case models.StatusCompleted:
		return EventComplete, true
	case models.StatusCancelled:
		return EventCancel, true
	case models.StatusNoShow:
		return EventNoShow, true
	}
	return "", false
}

// DeleteEffects reports the effects of deleting an appointment in status, or
// an InvalidStateTransition error when deletion is not allowed.
func DeleteEffects(status models.AppointmentStatus) ([]Effect, error) {
	effects, ok := deletable[status]
	if !ok {
		return nil, InvalidTransition("cannot delete an appointment that is %s", status).Arg("status", status)
	}
	return effects, nil
}

// Transitions returns a copy of the lifecycle table.
func Transitions() []Transition {
	return append([]Transition(nil), transitions...)
}

func (t Transition) Has(e Effect) bool {
	for _, x := range t.Effects {
		if x == e {
			return true
		}
	}
	return false
}
