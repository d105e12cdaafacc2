package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"salonpro-scheduler/events"
	"salonpro-scheduler/models"
	"salonpro-scheduler/repository"
	"salonpro-scheduler/scheduling"
)

var eventTypes = map[scheduling.Event]string{
	scheduling.EventStart:      events.AppointmentStarted,
	scheduling.EventComplete:   events.AppointmentCompleted,
	scheduling.EventCancel:     events.AppointmentCancelled,
	scheduling.EventNoShow:     events.AppointmentNoShow,
	scheduling.EventReschedule: events.AppointmentRescheduled,
}

// TransitionStatus moves an appointment to the requested status through the
// lifecycle table.
func (s *SchedulingService) TransitionStatus(ctx context.Context, id uuid.UUID, to models.AppointmentStatus, reason string) (*models.Appointment, error) {
	ev, ok := scheduling.EventFor(to)
	if !ok {
		if to.Valid() {
			return nil, scheduling.InvalidTransition("an appointment cannot be moved to %s", to)
		}
		return nil, scheduling.Invalid("unknown status %q", to)
	}
	return s.apply(ctx, id, ev, reason)
}

func (s *SchedulingService) CancelAppointment(ctx context.Context, id uuid.UUID, reason string) (*models.Appointment, error) {
	return s.apply(ctx, id, scheduling.EventCancel, reason)
}

// apply commits one status transition, then runs its side effects.
func (s *SchedulingService) apply(ctx context.Context, id uuid.UUID, ev scheduling.Event, reason string) (_ *models.Appointment, err error) {
	ctx, span := startSpan(ctx, "SchedulingService.Transition",
		attribute.String("appointment.id", id.String()), attribute.String("event", string(ev)))
	defer func() { endSpan(span, err) }()

	var appt *models.Appointment
	var t scheduling.Transition
	err = s.store.InTx(ctx, nil, func(tx repository.Store) error {
		a, err := tx.Appointments().Get(ctx, id)
		if err != nil {
			return err
		}
		t, err = scheduling.Next(a.Status, ev)
		if err != nil {
			return err
		}
		a.Status = t.To
		if ev == scheduling.EventCancel && reason != "" {
			a.AppendNote("Cancellation reason: " + reason)
		}
		if err := tx.Appointments().Update(ctx, a); err != nil {
			return err
		}
		appt = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("appointment_id", id.String()).Str("from", string(t.From)).
		Str("to", string(t.To)).Msg("appointment status changed")
	s.runEffects(ctx, appt, t.Effects, reason)
	s.publishAppointment(ctx, eventTypes[ev], appt)
	return appt, nil
}

// runEffects executes post-commit side effects. Failures are logged and never
// undo the transition.
func (s *SchedulingService) runEffects(ctx context.Context, a *models.Appointment, effects []scheduling.Effect, reason string) {
	for _, e := range effects {
		switch e {
		case scheduling.EffectCommission:
			if err := s.commission.OnAppointmentCompleted(ctx, *a); err != nil {
				s.logger.Error().Err(err).Str("appointment_id", a.ID.String()).Msg("commission trigger failed")
			}
		case scheduling.EffectNotifyStatus:
			s.notify(ctx, models.KindStatusUpdate, a, "")
		case scheduling.EffectNotifyCancellation:
			s.notify(ctx, models.KindCancellation, a, reason)
		case scheduling.EffectNotifyReschedule:
			s.notify(ctx, models.KindReschedule, a, "")
		case scheduling.EffectMatchWaitlist:
			freed := scheduling.FreedInterval{StaffID: a.StaffID, Date: a.Date, Start: a.StartTime, End: a.EndTime}
			if _, err := s.notifyWaitlist(ctx, freed); err != nil {
				s.logger.Error().Err(err).Str("appointment_id", a.ID.String()).Msg("waitlist matching failed")
			}
		case scheduling.EffectConflictCheck:
			// enforced inside the transaction
		}
	}
}

// RescheduleAppointment moves a booked appointment to a new date and time.
// The end time is reconciled against the booked services.
func (s *SchedulingService) RescheduleAppointment(ctx context.Context, id uuid.UUID, date models.Date, start models.Clock, end *models.Clock) (_ *models.Appointment, err error) {
	ctx, span := startSpan(ctx, "SchedulingService.RescheduleAppointment", attribute.String("appointment.id", id.String()))
	defer func() { endSpan(span, err) }()

	if date.IsZero() {
		return nil, scheduling.Invalid("date is required")
	}
	current, err := s.store.Appointments().Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var appt *models.Appointment
	var t scheduling.Transition
	key := repository.LockKey{StaffID: current.StaffID, Date: date}
	err = s.store.InTx(ctx, []repository.LockKey{key}, func(tx repository.Store) error {
		a, err := tx.Appointments().Get(ctx, id)
		if err != nil {
			return err
		}
		t, err = scheduling.Next(a.Status, scheduling.EventReschedule)
		if err != nil {
			return err
		}
		if a.StaffID != current.StaffID {
			return scheduling.Conflict("appointment was reassigned while rescheduling, retry")
		}
		newEnd := scheduling.ReconcileEndTime(start, end, s.bookedDuration(a))
		if err := scheduling.ValidateInterval(start, newEnd); err != nil {
			return err
		}
		if err := ensureFree(ctx, tx, a.StaffID, date, start, newEnd, &a.ID); err != nil {
			return err
		}
		a.Date = date
		a.StartTime = start
		a.EndTime = newEnd
		a.Status = t.To
		if err := tx.Appointments().Update(ctx, a); err != nil {
			return err
		}
		appt = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("appointment_id", id.String()).Str("date", date.String()).
		Str("start", appt.StartTime.String()).Msg("appointment rescheduled")
	s.runEffects(ctx, appt, t.Effects, "")
	s.publishAppointment(ctx, events.AppointmentRescheduled, appt)
	return appt, nil
}

// bookedDuration is the service total plus buffer for an existing
// appointment, or its current length when it carries no line items.
func (s *SchedulingService) bookedDuration(a *models.Appointment) int {
	if len(a.Services) == 0 {
		return a.DurationMinutes()
	}
	selections := make([]scheduling.ServiceSelection, 0, len(a.Services))
	for _, li := range a.Services {
		selections = append(selections, scheduling.ServiceSelection{
			ServiceID: li.ServiceID, Name: li.ServiceName, Price: li.Price, DurationMinutes: li.DurationMinutes,
		})
	}
	res, err := s.resolver.Resolve(selections)
	if err != nil {
		return a.DurationMinutes()
	}
	return res.TotalDurationMinutes
}

// DeleteAppointment removes an appointment. Completed appointments are part
// of the billing record and are never deleted.
func (s *SchedulingService) DeleteAppointment(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := startSpan(ctx, "SchedulingService.DeleteAppointment", attribute.String("appointment.id", id.String()))
	defer func() { endSpan(span, err) }()

	var deleted *models.Appointment
	var effects []scheduling.Effect
	err = s.store.InTx(ctx, nil, func(tx repository.Store) error {
		a, err := tx.Appointments().Get(ctx, id)
		if err != nil {
			return err
		}
		effects, err = scheduling.DeleteEffects(a.Status)
		if err != nil {
			return err
		}
		if err := tx.Appointments().Delete(ctx, id); err != nil {
			return err
		}
		deleted = a
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("appointment_id", id.String()).Msg("appointment deleted")
	s.runEffects(ctx, deleted, effects, "")
	s.publishAppointment(ctx, events.AppointmentDeleted, deleted)
	return nil
}

// CancelSeries cancels every BOOKED occurrence of a series, each in its own
// transaction. It returns how many were cancelled.
func (s *SchedulingService) CancelSeries(ctx context.Context, parentID uuid.UUID, reason string) (int, error) {
	series, err := s.GetSeries(ctx, parentID)
	if err != nil {
		return 0, err
	}
	cancelled := 0
	for _, occ := range series {
		if occ.Status != models.StatusBooked {
			continue
		}
		if _, err := s.apply(ctx, occ.ID, scheduling.EventCancel, reason); err != nil {
			if errors.Is(err, scheduling.ErrInvalidStateTransition) || errors.Is(err, scheduling.ErrNotFound) {
				// changed since the series was read
				continue
			}
			return cancelled, err
		}
		cancelled++
	}
	s.logger.Info().Str("series_id", parentID.String()).Int("cancelled", cancelled).Msg("recurring series cancelled")
	return cancelled, nil
}
