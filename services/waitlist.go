package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"salonpro-scheduler/events"
	"salonpro-scheduler/models"
	"salonpro-scheduler/repository"
	"salonpro-scheduler/scheduling"
)

type WaitlistRequest struct {
	CustomerID         uuid.UUID
	StaffID            uuid.UUID
	BranchID           uuid.UUID
	PreferredDate      models.Date
	PreferredStartTime models.Clock
	PreferredEndTime   models.Clock
	FlexibleDays       int
	FlexibleHours      int
	Priority           int
	Notes              string
	ServiceIDs         []uuid.UUID
}

var errAlreadyHandled = errors.New("waitlist entry no longer active")

// AddToWaitlist queues a customer for a staff member. The requested services
// are priced now and kept with the entry.
func (s *SchedulingService) AddToWaitlist(ctx context.Context, req WaitlistRequest) (_ *models.WaitlistEntry, err error) {
	ctx, span := startSpan(ctx, "SchedulingService.AddToWaitlist", attribute.String("staff.id", req.StaffID.String()))
	defer func() { endSpan(span, err) }()

	now := s.now()
	entry := &models.WaitlistEntry{
		CustomerID:         req.CustomerID,
		StaffID:            req.StaffID,
		BranchID:           req.BranchID,
		PreferredDate:      req.PreferredDate,
		PreferredStartTime: req.PreferredStartTime,
		PreferredEndTime:   req.PreferredEndTime,
		FlexibleDays:       req.FlexibleDays,
		FlexibleHours:      req.FlexibleHours,
		Priority:           req.Priority,
		Notes:              req.Notes,
		Status:             models.WaitlistActive,
		CreatedAt:          now,
		ExpiresAt:          now.Add(s.settings.WaitlistTTL),
	}
	if err := scheduling.ValidateWaitlistPreferences(*entry); err != nil {
		return nil, err
	}
	if _, err := s.GetStaff(ctx, req.BranchID, req.StaffID); err != nil {
		return nil, err
	}
	if len(req.ServiceIDs) > 0 {
		selections, err := s.resolveServices(ctx, req.BranchID, req.ServiceIDs)
		if err != nil {
			return nil, err
		}
		for _, sel := range selections {
			entry.Services = append(entry.Services, models.WaitlistService{
				ServiceID:       sel.ServiceID,
				ServiceName:     sel.Name,
				Price:           sel.Price,
				CommissionRate:  sel.CommissionRate,
				DurationMinutes: sel.DurationMinutes,
			})
		}
	}

	key := repository.LockKey{StaffID: req.StaffID, Date: req.PreferredDate}
	err = s.store.InTx(ctx, []repository.LockKey{key}, func(tx repository.Store) error {
		dup, err := tx.Waitlist().HasActive(ctx, req.CustomerID, req.StaffID, req.PreferredDate)
		if err != nil {
			return err
		}
		if dup {
			return scheduling.NewError(scheduling.ErrDuplicateWaitlistEntry,
				"customer already has an active waitlist entry for this staff member and date").
				Arg("customerId", req.CustomerID).Arg("date", req.PreferredDate)
		}
		return tx.Waitlist().Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("waitlist_id", entry.ID.String()).Str("staff_id", entry.StaffID.String()).
		Int("priority", entry.Priority).Msg("customer added to waitlist")
	return entry, nil
}

// FindWaitlistMatches lists the ACTIVE entries a freed interval would serve,
// in the order they are notified.
func (s *SchedulingService) FindWaitlistMatches(ctx context.Context, f scheduling.FreedInterval) ([]models.WaitlistEntry, error) {
	entries, err := s.store.Waitlist().FindActiveByStaff(ctx, f.StaffID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	live := entries[:0]
	for _, e := range entries {
		if !scheduling.WaitlistExpired(e, now) {
			live = append(live, e)
		}
	}
	return scheduling.RankWaitlist(live, f), nil
}

// notifyWaitlist marks every match NOTIFIED and tells the customer the slot
// is open.
func (s *SchedulingService) notifyWaitlist(ctx context.Context, f scheduling.FreedInterval) ([]models.WaitlistEntry, error) {
	matches, err := s.FindWaitlistMatches(ctx, f)
	if err != nil {
		return nil, err
	}
	var notified []models.WaitlistEntry
	for _, m := range matches {
		var entry *models.WaitlistEntry
		err := s.store.InTx(ctx, nil, func(tx repository.Store) error {
			e, err := tx.Waitlist().Get(ctx, m.ID)
			if err != nil {
				return err
			}
			if e.Status != models.WaitlistActive {
				return errAlreadyHandled
			}
			now := s.now()
			e.Status = models.WaitlistNotified
			e.NotifiedAt = &now
			if err := tx.Waitlist().Update(ctx, e); err != nil {
				return err
			}
			entry = e
			return nil
		})
		if errors.Is(err, errAlreadyHandled) {
			continue
		}
		if err != nil {
			return notified, err
		}

		s.notifier.Notify(ctx, Notification{
			Kind:        models.KindWaitlistAvailable,
			BranchID:    entry.BranchID,
			CustomerID:  entry.CustomerID,
			ReferenceID: entry.ID,
			Date:        f.Date,
			StartTime:   f.Start,
			EndTime:     f.End,
		})
		s.publish(ctx, events.WaitlistNotified, entry.ID, entry.BranchID, entry)
		notified = append(notified, *entry)
	}
	if len(notified) > 0 {
		s.logger.Info().Str("staff_id", f.StaffID.String()).Str("date", f.Date.String()).
			Int("notified", len(notified)).Msg("waitlist notified of freed slot")
	}
	return notified, nil
}

// ConvertWaitlistToAppointment books the entry's services at the given time.
// A taken slot fails the conversion and leaves the entry as it was.
func (s *SchedulingService) ConvertWaitlistToAppointment(ctx context.Context, id uuid.UUID, date models.Date, start models.Clock, end *models.Clock) (_ *models.Appointment, err error) {
	ctx, span := startSpan(ctx, "SchedulingService.ConvertWaitlistToAppointment", attribute.String("waitlist.id", id.String()))
	defer func() { endSpan(span, err) }()

	if date.IsZero() {
		return nil, scheduling.Invalid("date is required")
	}
	current, err := s.store.Waitlist().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status.Terminal() {
		return nil, scheduling.InvalidTransition("waitlist entry is already %s", current.Status)
	}

	var appt *models.Appointment
	var entry *models.WaitlistEntry
	key := repository.LockKey{StaffID: current.StaffID, Date: date}
	err = s.store.InTx(ctx, []repository.LockKey{key}, func(tx repository.Store) error {
		e, err := tx.Waitlist().Get(ctx, id)
		if err != nil {
			return err
		}
		if e.Status != models.WaitlistActive && e.Status != models.WaitlistNotified {
			return scheduling.InvalidTransition("waitlist entry is already %s", e.Status)
		}
		a, err := s.appointmentFromWaitlist(e, date, start, end)
		if err != nil {
			return err
		}
		if err := ensureFree(ctx, tx, a.StaffID, a.Date, a.StartTime, a.EndTime, nil); err != nil {
			return err
		}
		if err := tx.Appointments().Create(ctx, a); err != nil {
			return err
		}
		now := s.now()
		e.Status = models.WaitlistConverted
		e.ConvertedAt = &now
		e.ConvertedAppointmentID = &a.ID
		if err := tx.Waitlist().Update(ctx, e); err != nil {
			return err
		}
		appt, entry = a, e
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("waitlist_id", id.String()).Str("appointment_id", appt.ID.String()).Msg("waitlist entry converted")
	s.notify(ctx, models.KindWaitlistConverted, appt, "")
	s.publishAppointment(ctx, events.AppointmentBooked, appt)
	s.publish(ctx, events.WaitlistConverted, entry.ID, entry.BranchID, entry)
	return appt, nil
}

// appointmentFromWaitlist builds the appointment from the stored service
// snapshot. Without an explicit end the snapshot durations decide it.
func (s *SchedulingService) appointmentFromWaitlist(e *models.WaitlistEntry, date models.Date, start models.Clock, end *models.Clock) (*models.Appointment, error) {
	items := make([]models.AppointmentService, 0, len(e.Services))
	var total float64
	duration := 0
	for _, ws := range e.Services {
		items = append(items, models.AppointmentService{
			ServiceID:       ws.ServiceID,
			ServiceName:     ws.ServiceName,
			Price:           ws.Price,
			CommissionRate:  ws.CommissionRate,
			DurationMinutes: ws.DurationMinutes,
		})
		total += ws.Price
		duration += ws.DurationMinutes
	}
	var finish models.Clock
	switch {
	case end != nil:
		finish = *end
	case duration > 0:
		finish = start.Add(duration + s.settings.BufferMinutes)
	default:
		return nil, scheduling.Invalid("end time is required when the waitlist entry has no services")
	}
	if err := scheduling.ValidateInterval(start, finish); err != nil {
		return nil, err
	}
	notes := "Converted from waitlist"
	if e.Notes != "" {
		notes = e.Notes + " (Converted from waitlist)"
	}
	return &models.Appointment{
		CustomerID:  e.CustomerID,
		StaffID:     e.StaffID,
		BranchID:    e.BranchID,
		Date:        date,
		StartTime:   start,
		EndTime:     finish,
		Status:      models.StatusBooked,
		Notes:       notes,
		TotalAmount: total,
		Services:    items,
	}, nil
}

// RemoveFromWaitlist cancels an entry that has not been served yet.
func (s *SchedulingService) RemoveFromWaitlist(ctx context.Context, id uuid.UUID, reason string) (*models.WaitlistEntry, error) {
	var entry *models.WaitlistEntry
	err := s.store.InTx(ctx, nil, func(tx repository.Store) error {
		e, err := tx.Waitlist().Get(ctx, id)
		if err != nil {
			return err
		}
		if e.Status.Terminal() {
			return scheduling.InvalidTransition("waitlist entry is already %s", e.Status)
		}
		e.Status = models.WaitlistCancelled
		if reason != "" {
			e.AppendNote("Removal reason: " + reason)
		}
		if err := tx.Waitlist().Update(ctx, e); err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ExpireWaitlist is the periodic sweep moving stale entries to EXPIRED.
func (s *SchedulingService) ExpireWaitlist(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.store.Waitlist().ExpireBefore(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info().Int64("expired", n).Msg("waitlist entries expired")
	}
	return n, nil
}

func (s *SchedulingService) GetWaitlistEntry(ctx context.Context, id uuid.UUID) (*models.WaitlistEntry, error) {
	return s.store.Waitlist().Get(ctx, id)
}

// ListWaitlist returns a staff member's ACTIVE entries in service order.
func (s *SchedulingService) ListWaitlist(ctx context.Context, staffID uuid.UUID) ([]models.WaitlistEntry, error) {
	entries, err := s.store.Waitlist().FindActiveByStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}
	scheduling.SortWaitlist(entries)
	return entries, nil
}

func (s *SchedulingService) ListCustomerWaitlist(ctx context.Context, customerID uuid.UUID) ([]models.WaitlistEntry, error) {
	return s.store.Waitlist().FindByCustomer(ctx, customerID)
}

func (s *SchedulingService) WaitlistStats(ctx context.Context, branchID uuid.UUID) (map[models.WaitlistStatus]int64, error) {
	return s.store.Waitlist().CountByStatus(ctx, branchID)
}
