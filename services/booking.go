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

// BookingRequest describes a new appointment, or the full replacement of an
// existing one. EndTime is optional; it only survives when it matches the
// resolved service duration.
type BookingRequest struct {
	CustomerID uuid.UUID
	StaffID    uuid.UUID
	BranchID   uuid.UUID
	Date       models.Date
	StartTime  models.Clock
	EndTime    *models.Clock
	ServiceIDs []uuid.UUID
	Notes      string
}

type RecurringRequest struct {
	BookingRequest
	Pattern  models.RecurrencePattern
	Interval int
	EndDate  models.Date
}

type SkippedOccurrence struct {
	Date   models.Date `json:"date"`
	Reason string      `json:"reason"`
}

// SeriesResult lists the created occurrences, seed first, and the dates that
// were skipped because the slot was taken.
type SeriesResult struct {
	Appointments []models.Appointment `json:"appointments"`
	Skipped      []SkippedOccurrence  `json:"skipped"`
}

func (r BookingRequest) validate() error {
	if r.CustomerID == uuid.Nil || r.StaffID == uuid.Nil || r.BranchID == uuid.Nil {
		return scheduling.Invalid("customerId, staffId and branchId are required")
	}
	if r.Date.IsZero() {
		return scheduling.Invalid("date is required")
	}
	if !r.StartTime.Valid() {
		return scheduling.Invalid("start time %s is out of range", r.StartTime)
	}
	return nil
}

// prepare resolves services and computes the persisted interval.
func (s *SchedulingService) prepare(ctx context.Context, req BookingRequest) (*models.Appointment, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if _, err := s.GetStaff(ctx, req.BranchID, req.StaffID); err != nil {
		return nil, err
	}
	selections, err := s.resolveServices(ctx, req.BranchID, req.ServiceIDs)
	if err != nil {
		return nil, err
	}
	res, err := s.resolver.Resolve(selections)
	if err != nil {
		return nil, err
	}
	end := scheduling.ReconcileEndTime(req.StartTime, req.EndTime, res.TotalDurationMinutes)
	if err := scheduling.ValidateInterval(req.StartTime, end); err != nil {
		return nil, scheduling.Invalid("appointment must end on the day it starts").Wrap(err)
	}
	return &models.Appointment{
		CustomerID:  req.CustomerID,
		StaffID:     req.StaffID,
		BranchID:    req.BranchID,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     end,
		Status:      models.StatusBooked,
		Notes:       req.Notes,
		TotalAmount: res.TotalAmount,
		Services:    scheduling.LineItems(selections),
	}, nil
}

// book inserts appt after a conflict check under the staff/day lock.
func (s *SchedulingService) book(ctx context.Context, appt *models.Appointment) error {
	key := repository.LockKey{StaffID: appt.StaffID, Date: appt.Date}
	return s.store.InTx(ctx, []repository.LockKey{key}, func(tx repository.Store) error {
		if err := ensureFree(ctx, tx, appt.StaffID, appt.Date, appt.StartTime, appt.EndTime, nil); err != nil {
			return err
		}
		return tx.Appointments().Create(ctx, appt)
	})
}

func (s *SchedulingService) CreateAppointment(ctx context.Context, req BookingRequest) (_ *models.Appointment, err error) {
	ctx, span := startSpan(ctx, "SchedulingService.CreateAppointment",
		attribute.String("staff.id", req.StaffID.String()), attribute.String("date", req.Date.String()))
	defer func() { endSpan(span, err) }()

	appt, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.book(ctx, appt); err != nil {
		return nil, err
	}

	s.logger.Info().Str("appointment_id", appt.ID.String()).Str("staff_id", appt.StaffID.String()).
		Str("date", appt.Date.String()).Str("start", appt.StartTime.String()).Msg("appointment booked")
	s.notify(ctx, models.KindConfirmation, appt, "")
	s.publishAppointment(ctx, events.AppointmentBooked, appt)
	return appt, nil
}

// CreateRecurringAppointments books the seed and then each occurrence in its
// own transaction. A taken slot skips that occurrence only; a failed seed or
// catalog lookup fails the whole request.
func (s *SchedulingService) CreateRecurringAppointments(ctx context.Context, req RecurringRequest) (_ *SeriesResult, err error) {
	ctx, span := startSpan(ctx, "SchedulingService.CreateRecurringAppointments",
		attribute.String("staff.id", req.StaffID.String()), attribute.String("pattern", string(req.Pattern)))
	defer func() { endSpan(span, err) }()

	rule := scheduling.Rule{Pattern: req.Pattern, Interval: req.Interval, EndDate: req.EndDate}
	if err := rule.Validate(req.Date); err != nil {
		return nil, err
	}
	seed, err := s.prepare(ctx, req.BookingRequest)
	if err != nil {
		return nil, err
	}
	seed.AssignIDs()
	endDate := req.EndDate
	seed.IsRecurring = true
	seed.RecurrencePattern = req.Pattern
	seed.RecurrenceInterval = req.Interval
	seed.RecurrenceEndDate = &endDate
	seed.ParentAppointmentID = &seed.ID
	seed.RecurrenceSequence = 0
	if err := s.book(ctx, seed); err != nil {
		return nil, err
	}
	s.publishAppointment(ctx, events.AppointmentBooked, seed)

	result := &SeriesResult{Appointments: []models.Appointment{*seed}, Skipped: []SkippedOccurrence{}}
	sequence := 0
	for date := range scheduling.Expand(seed.Date, rule) {
		occ := seed.Clone()
		occ.ID = uuid.Nil
		for i := range occ.Services {
			occ.Services[i].ID = uuid.Nil
		}
		occ.Date = date
		occ.RecurrenceSequence = sequence + 1
		occ.CreatedAt, occ.UpdatedAt = time.Time{}, time.Time{}

		if err := s.book(ctx, &occ); err != nil {
			if errors.Is(err, scheduling.ErrScheduleConflict) {
				s.logger.Info().Str("series_id", seed.ID.String()).Str("date", date.String()).
					Msg("skipping occurrence, slot already taken")
				result.Skipped = append(result.Skipped, SkippedOccurrence{Date: date, Reason: conflictReason(err)})
				continue
			}
			return result, err
		}
		sequence++
		s.publishAppointment(ctx, events.AppointmentBooked, &occ)
		result.Appointments = append(result.Appointments, occ)
	}

	s.logger.Info().Str("series_id", seed.ID.String()).Int("created", len(result.Appointments)).
		Int("skipped", len(result.Skipped)).Msg("recurring series booked")
	s.notify(ctx, models.KindConfirmation, seed, "")
	return result, nil
}

func conflictReason(err error) string {
	var se *scheduling.Error
	if errors.As(err, &se) {
		return se.Message()
	}
	return err.Error()
}

// UpdateAppointment replaces the customer, staff, date, time and services of
// a booked appointment.
func (s *SchedulingService) UpdateAppointment(ctx context.Context, id uuid.UUID, req BookingRequest) (_ *models.Appointment, err error) {
	ctx, span := startSpan(ctx, "SchedulingService.UpdateAppointment", attribute.String("appointment.id", id.String()))
	defer func() { endSpan(span, err) }()

	current, err := s.store.Appointments().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != models.StatusBooked {
		return nil, scheduling.InvalidTransition("only booked appointments can be edited, this one is %s", current.Status)
	}
	draft, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	var updated *models.Appointment
	var moved bool
	key := repository.LockKey{StaffID: draft.StaffID, Date: draft.Date}
	err = s.store.InTx(ctx, []repository.LockKey{key}, func(tx repository.Store) error {
		a, err := tx.Appointments().Get(ctx, id)
		if err != nil {
			return err
		}
		if a.Status != models.StatusBooked {
			return scheduling.InvalidTransition("only booked appointments can be edited, this one is %s", a.Status)
		}
		if err := ensureFree(ctx, tx, draft.StaffID, draft.Date, draft.StartTime, draft.EndTime, &a.ID); err != nil {
			return err
		}
		moved = a.StaffID != draft.StaffID || !a.Date.Equal(draft.Date) ||
			a.StartTime != draft.StartTime || a.EndTime != draft.EndTime
		a.CustomerID = draft.CustomerID
		a.StaffID = draft.StaffID
		a.BranchID = draft.BranchID
		a.Date = draft.Date
		a.StartTime = draft.StartTime
		a.EndTime = draft.EndTime
		a.TotalAmount = draft.TotalAmount
		a.Services = draft.Services
		if req.Notes != "" {
			a.Notes = req.Notes
		}
		if err := tx.Appointments().Update(ctx, a); err != nil {
			return err
		}
		updated = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	if moved {
		s.notify(ctx, models.KindReschedule, updated, "")
		s.publishAppointment(ctx, events.AppointmentRescheduled, updated)
	}
	return updated, nil
}

func (s *SchedulingService) GetAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	return s.store.Appointments().Get(ctx, id)
}

// GetSeries returns every occurrence of a series ordered by sequence.
func (s *SchedulingService) GetSeries(ctx context.Context, parentID uuid.UUID) ([]models.Appointment, error) {
	series, err := s.store.Appointments().FindByParentID(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, scheduling.NotFound("recurring series %s not found", parentID)
	}
	return series, nil
}

// GetStaff returns the staff member only when they work at branchID.
func (s *SchedulingService) GetStaff(ctx context.Context, branchID, staffID uuid.UUID) (*models.Staff, error) {
	staff, err := s.directory.GetStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if staff.BranchID != branchID {
		return nil, scheduling.NotFound("staff member not found").Arg("staffId", staffID)
	}
	return staff, nil
}

func (s *SchedulingService) ListStaffAppointments(ctx context.Context, staffID uuid.UUID, date models.Date) ([]models.Appointment, error) {
	return s.store.Appointments().FindByStaffAndDate(ctx, staffID, date)
}
