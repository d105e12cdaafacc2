package services

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"salonpro-scheduler/models"
	"salonpro-scheduler/scheduling"
)

// windowFor returns the operating hours of a branch on date. open is false
// when the branch is closed that day. Unknown branches and days without
// configured hours use the default window.
func (s *SchedulingService) windowFor(ctx context.Context, branchID uuid.UUID, date models.Date) (w scheduling.Window, open bool) {
	branch, err := s.directory.GetBranch(ctx, branchID)
	if err != nil {
		s.logger.Debug().Err(err).Str("branch_id", branchID.String()).Msg("using default business hours")
		return s.settings.Window, true
	}
	o, c, closed, ok := branch.HoursFor(date.Weekday())
	if !ok {
		return s.settings.Window, true
	}
	if closed {
		return scheduling.Window{}, false
	}
	return scheduling.Window{Open: o, Close: c}, true
}

// GenerateSlots partitions the staff member's working day into slots of
// slotMinutes, marking each free or occupied.
func (s *SchedulingService) GenerateSlots(ctx context.Context, staffID uuid.UUID, date models.Date, slotMinutes int) ([]models.TimeSlot, error) {
	if slotMinutes <= 0 {
		return nil, scheduling.Invalid("slot size must be positive")
	}
	staff, err := s.directory.GetStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}
	window, open := s.windowFor(ctx, staff.BranchID, date)
	if !open {
		return []models.TimeSlot{}, nil
	}
	appts, err := s.store.Appointments().FindByStaffAndDate(ctx, staffID, date)
	if err != nil {
		return nil, err
	}
	slots := slices.Collect(scheduling.GenerateSlots(window, slotMinutes, appts))
	s.annotateCustomers(ctx, slots, appts)
	if slots == nil {
		slots = []models.TimeSlot{}
	}
	return slots, nil
}

func (s *SchedulingService) GetStaffAvailability(ctx context.Context, staffID uuid.UUID, date models.Date) (_ *models.StaffAvailability, err error) {
	ctx, span := startSpan(ctx, "SchedulingService.GetStaffAvailability",
		attribute.String("staff.id", staffID.String()), attribute.String("date", date.String()))
	defer func() { endSpan(span, err) }()

	staff, err := s.directory.GetStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}
	avail := &models.StaffAvailability{
		StaffID:        staffID,
		StaffName:      staff.Name,
		Date:           date,
		AvailableSlots: []models.TimeSlot{},
		BookedSlots:    []models.TimeSlot{},
	}
	appts, err := s.store.Appointments().FindByStaffAndDate(ctx, staffID, date)
	if err != nil {
		return nil, err
	}
	avail.BookedSlots = scheduling.BookedSlots(appts)
	s.annotateCustomers(ctx, avail.BookedSlots, appts)

	window, open := s.windowFor(ctx, staff.BranchID, date)
	if !open {
		return avail, nil
	}
	for slot := range scheduling.GenerateSlots(window, s.settings.SlotMinutes, appts) {
		if slot.Available {
			avail.AvailableSlots = append(avail.AvailableSlots, slot)
		}
	}
	return avail, nil
}

// GetSuggestedSlots lists free start times for an appointment lasting
// durationMinutes.
func (s *SchedulingService) GetSuggestedSlots(ctx context.Context, staffID uuid.UUID, date models.Date, durationMinutes int) ([]models.TimeSlot, error) {
	if durationMinutes <= 0 {
		return nil, scheduling.Invalid("duration must be positive")
	}
	staff, err := s.directory.GetStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}
	window, open := s.windowFor(ctx, staff.BranchID, date)
	if !open {
		return []models.TimeSlot{}, nil
	}
	appts, err := s.store.Appointments().FindByStaffAndDate(ctx, staffID, date)
	if err != nil {
		return nil, err
	}
	slots := slices.Collect(scheduling.GenerateSuggestedSlots(window, s.settings.SuggestionStepMinutes, durationMinutes, appts))
	if slots == nil {
		slots = []models.TimeSlot{}
	}
	return slots, nil
}

// HasConflict reports whether [start,end) on date clashes with an occupying
// appointment of the staff member, ignoring exclude.
func (s *SchedulingService) HasConflict(ctx context.Context, staffID uuid.UUID, date models.Date, start, end models.Clock, exclude *uuid.UUID) (bool, error) {
	if err := scheduling.ValidateInterval(start, end); err != nil {
		return false, err
	}
	appts, err := s.store.Appointments().FindByStaffAndDate(ctx, staffID, date)
	if err != nil {
		return false, err
	}
	return scheduling.HasConflict(appts, start, end, exclude), nil
}

// GetBranchAvailability returns one availability per active staff member.
func (s *SchedulingService) GetBranchAvailability(ctx context.Context, branchID uuid.UUID, date models.Date) ([]models.StaffAvailability, error) {
	staff, err := s.directory.ListActiveStaff(ctx, branchID)
	if err != nil {
		return nil, err
	}
	out := make([]models.StaffAvailability, 0, len(staff))
	for _, member := range staff {
		avail, err := s.GetStaffAvailability(ctx, member.ID, date)
		if err != nil {
			return nil, err
		}
		out = append(out, *avail)
	}
	return out, nil
}

// annotateCustomers fills in the customer name on occupied slots.
func (s *SchedulingService) annotateCustomers(ctx context.Context, slots []models.TimeSlot, appts []models.Appointment) {
	customerOf := make(map[uuid.UUID]uuid.UUID, len(appts))
	for _, a := range appts {
		customerOf[a.ID] = a.CustomerID
	}
	names := map[uuid.UUID]string{}
	for i := range slots {
		if slots[i].AppointmentID == nil {
			continue
		}
		customerID := customerOf[*slots[i].AppointmentID]
		name, ok := names[customerID]
		if !ok {
			if c, err := s.directory.GetCustomer(ctx, customerID); err == nil {
				name = c.Name
			}
			names[customerID] = name
		}
		slots[i].CustomerName = name
	}
}
