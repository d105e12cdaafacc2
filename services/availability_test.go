package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"salonpro-scheduler/models"
	"salonpro-scheduler/scheduling"
)

func TestGetStaffAvailability(t *testing.T) {
	f := newFixture(t)
	f.book(monday, "09:00")

	avail, err := f.svc.GetStaffAvailability(f.ctx, f.staff.ID, monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(avail.BookedSlots) != 1 {
		t.Fatalf("expected one booked slot per appointment, got %d", len(avail.BookedSlots))
	}
	booked := avail.BookedSlots[0]
	if booked.StartTime != mustClock("09:00") || booked.EndTime != mustClock("09:50") {
		t.Errorf("expected the appointment's own times 09:00-09:50, got %s-%s", booked.StartTime, booked.EndTime)
	}
	if booked.CustomerName != "Ayesha" || booked.ServiceNames != "Haircut, Wash" {
		t.Errorf("unexpected booked slot details %+v", booked)
	}
	// default hours 09:00-18:00 in 30 minute slots, the first two overlap the booking
	if len(avail.AvailableSlots) != 16 {
		t.Errorf("expected 16 free slots, got %d", len(avail.AvailableSlots))
	}
	if avail.AvailableSlots[0].StartTime != mustClock("10:00") {
		t.Errorf("expected first free slot at 10:00, got %s", avail.AvailableSlots[0].StartTime)
	}
	if avail.StaffName != "Sara" {
		t.Errorf("unexpected staff name %q", avail.StaffName)
	}
}

func TestGetStaffAvailability_ReportsAppointmentsAsBooked(t *testing.T) {
	f := newFixture(t)
	late := f.book(monday, "17:40", f.wash.ID)
	second := f.book(monday, "10:20", f.wash.ID)
	first := f.book(monday, "10:00", f.wash.ID)

	// an appointment outside working hours, kept from before the hours changed
	after := models.Appointment{
		ID:         uuid.New(),
		CustomerID: f.customer.ID,
		StaffID:    f.staff.ID,
		BranchID:   f.branch.ID,
		Date:       monday,
		StartTime:  mustClock("18:30"),
		EndTime:    mustClock("18:50"),
		Status:     models.StatusBooked,
	}
	if err := f.store.Appointments().Create(f.ctx, &after); err != nil {
		t.Fatalf("inserting appointment: %v", err)
	}

	avail, err := f.svc.GetStaffAvailability(f.ctx, f.staff.ID, monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []struct {
		id         uuid.UUID
		start, end string
	}{
		{first.ID, "10:00", "10:20"},
		{second.ID, "10:20", "10:40"},
		{late.ID, "17:40", "18:00"},
		{after.ID, "18:30", "18:50"},
	}
	if len(avail.BookedSlots) != len(want) {
		t.Fatalf("expected %d booked slots, got %+v", len(want), avail.BookedSlots)
	}
	for i, w := range want {
		got := avail.BookedSlots[i]
		if got.AppointmentID == nil || *got.AppointmentID != w.id {
			t.Errorf("booked slot %d: expected appointment %s, got %v", i, w.id, got.AppointmentID)
		}
		if got.StartTime != mustClock(w.start) || got.EndTime != mustClock(w.end) {
			t.Errorf("booked slot %d: expected %s-%s, got %s-%s", i, w.start, w.end, got.StartTime, got.EndTime)
		}
		if got.Available || got.CustomerName != "Ayesha" {
			t.Errorf("booked slot %d: unexpected %+v", i, got)
		}
	}
	// 10:00 and 10:30 overlap the morning bookings, 17:30 overlaps the late one
	if len(avail.AvailableSlots) != 15 {
		t.Errorf("expected 15 free slots, got %d", len(avail.AvailableSlots))
	}
	for _, slot := range avail.AvailableSlots {
		if slot.StartTime == mustClock("10:00") || slot.StartTime == mustClock("10:30") || slot.StartTime == mustClock("17:30") {
			t.Errorf("slot %s should not be free", slot.StartTime)
		}
	}
}

func TestGetStaffAvailability_BranchHours(t *testing.T) {
	f := newFixture(t)
	f.branch.WorkingHours = models.JSONB{
		"monday":  map[string]interface{}{"closed": true},
		"tuesday": map[string]interface{}{"open": "12:00", "close": "14:00"},
	}
	_ = f.store.UpdateBranch(f.ctx, &f.branch)

	closed, err := f.svc.GetStaffAvailability(f.ctx, f.staff.ID, monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(closed.AvailableSlots) != 0 || len(closed.BookedSlots) != 0 {
		t.Error("a closed day has no slots")
	}

	short, _ := f.svc.GetStaffAvailability(f.ctx, f.staff.ID, monday.AddDays(1))
	if len(short.AvailableSlots) != 4 || short.AvailableSlots[0].StartTime != mustClock("12:00") {
		t.Errorf("expected 4 slots from 12:00, got %d", len(short.AvailableSlots))
	}
}

func TestGenerateSlots_CustomSize(t *testing.T) {
	f := newFixture(t)
	slots, err := f.svc.GenerateSlots(f.ctx, f.staff.ID, monday, 45)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 540 minutes / 45 = 12
	if len(slots) != 12 {
		t.Errorf("expected 12 slots, got %d", len(slots))
	}
	if _, err := f.svc.GenerateSlots(f.ctx, f.staff.ID, monday, 0); !errors.Is(err, scheduling.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := f.svc.GenerateSlots(f.ctx, uuid.New(), monday, 30); !errors.Is(err, scheduling.ErrNotFound) {
		t.Errorf("expected not found for an unknown staff member, got %v", err)
	}
}

func TestGetSuggestedSlots(t *testing.T) {
	f := newFixture(t)
	f.book(monday, "09:00")
	f.book(monday, "11:00")

	slots, err := f.svc.GetSuggestedSlots(f.ctx, f.staff.ID, monday, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) == 0 || slots[0].StartTime != mustClock("10:00") {
		t.Fatalf("expected first suggestion at 10:00, got %+v", slots)
	}
	for _, s := range slots {
		if s.StartTime < mustClock("11:50") && s.EndTime > mustClock("11:00") {
			t.Errorf("suggestion %s-%s overlaps a booking", s.StartTime, s.EndTime)
		}
		if s.EndTime > mustClock("18:00") {
			t.Errorf("suggestion %s-%s runs past closing", s.StartTime, s.EndTime)
		}
	}
	if _, err := f.svc.GetSuggestedSlots(f.ctx, f.staff.ID, monday, -5); !errors.Is(err, scheduling.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestGetBranchAvailability(t *testing.T) {
	f := newFixture(t)
	f.store.PutStaff(models.Staff{ID: uuid.New(), BranchID: f.branch.ID, Name: "Bilal", IsActive: true})
	f.store.PutStaff(models.Staff{ID: uuid.New(), BranchID: f.branch.ID, Name: "Retired", IsActive: false})

	all, err := f.svc.GetBranchAvailability(f.ctx, f.branch.ID, monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 active staff, got %d", len(all))
	}
	if all[0].StaffName != "Bilal" || all[1].StaffName != "Sara" {
		t.Errorf("unexpected order %s, %s", all[0].StaffName, all[1].StaffName)
	}
}

func TestHasConflict(t *testing.T) {
	f := newFixture(t)
	a := f.book(monday, "09:00") // 09:00-09:50

	tests := []struct {
		start, end string
		exclude    *uuid.UUID
		want       bool
	}{
		{"09:30", "10:00", nil, true},
		{"09:50", "10:30", nil, false},
		{"08:00", "09:00", nil, false},
		{"09:30", "10:00", &a.ID, false},
	}
	for _, tt := range tests {
		got, err := f.svc.HasConflict(f.ctx, f.staff.ID, monday, mustClock(tt.start), mustClock(tt.end), tt.exclude)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.want {
			t.Errorf("%s-%s: expected %v, got %v", tt.start, tt.end, tt.want, got)
		}
	}

	if _, err := f.svc.HasConflict(f.ctx, f.staff.ID, monday, mustClock("10:00"), mustClock("09:00"), nil); !errors.Is(err, scheduling.ErrValidation) {
		t.Errorf("expected validation error for an inverted interval, got %v", err)
	}
}
