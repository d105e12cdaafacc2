package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"salonpro-scheduler/events"
	"salonpro-scheduler/models"
	"salonpro-scheduler/scheduling"
)

func TestAddToWaitlist(t *testing.T) {
	f := newFixture(t)
	e := f.waitlist(3, monday, "10:00", "12:00")

	if e.Status != models.WaitlistActive {
		t.Errorf("expected ACTIVE, got %s", e.Status)
	}
	if !e.ExpiresAt.Equal(f.clock.Add(7 * 24 * time.Hour)) {
		t.Errorf("expected expiry a week out, got %v", e.ExpiresAt)
	}
	if len(e.Services) != 1 || e.Services[0].Price != 25 || e.Services[0].DurationMinutes != 30 {
		t.Errorf("expected a priced service snapshot, got %+v", e.Services)
	}
}

func TestAddToWaitlist_Duplicate(t *testing.T) {
	f := newFixture(t)
	req := WaitlistRequest{
		CustomerID:         f.customer.ID,
		StaffID:            f.staff.ID,
		BranchID:           f.branch.ID,
		PreferredDate:      monday,
		PreferredStartTime: mustClock("10:00"),
		PreferredEndTime:   mustClock("11:00"),
	}
	if _, err := f.svc.AddToWaitlist(f.ctx, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.AddToWaitlist(f.ctx, req); !errors.Is(err, scheduling.ErrDuplicateWaitlistEntry) {
		t.Errorf("expected duplicate entry error, got %v", err)
	}

	req.PreferredDate = monday.AddDays(1)
	if _, err := f.svc.AddToWaitlist(f.ctx, req); err != nil {
		t.Errorf("another date is a separate entry: %v", err)
	}
}

func TestAddToWaitlist_Validation(t *testing.T) {
	f := newFixture(t)
	req := WaitlistRequest{
		CustomerID:         f.customer.ID,
		StaffID:            f.staff.ID,
		BranchID:           f.branch.ID,
		PreferredDate:      monday,
		PreferredStartTime: mustClock("10:00"),
		PreferredEndTime:   mustClock("11:00"),
		FlexibleHours:      -2,
	}
	if _, err := f.svc.AddToWaitlist(f.ctx, req); !errors.Is(err, scheduling.ErrValidation) {
		t.Errorf("expected validation error for negative flexibility, got %v", err)
	}
	req.FlexibleHours = 0
	req.ServiceIDs = []uuid.UUID{uuid.New()}
	if _, err := f.svc.AddToWaitlist(f.ctx, req); !errors.Is(err, scheduling.ErrValidation) {
		t.Errorf("expected validation error for an unknown service, got %v", err)
	}
}

func TestFindWaitlistMatches_SkipsExpired(t *testing.T) {
	f := newFixture(t)
	f.waitlist(1, monday, "10:00", "11:00")
	f.clock = f.clock.Add(8 * 24 * time.Hour)
	fresh := f.waitlist(1, monday, "10:00", "11:00")

	matches, err := f.svc.FindWaitlistMatches(f.ctx, scheduling.FreedInterval{
		StaffID: f.staff.ID, Date: monday, Start: mustClock("10:00"), End: mustClock("11:00"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != fresh.ID {
		t.Errorf("expected only the unexpired entry, got %d", len(matches))
	}
}

func TestConvertWaitlistToAppointment(t *testing.T) {
	f := newFixture(t)
	e := f.waitlist(0, monday, "10:00", "12:00")
	blocker := f.book(monday, "10:00")

	if _, err := f.svc.ConvertWaitlistToAppointment(f.ctx, e.ID, monday, mustClock("10:15"), nil); !errors.Is(err, scheduling.ErrScheduleConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if got, _ := f.svc.GetWaitlistEntry(f.ctx, e.ID); got.Status != models.WaitlistActive {
		t.Errorf("a failed conversion must leave the entry untouched, got %s", got.Status)
	}

	_, _ = f.svc.CancelAppointment(f.ctx, blocker.ID, "")
	if got, _ := f.svc.GetWaitlistEntry(f.ctx, e.ID); got.Status != models.WaitlistNotified {
		t.Fatalf("expected the entry to be notified, got %s", got.Status)
	}

	a, err := f.svc.ConvertWaitlistToAppointment(f.ctx, e.ID, monday, mustClock("10:15"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.EndTime != mustClock("10:45") || a.TotalAmount != 25 {
		t.Errorf("expected the snapshot to decide the end and price, got %s %.2f", a.EndTime, a.TotalAmount)
	}
	if a.CustomerID != e.CustomerID || a.Status != models.StatusBooked {
		t.Error("converted appointment should belong to the waitlisted customer")
	}
	if !strings.Contains(a.Notes, "Converted from waitlist") {
		t.Errorf("expected conversion note, got %q", a.Notes)
	}

	got, _ := f.svc.GetWaitlistEntry(f.ctx, e.ID)
	if got.Status != models.WaitlistConverted || got.ConvertedAppointmentID == nil || *got.ConvertedAppointmentID != a.ID {
		t.Errorf("expected CONVERTED linked to the appointment, got %s", got.Status)
	}
	if f.publisher.count(events.WaitlistConverted) != 1 {
		t.Error("expected a converted event")
	}
	if len(f.notifier.ofKind(models.KindWaitlistConverted)) != 1 {
		t.Error("expected a conversion notice")
	}

	if _, err := f.svc.ConvertWaitlistToAppointment(f.ctx, e.ID, monday, mustClock("15:00"), nil); !errors.Is(err, scheduling.ErrInvalidStateTransition) {
		t.Errorf("converting twice should be rejected, got %v", err)
	}
}

func TestConvertWaitlistToAppointment_ExplicitEnd(t *testing.T) {
	f := newFixture(t)
	e := f.waitlist(0, monday, "10:00", "12:00")
	end := mustClock("11:30")
	a, err := f.svc.ConvertWaitlistToAppointment(f.ctx, e.ID, monday.AddDays(1), mustClock("10:00"), &end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.EndTime != end || !a.Date.Equal(monday.AddDays(1)) {
		t.Errorf("expected 10:00-11:30 on %s, got %s-%s on %s", monday.AddDays(1), a.StartTime, a.EndTime, a.Date)
	}
}

func TestRemoveFromWaitlist(t *testing.T) {
	f := newFixture(t)
	e := f.waitlist(0, monday, "10:00", "12:00")

	removed, err := f.svc.RemoveFromWaitlist(f.ctx, e.ID, "found another salon")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed.Status != models.WaitlistCancelled || !strings.Contains(removed.Notes, "Removal reason: found another salon") {
		t.Errorf("unexpected removal result %s %q", removed.Status, removed.Notes)
	}
	if _, err := f.svc.RemoveFromWaitlist(f.ctx, e.ID, ""); !errors.Is(err, scheduling.ErrInvalidStateTransition) {
		t.Errorf("removing twice should be rejected, got %v", err)
	}
	if _, err := f.svc.ConvertWaitlistToAppointment(f.ctx, e.ID, monday, mustClock("10:00"), nil); !errors.Is(err, scheduling.ErrInvalidStateTransition) {
		t.Errorf("a cancelled entry cannot be converted, got %v", err)
	}
}

func TestWaitlistListingsAndStats(t *testing.T) {
	f := newFixture(t)
	low := f.waitlist(1, monday, "10:00", "12:00")
	high := f.waitlist(4, monday.AddDays(1), "10:00", "12:00")
	gone := f.waitlist(2, monday.AddDays(2), "10:00", "12:00")
	_, _ = f.svc.RemoveFromWaitlist(f.ctx, gone.ID, "")

	list, err := f.svc.ListWaitlist(f.ctx, f.staff.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 || list[0].ID != high.ID || list[1].ID != low.ID {
		t.Errorf("expected active entries by priority, got %d", len(list))
	}

	stats, _ := f.svc.WaitlistStats(f.ctx, f.branch.ID)
	if stats[models.WaitlistCancelled] != 1 || stats[models.WaitlistActive] != 2 {
		t.Errorf("unexpected stats %v", stats)
	}
}
