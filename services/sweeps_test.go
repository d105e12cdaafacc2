package services

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"salonpro-scheduler/models"
)

func TestSendReminders_DayThenHourOnce(t *testing.T) {
	f := newFixture(t)
	a := f.book(monday, "13:00")
	later := f.book(monday.AddDays(2), "13:00")

	sent, err := f.svc.SendReminders(f.ctx, f.clock)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent != 1 {
		t.Errorf("expected 1 day reminder, got %d", sent)
	}
	if sent, _ := f.svc.SendReminders(f.ctx, f.clock.Add(time.Hour)); sent != 0 {
		t.Errorf("the day reminder must not repeat, got %d", sent)
	}

	hourBefore := time.Date(2025, time.March, 3, 11, 30, 0, 0, time.UTC)
	if sent, _ := f.svc.SendReminders(f.ctx, hourBefore); sent != 1 {
		t.Errorf("expected 1 hour reminder, got %d", sent)
	}
	if sent, _ := f.svc.SendReminders(f.ctx, hourBefore.Add(10*time.Minute)); sent != 0 {
		t.Errorf("the hour reminder must not repeat, got %d", sent)
	}

	shortlyBefore := time.Date(2025, time.March, 3, 12, 40, 0, 0, time.UTC)
	if sent, _ := f.svc.SendReminders(f.ctx, shortlyBefore); sent != 1 {
		t.Errorf("expected 1 thirty minute reminder, got %d", sent)
	}
	if sent, _ := f.svc.SendReminders(f.ctx, shortlyBefore.Add(5*time.Minute)); sent != 0 {
		t.Errorf("the thirty minute reminder must not repeat, got %d", sent)
	}

	reminders := f.notifier.ofKind(models.KindReminder)
	if len(reminders) != 3 {
		t.Fatalf("expected 3 reminders, got %d", len(reminders))
	}
	for _, r := range reminders {
		if r.ReferenceID != a.ID {
			t.Errorf("reminder sent for %s, which is not within 24 hours", later.ID)
		}
	}
}

func TestSendReminders_LateBookingGetsOnlyTheNearestTier(t *testing.T) {
	f := newFixture(t)
	a := f.book(monday, "09:20")

	// booked 08:00, first sweep at 08:55 is already inside the last 30 minutes
	if sent, _ := f.svc.SendReminders(f.ctx, f.clock.Add(55*time.Minute)); sent != 1 {
		t.Fatalf("expected 1 reminder, got %d", sent)
	}
	if sent, _ := f.svc.SendReminders(f.ctx, f.clock.Add(60*time.Minute)); sent != 0 {
		t.Errorf("earlier tiers must not follow the thirty minute reminder, got %d", sent)
	}
	got, _ := f.svc.GetAppointment(f.ctx, a.ID)
	if !got.ThirtyMinuteReminderSent || !got.HourReminderSent || !got.DayReminderSent {
		t.Errorf("expected every tier marked, got %+v", got)
	}
}

func TestSendReminders_SkipsCancelled(t *testing.T) {
	f := newFixture(t)
	a := f.book(monday, "13:00")
	_, _ = f.svc.CancelAppointment(f.ctx, a.ID, "")

	if sent, _ := f.svc.SendReminders(f.ctx, f.clock); sent != 0 {
		t.Errorf("cancelled appointments get no reminder, got %d", sent)
	}
}

func TestMarkNoShowsAndFollowUps(t *testing.T) {
	f := newFixture(t)
	missed := f.book(monday, "09:00")
	done := f.book(monday, "11:00")
	_, _ = f.svc.TransitionStatus(f.ctx, done.ID, models.StatusCompleted, "")
	today := f.book(monday.AddDays(1), "15:00")

	tuesday := time.Date(2025, time.March, 4, 23, 0, 0, 0, time.UTC)
	n, err := f.svc.MarkNoShows(f.ctx, tuesday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 no-show, got %d", n)
	}
	if a, _ := f.svc.GetAppointment(f.ctx, missed.ID); a.Status != models.StatusNoShow {
		t.Errorf("expected NO_SHOW, got %s", a.Status)
	}
	if a, _ := f.svc.GetAppointment(f.ctx, today.ID); a.Status != models.StatusBooked {
		t.Errorf("today's appointment must stay BOOKED, got %s", a.Status)
	}

	sent, err := f.svc.SendNoShowFollowUps(f.ctx, tuesday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent != 1 {
		t.Errorf("expected 1 follow-up, got %d", sent)
	}
	if sent, _ := f.svc.SendNoShowFollowUps(f.ctx, tuesday); sent != 0 {
		t.Errorf("follow-ups must not repeat, got %d", sent)
	}
	if len(f.notifier.ofKind(models.KindFollowUp)) != 1 {
		t.Error("expected one follow-up notice")
	}
}

func TestSweeper_RunOnce(t *testing.T) {
	f := newFixture(t)
	f.waitlist(0, monday, "10:00", "12:00")
	f.clock = f.clock.Add(8 * 24 * time.Hour)

	w := NewSweeper(f.svc, DefaultSweepSchedule(), zerolog.Nop())
	n, err := w.RunOnce(f.ctx, SweepWaitlistExpiry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 expired entry, got %d", n)
	}
	if _, err := w.RunOnce(f.ctx, "defrag"); err == nil {
		t.Error("expected error for an unknown sweep")
	}
	for _, name := range SweepNames {
		if _, err := w.RunOnce(f.ctx, name); err != nil {
			t.Errorf("%s: unexpected error: %v", name, err)
		}
	}
}

func TestSweeper_StartRejectsBadSpec(t *testing.T) {
	f := newFixture(t)
	w := NewSweeper(f.svc, SweepSchedule{Reminders: "every hour"}, zerolog.Nop())
	if err := w.Start(); err == nil {
		t.Error("expected error for an invalid cron spec")
	}

	ok := NewSweeper(f.svc, SweepSchedule{Reminders: "0 * * * *"}, zerolog.Nop())
	if err := ok.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ok.Stop(f.ctx)
}
