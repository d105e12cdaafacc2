package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"salonpro-scheduler/models"
	"salonpro-scheduler/repository"
	"salonpro-scheduler/scheduling"
)

const noShowLookbackDays = 30

type reminderFlag int

const (
	dayReminder reminderFlag = iota
	hourReminder
	thirtyMinuteReminder
	followUp
)

// SendReminders notifies customers about BOOKED appointments starting within
// the next 24 hours, again within the last 2 hours and once more within the
// last 30 minutes. Each tier is sent at most once per appointment, and a later
// tier suppresses the earlier ones it overtakes.
func (s *SchedulingService) SendReminders(ctx context.Context, now time.Time) (int, error) {
	loc := s.settings.Location
	today := models.DateOf(now.In(loc))
	appts, err := s.store.Appointments().FindByStatusBetween(ctx, models.StatusBooked, today, today.AddDays(1))
	if err != nil {
		return 0, err
	}
	sent := 0
	for i := range appts {
		a := &appts[i]
		until := a.Date.At(a.StartTime, loc).Sub(now)
		if until <= 0 || until > 24*time.Hour {
			continue
		}
		var flag reminderFlag
		switch {
		case until <= 30*time.Minute:
			if a.ThirtyMinuteReminderSent {
				continue
			}
			flag = thirtyMinuteReminder
		case until <= 2*time.Hour:
			if a.HourReminderSent {
				continue
			}
			flag = hourReminder
		default:
			if a.DayReminderSent {
				continue
			}
			flag = dayReminder
		}
		ok, err := s.markSent(ctx, a, flag)
		if err != nil {
			s.logger.Error().Err(err).Str("appointment_id", a.ID.String()).Msg("reminder bookkeeping failed")
			continue
		}
		if ok {
			s.notify(ctx, models.KindReminder, a, "")
			sent++
		}
	}
	return sent, nil
}

// markSent sets the reminder flag unless another run got there first or the
// appointment left BOOKED.
func (s *SchedulingService) markSent(ctx context.Context, a *models.Appointment, flag reminderFlag) (bool, error) {
	var marked bool
	err := s.store.InTx(ctx, nil, func(tx repository.Store) error {
		cur, err := tx.Appointments().Get(ctx, a.ID)
		if err != nil {
			return err
		}
		want := models.StatusBooked
		if flag == followUp {
			want = models.StatusNoShow
		}
		if cur.Status != want {
			return nil
		}
		switch flag {
		case dayReminder:
			if cur.DayReminderSent {
				return nil
			}
			cur.DayReminderSent = true
		case hourReminder:
			if cur.HourReminderSent {
				return nil
			}
			// the day reminder is moot once the hour reminder is out
			cur.HourReminderSent = true
			cur.DayReminderSent = true
		case thirtyMinuteReminder:
			if cur.ThirtyMinuteReminderSent {
				return nil
			}
			cur.ThirtyMinuteReminderSent = true
			cur.HourReminderSent = true
			cur.DayReminderSent = true
		case followUp:
			if cur.FollowUpSent {
				return nil
			}
			cur.FollowUpSent = true
		}
		if err := tx.Appointments().Update(ctx, cur); err != nil {
			return err
		}
		*a = *cur
		marked = true
		return nil
	})
	return marked, err
}

// MarkNoShows moves appointments still BOOKED from before today to NO_SHOW.
func (s *SchedulingService) MarkNoShows(ctx context.Context, now time.Time) (int, error) {
	today := models.DateOf(now.In(s.settings.Location))
	appts, err := s.store.Appointments().FindByStatusBetween(ctx, models.StatusBooked, today.AddDays(-noShowLookbackDays), today.AddDays(-1))
	if err != nil {
		return 0, err
	}
	marked := 0
	for _, a := range appts {
		if _, err := s.apply(ctx, a.ID, scheduling.EventNoShow, ""); err != nil {
			if errors.Is(err, scheduling.ErrInvalidStateTransition) || errors.Is(err, scheduling.ErrNotFound) {
				continue
			}
			return marked, err
		}
		marked++
	}
	if marked > 0 {
		s.logger.Info().Int("marked", marked).Msg("appointments marked as no-show")
	}
	return marked, nil
}

// SendNoShowFollowUps messages customers who missed yesterday's appointment.
func (s *SchedulingService) SendNoShowFollowUps(ctx context.Context, now time.Time) (int, error) {
	yesterday := models.DateOf(now.In(s.settings.Location)).AddDays(-1)
	appts, err := s.store.Appointments().FindByStatusBetween(ctx, models.StatusNoShow, yesterday, yesterday)
	if err != nil {
		return 0, err
	}
	sent := 0
	for i := range appts {
		a := &appts[i]
		if a.FollowUpSent {
			continue
		}
		ok, err := s.markSent(ctx, a, followUp)
		if err != nil {
			s.logger.Error().Err(err).Str("appointment_id", a.ID.String()).Msg("follow-up bookkeeping failed")
			continue
		}
		if ok {
			s.notify(ctx, models.KindFollowUp, a, "")
			sent++
		}
	}
	return sent, nil
}

// Sweep names accepted by Sweeper.RunOnce.
const (
	SweepReminders      = "reminders"
	SweepWaitlistExpiry = "waitlist-expiry"
	SweepNoShows        = "no-shows"
	SweepFollowUps      = "follow-ups"
)

var SweepNames = []string{SweepReminders, SweepWaitlistExpiry, SweepNoShows, SweepFollowUps}

// SweepSchedule holds a cron spec per sweep. An empty spec disables it.
type SweepSchedule struct {
	Reminders      string
	WaitlistExpiry string
	NoShows        string
	FollowUps      string
}

func DefaultSweepSchedule() SweepSchedule {
	return SweepSchedule{
		Reminders:      "*/5 * * * *",
		WaitlistExpiry: "*/15 * * * *",
		NoShows:        "0 23 * * *",
		FollowUps:      "0 18 * * *",
	}
}

// Sweeper runs the periodic maintenance jobs on a cron schedule.
type Sweeper struct {
	svc      *SchedulingService
	cron     *cron.Cron
	schedule SweepSchedule
	logger   zerolog.Logger
}

func NewSweeper(svc *SchedulingService, schedule SweepSchedule, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		svc:      svc,
		cron:     cron.New(cron.WithLocation(svc.settings.Location)),
		schedule: schedule,
		logger:   logger.With().Str("component", "sweeper").Logger(),
	}
}

// Start registers every enabled sweep and starts the scheduler.
func (w *Sweeper) Start() error {
	specs := map[string]string{
		SweepReminders:      w.schedule.Reminders,
		SweepWaitlistExpiry: w.schedule.WaitlistExpiry,
		SweepNoShows:        w.schedule.NoShows,
		SweepFollowUps:      w.schedule.FollowUps,
	}
	for _, name := range SweepNames {
		spec := specs[name]
		if spec == "" {
			continue
		}
		name := name
		if _, err := w.cron.AddFunc(spec, func() {
			if _, err := w.RunOnce(context.Background(), name); err != nil {
				w.logger.Error().Err(err).Str("sweep", name).Msg("sweep failed")
			}
		}); err != nil {
			return fmt.Errorf("schedule %s sweep %q: %w", name, spec, err)
		}
	}
	w.cron.Start()
	w.logger.Info().Msg("sweeper started")
	return nil
}

// Stop waits for running sweeps or until ctx is done.
func (w *Sweeper) Stop(ctx context.Context) {
	done := w.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// RunOnce executes one sweep by name and returns how many records it touched.
func (w *Sweeper) RunOnce(ctx context.Context, name string) (int, error) {
	now := w.svc.now()
	var (
		n   int
		err error
	)
	switch name {
	case SweepReminders:
		n, err = w.svc.SendReminders(ctx, now)
	case SweepWaitlistExpiry:
		var expired int64
		expired, err = w.svc.ExpireWaitlist(ctx, now)
		n = int(expired)
	case SweepNoShows:
		n, err = w.svc.MarkNoShows(ctx, now)
	case SweepFollowUps:
		n, err = w.svc.SendNoShowFollowUps(ctx, now)
	default:
		return 0, fmt.Errorf("unknown sweep %q", name)
	}
	if err != nil {
		return n, err
	}
	w.logger.Debug().Str("sweep", name).Int("count", n).Msg("sweep finished")
	return n, nil
}
