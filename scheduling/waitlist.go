package scheduling

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"salonpro-scheduler/models"
)

// FreedInterval is calendar capacity released by a cancellation or deletion.
type FreedInterval struct {
	StaffID uuid.UUID
	Date    models.Date
	Start   models.Clock
	End     models.Clock
}

// MatchesWaitlist reports whether the freed interval falls inside the
// entry's flexibility window. Both the date and the time-of-day bounds are
// inclusive.
func MatchesWaitlist(e models.WaitlistEntry, f FreedInterval) bool {
	if e.StaffID != f.StaffID {
		return false
	}
	days := e.PreferredDate.DaysUntil(f.Date)
	if days < 0 {
		days = -days
	}
	if days > e.FlexibleDays {
		return false
	}
	lo := e.PreferredStartTime.Add(-e.FlexibleHours * 60)
	hi := e.PreferredEndTime.Add(e.FlexibleHours * 60)
	if lo < 0 {
		lo = 0
	}
	if hi > models.MinutesPerDay {
		hi = models.MinutesPerDay
	}
	return f.Start <= hi && f.End >= lo
}

// RankWaitlist keeps the ACTIVE entries matching f, highest priority first
// and earliest created among equals.
func RankWaitlist(entries []models.WaitlistEntry, f FreedInterval) []models.WaitlistEntry {
	var out []models.WaitlistEntry
	for _, e := range entries {
		if e.Status == models.WaitlistActive && MatchesWaitlist(e, f) {
			out = append(out, e)
		}
	}
	SortWaitlist(out)
	return out
}

func SortWaitlist(entries []models.WaitlistEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Priority != entries[j].Priority {
			return entries[i].Priority > entries[j].Priority
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
}

// WaitlistExpired reports whether the sweep should move e to EXPIRED.
func WaitlistExpired(e models.WaitlistEntry, now time.Time) bool {
	if e.Status != models.WaitlistActive && e.Status != models.WaitlistNotified {
		return false
	}
	return !now.Before(e.ExpiresAt)
}

// ValidateWaitlistPreferences checks a new entry before it is queued.
func ValidateWaitlistPreferences(e models.WaitlistEntry) error {
	if e.CustomerID == uuid.Nil || e.StaffID == uuid.Nil || e.BranchID == uuid.Nil {
		return Invalid("customer, staff and branch are required")
	}
	if e.PreferredDate.IsZero() {
		return Invalid("preferred date is required")
	}
	if err := ValidateInterval(e.PreferredStartTime, e.PreferredEndTime); err != nil {
		return err
	}
	if e.FlexibleDays < 0 || e.FlexibleHours < 0 {
		return Invalid("flexibility must not be negative").
			Arg("flexibleDays", e.FlexibleDays).Arg("flexibleHours", e.FlexibleHours)
	}
	return nil
}
