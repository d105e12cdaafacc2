package scheduling

import (
	"iter"

	"salonpro-scheduler/models"
)

// MaxSeriesOccurrences bounds a single series, not counting the seed.
const MaxSeriesOccurrences = 366

type Rule struct {
	Pattern  models.RecurrencePattern
	Interval int
	EndDate  models.Date
}

func (r Rule) Validate(seed models.Date) error {
	switch r.Pattern {
	case models.RecurrenceDaily, models.RecurrenceWeekly, models.RecurrenceMonthly:
	default:
		return Invalid("unsupported recurrence pattern %q", r.Pattern)
	}
	if r.Interval < 1 {
		return Invalid("recurrence interval must be at least 1").Arg("interval", r.Interval)
	}
	if r.EndDate.IsZero() {
		return Invalid("recurrence end date is required")
	}
	if r.EndDate.Before(seed) {
		return Invalid("recurrence end date %s is before the first appointment on %s", r.EndDate, seed)
	}
	n := 0
	for range Expand(seed, r) {
		if n++; n > MaxSeriesOccurrences {
			return Invalid("recurrence rule produces more than %d occurrences", MaxSeriesOccurrences)
		}
	}
	return nil
}

// Expand yields the occurrence dates strictly after seed, up to and including
// EndDate. The k-th occurrence is always computed from the seed so monthly
// series anchored on the 31st do not drift after a short month.
func Expand(seed models.Date, r Rule) iter.Seq[models.Date] {
	return func(yield func(models.Date) bool) {
		if r.Interval < 1 {
			return
		}
		for k := 1; ; k++ {
			var next models.Date
			switch r.Pattern {
			case models.RecurrenceDaily:
				next = seed.AddDays(k * r.Interval)
			case models.RecurrenceWeekly:
				next = seed.AddDays(7 * k * r.Interval)
			case models.RecurrenceMonthly:
				next = seed.AddMonths(k * r.Interval)
			default:
				return
			}
			if next.After(r.EndDate) {
				return
			}
			if !yield(next) {
				return
			}
		}
	}
}
