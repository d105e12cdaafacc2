package scheduling

import (
	"github.com/google/uuid"

	"salonpro-scheduler/models"
)

// Overlaps is the half-open interval test [s1,e1) x [s2,e2). Intervals that
// only touch at an endpoint do not overlap.
func Overlaps(s1, e1, s2, e2 models.Clock) bool {
	return s1 < e2 && e1 > s2
}

// FindConflicts returns the appointments in existing that block [start,end).
// Appointments whose status does not occupy the calendar are ignored, as is
// the appointment with id exclude.
func FindConflicts(existing []models.Appointment, start, end models.Clock, exclude *uuid.UUID) []models.Appointment {
	var out []models.Appointment
	for _, a := range existing {
		if exclude != nil && a.ID == *exclude {
			continue
		}
		if !a.Status.OccupiesCalendar() {
			continue
		}
		if Overlaps(start, end, a.StartTime, a.EndTime) {
			out = append(out, a)
		}
	}
	return out
}

func HasConflict(existing []models.Appointment, start, end models.Clock, exclude *uuid.UUID) bool {
	return len(FindConflicts(existing, start, end, exclude)) > 0
}

// ValidateInterval checks a same-day interval.
func ValidateInterval(start, end models.Clock) error {
	if !start.Valid() || !end.Valid() {
		return Invalid("time must be between 00:00 and 24:00")
	}
	if start >= end {
		return Invalid("start time %s must be before end time %s", start, end)
	}
	return nil
}
