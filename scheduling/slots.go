package scheduling

import (
	"iter"
	"sort"

	"salonpro-scheduler/models"
)

// GenerateSlots walks the window in consecutive slotMinutes steps. A trailing
// slot that would run past closing is dropped. Occupied slots reference the
// first appointment that blocks them.
func GenerateSlots(w Window, slotMinutes int, existing []models.Appointment) iter.Seq[models.TimeSlot] {
	return scan(w, slotMinutes, slotMinutes, existing, false)
}

// GenerateSuggestedSlots tests windows of durationMinutes starting every
// stepMinutes and yields only the free ones.
func GenerateSuggestedSlots(w Window, stepMinutes, durationMinutes int, existing []models.Appointment) iter.Seq[models.TimeSlot] {
	return scan(w, stepMinutes, durationMinutes, existing, true)
}

// BookedSlots reports each occupying appointment as one slot with its own
// start and end, ordered by start time. Appointments outside the working
// window are included.
func BookedSlots(existing []models.Appointment) []models.TimeSlot {
	out := make([]models.TimeSlot, 0, len(existing))
	for _, a := range existing {
		if !a.Status.OccupiesCalendar() {
			continue
		}
		id := a.ID
		out = append(out, models.TimeSlot{
			StartTime:     a.StartTime,
			EndTime:       a.EndTime,
			AppointmentID: &id,
			ServiceNames:  a.ServiceNames(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out
}

func scan(w Window, step, length int, existing []models.Appointment, freeOnly bool) iter.Seq[models.TimeSlot] {
	return func(yield func(models.TimeSlot) bool) {
		if step <= 0 || length <= 0 {
			return
		}
		for start := w.Open; start.Add(length) <= w.Close; start = start.Add(step) {
			end := start.Add(length)
			slot := models.TimeSlot{StartTime: start, EndTime: end, Available: true}
			if blocking := FindConflicts(existing, start, end, nil); len(blocking) > 0 {
				if freeOnly {
					continue
				}
				id := blocking[0].ID
				slot.Available = false
				slot.AppointmentID = &id
				slot.ServiceNames = blocking[0].ServiceNames()
			}
			if !yield(slot) {
				return
			}
		}
	}
}
