package scheduling

import (
	"slices"
	"testing"

	"github.com/google/uuid"

	"salonpro-scheduler/models"
)

func clock(s string) models.Clock {
	c, err := models.ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func appt(start, end string, status models.AppointmentStatus) models.Appointment {
	return models.Appointment{
		ID:        uuid.New(),
		StartTime: clock(start),
		EndTime:   clock(end),
		Status:    status,
		Services:  []models.AppointmentService{{ServiceName: "Haircut"}},
	}
}

func TestGenerateSlots_PartitionsWindow(t *testing.T) {
	w := Window{Open: clock("09:00"), Close: clock("12:00")}
	slots := slices.Collect(GenerateSlots(w, 30, nil))
	if len(slots) != 6 {
		t.Fatalf("expected 6 slots, got %d", len(slots))
	}
	for i, s := range slots {
		if s.EndTime.Sub(s.StartTime) != 30 {
			t.Errorf("slot %d: expected 30 minutes, got %d", i, s.EndTime.Sub(s.StartTime))
		}
		if i > 0 && s.StartTime != slots[i-1].EndTime {
			t.Errorf("slot %d does not start where slot %d ends", i, i-1)
		}
		if !s.Available {
			t.Errorf("slot %d should be available", i)
		}
	}
	if slots[0].StartTime != w.Open || slots[5].EndTime != w.Close {
		t.Error("slots do not cover the window")
	}
}

func TestGenerateSlots_DropsPartialFinalSlot(t *testing.T) {
	w := Window{Open: clock("09:00"), Close: clock("10:40")}
	slots := slices.Collect(GenerateSlots(w, 30, nil))
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(slots))
	}
	if last := slots[len(slots)-1]; last.EndTime != clock("10:30") {
		t.Errorf("expected last slot to end at 10:30, got %s", last.EndTime)
	}
}

func TestGenerateSlots_MarksOccupied(t *testing.T) {
	w := Window{Open: clock("09:00"), Close: clock("11:00")}
	booked := appt("09:30", "10:15", models.StatusBooked)
	cancelled := appt("10:30", "11:00", models.StatusCancelled)
	slots := slices.Collect(GenerateSlots(w, 30, []models.Appointment{booked, cancelled}))

	want := []bool{true, false, false, true}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %d", len(want), len(slots))
	}
	for i, s := range slots {
		if s.Available != want[i] {
			t.Errorf("slot %s: expected available=%v", s.StartTime, want[i])
		}
	}
	if slots[1].AppointmentID == nil || *slots[1].AppointmentID != booked.ID {
		t.Error("occupied slot should reference the blocking appointment")
	}
	if slots[1].ServiceNames != "Haircut" {
		t.Errorf("expected service names on occupied slot, got %q", slots[1].ServiceNames)
	}
}

func TestGenerateSuggestedSlots_FreeOnly(t *testing.T) {
	w := Window{Open: clock("09:00"), Close: clock("12:00")}
	existing := []models.Appointment{appt("10:00", "11:00", models.StatusBooked)}
	slots := slices.Collect(GenerateSuggestedSlots(w, 30, 60, existing))

	var starts []string
	for _, s := range slots {
		starts = append(starts, s.StartTime.String())
		if s.EndTime.Sub(s.StartTime) != 60 {
			t.Errorf("suggestion at %s should last 60 minutes", s.StartTime)
		}
	}
	want := []string{"09:00", "11:00"}
	if !slices.Equal(starts, want) {
		t.Errorf("expected %v, got %v", want, starts)
	}
}

func TestBookedSlots_UsesAppointmentTimes(t *testing.T) {
	late := appt("18:30", "18:50", models.StatusBooked)
	early := appt("10:00", "10:20", models.StatusInProgress)
	cancelled := appt("11:00", "11:30", models.StatusCancelled)

	booked := BookedSlots([]models.Appointment{late, cancelled, early})
	if len(booked) != 2 {
		t.Fatalf("expected 2 booked slots, got %d", len(booked))
	}
	if *booked[0].AppointmentID != early.ID || booked[0].StartTime != clock("10:00") || booked[0].EndTime != clock("10:20") {
		t.Errorf("unexpected first slot %+v", booked[0])
	}
	if *booked[1].AppointmentID != late.ID || booked[1].EndTime != clock("18:50") {
		t.Errorf("an appointment after closing should still be reported, got %+v", booked[1])
	}
	if booked[0].Available || booked[0].ServiceNames != "Haircut" {
		t.Errorf("unexpected slot details %+v", booked[0])
	}
}

func TestGenerateSlots_NonPositiveSize(t *testing.T) {
	w := DefaultWindow()
	if n := len(slices.Collect(GenerateSlots(w, 0, nil))); n != 0 {
		t.Errorf("expected no slots for size 0, got %d", n)
	}
}
