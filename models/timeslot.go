package models

import "github.com/google/uuid"

// TimeSlot is derived on demand from the calendar and never persisted.
type TimeSlot struct {
	StartTime     Clock      `json:"startTime"`
	EndTime       Clock      `json:"endTime"`
	Available     bool       `json:"available"`
	AppointmentID *uuid.UUID `json:"appointmentId,omitempty"`
	CustomerName  string     `json:"customerName,omitempty"`
	ServiceNames  string     `json:"serviceNames,omitempty"`
}

type StaffAvailability struct {
	StaffID        uuid.UUID  `json:"staffId"`
	StaffName      string     `json:"staffName,omitempty"`
	Date           Date       `json:"date"`
	AvailableSlots []TimeSlot `json:"availableSlots"`
	BookedSlots    []TimeSlot `json:"bookedSlots"`
}
