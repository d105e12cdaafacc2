package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentStatus string

const (
	StatusBooked     AppointmentStatus = "BOOKED"
	StatusInProgress AppointmentStatus = "IN_PROGRESS"
	StatusCompleted  AppointmentStatus = "COMPLETED"
	StatusCancelled  AppointmentStatus = "CANCELLED"
	StatusNoShow     AppointmentStatus = "NO_SHOW"
)

// OccupyingStatuses are the statuses whose appointments block the calendar.
var OccupyingStatuses = []AppointmentStatus{StatusBooked, StatusInProgress, StatusCompleted}

func (s AppointmentStatus) OccupiesCalendar() bool {
	for _, o := range OccupyingStatuses {
		if s == o {
			return true
		}
	}
	return false
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusBooked, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

type RecurrencePattern string

const (
	RecurrenceNone    RecurrencePattern = "NONE"
	RecurrenceDaily   RecurrencePattern = "DAILY"
	RecurrenceWeekly  RecurrencePattern = "WEEKLY"
	RecurrenceMonthly RecurrencePattern = "MONTHLY"
)

type Appointment struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CustomerID uuid.UUID `gorm:"type:uuid;index;not null" json:"customerId"`
	StaffID    uuid.UUID `gorm:"type:uuid;not null;index:idx_appointments_staff_date,priority:1" json:"staffId"`
	BranchID   uuid.UUID `gorm:"type:uuid;index;not null" json:"branchId"`

	Date      Date              `gorm:"type:date;not null;index:idx_appointments_staff_date,priority:2" json:"date"`
	StartTime Clock             `gorm:"type:time;not null" json:"startTime"`
	EndTime   Clock             `gorm:"type:time;not null" json:"endTime"`
	Status    AppointmentStatus `gorm:"type:varchar(20);not null;default:'BOOKED';index" json:"status"`
	Notes     string            `gorm:"type:text" json:"notes,omitempty"`

	TotalAmount float64              `gorm:"type:decimal(10,2);not null;default:0" json:"totalAmount"`
	Services    []AppointmentService `gorm:"foreignKey:AppointmentID;constraint:OnDelete:CASCADE" json:"services"`

	IsRecurring         bool              `gorm:"default:false" json:"isRecurring"`
	RecurrencePattern   RecurrencePattern `gorm:"type:varchar(10)" json:"recurrencePattern,omitempty"`
	RecurrenceInterval  int               `gorm:"default:1" json:"recurrenceInterval,omitempty"`
	RecurrenceEndDate   *Date             `gorm:"type:date" json:"recurrenceEndDate,omitempty"`
	ParentAppointmentID *uuid.UUID        `gorm:"type:uuid;index" json:"parentAppointmentId,omitempty"`
	RecurrenceSequence  int               `gorm:"default:0" json:"recurrenceSequence"`

	DayReminderSent          bool `gorm:"default:false" json:"-"`
	HourReminderSent         bool `gorm:"default:false" json:"-"`
	ThirtyMinuteReminderSent bool `gorm:"default:false" json:"-"`
	FollowUpSent             bool `gorm:"default:false" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AppointmentService is a line item with the catalog values copied at booking
// time so later catalog edits never alter historical appointments.
type AppointmentService struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	AppointmentID   uuid.UUID `gorm:"type:uuid;index;not null" json:"-"`
	ServiceID       uuid.UUID `gorm:"type:uuid;index;not null" json:"serviceId"`
	ServiceName     string    `gorm:"not null" json:"serviceName"`
	Price           float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	CommissionRate  float64   `gorm:"type:decimal(5,2);default:0" json:"commissionRate"`
	DurationMinutes int       `gorm:"not null" json:"durationMinutes"`
	Position        int       `gorm:"not null;default:0" json:"-"`
}

// AssignIDs fills in missing primary keys on the appointment and its line items.
func (a *Appointment) AssignIDs() {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	for i := range a.Services {
		if a.Services[i].ID == uuid.Nil {
			a.Services[i].ID = uuid.New()
		}
		a.Services[i].AppointmentID = a.ID
		a.Services[i].Position = i
	}
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) (err error) {
	a.AssignIDs()
	return
}

func (s *AppointmentService) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}

func (a Appointment) DurationMinutes() int {
	return a.EndTime.Sub(a.StartTime)
}

// ServiceNames joins the line item names for display.
func (a Appointment) ServiceNames() string {
	names := make([]string, 0, len(a.Services))
	for _, s := range a.Services {
		names = append(names, s.ServiceName)
	}
	return strings.Join(names, ", ")
}

// SeriesID returns the id shared by every occurrence of a recurring series.
func (a Appointment) SeriesID() uuid.UUID {
	if a.ParentAppointmentID != nil {
		return *a.ParentAppointmentID
	}
	return a.ID
}

// Clone returns a deep copy safe to mutate independently.
func (a Appointment) Clone() Appointment {
	c := a
	c.Services = append([]AppointmentService(nil), a.Services...)
	if a.RecurrenceEndDate != nil {
		d := *a.RecurrenceEndDate
		c.RecurrenceEndDate = &d
	}
	if a.ParentAppointmentID != nil {
		id := *a.ParentAppointmentID
		c.ParentAppointmentID = &id
	}
	return c
}

// AppendNote adds a line to the notes, separated by a newline when notes exist.
func (a *Appointment) AppendNote(line string) {
	if a.Notes == "" {
		a.Notes = line
		return
	}
	a.Notes += "\n" + line
}
