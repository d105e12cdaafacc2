package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WaitlistStatus string

const (
	WaitlistActive    WaitlistStatus = "ACTIVE"
	WaitlistNotified  WaitlistStatus = "NOTIFIED"
	WaitlistConverted WaitlistStatus = "CONVERTED"
	WaitlistExpired   WaitlistStatus = "EXPIRED"
	WaitlistCancelled WaitlistStatus = "CANCELLED"
)

var WaitlistStatuses = []WaitlistStatus{WaitlistActive, WaitlistNotified, WaitlistConverted, WaitlistExpired, WaitlistCancelled}

func (s WaitlistStatus) Terminal() bool {
	return s == WaitlistConverted || s == WaitlistExpired || s == WaitlistCancelled
}

type WaitlistEntry struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CustomerID uuid.UUID `gorm:"type:uuid;index;not null" json:"customerId"`
	StaffID    uuid.UUID `gorm:"type:uuid;index;not null" json:"staffId"`
	BranchID   uuid.UUID `gorm:"type:uuid;index;not null" json:"branchId"`

	PreferredDate      Date  `gorm:"type:date;not null" json:"preferredDate"`
	PreferredStartTime Clock `gorm:"type:time;not null" json:"preferredStartTime"`
	PreferredEndTime   Clock `gorm:"type:time;not null" json:"preferredEndTime"`
	FlexibleDays       int   `gorm:"default:0" json:"flexibleDays"`
	FlexibleHours      int   `gorm:"default:0" json:"flexibleHours"`
	Priority           int   `gorm:"default:0;index" json:"priority"`

	Status   WaitlistStatus    `gorm:"type:varchar(20);not null;default:'ACTIVE';index" json:"status"`
	Notes    string            `gorm:"type:text" json:"notes,omitempty"`
	Services []WaitlistService `gorm:"foreignKey:WaitlistEntryID;constraint:OnDelete:CASCADE" json:"services,omitempty"`

	NotifiedAt             *time.Time `json:"notifiedAt,omitempty"`
	ConvertedAt            *time.Time `json:"convertedAt,omitempty"`
	ConvertedAppointmentID *uuid.UUID `gorm:"type:uuid" json:"convertedAppointmentId,omitempty"`
	ExpiresAt              time.Time  `gorm:"not null;index" json:"expiresAt"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WaitlistService is the service snapshot taken when the customer joined the
// waitlist. Conversion books exactly these services at these prices.
type WaitlistService struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	WaitlistEntryID uuid.UUID `gorm:"type:uuid;index;not null" json:"-"`
	ServiceID       uuid.UUID `gorm:"type:uuid;not null" json:"serviceId"`
	ServiceName     string    `json:"serviceName"`
	Price           float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	CommissionRate  float64   `gorm:"type:decimal(5,2);default:0" json:"commissionRate"`
	DurationMinutes int       `json:"durationMinutes"`
	Position        int       `gorm:"default:0" json:"-"`
}

func (w *WaitlistEntry) AssignIDs() {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	for i := range w.Services {
		if w.Services[i].ID == uuid.Nil {
			w.Services[i].ID = uuid.New()
		}
		w.Services[i].WaitlistEntryID = w.ID
		w.Services[i].Position = i
	}
}

func (w *WaitlistEntry) BeforeCreate(tx *gorm.DB) (err error) {
	w.AssignIDs()
	return
}

func (s *WaitlistService) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}

func (w WaitlistEntry) Clone() WaitlistEntry {
	c := w
	c.Services = append([]WaitlistService(nil), w.Services...)
	if w.NotifiedAt != nil {
		t := *w.NotifiedAt
		c.NotifiedAt = &t
	}
	if w.ConvertedAt != nil {
		t := *w.ConvertedAt
		c.ConvertedAt = &t
	}
	if w.ConvertedAppointmentID != nil {
		id := *w.ConvertedAppointmentID
		c.ConvertedAppointmentID = &id
	}
	return c
}

func (w *WaitlistEntry) AppendNote(line string) {
	if w.Notes == "" {
		w.Notes = line
		return
	}
	w.Notes += "\n" + line
}
