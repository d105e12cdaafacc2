package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppointmentTemplate is a named bundle of services a branch books often.
// Estimates are recomputed from the catalog whenever the services change.
type AppointmentTemplate struct {
	ID                uuid.UUID                    `gorm:"type:uuid;primary_key" json:"id"`
	BranchID          uuid.UUID                    `gorm:"type:uuid;index;not null" json:"branchId"`
	Name              string                       `gorm:"not null" json:"name"`
	Description       string                       `gorm:"type:text" json:"description,omitempty"`
	EstimatedDuration int                          `gorm:"not null;default:0" json:"estimatedDuration"` // in minutes
	EstimatedPrice    float64                      `gorm:"type:decimal(10,2);not null;default:0" json:"estimatedPrice"`
	IsActive          bool                         `gorm:"not null" json:"isActive"`
	UsageCount        int                          `gorm:"not null;default:0" json:"usageCount"`
	Services          []AppointmentTemplateService `gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE" json:"services"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type AppointmentTemplateService struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TemplateID      uuid.UUID `gorm:"type:uuid;index;not null" json:"-"`
	ServiceID       uuid.UUID `gorm:"type:uuid;not null" json:"serviceId"`
	ServiceName     string    `gorm:"not null" json:"serviceName"`
	Price           float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	DurationMinutes int       `gorm:"not null" json:"durationMinutes"`
	Position        int       `gorm:"not null;default:0" json:"-"`
}

func (t *AppointmentTemplate) AssignIDs() {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	for i := range t.Services {
		if t.Services[i].ID == uuid.Nil {
			t.Services[i].ID = uuid.New()
		}
		t.Services[i].TemplateID = t.ID
		t.Services[i].Position = i
	}
}

func (t *AppointmentTemplate) BeforeCreate(tx *gorm.DB) (err error) {
	t.AssignIDs()
	return
}

func (s *AppointmentTemplateService) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}

// ServiceIDs lists the bundled services in booking order.
func (t AppointmentTemplate) ServiceIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(t.Services))
	for _, s := range t.Services {
		ids = append(ids, s.ServiceID)
	}
	return ids
}

func (t AppointmentTemplate) Clone() AppointmentTemplate {
	c := t
	c.Services = append([]AppointmentTemplateService(nil), t.Services...)
	return c
}
