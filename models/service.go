package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	BranchID       uuid.UUID `gorm:"type:uuid;index;not null" json:"branchId"`
	Name           string    `gorm:"not null" json:"name"`
	Description    string    `json:"description,omitempty"`
	Price          float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	Duration       int       `json:"duration"` // in minutes
	CommissionRate float64   `gorm:"type:decimal(5,2);default:0" json:"commissionRate"`
	Category       string    `gorm:"default:'General'" json:"category"`
	IsActive       bool      `gorm:"default:true" json:"isActive"`
}

func (s *Service) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}
