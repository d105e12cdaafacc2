package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Customer struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	BranchID uuid.UUID `gorm:"type:uuid;index;not null" json:"branchId"`

	Name        string     `gorm:"not null" json:"name"`
	Phone       string     `gorm:"not null;uniqueIndex:idx_branch_phone,priority:2" json:"phone"`
	Email       string     `json:"email,omitempty"`
	TotalVisits int        `gorm:"default:0" json:"totalVisits"`
	TotalSpent  float64    `gorm:"type:decimal(10,2);default:0.0" json:"totalSpent"`
	LastVisit   *time.Time `json:"lastVisit,omitempty"`
	IsActive    bool       `gorm:"default:true" json:"isActive"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}
