package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationLog struct {
	ID           uuid.UUID        `gorm:"type:uuid;primary_key"`
	BranchID     uuid.UUID        `gorm:"type:uuid;index"`
	CustomerID   uuid.UUID        `gorm:"type:uuid;index;not null"`
	ReferenceID  uuid.UUID        `gorm:"type:uuid;index"` // appointment or waitlist entry
	TemplateID   *uuid.UUID       `gorm:"type:uuid"`
	Kind         NotificationKind `gorm:"type:varchar(30)"`
	Message      string           `gorm:"type:text"`
	Status       string           `gorm:"type:varchar(20)"` // sent, failed, skipped
	ErrorMessage string           `gorm:"type:text"`
	Channel      string           `gorm:"type:varchar(20)"` // whatsapp, sms, email
	SentAt       time.Time
}

func (r *NotificationLog) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
