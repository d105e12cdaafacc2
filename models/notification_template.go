package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationKind string

const (
	KindConfirmation      NotificationKind = "confirmation"
	KindCancellation      NotificationKind = "cancellation"
	KindReschedule        NotificationKind = "reschedule"
	KindStatusUpdate      NotificationKind = "status"
	KindReminder          NotificationKind = "reminder"
	KindFollowUp          NotificationKind = "follow_up"
	KindWaitlistAvailable NotificationKind = "waitlist_available"
	KindWaitlistConverted NotificationKind = "waitlist_converted"
)

// NotificationTemplate overrides the built-in message for one kind at one
// branch. Placeholders: [CustomerName] [Date] [Time] [Branch] [Services] [Status].
type NotificationTemplate struct {
	ID       uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	BranchID uuid.UUID        `gorm:"type:uuid;index:idx_template_branch_kind,unique,priority:1;not null" json:"branchId"`
	Kind     NotificationKind `gorm:"type:varchar(30);index:idx_template_branch_kind,unique,priority:2;not null" json:"kind"`
	Message  string           `gorm:"type:text;not null" json:"message"`
	IsActive bool             `gorm:"default:true" json:"isActive"`
}

func (t *NotificationTemplate) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}
