package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Branch struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Address      string    `json:"address,omitempty"`
	WorkingHours JSONB     `gorm:"type:jsonb;default:'{}'" json:"workingHours"`

	WhatsAppNotifications bool `gorm:"default:false" json:"whatsAppNotifications"`
	SMSNotifications      bool `gorm:"default:true" json:"smsNotifications"`

	Staff     []Staff    `gorm:"foreignKey:BranchID" json:"-"`
	Services  []Service  `gorm:"foreignKey:BranchID" json:"-"`
	Customers []Customer `gorm:"foreignKey:BranchID" json:"-"`
}

func (b *Branch) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return
}

// HoursFor reads the opening window for a weekday from WorkingHours, stored as
// {"monday": {"open": "09:00", "close": "18:00", "closed": false}, ...}.
// ok is false when the branch has no entry for that day.
func (b Branch) HoursFor(day time.Weekday) (open, close Clock, closed, ok bool) {
	raw, found := b.WorkingHours[strings.ToLower(day.String())]
	if !found {
		return 0, 0, false, false
	}
	h, isMap := raw.(map[string]interface{})
	if !isMap {
		return 0, 0, false, false
	}
	if c, _ := h["closed"].(bool); c {
		return 0, 0, true, true
	}
	openStr, _ := h["open"].(string)
	closeStr, _ := h["close"].(string)
	o, err := ParseClock(openStr)
	if err != nil {
		return 0, 0, false, false
	}
	c, err := ParseClock(closeStr)
	if err != nil || c <= o {
		return 0, 0, false, false
	}
	return o, c, false, true
}

var weekdays = map[string]bool{
	"sunday": true, "monday": true, "tuesday": true, "wednesday": true,
	"thursday": true, "friday": true, "saturday": true,
}

// ValidateHours rejects unknown day names and entries HoursFor cannot read.
func ValidateHours(hours JSONB) error {
	b := Branch{WorkingHours: hours}
	for day := range hours {
		if !weekdays[day] {
			return fmt.Errorf("unknown weekday %q", day)
		}
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if _, found := hours[strings.ToLower(d.String())]; !found {
			continue
		}
		if _, _, _, ok := b.HoursFor(d); !ok {
			return fmt.Errorf("%s: expected open before close as HH:MM, or closed", strings.ToLower(d.String()))
		}
	}
	return nil
}

// JSONB is a free-form jsonb column.
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return "{}", nil
	}
	b, err := json.Marshal(j)
	return string(b), err
}

func (j *JSONB) Scan(value interface{}) error {
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, j)
}
