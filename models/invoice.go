package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Invoice struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	BranchID      uuid.UUID `gorm:"type:uuid;index;not null" json:"branchId"`
	AppointmentID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"appointmentId"`
	StaffID       uuid.UUID `gorm:"type:uuid;index;not null" json:"staffId"`

	InvoiceNumber string    `gorm:"uniqueIndex;not null" json:"invoiceNumber"`
	CustomerID    uuid.UUID `gorm:"type:uuid;index;not null" json:"customerId"`
	InvoiceDate   time.Time `json:"invoiceDate"`

	Subtotal float64 `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	Total    float64 `gorm:"type:decimal(10,2);not null" json:"total"`

	PaymentStatus string `gorm:"type:varchar(20);default:'unpaid'" json:"paymentStatus"`
	Notes         string `json:"notes,omitempty"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items"`
}

type InvoiceItem struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceID      uuid.UUID `gorm:"type:uuid;index;not null" json:"-"`
	ServiceID      uuid.UUID `gorm:"type:uuid;index;not null" json:"serviceId"`
	ServiceName    string    `gorm:"not null" json:"serviceName"`
	Quantity       int       `gorm:"default:1" json:"quantity"`
	UnitPrice      float64   `gorm:"type:decimal(10,2);not null" json:"unitPrice"`
	TotalPrice     float64   `gorm:"type:decimal(10,2);not null" json:"totalPrice"`
	CommissionRate float64   `gorm:"type:decimal(5,2);default:0" json:"commissionRate"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}

func (i *InvoiceItem) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}
