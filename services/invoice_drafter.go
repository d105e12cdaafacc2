package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"salonpro-scheduler/models"
)

// InvoiceDrafter raises an unpaid invoice when an appointment is completed
// and credits the visit to the customer. Staff commission is carried on the
// invoice items.
type InvoiceDrafter struct {
	db *gorm.DB
}

func NewInvoiceDrafter(db *gorm.DB) *InvoiceDrafter {
	return &InvoiceDrafter{db: db}
}

func (d *InvoiceDrafter) OnAppointmentCompleted(ctx context.Context, a models.Appointment) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Invoice
		err := tx.Where("appointment_id = ?", a.ID).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		invoice := DraftInvoice(a, time.Now())
		if err := tx.Create(&invoice).Error; err != nil {
			return err
		}
		return tx.Model(&models.Customer{}).
			Where("id = ?", a.CustomerID).
			Updates(map[string]interface{}{
				"total_visits": gorm.Expr("total_visits + ?", 1),
				"total_spent":  gorm.Expr("total_spent + ?", invoice.Total),
				"last_visit":   invoice.InvoiceDate,
			}).Error
	})
}

// DraftInvoice builds the invoice for a completed appointment from its line
// items.
func DraftInvoice(a models.Appointment, now time.Time) models.Invoice {
	invoice := models.Invoice{
		BranchID:      a.BranchID,
		AppointmentID: a.ID,
		StaffID:       a.StaffID,
		CustomerID:    a.CustomerID,
		InvoiceNumber: "INV-" + a.Date.Format("20060102") + "-" + strings.ToUpper(a.ID.String()[:8]),
		InvoiceDate:   now,
		PaymentStatus: "unpaid",
	}
	for _, li := range a.Services {
		invoice.Items = append(invoice.Items, models.InvoiceItem{
			ServiceID:      li.ServiceID,
			ServiceName:    li.ServiceName,
			Quantity:       1,
			UnitPrice:      li.Price,
			TotalPrice:     li.Price,
			CommissionRate: li.CommissionRate,
		})
		invoice.Subtotal += li.Price
	}
	invoice.Total = invoice.Subtotal
	return invoice
}
