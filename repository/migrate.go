package repository

import (
	"fmt"

	"gorm.io/gorm"

	"salonpro-scheduler/models"
)

const waitlistActiveIndex = "idx_waitlist_active_unique"

// Migrate creates the schema plus the constraints gorm tags cannot express:
// the no-overlap exclusion constraint backing the advisory locks, and the
// one-active-entry rule for the waitlist.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Branch{},
		&models.Staff{},
		&models.Customer{},
		&models.Service{},
		&models.AppointmentTemplate{},
		&models.AppointmentTemplateService{},
		&models.Appointment{},
		&models.AppointmentService{},
		&models.WaitlistEntry{},
		&models.WaitlistService{},
		&models.Invoice{},
		&models.InvoiceItem{},
		&models.NotificationTemplate{},
		&models.NotificationLog{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS btree_gist`,
		`DO $$ BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'appointments_no_overlap') THEN
				ALTER TABLE appointments ADD CONSTRAINT appointments_no_overlap
					EXCLUDE USING gist (staff_id WITH =, tsrange(date + start_time, date + end_time) WITH &&)
					WHERE (status IN ('BOOKED', 'IN_PROGRESS', 'COMPLETED'));
			END IF;
		END $$`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ` + waitlistActiveIndex + `
			ON waitlist_entries (customer_id, staff_id, preferred_date) WHERE status = 'ACTIVE'`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
