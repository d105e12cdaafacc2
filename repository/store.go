// Package repository persists appointments, waitlist entries and the
// read-only collaborator records the scheduling core consumes.
package repository

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"salonpro-scheduler/models"
)

// LockKey scopes a booking lock to one staff member's calendar day.
type LockKey struct {
	StaffID uuid.UUID
	Date    models.Date
}

func (k LockKey) String() string {
	return k.StaffID.String() + "/" + k.Date.String()
}

// sortedKeys dedups keys and orders them so every caller acquires locks in
// the same order.
func sortedKeys(keys []LockKey) []LockKey {
	seen := make(map[string]LockKey, len(keys))
	for _, k := range keys {
		seen[k.String()] = k
	}
	out := make([]LockKey, 0, len(seen))
	for _, k := range seen {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Store is the transactional boundary of the scheduling core.
type Store interface {
	Appointments() AppointmentRepository
	Waitlist() WaitlistRepository
	// InTx runs fn atomically while holding the calendar locks for keys.
	// Rows read through the tx store are locked for update.
	InTx(ctx context.Context, keys []LockKey, fn func(tx Store) error) error
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *models.Appointment) error
	// Update saves every column and replaces the line items.
	Update(ctx context.Context, a *models.Appointment) error
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	FindByStaffAndDate(ctx context.Context, staffID uuid.UUID, date models.Date) ([]models.Appointment, error)
	// FindConflicting returns calendar-occupying appointments overlapping [start,end).
	FindConflicting(ctx context.Context, staffID uuid.UUID, date models.Date, start, end models.Clock, exclude *uuid.UUID) ([]models.Appointment, error)
	FindByParentID(ctx context.Context, parentID uuid.UUID) ([]models.Appointment, error)
	FindByStatusBetween(ctx context.Context, status models.AppointmentStatus, from, to models.Date) ([]models.Appointment, error)
}

type WaitlistRepository interface {
	Create(ctx context.Context, e *models.WaitlistEntry) error
	Update(ctx context.Context, e *models.WaitlistEntry) error
	Get(ctx context.Context, id uuid.UUID) (*models.WaitlistEntry, error)
	FindActiveByStaff(ctx context.Context, staffID uuid.UUID) ([]models.WaitlistEntry, error)
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.WaitlistEntry, error)
	HasActive(ctx context.Context, customerID, staffID uuid.UUID, date models.Date) (bool, error)
	// ExpireBefore moves ACTIVE and NOTIFIED entries with expiresAt <= now to EXPIRED.
	ExpireBefore(ctx context.Context, now time.Time) (int64, error)
	CountByStatus(ctx context.Context, branchID uuid.UUID) (map[models.WaitlistStatus]int64, error)
}

// CatalogRepository is the service catalog and the appointment templates
// built from it.
type CatalogRepository interface {
	CreateService(ctx context.Context, s *models.Service) error
	UpdateService(ctx context.Context, s *models.Service) error
	GetService(ctx context.Context, branchID, id uuid.UUID) (*models.Service, error)
	ListServices(ctx context.Context, branchID uuid.UUID) ([]models.Service, error)

	CreateAppointmentTemplate(ctx context.Context, t *models.AppointmentTemplate) error
	// UpdateAppointmentTemplate saves every column and replaces the services.
	UpdateAppointmentTemplate(ctx context.Context, t *models.AppointmentTemplate) error
	GetAppointmentTemplate(ctx context.Context, branchID, id uuid.UUID) (*models.AppointmentTemplate, error)
	// ListAppointmentTemplates returns active templates, most used first.
	// A non-empty query keeps names containing it, ignoring case.
	ListAppointmentTemplates(ctx context.Context, branchID uuid.UUID, query string) ([]models.AppointmentTemplate, error)
	PopularAppointmentTemplates(ctx context.Context, branchID uuid.UUID, limit int) ([]models.AppointmentTemplate, error)
	IncrementTemplateUsage(ctx context.Context, id uuid.UUID) error
}

// DirectoryRepository reads customers, staff and branches.
type DirectoryRepository interface {
	GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	GetStaff(ctx context.Context, id uuid.UUID) (*models.Staff, error)
	GetBranch(ctx context.Context, id uuid.UUID) (*models.Branch, error)
	UpdateBranch(ctx context.Context, b *models.Branch) error
	ListActiveStaff(ctx context.Context, branchID uuid.UUID) ([]models.Staff, error)
}

type NotificationRepository interface {
	ActiveTemplate(ctx context.Context, branchID uuid.UUID, kind models.NotificationKind) (*models.NotificationTemplate, error)
	ListTemplates(ctx context.Context, branchID uuid.UUID) ([]models.NotificationTemplate, error)
	GetTemplate(ctx context.Context, branchID, id uuid.UUID) (*models.NotificationTemplate, error)
	// SaveTemplate inserts or updates. A second template for the same
	// branch and kind is a conflict.
	SaveTemplate(ctx context.Context, t *models.NotificationTemplate) error
	DeleteTemplate(ctx context.Context, branchID, id uuid.UUID) error
	LogNotification(ctx context.Context, l *models.NotificationLog) error
}
