package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"salonpro-scheduler/models"
)

// GormStore is the postgres Store. Calendar locks are transaction-scoped
// advisory locks, so they are released on commit or rollback.
type GormStore struct {
	db   *gorm.DB
	inTx bool
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Appointments() AppointmentRepository {
	return &gormAppointments{db: s.db, forUpdate: s.inTx}
}

func (s *GormStore) Waitlist() WaitlistRepository {
	return &gormWaitlist{db: s.db, forUpdate: s.inTx}
}

func (s *GormStore) InTx(ctx context.Context, keys []LockKey, fn func(tx Store) error) (err error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	for _, k := range sortedKeys(keys) {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", k.String()).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("lock calendar %s: %w", k, err)
		}
	}

	if err := fn(&GormStore{db: tx, inTx: true}); err != nil {
		tx.Rollback()
		return err
	}
	return translate(tx.Commit().Error, "record")
}

type gormAppointments struct {
	db        *gorm.DB
	forUpdate bool
}

func (r *gormAppointments) query(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx)
	if r.forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

func orderedServices(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

func (r *gormAppointments) Create(ctx context.Context, a *models.Appointment) error {
	a.AssignIDs()
	return translate(r.db.WithContext(ctx).Create(a).Error, "appointment")
}

func (r *gormAppointments) Update(ctx context.Context, a *models.Appointment) error {
	a.AssignIDs()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Services").Save(a).Error; err != nil {
			return err
		}
		if err := tx.Where("appointment_id = ?", a.ID).Delete(&models.AppointmentService{}).Error; err != nil {
			return err
		}
		if len(a.Services) == 0 {
			return nil
		}
		return tx.Create(&a.Services).Error
	})
	return translate(err, "appointment")
}

func (r *gormAppointments) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Appointment{})
	if result.Error != nil {
		return translate(result.Error, "appointment")
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "appointment")
	}
	return nil
}

func (r *gormAppointments) Get(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	var a models.Appointment
	if err := r.query(ctx).Preload("Services", orderedServices).First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err, "appointment")
	}
	return &a, nil
}

func (r *gormAppointments) FindByStaffAndDate(ctx context.Context, staffID uuid.UUID, date models.Date) ([]models.Appointment, error) {
	var out []models.Appointment
	err := r.db.WithContext(ctx).Preload("Services", orderedServices).
		Where("staff_id = ? AND date = ?", staffID, date).
		Order("start_time").Find(&out).Error
	return out, translate(err, "appointment")
}

func (r *gormAppointments) FindConflicting(ctx context.Context, staffID uuid.UUID, date models.Date, start, end models.Clock, exclude *uuid.UUID) ([]models.Appointment, error) {
	q := r.db.WithContext(ctx).
		Where("staff_id = ? AND date = ? AND status IN ?", staffID, date, models.OccupyingStatuses).
		Where("start_time < ? AND end_time > ?", end, start)
	if exclude != nil {
		q = q.Where("id <> ?", *exclude)
	}
	var out []models.Appointment
	err := q.Order("start_time").Find(&out).Error
	return out, translate(err, "appointment")
}

func (r *gormAppointments) FindByParentID(ctx context.Context, parentID uuid.UUID) ([]models.Appointment, error) {
	var out []models.Appointment
	err := r.db.WithContext(ctx).Preload("Services", orderedServices).
		Where("parent_appointment_id = ?", parentID).
		Order("recurrence_sequence").Find(&out).Error
	return out, translate(err, "appointment")
}

func (r *gormAppointments) FindByStatusBetween(ctx context.Context, status models.AppointmentStatus, from, to models.Date) ([]models.Appointment, error) {
	var out []models.Appointment
	err := r.db.WithContext(ctx).Preload("Services", orderedServices).
		Where("status = ? AND date BETWEEN ? AND ?", status, from, to).
		Order("date, start_time").Find(&out).Error
	return out, translate(err, "appointment")
}

type gormWaitlist struct {
	db        *gorm.DB
	forUpdate bool
}

func (r *gormWaitlist) Create(ctx context.Context, e *models.WaitlistEntry) error {
	e.AssignIDs()
	return translate(r.db.WithContext(ctx).Create(e).Error, "waitlist entry")
}

func (r *gormWaitlist) Update(ctx context.Context, e *models.WaitlistEntry) error {
	return translate(r.db.WithContext(ctx).Omit("Services").Save(e).Error, "waitlist entry")
}

func (r *gormWaitlist) Get(ctx context.Context, id uuid.UUID) (*models.WaitlistEntry, error) {
	q := r.db.WithContext(ctx)
	if r.forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var e models.WaitlistEntry
	if err := q.Preload("Services", orderedServices).First(&e, "id = ?", id).Error; err != nil {
		return nil, translate(err, "waitlist entry")
	}
	return &e, nil
}

func (r *gormWaitlist) FindActiveByStaff(ctx context.Context, staffID uuid.UUID) ([]models.WaitlistEntry, error) {
	var out []models.WaitlistEntry
	err := r.db.WithContext(ctx).Preload("Services", orderedServices).
		Where("staff_id = ? AND status = ?", staffID, models.WaitlistActive).
		Order("priority DESC, created_at ASC").Find(&out).Error
	return out, translate(err, "waitlist entry")
}

func (r *gormWaitlist) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.WaitlistEntry, error) {
	var out []models.WaitlistEntry
	err := r.db.WithContext(ctx).Preload("Services", orderedServices).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").Find(&out).Error
	return out, translate(err, "waitlist entry")
}

func (r *gormWaitlist) HasActive(ctx context.Context, customerID, staffID uuid.UUID, date models.Date) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.WaitlistEntry{}).
		Where("customer_id = ? AND staff_id = ? AND preferred_date = ? AND status = ?",
			customerID, staffID, date, models.WaitlistActive).
		Count(&n).Error
	return n > 0, translate(err, "waitlist entry")
}

func (r *gormWaitlist) ExpireBefore(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.WaitlistEntry{}).
		Where("status IN ? AND expires_at <= ?", []models.WaitlistStatus{models.WaitlistActive, models.WaitlistNotified}, now).
		Updates(map[string]interface{}{"status": models.WaitlistExpired, "updated_at": now})
	return result.RowsAffected, translate(result.Error, "waitlist entry")
}

func (r *gormWaitlist) CountByStatus(ctx context.Context, branchID uuid.UUID) (map[models.WaitlistStatus]int64, error) {
	var rows []struct {
		Status models.WaitlistStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&models.WaitlistEntry{}).
		Select("status, count(*) AS count").
		Where("branch_id = ?", branchID).
		Group("status").Scan(&rows).Error
	if err != nil {
		return nil, translate(err, "waitlist entry")
	}
	counts := make(map[models.WaitlistStatus]int64, len(models.WaitlistStatuses))
	for _, s := range models.WaitlistStatuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
