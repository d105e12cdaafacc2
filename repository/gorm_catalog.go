package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"salonpro-scheduler/models"
	"salonpro-scheduler/scheduling"
)

// GormCatalog reads and maintains the service catalog.
type GormCatalog struct {
	db *gorm.DB
}

func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

func (c *GormCatalog) CreateService(ctx context.Context, s *models.Service) error {
	return translate(c.db.WithContext(ctx).Create(s).Error, "service")
}

func (c *GormCatalog) UpdateService(ctx context.Context, s *models.Service) error {
	return translate(c.db.WithContext(ctx).Save(s).Error, "service")
}

func (c *GormCatalog) GetService(ctx context.Context, branchID, id uuid.UUID) (*models.Service, error) {
	var s models.Service
	err := c.db.WithContext(ctx).Where("branch_id = ? AND id = ?", branchID, id).First(&s).Error
	if err != nil {
		return nil, translate(err, "service")
	}
	return &s, nil
}

func (c *GormCatalog) ListServices(ctx context.Context, branchID uuid.UUID) ([]models.Service, error) {
	var out []models.Service
	err := c.db.WithContext(ctx).Where("branch_id = ?", branchID).Order("name").Find(&out).Error
	return out, translate(err, "service")
}

func (c *GormCatalog) CreateAppointmentTemplate(ctx context.Context, t *models.AppointmentTemplate) error {
	t.AssignIDs()
	return translate(c.db.WithContext(ctx).Create(t).Error, "appointment template")
}

func (c *GormCatalog) UpdateAppointmentTemplate(ctx context.Context, t *models.AppointmentTemplate) error {
	t.AssignIDs()
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Services").Save(t).Error; err != nil {
			return err
		}
		if err := tx.Where("template_id = ?", t.ID).Delete(&models.AppointmentTemplateService{}).Error; err != nil {
			return err
		}
		if len(t.Services) == 0 {
			return nil
		}
		return tx.Create(&t.Services).Error
	})
	return translate(err, "appointment template")
}

func (c *GormCatalog) GetAppointmentTemplate(ctx context.Context, branchID, id uuid.UUID) (*models.AppointmentTemplate, error) {
	var t models.AppointmentTemplate
	err := c.db.WithContext(ctx).Preload("Services", orderedServices).
		Where("branch_id = ? AND id = ?", branchID, id).First(&t).Error
	if err != nil {
		return nil, translate(err, "appointment template")
	}
	return &t, nil
}

func (c *GormCatalog) activeTemplates(ctx context.Context, branchID uuid.UUID) *gorm.DB {
	return c.db.WithContext(ctx).Preload("Services", orderedServices).
		Where("branch_id = ? AND is_active = ?", branchID, true).
		Order("usage_count DESC").Order("name")
}

func (c *GormCatalog) ListAppointmentTemplates(ctx context.Context, branchID uuid.UUID, query string) ([]models.AppointmentTemplate, error) {
	q := c.activeTemplates(ctx, branchID)
	if query = strings.TrimSpace(query); query != "" {
		q = q.Where("name ILIKE ?", "%"+likeEscaper.Replace(query)+"%")
	}
	var out []models.AppointmentTemplate
	return out, translate(q.Find(&out).Error, "appointment template")
}

func (c *GormCatalog) PopularAppointmentTemplates(ctx context.Context, branchID uuid.UUID, limit int) ([]models.AppointmentTemplate, error) {
	var out []models.AppointmentTemplate
	err := c.activeTemplates(ctx, branchID).Limit(limit).Find(&out).Error
	return out, translate(err, "appointment template")
}

func (c *GormCatalog) IncrementTemplateUsage(ctx context.Context, id uuid.UUID) error {
	result := c.db.WithContext(ctx).Model(&models.AppointmentTemplate{}).Where("id = ?", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1))
	if result.Error != nil {
		return translate(result.Error, "appointment template")
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "appointment template")
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// GormDirectory reads customers, staff and branches.
type GormDirectory struct {
	db *gorm.DB
}

func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

func (d *GormDirectory) GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var c models.Customer
	if err := d.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err, "customer")
	}
	return &c, nil
}

func (d *GormDirectory) GetStaff(ctx context.Context, id uuid.UUID) (*models.Staff, error) {
	var s models.Staff
	if err := d.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, translate(err, "staff member")
	}
	return &s, nil
}

func (d *GormDirectory) GetBranch(ctx context.Context, id uuid.UUID) (*models.Branch, error) {
	var b models.Branch
	if err := d.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, translate(err, "branch")
	}
	return &b, nil
}

func (d *GormDirectory) UpdateBranch(ctx context.Context, b *models.Branch) error {
	return translate(d.db.WithContext(ctx).Omit("Staff", "Services", "Customers").Save(b).Error, "branch")
}

func (d *GormDirectory) ListActiveStaff(ctx context.Context, branchID uuid.UUID) ([]models.Staff, error) {
	var out []models.Staff
	err := d.db.WithContext(ctx).Where("branch_id = ? AND is_active = ?", branchID, true).
		Order("name").Find(&out).Error
	return out, translate(err, "staff member")
}

// GormNotifications stores templates and the delivery log.
type GormNotifications struct {
	db *gorm.DB
}

func NewGormNotifications(db *gorm.DB) *GormNotifications {
	return &GormNotifications{db: db}
}

func (n *GormNotifications) ActiveTemplate(ctx context.Context, branchID uuid.UUID, kind models.NotificationKind) (*models.NotificationTemplate, error) {
	var t models.NotificationTemplate
	err := n.db.WithContext(ctx).
		Where("branch_id = ? AND kind = ? AND is_active = ?", branchID, kind, true).
		First(&t).Error
	if err != nil {
		return nil, translate(err, "notification template")
	}
	return &t, nil
}

func (n *GormNotifications) ListTemplates(ctx context.Context, branchID uuid.UUID) ([]models.NotificationTemplate, error) {
	var out []models.NotificationTemplate
	err := n.db.WithContext(ctx).Where("branch_id = ?", branchID).Order("kind").Find(&out).Error
	return out, translate(err, "notification template")
}

func (n *GormNotifications) GetTemplate(ctx context.Context, branchID, id uuid.UUID) (*models.NotificationTemplate, error) {
	var t models.NotificationTemplate
	if err := n.db.WithContext(ctx).Where("branch_id = ? AND id = ?", branchID, id).First(&t).Error; err != nil {
		return nil, translate(err, "notification template")
	}
	return &t, nil
}

func (n *GormNotifications) SaveTemplate(ctx context.Context, t *models.NotificationTemplate) error {
	if t.ID == uuid.Nil {
		return translate(n.db.WithContext(ctx).Create(t).Error, "notification template")
	}
	return translate(n.db.WithContext(ctx).Save(t).Error, "notification template")
}

func (n *GormNotifications) DeleteTemplate(ctx context.Context, branchID, id uuid.UUID) error {
	result := n.db.WithContext(ctx).Where("branch_id = ? AND id = ?", branchID, id).
		Delete(&models.NotificationTemplate{})
	if result.Error != nil {
		return translate(result.Error, "notification template")
	}
	if result.RowsAffected == 0 {
		return scheduling.NotFound("notification template not found")
	}
	return nil
}

func (n *GormNotifications) LogNotification(ctx context.Context, l *models.NotificationLog) error {
	return n.db.WithContext(ctx).Create(l).Error
}
