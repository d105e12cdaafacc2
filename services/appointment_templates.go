package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"salonpro-scheduler/models"
	"salonpro-scheduler/scheduling"
)

// AppointmentTemplateRequest creates or replaces a template. A nil IsActive
// keeps the current state on update and means active on create.
type AppointmentTemplateRequest struct {
	BranchID    uuid.UUID
	Name        string
	Description string
	ServiceIDs  []uuid.UUID
	IsActive    *bool
}

// TemplateBooking books a template's services for a customer.
type TemplateBooking struct {
	CustomerID uuid.UUID
	StaffID    uuid.UUID
	Date       models.Date
	StartTime  models.Clock
	Notes      string
}

// priceTemplate fills in the services and the estimates from the catalog.
func (s *SchedulingService) priceTemplate(ctx context.Context, t *models.AppointmentTemplate, ids []uuid.UUID) error {
	selections, err := s.resolveServices(ctx, t.BranchID, ids)
	if err != nil {
		return err
	}
	res, err := s.resolver.Resolve(selections)
	if err != nil {
		return err
	}
	t.Services = t.Services[:0]
	for _, sel := range selections {
		t.Services = append(t.Services, models.AppointmentTemplateService{
			ServiceID:       sel.ServiceID,
			ServiceName:     sel.Name,
			Price:           sel.Price,
			DurationMinutes: sel.DurationMinutes,
		})
	}
	t.EstimatedDuration = res.TotalDurationMinutes
	t.EstimatedPrice = res.TotalAmount
	return nil
}

func (r AppointmentTemplateRequest) name() (string, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return "", scheduling.Invalid("template name is required")
	}
	return name, nil
}

func (s *SchedulingService) CreateAppointmentTemplate(ctx context.Context, req AppointmentTemplateRequest) (*models.AppointmentTemplate, error) {
	name, err := req.name()
	if err != nil {
		return nil, err
	}
	t := &models.AppointmentTemplate{
		BranchID:    req.BranchID,
		Name:        name,
		Description: req.Description,
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
	if err := s.priceTemplate(ctx, t, req.ServiceIDs); err != nil {
		return nil, err
	}
	if err := s.catalog.CreateAppointmentTemplate(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info().Str("template_id", t.ID.String()).Str("name", t.Name).
		Int("services", len(t.Services)).Msg("appointment template created")
	return t, nil
}

// UpdateAppointmentTemplate replaces name, description and services, and
// reprices the estimates. The usage count is kept.
func (s *SchedulingService) UpdateAppointmentTemplate(ctx context.Context, id uuid.UUID, req AppointmentTemplateRequest) (*models.AppointmentTemplate, error) {
	name, err := req.name()
	if err != nil {
		return nil, err
	}
	t, err := s.catalog.GetAppointmentTemplate(ctx, req.BranchID, id)
	if err != nil {
		return nil, err
	}
	t.Name = name
	t.Description = req.Description
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	if err := s.priceTemplate(ctx, t, req.ServiceIDs); err != nil {
		return nil, err
	}
	if err := s.catalog.UpdateAppointmentTemplate(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *SchedulingService) GetAppointmentTemplate(ctx context.Context, branchID, id uuid.UUID) (*models.AppointmentTemplate, error) {
	return s.catalog.GetAppointmentTemplate(ctx, branchID, id)
}

func (s *SchedulingService) ListAppointmentTemplates(ctx context.Context, branchID uuid.UUID, query string) ([]models.AppointmentTemplate, error) {
	return s.catalog.ListAppointmentTemplates(ctx, branchID, query)
}

func (s *SchedulingService) PopularAppointmentTemplates(ctx context.Context, branchID uuid.UUID, limit int) ([]models.AppointmentTemplate, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.catalog.PopularAppointmentTemplates(ctx, branchID, limit)
}

func (s *SchedulingService) DeactivateAppointmentTemplate(ctx context.Context, branchID, id uuid.UUID) error {
	t, err := s.catalog.GetAppointmentTemplate(ctx, branchID, id)
	if err != nil {
		return err
	}
	if !t.IsActive {
		return nil
	}
	t.IsActive = false
	return s.catalog.UpdateAppointmentTemplate(ctx, t)
}

// BookFromTemplate books the template's services through the regular booking
// path. Prices and duration come from the current catalog, not the estimates.
func (s *SchedulingService) BookFromTemplate(ctx context.Context, branchID, id uuid.UUID, b TemplateBooking) (_ *models.Appointment, err error) {
	ctx, span := startSpan(ctx, "SchedulingService.BookFromTemplate", attribute.String("template.id", id.String()))
	defer func() { endSpan(span, err) }()

	t, err := s.catalog.GetAppointmentTemplate(ctx, branchID, id)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, scheduling.Invalid("template %q is not active", t.Name).Arg("templateId", id)
	}
	notes := "Created from template: " + t.Name
	if extra := strings.TrimSpace(b.Notes); extra != "" {
		notes = extra + "\n" + notes
	}

	created, err := s.CreateAppointment(ctx, BookingRequest{
		CustomerID: b.CustomerID,
		StaffID:    b.StaffID,
		BranchID:   t.BranchID,
		Date:       b.Date,
		StartTime:  b.StartTime,
		ServiceIDs: t.ServiceIDs(),
		Notes:      notes,
	})
	if err != nil {
		return nil, err
	}
	if err := s.catalog.IncrementTemplateUsage(ctx, t.ID); err != nil {
		s.logger.Warn().Err(err).Str("template_id", t.ID.String()).Msg("failed to count template usage")
	}
	return created, nil
}
