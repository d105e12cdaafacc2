package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"salonpro-scheduler/events"
	"salonpro-scheduler/models"
	"salonpro-scheduler/repository"
	"salonpro-scheduler/scheduling"
)

var tracer = otel.Tracer("salonpro-scheduler/services")

// Notifier delivers customer messages. It never reports failure to the
// caller; delivery problems are logged by the implementation.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// CommissionTrigger runs once when an appointment is completed.
type CommissionTrigger interface {
	OnAppointmentCompleted(ctx context.Context, a models.Appointment) error
}

// Notification is one customer-facing message about an appointment or a
// waitlist entry.
type Notification struct {
	Kind        models.NotificationKind
	BranchID    uuid.UUID
	CustomerID  uuid.UUID
	ReferenceID uuid.UUID
	Date        models.Date
	StartTime   models.Clock
	EndTime     models.Clock
	Services    string
	Status      string
	Reason      string
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Notification) {}

type nopCommission struct{}

func (nopCommission) OnAppointmentCompleted(context.Context, models.Appointment) error { return nil }

type Dependencies struct {
	Store      repository.Store
	Catalog    repository.CatalogRepository
	Directory  repository.DirectoryRepository
	Notifier   Notifier
	Commission CommissionTrigger
	Events     events.Publisher
	Settings   scheduling.Settings
	Logger     zerolog.Logger
	Now        func() time.Time
}

// SchedulingService is the appointment scheduling and availability engine.
type SchedulingService struct {
	store      repository.Store
	catalog    repository.CatalogRepository
	directory  repository.DirectoryRepository
	notifier   Notifier
	commission CommissionTrigger
	events     events.Publisher
	settings   scheduling.Settings
	resolver   scheduling.DurationResolver
	logger     zerolog.Logger
	now        func() time.Time
}

func NewSchedulingService(deps Dependencies) *SchedulingService {
	s := &SchedulingService{
		store:      deps.Store,
		catalog:    deps.Catalog,
		directory:  deps.Directory,
		notifier:   deps.Notifier,
		commission: deps.Commission,
		events:     deps.Events,
		settings:   deps.Settings,
		resolver:   scheduling.DurationResolver{BufferMinutes: deps.Settings.BufferMinutes},
		logger:     deps.Logger.With().Str("component", "scheduling").Logger(),
		now:        deps.Now,
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if s.commission == nil {
		s.commission = nopCommission{}
	}
	if s.events == nil {
		s.events = events.NopPublisher{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.settings.SlotMinutes <= 0 {
		s.settings.SlotMinutes = 30
	}
	if s.settings.SuggestionStepMinutes <= 0 {
		s.settings.SuggestionStepMinutes = 30
	}
	if s.settings.Window == (scheduling.Window{}) {
		s.settings.Window = scheduling.DefaultWindow()
	}
	if s.settings.WaitlistTTL <= 0 {
		s.settings.WaitlistTTL = 7 * 24 * time.Hour
	}
	if s.settings.Location == nil {
		s.settings.Location = time.UTC
	}
	return s
}

func (s *SchedulingService) Settings() scheduling.Settings { return s.settings }

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// resolveServices looks every id up in the catalog. Any failure aborts the
// booking: an appointment without valid pricing is meaningless.
func (s *SchedulingService) resolveServices(ctx context.Context, branchID uuid.UUID, ids []uuid.UUID) ([]scheduling.ServiceSelection, error) {
	if len(ids) == 0 {
		return nil, scheduling.Invalid("at least one service is required")
	}
	selections := make([]scheduling.ServiceSelection, 0, len(ids))
	for _, id := range ids {
		svc, err := s.catalog.GetService(ctx, branchID, id)
		if err != nil {
			if errors.Is(err, scheduling.ErrNotFound) {
				return nil, scheduling.Invalid("service %s is not offered at this branch", id).Wrap(err)
			}
			return nil, err
		}
		if !svc.IsActive {
			return nil, scheduling.Invalid("service %q is no longer offered", svc.Name).Arg("serviceId", id)
		}
		selections = append(selections, scheduling.ServiceSelection{
			ServiceID:       svc.ID,
			Name:            svc.Name,
			Price:           svc.Price,
			DurationMinutes: svc.Duration,
			CommissionRate:  svc.CommissionRate,
		})
	}
	return selections, nil
}

// ensureFree is the conflict check. It must run inside the transaction that
// holds the calendar lock for staffID/date.
func ensureFree(ctx context.Context, tx repository.Store, staffID uuid.UUID, date models.Date, start, end models.Clock, exclude *uuid.UUID) error {
	conflicts, err := tx.Appointments().FindConflicting(ctx, staffID, date, start, end, exclude)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		c := conflicts[0]
		return scheduling.Conflict("staff member is already booked from %s to %s on %s", c.StartTime, c.EndTime, date).
			Arg("appointmentId", c.ID)
	}
	return nil
}

func appointmentNotification(kind models.NotificationKind, a *models.Appointment) Notification {
	return Notification{
		Kind:        kind,
		BranchID:    a.BranchID,
		CustomerID:  a.CustomerID,
		ReferenceID: a.ID,
		Date:        a.Date,
		StartTime:   a.StartTime,
		EndTime:     a.EndTime,
		Services:    a.ServiceNames(),
		Status:      string(a.Status),
	}
}

func (s *SchedulingService) notify(ctx context.Context, kind models.NotificationKind, a *models.Appointment, reason string) {
	n := appointmentNotification(kind, a)
	n.Reason = reason
	s.notifier.Notify(ctx, n)
}

func (s *SchedulingService) publish(ctx context.Context, eventType string, aggregateID, branchID uuid.UUID, payload interface{}) {
	if err := s.events.Publish(ctx, events.New(eventType, aggregateID, branchID, payload)); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Str("aggregate_id", aggregateID.String()).Msg("event publish failed")
	}
}

func (s *SchedulingService) publishAppointment(ctx context.Context, eventType string, a *models.Appointment) {
	s.publish(ctx, eventType, a.ID, a.BranchID, a)
}
