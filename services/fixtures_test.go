package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"salonpro-scheduler/events"
	"salonpro-scheduler/models"
	"salonpro-scheduler/repository"
	"salonpro-scheduler/scheduling"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) ofKind(kind models.NotificationKind) []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Notification
	for _, n := range r.sent {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

type recordingCommission struct {
	mu        sync.Mutex
	completed []uuid.UUID
}

func (c *recordingCommission) OnAppointmentCompleted(_ context.Context, a models.Appointment) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completed = append(c.completed, a.ID)
	return nil
}

type fixture struct {
	t          *testing.T
	ctx        context.Context
	store      *repository.Memory
	svc        *SchedulingService
	notifier   *recordingNotifier
	publisher  *recordingPublisher
	commission *recordingCommission
	branch     models.Branch
	staff      models.Staff
	customer   models.Customer
	cut        models.Service
	wash       models.Service
	clock      time.Time
}

// monday is 2025-03-03, a Monday. The fixture clock starts at 08:00 UTC that day.
var monday = models.NewDate(2025, time.March, 3)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemory()
	f := &fixture{
		t:          t,
		ctx:        context.Background(),
		store:      store,
		notifier:   &recordingNotifier{},
		publisher:  &recordingPublisher{},
		commission: &recordingCommission{},
		clock:      time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC),
	}
	f.branch = models.Branch{ID: uuid.New(), Name: "Downtown", SMSNotifications: true}
	f.staff = models.Staff{ID: uuid.New(), BranchID: f.branch.ID, Name: "Sara", IsActive: true}
	f.customer = models.Customer{ID: uuid.New(), BranchID: f.branch.ID, Name: "Ayesha", Phone: "+923001234567"}
	f.cut = models.Service{ID: uuid.New(), BranchID: f.branch.ID, Name: "Haircut", Price: 25, Duration: 30, CommissionRate: 10, IsActive: true}
	f.wash = models.Service{ID: uuid.New(), BranchID: f.branch.ID, Name: "Wash", Price: 10, Duration: 20, IsActive: true}

	store.PutBranch(f.branch)
	store.PutStaff(f.staff)
	store.PutCustomer(f.customer)
	_ = store.CreateService(f.ctx, &f.cut)
	_ = store.CreateService(f.ctx, &f.wash)

	f.svc = NewSchedulingService(Dependencies{
		Store:      store,
		Catalog:    store,
		Directory:  store,
		Notifier:   f.notifier,
		Commission: f.commission,
		Events:     f.publisher,
		Settings:   scheduling.DefaultSettings(),
		Logger:     zerolog.Nop(),
		Now:        func() time.Time { return f.clock },
	})
	return f
}

func (f *fixture) request(date models.Date, start string, serviceIDs ...uuid.UUID) BookingRequest {
	if len(serviceIDs) == 0 {
		serviceIDs = []uuid.UUID{f.cut.ID, f.wash.ID}
	}
	return BookingRequest{
		CustomerID: f.customer.ID,
		StaffID:    f.staff.ID,
		BranchID:   f.branch.ID,
		Date:       date,
		StartTime:  mustClock(start),
		ServiceIDs: serviceIDs,
	}
}

func (f *fixture) book(date models.Date, start string, serviceIDs ...uuid.UUID) *models.Appointment {
	f.t.Helper()
	a, err := f.svc.CreateAppointment(f.ctx, f.request(date, start, serviceIDs...))
	if err != nil {
		f.t.Fatalf("booking %s %s: %v", date, start, err)
	}
	return a
}

func (f *fixture) waitlist(priority int, date models.Date, start, end string) *models.WaitlistEntry {
	f.t.Helper()
	e, err := f.svc.AddToWaitlist(f.ctx, WaitlistRequest{
		CustomerID:         uuid.New(),
		StaffID:            f.staff.ID,
		BranchID:           f.branch.ID,
		PreferredDate:      date,
		PreferredStartTime: mustClock(start),
		PreferredEndTime:   mustClock(end),
		Priority:           priority,
		ServiceIDs:         []uuid.UUID{f.cut.ID},
	})
	if err != nil {
		f.t.Fatalf("adding to waitlist: %v", err)
	}
	return e
}

func mustClock(s string) models.Clock {
	c, err := models.ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}
