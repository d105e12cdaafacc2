package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"salonpro-scheduler/models"
	"salonpro-scheduler/scheduling"
)

// Memory is an in-process implementation of every repository interface.
// Transactions serialize on a single mutex and roll back by restoring a
// snapshot. It backs the test suites and STORE=memory.
type Memory struct {
	mu   sync.Mutex
	data *memData

	// reference data owned by collaborators, guarded separately so lookups
	// never wait on a scheduling transaction
	refMu     sync.RWMutex
	services  map[uuid.UUID]models.Service
	customers map[uuid.UUID]models.Customer
	staff     map[uuid.UUID]models.Staff
	branches  map[uuid.UUID]models.Branch
	templates map[uuid.UUID]models.NotificationTemplate
	bundles   map[uuid.UUID]models.AppointmentTemplate
	logs      []models.NotificationLog
}

type memData struct {
	appointments map[uuid.UUID]models.Appointment
	waitlist     map[uuid.UUID]models.WaitlistEntry
}

func NewMemory() *Memory {
	return &Memory{
		data: &memData{
			appointments: map[uuid.UUID]models.Appointment{},
			waitlist:     map[uuid.UUID]models.WaitlistEntry{},
		},
		services:  map[uuid.UUID]models.Service{},
		customers: map[uuid.UUID]models.Customer{},
		staff:     map[uuid.UUID]models.Staff{},
		branches:  map[uuid.UUID]models.Branch{},
		templates: map[uuid.UUID]models.NotificationTemplate{},
		bundles:   map[uuid.UUID]models.AppointmentTemplate{},
	}
}

func (d *memData) clone() *memData {
	c := &memData{
		appointments: make(map[uuid.UUID]models.Appointment, len(d.appointments)),
		waitlist:     make(map[uuid.UUID]models.WaitlistEntry, len(d.waitlist)),
	}
	for k, v := range d.appointments {
		c.appointments[k] = v.Clone()
	}
	for k, v := range d.waitlist {
		c.waitlist[k] = v.Clone()
	}
	return c
}

// memView is a Store over Memory. Outside a transaction every call takes the
// mutex; inside one the caller already holds it.
type memView struct {
	m      *Memory
	locked bool
}

func (m *Memory) view() *memView { return &memView{m: m} }

// with runs fn against the live data, taking the lock unless held.
func (v *memView) with(fn func(d *memData) error) error {
	if !v.locked {
		v.m.mu.Lock()
		defer v.m.mu.Unlock()
	}
	return fn(v.m.data)
}

func (m *Memory) Appointments() AppointmentRepository { return memAppointments{m.view()} }
func (m *Memory) Waitlist() WaitlistRepository        { return memWaitlist{m.view()} }

func (m *Memory) InTx(ctx context.Context, keys []LockKey, fn func(tx Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := m.data.clone()
	if err := fn(&memTx{v: &memView{m: m, locked: true}}); err != nil {
		m.data = snapshot
		return err
	}
	return nil
}

type memTx struct{ v *memView }

func (t *memTx) Appointments() AppointmentRepository { return memAppointments{t.v} }
func (t *memTx) Waitlist() WaitlistRepository        { return memWaitlist{t.v} }
func (t *memTx) InTx(ctx context.Context, _ []LockKey, fn func(tx Store) error) error {
	return fn(t)
}

type memAppointments struct{ v *memView }

func (r memAppointments) Create(_ context.Context, a *models.Appointment) error {
	return r.v.with(func(d *memData) error {
		a.AssignIDs()
		now := time.Now()
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		a.UpdatedAt = now
		if a.Status.OccupiesCalendar() && r.overlapsLocked(d, a) {
			return scheduling.Conflict("the requested time overlaps an existing appointment")
		}
		d.appointments[a.ID] = a.Clone()
		return nil
	})
}

// overlapsLocked mirrors the postgres exclusion constraint.
func (r memAppointments) overlapsLocked(d *memData, a *models.Appointment) bool {
	for _, other := range d.appointments {
		if other.ID == a.ID || other.StaffID != a.StaffID || !other.Date.Equal(a.Date) {
			continue
		}
		if other.Status.OccupiesCalendar() && scheduling.Overlaps(a.StartTime, a.EndTime, other.StartTime, other.EndTime) {
			return true
		}
	}
	return false
}

func (r memAppointments) Update(_ context.Context, a *models.Appointment) error {
	return r.v.with(func(d *memData) error {
		if _, ok := d.appointments[a.ID]; !ok {
			return scheduling.NotFound("appointment not found")
		}
		a.AssignIDs()
		if a.Status.OccupiesCalendar() && r.overlapsLocked(d, a) {
			return scheduling.Conflict("the requested time overlaps an existing appointment")
		}
		a.UpdatedAt = time.Now()
		d.appointments[a.ID] = a.Clone()
		return nil
	})
}

func (r memAppointments) Delete(_ context.Context, id uuid.UUID) error {
	return r.v.with(func(d *memData) error {
		if _, ok := d.appointments[id]; !ok {
			return scheduling.NotFound("appointment not found")
		}
		delete(d.appointments, id)
		return nil
	})
}

func (r memAppointments) Get(_ context.Context, id uuid.UUID) (*models.Appointment, error) {
	var out *models.Appointment
	err := r.v.with(func(d *memData) error {
		a, ok := d.appointments[id]
		if !ok {
			return scheduling.NotFound("appointment not found")
		}
		c := a.Clone()
		out = &c
		return nil
	})
	return out, err
}

func (r memAppointments) filter(keep func(models.Appointment) bool, less func(a, b models.Appointment) bool) []models.Appointment {
	var out []models.Appointment
	_ = r.v.with(func(d *memData) error {
		for _, a := range d.appointments {
			if keep(a) {
				out = append(out, a.Clone())
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func byDateAndStart(a, b models.Appointment) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	return a.StartTime < b.StartTime
}

func (r memAppointments) FindByStaffAndDate(_ context.Context, staffID uuid.UUID, date models.Date) ([]models.Appointment, error) {
	return r.filter(func(a models.Appointment) bool {
		return a.StaffID == staffID && a.Date.Equal(date)
	}, byDateAndStart), nil
}

func (r memAppointments) FindConflicting(ctx context.Context, staffID uuid.UUID, date models.Date, start, end models.Clock, exclude *uuid.UUID) ([]models.Appointment, error) {
	sameDay, _ := r.FindByStaffAndDate(ctx, staffID, date)
	return scheduling.FindConflicts(sameDay, start, end, exclude), nil
}

func (r memAppointments) FindByParentID(_ context.Context, parentID uuid.UUID) ([]models.Appointment, error) {
	return r.filter(func(a models.Appointment) bool {
		return a.ParentAppointmentID != nil && *a.ParentAppointmentID == parentID
	}, func(a, b models.Appointment) bool {
		return a.RecurrenceSequence < b.RecurrenceSequence
	}), nil
}

func (r memAppointments) FindByStatusBetween(_ context.Context, status models.AppointmentStatus, from, to models.Date) ([]models.Appointment, error) {
	return r.filter(func(a models.Appointment) bool {
		return a.Status == status && !a.Date.Before(from) && !a.Date.After(to)
	}, byDateAndStart), nil
}

type memWaitlist struct{ v *memView }

func (r memWaitlist) Create(_ context.Context, e *models.WaitlistEntry) error {
	return r.v.with(func(d *memData) error {
		e.AssignIDs()
		if e.Status == models.WaitlistActive {
			for _, o := range d.waitlist {
				if o.Status == models.WaitlistActive && o.CustomerID == e.CustomerID &&
					o.StaffID == e.StaffID && o.PreferredDate.Equal(e.PreferredDate) {
					return scheduling.NewError(scheduling.ErrDuplicateWaitlistEntry,
						"customer already has an active waitlist entry for this staff member and date")
				}
			}
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now()
		}
		e.UpdatedAt = e.CreatedAt
		d.waitlist[e.ID] = e.Clone()
		return nil
	})
}

func (r memWaitlist) Update(_ context.Context, e *models.WaitlistEntry) error {
	return r.v.with(func(d *memData) error {
		existing, ok := d.waitlist[e.ID]
		if !ok {
			return scheduling.NotFound("waitlist entry not found")
		}
		c := e.Clone()
		c.Services = existing.Services
		c.UpdatedAt = time.Now()
		d.waitlist[e.ID] = c
		return nil
	})
}

func (r memWaitlist) Get(_ context.Context, id uuid.UUID) (*models.WaitlistEntry, error) {
	var out *models.WaitlistEntry
	err := r.v.with(func(d *memData) error {
		e, ok := d.waitlist[id]
		if !ok {
			return scheduling.NotFound("waitlist entry not found")
		}
		c := e.Clone()
		out = &c
		return nil
	})
	return out, err
}

func (r memWaitlist) filter(keep func(models.WaitlistEntry) bool) []models.WaitlistEntry {
	var out []models.WaitlistEntry
	_ = r.v.with(func(d *memData) error {
		for _, e := range d.waitlist {
			if keep(e) {
				out = append(out, e.Clone())
			}
		}
		return nil
	})
	return out
}

func (r memWaitlist) FindActiveByStaff(_ context.Context, staffID uuid.UUID) ([]models.WaitlistEntry, error) {
	out := r.filter(func(e models.WaitlistEntry) bool {
		return e.StaffID == staffID && e.Status == models.WaitlistActive
	})
	scheduling.SortWaitlist(out)
	return out, nil
}

func (r memWaitlist) FindByCustomer(_ context.Context, customerID uuid.UUID) ([]models.WaitlistEntry, error) {
	out := r.filter(func(e models.WaitlistEntry) bool { return e.CustomerID == customerID })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memWaitlist) HasActive(_ context.Context, customerID, staffID uuid.UUID, date models.Date) (bool, error) {
	found := r.filter(func(e models.WaitlistEntry) bool {
		return e.Status == models.WaitlistActive && e.CustomerID == customerID &&
			e.StaffID == staffID && e.PreferredDate.Equal(date)
	})
	return len(found) > 0, nil
}

func (r memWaitlist) ExpireBefore(_ context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.v.with(func(d *memData) error {
		for id, e := range d.waitlist {
			if scheduling.WaitlistExpired(e, now) {
				e.Status = models.WaitlistExpired
				e.UpdatedAt = now
				d.waitlist[id] = e
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r memWaitlist) CountByStatus(_ context.Context, branchID uuid.UUID) (map[models.WaitlistStatus]int64, error) {
	counts := make(map[models.WaitlistStatus]int64, len(models.WaitlistStatuses))
	for _, s := range models.WaitlistStatuses {
		counts[s] = 0
	}
	for _, e := range r.filter(func(e models.WaitlistEntry) bool { return e.BranchID == branchID }) {
		counts[e.Status]++
	}
	return counts, nil
}

// Catalog, directory and notification records.

func (m *Memory) CreateService(_ context.Context, s *models.Service) error {
	m.refMu.Lock()
	defer m.refMu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	m.services[s.ID] = *s
	return nil
}

func (m *Memory) UpdateService(_ context.Context, s *models.Service) error {
	m.refMu.Lock()
	defer m.refMu.Unlock()
	if _, ok := m.services[s.ID]; !ok {
		return scheduling.NotFound("service not found")
	}
	m.services[s.ID] = *s
	return nil
}

func (m *Memory) GetService(_ context.Context, branchID, id uuid.UUID) (*models.Service, error) {
	m.refMu.RLock()
	defer m.refMu.RUnlock()
	s, ok := m.services[id]
	if !ok || s.BranchID != branchID {
		return nil, scheduling.NotFound("service not found")
	}
	return &s, nil
}

func (m *Memory) ListServices(_ context.Context, branchID uuid.UUID) ([]models.Service, error) {
	m.refMu.RLock()
	defer m.refMu.RUnlock()
	var out []models.Service
	for _, s := range m.services {
		if s.BranchID == branchID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) CreateAppointmentTemplate(_ context.Context, t *models.AppointmentTemplate) error {
	m.refMu.Lock()
	defer m.refMu.Unlock()
	t.AssignIDs()
	now := time.Now()
	t.CreatedAt, t.UpdatedAt = now, now
	m.bundles[t.ID] = t.Clone()
	return nil
}

func (m *Memory) UpdateAppointmentTemplate(_ context.Context, t *models.AppointmentTemplate) error {
	m.refMu.Lock()
	defer m.refMu.Unlock()
	if _, ok := m.bundles[t.ID]; !ok {
		return scheduling.NotFound("appointment template not found")
	}
	t.AssignIDs()
	t.UpdatedAt = time.Now()
	m.bundles[t.ID] = t.Clone()
	return nil
}

func (m *Memory) GetAppointmentTemplate(_ context.Context, branchID, id uuid.UUID) (*models.AppointmentTemplate, error) {
	m.refMu.RLock()
	defer m.refMu.RUnlock()
	t, ok := m.bundles[id]
	if !ok || t.BranchID != branchID {
		return nil, scheduling.NotFound("appointment template not found")
	}
	t = t.Clone()
	return &t, nil
}

func (m *Memory) ListAppointmentTemplates(_ context.Context, branchID uuid.UUID, query string) ([]models.AppointmentTemplate, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	return m.activeTemplates(branchID, func(t models.AppointmentTemplate) bool {
		return query == "" || strings.Contains(strings.ToLower(t.Name), query)
	}), nil
}

func (m *Memory) PopularAppointmentTemplates(_ context.Context, branchID uuid.UUID, limit int) ([]models.AppointmentTemplate, error) {
	out := m.activeTemplates(branchID, func(models.AppointmentTemplate) bool { return true })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) activeTemplates(branchID uuid.UUID, keep func(models.AppointmentTemplate) bool) []models.AppointmentTemplate {
	m.refMu.RLock()
	defer m.refMu.RUnlock()
	var out []models.AppointmentTemplate
	for _, t := range m.bundles {
		if t.BranchID == branchID && t.IsActive && keep(t) {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UsageCount != out[j].UsageCount {
			return out[i].UsageCount > out[j].UsageCount
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (m *Memory) IncrementTemplateUsage(_ context.Context, id uuid.UUID) error {
	m.refMu.Lock()
	defer m.refMu.Unlock()
	t, ok := m.bundles[id]
	if !ok {
		return scheduling.NotFound("appointment template not found")
	}
	t.UsageCount++
	m.bundles[id] = t
	return nil
}

func (m *Memory) PutCustomer(c models.Customer) {
	m.refMu.Lock()
	defer m.refMu.Unlock()
	m.customers[c.ID] = c
}

func (m *Memory) PutStaff(s models.Staff) {
	m.refMu.Lock()
	defer m.refMu.Unlock()
	m.staff[s.ID] = s
}

func (m *Memory) PutBranch(b models.Branch) {
	m.refMu.Lock()
	defer m.refMu.Unlock()
	m.branches[b.ID] = b
}

func (m *Memory) PutTemplate(t models.NotificationTemplate) {
	m.refMu.Lock()
	defer m.refMu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	m.templates[t.ID] = t
}

func (m *Memory) GetCustomer(_ context.Context, id uuid.UUID) (*models.Customer, error) {
	m.refMu.RLock()
	defer m.refMu.RUnlock()
	c, ok := m.customers[id]
	if !ok {
		return nil, scheduling.NotFound("customer not found")
	}
	return &c, nil
}

func (m *Memory) GetStaff(_ context.Context, id uuid.UUID) (*models.Staff, error) {
	m.refMu.RLock()
	defer m.refMu.RUnlock()
	s, ok := m.staff[id]
	if !ok {
		return nil, scheduling.NotFound("staff member not found")
	}
	return &s, nil
}

func (m *Memory) GetBranch(_ context.Context, id uuid.UUID) (*models.Branch, error) {
	m.refMu.RLock()
	defer m.refMu.RUnlock()
	b, ok := m.branches[id]
	if !ok {
		return nil, scheduling.NotFound("branch not found")
	}
	return &b, nil
}

func (m *Memory) UpdateBranch(_ context.Context, b *models.Branch) error {
	m.refMu.Lock()
	defer m.refMu.Unlock()
	if _, ok := m.branches[b.ID]; !ok {
		return scheduling.NotFound("branch not found")
	}
	m.branches[b.ID] = *b
	return nil
}

func (m *Memory) ListActiveStaff(_ context.Context, branchID uuid.UUID) ([]models.Staff, error) {
	m.refMu.RLock()
	defer m.refMu.RUnlock()
	var out []models.Staff
	for _, s := range m.staff {
		if s.BranchID == branchID && s.IsActive {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) ActiveTemplate(_ context.Context, branchID uuid.UUID, kind models.NotificationKind) (*models.NotificationTemplate, error) {
	m.refMu.RLock()
	defer m.refMu.RUnlock()
	for _, t := range m.templates {
		if t.BranchID == branchID && t.Kind == kind && t.IsActive {
			return &t, nil
		}
	}
	return nil, scheduling.NotFound("notification template not found")
}

func (m *Memory) ListTemplates(_ context.Context, branchID uuid.UUID) ([]models.NotificationTemplate, error) {
	m.refMu.RLock()
	defer m.refMu.RUnlock()
	var out []models.NotificationTemplate
	for _, t := range m.templates {
		if t.BranchID == branchID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out, nil
}

func (m *Memory) GetTemplate(_ context.Context, branchID, id uuid.UUID) (*models.NotificationTemplate, error) {
	m.refMu.RLock()
	defer m.refMu.RUnlock()
	t, ok := m.templates[id]
	if !ok || t.BranchID != branchID {
		return nil, scheduling.NotFound("notification template not found")
	}
	return &t, nil
}

func (m *Memory) SaveTemplate(_ context.Context, t *models.NotificationTemplate) error {
	m.refMu.Lock()
	defer m.refMu.Unlock()
	for _, other := range m.templates {
		if other.ID != t.ID && other.BranchID == t.BranchID && other.Kind == t.Kind {
			return scheduling.Conflict("a template for this kind already exists")
		}
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	} else if _, ok := m.templates[t.ID]; !ok {
		return scheduling.NotFound("notification template not found")
	}
	m.templates[t.ID] = *t
	return nil
}

func (m *Memory) DeleteTemplate(_ context.Context, branchID, id uuid.UUID) error {
	m.refMu.Lock()
	defer m.refMu.Unlock()
	t, ok := m.templates[id]
	if !ok || t.BranchID != branchID {
		return scheduling.NotFound("notification template not found")
	}
	delete(m.templates, id)
	return nil
}

func (m *Memory) LogNotification(_ context.Context, l *models.NotificationLog) error {
	m.refMu.Lock()
	defer m.refMu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	m.logs = append(m.logs, *l)
	return nil
}

// NotificationLogs returns a copy of everything logged so far.
func (m *Memory) NotificationLogs() []models.NotificationLog {
	m.refMu.RLock()
	defer m.refMu.RUnlock()
	return append([]models.NotificationLog(nil), m.logs...)
}
