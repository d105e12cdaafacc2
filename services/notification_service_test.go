package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"salonpro-scheduler/models"
	"salonpro-scheduler/repository"
)

type fakeSender struct {
	channel string
	reaches bool
	err     error
	sent    []Message
}

func (s *fakeSender) Reaches(Message) bool { return s.reaches }

func (s *fakeSender) Send(_ context.Context, m Message) (string, error) {
	s.sent = append(s.sent, m)
	return s.channel, s.err
}

func notificationFixture(t *testing.T) (*repository.Memory, models.Branch, models.Customer) {
	t.Helper()
	store := repository.NewMemory()
	branch := models.Branch{ID: uuid.New(), Name: "Downtown"}
	customer := models.Customer{ID: uuid.New(), BranchID: branch.ID, Name: "Ayesha", Phone: "+923001234567", Email: "ayesha@example.com"}
	store.PutBranch(branch)
	store.PutCustomer(customer)
	return store, branch, customer
}

func TestNotificationService_FallsThroughToNextSender(t *testing.T) {
	store, branch, customer := notificationFixture(t)
	failing := &fakeSender{channel: "sms", reaches: true, err: errors.New("carrier down")}
	unreachable := &fakeSender{channel: "whatsapp", reaches: false}
	email := &fakeSender{channel: "email", reaches: true}
	svc := NewNotificationService(store, store, zerolog.Nop(), unreachable, failing, email)

	svc.Notify(context.Background(), Notification{
		Kind:        models.KindConfirmation,
		BranchID:    branch.ID,
		CustomerID:  customer.ID,
		ReferenceID: uuid.New(),
		Date:        models.NewDate(2025, time.March, 3),
		StartTime:   models.NewClock(9, 0),
		Services:    "Haircut, Wash",
	})

	if len(unreachable.sent) != 0 {
		t.Error("a sender that cannot reach the customer must not be used")
	}
	if len(failing.sent) != 1 || len(email.sent) != 1 {
		t.Fatalf("expected one attempt on each reachable sender, got %d and %d", len(failing.sent), len(email.sent))
	}
	if email.sent[0].Subject != "Appointment confirmed" {
		t.Errorf("unexpected subject %q", email.sent[0].Subject)
	}

	logs := store.NotificationLogs()
	if len(logs) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(logs))
	}
	l := logs[0]
	if l.Status != "sent" || l.Channel != "email" || l.ErrorMessage != "" {
		t.Errorf("unexpected log %s %s %q", l.Status, l.Channel, l.ErrorMessage)
	}
	want := "Hi Ayesha, your appointment at Downtown on 2025-03-03 at 09:00 is confirmed. Services: Haircut, Wash."
	if l.Message != want {
		t.Errorf("expected %q, got %q", want, l.Message)
	}
	if l.TemplateID != nil {
		t.Error("the built-in wording has no template id")
	}
}

func TestNotificationService_UsesBranchTemplate(t *testing.T) {
	store, branch, customer := notificationFixture(t)
	tpl := models.NotificationTemplate{BranchID: branch.ID, Kind: models.KindReminder, Message: "See you [Date] at [Time], [CustomerName]!", IsActive: true}
	if err := store.SaveTemplate(context.Background(), &tpl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sender := &fakeSender{channel: "sms", reaches: true}
	svc := NewNotificationService(store, store, zerolog.Nop(), sender)

	svc.Notify(context.Background(), Notification{
		Kind:       models.KindReminder,
		BranchID:   branch.ID,
		CustomerID: customer.ID,
		Date:       models.NewDate(2025, time.March, 3),
		StartTime:  models.NewClock(13, 0),
	})

	if len(sender.sent) != 1 || sender.sent[0].Body != "See you 2025-03-03 at 13:00, Ayesha!" {
		t.Fatalf("unexpected message %+v", sender.sent)
	}
	logs := store.NotificationLogs()
	if len(logs) != 1 || logs[0].TemplateID == nil || *logs[0].TemplateID != tpl.ID {
		t.Error("expected the log to reference the branch template")
	}
}

func TestNotificationService_FailuresAreLoggedNotRaised(t *testing.T) {
	store, branch, customer := notificationFixture(t)
	sender := &fakeSender{channel: "sms", reaches: true, err: errors.New("rejected")}
	svc := NewNotificationService(store, store, zerolog.Nop(), sender)

	svc.Notify(context.Background(), Notification{Kind: models.KindCancellation, BranchID: branch.ID, CustomerID: customer.ID})
	svc.Notify(context.Background(), Notification{Kind: models.KindCancellation, BranchID: branch.ID, CustomerID: uuid.New()})

	logs := store.NotificationLogs()
	if len(logs) != 1 {
		t.Fatalf("an unknown customer is skipped without a log, got %d logs", len(logs))
	}
	if logs[0].Status != "failed" || !strings.Contains(logs[0].ErrorMessage, "rejected") {
		t.Errorf("expected a failed log entry, got %s %q", logs[0].Status, logs[0].ErrorMessage)
	}
}

func TestNotificationService_NoReachableSender(t *testing.T) {
	store, branch, customer := notificationFixture(t)
	svc := NewNotificationService(store, store, zerolog.Nop(), &fakeSender{reaches: false})
	svc.Notify(context.Background(), Notification{Kind: models.KindFollowUp, BranchID: branch.ID, CustomerID: customer.ID})

	logs := store.NotificationLogs()
	if len(logs) != 1 || logs[0].Status != "skipped" {
		t.Errorf("expected a skipped log entry, got %+v", logs)
	}
}

func TestTwilioSender_ChannelFor(t *testing.T) {
	s := NewTwilioSender(TwilioConfig{PhoneNumber: "+15550001111", WhatsAppNumber: "+15550002222"})
	intl := models.Customer{Phone: "+923001234567"}
	local := models.Customer{Phone: "03001234567"}

	tests := []struct {
		name   string
		branch *models.Branch
		cust   models.Customer
		want   string
	}{
		{"whatsapp enabled", &models.Branch{WhatsAppNotifications: true, SMSNotifications: true}, intl, "whatsapp"},
		{"local number falls back to sms", &models.Branch{WhatsAppNotifications: true, SMSNotifications: true}, local, "sms"},
		{"malformed international number", &models.Branch{WhatsAppNotifications: true, SMSNotifications: true}, models.Customer{Phone: "+0300"}, "sms"},
		{"sms only", &models.Branch{SMSNotifications: true}, intl, "sms"},
		{"all off", &models.Branch{}, intl, ""},
		{"no phone", nil, models.Customer{}, ""},
	}
	for _, tt := range tests {
		got := s.channelFor(Message{Branch: tt.branch, Customer: tt.cust})
		if got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.name, tt.want, got)
		}
	}
}

func TestSMTPSender_Reaches(t *testing.T) {
	s := NewSMTPSender("localhost", "1025", "", "", "")
	if s.Reaches(Message{Customer: models.Customer{}}) {
		t.Error("customers without email cannot be reached")
	}
	if !s.Reaches(Message{Customer: models.Customer{Email: "a@example.com"}}) {
		t.Error("expected email to reach the customer")
	}
	if s.from != "no-reply@salonpro.local" || s.auth != nil {
		t.Errorf("unexpected defaults from=%s auth=%v", s.from, s.auth)
	}
}

func TestRenderTemplate(t *testing.T) {
	n := Notification{
		Date:      models.NewDate(2025, time.March, 3),
		StartTime: models.NewClock(9, 30),
		Services:  "Haircut",
		Status:    "COMPLETED",
	}
	got := RenderTemplate("[CustomerName] [Branch] [Date] [Time] [Services] [Status] [Unknown]", n, "Ayesha", "Downtown")
	want := "Ayesha Downtown 2025-03-03 09:30 Haircut COMPLETED [Unknown]"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestDraftInvoice(t *testing.T) {
	id := uuid.MustParse("3f2a9c1e-0000-4000-8000-000000000001")
	a := models.Appointment{
		ID:   id,
		Date: models.NewDate(2025, time.March, 3),
		Services: []models.AppointmentService{
			{ServiceName: "Haircut", Price: 25, CommissionRate: 10},
			{ServiceName: "Wash", Price: 10},
		},
	}
	inv := DraftInvoice(a, time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC))
	if inv.InvoiceNumber != "INV-20250303-3F2A9C1E" {
		t.Errorf("unexpected invoice number %s", inv.InvoiceNumber)
	}
	if inv.Total != 35 || len(inv.Items) != 2 || inv.Items[0].CommissionRate != 10 {
		t.Errorf("unexpected invoice %+v", inv)
	}
	if inv.PaymentStatus != "unpaid" || inv.AppointmentID != id {
		t.Errorf("unexpected invoice status %s", inv.PaymentStatus)
	}
}
