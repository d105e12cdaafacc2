package services

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"salonpro-scheduler/models"
	"salonpro-scheduler/repository"
	"salonpro-scheduler/scheduling"
	"salonpro-scheduler/utils"
)

// Message is one rendered notification addressed to a customer.
type Message struct {
	Branch   *models.Branch
	Customer models.Customer
	Subject  string
	Body     string
}

// Sender delivers a rendered message over one channel.
type Sender interface {
	// Reaches reports whether this channel can deliver m.
	Reaches(m Message) bool
	Send(ctx context.Context, m Message) (channel string, err error)
}

type TwilioConfig struct {
	AccountSID     string
	AuthToken      string
	PhoneNumber    string
	WhatsAppNumber string
}

// TwilioSender sends WhatsApp messages to E.164 numbers and SMS otherwise,
// within the channels the branch has switched on.
type TwilioSender struct {
	client *twilio.RestClient
	cfg    TwilioConfig
}

func NewTwilioSender(cfg TwilioConfig) *TwilioSender {
	return &TwilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		}),
		cfg: cfg,
	}
}

func (s *TwilioSender) channelFor(m Message) string {
	if m.Customer.Phone == "" {
		return ""
	}
	whatsApp, sms := true, true
	if m.Branch != nil {
		whatsApp, sms = m.Branch.WhatsAppNotifications, m.Branch.SMSNotifications
	}
	phone := m.Customer.Phone
	if whatsApp && s.cfg.WhatsAppNumber != "" && strings.HasPrefix(phone, "+") && utils.ValidatePhone(phone) {
		return "whatsapp"
	}
	if sms && s.cfg.PhoneNumber != "" {
		return "sms"
	}
	return ""
}

func (s *TwilioSender) Reaches(m Message) bool {
	return s.channelFor(m) != ""
}

func (s *TwilioSender) Send(_ context.Context, m Message) (string, error) {
	channel := s.channelFor(m)
	params := &twilioApi.CreateMessageParams{}
	params.SetBody(m.Body)
	to := utils.NormalizePhone(m.Customer.Phone)
	switch channel {
	case "whatsapp":
		params.SetTo("whatsapp:" + to)
		params.SetFrom("whatsapp:" + s.cfg.WhatsAppNumber)
	case "sms":
		params.SetTo(to)
		params.SetFrom(s.cfg.PhoneNumber)
	default:
		return "", errors.New("no twilio channel for customer")
	}
	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return channel, err
	}
	if resp.Sid == nil {
		return channel, errors.New("twilio returned no message sid")
	}
	return channel, nil
}

// SMTPSender sends plain-text email. Without a username the relay is used
// unauthenticated.
type SMTPSender struct {
	addr string
	from string
	auth smtp.Auth
}

func NewSMTPSender(host, port, username, password, from string) *SMTPSender {
	host = strings.TrimSpace(host)
	from = strings.TrimSpace(from)
	if from == "" {
		from = "no-reply@salonpro.local"
	}
	s := &SMTPSender{addr: host + ":" + strings.TrimSpace(port), from: from}
	if username != "" {
		s.auth = smtp.PlainAuth("", username, password, host)
	}
	return s
}

func (s *SMTPSender) Reaches(m Message) bool {
	return m.Customer.Email != ""
}

func (s *SMTPSender) Send(_ context.Context, m Message) (string, error) {
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		s.from, m.Customer.Email, m.Subject, m.Body)
	return "email", smtp.SendMail(s.addr, s.auth, s.from, []string{m.Customer.Email}, []byte(msg))
}

var defaultTemplates = map[models.NotificationKind]string{
	models.KindConfirmation:      "Hi [CustomerName], your appointment at [Branch] on [Date] at [Time] is confirmed. Services: [Services].",
	models.KindCancellation:      "Hi [CustomerName], your appointment at [Branch] on [Date] at [Time] has been cancelled.",
	models.KindReschedule:        "Hi [CustomerName], your appointment at [Branch] has been moved to [Date] at [Time].",
	models.KindStatusUpdate:      "Hi [CustomerName], your appointment on [Date] at [Time] is now [Status].",
	models.KindReminder:          "Reminder: [CustomerName], you have an appointment at [Branch] on [Date] at [Time].",
	models.KindFollowUp:          "Hi [CustomerName], we missed you on [Date]. Reply to book a new time at [Branch].",
	models.KindWaitlistAvailable: "Good news [CustomerName]! A slot opened at [Branch] on [Date] at [Time]. Contact us to book it.",
	models.KindWaitlistConverted: "Hi [CustomerName], you are booked at [Branch] on [Date] at [Time] from the waitlist.",
}

var subjects = map[models.NotificationKind]string{
	models.KindConfirmation:      "Appointment confirmed",
	models.KindCancellation:      "Appointment cancelled",
	models.KindReschedule:        "Appointment rescheduled",
	models.KindStatusUpdate:      "Appointment update",
	models.KindReminder:          "Appointment reminder",
	models.KindFollowUp:          "We missed you",
	models.KindWaitlistAvailable: "A slot is available",
	models.KindWaitlistConverted: "Booked from the waitlist",
}

// NotificationService renders branch templates and delivers them through the
// first sender that can reach the customer. Every attempt is logged.
type NotificationService struct {
	directory repository.DirectoryRepository
	store     repository.NotificationRepository
	senders   []Sender
	logger    zerolog.Logger
}

func NewNotificationService(directory repository.DirectoryRepository, store repository.NotificationRepository, logger zerolog.Logger, senders ...Sender) *NotificationService {
	return &NotificationService{
		directory: directory,
		store:     store,
		senders:   senders,
		logger:    logger.With().Str("component", "notifications").Logger(),
	}
}

func (s *NotificationService) Notify(ctx context.Context, n Notification) {
	log := s.logger.With().Str("kind", string(n.Kind)).Str("reference_id", n.ReferenceID.String()).Logger()

	customer, err := s.directory.GetCustomer(ctx, n.CustomerID)
	if err != nil {
		log.Warn().Err(err).Str("customer_id", n.CustomerID.String()).Msg("notification skipped, customer lookup failed")
		return
	}
	var branch *models.Branch
	branchName := ""
	if b, err := s.directory.GetBranch(ctx, n.BranchID); err == nil {
		branch, branchName = b, b.Name
	}

	body, templateID := s.render(ctx, n, customer.Name, branchName)
	entry := &models.NotificationLog{
		BranchID:    n.BranchID,
		CustomerID:  customer.ID,
		ReferenceID: n.ReferenceID,
		TemplateID:  templateID,
		Kind:        n.Kind,
		Message:     body,
		Status:      "skipped",
		SentAt:      time.Now(),
	}

	msg := Message{Branch: branch, Customer: *customer, Subject: subjects[n.Kind], Body: body}
	for _, sender := range s.senders {
		if !sender.Reaches(msg) {
			continue
		}
		channel, err := sender.Send(ctx, msg)
		entry.Channel = channel
		if err != nil {
			entry.Status = "failed"
			entry.ErrorMessage = err.Error()
			log.Error().Err(err).Str("channel", channel).Msg("failed to send notification")
			continue
		}
		entry.Status = "sent"
		entry.ErrorMessage = ""
		log.Info().Str("channel", channel).Str("customer_id", customer.ID.String()).Msg("notification sent")
		break
	}

	if err := s.store.LogNotification(ctx, entry); err != nil {
		log.Error().Err(err).Msg("failed to log notification")
	}
}

// render fills the branch template for the kind, falling back to the
// built-in wording when the branch has none.
func (s *NotificationService) render(ctx context.Context, n Notification, customerName, branchName string) (string, *uuid.UUID) {
	text := defaultTemplates[n.Kind]
	var templateID *uuid.UUID
	t, err := s.store.ActiveTemplate(ctx, n.BranchID, n.Kind)
	switch {
	case err == nil:
		text = t.Message
		templateID = &t.ID
	case !errors.Is(err, scheduling.ErrNotFound):
		s.logger.Warn().Err(err).Str("kind", string(n.Kind)).Msg("template lookup failed, using default")
	}
	return RenderTemplate(text, n, customerName, branchName), templateID
}

func RenderTemplate(text string, n Notification, customerName, branchName string) string {
	return strings.NewReplacer(
		"[CustomerName]", customerName,
		"[Date]", n.Date.String(),
		"[Time]", n.StartTime.String(),
		"[Branch]", branchName,
		"[Services]", n.Services,
		"[Status]", n.Status,
	).Replace(text)
}
