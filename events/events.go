// Package events publishes appointment and waitlist lifecycle events for
// downstream consumers (billing, analytics, messaging).
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	AppointmentBooked      = "salon.appointment.booked.v1"
	AppointmentRescheduled = "salon.appointment.rescheduled.v1"
	AppointmentCancelled   = "salon.appointment.cancelled.v1"
	AppointmentCompleted   = "salon.appointment.completed.v1"
	AppointmentNoShow      = "salon.appointment.no_show.v1"
	AppointmentStarted     = "salon.appointment.started.v1"
	AppointmentDeleted     = "salon.appointment.deleted.v1"
	WaitlistNotified       = "salon.waitlist.notified.v1"
	WaitlistConverted      = "salon.waitlist.converted.v1"
)

type Event struct {
	ID          uuid.UUID   `json:"eventId"`
	Type        string      `json:"eventType"`
	AggregateID uuid.UUID   `json:"aggregateId"`
	BranchID    uuid.UUID   `json:"branchId"`
	OccurredAt  time.Time   `json:"occurredAt"`
	Payload     interface{} `json:"payload"`
}

func New(eventType string, aggregateID, branchID uuid.UUID, payload interface{}) Event {
	return Event{
		ID:          uuid.New(),
		Type:        eventType,
		AggregateID: aggregateID,
		BranchID:    branchID,
		OccurredAt:  time.Now().UTC(),
		Payload:     payload,
	}
}

// Publisher delivers events. Callers treat failures as best effort.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
