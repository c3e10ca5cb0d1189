// Package events publishes reservation lifecycle events to Kafka. Publishing
// is best-effort: a broker failure is logged and swallowed so key hand-offs
// and bookings never fail because of the event bus.
package events

import (
	"context"
	"time"

	"labreserve/pkg/kafka"
	"labreserve/pkg/logger"
	"labreserve/pkg/model"
)

const (
	EventReservationCreated    = "reservation.created"
	EventReservationCheckedIn  = "reservation.checked_in"
	EventReservationCheckedOut = "reservation.checked_out"
	EventReservationCancelled  = "reservation.cancelled"

	schemaVersion = "1"
	sourceService = "labreserve"
)

// ReservationEvent is the payload published for every lifecycle transition.
type ReservationEvent struct {
	ReservationID string    `json:"reservation_id"`
	LabID         string    `json:"lab_id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	SchoolID      string    `json:"school_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher emits reservation events. A nil Publisher is valid and publishes
// nothing, which is how the service runs with Kafka disabled.
type Publisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewPublisher(producer *kafka.Producer, log *logger.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		log:      log,
	}
}

func (p *Publisher) Created(ctx context.Context, r *model.Reservation) {
	p.publish(ctx, EventReservationCreated, r)
}

func (p *Publisher) CheckedIn(ctx context.Context, r *model.Reservation) {
	p.publish(ctx, EventReservationCheckedIn, r)
}

func (p *Publisher) CheckedOut(ctx context.Context, r *model.Reservation) {
	p.publish(ctx, EventReservationCheckedOut, r)
}

func (p *Publisher) Cancelled(ctx context.Context, r *model.Reservation) {
	p.publish(ctx, EventReservationCancelled, r)
}

func (p *Publisher) publish(ctx context.Context, eventType string, r *model.Reservation) {
	if p == nil || p.producer == nil {
		return
	}

	event := ReservationEvent{
		ReservationID: r.ID,
		LabID:         r.LabID,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		Type:          r.Type,
		Status:        r.Status,
		SchoolID:      r.SchoolID,
		OccurredAt:    time.Now().UTC(),
	}

	// Keyed by lab so consumers see one lab's events in order.
	msg := kafka.NewMessage().
		WithKey(r.LabID).
		WithValue(event).
		WithEventType(eventType).
		WithSource(sourceService).
		WithHeader(kafka.HeaderSchemaVersion, schemaVersion).
		Build()

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Warn("Failed to publish reservation event",
			"event_type", eventType,
			"reservation_id", r.ID,
			"error", err,
		)
	}
}

// Close shuts the underlying producer down.
func (p *Publisher) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
