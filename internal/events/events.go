// Package events publishes booking lifecycle events and reacts to backend
// change notifications by invalidating cached queries.
package events

import (
	"context"
	"time"

	"staybook/pkg/kafka"
	"staybook/pkg/logger"
)

const (
	TypeBookingCreated   = "booking.created"
	TypeBookingCancelled = "booking.cancelled"
	TypeFavoriteAdded    = "favorite.added"
	TypeFavoriteRemoved  = "favorite.removed"
	TypeHotelCreated     = "hotel.created"
	TypePaymentConfirmed = "payment.confirmed"

	SchemaVersion = "1"

	// HeaderScope carries the user scope when the payload omits it.
	HeaderScope = "scope"
)

type Event struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"bookingId,omitempty"`
	HotelID    string    `json:"hotelId,omitempty"`
	Scope      string    `json:"scope,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data,omitempty"`
}

// Key is the partition key: one booking's events stay ordered.
func (e Event) Key() string {
	switch {
	case e.BookingID != "":
		return e.BookingID
	case e.HotelID != "":
		return e.HotelID
	default:
		return e.Scope
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

type KafkaPublisher struct {
	producer *kafka.Producer
	source   string
	log      *logger.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, source string, log *logger.Logger) *KafkaPublisher {
	if log == nil {
		log = logger.Discard()
	}
	return &KafkaPublisher{producer: producer, source: source, log: log.Component("events")}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	msg, err := kafka.NewMessage().
		WithKey(ev.Key()).
		WithEventType(ev.Type).
		WithSchemaVersion(SchemaVersion).
		WithSource(p.source).
		WithCorrelationID(logger.RequestID(ctx)).
		WithHeader(HeaderScope, ev.Scope).
		WithTimestamp(ev.OccurredAt).
		WithValue(ev).
		Build()
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// Noop drops every event. It is used when EVENTS_ENABLED is false.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
