package ports

import (
	"context"
	"time"
)

// Tipos de evento publicados por los casos de uso.
const (
	EventReservationHeld          = "reservation.held"
	EventReservationReleased      = "reservation.released"
	EventReservationConsumed      = "reservation.consumed"
	EventReservationConsumeFailed = "reservation.consume_failed"
	EventPartsBackordered         = "parts.backordered"
	EventAppointmentCancelled     = "appointment.cancelled"
	EventAppointmentCompleted     = "appointment.completed"
)

// Event evento de dominio. Key agrupa los eventos de una misma entidad en la misma partición.
type Event struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload,omitempty"`
}

// EventPublisher publica eventos de dominio. Los fallos no deben abortar la operación que los origina.
type EventPublisher interface {
	Publish(ctx context.Context, evt Event) error
}

// NopPublisher descarta los eventos.
type NopPublisher struct{}

// Publish no hace nada.
func (NopPublisher) Publish(context.Context, Event) error { return nil }
