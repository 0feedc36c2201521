// Package events publica eventos de dominio en Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/evcenter-api/internal/application/ports"
	"github.com/jhoicas/evcenter-api/pkg/logger"
)

var _ ports.EventPublisher = (*KafkaPublisher)(nil)

// messageWriter lo implementa *kafka.Writer; se abstrae para tests.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher escribe cada evento como un mensaje JSON con la clave de la entidad.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	log    *logger.Logger
}

// NewKafkaPublisher crea el publicador sobre los brokers indicados.
func NewKafkaPublisher(brokers []string, topic string, log *logger.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return newKafkaPublisher(w, topic, log)
}

func newKafkaPublisher(w messageWriter, topic string, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic, log: log.Component("events")}
}

type envelope struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"event_type"`
	Version    int       `json:"event_version"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload,omitempty"`
}

// Publish envía el evento. El error se devuelve para que el caller decida si registrarlo.
func (p *KafkaPublisher) Publish(ctx context.Context, evt ports.Event) error {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now()
	}
	value, err := json.Marshal(envelope{
		EventID:    uuid.New().String(),
		Type:       evt.Type,
		Version:    1,
		OccurredAt: evt.OccurredAt.UTC(),
		Payload:    evt.Payload,
	})
	if err != nil {
		return fmt.Errorf("serializar evento %s: %w", evt.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(evt.Key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publicar evento %s en %s: %w", evt.Type, p.topic, err)
	}
	p.log.Debug().Str("type", evt.Type).Str("key", evt.Key).Msg("evento publicado")
	return nil
}

// Close vacía y cierra el writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
