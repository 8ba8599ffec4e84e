package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const (
	AppointmentCreated   = "appointment.created"
	AppointmentCancelled = "appointment.cancelled"
)

// AppointmentEvent is published after an appointment write succeeds.
type AppointmentEvent struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	AppointmentID   string    `json:"appointmentId"`
	PatientID       string    `json:"patientId"`
	DoctorID        string    `json:"doctorId"`
	StartsAt        time.Time `json:"startsAt"`
	CancellationFee float64   `json:"cancellationFee,omitempty"`
	OccurredAt      time.Time `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, e AppointmentEvent) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, AppointmentEvent) error { return nil }
func (NopPublisher) Close() error                                     { return nil }

// KafkaPublisher produces asynchronously: Publish only enqueues, and
// delivery failures are logged from the writer's completion hook.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string, log zerolog.Logger) *KafkaPublisher {
	log = log.With().Str("topic", topic).Logger()
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
		MaxAttempts:  3,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Error().Err(err).Int("messages", len(messages)).Msg("appointment events not delivered")
			}
		},
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e AppointmentEvent) error {
	msg, err := encode(e)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("produce %s: %w", e.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// encode keys messages by appointment id so one appointment's events stay on one partition.
func encode(e AppointmentEvent) (kafka.Message, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(e.AppointmentID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	}, nil
}
