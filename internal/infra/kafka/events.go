package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/arklim/registration-gate/internal/core/domain"
	"github.com/arklim/registration-gate/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	appCfg   config.AppSettings
	logger   *zap.Logger
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type eventEnvelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   any               `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	if eventID == "" {
		eventID = uuid.NewString()
	}

	metadata := map[string]string{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	if span := trace.SpanFromContext(ctx); span != nil {
		if sc := span.SpanContext(); sc.IsValid() {
			metadata["trace_id"] = sc.TraceID().String()
		}
	}

	envelope := eventEnvelope{
		EventID:   eventID,
		EventType: eventType,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishRegistrationSubmitted publishes gate.registration.submitted events.
func (p *EventPublisher) PublishRegistrationSubmitted(ctx context.Context, event domain.RegistrationSubmittedEvent) error {
	payload := struct {
		PendingID   string    `json:"pending_id"`
		Name        string    `json:"name"`
		Email       string    `json:"email"`
		Phone       string    `json:"phone"`
		SubmittedAt time.Time `json:"submitted_at"`
	}{
		PendingID:   event.PendingID,
		Name:        event.Name,
		Email:       event.Email,
		Phone:       event.Phone,
		SubmittedAt: event.SubmittedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "registration.submitted", event.SubmittedAt, payload)
}

// PublishRegistrationResolved publishes gate.registration.resolved events.
func (p *EventPublisher) PublishRegistrationResolved(ctx context.Context, event domain.RegistrationResolvedEvent) error {
	payload := struct {
		PendingID  string    `json:"pending_id"`
		UserID     string    `json:"user_id,omitempty"`
		Decision   string    `json:"decision"`
		ResolvedAt time.Time `json:"resolved_at"`
	}{
		PendingID:  event.PendingID,
		UserID:     event.UserID,
		Decision:   string(event.Decision),
		ResolvedAt: event.ResolvedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "registration.resolved", event.ResolvedAt, payload)
}
