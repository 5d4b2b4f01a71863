package kafka

import (
	"context"

	"go.uber.org/zap"

	"github.com/arklim/registration-gate/internal/core/domain"
)

// StubPublisher logs events instead of sending them to Kafka. Used when no
// brokers are configured.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

// PublishRegistrationSubmitted logs registration.submitted events.
func (p *StubPublisher) PublishRegistrationSubmitted(_ context.Context, event domain.RegistrationSubmittedEvent) error {
	p.logger.Info("stub event published",
		zap.String("event_type", "registration.submitted"),
		zap.String("pending_id", event.PendingID),
		zap.Time("submitted_at", event.SubmittedAt),
	)
	return nil
}

// PublishRegistrationResolved logs registration.resolved events.
func (p *StubPublisher) PublishRegistrationResolved(_ context.Context, event domain.RegistrationResolvedEvent) error {
	p.logger.Info("stub event published",
		zap.String("event_type", "registration.resolved"),
		zap.String("pending_id", event.PendingID),
		zap.String("user_id", event.UserID),
		zap.String("decision", string(event.Decision)),
	)
	return nil
}
