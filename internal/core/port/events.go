package port

import (
	"context"

	"github.com/arklim/registration-gate/internal/core/domain"
)

// EventPublisher fans registration lifecycle events out to downstream consumers.
// Publishing is fire-and-forget from the workflow's point of view.
type EventPublisher interface {
	PublishRegistrationSubmitted(ctx context.Context, event domain.RegistrationSubmittedEvent) error
	PublishRegistrationResolved(ctx context.Context, event domain.RegistrationResolvedEvent) error
}
