package port

import (
	"context"
	"time"

	"github.com/arklim/registration-gate/internal/core/domain"
)

// PendingRepository exposes persistence behavior for registrations awaiting a decision.
type PendingRepository interface {
	Create(ctx context.Context, pending domain.PendingRegistration) error
	GetByID(ctx context.Context, id string) (*domain.PendingRegistration, error)
	ExistsByContact(ctx context.Context, email, phone string) (bool, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
