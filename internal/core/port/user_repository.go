package port

import (
	"context"

	"github.com/arklim/registration-gate/internal/core/domain"
)

// UserRepository exposes read behavior for confirmed users. Creation happens
// only through the ApprovalStore so it stays inside the decision transaction.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	ExistsByContact(ctx context.Context, email, phone string) (bool, error)
}
