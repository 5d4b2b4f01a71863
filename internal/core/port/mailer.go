package port

import (
	"context"

	"github.com/arklim/registration-gate/internal/core/domain"
)

// ConfirmationMailer sends the post-approval confirmation message.
type ConfirmationMailer interface {
	SendConfirmation(ctx context.Context, user domain.User) error
}
