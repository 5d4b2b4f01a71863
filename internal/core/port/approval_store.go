package port

import (
	"context"
	"time"

	"github.com/arklim/registration-gate/internal/core/domain"
)

// ApprovalStore applies operator decisions atomically. Both operations remove
// the pending registration with a compare-and-delete so a duplicate decision
// on the same identifier observes repository.ErrNotFound instead of acting twice.
type ApprovalStore interface {
	// Promote removes the pending registration and creates the confirmed user
	// within a single transaction. The caller supplies the new user identity.
	Promote(ctx context.Context, pendingID, userID string, at time.Time) (*domain.User, error)
	// Discard removes the pending registration without creating a user and
	// returns the removed record.
	Discard(ctx context.Context, pendingID string) (*domain.PendingRegistration, error)
}
