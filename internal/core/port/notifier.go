package port

import (
	"context"

	"github.com/arklim/registration-gate/internal/core/domain"
)

// OperatorNotifier delivers approval prompts to the operator channel and
// rewrites them once a decision has been made.
type OperatorNotifier interface {
	NotifyPending(ctx context.Context, pending domain.PendingRegistration) error
	// EditDecision is best effort; callers log failures instead of surfacing them.
	EditDecision(ctx context.Context, chatID int64, messageID int, text string) error
}
