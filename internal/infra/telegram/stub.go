package telegram

import (
	"context"

	"go.uber.org/zap"

	"github.com/arklim/registration-gate/internal/core/domain"
	"github.com/arklim/registration-gate/internal/infra/logger"
)

// LoggingNotifier records operator prompts without delivering them. Used when
// no bot token is configured.
type LoggingNotifier struct {
	logger *zap.Logger
}

// NewLoggingNotifier constructs a notifier backed by structured logging.
func NewLoggingNotifier(log *zap.Logger) *LoggingNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoggingNotifier{logger: log}
}

func (n *LoggingNotifier) NotifyPending(_ context.Context, pending domain.PendingRegistration) error {
	n.logger.Info("operator notification (logging only)",
		zap.String("pending_id", pending.ID),
		zap.String("name", pending.Name),
		zap.String("email", logger.MaskEmail(pending.Email)),
		zap.String("phone", logger.MaskPhone(pending.Phone)),
	)
	return nil
}

func (n *LoggingNotifier) EditDecision(_ context.Context, chatID int64, messageID int, text string) error {
	n.logger.Info("operator message edit (logging only)",
		zap.Int64("chat_id", chatID),
		zap.Int("message_id", messageID),
		zap.String("text", text),
	)
	return nil
}
