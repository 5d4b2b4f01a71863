package mail

import (
	"context"

	"go.uber.org/zap"

	"github.com/arklim/registration-gate/internal/core/domain"
	"github.com/arklim/registration-gate/internal/infra/logger"
)

// LoggingMailer records confirmation dispatches without delivering them. Used
// when no SMTP host is configured.
type LoggingMailer struct {
	logger *zap.Logger
}

// NewLoggingMailer constructs a mailer backed by structured logging.
func NewLoggingMailer(log *zap.Logger) *LoggingMailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoggingMailer{logger: log}
}

func (m *LoggingMailer) SendConfirmation(_ context.Context, user domain.User) error {
	m.logger.Info("confirmation email (logging only)",
		zap.String("user_id", user.ID),
		zap.String("to", logger.MaskEmail(user.Email)),
	)
	return nil
}
