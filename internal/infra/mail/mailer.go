package mail

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/arklim/registration-gate/internal/core/domain"
	"github.com/arklim/registration-gate/internal/infra/config"
	"github.com/arklim/registration-gate/internal/infra/logger"
)

const confirmationSubject = "Registration approved"

// Mailer implements port.ConfirmationMailer over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	logger *zap.Logger
}

// NewMailer constructs the SMTP confirmation sender.
func NewMailer(cfg config.SMTPSettings, log *zap.Logger) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: log,
	}
}

// SendConfirmation delivers the approval confirmation to the user's address.
func (m *Mailer) SendConfirmation(_ context.Context, user domain.User) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", user.Email)
	msg.SetHeader("Subject", confirmationSubject)
	msg.SetBody("text/plain", confirmationBody(user))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}

	m.logger.Info("confirmation email sent",
		zap.String("user_id", user.ID),
		zap.String("to", logger.MaskEmail(user.Email)),
	)

	return nil
}

func confirmationBody(user domain.User) string {
	return fmt.Sprintf(
		"Hello %s,\n\nYour registration has been approved.\n\nName: %s\nEmail: %s\nPhone: %s\n",
		user.Name, user.Name, user.Email, user.Phone,
	)
}
