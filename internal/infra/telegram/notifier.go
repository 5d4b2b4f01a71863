package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/arklim/registration-gate/internal/core/domain"
	"github.com/arklim/registration-gate/internal/infra/config"
	"github.com/arklim/registration-gate/internal/infra/logger"
)

const (
	approvePrefix = "approve_"
	rejectPrefix  = "reject_"
)

// CallbackData encodes a decision and a pending identifier into the action
// token carried by the inline keyboard button.
func CallbackData(decision domain.Decision, id string) string {
	return string(decision) + "_" + id
}

// ParseCallback splits an action token into decision and pending identifier.
// Foreign payloads yield ok=false and must be acknowledged without side effects.
func ParseCallback(data string) (domain.Decision, string, bool) {
	switch {
	case strings.HasPrefix(data, approvePrefix):
		id := strings.TrimPrefix(data, approvePrefix)
		if id == "" {
			return "", "", false
		}
		return domain.DecisionApprove, id, true
	case strings.HasPrefix(data, rejectPrefix):
		id := strings.TrimPrefix(data, rejectPrefix)
		if id == "" {
			return "", "", false
		}
		return domain.DecisionReject, id, true
	}
	return "", "", false
}

// Notifier implements port.OperatorNotifier against the Telegram Bot API.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

// NewNotifier authenticates the bot and wires the operator chat.
func NewNotifier(cfg config.TelegramSettings, log *zap.Logger) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}

	log.Info("telegram bot authenticated",
		zap.String("bot_username", bot.Self.UserName),
		zap.Int64("chat_id", cfg.ChatID),
	)

	return &Notifier{bot: bot, chatID: cfg.ChatID, logger: log}, nil
}

// NotifyPending sends the approval prompt with inline Approve/Reject actions
// bound to the pending identifier.
func (n *Notifier) NotifyPending(_ context.Context, pending domain.PendingRegistration) error {
	text := fmt.Sprintf(
		"New registration request\nName: %s\nEmail: %s\nPhone: %s",
		pending.Name, pending.Email, pending.Phone,
	)

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Approve", CallbackData(domain.DecisionApprove, pending.ID)),
			tgbotapi.NewInlineKeyboardButtonData("Reject", CallbackData(domain.DecisionReject, pending.ID)),
		),
	)

	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	n.logger.Info("operator notified",
		zap.String("pending_id", pending.ID),
		zap.String("email", logger.MaskEmail(pending.Email)),
	)

	return nil
}

// EditDecision rewrites a previously sent prompt to its decision status line.
func (n *Notifier) EditDecision(_ context.Context, chatID int64, messageID int, text string) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if _, err := n.bot.Request(edit); err != nil {
		return fmt.Errorf("edit telegram message: %w", err)
	}
	return nil
}
