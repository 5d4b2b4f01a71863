package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/arklim/registration-gate/internal/core/domain"
	"github.com/arklim/registration-gate/internal/infra/telegram"
	"github.com/arklim/registration-gate/internal/usecase"
)

// RegistrationWorkflow is the slice of the registration service the HTTP layer drives.
type RegistrationWorkflow interface {
	Submit(ctx context.Context, name, email, phone string) (domain.PendingRegistration, error)
	Resolve(ctx context.Context, id string, decision domain.Decision) (usecase.Resolution, error)
}

// DecisionEditor rewrites a previously sent operator message after a decision lands.
type DecisionEditor interface {
	EditDecision(ctx context.Context, chatID int64, messageID int, text string) error
}

// WorkflowMetrics records registration outcomes.
type WorkflowMetrics interface {
	Observe(outcome string)
}

type noopEditor struct{}

func (noopEditor) EditDecision(context.Context, int64, int, string) error { return nil }

type noopMetrics struct{}

func (noopMetrics) Observe(string) {}

// RegistrationHandler exposes endpoints for registration submission and operator decisions.
type RegistrationHandler struct {
	workflow RegistrationWorkflow
	editor   DecisionEditor
	metrics  WorkflowMetrics
	logger   *zap.Logger
}

func NewRegistrationHandler(workflow RegistrationWorkflow, editor DecisionEditor, metrics WorkflowMetrics, logger *zap.Logger) *RegistrationHandler {
	if editor == nil {
		editor = noopEditor{}
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationHandler{
		workflow: workflow,
		editor:   editor,
		metrics:  metrics,
		logger:   logger,
	}
}

// RegisterRoutes binds the registration endpoints. Extra middlewares apply to
// the submission endpoint only.
func (h *RegistrationHandler) RegisterRoutes(r gin.IRoutes, submitMiddlewares ...gin.HandlerFunc) {
	openUser := append([]gin.HandlerFunc{}, submitMiddlewares...)
	openUser = append(openUser, h.OpenUser)
	r.POST("/open-user", openUser...)
	r.POST("/approve-telegram", h.ApproveTelegram)
	r.POST("/telegram-webhook", h.TelegramWebhook)
}

// OpenUser accepts a registration submission and asks the operator channel
// for a decision. The response never carries the pending identifier.
func (h *RegistrationHandler) OpenUser(c *gin.Context) {
	var req OpenUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid registration payload"})
		return
	}

	_, err := h.workflow.Submit(c.Request.Context(), req.Name, req.Email, req.Phone)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// A concurrent submission slipped past the uniqueness probes; the
			// constraint tells us which record set won.
			switch {
			case strings.HasPrefix(pgErr.ConstraintName, "pending_users_"):
				c.JSON(http.StatusBadRequest, ErrorResponse{Error: "already pending"})
			default:
				c.JSON(http.StatusBadRequest, ErrorResponse{Error: "already registered"})
			}
			return
		}

		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrMissingField, Status: http.StatusBadRequest, Message: "name, email and phone are required"},
			{Err: usecase.ErrAlreadyRegistered, Status: http.StatusBadRequest, Message: "already registered"},
			{Err: usecase.ErrAlreadyPending, Status: http.StatusBadRequest, Message: "already pending"},
		}, http.StatusInternalServerError, "failed to submit registration")
		return
	}

	h.metrics.Observe("submitted")

	c.JSON(http.StatusOK, MessageResponse{Message: "Awaiting approval"})
}

// ApproveTelegram approves a pending registration by identifier. Unlike the
// webhook path, an unknown identifier is reported to the caller as 404.
func (h *RegistrationHandler) ApproveTelegram(c *gin.Context) {
	var req ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid approval payload"})
		return
	}

	req.PendingUserID = strings.TrimSpace(req.PendingUserID)
	if req.PendingUserID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "pendingUserId is required"})
		return
	}

	resolution, err := h.workflow.Resolve(c.Request.Context(), req.PendingUserID, domain.DecisionApprove)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPendingNotFound, Status: http.StatusNotFound, Message: "pending user not found"},
			{Err: usecase.ErrConfirmationEmail, Status: http.StatusInternalServerError, Message: "failed to send confirmation email"},
		}, http.StatusInternalServerError, "failed to approve user")
		return
	}

	h.metrics.Observe("approved")

	c.JSON(http.StatusOK, ApproveResponse{
		Message: "User approved",
		User: ApprovedUser{
			Name:    resolution.Name,
			Email:   resolution.Email,
			PhoneNo: resolution.Phone,
		},
	})
}

// TelegramWebhook handles operator callbacks from the notification channel.
// It acknowledges with 200 regardless of outcome: the channel retries
// non-success responses, which would duplicate operator messages.
func (h *RegistrationHandler) TelegramWebhook(c *gin.Context) {
	ack := func() { c.JSON(http.StatusOK, WebhookResponse{OK: true}) }

	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		h.logger.Debug("webhook payload ignored", zap.Error(err))
		ack()
		return
	}

	if update.CallbackQuery == nil {
		ack()
		return
	}

	decision, pendingID, ok := telegram.ParseCallback(update.CallbackQuery.Data)
	if !ok {
		h.logger.Debug("webhook callback ignored", zap.String("data", update.CallbackQuery.Data))
		ack()
		return
	}

	resolution, err := h.workflow.Resolve(c.Request.Context(), pendingID, decision)
	switch {
	case err == nil:
	case errors.Is(err, usecase.ErrPendingNotFound):
		// Duplicate operator tap; the record is already resolved.
		h.logger.Info("pending registration already resolved", zap.String("pending_id", pendingID))
		ack()
		return
	case errors.Is(err, usecase.ErrConfirmationEmail):
		// User exists; only the confirmation email failed. The operator
		// message still reflects the decision.
		h.logger.Error("confirmation email failed after approval", zap.String("pending_id", pendingID), zap.Error(err))
	default:
		h.logger.Error("webhook resolution failed",
			zap.String("pending_id", pendingID),
			zap.String("decision", string(decision)),
			zap.Error(err),
		)
		ack()
		return
	}

	if resolution.Decision == domain.DecisionApprove {
		h.metrics.Observe("approved")
	} else {
		h.metrics.Observe("rejected")
	}

	h.editDecisionMessage(c.Request.Context(), update.CallbackQuery, resolution)

	ack()
}

func (h *RegistrationHandler) editDecisionMessage(ctx context.Context, query *tgbotapi.CallbackQuery, resolution usecase.Resolution) {
	if query.Message == nil || query.Message.Chat == nil {
		return
	}

	label := "REJECTED"
	if resolution.Decision == domain.DecisionApprove {
		label = "APPROVED"
	}
	text := fmt.Sprintf("%s: %s | %s | %s", label, resolution.Name, resolution.Email, resolution.Phone)

	if err := h.editor.EditDecision(ctx, query.Message.Chat.ID, query.Message.MessageID, text); err != nil {
		h.logger.Warn("edit decision message failed",
			zap.Int64("chat_id", query.Message.Chat.ID),
			zap.Int("message_id", query.Message.MessageID),
			zap.Error(err),
		)
	}
}
