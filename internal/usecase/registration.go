package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/registration-gate/internal/core/domain"
	"github.com/arklim/registration-gate/internal/core/port"
	"github.com/arklim/registration-gate/internal/repository"
)

var (
	// ErrMissingField indicates a required submission field is empty or absent.
	ErrMissingField = errors.New("name, email and phone are required")
	// ErrAlreadyRegistered indicates the contact details belong to a confirmed user.
	ErrAlreadyRegistered = errors.New("already registered")
	// ErrAlreadyPending indicates a registration with the same contact details awaits a decision.
	ErrAlreadyPending = errors.New("already pending")
	// ErrPendingNotFound indicates no pending registration exists for the identifier.
	ErrPendingNotFound = errors.New("pending registration not found")
	// ErrConfirmationEmail indicates the user was created but the confirmation email failed.
	ErrConfirmationEmail = errors.New("confirmation email failed")
)

// RegistrationService drives a registration from submission to an operator
// decision. All state lives in the store; every decision re-reads it inside
// the approval transaction, never from a cache.
type RegistrationService struct {
	pending   port.PendingRepository
	users     port.UserRepository
	approvals port.ApprovalStore
	notifier  port.OperatorNotifier
	mailer    port.ConfirmationMailer
	events    port.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewRegistrationService constructs the registration workflow service.
func NewRegistrationService(
	pending port.PendingRepository,
	users port.UserRepository,
	approvals port.ApprovalStore,
	notifier port.OperatorNotifier,
	mailer port.ConfirmationMailer,
	events port.EventPublisher,
) *RegistrationService {
	return &RegistrationService{
		pending:   pending,
		users:     users,
		approvals: approvals,
		notifier:  notifier,
		mailer:    mailer,
		events:    events,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
}

// WithLogger attaches a structured logger.
func (s *RegistrationService) WithLogger(logger *zap.Logger) *RegistrationService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithClock allows injection of a custom clock (primarily for testing).
func (s *RegistrationService) WithClock(now func() time.Time) *RegistrationService {
	if now != nil {
		s.now = now
	}
	return s
}

// Submit validates the contact details, persists a pending registration, and
// asks the operator channel for a decision. The identifier is handed only to
// the operator, never returned to the submitter's HTTP response.
func (s *RegistrationService) Submit(ctx context.Context, name, email, phone string) (domain.PendingRegistration, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)

	if name == "" || email == "" || phone == "" {
		return domain.PendingRegistration{}, ErrMissingField
	}

	registered, err := s.users.ExistsByContact(ctx, email, phone)
	if err != nil {
		return domain.PendingRegistration{}, fmt.Errorf("probe confirmed users: %w", err)
	}
	if registered {
		return domain.PendingRegistration{}, ErrAlreadyRegistered
	}

	waiting, err := s.pending.ExistsByContact(ctx, email, phone)
	if err != nil {
		return domain.PendingRegistration{}, fmt.Errorf("probe pending registrations: %w", err)
	}
	if waiting {
		return domain.PendingRegistration{}, ErrAlreadyPending
	}

	pending := domain.PendingRegistration{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		CreatedAt: s.now().UTC(),
	}

	if err := s.pending.Create(ctx, pending); err != nil {
		return domain.PendingRegistration{}, err
	}

	// A notify failure aborts the request; the pending row stays behind for
	// the reaper to collect.
	if err := s.notifier.NotifyPending(ctx, pending); err != nil {
		return domain.PendingRegistration{}, fmt.Errorf("notify operator: %w", err)
	}

	s.publishSubmitted(ctx, pending)

	return pending, nil
}

// Resolution captures the outcome of an operator decision.
type Resolution struct {
	Decision domain.Decision
	Name     string
	Email    string
	Phone    string
	User     *domain.User
}

// Resolve applies an operator decision to the pending registration. Both
// trigger paths (direct API and channel callback) funnel through here so the
// transition cannot drift between them. An unknown identifier yields
// ErrPendingNotFound; adapters decide whether that is a 404 or a no-op.
func (s *RegistrationService) Resolve(ctx context.Context, id string, decision domain.Decision) (Resolution, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Resolution{}, ErrPendingNotFound
	}

	switch decision {
	case domain.DecisionApprove:
		return s.approve(ctx, id)
	case domain.DecisionReject:
		return s.reject(ctx, id)
	default:
		return Resolution{}, fmt.Errorf("unknown decision %q", decision)
	}
}

func (s *RegistrationService) approve(ctx context.Context, id string) (Resolution, error) {
	user, err := s.approvals.Promote(ctx, id, uuid.NewString(), s.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Resolution{}, ErrPendingNotFound
		}
		return Resolution{}, fmt.Errorf("promote pending registration: %w", err)
	}

	resolution := Resolution{
		Decision: domain.DecisionApprove,
		Name:     user.Name,
		Email:    user.Email,
		Phone:    user.Phone,
		User:     user,
	}

	s.publishResolved(ctx, id, user.ID, domain.DecisionApprove)

	if err := s.mailer.SendConfirmation(ctx, *user); err != nil {
		s.logger.Error("confirmation email failed",
			zap.String("pending_id", id),
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		return resolution, fmt.Errorf("%w: %v", ErrConfirmationEmail, err)
	}

	return resolution, nil
}

func (s *RegistrationService) reject(ctx context.Context, id string) (Resolution, error) {
	pending, err := s.approvals.Discard(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Resolution{}, ErrPendingNotFound
		}
		return Resolution{}, fmt.Errorf("discard pending registration: %w", err)
	}

	s.publishResolved(ctx, id, "", domain.DecisionReject)

	return Resolution{
		Decision: domain.DecisionReject,
		Name:     pending.Name,
		Email:    pending.Email,
		Phone:    pending.Phone,
	}, nil
}

func (s *RegistrationService) publishSubmitted(ctx context.Context, pending domain.PendingRegistration) {
	if s.events == nil {
		return
	}

	event := domain.RegistrationSubmittedEvent{
		EventID:     uuid.NewString(),
		PendingID:   pending.ID,
		Name:        pending.Name,
		Email:       pending.Email,
		Phone:       pending.Phone,
		SubmittedAt: pending.CreatedAt,
	}

	if err := s.events.PublishRegistrationSubmitted(ctx, event); err != nil {
		s.logger.Warn("publish registration.submitted failed", zap.String("pending_id", pending.ID), zap.Error(err))
	}
}

func (s *RegistrationService) publishResolved(ctx context.Context, pendingID, userID string, decision domain.Decision) {
	if s.events == nil {
		return
	}

	event := domain.RegistrationResolvedEvent{
		EventID:    uuid.NewString(),
		PendingID:  pendingID,
		UserID:     userID,
		Decision:   decision,
		ResolvedAt: s.now().UTC(),
	}

	if err := s.events.PublishRegistrationResolved(ctx, event); err != nil {
		s.logger.Warn("publish registration.resolved failed", zap.String("pending_id", pendingID), zap.Error(err))
	}
}
