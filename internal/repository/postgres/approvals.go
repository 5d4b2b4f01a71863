package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/arklim/registration-gate/internal/core/domain"
)

// txBeginner is the slice of pool behavior the approval store needs beyond
// statement execution.
type txBeginner interface {
	pgExecutor
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ApprovalStore implements port.ApprovalStore. Each decision runs inside a
// single transaction so the pending row and the user row can never diverge
// after a crash mid-operation.
type ApprovalStore struct {
	pool    txBeginner
	pending *PendingRepository
	users   *UserRepository
}

// NewApprovalStore wires the transactional decision store.
func NewApprovalStore(pool txBeginner) *ApprovalStore {
	return &ApprovalStore{
		pool:    pool,
		pending: NewPendingRepository(pool),
		users:   NewUserRepository(pool),
	}
}

// Promote removes the pending registration and creates the confirmed user in
// one transaction. Returns repository.ErrNotFound when the identifier has
// already been resolved.
func (s *ApprovalStore) Promote(ctx context.Context, pendingID, userID string, at time.Time) (*domain.User, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin approval tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	pending, err := s.pending.WithTx(tx).deleteReturning(ctx, pendingID)
	if err != nil {
		return nil, err
	}

	user := domain.User{
		ID:        userID,
		Name:      pending.Name,
		Email:     pending.Email,
		Phone:     pending.Phone,
		Invited:   false,
		CreatedAt: at,
	}

	if err := s.users.WithTx(tx).create(ctx, user); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit approval tx: %w", err)
	}

	return &user, nil
}

// Discard removes the pending registration without creating a user and
// returns the removed record. Returns repository.ErrNotFound when the
// identifier has already been resolved.
func (s *ApprovalStore) Discard(ctx context.Context, pendingID string) (*domain.PendingRegistration, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin rejection tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	pending, err := s.pending.WithTx(tx).deleteReturning(ctx, pendingID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit rejection tx: %w", err)
	}

	return pending, nil
}
