package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/arklim/registration-gate/internal/core/domain"
	"github.com/arklim/registration-gate/internal/repository"
)

// PendingRepository implements port.PendingRepository using PostgreSQL.
type PendingRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewPendingRepository wires a repository backed by any executor satisfying pgExecutor.
func NewPendingRepository(exec pgExecutor) *PendingRepository {
	return &PendingRepository{exec: exec, builder: newBuilder()}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *PendingRepository) WithTx(tx pgx.Tx) *PendingRepository {
	if tx == nil {
		return r
	}
	return &PendingRepository{exec: tx, builder: r.builder}
}

// Create inserts a new pending registration row.
func (r *PendingRepository) Create(ctx context.Context, pending domain.PendingRegistration) error {
	sql, args, err := r.builder.Insert(pendingTable).
		Columns("id", "name", "email", "phone", "created_at").
		Values(pending.ID, pending.Name, pending.Email, pending.Phone, pending.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert pending sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert pending registration: %w", err)
	}

	return nil
}

// GetByID retrieves a pending registration by identifier.
func (r *PendingRepository) GetByID(ctx context.Context, id string) (*domain.PendingRegistration, error) {
	sql, args, err := r.builder.
		Select("id", "name", "email", "phone", "created_at").
		From(pendingTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select pending sql: %w", err)
	}

	var pending domain.PendingRegistration
	row := r.exec.QueryRow(ctx, sql, args...)
	if err := row.Scan(&pending.ID, &pending.Name, &pending.Email, &pending.Phone, &pending.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan pending registration: %w", err)
	}

	return &pending, nil
}

// ExistsByContact reports whether any pending registration shares the email or phone.
func (r *PendingRepository) ExistsByContact(ctx context.Context, email, phone string) (bool, error) {
	sql, args, err := r.builder.
		Select("1").
		From(pendingTable).
		Where(squirrel.Or{
			squirrel.Eq{"email": email},
			squirrel.Eq{"phone": phone},
		}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build pending contact probe sql: %w", err)
	}

	var one int
	if err := r.exec.QueryRow(ctx, sql, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("probe pending contact: %w", err)
	}

	return true, nil
}

// DeleteOlderThan removes pending registrations created before the cutoff and
// reports how many rows were reaped.
func (r *PendingRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	sql, args, err := r.builder.
		Delete(pendingTable).
		Where(squirrel.Lt{"created_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete stale pending sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete stale pending registrations: %w", err)
	}

	return tag.RowsAffected(), nil
}

// deleteReturning removes a pending registration by identifier and returns the
// removed row. The single statement doubles as the compare-and-delete guard
// against concurrent decisions on the same identifier.
func (r *PendingRepository) deleteReturning(ctx context.Context, id string) (*domain.PendingRegistration, error) {
	sql, args, err := r.builder.
		Delete(pendingTable).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING id, name, email, phone, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build delete pending sql: %w", err)
	}

	var pending domain.PendingRegistration
	row := r.exec.QueryRow(ctx, sql, args...)
	if err := row.Scan(&pending.ID, &pending.Name, &pending.Email, &pending.Phone, &pending.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("delete pending registration: %w", err)
	}

	return &pending, nil
}
