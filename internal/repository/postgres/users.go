package postgres

import (
	"context"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/arklim/registration-gate/internal/core/domain"
	"github.com/arklim/registration-gate/internal/repository"
)

// UserRepository implements port.UserRepository using PostgreSQL.
type UserRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewUserRepository wires a repository backed by any executor satisfying pgExecutor.
func NewUserRepository(exec pgExecutor) *UserRepository {
	return &UserRepository{exec: exec, builder: newBuilder()}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *UserRepository) WithTx(tx pgx.Tx) *UserRepository {
	if tx == nil {
		return r
	}
	return &UserRepository{exec: tx, builder: r.builder}
}

// create inserts a confirmed user row. Unexported: user rows are only minted
// by the ApprovalStore inside the decision transaction.
func (r *UserRepository) create(ctx context.Context, user domain.User) error {
	sql, args, err := r.builder.Insert(usersTable).
		Columns("id", "name", "email", "phone", "invited", "created_at").
		Values(user.ID, user.Name, user.Email, user.Phone, user.Invited, user.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a confirmed user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	sql, args, err := r.builder.
		Select("id", "name", "email", "phone", "invited", "created_at").
		From(usersTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	var user domain.User
	row := r.exec.QueryRow(ctx, sql, args...)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Phone, &user.Invited, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &user, nil
}

// ExistsByContact reports whether any confirmed user shares the email or phone.
func (r *UserRepository) ExistsByContact(ctx context.Context, email, phone string) (bool, error) {
	sql, args, err := r.builder.
		Select("1").
		From(usersTable).
		Where(squirrel.Or{
			squirrel.Eq{"email": email},
			squirrel.Eq{"phone": phone},
		}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build user contact probe sql: %w", err)
	}

	var one int
	if err := r.exec.QueryRow(ctx, sql, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("probe user contact: %w", err)
	}

	return true, nil
}
