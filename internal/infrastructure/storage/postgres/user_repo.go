package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/domain/auth"
)

var _ auth.UserRepository = (*UserRepo)(nil)

// UserRepo persists accounts in the users table. Accounts are looked
// up by email across tenants (login happens before a tenant is known);
// all other operations are tenant-scoped by the caller.
type UserRepo struct {
	txm *TxManager
}

// NewUserRepo creates a user repository on top of the tx manager.
func NewUserRepo(txm *TxManager) *UserRepo {
	return &UserRepo{txm: txm}
}

const userColumns = "id, tenant_id, email, password_hash, name, roles, active, created_at, updated_at"

// Create inserts a new account.
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	sql, args, err := builder().
		Insert("users").
		SetMap(map[string]any{
			"id":            user.ID,
			"tenant_id":     user.TenantID,
			"email":         user.Email,
			"password_hash": user.PasswordHash,
			"name":          user.Name,
			"roles":         user.Roles,
			"active":        user.Active,
			"created_at":    user.CreatedAt,
			"updated_at":    user.UpdatedAt,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return apperror.NewStoreUnavailable(err)
	}
	return nil
}

// GetByEmail returns the account with the given email, or nil.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	var user auth.User
	err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &user,
		"SELECT "+userColumns+" FROM users WHERE email = $1", email)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, apperror.NewStoreUnavailable(err)
	}
	return &user, nil
}

// GetByID returns the account with the given id, or nil.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	var user auth.User
	err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &user,
		"SELECT "+userColumns+" FROM users WHERE id = $1", userID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, apperror.NewStoreUnavailable(err)
	}
	return &user, nil
}

// ListByTenant returns all accounts in a tenant.
func (r *UserRepo) ListByTenant(ctx context.Context, tenantID string) ([]auth.User, error) {
	var users []auth.User
	err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &users,
		"SELECT "+userColumns+" FROM users WHERE tenant_id = $1 ORDER BY created_at", tenantID)
	if err != nil {
		return nil, apperror.NewStoreUnavailable(err)
	}
	return users, nil
}

// Update rewrites the mutable account fields.
func (r *UserRepo) Update(ctx context.Context, user *auth.User) error {
	sql, args, err := builder().
		Update("users").
		SetMap(map[string]any{
			"email":         user.Email,
			"password_hash": user.PasswordHash,
			"name":          user.Name,
			"roles":         user.Roles,
			"active":        user.Active,
			"updated_at":    user.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewStoreUnavailable(err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("user", user.ID.String())
	}
	return nil
}
