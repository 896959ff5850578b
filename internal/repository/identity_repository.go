package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/devocional/internal/database"
	"github.com/iliyamo/devocional/internal/model"
	"github.com/iliyamo/devocional/internal/utils"
)

// IdentityRepo is the built-in identity provider: email + bcrypt password
// accounts in auth_users, keyed by UUID.
type IdentityRepo struct{ db *database.DB }

func NewIdentityRepo(db *database.DB) *IdentityRepo { return &IdentityRepo{db: db} }

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create inserts an identity and returns it.  A taken email yields
// ErrEmailExists.
func (r *IdentityRepo) Create(ctx context.Context, email, password string, cost int) (model.Identity, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.Identity{}, err
	}
	id := model.Identity{
		ID:           uuid.NewString(),
		Email:        NormalizeEmail(email),
		PasswordHash: hash,
		CreatedAt:    now(),
	}
	_, err = r.db.ExecContext(ctx, r.db.Dialect.Rebind(
		"INSERT INTO auth_users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)"),
		id.ID, id.Email, id.PasswordHash, id.CreatedAt)
	if err = translate(err); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return model.Identity{}, ErrEmailExists
		}
		return model.Identity{}, err
	}
	return id, nil
}

const identityColumns = "id, email, password_hash, created_at"

// GetByEmail fetches an identity by normalized email.
func (r *IdentityRepo) GetByEmail(ctx context.Context, email string) (model.Identity, error) {
	return retryRead(ctx, func(ctx context.Context) (model.Identity, error) {
		var u model.Identity
		err := r.db.QueryRowContext(ctx, r.db.Dialect.Rebind(
			"SELECT "+identityColumns+" FROM auth_users WHERE email = ?"), NormalizeEmail(email)).
			Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
		return u, err
	})
}

// GetByID fetches an identity by id.
func (r *IdentityRepo) GetByID(ctx context.Context, id string) (model.Identity, error) {
	return retryRead(ctx, func(ctx context.Context) (model.Identity, error) {
		var u model.Identity
		err := r.db.QueryRowContext(ctx, r.db.Dialect.Rebind(
			"SELECT "+identityColumns+" FROM auth_users WHERE id = ?"), id).
			Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
		return u, err
	})
}

// Delete removes an identity.  Identities whose profile is an admin are
// refused with ErrForbidden.
func (r *IdentityRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Dialect.Rebind(
		"DELETE FROM auth_users WHERE id = ? AND NOT EXISTS (SELECT 1 FROM profiles WHERE profiles.id = ? AND profiles.role = ?)"),
		id, id, model.RoleAdmin)
	if err != nil {
		return translate(err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrForbidden
}
