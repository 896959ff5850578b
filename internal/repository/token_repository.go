package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/devocional/internal/database"
)

// TokenRepo persists/validates refresh tokens (single 'token_hash' column).
type TokenRepo struct{ db *database.DB }

func NewTokenRepo(db *database.DB) *TokenRepo { return &TokenRepo{db: db} }

// StoreRefresh inserts a refresh token hash row.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error {
	_, err := r.db.ExecContext(ctx, r.db.Dialect.Rebind(
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at, created_at) VALUES (?, ?, ?, ?)"),
		userID, tokenHash, exp.UTC(), now())
	return translate(err)
}

// ValidateRefresh returns the user id of a non-revoked, non-expired token,
// or ErrNotFound.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (string, error) {
	return retryRead(ctx, func(ctx context.Context) (string, error) {
		var (
			userID    string
			expiresAt time.Time
			revokedAt sql.NullTime
		)
		err := r.db.QueryRowContext(ctx, r.db.Dialect.Rebind(
			"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash = ?"),
			tokenHash).Scan(&userID, &expiresAt, &revokedAt)
		if err != nil {
			return "", err
		}
		if revokedAt.Valid || time.Now().UTC().After(expiresAt) {
			return "", ErrNotFound
		}
		return userID, nil
	})
}

// Rotate revokes a live token because it was exchanged for a new pair.
// The update is conditional, so of several callers presenting the same
// token exactly one succeeds; the rest get ErrNotFound.
func (r *TokenRepo) Rotate(ctx context.Context, tokenHash string) error {
	t := now()
	res, err := r.db.ExecContext(ctx, r.db.Dialect.Rebind(
		"UPDATE refresh_tokens SET revoked_at = ?, rotated_at = ? WHERE token_hash = ? AND revoked_at IS NULL"),
		t, t, tokenHash)
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// RotatedSince returns the user id of a token rotated at or after since
// and not expired, or ErrNotFound.  Tokens revoked any other way never
// match.
func (r *TokenRepo) RotatedSince(ctx context.Context, tokenHash string, since time.Time) (string, error) {
	return retryRead(ctx, func(ctx context.Context) (string, error) {
		var (
			userID    string
			expiresAt time.Time
			rotatedAt sql.NullTime
		)
		err := r.db.QueryRowContext(ctx, r.db.Dialect.Rebind(
			"SELECT user_id, expires_at, rotated_at FROM refresh_tokens WHERE token_hash = ?"),
			tokenHash).Scan(&userID, &expiresAt, &rotatedAt)
		if err != nil {
			return "", err
		}
		if !rotatedAt.Valid || rotatedAt.Time.Before(since.UTC()) || time.Now().UTC().After(expiresAt) {
			return "", ErrNotFound
		}
		return userID, nil
	})
}

// RevokeByHash marks a token as revoked.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.db.ExecContext(ctx, r.db.Dialect.Rebind(
		"UPDATE refresh_tokens SET revoked_at = ? WHERE token_hash = ? AND revoked_at IS NULL"),
		now(), tokenHash)
	return translate(err)
}

// RevokeAllForUser revokes all user's active tokens and ends the reuse
// window of recently rotated ones.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, r.db.Dialect.Rebind(
		"UPDATE refresh_tokens SET revoked_at = ? WHERE user_id = ? AND revoked_at IS NULL"),
		now(), userID)
	if err != nil {
		return translate(err)
	}
	_, err = r.db.ExecContext(ctx, r.db.Dialect.Rebind(
		"UPDATE refresh_tokens SET rotated_at = NULL WHERE user_id = ? AND rotated_at IS NOT NULL"),
		userID)
	return translate(err)
}
