package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/devocional/internal/database"
	"github.com/iliyamo/devocional/internal/model"
)

// ProfileRepo persists application profiles.
type ProfileRepo struct{ db *database.DB }

func NewProfileRepo(db *database.DB) *ProfileRepo { return &ProfileRepo{db: db} }

// Create inserts p, stamping CreatedAt when unset.  An existing id yields
// ErrDuplicate.
func (r *ProfileRepo) Create(ctx context.Context, p *model.Profile) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now()
	}
	if p.Role == "" {
		p.Role = model.RoleUser
	}
	_, err := r.db.ExecContext(ctx, r.db.Dialect.Rebind(
		"INSERT INTO profiles (id, username, role, avatar_url, created_at) VALUES (?, ?, ?, ?, ?)"),
		p.ID, p.Username, p.Role, toNullString(p.AvatarURL), p.CreatedAt)
	return translate(err)
}

// Get returns a profile or ErrNotFound.
func (r *ProfileRepo) Get(ctx context.Context, id string) (model.Profile, error) {
	return retryRead(ctx, func(ctx context.Context) (model.Profile, error) {
		var (
			p      model.Profile
			avatar sql.NullString
		)
		err := r.db.QueryRowContext(ctx, r.db.Dialect.Rebind(
			"SELECT id, username, role, avatar_url, created_at FROM profiles WHERE id = ?"), id).
			Scan(&p.ID, &p.Username, &p.Role, &avatar, &p.CreatedAt)
		p.AvatarURL = nullString(avatar)
		return p, err
	})
}

// Delete removes a non-admin profile.  Admin profiles are refused with
// ErrForbidden; a missing profile yields ErrNotFound.
func (r *ProfileRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Dialect.Rebind(
		"DELETE FROM profiles WHERE id = ? AND role <> ?"), id, model.RoleAdmin)
	if err != nil {
		return translate(err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return ErrForbidden
}

// ListWithStats returns every profile with its identity email and the
// number of completed days, newest first.  Admins are flagged, not hidden.
func (r *ProfileRepo) ListWithStats(ctx context.Context) ([]model.UserRow, error) {
	return retryRead(ctx, func(ctx context.Context) ([]model.UserRow, error) {
		rows, err := r.db.QueryContext(ctx, r.db.Dialect.Rebind(`
SELECT p.id, p.username, COALESCE(a.email, ''), p.role, p.avatar_url, p.created_at,
       (SELECT COUNT(*) FROM user_progress up WHERE up.user_id = p.id AND up.is_completed = ?)
FROM profiles p
LEFT JOIN auth_users a ON a.id = p.id
ORDER BY p.created_at DESC`), true)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		out := []model.UserRow{}
		for rows.Next() {
			var (
				u      model.UserRow
				avatar sql.NullString
			)
			if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &avatar, &u.CreatedAt, &u.DevotionalsRead); err != nil {
				return nil, err
			}
			u.AvatarURL = nullString(avatar)
			u.IsAdmin = u.Role == model.RoleAdmin
			out = append(out, u)
		}
		return out, rows.Err()
	})
}
