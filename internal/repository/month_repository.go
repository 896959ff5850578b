package repository

import (
	"context"
	"fmt"

	"github.com/iliyamo/devocional/internal/database"
	"github.com/iliyamo/devocional/internal/model"
)

// MonthRepo reads and updates the twelve month rows.
type MonthRepo struct{ db *database.DB }

func NewMonthRepo(db *database.DB) *MonthRepo { return &MonthRepo{db: db} }

// List returns all months ordered by id.
func (r *MonthRepo) List(ctx context.Context) ([]model.Month, error) {
	return retryRead(ctx, func(ctx context.Context) ([]model.Month, error) {
		rows, err := r.db.QueryContext(ctx, "SELECT id, name, theme, color, icon FROM months ORDER BY id")
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		out := make([]model.Month, 0, 12)
		for rows.Next() {
			var m model.Month
			if err := rows.Scan(&m.ID, &m.Name, &m.Theme, &m.Color, &m.Icon); err != nil {
				return nil, err
			}
			out = append(out, m)
		}
		return out, rows.Err()
	})
}

// Get returns one month or ErrNotFound.
func (r *MonthRepo) Get(ctx context.Context, id int) (model.Month, error) {
	return retryRead(ctx, func(ctx context.Context) (model.Month, error) {
		var m model.Month
		err := r.db.QueryRowContext(ctx,
			r.db.Dialect.Rebind("SELECT id, name, theme, color, icon FROM months WHERE id = ?"), id).
			Scan(&m.ID, &m.Name, &m.Theme, &m.Color, &m.Icon)
		return m, err
	})
}

// UpdateThemeIcon changes the two editable columns of a month.
func (r *MonthRepo) UpdateThemeIcon(ctx context.Context, id int, theme, icon string) error {
	res, err := r.db.ExecContext(ctx,
		r.db.Dialect.Rebind("UPDATE months SET theme = ?, icon = ? WHERE id = ?"), theme, icon, id)
	if err != nil {
		return translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 affected rows when the values did not change.
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Upsert writes a full month row.  Used by seeding.
func (r *MonthRepo) Upsert(ctx context.Context, m model.Month) error {
	q := fmt.Sprintf("INSERT INTO months (id, name, theme, color, icon) VALUES (?, ?, ?, ?, ?) %s",
		r.db.Dialect.Upsert([]string{"id"}, []string{"name", "theme", "color", "icon"}))
	_, err := r.db.ExecContext(ctx, r.db.Dialect.Rebind(q), m.ID, m.Name, m.Theme, m.Color, m.Icon)
	return translate(err)
}
