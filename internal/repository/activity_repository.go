package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/devocional/internal/database"
	"github.com/iliyamo/devocional/internal/model"
)

// ActivityRepo persists per-day activity links.
type ActivityRepo struct{ db *database.DB }

func NewActivityRepo(db *database.DB) *ActivityRepo { return &ActivityRepo{db: db} }

const activityColumns = "month_id, day_number, drive_url, is_configured, updated_at"

func scanActivity(s rowScanner) (model.Activity, error) {
	var a model.Activity
	err := s.Scan(&a.MonthID, &a.DayNumber, &a.DriveURL, &a.IsConfigured, &a.UpdatedAt)
	return a, err
}

// ListByMonth returns the stored activity rows of a month ordered by day.
// Days without a row are not included.
func (r *ActivityRepo) ListByMonth(ctx context.Context, monthID int) ([]model.Activity, error) {
	return retryRead(ctx, func(ctx context.Context) ([]model.Activity, error) {
		rows, err := r.db.QueryContext(ctx, r.db.Dialect.Rebind(
			"SELECT "+activityColumns+" FROM activities WHERE month_id = ? ORDER BY day_number"), monthID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		out := []model.Activity{}
		for rows.Next() {
			a, err := scanActivity(rows)
			if err != nil {
				return nil, err
			}
			out = append(out, a)
		}
		return out, rows.Err()
	})
}

// Upsert stores url for the day.  The url is trimmed and is_configured is
// derived from it; a nil url is stored as "".
func (r *ActivityRepo) Upsert(ctx context.Context, monthID, day int, url *string) (model.Activity, error) {
	a := model.Activity{MonthID: monthID, DayNumber: day, UpdatedAt: now()}
	if url != nil {
		a.DriveURL = strings.TrimSpace(*url)
	}
	a.IsConfigured = a.DriveURL != ""

	q := fmt.Sprintf("INSERT INTO activities (%s) VALUES (?, ?, ?, ?, ?) %s", activityColumns,
		r.db.Dialect.Upsert([]string{"month_id", "day_number"}, []string{"drive_url", "is_configured", "updated_at"}))
	_, err := r.db.ExecContext(ctx, r.db.Dialect.Rebind(q),
		a.MonthID, a.DayNumber, a.DriveURL, a.IsConfigured, a.UpdatedAt)
	if err != nil {
		return model.Activity{}, translate(err)
	}
	return a, nil
}

// GetConfigured returns the day's activity only when it has a url;
// otherwise ErrNotFound.
func (r *ActivityRepo) GetConfigured(ctx context.Context, monthID, day int) (model.Activity, error) {
	return retryRead(ctx, func(ctx context.Context) (model.Activity, error) {
		return scanActivity(r.db.QueryRowContext(ctx, r.db.Dialect.Rebind(
			"SELECT "+activityColumns+" FROM activities WHERE month_id = ? AND day_number = ? AND is_configured = ?"),
			monthID, day, true))
	})
}
