package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/devocional/internal/database"
)

// ProgressRepo tracks which days each reader completed.
type ProgressRepo struct{ db *database.DB }

func NewProgressRepo(db *database.DB) *ProgressRepo { return &ProgressRepo{db: db} }

// Toggle flips completion of a day given the state the caller observed and
// returns the new state.  A completed day is cleared in place; any other
// day is upserted as completed now.  Repeating a call with the same
// observed state lands on the same row state.
func (r *ProgressRepo) Toggle(ctx context.Context, userID string, monthID, day int, currentlyCompleted bool) (bool, error) {
	if currentlyCompleted {
		_, err := r.db.ExecContext(ctx, r.db.Dialect.Rebind(
			"UPDATE user_progress SET is_completed = ?, completed_at = NULL WHERE user_id = ? AND month_id = ? AND day_number = ?"),
			false, userID, monthID, day)
		return false, translate(err)
	}
	q := fmt.Sprintf(
		"INSERT INTO user_progress (user_id, month_id, day_number, is_completed, completed_at) VALUES (?, ?, ?, ?, ?) %s",
		r.db.Dialect.Upsert([]string{"user_id", "month_id", "day_number"}, []string{"is_completed", "completed_at"}))
	_, err := r.db.ExecContext(ctx, r.db.Dialect.Rebind(q), userID, monthID, day, true, now())
	if err != nil {
		return false, translate(err)
	}
	return true, nil
}

// CompletedDays returns the completed day numbers of a month, ascending.
func (r *ProgressRepo) CompletedDays(ctx context.Context, userID string, monthID int) ([]int, error) {
	return retryRead(ctx, func(ctx context.Context) ([]int, error) {
		rows, err := r.db.QueryContext(ctx, r.db.Dialect.Rebind(
			"SELECT day_number FROM user_progress WHERE user_id = ? AND month_id = ? AND is_completed = ? ORDER BY day_number"),
			userID, monthID, true)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		days := []int{}
		for rows.Next() {
			var d int
			if err := rows.Scan(&d); err != nil {
				return nil, err
			}
			days = append(days, d)
		}
		return days, rows.Err()
	})
}

// IsCompleted reports whether the day is completed.  A missing row is
// not completed.
func (r *ProgressRepo) IsCompleted(ctx context.Context, userID string, monthID, day int) (bool, error) {
	return retryRead(ctx, func(ctx context.Context) (bool, error) {
		var done bool
		err := r.db.QueryRowContext(ctx, r.db.Dialect.Rebind(
			"SELECT is_completed FROM user_progress WHERE user_id = ? AND month_id = ? AND day_number = ?"),
			userID, monthID, day).Scan(&done)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return done, err
	})
}

// DeleteByUser removes every progress row of a user.
func (r *ProgressRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Dialect.Rebind("DELETE FROM user_progress WHERE user_id = ?"), userID)
	if err != nil {
		return 0, translate(err)
	}
	return res.RowsAffected()
}
