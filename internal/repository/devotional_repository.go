package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/devocional/internal/database"
	"github.com/iliyamo/devocional/internal/model"
)

// DevotionalRepo persists the per-day devotional content.
type DevotionalRepo struct{ db *database.DB }

func NewDevotionalRepo(db *database.DB) *DevotionalRepo { return &DevotionalRepo{db: db} }

const devotionalColumns = `month_id, day_number, title, story_title, story_content, verse_text,
	verse_reference, reflection_content, prayer_content, image_url, updated_at`

type rowScanner interface{ Scan(dest ...any) error }

func scanDevotional(s rowScanner) (model.Devotional, error) {
	var (
		d   model.Devotional
		img sql.NullString
	)
	err := s.Scan(&d.MonthID, &d.DayNumber, &d.Title, &d.StoryTitle, &d.StoryContent, &d.VerseText,
		&d.VerseReference, &d.ReflectionContent, &d.PrayerContent, &img, &d.UpdatedAt)
	d.ImageURL = nullString(img)
	return d, err
}

// ListByMonth returns the month's devotionals ordered by day.
func (r *DevotionalRepo) ListByMonth(ctx context.Context, monthID int) ([]model.Devotional, error) {
	return retryRead(ctx, func(ctx context.Context) ([]model.Devotional, error) {
		rows, err := r.db.QueryContext(ctx, r.db.Dialect.Rebind(
			"SELECT "+devotionalColumns+" FROM devotionals WHERE month_id = ? ORDER BY day_number"), monthID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		out := []model.Devotional{}
		for rows.Next() {
			d, err := scanDevotional(rows)
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		}
		return out, rows.Err()
	})
}

// Get returns the devotional for one day or ErrNotFound.
func (r *DevotionalRepo) Get(ctx context.Context, monthID, day int) (model.Devotional, error) {
	return retryRead(ctx, func(ctx context.Context) (model.Devotional, error) {
		return scanDevotional(r.db.QueryRowContext(ctx, r.db.Dialect.Rebind(
			"SELECT "+devotionalColumns+" FROM devotionals WHERE month_id = ? AND day_number = ?"), monthID, day))
	})
}

// Upsert inserts or overwrites the devotional keyed by (MonthID, DayNumber)
// and stamps UpdatedAt on d.
func (r *DevotionalRepo) Upsert(ctx context.Context, d *model.Devotional) error {
	d.UpdatedAt = now()
	q := fmt.Sprintf("INSERT INTO devotionals (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) %s",
		devotionalColumns,
		r.db.Dialect.Upsert([]string{"month_id", "day_number"}, []string{
			"title", "story_title", "story_content", "verse_text", "verse_reference",
			"reflection_content", "prayer_content", "image_url", "updated_at",
		}))
	_, err := r.db.ExecContext(ctx, r.db.Dialect.Rebind(q),
		d.MonthID, d.DayNumber, d.Title, d.StoryTitle, d.StoryContent, d.VerseText,
		d.VerseReference, d.ReflectionContent, d.PrayerContent, toNullString(d.ImageURL), d.UpdatedAt)
	return translate(err)
}

// DeleteAll removes every devotional.  Only the seed reset uses it.
func (r *DevotionalRepo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM devotionals")
	if err != nil {
		return 0, translate(err)
	}
	return res.RowsAffected()
}

// now is the single source of write timestamps.  Microsecond precision
// matches the coarsest timestamp column among the drivers.
func now() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
