// Package mirror keeps per-request views of the store for the admin and
// reader pages and for the resolved session.  Mirrors are plain values
// built for one request or session; nothing here is shared between
// sessions.  Entering a month always re-reads it in full.
package mirror

import (
	"context"

	"github.com/iliyamo/devocional/internal/auth"
	"github.com/iliyamo/devocional/internal/model"
)

// MonthSource lists months and a month's devotionals.
type MonthSource interface {
	ListMonths(ctx context.Context) ([]model.Month, error)
	ListDevotionals(ctx context.Context, month int) ([]model.Devotional, error)
}

// AdminStore is what the admin mirror reads and writes.
type AdminStore interface {
	MonthSource
	UpsertDevotional(ctx context.Context, actor string, month, day int, f model.DevotionalFields) (model.Devotional, error)
}

// ReaderStore is what the reader mirror reads.
type ReaderStore interface {
	MonthSource
	GetActivity(ctx context.Context, month, day int) (*model.Activity, error)
}

// ProgressStore reads and toggles reader completion.
type ProgressStore interface {
	CompletedDays(ctx context.Context, userID string, month int) ([]int, error)
	Toggle(ctx context.Context, userID string, month, day int, currentlyCompleted bool) (bool, error)
}

// SessionResolver loads the identity and profile behind a user id.
type SessionResolver interface {
	Resolve(ctx context.Context, userID string) (*auth.Session, error)
}

func findDevotional(list []model.Devotional, day int) *model.Devotional {
	for i := range list {
		if list[i].DayNumber == day {
			return &list[i]
		}
	}
	return nil
}
