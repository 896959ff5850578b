package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/iliyamo/devocional/internal/calendar"
	"github.com/iliyamo/devocional/internal/model"
	"github.com/iliyamo/devocional/internal/queue"
	"github.com/iliyamo/devocional/internal/repository"
)

// ContentService serves months, devotionals and activities.  Year bounds
// the valid days of each month.
type ContentService struct {
	Months      *repository.MonthRepo
	Devotionals *repository.DevotionalRepo
	Activities  *repository.ActivityRepo
	Year        int
	Events      queue.Publisher
	Logger      *slog.Logger
}

// DaysInMonth returns the day count of month in the configured year.
func (s *ContentService) DaysInMonth(month int) int {
	return calendar.DaysInMonth(calendar.Resolve(s.Year), month)
}

// ValidDay reports whether day exists in month for the configured year.
func (s *ContentService) ValidDay(month, day int) bool {
	return calendar.ValidDay(calendar.Resolve(s.Year), month, day)
}

func (s *ContentService) ListMonths(ctx context.Context) ([]model.Month, error) {
	return s.Months.List(ctx)
}

// GetMonth returns a month; ids outside 1..12 are a validation error.
func (s *ContentService) GetMonth(ctx context.Context, id int) (model.Month, error) {
	var v repository.ValidationErrors
	checkMonth(&v, id)
	if err := v.Err(); err != nil {
		return model.Month{}, err
	}
	return s.Months.Get(ctx, id)
}

// UpdateMonth changes a month's theme and icon.
func (s *ContentService) UpdateMonth(ctx context.Context, actor string, id int, theme, icon string) (model.Month, error) {
	theme, icon = strings.TrimSpace(theme), strings.TrimSpace(icon)
	var v repository.ValidationErrors
	checkMonth(&v, id)
	if theme == "" {
		v.Add("theme", "el tema es obligatorio")
	} else if runes(theme) > 255 {
		v.Add("theme", "el tema no puede superar 255 caracteres")
	}
	if icon == "" {
		v.Add("icon", "el ícono es obligatorio")
	} else if runes(icon) > 32 {
		v.Add("icon", "el ícono no puede superar 32 caracteres")
	}
	if err := v.Err(); err != nil {
		return model.Month{}, err
	}
	if err := s.Months.UpdateThemeIcon(ctx, id, theme, icon); err != nil {
		return model.Month{}, err
	}
	s.publish(ctx, queue.Event{Type: queue.EventMonthUpdated, ActorID: actor, MonthID: id})
	return s.Months.Get(ctx, id)
}

// ListDevotionals returns the month's devotionals ordered by day.
func (s *ContentService) ListDevotionals(ctx context.Context, month int) ([]model.Devotional, error) {
	var v repository.ValidationErrors
	checkMonth(&v, month)
	if err := v.Err(); err != nil {
		return nil, err
	}
	return s.Devotionals.ListByMonth(ctx, month)
}

// GetDevotional returns the day's devotional, or nil when none exists.
func (s *ContentService) GetDevotional(ctx context.Context, month, day int) (*model.Devotional, error) {
	var v repository.ValidationErrors
	checkDay(&v, calendar.Resolve(s.Year), month, day)
	if err := v.Err(); err != nil {
		return nil, err
	}
	d, err := s.Devotionals.Get(ctx, month, day)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// UpsertDevotional validates and stores the day's devotional.  Concurrent
// saves of the same day are last-writer-wins.
func (s *ContentService) UpsertDevotional(ctx context.Context, actor string, month, day int, f model.DevotionalFields) (model.Devotional, error) {
	f = normalizeDevotional(f)
	var v repository.ValidationErrors
	checkDay(&v, calendar.Resolve(s.Year), month, day)
	v = append(v, ValidateDevotional(f)...)
	if err := v.Err(); err != nil {
		return model.Devotional{}, err
	}
	d := model.Devotional{
		MonthID:           month,
		DayNumber:         day,
		Title:             f.Title,
		StoryTitle:        f.StoryTitle,
		StoryContent:      f.StoryContent,
		VerseText:         f.VerseText,
		VerseReference:    f.VerseReference,
		ReflectionContent: f.ReflectionContent,
		PrayerContent:     f.PrayerContent,
		ImageURL:          f.ImageURL,
	}
	if err := s.Devotionals.Upsert(ctx, &d); err != nil {
		return model.Devotional{}, err
	}
	s.publish(ctx, queue.Event{Type: queue.EventDevotionalSaved, ActorID: actor, MonthID: month, Day: day})
	return d, nil
}

// ListActivities returns one entry per calendar day of the month; days
// without a stored row come back unconfigured with an empty url.
func (s *ContentService) ListActivities(ctx context.Context, month int) ([]model.Activity, error) {
	var v repository.ValidationErrors
	checkMonth(&v, month)
	if err := v.Err(); err != nil {
		return nil, err
	}
	stored, err := s.Activities.ListByMonth(ctx, month)
	if err != nil {
		return nil, err
	}
	grid := make([]model.Activity, s.DaysInMonth(month))
	for i := range grid {
		grid[i] = model.Activity{MonthID: month, DayNumber: i + 1}
	}
	for _, a := range stored {
		if a.DayNumber >= 1 && a.DayNumber <= len(grid) {
			grid[a.DayNumber-1] = a
		}
	}
	return grid, nil
}

// UpsertActivity stores the activity url for a day.  The url must be
// empty (clears the activity) or an absolute http(s) URL.
func (s *ContentService) UpsertActivity(ctx context.Context, actor string, month, day int, url *string) (model.Activity, error) {
	var v repository.ValidationErrors
	checkDay(&v, calendar.Resolve(s.Year), month, day)
	if url != nil {
		if u := strings.TrimSpace(*url); u != "" && (!IsHTTPURL(u) || runes(u) > 1000) {
			v.Add("drive_url", "el enlace debe ser una URL válida")
		}
	}
	if err := v.Err(); err != nil {
		return model.Activity{}, err
	}
	a, err := s.Activities.Upsert(ctx, month, day, url)
	if err != nil {
		return model.Activity{}, err
	}
	s.publish(ctx, queue.Event{Type: queue.EventActivitySaved, ActorID: actor, MonthID: month, Day: day, Detail: a.DriveURL})
	return a, nil
}

// GetActivity returns the day's configured activity, or nil when there is
// none or its url is empty.
func (s *ContentService) GetActivity(ctx context.Context, month, day int) (*model.Activity, error) {
	var v repository.ValidationErrors
	checkDay(&v, calendar.Resolve(s.Year), month, day)
	if err := v.Err(); err != nil {
		return nil, err
	}
	a, err := s.Activities.GetConfigured(ctx, month, day)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *ContentService) publish(ctx context.Context, ev queue.Event) {
	publish(ctx, s.Events, s.Logger, ev)
}

// publish sends ev best effort; a broker failure never fails the request.
func publish(ctx context.Context, p queue.Publisher, logger *slog.Logger, ev queue.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil && logger != nil {
		logger.Warn("event publish failed", slog.String("type", ev.Type), slog.Any("error", err))
	}
}
