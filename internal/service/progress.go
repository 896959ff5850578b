package service

import (
	"context"

	"github.com/iliyamo/devocional/internal/calendar"

	"github.com/iliyamo/devocional/internal/repository"
)

// ProgressService records reader completion per day.  A zero Year means
// the current year.
type ProgressService struct {
	Progress *repository.ProgressRepo
	Year     int
}

// Toggle flips completion from the state the caller observed and returns
// the new state.
func (s *ProgressService) Toggle(ctx context.Context, userID string, month, day int, currentlyCompleted bool) (bool, error) {
	var v repository.ValidationErrors
	checkDay(&v, calendar.Resolve(s.Year), month, day)
	if err := v.Err(); err != nil {
		return currentlyCompleted, err
	}
	return s.Progress.Toggle(ctx, userID, month, day, currentlyCompleted)
}

// CompletedDays returns the completed days of a month for a reader.
func (s *ProgressService) CompletedDays(ctx context.Context, userID string, month int) ([]int, error) {
	var v repository.ValidationErrors
	checkMonth(&v, month)
	if err := v.Err(); err != nil {
		return nil, err
	}
	return s.Progress.CompletedDays(ctx, userID, month)
}

func (s *ProgressService) IsCompleted(ctx context.Context, userID string, month, day int) (bool, error) {
	var v repository.ValidationErrors
	checkDay(&v, calendar.Resolve(s.Year), month, day)
	if err := v.Err(); err != nil {
		return false, err
	}
	return s.Progress.IsCompleted(ctx, userID, month, day)
}
