package mirror

import (
	"context"
	"sort"

	"github.com/iliyamo/devocional/internal/model"
)

// Reader mirrors what a reader sees: months, the devotionals of the
// current month, the activity link of the open day and the completed
// days.  CompletedDays always comes from the progress store.
type Reader struct {
	content  ReaderStore
	progress ProgressStore
	userID   string

	Months        []model.Month
	MonthID       int
	Devotionals   []model.Devotional
	CompletedDays []int

	Day         int
	ActivityURL string
}

func NewReader(content ReaderStore, progress ProgressStore, userID string) *Reader {
	return &Reader{content: content, progress: progress, userID: userID}
}

func (r *Reader) LoadMonths(ctx context.Context) error {
	months, err := r.content.ListMonths(ctx)
	if err != nil {
		return err
	}
	r.Months = months
	return nil
}

// Month returns the loaded month with id, or nil.
func (r *Reader) Month(id int) *model.Month {
	for i := range r.Months {
		if r.Months[i].ID == id {
			return &r.Months[i]
		}
	}
	return nil
}

// EnterMonth re-reads the month's devotionals and completed days.
func (r *Reader) EnterMonth(ctx context.Context, month int) error {
	list, err := r.content.ListDevotionals(ctx, month)
	if err != nil {
		return err
	}
	done, err := r.progress.CompletedDays(ctx, r.userID, month)
	if err != nil {
		return err
	}
	r.MonthID = month
	r.Devotionals = list
	r.CompletedDays = done
	r.Day = 0
	r.ActivityURL = ""
	return nil
}

// EnterDay opens day and fetches its activity link; the link is empty
// when the day has no configured activity.
func (r *Reader) EnterDay(ctx context.Context, day int) error {
	a, err := r.content.GetActivity(ctx, r.MonthID, day)
	if err != nil {
		return err
	}
	r.Day = day
	r.ActivityURL = ""
	if a != nil {
		r.ActivityURL = a.DriveURL
	}
	return nil
}

func (r *Reader) Devotional(day int) *model.Devotional {
	return findDevotional(r.Devotionals, day)
}

func (r *Reader) IsCompleted(day int) bool {
	i := sort.SearchInts(r.CompletedDays, day)
	return i < len(r.CompletedDays) && r.CompletedDays[i] == day
}

// Progress returns completed and total devotionals of the current month.
func (r *Reader) Progress() (completed, total int) {
	return len(r.CompletedDays), len(r.Devotionals)
}

// ToggleComplete flips the open day's completion from the mirrored state
// and applies the state the store reports back.
func (r *Reader) ToggleComplete(ctx context.Context, day int) (bool, error) {
	return r.ToggleFrom(ctx, day, r.IsCompleted(day))
}

// ToggleFrom flips completion from the state the reader saw when the
// request was made.  Repeating it with the same observed state leaves the
// stored state unchanged.
func (r *Reader) ToggleFrom(ctx context.Context, day int, observed bool) (bool, error) {
	done, err := r.progress.Toggle(ctx, r.userID, r.MonthID, day, observed)
	if err != nil {
		return r.IsCompleted(day), err
	}
	r.setCompleted(day, done)
	return done, nil
}

func (r *Reader) setCompleted(day int, done bool) {
	i := sort.SearchInts(r.CompletedDays, day)
	present := i < len(r.CompletedDays) && r.CompletedDays[i] == day
	switch {
	case done && !present:
		r.CompletedDays = append(r.CompletedDays, 0)
		copy(r.CompletedDays[i+1:], r.CompletedDays[i:])
		r.CompletedDays[i] = day
	case !done && present:
		r.CompletedDays = append(r.CompletedDays[:i], r.CompletedDays[i+1:]...)
	}
}
