package mirror

import (
	"context"
	"fmt"

	"github.com/iliyamo/devocional/internal/model"
)

// Admin mirrors the content an editor is working on: the month list, the
// devotionals of the current month only and the form of one day.
type Admin struct {
	store AdminStore
	actor string

	Months      []model.Month
	MonthID     int
	Devotionals []model.Devotional

	Day      int
	Form     model.DevotionalFields
	IsSaving bool
	// Saved turns true only after a successful save and false again on
	// any edit.
	Saved bool
}

// NewAdmin returns an empty mirror that writes on behalf of actor.
func NewAdmin(store AdminStore, actor string) *Admin {
	return &Admin{store: store, actor: actor}
}

func (a *Admin) LoadMonths(ctx context.Context) error {
	months, err := a.store.ListMonths(ctx)
	if err != nil {
		return err
	}
	a.Months = months
	return nil
}

// Month returns the loaded month with id, or nil.
func (a *Admin) Month(id int) *model.Month {
	for i := range a.Months {
		if a.Months[i].ID == id {
			return &a.Months[i]
		}
	}
	return nil
}

// EnterMonth replaces the devotionals with a fresh read of month and
// clears the open day.
func (a *Admin) EnterMonth(ctx context.Context, month int) error {
	list, err := a.store.ListDevotionals(ctx, month)
	if err != nil {
		return err
	}
	a.MonthID = month
	a.Devotionals = list
	a.Day = 0
	a.Form = model.DevotionalFields{}
	a.IsSaving, a.Saved = false, false
	return nil
}

// Devotional returns the current month's devotional for day, or nil.
func (a *Admin) Devotional(day int) *model.Devotional {
	return findDevotional(a.Devotionals, day)
}

// OpenDay loads the form of day from the mirror; a day without content
// opens an empty form.
func (a *Admin) OpenDay(day int) {
	a.Day = day
	a.Form = model.DevotionalFields{}
	if d := a.Devotional(day); d != nil {
		a.Form = d.Fields()
	}
	a.Saved = false
}

// Edit sets one form field by its column name.
func (a *Admin) Edit(field, value string) error {
	f := &a.Form
	switch field {
	case "title":
		f.Title = value
	case "story_title":
		f.StoryTitle = value
	case "story_content":
		f.StoryContent = value
	case "verse_text":
		f.VerseText = value
	case "verse_reference":
		f.VerseReference = value
	case "reflection_content":
		f.ReflectionContent = value
	case "prayer_content":
		f.PrayerContent = value
	case "image_url":
		f.ImageURL = &value
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	a.Saved = false
	return nil
}

// SetForm replaces the whole form, as a submitted page does.
func (a *Admin) SetForm(f model.DevotionalFields) {
	a.Form = f
	a.Saved = false
}

// Save upserts the open day.  On failure the form is kept as is.  When
// the day had no devotional yet the month is re-read.
func (a *Admin) Save(ctx context.Context) error {
	if a.MonthID == 0 || a.Day == 0 {
		return fmt.Errorf("no day open")
	}
	wasNew := a.Devotional(a.Day) == nil
	a.IsSaving = true
	a.Saved = false
	saved, err := a.store.UpsertDevotional(ctx, a.actor, a.MonthID, a.Day, a.Form)
	a.IsSaving = false
	if err != nil {
		return err
	}
	if wasNew {
		if err := a.EnterMonth(ctx, a.MonthID); err != nil {
			return err
		}
		a.OpenDay(saved.DayNumber)
	} else {
		*a.Devotional(a.Day) = saved
		a.Form = saved.Fields()
	}
	a.Saved = true
	return nil
}
