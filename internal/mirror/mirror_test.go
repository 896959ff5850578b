package mirror

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/devocional/internal/auth"
	"github.com/iliyamo/devocional/internal/model"
	"github.com/iliyamo/devocional/internal/repository"
)

type fakeStore struct {
	months    []model.Month
	devs      map[int][]model.Devotional
	acts      map[[2]int]string
	done      map[[2]int]bool
	listCalls int
	failSave  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		months: []model.Month{{ID: 1, Name: "Enero"}, {ID: 2, Name: "Febrero"}},
		devs: map[int][]model.Devotional{
			1: {{MonthID: 1, DayNumber: 1, Title: "Amor"}, {MonthID: 1, DayNumber: 2, Title: "Fe"}},
		},
		acts: map[[2]int]string{},
		done: map[[2]int]bool{},
	}
}

func (f *fakeStore) ListMonths(context.Context) ([]model.Month, error) { return f.months, nil }

func (f *fakeStore) ListDevotionals(_ context.Context, month int) ([]model.Devotional, error) {
	f.listCalls++
	return append([]model.Devotional(nil), f.devs[month]...), nil
}

func (f *fakeStore) UpsertDevotional(_ context.Context, _ string, month, day int, fields model.DevotionalFields) (model.Devotional, error) {
	if f.failSave != nil {
		return model.Devotional{}, f.failSave
	}
	d := model.Devotional{MonthID: month, DayNumber: day, Title: fields.Title, VerseText: fields.VerseText}
	for i, existing := range f.devs[month] {
		if existing.DayNumber == day {
			f.devs[month][i] = d
			return d, nil
		}
	}
	f.devs[month] = append(f.devs[month], d)
	return d, nil
}

func (f *fakeStore) GetActivity(_ context.Context, month, day int) (*model.Activity, error) {
	url := f.acts[[2]int{month, day}]
	if url == "" {
		return nil, nil
	}
	return &model.Activity{MonthID: month, DayNumber: day, DriveURL: url, IsConfigured: true}, nil
}

func (f *fakeStore) CompletedDays(_ context.Context, _ string, month int) ([]int, error) {
	var out []int
	for day := 1; day <= 31; day++ {
		if f.done[[2]int{month, day}] {
			out = append(out, day)
		}
	}
	return out, nil
}

func (f *fakeStore) Toggle(_ context.Context, _ string, month, day int, current bool) (bool, error) {
	f.done[[2]int{month, day}] = !current
	return !current, nil
}

func TestAdmin_SavedFlag(t *testing.T) {
	store := newFakeStore()
	a := NewAdmin(store, "admin-1")
	ctx := context.Background()

	if err := a.EnterMonth(ctx, 1); err != nil {
		t.Fatal(err)
	}
	a.OpenDay(1)
	if a.Form.Title != "Amor" {
		t.Fatalf("form title = %q, want Amor", a.Form.Title)
	}
	if err := a.Edit("title", "Amor eterno"); err != nil {
		t.Fatal(err)
	}
	if a.Saved {
		t.Fatal("Saved true before saving")
	}
	if err := a.Save(ctx); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !a.Saved || a.IsSaving {
		t.Errorf("after save Saved=%v IsSaving=%v", a.Saved, a.IsSaving)
	}
	if a.Devotional(1).Title != "Amor eterno" {
		t.Errorf("mirror not updated: %+v", a.Devotional(1))
	}
	a.Edit("verse_text", "Dios es amor")
	if a.Saved {
		t.Error("edit did not reset Saved")
	}
	if err := a.Edit("nope", "x"); err == nil {
		t.Error("Edit(unknown) error = nil")
	}
}

func TestAdmin_SaveFailureKeepsForm(t *testing.T) {
	store := newFakeStore()
	store.failSave = errors.New("backend down")
	a := NewAdmin(store, "admin-1")
	ctx := context.Background()
	a.EnterMonth(ctx, 1)
	a.OpenDay(2)
	a.Edit("title", "Esperanza")

	if err := a.Save(ctx); err == nil {
		t.Fatal("Save() error = nil")
	}
	if a.Saved || a.IsSaving || a.Form.Title != "Esperanza" {
		t.Errorf("after failure Saved=%v IsSaving=%v title=%q", a.Saved, a.IsSaving, a.Form.Title)
	}
}

func TestAdmin_NewDayRefetches(t *testing.T) {
	store := newFakeStore()
	a := NewAdmin(store, "admin-1")
	ctx := context.Background()
	a.EnterMonth(ctx, 1)
	a.OpenDay(5)
	if a.Form.Title != "" {
		t.Fatalf("new day form not empty: %+v", a.Form)
	}
	a.Edit("title", "Gozo")
	calls := store.listCalls
	if err := a.Save(ctx); err != nil {
		t.Fatal(err)
	}
	if store.listCalls != calls+1 {
		t.Errorf("month not re-read after saving a new day")
	}
	if a.Devotional(5) == nil || a.Day != 5 || !a.Saved {
		t.Errorf("mirror after new-day save: day=%d saved=%v devs=%+v", a.Day, a.Saved, a.Devotionals)
	}
}

func TestAdmin_EnterMonthReplaces(t *testing.T) {
	store := newFakeStore()
	a := NewAdmin(store, "admin-1")
	ctx := context.Background()
	a.EnterMonth(ctx, 1)
	a.EnterMonth(ctx, 2)
	if len(a.Devotionals) != 0 || a.MonthID != 2 {
		t.Errorf("month 2 mirror = %+v", a.Devotionals)
	}
	if err := a.Save(ctx); err == nil {
		t.Error("Save() without an open day succeeded")
	}
}

func TestReader(t *testing.T) {
	store := newFakeStore()
	store.acts[[2]int{1, 1}] = "https://drive/x"
	store.done[[2]int{1, 2}] = true
	r := NewReader(store, store, "reader-1")
	ctx := context.Background()

	if err := r.LoadMonths(ctx); err != nil || r.Month(2) == nil {
		t.Fatalf("LoadMonths() = %v", err)
	}
	if err := r.EnterMonth(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if !r.IsCompleted(2) || r.IsCompleted(1) {
		t.Errorf("CompletedDays = %v", r.CompletedDays)
	}
	if err := r.EnterDay(ctx, 1); err != nil || r.ActivityURL != "https://drive/x" {
		t.Errorf("EnterDay(1) url = %q, %v", r.ActivityURL, err)
	}
	if err := r.EnterDay(ctx, 2); err != nil || r.ActivityURL != "" {
		t.Errorf("EnterDay(2) url = %q, %v", r.ActivityURL, err)
	}

	done, err := r.ToggleComplete(ctx, 1)
	if err != nil || !done || !r.IsCompleted(1) {
		t.Fatalf("ToggleComplete(1) = %v, %v; days %v", done, err, r.CompletedDays)
	}
	done, _ = r.ToggleComplete(ctx, 2)
	if done || r.IsCompleted(2) {
		t.Errorf("ToggleComplete(2) = %v; days %v", done, r.CompletedDays)
	}
	if c, total := r.Progress(); c != 1 || total != 2 {
		t.Errorf("Progress() = %d/%d, want 1/2", c, total)
	}

	// The store changes behind the mirror; re-entering picks it up.
	store.done[[2]int{1, 3}] = true
	r.EnterMonth(ctx, 1)
	if !r.IsCompleted(3) {
		t.Errorf("EnterMonth did not re-read progress: %v", r.CompletedDays)
	}
}

type fakeResolver struct {
	sess *auth.Session
	err  error
}

func (f fakeResolver) Resolve(context.Context, string) (*auth.Session, error) { return f.sess, f.err }

func TestAuthMirror(t *testing.T) {
	ctx := context.Background()
	admin := &auth.Session{
		Identity: model.Identity{ID: "a1"},
		Profile:  &model.Profile{ID: "a1", Role: model.RoleAdmin},
	}

	m := NewAuth(fakeResolver{sess: admin})
	if !m.Resolution().Pending || m.Status != Loading {
		t.Fatal("new mirror is not loading")
	}
	if err := m.Resolve(ctx, "a1"); err != nil || m.Status != Present {
		t.Fatalf("Resolve() = %v, status %v", err, m.Status)
	}
	if r := m.Resolution(); r.Pending || r.Principal.Kind != auth.Admin {
		t.Errorf("Resolution() = %+v", r)
	}

	m = NewAuth(fakeResolver{err: repository.ErrNotFound})
	m.Resolve(ctx, "gone")
	if m.Status != Absent || m.Principal().Kind != auth.Unauthenticated {
		t.Errorf("deleted identity status = %v", m.Status)
	}

	m = NewAuth(fakeResolver{sess: admin})
	m.Resolve(ctx, "")
	if m.Status != Absent {
		t.Errorf("empty user id status = %v", m.Status)
	}

	m = NewAuth(fakeResolver{err: repository.ErrTransient})
	if err := m.Resolve(ctx, "a1"); err == nil || m.Status != Loading {
		t.Errorf("transient failure: err=%v status=%v, want error and loading", err, m.Status)
	}
	if d := auth.Gate(m.Resolution(), auth.SectionAdmin); d.Action != auth.ActionLoading {
		t.Errorf("gate on unresolved session = %+v, want loading", d)
	}
}
