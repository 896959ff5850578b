package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/devocional/internal/database"
	"github.com/iliyamo/devocional/internal/logger"
	"github.com/iliyamo/devocional/internal/model"
)

func testDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:", logger.Discard())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	months := NewMonthRepo(db)
	for id, name := range []string{"Enero", "Febrero", "Marzo"} {
		if err := months.Upsert(context.Background(), model.Month{ID: id + 1, Name: name}); err != nil {
			t.Fatalf("seed month: %v", err)
		}
	}
	return db
}

func strPtr(s string) *string { return &s }

func TestMonthRepo(t *testing.T) {
	db := testDB(t)
	repo := NewMonthRepo(db)
	ctx := context.Background()

	if err := repo.UpdateThemeIcon(ctx, 1, "Amor de Dios", "❤️"); err != nil {
		t.Fatalf("UpdateThemeIcon() error = %v", err)
	}
	// Same values again must not look like a missing row.
	if err := repo.UpdateThemeIcon(ctx, 1, "Amor de Dios", "❤️"); err != nil {
		t.Fatalf("UpdateThemeIcon() repeat error = %v", err)
	}
	if err := repo.UpdateThemeIcon(ctx, 12, "x", "y"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateThemeIcon(missing) error = %v, want ErrNotFound", err)
	}

	months, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(months) != 3 || months[0].ID != 1 || months[2].ID != 3 {
		t.Fatalf("List() = %+v", months)
	}
	if months[0].Theme != "Amor de Dios" || months[0].Icon != "❤️" || months[0].Name != "Enero" {
		t.Errorf("month 1 = %+v", months[0])
	}
}

func TestDevotionalRoundTrip(t *testing.T) {
	db := testDB(t)
	repo := NewDevotionalRepo(db)
	ctx := context.Background()

	d := model.Devotional{
		MonthID: 2, DayNumber: 14,
		Title:             "Dios es amor",
		StoryTitle:        "El buen samaritano",
		StoryContent:      "Un hombre iba de Jerusalén a Jericó...",
		VerseText:         "Dios es amor",
		VerseReference:    "1 Juan 4:8",
		ReflectionContent: "El amor de Dios no tiene fin.",
		PrayerContent:     "Gracias, Señor.",
		ImageURL:          strPtr("https://example.com/a.png"),
	}
	if err := repo.Upsert(ctx, &d); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	first := d.UpdatedAt

	got, err := repo.Get(ctx, 2, 14)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !sameFields(got.Fields(), d.Fields()) {
		t.Errorf("Get() fields = %+v, want %+v", got.Fields(), d.Fields())
	}
	if !got.UpdatedAt.Equal(first) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, first)
	}

	time.Sleep(2 * time.Millisecond)
	d.Title = "Dios es amor siempre"
	d.ImageURL = nil
	if err := repo.Upsert(ctx, &d); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}
	got, _ = repo.Get(ctx, 2, 14)
	if got.Title != "Dios es amor siempre" || got.ImageURL != nil {
		t.Errorf("overwrite not applied: %+v", got)
	}
	if !got.UpdatedAt.After(first) {
		t.Errorf("UpdatedAt not refreshed: %v <= %v", got.UpdatedAt, first)
	}

	list, _ := repo.ListByMonth(ctx, 2)
	if len(list) != 1 {
		t.Errorf("ListByMonth() len = %d, want 1 (upsert must not duplicate)", len(list))
	}
	if _, err := repo.Get(ctx, 2, 15); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func sameFields(a, b model.DevotionalFields) bool {
	if (a.ImageURL == nil) != (b.ImageURL == nil) {
		return false
	}
	if a.ImageURL != nil && *a.ImageURL != *b.ImageURL {
		return false
	}
	a.ImageURL, b.ImageURL = nil, nil
	return a == b
}

func TestEneroScenario(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	devs := NewDevotionalRepo(db)
	acts := NewActivityRepo(db)

	d := model.Devotional{MonthID: 1, DayNumber: 1, Title: "Amor"}
	if err := devs.Upsert(ctx, &d); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	list, err := devs.ListByMonth(ctx, 1)
	if err != nil {
		t.Fatalf("ListByMonth() error = %v", err)
	}
	if len(list) < 1 || list[0].DayNumber != 1 || list[0].Title != "Amor" {
		t.Fatalf("ListByMonth(1) = %+v", list)
	}

	a, err := acts.Upsert(ctx, 1, 1, strPtr(""))
	if err != nil || a.IsConfigured {
		t.Fatalf("Upsert(\"\") = %+v, %v; want unconfigured", a, err)
	}
	a, err = acts.Upsert(ctx, 1, 1, strPtr("https://x"))
	if err != nil || !a.IsConfigured {
		t.Fatalf("Upsert(https://x) = %+v, %v; want configured", a, err)
	}
	stored, _ := acts.ListByMonth(ctx, 1)
	if len(stored) != 1 || !stored[0].IsConfigured || stored[0].DriveURL != "https://x" {
		t.Errorf("stored activities = %+v", stored)
	}
}

func TestActivityConfiguredInvariant(t *testing.T) {
	db := testDB(t)
	repo := NewActivityRepo(db)
	ctx := context.Background()

	tests := []struct {
		name    string
		url     *string
		wantURL string
		want    bool
	}{
		{"empty", strPtr(""), "", false},
		{"whitespace", strPtr("   "), "", false},
		{"null", nil, "", false},
		{"url", strPtr("https://x"), "https://x", true},
		{"padded url", strPtr("  https://x  "), "https://x", true},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day := i + 1
			a, err := repo.Upsert(ctx, 3, day, tt.url)
			if err != nil {
				t.Fatalf("Upsert() error = %v", err)
			}
			if a.IsConfigured != tt.want || a.DriveURL != tt.wantURL {
				t.Errorf("Upsert() = %+v, want url %q configured %v", a, tt.wantURL, tt.want)
			}
			_, err = repo.GetConfigured(ctx, 3, day)
			if tt.want && err != nil {
				t.Errorf("GetConfigured() error = %v", err)
			}
			if !tt.want && !errors.Is(err, ErrNotFound) {
				t.Errorf("GetConfigured() error = %v, want ErrNotFound for unconfigured row", err)
			}
		})
	}
}

func TestProgressToggle(t *testing.T) {
	db := testDB(t)
	repo := NewProgressRepo(db)
	ctx := context.Background()
	const user = "reader-1"

	// Not completed -> completed -> not completed returns to the start.
	done, err := repo.Toggle(ctx, user, 1, 5, false)
	if err != nil || !done {
		t.Fatalf("Toggle(false) = %v, %v", done, err)
	}
	if ok, _ := repo.IsCompleted(ctx, user, 1, 5); !ok {
		t.Fatal("day not completed after toggle")
	}
	done, err = repo.Toggle(ctx, user, 1, 5, true)
	if err != nil || done {
		t.Fatalf("Toggle(true) = %v, %v", done, err)
	}
	if ok, _ := repo.IsCompleted(ctx, user, 1, 5); ok {
		t.Fatal("day still completed after second toggle")
	}

	// Repeating the same observed state is idempotent.
	repo.Toggle(ctx, user, 1, 6, false)
	repo.Toggle(ctx, user, 1, 6, false)
	var rows int
	db.QueryRowContext(ctx, "SELECT COUNT(*) FROM user_progress WHERE user_id = ? AND month_id = 1 AND day_number = 6", user).Scan(&rows)
	if rows != 1 {
		t.Errorf("rows for key = %d, want 1", rows)
	}

	// A stale flag (caller thinks completed, it is not) leaves it not completed,
	// the opposite of what the caller expected to happen.
	done, _ = repo.Toggle(ctx, user, 1, 7, true)
	if ok, _ := repo.IsCompleted(ctx, user, 1, 7); ok || done {
		t.Error("stale toggle completed the day")
	}

	days, err := repo.CompletedDays(ctx, user, 1)
	if err != nil {
		t.Fatalf("CompletedDays() error = %v", err)
	}
	if len(days) != 1 || days[0] != 6 {
		t.Errorf("CompletedDays() = %v, want [6]", days)
	}

	n, err := repo.DeleteByUser(ctx, user)
	if err != nil || n != 2 {
		t.Errorf("DeleteByUser() = %d, %v; want 2 rows", n, err)
	}
}

func TestIdentityAndProfiles(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	ids := NewIdentityRepo(db)
	profiles := NewProfileRepo(db)
	progress := NewProgressRepo(db)

	reader, err := ids.Create(ctx, "  Lucia@Example.com ", "secreto", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if reader.Email != "lucia@example.com" || len(reader.ID) != 36 {
		t.Errorf("identity = %+v", reader)
	}
	if _, err := ids.Create(ctx, "lucia@example.com", "otro123", bcrypt.MinCost); !errors.Is(err, ErrEmailExists) {
		t.Errorf("duplicate Create() error = %v, want ErrEmailExists", err)
	}
	if got, err := ids.GetByEmail(ctx, "LUCIA@example.com"); err != nil || got.ID != reader.ID {
		t.Errorf("GetByEmail() = %+v, %v", got, err)
	}

	admin, _ := ids.Create(ctx, "admin@example.com", "secreto", bcrypt.MinCost)
	if err := profiles.Create(ctx, &model.Profile{ID: admin.ID, Username: "Admin", Role: model.RoleAdmin,
		CreatedAt: time.Now().UTC().Add(-time.Hour)}); err != nil {
		t.Fatalf("Create(admin profile) error = %v", err)
	}
	if err := profiles.Create(ctx, &model.Profile{ID: reader.ID, Username: "Lucía"}); err != nil {
		t.Fatalf("Create(reader profile) error = %v", err)
	}
	if err := profiles.Create(ctx, &model.Profile{ID: reader.ID, Username: "again"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate profile error = %v, want ErrDuplicate", err)
	}
	p, _ := profiles.Get(ctx, reader.ID)
	if p.Role != model.RoleUser {
		t.Errorf("default role = %q, want user", p.Role)
	}

	progress.Toggle(ctx, reader.ID, 1, 1, false)
	progress.Toggle(ctx, reader.ID, 1, 2, false)
	progress.Toggle(ctx, reader.ID, 1, 3, false)
	progress.Toggle(ctx, reader.ID, 1, 3, true)

	rows, err := profiles.ListWithStats(ctx)
	if err != nil {
		t.Fatalf("ListWithStats() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("ListWithStats() len = %d, want 2", len(rows))
	}
	// Newest first: the reader was created after the back-dated admin.
	if rows[0].ID != reader.ID || rows[0].Email != "lucia@example.com" || rows[0].DevotionalsRead != 2 || rows[0].IsAdmin {
		t.Errorf("reader row = %+v", rows[0])
	}
	if !rows[1].IsAdmin {
		t.Errorf("admin row not flagged: %+v", rows[1])
	}

	// Admins are refused at the data layer.
	if err := ids.Delete(ctx, admin.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("Delete(admin identity) error = %v, want ErrForbidden", err)
	}
	if err := profiles.Delete(ctx, admin.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("Delete(admin profile) error = %v, want ErrForbidden", err)
	}

	if err := ids.Delete(ctx, reader.ID); err != nil {
		t.Fatalf("Delete(reader identity) error = %v", err)
	}
	if err := profiles.Delete(ctx, reader.ID); err != nil {
		t.Fatalf("Delete(reader profile) error = %v", err)
	}
	if err := profiles.Delete(ctx, reader.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := ids.GetByID(ctx, reader.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID(deleted) error = %v, want ErrNotFound", err)
	}
	if _, err := ids.GetByID(ctx, admin.ID); err != nil {
		t.Errorf("GetByID(admin) error = %v", err)
	}
}

func TestTokenRepo(t *testing.T) {
	db := testDB(t)
	repo := NewTokenRepo(db)
	ctx := context.Background()

	if err := repo.StoreRefresh(ctx, "u1", "hash-a", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("StoreRefresh() error = %v", err)
	}
	repo.StoreRefresh(ctx, "u1", "hash-b", time.Now().Add(time.Hour))
	repo.StoreRefresh(ctx, "u1", "hash-old", time.Now().Add(-time.Hour))

	if uid, err := repo.ValidateRefresh(ctx, "hash-a"); err != nil || uid != "u1" {
		t.Errorf("ValidateRefresh() = %q, %v", uid, err)
	}
	if _, err := repo.ValidateRefresh(ctx, "hash-old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired token error = %v, want ErrNotFound", err)
	}
	if _, err := repo.ValidateRefresh(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown token error = %v, want ErrNotFound", err)
	}
	repo.RevokeByHash(ctx, "hash-a")
	if _, err := repo.ValidateRefresh(ctx, "hash-a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("revoked token error = %v, want ErrNotFound", err)
	}
	repo.RevokeAllForUser(ctx, "u1")
	if _, err := repo.ValidateRefresh(ctx, "hash-b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("token after RevokeAllForUser error = %v, want ErrNotFound", err)
	}
}

func TestRetryRead(t *testing.T) {
	saved := ReadBackoff
	ReadBackoff = Backoff{Attempts: 3, Initial: time.Millisecond, Max: 2 * time.Millisecond}
	t.Cleanup(func() { ReadBackoff = saved })
	ctx := context.Background()

	calls := 0
	got, err := retryRead(ctx, func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, fmt.Errorf("query: %w", context.DeadlineExceeded)
		}
		return 42, nil
	})
	if err != nil || got != 42 || calls != 3 {
		t.Errorf("transient read = %d, %v after %d calls; want 42 after 3", got, err, calls)
	}

	calls = 0
	_, err = retryRead(ctx, func(context.Context) (int, error) {
		calls++
		return 0, fmt.Errorf("query: %w", context.DeadlineExceeded)
	})
	if !errors.Is(err, ErrTransient) || calls != 3 {
		t.Errorf("exhausted read error = %v after %d calls; want ErrTransient after 3", err, calls)
	}

	calls = 0
	_, err = retryRead(ctx, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("syntax error")
	})
	if err == nil || calls != 1 {
		t.Errorf("permanent read retried %d times", calls)
	}
}

func TestFieldErrors(t *testing.T) {
	var v ValidationErrors
	v.Add("title", "too short")
	v.Add("title", "second message")
	v.Add("verse_text", "required")
	fields, ok := FieldErrors(fmt.Errorf("save: %w", v.Err()))
	if !ok || fields["title"] != "too short" || fields["verse_text"] != "required" {
		t.Errorf("FieldErrors() = %v, %v", fields, ok)
	}
	if _, ok := FieldErrors(ValidationError{Field: "password", Message: "short"}); !ok {
		t.Error("FieldErrors(single) not recognised")
	}
	if ValidationErrors(nil).Err() != nil {
		t.Error("empty ValidationErrors.Err() != nil")
	}
}

func TestTokenRepo_Rotate(t *testing.T) {
	db := testDB(t)
	repo := NewTokenRepo(db)
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)
	for _, h := range []string{"hash-a", "hash-b", "hash-c"} {
		if err := repo.StoreRefresh(ctx, "u1", h, exp); err != nil {
			t.Fatalf("StoreRefresh(%s) error = %v", h, err)
		}
	}

	const callers = 8
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Rotate(ctx, "hash-a")
			if err != nil && !errors.Is(err, ErrNotFound) {
				t.Errorf("Rotate() error = %v", err)
			}
			if err == nil {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if won != 1 {
		t.Fatalf("%d callers rotated the same token, want 1", won)
	}
	if _, err := repo.ValidateRefresh(ctx, "hash-a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("rotated token still valid: %v", err)
	}

	if uid, err := repo.RotatedSince(ctx, "hash-a", time.Now().Add(-time.Minute)); err != nil || uid != "u1" {
		t.Errorf("RotatedSince(recent) = %q, %v", uid, err)
	}
	if _, err := repo.RotatedSince(ctx, "hash-a", time.Now().Add(time.Minute)); !errors.Is(err, ErrNotFound) {
		t.Errorf("RotatedSince(after rotation) error = %v, want ErrNotFound", err)
	}
	if _, err := repo.RotatedSince(ctx, "hash-b", time.Now().Add(-time.Minute)); !errors.Is(err, ErrNotFound) {
		t.Errorf("RotatedSince(live token) error = %v, want ErrNotFound", err)
	}
	repo.RevokeByHash(ctx, "hash-c")
	if _, err := repo.RotatedSince(ctx, "hash-c", time.Now().Add(-time.Minute)); !errors.Is(err, ErrNotFound) {
		t.Errorf("RotatedSince(signed out) error = %v, want ErrNotFound", err)
	}

	if err := repo.RevokeAllForUser(ctx, "u1"); err != nil {
		t.Fatalf("RevokeAllForUser() error = %v", err)
	}
	if _, err := repo.RotatedSince(ctx, "hash-a", time.Now().Add(-time.Minute)); !errors.Is(err, ErrNotFound) {
		t.Errorf("RotatedSince after RevokeAllForUser error = %v, want ErrNotFound", err)
	}
}
