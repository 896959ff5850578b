package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/devocional/internal/auth"
	"github.com/iliyamo/devocional/internal/logger"
	"github.com/iliyamo/devocional/internal/middleware"
	"github.com/iliyamo/devocional/internal/mirror"
	"github.com/iliyamo/devocional/internal/model"
	"github.com/iliyamo/devocional/internal/repository"
	"github.com/iliyamo/devocional/internal/service"
	"github.com/iliyamo/devocional/internal/web"
)

// PageHandler renders the HTML site.  Admin and reader pages build a
// fresh mirror per request, so every month switch re-reads the store.
type PageHandler struct {
	Auth     *service.AuthService
	Content  *service.ContentService
	Progress *service.ProgressService
	Users    *service.UserService
	Cache    Purger
	Secure   bool
	Timeout  time.Duration
}

func (h *PageHandler) page(c echo.Context, title string, data any) web.Page {
	return web.Page{
		Title:     title,
		User:      middleware.PrincipalOf(c),
		CSRFToken: middleware.CSRFToken(c),
		Data:      data,
	}
}

// fail renders the error page for err.  Validation problems on a path
// parameter and missing rows end up here too.
func (h *PageHandler) fail(c echo.Context, err error) error {
	status, msg, _ := describe(err)
	if status >= http.StatusInternalServerError {
		logger.Error(c.Request().Context(), "page failed", err, "path", c.Request().URL.Path)
	}
	p := h.page(c, "Error", nil)
	p.Error = msg
	return c.Render(status, "error.html", p)
}

// ---- login ----

type loginForm struct{ Email string }

// Login shows the sign-in form, or sends a signed-in user home.
func (h *PageHandler) Login(c echo.Context) error {
	if p := middleware.PrincipalOf(c); p.Kind != auth.Unauthenticated {
		return c.Redirect(http.StatusSeeOther, auth.Home(p))
	}
	return c.Render(http.StatusOK, "login.html", h.page(c, "Iniciar sesión", loginForm{}))
}

// LoginSubmit signs in from the form and redirects by role.
func (h *PageHandler) LoginSubmit(c echo.Context) error {
	email, password := c.FormValue("email"), c.FormValue("password")
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	tokens, err := h.Auth.SignIn(ctx, email, password)
	if err != nil {
		status, msg, fields := describe(err)
		p := h.page(c, "Iniciar sesión", loginForm{Email: email})
		p.Error, p.Fields = msg, fields
		return c.Render(status, "login.html", p)
	}
	middleware.SetSessionCookies(c, tokens, h.Secure)
	kind := auth.Reader
	if tokens.Role == model.RoleAdmin {
		kind = auth.Admin
	}
	return c.Redirect(http.StatusSeeOther, auth.Home(auth.Principal{Kind: kind}))
}

// Logout ends the session and returns to the sign-in page.
func (h *PageHandler) Logout(c echo.Context) error {
	if ck, err := c.Cookie(middleware.RefreshCookie); err == nil {
		ctx, cancel := withTimeout(c, h.Timeout)
		defer cancel()
		if err := h.Auth.SignOut(ctx, ck.Value); err != nil {
			logger.Warn(ctx, "sign out failed", "error", err)
		}
	}
	middleware.ClearSessionCookies(c, h.Secure)
	return c.Redirect(http.StatusSeeOther, "/")
}

// ---- admin content ----

// AdminMonths lists the months for editing.
func (h *PageHandler) AdminMonths(c echo.Context) error {
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	m := mirror.NewAdmin(h.Content, actor(c))
	if err := m.LoadMonths(ctx); err != nil {
		return h.fail(c, err)
	}
	return c.Render(http.StatusOK, "admin_months.html", h.page(c, "Meses", echo.Map{"Months": m.Months}))
}

// adminMonthData is the view of one month in the editor.
func (h *PageHandler) adminMonthData(m *mirror.Admin, month *model.Month) echo.Map {
	written := make([]int, 0, len(m.Devotionals))
	for _, d := range m.Devotionals {
		written = append(written, d.DayNumber)
	}
	return echo.Map{
		"Month":       month,
		"Days":        h.Content.DaysInMonth(m.MonthID),
		"Devotionals": m.Devotionals,
		"Written":     written,
	}
}

// enterAdminMonth loads the months and enters month.
func (h *PageHandler) enterAdminMonth(c echo.Context, month int) (*mirror.Admin, *model.Month, error) {
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	m := mirror.NewAdmin(h.Content, actor(c))
	if err := m.LoadMonths(ctx); err != nil {
		return nil, nil, err
	}
	mo := m.Month(month)
	if mo == nil {
		return nil, nil, repository.ErrNotFound
	}
	if err := m.EnterMonth(ctx, month); err != nil {
		return nil, nil, err
	}
	return m, mo, nil
}

// AdminMonth shows the days of a month and its theme form.
func (h *PageHandler) AdminMonth(c echo.Context) error {
	month, err := intParam(c, "month")
	if err != nil {
		return h.fail(c, err)
	}
	m, mo, err := h.enterAdminMonth(c, month)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Render(http.StatusOK, "admin_month.html", h.page(c, mo.Name, h.adminMonthData(m, mo)))
}

// AdminMonthSave updates theme and icon of a month.
func (h *PageHandler) AdminMonthSave(c echo.Context) error {
	month, err := intParam(c, "month")
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	_, err = h.Content.UpdateMonth(ctx, actor(c), month, c.FormValue("theme"), c.FormValue("icon"))
	if fields, ok := repository.FieldErrors(err); ok {
		m, mo, lerr := h.enterAdminMonth(c, month)
		if lerr != nil {
			return h.fail(c, lerr)
		}
		mo.Theme, mo.Icon = c.FormValue("theme"), c.FormValue("icon")
		p := h.page(c, mo.Name, h.adminMonthData(m, mo))
		p.Fields = fields
		return c.Render(http.StatusBadRequest, "admin_month.html", p)
	}
	if err != nil {
		return h.fail(c, err)
	}
	purge(ctx, h.Cache)
	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/admin/%d", month))
}

func formFields(c echo.Context) model.DevotionalFields {
	f := model.DevotionalFields{
		Title:             c.FormValue("title"),
		StoryTitle:        c.FormValue("story_title"),
		StoryContent:      c.FormValue("story_content"),
		VerseText:         c.FormValue("verse_text"),
		VerseReference:    c.FormValue("verse_reference"),
		ReflectionContent: c.FormValue("reflection_content"),
		PrayerContent:     c.FormValue("prayer_content"),
	}
	if u := strings.TrimSpace(c.FormValue("image_url")); u != "" {
		f.ImageURL = &u
	}
	return f
}

func (h *PageHandler) adminDayData(m *mirror.Admin, mo *model.Month) echo.Map {
	var updated time.Time
	if d := m.Devotional(m.Day); d != nil {
		updated = d.UpdatedAt
	}
	return echo.Map{
		"Month":     mo,
		"Day":       m.Day,
		"Form":      m.Form,
		"Saved":     m.Saved,
		"UpdatedAt": updated,
	}
}

// adminDay enters month and opens day, rejecting days outside the
// calendar.
func (h *PageHandler) adminDay(c echo.Context) (*mirror.Admin, *model.Month, error) {
	month, day, err := monthDay(c)
	if err != nil {
		return nil, nil, err
	}
	if !h.Content.ValidDay(month, day) {
		return nil, nil, repository.ErrNotFound
	}
	m, mo, err := h.enterAdminMonth(c, month)
	if err != nil {
		return nil, nil, err
	}
	m.OpenDay(day)
	return m, mo, nil
}

// AdminDay shows the editor of one day.
func (h *PageHandler) AdminDay(c echo.Context) error {
	m, mo, err := h.adminDay(c)
	if err != nil {
		return h.fail(c, err)
	}
	title := fmt.Sprintf("%s · Día %d", mo.Name, m.Day)
	return c.Render(http.StatusOK, "admin_day.html", h.page(c, title, h.adminDayData(m, mo)))
}

// AdminDaySave validates and saves the day.  On failure the submitted
// form is shown again with the field messages.
func (h *PageHandler) AdminDaySave(c echo.Context) error {
	m, mo, err := h.adminDay(c)
	if err != nil {
		return h.fail(c, err)
	}
	m.SetForm(formFields(c))

	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	title := fmt.Sprintf("%s · Día %d", mo.Name, m.Day)
	if err := m.Save(ctx); err != nil {
		status, msg, fields := describe(err)
		if status >= http.StatusInternalServerError {
			logger.Error(ctx, "devotional save failed", err)
		}
		p := h.page(c, title, h.adminDayData(m, mo))
		p.Error, p.Fields = msg, fields
		return c.Render(status, "admin_day.html", p)
	}
	purge(ctx, h.Cache)
	return c.Render(http.StatusOK, "admin_day.html", h.page(c, title, h.adminDayData(m, mo)))
}

// ---- admin users ----

func (h *PageHandler) renderUsers(c echo.Context, status int, form createUserReq, flash string, fail error) error {
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	rows, err := h.Users.ListUsers(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	p := h.page(c, "Usuarios", echo.Map{"Users": rows, "Form": form})
	p.Flash = flash
	if fail != nil {
		_, p.Error, p.Fields = describe(fail)
		if errors.Is(fail, repository.ErrForbidden) {
			p.Error = "No se puede eliminar una cuenta de administrador"
		}
	}
	return c.Render(status, "admin_users.html", p)
}

// AdminUsers lists accounts with the creation form.
func (h *PageHandler) AdminUsers(c echo.Context) error {
	var flash string
	switch {
	case c.QueryParam("created") != "":
		flash = "Usuario creado"
	case c.QueryParam("deleted") != "":
		flash = "Usuario eliminado"
	}
	return h.renderUsers(c, http.StatusOK, createUserReq{}, flash, nil)
}

// AdminUserCreate creates a reader account from the form.
func (h *PageHandler) AdminUserCreate(c echo.Context) error {
	form := createUserReq{
		Email:    c.FormValue("email"),
		Username: c.FormValue("username"),
		Password: c.FormValue("password"),
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	_, err := h.Users.CreateUser(ctx, actor(c), service.NewUser{
		Email: form.Email, Username: form.Username, Password: form.Password,
	})
	if err != nil {
		status, _, _ := describe(err)
		form.Password = ""
		return h.renderUsers(c, status, form, "", err)
	}
	return c.Redirect(http.StatusSeeOther, "/admin/users?created=1")
}

// AdminUserDelete deletes an account.  A partial failure is shown with
// the steps that did and did not complete.
func (h *PageHandler) AdminUserDelete(c echo.Context) error {
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	if err := h.Users.DeleteUser(ctx, actor(c), c.Param("id")); err != nil {
		status, _, _ := describe(err)
		return h.renderUsers(c, status, createUserReq{}, "", err)
	}
	return c.Redirect(http.StatusSeeOther, "/admin/users?deleted=1")
}

// ---- admin activities ----

func (h *PageHandler) renderActivities(c echo.Context, status int, month int, flash string, fail error) error {
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	months, err := h.Content.ListMonths(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	grid, err := h.Content.ListActivities(ctx, month)
	if err != nil {
		return h.fail(c, err)
	}
	p := h.page(c, "Actividades", echo.Map{"Months": months, "MonthID": month, "Activities": grid})
	p.Flash = flash
	if fail != nil {
		_, p.Error, p.Fields = describe(fail)
	}
	return c.Render(status, "admin_activities.html", p)
}

// AdminActivities shows the activity links of one month, January by
// default.
func (h *PageHandler) AdminActivities(c echo.Context) error {
	month := 1
	if v := c.QueryParam("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return h.fail(c, repository.ValidationError{Field: "month", Message: "debe ser un número"})
		}
		month = n
	}
	var flash string
	if c.QueryParam("saved") != "" {
		flash = "Actividad guardada"
	}
	return h.renderActivities(c, http.StatusOK, month, flash, nil)
}

// AdminActivitySave stores one day's activity url.
func (h *PageHandler) AdminActivitySave(c echo.Context) error {
	month, err1 := strconv.Atoi(c.FormValue("month"))
	day, err2 := strconv.Atoi(c.FormValue("day"))
	if err1 != nil || err2 != nil {
		return h.fail(c, repository.ValidationError{Field: "day", Message: "día inválido"})
	}
	url := c.FormValue("drive_url")
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	if _, err := h.Content.UpsertActivity(ctx, actor(c), month, day, &url); err != nil {
		status, _, _ := describe(err)
		return h.renderActivities(c, status, month, "", err)
	}
	purge(ctx, h.Cache)
	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/admin/activities?month=%d&saved=1", month))
}

// ---- reader ----

// Dashboard lists the months for a reader.
func (h *PageHandler) Dashboard(c echo.Context) error {
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	r := mirror.NewReader(h.Content, h.Progress, actor(c))
	if err := r.LoadMonths(ctx); err != nil {
		return h.fail(c, err)
	}
	return c.Render(http.StatusOK, "dashboard.html", h.page(c, "Inicio", echo.Map{"Months": r.Months}))
}

// readerDay is one cell of the reader's month calendar.
type readerDay struct {
	Day        int
	Devotional *model.Devotional
	Completed  bool
}

func (h *PageHandler) enterReaderMonth(c echo.Context, month int) (*mirror.Reader, *model.Month, error) {
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	r := mirror.NewReader(h.Content, h.Progress, actor(c))
	if err := r.LoadMonths(ctx); err != nil {
		return nil, nil, err
	}
	mo := r.Month(month)
	if mo == nil {
		return nil, nil, repository.ErrNotFound
	}
	if err := r.EnterMonth(ctx, month); err != nil {
		return nil, nil, err
	}
	return r, mo, nil
}

// ReaderMonth lists the devotionals of a month with the reader's
// progress.
func (h *PageHandler) ReaderMonth(c echo.Context) error {
	month, err := intParam(c, "month")
	if err != nil {
		return h.fail(c, err)
	}
	r, mo, err := h.enterReaderMonth(c, month)
	if err != nil {
		return h.fail(c, err)
	}
	done, total := r.Progress()
	days := make([]readerDay, h.Content.DaysInMonth(month))
	for i := range days {
		d := i + 1
		days[i] = readerDay{Day: d, Devotional: r.Devotional(d), Completed: r.IsCompleted(d)}
	}
	return c.Render(http.StatusOK, "reader_month.html", h.page(c, mo.Name, echo.Map{
		"Month":     mo,
		"Days":      days,
		"Completed": done,
		"Total":     total,
	}))
}

// ReaderDay shows one devotional with its activity link.
func (h *PageHandler) ReaderDay(c echo.Context) error {
	month, day, err := monthDay(c)
	if err != nil {
		return h.fail(c, err)
	}
	if !h.Content.ValidDay(month, day) {
		return h.fail(c, repository.ErrNotFound)
	}
	r, mo, err := h.enterReaderMonth(c, month)
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	if err := r.EnterDay(ctx, day); err != nil {
		return h.fail(c, err)
	}
	return c.Render(http.StatusOK, "reader_day.html", h.page(c, fmt.Sprintf("%s · Día %d", mo.Name, day), echo.Map{
		"Month":       mo,
		"Day":         day,
		"Devotional":  r.Devotional(day),
		"Completed":   r.IsCompleted(day),
		"ActivityURL": r.ActivityURL,
		"Prev":        day - 1,
		"Next":        nextDay(day, h.Content.DaysInMonth(month)),
	}))
}

// nextDay returns the day after day, or 0 past the end of the month.
func nextDay(day, days int) int {
	if day >= days {
		return 0
	}
	return day + 1
}

// ReaderToggle flips completion of a day from the state the page showed
// (the "completed" form field) and returns to the day.  A form without the
// field toggles the freshly read state.
func (h *PageHandler) ReaderToggle(c echo.Context) error {
	month, day, err := monthDay(c)
	if err != nil {
		return h.fail(c, err)
	}
	r, _, err := h.enterReaderMonth(c, month)
	if err != nil {
		return h.fail(c, err)
	}
	observed := r.IsCompleted(day)
	if raw := c.FormValue("completed"); raw != "" {
		if observed, err = strconv.ParseBool(raw); err != nil {
			return h.fail(c, repository.ValidationErrors{{Field: "completed", Message: "valor inválido"}})
		}
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	if _, err := r.ToggleFrom(ctx, day, observed); err != nil {
		return h.fail(c, err)
	}
	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/dashboard/%d/%d", month, day))
}
