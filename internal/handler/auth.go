package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/devocional/internal/auth"
	"github.com/iliyamo/devocional/internal/middleware"
	"github.com/iliyamo/devocional/internal/model"
	"github.com/iliyamo/devocional/internal/service"
)

// AuthHandler serves the session endpoints of the JSON API.  Tokens are
// returned in the body and also set as cookies, so browsers and API
// clients share one flow.
type AuthHandler struct {
	Auth    *service.AuthService
	Secure  bool
	Timeout time.Duration
}

func NewAuthHandler(a *service.AuthService, secure bool, timeout time.Duration) *AuthHandler {
	return &AuthHandler{Auth: a, Secure: secure, Timeout: timeout}
}

type loginReq struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	UserID   string     `json:"user_id"`
	Role     string     `json:"role"`
	Redirect string     `json:"redirect"`
	Access   tokenPart  `json:"access"`
	Refresh  *tokenPart `json:"refresh,omitempty"`
}

func toAuthResp(t service.Tokens) authResp {
	kind := auth.Reader
	if t.Role == model.RoleAdmin {
		kind = auth.Admin
	}
	resp := authResp{
		UserID:   t.UserID,
		Role:     t.Role,
		Redirect: auth.Home(auth.Principal{Kind: kind}),
		Access:   tokenPart{Token: t.Access.Token, Expires: t.Access.Exp},
	}
	if t.Refresh.Raw != "" {
		resp.Refresh = &tokenPart{Token: t.Refresh.Raw, Expires: t.Refresh.Exp}
	}
	return resp
}

// Login signs in with email and password.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cuerpo inválido"})
	}
	if err := c.Validate(&req); err != nil {
		return apiError(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	tokens, err := h.Auth.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return apiError(c, err)
	}
	middleware.SetSessionCookies(c, tokens, h.Secure)
	return c.JSON(http.StatusOK, toAuthResp(tokens))
}

// Refresh rotates the refresh token from the body or the cookie.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	raw := req.RefreshToken
	if raw == "" {
		if ck, err := c.Cookie(middleware.RefreshCookie); err == nil {
			raw = ck.Value
		}
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	tokens, err := h.Auth.Refresh(ctx, raw)
	if err != nil {
		return apiError(c, err)
	}
	middleware.SetSessionCookies(c, tokens, h.Secure)
	return c.JSON(http.StatusOK, toAuthResp(tokens))
}

// Logout revokes the refresh token and clears the cookies.  It succeeds
// even without a session.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	raw := req.RefreshToken
	if raw == "" {
		if ck, err := c.Cookie(middleware.RefreshCookie); err == nil {
			raw = ck.Value
		}
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	if err := h.Auth.SignOut(ctx, raw); err != nil {
		return apiError(c, err)
	}
	middleware.ClearSessionCookies(c, h.Secure)
	return c.NoContent(http.StatusNoContent)
}

// Me returns the resolved principal.
func (h *AuthHandler) Me(c echo.Context) error {
	m := middleware.AuthMirror(c)
	res := m.Resolution()
	if res.Pending {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "session unavailable, retry"})
	}
	p := res.Principal
	if p.Kind == auth.Unauthenticated {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	body := echo.Map{
		"id":       p.UserID,
		"email":    p.Email,
		"username": p.Username,
		"role":     p.Kind.String(),
		"home":     auth.Home(p),
	}
	if m.Session.Profile != nil {
		body["avatar_url"] = m.Session.Profile.AvatarURL
		body["created_at"] = m.Session.Profile.CreatedAt
	}
	return c.JSON(http.StatusOK, body)
}
