package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/devocional/internal/auth"
	"github.com/iliyamo/devocional/internal/logger"
	"github.com/iliyamo/devocional/internal/mirror"
	"github.com/iliyamo/devocional/internal/service"
	"github.com/iliyamo/devocional/internal/utils"
)

// Cookie names for browser sessions.  API clients may send the access
// token as a Bearer header instead.
const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"

	authKey = "auth"
)

// Refresher rotates a refresh token into a new token pair.
type Refresher interface {
	Refresh(ctx context.Context, raw string) (service.Tokens, error)
}

// SessionConfig configures the Session middleware.
type SessionConfig struct {
	Secret   string
	Auth     Refresher
	Resolver mirror.SessionResolver
	Secure   bool
	Timeout  time.Duration
}

// Session revalidates the session on every request.  The access token is
// read from the Authorization header or the access cookie; an expired or
// missing access token is rotated with the refresh cookie.  The resolved
// identity is then reloaded from the store so a deleted user or changed
// role takes effect immediately.  The resulting auth mirror is stored in
// the context under "auth" and the ids under "user_id" and "role".
func Session(cfg SessionConfig) echo.MiddlewareFunc {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()

			m := mirror.NewAuth(cfg.Resolver)
			c.Set(authKey, m)

			userID, err := sessionUser(ctx, c, cfg)
			if err != nil {
				// Store trouble while rotating: leave the mirror Loading.
				logger.Warn(ctx, "session refresh failed", "error", err)
				return next(c)
			}
			if err := m.Resolve(ctx, userID); err != nil {
				logger.Warn(ctx, "session resolve failed", "error", err, "user_id", userID)
				return next(c)
			}
			p := m.Principal()
			if p.Kind != auth.Unauthenticated {
				c.Set("user_id", p.UserID)
				c.Set("role", p.Kind.String())
			} else if userID != "" {
				ClearSessionCookies(c, cfg.Secure)
			}
			return next(c)
		}
	}
}

// sessionUser returns the user id behind the request, or "" when there is
// no usable session.  An error means the store could not be consulted.
func sessionUser(ctx context.Context, c echo.Context, cfg SessionConfig) (string, error) {
	raw, fromHeader := accessToken(c)
	if raw != "" {
		claims, err := utils.ParseAccessToken(cfg.Secret, raw)
		if err == nil {
			return claims.UserID, nil
		}
		if fromHeader || !errors.Is(err, utils.ErrTokenExpired) {
			return "", nil
		}
	}

	rc, err := c.Cookie(RefreshCookie)
	if err != nil || rc.Value == "" || cfg.Auth == nil {
		return "", nil
	}
	tokens, err := cfg.Auth.Refresh(ctx, rc.Value)
	if errors.Is(err, service.ErrInvalidCredentials) {
		ClearSessionCookies(c, cfg.Secure)
		return "", nil
	}
	if err != nil {
		return "", err
	}
	SetSessionCookies(c, tokens, cfg.Secure)
	return tokens.UserID, nil
}

func accessToken(c echo.Context) (raw string, fromHeader bool) {
	if h := c.Request().Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer "), true
	}
	if ck, err := c.Cookie(AccessCookie); err == nil {
		return ck.Value, false
	}
	return "", false
}

// SetSessionCookies writes both session cookies.  Tokens without a refresh
// token leave the refresh cookie untouched.
func SetSessionCookies(c echo.Context, t service.Tokens, secure bool) {
	c.SetCookie(&http.Cookie{
		Name: AccessCookie, Value: t.Access.Token, Path: "/",
		Expires: t.Refresh.Exp, HttpOnly: true, Secure: secure, SameSite: http.SameSiteLaxMode,
	})
	if t.Refresh.Raw == "" {
		return
	}
	c.SetCookie(&http.Cookie{
		Name: RefreshCookie, Value: t.Refresh.Raw, Path: "/",
		Expires: t.Refresh.Exp, HttpOnly: true, Secure: secure, SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookies expires both session cookies.
func ClearSessionCookies(c echo.Context, secure bool) {
	for _, name := range []string{AccessCookie, RefreshCookie} {
		c.SetCookie(&http.Cookie{
			Name: name, Value: "", Path: "/", MaxAge: -1,
			HttpOnly: true, Secure: secure, SameSite: http.SameSiteLaxMode,
		})
	}
}

// AuthMirror returns the auth mirror stored by Session.  Without one the
// request is treated as still loading.
func AuthMirror(c echo.Context) *mirror.Auth {
	m, _ := c.Get(authKey).(*mirror.Auth)
	return m
}

// PrincipalOf classifies the session of c.
func PrincipalOf(c echo.Context) auth.Principal {
	return AuthMirror(c).Principal()
}
