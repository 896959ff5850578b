package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/devocional/internal/auth"
	"github.com/iliyamo/devocional/internal/model"
	"github.com/iliyamo/devocional/internal/repository"
	"github.com/iliyamo/devocional/internal/utils"
)

// ErrInvalidCredentials is returned for any failed sign-in.  It does not
// say whether the email exists.
var ErrInvalidCredentials = errors.New("usuario o contraseña incorrectos")

// Tokens is a freshly issued access/refresh pair.
type Tokens struct {
	UserID  string
	Role    string
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// AuthService signs users in against the identity store and issues
// session tokens.  ReuseGrace is how long a rotated refresh token still
// yields an access token; zero makes refresh tokens strictly single-use.
type AuthService struct {
	Identities     *repository.IdentityRepo
	Profiles       *repository.ProfileRepo
	Tokens         *repository.TokenRepo
	Secret         string
	AccessTTLMin   int
	RefreshTTLDays int
	ReuseGrace     time.Duration
}

// SignIn checks email and password and issues tokens.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (Tokens, error) {
	var v repository.ValidationErrors
	if !IsEmail(repository.NormalizeEmail(email)) {
		v.Add("email", "ingresa un email válido")
	}
	if !utils.PasswordLongEnough(password) {
		v.Add("password", fmt.Sprintf("la contraseña debe tener al menos %d caracteres", utils.MinPasswordLength))
	}
	if err := v.Err(); err != nil {
		return Tokens{}, err
	}

	identity, err := s.Identities.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return Tokens{}, ErrInvalidCredentials
	}
	if err != nil {
		return Tokens{}, err
	}
	if !utils.VerifyPassword(identity.PasswordHash, password) {
		return Tokens{}, ErrInvalidCredentials
	}
	return s.issue(ctx, identity.ID)
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued with the role currently on the profile.  A token that was
// rotated less than ReuseGrace ago, as when a browser sends overlapping
// requests with the same cookie, gets an access token only and no new
// refresh token.
func (s *AuthService) Refresh(ctx context.Context, raw string) (Tokens, error) {
	if raw == "" {
		return Tokens{}, ErrInvalidCredentials
	}
	hash := utils.HashRefreshRaw(raw)
	userID, err := s.Tokens.ValidateRefresh(ctx, hash)
	if errors.Is(err, repository.ErrNotFound) {
		return s.reissue(ctx, hash)
	}
	if err != nil {
		return Tokens{}, err
	}
	if err := s.checkIdentity(ctx, userID); err != nil {
		return Tokens{}, err
	}
	switch err := s.Tokens.Rotate(ctx, hash); {
	case errors.Is(err, repository.ErrNotFound):
		// Another request rotated it first.
		return s.reissue(ctx, hash)
	case err != nil:
		return Tokens{}, err
	}
	return s.issue(ctx, userID)
}

// reissue answers a refresh with an already rotated token.
func (s *AuthService) reissue(ctx context.Context, hash string) (Tokens, error) {
	if s.ReuseGrace <= 0 {
		return Tokens{}, ErrInvalidCredentials
	}
	userID, err := s.Tokens.RotatedSince(ctx, hash, time.Now().Add(-s.ReuseGrace))
	if errors.Is(err, repository.ErrNotFound) {
		return Tokens{}, ErrInvalidCredentials
	}
	if err != nil {
		return Tokens{}, err
	}
	if err := s.checkIdentity(ctx, userID); err != nil {
		return Tokens{}, err
	}
	role, err := s.role(ctx, userID)
	if err != nil {
		return Tokens{}, err
	}
	access, err := utils.NewAccessToken(s.Secret, userID, role, s.AccessTTLMin)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{UserID: userID, Role: role, Access: access}, nil
}

func (s *AuthService) checkIdentity(ctx context.Context, userID string) error {
	_, err := s.Identities.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidCredentials
	}
	return err
}

// Resolve loads the identity and profile behind a user id.  A deleted
// identity yields repository.ErrNotFound.
func (s *AuthService) Resolve(ctx context.Context, userID string) (*auth.Session, error) {
	identity, err := s.Identities.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	sess := &auth.Session{Identity: identity}
	profile, err := s.Profiles.Get(ctx, userID)
	switch {
	case err == nil:
		sess.Profile = &profile
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}
	return sess, nil
}

// SignOut revokes the refresh token; an empty token is a no-op.
func (s *AuthService) SignOut(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	return s.Tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw))
}

// role returns the profile role, "user" when there is no profile.
func (s *AuthService) role(ctx context.Context, userID string) (string, error) {
	profile, err := s.Profiles.Get(ctx, userID)
	switch {
	case err == nil:
		return profile.Role, nil
	case errors.Is(err, repository.ErrNotFound):
		return model.RoleUser, nil
	}
	return "", err
}

func (s *AuthService) issue(ctx context.Context, userID string) (Tokens, error) {
	role, err := s.role(ctx, userID)
	if err != nil {
		return Tokens{}, err
	}
	access, err := utils.NewAccessToken(s.Secret, userID, role, s.AccessTTLMin)
	if err != nil {
		return Tokens{}, err
	}
	refresh, err := utils.NewRefreshToken(s.RefreshTTLDays)
	if err != nil {
		return Tokens{}, err
	}
	if err := s.Tokens.StoreRefresh(ctx, userID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return Tokens{}, err
	}
	return Tokens{UserID: userID, Role: role, Access: access, Refresh: refresh}, nil
}
