package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/iliyamo/devocional/internal/model"
	"github.com/iliyamo/devocional/internal/queue"
	"github.com/iliyamo/devocional/internal/repository"
	"github.com/iliyamo/devocional/internal/utils"
)

// Mailer sends the welcome message to a newly created account.
type Mailer interface {
	SendWelcome(ctx context.Context, email, username string) error
}

// PartialFailureError reports a multi-step operation that stopped after
// some steps took effect and could not be undone.  The state it describes
// has also been published for operator review.
type PartialFailureError struct {
	Operation string
	UserID    string
	Completed []string
	Failed    string
	Err       error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s %s: completed [%s], failed at %s: %v",
		e.Operation, e.UserID, strings.Join(e.Completed, ", "), e.Failed, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

// NewUser is the input of CreateUser.  Role defaults to "user"; only
// administrative tooling sets anything else.
type NewUser struct {
	Email    string
	Username string
	Password string
	Role     string
}

// Saga step names, used in errors and operator-review events.
const (
	stepCreateIdentity = "create identity"
	stepCreateProfile  = "create profile"
	stepRollback       = "delete identity (rollback)"
	stepDeleteIdentity = "delete identity"
	stepDeleteProgress = "delete progress"
	stepDeleteProfile  = "delete profile"
)

// UserService administers accounts across the identity store and the
// profile/progress tables.  The two sides share no transaction, so
// creation and deletion run as sagas.
type UserService struct {
	Identities *repository.IdentityRepo
	Profiles   *repository.ProfileRepo
	Progress   *repository.ProgressRepo
	Tokens     *repository.TokenRepo
	BcryptCost int
	Events     queue.Publisher
	Mailer     Mailer
	Logger     *slog.Logger
}

// ListUsers returns every account with email and completed-day count,
// newest first.  Admins are included and flagged.
func (s *UserService) ListUsers(ctx context.Context) ([]model.UserRow, error) {
	return s.Profiles.ListWithStats(ctx)
}

// ValidateNewUser checks the input of CreateUser without touching any
// store.
func ValidateNewUser(in NewUser) repository.ValidationErrors {
	var v repository.ValidationErrors
	if !IsEmail(strings.TrimSpace(in.Email)) {
		v.Add("email", "ingresa un email válido")
	}
	switch n := runes(strings.TrimSpace(in.Username)); {
	case n == 0:
		v.Add("username", "el nombre de usuario es obligatorio")
	case n > 100:
		v.Add("username", "el nombre de usuario no puede superar 100 caracteres")
	}
	if !utils.PasswordLongEnough(in.Password) {
		v.Add("password", fmt.Sprintf("la contraseña debe tener al menos %d caracteres", utils.MinPasswordLength))
	}
	if in.Role != "" && in.Role != model.RoleUser && in.Role != model.RoleAdmin {
		v.Add("role", "rol desconocido")
	}
	return v
}

// CreateUser creates the identity and then the profile.  When the profile
// cannot be created the identity is deleted again; if that rollback fails
// too, the caller gets a *PartialFailureError and an operator-review event
// is published.  CreateUser is never retried.
func (s *UserService) CreateUser(ctx context.Context, actor string, in NewUser) (model.Profile, error) {
	if err := ValidateNewUser(in).Err(); err != nil {
		return model.Profile{}, err
	}
	role := in.Role
	if role == "" {
		role = model.RoleUser
	}

	identity, err := s.Identities.Create(ctx, in.Email, in.Password, s.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.Profile{}, errors.Join(
				repository.ValidationError{Field: "email", Message: "Este email ya está registrado"},
				repository.ErrEmailExists)
		}
		return model.Profile{}, fmt.Errorf("%s: %w", stepCreateIdentity, err)
	}

	profile := model.Profile{ID: identity.ID, Username: strings.TrimSpace(in.Username), Role: role}
	if err := s.Profiles.Create(ctx, &profile); err != nil {
		profileErr := err
		s.Logger.Warn("profile creation failed, rolling back identity",
			slog.String("user_id", identity.ID), slog.Any("error", profileErr))
		if rbErr := s.Identities.Delete(ctx, identity.ID); rbErr != nil {
			pf := &PartialFailureError{
				Operation: "createUser",
				UserID:    identity.ID,
				Completed: []string{stepCreateIdentity},
				Failed:    stepCreateProfile,
				Err:       errors.Join(profileErr, fmt.Errorf("%s: %w", stepRollback, rbErr)),
			}
			s.review(ctx, actor, identity.ID, identity.Email, stepRollback, pf)
			return model.Profile{}, pf
		}
		return model.Profile{}, fmt.Errorf("%s (identity rolled back): %w", stepCreateProfile, profileErr)
	}

	publish(ctx, s.Events, s.Logger, queue.Event{
		Type: queue.EventUserCreated, ActorID: actor, UserID: identity.ID, Email: identity.Email,
	})
	if s.Mailer != nil {
		if err := s.Mailer.SendWelcome(ctx, identity.Email, profile.Username); err != nil {
			s.Logger.Warn("welcome email failed", slog.String("user_id", identity.ID), slog.Any("error", err))
		}
	}
	return profile, nil
}

// DeleteUser removes an account in the order identity, progress rows,
// profile, then revokes its refresh tokens.  Admin accounts are refused
// with repository.ErrForbidden before anything is touched.  A failure
// after the identity is gone yields a *PartialFailureError and an
// operator-review event; nothing is rolled back.
func (s *UserService) DeleteUser(ctx context.Context, actor, id string) error {
	profile, err := s.Profiles.Get(ctx, id)
	profileExists := err == nil
	switch {
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return err
	case profileExists && profile.IsAdmin():
		return repository.ErrForbidden
	}

	var completed []string
	err = s.Identities.Delete(ctx, id)
	switch {
	case err == nil:
		completed = append(completed, stepDeleteIdentity)
	case errors.Is(err, repository.ErrNotFound) && profileExists:
		// Orphaned profile from an earlier partial failure; keep cleaning.
	case errors.Is(err, repository.ErrNotFound):
		return repository.ErrNotFound
	default:
		return fmt.Errorf("%s: %w", stepDeleteIdentity, err)
	}

	fail := func(step string, err error) error {
		pf := &PartialFailureError{Operation: "deleteUser", UserID: id, Completed: completed, Failed: step, Err: err}
		s.review(ctx, actor, id, "", step, pf)
		return pf
	}

	if _, err := s.Progress.DeleteByUser(ctx, id); err != nil {
		return fail(stepDeleteProgress, err)
	}
	completed = append(completed, stepDeleteProgress)

	if err := s.Profiles.Delete(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fail(stepDeleteProfile, err)
	}

	if err := s.Tokens.RevokeAllForUser(ctx, id); err != nil {
		s.Logger.Warn("refresh token revocation failed", slog.String("user_id", id), slog.Any("error", err))
	}
	publish(ctx, s.Events, s.Logger, queue.Event{Type: queue.EventUserDeleted, ActorID: actor, UserID: id})
	return nil
}

// review logs an unrecoverable saga state and publishes it for manual
// cleanup.
func (s *UserService) review(ctx context.Context, actor, userID, email, step string, pf *PartialFailureError) {
	s.Logger.Error("saga left partial state, operator review needed",
		slog.String("operation", pf.Operation),
		slog.String("user_id", userID),
		slog.String("failed_step", pf.Failed),
		slog.Any("completed", pf.Completed),
		slog.Any("error", pf.Err))
	publish(ctx, s.Events, s.Logger, queue.Event{
		Type:    queue.EventOperatorReview,
		ActorID: actor,
		UserID:  userID,
		Email:   email,
		Step:    step,
		Detail:  pf.Error(),
	})
}
