package mirror

import (
	"context"
	"errors"

	"github.com/iliyamo/devocional/internal/auth"
	"github.com/iliyamo/devocional/internal/repository"
)

// Status of the auth mirror.
type Status int

const (
	Loading Status = iota
	Absent
	Present
)

func (s Status) String() string {
	switch s {
	case Absent:
		return "absent"
	case Present:
		return "present"
	default:
		return "loading"
	}
}

// Auth mirrors the resolved session of one request.  It starts Loading
// and stays there if resolution fails for any reason other than a
// missing identity.
type Auth struct {
	resolver SessionResolver

	Status  Status
	Session *auth.Session
}

func NewAuth(resolver SessionResolver) *Auth {
	return &Auth{resolver: resolver, Status: Loading}
}

// Resolve loads the session of userID.  An empty id or a deleted identity
// resolves to Absent.
func (a *Auth) Resolve(ctx context.Context, userID string) error {
	if userID == "" {
		a.SetAbsent()
		return nil
	}
	sess, err := a.resolver.Resolve(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		a.SetAbsent()
		return nil
	case err != nil:
		a.Status, a.Session = Loading, nil
		return err
	}
	a.Status, a.Session = Present, sess
	return nil
}

func (a *Auth) SetAbsent() { a.Status, a.Session = Absent, nil }

// Principal classifies the mirrored session.
func (a *Auth) Principal() auth.Principal {
	if a == nil || a.Status != Present {
		return auth.Principal{Kind: auth.Unauthenticated}
	}
	return auth.Classify(a.Session)
}

// Resolution is the gate input for the mirrored session.
func (a *Auth) Resolution() auth.Resolution {
	if a == nil {
		return auth.Resolution{Pending: true}
	}
	return auth.Resolution{Pending: a.Status == Loading, Principal: a.Principal()}
}
