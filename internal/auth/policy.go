// Package auth holds the single authorization policy and the page gate
// built on it.  Every protected route, page or API, classifies the
// resolved session through Classify.
package auth

import "github.com/iliyamo/devocional/internal/model"

// Kind is the tagged result of classifying a session.
type Kind int

const (
	Unauthenticated Kind = iota
	Reader
	Admin
)

func (k Kind) String() string {
	switch k {
	case Admin:
		return "admin"
	case Reader:
		return "reader"
	default:
		return "unauthenticated"
	}
}

// Session is a resolved identity together with its profile.  Profile is
// nil when the identity has no profile row.
type Session struct {
	Identity model.Identity
	Profile  *model.Profile
}

// Principal is what handlers and gates act on.
type Principal struct {
	Kind     Kind
	UserID   string
	Email    string
	Username string
}

// Classify maps a session to a Principal.  A nil session is
// Unauthenticated; a missing profile or role counts as Reader.
func Classify(s *Session) Principal {
	if s == nil || s.Identity.ID == "" {
		return Principal{Kind: Unauthenticated}
	}
	p := Principal{Kind: Reader, UserID: s.Identity.ID, Email: s.Identity.Email}
	if s.Profile != nil {
		p.Username = s.Profile.Username
		if s.Profile.Role == model.RoleAdmin {
			p.Kind = Admin
		}
	}
	return p
}

// Home is the landing page of a principal.
func Home(p Principal) string {
	switch p.Kind {
	case Admin:
		return "/admin"
	case Reader:
		return "/dashboard"
	default:
		return "/"
	}
}
