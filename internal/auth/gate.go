package auth

// Section is a protected area of the site.
type Section int

const (
	SectionAdmin Section = iota
	SectionReader
)

// State of the gate for one request.
type State int

const (
	StatePending State = iota
	StateUnauthenticated
	StateWrongRole
	StateAuthorized
)

// Action tells the caller what to do with the request.
type Action int

const (
	ActionLoading Action = iota
	ActionRedirect
	ActionRender
)

// Resolution is the session as known at gate time.  Pending means the
// session has not been resolved yet.
type Resolution struct {
	Pending   bool
	Principal Principal
}

// Decision is the gate outcome.  Location is set for ActionRedirect.
type Decision struct {
	State    State
	Action   Action
	Location string
}

// Allows reports whether kind may enter section.  The admin section
// requires Admin; the reader section requires any non-admin principal.
func Allows(section Section, kind Kind) bool {
	switch section {
	case SectionAdmin:
		return kind == Admin
	case SectionReader:
		return kind == Reader
	}
	return false
}

// Gate decides how a protected page responds to r.
func Gate(r Resolution, section Section) Decision {
	switch {
	case r.Pending:
		return Decision{State: StatePending, Action: ActionLoading}
	case r.Principal.Kind == Unauthenticated:
		return Decision{State: StateUnauthenticated, Action: ActionRedirect, Location: "/"}
	case !Allows(section, r.Principal.Kind):
		return Decision{State: StateWrongRole, Action: ActionRedirect, Location: Home(r.Principal)}
	}
	return Decision{State: StateAuthorized, Action: ActionRender}
}
