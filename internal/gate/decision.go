// Package gate decides whether the caller may proceed to a protected route.
//
// The decision is made from three facts that load independently: the
// namespace session, the subject's Role and the subject's UserType. Evaluate
// is the pure policy; Gate is the per-mount state machine with its watchdog;
// Mounter loads the facts and drives a Gate for one request.
package gate

import (
	"fmt"

	"portalgate/internal/portal"
	"portalgate/internal/role"
	id "portalgate/pkg/domain"
)

// State is an access decision.
type State string

const (
	StateLoading            State = "Loading"
	StateTimedOut           State = "TimedOut"
	StateUnauthenticated    State = "Unauthenticated"
	StatePortalMismatch     State = "PortalMismatch"
	StateInsufficientRole   State = "InsufficientRole"
	StateMustChangePassword State = "MustChangePassword"
	StateGranted            State = "Granted"
)

func (s State) String() string { return string(s) }

// Requirement is what a route demands of the caller. Role None means any
// authenticated subject. Exact disables the hierarchy. TeamShortcut lets
// team membership alone satisfy an admin requirement; only the baseline
// admin surface sets it.
type Requirement struct {
	Role         role.Role
	Exact        bool
	TeamShortcut bool
}

// AdminOrAbove reports whether the route belongs to the team-only surface.
func (r Requirement) AdminOrAbove() bool { return r.Role.AtLeastAdmin() }

// Route is the navigation being decided.
type Route struct {
	Path        string
	Namespace   portal.ID
	Requirement Requirement
}

// NewRoute selects the namespace from the path.
func NewRoute(path string, req Requirement) Route {
	return Route{Path: path, Namespace: portal.SelectNamespace(path), Requirement: req}
}

// ExpiryReason is set on an auth fact when the session was found invalid and
// torn down instead of loaded.
type ExpiryReason string

const (
	ExpiryNone     ExpiryReason = ""
	ExpiryInactive ExpiryReason = "inactive"
	ExpiryExpired  ExpiryReason = "expired"
)

// Auth is the AuthLoaded fact.
type Auth struct {
	Present            bool
	SubjectID          id.SubjectID
	MustChangePassword bool
	Expired            ExpiryReason
}

// Inputs are the three resolved facts.
type Inputs struct {
	Auth     Auth
	Role     role.Role
	UserType role.UserType
}

// Decision is the outcome rendered for a route. Only the fields relevant to
// State are set.
type Decision struct {
	State           State
	RequiredRole    role.Role
	AttemptedPortal portal.ID
	Redirect        string
	Message         string
	SubjectID       id.SubjectID
	// EndSession asks the transport to clear the namespace cookie.
	EndSession bool
}

func (d Decision) Granted() bool { return d.State == StateGranted }

// Payload is the description the presentation layer renders from.
type Payload struct {
	State           State     `json:"state"`
	RequiredRole    role.Role `json:"required_role,omitempty"`
	AttemptedPortal portal.ID `json:"attempted_portal,omitempty"`
	Redirect        string    `json:"redirect,omitempty"`
	Message         string    `json:"message,omitempty"`
}

func (d Decision) Payload() Payload {
	return Payload{
		State:           d.State,
		RequiredRole:    d.RequiredRole,
		AttemptedPortal: d.AttemptedPortal,
		Redirect:        d.Redirect,
		Message:         d.Message,
	}
}

// User-facing texts. Each non-granted state has its own wording so the
// reason can be told apart without exposing internals.
const (
	msgLoginTeam          = "Please log in with your team account to continue."
	msgLogin              = "Please log in to continue."
	msgSignedOutInactive  = "You were signed out due to inactivity. Please log in again."
	msgSignedOutExpired   = "Your session has expired. Please log in again."
	msgPortalMismatch     = "This area is for team members only."
	msgMustChangePassword = "You need to change your password before continuing."
	msgTimedOut           = "We couldn't confirm your session. Please log in again."
)

func insufficientRoleMessage(required role.Role) string {
	return fmt.Sprintf("This page requires the %s role.", required)
}

func loading(route Route) Decision {
	return Decision{State: StateLoading, AttemptedPortal: route.Namespace}
}

func timedOut(route Route) Decision {
	return Decision{
		State:           StateTimedOut,
		AttemptedPortal: route.Namespace,
		Redirect:        portal.LoginPathFor(route.Namespace),
		Message:         msgTimedOut,
	}
}
