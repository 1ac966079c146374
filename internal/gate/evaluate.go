package gate

import (
	"portalgate/internal/portal"
	"portalgate/internal/role"
)

// Evaluate applies the access policy to resolved inputs. Checks run in a
// fixed order and the first match wins:
//
//  1. must-change-password redirect, unless already on that screen
//  2. no session
//  3. team-only route and the subject is not a team member
//  4. baseline admin surface and the subject is a team member
//  5. hierarchical or exact role check
func Evaluate(route Route, in Inputs) Decision {
	req := route.Requirement

	if in.Auth.Present && in.Auth.MustChangePassword {
		target := portal.ChangePasswordPathFor(in.UserType.IsTeam())
		if route.Path != target {
			return Decision{
				State:           StateMustChangePassword,
				AttemptedPortal: route.Namespace,
				Redirect:        target,
				Message:         msgMustChangePassword,
				SubjectID:       in.Auth.SubjectID,
			}
		}
	}

	if !in.Auth.Present {
		return unauthenticated(route, in.Auth.Expired)
	}

	if req.AdminOrAbove() && !in.UserType.IsTeam() {
		return Decision{
			State:           StatePortalMismatch,
			AttemptedPortal: route.Namespace,
			Message:         msgPortalMismatch,
			SubjectID:       in.Auth.SubjectID,
		}
	}

	// Team membership alone opens the baseline admin surface. Individual
	// admin screens leave TeamShortcut unset and check the role.
	if req.TeamShortcut && req.Role == role.Admin && !req.Exact && in.UserType.IsTeam() {
		return granted(route, in)
	}

	if req.Role == role.None {
		return granted(route, in)
	}

	allowed := role.HasRole(in.Role, req.Role)
	if req.Exact {
		allowed = role.HasExactRole(in.Role, req.Role)
	}
	if !allowed {
		return Decision{
			State:           StateInsufficientRole,
			RequiredRole:    req.Role,
			AttemptedPortal: route.Namespace,
			Message:         insufficientRoleMessage(req.Role),
			SubjectID:       in.Auth.SubjectID,
		}
	}
	return granted(route, in)
}

func granted(route Route, in Inputs) Decision {
	return Decision{
		State:           StateGranted,
		AttemptedPortal: route.Namespace,
		SubjectID:       in.Auth.SubjectID,
	}
}

func unauthenticated(route Route, expired ExpiryReason) Decision {
	d := Decision{
		State:           StateUnauthenticated,
		AttemptedPortal: route.Namespace,
		Redirect:        portal.LoginPathFor(route.Namespace),
		Message:         msgLogin,
	}
	if route.Requirement.AdminOrAbove() {
		d.RequiredRole = route.Requirement.Role
		d.Redirect = portal.AdminLoginPath
		d.Message = msgLoginTeam
	}
	switch expired {
	case ExpiryInactive:
		d.Message = msgSignedOutInactive
	case ExpiryExpired:
		d.Message = msgSignedOutExpired
	}
	if expired != ExpiryNone {
		d.Redirect = portal.ExpiredLoginURL(route.Namespace)
		d.EndSession = true
	}
	return d
}
