package portal

import "net/url"

// Redirect targets consumed by the browser. These paths are part of the
// public contract with the presentation layer.
const (
	LoginPath               = "/login"
	ChangePasswordPath      = "/change-password"
	AdminLoginPath          = "/admin/login"
	AdminChangePasswordPath = "/admin/change-password"
	SimulatorLoginPath      = "/simulator/login"

	// ExpiredParam marks a login redirect caused by a forced logout.
	ExpiredParam = "expired"
)

// LoginPathFor returns the login entry point for a namespace.
func LoginPathFor(id ID) string {
	switch id {
	case Admin:
		return AdminLoginPath
	case Simulator:
		return SimulatorLoginPath
	default:
		return LoginPath
	}
}

// ExpiredLoginURL returns the login route for id tagged so the login screen
// shows the expired-session banner.
func ExpiredLoginURL(id ID) string {
	q := url.Values{}
	q.Set(ExpiredParam, "true")
	return LoginPathFor(id) + "?" + q.Encode()
}

// ChangePasswordPathFor returns the change-password screen for a subject.
// Team subjects use the admin screen; everyone else the standard one.
func ChangePasswordPathFor(teamSubject bool) string {
	if teamSubject {
		return AdminChangePasswordPath
	}
	return ChangePasswordPath
}
