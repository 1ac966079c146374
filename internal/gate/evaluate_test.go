package gate

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"portalgate/internal/portal"
	"portalgate/internal/role"
	id "portalgate/pkg/domain"
)

var subject = id.SubjectID(uuid.MustParse("7b0c1d7e-5a0e-4d55-9d8a-3f0b2d9a1c11"))

func signedIn() Auth {
	return Auth{Present: true, SubjectID: subject}
}

func TestEvaluate_AdminUsersScenario(t *testing.T) {
	route := NewRoute("/admin/users", Requirement{Role: role.Admin})

	tests := []struct {
		name     string
		userType role.UserType
		role     role.Role
		want     State
		required role.Role
	}{
		{"team admin is granted", role.TeamMember, role.Admin, StateGranted, role.None},
		{"team member with user role lacks the admin role", role.TeamMember, role.User, StateInsufficientRole, role.Admin},
		{"standalone super admin hits portal mismatch", role.StandaloneUser, role.SuperAdmin, StatePortalMismatch, role.None},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(route, Inputs{Auth: signedIn(), Role: tt.role, UserType: tt.userType})
			assert.Equal(t, tt.want, d.State)
			assert.Equal(t, tt.required, d.RequiredRole)
			assert.Equal(t, portal.Admin, d.AttemptedPortal)
		})
	}
}

func TestEvaluate_TeamShortcutOnBaselineAdmin(t *testing.T) {
	route := NewRoute("/admin", Requirement{Role: role.Admin, TeamShortcut: true})

	tests := []struct {
		name     string
		userType role.UserType
		role     role.Role
		want     State
	}{
		{"team member without a role", role.TeamMember, role.None, StateGranted},
		{"team member with user role", role.TeamMember, role.User, StateGranted},
		{"client org admin", role.ClientOrgUser, role.Admin, StatePortalMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(route, Inputs{Auth: signedIn(), Role: tt.role, UserType: tt.userType})
			assert.Equal(t, tt.want, d.State)
		})
	}

	t.Run("exact admin requirement ignores the shortcut", func(t *testing.T) {
		exact := NewRoute("/admin", Requirement{Role: role.Admin, Exact: true, TeamShortcut: true})
		d := Evaluate(exact, Inputs{Auth: signedIn(), Role: role.User, UserType: role.TeamMember})
		assert.Equal(t, StateInsufficientRole, d.State)
	})
}

func TestEvaluate_ExplicitAdminGateDeniesTeamUser(t *testing.T) {
	// The shortcut only applies to the hierarchical admin gate; a
	// super_admin screen still checks the role.
	route := NewRoute("/admin/super/settings", Requirement{Role: role.SuperAdmin})

	d := Evaluate(route, Inputs{Auth: signedIn(), Role: role.User, UserType: role.TeamMember})

	assert.Equal(t, StateInsufficientRole, d.State)
	assert.Equal(t, role.SuperAdmin, d.RequiredRole)
	assert.Contains(t, d.Message, "super_admin")
}

func TestEvaluate_InsufficientRoleNamesRequiredRole(t *testing.T) {
	route := NewRoute("/dashboard/reports", Requirement{Role: role.Admin, Exact: true})

	d := Evaluate(route, Inputs{Auth: signedIn(), Role: role.User, UserType: role.TeamMember})

	assert.Equal(t, StateInsufficientRole, d.State)
	assert.Equal(t, role.Admin, d.RequiredRole)
}

func TestEvaluate_Order(t *testing.T) {
	adminRoute := NewRoute("/admin/users", Requirement{Role: role.Admin})

	t.Run("must change password beats portal mismatch", func(t *testing.T) {
		auth := signedIn()
		auth.MustChangePassword = true
		d := Evaluate(adminRoute, Inputs{Auth: auth, Role: role.None, UserType: role.StandaloneUser})
		assert.Equal(t, StateMustChangePassword, d.State)
		assert.Equal(t, portal.ChangePasswordPath, d.Redirect)
	})

	t.Run("team subjects are sent to the admin change password screen", func(t *testing.T) {
		auth := signedIn()
		auth.MustChangePassword = true
		d := Evaluate(adminRoute, Inputs{Auth: auth, Role: role.Admin, UserType: role.TeamMember})
		assert.Equal(t, StateMustChangePassword, d.State)
		assert.Equal(t, portal.AdminChangePasswordPath, d.Redirect)
	})

	t.Run("already on the change password screen", func(t *testing.T) {
		auth := signedIn()
		auth.MustChangePassword = true
		route := NewRoute(portal.ChangePasswordPath, Requirement{})
		d := Evaluate(route, Inputs{Auth: auth, Role: role.User, UserType: role.StandaloneUser})
		assert.Equal(t, StateGranted, d.State)
	})

	t.Run("portal mismatch beats insufficient role", func(t *testing.T) {
		route := NewRoute("/admin/super", Requirement{Role: role.SuperAdmin})
		d := Evaluate(route, Inputs{Auth: signedIn(), Role: role.User, UserType: role.ClientOrgUser})
		assert.Equal(t, StatePortalMismatch, d.State)
	})

	t.Run("no session beats everything below it", func(t *testing.T) {
		d := Evaluate(adminRoute, Inputs{Auth: Auth{}, Role: role.SuperAdmin, UserType: role.TeamMember})
		assert.Equal(t, StateUnauthenticated, d.State)
	})
}

func TestEvaluate_Unauthenticated(t *testing.T) {
	t.Run("admin route names the team login", func(t *testing.T) {
		d := Evaluate(NewRoute("/admin", Requirement{Role: role.Admin}), Inputs{})
		assert.Equal(t, StateUnauthenticated, d.State)
		assert.Equal(t, portal.AdminLoginPath, d.Redirect)
		assert.Equal(t, role.Admin, d.RequiredRole)
		assert.Equal(t, msgLoginTeam, d.Message)
		assert.False(t, d.EndSession)
	})

	t.Run("end user route uses the plain login", func(t *testing.T) {
		d := Evaluate(NewRoute("/dashboard", Requirement{Role: role.User}), Inputs{})
		assert.Equal(t, portal.LoginPath, d.Redirect)
		assert.Equal(t, msgLogin, d.Message)
	})

	t.Run("expiry reasons have distinct texts and end the session", func(t *testing.T) {
		route := NewRoute("/dashboard", Requirement{Role: role.User})
		inactive := Evaluate(route, Inputs{Auth: Auth{Expired: ExpiryInactive}})
		expired := Evaluate(route, Inputs{Auth: Auth{Expired: ExpiryExpired}})

		assert.NotEqual(t, inactive.Message, expired.Message)
		assert.True(t, inactive.EndSession)
		assert.True(t, expired.EndSession)
		assert.Equal(t, "/login?expired=true", inactive.Redirect)
	})
}

func TestEvaluate_SimulatorRequiresExactTester(t *testing.T) {
	route := NewRoute("/simulator/run", Requirement{Role: role.Tester, Exact: true})

	tests := []struct {
		role role.Role
		want State
	}{
		{role.Tester, StateGranted},
		{role.SuperAdmin, StateInsufficientRole},
		{role.User, StateInsufficientRole},
	}
	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			d := Evaluate(route, Inputs{Auth: signedIn(), Role: tt.role, UserType: role.StandaloneUser})
			assert.Equal(t, tt.want, d.State)
			assert.Equal(t, portal.Simulator, d.AttemptedPortal)
		})
	}
}

func TestEvaluate_TesterHeldWithOrdinalRoleIsEvaluatedAsOrdinal(t *testing.T) {
	route := NewRoute("/simulator/run", Requirement{Role: role.Tester, Exact: true})
	effective := role.Strongest([]role.Role{role.Tester, role.Admin})

	d := Evaluate(route, Inputs{Auth: signedIn(), Role: effective, UserType: role.TeamMember})

	assert.Equal(t, StateInsufficientRole, d.State)
	assert.Equal(t, role.Tester, d.RequiredRole)
}

func TestEvaluate_NoRoleRequirementGrantsAnySession(t *testing.T) {
	route := NewRoute("/change-password", Requirement{})

	d := Evaluate(route, Inputs{Auth: signedIn(), Role: role.None, UserType: role.UserTypeUnknown})

	assert.Equal(t, StateGranted, d.State)
	assert.Equal(t, subject, d.SubjectID)
}

func TestEvaluate_DeniedStatesHaveDistinctMessages(t *testing.T) {
	adminRoute := NewRoute("/admin/super", Requirement{Role: role.SuperAdmin})
	auth := signedIn()
	mustChange := auth
	mustChange.MustChangePassword = true

	messages := map[State]string{
		StateUnauthenticated:    Evaluate(adminRoute, Inputs{}).Message,
		StatePortalMismatch:     Evaluate(adminRoute, Inputs{Auth: auth, UserType: role.StandaloneUser}).Message,
		StateInsufficientRole:   Evaluate(adminRoute, Inputs{Auth: auth, Role: role.Admin, UserType: role.TeamMember}).Message,
		StateMustChangePassword: Evaluate(adminRoute, Inputs{Auth: mustChange, UserType: role.TeamMember}).Message,
		StateTimedOut:           timedOut(adminRoute).Message,
	}
	seen := map[string]State{}
	for state, msg := range messages {
		assert.NotEmpty(t, msg, state)
		if other, dup := seen[msg]; dup {
			t.Errorf("%s and %s share the message %q", state, other, msg)
		}
		seen[msg] = state
	}
}

// The payload never carries the subject or the cookie instruction.
func TestDecisionPayload(t *testing.T) {
	d := Evaluate(NewRoute("/admin/super/settings", Requirement{Role: role.SuperAdmin}),
		Inputs{Auth: signedIn(), Role: role.Admin, UserType: role.TeamMember})

	raw, err := json.Marshal(d.Payload())
	assert.NoError(t, err)

	var body map[string]any
	assert.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, string(StateInsufficientRole), body["state"])
	assert.Equal(t, string(role.SuperAdmin), body["required_role"])
	assert.Equal(t, string(portal.Admin), body["attempted_portal"])
	assert.NotEmpty(t, body["message"])
	assert.NotContains(t, body, "subject_id")
	assert.NotContains(t, body, "end_session")
}
