package role

// UserType classifies a subject independently of its Role. Only team members
// may pass the admin-portal gate.
type UserType string

const (
	UserTypeUnknown UserType = ""
	StandaloneUser  UserType = "standalone_user"
	TeamMember      UserType = "team_member"
	ClientOrgUser   UserType = "client_org_user"
)

func (t UserType) String() string { return string(t) }

// IsTeam reports whether t is a team member.
func (t UserType) IsTeam() bool { return t == TeamMember }

// ParseUserType returns the user type named s, or UserTypeUnknown.
func ParseUserType(s string) UserType {
	switch t := UserType(s); t {
	case StandaloneUser, TeamMember, ClientOrgUser:
		return t
	default:
		return UserTypeUnknown
	}
}
