// Package role is the single source of truth for role and user-type checks.
package role

// Role is an assigned role. user < admin < super_admin are ordered; tester is
// outside the order and only ever matches itself. A subject is evaluated
// with exactly one Role.
type Role string

const (
	None       Role = ""
	User       Role = "user"
	Admin      Role = "admin"
	SuperAdmin Role = "super_admin"
	Tester     Role = "tester"
)

// rank is 0 for roles outside the hierarchy.
func (r Role) rank() int {
	switch r {
	case User:
		return 1
	case Admin:
		return 2
	case SuperAdmin:
		return 3
	default:
		return 0
	}
}

// Ordinal reports whether r takes part in the hierarchy.
func (r Role) Ordinal() bool { return r.rank() > 0 }

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return r.Ordinal() || r == Tester }

func (r Role) String() string { return string(r) }

// AtLeastAdmin reports whether r is admin or super_admin.
func (r Role) AtLeastAdmin() bool { return r.rank() >= Admin.rank() }

// Parse returns the role named s, or None.
func Parse(s string) Role {
	r := Role(s)
	if r.Valid() {
		return r
	}
	return None
}

// HasRole reports whether assigned is at least as powerful as required.
// Tester never satisfies and is never satisfied by an ordinal role.
func HasRole(assigned, required Role) bool {
	if !assigned.Ordinal() || !required.Ordinal() {
		return false
	}
	return assigned.rank() >= required.rank()
}

// HasExactRole reports whether assigned is exactly required. Used where a
// higher role must not stand in for a specific one.
func HasExactRole(assigned, required Role) bool {
	return assigned.Valid() && assigned == required
}

// Strongest reduces a subject's grant rows to the single Role the gate
// evaluates. Every check works on that one value: a subject holding tester
// together with an ordinal role is evaluated as the ordinal role and fails
// exact tester checks. Simulator accounts carry tester as their only grant.
func Strongest(roles []Role) Role {
	best := None
	tester := false
	for _, r := range roles {
		if r == Tester {
			tester = true
			continue
		}
		if r.rank() > best.rank() {
			best = r
		}
	}
	if best == None && tester {
		return Tester
	}
	return best
}
