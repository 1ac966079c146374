package gate

import (
	"sort"
	"strings"

	"portalgate/internal/portal"
	"portalgate/internal/role"
)

// Requirements maps route prefixes to what they demand. The longest
// matching prefix wins; a public prefix or no match means the route is not
// guarded.
type Requirements struct {
	entries []requirementEntry
}

type requirementEntry struct {
	prefix string
	req    Requirement
	public bool
	exact  bool
}

func NewRequirements() *Requirements {
	return &Requirements{}
}

// Protect registers prefix with req.
func (r *Requirements) Protect(prefix string, req Requirement) *Requirements {
	r.add(requirementEntry{prefix: prefix, req: req})
	return r
}

// ProtectExact registers req for path itself only. It wins over a prefix
// entry of the same length.
func (r *Requirements) ProtectExact(path string, req Requirement) *Requirements {
	r.add(requirementEntry{prefix: path, req: req, exact: true})
	return r
}

// Public registers prefix as unguarded, overriding a shorter protected prefix.
func (r *Requirements) Public(prefix string) *Requirements {
	r.add(requirementEntry{prefix: prefix, public: true})
	return r
}

func (r *Requirements) add(e requirementEntry) {
	r.entries = append(r.entries, e)
	sort.SliceStable(r.entries, func(i, j int) bool {
		a, b := r.entries[i], r.entries[j]
		if len(a.prefix) != len(b.prefix) {
			return len(a.prefix) > len(b.prefix)
		}
		return a.exact && !b.exact
	})
}

// Lookup returns the requirement for path and whether the path is guarded.
func (r *Requirements) Lookup(path string) (Requirement, bool) {
	for _, e := range r.entries {
		if e.exact && path != e.prefix {
			continue
		}
		if matchPrefix(path, e.prefix) {
			if e.public {
				return Requirement{}, false
			}
			return e.req, true
		}
	}
	return Requirement{}, false
}

// matchPrefix matches whole path segments so "/adminx" does not fall under
// "/admin". The root prefix matches everything.
func matchPrefix(path, prefix string) bool {
	if prefix == "/" {
		return true
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/' || path[len(prefix)] == '?'
}

// DefaultRequirements is the portal route table. The bare /admin landing
// page is the baseline admin surface; every screen below it checks the role.
func DefaultRequirements() *Requirements {
	return NewRequirements().
		ProtectExact(portal.AdminPrefix, Requirement{Role: role.Admin, TeamShortcut: true}).
		Protect(portal.AdminPrefix, Requirement{Role: role.Admin}).
		Protect(portal.AdminPrefix+"/super", Requirement{Role: role.SuperAdmin}).
		Protect(portal.SimulatorPrefix, Requirement{Role: role.Tester, Exact: true}).
		Protect("/dashboard", Requirement{Role: role.User}).
		Protect(portal.ChangePasswordPath, Requirement{}).
		Protect(portal.AdminChangePasswordPath, Requirement{}).
		Public(portal.LoginPath).
		Public(portal.AdminLoginPath).
		Public(portal.SimulatorLoginPath).
		Public(portal.AdminPrefix + "/auth/callback").
		Public("/auth/callback").
		Public(portal.SimulatorPrefix + "/auth/callback")
}
