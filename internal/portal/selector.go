package portal

import (
	"net/http"
	"strings"
)

// Route prefixes that select a non-default namespace.
const (
	AdminPrefix     = "/admin"
	SimulatorPrefix = "/simulator"
)

// SelectNamespace returns the namespace every backend call must use while
// pathname is the active route. It is pure and total; anything that is not
// an admin or simulator route belongs to the end-user portal.
func SelectNamespace(pathname string) ID {
	switch {
	case strings.HasPrefix(pathname, AdminPrefix):
		return Admin
	case strings.HasPrefix(pathname, SimulatorPrefix):
		return Simulator
	default:
		return EndUser
	}
}

// Select is SelectNamespace plus the namespace definition.
func Select(pathname string) Namespace {
	return Get(SelectNamespace(pathname))
}

// Middleware stores the namespace selected from the request path in the
// request context. It is re-evaluated on every request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithNamespace(r.Context(), SelectNamespace(r.URL.Path))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
