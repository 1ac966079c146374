package gate

import (
	"log/slog"
	"net/http"

	"portalgate/internal/portal"
	"portalgate/pkg/platform/httputil"
	"portalgate/pkg/requestcontext"
)

// Guard puts routes behind the access gate.
type Guard struct {
	mounter       *Mounter
	requirements  *Requirements
	secureCookies bool
	logger        *slog.Logger
}

func NewGuard(mounter *Mounter, requirements *Requirements, secureCookies bool, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		mounter:       mounter,
		requirements:  requirements,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// Protect guards every request whose path the requirements table covers.
// Unguarded paths pass straight through.
func (g *Guard) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, guarded := g.requirements.Lookup(r.URL.Path)
		if !guarded {
			next.ServeHTTP(w, r)
			return
		}
		g.serve(w, r, req, next)
	})
}

// Require guards next with a fixed requirement regardless of the table.
func (g *Guard) Require(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			g.serve(w, r, req, next)
		})
	}
}

func (g *Guard) serve(w http.ResponseWriter, r *http.Request, req Requirement, next http.Handler) {
	ctx := r.Context()
	route := NewRoute(r.URL.Path, req)
	d, err := g.mounter.Decide(ctx, route, portal.ReadCookie(r, route.Namespace))
	if err != nil {
		// The client went away while the gate was loading.
		g.logger.DebugContext(ctx, "gate abandoned", "path", route.Path, "error", err)
		return
	}
	if d.Granted() {
		ctx = requestcontext.WithSubjectID(ctx, d.SubjectID)
		next.ServeHTTP(w, r.WithContext(ctx))
		return
	}
	WriteDecision(w, route.Namespace, d, g.secureCookies)
}

// WriteDecision renders a non-granted decision. A decision that ended the
// session also clears the namespace cookie.
func WriteDecision(w http.ResponseWriter, nsID portal.ID, d Decision, secureCookies bool) {
	if d.EndSession {
		http.SetCookie(w, portal.ClearCookie(nsID, secureCookies))
	}
	status := StatusFor(d.State)
	if status == http.StatusSeeOther && d.Redirect != "" {
		w.Header().Set("Location", d.Redirect)
	}
	httputil.WriteJSON(w, status, d.Payload())
}

// StatusFor maps a decision state onto an HTTP status.
func StatusFor(s State) int {
	switch s {
	case StateGranted:
		return http.StatusOK
	case StateUnauthenticated:
		return http.StatusUnauthorized
	case StatePortalMismatch, StateInsufficientRole:
		return http.StatusForbidden
	case StateMustChangePassword:
		return http.StatusSeeOther
	case StateTimedOut:
		return http.StatusGatewayTimeout
	default:
		return http.StatusAccepted
	}
}
