package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"portalgate/internal/gate"
	"portalgate/internal/portal"
	"portalgate/internal/session/service"
	id "portalgate/pkg/domain"
)

// DefaultRecheckInterval is how often an open websocket re-validates its
// session.
const DefaultRecheckInterval = 30 * time.Second

// Sessions is the session lifecycle the portal auth routes drive.
type Sessions interface {
	SignIn(ctx context.Context, nsID portal.ID, email, password string) (*service.Issued, error)
	Adopt(ctx context.Context, nsID portal.ID, accessToken, refreshToken string) (*service.Issued, error)
	Identify(nsID portal.ID, cookie string) (id.HandleID, id.SubjectID, error)
	SignOut(ctx context.Context, nsID portal.ID, handle id.HandleID, subjectID id.SubjectID) error
	Touch(ctx context.Context, subjectID id.SubjectID) error
}

// Notifications serves the live-tab channel for a subject until watch
// returns or the client disconnects.
type Notifications interface {
	Serve(w http.ResponseWriter, r *http.Request, subject id.SubjectID, watch func(ctx context.Context)) error
}

// Handler serves the portal auth routes, the access decision endpoint and
// the live-tab channel.
type Handler struct {
	sessions        Sessions
	mounter         *gate.Mounter
	guard           *gate.Guard
	requirements    *gate.Requirements
	notifications   Notifications
	secureCookies   bool
	recheckInterval time.Duration
	probes          map[string]Probe
	logger          *slog.Logger
}

// Probe reports whether a backing dependency can serve requests.
type Probe func(ctx context.Context) error

type Option func(*Handler)

func WithSecureCookies(secure bool) Option {
	return func(h *Handler) { h.secureCookies = secure }
}

func WithRecheckInterval(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.recheckInterval = d
		}
	}
}

// WithProbe adds a dependency to the readiness check.
func WithProbe(name string, p Probe) Option {
	return func(h *Handler) {
		if p != nil {
			h.probes[name] = p
		}
	}
}

// New creates a Handler. The guard protecting content routes is built from
// the same mounter and requirements table the decision endpoint uses.
func New(
	sessions Sessions,
	mounter *gate.Mounter,
	requirements *gate.Requirements,
	notifications Notifications,
	logger *slog.Logger,
	opts ...Option,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		sessions:        sessions,
		mounter:         mounter,
		requirements:    requirements,
		notifications:   notifications,
		recheckInterval: DefaultRecheckInterval,
		probes:          map[string]Probe{},
		logger:          logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.guard = gate.NewGuard(mounter, requirements, h.secureCookies, logger)
	return h
}

// IdentifyRequest resolves the cookie of the namespace the request path
// selects. Cookies of other namespaces are never consulted.
func (h *Handler) IdentifyRequest(r *http.Request) (id.HandleID, id.SubjectID, error) {
	nsID := portal.SelectNamespace(r.URL.Path)
	return h.sessions.Identify(nsID, portal.ReadCookie(r, nsID))
}
