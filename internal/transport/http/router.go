package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"portalgate/internal/portal"
	"portalgate/pkg/platform/middleware/auth"
	"portalgate/pkg/platform/middleware/metadata"
	"portalgate/pkg/platform/middleware/request"
	"portalgate/pkg/platform/middleware/requesttime"
)

// portalPrefixes are the route roots of the three portals. The end-user
// portal lives at the root.
var portalPrefixes = []string{"", portal.AdminPrefix, portal.SimulatorPrefix}

// contentRoutes are served behind the access gate.
var contentRoutes = []string{
	"/dashboard", "/dashboard/*",
	portal.ChangePasswordPath,
	portal.AdminPrefix, portal.AdminPrefix + "/*",
	portal.SimulatorPrefix, portal.SimulatorPrefix + "/*",
}

// Register mounts every portal route on r.
func (h *Handler) Register(r chi.Router) {
	for _, prefix := range portalPrefixes {
		r.Post(prefix+"/login", h.handleLogin)
		r.Get(prefix+"/auth/callback", h.handleCallback)
		r.With(auth.OptionalSession(h)).Post(prefix+"/logout", h.handleLogout)
		r.With(auth.RequireSession(h, h.logger)).Post(prefix+"/activity", h.handleActivity)
		r.Get(prefix+"/ws", h.handleWebsocket)
	}
	r.Get("/api/access", h.handleAccess)

	r.Group(func(r chi.Router) {
		r.Use(h.guard.Protect)
		for _, path := range contentRoutes {
			r.Get(path, h.handleContent)
		}
	})
}

// NewRouter builds the full server handler: shared middleware, the portal
// routes, health and metrics.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(h.logger))
	r.Use(request.Logger(h.logger))
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(portal.Middleware)

	r.Get("/healthz", h.handleHealth)
	r.Get("/readyz", h.handleReady)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	h.Register(r)

	return otelhttp.NewHandler(r, "portalgate",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
