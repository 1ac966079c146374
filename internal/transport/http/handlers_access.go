package httptransport

import (
	"context"
	"net/http"
	"strings"
	"time"

	"portalgate/internal/gate"
	"portalgate/internal/portal"
	dErrors "portalgate/pkg/domain-errors"
	"portalgate/pkg/platform/httputil"
	"portalgate/pkg/requestcontext"
)

const readinessTimeout = 2 * time.Second

// ContentResponse is returned by protected content routes once the gate has
// granted access.
type ContentResponse struct {
	State     gate.State `json:"state"`
	Path      string     `json:"path"`
	SubjectID string     `json:"subject_id"`
}

// handleAccess evaluates the gate for ?path= and returns the decision
// payload. The status is always 200; the payload state carries the outcome.
func (h *Handler) handleAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	path := r.URL.Query().Get("path")
	if path == "" || path[0] != '/' {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "path must be an absolute route"))
		return
	}

	req, guarded := h.requirements.Lookup(path)
	if !guarded {
		httputil.WriteJSON(w, http.StatusOK, gate.Payload{State: gate.StateGranted})
		return
	}

	route := gate.NewRoute(path, req)
	d, err := h.mounter.Decide(ctx, route, portal.ReadCookie(r, route.Namespace))
	if err != nil {
		h.logger.DebugContext(ctx, "access check abandoned",
			"path", path,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return
	}
	if d.EndSession {
		http.SetCookie(w, portal.ClearCookie(route.Namespace, h.secureCookies))
	}
	httputil.WriteJSON(w, http.StatusOK, d.Payload())
}

// handleWebsocket opens a gate for the portal the path selects and, once
// granted, keeps the tab subscribed to notifications while the session is
// re-checked in the background. The connection closes when the session
// ends. A socket demands what the portal's landing page demands.
func (h *Handler) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, _ := h.requirements.Lookup(portalRoot(r.URL.Path))
	route := gate.NewRoute(r.URL.Path, req)
	mt, err := h.mounter.Open(ctx, route, portal.ReadCookie(r, route.Namespace))
	if err != nil {
		return
	}
	defer mt.Close()

	d := mt.Decision()
	if !d.Granted() {
		gate.WriteDecision(w, route.Namespace, d, h.secureCookies)
		return
	}

	err = h.notifications.Serve(w, r, d.SubjectID, func(watchCtx context.Context) {
		h.mounter.Watch(watchCtx, mt, h.recheckInterval)
	})
	if err != nil {
		h.logger.WarnContext(ctx, "websocket closed with error",
			"namespace", route.Namespace,
			"subject_id", d.SubjectID.String(),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}

// portalRoot maps a portal's socket path to its landing page.
func portalRoot(wsPath string) string {
	root := strings.TrimSuffix(wsPath, "/ws")
	if root == "" {
		return "/"
	}
	return root
}

func (h *Handler) handleContent(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, ContentResponse{
		State:     gate.StateGranted,
		Path:      r.URL.Path,
		SubjectID: requestcontext.SubjectID(r.Context()).String(),
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady runs every registered probe. Any failure answers 503 with the
// failing dependency named.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := http.StatusOK
	report := make(map[string]string, len(h.probes))
	for name, probe := range h.probes {
		if err := probe(ctx); err != nil {
			status = http.StatusServiceUnavailable
			report[name] = err.Error()
			h.logger.WarnContext(ctx, "readiness probe failed", "dependency", name, "error", err)
			continue
		}
		report[name] = "ok"
	}
	httputil.WriteJSON(w, status, report)
}
