package httptransport

import (
	"encoding/json"
	"net/http"
	"strings"

	"portalgate/internal/portal"
	"portalgate/internal/session/service"
	dErrors "portalgate/pkg/domain-errors"
	"portalgate/pkg/platform/httputil"
	"portalgate/pkg/requestcontext"
)

// LoginRequest is the body of POST <portal>/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse describes the session a login or hand-off established.
type SessionResponse struct {
	Namespace          portal.ID `json:"namespace"`
	SubjectID          string    `json:"subject_id"`
	MustChangePassword bool      `json:"must_change_password"`
	Redirect           string    `json:"redirect"`
}

// homePath is where a freshly signed-in subject lands in each portal.
func homePath(nsID portal.ID) string {
	switch nsID {
	case portal.Admin:
		return portal.AdminPrefix
	case portal.Simulator:
		return portal.SimulatorPrefix
	default:
		return "/dashboard"
	}
}

// landingFor picks the first screen after sign-in. The change-password
// screen follows the subject's team membership, not the portal used.
func landingFor(issued *service.Issued) string {
	if issued.Session.MustChangePassword {
		return portal.ChangePasswordPathFor(issued.UserType.IsTeam())
	}
	return homePath(issued.Namespace.ID)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	nsID := portal.FromContext(ctx)

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid login request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "email and password are required"))
		return
	}

	issued, err := h.sessions.SignIn(ctx, nsID, req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "sign-in failed",
			"namespace", nsID,
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	http.SetCookie(w, portal.SessionCookie(issued.Namespace.ID, issued.Token, h.secureCookies))
	httputil.WriteJSON(w, http.StatusOK, SessionResponse{
		Namespace:          issued.Namespace.ID,
		SubjectID:          issued.Session.SubjectID.String(),
		MustChangePassword: issued.Session.MustChangePassword,
		Redirect:           landingFor(issued),
	})
}

// handleCallback adopts a session handed off through URL parameters.
func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	nsID := portal.FromContext(ctx)

	q := r.URL.Query()
	issued, err := h.sessions.Adopt(ctx, nsID, q.Get("access_token"), q.Get("refresh_token"))
	if err != nil {
		h.logger.WarnContext(ctx, "session hand-off failed",
			"namespace", nsID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	http.SetCookie(w, portal.SessionCookie(issued.Namespace.ID, issued.Token, h.secureCookies))
	http.Redirect(w, r, landingFor(issued), http.StatusSeeOther)
}

// handleLogout ends the caller's session in the path's namespace. Calling
// it without a session only clears the cookie.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	nsID := portal.FromContext(ctx)
	handle := requestcontext.HandleID(ctx)

	http.SetCookie(w, portal.ClearCookie(nsID, h.secureCookies))
	if handle.IsNil() {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.sessions.SignOut(ctx, nsID, handle, requestcontext.SubjectID(ctx)); err != nil {
		h.logger.ErrorContext(ctx, "sign-out failed",
			"namespace", nsID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleActivity records qualifying user activity for the session subject.
func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.sessions.Touch(ctx, requestcontext.SubjectID(ctx)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
