// Package auth resolves the portal session cookie for routes that act on the
// caller's own session (sign-out, activity) without running the full access
// gate.
package auth

import (
	"log/slog"
	"net/http"

	id "portalgate/pkg/domain"
	dErrors "portalgate/pkg/domain-errors"
	"portalgate/pkg/platform/httputil"
	"portalgate/pkg/requestcontext"
)

// SessionIdentifier resolves the session cookie of the namespace selected by
// the request path.
type SessionIdentifier interface {
	IdentifyRequest(r *http.Request) (id.HandleID, id.SubjectID, error)
}

// RequireSession rejects requests without a valid session cookie. On success
// the handle and subject are stored on the request context.
func RequireSession(identifier SessionIdentifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			handle, subject, err := identifier.IdentifyRequest(r)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - no valid session",
					"path", r.URL.Path,
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid session"))
				return
			}

			ctx = requestcontext.WithHandleID(ctx, handle)
			ctx = requestcontext.WithSubjectID(ctx, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalSession stores the session on the context when one is present and
// lets the request through either way.
func OptionalSession(identifier SessionIdentifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handle, subject, err := identifier.IdentifyRequest(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := requestcontext.WithHandleID(r.Context(), handle)
			ctx = requestcontext.WithSubjectID(ctx, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
