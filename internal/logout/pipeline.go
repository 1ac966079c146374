// Package logout tears down sessions found invalid, either by a mounted
// access gate or by the idle sweeper.
package logout

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"portalgate/internal/notify"
	"portalgate/internal/platform/metrics"
	"portalgate/internal/portal"
	"portalgate/internal/session/models"
	id "portalgate/pkg/domain"
	dErrors "portalgate/pkg/domain-errors"
	"portalgate/pkg/platform/sentinel"
	"portalgate/pkg/requestcontext"
)

// DefaultNotifyTimeout bounds the notification step of a forced logout.
const DefaultNotifyTimeout = 2 * time.Second

// Reason is why a session was forced out.
type Reason string

const (
	ReasonInactive Reason = "inactive"
	ReasonExpired  Reason = "expired"
)

// ReasonFor maps a validity failure onto a logout reason.
func ReasonFor(r models.InvalidReason) Reason {
	if r == models.ReasonInactive {
		return ReasonInactive
	}
	return ReasonExpired
}

// Target names the session to tear down. Handle may be nil when only the
// subject is known, in which case no namespace session is signed out.
type Target struct {
	SubjectID id.SubjectID
	Namespace portal.ID
	Handle    id.HandleID
}

type SessionEnder interface {
	EndNamespaceSession(ctx context.Context, nsID portal.ID, handle id.HandleID) error
}

type MetadataDeleter interface {
	Delete(ctx context.Context, subjectID id.SubjectID) error
}

type Notifier interface {
	Notify(ctx context.Context, n notify.Notification) error
}

// Pipeline runs the forced-logout steps in order: sign out of the namespace,
// delete metadata, notify, redirect. Each step treats an already absent
// session as done, so concurrent calls for the same subject converge.
type Pipeline struct {
	sessions      SessionEnder
	metadata      MetadataDeleter
	notifier      Notifier
	notifyTimeout time.Duration
	logger        *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

type Option func(*Pipeline)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithNotifyTimeout bounds how long the notification step may take.
func WithNotifyTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.notifyTimeout = d
		}
	}
}

func New(sessions SessionEnder, metadata MetadataDeleter, notifier Notifier, opts ...Option) (*Pipeline, error) {
	if sessions == nil {
		return nil, errors.New("session ender is required")
	}
	if metadata == nil {
		return nil, errors.New("metadata store is required")
	}
	if notifier == nil {
		return nil, errors.New("notifier is required")
	}
	p := &Pipeline{
		sessions:      sessions,
		metadata:      metadata,
		notifier:      notifier,
		notifyTimeout: DefaultNotifyTimeout,
		logger:        slog.Default(),
		tracer:        otel.Tracer("portalgate/logout"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// ForceLogout ends the target's session and returns the login URL the
// caller should redirect to. The redirect is returned even when a teardown
// step failed; the error then carries every failure.
func (p *Pipeline) ForceLogout(ctx context.Context, target Target, reason Reason) (string, error) {
	ctx, span := p.tracer.Start(ctx, "logout.force",
		trace.WithAttributes(
			attribute.String("portal.namespace", target.Namespace.String()),
			attribute.String("logout.reason", string(reason)),
		),
	)
	defer span.End()

	var errs []error
	if !target.Handle.IsNil() {
		if err := p.sessions.EndNamespaceSession(ctx, target.Namespace, target.Handle); err != nil {
			errs = append(errs, err)
		}
	}
	if err := p.metadata.Delete(ctx, target.SubjectID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		errs = append(errs, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to delete session metadata"))
	}

	redirect := portal.ExpiredLoginURL(target.Namespace)
	n := notificationFor(target, reason, requestcontext.Now(ctx))
	n.Redirect = redirect
	notifyCtx, cancel := context.WithTimeout(ctx, p.notifyTimeout)
	err := p.notifier.Notify(notifyCtx, n)
	cancel()
	if err != nil {
		p.logger.WarnContext(ctx, "logout notification not delivered",
			"subject_id", target.SubjectID.String(),
			"error", err,
		)
	}

	if p.metrics != nil {
		p.metrics.IncrementForcedLogout(string(reason))
	}

	err = errors.Join(errs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "teardown incomplete")
		return redirect, err
	}
	p.logger.InfoContext(ctx, "session forced out",
		"subject_id", target.SubjectID.String(),
		"namespace", target.Namespace,
		"reason", string(reason),
		"request_id", requestcontext.RequestID(ctx),
	)
	return redirect, nil
}

func notificationFor(target Target, reason Reason, at time.Time) notify.Notification {
	n := notify.Notification{
		SubjectID: target.SubjectID,
		Namespace: target.Namespace,
		Severity:  notify.SeverityWarning,
		Reason:    string(reason),
		At:        at,
	}
	switch reason {
	case ReasonInactive:
		n.Title = InactiveTitle
		n.Description = InactiveDescription
	default:
		n.Title = ExpiredTitle
		n.Description = ExpiredDescription
	}
	return n
}

const (
	InactiveTitle       = "Signed out for inactivity"
	InactiveDescription = "You were signed out because you were inactive for too long. Sign in again to continue."
	ExpiredTitle        = "Session expired"
	ExpiredDescription  = "Your session reached its maximum length. Sign in again to continue."
)
