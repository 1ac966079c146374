package gate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"portalgate/internal/logout"
	"portalgate/internal/platform/metrics"
	"portalgate/internal/portal"
	"portalgate/internal/role"
	"portalgate/internal/session/models"
	id "portalgate/pkg/domain"
	dErrors "portalgate/pkg/domain-errors"
	"portalgate/pkg/requestcontext"
)

// SessionSource resolves and loads namespace sessions.
type SessionSource interface {
	Identify(nsID portal.ID, cookie string) (id.HandleID, id.SubjectID, error)
	Load(ctx context.Context, nsID portal.ID, handle id.HandleID) (*models.AuthSession, error)
}

// ProfileSource loads the subject's Role and UserType.
type ProfileSource interface {
	LoadRole(ctx context.Context, subjectID id.SubjectID) (role.Role, error)
	LoadUserType(ctx context.Context, subjectID id.SubjectID) (role.UserType, error)
}

type ValidityChecker interface {
	CheckValidity(ctx context.Context, subjectID id.SubjectID) (models.Validity, error)
}

type ForcedLogout interface {
	ForceLogout(ctx context.Context, target logout.Target, reason logout.Reason) (string, error)
}

// Mounter loads the three gate inputs concurrently and drives a Gate.
type Mounter struct {
	sessions  SessionSource
	profiles  ProfileSource
	validity  ValidityChecker
	logout    ForcedLogout
	timeout   time.Duration
	afterFunc AfterFunc
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer

	teardownTimeout time.Duration
	teardowns       sync.WaitGroup
}

// DefaultTeardownTimeout bounds a forced logout started by the gate.
const DefaultTeardownTimeout = 5 * time.Second

type MounterOption func(*Mounter)

func WithWatchdog(d time.Duration) MounterOption {
	return func(m *Mounter) {
		if d > 0 {
			m.timeout = d
		}
	}
}

func WithMounterAfterFunc(fn AfterFunc) MounterOption {
	return func(m *Mounter) { m.afterFunc = fn }
}

func WithLogger(logger *slog.Logger) MounterOption {
	return func(m *Mounter) { m.logger = logger }
}

func WithMetrics(mt *metrics.Metrics) MounterOption {
	return func(m *Mounter) { m.metrics = mt }
}

func WithTeardownTimeout(d time.Duration) MounterOption {
	return func(m *Mounter) {
		if d > 0 {
			m.teardownTimeout = d
		}
	}
}

func NewMounter(sessions SessionSource, profiles ProfileSource, validity ValidityChecker, forced ForcedLogout, opts ...MounterOption) (*Mounter, error) {
	if sessions == nil {
		return nil, errors.New("session source is required")
	}
	if profiles == nil {
		return nil, errors.New("profile source is required")
	}
	if validity == nil {
		return nil, errors.New("validity checker is required")
	}
	if forced == nil {
		return nil, errors.New("forced logout is required")
	}
	m := &Mounter{
		sessions:  sessions,
		profiles:  profiles,
		validity:  validity,
		logout:    forced,
		timeout:   DefaultTimeout,
		afterFunc: realAfterFunc,
		logger:    slog.Default(),
		tracer:    otel.Tracer("portalgate/gate"),

		teardownTimeout: DefaultTeardownTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Mount is an open gate together with the session it was opened for.
type Mount struct {
	*Gate
	handle  id.HandleID
	subject id.SubjectID
}

// Decide opens a gate for route, waits for its decision and releases it.
func (m *Mounter) Decide(ctx context.Context, route Route, cookie string) (Decision, error) {
	mt, err := m.Open(ctx, route, cookie)
	if err != nil {
		return loading(route), err
	}
	defer mt.Close()
	return mt.Decision(), nil
}

// Open starts the three loads and returns once the gate has left Loading.
// The caller owns the returned Mount and must Close it. All loaders have
// returned by the time Open does.
func (m *Mounter) Open(ctx context.Context, route Route, cookie string) (*Mount, error) {
	ctx, span := m.tracer.Start(ctx, "gate.mount",
		trace.WithAttributes(
			attribute.String("route.path", route.Path),
			attribute.String("portal.namespace", route.Namespace.String()),
			attribute.String("route.required_role", route.Requirement.Role.String()),
		),
	)
	defer span.End()

	start := time.Now()
	g := New(route, WithTimeout(m.timeout), WithAfterFunc(m.afterFunc))
	mt := &Mount{Gate: g}

	handle, subject, err := m.sessions.Identify(route.Namespace, cookie)
	if err != nil {
		g.ResolveAuth(Auth{})
		g.ResolveRole(role.None)
		g.ResolveUserType(role.UserTypeUnknown)
	} else {
		mt.handle, mt.subject = handle, subject
		loadCtx, cancel := context.WithCancel(ctx)
		var wg sync.WaitGroup
		wg.Go(func() { m.loadAuth(loadCtx, g, route.Namespace, handle, subject) })
		wg.Go(func() { m.loadRole(loadCtx, g, subject) })
		wg.Go(func() { m.loadUserType(loadCtx, g, subject) })

		select {
		case <-g.Done():
		case <-ctx.Done():
		}
		cancel()
		wg.Wait()
	}

	if err := ctx.Err(); err != nil && g.State() == StateLoading {
		g.Close()
		span.SetStatus(codes.Error, "request cancelled while loading")
		return nil, err
	}

	d := g.Decision()
	span.SetAttributes(attribute.String("gate.state", d.State.String()))
	if m.metrics != nil {
		m.metrics.IncrementAccessDecision(route.Namespace.String(), d.State.String())
		m.metrics.ObserveGateLoad(route.Namespace.String(), time.Since(start).Seconds())
	}
	if !d.Granted() {
		m.logger.InfoContext(ctx, "access denied",
			"state", d.State.String(),
			"path", route.Path,
			"namespace", route.Namespace,
			"required_role", d.RequiredRole.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return mt, nil
}

func (m *Mounter) loadAuth(ctx context.Context, g *Gate, nsID portal.ID, handle id.HandleID, subject id.SubjectID) {
	session, err := m.sessions.Load(ctx, nsID, handle)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if !dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			m.logger.WarnContext(ctx, "session load failed, treating as signed out",
				"namespace", nsID,
				"error", err,
			)
		}
		g.ResolveAuth(Auth{})
		return
	}
	if session.SubjectID != subject {
		g.ResolveAuth(Auth{})
		return
	}

	validity, err := m.validity.CheckValidity(ctx, subject)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.logger.WarnContext(ctx, "session validity unknown",
			"namespace", nsID,
			"subject_id", subject.String(),
			"error", err,
		)
		g.Fail()
		return
	}
	if !validity.Valid {
		reason := logout.ReasonFor(validity.Reason)
		g.ResolveAuth(Auth{Expired: expiryFor(reason)})
		m.teardownDetached(ctx, logout.Target{SubjectID: subject, Namespace: nsID, Handle: handle}, reason)
		return
	}

	g.ResolveAuth(Auth{
		Present:            true,
		SubjectID:          subject,
		MustChangePassword: session.MustChangePassword,
	})
}

func (m *Mounter) loadRole(ctx context.Context, g *Gate, subject id.SubjectID) {
	r, err := m.profiles.LoadRole(ctx, subject)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.logger.WarnContext(ctx, "role load failed, denying role checks",
			"subject_id", subject.String(),
			"error", err,
		)
		r = role.None
	}
	g.ResolveRole(r)
}

func (m *Mounter) loadUserType(ctx context.Context, g *Gate, subject id.SubjectID) {
	t, err := m.profiles.LoadUserType(ctx, subject)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.logger.WarnContext(ctx, "user type load failed, treating as unclassified",
			"subject_id", subject.String(),
			"error", err,
		)
		t = role.UserTypeUnknown
	}
	g.ResolveUserType(t)
}

// Watch re-checks a granted mount every interval until ctx ends or the
// session is found invalid, in which case the session is torn down and the
// gate revoked. It returns the final decision.
func (m *Mounter) Watch(ctx context.Context, mt *Mount, interval time.Duration) Decision {
	if !mt.Decision().Granted() {
		return mt.Decision()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return mt.Decision()
		case <-ticker.C:
			validity, err := m.validity.CheckValidity(ctx, mt.subject)
			if err != nil {
				if ctx.Err() != nil {
					return mt.Decision()
				}
				m.logger.WarnContext(ctx, "session recheck failed", "subject_id", mt.subject.String(), "error", err)
				continue
			}
			if validity.Valid {
				continue
			}
			reason := logout.ReasonFor(validity.Reason)
			m.forceLogout(ctx, logout.Target{SubjectID: mt.subject, Namespace: mt.Route().Namespace, Handle: mt.handle}, reason)
			mt.Revoke(expiryFor(reason))
			return mt.Decision()
		}
	}
}

// teardownDetached runs the forced logout off the request path. The gate
// has already resolved, so a slow teardown cannot hold the decision.
func (m *Mounter) teardownDetached(ctx context.Context, target logout.Target, reason logout.Reason) {
	m.teardowns.Go(func() { m.forceLogout(ctx, target, reason) })
}

// Drain waits for detached teardowns to finish.
func (m *Mounter) Drain() {
	m.teardowns.Wait()
}

func (m *Mounter) forceLogout(ctx context.Context, target logout.Target, reason logout.Reason) {
	// Teardown outlives the request that noticed the invalid session.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.teardownTimeout)
	defer cancel()
	if _, err := m.logout.ForceLogout(ctx, target, reason); err != nil {
		m.logger.ErrorContext(ctx, "forced logout incomplete",
			"subject_id", target.SubjectID.String(),
			"namespace", target.Namespace,
			"reason", string(reason),
			"error", err,
		)
	}
}

func expiryFor(reason logout.Reason) ExpiryReason {
	if reason == logout.ReasonInactive {
		return ExpiryInactive
	}
	return ExpiryExpired
}
