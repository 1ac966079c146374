// Package service runs the per-namespace session lifecycle: sign-in, URL
// hand-off, load with auto-refresh, activity touch and sign-out.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"portalgate/internal/backend"
	"portalgate/internal/platform/metrics"
	"portalgate/internal/portal"
	"portalgate/internal/role"
	"portalgate/internal/session/device"
	"portalgate/internal/session/models"
	id "portalgate/pkg/domain"
	dErrors "portalgate/pkg/domain-errors"
	"portalgate/pkg/platform/sentinel"
	"portalgate/pkg/requestcontext"
)

// Backend is the slice of the identity service the lifecycle needs.
type Backend interface {
	SignIn(ctx context.Context, email, password string) (*backend.Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (*backend.Tokens, error)
	SignOut(ctx context.Context, accessToken string) error
	Adopt(ctx context.Context, accessToken, refreshToken string) (*backend.Tokens, error)
}

// MetadataStore tracks subject liveness across namespaces.
type MetadataStore interface {
	Create(ctx context.Context, meta *models.Metadata) error
	Touch(ctx context.Context, subjectID id.SubjectID, at time.Time) error
	Delete(ctx context.Context, subjectID id.SubjectID) error
}

// HandleIssuer mints and resolves the namespace-bound cookie values.
type HandleIssuer interface {
	Issue(ns portal.ID, handle id.HandleID, subjectID id.SubjectID, ttl time.Duration) (string, error)
	Resolve(ns portal.ID, token string) (id.HandleID, id.SubjectID, error)
}

// UserTypes classifies subjects so a fresh session knows which portal's
// screens belong to it.
type UserTypes interface {
	LoadUserType(ctx context.Context, subjectID id.SubjectID) (role.UserType, error)
}

const DefaultRefreshMargin = 60 * time.Second

type Service struct {
	stores        *Multiplexer
	metadata      MetadataStore
	backend       Backend
	handles       HandleIssuer
	userTypes     UserTypes
	logger        *slog.Logger
	metrics       *metrics.Metrics
	refreshMargin time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithUserTypes(src UserTypes) Option {
	return func(s *Service) { s.userTypes = src }
}

func WithRefreshMargin(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.refreshMargin = d
		}
	}
}

func New(stores *Multiplexer, metadata MetadataStore, be Backend, handles HandleIssuer, opts ...Option) (*Service, error) {
	if stores == nil {
		return nil, errors.New("namespace stores are required")
	}
	if metadata == nil {
		return nil, errors.New("metadata store is required")
	}
	if be == nil {
		return nil, errors.New("backend is required")
	}
	if handles == nil {
		return nil, errors.New("handle issuer is required")
	}
	s := &Service{
		stores:        stores,
		metadata:      metadata,
		backend:       be,
		handles:       handles,
		logger:        slog.Default(),
		refreshMargin: DefaultRefreshMargin,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issued is a freshly stored session plus the cookie value that addresses it.
// UserType is UserTypeUnknown when no classification could be loaded.
type Issued struct {
	Namespace portal.Namespace
	Token     string
	Session   *models.AuthSession
	UserType  role.UserType
}

// SignIn authenticates against the backend and stores the session in the
// namespace nsID only. Metadata is reset for the subject.
func (s *Service) SignIn(ctx context.Context, nsID portal.ID, email, password string) (*Issued, error) {
	tokens, err := s.backend.SignIn(ctx, email, password)
	if err != nil {
		s.recordSignIn(nsID, "rejected")
		return nil, err
	}
	issued, err := s.establish(ctx, nsID, tokens)
	if err != nil {
		s.recordSignIn(nsID, "error")
		return nil, err
	}
	s.recordSignIn(nsID, "ok")
	s.logger.InfoContext(ctx, "signed in",
		"namespace", nsID,
		"subject_id", tokens.SubjectID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return issued, nil
}

// Adopt stores a session handed off through URL parameters. Namespaces
// without URL session detection refuse without touching storage.
func (s *Service) Adopt(ctx context.Context, nsID portal.ID, accessToken, refreshToken string) (*Issued, error) {
	ns := s.stores.Store(nsID).Namespace()
	if !ns.URLSessionDetection {
		s.logger.WarnContext(ctx, "url session hand-off refused",
			"namespace", nsID,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.New(dErrors.CodeNotFound, "not found")
	}
	if accessToken == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "access_token is required")
	}
	tokens, err := s.backend.Adopt(ctx, accessToken, refreshToken)
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, nsID, tokens)
}

func (s *Service) establish(ctx context.Context, nsID portal.ID, tokens *backend.Tokens) (*Issued, error) {
	store := s.stores.Store(nsID)
	ns := store.Namespace()
	now := requestcontext.Now(ctx)

	session := &models.AuthSession{
		Handle:             id.NewHandleID(),
		Namespace:          ns.ID,
		SubjectID:          tokens.SubjectID,
		AccessToken:        tokens.AccessToken,
		RefreshToken:       tokens.RefreshToken,
		AccessExpiresAt:    tokens.ExpiresAt,
		MustChangePassword: tokens.MustChangePassword,
		CreatedAt:          now,
	}
	if err := store.Put(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store session")
	}

	if err := s.metadata.Create(ctx, &models.Metadata{
		SubjectID:        session.SubjectID,
		Namespace:        ns.ID,
		Handle:           session.Handle,
		Device:           device.ParseUserAgent(requestcontext.UserAgent(ctx)),
		SessionCreatedAt: now,
		LastActivityAt:   now,
	}); err != nil {
		_ = store.Delete(ctx, session.Handle)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record session metadata")
	}

	token, err := s.handles.Issue(ns.ID, session.Handle, session.SubjectID, ns.SessionTTL)
	if err != nil {
		_ = store.Delete(ctx, session.Handle)
		_ = s.metadata.Delete(ctx, session.SubjectID)
		return nil, err
	}
	return &Issued{Namespace: ns, Token: token, Session: session, UserType: s.userTypeOf(ctx, session.SubjectID)}, nil
}

func (s *Service) userTypeOf(ctx context.Context, subjectID id.SubjectID) role.UserType {
	if s.userTypes == nil {
		return role.UserTypeUnknown
	}
	t, err := s.userTypes.LoadUserType(ctx, subjectID)
	if err != nil {
		s.logger.WarnContext(ctx, "user type unavailable at sign-in",
			"subject_id", subjectID.String(),
			"error", err,
		)
		return role.UserTypeUnknown
	}
	return t
}

// Identify resolves a namespace cookie value. A value minted for another
// namespace is rejected.
func (s *Service) Identify(nsID portal.ID, cookie string) (id.HandleID, id.SubjectID, error) {
	if cookie == "" {
		return id.HandleID{}, id.SubjectID{}, dErrors.New(dErrors.CodeUnauthorized, "no session")
	}
	return s.handles.Resolve(nsID, cookie)
}

// Load returns the namespace session for handle, refreshing the backend
// token when the namespace allows it. An absent or unrecoverable session is
// CodeUnauthorized; store failures are CodeUnavailable.
func (s *Service) Load(ctx context.Context, nsID portal.ID, handle id.HandleID) (*models.AuthSession, error) {
	store := s.stores.Store(nsID)
	ns := store.Namespace()

	session, err := store.Get(ctx, handle)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "no session")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load session")
	}

	now := requestcontext.Now(ctx)
	if !ns.AutoRefresh {
		if session.AccessExpired(now) {
			_ = store.Delete(ctx, handle)
			return nil, dErrors.New(dErrors.CodeUnauthorized, "no session")
		}
		return session, nil
	}
	if !session.NeedsRefresh(now, s.refreshMargin) {
		return session, nil
	}

	tokens, err := s.backend.Refresh(ctx, session.RefreshToken)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			_ = store.Delete(ctx, handle)
			return nil, dErrors.New(dErrors.CodeUnauthorized, "no session")
		}
		if session.AccessExpired(now) {
			return nil, err
		}
		s.logger.WarnContext(ctx, "token refresh failed, keeping current token",
			"namespace", nsID,
			"subject_id", session.SubjectID.String(),
			"error", err,
		)
		return session, nil
	}
	if tokens.SubjectID != session.SubjectID {
		_ = store.Delete(ctx, handle)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "no session")
	}

	session.AccessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		session.RefreshToken = tokens.RefreshToken
	}
	session.AccessExpiresAt = tokens.ExpiresAt
	session.MustChangePassword = tokens.MustChangePassword
	session.RefreshedAt = &now
	if err := store.Put(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to store refreshed session")
	}
	return session, nil
}

// EndNamespaceSession signs the handle out of the backend and removes it
// from the namespace store. A session that is already gone is success.
func (s *Service) EndNamespaceSession(ctx context.Context, nsID portal.ID, handle id.HandleID) error {
	store := s.stores.Store(nsID)
	session, err := store.Get(ctx, handle)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load session")
	}

	var errs []error
	if err := s.backend.SignOut(ctx, session.AccessToken); err != nil {
		errs = append(errs, err)
	}
	if err := store.Delete(ctx, handle); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		errs = append(errs, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to delete session"))
	}
	return errors.Join(errs...)
}

// SignOut is the voluntary logout: namespace session plus metadata. It is
// idempotent.
func (s *Service) SignOut(ctx context.Context, nsID portal.ID, handle id.HandleID, subjectID id.SubjectID) error {
	var errs []error
	if err := s.EndNamespaceSession(ctx, nsID, handle); err != nil {
		errs = append(errs, err)
	}
	if !subjectID.IsNil() {
		if err := s.metadata.Delete(ctx, subjectID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			errs = append(errs, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to delete session metadata"))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "signed out",
		"namespace", nsID,
		"subject_id", subjectID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// Touch records qualifying activity. Concurrent touches are last-write-wins.
func (s *Service) Touch(ctx context.Context, subjectID id.SubjectID) error {
	if subjectID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "no session")
	}
	if err := s.metadata.Touch(ctx, subjectID, requestcontext.Now(ctx)); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeUnauthorized, "no session")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to record activity")
	}
	return nil
}

func (s *Service) recordSignIn(nsID portal.ID, outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementSignIn(nsID.String(), outcome)
	}
}
