package gate

//go:generate mockgen -source=mount.go -destination=mocks/mocks.go -package=mocks SessionSource,ProfileSource,ValidityChecker,ForcedLogout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"portalgate/internal/gate/mocks"
	"portalgate/internal/logout"
	"portalgate/internal/platform/metrics"
	"portalgate/internal/portal"
	"portalgate/internal/role"
	"portalgate/internal/session/models"
	id "portalgate/pkg/domain"
	dErrors "portalgate/pkg/domain-errors"
)

type MounterSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	sessions *mocks.MockSessionSource
	profiles *mocks.MockProfileSource
	validity *mocks.MockValidityChecker
	logout   *mocks.MockForcedLogout
	metrics  *metrics.Metrics
	mounter  *Mounter
	handle   id.HandleID
	subject  id.SubjectID
}

func TestMounterSuite(t *testing.T) {
	suite.Run(t, new(MounterSuite))
}

func (s *MounterSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.sessions = mocks.NewMockSessionSource(s.ctrl)
	s.profiles = mocks.NewMockProfileSource(s.ctrl)
	s.validity = mocks.NewMockValidityChecker(s.ctrl)
	s.logout = mocks.NewMockForcedLogout(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.handle = id.NewHandleID()
	s.subject = id.SubjectID(uuid.New())

	s.mounter = s.newMounter(WithWatchdog(time.Second))
}

func (s *MounterSuite) TearDownTest() {
	s.mounter.Drain()
}

func (s *MounterSuite) newMounter(opts ...MounterOption) *Mounter {
	opts = append([]MounterOption{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
	}, opts...)
	m, err := NewMounter(s.sessions, s.profiles, s.validity, s.logout, opts...)
	s.Require().NoError(err)
	return m
}

func (s *MounterSuite) adminRoute() Route {
	return NewRoute("/admin/users", Requirement{Role: role.Admin})
}

func (s *MounterSuite) expectIdentify(ns portal.ID) {
	s.sessions.EXPECT().Identify(ns, "cookie").Return(s.handle, s.subject, nil)
}

func (s *MounterSuite) expectSession(ns portal.ID) {
	s.sessions.EXPECT().Load(gomock.Any(), ns, s.handle).Return(&models.AuthSession{
		Handle:    s.handle,
		Namespace: ns,
		SubjectID: s.subject,
	}, nil)
}

func (s *MounterSuite) expectProfile(r role.Role, t role.UserType) {
	s.profiles.EXPECT().LoadRole(gomock.Any(), s.subject).Return(r, nil)
	s.profiles.EXPECT().LoadUserType(gomock.Any(), s.subject).Return(t, nil)
}

func (s *MounterSuite) TestGranted() {
	s.expectIdentify(portal.Admin)
	s.expectSession(portal.Admin)
	s.validity.EXPECT().CheckValidity(gomock.Any(), s.subject).Return(models.ValidSession(), nil)
	s.expectProfile(role.Admin, role.TeamMember)

	d, err := s.mounter.Decide(context.Background(), s.adminRoute(), "cookie")

	s.Require().NoError(err)
	s.Equal(StateGranted, d.State)
	s.Equal(s.subject, d.SubjectID)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.AccessDecisions.WithLabelValues("admin", "Granted")))
}

func (s *MounterSuite) TestNoCookieSkipsLoads() {
	s.sessions.EXPECT().Identify(portal.Admin, "").Return(id.HandleID{}, id.SubjectID{}, dErrors.New(dErrors.CodeUnauthorized, "no session"))

	d, err := s.mounter.Decide(context.Background(), s.adminRoute(), "")

	s.Require().NoError(err)
	s.Equal(StateUnauthenticated, d.State)
	s.Equal(portal.AdminLoginPath, d.Redirect)
}

func (s *MounterSuite) TestInvalidSessionIsForcedOut() {
	s.expectIdentify(portal.EndUser)
	s.expectSession(portal.EndUser)
	s.validity.EXPECT().CheckValidity(gomock.Any(), s.subject).Return(models.InvalidSession(models.ReasonInactive), nil)
	s.logout.EXPECT().ForceLogout(gomock.Any(), logout.Target{
		SubjectID: s.subject,
		Namespace: portal.EndUser,
		Handle:    s.handle,
	}, logout.ReasonInactive).Return(portal.ExpiredLoginURL(portal.EndUser), nil)
	s.expectProfile(role.User, role.StandaloneUser)

	d, err := s.mounter.Decide(context.Background(), NewRoute("/dashboard", Requirement{Role: role.User}), "cookie")

	s.Require().NoError(err)
	s.Equal(StateUnauthenticated, d.State)
	s.True(d.EndSession)
	s.Equal(msgSignedOutInactive, d.Message)
	s.Equal("/login?expired=true", d.Redirect)
}

func (s *MounterSuite) TestSlowTeardownDoesNotHoldTheDecision() {
	mounter := s.newMounter(WithWatchdog(20*time.Millisecond), WithTeardownTimeout(100*time.Millisecond))
	s.expectIdentify(portal.EndUser)
	s.expectSession(portal.EndUser)
	s.validity.EXPECT().CheckValidity(gomock.Any(), s.subject).Return(models.InvalidSession(models.ReasonInactive), nil)
	s.expectProfile(role.User, role.StandaloneUser)
	var deadlineSet bool
	s.logout.EXPECT().ForceLogout(gomock.Any(), gomock.Any(), logout.ReasonInactive).DoAndReturn(
		func(ctx context.Context, _ logout.Target, _ logout.Reason) (string, error) {
			_, deadlineSet = ctx.Deadline()
			<-ctx.Done()
			return "", ctx.Err()
		})

	start := time.Now()
	d, err := mounter.Decide(context.Background(), NewRoute("/dashboard", Requirement{Role: role.User}), "cookie")
	elapsed := time.Since(start)

	s.Require().NoError(err)
	s.Equal(StateUnauthenticated, d.State)
	s.True(d.EndSession)
	s.Equal(msgSignedOutInactive, d.Message)
	s.Less(elapsed, 100*time.Millisecond)

	mounter.Drain()
	s.True(deadlineSet)
}

func (s *MounterSuite) TestValidityUnknownFailsClosed() {
	s.expectIdentify(portal.Admin)
	s.expectSession(portal.Admin)
	s.validity.EXPECT().CheckValidity(gomock.Any(), s.subject).Return(models.Validity{}, dErrors.New(dErrors.CodeUnavailable, "metadata store down"))
	s.profiles.EXPECT().LoadRole(gomock.Any(), s.subject).Return(role.Admin, nil).AnyTimes()
	s.profiles.EXPECT().LoadUserType(gomock.Any(), s.subject).Return(role.TeamMember, nil).AnyTimes()

	d, err := s.mounter.Decide(context.Background(), s.adminRoute(), "cookie")

	s.Require().NoError(err)
	s.Equal(StateTimedOut, d.State)
}

func (s *MounterSuite) TestRoleLoadFailureDenies() {
	s.expectIdentify(portal.EndUser)
	s.expectSession(portal.EndUser)
	s.validity.EXPECT().CheckValidity(gomock.Any(), s.subject).Return(models.ValidSession(), nil)
	s.profiles.EXPECT().LoadRole(gomock.Any(), s.subject).Return(role.None, errors.New("connection reset"))
	s.profiles.EXPECT().LoadUserType(gomock.Any(), s.subject).Return(role.StandaloneUser, nil)

	d, err := s.mounter.Decide(context.Background(), NewRoute("/dashboard", Requirement{Role: role.User}), "cookie")

	s.Require().NoError(err)
	s.Equal(StateInsufficientRole, d.State)
	s.Equal(role.User, d.RequiredRole)
}

func (s *MounterSuite) TestSessionLoadFailureIsSignedOut() {
	s.expectIdentify(portal.EndUser)
	s.sessions.EXPECT().Load(gomock.Any(), portal.EndUser, s.handle).Return(nil, dErrors.New(dErrors.CodeUnauthorized, "session not found"))
	s.expectProfile(role.User, role.StandaloneUser)

	d, err := s.mounter.Decide(context.Background(), NewRoute("/dashboard", Requirement{Role: role.User}), "cookie")

	s.Require().NoError(err)
	s.Equal(StateUnauthenticated, d.State)
	s.False(d.EndSession)
}

func (s *MounterSuite) TestSlowLoadHitsWatchdog() {
	mounter := s.newMounter(WithWatchdog(20 * time.Millisecond))
	s.expectIdentify(portal.Admin)
	s.sessions.EXPECT().Load(gomock.Any(), portal.Admin, s.handle).DoAndReturn(
		func(ctx context.Context, _ portal.ID, _ id.HandleID) (*models.AuthSession, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})
	s.expectProfile(role.Admin, role.TeamMember)

	start := time.Now()
	d, err := mounter.Decide(context.Background(), s.adminRoute(), "cookie")

	s.Require().NoError(err)
	s.Equal(StateTimedOut, d.State)
	s.Less(time.Since(start), time.Second)
}

func (s *MounterSuite) TestCancelledRequest() {
	ctx, cancel := context.WithCancel(context.Background())
	s.expectIdentify(portal.Admin)
	s.sessions.EXPECT().Load(gomock.Any(), portal.Admin, s.handle).DoAndReturn(
		func(ctx context.Context, _ portal.ID, _ id.HandleID) (*models.AuthSession, error) {
			cancel()
			<-ctx.Done()
			return nil, ctx.Err()
		})
	s.profiles.EXPECT().LoadRole(gomock.Any(), s.subject).Return(role.Admin, nil).AnyTimes()
	s.profiles.EXPECT().LoadUserType(gomock.Any(), s.subject).Return(role.TeamMember, nil).AnyTimes()

	_, err := s.mounter.Open(ctx, s.adminRoute(), "cookie")

	s.ErrorIs(err, context.Canceled)
}

func (s *MounterSuite) TestWatchRevokesWhenSessionGoesStale() {
	s.expectIdentify(portal.Admin)
	s.expectSession(portal.Admin)
	gomock.InOrder(
		s.validity.EXPECT().CheckValidity(gomock.Any(), s.subject).Return(models.ValidSession(), nil),
		s.validity.EXPECT().CheckValidity(gomock.Any(), s.subject).Return(models.ValidSession(), nil),
		s.validity.EXPECT().CheckValidity(gomock.Any(), s.subject).Return(models.InvalidSession(models.ReasonAbsoluteExpired), nil),
	)
	s.expectProfile(role.Admin, role.TeamMember)
	s.logout.EXPECT().ForceLogout(gomock.Any(), gomock.Any(), logout.ReasonExpired).Return(portal.ExpiredLoginURL(portal.Admin), nil)

	mt, err := s.mounter.Open(context.Background(), s.adminRoute(), "cookie")
	s.Require().NoError(err)
	defer mt.Close()
	s.Require().Equal(StateGranted, mt.State())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	d := s.mounter.Watch(ctx, mt, 5*time.Millisecond)

	s.Equal(StateUnauthenticated, d.State)
	s.True(d.EndSession)
	s.Equal(msgSignedOutExpired, d.Message)
	s.Equal("/admin/login?expired=true", d.Redirect)
}

func (s *MounterSuite) TestWatchReturnsImmediatelyWhenNotGranted() {
	s.sessions.EXPECT().Identify(portal.Admin, "").Return(id.HandleID{}, id.SubjectID{}, errors.New("no cookie"))

	mt, err := s.mounter.Open(context.Background(), s.adminRoute(), "")
	s.Require().NoError(err)
	defer mt.Close()

	d := s.mounter.Watch(context.Background(), mt, time.Millisecond)
	s.Equal(StateUnauthenticated, d.State)
}

func TestNewMounter_RequiresCollaborators(t *testing.T) {
	if _, err := NewMounter(nil, nil, nil, nil); err == nil {
		t.Fatal("expected error")
	}
}
