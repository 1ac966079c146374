package httptransport

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Sessions,Notifications

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"portalgate/internal/gate"
	gatemocks "portalgate/internal/gate/mocks"
	"portalgate/internal/platform/metrics"
	"portalgate/internal/portal"
	"portalgate/internal/role"
	"portalgate/internal/session/models"
	"portalgate/internal/session/service"
	"portalgate/internal/transport/http/mocks"
	id "portalgate/pkg/domain"
	dErrors "portalgate/pkg/domain-errors"
	"portalgate/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	ctrl          *gomock.Controller
	sessions      *mocks.MockSessions
	notifications *mocks.MockNotifications
	gateSessions  *gatemocks.MockSessionSource
	profiles      *gatemocks.MockProfileSource
	validity      *gatemocks.MockValidityChecker
	forced        *gatemocks.MockForcedLogout
	router        http.Handler
	mounter       *gate.Mounter
	handle        id.HandleID
	subject       id.SubjectID
	probeErr      error
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.sessions = mocks.NewMockSessions(s.ctrl)
	s.notifications = mocks.NewMockNotifications(s.ctrl)
	s.gateSessions = gatemocks.NewMockSessionSource(s.ctrl)
	s.profiles = gatemocks.NewMockProfileSource(s.ctrl)
	s.validity = gatemocks.NewMockValidityChecker(s.ctrl)
	s.forced = gatemocks.NewMockForcedLogout(s.ctrl)
	s.handle = id.NewHandleID()
	s.subject = id.SubjectID(uuid.New())
	s.probeErr = nil

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	mounter, err := gate.NewMounter(s.gateSessions, s.profiles, s.validity, s.forced,
		gate.WithLogger(logger),
		gate.WithMetrics(m),
		gate.WithWatchdog(time.Second),
	)
	s.Require().NoError(err)
	s.mounter = mounter

	h := New(s.sessions, mounter, gate.DefaultRequirements(), s.notifications, logger,
		WithRecheckInterval(time.Minute),
		WithProbe("store", func(context.Context) error { return s.probeErr }),
	)
	s.router = NewRouter(h, reg)
}

func (s *HandlerSuite) TearDownTest() {
	s.mounter.Drain()
}

func (s *HandlerSuite) issued(nsID portal.ID, mustChange bool) *service.Issued {
	return &service.Issued{
		Namespace: portal.Get(nsID),
		Token:     "signed-handle",
		Session: &models.AuthSession{
			Handle:             s.handle,
			Namespace:          nsID,
			SubjectID:          s.subject,
			MustChangePassword: mustChange,
		},
	}
}

func (s *HandlerSuite) do(method, target string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := testutil.NewJSONRequest(s.T(), method, target, body)
	return testutil.DoRequest(s.router, testutil.WithCookies(req, cookies...))
}

func (s *HandlerSuite) signedInForGate(ns portal.ID, r role.Role, ut role.UserType) {
	s.gateSessions.EXPECT().Identify(ns, "signed-handle").Return(s.handle, s.subject, nil)
	s.gateSessions.EXPECT().Load(gomock.Any(), ns, s.handle).Return(&models.AuthSession{
		Handle:    s.handle,
		Namespace: ns,
		SubjectID: s.subject,
	}, nil)
	s.validity.EXPECT().CheckValidity(gomock.Any(), s.subject).Return(models.ValidSession(), nil)
	s.profiles.EXPECT().LoadRole(gomock.Any(), s.subject).Return(r, nil)
	s.profiles.EXPECT().LoadUserType(gomock.Any(), s.subject).Return(ut, nil)
}

func (s *HandlerSuite) TestLogin() {
	s.Run("admin login sets the admin cookie only", func() {
		s.sessions.EXPECT().SignIn(gomock.Any(), portal.Admin, "ops@example.test", "pw").Return(s.issued(portal.Admin, false), nil)

		rr := s.do(http.MethodPost, "/admin/login", LoginRequest{Email: "ops@example.test", Password: "pw"})

		s.Equal(http.StatusOK, rr.Code)
		c := testutil.ResponseCookie(rr, "pg-admin-auth")
		s.Require().NotNil(c)
		s.Equal("signed-handle", c.Value)
		s.Positive(c.MaxAge)
		s.True(c.HttpOnly)
		s.Nil(testutil.ResponseCookie(rr, "pg-enduser-auth"))

		resp := testutil.UnmarshalResponse[SessionResponse](s.T(), rr)
		s.Equal(portal.Admin, resp.Namespace)
		s.Equal("/admin", resp.Redirect)
		s.Equal(s.subject.String(), resp.SubjectID)
	})

	s.Run("simulator cookie ends with the browser session", func() {
		s.sessions.EXPECT().SignIn(gomock.Any(), portal.Simulator, "tester@example.test", "pw").Return(s.issued(portal.Simulator, false), nil)

		rr := s.do(http.MethodPost, "/simulator/login", LoginRequest{Email: "tester@example.test", Password: "pw"})

		s.Equal(http.StatusOK, rr.Code)
		c := testutil.ResponseCookie(rr, "pg-simulator-auth")
		s.Require().NotNil(c)
		s.Zero(c.MaxAge)
	})

	s.Run("forced password change lands on the change screen", func() {
		s.sessions.EXPECT().SignIn(gomock.Any(), portal.EndUser, "user@example.test", "pw").Return(s.issued(portal.EndUser, true), nil)

		rr := s.do(http.MethodPost, "/login", LoginRequest{Email: "user@example.test", Password: "pw"})

		resp := testutil.UnmarshalResponse[SessionResponse](s.T(), rr)
		s.True(resp.MustChangePassword)
		s.Equal(portal.ChangePasswordPath, resp.Redirect)
	})

	s.Run("team member signing in on the end-user portal gets the admin change screen", func() {
		issued := s.issued(portal.EndUser, true)
		issued.UserType = role.TeamMember
		s.sessions.EXPECT().SignIn(gomock.Any(), portal.EndUser, "ops@example.test", "pw").Return(issued, nil)

		rr := s.do(http.MethodPost, "/login", LoginRequest{Email: "ops@example.test", Password: "pw"})

		resp := testutil.UnmarshalResponse[SessionResponse](s.T(), rr)
		s.Equal(portal.AdminChangePasswordPath, resp.Redirect)
	})

	s.Run("standalone user signing in on the admin portal gets the end-user change screen", func() {
		issued := s.issued(portal.Admin, true)
		issued.UserType = role.StandaloneUser
		s.sessions.EXPECT().SignIn(gomock.Any(), portal.Admin, "user@example.test", "pw").Return(issued, nil)

		rr := s.do(http.MethodPost, "/admin/login", LoginRequest{Email: "user@example.test", Password: "pw"})

		resp := testutil.UnmarshalResponse[SessionResponse](s.T(), rr)
		s.Equal(portal.ChangePasswordPath, resp.Redirect)
	})

	s.Run("malformed body is 400", func() {
		rr := s.do(http.MethodPost, "/login", "not an object")
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("missing password is 400", func() {
		rr := s.do(http.MethodPost, "/login", LoginRequest{Email: "user@example.test", Password: ""})
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})

	s.Run("rejected credentials are 401", func() {
		s.sessions.EXPECT().SignIn(gomock.Any(), portal.EndUser, "user@example.test", "bad").
			Return(nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials"))

		rr := s.do(http.MethodPost, "/login", LoginRequest{Email: "user@example.test", Password: "bad"})

		s.Equal(http.StatusUnauthorized, rr.Code)
		s.Nil(testutil.ResponseCookie(rr, "pg-enduser-auth"))
	})
}

func (s *HandlerSuite) TestCallback() {
	s.Run("end-user hand-off redirects home", func() {
		s.sessions.EXPECT().Adopt(gomock.Any(), portal.EndUser, "at", "rt").Return(s.issued(portal.EndUser, false), nil)

		rr := s.do(http.MethodGet, "/auth/callback?access_token=at&refresh_token=rt", nil)

		s.Equal(http.StatusSeeOther, rr.Code)
		s.Equal("/dashboard", rr.Header().Get("Location"))
		s.NotNil(testutil.ResponseCookie(rr, "pg-enduser-auth"))
	})

	s.Run("simulator hand-off is 404", func() {
		s.sessions.EXPECT().Adopt(gomock.Any(), portal.Simulator, "at", "rt").
			Return(nil, dErrors.New(dErrors.CodeNotFound, "not found"))

		rr := s.do(http.MethodGet, "/simulator/auth/callback?access_token=at&refresh_token=rt", nil)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
		s.Empty(rr.Result().Cookies())
	})
}

func (s *HandlerSuite) TestLogout() {
	s.Run("signs out the path namespace and clears its cookie", func() {
		s.sessions.EXPECT().Identify(portal.Admin, "signed-handle").Return(s.handle, s.subject, nil)
		s.sessions.EXPECT().SignOut(gomock.Any(), portal.Admin, s.handle, s.subject).Return(nil)

		rr := s.do(http.MethodPost, "/admin/logout", nil,
			&http.Cookie{Name: "pg-admin-auth", Value: "signed-handle"},
			&http.Cookie{Name: "pg-enduser-auth", Value: "other"},
		)

		s.Equal(http.StatusNoContent, rr.Code)
		c := testutil.ResponseCookie(rr, "pg-admin-auth")
		s.Require().NotNil(c)
		s.Negative(c.MaxAge)
		s.Nil(testutil.ResponseCookie(rr, "pg-enduser-auth"))
	})

	s.Run("without a session it only clears the cookie", func() {
		s.sessions.EXPECT().Identify(portal.EndUser, "").Return(id.HandleID{}, id.SubjectID{}, dErrors.New(dErrors.CodeUnauthorized, "no session"))

		rr := s.do(http.MethodPost, "/logout", nil)

		s.Equal(http.StatusNoContent, rr.Code)
		s.NotNil(testutil.ResponseCookie(rr, "pg-enduser-auth"))
	})

	s.Run("store failure surfaces", func() {
		s.sessions.EXPECT().Identify(portal.EndUser, "signed-handle").Return(s.handle, s.subject, nil)
		s.sessions.EXPECT().SignOut(gomock.Any(), portal.EndUser, s.handle, s.subject).
			Return(dErrors.New(dErrors.CodeUnavailable, "redis down"))

		rr := s.do(http.MethodPost, "/logout", nil, &http.Cookie{Name: "pg-enduser-auth", Value: "signed-handle"})

		testutil.AssertStatusAndError(s.T(), rr, http.StatusServiceUnavailable, "unavailable")
	})
}

func (s *HandlerSuite) TestActivity() {
	s.Run("requires a session", func() {
		s.sessions.EXPECT().Identify(portal.EndUser, "").Return(id.HandleID{}, id.SubjectID{}, dErrors.New(dErrors.CodeUnauthorized, "no session"))

		rr := s.do(http.MethodPost, "/activity", nil)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})

	s.Run("touches the subject", func() {
		s.sessions.EXPECT().Identify(portal.EndUser, "signed-handle").Return(s.handle, s.subject, nil)
		s.sessions.EXPECT().Touch(gomock.Any(), s.subject).Return(nil)

		rr := s.do(http.MethodPost, "/activity", nil, &http.Cookie{Name: "pg-enduser-auth", Value: "signed-handle"})

		s.Equal(http.StatusNoContent, rr.Code)
	})
}

func (s *HandlerSuite) decodePayload(rr *httptest.ResponseRecorder) gate.Payload {
	return *testutil.UnmarshalResponse[gate.Payload](s.T(), rr)
}

func (s *HandlerSuite) TestAccess() {
	s.Run("path is required", func() {
		rr := s.do(http.MethodGet, "/api/access", nil)
		s.Equal(http.StatusBadRequest, rr.Code)
	})

	s.Run("public route is granted without a session", func() {
		rr := s.do(http.MethodGet, "/api/access?path=/admin/login", nil)

		s.Equal(http.StatusOK, rr.Code)
		s.Equal(gate.StateGranted, s.decodePayload(rr).State)
	})

	s.Run("guarded route uses the route namespace cookie", func() {
		s.gateSessions.EXPECT().Identify(portal.Admin, "").Return(id.HandleID{}, id.SubjectID{}, dErrors.New(dErrors.CodeUnauthorized, "no session"))

		rr := s.do(http.MethodGet, "/api/access?path=/admin/users", nil,
			&http.Cookie{Name: "pg-enduser-auth", Value: "signed-handle"})

		s.Equal(http.StatusOK, rr.Code)
		p := s.decodePayload(rr)
		s.Equal(gate.StateUnauthenticated, p.State)
		s.Equal(portal.AdminLoginPath, p.Redirect)
	})

	s.Run("team member reaches the admin landing page", func() {
		s.signedInForGate(portal.Admin, role.User, role.TeamMember)

		rr := s.do(http.MethodGet, "/api/access?path=/admin", nil,
			&http.Cookie{Name: "pg-admin-auth", Value: "signed-handle"})

		s.Equal(gate.StateGranted, s.decodePayload(rr).State)
	})

	s.Run("admin screens still check the role of a team member", func() {
		s.signedInForGate(portal.Admin, role.User, role.TeamMember)

		rr := s.do(http.MethodGet, "/api/access?path=/admin/users", nil,
			&http.Cookie{Name: "pg-admin-auth", Value: "signed-handle"})

		p := s.decodePayload(rr)
		s.Equal(gate.StateInsufficientRole, p.State)
		s.Equal(role.Admin, p.RequiredRole)
	})

	s.Run("expired session clears the cookie", func() {
		s.gateSessions.EXPECT().Identify(portal.EndUser, "signed-handle").Return(s.handle, s.subject, nil)
		s.gateSessions.EXPECT().Load(gomock.Any(), portal.EndUser, s.handle).Return(&models.AuthSession{Handle: s.handle, SubjectID: s.subject}, nil)
		s.validity.EXPECT().CheckValidity(gomock.Any(), s.subject).Return(models.InvalidSession(models.ReasonInactive), nil)
		s.forced.EXPECT().ForceLogout(gomock.Any(), gomock.Any(), gomock.Any()).Return(portal.ExpiredLoginURL(portal.EndUser), nil)
		s.profiles.EXPECT().LoadRole(gomock.Any(), s.subject).Return(role.User, nil)
		s.profiles.EXPECT().LoadUserType(gomock.Any(), s.subject).Return(role.StandaloneUser, nil)

		rr := s.do(http.MethodGet, "/api/access?path=/dashboard", nil,
			&http.Cookie{Name: "pg-enduser-auth", Value: "signed-handle"})

		c := testutil.ResponseCookie(rr, "pg-enduser-auth")
		s.Require().NotNil(c)
		s.Negative(c.MaxAge)
		s.Equal("/login?expired=true", s.decodePayload(rr).Redirect)
	})
}

func (s *HandlerSuite) TestProtectedContent() {
	s.Run("granted request reaches the content", func() {
		s.signedInForGate(portal.Admin, role.Admin, role.TeamMember)

		rr := s.do(http.MethodGet, "/admin/users", nil, &http.Cookie{Name: "pg-admin-auth", Value: "signed-handle"})

		s.Equal(http.StatusOK, rr.Code)
		resp := testutil.UnmarshalResponse[ContentResponse](s.T(), rr)
		s.Equal("/admin/users", resp.Path)
		s.Equal(s.subject.String(), resp.SubjectID)
	})

	s.Run("standalone user on the admin portal is 403", func() {
		s.signedInForGate(portal.Admin, role.SuperAdmin, role.StandaloneUser)

		rr := s.do(http.MethodGet, "/admin/users", nil, &http.Cookie{Name: "pg-admin-auth", Value: "signed-handle"})

		s.Equal(http.StatusForbidden, rr.Code)
		s.Equal(gate.StatePortalMismatch, s.decodePayload(rr).State)
	})
}

func (s *HandlerSuite) TestWebsocket() {
	s.Run("unauthenticated tab is refused", func() {
		s.gateSessions.EXPECT().Identify(portal.Admin, "").Return(id.HandleID{}, id.SubjectID{}, dErrors.New(dErrors.CodeUnauthorized, "no session"))

		rr := s.do(http.MethodGet, "/admin/ws", nil)

		s.Equal(http.StatusUnauthorized, rr.Code)
	})

	s.Run("granted tab is subscribed for its subject", func() {
		s.signedInForGate(portal.EndUser, role.User, role.StandaloneUser)
		s.notifications.EXPECT().Serve(gomock.Any(), gomock.Any(), s.subject, gomock.Any()).
			DoAndReturn(func(w http.ResponseWriter, _ *http.Request, _ id.SubjectID, watch func(context.Context)) error {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				watch(ctx)
				w.WriteHeader(http.StatusSwitchingProtocols)
				return nil
			})

		rr := s.do(http.MethodGet, "/ws", nil, &http.Cookie{Name: "pg-enduser-auth", Value: "signed-handle"})

		s.Equal(http.StatusSwitchingProtocols, rr.Code)
	})

	s.Run("standalone user cannot subscribe on the admin portal", func() {
		s.signedInForGate(portal.Admin, role.SuperAdmin, role.StandaloneUser)

		rr := s.do(http.MethodGet, "/admin/ws", nil, &http.Cookie{Name: "pg-admin-auth", Value: "signed-handle"})

		s.Equal(http.StatusForbidden, rr.Code)
		s.Equal(gate.StatePortalMismatch, s.decodePayload(rr).State)
	})

	s.Run("team member subscribes on the admin portal without an admin role", func() {
		s.signedInForGate(portal.Admin, role.None, role.TeamMember)
		s.notifications.EXPECT().Serve(gomock.Any(), gomock.Any(), s.subject, gomock.Any()).
			DoAndReturn(func(w http.ResponseWriter, _ *http.Request, _ id.SubjectID, _ func(context.Context)) error {
				w.WriteHeader(http.StatusSwitchingProtocols)
				return nil
			})

		rr := s.do(http.MethodGet, "/admin/ws", nil, &http.Cookie{Name: "pg-admin-auth", Value: "signed-handle"})

		s.Equal(http.StatusSwitchingProtocols, rr.Code)
	})

	s.Run("simulator socket demands the tester role", func() {
		s.signedInForGate(portal.Simulator, role.Admin, role.TeamMember)

		rr := s.do(http.MethodGet, "/simulator/ws", nil, &http.Cookie{Name: "pg-simulator-auth", Value: "signed-handle"})

		s.Equal(http.StatusForbidden, rr.Code)
		s.Equal(gate.StateInsufficientRole, s.decodePayload(rr).State)
	})
}

func (s *HandlerSuite) TestHealthAndMetrics() {
	rr := s.do(http.MethodGet, "/healthz", nil)
	s.Equal(http.StatusOK, rr.Code)

	s.gateSessions.EXPECT().Identify(portal.EndUser, "").Return(id.HandleID{}, id.SubjectID{}, dErrors.New(dErrors.CodeUnauthorized, "no session"))
	s.do(http.MethodGet, "/api/access?path=/dashboard", nil)

	rr = s.do(http.MethodGet, "/metrics", nil)
	s.Equal(http.StatusOK, rr.Code)
	s.True(strings.Contains(rr.Body.String(), "portalgate_access_decisions_total"), rr.Body.String())
}

func (s *HandlerSuite) TestReadiness() {
	s.Run("all probes pass", func() {
		rr := s.do(http.MethodGet, "/readyz", nil)
		s.Equal(http.StatusOK, rr.Code)
		s.Equal(map[string]string{"store": "ok"}, *testutil.UnmarshalResponse[map[string]string](s.T(), rr))
	})

	s.Run("a failing probe names the dependency", func() {
		s.probeErr = errors.New("connection refused")
		defer func() { s.probeErr = nil }()

		rr := s.do(http.MethodGet, "/readyz", nil)
		s.Equal(http.StatusServiceUnavailable, rr.Code)
		s.Equal("connection refused", (*testutil.UnmarshalResponse[map[string]string](s.T(), rr))["store"])
	})
}
