package namespace

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"portalgate/internal/portal"
	"portalgate/internal/session/models"
	id "portalgate/pkg/domain"
	"portalgate/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = New(portal.Get(portal.Simulator))
}

func newSession(ns portal.ID) *models.AuthSession {
	return &models.AuthSession{
		Handle:          id.NewHandleID(),
		Namespace:       ns,
		SubjectID:       id.SubjectID(uuid.New()),
		AccessToken:     "access-" + uuid.NewString(),
		RefreshToken:    "refresh-" + uuid.NewString(),
		AccessExpiresAt: time.Now().Add(time.Hour),
		CreatedAt:       time.Now(),
	}
}

func (s *InMemoryStoreSuite) TestPutGetDelete() {
	ctx := context.Background()
	sess := newSession(portal.Simulator)

	s.Require().NoError(s.store.Put(ctx, sess))

	found, err := s.store.Get(ctx, sess.Handle)
	s.Require().NoError(err)
	s.Equal(sess.AccessToken, found.AccessToken)
	s.Equal([]string{"pg-simulator-auth:" + sess.Handle.String()}, s.store.Keys())

	s.Require().NoError(s.store.Delete(ctx, sess.Handle))
	_, err = s.store.Get(ctx, sess.Handle)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestDeleteMissingReportsNotFound() {
	err := s.store.Delete(context.Background(), id.NewHandleID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestRejectsForeignNamespace() {
	err := s.store.Put(context.Background(), newSession(portal.Admin))
	s.ErrorIs(err, sentinel.ErrInvalidState)
	s.Empty(s.store.Keys())
}

func (s *InMemoryStoreSuite) TestExpiredRecordIsAbsent() {
	ctx := context.Background()
	base := time.Now()
	s.store.now = func() time.Time { return base }
	sess := newSession(portal.Simulator)
	s.Require().NoError(s.store.Put(ctx, sess))

	s.store.now = func() time.Time { return base.Add(portal.Get(portal.Simulator).SessionTTL) }
	_, err := s.store.Get(ctx, sess.Handle)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.Empty(s.store.Keys())
}

// Writing a session under one namespace leaves every other namespace unchanged.
func (s *InMemoryStoreSuite) TestNamespacePartition() {
	ctx := context.Background()
	stores := map[portal.ID]*InMemoryStore{}
	for _, ns := range portal.All() {
		stores[ns.ID] = New(ns)
	}

	for _, a := range portal.All() {
		sess := newSession(a.ID)
		s.Require().NoError(stores[a.ID].Put(ctx, sess))

		for _, b := range portal.All() {
			if b.ID == a.ID {
				continue
			}
			_, err := stores[b.ID].Get(ctx, sess.Handle)
			s.ErrorIs(err, sentinel.ErrNotFound, "%s session visible in %s", a.ID, b.ID)
		}
	}
	for nsID, st := range stores {
		s.Len(st.Keys(), 1, "namespace %s", nsID)
	}
}
