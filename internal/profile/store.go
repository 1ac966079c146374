// Package profile loads the two authorization facts the access gate needs
// besides the session: the subject's Role and UserType.
package profile

import (
	"context"
	"sync"

	"portalgate/internal/role"
	id "portalgate/pkg/domain"
	"portalgate/pkg/platform/sentinel"
)

// InMemoryStore serves roles and user types from memory for local runs and
// tests. A subject with no grants has role.None.
type InMemoryStore struct {
	mu        sync.RWMutex
	roles     map[id.SubjectID][]role.Role
	userTypes map[id.SubjectID]role.UserType
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		roles:     make(map[id.SubjectID][]role.Role),
		userTypes: make(map[id.SubjectID]role.UserType),
	}
}

func (s *InMemoryStore) Grant(subjectID id.SubjectID, r role.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[subjectID] = append(s.roles[subjectID], r)
}

func (s *InMemoryStore) SetUserType(subjectID id.SubjectID, t role.UserType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userTypes[subjectID] = t
}

func (s *InMemoryStore) LoadRole(_ context.Context, subjectID id.SubjectID) (role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return role.Strongest(s.roles[subjectID]), nil
}

func (s *InMemoryStore) LoadUserType(_ context.Context, subjectID id.SubjectID) (role.UserType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.userTypes[subjectID]
	if !ok {
		return role.UserTypeUnknown, sentinel.ErrNotFound
	}
	return t, nil
}
