// Package namespace stores AuthSession records for a single portal namespace.
// Every store instance is bound to one namespace and only reads and writes
// keys under that namespace's storage key.
package namespace

import (
	"context"
	"fmt"
	"sync"
	"time"

	"portalgate/internal/portal"
	"portalgate/internal/session/models"
	id "portalgate/pkg/domain"
	"portalgate/pkg/platform/sentinel"
)

type memoryEntry struct {
	session   models.AuthSession
	expiresAt time.Time
}

// InMemoryStore backs the ephemeral namespace. Records disappear on process
// restart or when their TTL lapses.
type InMemoryStore struct {
	mu      sync.RWMutex
	ns      portal.Namespace
	records map[string]memoryEntry
	now     func() time.Time
}

// New builds an in-memory store for ns.
func New(ns portal.Namespace) *InMemoryStore {
	return &InMemoryStore{
		ns:      ns,
		records: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *InMemoryStore) Namespace() portal.Namespace { return s.ns }

func (s *InMemoryStore) key(handle id.HandleID) string {
	return s.ns.StorageKey + ":" + handle.String()
}

func (s *InMemoryStore) Put(_ context.Context, session *models.AuthSession) error {
	if session.Namespace != s.ns.ID {
		return fmt.Errorf("session for %s written to %s store: %w", session.Namespace, s.ns.ID, sentinel.ErrInvalidState)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[s.key(session.Handle)] = memoryEntry{
		session:   *session,
		expiresAt: s.now().Add(s.ns.SessionTTL),
	}
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, handle id.HandleID) (*models.AuthSession, error) {
	s.mu.RLock()
	entry, ok := s.records[s.key(handle)]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !s.now().Before(entry.expiresAt) {
		s.mu.Lock()
		delete(s.records, s.key(handle))
		s.mu.Unlock()
		return nil, sentinel.ErrNotFound
	}
	sess := entry.session
	return &sess, nil
}

// Delete removes the record. A missing record reports ErrNotFound so callers
// can decide whether "already absent" matters.
func (s *InMemoryStore) Delete(_ context.Context, handle id.HandleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.key(handle)
	if _, ok := s.records[k]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, k)
	return nil
}

// Keys lists the raw storage keys currently held. Used to assert partitioning.
func (s *InMemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	return keys
}
