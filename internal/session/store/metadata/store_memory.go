// Package metadata stores per-subject session liveness records.
package metadata

import (
	"context"
	"sort"
	"sync"
	"time"

	"portalgate/internal/session/models"
	id "portalgate/pkg/domain"
	"portalgate/pkg/platform/sentinel"
)

// InMemoryStore keeps metadata in process memory. Touches are last-write-wins
// and deletes are safe to race.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.SubjectID]models.Metadata
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.SubjectID]models.Metadata)}
}

// Create replaces any existing record for the subject.
func (s *InMemoryStore) Create(_ context.Context, meta *models.Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[meta.SubjectID] = *meta
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, subjectID id.SubjectID) (*models.Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, ok := s.records[subjectID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &meta, nil
}

func (s *InMemoryStore) Touch(_ context.Context, subjectID id.SubjectID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta, ok := s.records[subjectID]
	if !ok {
		return sentinel.ErrNotFound
	}
	meta.LastActivityAt = at
	s.records[subjectID] = meta
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, subjectID id.SubjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[subjectID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, subjectID)
	return nil
}

// List returns all records ordered by last activity, oldest first.
func (s *InMemoryStore) List(_ context.Context) ([]*models.Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Metadata, 0, len(s.records))
	for _, meta := range s.records {
		m := meta
		out = append(out, &m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActivityAt.Before(out[j].LastActivityAt)
	})
	return out, nil
}
