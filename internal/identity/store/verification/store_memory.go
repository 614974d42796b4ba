// Package verification persists identity verification records.
package verification

import (
	"context"
	"sync"

	"compliance/internal/identity/models"
	id "compliance/pkg/domain"
	"compliance/pkg/platform/sentinel"
)

// InMemoryStore keeps verifications in insertion order. Suitable for
// development and tests; contents are lost on restart.
type InMemoryStore struct {
	mu            sync.RWMutex
	verifications map[id.VerificationID]*models.Verification
	order         []id.VerificationID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{verifications: make(map[id.VerificationID]*models.Verification)}
}

func (s *InMemoryStore) Save(_ context.Context, v *models.Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.verifications[v.ID]; exists {
		return sentinel.ErrConflict
	}
	c := *v
	s.verifications[v.ID] = &c
	s.order = append(s.order, v.ID)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, verificationID id.VerificationID) (*models.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.verifications[verificationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *v
	return &c, nil
}

// ListRecent returns up to limit verifications, newest first.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]*models.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Verification, 0, min(limit, len(s.order)))
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		c := *s.verifications[s.order[i]]
		out = append(out, &c)
	}
	return out, nil
}

// ListBySubject returns up to limit verifications for one subject hash, newest first.
func (s *InMemoryStore) ListBySubject(_ context.Context, subjectHash string, limit int) ([]*models.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Verification
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		v := s.verifications[s.order[i]]
		if v.SubjectHash != subjectHash {
			continue
		}
		c := *v
		out = append(out, &c)
	}
	return out, nil
}

func (s *InMemoryStore) CountByOutcome(_ context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int)
	for _, v := range s.verifications {
		counts[v.Outcome()]++
	}
	return counts, nil
}

// Ping always succeeds.
func (s *InMemoryStore) Ping(context.Context) error { return nil }
