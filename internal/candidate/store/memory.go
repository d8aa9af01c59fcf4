package store

import (
	"context"
	"sort"
	"sync"

	"gazetteer/internal/candidate/models"
	"gazetteer/internal/match"
	id "gazetteer/pkg/domain"
	"gazetteer/pkg/platform/sentinel"
)

// InMemoryCandidateStore backs unit tests and small deployments.
type InMemoryCandidateStore struct {
	mu         sync.RWMutex
	candidates map[id.CandidateID]*models.GeoCandidate
}

func NewInMemoryCandidateStore() *InMemoryCandidateStore {
	return &InMemoryCandidateStore{candidates: make(map[id.CandidateID]*models.GeoCandidate)}
}

func (s *InMemoryCandidateStore) Create(_ context.Context, candidate *models.GeoCandidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.candidates[candidate.ID]; exists {
		return sentinel.ErrConflict
	}
	s.candidates[candidate.ID] = cloneCandidate(candidate)
	return nil
}

func (s *InMemoryCandidateStore) FindByID(_ context.Context, candidateID id.CandidateID) (*models.GeoCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	candidate, ok := s.candidates[candidateID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneCandidate(candidate), nil
}

func (s *InMemoryCandidateStore) ListByStatus(_ context.Context, country id.CountryCode, status models.ReviewStatus) ([]*models.GeoCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.GeoCandidate
	for _, candidate := range s.candidates {
		if candidate.CountryCode != country {
			continue
		}
		if status != "" && candidate.ReviewStatus != status {
			continue
		}
		out = append(out, cloneCandidate(candidate))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryCandidateStore) Execute(_ context.Context, candidateID id.CandidateID, validate func(*models.GeoCandidate) error, mutate func(*models.GeoCandidate)) (*models.GeoCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	candidate, ok := s.candidates[candidateID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(candidate); err != nil {
		return nil, err
	}
	mutate(candidate)
	return cloneCandidate(candidate), nil
}

func cloneCandidate(c *models.GeoCandidate) *models.GeoCandidate {
	out := *c
	if c.MatchResults != nil {
		out.MatchResults = make([]match.MatchResult, len(c.MatchResults))
		copy(out.MatchResults, c.MatchResults)
	}
	if c.ReviewedAt != nil {
		reviewedAt := *c.ReviewedAt
		out.ReviewedAt = &reviewedAt
	}
	return &out
}
