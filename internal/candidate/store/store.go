// Package store persists geography candidates.
package store

import (
	"context"

	"gazetteer/internal/candidate/models"
	id "gazetteer/pkg/domain"
)

// CandidateStore is the review workflow's persistence boundary.
type CandidateStore interface {
	// Create inserts a new candidate. Returns sentinel.ErrConflict when the
	// id is already taken.
	Create(ctx context.Context, candidate *models.GeoCandidate) error

	// FindByID returns the candidate or sentinel.ErrNotFound.
	FindByID(ctx context.Context, candidateID id.CandidateID) (*models.GeoCandidate, error)

	// ListByStatus returns candidates for a country filtered by status,
	// oldest first. An empty status returns all of the country's candidates.
	ListByStatus(ctx context.Context, country id.CountryCode, status models.ReviewStatus) ([]*models.GeoCandidate, error)

	// Execute atomically validates then mutates a candidate, returning the
	// updated copy.
	Execute(ctx context.Context, candidateID id.CandidateID, validate func(*models.GeoCandidate) error, mutate func(*models.GeoCandidate)) (*models.GeoCandidate, error)
}
