// Package models defines the geography candidate and its review state
// machine.
package models

import (
	"time"

	"gazetteer/internal/match"
	id "gazetteer/pkg/domain"
	dErrors "gazetteer/pkg/domain-errors"
)

// ReviewStatus is the candidate workflow state. Approved, Rejected, and
// Merged are terminal; a terminal candidate is immutable and re-submission of
// the same raw name creates a fresh record.
type ReviewStatus string

const (
	StatusPending     ReviewStatus = "Pending"
	StatusUnderReview ReviewStatus = "UnderReview"
	StatusApproved    ReviewStatus = "Approved"
	StatusRejected    ReviewStatus = "Rejected"
	StatusMerged      ReviewStatus = "Merged"
)

// IsTerminal reports whether the status permits no further transitions.
func (s ReviewStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusMerged
}

// InvalidStateTransitionError reports an attempt to move a candidate out of
// a state that does not allow the requested action. Attempting to leave a
// terminal state is a caller bug, not a recoverable condition.
type InvalidStateTransitionError struct {
	CandidateID id.CandidateID
	From        ReviewStatus
	To          ReviewStatus
}

func (e *InvalidStateTransitionError) Error() string {
	return "candidate " + e.CandidateID.String() + ": illegal transition " + string(e.From) + " -> " + string(e.To)
}

// GeoCandidate is a proposed administrative unit awaiting resolution.
type GeoCandidate struct {
	ID               id.CandidateID      `json:"id"`
	ProposedName     string              `json:"proposed_name"`
	OriginalRawInput string              `json:"original_raw_input"`
	CountryCode      id.CountryCode      `json:"country_code"`
	Ordinal          int                 `json:"ordinal"`
	ParentID         id.UnitID           `json:"parent_id,omitempty"`
	SourceTenantID   id.TenantID         `json:"source_tenant_id"`
	MatchResults     []match.MatchResult `json:"match_results,omitempty"`
	ConfidenceScore  float64             `json:"confidence_score"`
	ReviewStatus     ReviewStatus        `json:"review_status"`

	// SuggestedUnitID is pre-filled when submission scored veryHigh or
	// above; it is a merge hint, never an auto-approval.
	SuggestedUnitID id.UnitID `json:"suggested_unit_id,omitempty"`

	ResolvedUnitID  id.UnitID     `json:"resolved_unit_id,omitempty"`
	ReviewedBy      id.ReviewerID `json:"reviewed_by,omitzero"`
	ReviewedAt      *time.Time    `json:"reviewed_at,omitempty"`
	RejectionReason string        `json:"rejection_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewGeoCandidate creates a Pending candidate from a submission.
func NewGeoCandidate(candidateID id.CandidateID, rawInput, proposedName string, country id.CountryCode, ordinal int, parentID id.UnitID, sourceTenant id.TenantID, now time.Time) (*GeoCandidate, error) {
	if candidateID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "candidate requires an id")
	}
	if proposedName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "candidate requires a proposed name")
	}
	if country.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "candidate requires a country code")
	}
	if ordinal < 1 || ordinal > id.MaxPathDepth {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "ordinal %d outside 1..%d", ordinal, id.MaxPathDepth)
	}
	if sourceTenant.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "candidate requires a source tenant")
	}
	return &GeoCandidate{
		ID:               candidateID,
		ProposedName:     proposedName,
		OriginalRawInput: rawInput,
		CountryCode:      country,
		Ordinal:          ordinal,
		ParentID:         parentID,
		SourceTenantID:   sourceTenant,
		ReviewStatus:     StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// AttachMatches records the fuzzy match outcome captured at submission time.
func (c *GeoCandidate) AttachMatches(results []match.MatchResult, confidence float64, suggested id.UnitID) {
	c.MatchResults = results
	c.ConfidenceScore = confidence
	c.SuggestedUnitID = suggested
}

// CanBeginReview checks the Pending|UnderReview -> UnderReview transition.
// Beginning review is idempotent.
func (c *GeoCandidate) CanBeginReview() error {
	if c.ReviewStatus == StatusPending || c.ReviewStatus == StatusUnderReview {
		return nil
	}
	return &InvalidStateTransitionError{CandidateID: c.ID, From: c.ReviewStatus, To: StatusUnderReview}
}

// ApplyBeginReview moves the candidate under review.
func (c *GeoCandidate) ApplyBeginReview(reviewer id.ReviewerID, now time.Time) {
	c.ReviewStatus = StatusUnderReview
	c.ReviewedBy = reviewer
	c.UpdatedAt = now
}

func (c *GeoCandidate) canResolve(to ReviewStatus) error {
	if c.ReviewStatus.IsTerminal() {
		return &InvalidStateTransitionError{CandidateID: c.ID, From: c.ReviewStatus, To: to}
	}
	return nil
}

// CanApprove checks whether the candidate may terminate as Approved.
func (c *GeoCandidate) CanApprove() error { return c.canResolve(StatusApproved) }

// ApplyApproveAsNew terminates the candidate as Approved with the freshly
// created canonical unit.
func (c *GeoCandidate) ApplyApproveAsNew(reviewer id.ReviewerID, unitID id.UnitID, now time.Time) {
	c.ReviewStatus = StatusApproved
	c.ResolvedUnitID = unitID
	c.ReviewedBy = reviewer
	c.ReviewedAt = &now
	c.UpdatedAt = now
}

// CanMerge checks whether the candidate may terminate as Merged.
func (c *GeoCandidate) CanMerge() error { return c.canResolve(StatusMerged) }

// ApplyMerge terminates the candidate as Merged into an existing unit.
func (c *GeoCandidate) ApplyMerge(reviewer id.ReviewerID, targetUnitID id.UnitID, now time.Time) {
	c.ReviewStatus = StatusMerged
	c.ResolvedUnitID = targetUnitID
	c.ReviewedBy = reviewer
	c.ReviewedAt = &now
	c.UpdatedAt = now
}

// CanReject checks whether the candidate may terminate as Rejected.
func (c *GeoCandidate) CanReject() error { return c.canResolve(StatusRejected) }

// ApplyReject terminates the candidate as Rejected. No canonical data moves.
func (c *GeoCandidate) ApplyReject(reviewer id.ReviewerID, reason string, now time.Time) {
	c.ReviewStatus = StatusRejected
	c.RejectionReason = reason
	c.ReviewedBy = reviewer
	c.ReviewedAt = &now
	c.UpdatedAt = now
}
