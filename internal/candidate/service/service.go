// Package service runs the candidate submission and review workflow. It is
// the only code path that mutates the canonical geography.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"gazetteer/internal/audit"
	"gazetteer/internal/candidate/metrics"
	"gazetteer/internal/candidate/models"
	"gazetteer/internal/candidate/store"
	geomodels "gazetteer/internal/geo/models"
	"gazetteer/internal/match"
	id "gazetteer/pkg/domain"
	dErrors "gazetteer/pkg/domain-errors"
	"gazetteer/pkg/platform/sentinel"
	"gazetteer/pkg/platform/tracing"
	"gazetteer/pkg/requestcontext"
)

// Matcher scores a proposed name against the sibling pool.
type Matcher interface {
	FindCandidates(ctx context.Context, name string, country id.CountryCode, ordinal int, parentID id.UnitID) (match.RankedMatches, error)
}

// CanonicalWriter is the slice of the geo service approval needs.
type CanonicalWriter interface {
	GetUnit(ctx context.Context, unitID id.UnitID) (*geomodels.AdministrativeUnit, error)
	CreateUnit(ctx context.Context, country id.CountryCode, ordinal int, name string, names map[string]string, parentID id.UnitID) (*geomodels.AdministrativeUnit, error)
	RenameUnit(ctx context.Context, unitID id.UnitID, name string) (*geomodels.AdministrativeUnit, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service orchestrates candidate submission and review.
type Service struct {
	candidates store.CandidateStore
	matcher    Matcher
	canonical  CanonicalWriter
	config     match.Config
	logger     *slog.Logger
	audit      AuditPublisher
	metrics    *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.audit = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithMatchConfig(config match.Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// New constructs a Service.
func New(candidates store.CandidateStore, matcher Matcher, canonical CanonicalWriter, opts ...Option) *Service {
	s := &Service{
		candidates: candidates,
		matcher:    matcher,
		canonical:  canonical,
		config:     match.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit creates a Pending candidate and synchronously attaches the fuzzy
// match outcome. A best match at veryHigh or above auto-moves the candidate
// to UnderReview with the merge target pre-filled; it is never auto-approved.
func (s *Service) Submit(ctx context.Context, rawName string, country id.CountryCode, ordinal int, parentID id.UnitID, sourceTenant id.TenantID) (*models.GeoCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "candidate.Service.Submit")
	defer span.End()
	start := time.Now()
	defer s.metrics.ObserveSubmit(start)

	proposedName := strings.TrimSpace(rawName)
	now := requestcontext.Now(ctx)
	candidate, err := models.NewGeoCandidate(id.NewCandidateID(), rawName, proposedName, country, ordinal, parentID, sourceTenant, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	ranked, err := s.matcher.FindCandidates(ctx, proposedName, country, ordinal, parentID)
	if err != nil {
		return nil, err
	}

	confidence := 0.0
	var suggested id.UnitID
	band := "none"
	if ranked.Best != nil {
		confidence = ranked.Best.Score
		band = string(ranked.Best.Band)
	}
	if ranked.Suggestion != nil {
		suggested = ranked.Suggestion.UnitID
	}
	candidate.AttachMatches(ranked.Matches, confidence, suggested)

	autoReview := confidence >= s.config.VeryHigh
	if autoReview {
		candidate.ApplyBeginReview(id.ReviewerID{}, now)
	}

	if err := s.candidates.Create(ctx, candidate); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create candidate")
	}

	s.metrics.IncrementSubmission(band)
	if autoReview {
		s.metrics.IncrementAutoReview()
	}
	s.logAudit(ctx, audit.Event{
		TenantID:    sourceTenant,
		CountryCode: country,
		Action:      audit.EventCandidateSubmitted,
		Subject:     candidate.ID.String(),
		Detail:      proposedName,
	})
	return candidate, nil
}

// Get returns a candidate by id.
func (s *Service) Get(ctx context.Context, candidateID id.CandidateID) (*models.GeoCandidate, error) {
	candidate, err := s.candidates.FindByID(ctx, candidateID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "candidate not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load candidate")
	}
	return candidate, nil
}

// List returns a country's candidates, optionally filtered by status.
func (s *Service) List(ctx context.Context, country id.CountryCode, status models.ReviewStatus) ([]*models.GeoCandidate, error) {
	candidates, err := s.candidates.ListByStatus(ctx, country, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list candidates")
	}
	return candidates, nil
}

// BeginReview moves a candidate under review. Idempotent for a candidate
// already under review.
func (s *Service) BeginReview(ctx context.Context, candidateID id.CandidateID, reviewer id.ReviewerID) (*models.GeoCandidate, error) {
	now := requestcontext.Now(ctx)
	candidate, err := s.transition(ctx, candidateID,
		func(c *models.GeoCandidate) error { return c.CanBeginReview() },
		func(c *models.GeoCandidate) { c.ApplyBeginReview(reviewer, now) },
	)
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementTransition("begin_review")
	s.logAudit(ctx, audit.Event{
		ReviewerID:  reviewer,
		CountryCode: candidate.CountryCode,
		Action:      audit.EventCandidateReviewBegan,
		Subject:     candidate.ID.String(),
	})
	return candidate, nil
}

// ApproveAsNew terminates the candidate as Approved, creating a new
// canonical unit under the candidate's parent.
func (s *Service) ApproveAsNew(ctx context.Context, candidateID id.CandidateID, reviewer id.ReviewerID) (*models.GeoCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "candidate.Service.ApproveAsNew")
	defer span.End()

	// Validate the transition before touching canonical data so a terminal
	// candidate cannot create stray units.
	current, err := s.Get(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if err := current.CanApprove(); err != nil {
		return nil, asTransitionError(err)
	}

	unit, err := s.canonical.CreateUnit(ctx, current.CountryCode, current.Ordinal, current.ProposedName, nil, current.ParentID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	candidate, err := s.transition(ctx, candidateID,
		func(c *models.GeoCandidate) error { return c.CanApprove() },
		func(c *models.GeoCandidate) { c.ApplyApproveAsNew(reviewer, unit.ID, now) },
	)
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementTransition("approve_new")
	s.logAudit(ctx, audit.Event{
		ReviewerID:  reviewer,
		CountryCode: candidate.CountryCode,
		Action:      audit.EventCandidateApprovedNew,
		Subject:     candidate.ID.String(),
		Detail:      unit.ID.String(),
	})
	return candidate, nil
}

// ApproveAsMerge terminates the candidate as Merged: the target unit gets
// the candidate's name as a correction and no new unit is created.
func (s *Service) ApproveAsMerge(ctx context.Context, candidateID id.CandidateID, reviewer id.ReviewerID, targetUnitID id.UnitID) (*models.GeoCandidate, error) {
	ctx, span := tracing.StartSpan(ctx, "candidate.Service.ApproveAsMerge")
	defer span.End()

	current, err := s.Get(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if err := current.CanMerge(); err != nil {
		return nil, asTransitionError(err)
	}

	target, err := s.canonical.GetUnit(ctx, targetUnitID)
	if err != nil {
		return nil, err
	}
	if target.CountryCode != current.CountryCode || target.Ordinal != current.Ordinal {
		return nil, dErrors.Newf(dErrors.CodeValidation,
			"merge target %d is not at %s ordinal %d", targetUnitID, current.CountryCode, current.Ordinal)
	}
	if _, err := s.canonical.RenameUnit(ctx, targetUnitID, current.ProposedName); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	candidate, err := s.transition(ctx, candidateID,
		func(c *models.GeoCandidate) error { return c.CanMerge() },
		func(c *models.GeoCandidate) { c.ApplyMerge(reviewer, targetUnitID, now) },
	)
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementTransition("merge")
	s.logAudit(ctx, audit.Event{
		ReviewerID:  reviewer,
		CountryCode: candidate.CountryCode,
		Action:      audit.EventCandidateMerged,
		Subject:     candidate.ID.String(),
		Detail:      targetUnitID.String(),
	})
	return candidate, nil
}

// Reject terminates the candidate as Rejected. Canonical data is untouched.
func (s *Service) Reject(ctx context.Context, candidateID id.CandidateID, reviewer id.ReviewerID, reason string) (*models.GeoCandidate, error) {
	now := requestcontext.Now(ctx)
	candidate, err := s.transition(ctx, candidateID,
		func(c *models.GeoCandidate) error { return c.CanReject() },
		func(c *models.GeoCandidate) { c.ApplyReject(reviewer, reason, now) },
	)
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementTransition("reject")
	s.logAudit(ctx, audit.Event{
		ReviewerID:  reviewer,
		CountryCode: candidate.CountryCode,
		Action:      audit.EventCandidateRejected,
		Subject:     candidate.ID.String(),
		Detail:      reason,
	})
	return candidate, nil
}

func (s *Service) transition(ctx context.Context, candidateID id.CandidateID, validate func(*models.GeoCandidate) error, mutate func(*models.GeoCandidate)) (*models.GeoCandidate, error) {
	candidate, err := s.candidates.Execute(ctx, candidateID, validate, mutate)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "candidate not found")
	}
	if err != nil {
		return nil, asTransitionError(err)
	}
	return candidate, nil
}

// asTransitionError tags state machine violations with the conflict code
// while keeping the typed error reachable through errors.As.
func asTransitionError(err error) error {
	var invalid *models.InvalidStateTransitionError
	if errors.As(err, &invalid) && !dErrors.IsCoded(err) {
		return dErrors.Wrap(err, dErrors.CodeConflict, "review transition rejected")
	}
	return err
}

func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event.Action), "subject", event.Subject, "log_type", "audit")
	}
	if s.audit == nil {
		return
	}
	_ = s.audit.Emit(ctx, event)
}
