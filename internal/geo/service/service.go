// Package service orchestrates hierarchy validation, path generation, and
// canonical unit maintenance.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"gazetteer/internal/audit"
	"gazetteer/internal/geo/cache"
	"gazetteer/internal/geo/metrics"
	"gazetteer/internal/geo/models"
	"gazetteer/internal/geo/store"
	id "gazetteer/pkg/domain"
	dErrors "gazetteer/pkg/domain-errors"
	"gazetteer/pkg/platform/sentinel"
	"gazetteer/pkg/platform/tracing"
	"gazetteer/pkg/requestcontext"
)

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service validates geography hierarchies against per-country descriptors and
// maintains the canonical unit tree.
type Service struct {
	units       store.UnitStore
	descriptors store.DescriptorStore
	cache       cache.PathCache
	logger      *slog.Logger
	audit       AuditPublisher
	metrics     *metrics.Metrics
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

// New constructs a Service. Pass cache.NopPathCache{} to disable caching.
func New(units store.UnitStore, descriptors store.DescriptorStore, pathCache cache.PathCache, opts ...Option) *Service {
	s := &Service{units: units, descriptors: descriptors, cache: pathCache}
	if s.cache == nil {
		s.cache = cache.NopPathCache{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GeneratePath validates the supplied hierarchy and returns its canonical
// path. Validation order is fixed: descriptor lookup, structural rules (gap
// then required), then per-unit existence and parent-child checks walking
// ordinals upward. Validated paths are cached; a hit returns the same path
// the walk would have produced.
func (s *Service) GeneratePath(ctx context.Context, hierarchy models.GeographyHierarchy) (id.GeoPath, error) {
	ctx, span := tracing.StartSpan(ctx, "geo.Service.GeneratePath")
	defer span.End()
	start := time.Now()
	defer s.metrics.ObserveGeneratePath(start)

	descriptor, err := s.getDescriptor(ctx, hierarchy.CountryCode)
	if err != nil {
		s.metrics.IncrementValidateError("unsupported_country")
		return id.GeoPath{}, err
	}

	if err := hierarchy.Validate(descriptor); err != nil {
		s.metrics.IncrementValidateError(validationReason(err))
		return id.GeoPath{}, asValidationError(err)
	}

	ids := hierarchy.OrderedIDs(descriptor.MaxOrdinal())
	if len(ids) == 0 {
		s.metrics.IncrementValidateError("empty")
		return id.GeoPath{}, dErrors.New(dErrors.CodeValidation, "no hierarchy levels supplied")
	}

	key := cache.Key{Country: hierarchy.CountryCode, IDs: ids}
	if path, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logWarn(ctx, "path cache read failed", "error", err)
	} else if ok {
		s.metrics.IncrementCacheHit()
		return path, nil
	}
	s.metrics.IncrementCacheMiss()

	if err := s.verifyChain(ctx, hierarchy.CountryCode, ids); err != nil {
		s.metrics.IncrementValidateError(validationReason(err))
		return id.GeoPath{}, err
	}

	path, err := id.GeoPathFromIDs(ids)
	if err != nil {
		return id.GeoPath{}, dErrors.Wrap(err, dErrors.CodeInternal, "materialize path")
	}

	if err := s.cache.Set(ctx, key, path); err != nil {
		s.logWarn(ctx, "path cache write failed", "error", err)
	}
	s.metrics.IncrementPathGenerated(hierarchy.CountryCode.String())
	return path, nil
}

// verifyChain confirms each supplied id exists at its ordinal and that each
// consecutive pair holds a direct parent-child edge.
func (s *Service) verifyChain(ctx context.Context, country id.CountryCode, ids []id.UnitID) error {
	var previous *models.AdministrativeUnit
	for i, unitID := range ids {
		ordinal := i + 1
		unit, err := s.units.FindByID(ctx, unitID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return asNotFoundError(&models.UnitNotFoundError{CountryCode: country, Ordinal: ordinal, UnitID: unitID})
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "load unit")
		}
		// A unit supplied at the wrong country, level, or already retired is
		// not a valid reference at this ordinal.
		if unit.CountryCode != country || unit.Ordinal != ordinal || !unit.Active {
			return asNotFoundError(&models.UnitNotFoundError{CountryCode: country, Ordinal: ordinal, UnitID: unitID})
		}
		if previous != nil {
			ok, err := s.units.IsChildOf(ctx, unitID, previous.ID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "check parent-child edge")
			}
			if !ok {
				return asValidationError(&models.InvalidParentChildError{
					ChildID:       unitID,
					ChildOrdinal:  ordinal,
					ParentID:      previous.ID,
					ParentOrdinal: ordinal - 1,
				})
			}
		}
		previous = unit
	}
	return nil
}

// Descriptor returns the hierarchy configuration for a country.
func (s *Service) Descriptor(ctx context.Context, country id.CountryCode) (*models.HierarchyDescriptor, error) {
	return s.getDescriptor(ctx, country)
}

// PutDescriptor creates or replaces a country's hierarchy configuration.
// Existing units are not revalidated against the new shape; cached paths for
// the country are dropped so stale validations cannot be served.
func (s *Service) PutDescriptor(ctx context.Context, country id.CountryCode, levels []models.LevelDescriptor) (*models.HierarchyDescriptor, error) {
	descriptor, err := models.NewHierarchyDescriptor(country, levels)
	if err != nil {
		return nil, err
	}
	if err := s.descriptors.Put(ctx, descriptor); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save descriptor")
	}
	if err := s.cache.InvalidateCountry(ctx, country); err != nil {
		s.logWarn(ctx, "cache invalidation failed", "country", country, "error", err)
	}
	s.logAudit(ctx, audit.Event{
		CountryCode: country,
		Action:      audit.EventDescriptorUpdated,
		Subject:     country.String(),
	})
	return descriptor, nil
}

// GetUnit returns a canonical unit by id.
func (s *Service) GetUnit(ctx context.Context, unitID id.UnitID) (*models.AdministrativeUnit, error) {
	unit, err := s.units.FindByID(ctx, unitID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "unit %d not found", unitID)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load unit")
	}
	return unit, nil
}

// CreateUnit inserts a new canonical unit under parentID (zero for a root).
// Used by candidate approval and by bulk import.
func (s *Service) CreateUnit(ctx context.Context, country id.CountryCode, ordinal int, name string, names map[string]string, parentID id.UnitID) (*models.AdministrativeUnit, error) {
	ctx, span := tracing.StartSpan(ctx, "geo.Service.CreateUnit")
	defer span.End()

	descriptor, err := s.getDescriptor(ctx, country)
	if err != nil {
		return nil, err
	}
	if ordinal > descriptor.MaxOrdinal() {
		return nil, dErrors.Newf(dErrors.CodeValidation,
			"ordinal %d exceeds the official hierarchy depth %d for %s", ordinal, descriptor.MaxOrdinal(), country)
	}

	var parent *models.AdministrativeUnit
	if parentID.IsValid() {
		parent, err = s.units.FindByID(ctx, parentID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, asNotFoundError(&models.UnitNotFoundError{CountryCode: country, Ordinal: ordinal - 1, UnitID: parentID})
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load parent unit")
		}
	}

	unitID, err := s.units.NextID(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "allocate unit id")
	}
	unit, err := models.NewAdministrativeUnit(unitID, country, ordinal, name, parent, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	unit.Names = names

	if err := s.units.Create(ctx, unit); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "unit id %d already exists", unitID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create unit")
	}
	return unit, nil
}

// ImportUnit is one row of a bulk seed. Parents are referenced either by an
// existing canonical id or by the zero-based index of an earlier row in the
// same batch.
type ImportUnit struct {
	Ordinal     int               `json:"ordinal"`
	Name        string            `json:"name"`
	Names       map[string]string `json:"names,omitempty"`
	ParentID    id.UnitID         `json:"parent_id,omitempty"`
	ParentIndex *int              `json:"parent_index,omitempty"`
}

// ImportUnits seeds canonical units for a country in batch. Rows are
// processed in order, so parents must precede the rows that reference them
// by index. The batch is not transactional: the first failing row aborts the
// import and earlier rows stay created, mirroring how cursor-based sync
// treats partial progress.
func (s *Service) ImportUnits(ctx context.Context, country id.CountryCode, rows []ImportUnit) ([]*models.AdministrativeUnit, error) {
	ctx, span := tracing.StartSpan(ctx, "geo.Service.ImportUnits")
	defer span.End()

	created := make([]*models.AdministrativeUnit, 0, len(rows))
	for i, row := range rows {
		parentID := row.ParentID
		if row.ParentIndex != nil {
			idx := *row.ParentIndex
			if idx < 0 || idx >= i {
				return created, dErrors.Newf(dErrors.CodeValidation, "row %d: parent_index %d does not reference an earlier row", i, idx)
			}
			parentID = created[idx].ID
		}
		unit, err := s.CreateUnit(ctx, country, row.Ordinal, row.Name, row.Names, parentID)
		if err != nil {
			return created, dErrors.Wrap(err, dErrors.CodeOf(err), "import row "+strconv.Itoa(i))
		}
		created = append(created, unit)
	}
	s.logInfo(ctx, "bulk import completed", "country", country, "units", len(created))
	return created, nil
}

// RenameUnit applies a name correction. Paths are id-based so a rename never
// changes any path; only the display name and the tenant sync delta move.
func (s *Service) RenameUnit(ctx context.Context, unitID id.UnitID, name string) (*models.AdministrativeUnit, error) {
	unit, err := s.units.Execute(ctx, unitID,
		func(u *models.AdministrativeUnit) error { return u.CanRename(name) },
		func(u *models.AdministrativeUnit) { u.ApplyRename(name, requestcontext.Now(ctx)) },
	)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "unit %d not found", unitID)
	}
	if err != nil {
		return nil, err
	}
	return unit, nil
}

// DeactivateUnit retires a unit without deleting it. Cached paths for the
// country are dropped so the retired id stops validating immediately.
func (s *Service) DeactivateUnit(ctx context.Context, unitID id.UnitID) (*models.AdministrativeUnit, error) {
	unit, err := s.units.Execute(ctx, unitID,
		func(u *models.AdministrativeUnit) error { return u.CanDeactivate() },
		func(u *models.AdministrativeUnit) { u.ApplyDeactivation(requestcontext.Now(ctx)) },
	)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "unit %d not found", unitID)
	}
	if err != nil {
		return nil, err
	}
	if err := s.cache.InvalidateCountry(ctx, unit.CountryCode); err != nil {
		s.logWarn(ctx, "cache invalidation failed", "country", unit.CountryCode, "error", err)
	}
	s.logAudit(ctx, audit.Event{
		CountryCode: unit.CountryCode,
		Action:      audit.EventUnitDeactivated,
		Subject:     unit.ID.String(),
	})
	return unit, nil
}

func (s *Service) getDescriptor(ctx context.Context, country id.CountryCode) (*models.HierarchyDescriptor, error) {
	descriptor, err := s.descriptors.Get(ctx, country)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, asValidationError(&models.UnsupportedCountryError{CountryCode: country})
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load hierarchy descriptor")
	}
	return descriptor, nil
}

// asValidationError tags a typed geography error with the validation code
// while keeping the original reachable through errors.As.
func asValidationError(err error) error {
	if dErrors.IsCoded(err) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeValidation, "hierarchy validation failed")
}

func asNotFoundError(err error) error {
	return dErrors.Wrap(err, dErrors.CodeNotFound, "unit lookup failed")
}

// validationReason maps an error to its metrics label.
func validationReason(err error) string {
	var (
		unsupported *models.UnsupportedCountryError
		gap         *models.HierarchyGapError
		missing     *models.MissingRequiredLevelError
		notFound    *models.UnitNotFoundError
		badEdge     *models.InvalidParentChildError
	)
	switch {
	case errors.As(err, &unsupported):
		return "unsupported_country"
	case errors.As(err, &gap):
		return "gap"
	case errors.As(err, &missing):
		return "missing_required"
	case errors.As(err, &notFound):
		return "unit_not_found"
	case errors.As(err, &badEdge):
		return "invalid_parent"
	default:
		return "other"
	}
}

func (s *Service) logInfo(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, msg, args...)
	}
}

func (s *Service) logWarn(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.WarnContext(ctx, msg, args...)
	}
}

func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	s.logInfo(ctx, string(event.Action), "subject", event.Subject, "log_type", "audit")
	if s.audit == nil {
		return
	}
	_ = s.audit.Emit(ctx, event)
}
