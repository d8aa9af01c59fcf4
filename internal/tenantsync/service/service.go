// Package service implements the landlord-to-tenant geography sync engine.
// Sync is one-directional batch: canonical units flow down to tenant
// replicas, and tenant-authored custom units are never touched.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gazetteer/internal/audit"
	geomodels "gazetteer/internal/geo/models"
	tenantmodels "gazetteer/internal/tenant/models"
	"gazetteer/internal/tenantsync/metrics"
	"gazetteer/internal/tenantsync/models"
	"gazetteer/internal/tenantsync/store"
	id "gazetteer/pkg/domain"
	dErrors "gazetteer/pkg/domain-errors"
	"gazetteer/pkg/platform/sentinel"
	"gazetteer/pkg/platform/tracing"
	"gazetteer/pkg/requestcontext"
)

// CanonicalSource is the slice of the canonical geography sync reads.
type CanonicalSource interface {
	ListActive(ctx context.Context, country id.CountryCode, changedSince time.Time) ([]*geomodels.AdministrativeUnit, error)
}

// DescriptorSource supplies the per-country hierarchy shape.
type DescriptorSource interface {
	Get(ctx context.Context, country id.CountryCode) (*geomodels.HierarchyDescriptor, error)
}

// TenantDirectory gates sync on tenant status and supplies quotas.
type TenantDirectory interface {
	Get(ctx context.Context, tenantID id.TenantID) (*tenantmodels.Tenant, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service runs sync batches and manages tenant-authored custom units.
type Service struct {
	replicas    store.ReplicaStore
	cursors     store.CursorStore
	canonical   CanonicalSource
	descriptors DescriptorSource
	tenants     TenantDirectory
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

// New constructs a Service.
func New(replicas store.ReplicaStore, cursors store.CursorStore, canonical CanonicalSource, descriptors DescriptorSource, tenants TenantDirectory, opts ...Option) *Service {
	s := &Service{
		replicas:    replicas,
		cursors:     cursors,
		canonical:   canonical,
		descriptors: descriptors,
		tenants:     tenants,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncTenant copies canonical units for one (tenant, country) pair into the
// tenant's replica store. First run is a full copy; later runs are
// incremental from the cursor. The batch is idempotent: re-running with no
// canonical changes creates and updates nothing.
//
// Units are processed in ordinal order so parents are durably created before
// any child referencing them. A per-unit failure skips that unit's whole
// subtree for this run but sibling subtrees continue; the batch still
// succeeds with an itemized error list rather than aborting.
func (s *Service) SyncTenant(ctx context.Context, tenantID id.TenantID, country id.CountryCode) (*models.SyncResult, error) {
	ctx, span := tracing.StartSpan(ctx, "tenantsync.Service.SyncTenant")
	defer span.End()
	start := time.Now()

	tenant, err := s.tenants.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.IsActive() {
		return nil, dErrors.Newf(dErrors.CodeConflict, "tenant %s is suspended", tenantID)
	}
	if _, err := s.descriptors.Get(ctx, country); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeValidation, "country %s is not configured", country)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load hierarchy descriptor")
	}

	result := &models.SyncResult{TenantID: tenantID, CountryCode: country}
	batchStart := requestcontext.Now(ctx)

	var changedSince time.Time
	cursor, err := s.cursors.Get(ctx, tenantID, country)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		result.FullSync = true
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load sync cursor")
	default:
		changedSince = cursor.LastSyncedAt
	}

	units, err := s.canonical.ListActive(ctx, country, changedSince)
	if err != nil {
		s.metrics.ObserveRun("failed", start, 0, 0, 0)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list canonical units")
	}

	// externalToLocal maps canonical ids to tenant-local ids for this pass;
	// failed marks canonical ids whose subtree must be skipped this run.
	externalToLocal := make(map[id.UnitID]id.UnitID, len(units))
	failed := make(map[id.UnitID]bool)

	for _, unit := range units {
		// Cooperative cancellation between units, never mid-write.
		if err := ctx.Err(); err != nil {
			s.metrics.ObserveRun("failed", start, result.UnitsCreated, result.UnitsUpdated, len(result.Errors))
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "sync cancelled")
		}
		if unit.ParentID.IsValid() && failed[unit.ParentID] {
			failed[unit.ID] = true
			result.UnitsSkipped++
			continue
		}
		created, updated, err := s.applyUnit(ctx, tenant, country, unit, externalToLocal)
		if err != nil {
			failed[unit.ID] = true
			result.Errors = append(result.Errors, models.SyncError{ExternalUnitID: unit.ID, Message: err.Error()})
			continue
		}
		if created {
			result.UnitsCreated++
		}
		if updated {
			result.UnitsUpdated++
		}
	}

	outcome := "clean"
	action := audit.EventTenantSyncCompleted
	if len(result.Errors) > 0 {
		outcome = "partial"
		action = audit.EventTenantSyncPartial
	}

	// Per-unit errors do not block the cursor; only a transaction-fatal
	// failure leaves it in place. The error list stays visible in the
	// result so skipped subtrees can be re-run by an operator.
	newCursor := &models.TenantSyncCursor{
		TenantID:     tenantID,
		CountryCode:  country,
		LastSyncedAt: batchStart,
		LastStatus:   outcome,
		UpdatedAt:    batchStart,
	}
	if err := s.cursors.Put(ctx, newCursor); err != nil {
		s.metrics.ObserveRun("failed", start, result.UnitsCreated, result.UnitsUpdated, len(result.Errors))
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "advance sync cursor")
	}
	s.metrics.ObserveRun(outcome, start, result.UnitsCreated, result.UnitsUpdated, len(result.Errors))
	s.logInfo(ctx, "tenant sync finished",
		"tenant_id", tenantID, "country", country, "full", result.FullSync,
		"created", result.UnitsCreated, "updated", result.UnitsUpdated,
		"skipped", result.UnitsSkipped, "errors", len(result.Errors))
	s.logAudit(ctx, audit.Event{
		TenantID:    tenantID,
		CountryCode: country,
		Action:      action,
		Subject:     tenantID.String(),
	})
	return result, nil
}

// applyUnit creates or corrects one replica row. The lookup map is consulted
// before the store so rows created earlier in this same pass resolve as
// parents.
func (s *Service) applyUnit(ctx context.Context, tenant *tenantmodels.Tenant, country id.CountryCode, unit *geomodels.AdministrativeUnit, externalToLocal map[id.UnitID]id.UnitID) (created, updated bool, err error) {
	existing, err := s.replicas.FindByExternalID(ctx, tenant.ID, country, unit.ID)
	switch {
	case err == nil:
		externalToLocal[unit.ID] = existing.ID
		if existing.Name == unit.Name && existing.Ordinal == unit.Ordinal {
			return false, false, nil
		}
		existing.ApplyCorrection(unit.Name, unit.Ordinal, requestcontext.Now(ctx))
		if err := s.replicas.Update(ctx, existing); err != nil {
			return false, false, err
		}
		return false, true, nil
	case errors.Is(err, sentinel.ErrNotFound):
		// fall through to create
	default:
		return false, false, err
	}

	var parentLocal id.UnitID
	if unit.ParentID.IsValid() {
		local, ok := externalToLocal[unit.ParentID]
		if !ok {
			parentReplica, err := s.replicas.FindByExternalID(ctx, tenant.ID, country, unit.ParentID)
			if err != nil {
				return false, false, errors.New("parent replica for canonical unit " + unit.ParentID.String() + " does not exist")
			}
			local = parentReplica.ID
			externalToLocal[unit.ParentID] = local
		}
		parentLocal = local
	}

	localID, err := s.replicas.NextID(ctx, tenant.ID)
	if err != nil {
		return false, false, err
	}
	replica, err := models.NewOfficialReplica(localID, tenant.ID, country, unit.ID, unit.Ordinal, unit.Name, parentLocal, requestcontext.Now(ctx))
	if err != nil {
		return false, false, err
	}
	if err := s.replicas.Create(ctx, replica); err != nil {
		return false, false, err
	}
	externalToLocal[unit.ID] = localID
	return true, false, nil
}

// AddCustomUnit creates a tenant-authored extension unit below the official
// hierarchy. Custom units are tenant-owned and invisible to sync.
func (s *Service) AddCustomUnit(ctx context.Context, tenantID id.TenantID, country id.CountryCode, name string, parentLocalID id.UnitID) (*models.TenantReplicaUnit, error) {
	tenant, err := s.tenants.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	descriptor, err := s.descriptors.Get(ctx, country)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeValidation, "country %s is not configured", country)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load hierarchy descriptor")
	}

	parent, err := s.replicas.FindByID(ctx, tenantID, parentLocalID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "parent replica %d not found", parentLocalID)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load parent replica")
	}

	ordinal := parent.Ordinal + 1
	if ordinal <= descriptor.MaxOrdinal() {
		return nil, dErrors.Newf(dErrors.CodeValidation,
			"custom units must sit below the official hierarchy (ordinal > %d)", descriptor.MaxOrdinal())
	}
	if ordinal > id.MaxPathDepth {
		return nil, dErrors.Newf(dErrors.CodeValidation, "hierarchy cannot exceed %d levels", id.MaxPathDepth)
	}

	count, err := s.replicas.CountCustom(ctx, tenantID, country)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "count custom units")
	}
	if count >= tenant.CustomUnitQuota {
		return nil, dErrors.Newf(dErrors.CodeQuotaExceeded,
			"tenant %s has reached its custom unit quota of %d", tenantID, tenant.CustomUnitQuota)
	}

	localID, err := s.replicas.NextID(ctx, tenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "allocate replica id")
	}
	replica, err := models.NewCustomReplica(localID, tenantID, country, ordinal, name, parentLocalID, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	if err := s.replicas.Create(ctx, replica); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create custom unit")
	}
	return replica, nil
}

// ListReplicas returns a tenant's replica rows for a country in creation
// order.
func (s *Service) ListReplicas(ctx context.Context, tenantID id.TenantID, country id.CountryCode) ([]*models.TenantReplicaUnit, error) {
	replicas, err := s.replicas.List(ctx, tenantID, country)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list replicas")
	}
	return replicas, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, msg, args...)
	}
}

func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	s.logInfo(ctx, string(event.Action), "subject", event.Subject, "log_type", "audit")
	if s.audit == nil {
		return
	}
	_ = s.audit.Emit(ctx, event)
}
