// Package service manages the party tenant registry.
package service

import (
	"context"
	"errors"
	"log/slog"

	"gazetteer/internal/tenant/models"
	"gazetteer/internal/tenant/store"
	id "gazetteer/pkg/domain"
	dErrors "gazetteer/pkg/domain-errors"
	"gazetteer/pkg/platform/sentinel"
	"gazetteer/pkg/requestcontext"
)

// Service orchestrates tenant registration and lifecycle.
type Service struct {
	tenants      store.TenantStore
	logger       *slog.Logger
	defaultQuota int
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithDefaultCustomUnitQuota overrides the custom-unit quota newly
// registered tenants start with.
func WithDefaultCustomUnitQuota(quota int) Option {
	return func(s *Service) {
		if quota > 0 {
			s.defaultQuota = quota
		}
	}
}

// New constructs a Service.
func New(tenants store.TenantStore, opts ...Option) *Service {
	s := &Service{tenants: tenants}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new active tenant with a unique name.
func (s *Service) Register(ctx context.Context, name string) (*models.Tenant, error) {
	tenant, err := models.NewTenant(id.NewTenantID(), name, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	if s.defaultQuota > 0 {
		tenant.CustomUnitQuota = s.defaultQuota
	}
	if err := s.tenants.CreateIfNameAvailable(ctx, tenant); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "tenant name must be unique")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create tenant")
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "tenant registered", "tenant_id", tenant.ID, "name", tenant.Name)
	}
	return tenant, nil
}

// Get returns a tenant by id.
func (s *Service) Get(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "tenant not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load tenant")
	}
	return tenant, nil
}

// List returns all tenants.
func (s *Service) List(ctx context.Context) ([]*models.Tenant, error) {
	tenants, err := s.tenants.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list tenants")
	}
	return tenants, nil
}

// ListActive returns the tenants currently in sync rotation.
func (s *Service) ListActive(ctx context.Context) ([]*models.Tenant, error) {
	tenants, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	active := tenants[:0]
	for _, tenant := range tenants {
		if tenant.IsActive() {
			active = append(active, tenant)
		}
	}
	return active, nil
}

// Suspend takes a tenant out of sync rotation.
func (s *Service) Suspend(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	now := requestcontext.Now(ctx)
	return s.execute(ctx, tenantID,
		func(t *models.Tenant) error { return t.CanSuspend() },
		func(t *models.Tenant) { t.ApplySuspension(now) },
	)
}

// Reactivate returns a suspended tenant to sync rotation.
func (s *Service) Reactivate(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	now := requestcontext.Now(ctx)
	return s.execute(ctx, tenantID,
		func(t *models.Tenant) error { return t.CanReactivate() },
		func(t *models.Tenant) { t.ApplyReactivation(now) },
	)
}

func (s *Service) execute(ctx context.Context, tenantID id.TenantID, validate func(*models.Tenant) error, mutate func(*models.Tenant)) (*models.Tenant, error) {
	tenant, err := s.tenants.Execute(ctx, tenantID, validate, mutate)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "tenant not found")
	}
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeConflict, err.Error())
		}
		return nil, err
	}
	return tenant, nil
}
