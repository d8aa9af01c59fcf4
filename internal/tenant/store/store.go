// Package store persists the tenant registry.
package store

import (
	"context"

	"gazetteer/internal/tenant/models"
	id "gazetteer/pkg/domain"
)

// TenantStore is the registry persistence boundary.
type TenantStore interface {
	// CreateIfNameAvailable inserts the tenant; sentinel.ErrConflict when
	// the name is taken.
	CreateIfNameAvailable(ctx context.Context, tenant *models.Tenant) error

	// FindByID returns the tenant or sentinel.ErrNotFound.
	FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)

	// List returns all tenants, name-ordered.
	List(ctx context.Context) ([]*models.Tenant, error)

	// Execute atomically validates then mutates a tenant.
	Execute(ctx context.Context, tenantID id.TenantID, validate func(*models.Tenant) error, mutate func(*models.Tenant)) (*models.Tenant, error)
}
