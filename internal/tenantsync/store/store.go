// Package store persists tenant replica units and sync cursors. Replica rows
// are partitioned by tenant; no cross-tenant access ever happens here.
package store

import (
	"context"

	"gazetteer/internal/tenantsync/models"
	id "gazetteer/pkg/domain"
)

// ReplicaStore is the tenant-local geography persistence boundary.
type ReplicaStore interface {
	// NextID allocates a tenant-local replica id.
	NextID(ctx context.Context, tenantID id.TenantID) (id.UnitID, error)

	// Create inserts a replica row. Returns sentinel.ErrConflict when the
	// local id is taken or an official row for the same external id exists.
	Create(ctx context.Context, replica *models.TenantReplicaUnit) error

	// FindByID returns a replica row by tenant-local id.
	FindByID(ctx context.Context, tenantID id.TenantID, localID id.UnitID) (*models.TenantReplicaUnit, error)

	// FindByExternalID returns the official replica for a canonical unit,
	// or sentinel.ErrNotFound.
	FindByExternalID(ctx context.Context, tenantID id.TenantID, country id.CountryCode, externalID id.UnitID) (*models.TenantReplicaUnit, error)

	// Update rewrites a replica row in place.
	Update(ctx context.Context, replica *models.TenantReplicaUnit) error

	// List returns a tenant's replicas for a country ordered by creation.
	List(ctx context.Context, tenantID id.TenantID, country id.CountryCode) ([]*models.TenantReplicaUnit, error)

	// CountCustom returns the number of tenant-authored rows for a country.
	CountCustom(ctx context.Context, tenantID id.TenantID, country id.CountryCode) (int, error)
}

// CursorStore tracks sync progress per (tenant, country) pair.
type CursorStore interface {
	// Get returns the cursor or sentinel.ErrNotFound before the first sync.
	Get(ctx context.Context, tenantID id.TenantID, country id.CountryCode) (*models.TenantSyncCursor, error)

	// Put creates or replaces the cursor.
	Put(ctx context.Context, cursor *models.TenantSyncCursor) error
}
