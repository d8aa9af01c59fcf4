// Package store persists the canonical administrative geography: units and
// per-country hierarchy descriptors. Implementations return sentinel errors
// for infrastructure facts; services translate them into domain errors.
package store

import (
	"context"
	"time"

	"gazetteer/internal/geo/models"
	id "gazetteer/pkg/domain"
)

// UnitStore is the canonical administrative unit read/write model. The
// canonical store is read by many concurrent validation requests and written
// only by the review workflow and bulk import; implementations must not block
// reads on writes.
type UnitStore interface {
	// NextID allocates a fresh unit id. IDs appear in materialized paths, so
	// they are allocated before construction, never assigned on insert.
	NextID(ctx context.Context) (id.UnitID, error)

	// Create inserts a new unit. Returns sentinel.ErrConflict when the id is
	// already taken.
	Create(ctx context.Context, unit *models.AdministrativeUnit) error

	// FindByID returns the unit or sentinel.ErrNotFound.
	FindByID(ctx context.Context, unitID id.UnitID) (*models.AdministrativeUnit, error)

	// IsChildOf reports whether child's parent is exactly parent.
	IsChildOf(ctx context.Context, childID, parentID id.UnitID) (bool, error)

	// FindChildren returns the direct children of a unit, active or not.
	FindChildren(ctx context.Context, parentID id.UnitID) ([]*models.AdministrativeUnit, error)

	// FindUnitsAtLevel returns active units for a country and ordinal,
	// scoped to a parent when parentID is valid. Sibling scoping is what
	// keeps fuzzy matching from colliding across unrelated branches.
	FindUnitsAtLevel(ctx context.Context, country id.CountryCode, ordinal int, parentID id.UnitID) ([]*models.AdministrativeUnit, error)

	// ListActive returns active units for a country ordered by ordinal then
	// id (parents always precede children). A non-zero changedSince limits
	// the result to units updated at or after that instant.
	ListActive(ctx context.Context, country id.CountryCode, changedSince time.Time) ([]*models.AdministrativeUnit, error)

	// Execute atomically validates then mutates a unit while holding the
	// store's lock (mutex or FOR UPDATE), returning the updated copy.
	Execute(ctx context.Context, unitID id.UnitID, validate func(*models.AdministrativeUnit) error, mutate func(*models.AdministrativeUnit)) (*models.AdministrativeUnit, error)
}

// DescriptorStore holds per-country hierarchy configuration.
type DescriptorStore interface {
	// Get returns the descriptor for a country or sentinel.ErrNotFound.
	Get(ctx context.Context, country id.CountryCode) (*models.HierarchyDescriptor, error)

	// Put creates or replaces a country's descriptor.
	Put(ctx context.Context, descriptor *models.HierarchyDescriptor) error

	// Countries lists the configured country codes.
	Countries(ctx context.Context) ([]id.CountryCode, error)
}
