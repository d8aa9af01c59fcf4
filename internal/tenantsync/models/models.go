// Package models defines the tenant-local geography replica and the sync
// bookkeeping records.
package models

import (
	"time"

	id "gazetteer/pkg/domain"
	dErrors "gazetteer/pkg/domain-errors"
)

// TenantReplicaUnit is a tenant-local copy of a canonical unit, or a
// tenant-authored extension unit below the official hierarchy.
//
// Invariant: when IsOfficial is true, ExternalUnitID references a canonical
// AdministrativeUnit and ordinal/name match the canonical record as of the
// last sync. Official rows are mutated only by the sync engine; custom rows
// are entirely tenant-owned and never touched by sync.
type TenantReplicaUnit struct {
	ID             id.UnitID      `json:"id"`
	TenantID       id.TenantID    `json:"tenant_id"`
	CountryCode    id.CountryCode `json:"country_code"`
	ExternalUnitID id.UnitID      `json:"external_unit_id,omitempty"` // zero for custom units
	Ordinal        int            `json:"ordinal"`
	Name           string         `json:"name"`
	ParentID       id.UnitID      `json:"parent_id,omitempty"` // tenant-local
	IsOfficial     bool           `json:"is_official"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// NewOfficialReplica builds the tenant-local copy of a canonical unit.
func NewOfficialReplica(localID id.UnitID, tenantID id.TenantID, country id.CountryCode, externalID id.UnitID, ordinal int, name string, parentLocalID id.UnitID, now time.Time) (*TenantReplicaUnit, error) {
	if !localID.IsValid() || !externalID.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "official replica requires local and external ids")
	}
	return &TenantReplicaUnit{
		ID:             localID,
		TenantID:       tenantID,
		CountryCode:    country,
		ExternalUnitID: externalID,
		Ordinal:        ordinal,
		Name:           name,
		ParentID:       parentLocalID,
		IsOfficial:     true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// NewCustomReplica builds a tenant-authored extension unit.
func NewCustomReplica(localID id.UnitID, tenantID id.TenantID, country id.CountryCode, ordinal int, name string, parentLocalID id.UnitID, now time.Time) (*TenantReplicaUnit, error) {
	if !localID.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "replica requires a local id")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "replica name cannot be empty")
	}
	return &TenantReplicaUnit{
		ID:          localID,
		TenantID:    tenantID,
		CountryCode: country,
		Ordinal:     ordinal,
		Name:        name,
		ParentID:    parentLocalID,
		IsOfficial:  false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ApplyCorrection updates an official replica in place after the canonical
// record changed.
func (r *TenantReplicaUnit) ApplyCorrection(name string, ordinal int, now time.Time) {
	r.Name = name
	r.Ordinal = ordinal
	r.UpdatedAt = now
}

// TenantSyncCursor marks the last completed sync for one (tenant, country)
// pair. A missing cursor means the next run is a first-time full copy.
type TenantSyncCursor struct {
	TenantID     id.TenantID    `json:"tenant_id"`
	CountryCode  id.CountryCode `json:"country_code"`
	LastSyncedAt time.Time      `json:"last_synced_at"`
	LastStatus   string         `json:"last_status"` // "clean" or "partial"
	UpdatedAt    time.Time      `json:"updated_at"`
}

// SyncError records one unit that failed during a batch. Its subtree is
// retried on the next run via the unchanged canonical data, not within the
// same batch.
type SyncError struct {
	ExternalUnitID id.UnitID `json:"external_unit_id"`
	Message        string    `json:"message"`
}

// SyncResult summarizes one syncTenant run.
type SyncResult struct {
	TenantID     id.TenantID    `json:"tenant_id"`
	CountryCode  id.CountryCode `json:"country_code"`
	FullSync     bool           `json:"full_sync"`
	UnitsCreated int            `json:"units_created"`
	UnitsUpdated int            `json:"units_updated"`
	UnitsSkipped int            `json:"units_skipped"`
	Errors       []SyncError    `json:"errors,omitempty"`
}
