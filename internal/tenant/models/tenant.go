// Package models defines the party tenant registry records.
package models

import (
	"strings"
	"time"

	id "gazetteer/pkg/domain"
	dErrors "gazetteer/pkg/domain-errors"
)

// Status is the tenant lifecycle state. Only active tenants are synced.
type Status string

const (
	StatusActive    Status = "Active"
	StatusSuspended Status = "Suspended"
)

// DefaultCustomUnitQuota bounds tenant-authored extension units per country
// unless the tenant is provisioned with its own quota.
const DefaultCustomUnitQuota = 500

// Tenant is one party organization on the platform.
type Tenant struct {
	ID     id.TenantID `json:"id"`
	Name   string      `json:"name"`
	Status Status      `json:"status"`

	// CustomUnitQuota caps tenant-authored replica units per country.
	CustomUnitQuota int `json:"custom_unit_quota"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTenant validates invariants and constructs an active tenant.
func NewTenant(tenantID id.TenantID, name string, now time.Time) (*Tenant, error) {
	name = strings.TrimSpace(name)
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant requires an id")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant name cannot be empty")
	}
	if len(name) > 200 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant name cannot exceed 200 characters")
	}
	return &Tenant{
		ID:              tenantID,
		Name:            name,
		Status:          StatusActive,
		CustomUnitQuota: DefaultCustomUnitQuota,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// IsActive reports whether the tenant participates in sync.
func (t *Tenant) IsActive() bool { return t.Status == StatusActive }

// CanSuspend checks the Active -> Suspended transition.
func (t *Tenant) CanSuspend() error {
	if t.Status != StatusActive {
		return dErrors.New(dErrors.CodeInvariantViolation, "tenant is not active")
	}
	return nil
}

// ApplySuspension takes the tenant out of sync rotation.
func (t *Tenant) ApplySuspension(now time.Time) {
	t.Status = StatusSuspended
	t.UpdatedAt = now
}

// CanReactivate checks the Suspended -> Active transition.
func (t *Tenant) CanReactivate() error {
	if t.Status != StatusSuspended {
		return dErrors.New(dErrors.CodeInvariantViolation, "tenant is not suspended")
	}
	return nil
}

// ApplyReactivation returns the tenant to sync rotation.
func (t *Tenant) ApplyReactivation(now time.Time) {
	t.Status = StatusActive
	t.UpdatedAt = now
}
