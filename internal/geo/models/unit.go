package models

import (
	"time"

	id "gazetteer/pkg/domain"
	dErrors "gazetteer/pkg/domain-errors"
)

// AdministrativeUnit is a canonical node of a country's administrative
// hierarchy. It is the single source of truth tenant replicas are synced
// from.
//
// Invariants:
//   - Ordinal ≥ 1; ParentID is zero only for ordinal 1
//   - a unit's parent has ordinal = this.Ordinal − 1
//   - Path = parent.Path + "." + ID, or just ID for a root
//   - acyclic by construction: the parent must already exist when a unit is
//     created, so a unit can never be its own ancestor
//
// Lifecycle: created by candidate approval or bulk import; renamed by an
// approved merge; never hard-deleted, only deactivated, so existing tenant
// references stay resolvable.
type AdministrativeUnit struct {
	ID          id.UnitID         `json:"id"`
	CountryCode id.CountryCode    `json:"country_code"`
	Ordinal     int               `json:"ordinal"`
	Name        string            `json:"name"`
	Names       map[string]string `json:"names,omitempty"` // language → localized name
	ParentID    id.UnitID         `json:"parent_id,omitempty"`
	Path        id.GeoPath        `json:"path"`
	Active      bool              `json:"active"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// NewAdministrativeUnit builds a unit under the given parent. parent is nil
// for a root (ordinal 1) unit. Parent-child ordinal consistency and the path
// invariant are enforced here rather than at the store so every write path
// shares them.
func NewAdministrativeUnit(unitID id.UnitID, country id.CountryCode, ordinal int, name string, parent *AdministrativeUnit, now time.Time) (*AdministrativeUnit, error) {
	if !unitID.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unit id must be positive")
	}
	if country.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unit requires a country code")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unit name cannot be empty")
	}
	if ordinal < 1 || ordinal > id.MaxPathDepth {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "ordinal %d outside 1..%d", ordinal, id.MaxPathDepth)
	}

	var path id.GeoPath
	var parentID id.UnitID
	switch {
	case parent == nil:
		if ordinal != 1 {
			return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "unit at ordinal %d requires a parent", ordinal)
		}
		p, err := id.GeoPathFromIDs([]id.UnitID{unitID})
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "build root path")
		}
		path = p
	default:
		if parent.Ordinal != ordinal-1 {
			return nil, dErrors.Newf(dErrors.CodeInvariantViolation,
				"parent ordinal %d does not precede child ordinal %d", parent.Ordinal, ordinal)
		}
		if parent.CountryCode != country {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "parent belongs to a different country")
		}
		p, err := id.GeoPathFromIDs(append(parent.Path.IDs(), unitID))
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "build unit path")
		}
		path = p
		parentID = parent.ID
	}

	return &AdministrativeUnit{
		ID:          unitID,
		CountryCode: country,
		Ordinal:     ordinal,
		Name:        name,
		ParentID:    parentID,
		Path:        path,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsRoot reports whether the unit sits at the topmost level.
func (u *AdministrativeUnit) IsRoot() bool { return u.Ordinal == 1 }

// CanRename checks whether a name correction may be applied.
func (u *AdministrativeUnit) CanRename(name string) error {
	if name == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "unit name cannot be empty")
	}
	if !u.Active {
		return dErrors.New(dErrors.CodeInvariantViolation, "cannot rename a deactivated unit")
	}
	return nil
}

// ApplyRename applies a name correction. Renames never change the id or the
// path, only the display name.
func (u *AdministrativeUnit) ApplyRename(name string, now time.Time) {
	u.Name = name
	u.UpdatedAt = now
}

// CanDeactivate checks whether the unit may be taken out of service.
func (u *AdministrativeUnit) CanDeactivate() error {
	if !u.Active {
		return dErrors.New(dErrors.CodeInvariantViolation, "unit is already deactivated")
	}
	return nil
}

// ApplyDeactivation marks the unit inactive. The row is retained so tenant
// replicas keep resolving historical references.
func (u *AdministrativeUnit) ApplyDeactivation(now time.Time) {
	u.Active = false
	u.UpdatedAt = now
}
