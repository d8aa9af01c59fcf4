package models

import (
	"fmt"

	id "gazetteer/pkg/domain"
)

// Validation errors for the geography engine. Each carries enough context
// (country, ordinal, offending ids) to be actionable without consulting logs,
// and each maps to a field-attributable message for end users. All are
// deterministic caller errors: never retried, never defaulted.

// UnsupportedCountryError: no hierarchy descriptor exists for the code.
type UnsupportedCountryError struct {
	CountryCode id.CountryCode
}

func (e *UnsupportedCountryError) Error() string {
	return fmt.Sprintf("no hierarchy descriptor configured for country %s", e.CountryCode)
}

// HierarchyGapError: a deeper level was supplied while a shallower one is
// missing ("you can't give a Ward without a Province").
type HierarchyGapError struct {
	CountryCode    id.CountryCode
	MissingOrdinal int
	MissingLevel   string
	DeeperOrdinal  int
	DeeperLevel    string
}

func (e *HierarchyGapError) Error() string {
	return fmt.Sprintf("%s requires %s to be set", e.DeeperLevel, e.MissingLevel)
}

// MissingRequiredLevelError: a level marked required by the descriptor was
// omitted.
type MissingRequiredLevelError struct {
	CountryCode id.CountryCode
	Ordinal     int
	Level       string
}

func (e *MissingRequiredLevelError) Error() string {
	return fmt.Sprintf("%s is required for country %s", e.Level, e.CountryCode)
}

// UnitNotFoundError: a supplied id does not exist in the canonical store.
type UnitNotFoundError struct {
	CountryCode id.CountryCode
	Ordinal     int
	UnitID      id.UnitID
}

func (e *UnitNotFoundError) Error() string {
	return fmt.Sprintf("unit %d at ordinal %d does not exist for country %s", e.UnitID, e.Ordinal, e.CountryCode)
}

// InvalidParentChildError: the supplied ids do not form a true parent/child
// relation in the canonical store.
type InvalidParentChildError struct {
	ChildID       id.UnitID
	ChildOrdinal  int
	ParentID      id.UnitID
	ParentOrdinal int
}

func (e *InvalidParentChildError) Error() string {
	return fmt.Sprintf("unit %d (ordinal %d) is not a child of unit %d (ordinal %d)",
		e.ChildID, e.ChildOrdinal, e.ParentID, e.ParentOrdinal)
}
