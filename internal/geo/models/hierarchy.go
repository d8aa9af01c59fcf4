package models

import (
	id "gazetteer/pkg/domain"
	dErrors "gazetteer/pkg/domain-errors"
)

// GeographyHierarchy is the per-request input to path generation: which unit
// id the caller supplied for each ordinal. It is never persisted.
type GeographyHierarchy struct {
	CountryCode id.CountryCode    `json:"country_code"`
	LevelValues map[int]id.UnitID `json:"levels"`
}

// SuppliedOrdinals returns the ordinals with a supplied id, ascending up to
// the descriptor's max. Ordinals outside the official hierarchy are ignored
// here and rejected by Validate.
func (h GeographyHierarchy) SuppliedOrdinals(maxOrdinal int) []int {
	var out []int
	for ordinal := 1; ordinal <= maxOrdinal; ordinal++ {
		if v, ok := h.LevelValues[ordinal]; ok && v.IsValid() {
			out = append(out, ordinal)
		}
	}
	return out
}

// Validate runs the structural rules against the country's descriptor:
//
//   - gap rule: scanning ordinals ascending, once one has no supplied id, no
//     deeper ordinal may supply one
//   - required rule: every ordinal the descriptor marks required must have a
//     supplied id
//
// The gap rule is checked first so a single missing middle level reports as
// a gap rather than as a missing-required violation.
func (h GeographyHierarchy) Validate(descriptor *HierarchyDescriptor) error {
	maxOrdinal := descriptor.MaxOrdinal()

	for ordinal := range h.LevelValues {
		if ordinal < 1 || ordinal > maxOrdinal {
			return dErrors.Newf(dErrors.CodeValidation,
				"ordinal %d is outside the official hierarchy 1..%d for %s", ordinal, maxOrdinal, h.CountryCode)
		}
	}

	firstMissing := 0
	for ordinal := 1; ordinal <= maxOrdinal; ordinal++ {
		v, supplied := h.LevelValues[ordinal]
		supplied = supplied && v.IsValid()
		switch {
		case !supplied && firstMissing == 0:
			firstMissing = ordinal
		case supplied && firstMissing != 0:
			return &HierarchyGapError{
				CountryCode:    h.CountryCode,
				MissingOrdinal: firstMissing,
				MissingLevel:   descriptor.LevelName(firstMissing),
				DeeperOrdinal:  ordinal,
				DeeperLevel:    descriptor.LevelName(ordinal),
			}
		}
	}

	for _, ordinal := range descriptor.RequiredOrdinals() {
		if v, ok := h.LevelValues[ordinal]; !ok || !v.IsValid() {
			return &MissingRequiredLevelError{
				CountryCode: h.CountryCode,
				Ordinal:     ordinal,
				Level:       descriptor.LevelName(ordinal),
			}
		}
	}

	return nil
}

// OrderedIDs returns the supplied ids in ordinal order. Call only after
// Validate: the gap rule guarantees the sequence is contiguous from 1.
func (h GeographyHierarchy) OrderedIDs(maxOrdinal int) []id.UnitID {
	ordinals := h.SuppliedOrdinals(maxOrdinal)
	out := make([]id.UnitID, 0, len(ordinals))
	for _, ordinal := range ordinals {
		out = append(out, h.LevelValues[ordinal])
	}
	return out
}
