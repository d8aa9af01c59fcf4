package models

import (
	"strconv"

	id "gazetteer/pkg/domain"
	dErrors "gazetteer/pkg/domain-errors"
)

// LevelDescriptor names one level of a country's administrative hierarchy.
// Ordinal 1 is the topmost level (e.g. province); ordinals are contiguous.
type LevelDescriptor struct {
	Name     string `json:"name"`
	Ordinal  int    `json:"ordinal"`
	Required bool   `json:"required"`
}

// HierarchyDescriptor is the per-country hierarchy configuration. It is pure
// data: one engine serves every country by interpreting its descriptor, never
// by branching on the country code.
//
// Invariants:
//   - at least one level, at most domain.MaxPathDepth
//   - ordinals are contiguous starting at 1, in slice order
//   - level names are non-empty
//
// Created at country onboarding and rarely mutated. A mutation does not
// retroactively re-validate existing units (see DESIGN.md).
type HierarchyDescriptor struct {
	CountryCode id.CountryCode    `json:"country_code"`
	Levels      []LevelDescriptor `json:"levels"`
}

// NewHierarchyDescriptor validates and builds a descriptor.
func NewHierarchyDescriptor(country id.CountryCode, levels []LevelDescriptor) (*HierarchyDescriptor, error) {
	if country.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "descriptor requires a country code")
	}
	if len(levels) == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "descriptor requires at least one level")
	}
	if len(levels) > id.MaxPathDepth {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "descriptor exceeds maximum depth %d", id.MaxPathDepth)
	}
	for i, level := range levels {
		if level.Ordinal != i+1 {
			return nil, dErrors.Newf(dErrors.CodeInvariantViolation,
				"level ordinals must be contiguous from 1, got %d at position %d", level.Ordinal, i)
		}
		if level.Name == "" {
			return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "level %d has no name", level.Ordinal)
		}
	}
	owned := make([]LevelDescriptor, len(levels))
	copy(owned, levels)
	return &HierarchyDescriptor{CountryCode: country, Levels: owned}, nil
}

// MaxOrdinal returns the deepest official ordinal.
func (d *HierarchyDescriptor) MaxOrdinal() int { return len(d.Levels) }

// Level returns the descriptor for the given ordinal, or false when the
// ordinal is outside the official hierarchy.
func (d *HierarchyDescriptor) Level(ordinal int) (LevelDescriptor, bool) {
	if ordinal < 1 || ordinal > len(d.Levels) {
		return LevelDescriptor{}, false
	}
	return d.Levels[ordinal-1], true
}

// LevelName returns the configured name for an ordinal, or its decimal form
// when unknown; error messages must stay readable even for bad input.
func (d *HierarchyDescriptor) LevelName(ordinal int) string {
	if level, ok := d.Level(ordinal); ok {
		return level.Name
	}
	return "level " + strconv.Itoa(ordinal)
}

// RequiredOrdinals lists the ordinals marked required, ascending.
func (d *HierarchyDescriptor) RequiredOrdinals() []int {
	var out []int
	for _, level := range d.Levels {
		if level.Required {
			out = append(out, level.Ordinal)
		}
	}
	return out
}
