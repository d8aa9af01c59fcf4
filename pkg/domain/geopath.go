package domain

import (
	"errors"
	"fmt"
	"strings"
)

// MaxPathDepth bounds the administrative hierarchy: no country descriptor and
// no path may exceed eight levels, tenant extension levels included.
const MaxPathDepth = 8

// Sentinel errors for GeoPath construction. Wrapped values carry the raw
// input; match with errors.Is.
var (
	// ErrInvalidPathFormat is returned for input that is not a dot-separated
	// sequence of positive integers.
	ErrInvalidPathFormat = errors.New("invalid geo path format")
	// ErrMaxDepthExceeded is returned for paths deeper than MaxPathDepth.
	ErrMaxDepthExceeded = errors.New("geo path exceeds maximum depth")
)

// GeoPath is the materialized ancestor chain of an administrative unit as a
// dot-separated sequence of unit IDs, root first ("1.12.123.1234").
//
// Invariants:
//   - every segment is a positive integer
//   - depth is between 1 and MaxPathDepth
//   - immutable after construction; only built through ParseGeoPath or
//     GeoPathFromIDs, never hand-assembled by callers
type GeoPath struct {
	raw string
	ids []UnitID
}

// ParseGeoPath parses and validates a raw dotted path string.
func ParseGeoPath(raw string) (GeoPath, error) {
	if raw == "" {
		return GeoPath{}, fmt.Errorf("%w: empty input", ErrInvalidPathFormat)
	}
	segments := strings.Split(raw, ".")
	if len(segments) > MaxPathDepth {
		return GeoPath{}, fmt.Errorf("%w: depth %d", ErrMaxDepthExceeded, len(segments))
	}
	ids := make([]UnitID, 0, len(segments))
	for _, seg := range segments {
		if !isCanonicalSegment(seg) {
			return GeoPath{}, fmt.Errorf("%w: segment %q in %q", ErrInvalidPathFormat, seg, raw)
		}
		id, err := ParseUnitID(seg)
		if err != nil {
			return GeoPath{}, fmt.Errorf("%w: segment %q in %q", ErrInvalidPathFormat, seg, raw)
		}
		ids = append(ids, id)
	}
	return GeoPath{raw: raw, ids: ids}, nil
}

// isCanonicalSegment reports whether seg is the canonical decimal form of a
// positive integer: digits only, no sign, no leading zero. Canonical input is
// what makes Equal and IsDescendantOf safe to run on the raw strings; "01" or
// "+1" would parse to the same id as "1" but compare unequal.
func isCanonicalSegment(seg string) bool {
	if seg == "" || seg[0] == '0' {
		return false
	}
	for i := 0; i < len(seg); i++ {
		if seg[i] < '0' || seg[i] > '9' {
			return false
		}
	}
	return true
}

// GeoPathFromIDs builds a path from an ordered root-first ID sequence.
// Non-positive IDs are rejected, not filtered: a gap in the chain is caller
// error, and silently dropping it would fabricate a different ancestor line.
func GeoPathFromIDs(ids []UnitID) (GeoPath, error) {
	if len(ids) == 0 {
		return GeoPath{}, fmt.Errorf("%w: no ids supplied", ErrInvalidPathFormat)
	}
	if len(ids) > MaxPathDepth {
		return GeoPath{}, fmt.Errorf("%w: depth %d", ErrMaxDepthExceeded, len(ids))
	}
	var b strings.Builder
	owned := make([]UnitID, len(ids))
	for i, id := range ids {
		if !id.IsValid() {
			return GeoPath{}, fmt.Errorf("%w: non-positive id %d at position %d", ErrInvalidPathFormat, id, i)
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(id.String())
		owned[i] = id
	}
	return GeoPath{raw: b.String(), ids: owned}, nil
}

// String returns the canonical dotted form.
func (p GeoPath) String() string { return p.raw }

// IsZero reports whether the path is the zero value (never a valid path).
func (p GeoPath) IsZero() bool { return p.raw == "" }

// Depth returns the number of levels in the path.
func (p GeoPath) Depth() int { return len(p.ids) }

// IDs returns a copy of the ordered ID sequence, root first.
func (p GeoPath) IDs() []UnitID {
	out := make([]UnitID, len(p.ids))
	copy(out, p.ids)
	return out
}

// Leaf returns the deepest unit ID, or zero for the zero path.
func (p GeoPath) Leaf() UnitID {
	if len(p.ids) == 0 {
		return 0
	}
	return p.ids[len(p.ids)-1]
}

// Parent returns the path one level up and true, or the zero path and false
// for a root (depth 1) or zero path.
func (p GeoPath) Parent() (GeoPath, bool) {
	if len(p.ids) <= 1 {
		return GeoPath{}, false
	}
	idx := strings.LastIndexByte(p.raw, '.')
	return GeoPath{raw: p.raw[:idx], ids: p.ids[:len(p.ids)-1]}, true
}

// IsDescendantOf reports whether other is a proper ancestor of p, i.e.
// other's dotted string is a proper dotted prefix. "1.12" is a descendant of
// "1" but not of "1.1" — segment boundaries are respected.
func (p GeoPath) IsDescendantOf(other GeoPath) bool {
	if other.IsZero() || p.IsZero() {
		return false
	}
	if len(p.raw) <= len(other.raw) {
		return false
	}
	return strings.HasPrefix(p.raw, other.raw) && p.raw[len(other.raw)] == '.'
}

// Contains reports whether unit id appears anywhere in the chain.
func (p GeoPath) Contains(id UnitID) bool {
	for _, existing := range p.ids {
		if existing == id {
			return true
		}
	}
	return false
}

// Equal reports value equality on the canonical form.
func (p GeoPath) Equal(other GeoPath) bool { return p.raw == other.raw }

func (p GeoPath) MarshalText() ([]byte, error) { return []byte(p.raw), nil }

func (p *GeoPath) UnmarshalText(b []byte) error {
	parsed, err := ParseGeoPath(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
