// Package domain holds shared domain primitives: typed identifiers, country
// codes, and the GeoPath value object. Typed IDs prevent cross-entity
// assignment at compile time and validate at trust boundaries.
package domain

import (
	"strconv"

	"github.com/google/uuid"

	dErrors "gazetteer/pkg/domain-errors"
)

// Typed UUID identifiers. Conversions between them do not compile, which is
// the point: a TenantID can never be passed where a CandidateID is expected.
type (
	// TenantID identifies a party tenant.
	TenantID uuid.UUID
	// CandidateID identifies a submitted geography candidate.
	CandidateID uuid.UUID
	// ReviewerID identifies the admin acting on a candidate.
	ReviewerID uuid.UUID
)

func (id TenantID) String() string    { return uuid.UUID(id).String() }
func (id CandidateID) String() string { return uuid.UUID(id).String() }
func (id ReviewerID) String() string  { return uuid.UUID(id).String() }

func (id TenantID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id CandidateID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ReviewerID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

func (id TenantID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id CandidateID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id ReviewerID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }

func (id *TenantID) UnmarshalText(b []byte) error {
	parsed, err := ParseTenantID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *CandidateID) UnmarshalText(b []byte) error {
	parsed, err := ParseCandidateID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ReviewerID) UnmarshalText(b []byte) error {
	parsed, err := ParseReviewerID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewTenantID returns a fresh random tenant ID.
func NewTenantID() TenantID { return TenantID(uuid.New()) }

// NewCandidateID returns a fresh random candidate ID.
func NewCandidateID() CandidateID { return CandidateID(uuid.New()) }

// NewReviewerID returns a fresh random reviewer ID.
func NewReviewerID() ReviewerID { return ReviewerID(uuid.New()) }

// ParseTenantID validates and parses a tenant ID from its string form.
// Empty strings and the nil UUID are rejected.
func ParseTenantID(s string) (TenantID, error) {
	u, err := parseUUID(s, "tenant id")
	if err != nil {
		return TenantID{}, err
	}
	return TenantID(u), nil
}

// ParseCandidateID validates and parses a candidate ID from its string form.
func ParseCandidateID(s string) (CandidateID, error) {
	u, err := parseUUID(s, "candidate id")
	if err != nil {
		return CandidateID{}, err
	}
	return CandidateID(u), nil
}

// ParseReviewerID validates and parses a reviewer ID from its string form.
func ParseReviewerID(s string) (ReviewerID, error) {
	u, err := parseUUID(s, "reviewer id")
	if err != nil {
		return ReviewerID{}, err
	}
	return ReviewerID(u), nil
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be empty", what)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is not a valid UUID", what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be the nil UUID", what)
	}
	return u, nil
}

// UnitID identifies a canonical administrative unit or a tenant replica row.
// Unit IDs are positive integers; they appear verbatim in materialized paths.
type UnitID int64

func (id UnitID) String() string { return strconv.FormatInt(int64(id), 10) }

// IsValid reports whether the ID is positive. Zero is the absent value.
func (id UnitID) IsValid() bool { return id > 0 }

// ParseUnitID validates and parses a unit ID from its decimal string form.
func ParseUnitID(s string) (UnitID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, dErrors.Newf(dErrors.CodeInvalidInput, "unit id must be a positive integer, got %q", s)
	}
	return UnitID(n), nil
}
