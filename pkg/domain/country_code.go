package domain

import (
	dErrors "gazetteer/pkg/domain-errors"
)

// CountryCode is a two-letter uppercase ISO-3166-alpha-2 style code. It is
// validated at construction and compared by value; the engine never branches
// on specific countries, only on their hierarchy descriptors.
type CountryCode string

// ParseCountryCode validates and returns a CountryCode. Lowercase input is
// rejected rather than normalized so that callers cannot accidentally rely on
// case folding at one boundary and not another.
func ParseCountryCode(s string) (CountryCode, error) {
	if len(s) != 2 {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "country code must be exactly two letters, got %q", s)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return "", dErrors.Newf(dErrors.CodeInvalidInput, "country code must be uppercase A-Z, got %q", s)
		}
	}
	return CountryCode(s), nil
}

func (c CountryCode) String() string { return string(c) }

// IsNil reports whether the code is empty (unset).
func (c CountryCode) IsNil() bool { return c == "" }
