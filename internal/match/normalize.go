// Package match implements fuzzy name matching against the canonical
// geography. Matching is always scoped to one country, one level, and
// optionally one parent, because place names recur across unrelated branches.
package match

import (
	"strings"
	"unicode"

	id "gazetteer/pkg/domain"
)

// Normalizer prepares names for comparison: lowercase, trim, strip
// punctuation, collapse whitespace, and drop administrative designators from
// a per-country strip-list.
type Normalizer struct {
	stripLists map[id.CountryCode][]string
}

// defaultStripList applies to every country on top of its own list.
var defaultStripList = []string{
	"municipality",
	"rural municipality",
	"metropolitan",
	"district",
	"city",
}

func NewNormalizer() *Normalizer {
	return &Normalizer{stripLists: make(map[id.CountryCode][]string)}
}

// SetStripList replaces the designator strip-list for a country. Terms are
// matched as whole leading or trailing words after base normalization, so
// they must be provided in normalized form themselves.
func (n *Normalizer) SetStripList(country id.CountryCode, terms []string) {
	normalized := make([]string, 0, len(terms))
	for _, term := range terms {
		if t := baseNormalize(term); t != "" {
			normalized = append(normalized, t)
		}
	}
	n.stripLists[country] = normalized
}

// Normalize returns the comparison form of a name for a country.
func (n *Normalizer) Normalize(name string, country id.CountryCode) string {
	out := baseNormalize(name)
	// Longer designators are stripped first so "rural municipality" wins
	// over "municipality".
	terms := append([]string{}, n.stripLists[country]...)
	terms = append(terms, defaultStripList...)
	for changed := true; changed; {
		changed = false
		for _, term := range longestFirst(terms) {
			if trimmed, ok := stripEdgeWord(out, term); ok {
				out = trimmed
				changed = true
			}
		}
	}
	return out
}

// baseNormalize lowercases, strips punctuation outside the base alphabet,
// and collapses internal whitespace.
func baseNormalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '\'' || r == '.':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// stripEdgeWord removes term from the start or end of s at a word boundary.
func stripEdgeWord(s, term string) (string, bool) {
	if s == term {
		// Never strip a name down to nothing.
		return s, false
	}
	if rest, ok := strings.CutPrefix(s, term+" "); ok {
		return rest, true
	}
	if rest, ok := strings.CutSuffix(s, " "+term); ok {
		return rest, true
	}
	return s, false
}

func longestFirst(terms []string) []string {
	out := append([]string{}, terms...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && len(out[j]) > len(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
