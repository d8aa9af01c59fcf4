package match

import (
	"strings"
	"unicode"
)

// Scorer provides the string similarity signals the engine combines.
// Inputs are expected to be normalized already.
type Scorer struct{}

func NewScorer() *Scorer {
	return &Scorer{}
}

// ExactMatch returns 1.0 for an exact match, 0.0 otherwise.
func (s *Scorer) ExactMatch(a, b string) float64 {
	if a == b {
		return 1.0
	}
	return 0.0
}

// Levenshtein returns an edit-distance similarity between 0.0 and 1.0,
// computed as 1 − distance/max(len(a), len(b)).
func (s *Scorer) Levenshtein(a, b string) float64 {
	maxLen := max(len(a), len(b))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(s.LevenshteinDistance(a, b))/float64(maxLen)
}

// LevenshteinDistance calculates the edit distance between two strings.
func (s *Scorer) LevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	row := make([]int, len(b)+1)
	prevRow := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prevRow[j] = j
	}

	for i := 1; i <= len(a); i++ {
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			row[j] = min(min(row[j-1]+1, prevRow[j]+1), prevRow[j-1]+cost)
		}
		row, prevRow = prevRow, row
	}
	return prevRow[len(b)]
}

// TrigramOverlap returns the character trigram overlap ratio between 0.0 and
// 1.0. Strings are padded so short names still produce trigrams.
func (s *Scorer) TrigramOverlap(a, b string) float64 {
	ta := trigrams(a)
	tb := trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0.0
	}
	shared := 0
	for gram, countA := range ta {
		if countB, ok := tb[gram]; ok {
			shared += min(countA, countB)
		}
	}
	total := 0
	for _, c := range ta {
		total += c
	}
	for _, c := range tb {
		total += c
	}
	return 2.0 * float64(shared) / float64(total)
}

func trigrams(s string) map[string]int {
	if s == "" {
		return nil
	}
	padded := "  " + s + " "
	out := make(map[string]int)
	for i := 0; i+3 <= len(padded); i++ {
		out[padded[i:i+3]]++
	}
	return out
}

// SoundexMatch returns 1.0 when the Soundex codes of both strings are equal,
// 0.0 otherwise.
func (s *Scorer) SoundexMatch(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}
	if s.Soundex(a) == s.Soundex(b) {
		return 1.0
	}
	return 0.0
}

// Soundex calculates the Soundex encoding of a string.
func (s *Scorer) Soundex(str string) string {
	if len(str) == 0 {
		return ""
	}
	str = strings.ToUpper(str)

	result := string(str[0])
	prevCode := soundexCode(rune(str[0]))

	for i := 1; i < len(str) && len(result) < 4; i++ {
		char := rune(str[i])
		if !unicode.IsLetter(char) {
			continue
		}
		code := soundexCode(char)
		if code != "0" && code != prevCode {
			result += code
		}
		prevCode = code
	}

	for len(result) < 4 {
		result += "0"
	}
	return result
}

func soundexCode(char rune) string {
	switch char {
	case 'B', 'F', 'P', 'V':
		return "1"
	case 'C', 'G', 'J', 'K', 'Q', 'S', 'X', 'Z':
		return "2"
	case 'D', 'T':
		return "3"
	case 'L':
		return "4"
	case 'M', 'N':
		return "5"
	case 'R':
		return "6"
	default:
		return "0"
	}
}
