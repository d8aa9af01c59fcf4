package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshteinDistance(t *testing.T) {
	s := NewScorer()
	assert.Equal(t, 0, s.LevenshteinDistance("kathmandu", "kathmandu"))
	assert.Equal(t, 1, s.LevenshteinDistance("roshara", "rosyara"))
	assert.Equal(t, 8, s.LevenshteinDistance("", "lalitpur"))
	assert.Equal(t, 3, s.LevenshteinDistance("kit", "kitten"))
}

func TestLevenshteinSimilarity(t *testing.T) {
	s := NewScorer()
	assert.Equal(t, 1.0, s.Levenshtein("", ""))
	assert.InDelta(t, 1.0-1.0/7.0, s.Levenshtein("roshara", "rosyara"), 1e-9)
	assert.Equal(t, 0.0, s.Levenshtein("ab", "xy"))
}

func TestTrigramOverlap(t *testing.T) {
	s := NewScorer()
	assert.Equal(t, 1.0, s.TrigramOverlap("lagos", "lagos"))
	assert.Equal(t, 0.0, s.TrigramOverlap("", "lagos"))
	assert.Greater(t, s.TrigramOverlap("roshara", "rosyara"), 0.4)
	assert.Less(t, s.TrigramOverlap("kathmandu", "pokhara"), 0.3)
}

func TestSoundex(t *testing.T) {
	s := NewScorer()
	assert.Equal(t, "R260", s.Soundex("roshara"))
	assert.Equal(t, s.Soundex("smith"), s.Soundex("smyth"))
	assert.Equal(t, 1.0, s.SoundexMatch("smith", "smyth"))
	assert.Equal(t, 0.0, s.SoundexMatch("smith", "jones"))
	assert.Equal(t, 0.0, s.SoundexMatch("", "jones"))
}

func TestLevenshteinDistanceTypo7Chars(t *testing.T) {
	// One substitution in a seven-letter name must stay in the high band
	// under the edit distance signal alone.
	s := NewScorer()
	score := s.Levenshtein("roshara", "rosyara")
	assert.GreaterOrEqual(t, score, 0.85)
}
