package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGeoPathRoundTrip validates the round-trip invariant: any valid ordered
// id sequence of depth 1..8 survives FromIDs → String → Parse unchanged.
func TestGeoPathRoundTrip(t *testing.T) {
	sequences := [][]UnitID{
		{1},
		{1, 12},
		{1, 12, 123},
		{1, 12, 123, 1234},
		{7, 7, 7, 7, 7},
		{999999999, 1, 42, 8, 3, 17},
		{1, 2, 3, 4, 5, 6, 7},
		{10, 20, 30, 40, 50, 60, 70, 80},
	}

	for _, ids := range sequences {
		t.Run(fmt.Sprintf("depth_%d", len(ids)), func(t *testing.T) {
			built, err := GeoPathFromIDs(ids)
			require.NoError(t, err)

			parsed, err := ParseGeoPath(built.String())
			require.NoError(t, err)

			assert.True(t, built.Equal(parsed))
			assert.Equal(t, ids, parsed.IDs())
			assert.Equal(t, len(ids), parsed.Depth())
		})
	}
}

func TestParseGeoPath_RejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrInvalidPathFormat},
		{"trailing dot", "1.2.", ErrInvalidPathFormat},
		{"leading dot", ".1.2", ErrInvalidPathFormat},
		{"double dot", "1..2", ErrInvalidPathFormat},
		{"zero segment", "1.0.3", ErrInvalidPathFormat},
		{"negative segment", "1.-2", ErrInvalidPathFormat},
		{"alpha segment", "1.a.3", ErrInvalidPathFormat},
		{"whitespace", "1. 2", ErrInvalidPathFormat},
		{"leading plus", "+1", ErrInvalidPathFormat},
		{"signed segment", "1.+2", ErrInvalidPathFormat},
		{"leading zero", "01.2", ErrInvalidPathFormat},
		{"zero-padded segment", "1.02", ErrInvalidPathFormat},
		{"too deep", "1.2.3.4.5.6.7.8.9", ErrMaxDepthExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGeoPath(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGeoPathFromIDs_RejectsInvalidSequences(t *testing.T) {
	t.Run("empty sequence", func(t *testing.T) {
		_, err := GeoPathFromIDs(nil)
		assert.ErrorIs(t, err, ErrInvalidPathFormat)
	})

	t.Run("non-positive id", func(t *testing.T) {
		_, err := GeoPathFromIDs([]UnitID{1, 0, 3})
		assert.ErrorIs(t, err, ErrInvalidPathFormat)
	})

	t.Run("depth above maximum", func(t *testing.T) {
		ids := make([]UnitID, MaxPathDepth+1)
		for i := range ids {
			ids[i] = UnitID(i + 1)
		}
		_, err := GeoPathFromIDs(ids)
		assert.ErrorIs(t, err, ErrMaxDepthExceeded)
	})
}

func TestGeoPathParent(t *testing.T) {
	t.Run("multi-level path has parent chain", func(t *testing.T) {
		p, err := ParseGeoPath("1.12.123")
		require.NoError(t, err)

		parent, ok := p.Parent()
		require.True(t, ok)
		assert.Equal(t, "1.12", parent.String())

		root, ok := parent.Parent()
		require.True(t, ok)
		assert.Equal(t, "1", root.String())

		_, ok = root.Parent()
		assert.False(t, ok, "root has no parent")
	})

	t.Run("zero path has no parent", func(t *testing.T) {
		_, ok := GeoPath{}.Parent()
		assert.False(t, ok)
	})
}

func TestGeoPathIsDescendantOf(t *testing.T) {
	mustParse := func(raw string) GeoPath {
		p, err := ParseGeoPath(raw)
		require.NoError(t, err)
		return p
	}

	t.Run("proper dotted prefix is ancestor", func(t *testing.T) {
		assert.True(t, mustParse("1.12.123").IsDescendantOf(mustParse("1.12")))
		assert.True(t, mustParse("1.12.123").IsDescendantOf(mustParse("1")))
	})

	t.Run("string prefix without segment boundary is not ancestor", func(t *testing.T) {
		// "1.12" starts with the characters of "1.1" but 12 != 1.
		assert.False(t, mustParse("1.12").IsDescendantOf(mustParse("1.1")))
	})

	t.Run("path is not its own descendant", func(t *testing.T) {
		assert.False(t, mustParse("1.12").IsDescendantOf(mustParse("1.12")))
	})

	t.Run("unrelated branches", func(t *testing.T) {
		assert.False(t, mustParse("2.5").IsDescendantOf(mustParse("1")))
	})
}

func TestGeoPathAccessors(t *testing.T) {
	p, err := ParseGeoPath("3.14.159")
	require.NoError(t, err)

	assert.Equal(t, UnitID(159), p.Leaf())
	assert.True(t, p.Contains(14))
	assert.False(t, p.Contains(15))

	// IDs returns a copy; mutating it must not affect the path.
	ids := p.IDs()
	ids[0] = 999
	assert.Equal(t, "3.14.159", p.String())
}
