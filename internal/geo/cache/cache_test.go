package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "gazetteer/pkg/domain"
)

func mustPath(t *testing.T, raw string) id.GeoPath {
	t.Helper()
	p, err := id.ParseGeoPath(raw)
	require.NoError(t, err)
	return p
}

func TestInMemoryPathCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryPathCache(time.Hour)

	key := Key{Country: "NG", IDs: []id.UnitID{12, 105, 2204}}
	path := mustPath(t, "12.105.2204")

	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, key, path))

	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, path.Equal(got))
}

func TestInMemoryPathCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryPathCache(time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	key := Key{Country: "NG", IDs: []id.UnitID{12}}
	require.NoError(t, c.Set(ctx, key, mustPath(t, "12")))

	now = now.Add(2 * time.Minute)
	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "expired entry must read as a miss")
}

func TestInMemoryPathCache_InvalidateCountry(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryPathCache(time.Hour)

	ngKey := Key{Country: "NG", IDs: []id.UnitID{12, 105}}
	keKey := Key{Country: "KE", IDs: []id.UnitID{7, 31}}
	require.NoError(t, c.Set(ctx, ngKey, mustPath(t, "12.105")))
	require.NoError(t, c.Set(ctx, keKey, mustPath(t, "7.31")))

	require.NoError(t, c.InvalidateCountry(ctx, "NG"))

	_, ok, err := c.Get(ctx, ngKey)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = c.Get(ctx, keKey)
	require.NoError(t, err)
	assert.True(t, ok, "other countries must be untouched")
}

func TestKeyString(t *testing.T) {
	key := Key{Country: "NG", IDs: []id.UnitID{12, 105, 2204}}
	assert.Equal(t, "NG:12:105:2204", key.String())
}
