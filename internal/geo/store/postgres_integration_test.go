//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gazetteer/internal/geo/models"
	id "gazetteer/pkg/domain"
	"gazetteer/pkg/platform/sentinel"
	"gazetteer/pkg/testutil/containers"
)

func newPostgresFixture(t *testing.T) (*PostgresUnitStore, *PostgresDescriptorStore) {
	t.Helper()
	pg := containers.NewPostgresContainer(t)
	units := NewPostgresUnitStore(pg.DB)
	require.NoError(t, units.EnsureSchema(context.Background()))
	return units, NewPostgresDescriptorStore(pg.DB)
}

func mustUnit(t *testing.T, unitID id.UnitID, ordinal int, name string, parent *models.AdministrativeUnit, at time.Time) *models.AdministrativeUnit {
	t.Helper()
	unit, err := models.NewAdministrativeUnit(unitID, "NG", ordinal, name, parent, at)
	require.NoError(t, err)
	return unit
}

func TestPostgresUnitStoreRoundTrip(t *testing.T) {
	units, _ := newPostgresFixture(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	kano := mustUnit(t, 1, 1, "Kano", nil, now)
	kano.Names = map[string]string{"ha": "Kano"}
	require.NoError(t, units.Create(ctx, kano))

	got, err := units.FindByID(ctx, kano.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kano", got.Name)
	assert.Equal(t, kano.Path.String(), got.Path.String())
	assert.Equal(t, map[string]string{"ha": "Kano"}, got.Names)
	assert.True(t, got.Active)

	assert.ErrorIs(t, units.Create(ctx, kano), sentinel.ErrConflict)

	_, err = units.FindByID(ctx, 999)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPostgresUnitStoreHierarchyQueries(t *testing.T) {
	units, _ := newPostgresFixture(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	kano := mustUnit(t, 1, 1, "Kano", nil, now)
	nassarawa := mustUnit(t, 2, 2, "Nassarawa", kano, now)
	tarauni := mustUnit(t, 3, 2, "Tarauni", kano, now)
	for _, u := range []*models.AdministrativeUnit{kano, nassarawa, tarauni} {
		require.NoError(t, units.Create(ctx, u))
	}

	ok, err := units.IsChildOf(ctx, nassarawa.ID, kano.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = units.IsChildOf(ctx, kano.ID, nassarawa.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	siblings, err := units.FindUnitsAtLevel(ctx, "NG", 2, kano.ID)
	require.NoError(t, err)
	require.Len(t, siblings, 2)

	active, err := units.ListActive(ctx, "NG", time.Time{})
	require.NoError(t, err)
	require.Len(t, active, 3)
	assert.Equal(t, kano.ID, active[0].ID, "parents come before children")
}

func TestPostgresUnitStoreExecute(t *testing.T) {
	units, _ := newPostgresFixture(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	kano := mustUnit(t, 1, 1, "Kano", nil, now)
	require.NoError(t, units.Create(ctx, kano))

	renamedAt := now.Add(time.Minute)
	updated, err := units.Execute(ctx, kano.ID,
		func(u *models.AdministrativeUnit) error { return u.CanRename("Kano State") },
		func(u *models.AdministrativeUnit) { u.ApplyRename("Kano State", renamedAt) })
	require.NoError(t, err)
	assert.Equal(t, "Kano State", updated.Name)

	got, err := units.FindByID(ctx, kano.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kano State", got.Name)
	assert.Equal(t, renamedAt, got.UpdatedAt.UTC())
}

func TestPostgresUnitStoreNextID(t *testing.T) {
	units, _ := newPostgresFixture(t)
	ctx := context.Background()

	first, err := units.NextID(ctx)
	require.NoError(t, err)
	second, err := units.NextID(ctx)
	require.NoError(t, err)
	assert.Greater(t, int64(second), int64(first))
}

func TestPostgresDescriptorStore(t *testing.T) {
	_, descriptors := newPostgresFixture(t)
	ctx := context.Background()

	descriptor, err := models.NewHierarchyDescriptor("NG", []models.LevelDescriptor{
		{Name: "state", Ordinal: 1, Required: true},
		{Name: "lga", Ordinal: 2, Required: true},
	})
	require.NoError(t, err)
	require.NoError(t, descriptors.Put(ctx, descriptor))

	got, err := descriptors.Get(ctx, "NG")
	require.NoError(t, err)
	assert.Equal(t, descriptor.Levels, got.Levels)

	_, err = descriptors.Get(ctx, "KE")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	countries, err := descriptors.Countries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []id.CountryCode{"NG"}, countries)
}
