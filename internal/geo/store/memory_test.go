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
)

func mustUnit(t *testing.T, s *InMemoryUnitStore, country id.CountryCode, ordinal int, name string, parent *models.AdministrativeUnit) *models.AdministrativeUnit {
	t.Helper()
	ctx := context.Background()
	unitID, err := s.NextID(ctx)
	require.NoError(t, err)
	unit, err := models.NewAdministrativeUnit(unitID, country, ordinal, name, parent, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, unit))
	return unit
}

func TestInMemoryUnitStore_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryUnitStore()

	root := mustUnit(t, s, "NG", 1, "Lagos", nil)
	child := mustUnit(t, s, "NG", 2, "Ikeja", root)

	found, err := s.FindByID(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, child.Name, found.Name)
	assert.Equal(t, root.ID, found.ParentID)
	assert.Equal(t, root.Path.String()+"."+child.ID.String(), found.Path.String())

	_, err = s.FindByID(ctx, id.UnitID(9999))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	err = s.Create(ctx, child)
	assert.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestInMemoryUnitStore_IsChildOf(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryUnitStore()

	root := mustUnit(t, s, "NG", 1, "Lagos", nil)
	other := mustUnit(t, s, "NG", 1, "Kano", nil)
	child := mustUnit(t, s, "NG", 2, "Ikeja", root)

	ok, err := s.IsChildOf(ctx, child.ID, root.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.IsChildOf(ctx, child.ID, other.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.IsChildOf(ctx, id.UnitID(9999), root.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryUnitStore_FindUnitsAtLevel(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryUnitStore()

	lagos := mustUnit(t, s, "NG", 1, "Lagos", nil)
	kano := mustUnit(t, s, "NG", 1, "Kano", nil)
	ikeja := mustUnit(t, s, "NG", 2, "Ikeja", lagos)
	mustUnit(t, s, "NG", 2, "Nassarawa", kano)
	mustUnit(t, s, "KE", 1, "Nairobi", nil)

	// Scoped to a parent only sibling units come back.
	units, err := s.FindUnitsAtLevel(ctx, "NG", 2, lagos.ID)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, ikeja.ID, units[0].ID)

	// Unscoped returns the whole level for the country.
	units, err = s.FindUnitsAtLevel(ctx, "NG", 2, 0)
	require.NoError(t, err)
	assert.Len(t, units, 2)

	// Deactivated units are excluded.
	_, err = s.Execute(ctx, ikeja.ID,
		func(u *models.AdministrativeUnit) error { return u.CanDeactivate() },
		func(u *models.AdministrativeUnit) { u.ApplyDeactivation(time.Now()) },
	)
	require.NoError(t, err)
	units, err = s.FindUnitsAtLevel(ctx, "NG", 2, lagos.ID)
	require.NoError(t, err)
	assert.Empty(t, units)
}

func TestInMemoryUnitStore_ListActiveOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryUnitStore()

	lagos := mustUnit(t, s, "NG", 1, "Lagos", nil)
	ikeja := mustUnit(t, s, "NG", 2, "Ikeja", lagos)
	mustUnit(t, s, "NG", 3, "Alausa", ikeja)
	mustUnit(t, s, "NG", 1, "Kano", nil)

	units, err := s.ListActive(ctx, "NG", time.Time{})
	require.NoError(t, err)
	require.Len(t, units, 4)
	for i := 1; i < len(units); i++ {
		assert.LessOrEqual(t, units[i-1].Ordinal, units[i].Ordinal, "parents must precede children")
	}
}

func TestInMemoryUnitStore_ListActiveChangedSince(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryUnitStore()

	lagos := mustUnit(t, s, "NG", 1, "Lagos", nil)
	mustUnit(t, s, "NG", 1, "Kano", nil)

	cutoff := time.Now().Add(time.Minute)
	units, err := s.ListActive(ctx, "NG", cutoff)
	require.NoError(t, err)
	assert.Empty(t, units)

	_, err = s.Execute(ctx, lagos.ID,
		func(u *models.AdministrativeUnit) error { return u.CanRename("Lagos State") },
		func(u *models.AdministrativeUnit) { u.ApplyRename("Lagos State", cutoff.Add(time.Minute)) },
	)
	require.NoError(t, err)

	units, err = s.ListActive(ctx, "NG", cutoff)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "Lagos State", units[0].Name)
}

func TestInMemoryUnitStore_ExecuteValidationRejected(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryUnitStore()

	lagos := mustUnit(t, s, "NG", 1, "Lagos", nil)

	_, err := s.Execute(ctx, lagos.ID,
		func(u *models.AdministrativeUnit) error { return u.CanRename("") },
		func(u *models.AdministrativeUnit) { u.ApplyRename("", time.Now()) },
	)
	require.Error(t, err)

	found, err := s.FindByID(ctx, lagos.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lagos", found.Name, "failed validation must not mutate")
}

func TestInMemoryUnitStore_NextIDSkipsTaken(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryUnitStore()

	seeded, err := models.NewAdministrativeUnit(1, "NG", 1, "Lagos", nil, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, seeded))

	next, err := s.NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, id.UnitID(2), next)
}

func TestInMemoryDescriptorStore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryDescriptorStore()

	_, err := s.Get(ctx, "NG")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	descriptor, err := models.NewHierarchyDescriptor("NG", []models.LevelDescriptor{
		{Name: "state", Ordinal: 1, Required: true},
		{Name: "lga", Ordinal: 2, Required: true},
		{Name: "ward", Ordinal: 3, Required: false},
	})
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, descriptor))

	got, err := s.Get(ctx, "NG")
	require.NoError(t, err)
	assert.Equal(t, 3, got.MaxOrdinal())
	assert.Equal(t, []int{1, 2}, got.RequiredOrdinals())

	countries, err := s.Countries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []id.CountryCode{"NG"}, countries)
}
