package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gazetteer/internal/tenant/models"
	"gazetteer/internal/tenant/store"
	dErrors "gazetteer/pkg/domain-errors"
)

func newService() *Service {
	return New(store.NewInMemoryTenantStore())
}

func TestRegisterTenant(t *testing.T) {
	s := newService()
	tenant, err := s.Register(context.Background(), "  Unity Party  ")
	require.NoError(t, err)
	assert.Equal(t, "Unity Party", tenant.Name)
	assert.Equal(t, models.StatusActive, tenant.Status)
	assert.Equal(t, models.DefaultCustomUnitQuota, tenant.CustomUnitQuota)
}

func TestRegisterTenantNameUniquenessIsCaseInsensitive(t *testing.T) {
	s := newService()
	ctx := context.Background()
	_, err := s.Register(ctx, "Unity Party")
	require.NoError(t, err)

	_, err = s.Register(ctx, "UNITY PARTY")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestRegisterTenantEmptyName(t *testing.T) {
	s := newService()
	_, err := s.Register(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestDefaultQuotaOverride(t *testing.T) {
	s := New(store.NewInMemoryTenantStore(), WithDefaultCustomUnitQuota(25))
	tenant, err := s.Register(context.Background(), "Unity Party")
	require.NoError(t, err)
	assert.Equal(t, 25, tenant.CustomUnitQuota)
}

func TestSuspendAndReactivate(t *testing.T) {
	s := newService()
	ctx := context.Background()
	tenant, err := s.Register(ctx, "Unity Party")
	require.NoError(t, err)

	suspended, err := s.Suspend(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuspended, suspended.Status)
	assert.False(t, suspended.IsActive())

	// Suspending twice is a conflict, not a no-op.
	_, err = s.Suspend(ctx, tenant.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	reactivated, err := s.Reactivate(ctx, tenant.ID)
	require.NoError(t, err)
	assert.True(t, reactivated.IsActive())
}

func TestListActiveFiltersSuspended(t *testing.T) {
	s := newService()
	ctx := context.Background()
	active, err := s.Register(ctx, "Unity Party")
	require.NoError(t, err)
	suspended, err := s.Register(ctx, "Progress Party")
	require.NoError(t, err)
	_, err = s.Suspend(ctx, suspended.ID)
	require.NoError(t, err)

	tenants, err := s.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, tenants, 1)
	assert.Equal(t, active.ID, tenants[0].ID)
}
