//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gazetteer/internal/tenantsync/models"
	id "gazetteer/pkg/domain"
	"gazetteer/pkg/platform/sentinel"
	"gazetteer/pkg/testutil/containers"
)

func newReplicaFixture(t *testing.T) (*PostgresReplicaStore, *PostgresCursorStore) {
	t.Helper()
	pg := containers.NewPostgresContainer(t)
	replicas := NewPostgresReplicaStore(pg.DB)
	require.NoError(t, replicas.EnsureSchema(context.Background()))
	return replicas, NewPostgresCursorStore(pg.DB)
}

func TestPostgresReplicaStoreRoundTrip(t *testing.T) {
	replicas, _ := newReplicaFixture(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	tenantID := id.NewTenantID()

	localID, err := replicas.NextID(ctx, tenantID)
	require.NoError(t, err)

	official, err := models.NewOfficialReplica(localID, tenantID, "NG", 17, 1, "Kano", 0, now)
	require.NoError(t, err)
	require.NoError(t, replicas.Create(ctx, official))

	got, err := replicas.FindByExternalID(ctx, tenantID, "NG", 17)
	require.NoError(t, err)
	assert.Equal(t, official.ID, got.ID)
	assert.True(t, got.IsOfficial)

	// A second official row for the same canonical unit is rejected.
	dupID, err := replicas.NextID(ctx, tenantID)
	require.NoError(t, err)
	dup, err := models.NewOfficialReplica(dupID, tenantID, "NG", 17, 1, "Kano", 0, now)
	require.NoError(t, err)
	assert.ErrorIs(t, replicas.Create(ctx, dup), sentinel.ErrConflict)

	got.ApplyCorrection("Kano State", 1, now.Add(time.Minute))
	require.NoError(t, replicas.Update(ctx, got))
	updated, err := replicas.FindByID(ctx, tenantID, got.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kano State", updated.Name)
}

func TestPostgresReplicaStoreCustomUnits(t *testing.T) {
	replicas, _ := newReplicaFixture(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	tenantID := id.NewTenantID()

	localID, err := replicas.NextID(ctx, tenantID)
	require.NoError(t, err)
	custom, err := models.NewCustomReplica(localID, tenantID, "NG", 4, "Tole A", 0, now)
	require.NoError(t, err)
	require.NoError(t, replicas.Create(ctx, custom))

	count, err := replicas.CountCustom(ctx, tenantID, "NG")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Custom rows never collide on external id and stay tenant-scoped.
	otherCount, err := replicas.CountCustom(ctx, id.NewTenantID(), "NG")
	require.NoError(t, err)
	assert.Equal(t, 0, otherCount)
}

func TestPostgresCursorStore(t *testing.T) {
	_, cursors := newReplicaFixture(t)
	ctx := context.Background()
	tenantID := id.NewTenantID()

	_, err := cursors.Get(ctx, tenantID, "NG")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	first := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, cursors.Put(ctx, &models.TenantSyncCursor{
		TenantID: tenantID, CountryCode: "NG", LastSyncedAt: first, LastStatus: "clean", UpdatedAt: first,
	}))

	second := first.Add(15 * time.Minute)
	require.NoError(t, cursors.Put(ctx, &models.TenantSyncCursor{
		TenantID: tenantID, CountryCode: "NG", LastSyncedAt: second, LastStatus: "partial", UpdatedAt: second,
	}))

	cursor, err := cursors.Get(ctx, tenantID, "NG")
	require.NoError(t, err)
	assert.Equal(t, second, cursor.LastSyncedAt.UTC())
	assert.Equal(t, "partial", cursor.LastStatus)
}
