package tenantsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tenantmodels "gazetteer/internal/tenant/models"
	"gazetteer/internal/tenantsync/models"
	id "gazetteer/pkg/domain"
)

type recordingSyncer struct {
	mu    sync.Mutex
	runs  []string
	fail  map[string]bool
	calls int
}

func (s *recordingSyncer) SyncTenant(_ context.Context, tenantID id.TenantID, country id.CountryCode) (*models.SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tenantID.String() + "/" + country.String()
	s.runs = append(s.runs, key)
	s.calls++
	if s.fail[key] {
		return nil, errors.New("boom")
	}
	return &models.SyncResult{TenantID: tenantID, CountryCode: country}, nil
}

type staticTenants struct {
	tenants []*tenantmodels.Tenant
}

func (s *staticTenants) ListActive(context.Context) ([]*tenantmodels.Tenant, error) {
	return s.tenants, nil
}

type staticCountries struct {
	countries []id.CountryCode
}

func (s *staticCountries) Countries(context.Context) ([]id.CountryCode, error) {
	return s.countries, nil
}

func newTenant(t *testing.T, name string) *tenantmodels.Tenant {
	t.Helper()
	tenant, err := tenantmodels.NewTenant(id.NewTenantID(), name, time.Now())
	require.NoError(t, err)
	return tenant
}

func TestSweepCoversEveryTenantCountryPair(t *testing.T) {
	alpha := newTenant(t, "Alpha Party")
	beta := newTenant(t, "Beta Party")
	syncer := &recordingSyncer{}
	worker := NewWorker(syncer,
		&staticTenants{tenants: []*tenantmodels.Tenant{alpha, beta}},
		&staticCountries{countries: []id.CountryCode{"NG", "NP"}},
		time.Minute)

	worker.Sweep(context.Background())

	assert.Equal(t, 4, syncer.calls)
	assert.ElementsMatch(t, []string{
		alpha.ID.String() + "/NG", alpha.ID.String() + "/NP",
		beta.ID.String() + "/NG", beta.ID.String() + "/NP",
	}, syncer.runs)
}

func TestSweepContinuesPastFailedRuns(t *testing.T) {
	alpha := newTenant(t, "Alpha Party")
	beta := newTenant(t, "Beta Party")
	syncer := &recordingSyncer{fail: map[string]bool{alpha.ID.String() + "/NG": true}}
	worker := NewWorker(syncer,
		&staticTenants{tenants: []*tenantmodels.Tenant{alpha, beta}},
		&staticCountries{countries: []id.CountryCode{"NG"}},
		time.Minute, WithParallelism(1))

	worker.Sweep(context.Background())

	assert.Equal(t, 2, syncer.calls)
}
