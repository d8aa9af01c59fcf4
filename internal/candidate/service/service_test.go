package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gazetteer/internal/candidate/models"
	"gazetteer/internal/candidate/store"
	"gazetteer/internal/geo/cache"
	geomodels "gazetteer/internal/geo/models"
	geoservice "gazetteer/internal/geo/service"
	geostore "gazetteer/internal/geo/store"
	"gazetteer/internal/match"
	id "gazetteer/pkg/domain"
	dErrors "gazetteer/pkg/domain-errors"
)

type fixture struct {
	units   *geostore.InMemoryUnitStore
	geo     *geoservice.Service
	service *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{units: geostore.NewInMemoryUnitStore()}
	descriptors := geostore.NewInMemoryDescriptorStore()
	f.geo = geoservice.New(f.units, descriptors, cache.NopPathCache{})

	ctx := context.Background()
	_, err := f.geo.PutDescriptor(ctx, "NP", []geomodels.LevelDescriptor{
		{Name: "province", Ordinal: 1, Required: true},
		{Name: "district", Ordinal: 2, Required: true},
		{Name: "local level", Ordinal: 3, Required: true},
		{Name: "ward", Ordinal: 4, Required: false},
	})
	require.NoError(t, err)

	engine := match.NewEngine(f.units)
	f.service = New(store.NewInMemoryCandidateStore(), engine, f.geo)
	return f
}

func (f *fixture) seed(t *testing.T, ordinal int, name string, parent *geomodels.AdministrativeUnit) *geomodels.AdministrativeUnit {
	t.Helper()
	var parentID id.UnitID
	if parent != nil {
		parentID = parent.ID
	}
	unit, err := f.geo.CreateUnit(context.Background(), "NP", ordinal, name, nil, parentID)
	require.NoError(t, err)
	return unit
}

func (f *fixture) seedChain(t *testing.T) (province, district, local *geomodels.AdministrativeUnit) {
	t.Helper()
	province = f.seed(t, 1, "Gandaki", nil)
	district = f.seed(t, 2, "Kaski", province)
	local = f.seed(t, 3, "Pokhara", district)
	return province, district, local
}

func TestSubmit_NoMatchesStaysPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, _, local := f.seedChain(t)

	candidate, err := f.service.Submit(ctx, "Roshara", "NP", 4, local.ID, id.NewTenantID())
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, candidate.ReviewStatus)
	assert.Zero(t, candidate.ConfidenceScore)
	assert.True(t, candidate.SuggestedUnitID.IsValid() == false)
}

func TestSubmit_VeryHighMatchAutoMovesToReview(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, _, local := f.seedChain(t)
	rosyara := f.seed(t, 4, "Rosyara", local)

	// The designator strips away during normalization, so this submission
	// is an exact match and lands directly under review.
	candidate, err := f.service.Submit(ctx, "ROSYARA Municipality", "NP", 4, local.ID, id.NewTenantID())
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, candidate.ReviewStatus)
	assert.Equal(t, rosyara.ID, candidate.SuggestedUnitID)
	assert.GreaterOrEqual(t, candidate.ConfidenceScore, 0.95)
	assert.NotEmpty(t, candidate.MatchResults)
}

func TestSubmit_HighButNotVeryHighStaysPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, _, local := f.seedChain(t)
	f.seed(t, 4, "Rosyara", local)

	candidate, err := f.service.Submit(ctx, "Roshara", "NP", 4, local.ID, id.NewTenantID())
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, candidate.ReviewStatus)
	assert.GreaterOrEqual(t, candidate.ConfidenceScore, 0.85)
	assert.False(t, candidate.SuggestedUnitID.IsValid())
}

func TestBeginReview_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, _, local := f.seedChain(t)
	reviewer := id.NewReviewerID()

	submitted, err := f.service.Submit(ctx, "Roshara", "NP", 4, local.ID, id.NewTenantID())
	require.NoError(t, err)

	first, err := f.service.BeginReview(ctx, submitted.ID, reviewer)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, first.ReviewStatus)

	second, err := f.service.BeginReview(ctx, submitted.ID, reviewer)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, second.ReviewStatus)
}

func TestApproveAsNew_CreatesUnit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, _, local := f.seedChain(t)
	reviewer := id.NewReviewerID()

	submitted, err := f.service.Submit(ctx, "Roshara", "NP", 4, local.ID, id.NewTenantID())
	require.NoError(t, err)
	_, err = f.service.BeginReview(ctx, submitted.ID, reviewer)
	require.NoError(t, err)

	approved, err := f.service.ApproveAsNew(ctx, submitted.ID, reviewer)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.ReviewStatus)
	require.True(t, approved.ResolvedUnitID.IsValid())

	unit, err := f.geo.GetUnit(ctx, approved.ResolvedUnitID)
	require.NoError(t, err)
	assert.Equal(t, "Roshara", unit.Name)
	assert.Equal(t, 4, unit.Ordinal)
	assert.Equal(t, local.ID, unit.ParentID)
}

func TestApproveAsMerge_RenamesTargetWithoutNewUnit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, _, local := f.seedChain(t)
	rosyara := f.seed(t, 4, "Rosyara", local)
	reviewer := id.NewReviewerID()

	submitted, err := f.service.Submit(ctx, "Rosyara Municipality", "NP", 4, local.ID, id.NewTenantID())
	require.NoError(t, err)
	require.Equal(t, models.StatusUnderReview, submitted.ReviewStatus)
	require.Equal(t, rosyara.ID, submitted.SuggestedUnitID)

	before, err := f.units.FindChildren(ctx, local.ID)
	require.NoError(t, err)

	merged, err := f.service.ApproveAsMerge(ctx, submitted.ID, reviewer, submitted.SuggestedUnitID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusMerged, merged.ReviewStatus)
	assert.Equal(t, rosyara.ID, merged.ResolvedUnitID)

	target, err := f.geo.GetUnit(ctx, rosyara.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rosyara Municipality", target.Name, "merge applies the name correction")

	after, err := f.units.FindChildren(ctx, local.ID)
	require.NoError(t, err)
	assert.Len(t, after, len(before), "merge must not create a unit")
}

func TestApproveAsMerge_TargetLevelMismatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, district, local := f.seedChain(t)
	reviewer := id.NewReviewerID()

	submitted, err := f.service.Submit(ctx, "Roshara", "NP", 4, local.ID, id.NewTenantID())
	require.NoError(t, err)

	_, err = f.service.ApproveAsMerge(ctx, submitted.ID, reviewer, district.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestReject_NoCanonicalMutation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, _, local := f.seedChain(t)
	reviewer := id.NewReviewerID()

	submitted, err := f.service.Submit(ctx, "Roshara", "NP", 4, local.ID, id.NewTenantID())
	require.NoError(t, err)

	rejected, err := f.service.Reject(ctx, submitted.ID, reviewer, "not a real ward")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.ReviewStatus)
	assert.Equal(t, "not a real ward", rejected.RejectionReason)
	assert.False(t, rejected.ResolvedUnitID.IsValid())

	children, err := f.units.FindChildren(ctx, local.ID)
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestTerminalCandidateIsImmutable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, _, local := f.seedChain(t)
	reviewer := id.NewReviewerID()

	submitted, err := f.service.Submit(ctx, "Roshara", "NP", 4, local.ID, id.NewTenantID())
	require.NoError(t, err)
	rejected, err := f.service.Reject(ctx, submitted.ID, reviewer, "duplicate")
	require.NoError(t, err)

	transitions := []func() error{
		func() error { _, err := f.service.BeginReview(ctx, submitted.ID, reviewer); return err },
		func() error { _, err := f.service.ApproveAsNew(ctx, submitted.ID, reviewer); return err },
		func() error { _, err := f.service.ApproveAsMerge(ctx, submitted.ID, reviewer, local.ID); return err },
		func() error { _, err := f.service.Reject(ctx, submitted.ID, reviewer, "again"); return err },
	}
	for _, attempt := range transitions {
		err := attempt()
		var invalid *models.InvalidStateTransitionError
		require.ErrorAs(t, err, &invalid)
		// The typed error carries the conflict code out of the service so the
		// transport maps it to 409, not 500.
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	}

	// Status and resolution never move after the terminal transition.
	final, err := f.service.Get(ctx, submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, rejected.ReviewStatus, final.ReviewStatus)
	assert.Equal(t, rejected.ResolvedUnitID, final.ResolvedUnitID)
	assert.Equal(t, rejected.UpdatedAt.Unix(), final.UpdatedAt.Unix())
}

func TestResubmissionCreatesNewRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, _, local := f.seedChain(t)
	reviewer := id.NewReviewerID()
	tenant := id.NewTenantID()

	first, err := f.service.Submit(ctx, "Roshara", "NP", 4, local.ID, tenant)
	require.NoError(t, err)
	_, err = f.service.Reject(ctx, first.ID, reviewer, "typo")
	require.NoError(t, err)

	second, err := f.service.Submit(ctx, "Roshara", "NP", 4, local.ID, tenant)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, models.StatusPending, second.ReviewStatus)
}
