package match

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gazetteer/internal/geo/models"
	"gazetteer/internal/geo/store"
	id "gazetteer/pkg/domain"
)

type pool struct {
	units *store.InMemoryUnitStore
}

func newPool(t *testing.T) *pool {
	t.Helper()
	return &pool{units: store.NewInMemoryUnitStore()}
}

func (p *pool) add(t *testing.T, country id.CountryCode, ordinal int, name string, parent *models.AdministrativeUnit) *models.AdministrativeUnit {
	t.Helper()
	ctx := context.Background()
	unitID, err := p.units.NextID(ctx)
	require.NoError(t, err)
	unit, err := models.NewAdministrativeUnit(unitID, country, ordinal, name, parent, time.Now())
	require.NoError(t, err)
	require.NoError(t, p.units.Create(ctx, unit))
	return unit
}

func TestFindCandidates_ExactMatchTops(t *testing.T) {
	ctx := context.Background()
	p := newPool(t)
	p.add(t, "NP", 1, "Bagmati", nil)
	target := p.add(t, "NP", 1, "Gandaki", nil)
	engine := NewEngine(p.units)

	result, err := engine.FindCandidates(ctx, "Gandaki", "NP", 1, 0)
	require.NoError(t, err)
	require.NotNil(t, result.Best)
	assert.Equal(t, target.ID, result.Best.UnitID)
	assert.Equal(t, 1.0, result.Best.Score)
	assert.Equal(t, BandExact, result.Best.Band)
	assert.NotNil(t, result.Suggestion, "exact best match must produce a suggestion")
}

func TestFindCandidates_ExactAfterNormalization(t *testing.T) {
	ctx := context.Background()
	p := newPool(t)
	target := p.add(t, "NP", 1, "Kathmandu Metropolitan", nil)
	engine := NewEngine(p.units)

	result, err := engine.FindCandidates(ctx, "  KATHMANDU. ", "NP", 1, 0)
	require.NoError(t, err)
	require.NotNil(t, result.Best)
	assert.Equal(t, target.ID, result.Best.UnitID)
	assert.Equal(t, 1.0, result.Best.Score)
}

func TestFindCandidates_TypoLandsHighBand(t *testing.T) {
	ctx := context.Background()
	p := newPool(t)
	province := p.add(t, "NP", 1, "Gandaki", nil)
	district := p.add(t, "NP", 2, "Kaski", province)
	local := p.add(t, "NP", 3, "Pokhara", district)
	rosyara := p.add(t, "NP", 4, "Rosyara", local)
	engine := NewEngine(p.units)

	result, err := engine.FindCandidates(ctx, "Roshara", "NP", 4, local.ID)
	require.NoError(t, err)
	require.NotNil(t, result.Best)
	assert.Equal(t, rosyara.ID, result.Best.UnitID)
	assert.GreaterOrEqual(t, result.Best.Score, 0.85)
	assert.Contains(t, []Band{BandHigh, BandVeryHigh, BandExact}, result.Best.Band)
}

func TestFindCandidates_SiblingScoping(t *testing.T) {
	ctx := context.Background()
	p := newPool(t)
	gandaki := p.add(t, "NP", 1, "Gandaki", nil)
	bagmati := p.add(t, "NP", 1, "Bagmati", nil)
	// The same ward name exists under two unrelated parents.
	inGandaki := p.add(t, "NP", 2, "Central", gandaki)
	p.add(t, "NP", 2, "Central", bagmati)
	engine := NewEngine(p.units)

	result, err := engine.FindCandidates(ctx, "Central", "NP", 2, gandaki.ID)
	require.NoError(t, err)
	require.Len(t, result.Matches, 1, "cross-branch names must not leak into sibling-scoped results")
	assert.Equal(t, inGandaki.ID, result.Matches[0].UnitID)
}

func TestFindCandidates_DiscardsBelowFloor(t *testing.T) {
	ctx := context.Background()
	p := newPool(t)
	p.add(t, "NP", 1, "Karnali", nil)
	engine := NewEngine(p.units)

	result, err := engine.FindCandidates(ctx, "Xyzzyx", "NP", 1, 0)
	require.NoError(t, err)
	assert.True(t, result.NoMatches)
	assert.Nil(t, result.Best)
	assert.Empty(t, result.Matches)
}

func TestFindCandidates_EmptyPool(t *testing.T) {
	ctx := context.Background()
	p := newPool(t)
	engine := NewEngine(p.units)

	result, err := engine.FindCandidates(ctx, "Anything", "NP", 1, 0)
	require.NoError(t, err)
	assert.True(t, result.NoMatches)
}

func TestFindCandidates_BandCountsAndTopN(t *testing.T) {
	ctx := context.Background()
	p := newPool(t)
	p.add(t, "NP", 1, "Lumbini", nil)
	p.add(t, "NP", 1, "Lumbina", nil)
	p.add(t, "NP", 1, "Lumbuni", nil)
	config := DefaultConfig()
	config.TopN = 2
	engine := NewEngine(p.units, WithConfig(config))

	result, err := engine.FindCandidates(ctx, "Lumbini", "NP", 1, 0)
	require.NoError(t, err)
	assert.Len(t, result.Matches, 2, "ranked list must respect TopN")
	total := 0
	for _, n := range result.BandCounts {
		total += n
	}
	assert.Equal(t, 3, total, "band counts cover all retained candidates, not just TopN")
	assert.Equal(t, 1, result.BandCounts[BandExact])
}

func TestFindCandidates_EmptyNameRejected(t *testing.T) {
	p := newPool(t)
	engine := NewEngine(p.units)
	_, err := engine.FindCandidates(context.Background(), "", "NP", 1, 0)
	require.Error(t, err)
}

func TestNormalizer_PerCountryStripList(t *testing.T) {
	n := NewNormalizer()
	n.SetStripList("NP", []string{"gaunpalika", "rural municipality"})

	assert.Equal(t, "rosyara", n.Normalize("Rosyara Gaunpalika", "NP"))
	assert.Equal(t, "rosyara", n.Normalize("Rosyara Rural Municipality", "NP"))
	// Other countries do not inherit NP's list.
	assert.Equal(t, "rosyara gaunpalika", n.Normalize("Rosyara Gaunpalika", "KE"))
	// A name that is nothing but a designator survives.
	assert.Equal(t, "gaunpalika", n.Normalize("Gaunpalika", "NP"))
}

func TestNormalizer_Base(t *testing.T) {
	n := NewNormalizer()
	assert.Equal(t, "st mary s", n.Normalize("  St. Mary's  ", "GB"))
	assert.Equal(t, "kathmandu", n.Normalize("KATHMANDU", "NP"))
	assert.Equal(t, "a b", n.Normalize("a    b", "NP"))
}
