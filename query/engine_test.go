package query

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giygas/vademecum-api/data"
	"github.com/giygas/vademecum-api/logging"
	"github.com/giygas/vademecum-api/validation"
	"github.com/giygas/vademecum-api/vademecumparser"
)

func TestMain(m *testing.M) {
	logging.InitLogger("")
	m.Run()
}

// fakeProvider serves a fixed snapshot or error
type fakeProvider struct {
	ds  *data.Dataset
	err error
}

func (p *fakeProvider) Load(ctx context.Context) (*data.Dataset, error) {
	return p.ds, p.err
}

func buildDataset(t *testing.T, doc string) *data.Dataset {
	t.Helper()
	v := validation.NewDataValidator()
	parsed, err := vademecumparser.Decode(strings.NewReader(doc), v)
	require.NoError(t, err)
	return data.BuildDataset(parsed, v, "test")
}

func sampleEngine(t *testing.T) *Engine {
	t.Helper()
	v := validation.NewDataValidator()
	cache := data.NewCache(vademecumparser.NewParser(vademecumparser.NewEmbeddedSource(), v), v)
	return NewEngine(cache)
}

func compoundIDs(r *Results) []string {
	ids := []string{}
	for _, m := range r.Compounds {
		ids = append(ids, m.Record.ID)
	}
	return ids
}

func brandIDs(r *Results) []string {
	ids := []string{}
	for _, m := range r.Brands {
		ids = append(ids, m.Record.ID)
	}
	return ids
}

func TestGetCompoundByID(t *testing.T) {
	e := sampleEngine(t)
	ctx := context.Background()

	c, err := e.GetCompoundByID(ctx, "PA-000001")
	require.NoError(t, err)
	assert.Equal(t, "Paracetamol", c.Name)

	_, err = e.GetCompoundByID(ctx, "PA-999999")
	assert.ErrorIs(t, err, ErrNotFound)

	// brand ids do not resolve as compounds
	_, err = e.GetCompoundByID(ctx, "MA-000001")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetBrandByID(t *testing.T) {
	e := sampleEngine(t)
	ctx := context.Background()

	b, err := e.GetBrandByID(ctx, "MA-000001")
	require.NoError(t, err)
	assert.Equal(t, "Acupara", b.Name)
	assert.Equal(t, "PA-000001", b.CompoundID)

	_, err = e.GetBrandByID(ctx, "MA-999999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetBrandsForCompound(t *testing.T) {
	e := sampleEngine(t)
	ctx := context.Background()

	tests := []struct {
		id   string
		want []string
	}{
		{"PA-000001", []string{"MA-000001", "MA-000002"}},
		{"PA-000002", []string{"MA-000003"}},
		{"PA-000004", []string{}},
		{"PA-999999", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			brands, err := e.GetBrandsForCompound(ctx, tt.id)
			require.NoError(t, err)
			require.NotNil(t, brands)

			got := []string{}
			for _, b := range brands {
				assert.Equal(t, tt.id, b.CompoundID)
				got = append(got, b.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

// swappingProvider hands out the next snapshot on every Load, as if a
// reload landed between calls
type swappingProvider struct {
	snapshots []*data.Dataset
	loads     int
}

func (p *swappingProvider) Load(ctx context.Context) (*data.Dataset, error) {
	ds := p.snapshots[min(p.loads, len(p.snapshots)-1)]
	p.loads++
	return ds, nil
}

func TestGetCompoundWithBrands(t *testing.T) {
	e := sampleEngine(t)
	ctx := context.Background()

	c, brands, err := e.GetCompoundWithBrands(ctx, "PA-000001")
	require.NoError(t, err)
	assert.Equal(t, "Paracetamol", c.Name)
	require.Len(t, brands, 2)
	assert.Equal(t, "MA-000001", brands[0].ID)

	c, brands, err = e.GetCompoundWithBrands(ctx, "PA-000004")
	require.NoError(t, err)
	assert.Equal(t, "PA-000004", c.ID)
	assert.NotNil(t, brands)
	assert.Empty(t, brands)

	_, _, err = e.GetCompoundWithBrands(ctx, "PA-999999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetCompoundWithBrandsUsesOneSnapshot(t *testing.T) {
	before := buildDataset(t, `{
		"compounds": [{"id": "C1", "name": "Antes", "accessTier": "Public"}],
		"brands": [{"id": "B1", "compoundId": "C1", "name": "Vieja"}]
	}`)
	after := buildDataset(t, `{
		"compounds": [{"id": "C1", "name": "Despues", "accessTier": "Public"}],
		"brands": [
			{"id": "B2", "compoundId": "C1", "name": "Nueva"},
			{"id": "B3", "compoundId": "C1", "name": "Otra"}
		]
	}`)
	provider := &swappingProvider{snapshots: []*data.Dataset{before, after}}
	e := NewEngine(provider)

	c, brands, err := e.GetCompoundWithBrands(context.Background(), "C1")
	require.NoError(t, err)
	assert.Equal(t, 1, provider.loads)
	assert.Equal(t, "Antes", c.Name)
	require.Len(t, brands, 1)
	assert.Equal(t, "B1", brands[0].ID)
}

func TestLookupsDoNotShareSlicesWithSnapshot(t *testing.T) {
	e := sampleEngine(t)
	ctx := context.Background()

	c, err := e.GetCompoundByID(ctx, "PA-000001")
	require.NoError(t, err)
	require.NotEmpty(t, c.SideEffects)
	c.SideEffects[0] = "changed"

	list, err := e.ListCompounds(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, list[0].BrandIDs)
	list[0].BrandIDs[0] = "changed"

	fresh, _, err := e.GetCompoundWithBrands(ctx, "PA-000001")
	require.NoError(t, err)
	assert.Equal(t, []string{"Náuseas", "Erupción cutánea"}, fresh.SideEffects)
	assert.Equal(t, []string{"MA-000001", "MA-000002"}, fresh.BrandIDs)
}

func TestListCollections(t *testing.T) {
	e := sampleEngine(t)
	ctx := context.Background()

	compounds, err := e.ListCompounds(ctx)
	require.NoError(t, err)
	require.Len(t, compounds, 5)
	assert.Equal(t, "PA-000001", compounds[0].ID)
	assert.Equal(t, "PA-000005", compounds[4].ID)

	brands, err := e.ListBrands(ctx)
	require.NoError(t, err)
	require.Len(t, brands, 5)
	assert.Equal(t, "MA-000001", brands[0].ID)
}

func TestSearchIsCaseAndDiacriticInsensitive(t *testing.T) {
	e := sampleEngine(t)
	ctx := context.Background()

	base, err := e.Search(ctx, "paracetamol", ScopeAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"PA-000001"}, compoundIDs(base))
	assert.Equal(t, []string{"MA-000001", "MA-000002"}, brandIDs(base))
	assert.Equal(t, TierExact, base.Compounds[0].Tier)
	assert.Equal(t, TierPartial, base.Brands[0].Tier)

	for _, q := range []string{"PARACETAMOL", "paracétamol", "  Paracétamol  ", "PARACÉTAMOL"} {
		got, err := e.Search(ctx, q, ScopeAll)
		require.NoError(t, err, q)
		assert.Equal(t, base.Compounds, got.Compounds, q)
		assert.Equal(t, base.Brands, got.Brands, q)
	}
}

func TestSearchNoMatch(t *testing.T) {
	e := sampleEngine(t)

	res, err := e.Search(context.Background(), "tapsin", ScopeAll)
	require.NoError(t, err)
	assert.NotNil(t, res.Compounds)
	assert.NotNil(t, res.Brands)
	assert.Zero(t, res.Count())
}

func TestSearchEmptyQuery(t *testing.T) {
	e := sampleEngine(t)

	for _, q := range []string{"", "   ", "\t\n"} {
		res, err := e.Search(context.Background(), q, ScopeAll)
		assert.ErrorIs(t, err, ErrInvalidQuery, "%q", q)
		assert.Nil(t, res)
	}
}

func TestSearchTierOrdering(t *testing.T) {
	ds := buildDataset(t, `{
		"compounds": [
			{"id": "C1", "name": "Ibuprofeno forte", "accessTier": "Public"},
			{"id": "C2", "name": "Ibuprofeno", "accessTier": "Freemium"},
			{"id": "C3", "name": "Ibuprofeno retard", "accessTier": "Freemium"},
			{"id": "C4", "name": "Ibuprofeno", "accessTier": "Public"},
			{"id": "C5", "name": "Amoxicilina", "accessTier": "Public"},
			{"id": "C6", "name": "Ibuprofeno lisina", "accessTier": "Public"}
		],
		"brands": []
	}`)
	e := NewEngine(&fakeProvider{ds: ds})

	res, err := e.Search(context.Background(), "ibuprofeno", ScopeCompounds)
	require.NoError(t, err)

	assert.Equal(t, []string{"C2", "C4", "C1", "C6", "C3"}, compoundIDs(res))

	tiers := []Tier{}
	for _, m := range res.Compounds {
		tiers = append(tiers, m.Tier)
	}
	assert.Equal(t, []Tier{TierExact, TierExact, TierPartial, TierPartial, TierUpcoming}, tiers)
	assert.Equal(t, UpcomingCounts{Compounds: 1}, res.UpcomingCounts())
	assert.Empty(t, res.Brands)
}

func TestSearchRestrictedRecords(t *testing.T) {
	e := sampleEngine(t)
	ctx := context.Background()

	exact, err := e.Search(ctx, "semaglutida", ScopeAll)
	require.NoError(t, err)
	require.Len(t, exact.Compounds, 1)
	assert.Equal(t, TierExact, exact.Compounds[0].Tier, "exact name is never demoted")
	require.Len(t, exact.Brands, 1)
	assert.Equal(t, TierUpcoming, exact.Brands[0].Tier, "brand inherits the compound tier")

	partial, err := e.Search(ctx, "glu", ScopeAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"PA-000005"}, compoundIDs(partial))
	assert.Equal(t, []string{"MA-000005"}, brandIDs(partial))
	assert.Equal(t, UpcomingCounts{Compounds: 1, Brands: 1}, partial.UpcomingCounts())
}

func TestSearchReverseContainment(t *testing.T) {
	e := sampleEngine(t)

	res, err := e.Search(context.Background(), "ibuprofeno 400 mg", ScopeAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"PA-000002"}, compoundIDs(res))
	assert.Equal(t, TierPartial, res.Compounds[0].Tier)
	assert.Equal(t, []string{"MA-000003"}, brandIDs(res))
}

func TestSearchMatchesBrandNamesOnCompounds(t *testing.T) {
	e := sampleEngine(t)

	res, err := e.Search(context.Background(), "termofen", ScopeAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"PA-000001"}, compoundIDs(res))
	assert.Equal(t, TierPartial, res.Compounds[0].Tier)
	assert.Equal(t, []string{"MA-000002"}, brandIDs(res))
	assert.Equal(t, TierExact, res.Brands[0].Tier)
}

func TestSearchScope(t *testing.T) {
	e := sampleEngine(t)
	ctx := context.Background()

	compounds, err := e.Search(ctx, "paracetamol", ScopeCompounds)
	require.NoError(t, err)
	assert.Len(t, compounds.Compounds, 1)
	assert.Empty(t, compounds.Brands)

	brands, err := e.Search(ctx, "paracetamol", ScopeBrands)
	require.NoError(t, err)
	assert.Empty(t, brands.Compounds)
	assert.Len(t, brands.Brands, 2)
	assert.Equal(t, 2, brands.Count())
}

func TestSearchDoesNotMutateDataset(t *testing.T) {
	e := sampleEngine(t)
	ctx := context.Background()

	before, err := e.ListCompounds(ctx)
	require.NoError(t, err)

	res, err := e.Search(ctx, "a", ScopeAll)
	require.NoError(t, err)
	for i := range res.Compounds {
		res.Compounds[i].Record.Name = "changed"
	}

	after, err := e.ListCompounds(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestGetStats(t *testing.T) {
	e := sampleEngine(t)

	stats, err := e.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, data.Stats{
		TotalCompounds:    5,
		TotalBrands:       5,
		TotalFamilies:     4,
		TotalLaboratories: 3,
	}, stats)
}

func TestGetStatsFollowsSnapshot(t *testing.T) {
	provider := &fakeProvider{ds: buildDataset(t, `{
		"compounds": [{"id": "C1", "name": "Uno", "accessTier": "Public"}],
		"brands": []
	}`)}
	e := NewEngine(provider)

	stats, err := e.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalCompounds)

	provider.ds = buildDataset(t, `{
		"compounds": [
			{"id": "C1", "name": "Uno", "accessTier": "Public"},
			{"id": "C2", "name": "Dos", "accessTier": "Public"}
		],
		"brands": []
	}`)

	stats, err = e.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalCompounds)
}

func TestDatasetUnavailable(t *testing.T) {
	v := validation.NewDataValidator()
	broken := data.NewCache(vademecumparser.NewParser(vademecumparser.NewBytesSource([]byte("nope")), v), v)
	e := NewEngine(broken)
	ctx := context.Background()

	_, err := e.GetCompoundByID(ctx, "PA-000001")
	assert.ErrorIs(t, err, ErrDatasetUnavailable)

	_, err = e.GetBrandsForCompound(ctx, "PA-000001")
	assert.ErrorIs(t, err, ErrDatasetUnavailable)

	_, err = e.Search(ctx, "paracetamol", ScopeAll)
	assert.ErrorIs(t, err, ErrDatasetUnavailable)

	_, err = e.GetStats(ctx)
	assert.ErrorIs(t, err, ErrDatasetUnavailable)
}
