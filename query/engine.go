// Package query answers id lookups and ranked free-text search over the
// loaded vademecum dataset. It never mutates the snapshot it reads.
package query

import (
	"cmp"
	"context"
	"slices"

	"github.com/giygas/vademecum-api/data"
	"github.com/giygas/vademecum-api/metrics"
	"github.com/giygas/vademecum-api/vademecumparser"
	"github.com/giygas/vademecum-api/vademecumparser/entities"
)

// DatasetProvider hands out the current snapshot, loading it if needed
type DatasetProvider interface {
	Load(ctx context.Context) (*data.Dataset, error)
}

// Engine runs queries against the snapshot of its provider
type Engine struct {
	provider DatasetProvider
}

// NewEngine creates an engine over provider
func NewEngine(provider DatasetProvider) *Engine {
	return &Engine{provider: provider}
}

// GetCompoundByID returns the compound with id or ErrNotFound
func (e *Engine) GetCompoundByID(ctx context.Context, id string) (entities.Compound, error) {
	ds, err := e.provider.Load(ctx)
	if err != nil {
		return entities.Compound{}, err
	}
	c, ok := ds.CompoundByID(id)
	if !ok {
		return entities.Compound{}, ErrNotFound
	}
	return c, nil
}

// GetBrandByID returns the brand with id or ErrNotFound
func (e *Engine) GetBrandByID(ctx context.Context, id string) (entities.Brand, error) {
	ds, err := e.provider.Load(ctx)
	if err != nil {
		return entities.Brand{}, err
	}
	b, ok := ds.BrandByID(id)
	if !ok {
		return entities.Brand{}, ErrNotFound
	}
	return b, nil
}

// GetBrandsForCompound returns the brands of compoundID in dataset order.
// An unknown compound is not an error and yields an empty slice.
func (e *Engine) GetBrandsForCompound(ctx context.Context, compoundID string) ([]entities.Brand, error) {
	ds, err := e.provider.Load(ctx)
	if err != nil {
		return nil, err
	}
	return ds.BrandsForCompound(compoundID), nil
}

// GetCompoundWithBrands returns the compound with id and its brands, both
// read from the same snapshot. An unknown id gives ErrNotFound.
func (e *Engine) GetCompoundWithBrands(ctx context.Context, id string) (entities.Compound, []entities.Brand, error) {
	ds, err := e.provider.Load(ctx)
	if err != nil {
		return entities.Compound{}, nil, err
	}
	c, ok := ds.CompoundByID(id)
	if !ok {
		return entities.Compound{}, nil, ErrNotFound
	}
	return c, ds.BrandsForCompound(id), nil
}

func (e *Engine) ListCompounds(ctx context.Context) ([]entities.Compound, error) {
	ds, err := e.provider.Load(ctx)
	if err != nil {
		return nil, err
	}
	return ds.Compounds(), nil
}

func (e *Engine) ListBrands(ctx context.Context) ([]entities.Brand, error) {
	ds, err := e.provider.Load(ctx)
	if err != nil {
		return nil, err
	}
	return ds.Brands(), nil
}

// GetStats returns the counts precomputed with the current snapshot
func (e *Engine) GetStats(ctx context.Context) (data.Stats, error) {
	ds, err := e.provider.Load(ctx)
	if err != nil {
		return data.Stats{}, err
	}
	return ds.Stats(), nil
}

// Search ranks the records of scope against q. Exact name matches come
// first, then partial matches, then partial matches on restricted records.
// Ties keep dataset order. A query that normalizes to nothing returns
// ErrInvalidQuery.
func (e *Engine) Search(ctx context.Context, q string, scope Scope) (*Results, error) {
	nq := vademecumparser.Normalize(q)
	if nq == "" {
		return nil, ErrInvalidQuery
	}

	ds, err := e.provider.Load(ctx)
	if err != nil {
		return nil, err
	}

	res := &Results{
		Query:     nq,
		Scope:     scope,
		Compounds: []Match[entities.Compound]{},
		Brands:    []Match[entities.Brand]{},
	}

	if scope.includesCompounds() {
		res.Compounds = rank(nq, ds.CompoundKeys(), ds.CompoundAt)
	}
	if scope.includesBrands() {
		res.Brands = rank(nq, ds.BrandKeys(), ds.BrandAt)
	}

	metrics.SearchResults.WithLabelValues(string(scope)).Observe(float64(res.Count()))

	return res, nil
}

type hit struct {
	index int
	tier  Tier
}

// rank classifies every key and returns the matches sorted by (tier,
// index). keys and at share the dataset order.
func rank[T any](q string, keys []data.SearchKey, at func(int) T) []Match[T] {
	hits := make([]hit, 0)
	for i := range keys {
		if tier := Classify(q, keys[i]); tier != TierNone {
			hits = append(hits, hit{index: i, tier: tier})
		}
	}

	slices.SortStableFunc(hits, func(a, b hit) int {
		return cmp.Compare(a.tier, b.tier)
	})

	out := make([]Match[T], len(hits))
	for i, h := range hits {
		out[i] = Match[T]{Record: at(h.index), Tier: h.tier}
	}
	return out
}
