package query

import "github.com/giygas/vademecum-api/vademecumparser/entities"

// Match is one search hit with its relevance tier
type Match[T any] struct {
	Record T
	Tier   Tier
}

// Results holds search hits per collection, each ordered by tier then by
// dataset position
type Results struct {
	Query     string
	Scope     Scope
	Compounds []Match[entities.Compound]
	Brands    []Match[entities.Brand]
}

// UpcomingCounts reports the hits per collection that rank as TierUpcoming
type UpcomingCounts struct {
	Compounds int `json:"compounds"`
	Brands    int `json:"brands"`
}

// Count is the total number of hits
func (r *Results) Count() int {
	return len(r.Compounds) + len(r.Brands)
}

// UpcomingCounts counts restricted hits, which callers show behind a
// separate "coming soon" heading
func (r *Results) UpcomingCounts() UpcomingCounts {
	return UpcomingCounts{
		Compounds: countTier(r.Compounds, TierUpcoming),
		Brands:    countTier(r.Brands, TierUpcoming),
	}
}

// CompoundRecords returns the matched compounds in rank order
func (r *Results) CompoundRecords() []entities.Compound {
	return records(r.Compounds)
}

// BrandRecords returns the matched brands in rank order
func (r *Results) BrandRecords() []entities.Brand {
	return records(r.Brands)
}

func countTier[T any](matches []Match[T], tier Tier) int {
	n := 0
	for _, m := range matches {
		if m.Tier == tier {
			n++
		}
	}
	return n
}

func records[T any](matches []Match[T]) []T {
	out := make([]T, len(matches))
	for i, m := range matches {
		out[i] = m.Record
	}
	return out
}
