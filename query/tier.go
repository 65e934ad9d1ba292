package query

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/giygas/vademecum-api/data"
)

// Tier is the relevance class of a search hit. Lower sorts first.
type Tier int

const (
	TierExact Tier = iota
	TierPartial
	TierUpcoming
	TierNone
)

// minReverseMatch is the shortest field allowed to match as a substring of
// the query, so "ibuprofeno 400" still finds "ibuprofeno" but "la" matches
// nothing.
const minReverseMatch = 3

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierPartial:
		return "partial"
	case TierUpcoming:
		return "upcoming"
	case TierNone:
		return "none"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// MarshalText lets tiers appear by name in JSON bodies
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Classify ranks one record against a normalized query. An exact name
// match is TierExact whatever the access tier. A partial match is the query
// inside any field, or a field of at least minReverseMatch runes inside the
// query; shorter fields never match in that direction. Partial matches on
// restricted records are demoted to TierUpcoming.
func Classify(q string, key data.SearchKey) Tier {
	if q == "" {
		return TierNone
	}
	if key.Name == q {
		return TierExact
	}
	if !partialMatch(q, key.Fields) {
		return TierNone
	}
	if key.Tier.IsRestricted() {
		return TierUpcoming
	}
	return TierPartial
}

func partialMatch(q string, fields []string) bool {
	for _, f := range fields {
		if f == "" {
			continue
		}
		if strings.Contains(f, q) {
			return true
		}
		if utf8.RuneCountInString(f) >= minReverseMatch && strings.Contains(q, f) {
			return true
		}
	}
	return false
}
