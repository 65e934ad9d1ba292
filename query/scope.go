package query

import (
	"fmt"
	"strings"
)

// Scope selects which collections a search covers
type Scope string

const (
	ScopeCompounds Scope = "compounds"
	ScopeBrands    Scope = "brands"
	ScopeAll       Scope = "all"
)

// ParseScope accepts compounds, brands or all in any case. A blank value
// means ScopeAll.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScopeAll:
		return ScopeAll, nil
	case ScopeCompounds:
		return ScopeCompounds, nil
	case ScopeBrands:
		return ScopeBrands, nil
	default:
		return "", fmt.Errorf("invalid search scope %q: expected compounds, brands or all", s)
	}
}

func (s Scope) includesCompounds() bool {
	return s == ScopeCompounds || s == ScopeAll
}

func (s Scope) includesBrands() bool {
	return s == ScopeBrands || s == ScopeAll
}
