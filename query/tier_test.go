package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giygas/vademecum-api/data"
	"github.com/giygas/vademecum-api/vademecumparser/entities"
)

func TestClassify(t *testing.T) {
	key := func(tier entities.AccessTier, fields ...string) data.SearchKey {
		return data.SearchKey{Name: fields[0], Fields: fields, Tier: tier}
	}

	tests := []struct {
		name string
		q    string
		key  data.SearchKey
		want Tier
	}{
		{"exact name", "paracetamol", key(entities.AccessPublic, "paracetamol"), TierExact},
		{"exact name on restricted record", "semaglutida", key(entities.AccessFreemium, "semaglutida"), TierExact},
		{"prefix of name", "para", key(entities.AccessPublic, "paracetamol"), TierPartial},
		{"inside family", "antipire", key(entities.AccessPublic, "acupara", "analgesicos y antipireticos"), TierPartial},
		{"field inside query", "ibuprofeno 400", key(entities.AccessPublic, "ibuprofeno"), TierPartial},
		{"short field inside query ignored", "abc", key(entities.AccessPublic, "xyz", "ab"), TierNone},
		{"three rune field inside query", "xabcx", key(entities.AccessPublic, "xyz", "abc"), TierPartial},
		{"restricted partial demoted", "glu", key(entities.AccessFreemium, "glutava"), TierUpcoming},
		{"no match", "tapsin", key(entities.AccessPublic, "paracetamol", "analgesicos"), TierNone},
		{"restricted no match", "tapsin", key(entities.AccessFreemium, "glutava"), TierNone},
		{"empty query", "", key(entities.AccessPublic, "paracetamol"), TierNone},
		{"name equal but field missing", "x", data.SearchKey{Name: "x"}, TierExact},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.q, tt.key))
		})
	}
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "exact", TierExact.String())
	assert.Equal(t, "partial", TierPartial.String())
	assert.Equal(t, "upcoming", TierUpcoming.String())
	assert.Equal(t, "none", TierNone.String())
	assert.Equal(t, "Tier(9)", Tier(9).String())

	text, err := TierUpcoming.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "upcoming", string(text))
}

func TestParseScope(t *testing.T) {
	tests := []struct {
		in      string
		want    Scope
		wantErr bool
	}{
		{"", ScopeAll, false},
		{"all", ScopeAll, false},
		{"ALL", ScopeAll, false},
		{"compounds", ScopeCompounds, false},
		{" Brands ", ScopeBrands, false},
		{"generics", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseScope(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
