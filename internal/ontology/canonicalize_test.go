package ontology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyagent/internal/types"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		prefix types.Prefix
		want   types.Identifier
		ok     bool
	}{
		{"plain name", "Alice", types.PrefixDemo, "demo:Alice", true},
		{"spaces become underscores", "Mary Ann", types.PrefixDemo, "demo:Mary_Ann", true},
		{"case preserved", "LargeCity", types.PrefixCity, "city:LargeCity", true},
		{"explicit prefix kept", "travel:Walking", types.PrefixDemo, "travel:Walking", true},
		{"base prefix kept", "base:Anemia", types.PrefixDemo, "base:Anemia", true},
		{"unknown prefix replaced", "foo:Bread", types.PrefixIngredient, "ia2025:Bread", true},
		{"nested colons use last segment", "demo:a:Bob", types.PrefixDemo, "demo:Bob", true},
		{"punctuation stripped", "O'Brien!", types.PrefixDemo, "demo:OBrien", true},
		{"hyphen kept", "Jean-Luc", types.PrefixDemo, "demo:Jean-Luc", true},
		{"surrounding whitespace", "  Tom  ", types.PrefixDemo, "demo:Tom", true},
		{"alias", "NYC", types.PrefixDemo, "city:NewYorkCity", true},
		{"alias behind prefix", "city:new_york", types.PrefixCity, "city:NewYorkCity", true},
		{"alias landmark", "Empire State Building", types.PrefixCity, "city:EmpireStateBuilding", true},
		{"empty", "", types.PrefixDemo, "", false},
		{"blank", "   ", types.PrefixDemo, "", false},
		{"only punctuation", "?!", types.PrefixDemo, "", false},
		{"explicit prefix empty rest", "demo:", types.PrefixCity, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Canonicalize(tt.raw, tt.prefix)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
			if ok {
				assert.True(t, got.Valid(), "canonical identifier must be valid: %s", got)
			}
		})
	}
}

func TestCanonicalizeNewYorkAliases(t *testing.T) {
	for _, raw := range []string{"New York City", "new_york", "NYC", "New York", "new-york", "city:NYC"} {
		got, ok := Canonicalize(raw, types.PrefixCity)
		require.True(t, ok, raw)
		assert.Equal(t, types.Identifier("city:NewYorkCity"), got, raw)
	}
}

func TestCanonicalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"Alice", "Mary Ann", "city:Utrecht", "NYC", "Hills burg", "travel:Walking",
		"foo:Bar", "Jean-Luc", "Łódź", "base:Cancer", "Empire State Building",
	}
	for _, raw := range inputs {
		for _, p := range []types.Prefix{types.PrefixDemo, types.PrefixCity, types.PrefixTravel} {
			first, ok := Canonicalize(raw, p)
			require.True(t, ok, raw)

			again, ok := Canonicalize(first.Local(), first.Prefix())
			require.True(t, ok)
			assert.Equal(t, first, again, "local part of %q", raw)

			full, ok := Canonicalize(string(first), p)
			require.True(t, ok)
			assert.Equal(t, first, full, "full identifier of %q", raw)
		}
	}
}

func TestCanonicalizeValueRejectsNonText(t *testing.T) {
	for _, v := range []any{nil, 42, 3.5, true, []any{"Alice"}, map[string]any{}} {
		_, ok := CanonicalizeValue(v, types.PrefixDemo)
		assert.False(t, ok, "%v", v)
	}
	id, ok := CanonicalizeValue("Bob", types.PrefixDemo)
	assert.True(t, ok)
	assert.Equal(t, types.Identifier("demo:Bob"), id)
}

func TestAliasKey(t *testing.T) {
	assert.Equal(t, "newyork", AliasKey("New-York"))
	assert.Equal(t, "newyork", AliasKey("new_york"))
	assert.Equal(t, "", AliasKey("--"))
}
