package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyagent/internal/types"
)

func TestAddDeduplicates(t *testing.T) {
	g := New()
	tr := types.NewTriple("demo:Alice", "demo:isMarriedTo", "demo:Bob")
	require.NoError(t, g.Add(tr))
	require.NoError(t, g.Add(tr))
	assert.Equal(t, 1, g.Len())
	assert.True(t, g.Has(tr))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		t    types.Triple
		ok   bool
	}{
		{"object triple", types.NewTriple("demo:A", "demo:livesIn", "city:Paris"), true},
		{"data triple", types.NewLiteralTriple("demo:A", "demo:hasAge", types.Int(3)), true},
		{"unknown subject prefix", types.NewTriple("x:A", "demo:livesIn", "city:Paris"), false},
		{"bad predicate", types.NewTriple("demo:A", "livesIn", "city:Paris"), false},
		{"bad object", types.NewTriple("demo:A", "demo:livesIn", "Paris"), false},
		{"literal on object property", types.NewLiteralTriple("demo:A", "demo:livesIn", types.String("Paris")), false},
		{"identifier on data property", types.NewTriple("demo:A", "demo:hasAge", "demo:Old"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.t)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrMalformedTriple)
			}
		})
	}
}

func TestAddAllSkipsMalformed(t *testing.T) {
	g := New()
	added, errs := g.AddAll([]types.Triple{
		types.NewTriple("demo:A", "demo:livesIn", "city:Paris"),
		types.NewTriple("bogus:A", "demo:livesIn", "city:Paris"),
		types.NewTriple("demo:B", "demo:livesIn", "city:Paris"),
	})
	assert.Equal(t, 2, added)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrMalformedTriple)
}

func TestFrozenGraphRejectsWrites(t *testing.T) {
	g := New()
	require.NoError(t, g.Add(types.NewTriple("demo:A", "rdf:type", "demo:Person")))
	g.Freeze()

	assert.ErrorIs(t, g.Add(types.NewTriple("demo:B", "rdf:type", "demo:Person")), ErrFrozen)
	_, errs := g.AddAll([]types.Triple{types.NewTriple("demo:B", "rdf:type", "demo:Person")})
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrFrozen)
	assert.Equal(t, 1, g.Len())
}

func TestExtendLeavesBackgroundUntouched(t *testing.T) {
	bg, errs := FromTriples([]types.Triple{
		types.NewTriple("demo:AdultPerson", "rdfs:subClassOf", "demo:Person"),
	})
	require.Empty(t, errs)
	bg.Freeze()

	session, errs := bg.Extend([]types.Triple{
		types.NewTriple("demo:Alice", "rdf:type", "demo:Person"),
		types.NewTriple("demo:AdultPerson", "rdfs:subClassOf", "demo:Person"),
	})
	require.Empty(t, errs)

	assert.Equal(t, 1, bg.Len())
	assert.Equal(t, 2, session.Len())
	assert.False(t, session.Frozen())

	other, _ := bg.Extend(nil)
	assert.False(t, other.Has(types.NewTriple("demo:Alice", "rdf:type", "demo:Person")))
}

func TestMatch(t *testing.T) {
	g, _ := FromTriples([]types.Triple{
		types.NewTriple("demo:Alice", "rdf:type", "demo:Person"),
		types.NewTriple("demo:Bob", "rdf:type", "demo:Person"),
		types.NewTriple("demo:Alice", "demo:isMarriedTo", "demo:Bob"),
		types.NewLiteralTriple("demo:Alice", "demo:hasAge", types.Int(17)),
	})

	got := g.Match("demo:Alice", "", types.Term{})
	assert.Len(t, got, 3)

	got = g.Match("", "rdf:type", types.IRI("demo:Person"))
	want := []types.Triple{
		types.NewTriple("demo:Alice", "rdf:type", "demo:Person"),
		types.NewTriple("demo:Bob", "rdf:type", "demo:Person"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Match() mismatch (-want +got):\n%s", diff)
	}

	got = g.Match("", "demo:hasAge", types.Int(17))
	assert.Len(t, got, 1)
	assert.Empty(t, g.Match("demo:Carol", "", types.Term{}))
	assert.Len(t, g.WithPredicate("demo:isMarriedTo"), 1)
	assert.Len(t, g.Match("", "", types.Term{}), 4)
}
