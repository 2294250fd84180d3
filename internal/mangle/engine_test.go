package mangle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyagent/internal/graph"
	"storyagent/internal/ontology"
	"storyagent/internal/types"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := NewEngine(DefaultConfig(), []ontology.ThresholdAxiom{
		{Class: ontology.AdultPerson, Property: ontology.HasAge, Min: 18},
	})
	require.NoError(t, err)
	return eng
}

func mustGraph(t *testing.T, ts ...types.Triple) *graph.Graph {
	t.Helper()
	g, errs := graph.FromTriples(ts)
	require.Empty(t, errs)
	return g
}

func TestClosureSubClassIsTransitive(t *testing.T) {
	eng := newTestEngine(t)
	g := mustGraph(t,
		types.NewTriple("city:SubwaySystem", "rdfs:subClassOf", "city:TransitSystem"),
		types.NewTriple("city:TransitSystem", "rdfs:subClassOf", "city:Infrastructure"),
		types.NewTriple("city:MetroX", "rdf:type", "city:SubwaySystem"),
	)

	out, stats, err := eng.Closure(context.Background(), g)
	require.NoError(t, err)

	assert.True(t, out.Has(types.NewTriple("city:MetroX", "rdf:type", "city:TransitSystem")))
	assert.True(t, out.Has(types.NewTriple("city:MetroX", "rdf:type", "city:Infrastructure")))
	assert.True(t, out.Has(types.NewTriple("city:SubwaySystem", "rdfs:subClassOf", "city:Infrastructure")))
	assert.Equal(t, 3, g.Len(), "input graph must not change")
	assert.Equal(t, 3, stats.InputTriples)
	assert.Equal(t, out.Len()-g.Len(), stats.DerivedTriples)
}

func TestClosureSubPropertyCarriesLiteralsAndObjects(t *testing.T) {
	eng := newTestEngine(t)
	g := mustGraph(t,
		types.NewTriple("demo:isMarriedTo", "rdfs:subPropertyOf", "demo:hasRelationshipWith"),
		types.NewTriple("demo:Alice", "demo:isMarriedTo", "demo:Bob"),
	)

	out, _, err := eng.Closure(context.Background(), g)
	require.NoError(t, err)
	assert.True(t, out.Has(types.NewTriple("demo:Alice", "demo:hasRelationshipWith", "demo:Bob")))
}

func TestClosureSubPropertyIsTransitive(t *testing.T) {
	eng := newTestEngine(t)
	g := mustGraph(t,
		types.NewTriple("demo:isMarriedTo", "rdfs:subPropertyOf", "demo:hasRelationshipWith"),
		types.NewTriple("demo:hasRelationshipWith", "rdfs:subPropertyOf", "demo:knows"),
		types.NewTriple("demo:knows", "rdfs:subPropertyOf", "demo:isConnectedTo"),
		types.NewTriple("demo:Alice", "demo:isMarriedTo", "demo:Bob"),
	)

	out, _, err := eng.Closure(context.Background(), g)
	require.NoError(t, err)
	assert.True(t, out.Has(types.NewTriple("demo:isMarriedTo", "rdfs:subPropertyOf", "demo:knows")))
	assert.True(t, out.Has(types.NewTriple("demo:isMarriedTo", "rdfs:subPropertyOf", "demo:isConnectedTo")))
	assert.True(t, out.Has(types.NewTriple("demo:hasRelationshipWith", "rdfs:subPropertyOf", "demo:isConnectedTo")))
	assert.True(t, out.Has(types.NewTriple("demo:Alice", "demo:isConnectedTo", "demo:Bob")))
}

func TestClosureLongSubClassChain(t *testing.T) {
	eng := newTestEngine(t)
	chain := []types.Identifier{"demo:A", "demo:B", "demo:C", "demo:D", "demo:E"}
	var ts []types.Triple
	for i := 0; i+1 < len(chain); i++ {
		ts = append(ts, types.NewTriple(chain[i], "rdfs:subClassOf", chain[i+1]))
	}
	g := mustGraph(t, ts...)

	out, _, err := eng.Closure(context.Background(), g)
	require.NoError(t, err)
	for i := range chain {
		for j := i + 1; j < len(chain); j++ {
			assert.True(t, out.Has(types.NewTriple(chain[i], "rdfs:subClassOf", chain[j])), "%s ⊑ %s", chain[i], chain[j])
		}
	}
}

func TestClosureDomainAndRange(t *testing.T) {
	eng := newTestEngine(t)
	g := mustGraph(t,
		types.NewTriple("demo:livesIn", "rdfs:domain", "demo:Person"),
		types.NewTriple("demo:livesIn", "rdfs:range", "city:City"),
		types.NewTriple("demo:hasAge", "rdfs:domain", "demo:Person"),
		types.NewTriple("demo:Tom", "demo:livesIn", "city:Beijing"),
		types.NewLiteralTriple("demo:Kid", "demo:hasAge", types.Int(4)),
	)

	out, _, err := eng.Closure(context.Background(), g)
	require.NoError(t, err)
	assert.True(t, out.Has(types.NewTriple("demo:Tom", "rdf:type", "demo:Person")))
	assert.True(t, out.Has(types.NewTriple("city:Beijing", "rdf:type", "city:City")))
	assert.True(t, out.Has(types.NewTriple("demo:Kid", "rdf:type", "demo:Person")))
}

func TestClosureThresholdAxiom(t *testing.T) {
	eng := newTestEngine(t)
	g := mustGraph(t,
		types.NewTriple("demo:AdultPerson", "rdfs:subClassOf", "demo:Person"),
		types.NewLiteralTriple("demo:Alice", "demo:hasAge", types.Int(17)),
		types.NewLiteralTriple("demo:Bob", "demo:hasAge", types.Int(19)),
		types.NewLiteralTriple("demo:Eve", "demo:hasAge", types.Int(18)),
	)

	out, _, err := eng.Closure(context.Background(), g)
	require.NoError(t, err)
	assert.False(t, out.Has(types.NewTriple("demo:Alice", "rdf:type", "demo:AdultPerson")))
	assert.True(t, out.Has(types.NewTriple("demo:Bob", "rdf:type", "demo:AdultPerson")))
	assert.True(t, out.Has(types.NewTriple("demo:Bob", "rdf:type", "demo:Person")))
	assert.True(t, out.Has(types.NewTriple("demo:Eve", "rdf:type", "demo:AdultPerson")))
}

func TestClosureIsDeterministicAndAFixedPoint(t *testing.T) {
	eng := newTestEngine(t)
	bg, err := ontology.LoadEmbedded()
	require.NoError(t, err)
	g := mustGraph(t, bg.Triples...)
	_, errs := g.AddAll([]types.Triple{
		types.NewTriple("demo:Maria", "rdf:type", "demo:Person"),
		types.NewTriple("demo:Maria", "demo:worksAs", "demo:Baker"),
		types.NewLiteralTriple("demo:Maria", "demo:hasAge", types.Int(25)),
		types.NewLiteralTriple("demo:Maria", "demo:isReserved", types.Bool(true)),
		types.NewLiteralTriple("travel:Trip", "travel:travelDistance", types.Float(12.5)),
	})
	require.Empty(t, errs)

	first, _, err := eng.Closure(context.Background(), g)
	require.NoError(t, err)
	second, _, err := eng.Closure(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, first.Triples(), second.Triples())

	again, stats, err := eng.Closure(context.Background(), first)
	require.NoError(t, err)
	assert.Zero(t, stats.DerivedTriples, "closure of a closed graph derives nothing")
	assert.Equal(t, first.Len(), again.Len())

	assert.True(t, first.Has(types.NewLiteralTriple("demo:Maria", "demo:isReserved", types.Bool(true))))
	assert.True(t, first.Has(types.NewLiteralTriple("travel:Trip", "travel:travelDistance", types.Float(12.5))))
	assert.True(t, first.Has(types.NewTriple("demo:Maria", "rdf:type", "demo:AdultPerson")))
}

func TestClosureHonorsCancelledContext(t *testing.T) {
	eng := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := eng.Closure(ctx, graph.New())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestThresholdRulesRendering(t *testing.T) {
	src := thresholdRules([]ontology.ThresholdAxiom{{Class: "demo:AdultPerson", Property: "demo:hasAge", Min: 18}})
	assert.Contains(t, src, `triple(X, "rdf:type", "demo:AdultPerson") :- int_literal(X, "demo:hasAge", V), V >= 18.`)
	assert.Empty(t, thresholdRules(nil))
}
