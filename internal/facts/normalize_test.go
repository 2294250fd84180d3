package facts

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyagent/internal/types"
)

func parse(t *testing.T, payload string) *Record {
	t.Helper()
	rec, warnings, err := ParseJSON([]byte(payload))
	require.NoError(t, err)
	require.Empty(t, warnings)
	return rec
}

func TestNormalizeUnderageMarriageRecord(t *testing.T) {
	rec := parse(t, `{"data": {
		"people": [
			{"id": "Alice", "age": 17, "isMarriedTo": "Bob"},
			{"id": "Bob", "age": 19, "isMarriedTo": "Alice"}
		]
	}}`)

	got := Normalize(rec)
	want := []types.Triple{
		types.NewTriple("demo:Alice", "rdf:type", "demo:Person"),
		types.NewLiteralTriple("demo:Alice", "demo:hasAge", types.Int(17)),
		types.NewTriple("demo:Alice", "demo:isMarriedTo", "demo:Bob"),
		types.NewTriple("demo:Bob", "rdf:type", "demo:Person"),
		types.NewLiteralTriple("demo:Bob", "demo:hasAge", types.Int(19)),
		types.NewTriple("demo:Bob", "demo:isMarriedTo", "demo:Alice"),
	}
	if diff := cmp.Diff(want, got.Triples); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, got.Warnings)
}

func TestNormalizeCategoryOrder(t *testing.T) {
	rec := parse(t, `{"data": {
		"weather": [{"id": "W1", "weatherState": "Snow", "temperature": "21"}],
		"travels": [{"id": "Trip", "mode": "Walking", "distance": 400, "duration": 2, "cost": 5}],
		"landmarks": [{"id": "Empire State Building", "locatedIn": ["New York", "Los Angeles"]}],
		"cities": [{"id": "Utrecht", "isAdjacentTo": ["Amsterdam"], "population": 0}],
		"climates": [{"id": "SaharaClimate", "climateZone": "Desert", "allowsForFood": true}]
	}}`)

	got := Normalize(rec).Triples
	want := []types.Triple{
		types.NewTriple("city:Utrecht", "rdf:type", "city:City"),
		types.NewTriple("city:Utrecht", "city:adjacentTo", "city:Amsterdam"),
		types.NewTriple("city:EmpireStateBuilding", "rdf:type", "city:Landmark"),
		types.NewTriple("city:EmpireStateBuilding", "city:locatedIn", "city:NewYorkCity"),
		types.NewTriple("city:EmpireStateBuilding", "city:locatedIn", "city:LosAngeles"),
		types.NewTriple("travel:Trip", "rdf:type", "travel:TravelEvent"),
		types.NewTriple("travel:Trip", "travel:hasTravelMode", "travel:Walking"),
		types.NewLiteralTriple("travel:Trip", "travel:travelDistance", types.Float(400)),
		types.NewLiteralTriple("travel:Trip", "travel:travelDurationHours", types.Float(2)),
		types.NewLiteralTriple("travel:Trip", "travel:travelCost", types.Float(5)),
		types.NewTriple("travel:SaharaClimate", "rdf:type", "travel:Climate"),
		types.NewTriple("travel:SaharaClimate", "travel:hasClimateZone", "travel:Desert"),
		types.NewTriple("travel:SaharaClimate", "travel:allowsForFood", "ia2025:GenericFood"),
		types.NewTriple("travel:W1", "rdf:type", "travel:WeatherRecord"),
		types.NewTriple("travel:W1", "travel:weatherHasState", "travel:Snow"),
		types.NewLiteralTriple("travel:W1", "travel:temperature", types.Float(21)),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeMissingEqualsNull(t *testing.T) {
	missing := parse(t, `{"data": {"people": [{"id": "Luca", "isReserved": true}],
		"cities": [{"id": "Riverton", "type": "LargeCity"}]}}`)
	null := parse(t, `{"data": {"people": [{"id": "Luca", "isReserved": true, "age": null, "eats": null,
		"hasCondition": null, "talksToCount": null, "livesInCityID": null, "worksAs": null}],
		"cities": [{"id": "Riverton", "type": "LargeCity", "population": null, "terrain": null,
		"isAdjacentTo": null, "climateZone": null}]}}`)

	a, b := Normalize(missing), Normalize(null)
	if diff := cmp.Diff(a.Triples, b.Triples); diff != "" {
		t.Errorf("null fields leaked into output (-missing +null):\n%s", diff)
	}
	assert.Empty(t, b.Warnings)
}

func TestNormalizeCoercionFailuresWarn(t *testing.T) {
	rec := parse(t, `{"data": {"people": [{"id": "Tina", "age": "seventeen", "talksToCount": true, "worksAs": "Baker"}],
		"travels": [{"id": "T", "distance": "far", "duration": "1.5"}]}}`)

	res := Normalize(rec)
	want := []types.Triple{
		types.NewTriple("demo:Tina", "rdf:type", "demo:Person"),
		types.NewTriple("demo:Tina", "demo:worksAs", "demo:Baker"),
		types.NewTriple("travel:T", "rdf:type", "travel:TravelEvent"),
		types.NewLiteralTriple("travel:T", "travel:travelDurationHours", types.Float(1.5)),
	}
	if diff := cmp.Diff(want, res.Triples); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, res.Warnings, 3)
	assert.Equal(t, "age", res.Warnings[0].Field)
	assert.Equal(t, "talksToCount", res.Warnings[1].Field)
	assert.Equal(t, "distance", res.Warnings[2].Field)
	assert.Equal(t, "demo:Tina", res.Warnings[0].Entity)
}

func TestNormalizeScalarListFieldsAreAbsent(t *testing.T) {
	rec := parse(t, `{"data": {
		"people": [{"id": "Marco", "eats": "Bread", "hasCondition": "Anemia", "usesTool": "Oven"}],
		"cities": [{"id": "Utrecht", "isAdjacentTo": "Amsterdam"}],
		"landmarks": [{"id": "Tower", "locatedIn": "Paris"}]
	}}`)

	res := Normalize(rec)
	want := []types.Triple{
		types.NewTriple("demo:Marco", "rdf:type", "demo:Person"),
		types.NewTriple("demo:Marco", "demo:livesIn", "city:Utrecht"),
		types.NewTriple("city:Utrecht", "rdf:type", "city:City"),
		types.NewTriple("city:Tower", "rdf:type", "city:Landmark"),
	}
	if diff := cmp.Diff(want, res.Triples); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeTalkativeThreshold(t *testing.T) {
	for _, tc := range []struct {
		count string
		want  bool
	}{{"2", false}, {"3", true}, {"6", true}, {"0", false}} {
		rec := parse(t, `{"data": {"people": [{"id": "Luca", "talksToCount": `+tc.count+`}]}}`)
		got := false
		for _, tr := range Normalize(rec).Triples {
			if tr == types.NewLiteralTriple("demo:Luca", "demo:isTalkative", types.Bool(true)) {
				got = true
			}
		}
		assert.Equal(t, tc.want, got, "talksToCount=%s", tc.count)
	}

	strict := NewNormalizer(Options{TalkativeThreshold: 10})
	rec := parse(t, `{"data": {"people": [{"id": "Luca", "talksToCount": 6}]}}`)
	assert.Len(t, strict.Normalize(rec).Triples, 1)
}

func TestNormalizeResidence(t *testing.T) {
	t.Run("explicit", func(t *testing.T) {
		rec := parse(t, `{"data": {"people": [{"id": "Tom", "livesInCityID": "Beijing"}],
			"cities": [{"id": "Utrecht"}, {"id": "Amsterdam"}]}}`)
		assert.Contains(t, Normalize(rec).Triples, types.NewTriple("demo:Tom", "demo:livesIn", "city:Beijing"))
	})
	t.Run("only city fallback", func(t *testing.T) {
		rec := parse(t, `{"data": {"people": [{"id": "Tom"}], "cities": [{"id": "Beijing"}]}}`)
		assert.Contains(t, Normalize(rec).Triples, types.NewTriple("demo:Tom", "demo:livesIn", "city:Beijing"))
	})
	t.Run("ambiguous", func(t *testing.T) {
		rec := parse(t, `{"data": {"people": [{"id": "Tom"}], "cities": [{"id": "Beijing"}, {"id": "Paris"}]}}`)
		for _, tr := range Normalize(rec).Triples {
			assert.NotEqual(t, types.Identifier("demo:livesIn"), tr.Predicate)
		}
	})
	t.Run("fallback disabled", func(t *testing.T) {
		rec := parse(t, `{"data": {"people": [{"id": "Tom"}], "cities": [{"id": "Beijing"}]}}`)
		n := NewNormalizer(Options{TalkativeThreshold: 3})
		for _, tr := range n.Normalize(rec).Triples {
			assert.NotEqual(t, types.Identifier("demo:livesIn"), tr.Predicate)
		}
	})
}

func TestNormalizeConditionsDependOnResidence(t *testing.T) {
	rec := parse(t, `{"data": {
		"people": [
			{"id": "Tom", "livesInCityID": "Beijing", "hasCondition": ["Obesity", "demo:Anemia"]},
			{"id": "Ann", "livesInCityID": "Utrecht", "hasCondition": ["Obesity", "cancer"]}
		],
		"cities": [{"id": "Beijing", "type": "DrivableCity"}, {"id": "Utrecht", "type": "WalkableCity"}]
	}}`)

	got := Normalize(rec).Triples
	assert.Contains(t, got, types.NewTriple("demo:Tom", "demo:hasCondition", "city:ObesityIncrease"))
	assert.Contains(t, got, types.NewTriple("demo:Tom", "demo:hasCondition", "base:Anemia"))
	assert.Contains(t, got, types.NewTriple("demo:Ann", "demo:hasCondition", "demo:Obesity"))
	assert.Contains(t, got, types.NewTriple("demo:Ann", "demo:hasCondition", "base:Cancer"))
}

func TestNormalizeClimateCitiesNeedExplicitLink(t *testing.T) {
	rec := parse(t, `{"data": {
		"cities": [{"id": "Dubai"}, {"id": "Abu Dhabi", "climateZone": "Desert"}],
		"climates": [{"id": "Gulf", "climateZone": "Desert", "cities": ["Dubai"]}, {"id": "Other", "cities": ["Riyadh"]}]
	}}`)

	got := Normalize(rec).Triples
	assert.Contains(t, got, types.NewTriple("city:Dubai", "travel:hasClimateZone", "travel:Desert"))
	assert.Contains(t, got, types.NewTriple("city:Abu_Dhabi", "travel:hasClimateZone", "travel:Desert"))
	for _, tr := range got {
		assert.NotEqual(t, types.Identifier("city:Riyadh"), tr.Subject)
	}
}

func TestNormalizeDropsUnresolvableButKeepsEntity(t *testing.T) {
	rec := parse(t, `{"data": {"people": [
		{"id": "?!"},
		{"id": "Maria", "isAllergicTo": 12, "eats": ["Bread", 7, "Pizza"]}
	]}}`)

	res := Normalize(rec)
	want := []types.Triple{
		types.NewTriple("demo:Maria", "rdf:type", "demo:Person"),
		types.NewTriple("demo:Maria", "demo:eats", "ia2025:Bread"),
		types.NewTriple("demo:Maria", "demo:eats", "ia2025:Pizza"),
	}
	if diff := cmp.Diff(want, res.Triples); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, res.Warnings, 3)
}

func TestNormalizeDeduplicates(t *testing.T) {
	rec := parse(t, `{"data": {"people": [{"id": "Alice", "eats": ["Bread", " Bread ", "Bread"]}, {"id": "Alice"}]}}`)
	res := Normalize(rec)
	assert.Equal(t, []types.Triple{
		types.NewTriple("demo:Alice", "rdf:type", "demo:Person"),
		types.NewTriple("demo:Alice", "demo:eats", "ia2025:Bread"),
	}, res.Triples)
}

func TestNormalizeNilRecord(t *testing.T) {
	assert.Empty(t, Normalize(nil).Triples)
}
