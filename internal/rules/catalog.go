package rules

import (
	"storyagent/internal/ontology"
	"storyagent/internal/types"
)

// Rule names, in catalog order.
const (
	RuleAllergy              = "allergy_violation"
	RuleDrivableCityObesity  = "drivable_city_obesity_missing"
	RuleUnderageMarriage     = "underage_marriage"
	RuleConflictingTraits    = "conflicting_traits"
	RuleOccupationMissing    = "occupation_missing_tool"
	RuleDisjointConditions   = "disjoint_health_conditions"
	RuleWalkableMountainCity = "walkable_mountain_city"
	RuleLandmarkCities       = "landmark_multiple_cities"
	RuleTransitNoCity        = "transit_system_no_city"
	RuleCitySizePopulation   = "city_size_population_mismatch"
	RuleAdjacentCompletion   = "adjacent_to_completion"
	RuleDesertClimateFood    = "desert_climate_food"
	RuleSnowAboveZero        = "snow_above_zero"
	RuleWalkingDistance      = "walking_distance_violation"
	RuleWalkingSpeed         = "walking_speed_violation"
	RuleWalkingCost          = "walking_cost_violation"
	RuleCyclingDistance      = "cycling_distance_violation"
	RuleCyclingSpeed         = "cycling_speed_violation"
	RuleCyclingCost          = "cycling_cost_violation"
)

// CatalogVersion identifies the rule set in reports.
const CatalogVersion = "2025.10"

// Catalog returns the consistency rules parameterized by t.
func Catalog(t Thresholds) []Rule {
	rules := []Rule{
		{
			Name:        RuleAllergy,
			Description: "person eats a food that contains, directly or through intermediate foods, an ingredient they are allergic to",
			Where: []Pattern{
				P(V("person"), C(ontology.IsAllergicTo), V("ingredient")),
				P(V("person"), C(ontology.Eats), V("food")),
				Path(V("ingredient"), C(ontology.IsPartOf), V("food")),
			},
			Select: []string{"person", "food", "ingredient"},
		},
		{
			Name:        RuleDrivableCityObesity,
			Description: "person lives in a car-dependent city but has no obesity-increase condition",
			Where: []Pattern{
				P(V("person"), C(ontology.LivesIn), V("city")),
				P(V("city"), C(ontology.RDFType), C(ontology.DrivableCity)),
			},
			NotExists: [][]Pattern{
				{P(V("person"), C(ontology.HasCondition), C(ontology.ObesityIncrease))},
			},
			Select: []string{"person", "city"},
		},
		{
			Name:        RuleUnderageMarriage,
			Description: "married person younger than the adult age and not classified as an adult",
			Where: []Pattern{
				P(V("person"), C(ontology.HasAge), V("age")),
			},
			Union: [][]Pattern{
				{P(V("person"), C(ontology.IsMarriedTo), V("spouse"))},
				{P(V("spouse"), C(ontology.IsMarriedTo), V("person"))},
			},
			Filters: []Filter{lessThan("age", float64(t.AdultAge))},
			NotExists: [][]Pattern{
				{P(V("person"), C(ontology.RDFType), C(ontology.AdultPerson))},
			},
			Select: []string{"person", "age"},
		},
		{
			Name:        RuleConflictingTraits,
			Description: "person is both reserved and talkative",
			Where: []Pattern{
				P(V("person"), C(ontology.IsReserved), L(types.Bool(true))),
				P(V("person"), C(ontology.IsTalkative), L(types.Bool(true))),
			},
			Select: []string{"person"},
		},
		{
			Name:        RuleOccupationMissing,
			Description: "person works in an occupation that requires a tool but is never said to use any tool",
			Where: []Pattern{
				P(V("person"), C(ontology.RDFType), C(ontology.Person)),
				P(V("person"), C(ontology.WorksAs), V("occupation")),
				P(V("occupation"), C(ontology.RequiresTool), V("tool")),
			},
			NotExists: [][]Pattern{
				{P(V("person"), C(ontology.UsesTool), V("anyTool"))},
			},
			Select: []string{"person", "occupation", "tool"},
		},
		{
			Name:        RuleDisjointConditions,
			Description: "person has two conditions declared mutually exclusive",
			Where: []Pattern{
				P(V("person"), C(ontology.HasCondition), V("condition1")),
				P(V("person"), C(ontology.HasCondition), V("condition2")),
			},
			Union: [][]Pattern{
				{P(V("condition1"), C(ontology.OWLDisjointWith), V("condition2"))},
				{P(V("condition2"), C(ontology.OWLDisjointWith), V("condition1"))},
			},
			Filters: []Filter{orderedPair("condition1", "condition2")},
			Select:  []string{"person", "condition1", "condition2"},
		},
		{
			Name:        RuleWalkableMountainCity,
			Description: "city marketed as walkable has mountainous terrain",
			Where: []Pattern{
				P(V("city"), C(ontology.RDFType), C(ontology.WalkableCity)),
			},
			Union: [][]Pattern{
				{P(V("city"), C(ontology.HasTerrain), C(ontology.Mountainous))},
				{P(V("city"), C(ontology.RDFType), C(ontology.MountainousCity))},
			},
			Select: []string{"city"},
		},
		{
			Name:        RuleLandmarkCities,
			Description: "landmark located in more than one city",
			Where: []Pattern{
				P(V("landmark"), C(ontology.LocatedIn), V("city")),
			},
			Aggregate: &Aggregate{
				GroupBy:       []string{"landmark"},
				CountDistinct: "city",
				As:            "cityCount",
				MoreThan:      1,
			},
			Select: []string{"landmark", "cityCount"},
		},
		{
			Name:        RuleTransitNoCity,
			Description: "transit system not located in any city",
			Where: []Pattern{
				P(V("system"), C(ontology.RDFType), C(ontology.TransitSystem)),
			},
			NotExists: [][]Pattern{
				{P(V("system"), C(ontology.LocatedIn), V("anyCity"))},
			},
			Select: []string{"system"},
		},
		{
			Name:        RuleCitySizePopulation,
			Description: "city size class contradicts its population",
			Where: []Pattern{
				P(V("city"), C(ontology.HasPopulation), V("population")),
				P(V("city"), C(ontology.RDFType), V("class")),
			},
			Binds:   []Bind{sizeClass("class", "sizeClass")},
			Filters: []Filter{populationMismatch(t, "sizeClass", "population")},
			Select:  []string{"city", "population", "sizeClass"},
		},
		{
			Name:        RuleAdjacentCompletion,
			Description: "adjacency stated in one direction only",
			Where: []Pattern{
				P(V("cityA"), C(ontology.AdjacentTo), V("cityB")),
			},
			NotExists: [][]Pattern{
				{P(V("cityB"), C(ontology.AdjacentTo), V("cityA"))},
			},
			Select: []string{"cityA", "cityB"},
		},
		{
			Name:        RuleDesertClimateFood,
			Description: "desert climate said to allow food cultivation",
			Where: []Pattern{
				P(V("climate"), C(ontology.RDFType), C(ontology.Climate)),
				P(V("climate"), C(ontology.HasClimateZone), C(ontology.Desert)),
				P(V("climate"), C(ontology.AllowsForFood), V("food")),
			},
			Select: []string{"climate", "food"},
		},
		{
			Name:        RuleSnowAboveZero,
			Description: "snow reported above the freezing point",
			Where: []Pattern{
				P(V("record"), C(ontology.WeatherHasState), C(ontology.Snow)),
				P(V("record"), C(ontology.Temperature), V("temperature")),
			},
			Filters: []Filter{greaterThan("temperature", t.FreezingPointC)},
			Select:  []string{"record", "temperature"},
		},
	}

	rules = append(rules, travelRules(ontology.Walking, RuleWalkingDistance, RuleWalkingSpeed, RuleWalkingCost,
		t.MaxWalkingDistanceKm, t.MaxWalkingSpeedKmh, t.FreeTravelCost)...)
	rules = append(rules, travelRules(ontology.Cycling, RuleCyclingDistance, RuleCyclingSpeed, RuleCyclingCost,
		t.MaxCyclingDistanceKm, t.MaxCyclingSpeedKmh, t.FreeTravelCost)...)
	return rules
}

// travelRules builds the distance, speed and cost checks of one travel mode.
func travelRules(mode types.Identifier, distanceName, speedName, costName string, maxDistance, maxSpeed, freeCost float64) []Rule {
	byMode := P(V("event"), C(ontology.HasTravelMode), C(mode))
	return []Rule{
		{
			Name:        distanceName,
			Description: mode.Local() + " distance above the physical limit",
			Where: []Pattern{
				byMode,
				P(V("event"), C(ontology.TravelDistance), V("distance")),
			},
			Filters: []Filter{greaterThan("distance", maxDistance)},
			Select:  []string{"event", "distance"},
		},
		{
			Name:        speedName,
			Description: mode.Local() + " average speed above the physical limit",
			Where: []Pattern{
				byMode,
				P(V("event"), C(ontology.TravelDistance), V("distance")),
				P(V("event"), C(ontology.TravelDurationHours), V("duration")),
			},
			Binds:   []Bind{quotient("speed", "distance", "duration")},
			Filters: []Filter{greaterThan("speed", maxSpeed)},
			Select:  []string{"event", "distance", "duration", "speed"},
		},
		{
			Name:        costName,
			Description: mode.Local() + " trip with a non-zero cost",
			Where: []Pattern{
				byMode,
				P(V("event"), C(ontology.TravelCost), V("cost")),
			},
			Filters: []Filter{greaterThan("cost", freeCost)},
			Select:  []string{"event", "cost"},
		},
	}
}
