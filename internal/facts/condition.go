package facts

import (
	"strings"

	"storyagent/internal/ontology"
	"storyagent/internal/types"
)

// ConditionClass is the outcome of classifying a health-condition entry.
type ConditionClass int

const (
	// ConditionGeneric is the default: the name is canonicalized under demo.
	ConditionGeneric ConditionClass = iota
	// ConditionUrbanHealthImpact is an obesity-type condition of someone living
	// in a car-dependent city. It maps to city:ObesityIncrease.
	ConditionUrbanHealthImpact
	// ConditionBase is one of the conditions modeled in the base namespace,
	// where the disjointness axioms are declared.
	ConditionBase
)

func (c ConditionClass) String() string {
	switch c {
	case ConditionUrbanHealthImpact:
		return "urban_health_impact"
	case ConditionBase:
		return "base"
	default:
		return "generic"
	}
}

// baseConditions is keyed by lowercased local name.
var baseConditions = map[string]types.Identifier{
	"anemia": "base:Anemia",
	"cancer": "base:Cancer",
}

// Classification is a classified condition.
type Classification struct {
	Class ConditionClass
	ID    types.Identifier
}

// ClassifyCondition maps a condition entry to its identifier. The cases are
// tried in order:
//
//  1. an obesity-related name of a person living in a car-dependent city
//     becomes city:ObesityIncrease;
//  2. Anemia and Cancer (any case) go to the base namespace;
//  3. anything else is canonicalized under demo.
//
// Any prefix on raw is ignored. The result is false when the name does not
// canonicalize.
func ClassifyCondition(raw string, livesInCarDependentCity bool) (Classification, bool) {
	name := raw
	if i := strings.LastIndex(name, ":"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Classification{}, false
	}

	key := strings.ToLower(name)
	if livesInCarDependentCity && strings.Contains(key, "obesity") {
		return Classification{Class: ConditionUrbanHealthImpact, ID: ontology.ObesityIncrease}, true
	}
	if id, ok := baseConditions[key]; ok {
		return Classification{Class: ConditionBase, ID: id}, true
	}
	id, ok := ontology.Canonicalize(name, types.PrefixDemo)
	if !ok {
		return Classification{}, false
	}
	return Classification{Class: ConditionGeneric, ID: id}, true
}
