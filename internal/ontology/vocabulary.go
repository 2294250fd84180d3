// Package ontology holds the fixed vocabulary of the story domain, the identifier
// canonicalizer and the loader for the static background ontology.
package ontology

import (
	"strings"

	"storyagent/internal/types"
)

// Namespaces maps each prefix to the IRI it abbreviates.
var Namespaces = map[types.Prefix]string{
	types.PrefixDemo:       "http://www.semanticweb.org/alexandrosxanthopoulos/ontologies/2025/9/ProjectDemo#",
	types.PrefixIngredient: "http://example.org/ia2025#",
	types.PrefixCity:       "http://www.semanticweb.org/gwiazdk01/ontologies/2025/8/untitled-ontology-4#",
	types.PrefixTravel:     "http://www.semanticweb.org/rubyorsmth/ontologies/2025/9/untitled-ontology-5#",
	types.PrefixBase:       "http://www.semanticweb.org/user/ontologies/2025/9/untitled-ontology-24#",
	types.PrefixRDF:        "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
	types.PrefixRDFS:       "http://www.w3.org/2000/01/rdf-schema#",
	types.PrefixOWL:        "http://www.w3.org/2002/07/owl#",
	types.PrefixXSD:        "http://www.w3.org/2001/XMLSchema#",
}

// ExpandIRI returns the full IRI of a prefixed identifier.
func ExpandIRI(id types.Identifier) string {
	ns, ok := Namespaces[id.Prefix()]
	if !ok {
		return string(id)
	}
	return ns + id.Local()
}

// CompactIRI is the inverse of ExpandIRI.
func CompactIRI(iri string) (types.Identifier, bool) {
	for _, p := range types.Prefixes {
		ns := Namespaces[p]
		if strings.HasPrefix(iri, ns) && len(iri) > len(ns) {
			return types.NewIdentifier(p, iri[len(ns):]), true
		}
	}
	return "", false
}

// RDF, RDFS and OWL terms used by the closure and the rules.
const (
	RDFType           types.Identifier = "rdf:type"
	RDFSSubClassOf    types.Identifier = "rdfs:subClassOf"
	RDFSSubPropertyOf types.Identifier = "rdfs:subPropertyOf"
	RDFSDomain        types.Identifier = "rdfs:domain"
	RDFSRange         types.Identifier = "rdfs:range"
	RDFSLabel         types.Identifier = "rdfs:label"
	OWLClass          types.Identifier = "owl:Class"
	OWLObjectProperty types.Identifier = "owl:ObjectProperty"
	OWLDataProperty   types.Identifier = "owl:DatatypeProperty"
	OWLDisjointWith   types.Identifier = "owl:disjointWith"
)

// People.
const (
	Person          types.Identifier = "demo:Person"
	AdultPerson     types.Identifier = "demo:AdultPerson"
	Occupation      types.Identifier = "demo:Occupation"
	HealthCondition types.Identifier = "demo:HealthCondition"

	LivesIn      types.Identifier = "demo:livesIn"
	HasAge       types.Identifier = "demo:hasAge"
	IsMarriedTo  types.Identifier = "demo:isMarriedTo"
	IsAllergicTo types.Identifier = "demo:isAllergicTo"
	Eats         types.Identifier = "demo:eats"
	WorksAs      types.Identifier = "demo:worksAs"
	UsesTool     types.Identifier = "demo:usesTool"
	RequiresTool types.Identifier = "demo:requiresTool"
	IsReserved   types.Identifier = "demo:isReserved"
	IsTalkative  types.Identifier = "demo:isTalkative"
	HasCondition types.Identifier = "demo:hasCondition"
)

// Cities and landmarks.
const (
	City            types.Identifier = "city:City"
	DrivableCity    types.Identifier = "city:DrivableCity"
	WalkableCity    types.Identifier = "city:WalkableCity"
	MountainousCity types.Identifier = "city:MountainousCity"
	SmallCity       types.Identifier = "city:SmallCity"
	MediumCity      types.Identifier = "city:MediumCity"
	LargeCity       types.Identifier = "city:LargeCity"
	Landmark        types.Identifier = "city:Landmark"
	TransitSystem   types.Identifier = "city:TransitSystem"
	SubwaySystem    types.Identifier = "city:SubwaySystem"
	Mountainous     types.Identifier = "city:Mountainous"
	ObesityIncrease types.Identifier = "city:ObesityIncrease"

	HasTerrain    types.Identifier = "city:hasTerrain"
	HasPopulation types.Identifier = "city:hasPopulation"
	AdjacentTo    types.Identifier = "city:adjacentTo"
	LocatedIn     types.Identifier = "city:locatedIn"
)

// Food.
const (
	IsPartOf    types.Identifier = "ia2025:isPartOf"
	GenericFood types.Identifier = "ia2025:GenericFood"
)

// Travel, climate and weather.
const (
	TravelEvent   types.Identifier = "travel:TravelEvent"
	Climate       types.Identifier = "travel:Climate"
	WeatherRecord types.Identifier = "travel:WeatherRecord"
	Walking       types.Identifier = "travel:Walking"
	Cycling       types.Identifier = "travel:Cycling"
	Desert        types.Identifier = "travel:Desert"
	Snow          types.Identifier = "travel:Snow"

	HasTravelMode       types.Identifier = "travel:hasTravelMode"
	TravelDistance      types.Identifier = "travel:travelDistance"
	TravelDurationHours types.Identifier = "travel:travelDurationHours"
	TravelCost          types.Identifier = "travel:travelCost"
	HasClimateZone      types.Identifier = "travel:hasClimateZone"
	AllowsForFood       types.Identifier = "travel:allowsForFood"
	WeatherHasState     types.Identifier = "travel:weatherHasState"
	Temperature         types.Identifier = "travel:temperature"
)

// DataProperties are the predicates whose object is always a literal.
var DataProperties = map[types.Identifier]types.TermKind{
	HasAge:              types.KindInteger,
	HasPopulation:       types.KindInteger,
	IsReserved:          types.KindBool,
	IsTalkative:         types.KindBool,
	TravelDistance:      types.KindFloat,
	TravelDurationHours: types.KindFloat,
	TravelCost:          types.KindFloat,
	Temperature:         types.KindFloat,
}

// IsDataProperty reports whether p carries literal objects.
func IsDataProperty(p types.Identifier) bool {
	_, ok := DataProperties[p]
	return ok
}
