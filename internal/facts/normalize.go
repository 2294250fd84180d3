package facts

import (
	"fmt"

	"storyagent/internal/logging"
	"storyagent/internal/ontology"
	"storyagent/internal/types"
)

// Options tune the normalizer.
type Options struct {
	// TalkativeThreshold is the talksToCount at which a person is flagged
	// demo:isTalkative.
	TalkativeThreshold int64 `yaml:"talkative_threshold"`
	// ResidenceFallback assumes residence in the only city of a record when a
	// person has no livesInCityID.
	ResidenceFallback bool `yaml:"residence_fallback"`
}

// DefaultOptions returns the stock normalizer settings.
func DefaultOptions() Options {
	return Options{
		TalkativeThreshold: 3,
		ResidenceFallback:  true,
	}
}

// Warning is a recovered normalization problem. Index is the entity position
// within its category, or -1 for category-level problems.
type Warning struct {
	Category string `json:"category"`
	Index    int    `json:"index"`
	Entity   string `json:"entity,omitempty"`
	Field    string `json:"field,omitempty"`
	Message  string `json:"message"`
}

func (w Warning) String() string {
	loc := fmt.Sprintf("%s[%d]", w.Category, w.Index)
	if w.Entity != "" {
		loc += " " + w.Entity
	}
	if w.Field != "" {
		loc += "." + w.Field
	}
	return loc + ": " + w.Message
}

// Result is the normalizer output.
type Result struct {
	Triples  []types.Triple
	Warnings []Warning
}

// Normalizer converts fact records into triples. It holds no per-call state
// and is safe for concurrent use.
type Normalizer struct {
	opts Options
}

// NewNormalizer creates a normalizer.
func NewNormalizer(opts Options) *Normalizer {
	return &Normalizer{opts: opts}
}

// Normalize converts rec using the default options.
func Normalize(rec *Record) Result {
	return NewNormalizer(DefaultOptions()).Normalize(rec)
}

// Normalize converts rec into deduplicated triples. It never fails: bad
// fields are skipped and reported as warnings. Categories are processed in a
// fixed order (a city pre-pass, then people, cities, landmarks, travels,
// climates, weather) and every entity yields its type triple first.
func (n *Normalizer) Normalize(rec *Record) Result {
	if rec == nil {
		return Result{}
	}
	st := &run{
		opts: n.opts,
		seen: make(map[types.Triple]struct{}),
	}

	st.indexCities(rec.Cities)
	for i, e := range rec.People {
		st.person(i, e)
	}
	for i, e := range rec.Cities {
		st.city(i, e)
	}
	for i, e := range rec.Landmarks {
		st.landmark(i, e)
	}
	for i, e := range rec.Travels {
		st.travel(i, e)
	}
	for i, e := range rec.Climates {
		st.climate(i, e)
	}
	for i, e := range rec.Weather {
		st.weather(i, e)
	}

	logging.NormalizeDebug("normalized %d people, %d cities, %d landmarks, %d travels, %d climates, %d weather records into %d triples (%d warnings)",
		len(rec.People), len(rec.Cities), len(rec.Landmarks), len(rec.Travels), len(rec.Climates), len(rec.Weather),
		len(st.triples), len(st.warnings))
	return Result{Triples: st.triples, Warnings: st.warnings}
}

// run carries the state of a single Normalize call.
type run struct {
	opts Options

	cityIDs      []types.Identifier
	carDependent map[types.Identifier]bool

	triples  []types.Triple
	seen     map[types.Triple]struct{}
	warnings []Warning
}

// cursor identifies the entity being normalized, for warnings.
type cursor struct {
	category string
	index    int
	id       types.Identifier
}

func (r *run) emit(t types.Triple) {
	if _, dup := r.seen[t]; dup {
		return
	}
	r.seen[t] = struct{}{}
	r.triples = append(r.triples, t)
}

func (r *run) warn(c cursor, field, format string, args ...interface{}) {
	w := Warning{Category: c.category, Index: c.index, Entity: string(c.id), Field: field,
		Message: fmt.Sprintf(format, args...)}
	logging.NormalizeWarn("%s", w)
	r.warnings = append(r.warnings, w)
}

// subject canonicalizes the entity's id; entities without one are skipped.
func (r *run) subject(category string, index int, e Entity, prefix types.Prefix) (cursor, bool) {
	c := cursor{category: category, index: index}
	raw, ok := e.present("id")
	if !ok {
		r.warn(c, "id", "missing id, entity skipped")
		return c, false
	}
	id, ok := ontology.CanonicalizeValue(raw, prefix)
	if !ok {
		r.warn(c, "id", "unresolvable id %v, entity skipped", raw)
		return c, false
	}
	c.id = id
	return c, true
}

// ref canonicalizes an identifier-valued field.
func (r *run) ref(c cursor, e Entity, field string, prefix types.Prefix) (types.Identifier, bool) {
	raw, ok := e.present(field)
	if !ok {
		return "", false
	}
	id, ok := ontology.CanonicalizeValue(raw, prefix)
	if !ok {
		r.warn(c, field, "unresolvable value %v", raw)
	}
	return id, ok
}

// relate emits (subject, predicate, ref) when the field resolves.
func (r *run) relate(c cursor, e Entity, field string, pred types.Identifier, prefix types.Prefix) {
	if id, ok := r.ref(c, e, field, prefix); ok {
		r.emit(types.NewTriple(c.id, pred, id))
	}
}

// relateEach emits one triple per resolvable list entry.
func (r *run) relateEach(c cursor, e Entity, field string, pred types.Identifier, prefix types.Prefix) {
	for _, item := range e.list(field) {
		id, ok := ontology.CanonicalizeValue(item, prefix)
		if !ok {
			r.warn(c, field, "unresolvable list entry %v", item)
			continue
		}
		r.emit(types.NewTriple(c.id, pred, id))
	}
}

func (r *run) intField(c cursor, e Entity, field string) (int64, bool) {
	raw, ok := e.present(field)
	if !ok {
		return 0, false
	}
	if _, isBool := raw.(bool); isBool {
		r.warn(c, field, "expected an integer, got a boolean")
		return 0, false
	}
	v, err := toInt(raw)
	if err != nil {
		r.warn(c, field, "%v", err)
		return 0, false
	}
	return v, true
}

func (r *run) floatField(c cursor, e Entity, field string, pred types.Identifier) {
	raw, ok := e.present(field)
	if !ok {
		return
	}
	if _, isBool := raw.(bool); isBool {
		r.warn(c, field, "expected a number, got a boolean")
		return
	}
	v, err := toFloat(raw)
	if err != nil {
		r.warn(c, field, "%v", err)
		return
	}
	r.emit(types.NewLiteralTriple(c.id, pred, types.Float(v)))
}

// indexCities collects the record's city identifiers and the cities typed as
// car-dependent before any person is processed.
func (r *run) indexCities(cities []Entity) {
	r.carDependent = make(map[types.Identifier]bool)
	seen := make(map[types.Identifier]bool)
	for _, e := range cities {
		raw, _ := e.present("id")
		id, ok := ontology.CanonicalizeValue(raw, types.PrefixCity)
		if !ok {
			continue
		}
		if !seen[id] {
			seen[id] = true
			r.cityIDs = append(r.cityIDs, id)
		}
		if raw, ok := e.present("type"); ok {
			if typ, ok := ontology.CanonicalizeValue(raw, types.PrefixCity); ok && typ == ontology.DrivableCity {
				r.carDependent[id] = true
			}
		}
	}
}

func (r *run) person(i int, e Entity) {
	c, ok := r.subject(CategoryPeople, i, e, types.PrefixDemo)
	if !ok {
		return
	}
	r.emit(types.NewTriple(c.id, ontology.RDFType, ontology.Person))

	home, hasHome := r.ref(c, e, "livesInCityID", types.PrefixCity)
	if !hasHome && r.opts.ResidenceFallback && len(r.cityIDs) == 1 {
		home, hasHome = r.cityIDs[0], true
		logging.NormalizeDebug("%s: assuming residence in %s, the only city of the record", c.id, home)
	}
	if hasHome {
		r.emit(types.NewTriple(c.id, ontology.LivesIn, home))
	}

	if age, ok := r.intField(c, e, "age"); ok {
		r.emit(types.NewLiteralTriple(c.id, ontology.HasAge, types.Int(age)))
	}
	r.relate(c, e, "isMarriedTo", ontology.IsMarriedTo, types.PrefixDemo)
	r.relate(c, e, "isAllergicTo", ontology.IsAllergicTo, types.PrefixIngredient)
	r.relate(c, e, "worksAs", ontology.WorksAs, types.PrefixDemo)

	if raw, ok := e.present("isReserved"); ok {
		if v, err := toBool(raw); err != nil {
			r.warn(c, "isReserved", "%v", err)
		} else {
			r.emit(types.NewLiteralTriple(c.id, ontology.IsReserved, types.Bool(v)))
		}
	}

	r.relateEach(c, e, "eats", ontology.Eats, types.PrefixIngredient)
	r.relateEach(c, e, "usesTool", ontology.UsesTool, types.PrefixDemo)

	carDependent := hasHome && r.carDependent[home]
	for _, item := range e.list("hasCondition") {
		name, isText := item.(string)
		if !isText {
			r.warn(c, "hasCondition", "unresolvable list entry %v", item)
			continue
		}
		cls, ok := ClassifyCondition(name, carDependent)
		if !ok {
			r.warn(c, "hasCondition", "unresolvable condition %q", name)
			continue
		}
		r.emit(types.NewTriple(c.id, ontology.HasCondition, cls.ID))
	}

	if count, ok := r.intField(c, e, "talksToCount"); ok && count >= r.opts.TalkativeThreshold {
		r.emit(types.NewLiteralTriple(c.id, ontology.IsTalkative, types.Bool(true)))
	}
}

func (r *run) city(i int, e Entity) {
	c, ok := r.subject(CategoryCities, i, e, types.PrefixCity)
	if !ok {
		return
	}
	r.emit(types.NewTriple(c.id, ontology.RDFType, ontology.City))
	r.relate(c, e, "type", ontology.RDFType, types.PrefixCity)
	r.relate(c, e, "terrain", ontology.HasTerrain, types.PrefixCity)

	// Zero is how the extractor says "unknown".
	if pop, ok := r.intField(c, e, "population"); ok && pop != 0 {
		r.emit(types.NewLiteralTriple(c.id, ontology.HasPopulation, types.Int(pop)))
	}
	r.relateEach(c, e, "isAdjacentTo", ontology.AdjacentTo, types.PrefixCity)
	r.relate(c, e, "climateZone", ontology.HasClimateZone, types.PrefixTravel)
}

func (r *run) landmark(i int, e Entity) {
	c, ok := r.subject(CategoryLandmarks, i, e, types.PrefixCity)
	if !ok {
		return
	}
	typ := ontology.Landmark
	if id, ok := r.ref(c, e, "type", types.PrefixCity); ok {
		typ = id
	}
	r.emit(types.NewTriple(c.id, ontology.RDFType, typ))
	r.relateEach(c, e, "locatedIn", ontology.LocatedIn, types.PrefixCity)
}

func (r *run) travel(i int, e Entity) {
	c, ok := r.subject(CategoryTravels, i, e, types.PrefixTravel)
	if !ok {
		return
	}
	r.emit(types.NewTriple(c.id, ontology.RDFType, ontology.TravelEvent))
	r.relate(c, e, "mode", ontology.HasTravelMode, types.PrefixTravel)
	r.floatField(c, e, "distance", ontology.TravelDistance)
	r.floatField(c, e, "duration", ontology.TravelDurationHours)
	r.floatField(c, e, "cost", ontology.TravelCost)
}

func (r *run) climate(i int, e Entity) {
	c, ok := r.subject(CategoryClimates, i, e, types.PrefixTravel)
	if !ok {
		return
	}
	r.emit(types.NewTriple(c.id, ontology.RDFType, ontology.Climate))

	zone, hasZone := r.ref(c, e, "climateZone", types.PrefixTravel)
	if hasZone {
		r.emit(types.NewTriple(c.id, ontology.HasClimateZone, zone))
	}

	if raw, ok := e.present("allowsForFood"); ok {
		if allows, err := toBool(raw); err == nil {
			if allows {
				r.emit(types.NewTriple(c.id, ontology.AllowsForFood, ontology.GenericFood))
			}
		} else if food, ok := ontology.CanonicalizeValue(raw, types.PrefixIngredient); ok {
			r.emit(types.NewTriple(c.id, ontology.AllowsForFood, food))
		} else {
			r.warn(c, "allowsForFood", "%v", err)
		}
	}

	// Cities share the climate's zone only through an explicit list.
	for _, item := range e.list("cities") {
		city, ok := ontology.CanonicalizeValue(item, types.PrefixCity)
		if !ok {
			r.warn(c, "cities", "unresolvable list entry %v", item)
			continue
		}
		if hasZone {
			r.emit(types.NewTriple(city, ontology.HasClimateZone, zone))
		}
	}
}

func (r *run) weather(i int, e Entity) {
	c, ok := r.subject(CategoryWeather, i, e, types.PrefixTravel)
	if !ok {
		return
	}
	r.emit(types.NewTriple(c.id, ontology.RDFType, ontology.WeatherRecord))
	r.relate(c, e, "weatherState", ontology.WeatherHasState, types.PrefixTravel)
	r.floatField(c, e, "temperature", ontology.Temperature)
}
