// Package facts turns loosely typed extraction records into canonical triples.
package facts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMissingData is returned when a payload has no usable "data" root object.
var ErrMissingData = errors.New(`extraction payload has no "data" object`)

// Category names of a fact record, in the order the extraction prompt lists them.
const (
	CategoryPeople    = "people"
	CategoryCities    = "cities"
	CategoryLandmarks = "landmarks"
	CategoryTravels   = "travels"
	CategoryClimates  = "climates"
	CategoryWeather   = "weather"
)

// Categories lists every record category.
var Categories = []string{
	CategoryPeople, CategoryCities, CategoryLandmarks,
	CategoryTravels, CategoryClimates, CategoryWeather,
}

// Entity is one attribute mapping of a record. Values are whatever the JSON
// decoder produced: strings, json.Number, bools, lists, maps or nil.
type Entity map[string]any

// Record is the normalizer input: entity lists per category.
type Record struct {
	People    []Entity `json:"people,omitempty"`
	Cities    []Entity `json:"cities,omitempty"`
	Landmarks []Entity `json:"landmarks,omitempty"`
	Travels   []Entity `json:"travels,omitempty"`
	Climates  []Entity `json:"climates,omitempty"`
	Weather   []Entity `json:"weather,omitempty"`
}

// Empty reports whether the record holds no entities at all.
func (r *Record) Empty() bool {
	return r == nil || len(r.People)+len(r.Cities)+len(r.Landmarks)+
		len(r.Travels)+len(r.Climates)+len(r.Weather) == 0
}

// Envelope is the wire shape produced by the extraction collaborator.
type Envelope struct {
	Data *Record `json:"data"`
}

// ParseJSON decodes an extraction payload of the form {"data": {...}}.
func ParseJSON(data []byte) (*Record, []Warning, error) {
	return Parse(bytes.NewReader(data))
}

// Parse decodes an extraction payload from r. Numbers are kept as json.Number
// so integer fields are not forced through float64. Categories that are not
// lists and entries that are not objects are skipped with a warning.
func Parse(r io.Reader) (*Record, []Warning, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var root map[string]any
	if err := dec.Decode(&root); err != nil {
		return nil, nil, fmt.Errorf("failed to decode extraction payload: %w", err)
	}
	data, ok := root["data"].(map[string]any)
	if !ok {
		return nil, nil, ErrMissingData
	}
	rec, warnings := FromMap(data)
	return rec, warnings, nil
}

// FromMap builds a record from an already decoded "data" object.
func FromMap(data map[string]any) (*Record, []Warning) {
	var warnings []Warning
	entities := func(category string) []Entity {
		raw, present := data[category]
		if !present || raw == nil {
			return nil
		}
		list, ok := raw.([]any)
		if !ok {
			warnings = append(warnings, Warning{Category: category, Index: -1,
				Message: fmt.Sprintf("expected a list, got %T", raw)})
			return nil
		}
		out := make([]Entity, 0, len(list))
		for i, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				warnings = append(warnings, Warning{Category: category, Index: i,
					Message: fmt.Sprintf("expected an object, got %T", item)})
				continue
			}
			out = append(out, Entity(m))
		}
		return out
	}

	rec := &Record{
		People:    entities(CategoryPeople),
		Cities:    entities(CategoryCities),
		Landmarks: entities(CategoryLandmarks),
		Travels:   entities(CategoryTravels),
		Climates:  entities(CategoryClimates),
		Weather:   entities(CategoryWeather),
	}
	return rec, warnings
}

// MarshalEnvelope renders rec in the extraction wire format.
func MarshalEnvelope(rec *Record) ([]byte, error) {
	return json.MarshalIndent(Envelope{Data: rec}, "", "  ")
}
