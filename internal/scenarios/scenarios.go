// Package scenarios ships the demo stories together with canned extraction
// payloads, so the pipeline can be exercised without a model.
package scenarios

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"storyagent/internal/facts"
)

//go:embed scenarios.yaml
var embedded []byte

// ErrUnknownScenario is returned by Get for names not in the catalog.
var ErrUnknownScenario = errors.New("unknown scenario")

// ErrNoFacts is returned by Facts for run-only scenarios.
var ErrNoFacts = errors.New("scenario has no canned facts")

// Scenario is one demo story.
type Scenario struct {
	Name  string `yaml:"name"`
	Title string `yaml:"title"`
	Story string `yaml:"story"`
	// FactsJSON is the extraction payload, {"data": {...}}, if any.
	FactsJSON string `yaml:"facts"`
	// Expect names the rules the canned facts trigger.
	Expect []string `yaml:"expect"`
}

// HasFacts reports whether the scenario carries a canned payload.
func (s Scenario) HasFacts() bool {
	return strings.TrimSpace(s.FactsJSON) != ""
}

// Facts decodes the canned payload.
func (s Scenario) Facts() (*facts.Record, []facts.Warning, error) {
	if !s.HasFacts() {
		return nil, nil, fmt.Errorf("%s: %w", s.Name, ErrNoFacts)
	}
	rec, warnings, err := facts.ParseJSON([]byte(s.FactsJSON))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", s.Name, err)
	}
	return rec, warnings, nil
}

type catalog struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

var (
	loadOnce sync.Once
	loaded   []Scenario
	byName   map[string]int
	loadErr  error
)

func load() {
	dec := yaml.NewDecoder(bytes.NewReader(embedded))
	dec.KnownFields(true)
	var c catalog
	if err := dec.Decode(&c); err != nil {
		loadErr = fmt.Errorf("failed to parse scenarios: %w", err)
		return
	}
	byName = make(map[string]int, len(c.Scenarios))
	for i, s := range c.Scenarios {
		if _, dup := byName[s.Name]; dup {
			loadErr = fmt.Errorf("duplicate scenario %q", s.Name)
			return
		}
		byName[s.Name] = i
	}
	loaded = c.Scenarios
}

// All returns every scenario in catalog order.
func All() ([]Scenario, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return nil, loadErr
	}
	return append([]Scenario(nil), loaded...), nil
}

// Get returns the scenario called name. A bare number n is accepted as
// "story_n".
func Get(name string) (Scenario, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return Scenario{}, loadErr
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if i, ok := byName[name]; ok {
		return loaded[i], nil
	}
	if i, ok := byName["story_"+name]; ok {
		return loaded[i], nil
	}
	return Scenario{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownScenario, name, strings.Join(Names(), ", "))
}

// Names lists the scenario names, sorted.
func Names() []string {
	loadOnce.Do(load)
	names := make([]string, 0, len(loaded))
	for _, s := range loaded {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}
