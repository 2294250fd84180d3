// Package graph implements the in-memory triple store that backs every check.
//
// A Graph keeps insertion order (so results are reproducible) and indexes
// triples by subject, predicate and object. The background ontology lives in a
// frozen Graph that is shared read-only; each check works on its own copy made
// with Extend.
package graph

import (
	"errors"
	"fmt"
	"sync"

	"storyagent/internal/logging"
	"storyagent/internal/ontology"
	"storyagent/internal/types"
)

var (
	// ErrMalformedTriple marks a triple rejected at merge time.
	ErrMalformedTriple = errors.New("malformed triple")
	// ErrFrozen is returned when mutating a frozen graph.
	ErrFrozen = errors.New("graph is frozen")
)

// Graph is an ordered set of triples.
type Graph struct {
	mu sync.RWMutex

	triples []types.Triple
	set     map[types.Triple]struct{}

	bySubject   map[types.Identifier][]int
	byPredicate map[types.Identifier][]int
	byObject    map[types.Term][]int

	frozen bool
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		set:         make(map[types.Triple]struct{}),
		bySubject:   make(map[types.Identifier][]int),
		byPredicate: make(map[types.Identifier][]int),
		byObject:    make(map[types.Term][]int),
	}
}

// FromTriples builds a graph, dropping malformed triples.
func FromTriples(ts []types.Triple) (*Graph, []error) {
	g := New()
	_, errs := g.AddAll(ts)
	return g, errs
}

// Validate checks the triple shape: known-prefix identifiers in subject and
// predicate position, and a literal object exactly when the predicate is a data
// property.
func Validate(t types.Triple) error {
	if !t.Subject.Valid() {
		return fmt.Errorf("%w: invalid subject %q in %s", ErrMalformedTriple, t.Subject, t)
	}
	if !t.Predicate.Valid() {
		return fmt.Errorf("%w: invalid predicate %q in %s", ErrMalformedTriple, t.Predicate, t)
	}
	data := ontology.IsDataProperty(t.Predicate)
	switch {
	case t.Object.IsIdentifier():
		if !t.Object.ID.Valid() {
			return fmt.Errorf("%w: invalid object %q in %s", ErrMalformedTriple, t.Object.ID, t)
		}
		if data {
			return fmt.Errorf("%w: data property %s needs a literal object", ErrMalformedTriple, t.Predicate)
		}
	case !data:
		return fmt.Errorf("%w: literal object for non-data property %s", ErrMalformedTriple, t.Predicate)
	}
	return nil
}

// Add inserts t. Adding a triple already present is a no-op.
func (g *Graph) Add(t types.Triple) error {
	if err := Validate(t); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.frozen {
		return ErrFrozen
	}
	g.insert(t)
	return nil
}

// AddAll inserts every well-formed triple of ts. Malformed triples are skipped
// and reported; the rest are still added.
func (g *Graph) AddAll(ts []types.Triple) (int, []error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.frozen {
		return 0, []error{ErrFrozen}
	}

	var errs []error
	added := 0
	for _, t := range ts {
		if err := Validate(t); err != nil {
			logging.GraphWarn("dropping triple: %v", err)
			errs = append(errs, err)
			continue
		}
		if g.insert(t) {
			added++
		}
	}
	return added, errs
}

func (g *Graph) insert(t types.Triple) bool {
	if _, ok := g.set[t]; ok {
		return false
	}
	i := len(g.triples)
	g.triples = append(g.triples, t)
	g.set[t] = struct{}{}
	g.bySubject[t.Subject] = append(g.bySubject[t.Subject], i)
	g.byPredicate[t.Predicate] = append(g.byPredicate[t.Predicate], i)
	g.byObject[t.Object] = append(g.byObject[t.Object], i)
	return true
}

// Freeze makes the graph read-only.
func (g *Graph) Freeze() {
	g.mu.Lock()
	g.frozen = true
	g.mu.Unlock()
}

// Frozen reports whether the graph is read-only.
func (g *Graph) Frozen() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.frozen
}

// Has reports whether t is in the graph.
func (g *Graph) Has(t types.Triple) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.set[t]
	return ok
}

// Len returns the number of triples.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.triples)
}

// Triples returns a copy of all triples in insertion order.
func (g *Graph) Triples() []types.Triple {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]types.Triple(nil), g.triples...)
}

// WithPredicate returns the triples using predicate p.
func (g *Graph) WithPredicate(p types.Identifier) []types.Triple {
	return g.Match("", p, types.Term{})
}

// Match returns the triples matching the given positions in insertion order.
// An empty Identifier or the zero Term acts as a wildcard.
func (g *Graph) Match(s, p types.Identifier, o types.Term) []types.Triple {
	g.mu.RLock()
	defer g.mu.RUnlock()

	anyObject := o == (types.Term{})
	var candidates []int
	scan := true
	narrow := func(idx []int) {
		if scan || len(idx) < len(candidates) {
			candidates = idx
			scan = false
		}
	}
	if s != "" {
		narrow(g.bySubject[s])
	}
	if p != "" {
		narrow(g.byPredicate[p])
	}
	if !anyObject {
		narrow(g.byObject[o])
	}

	match := func(t types.Triple) bool {
		return (s == "" || t.Subject == s) &&
			(p == "" || t.Predicate == p) &&
			(anyObject || t.Object == o)
	}

	var out []types.Triple
	if scan {
		for _, t := range g.triples {
			if match(t) {
				out = append(out, t)
			}
		}
		return out
	}
	for _, i := range candidates {
		if t := g.triples[i]; match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Clone returns a mutable copy. The copy is never frozen.
func (g *Graph) Clone() *Graph {
	g.mu.RLock()
	defer g.mu.RUnlock()

	c := &Graph{
		triples:     append([]types.Triple(nil), g.triples...),
		set:         make(map[types.Triple]struct{}, len(g.set)),
		bySubject:   make(map[types.Identifier][]int, len(g.bySubject)),
		byPredicate: make(map[types.Identifier][]int, len(g.byPredicate)),
		byObject:    make(map[types.Term][]int, len(g.byObject)),
	}
	for t := range g.set {
		c.set[t] = struct{}{}
	}
	for k, v := range g.bySubject {
		c.bySubject[k] = append([]int(nil), v...)
	}
	for k, v := range g.byPredicate {
		c.byPredicate[k] = append([]int(nil), v...)
	}
	for k, v := range g.byObject {
		c.byObject[k] = append([]int(nil), v...)
	}
	return c
}

// Extend returns a copy of g with ts merged in. g itself is left untouched,
// which is what keeps session triples out of the shared background.
func (g *Graph) Extend(ts []types.Triple) (*Graph, []error) {
	c := g.Clone()
	added, errs := c.AddAll(ts)
	logging.GraphDebug("extended graph of %d triples with %d new (%d rejected)", g.Len(), added, len(errs))
	return c, errs
}
