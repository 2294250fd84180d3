// Package rules evaluates the catalog of consistency rules over a closed graph.
//
// A rule is a small declarative query: triple patterns joined on shared
// variables, optional alternative branches, computed bindings, filters,
// negated sub-patterns and an optional count-distinct aggregate. Every
// distinct projected binding becomes one violation.
package rules

import (
	"errors"
	"fmt"

	"storyagent/internal/graph"
	"storyagent/internal/types"
)

var (
	// ErrUnknownVariable is returned for a rule that selects a variable no
	// clause binds.
	ErrUnknownVariable = errors.New("unknown variable")
	// ErrInvalidRule is returned for structurally broken rules.
	ErrInvalidRule = errors.New("invalid rule")
)

// Binding maps variable names to values.
type Binding map[string]types.Term

func (b Binding) clone() Binding {
	c := make(Binding, len(b)+2)
	for k, v := range b {
		c[k] = v
	}
	return c
}

// PTerm is a pattern position: a variable or a constant.
type PTerm struct {
	Var   string
	Const types.Term
}

// V is a variable.
func V(name string) PTerm { return PTerm{Var: name} }

// C is an identifier constant.
func C(id types.Identifier) PTerm { return PTerm{Const: types.IRI(id)} }

// L is a literal constant.
func L(t types.Term) PTerm { return PTerm{Const: t} }

// IsVar reports whether the position is a variable.
func (t PTerm) IsVar() bool { return t.Var != "" }

func (t PTerm) String() string {
	if t.IsVar() {
		return "?" + t.Var
	}
	return t.Const.String()
}

// Pattern is a triple pattern.
type Pattern struct {
	Subject, Predicate, Object PTerm
	// Transitive follows Predicate one or more steps, like a p+ property path.
	// Predicate must then be a constant.
	Transitive bool
}

// P builds a plain triple pattern.
func P(s, p, o PTerm) Pattern { return Pattern{Subject: s, Predicate: p, Object: o} }

// Path builds a transitive pattern.
func Path(s, p, o PTerm) Pattern {
	return Pattern{Subject: s, Predicate: p, Object: o, Transitive: true}
}

func (p Pattern) String() string {
	pred := p.Predicate.String()
	if p.Transitive {
		pred += "+"
	}
	return fmt.Sprintf("%s %s %s", p.Subject, pred, p.Object)
}

func (p Pattern) vars() []string {
	var out []string
	for _, t := range []PTerm{p.Subject, p.Predicate, p.Object} {
		if t.IsVar() {
			out = append(out, t.Var)
		}
	}
	return out
}

// resolve returns the constant for t under b, or ok=false when t is an unbound
// variable.
func resolve(t PTerm, b Binding) (types.Term, bool) {
	if !t.IsVar() {
		return t.Const, true
	}
	v, ok := b[t.Var]
	return v, ok
}

// unify extends b so that t takes value v. It fails on a conflicting binding.
func unify(b Binding, t PTerm, v types.Term) bool {
	if !t.IsVar() {
		return t.Const == v
	}
	if cur, ok := b[t.Var]; ok {
		return cur == v
	}
	b[t.Var] = v
	return true
}

// join extends every binding in in with every way p matches g.
func join(g *graph.Graph, in []Binding, p Pattern) ([]Binding, error) {
	if p.Transitive && p.Predicate.IsVar() {
		return nil, fmt.Errorf("%w: transitive pattern %s needs a constant predicate", ErrInvalidRule, p)
	}

	var out []Binding
	for _, b := range in {
		s, sBound := resolve(p.Subject, b)
		pred, pBound := resolve(p.Predicate, b)
		o, oBound := resolve(p.Object, b)

		// Subjects and predicates are always identifiers.
		if (sBound && !s.IsIdentifier()) || (pBound && !pred.IsIdentifier()) {
			continue
		}
		var sID, pID types.Identifier
		if sBound {
			sID = s.ID
		}
		if pBound {
			pID = pred.ID
		}
		var oTerm types.Term
		if oBound {
			oTerm = o
		}

		if p.Transitive {
			for _, pair := range reach(g, sID, pID, oTerm, oBound) {
				nb := b.clone()
				if unify(nb, p.Subject, types.IRI(pair[0])) && unify(nb, p.Object, types.IRI(pair[1])) {
					out = append(out, nb)
				}
			}
			continue
		}

		for _, t := range g.Match(sID, pID, oTerm) {
			nb := b.clone()
			if unify(nb, p.Subject, types.IRI(t.Subject)) &&
				unify(nb, p.Predicate, types.IRI(t.Predicate)) &&
				unify(nb, p.Object, t.Object) {
				out = append(out, nb)
			}
		}
	}
	return out, nil
}

// reach enumerates (start, end) pairs connected by one or more pred edges.
// A bound subject walks forward, a bound object walks backward, and with
// neither bound every subject of pred is a start.
func reach(g *graph.Graph, s, pred types.Identifier, o types.Term, oBound bool) [][2]types.Identifier {
	if oBound && !o.IsIdentifier() {
		return nil
	}

	forward := func(start types.Identifier) []types.Identifier {
		return walk(start, func(n types.Identifier) []types.Identifier {
			var next []types.Identifier
			for _, t := range g.Match(n, pred, types.Term{}) {
				if t.Object.IsIdentifier() {
					next = append(next, t.Object.ID)
				}
			}
			return next
		})
	}

	var pairs [][2]types.Identifier
	switch {
	case s != "":
		for _, end := range forward(s) {
			if !oBound || end == o.ID {
				pairs = append(pairs, [2]types.Identifier{s, end})
			}
		}
	case oBound:
		starts := walk(o.ID, func(n types.Identifier) []types.Identifier {
			var prev []types.Identifier
			for _, t := range g.Match("", pred, types.IRI(n)) {
				prev = append(prev, t.Subject)
			}
			return prev
		})
		for _, start := range starts {
			pairs = append(pairs, [2]types.Identifier{start, o.ID})
		}
	default:
		seen := make(map[types.Identifier]bool)
		for _, t := range g.Match("", pred, types.Term{}) {
			if seen[t.Subject] {
				continue
			}
			seen[t.Subject] = true
			for _, end := range forward(t.Subject) {
				pairs = append(pairs, [2]types.Identifier{t.Subject, end})
			}
		}
	}
	return pairs
}

// walk returns every node reachable from start in one or more steps, in
// breadth-first order. Cycles are followed once.
func walk(start types.Identifier, next func(types.Identifier) []types.Identifier) []types.Identifier {
	visited := make(map[types.Identifier]bool)
	var out []types.Identifier
	queue := next(start)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if visited[n] {
			continue
		}
		visited[n] = true
		out = append(out, n)
		queue = append(queue, next(n)...)
	}
	return out
}
