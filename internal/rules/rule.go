package rules

import (
	"fmt"
	"strings"

	"storyagent/internal/graph"
	"storyagent/internal/types"
)

// Bind computes a new variable from a binding. Returning false drops the
// binding, the way an expression error does in a query language.
type Bind struct {
	Var string
	Fn  func(Binding) (types.Term, bool)
}

// Filter keeps the bindings for which Fn holds.
type Filter struct {
	Name string
	Fn   func(Binding) bool
}

// Aggregate groups bindings and counts distinct values of one variable.
type Aggregate struct {
	GroupBy       []string
	CountDistinct string
	As            string
	// MoreThan keeps only groups whose count exceeds it.
	MoreThan int
}

// Rule is one named consistency check. Clauses are applied in this order:
// Where, Union, Binds, Filters, NotExists, Aggregate, then projection onto
// Select with duplicate rows removed.
type Rule struct {
	Name        string
	Description string

	Where []Pattern
	// Union holds alternative branches. A binding survives when any branch
	// matches; each matching branch contributes its own rows.
	Union     [][]Pattern
	Binds     []Bind
	Filters   []Filter
	NotExists [][]Pattern
	Aggregate *Aggregate
	Select    []string
}

// Validate checks the rule shape and that every selected variable is bound.
func (r Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: rule without a name", ErrInvalidRule)
	}
	if len(r.Where) == 0 && len(r.Union) == 0 {
		return fmt.Errorf("%w: rule %s has no patterns", ErrInvalidRule, r.Name)
	}
	if len(r.Select) == 0 {
		return fmt.Errorf("%w: rule %s selects nothing", ErrInvalidRule, r.Name)
	}

	bound := make(map[string]bool)
	for _, p := range r.Where {
		for _, v := range p.vars() {
			bound[v] = true
		}
	}
	if len(r.Union) > 0 {
		// Only variables bound by every branch are safe to select.
		counts := make(map[string]int)
		for _, branch := range r.Union {
			inBranch := make(map[string]bool)
			for _, p := range branch {
				for _, v := range p.vars() {
					inBranch[v] = true
				}
			}
			for v := range inBranch {
				counts[v]++
			}
		}
		for v, n := range counts {
			if n == len(r.Union) {
				bound[v] = true
			}
		}
	}
	for _, b := range r.Binds {
		if b.Var == "" || b.Fn == nil {
			return fmt.Errorf("%w: rule %s has an incomplete bind", ErrInvalidRule, r.Name)
		}
		bound[b.Var] = true
	}
	for _, f := range r.Filters {
		if f.Fn == nil {
			return fmt.Errorf("%w: rule %s has filter %q without a function", ErrInvalidRule, r.Name, f.Name)
		}
	}

	if a := r.Aggregate; a != nil {
		for _, v := range append(append([]string(nil), a.GroupBy...), a.CountDistinct) {
			if !bound[v] {
				return fmt.Errorf("%w: rule %s aggregates over ?%s", ErrUnknownVariable, r.Name, v)
			}
		}
		if a.As == "" {
			return fmt.Errorf("%w: rule %s aggregate has no output variable", ErrInvalidRule, r.Name)
		}
		bound = map[string]bool{a.As: true}
		for _, v := range a.GroupBy {
			bound[v] = true
		}
	}

	for _, v := range r.Select {
		if !bound[v] {
			return fmt.Errorf("%w: rule %s selects ?%s", ErrUnknownVariable, r.Name, v)
		}
	}
	return nil
}

// Match evaluates r against g and returns the projected rows.
func (r Rule) Match(g *graph.Graph) ([][]types.Term, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	rows := []Binding{{}}
	var err error
	for _, p := range r.Where {
		if rows, err = join(g, rows, p); err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, nil
		}
	}

	if len(r.Union) > 0 {
		var merged []Binding
		for _, branch := range r.Union {
			branchRows := rows
			for _, p := range branch {
				if branchRows, err = join(g, branchRows, p); err != nil {
					return nil, err
				}
			}
			merged = append(merged, branchRows...)
		}
		rows = merged
	}

	for _, b := range r.Binds {
		kept := rows[:0:0]
		for _, row := range rows {
			if v, ok := b.Fn(row); ok {
				row[b.Var] = v
				kept = append(kept, row)
			}
		}
		rows = kept
	}

	for _, f := range r.Filters {
		kept := rows[:0:0]
		for _, row := range rows {
			if f.Fn(row) {
				kept = append(kept, row)
			}
		}
		rows = kept
	}

	for _, group := range r.NotExists {
		kept := rows[:0:0]
		for _, row := range rows {
			found := []Binding{row.clone()}
			for _, p := range group {
				if found, err = join(g, found, p); err != nil {
					return nil, err
				}
				if len(found) == 0 {
					break
				}
			}
			if len(found) == 0 {
				kept = append(kept, row)
			}
		}
		rows = kept
	}

	if r.Aggregate != nil {
		rows = aggregate(rows, *r.Aggregate)
	}

	return project(rows, r.Select), nil
}

func aggregate(rows []Binding, a Aggregate) []Binding {
	type group struct {
		key      Binding
		distinct map[types.Term]struct{}
	}
	var order []string
	groups := make(map[string]*group)
	for _, row := range rows {
		key := rowKey(row, a.GroupBy)
		g, ok := groups[key]
		if !ok {
			k := make(Binding, len(a.GroupBy))
			for _, v := range a.GroupBy {
				k[v] = row[v]
			}
			g = &group{key: k, distinct: make(map[types.Term]struct{})}
			groups[key] = g
			order = append(order, key)
		}
		g.distinct[row[a.CountDistinct]] = struct{}{}
	}

	var out []Binding
	for _, key := range order {
		g := groups[key]
		if len(g.distinct) <= a.MoreThan {
			continue
		}
		row := g.key
		row[a.As] = types.Int(int64(len(g.distinct)))
		out = append(out, row)
	}
	return out
}

func project(rows []Binding, vars []string) [][]types.Term {
	seen := make(map[string]bool)
	var out [][]types.Term
	for _, row := range rows {
		key := rowKey(row, vars)
		if seen[key] {
			continue
		}
		seen[key] = true
		vals := make([]types.Term, len(vars))
		for i, v := range vars {
			vals[i] = row[v]
		}
		out = append(out, vals)
	}
	return out
}

func rowKey(row Binding, vars []string) string {
	parts := make([]string, len(vars))
	for i, v := range vars {
		t := row[v]
		parts[i] = fmt.Sprintf("%d|%s", t.Kind, t.String())
	}
	return strings.Join(parts, "\x00")
}
