package rules

import (
	"fmt"

	"storyagent/internal/ontology"
	"storyagent/internal/types"
)

// Expression helpers shared by the catalog. A variable that is unbound or of
// the wrong kind makes the expression false, which drops the binding.

func number(b Binding, v string) (float64, bool) {
	t, ok := b[v]
	if !ok {
		return 0, false
	}
	return t.Number()
}

func greaterThan(v string, limit float64) Filter {
	return Filter{
		Name: fmt.Sprintf("?%s > %v", v, limit),
		Fn: func(b Binding) bool {
			n, ok := number(b, v)
			return ok && n > limit
		},
	}
}

func lessThan(v string, limit float64) Filter {
	return Filter{
		Name: fmt.Sprintf("?%s < %v", v, limit),
		Fn: func(b Binding) bool {
			n, ok := number(b, v)
			return ok && n < limit
		},
	}
}

// orderedPair keeps each unordered pair of distinct identifiers once.
func orderedPair(a, c string) Filter {
	return Filter{
		Name: fmt.Sprintf("str(?%s) < str(?%s)", a, c),
		Fn: func(b Binding) bool {
			x, okX := b[a]
			y, okY := b[c]
			return okX && okY && x != y && x.String() < y.String()
		},
	}
}

// quotient binds out to num/den. A non-positive denominator drops the binding.
func quotient(out, num, den string) Bind {
	return Bind{
		Var: out,
		Fn: func(b Binding) (types.Term, bool) {
			n, okN := number(b, num)
			d, okD := number(b, den)
			if !okN || !okD || d <= 0 {
				return types.Term{}, false
			}
			return types.Float(n / d), true
		},
	}
}

var sizeClasses = map[types.Identifier]bool{
	ontology.SmallCity:  true,
	ontology.MediumCity: true,
	ontology.LargeCity:  true,
}

// sizeClass binds out to the local name of a city size class and drops every
// other class.
func sizeClass(class, out string) Bind {
	return Bind{
		Var: out,
		Fn: func(b Binding) (types.Term, bool) {
			t, ok := b[class]
			if !ok || !t.IsIdentifier() || !sizeClasses[t.ID] {
				return types.Term{}, false
			}
			return types.String(t.ID.Local()), true
		},
	}
}

func populationMismatch(t Thresholds, class, population string) Filter {
	small, large := float64(t.SmallCityMaxPopulation), float64(t.LargeCityMinPopulation)
	return Filter{
		Name: "population outside size class bounds",
		Fn: func(b Binding) bool {
			pop, ok := number(b, population)
			if !ok {
				return false
			}
			switch b[class].Str {
			case ontology.LargeCity.Local():
				return pop < large
			case ontology.MediumCity.Local():
				return pop < small || pop >= large
			case ontology.SmallCity.Local():
				return pop >= small
			default:
				return false
			}
		},
	}
}
