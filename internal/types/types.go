// Package types provides shared type definitions used across storyagent packages.
// This package exists to break import cycles between ontology, graph, facts and rules.
// Types in this package should be foundational data structures with no complex dependencies.
package types

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// Prefix is one of the fixed ontology namespaces an Identifier may live in.
type Prefix string

const (
	PrefixDemo       Prefix = "demo"   // people, occupations, conditions
	PrefixCity       Prefix = "city"   // cities, landmarks, terrain
	PrefixIngredient Prefix = "ia2025" // foods and ingredients
	PrefixTravel     Prefix = "travel" // travel events, climate, weather
	PrefixBase       Prefix = "base"
	PrefixRDF        Prefix = "rdf"
	PrefixRDFS       Prefix = "rdfs"
	PrefixOWL        Prefix = "owl"
	PrefixXSD        Prefix = "xsd"
)

// Prefixes lists every recognized prefix in a stable order.
var Prefixes = []Prefix{
	PrefixDemo, PrefixCity, PrefixIngredient, PrefixTravel, PrefixBase,
	PrefixRDF, PrefixRDFS, PrefixOWL, PrefixXSD,
}

// KnownPrefix reports whether p is one of the fixed ontology prefixes.
func KnownPrefix(p string) bool {
	for _, known := range Prefixes {
		if string(known) == p {
			return true
		}
	}
	return false
}

// Identifier is a namespaced name of the form prefix:localname.
type Identifier string

// NewIdentifier joins a prefix and a local name.
func NewIdentifier(p Prefix, local string) Identifier {
	return Identifier(string(p) + ":" + local)
}

// Prefix returns the namespace part of the identifier.
func (id Identifier) Prefix() Prefix {
	p, _, _ := strings.Cut(string(id), ":")
	return Prefix(p)
}

// Local returns the part after the prefix.
func (id Identifier) Local() string {
	_, local, _ := strings.Cut(string(id), ":")
	return local
}

// Valid reports whether the identifier has a known prefix and a non-empty,
// colon-free local name without whitespace.
func (id Identifier) Valid() bool {
	p, local, ok := strings.Cut(string(id), ":")
	if !ok || local == "" || !KnownPrefix(p) {
		return false
	}
	return !strings.ContainsAny(local, ": \t\r\n")
}

// =============================================================================
// TERMS
// =============================================================================

// TermKind discriminates the object position of a triple.
type TermKind uint8

const (
	KindIdentifier TermKind = iota
	KindInteger
	KindFloat
	KindBool
	KindString
)

func (k TermKind) String() string {
	switch k {
	case KindIdentifier:
		return "identifier"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Term is either an Identifier or a literal value.
// Term is comparable so triples can be used directly as map keys.
type Term struct {
	Kind  TermKind
	ID    Identifier
	Int   int64
	Float float64
	Bool  bool
	Str   string
}

// IRI wraps an identifier as a term.
func IRI(id Identifier) Term { return Term{Kind: KindIdentifier, ID: id} }

// Int returns an integer literal.
func Int(v int64) Term { return Term{Kind: KindInteger, Int: v} }

// Float returns a floating-point literal.
func Float(v float64) Term { return Term{Kind: KindFloat, Float: v} }

// Bool returns a boolean literal.
func Bool(v bool) Term { return Term{Kind: KindBool, Bool: v} }

// String returns a string literal.
func String(v string) Term { return Term{Kind: KindString, Str: v} }

// IsIdentifier reports whether the term names a resource.
func (t Term) IsIdentifier() bool { return t.Kind == KindIdentifier }

// IsLiteral reports whether the term is a data value.
func (t Term) IsLiteral() bool { return t.Kind != KindIdentifier }

// Number returns the numeric value of integer and float literals.
func (t Term) Number() (float64, bool) {
	switch t.Kind {
	case KindInteger:
		return float64(t.Int), true
	case KindFloat:
		return t.Float, true
	default:
		return 0, false
	}
}

// String renders the term the way violation bindings display it.
func (t Term) String() string {
	switch t.Kind {
	case KindIdentifier:
		return string(t.ID)
	case KindInteger:
		return strconv.FormatInt(t.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(t.Float, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(t.Bool)
	case KindString:
		return t.Str
	default:
		return ""
	}
}

// =============================================================================
// TRIPLES
// =============================================================================

// Triple is a subject-predicate-object statement.
type Triple struct {
	Subject   Identifier
	Predicate Identifier
	Object    Term
}

// NewTriple builds a triple whose object is an identifier.
func NewTriple(s, p, o Identifier) Triple {
	return Triple{Subject: s, Predicate: p, Object: IRI(o)}
}

// NewLiteralTriple builds a triple whose object is a literal.
func NewLiteralTriple(s, p Identifier, o Term) Triple {
	return Triple{Subject: s, Predicate: p, Object: o}
}

func (t Triple) String() string {
	obj := t.Object.String()
	if t.Object.Kind == KindString {
		obj = strconv.Quote(obj)
	}
	return fmt.Sprintf("(%s, %s, %s)", t.Subject, t.Predicate, obj)
}

// =============================================================================
// VIOLATIONS
// =============================================================================

// Violation is one match of a consistency rule.
type Violation struct {
	Rule     string   `json:"rule"`
	Bindings []string `json:"bindings"`
	Message  string   `json:"message"`
}

// NewViolation formats the message as "rule '<name>': v1, v2".
func NewViolation(rule string, bindings []string) Violation {
	return Violation{
		Rule:     rule,
		Bindings: bindings,
		Message:  fmt.Sprintf("rule '%s': %s", rule, strings.Join(bindings, ", ")),
	}
}

// Messages extracts the human-readable messages of a violation list.
// An empty list yields nil.
func Messages(vs []Violation) []string {
	if len(vs) == 0 {
		return nil
	}
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Message
	}
	return out
}
