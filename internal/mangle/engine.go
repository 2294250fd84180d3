// Package mangle computes the deductive closure of a session graph with the
// Google Mangle Datalog engine.
//
// The closure program (closure.mg) covers subclass and subproperty
// propagation plus domain and range typing. Threshold axioms from the
// background ontology ("hasAge >= 18 means AdultPerson") are compiled into
// extra rules at construction time. Evaluation runs to a fixed point before
// any derived triple is handed back.
package mangle

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"

	"storyagent/internal/graph"
	"storyagent/internal/logging"
	"storyagent/internal/ontology"
	"storyagent/internal/types"
)

//go:embed closure.mg
var closureProgram string

// Predicates shared between Go and closure.mg.
var (
	predAsserted        = ast.PredicateSym{Symbol: "asserted", Arity: 3}
	predAssertedLiteral = ast.PredicateSym{Symbol: "asserted_literal", Arity: 3}
	predIntLiteral      = ast.PredicateSym{Symbol: "int_literal", Arity: 3}
	predTriple          = ast.PredicateSym{Symbol: "triple", Arity: 3}
	predLiteral         = ast.PredicateSym{Symbol: "literal", Arity: 3}
)

// Config holds Mangle engine configuration.
type Config struct {
	// DerivedFactLimit caps the facts a single closure may create.
	DerivedFactLimit int `yaml:"derived_fact_limit"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		DerivedFactLimit: 500000,
	}
}

// Stats describes one closure run.
type Stats struct {
	InputTriples   int           `json:"input_triples"`
	DerivedTriples int           `json:"derived_triples"`
	Rejected       int           `json:"rejected"`
	Strata         int           `json:"strata"`
	Duration       time.Duration `json:"duration"`
}

// Engine holds the analyzed closure program. It is immutable after
// construction and safe for concurrent use; each Closure call evaluates
// against its own fact store.
type Engine struct {
	config      Config
	source      string
	programInfo *analysis.ProgramInfo
}

// NewEngine parses and analyzes the closure program extended with the given
// threshold axioms.
func NewEngine(cfg Config, thresholds []ontology.ThresholdAxiom) (*Engine, error) {
	source := closureProgram + thresholdRules(thresholds)

	unit, err := parse.Unit(bytes.NewReader([]byte(source)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse closure program: %w", err)
	}
	programInfo, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze closure program: %w", err)
	}

	logging.KernelDebug("closure program ready: %d rules, %d threshold axioms",
		len(programInfo.Rules), len(thresholds))
	return &Engine{config: cfg, source: source, programInfo: programInfo}, nil
}

// Source returns the full Datalog program the engine evaluates.
func (e *Engine) Source() string { return e.source }

// thresholdRules renders each axiom as a typing rule over integer literals.
func thresholdRules(axioms []ontology.ThresholdAxiom) string {
	if len(axioms) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n# Threshold axioms.\n")
	for _, ax := range axioms {
		fmt.Fprintf(&b, "triple(X, %q, %s) :- int_literal(X, %s, V), V >= %d.\n",
			string(ontology.RDFType), strconv.Quote(string(ax.Class)), strconv.Quote(string(ax.Property)), ax.Min)
	}
	return b.String()
}

// Closure returns a new graph holding g plus every triple entailed by the
// closure program. g is not modified. Derived triples are appended after the
// originals in sorted order so repeated runs produce identical graphs.
func (e *Engine) Closure(ctx context.Context, g *graph.Graph) (*graph.Graph, Stats, error) {
	var stats Stats
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	timer := logging.StartTimer(logging.CategoryKernel, "closure")
	input := g.Triples()
	stats.InputTriples = len(input)

	store := factstore.NewSimpleInMemoryStore()
	for _, t := range input {
		for _, atom := range encodeTriple(t) {
			store.Add(atom)
		}
	}

	evalStats, err := mengine.EvalProgramWithStats(e.programInfo, store,
		mengine.WithCreatedFactLimit(e.config.DerivedFactLimit))
	if err != nil {
		logging.Get(logging.CategoryKernel).Error("closure: fixpoint evaluation failed: %v", err)
		return nil, stats, fmt.Errorf("failed to evaluate closure: %w", err)
	}
	stats.Strata = len(evalStats.Strata)

	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	var derived []types.Triple
	collect := func(atom ast.Atom) error {
		t, ok := decodeAtom(atom)
		if !ok {
			logging.KernelDebug("closure: skipping undecodable fact %v", atom)
			return nil
		}
		if !g.Has(t) {
			derived = append(derived, t)
		}
		return nil
	}
	if err := store.GetFacts(ast.NewQuery(predTriple), collect); err != nil {
		return nil, stats, fmt.Errorf("failed to read derived triples: %w", err)
	}
	if err := store.GetFacts(ast.NewQuery(predLiteral), collect); err != nil {
		return nil, stats, fmt.Errorf("failed to read derived literals: %w", err)
	}

	sortTriples(derived)

	out := g.Clone()
	added, errs := out.AddAll(derived)
	stats.DerivedTriples = added
	stats.Rejected = len(errs)
	stats.Duration = timer.StopWithThreshold(time.Second)

	logging.Kernel("closure: %d input triples, %d derived, %d rejected, %d strata",
		stats.InputTriples, stats.DerivedTriples, stats.Rejected, stats.Strata)
	return out, stats, nil
}

func encodeTriple(t types.Triple) []ast.Atom {
	s, p := ast.String(string(t.Subject)), ast.String(string(t.Predicate))
	if t.Object.IsIdentifier() {
		return []ast.Atom{{Predicate: predAsserted, Args: []ast.BaseTerm{s, p, ast.String(string(t.Object.ID))}}}
	}

	atoms := []ast.Atom{{Predicate: predAssertedLiteral, Args: []ast.BaseTerm{s, p, literalConstant(t.Object)}}}
	if t.Object.Kind == types.KindInteger {
		atoms = append(atoms, ast.Atom{Predicate: predIntLiteral, Args: []ast.BaseTerm{s, p, ast.Number(t.Object.Int)}})
	}
	return atoms
}

func literalConstant(v types.Term) ast.Constant {
	switch v.Kind {
	case types.KindInteger:
		return ast.Number(v.Int)
	case types.KindFloat:
		return ast.Float64(v.Float)
	case types.KindBool:
		if v.Bool {
			return ast.TrueConstant
		}
		return ast.FalseConstant
	default:
		return ast.String(v.Str)
	}
}

func decodeAtom(atom ast.Atom) (types.Triple, bool) {
	if len(atom.Args) != 3 {
		return types.Triple{}, false
	}
	s, ok1 := stringArg(atom.Args[0])
	p, ok2 := stringArg(atom.Args[1])
	if !ok1 || !ok2 {
		return types.Triple{}, false
	}

	switch atom.Predicate.Symbol {
	case predTriple.Symbol:
		o, ok := stringArg(atom.Args[2])
		if !ok {
			return types.Triple{}, false
		}
		return types.NewTriple(types.Identifier(s), types.Identifier(p), types.Identifier(o)), true
	case predLiteral.Symbol:
		c, ok := atom.Args[2].(ast.Constant)
		if !ok {
			return types.Triple{}, false
		}
		v, ok := constantToTerm(c)
		if !ok {
			return types.Triple{}, false
		}
		return types.NewLiteralTriple(types.Identifier(s), types.Identifier(p), v), true
	default:
		return types.Triple{}, false
	}
}

func stringArg(term ast.BaseTerm) (string, bool) {
	c, ok := term.(ast.Constant)
	if !ok || c.Type != ast.StringType {
		return "", false
	}
	return c.Symbol, true
}

func constantToTerm(c ast.Constant) (types.Term, bool) {
	switch c.Type {
	case ast.NumberType:
		return types.Int(c.NumValue), true
	case ast.Float64Type:
		return types.Float(math.Float64frombits(uint64(c.NumValue))), true
	case ast.StringType:
		return types.String(c.Symbol), true
	case ast.NameType:
		switch c.Symbol {
		case ast.TrueConstant.Symbol:
			return types.Bool(true), true
		case ast.FalseConstant.Symbol:
			return types.Bool(false), true
		}
	}
	return types.Term{}, false
}

func sortTriples(ts []types.Triple) {
	sort.Slice(ts, func(i, j int) bool {
		a, b := ts[i], ts[j]
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		if a.Predicate != b.Predicate {
			return a.Predicate < b.Predicate
		}
		if a.Object.Kind != b.Object.Kind {
			return a.Object.Kind < b.Object.Kind
		}
		return a.Object.String() < b.Object.String()
	})
}
