// Package checker answers the one question the revision loop asks: given the
// facts extracted from a story, which consistency rules does the story break?
//
// A Checker owns the read-only background graph, the closure engine and the
// rule catalog. Every Check works on its own copy of the background, so one
// Checker can serve any number of sequential or concurrent checks.
package checker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"storyagent/internal/facts"
	"storyagent/internal/graph"
	"storyagent/internal/logging"
	"storyagent/internal/mangle"
	"storyagent/internal/ontology"
	"storyagent/internal/rules"
	"storyagent/internal/types"
)

// ErrNoBackground is returned when a checker is built without a usable
// background ontology. Nothing can be checked without one.
var ErrNoBackground = errors.New("background ontology not loaded")

// Options configure a Checker.
type Options struct {
	Mangle     mangle.Config
	Thresholds rules.Thresholds
	Normalizer facts.Options
	// Rules overrides the catalog built from Thresholds when non-nil.
	Rules []rules.Rule
}

// DefaultOptions returns the stock settings.
func DefaultOptions() Options {
	return Options{
		Mangle:     mangle.DefaultConfig(),
		Thresholds: rules.DefaultThresholds(),
		Normalizer: facts.DefaultOptions(),
	}
}

// Report is the result of one check.
type Report struct {
	Violations []types.Violation `json:"violations"`
	Failures   []rules.Failure   `json:"failures,omitempty"`
	// Warnings are normalization problems, set by CheckRecord.
	Warnings []facts.Warning `json:"warnings,omitempty"`
	// Rejected holds session triples that could not enter the graph.
	Rejected []string `json:"rejected,omitempty"`

	Facts             int           `json:"facts"`
	RulesRun          int           `json:"rules_run"`
	Closure           mangle.Stats  `json:"closure"`
	BackgroundVersion string        `json:"background_version"`
	CatalogVersion    string        `json:"catalog_version"`
	Duration          time.Duration `json:"duration"`
}

// Messages returns the violation messages in detection order.
func (r *Report) Messages() []string {
	if r == nil {
		return nil
	}
	return types.Messages(r.Violations)
}

// Consistent reports whether no violation was found.
func (r *Report) Consistent() bool {
	return r == nil || len(r.Violations) == 0
}

// Checker runs closure plus rules over session facts.
type Checker struct {
	background *graph.Graph
	version    string
	engine     *mangle.Engine
	normalizer *facts.Normalizer
	rules      []rules.Rule
}

// New builds a checker around bg. The background graph is frozen so no check
// can mutate it.
func New(bg *ontology.Background, opts Options) (*Checker, error) {
	if bg == nil || len(bg.Triples) == 0 {
		return nil, ErrNoBackground
	}
	if err := opts.Thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid thresholds: %w", err)
	}

	g, errs := graph.FromTriples(bg.Triples)
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %d malformed background triples: %w", ErrNoBackground, len(errs), errors.Join(errs...))
	}
	g.Freeze()

	engine, err := mangle.NewEngine(opts.Mangle, bg.Thresholds)
	if err != nil {
		return nil, fmt.Errorf("failed to build closure engine: %w", err)
	}

	ruleSet := opts.Rules
	if ruleSet == nil {
		ruleSet = rules.Catalog(opts.Thresholds)
	}
	for _, r := range ruleSet {
		if err := r.Validate(); err != nil {
			// Kept: Evaluate isolates the failure at check time.
			logging.RulesError("rule %s is invalid and will fail every check: %v", r.Name, err)
		}
	}

	logging.Boot("checker ready: background %s with %d triples, %d rules (catalog %s)",
		bg.Version, g.Len(), len(ruleSet), rules.CatalogVersion)
	return &Checker{
		background: g,
		version:    bg.Version,
		engine:     engine,
		normalizer: facts.NewNormalizer(opts.Normalizer),
		rules:      ruleSet,
	}, nil
}

// Background returns the frozen background graph.
func (c *Checker) Background() *graph.Graph { return c.background }

// Rules returns the rules every check runs.
func (c *Checker) Rules() []rules.Rule { return c.rules }

// Check merges triples into a private copy of the background, closes it and
// evaluates every rule. An empty fact set short-circuits to an empty report
// without touching the closure engine. Malformed triples are dropped and
// listed in the report.
func (c *Checker) Check(ctx context.Context, triples []types.Triple) (*Report, error) {
	report := &Report{
		Facts:             len(triples),
		BackgroundVersion: c.version,
		CatalogVersion:    rules.CatalogVersion,
	}
	if len(triples) == 0 {
		logging.RulesDebug("check: no facts, nothing to check")
		return report, nil
	}
	start := time.Now()

	session, errs := c.background.Extend(triples)
	for _, err := range errs {
		report.Rejected = append(report.Rejected, err.Error())
	}

	closed, stats, err := c.engine.Closure(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("closure failed: %w", err)
	}
	report.Closure = stats

	result, err := rules.Evaluate(ctx, closed, c.rules)
	if err != nil {
		return nil, fmt.Errorf("rule evaluation interrupted: %w", err)
	}
	report.Violations = result.Violations
	report.Failures = result.Failures
	report.RulesRun = result.RulesRun
	report.Duration = time.Since(start)

	logging.Rules("check: %d facts, %d violations, %d rule failures in %v",
		report.Facts, len(report.Violations), len(report.Failures), report.Duration)
	return report, nil
}

// CheckRecord normalizes rec and checks the resulting triples. The
// normalization warnings are carried on the report.
func (c *Checker) CheckRecord(ctx context.Context, rec *facts.Record) (*Report, error) {
	norm := c.normalizer.Normalize(rec)
	report, err := c.Check(ctx, norm.Triples)
	if err != nil {
		return nil, err
	}
	report.Warnings = norm.Warnings
	return report, nil
}

// CheckMany checks independent fact sets concurrently, at most limit at a
// time (limit <= 0 means unbounded). Reports are returned in input order.
// The first error cancels the remaining checks.
func (c *Checker) CheckMany(ctx context.Context, batches [][]types.Triple, limit int) ([]*Report, error) {
	reports := make([]*Report, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, batch := range batches {
		g.Go(func() error {
			r, err := c.Check(gctx, batch)
			if err != nil {
				return fmt.Errorf("batch %d: %w", i, err)
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
