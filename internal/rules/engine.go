package rules

import (
	"context"
	"fmt"
	"runtime/debug"

	"storyagent/internal/graph"
	"storyagent/internal/logging"
	"storyagent/internal/types"
)

// Failure records a rule whose evaluation errored. Its results are discarded.
type Failure struct {
	Rule string `json:"rule"`
	Err  error  `json:"-"`
}

func (f Failure) Error() string { return fmt.Sprintf("rule %s: %v", f.Rule, f.Err) }

// Report is the outcome of evaluating a rule set.
type Report struct {
	Violations []types.Violation `json:"violations"`
	Failures   []Failure         `json:"failures,omitempty"`
	RulesRun   int               `json:"rules_run"`
}

// Evaluate runs rules in order against g. A rule that errors or panics is
// skipped and recorded as a failure; the remaining rules still run. The only
// error returned is a context error, checked between rules.
func Evaluate(ctx context.Context, g *graph.Graph, rules []Rule) (*Report, error) {
	report := &Report{}
	for _, r := range rules {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.RulesRun++

		vs, err := EvaluateRule(g, r)
		if err != nil {
			logging.RulesError("skipping rule %s: %v", r.Name, err)
			report.Failures = append(report.Failures, Failure{Rule: r.Name, Err: err})
			continue
		}
		if len(vs) > 0 {
			logging.RulesDebug("rule %s matched %d times", r.Name, len(vs))
		}
		report.Violations = append(report.Violations, vs...)
	}
	logging.Rules("evaluated %d rules: %d violations, %d failures",
		report.RulesRun, len(report.Violations), len(report.Failures))
	return report, nil
}

// EvaluateRule runs a single rule and converts each row into a violation.
// Panics inside rule expressions are returned as errors.
func EvaluateRule(g *graph.Graph, r Rule) (vs []types.Violation, err error) {
	defer func() {
		if p := recover(); p != nil {
			logging.RulesDebug("rule %s panicked: %v\n%s", r.Name, p, debug.Stack())
			vs, err = nil, fmt.Errorf("panic during evaluation: %v", p)
		}
	}()

	rows, err := r.Match(g)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		bindings := make([]string, len(row))
		for i, v := range row {
			bindings[i] = v.String()
		}
		vs = append(vs, types.NewViolation(r.Name, bindings))
	}
	return vs, nil
}
