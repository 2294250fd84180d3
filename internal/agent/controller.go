package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"storyagent/internal/checker"
	"storyagent/internal/facts"
	"storyagent/internal/logging"
	"storyagent/internal/types"
)

// DefaultMaxIterations bounds a run when the config leaves it unset.
const DefaultMaxIterations = 3

// Extractor turns a story into a fact record.
type Extractor interface {
	Extract(ctx context.Context, story string) (*facts.Record, error)
}

// Rewriter produces a revised story from the original and the violations
// found in the current version.
type Rewriter interface {
	Rewrite(ctx context.Context, original string, violations []string) (string, error)
}

// Checker finds violations in a fact set.
type Checker interface {
	Check(ctx context.Context, triples []types.Triple) (*checker.Report, error)
}

// Config wires the controller's collaborators.
type Config struct {
	Extractor Extractor
	Rewriter  Rewriter
	Checker   Checker

	// MaxIterations of zero means DefaultMaxIterations.
	MaxIterations int
	// Normalizer of zero value means facts.DefaultOptions.
	Normalizer facts.Options
	// Observer, when set, receives every phase transition synchronously.
	Observer func(Event)
}

// Controller coordinates extraction, checking and rewriting. It keeps no
// per-run state, so one controller may run many stories.
type Controller struct {
	extractor  Extractor
	rewriter   Rewriter
	checker    Checker
	normalizer *facts.Normalizer
	maxIter    int
	observer   func(Event)
}

// NewController validates cfg and builds a controller.
func NewController(cfg Config) (*Controller, error) {
	var errs []error
	if cfg.Extractor == nil {
		errs = append(errs, errors.New("extractor is required"))
	}
	if cfg.Rewriter == nil {
		errs = append(errs, errors.New("rewriter is required"))
	}
	if cfg.Checker == nil {
		errs = append(errs, errors.New("checker is required"))
	}
	if cfg.MaxIterations < 0 {
		errs = append(errs, fmt.Errorf("max iterations must not be negative, got %d", cfg.MaxIterations))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid controller config: %w", err)
	}

	maxIter := cfg.MaxIterations
	if maxIter == 0 {
		maxIter = DefaultMaxIterations
	}
	normOpts := cfg.Normalizer
	if normOpts == (facts.Options{}) {
		normOpts = facts.DefaultOptions()
	}
	return &Controller{
		extractor:  cfg.Extractor,
		rewriter:   cfg.Rewriter,
		checker:    cfg.Checker,
		normalizer: facts.NewNormalizer(normOpts),
		maxIter:    maxIter,
		observer:   cfg.Observer,
	}, nil
}

// Run drives story through the loop until it is consistent, the budget is
// exhausted or ctx is cancelled. The returned state is always non-nil; the
// error is set only for aborted runs.
func (c *Controller) Run(ctx context.Context, story string) (*State, error) {
	st := &State{
		RunID:          uuid.NewString(),
		OriginalStory:  story,
		CurrentStory:   story,
		IterationCount: 1,
		MaxIterations:  c.maxIter,
		StartedAt:      time.Now(),
	}
	log := logging.Get(logging.CategoryAgent).With("run_id", st.RunID)
	log.Info("run started (max %d iterations)", st.MaxIterations)

	st.Phase = PhaseExtracting
	for st.Phase != PhaseDone {
		if err := ctx.Err(); err != nil {
			return c.abort(st, err)
		}

		switch st.Phase {
		case PhaseExtracting:
			c.emit(st, "extracting facts")
			c.extract(ctx, st)
			st.Phase = PhaseChecking

		case PhaseChecking:
			c.emit(st, fmt.Sprintf("checking %d facts", len(st.ExtractedFacts)))
			report, err := c.checker.Check(ctx, st.ExtractedFacts)
			if err != nil {
				return c.abort(st, fmt.Errorf("check failed: %w", err))
			}
			st.Inconsistencies = report.Violations
			st.History = append(st.History, Iteration{
				Number:     st.IterationCount,
				Story:      st.CurrentStory,
				Facts:      len(st.ExtractedFacts),
				Violations: st.Inconsistencies,
			})
			st.Phase = PhaseDeciding

		case PhaseDeciding:
			c.emit(st, fmt.Sprintf("%d violations", len(st.Inconsistencies)))
			switch {
			case len(st.Inconsistencies) == 0:
				st.Outcome = OutcomeConsistent
				st.Phase = PhaseDone
			case st.IterationCount >= st.MaxIterations:
				st.Outcome = OutcomeExhausted
				st.Phase = PhaseDone
			default:
				st.Phase = PhaseRewriting
			}

		case PhaseRewriting:
			c.emit(st, "rewriting story")
			revised, err := c.rewriter.Rewrite(ctx, st.OriginalStory, st.Messages())
			if err != nil {
				return c.abort(st, fmt.Errorf("rewrite failed: %w", err))
			}
			st.CurrentStory = revised
			st.Inconsistencies = nil
			st.IterationCount++
			st.Phase = PhaseExtracting
		}
	}

	st.FinishedAt = time.Now()
	log.Info("run finished: %s after %d rewrites, %d violations left",
		st.Outcome, st.Rewrites(), len(st.Inconsistencies))
	return st, nil
}

// extract fills st.ExtractedFacts. Extraction failures yield no facts
// rather than an error so the run can continue.
func (c *Controller) extract(ctx context.Context, st *State) {
	st.ExtractedFacts, st.Warnings = nil, nil

	rec, err := c.extractor.Extract(ctx, st.CurrentStory)
	if err != nil {
		logging.AgentWarn("run %s: extraction failed, continuing with no facts: %v", st.RunID, err)
		return
	}
	if rec == nil || rec.Empty() {
		logging.AgentDebug("run %s: extraction returned no facts", st.RunID)
		return
	}

	res := c.normalizer.Normalize(rec)
	st.ExtractedFacts = res.Triples
	st.Warnings = res.Warnings
	for _, w := range res.Warnings {
		logging.AgentDebug("run %s: %s", st.RunID, w)
	}
}

func (c *Controller) abort(st *State, err error) (*State, error) {
	st.Outcome = OutcomeAborted
	st.Phase = PhaseDone
	st.FinishedAt = time.Now()
	logging.AgentWarn("run %s aborted at iteration %d: %v", st.RunID, st.IterationCount, err)
	c.emit(st, err.Error())
	return st, err
}

func (c *Controller) emit(st *State, msg string) {
	logging.AgentDebug("run %s [%d] %s: %s", st.RunID, st.IterationCount, st.Phase, msg)
	if c.observer == nil {
		return
	}
	c.observer(Event{
		RunID:     st.RunID,
		Phase:     st.Phase,
		Iteration: st.IterationCount,
		Message:   msg,
		Timestamp: time.Now(),
	})
}
