// Package agent runs the bounded revision loop: extract facts from a story,
// check them, and ask for a rewrite until the story is consistent or the
// iteration budget runs out.
package agent

import (
	"time"

	"storyagent/internal/facts"
	"storyagent/internal/types"
)

// Phase is the controller state.
type Phase string

const (
	PhaseExtracting Phase = "extracting" // Pulling facts out of the current story
	PhaseChecking   Phase = "checking"   // Running closure and rules
	PhaseDeciding   Phase = "deciding"   // Choosing between stop and rewrite
	PhaseRewriting  Phase = "rewriting"  // Asking for a revised story
	PhaseDone       Phase = "done"       // Terminal
)

// Outcome is how a run ended.
type Outcome string

const (
	OutcomeConsistent Outcome = "consistent" // No violations left
	OutcomeExhausted  Outcome = "exhausted"  // Iteration budget used up with violations left
	OutcomeAborted    Outcome = "aborted"    // Cancelled or a collaborator failed fatally
)

// Iteration records what one pass through the loop saw.
type Iteration struct {
	Number     int               `json:"number"`
	Story      string            `json:"story"`
	Facts      int               `json:"facts"`
	Violations []types.Violation `json:"violations"`
}

// State is the data threaded through one run. Each run owns its state.
type State struct {
	RunID         string `json:"run_id"`
	OriginalStory string `json:"original_story"`
	CurrentStory  string `json:"current_story"`

	ExtractedFacts  []types.Triple    `json:"-"`
	Warnings        []facts.Warning   `json:"warnings,omitempty"`
	Inconsistencies []types.Violation `json:"inconsistencies"`

	// IterationCount starts at 1 and grows by exactly one per rewrite.
	IterationCount int `json:"iteration_count"`
	MaxIterations  int `json:"max_iterations"`

	Phase   Phase       `json:"phase"`
	Outcome Outcome     `json:"outcome,omitempty"`
	History []Iteration `json:"history"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Rewrites is the number of rewrite transitions performed.
func (s *State) Rewrites() int {
	if s.IterationCount == 0 {
		return 0
	}
	return s.IterationCount - 1
}

// Messages returns the messages of the violations still open.
func (s *State) Messages() []string { return types.Messages(s.Inconsistencies) }

// Consistent reports whether the run ended without violations.
func (s *State) Consistent() bool { return s.Outcome == OutcomeConsistent }

// Event is emitted on every phase transition.
type Event struct {
	RunID     string    `json:"run_id"`
	Phase     Phase     `json:"phase"`
	Iteration int       `json:"iteration"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
