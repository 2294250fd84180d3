package agent

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"storyagent/internal/checker"
	"storyagent/internal/facts"
	"storyagent/internal/ontology"
	"storyagent/internal/rules"
	"storyagent/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// storyExtractor maps story texts to canned records.
type storyExtractor struct {
	mu      sync.Mutex
	records map[string]*facts.Record
	err     error
	calls   []string
}

func (e *storyExtractor) Extract(_ context.Context, story string) (*facts.Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, story)
	if e.err != nil {
		return nil, e.err
	}
	return e.records[story], nil
}

// scriptedRewriter returns its replies in order and repeats the last one.
type scriptedRewriter struct {
	replies []string
	err     error
	calls   int
	seen    [][]string
	origs   []string
}

func (r *scriptedRewriter) Rewrite(_ context.Context, original string, violations []string) (string, error) {
	r.calls++
	r.origs = append(r.origs, original)
	r.seen = append(r.seen, violations)
	if r.err != nil {
		return "", r.err
	}
	i := r.calls - 1
	if i >= len(r.replies) {
		i = len(r.replies) - 1
	}
	return r.replies[i], nil
}

type countingChecker struct {
	inner Checker
	calls int
	sizes []int
}

func (c *countingChecker) Check(ctx context.Context, ts []types.Triple) (*checker.Report, error) {
	c.calls++
	c.sizes = append(c.sizes, len(ts))
	return c.inner.Check(ctx, ts)
}

func realChecker(t *testing.T) *countingChecker {
	t.Helper()
	bg, err := ontology.LoadEmbedded()
	require.NoError(t, err)
	c, err := checker.New(bg, checker.DefaultOptions())
	require.NoError(t, err)
	return &countingChecker{inner: c}
}

func marriedTeen() *facts.Record {
	return &facts.Record{People: []facts.Entity{
		{"id": "Tom", "age": 16, "isMarriedTo": "Mia"},
	}}
}

func marriedAdult() *facts.Record {
	return &facts.Record{People: []facts.Entity{
		{"id": "Tom", "age": 30, "isMarriedTo": "Mia"},
	}}
}

func TestNewControllerValidates(t *testing.T) {
	_, err := NewController(Config{MaxIterations: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extractor is required")
	assert.Contains(t, err.Error(), "rewriter is required")
	assert.Contains(t, err.Error(), "checker is required")
	assert.Contains(t, err.Error(), "must not be negative")

	c, err := NewController(Config{
		Extractor: &storyExtractor{},
		Rewriter:  &scriptedRewriter{},
		Checker:   realChecker(t),
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxIterations, c.maxIter)
}

func TestRunConsistentFirstPass(t *testing.T) {
	ext := &storyExtractor{records: map[string]*facts.Record{"v1": marriedAdult()}}
	rw := &scriptedRewriter{replies: []string{"never"}}
	ctrl, err := NewController(Config{Extractor: ext, Rewriter: rw, Checker: realChecker(t), MaxIterations: 3})
	require.NoError(t, err)

	st, err := ctrl.Run(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeConsistent, st.Outcome)
	assert.Equal(t, PhaseDone, st.Phase)
	assert.Equal(t, 1, st.IterationCount)
	assert.Zero(t, st.Rewrites())
	assert.Zero(t, rw.calls)
	assert.NotEmpty(t, st.RunID)
	assert.NotEmpty(t, st.ExtractedFacts)
}

func TestRunFixedAfterOneRewrite(t *testing.T) {
	ext := &storyExtractor{records: map[string]*facts.Record{
		"v1": marriedTeen(),
		"v2": marriedAdult(),
	}}
	rw := &scriptedRewriter{replies: []string{"v2"}}
	ctrl, err := NewController(Config{Extractor: ext, Rewriter: rw, Checker: realChecker(t), MaxIterations: 3})
	require.NoError(t, err)

	st, err := ctrl.Run(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeConsistent, st.Outcome)
	assert.Equal(t, 2, st.IterationCount)
	assert.Equal(t, "v1", st.OriginalStory)
	assert.Equal(t, "v2", st.CurrentStory)
	assert.Empty(t, st.Inconsistencies)

	require.Len(t, st.History, 2)
	require.Len(t, st.History[0].Violations, 1)
	assert.Equal(t, types.Violation{
		Rule:     rules.RuleUnderageMarriage,
		Bindings: []string{"demo:Tom", "16"},
		Message:  "rule 'underage_marriage': demo:Tom, 16",
	}, st.History[0].Violations[0])
	assert.Empty(t, st.History[1].Violations)

	require.Equal(t, 1, rw.calls)
	assert.Equal(t, []string{"v1"}, rw.origs)
	assert.Equal(t, [][]string{{"rule 'underage_marriage': demo:Tom, 16"}}, rw.seen)
}

// TestRunTerminatesWhenRewritesNeverHelp covers the iteration bound: with a
// budget of three the loop rewrites twice and stops exhausted.
func TestRunTerminatesWhenRewritesNeverHelp(t *testing.T) {
	ext := &storyExtractor{records: map[string]*facts.Record{
		"v1": marriedTeen(),
		"v2": marriedTeen(),
	}}
	rw := &scriptedRewriter{replies: []string{"v2"}}
	chk := realChecker(t)
	ctrl, err := NewController(Config{Extractor: ext, Rewriter: rw, Checker: chk, MaxIterations: 3})
	require.NoError(t, err)

	st, err := ctrl.Run(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeExhausted, st.Outcome)
	assert.Equal(t, 3, st.IterationCount)
	assert.Equal(t, 2, st.Rewrites())
	assert.Equal(t, 2, rw.calls)
	assert.Equal(t, 3, chk.calls)
	require.Len(t, st.Inconsistencies, 1)
	assert.Equal(t, rules.RuleUnderageMarriage, st.Inconsistencies[0].Rule)
	assert.Equal(t, []string{"demo:Tom", "16"}, st.Inconsistencies[0].Bindings)
	assert.Equal(t, []string{"rule 'underage_marriage': demo:Tom, 16"}, st.Messages())
	assert.Len(t, st.History, 3)
	for _, orig := range rw.origs {
		assert.Equal(t, "v1", orig, "rewrites always start from the original story")
	}
}

func TestRunExtractionFailureMeansNoFacts(t *testing.T) {
	ext := &storyExtractor{err: errors.New("model returned prose")}
	chk := realChecker(t)
	ctrl, err := NewController(Config{Extractor: ext, Rewriter: &scriptedRewriter{}, Checker: chk})
	require.NoError(t, err)

	st, err := ctrl.Run(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, OutcomeConsistent, st.Outcome)
	assert.Empty(t, st.ExtractedFacts)
	assert.Equal(t, []int{0}, chk.sizes)
}

func TestRunAbortsOnRewriteError(t *testing.T) {
	ext := &storyExtractor{records: map[string]*facts.Record{"v1": marriedTeen()}}
	rw := &scriptedRewriter{err: errors.New("quota exceeded")}
	ctrl, err := NewController(Config{Extractor: ext, Rewriter: rw, Checker: realChecker(t)})
	require.NoError(t, err)

	st, err := ctrl.Run(context.Background(), "v1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, OutcomeAborted, st.Outcome)
	assert.Equal(t, 1, st.IterationCount)
	assert.Len(t, st.Inconsistencies, 1)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ctrl, err := NewController(Config{Extractor: &storyExtractor{}, Rewriter: &scriptedRewriter{}, Checker: realChecker(t)})
	require.NoError(t, err)

	st, err := ctrl.Run(ctx, "v1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, OutcomeAborted, st.Outcome)
}

func TestObserverSeesEveryPhase(t *testing.T) {
	ext := &storyExtractor{records: map[string]*facts.Record{"v1": marriedTeen(), "v2": marriedAdult()}}
	var phases []Phase
	ctrl, err := NewController(Config{
		Extractor: ext,
		Rewriter:  &scriptedRewriter{replies: []string{"v2"}},
		Checker:   realChecker(t),
		Observer:  func(e Event) { phases = append(phases, e.Phase) },
	})
	require.NoError(t, err)

	_, err = ctrl.Run(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, []Phase{
		PhaseExtracting, PhaseChecking, PhaseDeciding, PhaseRewriting,
		PhaseExtracting, PhaseChecking, PhaseDeciding,
	}, phases)
}
