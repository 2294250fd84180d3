package perception

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"storyagent/internal/logging"
)

// ErrEmptyRewrite is returned when the model reply has no story text left
// after cleanup.
var ErrEmptyRewrite = errors.New("model returned an empty rewrite")

var (
	rewritePreambles = []string{
		"Rewritten Story:",
		"Here is the rewritten story:",
	}
	trailingNote = regexp.MustCompile(`\s*\([^)]*\)$`)
)

// StoryRewriter asks a model for a minimal edit that removes violations.
type StoryRewriter struct {
	client LLMClient
}

// NewStoryRewriter creates a rewriter backed by client.
func NewStoryRewriter(client LLMClient) *StoryRewriter {
	return &StoryRewriter{client: client}
}

// Rewrite returns a revision of original that should no longer trigger
// violations. The prompt always carries the original story, not the latest
// revision.
func (r *StoryRewriter) Rewrite(ctx context.Context, original string, violations []string) (string, error) {
	prompt := BuildRewritePrompt(original, violations)
	raw, err := r.client.CompleteWithSystem(ctx, rewriteSystemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("rewrite request failed: %w", err)
	}

	story := CleanRewrite(raw)
	if story == "" {
		return "", ErrEmptyRewrite
	}
	logging.Perception("rewrite for %d violations: %d -> %d chars", len(violations), len(original), len(story))
	return story, nil
}

// CleanRewrite strips the preambles, wrapping quotes and trailing
// parenthetical notes models tend to add around a rewritten story.
func CleanRewrite(raw string) string {
	s := strings.TrimSpace(raw)
	for _, p := range rewritePreambles {
		if strings.HasPrefix(s, p) {
			s = strings.TrimSpace(strings.TrimPrefix(s, p))
		}
	}
	s = strings.TrimSpace(trailingNote.ReplaceAllString(s, ""))
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
