package perception

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"storyagent/internal/facts"
	"storyagent/internal/logging"
)

// ErrNoJSON is returned when a model reply contains no JSON object at all.
var ErrNoJSON = errors.New("no JSON object in model response")

var embeddedObject = regexp.MustCompile(`\{[\s\S]*\}`)

// FactExtractor asks a model to turn a story into a fact record.
type FactExtractor struct {
	client LLMClient
	// Attempts is how many times a malformed reply is retried. Zero means one attempt.
	Attempts int
}

// NewFactExtractor creates an extractor backed by client.
func NewFactExtractor(client LLMClient) *FactExtractor {
	return &FactExtractor{client: client, Attempts: 2}
}

// Extract returns the fact record for story. Parse warnings are logged; the
// normalizer reports field-level problems separately.
func (e *FactExtractor) Extract(ctx context.Context, story string) (*facts.Record, error) {
	if strings.TrimSpace(story) == "" {
		return &facts.Record{}, nil
	}

	attempts := e.Attempts
	if attempts < 1 {
		attempts = 1
	}

	prompt := BuildExtractionPrompt(story)
	var lastErr error
	for i := 0; i < attempts; i++ {
		raw, err := e.client.CompleteWithSystem(WithJSONMode(ctx), extractionSystemPrompt, prompt)
		if err != nil {
			// Transport failures were already retried by the client.
			return nil, fmt.Errorf("extraction request failed: %w", err)
		}

		rec, warnings, err := ParseExtraction(raw)
		if err != nil {
			logging.PerceptionDebug("extraction attempt %d unparseable: %v", i+1, err)
			lastErr = err
			continue
		}
		for _, w := range warnings {
			logging.PerceptionDebug("extraction warning: %s", w)
		}
		logging.Perception("extracted %d people, %d cities, %d landmarks, %d travels, %d climates, %d weather",
			len(rec.People), len(rec.Cities), len(rec.Landmarks), len(rec.Travels), len(rec.Climates), len(rec.Weather))
		return rec, nil
	}
	return nil, fmt.Errorf("extraction failed after %d attempts: %w", attempts, lastErr)
}

// ParseExtraction decodes a model reply into a fact record. It accepts raw
// JSON, JSON wrapped in a markdown fence, and JSON embedded in prose.
func ParseExtraction(raw string) (*facts.Record, []facts.Warning, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil, ErrNoJSON
	}

	// Direct parse
	rec, warnings, err := facts.ParseJSON([]byte(s))
	if err == nil {
		return rec, warnings, nil
	}
	firstErr := err

	// Markdown-wrapped
	if unwrapped := stripCodeFence(s); unwrapped != s {
		if rec, warnings, err := facts.ParseJSON([]byte(unwrapped)); err == nil {
			return rec, warnings, nil
		}
	}

	// Embedded in surrounding text
	match := embeddedObject.FindString(s)
	if match == "" {
		if errors.Is(firstErr, facts.ErrMissingData) {
			return nil, nil, firstErr
		}
		return nil, nil, ErrNoJSON
	}
	rec, warnings, err = facts.ParseJSON([]byte(match))
	if err != nil {
		return nil, nil, err
	}
	return rec, warnings, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
