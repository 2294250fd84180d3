package main

import (
	"context"
	"fmt"

	"storyagent/internal/agent"
	"storyagent/internal/checker"
	"storyagent/internal/config"
	"storyagent/internal/ontology"
	"storyagent/internal/perception"
)

// newChecker loads the background ontology named by the config and builds a
// checker from the configured limits. A broken background is fatal.
func newChecker(c *config.Config) (*checker.Checker, error) {
	if err := c.ValidateOffline(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	bg, err := ontology.LoadFile(c.Ontology.BackgroundPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load background ontology: %w", err)
	}
	return checker.New(bg, checker.Options{
		Mangle:     c.Mangle,
		Thresholds: c.Thresholds,
		Normalizer: c.Normalizer,
	})
}

// newController wires the configured model into the revision loop. client
// overrides the configured provider when set.
func newController(ctx context.Context, c *config.Config, client perception.LLMClient, observer func(agent.Event)) (*agent.Controller, error) {
	if client == nil {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		var err error
		client, err = perception.NewClientFromConfig(ctx, c.LLM, c.GetLLMTimeout())
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
	}

	chk, err := newChecker(c)
	if err != nil {
		return nil, err
	}
	return agent.NewController(agent.Config{
		Extractor:     perception.NewFactExtractor(client),
		Rewriter:      perception.NewStoryRewriter(client),
		Checker:       chk,
		MaxIterations: c.Agent.MaxIterations,
		Normalizer:    c.Normalizer,
		Observer:      observer,
	})
}
