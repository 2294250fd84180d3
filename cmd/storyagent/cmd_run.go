package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"storyagent/internal/agent"
	"storyagent/internal/logging"
	"storyagent/internal/perception"
	"storyagent/internal/scenarios"
)

var (
	runScenario      string
	runFile          string
	runMaxIterations int
	runQuiet         bool

	// runClient replaces the configured model; tests inject a scripted one.
	runClient perception.LLMClient
)

// runCmd drives the revision loop
var runCmd = &cobra.Command{
	Use:   "run [story]",
	Short: "Extract, check and rewrite a story until it is consistent",
	Long: `Runs the revision loop on a story:
  1. Extract: the model turns the story into facts
  2. Check: facts are closed over the ontology and the rules run
  3. Decide: stop when consistent or out of iterations
  4. Rewrite: the model minimally edits the original story, then back to 1

The story comes from the argument, --file or --scenario.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStory,
}

func init() {
	runCmd.Flags().StringVarP(&runScenario, "scenario", "s", "", "Run a demo scenario")
	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "Read the story from a file")
	runCmd.Flags().IntVar(&runMaxIterations, "max-iterations", 0, "Override agent.max_iterations")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "Do not print phase transitions")
}

func runStory(cmd *cobra.Command, args []string) error {
	story, err := loadStory(args)
	if err != nil {
		return err
	}
	if runMaxIterations < 0 {
		return fmt.Errorf("--max-iterations must not be negative, got %d", runMaxIterations)
	}
	if runMaxIterations > 0 {
		cfg.Agent.MaxIterations = runMaxIterations
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	// Cancel the loop on interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logging.Agent("received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	out := cmd.OutOrStdout()
	var observer func(agent.Event)
	if !runQuiet && !jsonOutput {
		observer = func(ev agent.Event) {
			fmt.Fprintln(out, renderEvent(ev))
		}
	}

	ctrl, err := newController(ctx, cfg, runClient, observer)
	if err != nil {
		return err
	}

	state, runErr := ctrl.Run(ctx, story)
	if jsonOutput {
		if err := writeJSON(out, state); err != nil {
			return err
		}
	} else {
		fmt.Fprint(out, renderState(state))
	}
	if runErr != nil {
		return fmt.Errorf("run %s aborted: %w", state.RunID, runErr)
	}
	return nil
}

func loadStory(args []string) (string, error) {
	sources := 0
	for _, set := range []bool{len(args) > 0, runFile != "", runScenario != ""} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return "", errors.New("give exactly one of a story argument, --file or --scenario")
	}

	switch {
	case runScenario != "":
		s, err := scenarios.Get(runScenario)
		if err != nil {
			return "", err
		}
		return s.Story, nil
	case runFile != "":
		data, err := os.ReadFile(runFile)
		if err != nil {
			return "", fmt.Errorf("failed to read story: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	default:
		return args[0], nil
	}
}
