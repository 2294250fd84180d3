package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"storyagent/internal/checker"
	"storyagent/internal/facts"
	"storyagent/internal/scenarios"
)

// errInconsistent is returned in strict mode when violations remain.
var errInconsistent = errors.New("story is inconsistent")

var (
	checkScenario string
	checkStrict   bool
)

// checkCmd checks an extraction payload without any model.
var checkCmd = &cobra.Command{
	Use:   "check [facts.json | -]",
	Short: "Check an extraction payload against the ontology",
	Long: `Reads a fact payload of the form {"data": {...}} from a file, stdin ("-")
or a demo scenario, and prints the violations the rule catalog finds.

Example:
  storyagent check facts.json
  storyagent check --scenario story_3`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkScenario, "scenario", "s", "", "Check the canned facts of a demo scenario")
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "Exit non-zero when violations are found")
}

func runCheck(cmd *cobra.Command, args []string) error {
	rec, parseWarnings, err := loadRecord(cmd, args)
	if err != nil {
		return err
	}

	chk, err := newChecker(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	report, err := chk.CheckRecord(ctx, rec)
	if err != nil {
		return err
	}
	report.Warnings = append(parseWarnings, report.Warnings...)

	if err := printReport(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if checkStrict && !report.Consistent() {
		return fmt.Errorf("%w: %d violations", errInconsistent, len(report.Violations))
	}
	return nil
}

func loadRecord(cmd *cobra.Command, args []string) (*facts.Record, []facts.Warning, error) {
	switch {
	case checkScenario != "" && len(args) > 0:
		return nil, nil, errors.New("give either a facts file or --scenario, not both")
	case checkScenario != "":
		s, err := scenarios.Get(checkScenario)
		if err != nil {
			return nil, nil, err
		}
		return s.Facts()
	case len(args) == 0:
		return nil, nil, errors.New("a facts file, \"-\" or --scenario is required")
	case args[0] == "-":
		return facts.Parse(cmd.InOrStdin())
	default:
		return readRecordFile(args[0])
	}
}

func readRecordFile(path string) (*facts.Record, []facts.Warning, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open facts: %w", err)
	}
	defer f.Close()
	rec, warnings, err := facts.Parse(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return rec, warnings, nil
}

func printReport(w io.Writer, report *checker.Report) error {
	if jsonOutput {
		return writeJSON(w, report)
	}
	_, err := fmt.Fprint(w, renderReport(report))
	return err
}
