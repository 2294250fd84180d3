package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"storyagent/internal/checker"
	"storyagent/internal/facts"
	"storyagent/internal/scenarios"
	"storyagent/internal/types"
)

var (
	batchScenarios   bool
	batchConcurrency int
)

// batchCmd checks many payloads concurrently against one background
var batchCmd = &cobra.Command{
	Use:   "batch [facts.json...]",
	Short: "Check many extraction payloads concurrently",
	Long: `Checks each payload independently. All checks share the same read-only
background ontology and run in parallel up to --concurrency at a time.

Example:
  storyagent batch runs/*.json
  storyagent batch --scenarios`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().BoolVar(&batchScenarios, "scenarios", false, "Check the canned facts of every demo scenario")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "Parallel checks (default agent.batch_concurrency)")
}

// batchItem is one named payload and, after checking, its report.
type batchItem struct {
	Name   string          `json:"name"`
	Report *checker.Report `json:"report"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	names, records, warnings, err := loadBatch(args)
	if err != nil {
		return err
	}

	chk, err := newChecker(cfg)
	if err != nil {
		return err
	}

	normalizer := facts.NewNormalizer(cfg.Normalizer)
	batches := make([][]types.Triple, len(records))
	for i, rec := range records {
		res := normalizer.Normalize(rec)
		batches[i] = res.Triples
		warnings[i] = append(warnings[i], res.Warnings...)
	}

	limit := batchConcurrency
	if limit == 0 {
		limit = cfg.Agent.BatchConcurrency
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	reports, err := chk.CheckMany(ctx, batches, limit)
	if err != nil {
		return err
	}

	items := make([]batchItem, len(reports))
	for i, r := range reports {
		r.Warnings = warnings[i]
		items[i] = batchItem{Name: names[i], Report: r}
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, items)
	}
	fmt.Fprint(out, renderBatch(items))
	return nil
}

func loadBatch(args []string) ([]string, []*facts.Record, [][]facts.Warning, error) {
	var (
		names    []string
		records  []*facts.Record
		warnings [][]facts.Warning
	)

	if batchScenarios {
		if len(args) > 0 {
			return nil, nil, nil, errors.New("give either facts files or --scenarios, not both")
		}
		all, err := scenarios.All()
		if err != nil {
			return nil, nil, nil, err
		}
		for _, s := range all {
			if !s.HasFacts() {
				continue
			}
			rec, w, err := s.Facts()
			if err != nil {
				return nil, nil, nil, err
			}
			names = append(names, s.Name)
			records = append(records, rec)
			warnings = append(warnings, w)
		}
		return names, records, warnings, nil
	}

	if len(args) == 0 {
		return nil, nil, nil, errors.New("at least one facts file or --scenarios is required")
	}
	for _, path := range args {
		rec, w, err := readRecordFile(path)
		if err != nil {
			return nil, nil, nil, err
		}
		names = append(names, path)
		records = append(records, rec)
		warnings = append(warnings, w)
	}
	return names, records, warnings, nil
}
