package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"storyagent/internal/rules"
	"storyagent/internal/scenarios"
)

// rulesCmd lists the rule catalog
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the consistency rules and their limits",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Thresholds.Validate(); err != nil {
			return fmt.Errorf("invalid thresholds: %w", err)
		}
		catalog := rules.Catalog(cfg.Thresholds)
		out := cmd.OutOrStdout()
		if jsonOutput {
			type ruleInfo struct {
				Name        string `json:"name"`
				Description string `json:"description"`
			}
			infos := make([]ruleInfo, len(catalog))
			for i, r := range catalog {
				infos[i] = ruleInfo{Name: r.Name, Description: r.Description}
			}
			return writeJSON(out, map[string]any{
				"catalog_version": rules.CatalogVersion,
				"thresholds":      cfg.Thresholds,
				"rules":           infos,
			})
		}
		fmt.Fprint(out, renderRules(catalog, cfg.Thresholds))
		return nil
	},
}

var scenariosShow string

// scenariosCmd lists or shows demo scenarios
var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the demo scenarios",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if scenariosShow != "" {
			s, err := scenarios.Get(scenariosShow)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(out, s)
			}
			fmt.Fprint(out, renderScenario(s))
			return nil
		}

		all, err := scenarios.All()
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(out, all)
		}
		fmt.Fprint(out, renderScenarioList(all))
		return nil
	},
}

func init() {
	scenariosCmd.Flags().StringVar(&scenariosShow, "show", "", "Print one scenario in full")
}
