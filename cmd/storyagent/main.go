// Command storyagent checks stories against a background ontology and, with a
// language model attached, rewrites them until they are consistent.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"storyagent/internal/config"
	"storyagent/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string
	timeout    time.Duration
	jsonOutput bool

	// Loaded in PersistentPreRunE
	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "storyagent",
	Short: "Ontology-backed story consistency checker",
	Long: `storyagent turns a story into facts, closes them over a background
ontology and runs a catalog of consistency rules against the result.

Deterministic commands (check, batch, rules, scenarios) never call a model.
The run command drives the full extract, check and rewrite loop.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		lc := loaded.Logging.ToLogging()
		if verbose {
			lc.Level = "debug"
		}
		if err := logging.Initialize(lc); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		cfg = loaded
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "storyagent.yaml", "Config file (missing file means defaults)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "Operation timeout")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(scenariosCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
