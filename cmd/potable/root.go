package main

import (
	"github.com/spf13/cobra"

	"github.com/hydroml/potable/pkg/log"
)

var (
	cfgFile  string
	logLevel string
	console  bool
)

var rootCmd = &cobra.Command{
	Use:   "potable",
	Short: "Water-potability data analysis and model comparison",
	Long: `potable loads the water-quality measurements dataset, imputes and
normalizes the predictors, and compares four classifier families via
grid search with cross-validation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log.Setup(logLevel, console)
		return nil
	},
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "pipeline config file (YAML)")
	pf.StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	pf.BoolVar(&console, "console", true, "human-readable console logging instead of JSON")

	rootCmd.AddCommand(describeCmd, runCmd)
}
