package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hydroml/potable/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full preprocessing and model-comparison pipeline",
	Long: `run loads the dataset, imputes missing values with column medians,
normalizes the predictors, partitions into train and test sets, grid-searches
each configured model family and prints the comparison report.

Settings come from the --config YAML file; flags and POTABLE_* environment
variables override it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := pipeline.DefaultConfig()
		if cfgFile != "" {
			loaded, err := pipeline.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			cfg = loaded
		}
		applyOverrides(&cfg)

		p, err := pipeline.New(cfg)
		if err != nil {
			return err
		}
		comparison, err := p.Run(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Print(comparison.String())
		return nil
	},
}

// applyOverrides layers viper-bound flag and environment values over the
// file-based configuration. Zero values mean "not set".
func applyOverrides(cfg *pipeline.Config) {
	if v := viper.GetString("data"); v != "" {
		cfg.DataPath = v
	}
	if v := viper.GetString("target"); v != "" {
		cfg.TargetColumn = v
	}
	if v := viper.GetFloat64("test-fraction"); v > 0 {
		cfg.TestFraction = v
	}
	if viper.IsSet("seed") && viper.GetUint64("seed") != 0 {
		cfg.Seed = viper.GetUint64("seed")
	}
	if v := viper.GetInt("folds"); v > 0 {
		cfg.Folds = v
	}
	if v := viper.GetString("scoring"); v != "" {
		cfg.Scoring = v
	}
	if v := viper.GetString("stats-policy"); v != "" {
		cfg.StatsPolicy = v
	}
	if v := viper.GetString("plots"); v != "" {
		cfg.PlotDir = v
	}
	if viper.GetBool("parallel") {
		cfg.Parallel = true
	}
}

func init() {
	f := runCmd.Flags()
	f.String("data", "", "path to the dataset CSV")
	f.String("target", "", "label column name")
	f.Float64("test-fraction", 0, "held-out test fraction in (0,1)")
	f.Uint64("seed", 0, "random seed for the split and the searches")
	f.Int("folds", 0, "cross-validation fold count")
	f.String("scoring", "", "selection metric: accuracy, precision, recall or f1")
	f.String("stats-policy", "", "imputer/scaler reference set: train or full")
	f.String("plots", "", "directory for confusion-matrix PNGs")
	f.Bool("parallel", false, "evaluate grid combinations in parallel")

	for _, name := range []string{
		"data", "target", "test-fraction", "seed", "folds",
		"scoring", "stats-policy", "plots", "parallel",
	} {
		_ = viper.BindPFlag(name, f.Lookup(name))
	}
	viper.SetEnvPrefix("POTABLE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}
