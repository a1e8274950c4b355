// Package pipeline composes the full water-potability analysis: load, impute,
// normalize, partition, grid-search four model families, evaluate and compare.
package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hydroml/potable/pkg/errors"
)

// StatsPolicy selects which rows the imputer and scaler learn their column
// statistics from.
type StatsPolicy string

const (
	// StatsTrain learns statistics from the training partition only and
	// applies them to both partitions. This is the corrected design.
	StatsTrain StatsPolicy = "train"

	// StatsFull learns statistics from the whole dataset before splitting,
	// reproducing the leaky behavior of the original analysis.
	StatsFull StatsPolicy = "full"
)

// ParseStatsPolicy validates a policy string, defaulting empty to StatsTrain.
func ParseStatsPolicy(s string) (StatsPolicy, error) {
	switch StatsPolicy(s) {
	case "":
		return StatsTrain, nil
	case StatsTrain, StatsFull:
		return StatsPolicy(s), nil
	default:
		return "", errors.NewConfigError("pipeline.ParseStatsPolicy", "stats_policy",
			fmt.Sprintf("want \"train\" or \"full\", got %q", s))
	}
}

// GridAxis is one hyperparameter and its candidate values. Axes are a list,
// not a map, so grid iteration order survives YAML round-trips.
type GridAxis struct {
	Param  string        `yaml:"param"`
	Values []interface{} `yaml:"values"`
}

// CandidateConfig names one model family and its hyperparameter grid.
type CandidateConfig struct {
	Name   string     `yaml:"name"`
	Family string     `yaml:"family"` // logistic, gbm, svc, forest
	Grid   []GridAxis `yaml:"grid"`
}

// Config is the typed pipeline configuration.
type Config struct {
	DataPath      string   `yaml:"data_path"`
	TargetColumn  string   `yaml:"target_column"`
	ImputeColumns []string `yaml:"impute_columns"` // empty means auto-detect

	FeatureRange [2]float64 `yaml:"feature_range"`
	TestFraction float64    `yaml:"test_fraction"`
	Seed         uint64     `yaml:"seed"`
	Folds        int        `yaml:"folds"`
	Scoring      string     `yaml:"scoring"`
	StatsPolicy  string     `yaml:"stats_policy"`
	Parallel     bool       `yaml:"parallel"`

	// PlotDir, when set, receives one confusion-matrix PNG per candidate.
	PlotDir string `yaml:"plot_dir"`

	Candidates []CandidateConfig `yaml:"candidates"`
}

// DefaultConfig mirrors the grids of the original water-potability analysis.
func DefaultConfig() Config {
	return Config{
		TargetColumn: "Potability",
		FeatureRange: [2]float64{0, 1},
		TestFraction: 0.3,
		Seed:         101,
		Folds:        5,
		Scoring:      "accuracy",
		StatsPolicy:  string(StatsTrain),
		Candidates: []CandidateConfig{
			{
				Name:   "LogisticRegression",
				Family: "logistic",
				Grid: []GridAxis{
					{Param: "C", Values: []interface{}{0.1, 1.0, 10.0}},
					{Param: "class_weight", Values: []interface{}{"balanced", "none"}},
				},
			},
			{
				Name:   "GradientBoosting",
				Family: "gbm",
				Grid: []GridAxis{
					{Param: "n_estimators", Values: []interface{}{50, 100}},
					{Param: "learning_rate", Values: []interface{}{0.05, 0.1}},
					{Param: "max_depth", Values: []interface{}{2, 3}},
				},
			},
			{
				Name:   "LinearSVC",
				Family: "svc",
				Grid: []GridAxis{
					{Param: "C", Values: []interface{}{0.1, 1.0, 10.0}},
					{Param: "class_weight", Values: []interface{}{"balanced", "none"}},
				},
			},
			{
				Name:   "RandomForest",
				Family: "forest",
				Grid: []GridAxis{
					{Param: "n_estimators", Values: []interface{}{50, 100}},
					{Param: "max_depth", Values: []interface{}{0, 8}},
				},
			},
		},
	}
}

// LoadConfig reads a YAML config file on top of the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "pipeline.LoadConfig: read %s", path)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, errors.NewConfigError("pipeline.LoadConfig", "file",
			fmt.Sprintf("parse %s: %v", path, err))
	}
	return cfg, nil
}

// Validate checks the configuration before any work happens.
func (c Config) Validate() error {
	if c.DataPath == "" {
		return errors.NewConfigError("Config.Validate", "data_path", "must be set")
	}
	if c.TargetColumn == "" {
		return errors.NewConfigError("Config.Validate", "target_column", "must be set")
	}
	if c.TestFraction <= 0 || c.TestFraction >= 1 {
		return errors.NewConfigError("Config.Validate", "test_fraction",
			"must lie strictly between 0 and 1")
	}
	if c.FeatureRange[0] >= c.FeatureRange[1] {
		return errors.NewConfigError("Config.Validate", "feature_range",
			"lower bound must be below upper bound")
	}
	if c.Folds < 2 {
		return errors.NewConfigError("Config.Validate", "folds", "need at least 2 folds")
	}
	if _, err := ParseStatsPolicy(c.StatsPolicy); err != nil {
		return err
	}
	switch c.Scoring {
	case "", "accuracy", "precision", "recall", "f1":
	default:
		return errors.NewConfigError("Config.Validate", "scoring",
			fmt.Sprintf("unknown metric %q", c.Scoring))
	}
	if len(c.Candidates) == 0 {
		return errors.NewConfigError("Config.Validate", "candidates", "at least one candidate required")
	}
	seen := make(map[string]bool, len(c.Candidates))
	for _, cand := range c.Candidates {
		if cand.Name == "" {
			return errors.NewConfigError("Config.Validate", "candidates", "candidate name must be set")
		}
		if seen[cand.Name] {
			return errors.NewConfigError("Config.Validate", "candidates",
				fmt.Sprintf("duplicate candidate name %q", cand.Name))
		}
		seen[cand.Name] = true
		if len(cand.Grid) == 0 {
			return errors.NewConfigError("Config.Validate", "candidates",
				fmt.Sprintf("candidate %q has an empty grid", cand.Name))
		}
	}
	return nil
}
