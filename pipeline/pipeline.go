package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/hydroml/potable/dataset"
	"github.com/hydroml/potable/metrics"
	"github.com/hydroml/potable/modelselection"
	"github.com/hydroml/potable/pkg/errors"
	"github.com/hydroml/potable/pkg/log"
	"github.com/hydroml/potable/preprocessing"
)

// Pipeline runs the complete analysis described by a Config.
type Pipeline struct {
	cfg    Config
	policy StatsPolicy
	logger zerolog.Logger
}

// New validates the configuration and builds a runnable pipeline.
func New(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := ParseStatsPolicy(cfg.StatsPolicy)
	if err != nil {
		return nil, err
	}
	return &Pipeline{cfg: cfg, policy: policy, logger: log.Logger("pipeline")}, nil
}

// prepared holds the partitioned, fully preprocessed dataset.
type prepared struct {
	xTrain, xTest *mat.Dense
	yTrain, yTest *mat.VecDense
}

// Run executes load, preprocessing, the per-candidate searches and the final
// evaluation. DataError and ConfigError abort the run; a candidate whose
// every grid combination failed stays in the comparison as a failed entry.
func (p *Pipeline) Run(ctx context.Context) (*Comparison, error) {
	table, err := loadTable(p.cfg)
	if err != nil {
		return nil, err
	}
	p.logger.Info().
		Int("rows", table.NRows()).
		Int("features", table.NFeatures()).
		Strs("missing_columns", table.ColumnsWithMissing()).
		Msg("dataset loaded")

	prep, err := p.prepare(table)
	if err != nil {
		return nil, err
	}

	comparison := &Comparison{Scoring: p.cfg.Scoring}
	for _, candCfg := range p.cfg.Candidates {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "pipeline.Run: canceled")
		}

		outcome, err := p.runCandidate(candCfg, prep)
		if err != nil {
			return nil, err
		}
		comparison.Outcomes = append(comparison.Outcomes, outcome)
	}

	if p.cfg.PlotDir != "" {
		if err := WriteConfusionPlots(p.cfg.PlotDir, comparison); err != nil {
			return nil, err
		}
	}
	return comparison, nil
}

// loadTable reads the configured dataset.
func loadTable(cfg Config) (*dataset.Table, error) {
	return dataset.ReadCSV(cfg.DataPath, cfg.TargetColumn)
}

// prepare imputes, partitions and normalizes according to the stats policy.
func (p *Pipeline) prepare(table *dataset.Table) (*prepared, error) {
	imputeCols, err := p.imputeColumns(table)
	if err != nil {
		return nil, err
	}

	X := table.Features()
	y := table.Target()

	imputer := preprocessing.NewMedianImputer(imputeCols...)
	imputer.Names = table.Columns()
	scaler := preprocessing.NewMinMaxScaler(p.cfg.FeatureRange)

	if p.policy == StatsFull {
		// Legacy behavior: statistics learned from the whole dataset before
		// the split, so test rows leak into the reference set.
		imputed, err := imputer.FitTransform(X)
		if err != nil {
			return nil, err
		}
		scaled, err := scaler.FitTransform(imputed)
		if err != nil {
			return nil, err
		}
		split, err := modelselection.TrainTestSplit(scaled, y, p.cfg.TestFraction, p.cfg.Seed)
		if err != nil {
			return nil, err
		}
		return &prepared{split.XTrain, split.XTest, split.YTrain, split.YTest}, nil
	}

	// Corrected design: partition first, learn statistics on the training
	// rows only, then apply them to both partitions.
	split, err := modelselection.TrainTestSplit(X, y, p.cfg.TestFraction, p.cfg.Seed)
	if err != nil {
		return nil, err
	}

	if err := imputer.Fit(split.XTrain); err != nil {
		return nil, err
	}
	xTrain, err := imputer.Transform(split.XTrain)
	if err != nil {
		return nil, err
	}
	xTest, err := imputer.Transform(split.XTest)
	if err != nil {
		return nil, err
	}

	if err := scaler.Fit(xTrain); err != nil {
		return nil, err
	}
	xTrainScaled, err := scaler.Transform(xTrain)
	if err != nil {
		return nil, err
	}
	xTestScaled, err := scaler.Transform(xTest)
	if err != nil {
		return nil, err
	}

	return &prepared{
		xTrain: denseOf(xTrainScaled),
		xTest:  denseOf(xTestScaled),
		yTrain: split.YTrain,
		yTest:  split.YTest,
	}, nil
}

// imputeColumns resolves the configured column names to indices. With no
// configuration, every column with an observed missing entry is treated.
// Detection scans the whole table; only the fill values follow the policy.
func (p *Pipeline) imputeColumns(table *dataset.Table) ([]int, error) {
	if len(p.cfg.ImputeColumns) == 0 {
		var cols []int
		for i, n := range table.MissingCounts() {
			if n > 0 {
				cols = append(cols, i)
			}
		}
		return cols, nil
	}

	cols := make([]int, 0, len(p.cfg.ImputeColumns))
	for _, name := range p.cfg.ImputeColumns {
		idx := table.ColumnIndex(name)
		if idx < 0 {
			return nil, errors.NewConfigError("pipeline.imputeColumns", "impute_columns",
				fmt.Sprintf("column %q not in dataset", name))
		}
		cols = append(cols, idx)
	}
	return cols, nil
}

// runCandidate searches one family's grid and evaluates the refitted best
// model on the test partition.
func (p *Pipeline) runCandidate(cfg CandidateConfig, prep *prepared) (Outcome, error) {
	cand, err := buildCandidate(cfg, p.cfg.Seed)
	if err != nil {
		return Outcome{}, err
	}

	p.logger.Info().
		Str("candidate", cand.Name).
		Int("combinations", cand.Grid.Size()).
		Msg("grid search started")

	gs := modelselection.NewGridSearchCV(cand.Factory, cand.Grid)
	gs.K = p.cfg.Folds
	gs.Scoring = modelselection.Scoring(p.cfg.Scoring)
	gs.Seed = p.cfg.Seed
	gs.Parallel = p.cfg.Parallel

	if err := gs.Fit(prep.xTrain, prep.yTrain); err != nil {
		// A candidate whose every combination failed stays in the report;
		// configuration and data problems abort the run.
		if errors.IsConfig(err) || errors.IsData(err) {
			return Outcome{}, err
		}
		p.logger.Error().Err(err).Str("candidate", cand.Name).Msg("candidate failed")
		return Outcome{Name: cand.Name, Err: err}, nil
	}

	pred, err := gs.Best.Predict(prep.xTest)
	if err != nil {
		return Outcome{}, errors.Wrapf(err, "pipeline.runCandidate: %s test prediction", cand.Name)
	}
	report, err := metrics.NewReport(prep.yTest, firstColumnVec(pred))
	if err != nil {
		return Outcome{}, err
	}

	p.logger.Info().
		Str("candidate", cand.Name).
		Interface("best_params", gs.BestParams).
		Float64("cv_score", gs.BestScore).
		Float64("test_accuracy", report.Accuracy).
		Msg("candidate evaluated")

	return Outcome{
		Name:       cand.Name,
		BestParams: gs.BestParams,
		CVScore:    gs.BestScore,
		Report:     report,
	}, nil
}

func denseOf(m mat.Matrix) *mat.Dense {
	if d, ok := m.(*mat.Dense); ok {
		return d
	}
	return mat.DenseCopyOf(m)
}

func firstColumnVec(m mat.Matrix) *mat.VecDense {
	r, _ := m.Dims()
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}
