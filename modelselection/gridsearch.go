package modelselection

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/hydroml/potable/core/model"
	"github.com/hydroml/potable/core/parallel"
	"github.com/hydroml/potable/metrics"
	"github.com/hydroml/potable/pkg/errors"
	"github.com/hydroml/potable/pkg/log"
)

// Scoring names the metric grid search optimizes. Precision, recall and F1
// are computed for the positive class (label 1).
type Scoring string

const (
	ScoringAccuracy  Scoring = "accuracy"
	ScoringPrecision Scoring = "precision"
	ScoringRecall    Scoring = "recall"
	ScoringF1        Scoring = "f1"
)

// Evaluate scores predictions against true labels under this metric.
func (s Scoring) Evaluate(yTrue, yPred *mat.VecDense) (float64, error) {
	switch s {
	case ScoringAccuracy, "":
		return metrics.Accuracy(yTrue, yPred)
	case ScoringPrecision, ScoringRecall, ScoringF1:
		cm, err := metrics.NewConfusionMatrix(yTrue, yPred)
		if err != nil {
			return 0, err
		}
		switch s {
		case ScoringPrecision:
			return cm.Precision(1), nil
		case ScoringRecall:
			return cm.Recall(1), nil
		default:
			return cm.F1(1), nil
		}
	default:
		return 0, errors.NewConfigError("Scoring.Evaluate", "scoring",
			fmt.Sprintf("unknown metric %q", string(s)))
	}
}

// CandidateResult records the outcome of one hyperparameter combination.
type CandidateResult struct {
	Params     map[string]interface{}
	FoldScores []float64
	MeanScore  float64

	// Err is the FitError that excluded this combination, nil on success.
	Err error
}

// GridSearchCV performs an exhaustive search over a hyperparameter grid with
// k-fold cross-validation, then refits the best combination on the full
// training data.
//
// A combination whose fit fails is recorded and skipped; the search only
// fails when every combination does. Ties on the mean score go to the
// combination encountered first in grid iteration order.
type GridSearchCV struct {
	// Factory creates a fresh, unfitted estimator. The estimator must
	// implement model.ParameterSetter so combinations can be applied.
	Factory func() model.Classifier

	Grid    *ParamGrid
	CV      Splitter // defaults to StratifiedKFold(K, shuffle, Seed)
	K       int      // fold count when CV is nil, default 5
	Scoring Scoring
	Seed    uint64

	// Parallel evaluates combinations across workers. Selection order is
	// unaffected; results are merged deterministically.
	Parallel bool

	BestParams map[string]interface{}
	BestScore  float64
	BestIndex  int
	Best       model.Classifier
	Results    []CandidateResult
}

// NewGridSearchCV creates a grid search over factory-produced estimators.
func NewGridSearchCV(factory func() model.Classifier, grid *ParamGrid) *GridSearchCV {
	return &GridSearchCV{Factory: factory, Grid: grid, K: 5, Scoring: ScoringAccuracy, BestIndex: -1}
}

// Fit runs the search on the training partition.
func (gs *GridSearchCV) Fit(X mat.Matrix, y *mat.VecDense) error {
	logger := log.Logger("modelselection")

	if gs.Grid == nil || gs.Grid.Size() == 0 {
		return errors.NewConfigError("GridSearchCV.Fit", "grid", "hyperparameter grid is empty")
	}
	n, _ := X.Dims()
	if y.Len() != n {
		return errors.NewDimensionError("GridSearchCV.Fit", n, y.Len(), 0)
	}

	cv := gs.CV
	if cv == nil {
		k := gs.K
		if k < 2 {
			k = 5
		}
		cv = NewStratifiedKFold(k, true, gs.Seed)
	}
	if n < cv.NSplits() {
		return errors.NewConfigError("GridSearchCV.Fit", "cv",
			fmt.Sprintf("fold count %d exceeds %d rows", cv.NSplits(), n))
	}

	combos := gs.Grid.Combinations()

	// Reject bad parameter names/values before any fitting happens.
	for _, combo := range combos {
		probe := gs.Factory()
		if err := setParams(probe, combo); err != nil {
			return err
		}
	}

	folds := cv.Split(X, y)
	gs.Results = make([]CandidateResult, len(combos))

	evaluate := func(start, end int) {
		for ci := start; ci < end; ci++ {
			gs.Results[ci] = gs.evaluateCombo(X, y, combos[ci], folds)
		}
	}
	if gs.Parallel {
		parallel.Parallelize(len(combos), evaluate)
	} else {
		evaluate(0, len(combos))
	}

	// Select the best mean score; strict comparison keeps the first
	// combination on ties.
	gs.BestIndex = -1
	var firstErr error
	for i, res := range gs.Results {
		if res.Err != nil {
			if firstErr == nil {
				firstErr = res.Err
			}
			logger.Warn().Err(res.Err).Interface("params", res.Params).
				Msg("combination failed, skipping")
			continue
		}
		if gs.BestIndex < 0 || res.MeanScore > gs.BestScore {
			gs.BestIndex = i
			gs.BestScore = res.MeanScore
			gs.BestParams = res.Params
		}
	}
	if gs.BestIndex < 0 {
		return errors.Wrapf(firstErr, "GridSearchCV.Fit: all %d combinations failed", len(combos))
	}

	// Refit the winning combination on the full training partition.
	best := gs.Factory()
	if err := setParams(best, gs.BestParams); err != nil {
		return err
	}
	if err := best.Fit(X, y); err != nil {
		return errors.Wrap(err, "GridSearchCV.Fit: refit of best combination failed")
	}
	gs.Best = best

	logger.Debug().
		Interface("best_params", gs.BestParams).
		Float64("best_score", gs.BestScore).
		Int("combinations", len(combos)).
		Msg("grid search complete")
	return nil
}

// evaluateCombo cross-validates one combination. Any fold failure marks the
// whole combination as failed.
func (gs *GridSearchCV) evaluateCombo(X mat.Matrix, y *mat.VecDense, combo map[string]interface{}, folds []CVFold) CandidateResult {
	res := CandidateResult{Params: combo}

	for _, fold := range folds {
		est := gs.Factory()
		if err := setParams(est, combo); err != nil {
			res.Err = err
			return res
		}

		xTrain := SubsetRows(X, fold.TrainIndices)
		yTrain := SubsetVec(y, fold.TrainIndices)
		if err := est.Fit(xTrain, yTrain); err != nil {
			res.Err = errors.NewFitError(estimatorName(est), combo, err)
			return res
		}

		xTest := SubsetRows(X, fold.TestIndices)
		yTest := SubsetVec(y, fold.TestIndices)
		pred, err := est.Predict(xTest)
		if err != nil {
			res.Err = errors.NewFitError(estimatorName(est), combo, err)
			return res
		}

		score, err := gs.Scoring.Evaluate(yTest, colVec(pred))
		if err != nil {
			res.Err = errors.NewFitError(estimatorName(est), combo, err)
			return res
		}
		res.FoldScores = append(res.FoldScores, score)
	}

	var sum float64
	for _, s := range res.FoldScores {
		sum += s
	}
	res.MeanScore = sum / float64(len(res.FoldScores))
	return res
}

// setParams applies a combination, requiring the estimator to support
// named-parameter configuration.
func setParams(est model.Classifier, params map[string]interface{}) error {
	if len(params) == 0 {
		return nil
	}
	ps, ok := est.(model.ParameterSetter)
	if !ok {
		return errors.NewConfigError("GridSearchCV", "factory",
			fmt.Sprintf("%T does not support SetParams", est))
	}
	return ps.SetParams(params)
}

func estimatorName(est model.Classifier) string {
	return fmt.Sprintf("%T", est)
}

// colVec extracts the first column of an n×1 prediction matrix.
func colVec(m mat.Matrix) *mat.VecDense {
	r, _ := m.Dims()
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}
