package pipeline

import (
	"fmt"

	"github.com/hydroml/potable/core/model"
	"github.com/hydroml/potable/ensemble"
	"github.com/hydroml/potable/linearmodel"
	"github.com/hydroml/potable/metrics"
	"github.com/hydroml/potable/modelselection"
	"github.com/hydroml/potable/pkg/errors"
	"github.com/hydroml/potable/svm"
	"github.com/hydroml/potable/tree"
)

// Candidate is one model family entered into the comparison. Each candidate
// owns its search, fitted predictor and result; candidates share nothing.
type Candidate struct {
	Name    string
	Factory func() model.Classifier
	Grid    *modelselection.ParamGrid
}

// Outcome is the per-candidate result of the comparison.
type Outcome struct {
	Name       string
	BestParams map[string]interface{}
	CVScore    float64
	Report     metrics.Report

	// Err is set when every combination of the candidate failed to fit.
	// The candidate stays in the comparison as a failed entry.
	Err error
}

// Failed reports whether the candidate produced no usable model.
func (o Outcome) Failed() bool { return o.Err != nil }

// buildCandidate resolves a config entry to a concrete factory and grid.
func buildCandidate(cfg CandidateConfig, seed uint64) (Candidate, error) {
	factory, err := familyFactory(cfg.Family, seed)
	if err != nil {
		return Candidate{}, err
	}

	grid := modelselection.NewParamGrid()
	for _, axis := range cfg.Grid {
		if axis.Param == "" || len(axis.Values) == 0 {
			return Candidate{}, errors.NewConfigError("pipeline.buildCandidate", "grid",
				fmt.Sprintf("candidate %q: grid axis needs a param name and values", cfg.Name))
		}
		grid.Add(axis.Param, axis.Values...)
	}

	return Candidate{Name: cfg.Name, Factory: factory, Grid: grid}, nil
}

// familyFactory maps a family name to an estimator constructor. Seeded
// families receive the pipeline seed so runs are reproducible.
func familyFactory(family string, seed uint64) (func() model.Classifier, error) {
	switch family {
	case "logistic":
		return func() model.Classifier {
			return linearmodel.NewLogisticRegression(linearmodel.WithSeed(seed))
		}, nil
	case "gbm":
		return func() model.Classifier {
			return ensemble.NewGradientBoostingClassifier(ensemble.WithSeed(seed))
		}, nil
	case "svc":
		return func() model.Classifier {
			return svm.NewLinearSVC(svm.WithSeed(seed))
		}, nil
	case "forest":
		return func() model.Classifier {
			return tree.NewRandomForestClassifier(tree.WithForestSeed(seed))
		}, nil
	case "tree":
		return func() model.Classifier {
			return tree.NewDecisionTreeClassifier(tree.WithSeed(seed))
		}, nil
	default:
		return nil, errors.NewConfigError("pipeline.familyFactory", "family",
			fmt.Sprintf("unknown model family %q", family))
	}
}
