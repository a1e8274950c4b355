package tree

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/hydroml/potable/core/model"
	"github.com/hydroml/potable/core/parallel"
	"github.com/hydroml/potable/metrics"
	"github.com/hydroml/potable/pkg/errors"
)

// RandomForestClassifier bags bootstrap-sampled decision trees and predicts
// by averaging their class probabilities.
type RandomForestClassifier struct {
	model.BaseEstimator

	nEstimators     int
	criterion       string
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     string // default "sqrt"
	bootstrap       bool
	seed            uint64

	trees     []*DecisionTreeClassifier
	nFeatures int
}

// ForestOption configures a RandomForestClassifier.
type ForestOption func(*RandomForestClassifier)

// WithNEstimators sets the number of trees.
func WithNEstimators(n int) ForestOption {
	return func(f *RandomForestClassifier) { f.nEstimators = n }
}

// WithForestCriterion sets the per-tree split criterion.
func WithForestCriterion(c string) ForestOption {
	return func(f *RandomForestClassifier) { f.criterion = c }
}

// WithForestMaxDepth limits per-tree depth; 0 means unlimited.
func WithForestMaxDepth(d int) ForestOption {
	return func(f *RandomForestClassifier) { f.maxDepth = d }
}

// WithForestMaxFeatures sets the per-split feature subsample.
func WithForestMaxFeatures(m string) ForestOption {
	return func(f *RandomForestClassifier) { f.maxFeatures = m }
}

// WithBootstrap toggles bootstrap sampling of rows per tree.
func WithBootstrap(b bool) ForestOption {
	return func(f *RandomForestClassifier) { f.bootstrap = b }
}

// WithForestSeed sets the sampling seed.
func WithForestSeed(seed uint64) ForestOption {
	return func(f *RandomForestClassifier) { f.seed = seed }
}

// NewRandomForestClassifier creates a forest with scikit-learn-like defaults.
func NewRandomForestClassifier(opts ...ForestOption) *RandomForestClassifier {
	f := &RandomForestClassifier{
		nEstimators:     100,
		criterion:       "gini",
		maxDepth:        0,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		maxFeatures:     "sqrt",
		bootstrap:       true,
		seed:            0,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fit grows the forest on X (n×p) and binary labels y (n×1). Trees are
// fitted in parallel; sampling is seeded per tree so runs are reproducible.
func (f *RandomForestClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yr, _ := y.Dims()
	if yr != nSamples {
		return errors.NewDimensionError("RandomForestClassifier.Fit", nSamples, yr, 0)
	}
	if nSamples == 0 {
		return errors.NewDataError("RandomForestClassifier.Fit", "", "empty matrix")
	}
	for i := 0; i < nSamples; i++ {
		if v := y.At(i, 0); v != 0 && v != 1 {
			return errors.NewDataError("RandomForestClassifier.Fit", "",
				fmt.Sprintf("label %v at row %d is not binary", v, i))
		}
	}

	f.nFeatures = nFeatures
	f.trees = make([]*DecisionTreeClassifier, f.nEstimators)
	errs := make([]error, f.nEstimators)

	parallel.Parallelize(f.nEstimators, func(start, end int) {
		for ti := start; ti < end; ti++ {
			treeSeed := f.seed + uint64(ti)
			t := NewDecisionTreeClassifier(
				WithCriterion(f.criterion),
				WithMaxDepth(f.maxDepth),
				WithMinSamplesSplit(f.minSamplesSplit),
				WithMinSamplesLeaf(f.minSamplesLeaf),
				WithMaxFeatures(f.maxFeatures),
				WithSeed(treeSeed),
			)

			xFit, yFit := X, y
			if f.bootstrap {
				xFit, yFit = bootstrapSample(X, y, treeSeed)
			}
			if err := t.Fit(xFit, yFit); err != nil {
				errs[ti] = err
				continue
			}
			f.trees[ti] = t
		}
	})

	for _, err := range errs {
		if err != nil {
			return errors.Wrap(err, "RandomForestClassifier.Fit")
		}
	}
	f.SetFitted()
	return nil
}

// bootstrapSample draws n rows with replacement.
func bootstrapSample(X, y mat.Matrix, seed uint64) (mat.Matrix, mat.Matrix) {
	n, p := X.Dims()
	rng := rand.New(rand.NewPCG(seed, seed))

	xs := mat.NewDense(n, p, nil)
	ys := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		src := rng.IntN(n)
		for j := 0; j < p; j++ {
			xs.Set(i, j, X.At(src, j))
		}
		ys.Set(i, 0, y.At(src, 0))
	}
	return xs, ys
}

// Predict returns an n×1 matrix of 0/1 labels decided by averaged tree votes.
func (f *RandomForestClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	probas, err := f.PredictProba(X)
	if err != nil {
		return nil, err
	}
	r, _ := probas.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		if probas.At(i, 1) >= 0.5 {
			out.Set(i, 0, 1)
		}
	}
	return out, nil
}

// PredictProba averages the per-tree class probabilities.
func (f *RandomForestClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !f.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForestClassifier", "PredictProba")
	}
	r, c := X.Dims()
	if c != f.nFeatures {
		return nil, errors.NewDimensionError("RandomForestClassifier.PredictProba", f.nFeatures, c, 1)
	}

	sum := make([]float64, r)
	for _, t := range f.trees {
		p, err := t.PredictProba(X)
		if err != nil {
			return nil, err
		}
		for i := 0; i < r; i++ {
			sum[i] += p.At(i, 1)
		}
	}

	probas := mat.NewDense(r, 2, nil)
	for i := 0; i < r; i++ {
		p := sum[i] / float64(len(f.trees))
		probas.Set(i, 0, 1-p)
		probas.Set(i, 1, p)
	}
	return probas, nil
}

// Classes returns the class labels.
func (f *RandomForestClassifier) Classes() []int { return []int{0, 1} }

// Score returns the mean accuracy of Predict(X) against y.
func (f *RandomForestClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := f.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyMatrix(y, pred)
}

// NTrees returns the number of fitted trees.
func (f *RandomForestClassifier) NTrees() int { return len(f.trees) }

// GetParams returns the hyperparameters by name.
func (f *RandomForestClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      f.nEstimators,
		"criterion":         f.criterion,
		"max_depth":         f.maxDepth,
		"min_samples_split": f.minSamplesSplit,
		"min_samples_leaf":  f.minSamplesLeaf,
		"max_features":      f.maxFeatures,
		"bootstrap":         f.bootstrap,
	}
}

// SetParams sets hyperparameters by name, rejecting unknown keys.
func (f *RandomForestClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "n_estimators":
			n, ok := toInt(value)
			if !ok || n <= 0 {
				return errors.NewConfigError("RandomForestClassifier.SetParams", key, "want a positive int")
			}
			f.nEstimators = n
		case "criterion":
			s, ok := value.(string)
			if !ok || (s != "gini" && s != "entropy") {
				return errors.NewConfigError("RandomForestClassifier.SetParams", key,
					fmt.Sprintf("want \"gini\" or \"entropy\", got %v", value))
			}
			f.criterion = s
		case "max_depth":
			n, ok := toInt(value)
			if !ok || n < 0 {
				return errors.NewConfigError("RandomForestClassifier.SetParams", key, "want a non-negative int")
			}
			f.maxDepth = n
		case "min_samples_split":
			n, ok := toInt(value)
			if !ok || n < 2 {
				return errors.NewConfigError("RandomForestClassifier.SetParams", key, "want an int >= 2")
			}
			f.minSamplesSplit = n
		case "min_samples_leaf":
			n, ok := toInt(value)
			if !ok || n < 1 {
				return errors.NewConfigError("RandomForestClassifier.SetParams", key, "want a positive int")
			}
			f.minSamplesLeaf = n
		case "max_features":
			s, ok := value.(string)
			if !ok || (s != "all" && s != "sqrt" && s != "log2") {
				return errors.NewConfigError("RandomForestClassifier.SetParams", key,
					fmt.Sprintf("want \"all\", \"sqrt\" or \"log2\", got %v", value))
			}
			f.maxFeatures = s
		case "bootstrap":
			b, ok := value.(bool)
			if !ok {
				return errors.NewConfigError("RandomForestClassifier.SetParams", key, "want a bool")
			}
			f.bootstrap = b
		default:
			return errors.NewConfigError("RandomForestClassifier.SetParams", key, "unknown parameter")
		}
	}
	return nil
}
