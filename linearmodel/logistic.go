// Package linearmodel provides the logistic-regression candidate of the
// model-comparison pipeline.
package linearmodel

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/hydroml/potable/core/model"
	"github.com/hydroml/potable/metrics"
	"github.com/hydroml/potable/pkg/errors"
)

// LogisticRegression is a binary logistic-regression classifier trained by
// batch gradient descent with an adaptive learning rate.
type LogisticRegression struct {
	model.BaseEstimator

	// Hyperparameters
	penalty      string  // "l2" or "none"
	c            float64 // inverse regularization strength
	fitIntercept bool
	classWeight  string // "balanced" or "none"
	maxIter      int
	tol          float64
	seed         uint64

	// Learned parameters
	coef      []float64
	intercept float64
	classes   []int
	nFeatures int
	nIter     int

	rng *rand.Rand
}

// Option configures a LogisticRegression.
type Option func(*LogisticRegression)

// WithPenalty sets the regularization type ("l2" or "none").
func WithPenalty(penalty string) Option {
	return func(lr *LogisticRegression) { lr.penalty = penalty }
}

// WithC sets the inverse regularization strength.
func WithC(c float64) Option {
	return func(lr *LogisticRegression) { lr.c = c }
}

// WithFitIntercept sets whether an intercept term is learned.
func WithFitIntercept(fit bool) Option {
	return func(lr *LogisticRegression) { lr.fitIntercept = fit }
}

// WithClassWeight sets the class weighting scheme ("balanced" or "none").
func WithClassWeight(w string) Option {
	return func(lr *LogisticRegression) { lr.classWeight = w }
}

// WithMaxIter sets the iteration budget.
func WithMaxIter(n int) Option {
	return func(lr *LogisticRegression) { lr.maxIter = n }
}

// WithTol sets the gradient-norm convergence tolerance.
func WithTol(tol float64) Option {
	return func(lr *LogisticRegression) { lr.tol = tol }
}

// WithSeed sets the weight-initialization seed.
func WithSeed(seed uint64) Option {
	return func(lr *LogisticRegression) { lr.seed = seed }
}

// NewLogisticRegression creates a classifier with scikit-learn-like defaults.
func NewLogisticRegression(opts ...Option) *LogisticRegression {
	lr := &LogisticRegression{
		penalty:      "l2",
		c:            1.0,
		fitIntercept: true,
		classWeight:  "none",
		maxIter:      100,
		tol:          1e-4,
		seed:         0,
	}
	for _, opt := range opts {
		opt(lr)
	}
	lr.rng = rand.New(rand.NewPCG(lr.seed, lr.seed))
	return lr
}

// Fit trains the model on X (n×p) and binary labels y (n×1).
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yr, _ := y.Dims()
	if yr != nSamples {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yr, 0)
	}
	if nSamples == 0 {
		return errors.NewDataError("LogisticRegression.Fit", "", "empty matrix")
	}

	if err := lr.checkBinaryLabels(y, nSamples); err != nil {
		return err
	}
	lr.nFeatures = nFeatures

	// Small random init keeps runs reproducible under a fixed seed.
	lr.coef = make([]float64, nFeatures)
	for j := range lr.coef {
		lr.coef[j] = lr.rng.NormFloat64() * 0.01
	}
	lr.intercept = 0

	weights := sampleWeights(y, nSamples, lr.classWeight)

	baseLearningRate := 1.0
	for iter := 0; iter < lr.maxIter; iter++ {
		gradCoef := make([]float64, nFeatures)
		gradIntercept := 0.0
		var weightSum float64

		for i := 0; i < nSamples; i++ {
			z := lr.intercept
			for j := 0; j < nFeatures; j++ {
				z += X.At(i, j) * lr.coef[j]
			}
			residual := (sigmoid(z) - y.At(i, 0)) * weights[i]
			gradIntercept += residual
			for j := 0; j < nFeatures; j++ {
				gradCoef[j] += residual * X.At(i, j)
			}
			weightSum += weights[i]
		}

		for j := range gradCoef {
			gradCoef[j] /= weightSum
		}
		gradIntercept /= weightSum

		if lr.penalty == "l2" {
			lambda := 1.0 / lr.c
			for j := range lr.coef {
				gradCoef[j] += lambda * lr.coef[j] / float64(nSamples)
			}
		}

		learningRate := baseLearningRate / (1.0 + 0.1*float64(iter))
		for j := range lr.coef {
			lr.coef[j] -= learningRate * gradCoef[j]
		}
		if lr.fitIntercept {
			lr.intercept -= learningRate * gradIntercept
		}
		lr.nIter = iter + 1

		maxGrad := math.Abs(gradIntercept)
		for _, g := range gradCoef {
			if math.Abs(g) > maxGrad {
				maxGrad = math.Abs(g)
			}
		}
		if maxGrad < lr.tol {
			break
		}
	}

	lr.classes = []int{0, 1}
	lr.SetFitted()
	return nil
}

// Predict returns an n×1 matrix of 0/1 labels.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	probas, err := lr.PredictProba(X)
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

// PredictProba returns an n×2 matrix of class probabilities.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "PredictProba")
	}
	r, c := X.Dims()
	if c != lr.nFeatures {
		return nil, errors.NewDimensionError("LogisticRegression.PredictProba", lr.nFeatures, c, 1)
	}

	probas := mat.NewDense(r, 2, nil)
	for i := 0; i < r; i++ {
		z := lr.intercept
		for j := 0; j < c; j++ {
			z += X.At(i, j) * lr.coef[j]
		}
		p := sigmoid(z)
		probas.Set(i, 0, 1-p)
		probas.Set(i, 1, p)
	}
	return probas, nil
}

// Classes returns the class labels seen during fitting.
func (lr *LogisticRegression) Classes() []int {
	out := make([]int, len(lr.classes))
	copy(out, lr.classes)
	return out
}

// Score returns the mean accuracy of Predict(X) against y.
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	pred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyMatrix(y, pred)
}

// NIter returns the number of gradient-descent iterations actually run.
func (lr *LogisticRegression) NIter() int { return lr.nIter }

// GetParams returns the hyperparameters by name.
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":       lr.penalty,
		"C":             lr.c,
		"fit_intercept": lr.fitIntercept,
		"class_weight":  lr.classWeight,
		"max_iter":      lr.maxIter,
		"tol":           lr.tol,
	}
}

// SetParams sets hyperparameters by name, rejecting unknown keys.
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "penalty":
			s, ok := value.(string)
			if !ok || (s != "l2" && s != "none") {
				return errors.NewConfigError("LogisticRegression.SetParams", key,
					fmt.Sprintf("want \"l2\" or \"none\", got %v", value))
			}
			lr.penalty = s
		case "C":
			c, ok := toFloat(value)
			if !ok || c <= 0 {
				return errors.NewConfigError("LogisticRegression.SetParams", key,
					fmt.Sprintf("want a positive number, got %v", value))
			}
			lr.c = c
		case "fit_intercept":
			b, ok := value.(bool)
			if !ok {
				return errors.NewConfigError("LogisticRegression.SetParams", key, "want a bool")
			}
			lr.fitIntercept = b
		case "class_weight":
			s, ok := value.(string)
			if !ok || (s != "balanced" && s != "none") {
				return errors.NewConfigError("LogisticRegression.SetParams", key,
					fmt.Sprintf("want \"balanced\" or \"none\", got %v", value))
			}
			lr.classWeight = s
		case "max_iter":
			n, ok := toInt(value)
			if !ok || n <= 0 {
				return errors.NewConfigError("LogisticRegression.SetParams", key, "want a positive int")
			}
			lr.maxIter = n
		case "tol":
			f, ok := toFloat(value)
			if !ok || f <= 0 {
				return errors.NewConfigError("LogisticRegression.SetParams", key, "want a positive number")
			}
			lr.tol = f
		default:
			return errors.NewConfigError("LogisticRegression.SetParams", key, "unknown parameter")
		}
	}
	return nil
}

func (lr *LogisticRegression) checkBinaryLabels(y mat.Matrix, n int) error {
	for i := 0; i < n; i++ {
		if v := y.At(i, 0); v != 0 && v != 1 {
			return errors.NewDataError("LogisticRegression.Fit", "",
				fmt.Sprintf("label %v at row %d is not binary", v, i))
		}
	}
	return nil
}

// sampleWeights returns per-row weights. "balanced" weighs each class by
// n / (2 * count(class)) so minority rows pull harder on the gradient.
func sampleWeights(y mat.Matrix, n int, scheme string) []float64 {
	weights := make([]float64, n)
	if scheme != "balanced" {
		for i := range weights {
			weights[i] = 1
		}
		return weights
	}

	var nPos int
	for i := 0; i < n; i++ {
		if y.At(i, 0) == 1 {
			nPos++
		}
	}
	nNeg := n - nPos
	wPos, wNeg := 1.0, 1.0
	if nPos > 0 {
		wPos = float64(n) / (2 * float64(nPos))
	}
	if nNeg > 0 {
		wNeg = float64(n) / (2 * float64(nNeg))
	}
	for i := 0; i < n; i++ {
		if y.At(i, 0) == 1 {
			weights[i] = wPos
		} else {
			weights[i] = wNeg
		}
	}
	return weights
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	}
	return 0, false
}

func toInt(v interface{}) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		if x == math.Trunc(x) {
			return int(x), true
		}
	}
	return 0, false
}
