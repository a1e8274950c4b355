// Package svm provides the linear support-vector candidate of the
// model-comparison pipeline.
package svm

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/hydroml/potable/core/model"
	"github.com/hydroml/potable/metrics"
	"github.com/hydroml/potable/pkg/errors"
)

// LinearSVC is a linear support-vector classifier trained with Pegasos-style
// stochastic subgradient descent on the hinge loss.
type LinearSVC struct {
	model.BaseEstimator

	c           float64 // inverse regularization strength
	maxIter     int     // epochs over the training set
	tol         float64
	classWeight string // "balanced" or "none"
	seed        uint64

	weights   []float64
	bias      float64
	nFeatures int

	rng *rand.Rand
}

// Option configures a LinearSVC.
type Option func(*LinearSVC)

// WithC sets the inverse regularization strength.
func WithC(c float64) Option {
	return func(s *LinearSVC) { s.c = c }
}

// WithMaxIter sets the number of training epochs.
func WithMaxIter(n int) Option {
	return func(s *LinearSVC) { s.maxIter = n }
}

// WithTol sets the weight-change convergence tolerance per epoch.
func WithTol(tol float64) Option {
	return func(s *LinearSVC) { s.tol = tol }
}

// WithClassWeight sets the class weighting scheme ("balanced" or "none").
func WithClassWeight(w string) Option {
	return func(s *LinearSVC) { s.classWeight = w }
}

// WithSeed sets the shuffle seed.
func WithSeed(seed uint64) Option {
	return func(s *LinearSVC) { s.seed = seed }
}

// NewLinearSVC creates a classifier with scikit-learn-like defaults.
func NewLinearSVC(opts ...Option) *LinearSVC {
	s := &LinearSVC{
		c:           1.0,
		maxIter:     1000,
		tol:         1e-4,
		classWeight: "none",
		seed:        0,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rng = rand.New(rand.NewPCG(s.seed, s.seed))
	return s
}

// Fit trains the classifier on X (n×p) and binary labels y (n×1).
func (s *LinearSVC) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yr, _ := y.Dims()
	if yr != nSamples {
		return errors.NewDimensionError("LinearSVC.Fit", nSamples, yr, 0)
	}
	if nSamples == 0 {
		return errors.NewDataError("LinearSVC.Fit", "", "empty matrix")
	}

	// Hinge loss works on signed labels.
	signed := make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		switch y.At(i, 0) {
		case 0:
			signed[i] = -1
		case 1:
			signed[i] = 1
		default:
			return errors.NewDataError("LinearSVC.Fit", "",
				fmt.Sprintf("label %v at row %d is not binary", y.At(i, 0), i))
		}
	}

	s.nFeatures = nFeatures
	s.weights = make([]float64, nFeatures)
	s.bias = 0

	classW := classWeights(signed, s.classWeight)
	lambda := 1.0 / (s.c * float64(nSamples))

	order := make([]int, nSamples)
	for i := range order {
		order[i] = i
	}

	t := 0
	for epoch := 0; epoch < s.maxIter; epoch++ {
		s.rng.Shuffle(nSamples, func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		var maxStep float64
		for _, i := range order {
			t++
			eta := 1.0 / (lambda * float64(t))

			margin := s.bias
			for j := 0; j < nFeatures; j++ {
				margin += X.At(i, j) * s.weights[j]
			}
			margin *= signed[i]

			w := classW[signed[i]]
			for j := 0; j < nFeatures; j++ {
				step := eta * lambda * s.weights[j]
				if margin < 1 {
					step -= eta * w * signed[i] * X.At(i, j)
				}
				s.weights[j] -= step
				if math.Abs(step) > maxStep {
					maxStep = math.Abs(step)
				}
			}
			if margin < 1 {
				s.bias += eta * w * signed[i]
			}
		}

		if maxStep < s.tol {
			break
		}
	}

	s.SetFitted()
	return nil
}

// Decision returns the signed margin w·x + b for each row.
func (s *LinearSVC) Decision(X mat.Matrix) (*mat.VecDense, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("LinearSVC", "Decision")
	}
	r, c := X.Dims()
	if c != s.nFeatures {
		return nil, errors.NewDimensionError("LinearSVC.Decision", s.nFeatures, c, 1)
	}

	out := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		margin := s.bias
		for j := 0; j < c; j++ {
			margin += X.At(i, j) * s.weights[j]
		}
		out.SetVec(i, margin)
	}
	return out, nil
}

// Predict returns an n×1 matrix of 0/1 labels.
func (s *LinearSVC) Predict(X mat.Matrix) (mat.Matrix, error) {
	margins, err := s.Decision(X)
	if err != nil {
		return nil, err
	}
	r := margins.Len()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		if margins.AtVec(i) >= 0 {
			out.Set(i, 0, 1)
		}
	}
	return out, nil
}

// PredictProba squashes the margin through a sigmoid. The scores order rows
// correctly but are not calibrated probabilities.
func (s *LinearSVC) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	margins, err := s.Decision(X)
	if err != nil {
		return nil, err
	}
	r := margins.Len()
	probas := mat.NewDense(r, 2, nil)
	for i := 0; i < r; i++ {
		p := 1.0 / (1.0 + math.Exp(-2*margins.AtVec(i)))
		probas.Set(i, 0, 1-p)
		probas.Set(i, 1, p)
	}
	return probas, nil
}

// Classes returns the class labels.
func (s *LinearSVC) Classes() []int { return []int{0, 1} }

// Score returns the mean accuracy of Predict(X) against y.
func (s *LinearSVC) Score(X, y mat.Matrix) (float64, error) {
	pred, err := s.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyMatrix(y, pred)
}

// GetParams returns the hyperparameters by name.
func (s *LinearSVC) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"C":            s.c,
		"max_iter":     s.maxIter,
		"tol":          s.tol,
		"class_weight": s.classWeight,
	}
}

// SetParams sets hyperparameters by name, rejecting unknown keys.
func (s *LinearSVC) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "C":
			c, ok := toFloat(value)
			if !ok || c <= 0 {
				return errors.NewConfigError("LinearSVC.SetParams", key,
					fmt.Sprintf("want a positive number, got %v", value))
			}
			s.c = c
		case "max_iter":
			n, ok := toInt(value)
			if !ok || n <= 0 {
				return errors.NewConfigError("LinearSVC.SetParams", key, "want a positive int")
			}
			s.maxIter = n
		case "tol":
			f, ok := toFloat(value)
			if !ok || f <= 0 {
				return errors.NewConfigError("LinearSVC.SetParams", key, "want a positive number")
			}
			s.tol = f
		case "class_weight":
			w, ok := value.(string)
			if !ok || (w != "balanced" && w != "none") {
				return errors.NewConfigError("LinearSVC.SetParams", key,
					fmt.Sprintf("want \"balanced\" or \"none\", got %v", value))
			}
			s.classWeight = w
		default:
			return errors.NewConfigError("LinearSVC.SetParams", key, "unknown parameter")
		}
	}
	return nil
}

// classWeights maps signed label to its loss weight. "balanced" weighs each
// class by n / (2 * count(class)).
func classWeights(signed []float64, scheme string) map[float64]float64 {
	if scheme != "balanced" {
		return map[float64]float64{-1: 1, 1: 1}
	}
	var nPos int
	for _, v := range signed {
		if v > 0 {
			nPos++
		}
	}
	n := len(signed)
	nNeg := n - nPos
	w := map[float64]float64{-1: 1, 1: 1}
	if nPos > 0 {
		w[1] = float64(n) / (2 * float64(nPos))
	}
	if nNeg > 0 {
		w[-1] = float64(n) / (2 * float64(nNeg))
	}
	return w
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
