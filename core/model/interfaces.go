package model

import (
	"gonum.org/v1/gonum/mat"
)

// Estimator is the interface for anything that learns from data.
type Estimator interface {
	// Fit learns model parameters from the feature matrix X and labels y.
	Fit(X, y mat.Matrix) error
}

// Predictor is the interface for fitted models that produce predictions.
type Predictor interface {
	// Predict returns an n×1 matrix of predicted labels for X.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Transformer is the interface for stateless-after-fit feature transformations.
type Transformer interface {
	// Fit learns transformation statistics from the reference matrix X.
	Fit(X mat.Matrix) error

	// Transform applies the learned transformation to X.
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform fits on X and transforms the same matrix.
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// Scorer is the interface for models that can score themselves on held-out data.
type Scorer interface {
	// Score returns the mean accuracy of Predict(X) against y.
	Score(X, y mat.Matrix) (float64, error)
}

// Classifier combines the interfaces every classification model implements.
type Classifier interface {
	Estimator
	Predictor
	Scorer

	// PredictProba returns an n×nClasses matrix of class probability estimates.
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the unique class labels seen during fitting.
	Classes() []int
}

// ParameterSetter is implemented by estimators whose hyperparameters can be
// set by name. Implementations must reject unknown keys with an error rather
// than deferring the failure to Fit.
type ParameterSetter interface {
	SetParams(params map[string]interface{}) error
}

// ParameterGetter is implemented by estimators that expose their
// hyperparameters by name.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}
