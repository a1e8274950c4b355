package linearmodel

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/hydroml/potable/pkg/errors"
)

// separableData builds two well-separated 1-D clusters: negatives spread over
// [0, 0.3], positives over [0.7, 1.0].
func separableData(nPerClass int) (*mat.Dense, *mat.VecDense) {
	n := 2 * nPerClass
	X := mat.NewDense(n, 1, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < nPerClass; i++ {
		X.Set(i, 0, 0.3*float64(i)/float64(nPerClass-1))
		X.Set(nPerClass+i, 0, 0.7+0.3*float64(i)/float64(nPerClass-1))
		y.SetVec(nPerClass+i, 1)
	}
	return X, y
}

func TestLogisticRegressionSeparableData(t *testing.T) {
	X, y := separableData(20)

	lr := NewLogisticRegression(WithMaxIter(500))
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if !lr.IsFitted() {
		t.Fatal("estimator not marked fitted")
	}

	score, err := lr.Score(X, y)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if score < 0.95 {
		t.Errorf("training accuracy = %v, want >= 0.95 on separable data", score)
	}
}

func TestLogisticRegressionPredictProba(t *testing.T) {
	X, y := separableData(20)

	lr := NewLogisticRegression(WithMaxIter(500))
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	probe := mat.NewDense(3, 1, []float64{0.0, 0.5, 1.0})
	probas, err := lr.PredictProba(probe)
	if err != nil {
		t.Fatalf("PredictProba() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		sum := probas.At(i, 0) + probas.At(i, 1)
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("row %d probabilities sum to %v, want 1", i, sum)
		}
	}
	// Probability of the positive class rises with the feature.
	if probas.At(0, 1) >= probas.At(2, 1) {
		t.Errorf("P(1|x=0) = %v not below P(1|x=1) = %v", probas.At(0, 1), probas.At(2, 1))
	}
}

func TestLogisticRegressionDeterminism(t *testing.T) {
	X, y := separableData(15)

	a := NewLogisticRegression(WithSeed(42), WithMaxIter(200))
	b := NewLogisticRegression(WithSeed(42), WithMaxIter(200))
	if err := a.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if err := b.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	for j := range a.coef {
		if a.coef[j] != b.coef[j] {
			t.Fatalf("coefficient %d differs across identical runs", j)
		}
	}
	if a.intercept != b.intercept {
		t.Fatal("intercept differs across identical runs")
	}
}

func TestLogisticRegressionBalancedClassWeight(t *testing.T) {
	// 40 negatives, 5 positives.
	n := 45
	X := mat.NewDense(n, 1, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < 40; i++ {
		X.Set(i, 0, 0.3*float64(i)/39)
	}
	for i := 40; i < n; i++ {
		X.Set(i, 0, 0.8+0.2*float64(i-40)/4)
		y.SetVec(i, 1)
	}

	lr := NewLogisticRegression(WithClassWeight("balanced"), WithMaxIter(500))
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	pred, err := lr.Predict(mat.NewDense(1, 1, []float64{0.9}))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if pred.At(0, 0) != 1 {
		t.Error("balanced weighting should still recover the minority class region")
	}
}

func TestLogisticRegressionRejectsNonBinaryLabels(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{0.1, 0.2, 0.3})
	y := mat.NewVecDense(3, []float64{0, 1, 2})

	err := NewLogisticRegression().Fit(X, y)
	if !errors.IsData(err) {
		t.Errorf("error = %v, want DataError for label 2", err)
	}
}

func TestLogisticRegressionNotFitted(t *testing.T) {
	lr := NewLogisticRegression()
	_, err := lr.Predict(mat.NewDense(1, 1, []float64{0.5}))
	if err == nil {
		t.Fatal("expected not-fitted error")
	}
	var nf *errors.NotFittedError
	if !errors.As(err, &nf) {
		t.Errorf("error = %v, want NotFittedError", err)
	}
}

func TestLogisticRegressionSetParams(t *testing.T) {
	lr := NewLogisticRegression()

	err := lr.SetParams(map[string]interface{}{
		"C":            10.0,
		"penalty":      "none",
		"class_weight": "balanced",
		"max_iter":     250,
		"tol":          1e-3,
	})
	if err != nil {
		t.Fatalf("SetParams() error = %v", err)
	}

	got := lr.GetParams()
	if got["C"] != 10.0 || got["penalty"] != "none" || got["max_iter"] != 250 {
		t.Errorf("GetParams() = %v, parameters not applied", got)
	}
}

func TestLogisticRegressionSetParamsRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]interface{}
	}{
		{"unknown key", map[string]interface{}{"gamma": 0.1}},
		{"negative C", map[string]interface{}{"C": -1.0}},
		{"bad penalty", map[string]interface{}{"penalty": "l1"}},
		{"bad class weight", map[string]interface{}{"class_weight": "heavy"}},
		{"zero max_iter", map[string]interface{}{"max_iter": 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewLogisticRegression().SetParams(tt.params)
			if !errors.IsConfig(err) {
				t.Errorf("error = %v, want ConfigError", err)
			}
		})
	}
}

func TestLogisticRegressionDimensionMismatch(t *testing.T) {
	X, y := separableData(10)
	lr := NewLogisticRegression(WithMaxIter(50))
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	_, err := lr.Predict(mat.NewDense(2, 3, nil))
	var de *errors.DimensionError
	if !errors.As(err, &de) {
		t.Errorf("error = %v, want DimensionError for feature-count mismatch", err)
	}
}
