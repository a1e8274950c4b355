package tree

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/hydroml/potable/pkg/errors"
)

// xorData replicates the XOR pattern, which no linear boundary separates.
func xorData(copies int) (*mat.Dense, *mat.VecDense) {
	base := [][3]float64{
		{0, 0, 0},
		{0, 1, 1},
		{1, 0, 1},
		{1, 1, 0},
	}
	n := 4 * copies
	X := mat.NewDense(n, 2, nil)
	y := mat.NewVecDense(n, nil)
	for c := 0; c < copies; c++ {
		for b, row := range base {
			i := c*4 + b
			X.Set(i, 0, row[0])
			X.Set(i, 1, row[1])
			y.SetVec(i, row[2])
		}
	}
	return X, y
}

func TestDecisionTreeLearnsXOR(t *testing.T) {
	X, y := xorData(5)

	for _, criterion := range []string{"gini", "entropy"} {
		t.Run(criterion, func(t *testing.T) {
			dt := NewDecisionTreeClassifier(WithCriterion(criterion))
			if err := dt.Fit(X, y); err != nil {
				t.Fatalf("Fit() error = %v", err)
			}
			score, err := dt.Score(X, y)
			if err != nil {
				t.Fatalf("Score() error = %v", err)
			}
			if score != 1.0 {
				t.Errorf("training accuracy = %v, want 1.0 on XOR", score)
			}
		})
	}
}

func TestDecisionTreeMaxDepthLimitsGrowth(t *testing.T) {
	X, y := xorData(5)

	dt := NewDecisionTreeClassifier(WithMaxDepth(1))
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if got := dt.Depth(); got > 1 {
		t.Errorf("Depth() = %d, want <= 1 under max_depth=1", got)
	}

	// A depth-1 stump cannot solve XOR.
	score, _ := dt.Score(X, y)
	if score == 1.0 {
		t.Error("stump scored 1.0 on XOR, depth limit not applied")
	}
}

func TestDecisionTreePureLeafStopsEarly(t *testing.T) {
	// Single-class data collapses to one leaf.
	X := mat.NewDense(6, 1, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewVecDense(6, nil)

	dt := NewDecisionTreeClassifier()
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if got := dt.Depth(); got != 0 {
		t.Errorf("Depth() = %d, want 0 for pure data", got)
	}

	pred, err := dt.Predict(mat.NewDense(1, 1, []float64{100}))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if pred.At(0, 0) != 0 {
		t.Errorf("Predict() = %v, want 0", pred.At(0, 0))
	}
}

func TestDecisionTreeMinSamplesLeaf(t *testing.T) {
	X, y := xorData(2)

	dt := NewDecisionTreeClassifier(WithMinSamplesLeaf(5))
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	// 8 rows cannot split into two leaves of >= 5 rows each.
	if got := dt.Depth(); got != 0 {
		t.Errorf("Depth() = %d, want 0 when min_samples_leaf blocks every split", got)
	}
}

func TestDecisionTreeRejectsNonBinaryLabels(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{1, 2})
	y := mat.NewVecDense(2, []float64{0, 3})

	err := NewDecisionTreeClassifier().Fit(X, y)
	if !errors.IsData(err) {
		t.Errorf("error = %v, want DataError", err)
	}
}

func TestDecisionTreeSetParams(t *testing.T) {
	dt := NewDecisionTreeClassifier()
	err := dt.SetParams(map[string]interface{}{
		"criterion":         "entropy",
		"max_depth":         3,
		"min_samples_split": 4,
		"max_features":      "sqrt",
	})
	if err != nil {
		t.Fatalf("SetParams() error = %v", err)
	}
	got := dt.GetParams()
	if got["criterion"] != "entropy" || got["max_depth"] != 3 {
		t.Errorf("GetParams() = %v, parameters not applied", got)
	}

	bad := []map[string]interface{}{
		{"criterion": "mse"},
		{"max_depth": -1},
		{"min_samples_split": 1},
		{"max_features": "half"},
		{"splitter": "best"},
	}
	for _, params := range bad {
		if err := NewDecisionTreeClassifier().SetParams(params); !errors.IsConfig(err) {
			t.Errorf("SetParams(%v) error = %v, want ConfigError", params, err)
		}
	}
}

func TestDecisionTreeNotFitted(t *testing.T) {
	_, err := NewDecisionTreeClassifier().Predict(mat.NewDense(1, 1, []float64{1}))
	var nf *errors.NotFittedError
	if !errors.As(err, &nf) {
		t.Errorf("error = %v, want NotFittedError", err)
	}
}

func TestRandomForestLearnsXOR(t *testing.T) {
	X, y := xorData(10)

	rf := NewRandomForestClassifier(WithNEstimators(25), WithForestSeed(1))
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if rf.NTrees() != 25 {
		t.Errorf("NTrees() = %d, want 25", rf.NTrees())
	}

	score, err := rf.Score(X, y)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if score < 0.95 {
		t.Errorf("training accuracy = %v, want >= 0.95 on XOR", score)
	}
}

func TestRandomForestDeterminism(t *testing.T) {
	X, y := xorData(8)

	probe := mat.NewDense(4, 2, []float64{0, 0, 0, 1, 1, 0, 1, 1})

	a := NewRandomForestClassifier(WithNEstimators(15), WithForestSeed(9))
	b := NewRandomForestClassifier(WithNEstimators(15), WithForestSeed(9))
	if err := a.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if err := b.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	pa, _ := a.PredictProba(probe)
	pb, _ := b.PredictProba(probe)
	for i := 0; i < 4; i++ {
		if pa.At(i, 1) != pb.At(i, 1) {
			t.Fatalf("row %d probability differs across identically seeded forests", i)
		}
	}
}

func TestRandomForestSetParams(t *testing.T) {
	rf := NewRandomForestClassifier()
	err := rf.SetParams(map[string]interface{}{
		"n_estimators": 50,
		"max_features": "log2",
		"bootstrap":    false,
	})
	if err != nil {
		t.Fatalf("SetParams() error = %v", err)
	}
	got := rf.GetParams()
	if got["n_estimators"] != 50 || got["max_features"] != "log2" || got["bootstrap"] != false {
		t.Errorf("GetParams() = %v, parameters not applied", got)
	}

	if err := rf.SetParams(map[string]interface{}{"oob_score": true}); !errors.IsConfig(err) {
		t.Errorf("unknown key error = %v, want ConfigError", err)
	}
	if err := rf.SetParams(map[string]interface{}{"n_estimators": 0}); !errors.IsConfig(err) {
		t.Errorf("zero n_estimators error = %v, want ConfigError", err)
	}
}

func TestRandomForestNotFitted(t *testing.T) {
	_, err := NewRandomForestClassifier().Predict(mat.NewDense(1, 2, nil))
	var nf *errors.NotFittedError
	if !errors.As(err, &nf) {
		t.Errorf("error = %v, want NotFittedError", err)
	}
}
