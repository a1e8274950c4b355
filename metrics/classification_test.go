package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{
			name:  "Perfect accuracy",
			yTrue: []float64{0, 1, 1, 0, 1},
			yPred: []float64{0, 1, 1, 0, 1},
			want:  1.0,
		},
		{
			name:  "80% accuracy",
			yTrue: []float64{0, 1, 1, 0, 1},
			yPred: []float64{0, 1, 0, 0, 1},
			want:  0.8,
		},
		{
			name:  "Zero accuracy",
			yTrue: []float64{0, 0, 0},
			yPred: []float64{1, 1, 1},
			want:  0.0,
		},
		{
			name:    "Empty vectors",
			yTrue:   []float64{},
			yPred:   []float64{},
			wantErr: true,
		},
		{
			name:    "Dimension mismatch",
			yTrue:   []float64{0, 1},
			yPred:   []float64{0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yTrue := &mat.VecDense{}
			yPred := &mat.VecDense{}
			if len(tt.yTrue) > 0 {
				yTrue = mat.NewVecDense(len(tt.yTrue), tt.yTrue)
			}
			if len(tt.yPred) > 0 {
				yPred = mat.NewVecDense(len(tt.yPred), tt.yPred)
			}

			got, err := Accuracy(yTrue, yPred)
			if (err != nil) != tt.wantErr {
				t.Errorf("Accuracy() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Accuracy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfusionMatrix(t *testing.T) {
	yTrue := mat.NewVecDense(8, []float64{0, 0, 0, 0, 1, 1, 1, 1})
	yPred := mat.NewVecDense(8, []float64{0, 0, 1, 1, 1, 1, 1, 0})

	cm, err := NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		t.Fatalf("NewConfusionMatrix() error = %v", err)
	}

	if cm.TN != 2 || cm.FP != 2 || cm.FN != 1 || cm.TP != 3 {
		t.Errorf("counts = TN=%d FP=%d FN=%d TP=%d, want TN=2 FP=2 FN=1 TP=3",
			cm.TN, cm.FP, cm.FN, cm.TP)
	}
	if got := cm.Accuracy(); math.Abs(got-0.625) > 1e-9 {
		t.Errorf("Accuracy() = %v, want 0.625", got)
	}
	if got := cm.Precision(1); math.Abs(got-0.6) > 1e-9 {
		t.Errorf("Precision(1) = %v, want 0.6", got)
	}
	if got := cm.Recall(1); math.Abs(got-0.75) > 1e-9 {
		t.Errorf("Recall(1) = %v, want 0.75", got)
	}
	if got := cm.Support(0); got != 4 {
		t.Errorf("Support(0) = %d, want 4", got)
	}
}

// A predictor that always answers 1 must put every positive in TP and every
// negative in FP, leaving TN and FN empty.
func TestConfusionMatrixAlwaysPositivePredictor(t *testing.T) {
	yTrue := mat.NewVecDense(10, []float64{1, 0, 1, 1, 0, 0, 1, 0, 1, 1})
	ones := mat.NewVecDense(10, []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1})

	cm, err := NewConfusionMatrix(yTrue, ones)
	if err != nil {
		t.Fatalf("NewConfusionMatrix() error = %v", err)
	}
	if cm.TP != 6 || cm.FP != 4 || cm.TN != 0 || cm.FN != 0 {
		t.Errorf("counts = %+v, want TP=6 FP=4 TN=0 FN=0", cm)
	}
	wantAcc := 6.0 / 10.0
	if got := cm.Accuracy(); math.Abs(got-wantAcc) > 1e-9 {
		t.Errorf("Accuracy() = %v, want %v", got, wantAcc)
	}
}

func TestConfusionMatrixRejectsNonBinary(t *testing.T) {
	yTrue := mat.NewVecDense(3, []float64{0, 2, 1})
	yPred := mat.NewVecDense(3, []float64{0, 1, 1})
	if _, err := NewConfusionMatrix(yTrue, yPred); err == nil {
		t.Error("expected error for non-binary labels")
	}
}

func TestPrecisionUndefinedScoresZero(t *testing.T) {
	// Predictor never answers 1: precision for class 1 is undefined.
	yTrue := mat.NewVecDense(4, []float64{0, 1, 0, 1})
	yPred := mat.NewVecDense(4, []float64{0, 0, 0, 0})

	cm, err := NewConfusionMatrix(yTrue, yPred)
	if err != nil {
		t.Fatalf("NewConfusionMatrix() error = %v", err)
	}
	if got := cm.Precision(1); got != 0 {
		t.Errorf("Precision(1) = %v, want 0 for undefined ratio", got)
	}
	if got := cm.F1(1); got != 0 {
		t.Errorf("F1(1) = %v, want 0", got)
	}
}

func TestReport(t *testing.T) {
	yTrue := mat.NewVecDense(6, []float64{0, 0, 0, 1, 1, 1})
	yPred := mat.NewVecDense(6, []float64{0, 0, 1, 1, 1, 0})

	r, err := NewReport(yTrue, yPred)
	if err != nil {
		t.Fatalf("NewReport() error = %v", err)
	}
	wantAcc := 4.0 / 6.0
	if math.Abs(r.Accuracy-wantAcc) > 1e-9 {
		t.Errorf("Accuracy = %v, want %v", r.Accuracy, wantAcc)
	}
	// class 1: TP=2, FP=1, FN=1
	if math.Abs(r.PerClass[1].Precision-2.0/3.0) > 1e-9 {
		t.Errorf("Precision(1) = %v, want 2/3", r.PerClass[1].Precision)
	}
	if math.Abs(r.PerClass[1].Recall-2.0/3.0) > 1e-9 {
		t.Errorf("Recall(1) = %v, want 2/3", r.PerClass[1].Recall)
	}
	if r.PerClass[0].Support != 3 || r.PerClass[1].Support != 3 {
		t.Errorf("supports = %d/%d, want 3/3", r.PerClass[0].Support, r.PerClass[1].Support)
	}
}

func TestAUC(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yScore  []float64
		want    float64
		wantErr bool
	}{
		{
			name:   "Perfect ranking",
			yTrue:  []float64{0, 0, 0, 1, 1, 1},
			yScore: []float64{0.1, 0.2, 0.3, 0.7, 0.8, 0.9},
			want:   1.0,
		},
		{
			name:   "Inverted ranking",
			yTrue:  []float64{0, 0, 0, 1, 1, 1},
			yScore: []float64{0.9, 0.8, 0.7, 0.3, 0.2, 0.1},
			want:   0.0,
		},
		{
			name:   "Constant scores",
			yTrue:  []float64{0, 1, 0, 1},
			yScore: []float64{0.5, 0.5, 0.5, 0.5},
			want:   0.5,
		},
		{
			name:   "Typical case",
			yTrue:  []float64{0, 0, 1, 1},
			yScore: []float64{0.1, 0.4, 0.35, 0.8},
			want:   0.75,
		},
		{
			name:   "Single class present",
			yTrue:  []float64{1, 1, 1},
			yScore: []float64{0.1, 0.4, 0.9},
			want:   0.5,
		},
		{
			name:    "Non-binary labels",
			yTrue:   []float64{0, 0.5, 1},
			yScore:  []float64{0.1, 0.5, 0.9},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yTrue := mat.NewVecDense(len(tt.yTrue), tt.yTrue)
			yScore := mat.NewVecDense(len(tt.yScore), tt.yScore)

			got, err := AUC(yTrue, yScore)
			if (err != nil) != tt.wantErr {
				t.Errorf("AUC() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("AUC() = %v, want %v", got, tt.want)
			}
		})
	}
}
