package preprocessing

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/hydroml/potable/pkg/errors"
)

func TestMinMaxScalerBounds(t *testing.T) {
	X := mat.NewDense(5, 2, []float64{
		2, 100,
		4, 200,
		6, 150,
		8, 300,
		10, 250,
	})

	scaler := NewMinMaxScalerDefault()
	out, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	r, c := out.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := out.At(i, j)
			if v < 0 || v > 1 {
				t.Errorf("(%d,%d) = %v outside [0,1]", i, j, v)
			}
		}
	}

	// Boundary mapping: the column min maps to exactly 0, the max to exactly 1.
	if got := out.At(0, 0); got != 0 {
		t.Errorf("column 0 min maps to %v, want exactly 0", got)
	}
	if got := out.At(4, 0); got != 1 {
		t.Errorf("column 0 max maps to %v, want exactly 1", got)
	}
	if got := out.At(0, 1); got != 0 {
		t.Errorf("column 1 min maps to %v, want exactly 0", got)
	}
	if got := out.At(3, 1); got != 1 {
		t.Errorf("column 1 max maps to %v, want exactly 1", got)
	}
}

func TestMinMaxScalerCustomRange(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{0, 5, 10})

	scaler := NewMinMaxScaler([2]float64{-1, 1})
	out, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	want := []float64{-1, 0, 1}
	for i, w := range want {
		if got := out.At(i, 0); math.Abs(got-w) > 1e-12 {
			t.Errorf("row %d = %v, want %v", i, got, w)
		}
	}
}

func TestMinMaxScalerDegenerateColumnMapsToLo(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		7, 1,
		7, 2,
		7, 3,
		7, 4,
	})

	scaler := NewMinMaxScaler([2]float64{0.25, 0.75})
	out, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}
	for i := 0; i < 4; i++ {
		if got := out.At(i, 0); got != 0.25 {
			t.Errorf("degenerate column row %d = %v, want lo 0.25", i, got)
		}
	}
	// The live column still spans the range.
	if got := out.At(0, 1); got != 0.25 {
		t.Errorf("live column min = %v, want 0.25", got)
	}
	if got := out.At(3, 1); got != 0.75 {
		t.Errorf("live column max = %v, want 0.75", got)
	}
}

func TestMinMaxScalerHeldOutRowsMayEscapeRange(t *testing.T) {
	ref := mat.NewDense(3, 1, []float64{0, 5, 10})
	scaler := NewMinMaxScalerDefault()
	if err := scaler.Fit(ref); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	heldOut := mat.NewDense(2, 1, []float64{-5, 20})
	out, err := scaler.Transform(heldOut)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if got := out.At(0, 0); got != -0.5 {
		t.Errorf("below-reference value = %v, want -0.5", got)
	}
	if got := out.At(1, 0); got != 2 {
		t.Errorf("above-reference value = %v, want 2", got)
	}
}

func TestMinMaxScalerRejectsMissingValues(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{1, math.NaN()})
	scaler := NewMinMaxScalerDefault()
	err := scaler.Fit(X)
	if err == nil {
		t.Fatal("expected DataError for NaN input")
	}
	if !errors.IsData(err) {
		t.Errorf("error = %v, want DataError", err)
	}
}

func TestMinMaxScalerInverseRoundTrip(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 50,
		3, 60,
		5, 80,
		9, 90,
	})

	scaler := NewMinMaxScalerDefault()
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}
	back, err := scaler.InverseTransform(scaled)
	if err != nil {
		t.Fatalf("InverseTransform() error = %v", err)
	}

	r, c := X.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.Abs(back.At(i, j)-X.At(i, j)) > 1e-9 {
				t.Errorf("(%d,%d): round trip %v != %v", i, j, back.At(i, j), X.At(i, j))
			}
		}
	}
}

func TestMinMaxScalerNotFitted(t *testing.T) {
	scaler := NewMinMaxScalerDefault()
	_, err := scaler.Transform(mat.NewDense(1, 1, []float64{1}))
	if err == nil {
		t.Fatal("expected NotFittedError")
	}
	var nf *errors.NotFittedError
	if !errors.As(err, &nf) {
		t.Errorf("error = %v, want NotFittedError", err)
	}
}

func TestMinMaxScalerDimensionMismatch(t *testing.T) {
	scaler := NewMinMaxScalerDefault()
	if err := scaler.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	_, err := scaler.Transform(mat.NewDense(2, 3, nil))
	if err == nil {
		t.Fatal("expected DimensionError")
	}
	var de *errors.DimensionError
	if !errors.As(err, &de) {
		t.Errorf("error = %v, want DimensionError", err)
	}
}
