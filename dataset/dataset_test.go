package dataset

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/hydroml/potable/pkg/errors"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "water.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestReadCSV(t *testing.T) {
	path := writeCSV(t, `ph,Hardness,Solids,Potability
7.0,120.5,20000,0
,130.0,21000,1
6.5,,19000,0
`)

	table, err := ReadCSV(path, "Potability")
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}

	if got := table.NRows(); got != 3 {
		t.Errorf("NRows() = %d, want 3", got)
	}
	if got := table.NFeatures(); got != 3 {
		t.Errorf("NFeatures() = %d, want 3", got)
	}
	if got := table.Columns(); got[0] != "ph" || got[1] != "Hardness" || got[2] != "Solids" {
		t.Errorf("Columns() = %v, want file order without the label", got)
	}
	if got := table.TargetName(); got != "Potability" {
		t.Errorf("TargetName() = %q, want Potability", got)
	}

	x := table.Features()
	if !math.IsNaN(x.At(1, 0)) {
		t.Errorf("empty ph field = %v, want NaN", x.At(1, 0))
	}
	if !math.IsNaN(x.At(2, 1)) {
		t.Errorf("empty Hardness field = %v, want NaN", x.At(2, 1))
	}
	if x.At(0, 2) != 20000 {
		t.Errorf("Solids[0] = %v, want 20000", x.At(0, 2))
	}

	y := table.Target()
	want := []float64{0, 1, 0}
	for i, w := range want {
		if y.AtVec(i) != w {
			t.Errorf("label %d = %v, want %v", i, y.AtVec(i), w)
		}
	}
}

func TestReadCSVMissingTokens(t *testing.T) {
	path := writeCSV(t, `a,b,Potability
NA,nan,0
1.5,2.5,1
`)

	table, err := ReadCSV(path, "Potability")
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	x := table.Features()
	if !math.IsNaN(x.At(0, 0)) || !math.IsNaN(x.At(0, 1)) {
		t.Error("NA and nan tokens should both parse as missing")
	}
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		target  string
	}{
		{
			name:    "missing label column",
			content: "a,b\n1,2\n",
			target:  "Potability",
		},
		{
			name:    "non-binary label",
			content: "a,Potability\n1,2\n",
			target:  "Potability",
		},
		{
			name:    "missing label value",
			content: "a,Potability\n1,\n",
			target:  "Potability",
		},
		{
			name:    "garbage predictor",
			content: "a,Potability\nhello,0\n",
			target:  "Potability",
		},
		{
			name:    "no data rows",
			content: "a,Potability\n",
			target:  "Potability",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCSV(t, tt.content)
			_, err := ReadCSV(path, tt.target)
			if !errors.IsData(err) {
				t.Errorf("error = %v, want DataError", err)
			}
		})
	}
}

func TestReadCSVFileNotFound(t *testing.T) {
	_, err := ReadCSV("/no/such/file.csv", "Potability")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestTableMissingCounts(t *testing.T) {
	nan := math.NaN()
	x := mat.NewDense(4, 2, []float64{
		1, nan,
		nan, 2,
		3, nan,
		4, 5,
	})
	y := mat.NewVecDense(4, []float64{0, 1, 0, 1})

	table, err := NewTable([]string{"a", "b"}, "label", x, y)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}

	counts := table.MissingCounts()
	if counts[0] != 1 || counts[1] != 2 {
		t.Errorf("MissingCounts() = %v, want [1 2]", counts)
	}
	missing := table.ColumnsWithMissing()
	if len(missing) != 2 || missing[0] != "a" || missing[1] != "b" {
		t.Errorf("ColumnsWithMissing() = %v, want [a b]", missing)
	}
	if got := table.ColumnIndex("b"); got != 1 {
		t.Errorf("ColumnIndex(b) = %d, want 1", got)
	}
	if got := table.ColumnIndex("zzz"); got != -1 {
		t.Errorf("ColumnIndex(zzz) = %d, want -1", got)
	}
}

func TestNewTableRejectsBadLabels(t *testing.T) {
	x := mat.NewDense(2, 1, []float64{1, 2})
	y := mat.NewVecDense(2, []float64{0, 0.5})

	_, err := NewTable([]string{"a"}, "label", x, y)
	if !errors.IsData(err) {
		t.Errorf("error = %v, want DataError", err)
	}
}

func TestDescribe(t *testing.T) {
	nan := math.NaN()
	x := mat.NewDense(5, 2, []float64{
		1, 10,
		2, nan,
		3, 30,
		4, nan,
		5, 50,
	})
	y := mat.NewVecDense(5, []float64{0, 1, 0, 1, 0})

	table, err := NewTable([]string{"a", "b"}, "label", x, y)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}

	summaries := table.Describe()
	a := summaries[0]
	if a.Count != 5 || a.Missing != 0 {
		t.Errorf("a: count=%d missing=%d, want 5/0", a.Count, a.Missing)
	}
	if a.Mean != 3 || a.Median != 3 || a.Min != 1 || a.Max != 5 {
		t.Errorf("a: mean=%v median=%v min=%v max=%v", a.Mean, a.Median, a.Min, a.Max)
	}

	b := summaries[1]
	if b.Count != 3 || b.Missing != 2 {
		t.Errorf("b: count=%d missing=%d, want 3/2", b.Count, b.Missing)
	}
	if b.Median != 30 {
		t.Errorf("b: median=%v, want 30", b.Median)
	}
}

func TestDescribeEvenCountMedianAveragesMidpoints(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{4, 1, 3, 2})
	y := mat.NewVecDense(4, nil)

	table, err := NewTable([]string{"a"}, "label", x, y)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}
	if got := table.Describe()[0].Median; got != 2.5 {
		t.Errorf("median = %v, want 2.5", got)
	}
}
