package dataset

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// ColumnSummary holds descriptive statistics for one predictor column,
// computed over its non-missing values.
type ColumnSummary struct {
	Name    string
	Count   int // non-missing entries
	Missing int
	Mean    float64
	Std     float64
	Min     float64
	Q25     float64
	Median  float64
	Q75     float64
	Max     float64
}

// Describe computes per-column descriptive statistics in the style of a
// dataframe describe() call. Columns with zero non-missing values report NaN
// statistics rather than failing; the imputer is where that becomes an error.
func (t *Table) Describe() []ColumnSummary {
	r, c := t.x.Dims()
	summaries := make([]ColumnSummary, c)

	for j := 0; j < c; j++ {
		vals := make([]float64, 0, r)
		missing := 0
		for i := 0; i < r; i++ {
			v := t.x.At(i, j)
			if math.IsNaN(v) {
				missing++
				continue
			}
			vals = append(vals, v)
		}

		s := ColumnSummary{Name: t.columns[j], Count: len(vals), Missing: missing}
		if len(vals) == 0 {
			s.Mean, s.Std = math.NaN(), math.NaN()
			s.Min, s.Q25, s.Median, s.Q75, s.Max = math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()
			summaries[j] = s
			continue
		}

		sort.Float64s(vals)
		s.Mean = stat.Mean(vals, nil)
		s.Std = math.Sqrt(stat.Variance(vals, nil))
		s.Min = vals[0]
		s.Max = vals[len(vals)-1]
		s.Q25 = stat.Quantile(0.25, stat.Empirical, vals, nil)
		s.Median = median(vals)
		s.Q75 = stat.Quantile(0.75, stat.Empirical, vals, nil)
		summaries[j] = s
	}
	return summaries
}

// median returns the midpoint of sorted values, averaging the two central
// elements for even lengths.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// FormatSummaries renders summaries as an aligned text table.
func FormatSummaries(summaries []ColumnSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-18s %7s %7s %12s %12s %12s %12s %12s\n",
		"column", "count", "missing", "mean", "std", "min", "median", "max")
	for _, s := range summaries {
		fmt.Fprintf(&b, "%-18s %7d %7d %12.4f %12.4f %12.4f %12.4f %12.4f\n",
			s.Name, s.Count, s.Missing, s.Mean, s.Std, s.Min, s.Median, s.Max)
	}
	return b.String()
}
