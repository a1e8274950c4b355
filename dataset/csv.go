package dataset

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/hydroml/potable/pkg/errors"
)

// ReadCSV loads a comma-delimited file whose header names the predictor
// columns and the label column. Empty predictor fields become NaN; the label
// field is required on every row and must parse to exactly 0 or 1.
func ReadCSV(path, targetColumn string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset.ReadCSV: open %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "dataset.ReadCSV: parse %s", path)
	}
	if len(records) < 2 {
		return nil, errors.NewDataError("dataset.ReadCSV", "", "file has no data rows")
	}

	header := records[0]
	targetIdx := -1
	for i, name := range header {
		if name == targetColumn {
			targetIdx = i
			break
		}
	}
	if targetIdx < 0 {
		return nil, errors.NewDataError("dataset.ReadCSV", targetColumn, "label column not found in header")
	}

	columns := make([]string, 0, len(header)-1)
	for i, name := range header {
		if i != targetIdx {
			columns = append(columns, name)
		}
	}

	nRows := len(records) - 1
	nCols := len(columns)
	x := mat.NewDense(nRows, nCols, nil)
	y := mat.NewVecDense(nRows, nil)

	for i, record := range records[1:] {
		if len(record) != len(header) {
			return nil, errors.NewDataError("dataset.ReadCSV", "",
				fmt.Sprintf("row %d has %d fields, header has %d", i+2, len(record), len(header)))
		}
		col := 0
		for j, field := range record {
			if j == targetIdx {
				label, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
				if err != nil || (label != 0 && label != 1) {
					return nil, errors.NewDataError("dataset.ReadCSV", targetColumn,
						fmt.Sprintf("row %d: label %q is not 0 or 1", i+2, field))
				}
				y.SetVec(i, label)
				continue
			}
			v, err := parseField(field)
			if err != nil {
				return nil, errors.NewDataError("dataset.ReadCSV", columns[col],
					fmt.Sprintf("row %d: cannot parse %q as a number", i+2, field))
			}
			x.Set(i, col, v)
			col++
		}
	}

	return NewTable(columns, targetColumn, x, y)
}

// parseField converts one CSV field to float64, mapping the empty-field
// representations of missing data to NaN.
func parseField(field string) (float64, error) {
	s := strings.TrimSpace(field)
	if s == "" || strings.EqualFold(s, "na") || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
