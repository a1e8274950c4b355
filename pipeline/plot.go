package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/hydroml/potable/metrics"
	"github.com/hydroml/potable/pkg/errors"
)

// confusionGrid adapts a 2x2 confusion matrix to the heat-map plotter.
// Row 0 is drawn at the bottom, so true label 0 sits on the lower row.
type confusionGrid struct {
	cm metrics.ConfusionMatrix
}

func (g confusionGrid) Dims() (int, int) { return 2, 2 }
func (g confusionGrid) X(c int) float64  { return float64(c) }
func (g confusionGrid) Y(r int) float64  { return float64(r) }

func (g confusionGrid) Z(c, r int) float64 {
	cells := [2][2]int{
		{g.cm.TN, g.cm.FP},
		{g.cm.FN, g.cm.TP},
	}
	return float64(cells[r][c])
}

// WriteConfusionPlots renders one confusion-matrix heat map PNG per
// successful candidate into dir, creating it if needed.
func WriteConfusionPlots(dir string, c *Comparison) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "pipeline.WriteConfusionPlots: create %s", dir)
	}

	for _, o := range c.Outcomes {
		if o.Failed() {
			continue
		}
		path := filepath.Join(dir, plotFileName(o.Name))
		if err := writeConfusionPlot(path, o); err != nil {
			return err
		}
	}
	return nil
}

func writeConfusionPlot(path string, o Outcome) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (accuracy %.4f)", o.Name, o.Report.Accuracy)
	p.X.Label.Text = "predicted"
	p.Y.Label.Text = "true"

	hm := plotter.NewHeatMap(confusionGrid{cm: o.Report.Confusion}, palette.Heat(12, 1))
	p.Add(hm)

	p.X.Tick.Marker = plot.ConstantTicks([]plot.Tick{{Value: 0, Label: "0"}, {Value: 1, Label: "1"}})
	p.Y.Tick.Marker = plot.ConstantTicks([]plot.Tick{{Value: 0, Label: "0"}, {Value: 1, Label: "1"}})

	if err := p.Save(4*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "pipeline.writeConfusionPlot: save %s", path)
	}
	return nil
}

// plotFileName maps a candidate name to a filesystem-friendly PNG name.
func plotFileName(name string) string {
	s := strings.ToLower(name)
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, s)
	return s + "_confusion.png"
}
