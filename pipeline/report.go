package pipeline

import (
	"fmt"
	"sort"
	"strings"
)

// Comparison collects the per-candidate outcomes in configuration order.
type Comparison struct {
	Scoring  string
	Outcomes []Outcome
}

// BestOutcome returns the successful candidate with the highest test
// accuracy, or false when every candidate failed.
func (c *Comparison) BestOutcome() (Outcome, bool) {
	best := -1
	for i, o := range c.Outcomes {
		if o.Failed() {
			continue
		}
		if best < 0 || o.Report.Accuracy > c.Outcomes[best].Report.Accuracy {
			best = i
		}
	}
	if best < 0 {
		return Outcome{}, false
	}
	return c.Outcomes[best], true
}

// String renders the comparison as an aligned text table, one row per
// candidate, followed by each candidate's confusion matrix.
func (c *Comparison) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%-20s %10s %10s %10s %10s %10s  %s\n",
		"candidate", "cv score", "accuracy", "precision", "recall", "f1", "best params")
	for _, o := range c.Outcomes {
		if o.Failed() {
			fmt.Fprintf(&b, "%-20s %10s %10s %10s %10s %10s  %v\n",
				o.Name, "-", "-", "-", "-", "-", "FAILED: "+o.Err.Error())
			continue
		}
		pos := o.Report.PerClass[1]
		fmt.Fprintf(&b, "%-20s %10.4f %10.4f %10.4f %10.4f %10.4f  %s\n",
			o.Name, o.CVScore, o.Report.Accuracy,
			pos.Precision, pos.Recall, pos.F1, formatParams(o.BestParams))
	}

	for _, o := range c.Outcomes {
		if o.Failed() {
			continue
		}
		cm := o.Report.Confusion
		fmt.Fprintf(&b, "\n%s confusion matrix (rows true, cols predicted)\n", o.Name)
		fmt.Fprintf(&b, "%8s %8s %8s\n", "", "0", "1")
		fmt.Fprintf(&b, "%8s %8d %8d\n", "0", cm.TN, cm.FP)
		fmt.Fprintf(&b, "%8s %8d %8d\n", "1", cm.FN, cm.TP)
	}
	return b.String()
}

// formatParams renders a parameter map with sorted keys so output is stable.
func formatParams(params map[string]interface{}) string {
	if len(params) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, params[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
