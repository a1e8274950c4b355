package modelselection

// ParamGrid is an ordered mapping from hyperparameter name to the candidate
// values tried for it. Insertion order defines grid iteration order: the
// first parameter added varies slowest when enumerating combinations, and
// grid search breaks score ties in favor of the earlier combination.
type ParamGrid struct {
	names  []string
	values map[string][]interface{}
}

// NewParamGrid creates an empty grid.
func NewParamGrid() *ParamGrid {
	return &ParamGrid{values: make(map[string][]interface{})}
}

// Add appends candidate values for one hyperparameter and returns the grid
// for chaining. Adding the same name twice extends its value list.
func (g *ParamGrid) Add(name string, values ...interface{}) *ParamGrid {
	if _, seen := g.values[name]; !seen {
		g.names = append(g.names, name)
	}
	g.values[name] = append(g.values[name], values...)
	return g
}

// Names returns the parameter names in insertion order.
func (g *ParamGrid) Names() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}

// Size returns the number of combinations in the grid.
func (g *ParamGrid) Size() int {
	if len(g.names) == 0 {
		return 0
	}
	size := 1
	for _, name := range g.names {
		size *= len(g.values[name])
	}
	return size
}

// Combinations enumerates the Cartesian product of the grid in iteration
// order. An empty grid yields nil.
func (g *ParamGrid) Combinations() []map[string]interface{} {
	if g.Size() == 0 {
		return nil
	}

	combos := []map[string]interface{}{{}}
	for _, name := range g.names {
		next := make([]map[string]interface{}, 0, len(combos)*len(g.values[name]))
		for _, combo := range combos {
			for _, v := range g.values[name] {
				extended := make(map[string]interface{}, len(combo)+1)
				for k, cv := range combo {
					extended[k] = cv
				}
				extended[name] = v
				next = append(next, extended)
			}
		}
		combos = next
	}
	return combos
}
