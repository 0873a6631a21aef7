package nutrition

import (
	"strconv"
	"strings"
)

// Row is the presentation tuple for one catalog row.
type Row struct {
	Label      string  `json:"label"`
	Slug       string  `json:"slug,omitempty"`
	Unit       string  `json:"unit"`
	Value      float64 `json:"value"`
	Goal       float64 `json:"goal,omitempty"`
	HasGoal    bool    `json:"has_goal"`
	Percentage string  `json:"percentage"`
	Progress   float64 `json:"progress"`
}

// Rows builds display rows in catalog order. Calories and macros are always
// shown; net carbs needs reported carbs; nutrient rows appear only when some
// active item reports them. A nil catalog means DefaultCatalog.
func Rows(cat *Catalog, totals Totals, goals GoalCatalog, fallback MacroGoals) []Row {
	if cat == nil {
		cat = DefaultCatalog()
	}
	out := make([]Row, 0, len(cat.rows))
	for _, d := range cat.rows {
		amount, ok := totals.Row(d)
		if !ok && !alwaysShown(d) {
			continue
		}
		r := Row{
			Label: d.Label,
			Slug:  d.GoalSlug,
			Unit:  d.DefaultUnit,
			Value: amount.Value,
		}
		if g, ok := ResolveGoal(d, goals, fallback); ok {
			r.Goal, r.HasGoal = g, true
		}
		r.Percentage = PercentageOf(r.Value, r.Goal)
		r.Progress = ProgressFraction(r.Value, r.Goal)
		out = append(out, r)
	}
	return out
}

func alwaysShown(d RowDescriptor) bool {
	switch d.Source.Kind {
	case SourceMacro:
		return true
	case SourceComputed:
		return d.Source.Computed == ComputedCalories
	}
	return false
}

// FormatAmount renders a value for text output: whole numbers as integers,
// small values with up to two decimals.
func FormatAmount(v float64) string {
	if v >= 10 || v <= -10 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// GoalText is the goal column for text output.
func (r Row) GoalText() string {
	if !r.HasGoal {
		return "--"
	}
	return FormatAmount(r.Goal) + r.Unit
}
