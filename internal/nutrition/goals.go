package nutrition

import (
	"math"
	"strconv"

	"github.com/Taycanstar/podsapp/internal/model"
)

// GoalCatalog is a read-only snapshot of nutrient goals keyed by canonical
// slug. It is always replaced whole, never patched.
type GoalCatalog map[string]model.NutrientGoal

// NewGoalCatalog indexes goals by canonical slug. Later duplicates win.
func NewGoalCatalog(goals []model.NutrientGoal) GoalCatalog {
	out := make(GoalCatalog, len(goals))
	for _, g := range goals {
		slug := CanonicalKey(g.Slug)
		if slug == "" {
			continue
		}
		g.Slug = slug
		out[slug] = g
	}
	return out
}

func (c GoalCatalog) Lookup(slug string) (model.NutrientGoal, bool) {
	g, ok := c[CanonicalKey(slug)]
	return g, ok
}

// MacroGoals is the daily calorie and macro fallback used when the goal
// catalog has no entry for those rows.
type MacroGoals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein_g"`
	Carbs    float64 `json:"carbs_g"`
	Fat      float64 `json:"fat_g"`
}

// ResolveGoal returns the daily goal for d in d.DefaultUnit. A catalog entry
// is read as target, then max, then idealMax, taking the first positive one.
// Without an entry, macro and calorie rows fall back to the daily macro
// goals; every other row has no goal.
func ResolveGoal(d RowDescriptor, goals GoalCatalog, fallback MacroGoals) (float64, bool) {
	if d.GoalSlug != "" {
		if g, ok := goals.Lookup(d.GoalSlug); ok {
			v, ok := firstPositive(g.Target, g.Max, g.IdealMax)
			if !ok {
				return 0, false
			}
			return Convert(v, g.Unit, d.DefaultUnit), true
		}
	}
	v := fallbackGoal(d, fallback)
	if v > 0 {
		return v, true
	}
	return 0, false
}

func firstPositive(values ...*float64) (float64, bool) {
	for _, v := range values {
		if v != nil && *v > 0 && !math.IsInf(*v, 0) {
			return *v, true
		}
	}
	return 0, false
}

func fallbackGoal(d RowDescriptor, fallback MacroGoals) float64 {
	switch d.Source.Kind {
	case SourceMacro:
		switch d.Source.Macro {
		case MacroProtein:
			return Convert(fallback.Protein, "g", d.DefaultUnit)
		case MacroCarbs:
			return Convert(fallback.Carbs, "g", d.DefaultUnit)
		case MacroFat:
			return Convert(fallback.Fat, "g", d.DefaultUnit)
		}
	case SourceComputed:
		if d.Source.Computed == ComputedCalories {
			return fallback.Calories
		}
	}
	return 0
}

// PercentageOf renders value as a whole percentage of goal, or "--" when
// there is no usable goal or the ratio is not finite.
func PercentageOf(value, goal float64) string {
	if !(goal > 0) || math.IsInf(goal, 0) {
		return "--"
	}
	pct := math.Round(value / goal * 100)
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return "--"
	}
	if pct == 0 {
		pct = 0
	}
	return strconv.FormatFloat(pct, 'f', 0, 64) + "%"
}

// ProgressFraction is value/goal clamped to [0, 1]; 0 without a usable goal.
func ProgressFraction(value, goal float64) float64 {
	if !(goal > 0) || math.IsInf(goal, 0) {
		return 0
	}
	p := value / goal
	if math.IsNaN(p) {
		return 0
	}
	return math.Min(math.Max(p, 0), 1)
}
