package nutrition_test

import (
	"testing"

	"github.com/Taycanstar/podsapp/internal/model"
	"github.com/Taycanstar/podsapp/internal/nutrition"
	"github.com/google/go-cmp/cmp"
)

func TestRowsShowsPresentRowsWithGoals(t *testing.T) {
	t.Parallel()
	cat := fixtureCatalog(t)
	b := chickenItem()
	totals := nutrition.Aggregate(cat, entriesFor(b))
	goals := nutrition.NewGoalCatalog([]model.NutrientGoal{
		{Slug: "sugars", Max: ptr(50), Unit: "g"},
		{Slug: "protein", Target: ptr(32000), Unit: "mg"},
	})
	fallback := nutrition.MacroGoals{Calories: 2000, Protein: 100, Carbs: 250, Fat: 70}

	rows := nutrition.Rows(cat, totals, goals, fallback)
	want := []nutrition.Row{
		{Label: "Calories", Slug: "calories", Unit: "kcal", Value: 60, Goal: 2000, HasGoal: true, Percentage: "3%", Progress: 0.03},
		{Label: "Protein", Slug: "protein", Unit: "g", Value: 8, Goal: 32, HasGoal: true, Percentage: "25%", Progress: 0.25},
		{Label: "Carbs", Slug: "carbs", Unit: "g", Value: 0, Goal: 250, HasGoal: true, Percentage: "0%", Progress: 0},
		{Label: "Fat", Slug: "fat", Unit: "g", Value: 0, Goal: 70, HasGoal: true, Percentage: "0%", Progress: 0},
		{Label: "Sugars", Slug: "sugars", Unit: "g", Value: 0, Goal: 50, HasGoal: true, Percentage: "0%", Progress: 0},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("unexpected rows (-want +got):\n%s", diff)
	}
}

func TestRowsWithoutGoalsRenderEmptyState(t *testing.T) {
	t.Parallel()
	cat := fixtureCatalog(t)
	item := model.FoodItem{ID: "salt", Nutrients: []model.NutrientRecord{{RawName: "Sodium", Value: 400, Unit: "mg"}}}
	rows := nutrition.Rows(cat, nutrition.Aggregate(cat, entriesFor(item)), nil, nutrition.MacroGoals{})
	var sodium *nutrition.Row
	for i := range rows {
		if rows[i].Label == "Sodium" {
			sodium = &rows[i]
		}
	}
	if sodium == nil {
		t.Fatalf("expected sodium row in %+v", rows)
	}
	if sodium.HasGoal || sodium.Percentage != "--" || sodium.Progress != 0 || sodium.GoalText() != "--" {
		t.Fatalf("expected empty goal state, got %+v", *sodium)
	}
}

func TestFormatAmount(t *testing.T) {
	t.Parallel()
	for in, want := range map[float64]string{0: "0", 0.626: "0.63", 1.5: "1.5", 18: "18", 123.4: "123", 9.999: "10"} {
		if got := nutrition.FormatAmount(in); got != want {
			t.Fatalf("format %v: expected %q, got %q", in, want, got)
		}
	}
}
