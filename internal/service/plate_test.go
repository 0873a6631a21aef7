package service_test

import (
	"database/sql"
	"math"
	"strings"
	"testing"

	"github.com/Taycanstar/podsapp/internal/model"
	"github.com/Taycanstar/podsapp/internal/nutrition"
	"github.com/Taycanstar/podsapp/internal/service"
)

func plateRow(t *testing.T, summary service.PlateSummary, label string) nutrition.Row {
	t.Helper()
	for _, r := range summary.Rows {
		if r.Label == label {
			return r
		}
	}
	t.Fatalf("row %q not shown in %+v", label, summary.Rows)
	return nutrition.Row{}
}

func seedPlateFoods(t *testing.T, db *sql.DB) {
	t.Helper()
	for _, item := range []model.FoodItem{yogurtFood(), oatsFood()} {
		if _, err := service.SaveFood(db, item); err != nil {
			t.Fatalf("save %s: %v", item.ID, err)
		}
	}
}

func TestComposePlateScalesAndResolvesGoals(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	seedPlateFoods(t, db)
	if _, err := service.SaveMacroGoals(db, service.MacroGoalVersion{
		EffectiveDate: "2026-01-01",
		Goals:         nutrition.MacroGoals{Calories: 2000, Protein: 150, Carbs: 200, Fat: 70},
	}); err != nil {
		t.Fatalf("set goal: %v", err)
	}
	if err := service.ReplaceNutrientGoals(db, []model.NutrientGoal{{Slug: "calcium", Target: ptr(0.5), Unit: "g"}}); err != nil {
		t.Fatalf("replace nutrient goals: %v", err)
	}

	summary, err := service.ComposePlate(db, nutrition.DefaultCatalog(), service.ComposePlateInput{
		FoodIDs:  []string{"yogurt", "oats"},
		Measures: map[string]string{"yogurt": "g"},
		Servings: map[string]string{"yogurt": "100", "oats": "a lot"},
		Date:     "2026-01-10",
	})
	if err != nil {
		t.Fatalf("compose plate: %v", err)
	}

	if len(summary.Items) != 2 {
		t.Fatalf("expected 2 items, got %+v", summary.Items)
	}
	yogurt := summary.Items[0]
	if yogurt.ID != "yogurt" || yogurt.Measure != "g" || math.Abs(yogurt.Scale-0.5) > 1e-12 {
		t.Fatalf("unexpected yogurt item: %+v", yogurt)
	}
	oats := summary.Items[1]
	if oats.Serving != 40 || oats.ServingText != "a lot" || oats.Scale != 1 {
		t.Fatalf("expected rejected text to keep baseline serving, got %+v", oats)
	}
	if summary.Ignored["oats"] != "a lot" {
		t.Fatalf("expected ignored oats text, got %+v", summary.Ignored)
	}

	protein := plateRow(t, summary, "Protein")
	if math.Abs(protein.Value-15) > 1e-9 || protein.Goal != 150 || protein.Percentage != "10%" {
		t.Fatalf("unexpected protein row: %+v", protein)
	}
	netCarbs := plateRow(t, summary, "Net Carbs")
	if math.Abs(netCarbs.Value-27) > 1e-9 || netCarbs.HasGoal {
		t.Fatalf("unexpected net carbs row: %+v", netCarbs)
	}
	calcium := plateRow(t, summary, "Calcium")
	if math.Abs(calcium.Value-115) > 1e-9 || calcium.Goal != 500 || calcium.Percentage != "23%" {
		t.Fatalf("unexpected calcium row: %+v", calcium)
	}
	calories := plateRow(t, summary, "Calories")
	if calories.Value != 150 || calories.Goal != 2000 {
		t.Fatalf("unexpected calories row: %+v", calories)
	}
}

func TestComposePlateRemovedItemsDropOut(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	seedPlateFoods(t, db)
	summary, err := service.ComposePlate(db, nil, service.ComposePlateInput{
		FoodIDs: []string{"yogurt", "oats"},
		Removed: []string{"yogurt"},
	})
	if err != nil {
		t.Fatalf("compose plate: %v", err)
	}
	if !summary.Items[0].Removed {
		t.Fatalf("expected yogurt removed, got %+v", summary.Items[0])
	}
	protein := plateRow(t, summary, "Protein")
	if protein.Value != 5 || protein.HasGoal || protein.Percentage != "--" {
		t.Fatalf("unexpected protein row: %+v", protein)
	}
	for _, r := range summary.Rows {
		if r.Label == "Calcium" {
			t.Fatalf("calcium only reported by removed item should be hidden: %+v", r)
		}
	}
}

func TestComposePlateErrors(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	if _, err := service.SaveFood(db, yogurtFood()); err != nil {
		t.Fatalf("save food: %v", err)
	}
	cases := []service.ComposePlateInput{
		{},
		{FoodIDs: []string{"missing"}},
		{FoodIDs: []string{"yogurt"}, Measures: map[string]string{"yogurt": "slice"}},
		{FoodIDs: []string{"yogurt"}, Removed: []string{"oats"}},
		{FoodIDs: []string{"yogurt"}, Servings: map[string]string{"oats": "1"}},
	}
	for i, in := range cases {
		if _, err := service.ComposePlate(db, nil, in); err == nil {
			t.Fatalf("case %d: expected error for %+v", i, in)
		}
	}
}

func TestComposePlateRepeatedFood(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	seedPlateFoods(t, db)
	summary, err := service.ComposePlate(db, nil, service.ComposePlateInput{
		FoodIDs:  []string{"oats", "oats"},
		Servings: map[string]string{"oats#2": "80"},
		Measures: map[string]string{"oats#2": "g"},
	})
	if err != nil {
		t.Fatalf("compose plate: %v", err)
	}
	if len(summary.Items) != 2 || summary.Items[1].ID != "oats#2" || summary.Items[1].FoodID != "oats" {
		t.Fatalf("expected a second oats entry, got %+v", summary.Items)
	}
	if summary.Items[0].Scale != 1 || summary.Items[1].Scale != 2 {
		t.Fatalf("expected entries scaled independently, got %+v", summary.Items)
	}
	protein := plateRow(t, summary, "Protein")
	if math.Abs(protein.Value-15) > 1e-9 {
		t.Fatalf("expected 15 g protein from three baselines of oats, got %+v", protein)
	}
}

func TestComposePlateReportsFirstBadEntryInOrder(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	seedPlateFoods(t, db)
	in := service.ComposePlateInput{
		FoodIDs:  []string{"oats"},
		Measures: map[string]string{"zucchini": "g", "apple": "g", "melon": "g"},
	}
	for i := 0; i < 5; i++ {
		_, err := service.ComposePlate(db, nil, in)
		if err == nil || !strings.Contains(err.Error(), `"apple"`) {
			t.Fatalf("expected error naming apple, got %v", err)
		}
	}
}
