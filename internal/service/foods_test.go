package service_test

import (
	"strings"
	"testing"

	"github.com/Taycanstar/podsapp/internal/model"
	"github.com/Taycanstar/podsapp/internal/service"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestSaveFoodRoundTrip(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	in := yogurtFood()
	id, err := service.SaveFood(db, in)
	if err != nil {
		t.Fatalf("save food: %v", err)
	}
	if id != "yogurt" {
		t.Fatalf("expected id yogurt, got %q", id)
	}
	got, err := service.FoodByID(db, id)
	if err != nil {
		t.Fatalf("food by id: %v", err)
	}
	if diff := cmp.Diff(in, got, cmpopts.IgnoreFields(model.FoodItem{}, "CreatedAt", "UpdatedAt")); diff != "" {
		t.Fatalf("food mismatch (-want +got):\n%s", diff)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be set")
	}
}

func TestSaveFoodReplacesMeasuresAndNutrients(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	if _, err := service.SaveFood(db, yogurtFood()); err != nil {
		t.Fatalf("save food: %v", err)
	}
	updated := yogurtFood()
	updated.Name = "Skyr"
	updated.Measures = updated.Measures[:1]
	updated.Nutrients = []model.NutrientRecord{{RawName: "Protein", Value: 22, Unit: "g"}}
	if _, err := service.SaveFood(db, updated); err != nil {
		t.Fatalf("update food: %v", err)
	}
	got, err := service.FoodByID(db, "yogurt")
	if err != nil {
		t.Fatalf("food by id: %v", err)
	}
	if got.Name != "Skyr" || len(got.Measures) != 1 || len(got.Nutrients) != 1 {
		t.Fatalf("expected replaced food, got %+v", got)
	}
	if got.Nutrients[0].Value != 22 {
		t.Fatalf("expected protein 22, got %v", got.Nutrients[0].Value)
	}
}

func TestSaveFoodDefaultsAndValidation(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	id, err := service.SaveFood(db, model.FoodItem{
		Name:     "Apple",
		Measures: []model.Measure{{Unit: "Medium", GramWeight: 182}},
	})
	if err != nil {
		t.Fatalf("save food: %v", err)
	}
	if id == "" {
		t.Fatalf("expected generated id")
	}
	got, err := service.FoodByID(db, id)
	if err != nil {
		t.Fatalf("food by id: %v", err)
	}
	if got.BaselineServing != 1 || got.Source != "manual" || got.Measures[0].ID != "medium" {
		t.Fatalf("unexpected defaults: %+v", got)
	}

	bad := []model.FoodItem{
		{Name: " "},
		{Name: "x", BaselineServing: -1},
		{Name: "x", Nutrients: []model.NutrientRecord{{RawName: "Protein", Value: -2, Unit: "g"}}},
		{Name: "x", Measures: []model.Measure{{ID: "a", Unit: "cup"}, {ID: "a", Unit: "g"}}},
		{Name: "x", BaselineMeasureID: "cup"},
	}
	for i, item := range bad {
		if _, err := service.SaveFood(db, item); err == nil {
			t.Fatalf("case %d: expected validation error for %+v", i, item)
		}
	}
}

func TestListAndDeleteFoods(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	for _, item := range []model.FoodItem{yogurtFood(), oatsFood()} {
		if _, err := service.SaveFood(db, item); err != nil {
			t.Fatalf("save food: %v", err)
		}
	}
	all, err := service.ListFoods(db, service.ListFoodsFilter{})
	if err != nil {
		t.Fatalf("list foods: %v", err)
	}
	if len(all) != 2 || all[0].Name != "Greek Yogurt" || all[1].Name != "Rolled Oats" {
		t.Fatalf("unexpected foods: %+v", all)
	}
	oats, err := service.ListFoods(db, service.ListFoodsFilter{Query: "OAT"})
	if err != nil {
		t.Fatalf("filter foods: %v", err)
	}
	if len(oats) != 1 || oats[0].ID != "oats" {
		t.Fatalf("expected oats only, got %+v", oats)
	}

	if err := service.DeleteFood(db, "oats"); err != nil {
		t.Fatalf("delete food: %v", err)
	}
	if err := service.DeleteFood(db, "oats"); err == nil {
		t.Fatalf("expected second delete to fail")
	}
	if _, err := service.FoodByID(db, "oats"); err == nil {
		t.Fatalf("expected deleted food lookup to fail")
	}
}

func TestDecodeAndImportFoods(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	items, err := service.DecodeFoods(strings.NewReader(`[
  {"name": "Banana", "baseline_serving": 1, "measures": [{"id": "medium", "unit": "medium", "gram_weight": 118}],
   "nutrients": [{"name": "Carbohydrates", "value": 27, "unit": "g"}]},
  {"id": "rice", "name": "White Rice", "baseline_serving": 100,
   "nutrients": [{"name": "Energy", "value": 130, "unit": "kcal"}]}
]`))
	if err != nil {
		t.Fatalf("decode foods: %v", err)
	}
	ids, err := service.ImportFoods(db, items)
	if err != nil {
		t.Fatalf("import foods: %v", err)
	}
	if len(ids) != 2 || ids[0] == "" || ids[1] != "rice" {
		t.Fatalf("unexpected ids: %v", ids)
	}

	single, err := service.DecodeFoods(strings.NewReader(`{"name": "Egg"}`))
	if err != nil {
		t.Fatalf("decode single food: %v", err)
	}
	if len(single) != 1 || single[0].Name != "Egg" {
		t.Fatalf("unexpected single decode: %+v", single)
	}
	if _, err := service.DecodeFoods(strings.NewReader("  ")); err == nil {
		t.Fatalf("expected empty input to fail")
	}
}
