package usda

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Taycanstar/podsapp/internal/model"
	"github.com/google/go-cmp/cmp"
)

const foundationFood = `{
  "fdcId": 171284,
  "description": "Yogurt, Greek, plain, nonfat",
  "foodNutrients": [
    {"nutrient": {"name": "Energy", "unitName": "kcal"}, "amount": 59},
    {"nutrient": {"name": "Energy", "unitName": "kJ"}, "amount": 247},
    {"nutrient": {"name": "Protein", "unitName": "g"}, "amount": 10.2},
    {"nutrient": {"name": "Total lipid (fat)", "unitName": "g"}, "amount": 0.39},
    {"nutrient": {"name": "Fiber, total dietary", "unitName": "g"}, "amount": 0},
    {"nutrient": {"name": "Vitamin D (D2 + D3)", "unitName": "UG"}},
    {"nutrient": {"name": "Calcium, Ca", "unitName": "mg"}, "amount": 110}
  ],
  "foodPortions": [
    {"id": 90, "amount": 1, "gramWeight": 170, "modifier": "container", "measureUnit": {"name": "undetermined"}},
    {"id": 91, "amount": 2, "gramWeight": 490, "measureUnit": {"name": "cup"}, "portionDescription": "2 cups"},
    {"id": 92, "amount": 1, "gramWeight": 0, "measureUnit": {"name": "tbsp"}}
  ]
}`

func TestDecodeFoodFullFormat(t *testing.T) {
	t.Parallel()

	item, err := DecodeFood(strings.NewReader(foundationFood))
	if err != nil {
		t.Fatalf("decode food: %v", err)
	}
	want := model.FoodItem{
		ID:                "usda-171284",
		Name:              "Yogurt, Greek, plain, nonfat",
		BaselineServing:   100,
		BaselineMeasureID: "g",
		Source:            "usda",
		Measures: []model.Measure{
			{ID: "g", Unit: "g", GramWeight: 1},
			{ID: "portion-90", Unit: "container", GramWeight: 170},
			{ID: "portion-91", Unit: "cup", Description: "2 cups", GramWeight: 245},
		},
		Nutrients: []model.NutrientRecord{
			{RawName: "Energy", Value: 59, Unit: "kcal"},
			{RawName: "Protein", Value: 10.2, Unit: "g"},
			{RawName: "Total lipid (fat)", Value: 0.39, Unit: "g"},
			{RawName: "Fiber, total dietary", Value: 0, Unit: "g"},
			{RawName: "Calcium, Ca", Value: 110, Unit: "mg"},
		},
	}
	if diff := cmp.Diff(want, item); diff != "" {
		t.Fatalf("decoded food mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeFoodBrandedAbridged(t *testing.T) {
	t.Parallel()

	item, err := DecodeFood(strings.NewReader(`{
  "fdcId": 2001,
  "description": "Granola Bar",
  "brandOwner": "Test Brand",
  "servingSize": 40,
  "servingSizeUnit": "g",
  "householdServingFullText": "1 bar",
  "foodNutrients": [
    {"nutrientName": "Protein", "unitName": "G", "value": 7.5},
    {"nutrientName": "Sodium, Na", "unitName": "MG", "value": 250}
  ]
}`))
	if err != nil {
		t.Fatalf("decode food: %v", err)
	}
	if item.Name != "Granola Bar (Test Brand)" {
		t.Fatalf("unexpected name %q", item.Name)
	}
	if len(item.Measures) != 2 || item.Measures[1].Unit != "1 bar" || item.Measures[1].GramWeight != 40 {
		t.Fatalf("unexpected measures: %+v", item.Measures)
	}
	if len(item.Nutrients) != 2 || item.Nutrients[0].Unit != "g" || item.Nutrients[1].Value != 250 {
		t.Fatalf("unexpected nutrients: %+v", item.Nutrients)
	}
}

func TestDecodeFoodRejectsMissingDescription(t *testing.T) {
	t.Parallel()

	if _, err := DecodeFood(strings.NewReader(`{"fdcId": 1}`)); err == nil {
		t.Fatalf("expected error for food without description")
	}
	if _, err := DecodeFood(strings.NewReader(`not json`)); err == nil {
		t.Fatalf("expected error for malformed input")
	}
}

func TestFetchFood(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fdc/v1/food/171284" || r.URL.Query().Get("api_key") != "demo" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(foundationFood))
	}))
	defer ts.Close()

	c := &Client{APIKey: "demo", BaseURL: ts.URL, HTTPClient: ts.Client()}
	item, body, err := c.FetchFood(context.Background(), "171284")
	if err != nil {
		t.Fatalf("fetch food: %v", err)
	}
	if item.ID != "usda-171284" || len(body) == 0 {
		t.Fatalf("unexpected fetch result: %+v", item)
	}
	if _, _, err := c.FetchFood(context.Background(), "999"); err == nil {
		t.Fatalf("expected not found error")
	}
	if _, _, err := (&Client{}).FetchFood(context.Background(), "1"); err == nil {
		t.Fatalf("expected missing api key error")
	}
}
