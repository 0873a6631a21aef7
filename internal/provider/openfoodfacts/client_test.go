package openfoodfacts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Taycanstar/podsapp/internal/model"
	"github.com/google/go-cmp/cmp"
)

const yogurtProduct = `{
  "status": 1,
  "product": {
    "code": "12345678",
    "product_name": "Yogurt Cup",
    "brands": "Brand Co",
    "serving_size": "1 cup (170 g)",
    "serving_quantity": "170",
    "nutriments": {
      "energy-kcal_serving": 120,
      "energy-kj_serving": 502,
      "proteins_serving": 10,
      "carbohydrates_serving": 15,
      "fat_serving": 2,
      "vitamin-d_serving": 0.0000025,
      "nutrition-score-fr_serving": 3,
      "proteins_100g": 5.9
    }
  }
}`

func TestDecodeProductPrefersServingValues(t *testing.T) {
	t.Parallel()

	item, err := DecodeProduct(strings.NewReader(yogurtProduct))
	if err != nil {
		t.Fatalf("decode product: %v", err)
	}
	want := model.FoodItem{
		ID:                "off-12345678",
		Name:              "Yogurt Cup (Brand Co)",
		BaselineServing:   1,
		BaselineMeasureID: "serving",
		Source:            "openfoodfacts",
		Measures: []model.Measure{
			{ID: "g", Unit: "g", GramWeight: 1},
			{ID: "serving", Unit: "1 cup (170 g)", Description: "1 cup (170 g)", GramWeight: 170},
		},
		Nutrients: []model.NutrientRecord{
			{RawName: "carbohydrates", Value: 15, Unit: "g"},
			{RawName: "energy-kcal", Value: 120, Unit: "kcal"},
			{RawName: "fat", Value: 2, Unit: "g"},
			{RawName: "proteins", Value: 10, Unit: "g"},
			{RawName: "vitamin d", Value: 0.0000025, Unit: "g"},
		},
	}
	if diff := cmp.Diff(want, item); diff != "" {
		t.Fatalf("decoded product mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeProductFallsBackToPer100g(t *testing.T) {
	t.Parallel()

	item, err := DecodeProduct(strings.NewReader(`{
  "code": "999",
  "product_name_en": "Oat Flakes",
  "nutriments": {"energy-kcal_100g": "372", "fiber_100g": 10, "vitamin-pp_100g": 0.001}
}`))
	if err != nil {
		t.Fatalf("decode bare product: %v", err)
	}
	if item.BaselineServing != 100 || item.BaselineMeasureID != "g" || len(item.Measures) != 1 {
		t.Fatalf("expected 100 g baseline, got %+v", item)
	}
	want := []model.NutrientRecord{
		{RawName: "energy-kcal", Value: 372, Unit: "kcal"},
		{RawName: "Fiber", Value: 10, Unit: "g"},
		{RawName: "Niacin", Value: 0.001, Unit: "g"},
	}
	if diff := cmp.Diff(want, item.Nutrients); diff != "" {
		t.Fatalf("nutrients mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeProductErrors(t *testing.T) {
	t.Parallel()

	for _, in := range []string{`{"status": 0, "product": {"product_name": "x"}}`, `{"code": "1"}`, `[`} {
		if _, err := DecodeProduct(strings.NewReader(in)); err == nil {
			t.Fatalf("expected error for %s", in)
		}
	}
}

func TestLookupBarcode(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/product/12345678.json" || r.Header.Get("User-Agent") == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(yogurtProduct))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	item, body, err := c.LookupBarcode(context.Background(), "12345678")
	if err != nil {
		t.Fatalf("lookup barcode: %v", err)
	}
	if item.Name != "Yogurt Cup (Brand Co)" || len(body) == 0 {
		t.Fatalf("unexpected lookup result: %+v", item)
	}
	if _, _, err := c.LookupBarcode(context.Background(), "000"); err == nil {
		t.Fatalf("expected lookup failure for unknown barcode")
	}
}
