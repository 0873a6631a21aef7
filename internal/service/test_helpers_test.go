package service_test

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/Taycanstar/podsapp/internal/db"
	"github.com/Taycanstar/podsapp/internal/model"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pods.db")
	sqldb, err := db.OpenMigrated(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return sqldb
}

func yogurtFood() model.FoodItem {
	return model.FoodItem{
		ID:                "yogurt",
		Name:              "Greek Yogurt",
		BaselineServing:   1,
		BaselineMeasureID: "cup",
		Source:            "test",
		Measures: []model.Measure{
			{ID: "cup", Unit: "cup", GramWeight: 200},
			{ID: "g", Unit: "g", GramWeight: 1},
		},
		Nutrients: []model.NutrientRecord{
			{RawName: "Protein", Value: 20, Unit: "g"},
			{RawName: "Carbohydrates", Value: 8, Unit: "g"},
			{RawName: "Total Fat", Value: 4, Unit: "g"},
			{RawName: "Fiber", Value: 0, Unit: "g"},
			{RawName: "Calcium", Value: 230, Unit: "mg"},
		},
	}
}

func oatsFood() model.FoodItem {
	return model.FoodItem{
		ID:              "oats",
		Name:            "Rolled Oats",
		BaselineServing: 40,
		Source:          "test",
		Measures: []model.Measure{
			{ID: "g", Unit: "g", GramWeight: 1},
		},
		Nutrients: []model.NutrientRecord{
			{RawName: "Energy", Value: 150, Unit: "kcal"},
			{RawName: "Protein", Value: 5, Unit: "g"},
			{RawName: "Carbohydrates", Value: 27, Unit: "g"},
			{RawName: "Fat", Value: 3, Unit: "g"},
			{RawName: "Dietary Fiber", Value: 4, Unit: "g"},
		},
	}
}
