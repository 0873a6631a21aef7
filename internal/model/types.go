package model

import "time"

// NutrientRecord is one raw nutrient row as reported by a food data source.
// Value is per baseline serving.
type NutrientRecord struct {
	RawName string  `json:"name" yaml:"name"`
	Value   float64 `json:"value" yaml:"value"`
	Unit    string  `json:"unit" yaml:"unit"`
}

// Measure is a selectable serving representation. A GramWeight <= 0 means the
// weight is unknown.
type Measure struct {
	ID          string  `json:"id" yaml:"id"`
	Unit        string  `json:"unit" yaml:"unit"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	GramWeight  float64 `json:"gram_weight,omitempty" yaml:"gram_weight,omitempty"`
}

type FoodItem struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	Nutrients         []NutrientRecord `json:"nutrients"`
	Measures          []Measure        `json:"measures,omitempty"`
	BaselineServing   float64          `json:"baseline_serving,omitempty"`
	BaselineMeasureID string           `json:"baseline_measure_id,omitempty"`
	Source            string           `json:"source,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// NutrientGoal is one entry of the goal catalog snapshot.
type NutrientGoal struct {
	Slug     string   `json:"slug"`
	Target   *float64 `json:"target,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	IdealMax *float64 `json:"ideal_max,omitempty"`
	Unit     string   `json:"unit"`
}
