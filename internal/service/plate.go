package service

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/Taycanstar/podsapp/internal/model"

	"github.com/Taycanstar/podsapp/internal/nutrition"
	"github.com/Taycanstar/podsapp/internal/plate"
)

type ComposePlateInput struct {
	// FoodIDs may repeat a food; each repeat is its own plate entry.
	FoodIDs []string
	// Servings and Measures are keyed by entry id: the food id for its first
	// entry, then "id#2", "id#3" for repeats.
	Servings map[string]string
	Measures map[string]string
	Removed  []string
	Date     string
}

type PlateItem struct {
	ID          string  `json:"id"`
	FoodID      string  `json:"food_id"`
	Name        string  `json:"name"`
	ServingText string  `json:"serving_text"`
	Serving     float64 `json:"serving"`
	Measure     string  `json:"measure,omitempty"`
	Scale       float64 `json:"scale"`
	Removed     bool    `json:"removed"`
}

// PlateSummary is the result of composing a plate: per-item serving state,
// display rows and the inputs that did not apply cleanly.
type PlateSummary struct {
	Items     []PlateItem              `json:"items"`
	Rows      []nutrition.Row          `json:"rows"`
	Conflicts []nutrition.UnitConflict `json:"conflicts,omitempty"`
	// Ignored lists serving texts that did not parse, keyed by entry id.
	Ignored map[string]string `json:"ignored,omitempty"`
}

// ComposePlate loads the listed foods, applies serving edits and removals,
// and resolves the totals against the stored goals in effect on in.Date.
func ComposePlate(db *sql.DB, cat *nutrition.Catalog, in ComposePlateInput) (PlateSummary, error) {
	if len(in.FoodIDs) == 0 {
		return PlateSummary{}, fmt.Errorf("at least one food id is required")
	}
	session := plate.NewSession(cat)
	foods := map[string]model.FoodItem{}
	for _, id := range in.FoodIDs {
		id = strings.TrimSpace(id)
		item, ok := foods[id]
		if !ok {
			var err error
			if item, err = FoodByID(db, id); err != nil {
				return PlateSummary{}, err
			}
			foods[id] = item
		}
		if _, err := session.Add(item); err != nil {
			return PlateSummary{}, err
		}
	}

	// Measure first so the serving text is read in the selected unit.
	for _, id := range sortedKeys(in.Measures) {
		if err := session.SelectMeasure(strings.TrimSpace(id), in.Measures[id]); err != nil {
			return PlateSummary{}, err
		}
	}
	ignored := map[string]string{}
	for _, id := range sortedKeys(in.Servings) {
		text := in.Servings[id]
		id = strings.TrimSpace(id)
		ok, err := session.SetServingText(id, text)
		if err != nil {
			return PlateSummary{}, err
		}
		if !ok {
			ignored[id] = text
		}
	}
	for _, id := range in.Removed {
		if err := session.Remove(strings.TrimSpace(id)); err != nil {
			return PlateSummary{}, err
		}
	}

	goals, err := NutrientGoals(db)
	if err != nil {
		return PlateSummary{}, err
	}
	fallback, err := MacroGoalsAt(db, in.Date)
	if err != nil {
		return PlateSummary{}, err
	}

	totals := session.Totals()
	summary := PlateSummary{
		Items:     make([]PlateItem, 0, len(in.FoodIDs)),
		Rows:      nutrition.Rows(session.Catalog(), totals, goals, fallback),
		Conflicts: totals.Conflicts,
	}
	if len(ignored) > 0 {
		summary.Ignored = ignored
	}
	for _, id := range session.IDs() {
		item, _ := session.Item(id)
		st, err := session.State(id)
		if err != nil {
			return PlateSummary{}, err
		}
		scale, err := session.Scale(id)
		if err != nil {
			return PlateSummary{}, err
		}
		pi := PlateItem{
			ID:          id,
			FoodID:      item.ID,
			Name:        item.Name,
			ServingText: st.RawInput,
			Serving:     st.ServingAmount,
			Scale:       scale,
			Removed:     session.Removed(id),
		}
		if m, ok := session.Measure(id); ok {
			pi.Measure = m.Unit
		}
		summary.Items = append(summary.Items, pi)
	}
	return summary, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
