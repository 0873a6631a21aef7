package nutrition

import (
	"math"
	"strings"

	"github.com/Taycanstar/podsapp/internal/model"
)

type Amount struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// UnitConflict records a contribution that was left out of a total because
// its unit could not be converted to the unit already established for Key.
type UnitConflict struct {
	Key    string `json:"key"`
	ItemID string `json:"item_id"`
	Unit   string `json:"unit"`
	Want   string `json:"want"`
}

// Entry is one item on the plate together with its edit state.
type Entry struct {
	Item    model.FoodItem
	State   ServingEditState
	Removed bool
}

// Totals is the result of Aggregate.
//
// Nutrients holds one bucket per canonical raw nutrient name; a key exists iff
// at least one active item reports that name, even when the value is zero.
// RowTotals holds the catalog rows resolved through their synonym lists, keyed
// by RowDescriptor.Key and converted to each row's default unit.
type Totals struct {
	Nutrients map[string]Amount `json:"nutrients"`
	RowTotals map[string]Amount `json:"rows"`
	Conflicts []UnitConflict    `json:"conflicts,omitempty"`
}

func (t Totals) Nutrient(name string) (Amount, bool) {
	a, ok := t.Nutrients[CanonicalKey(name)]
	return a, ok
}

func (t Totals) Row(d RowDescriptor) (Amount, bool) {
	a, ok := t.RowTotals[d.Key()]
	return a, ok
}

// Aggregate combines the scaled contributions of every non-removed entry. It
// has no side effects and keeps no state: the same inputs always produce the
// same Totals, bit for bit. A nil catalog means DefaultCatalog.
func Aggregate(cat *Catalog, entries []Entry) Totals {
	if cat == nil {
		cat = DefaultCatalog()
	}
	t := Totals{
		Nutrients: map[string]Amount{},
		RowTotals: map[string]Amount{},
	}
	var carbs, fiber float64
	carbsPresent := false

	for _, e := range entries {
		if e.Removed {
			continue
		}
		scale := ScalingFactor(e.Item.Measures, e.State)

		for _, rec := range e.Item.Nutrients {
			key := CanonicalKey(rec.RawName)
			if key == "" {
				continue
			}
			t.addNutrient(key, e.Item.ID, rec, scale)
		}

		for _, d := range cat.rows {
			var (
				names []string
				agg   Aggregation
			)
			switch d.Source.Kind {
			case SourceComputed:
				if d.Source.Computed != ComputedCalories {
					continue
				}
				names, agg = cat.calories, AggregateFirst
			default:
				names, agg = cat.synonyms(d)
			}
			v, ok := t.itemValue(e.Item, d.Key(), names, agg, d.DefaultUnit)
			if !ok {
				continue
			}
			cur := t.RowTotals[d.Key()]
			t.RowTotals[d.Key()] = Amount{Value: cur.Value + v*scale, Unit: d.DefaultUnit}
		}

		if v, ok := t.itemValue(e.Item, string(MacroCarbs), cat.macros[MacroCarbs], AggregateFirst, "g"); ok {
			carbs += v * scale
			carbsPresent = true
		}
		if v, ok := t.itemValue(e.Item, "fiber", cat.fiber, AggregateFirst, "g"); ok {
			fiber += v * scale
		}
	}

	if carbsPresent {
		net := math.Max(carbs-fiber, 0)
		for _, d := range cat.rows {
			if d.Source.Kind == SourceComputed && d.Source.Computed == ComputedNetCarbs {
				t.RowTotals[d.Key()] = Amount{Value: Convert(net, "g", d.DefaultUnit), Unit: d.DefaultUnit}
			}
		}
	}
	t.Conflicts = dedupeConflicts(t.Conflicts)
	return t
}

func (t *Totals) addNutrient(key, itemID string, rec model.NutrientRecord, scale float64) {
	cur, ok := t.Nutrients[key]
	if !ok {
		t.Nutrients[key] = Amount{Value: rec.Value * scale, Unit: strings.TrimSpace(rec.Unit)}
		return
	}
	v, ok := convertRecord(rec, cur.Unit)
	if !ok {
		t.Conflicts = append(t.Conflicts, UnitConflict{Key: key, ItemID: itemID, Unit: rec.Unit, Want: cur.Unit})
		return
	}
	if cur.Unit == "" {
		cur.Unit = strings.TrimSpace(rec.Unit)
	}
	cur.Value += v * scale
	t.Nutrients[key] = cur
}

// itemValue reads one row's unscaled value from a single item. With
// AggregateFirst the first synonym (in catalog order) the item reports in a
// convertible unit wins; with AggregateSum every reported synonym is added.
func (t *Totals) itemValue(item model.FoodItem, key string, names []string, agg Aggregation, unit string) (float64, bool) {
	var (
		total   float64
		present bool
		pending []UnitConflict
	)
	for _, name := range names {
		for _, rec := range item.Nutrients {
			if CanonicalKey(rec.RawName) != name {
				continue
			}
			v, ok := convertRecord(rec, unit)
			if !ok {
				pending = append(pending, UnitConflict{Key: key, ItemID: item.ID, Unit: rec.Unit, Want: unit})
				continue
			}
			if agg == AggregateFirst {
				return v, true
			}
			total += v
			present = true
		}
	}
	// A first-mode row that resolved through another synonym has no conflict.
	if agg == AggregateSum || !present {
		t.Conflicts = append(t.Conflicts, pending...)
	}
	return total, present
}

// convertRecord converts a record's value to unit. A blank unit on either side
// is taken to mean "the unit already in use".
func convertRecord(rec model.NutrientRecord, unit string) (float64, bool) {
	if strings.TrimSpace(rec.Unit) == "" || strings.TrimSpace(unit) == "" {
		return rec.Value, true
	}
	return ConvertOK(rec.Value, rec.Unit, unit)
}

func dedupeConflicts(in []UnitConflict) []UnitConflict {
	if len(in) == 0 {
		return nil
	}
	seen := map[UnitConflict]bool{}
	out := make([]UnitConflict, 0, len(in))
	for _, c := range in {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
