package service

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/Taycanstar/podsapp/internal/model"
	"github.com/google/uuid"
)

type ListFoodsFilter struct {
	Query string
	Limit int
}

// SaveFood inserts or replaces a food together with its measures and nutrient
// rows. Items without an id get a random one, which is returned.
func SaveFood(db *sql.DB, item model.FoodItem) (string, error) {
	item, err := normalizeFood(item)
	if err != nil {
		return "", err
	}

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
INSERT INTO foods(id, name, name_norm, baseline_serving, baseline_measure_id, source)
VALUES(?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  name=excluded.name,
  name_norm=excluded.name_norm,
  baseline_serving=excluded.baseline_serving,
  baseline_measure_id=excluded.baseline_measure_id,
  source=excluded.source,
  updated_at=CURRENT_TIMESTAMP
`, item.ID, item.Name, normalizeName(item.Name), item.BaselineServing, item.BaselineMeasureID, item.Source)
	if err != nil {
		return "", fmt.Errorf("save food %q: %w", item.ID, err)
	}
	if _, err := tx.Exec(`DELETE FROM food_measures WHERE food_id = ?`, item.ID); err != nil {
		return "", fmt.Errorf("clear measures for %q: %w", item.ID, err)
	}
	if _, err := tx.Exec(`DELETE FROM food_nutrients WHERE food_id = ?`, item.ID); err != nil {
		return "", fmt.Errorf("clear nutrients for %q: %w", item.ID, err)
	}
	for i, m := range item.Measures {
		var weight any
		if m.GramWeight > 0 {
			weight = m.GramWeight
		}
		if _, err := tx.Exec(`
INSERT INTO food_measures(food_id, position, measure_id, unit, description, gram_weight)
VALUES(?, ?, ?, ?, ?, ?)
`, item.ID, i, m.ID, m.Unit, m.Description, weight); err != nil {
			return "", fmt.Errorf("save measure %q for %q: %w", m.ID, item.ID, err)
		}
	}
	for i, n := range item.Nutrients {
		if _, err := tx.Exec(`
INSERT INTO food_nutrients(food_id, position, raw_name, value, unit)
VALUES(?, ?, ?, ?, ?)
`, item.ID, i, n.RawName, n.Value, n.Unit); err != nil {
			return "", fmt.Errorf("save nutrient %q for %q: %w", n.RawName, item.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit food %q: %w", item.ID, err)
	}
	return item.ID, nil
}

func normalizeFood(item model.FoodItem) (model.FoodItem, error) {
	item.ID = strings.TrimSpace(item.ID)
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return item, fmt.Errorf("food name is required")
	}
	if item.BaselineServing == 0 {
		item.BaselineServing = 1
	}
	if item.BaselineServing < 0 || math.IsNaN(item.BaselineServing) || math.IsInf(item.BaselineServing, 0) {
		return item, fmt.Errorf("food %q: baseline serving must be > 0", item.Name)
	}
	item.Source = strings.TrimSpace(item.Source)
	if item.Source == "" {
		item.Source = "manual"
	}

	seen := map[string]bool{}
	for i := range item.Measures {
		m := &item.Measures[i]
		m.ID = strings.TrimSpace(m.ID)
		m.Unit = strings.TrimSpace(m.Unit)
		if m.Unit == "" {
			return item, fmt.Errorf("food %q: measure %d unit is required", item.Name, i+1)
		}
		if m.ID == "" {
			m.ID = normalizeName(m.Unit)
		}
		if seen[m.ID] {
			return item, fmt.Errorf("food %q: duplicate measure id %q", item.Name, m.ID)
		}
		seen[m.ID] = true
		if err := validateNonNegativeFloat("measure gram weight", m.GramWeight); err != nil {
			return item, fmt.Errorf("food %q: %w", item.Name, err)
		}
	}
	item.BaselineMeasureID = strings.TrimSpace(item.BaselineMeasureID)
	if item.BaselineMeasureID != "" && !seen[item.BaselineMeasureID] {
		return item, fmt.Errorf("food %q: baseline measure %q is not one of its measures", item.Name, item.BaselineMeasureID)
	}

	for i := range item.Nutrients {
		n := &item.Nutrients[i]
		n.RawName = strings.TrimSpace(n.RawName)
		n.Unit = strings.TrimSpace(n.Unit)
		if n.RawName == "" {
			return item, fmt.Errorf("food %q: nutrient %d name is required", item.Name, i+1)
		}
		if err := validateNonNegativeFloat(fmt.Sprintf("nutrient %q value", n.RawName), n.Value); err != nil {
			return item, fmt.Errorf("food %q: %w", item.Name, err)
		}
	}
	return item, nil
}

func FoodByID(db *sql.DB, id string) (model.FoodItem, error) {
	id = strings.TrimSpace(id)
	var item model.FoodItem
	err := db.QueryRow(`
SELECT id, name, baseline_serving, baseline_measure_id, source, created_at, updated_at
FROM foods
WHERE id = ?
`, id).Scan(&item.ID, &item.Name, &item.BaselineServing, &item.BaselineMeasureID, &item.Source, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.FoodItem{}, fmt.Errorf("food %q not found", id)
		}
		return model.FoodItem{}, fmt.Errorf("lookup food %q: %w", id, err)
	}
	if item.Measures, err = foodMeasures(db, item.ID); err != nil {
		return model.FoodItem{}, err
	}
	if item.Nutrients, err = foodNutrients(db, item.ID); err != nil {
		return model.FoodItem{}, err
	}
	return item, nil
}

func foodMeasures(db *sql.DB, foodID string) ([]model.Measure, error) {
	rows, err := db.Query(`
SELECT measure_id, unit, description, gram_weight
FROM food_measures
WHERE food_id = ?
ORDER BY position ASC
`, foodID)
	if err != nil {
		return nil, fmt.Errorf("list measures for %q: %w", foodID, err)
	}
	defer rows.Close()

	out := make([]model.Measure, 0)
	for rows.Next() {
		var (
			m      model.Measure
			weight sql.NullFloat64
		)
		if err := rows.Scan(&m.ID, &m.Unit, &m.Description, &weight); err != nil {
			return nil, fmt.Errorf("scan measure: %w", err)
		}
		if weight.Valid {
			m.GramWeight = weight.Float64
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate measures: %w", err)
	}
	return out, nil
}

func foodNutrients(db *sql.DB, foodID string) ([]model.NutrientRecord, error) {
	rows, err := db.Query(`
SELECT raw_name, value, unit
FROM food_nutrients
WHERE food_id = ?
ORDER BY position ASC
`, foodID)
	if err != nil {
		return nil, fmt.Errorf("list nutrients for %q: %w", foodID, err)
	}
	defer rows.Close()

	out := make([]model.NutrientRecord, 0)
	for rows.Next() {
		var n model.NutrientRecord
		if err := rows.Scan(&n.RawName, &n.Value, &n.Unit); err != nil {
			return nil, fmt.Errorf("scan nutrient: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nutrients: %w", err)
	}
	return out, nil
}

// ListFoods returns library foods without their measures and nutrients.
func ListFoods(db *sql.DB, filter ListFoodsFilter) ([]model.FoodItem, error) {
	query := `
SELECT id, name, baseline_serving, baseline_measure_id, source, created_at, updated_at
FROM foods
`
	args := make([]any, 0, 2)
	if q := normalizeName(filter.Query); q != "" {
		query += `WHERE name_norm LIKE ?
`
		args = append(args, "%"+q+"%")
	}
	query += `ORDER BY name_norm ASC, id ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list foods: %w", err)
	}
	defer rows.Close()

	out := make([]model.FoodItem, 0)
	for rows.Next() {
		var item model.FoodItem
		if err := rows.Scan(&item.ID, &item.Name, &item.BaselineServing, &item.BaselineMeasureID, &item.Source, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan food: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foods: %w", err)
	}
	return out, nil
}

func DeleteFood(db *sql.DB, id string) error {
	res, err := db.Exec(`DELETE FROM foods WHERE id = ?`, strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("delete food %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete food %q: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("food %q not found", id)
	}
	return nil
}

// DecodeFoods reads a JSON array of foods (or a single food object).
func DecodeFoods(r io.Reader) ([]model.FoodItem, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read foods: %w", err)
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, fmt.Errorf("foods file is empty")
	}
	if strings.HasPrefix(trimmed, "{") {
		var item model.FoodItem
		if err := json.Unmarshal([]byte(trimmed), &item); err != nil {
			return nil, fmt.Errorf("decode food: %w", err)
		}
		return []model.FoodItem{item}, nil
	}
	var items []model.FoodItem
	if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
		return nil, fmt.Errorf("decode foods: %w", err)
	}
	return items, nil
}

// ImportFoods saves every item and returns their ids in input order. The
// first invalid item stops the import; items before it stay saved.
func ImportFoods(db *sql.DB, items []model.FoodItem) ([]string, error) {
	ids := make([]string, 0, len(items))
	for i, item := range items {
		id, err := SaveFood(db, item)
		if err != nil {
			return ids, fmt.Errorf("import food %d: %w", i+1, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
