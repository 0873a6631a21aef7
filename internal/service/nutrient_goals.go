package service

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Taycanstar/podsapp/internal/model"
	"github.com/Taycanstar/podsapp/internal/nutrition"
)

// ReplaceNutrientGoals swaps the stored goal catalog for goals in one
// transaction. Readers see either the old snapshot or the new one.
func ReplaceNutrientGoals(db *sql.DB, goals []model.NutrientGoal) error {
	seen := map[string]bool{}
	for i, g := range goals {
		slug := nutrition.CanonicalKey(g.Slug)
		if slug == "" {
			return fmt.Errorf("nutrient goal %d: slug is required", i+1)
		}
		if seen[slug] {
			return fmt.Errorf("nutrient goal %d: duplicate slug %q", i+1, slug)
		}
		seen[slug] = true
		for name, v := range map[string]*float64{"target": g.Target, "max": g.Max, "ideal_max": g.IdealMax} {
			if v == nil {
				continue
			}
			if err := validateNonNegativeFloat(fmt.Sprintf("nutrient goal %q %s", slug, name), *v); err != nil {
				return err
			}
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM nutrient_goals`); err != nil {
		return fmt.Errorf("clear nutrient goals: %w", err)
	}
	for _, g := range goals {
		_, err := tx.Exec(`
INSERT INTO nutrient_goals(slug, target, max, ideal_max, unit)
VALUES(?, ?, ?, ?, ?)
`, nutrition.CanonicalKey(g.Slug), nullableFloat(g.Target), nullableFloat(g.Max), nullableFloat(g.IdealMax), strings.TrimSpace(g.Unit))
		if err != nil {
			return fmt.Errorf("save nutrient goal %q: %w", g.Slug, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit nutrient goals: %w", err)
	}
	return nil
}

// NutrientGoals loads the stored goal catalog snapshot.
func NutrientGoals(db *sql.DB) (nutrition.GoalCatalog, error) {
	list, err := ListNutrientGoals(db)
	if err != nil {
		return nil, err
	}
	return nutrition.NewGoalCatalog(list), nil
}

func ListNutrientGoals(db *sql.DB) ([]model.NutrientGoal, error) {
	rows, err := db.Query(`
SELECT slug, target, max, ideal_max, unit
FROM nutrient_goals
ORDER BY slug ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list nutrient goals: %w", err)
	}
	defer rows.Close()

	out := make([]model.NutrientGoal, 0)
	for rows.Next() {
		var (
			g                     model.NutrientGoal
			target, max, idealMax sql.NullFloat64
		)
		if err := rows.Scan(&g.Slug, &target, &max, &idealMax, &g.Unit); err != nil {
			return nil, fmt.Errorf("scan nutrient goal: %w", err)
		}
		g.Target = floatPtr(target)
		g.Max = floatPtr(max)
		g.IdealMax = floatPtr(idealMax)
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nutrient goals: %w", err)
	}
	return out, nil
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// DecodeNutrientGoals reads a goal catalog snapshot: either a JSON array of
// goals or an object keyed by slug.
func DecodeNutrientGoals(r io.Reader) ([]model.NutrientGoal, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read nutrient goals: %w", err)
	}
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "{") {
		var keyed map[string]model.NutrientGoal
		if err := json.Unmarshal([]byte(trimmed), &keyed); err != nil {
			return nil, fmt.Errorf("decode nutrient goals: %w", err)
		}
		out := make([]model.NutrientGoal, 0, len(keyed))
		for slug, g := range keyed {
			if strings.TrimSpace(g.Slug) == "" {
				g.Slug = slug
			}
			out = append(out, g)
		}
		return out, nil
	}
	var goals []model.NutrientGoal
	if err := json.Unmarshal([]byte(trimmed), &goals); err != nil {
		return nil, fmt.Errorf("decode nutrient goals: %w", err)
	}
	return goals, nil
}
