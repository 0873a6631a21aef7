package service

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Taycanstar/podsapp/internal/nutrition"
)

const dayLayout = "2006-01-02"

// MacroGoalVersion is a dated set of daily calorie and macro goals. A day uses
// the version with the latest effective date on or before it.
type MacroGoalVersion struct {
	EffectiveDate string               `json:"effective_date"`
	Goals         nutrition.MacroGoals `json:"goals"`
}

// SaveMacroGoals stores v, replacing any version with the same effective date,
// and returns the effective date used.
func SaveMacroGoals(db *sql.DB, v MacroGoalVersion) (string, error) {
	g := v.Goals
	for _, f := range []struct {
		name  string
		value float64
	}{{"calories", g.Calories}, {"protein", g.Protein}, {"carbs", g.Carbs}, {"fat", g.Fat}} {
		if err := validateNonNegativeFloat(f.name, f.value); err != nil {
			return "", err
		}
	}
	day, err := resolveDay(v.EffectiveDate)
	if err != nil {
		return "", err
	}
	_, err = db.Exec(`
INSERT INTO macro_goals(effective_date, calories, protein_g, carbs_g, fat_g)
VALUES(?, ?, ?, ?, ?)
ON CONFLICT(effective_date) DO UPDATE SET
  calories=excluded.calories,
  protein_g=excluded.protein_g,
  carbs_g=excluded.carbs_g,
  fat_g=excluded.fat_g,
  updated_at=CURRENT_TIMESTAMP
`, day, g.Calories, g.Protein, g.Carbs, g.Fat)
	if err != nil {
		return "", fmt.Errorf("save macro goals: %w", err)
	}
	return day, nil
}

// MacroGoalsAt returns the fallback goals in effect on date (default today).
// Without a stored version every goal is zero, which renders as "--".
func MacroGoalsAt(db *sql.DB, date string) (nutrition.MacroGoals, error) {
	day, err := resolveDay(date)
	if err != nil {
		return nutrition.MacroGoals{}, err
	}
	var g nutrition.MacroGoals
	err = db.QueryRow(`
SELECT calories, protein_g, carbs_g, fat_g
FROM macro_goals
WHERE effective_date <= ?
ORDER BY effective_date DESC
LIMIT 1
`, day).Scan(&g.Calories, &g.Protein, &g.Carbs, &g.Fat)
	if errors.Is(err, sql.ErrNoRows) {
		return nutrition.MacroGoals{}, nil
	}
	if err != nil {
		return nutrition.MacroGoals{}, fmt.Errorf("macro goals for %s: %w", day, err)
	}
	return g, nil
}

// MacroGoalHistory lists every stored version, newest first.
func MacroGoalHistory(db *sql.DB) ([]MacroGoalVersion, error) {
	rows, err := db.Query(`
SELECT effective_date, calories, protein_g, carbs_g, fat_g
FROM macro_goals
ORDER BY effective_date DESC
`)
	if err != nil {
		return nil, fmt.Errorf("list macro goals: %w", err)
	}
	defer rows.Close()

	out := make([]MacroGoalVersion, 0)
	for rows.Next() {
		var v MacroGoalVersion
		if err := rows.Scan(&v.EffectiveDate, &v.Goals.Calories, &v.Goals.Protein, &v.Goals.Carbs, &v.Goals.Fat); err != nil {
			return nil, fmt.Errorf("scan macro goals: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate macro goals: %w", err)
	}
	return out, nil
}

func resolveDay(date string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Now().Format(dayLayout), nil
	}
	if _, err := time.Parse(dayLayout, date); err != nil {
		return "", fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", date)
	}
	return date, nil
}
