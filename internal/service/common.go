package service

import (
	"fmt"
	"math"
	"strings"
)

func validateNonNegativeFloat(name string, value float64) error {
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%s must be >= 0", name)
	}
	return nil
}

func normalizeName(name string) string {
	return strings.TrimSpace(strings.ToLower(name))
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
