package nutrition

import "strings"

type unitKind string

const unitKindMass unitKind = "mass"

type unitDef struct {
	kind       unitKind
	toBaseUnit float64
}

// Only the mass family converts. Everything else (IU, mL, kcal, kJ) passes
// through untouched.
var unitTable = map[string]unitDef{
	// mass (base = µg, so every factor is an exact integer)
	"g":  {kind: unitKindMass, toBaseUnit: 1e6},
	"mg": {kind: unitKindMass, toBaseUnit: 1e3},
	"µg": {kind: unitKindMass, toBaseUnit: 1},
}

var unitAliases = map[string]string{
	"gram":        "g",
	"grams":       "g",
	"gr":          "g",
	"milligram":   "mg",
	"milligrams":  "mg",
	"mcg":         "µg",
	"ug":          "µg",
	"μg":          "µg", // greek mu
	"microgram":   "µg",
	"micrograms":  "µg",
	"cal":         "kcal",
	"calories":    "kcal",
	"kilocalorie": "kcal",
}

// NormalizeUnit returns the canonical spelling of a unit for comparisons.
// Unknown units are lowercased and trimmed.
func NormalizeUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	if alias, ok := unitAliases[u]; ok {
		return alias
	}
	return u
}

// SameUnit reports whether two unit strings name the same unit.
func SameUnit(a, b string) bool {
	return NormalizeUnit(a) == NormalizeUnit(b)
}

// Convert converts value between mass units (g, mg, µg). Any other pair is
// returned unchanged.
func Convert(value float64, fromUnit, toUnit string) float64 {
	out, _ := ConvertOK(value, fromUnit, toUnit)
	return out
}

// ConvertOK is Convert that also reports whether the pair was convertible.
// Identical units are always convertible.
func ConvertOK(value float64, fromUnit, toUnit string) (float64, bool) {
	from, to := NormalizeUnit(fromUnit), NormalizeUnit(toUnit)
	if from == to {
		return value, true
	}
	fromDef, ok := unitTable[from]
	if !ok {
		return value, false
	}
	toDef, ok := unitTable[to]
	if !ok || fromDef.kind != toDef.kind {
		return value, false
	}
	return convertScaled(value, fromDef.toBaseUnit, toDef.toBaseUnit), true
}

// convertScaled multiplies or divides by an exact power of 1000 so that a
// round trip returns the input.
func convertScaled(value, fromBase, toBase float64) float64 {
	if fromBase >= toBase {
		return value * (fromBase / toBase)
	}
	return value / (toBase / fromBase)
}
