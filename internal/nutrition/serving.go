package nutrition

import (
	"math"
	"strconv"
	"strings"

	"github.com/Taycanstar/podsapp/internal/model"
)

// ServingEditState is the mutable per-item edit state of a plate.
type ServingEditState struct {
	ServingAmount     float64 `json:"serving_amount"`
	RawInput          string  `json:"raw_input"`
	SelectedMeasureID string  `json:"selected_measure_id,omitempty"`
	BaselineServing   float64 `json:"baseline_serving"`
	BaselineMeasureID string  `json:"baseline_measure_id,omitempty"`
}

// NewServingEditState seeds the edit state from the item's baseline serving:
// the user starts at exactly the serving the raw values describe.
func NewServingEditState(item model.FoodItem) ServingEditState {
	baseline := effectiveBaseline(item.BaselineServing)
	return ServingEditState{
		ServingAmount:     baseline,
		RawInput:          FormatServing(baseline),
		BaselineServing:   baseline,
		BaselineMeasureID: item.BaselineMeasureID,
	}
}

// ApplyText records the user's raw input and updates the amount when the text
// parses. Invalid text keeps the last valid amount.
func (s *ServingEditState) ApplyText(text string) bool {
	s.RawInput = text
	v, ok := ParseServing(text)
	if !ok {
		return false
	}
	s.ServingAmount = v
	return true
}

// EffectiveBaseline is the baseline serving used as a divisor. Zero, negative
// and non-finite baselines count as 1.
func (s ServingEditState) EffectiveBaseline() float64 {
	return effectiveBaseline(s.BaselineServing)
}

func effectiveBaseline(v float64) float64 {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 1
	}
	return v
}

// ParseServing accepts decimals ("1.5", ".5"), fractions ("1/2") and mixed
// numbers ("1 1/2").
func ParseServing(text string) (float64, bool) {
	fields := strings.Fields(text)
	switch len(fields) {
	case 1:
		return parseServingPart(fields[0])
	case 2:
		if strings.Contains(fields[0], "/") || !strings.Contains(fields[1], "/") {
			return 0, false
		}
		whole, ok := parseDecimal(fields[0])
		if !ok || whole != math.Trunc(whole) {
			return 0, false
		}
		frac, ok := parseFraction(fields[1])
		if !ok || math.IsInf(whole+frac, 0) {
			return 0, false
		}
		return whole + frac, true
	default:
		return 0, false
	}
}

func parseServingPart(s string) (float64, bool) {
	if strings.Contains(s, "/") {
		return parseFraction(s)
	}
	return parseDecimal(s)
}

func parseFraction(s string) (float64, bool) {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return 0, false
	}
	n, ok := parseDecimal(num)
	if !ok {
		return 0, false
	}
	d, ok := parseDecimal(den)
	if !ok || d == 0 {
		return 0, false
	}
	v := n / d
	if math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func parseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "eExXpP_") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FormatServing renders whole amounts without decimals and everything else
// with at most two decimals.
func FormatServing(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatFloat(n, 'f', 0, 64)
	}
	s := strconv.FormatFloat(n, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// ResolveMeasure picks the measure the current amount is expressed in:
// selected, then baseline, then the first listed.
func ResolveMeasure(measures []model.Measure, s ServingEditState) (model.Measure, bool) {
	if m, ok := findMeasure(measures, s.SelectedMeasureID); ok {
		return m, true
	}
	return BaselineMeasure(measures, s)
}

// BaselineMeasure picks the measure the raw nutrient values are defined
// against: baseline, then the first listed.
func BaselineMeasure(measures []model.Measure, s ServingEditState) (model.Measure, bool) {
	if m, ok := findMeasure(measures, s.BaselineMeasureID); ok {
		return m, true
	}
	if len(measures) > 0 {
		return measures[0], true
	}
	return model.Measure{}, false
}

func findMeasure(measures []model.Measure, id string) (model.Measure, bool) {
	if id == "" {
		return model.Measure{}, false
	}
	for _, m := range measures {
		if m.ID == id {
			return m, true
		}
	}
	return model.Measure{}, false
}

// ScalingFactor is the multiplier applied to an item's baseline nutrient
// values. When both the baseline and the selected measure carry a gram weight
// the factor follows the weight ratio, so switching cup to tbsp stays
// physically accurate.
func ScalingFactor(measures []model.Measure, s ServingEditState) float64 {
	baseline := s.EffectiveBaseline()
	selected, okSel := ResolveMeasure(measures, s)
	base, okBase := BaselineMeasure(measures, s)
	// Same measure: the weights cancel, keep the plain ratio bit-exact.
	if okSel && okBase && selected.ID != base.ID && selected.GramWeight > 0 && base.GramWeight > 0 {
		return (s.ServingAmount * selected.GramWeight) / (baseline * base.GramWeight)
	}
	return s.ServingAmount / baseline
}
