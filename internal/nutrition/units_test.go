package nutrition_test

import (
	"math"
	"testing"

	"github.com/Taycanstar/podsapp/internal/nutrition"
)

func TestConvertMassUnits(t *testing.T) {
	t.Parallel()
	cases := []struct {
		value    float64
		from, to string
		want     float64
	}{
		{1.5, "g", "mg", 1500},
		{250, "mg", "g", 0.25},
		{2, "mg", "mcg", 2000},
		{400, "µg", "mg", 0.4},
		{3, "g", "ug", 3e6},
		{7, "MG", " g ", 0.007},
	}
	for _, tc := range cases {
		got := nutrition.Convert(tc.value, tc.from, tc.to)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("convert %v %s -> %s: expected %v, got %v", tc.value, tc.from, tc.to, tc.want, got)
		}
	}
}

func TestConvertPassesThroughUnsupportedPairs(t *testing.T) {
	t.Parallel()
	for _, pair := range [][2]string{{"IU", "µg"}, {"ml", "g"}, {"kcal", "kJ"}, {"g", "cup"}} {
		if got := nutrition.Convert(42, pair[0], pair[1]); got != 42 {
			t.Fatalf("expected pass-through for %s -> %s, got %v", pair[0], pair[1], got)
		}
		if _, ok := nutrition.ConvertOK(42, pair[0], pair[1]); ok {
			t.Fatalf("expected %s -> %s to be reported as not convertible", pair[0], pair[1])
		}
	}
	if _, ok := nutrition.ConvertOK(5, "IU", "iu"); !ok {
		t.Fatalf("identical units must be convertible")
	}
}

func TestConvertRoundTrip(t *testing.T) {
	t.Parallel()
	for _, x := range []float64{0, 1, 0.1, 1.0 / 3, 123.456, 1e-9, 98765.4321} {
		got := nutrition.Convert(nutrition.Convert(x, "g", "mg"), "mg", "g")
		if math.Abs(got-x) > 1e-12*math.Max(1, math.Abs(x)) {
			t.Fatalf("g -> mg -> g round trip of %v gave %v", x, got)
		}
		got = nutrition.Convert(nutrition.Convert(x, "g", "mcg"), "mcg", "g")
		if math.Abs(got-x) > 1e-12*math.Max(1, math.Abs(x)) {
			t.Fatalf("g -> mcg -> g round trip of %v gave %v", x, got)
		}
	}
}

func TestNormalizeUnitAliases(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]string{"mcg": "µg", "μg": "µg", "UG": "µg", "Cal": "kcal", " G ": "g", "IU": "iu"} {
		if got := nutrition.NormalizeUnit(in); got != want {
			t.Fatalf("normalize %q: expected %q, got %q", in, want, got)
		}
	}
}
