// Package usda reads FoodData Central foods into library items, either from
// a saved food JSON document or from the FDC API.
package usda

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Taycanstar/podsapp/internal/model"
)

const defaultBaseURL = "https://api.nal.usda.gov"

// FDC reports nutrients per 100 g of food.
const baselineGrams = 100

type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// FetchFood loads one food by FDC id. The raw response body is returned
// alongside the item so callers can keep it for later re-import.
func (c *Client) FetchFood(ctx context.Context, fdcID string) (model.FoodItem, []byte, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return model.FoodItem{}, nil, fmt.Errorf("missing USDA API key")
	}
	fdcID = strings.TrimSpace(fdcID)
	if fdcID == "" {
		return model.FoodItem{}, nil, fmt.Errorf("fdc id is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}

	u := fmt.Sprintf("%s/fdc/v1/food/%s?api_key=%s", baseURL, url.PathEscape(fdcID), url.QueryEscape(c.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.FoodItem{}, nil, fmt.Errorf("create USDA request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return model.FoodItem{}, nil, fmt.Errorf("execute USDA request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.FoodItem{}, nil, fmt.Errorf("read USDA response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return model.FoodItem{}, body, fmt.Errorf("no USDA food found for fdc id %q", fdcID)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.FoodItem{}, body, fmt.Errorf("USDA request failed with status %d", resp.StatusCode)
	}
	item, err := DecodeFood(bytes.NewReader(body))
	if err != nil {
		return model.FoodItem{}, body, err
	}
	return item, body, nil
}

// DecodeFood converts an FDC food document (full or abridged format) into a
// library item with a 100 g baseline. Portions become gram-weighted measures.
func DecodeFood(r io.Reader) (model.FoodItem, error) {
	var food fdcFood
	if err := json.NewDecoder(r).Decode(&food); err != nil {
		return model.FoodItem{}, fmt.Errorf("decode USDA food: %w", err)
	}
	name := strings.TrimSpace(food.Description)
	if name == "" {
		return model.FoodItem{}, fmt.Errorf("USDA food has no description")
	}
	if brand := strings.TrimSpace(food.BrandOwner); brand != "" {
		name = fmt.Sprintf("%s (%s)", name, brand)
	}

	item := model.FoodItem{
		Name:              name,
		BaselineServing:   baselineGrams,
		BaselineMeasureID: "g",
		Source:            "usda",
		Measures:          []model.Measure{{ID: "g", Unit: "g", GramWeight: 1}},
		Nutrients:         make([]model.NutrientRecord, 0, len(food.FoodNutrients)),
	}
	if food.FDCID > 0 {
		item.ID = fmt.Sprintf("usda-%d", food.FDCID)
	}

	for _, n := range food.FoodNutrients {
		rec, ok := n.record()
		if !ok {
			continue
		}
		// Energy is reported twice, in kcal and kJ; the catalog counts kcal.
		if strings.EqualFold(rec.Unit, "kj") {
			continue
		}
		item.Nutrients = append(item.Nutrients, rec)
	}

	seen := map[string]bool{"g": true}
	if m, ok := food.servingMeasure(); ok {
		item.Measures = append(item.Measures, m)
		seen[m.ID] = true
	}
	for i, p := range food.FoodPortions {
		m, ok := p.measure(i)
		if !ok || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		item.Measures = append(item.Measures, m)
	}
	return item, nil
}

type fdcFood struct {
	FDCID                    int64            `json:"fdcId"`
	Description              string           `json:"description"`
	BrandOwner               string           `json:"brandOwner"`
	ServingSize              float64          `json:"servingSize"`
	ServingSizeUnit          string           `json:"servingSizeUnit"`
	HouseholdServingFullText string           `json:"householdServingFullText"`
	FoodNutrients            []fdcNutrient    `json:"foodNutrients"`
	FoodPortions             []fdcFoodPortion `json:"foodPortions"`
}

// Branded foods carry a label serving size; only gram sizes can be weighed.
func (f fdcFood) servingMeasure() (model.Measure, bool) {
	unit := strings.ToLower(strings.TrimSpace(f.ServingSizeUnit))
	if f.ServingSize <= 0 || (unit != "g" && unit != "grm") {
		return model.Measure{}, false
	}
	label := strings.TrimSpace(f.HouseholdServingFullText)
	if label == "" {
		label = "serving"
	}
	return model.Measure{
		ID:          "serving",
		Unit:        label,
		Description: fmt.Sprintf("%g g", f.ServingSize),
		GramWeight:  f.ServingSize,
	}, true
}

// fdcNutrient covers both the full format (nested nutrient, amount) and the
// abridged/search format (flat nutrientName, value).
type fdcNutrient struct {
	Nutrient struct {
		Name     string `json:"name"`
		UnitName string `json:"unitName"`
	} `json:"nutrient"`
	Amount       *float64 `json:"amount"`
	NutrientName string   `json:"nutrientName"`
	UnitName     string   `json:"unitName"`
	Value        *float64 `json:"value"`
}

func (n fdcNutrient) record() (model.NutrientRecord, bool) {
	name, unit, value := n.Nutrient.Name, n.Nutrient.UnitName, n.Amount
	if strings.TrimSpace(name) == "" {
		name, unit, value = n.NutrientName, n.UnitName, n.Value
	}
	name = strings.TrimSpace(name)
	if name == "" || value == nil || *value < 0 {
		return model.NutrientRecord{}, false
	}
	return model.NutrientRecord{
		RawName: name,
		Value:   *value,
		Unit:    strings.ToLower(strings.TrimSpace(unit)),
	}, true
}

type fdcFoodPortion struct {
	ID                 int64   `json:"id"`
	Amount             float64 `json:"amount"`
	GramWeight         float64 `json:"gramWeight"`
	Modifier           string  `json:"modifier"`
	PortionDescription string  `json:"portionDescription"`
	MeasureUnit        struct {
		Name         string `json:"name"`
		Abbreviation string `json:"abbreviation"`
	} `json:"measureUnit"`
}

// measure normalizes a portion to the weight of one unit, so "2 cups = 480 g"
// becomes a cup of 240 g.
func (p fdcFoodPortion) measure(index int) (model.Measure, bool) {
	if p.GramWeight <= 0 {
		return model.Measure{}, false
	}
	unit := strings.TrimSpace(p.MeasureUnit.Name)
	if unit == "" || strings.EqualFold(unit, "undetermined") {
		unit = strings.TrimSpace(p.Modifier)
	}
	if unit == "" {
		unit = strings.TrimSpace(p.PortionDescription)
	}
	if unit == "" {
		return model.Measure{}, false
	}
	amount := p.Amount
	if amount <= 0 {
		amount = 1
	}
	id := fmt.Sprintf("portion-%d", index+1)
	if p.ID > 0 {
		id = fmt.Sprintf("portion-%d", p.ID)
	}
	return model.Measure{
		ID:          id,
		Unit:        unit,
		Description: strings.TrimSpace(p.PortionDescription),
		GramWeight:  p.GramWeight / amount,
	}, true
}
