// Package openfoodfacts reads Open Food Facts products into library items.
package openfoodfacts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Taycanstar/podsapp/internal/model"
)

const defaultBaseURL = "https://world.openfoodfacts.org"

const userAgent = "pods/1.0 (+https://github.com/Taycanstar/podsapp)"

// Nutriment keys that are scores, percentages or duplicates of energy-kcal.
var skippedNutriments = []string{
	"energy", "energy-kj", "alcohol", "nutrition-score", "nova-group",
	"fruits-vegetables", "carbon-footprint", "ph", "cocoa", "collagen-meat-protein-ratio",
}

// Open Food Facts keys whose spelled-out form is not a common nutrient name.
var renamedNutriments = map[string]string{
	"vitamin-pp": "Niacin",
	"vitamin-b9": "Folate",
	"fiber":      "Fiber",
	"salt":       "Salt",
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// LookupBarcode fetches a product by barcode. The raw response body is
// returned alongside the item.
func (c *Client) LookupBarcode(ctx context.Context, barcode string) (model.FoodItem, []byte, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return model.FoodItem{}, nil, fmt.Errorf("barcode is required")
	}
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}
	u := fmt.Sprintf("%s/api/v2/product/%s.json", base, url.PathEscape(barcode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.FoodItem{}, nil, fmt.Errorf("create openfoodfacts request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		return model.FoodItem{}, nil, fmt.Errorf("execute openfoodfacts request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.FoodItem{}, nil, fmt.Errorf("read openfoodfacts response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.FoodItem{}, body, fmt.Errorf("openfoodfacts request failed with status %d", resp.StatusCode)
	}
	item, err := DecodeProduct(bytes.NewReader(body))
	if err != nil {
		return model.FoodItem{}, body, fmt.Errorf("barcode %q: %w", barcode, err)
	}
	return item, body, nil
}

// DecodeProduct converts an API product response, or a bare product object
// such as a JSONL dump line, into a library item. Per-serving values are
// preferred when the product has them; otherwise the item is per 100 g.
func DecodeProduct(r io.Reader) (model.FoodItem, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return model.FoodItem{}, fmt.Errorf("read openfoodfacts product: %w", err)
	}
	var envelope offResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return model.FoodItem{}, fmt.Errorf("decode openfoodfacts product: %w", err)
	}
	p := envelope.Product
	if envelope.Product == nil {
		var bare offProduct
		if err := json.Unmarshal(raw, &bare); err != nil {
			return model.FoodItem{}, fmt.Errorf("decode openfoodfacts product: %w", err)
		}
		p = &bare
	} else if envelope.Status != nil && *envelope.Status != 1 {
		return model.FoodItem{}, fmt.Errorf("no openfoodfacts product found")
	}

	name := p.name()
	if name == "" {
		return model.FoodItem{}, fmt.Errorf("openfoodfacts product has no name")
	}
	if brand := strings.TrimSpace(p.Brands); brand != "" {
		name = fmt.Sprintf("%s (%s)", name, brand)
	}

	item := model.FoodItem{
		Name:     name,
		Source:   "openfoodfacts",
		Measures: []model.Measure{{ID: "g", Unit: "g", GramWeight: 1}},
	}
	if code := strings.TrimSpace(p.Code); code != "" {
		item.ID = "off-" + code
	}

	serving, hasServing := p.servingMeasure()
	if hasServing {
		item.Measures = append(item.Measures, serving)
	}
	suffix := "_100g"
	if hasServing && p.hasPerServing() {
		suffix = "_serving"
		item.BaselineServing = 1
		item.BaselineMeasureID = serving.ID
	} else {
		item.BaselineServing = 100
		item.BaselineMeasureID = "g"
	}
	item.Nutrients = nutrientRecords(p.Nutriments, suffix)
	return item, nil
}

func nutrientRecords(n map[string]any, suffix string) []model.NutrientRecord {
	keys := make([]string, 0, len(n))
	for key := range n {
		if strings.HasSuffix(key, suffix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	out := make([]model.NutrientRecord, 0, len(keys))
	for _, key := range keys {
		base := strings.ToLower(strings.TrimSuffix(key, suffix))
		if skipNutriment(base) {
			continue
		}
		value, ok := parseFloatAny(n[key])
		if !ok || value < 0 {
			continue
		}
		rec := model.NutrientRecord{RawName: nutrimentName(base), Value: value, Unit: "g"}
		if base == "energy-kcal" {
			rec.Unit = "kcal"
		}
		out = append(out, rec)
	}
	return out
}

func skipNutriment(base string) bool {
	if base == "energy-kcal" {
		return false
	}
	for _, prefix := range skippedNutriments {
		if base == prefix || strings.HasPrefix(base, prefix+"-") {
			return true
		}
	}
	return false
}

func nutrimentName(base string) string {
	if name, ok := renamedNutriments[base]; ok {
		return name
	}
	if base == "energy-kcal" {
		return base
	}
	return strings.ReplaceAll(base, "-", " ")
}

func parseFloatAny(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

type offResponse struct {
	Status  *int        `json:"status"`
	Product *offProduct `json:"product"`
}

type offProduct struct {
	Code                string         `json:"code"`
	ProductName         string         `json:"product_name"`
	ProductNameEn       string         `json:"product_name_en"`
	GenericName         string         `json:"generic_name"`
	Brands              string         `json:"brands"`
	ServingSize         string         `json:"serving_size"`
	ServingQuantity     any            `json:"serving_quantity"`
	ServingQuantityUnit string         `json:"serving_quantity_unit"`
	Nutriments          map[string]any `json:"nutriments"`
}

func (p offProduct) name() string {
	for _, n := range []string{p.ProductName, p.ProductNameEn, p.GenericName} {
		if n = strings.TrimSpace(n); n != "" {
			return n
		}
	}
	return ""
}

func (p offProduct) hasPerServing() bool {
	for key := range p.Nutriments {
		if strings.HasSuffix(key, "_serving") {
			return true
		}
	}
	return false
}

// servingMeasure reads serving_quantity (sometimes sent as a string). Only
// gram servings get a weight; others are selectable but unweighed.
func (p offProduct) servingMeasure() (model.Measure, bool) {
	qty, ok := parseFloatAny(p.ServingQuantity)
	if !ok || qty <= 0 {
		return model.Measure{}, false
	}
	label := strings.TrimSpace(p.ServingSize)
	if label == "" {
		label = "serving"
	}
	m := model.Measure{ID: "serving", Unit: label, Description: label}
	switch strings.ToLower(strings.TrimSpace(p.ServingQuantityUnit)) {
	case "", "g":
		m.GramWeight = qty
	}
	return m, true
}
