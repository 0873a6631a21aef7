package nutrition

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

type Macro string

const (
	MacroProtein Macro = "protein"
	MacroCarbs   Macro = "carbs"
	MacroFat     Macro = "fat"
)

type Computed string

const (
	ComputedNetCarbs Computed = "netCarbs"
	ComputedCalories Computed = "calories"
)

type Aggregation string

const (
	AggregateFirst Aggregation = "first"
	AggregateSum   Aggregation = "sum"
)

type SourceKind int

const (
	SourceNutrient SourceKind = iota
	SourceMacro
	SourceComputed
)

func (k SourceKind) String() string {
	switch k {
	case SourceMacro:
		return "macro"
	case SourceComputed:
		return "computed"
	default:
		return "nutrient"
	}
}

// Source describes where a row's value comes from. Only the fields matching
// Kind are meaningful.
type Source struct {
	Kind        SourceKind
	Macro       Macro
	Names       []string
	Aggregation Aggregation
	Computed    Computed
}

type RowDescriptor struct {
	Label       string
	GoalSlug    string
	DefaultUnit string
	Source      Source
}

// Key identifies the row inside Totals. It is the goal slug when one is set,
// otherwise the canonical label.
func (d RowDescriptor) Key() string {
	if d.GoalSlug != "" {
		return CanonicalKey(d.GoalSlug)
	}
	return CanonicalKey(d.Label)
}

// CatalogConfig is the serialized form of a Catalog.
type CatalogConfig struct {
	Macros   map[string][]string `yaml:"macros"`
	Calories []string            `yaml:"calories"`
	Fiber    []string            `yaml:"fiber"`
	Rows     []RowConfig         `yaml:"rows"`
}

type RowConfig struct {
	Label       string   `yaml:"label"`
	Goal        string   `yaml:"goal"`
	Unit        string   `yaml:"unit"`
	Macro       string   `yaml:"macro"`
	Computed    string   `yaml:"computed"`
	Names       []string `yaml:"names"`
	Aggregation string   `yaml:"aggregation"`
}

// Catalog is the immutable table of display rows and nutrient synonyms. All
// synonym strings are canonical.
type Catalog struct {
	rows     []RowDescriptor
	macros   map[Macro][]string
	calories []string
	fiber    []string
}

// CanonicalKey normalizes a raw nutrient name for matching: trimmed,
// lowercased, inner whitespace collapsed.
func CanonicalKey(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

func NewCatalog(cfg CatalogConfig) (*Catalog, error) {
	c := &Catalog{macros: map[Macro][]string{}}
	for _, m := range []Macro{MacroProtein, MacroCarbs, MacroFat} {
		names := canonicalNames(cfg.Macros[string(m)])
		if len(names) == 0 {
			return nil, fmt.Errorf("catalog macro %q needs at least one synonym", m)
		}
		c.macros[m] = names
	}
	for name := range cfg.Macros {
		switch Macro(name) {
		case MacroProtein, MacroCarbs, MacroFat:
		default:
			return nil, fmt.Errorf("unknown catalog macro %q", name)
		}
	}
	c.calories = canonicalNames(cfg.Calories)
	if len(c.calories) == 0 {
		return nil, fmt.Errorf("catalog calories needs at least one synonym")
	}
	c.fiber = canonicalNames(cfg.Fiber)

	seen := map[string]bool{}
	for i, rc := range cfg.Rows {
		d, err := rowFromConfig(rc)
		if err != nil {
			return nil, fmt.Errorf("catalog row %d: %w", i+1, err)
		}
		if seen[d.Key()] {
			return nil, fmt.Errorf("catalog row %d: duplicate row %q", i+1, d.Key())
		}
		seen[d.Key()] = true
		c.rows = append(c.rows, d)
	}
	if len(c.rows) == 0 {
		return nil, fmt.Errorf("catalog has no rows")
	}
	return c, nil
}

func rowFromConfig(rc RowConfig) (RowDescriptor, error) {
	d := RowDescriptor{
		Label:       strings.TrimSpace(rc.Label),
		GoalSlug:    CanonicalKey(rc.Goal),
		DefaultUnit: NormalizeUnit(rc.Unit),
	}
	if d.Label == "" {
		return d, fmt.Errorf("label is required")
	}
	if d.DefaultUnit == "" {
		return d, fmt.Errorf("row %q: unit is required", d.Label)
	}

	sources := 0
	if rc.Macro != "" {
		sources++
	}
	if rc.Computed != "" {
		sources++
	}
	if len(rc.Names) > 0 {
		sources++
	}
	if sources != 1 {
		return d, fmt.Errorf("row %q: exactly one of macro, computed or names is required", d.Label)
	}

	switch {
	case rc.Macro != "":
		m := Macro(strings.TrimSpace(rc.Macro))
		switch m {
		case MacroProtein, MacroCarbs, MacroFat:
		default:
			return d, fmt.Errorf("row %q: unknown macro %q", d.Label, rc.Macro)
		}
		d.Source = Source{Kind: SourceMacro, Macro: m}
	case rc.Computed != "":
		c := Computed(strings.TrimSpace(rc.Computed))
		switch c {
		case ComputedNetCarbs, ComputedCalories:
		default:
			return d, fmt.Errorf("row %q: unknown computed value %q", d.Label, rc.Computed)
		}
		d.Source = Source{Kind: SourceComputed, Computed: c}
	default:
		agg := Aggregation(strings.ToLower(strings.TrimSpace(rc.Aggregation)))
		if agg == "" {
			agg = AggregateFirst
		}
		if agg != AggregateFirst && agg != AggregateSum {
			return d, fmt.Errorf("row %q: unknown aggregation %q", d.Label, rc.Aggregation)
		}
		names := canonicalNames(rc.Names)
		if len(names) == 0 {
			return d, fmt.Errorf("row %q: names are empty", d.Label)
		}
		d.Source = Source{Kind: SourceNutrient, Names: names, Aggregation: agg}
	}
	return d, nil
}

func canonicalNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := map[string]bool{}
	for _, n := range names {
		k := CanonicalKey(n)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// LoadCatalog decodes a YAML catalog.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var cfg CatalogConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode nutrient catalog: %w", err)
	}
	return NewCatalog(cfg)
}

func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open nutrient catalog: %w", err)
	}
	defer f.Close()
	cat, err := LoadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

// DefaultCatalog returns the built-in catalog. It panics if the embedded table
// is invalid, which the package tests rule out.
func DefaultCatalog() *Catalog {
	cat, err := LoadCatalog(bytes.NewReader(defaultCatalogYAML))
	if err != nil {
		panic(fmt.Sprintf("built-in nutrient catalog: %v", err))
	}
	return cat
}

// Rows returns the row descriptors in display order.
func (c *Catalog) Rows() []RowDescriptor {
	out := make([]RowDescriptor, len(c.rows))
	copy(out, c.rows)
	return out
}

// Row finds a row by goal slug or label.
func (c *Catalog) Row(key string) (RowDescriptor, bool) {
	k := CanonicalKey(key)
	for _, d := range c.rows {
		if d.Key() == k || CanonicalKey(d.Label) == k {
			return d, true
		}
	}
	return RowDescriptor{}, false
}

func (c *Catalog) MacroNames(m Macro) []string {
	return append([]string(nil), c.macros[m]...)
}

func (c *Catalog) CalorieNames() []string {
	return append([]string(nil), c.calories...)
}

func (c *Catalog) FiberNames() []string {
	return append([]string(nil), c.fiber...)
}

// synonyms returns the names and aggregation used to read d from one item.
// Computed rows return nothing.
func (c *Catalog) synonyms(d RowDescriptor) ([]string, Aggregation) {
	switch d.Source.Kind {
	case SourceMacro:
		return c.macros[d.Source.Macro], AggregateFirst
	case SourceNutrient:
		return d.Source.Names, d.Source.Aggregation
	default:
		return nil, ""
	}
}
