package catalog

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	apierrors "github.com/olgasafonova/teacher-toolkit-mcp-server/internal/errors"
)

//go:embed data/tools.yaml
var defaultCatalogYAML []byte

// File is the on-disk catalog layout.
type File struct {
	// Categories lists category tabs in display order.
	Categories []string `yaml:"categories"`
	// Subcategories maps a subcategory-bearing category to its ordered subcategories.
	Subcategories map[string][]string `yaml:"subcategories"`
	Tools         []ToolRecord        `yaml:"tools"`
}

// Catalog is an immutable, validated set of tool records.
type Catalog struct {
	records       []ToolRecord
	byID          map[string]int
	categories    []string
	subcategories map[string][]string
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalogYAML)
}

// LoadFile reads and validates a catalog YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}
	return New(f)
}

// New validates f and builds a Catalog from it.
func New(f File) (*Catalog, error) {
	if err := Validate(f); err != nil {
		return nil, err
	}

	c := &Catalog{
		records:       slices.Clone(f.Tools),
		byID:          make(map[string]int, len(f.Tools)),
		subcategories: make(map[string][]string, len(f.Subcategories)),
	}
	for i, r := range c.records {
		c.records[i].Tags = slices.Clone(r.Tags)
		c.byID[r.ID] = i
	}
	for cat, subs := range f.Subcategories {
		c.subcategories[cat] = slices.Clone(subs)
	}

	// Declared order first, then categories only seen on records.
	seen := make(map[string]bool)
	for _, cat := range f.Categories {
		if !seen[cat] {
			seen[cat] = true
			c.categories = append(c.categories, cat)
		}
	}
	for _, r := range c.records {
		if !seen[r.Category] {
			seen[r.Category] = true
			c.categories = append(c.categories, r.Category)
		}
	}
	return c, nil
}

// Validate checks ids, titles, URLs and subcategory placement.
func Validate(f File) error {
	for _, cat := range f.Categories {
		if isSentinelWord(cat) {
			return apierrors.NewValidationError("categories", cat, "collides with a reserved category word")
		}
	}
	ids := make(map[string]bool, len(f.Tools))
	for i, r := range f.Tools {
		field := fmt.Sprintf("tools[%d]", i)
		if strings.TrimSpace(r.ID) == "" {
			return apierrors.NewValidationError(field+".id", "", "is required")
		}
		if ids[r.ID] {
			return apierrors.NewValidationError(field+".id", r.ID, "duplicate id")
		}
		ids[r.ID] = true
		if strings.TrimSpace(r.Title) == "" {
			return apierrors.NewValidationError(field+".title", "", "is required")
		}
		if strings.TrimSpace(r.Category) == "" {
			return apierrors.NewValidationError(field+".category", "", "is required")
		}
		if err := validateURL(r.URL); err != nil {
			return apierrors.NewValidationError(field+".url", r.URL, err.Error())
		}
		if r.Subcategory == "" {
			continue
		}
		subs, ok := f.Subcategories[r.Category]
		if !ok {
			return apierrors.NewValidationError(field+".subcategory", r.Subcategory,
				fmt.Sprintf("category %q has no subcategories", r.Category))
		}
		if !slices.Contains(subs, r.Subcategory) {
			return apierrors.NewValidationError(field+".subcategory", r.Subcategory,
				fmt.Sprintf("not declared for category %q", r.Category))
		}
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must use http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("URL must include a host")
	}
	return nil
}

// Records returns the records in source order. Callers must not modify the result.
func (c *Catalog) Records() []ToolRecord {
	return c.records
}

// Len returns the number of records.
func (c *Catalog) Len() int { return len(c.records) }

// Get returns the record with id.
func (c *Catalog) Get(id string) (ToolRecord, error) {
	i, ok := c.byID[id]
	if !ok {
		return ToolRecord{}, apierrors.NewNotFoundError(id)
	}
	return c.records[i], nil
}

// Has reports whether id names a record.
func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Categories returns category names in display order.
func (c *Catalog) Categories() []string {
	return slices.Clone(c.categories)
}

// HasCategory reports whether name is a known category.
func (c *Catalog) HasCategory(name string) bool {
	return slices.Contains(c.categories, name)
}

// Subcategories returns the ordered subcategories of category, or nil.
func (c *Catalog) Subcategories(category string) []string {
	return slices.Clone(c.subcategories[category])
}

// HasSubcategories implements SubcategoryPolicy: a category is
// subcategory-bearing when the catalog declares subcategories for it.
func (c *Catalog) HasSubcategories(category string) bool {
	_, ok := c.subcategories[category]
	return ok
}

// CategoryCounts returns the number of records per category.
func (c *Catalog) CategoryCounts() map[string]int {
	counts := make(map[string]int, len(c.categories))
	for _, r := range c.records {
		counts[r.Category]++
	}
	return counts
}

// Query runs the engine over this catalog with its own subcategory policy.
func (c *Catalog) Query(state FilterState, pageSize int) Result {
	return Query{Subcategories: c, PageSize: pageSize}.Run(c.records, state)
}

// Resolve looks up many ids, skipping unknown ones, in the order given.
func (c *Catalog) Resolve(ids []string) []ToolRecord {
	out := make([]ToolRecord, 0, len(ids))
	for _, id := range ids {
		if i, ok := c.byID[id]; ok {
			out = append(out, c.records[i])
		}
	}
	return out
}
