package catalog

import (
	"slices"
	"strings"
)

// DefaultPageSize is the number of tools shown per page.
const DefaultPageSize = 9

// AICategory is the one category of the stock directory that carries subcategories.
const AICategory = "AI工具"

// SubcategoryPolicy reports whether a category is subcategory-bearing. The
// subcategory gate only applies to such categories.
type SubcategoryPolicy interface {
	HasSubcategories(category string) bool
}

// SubcategoryCategories is a SubcategoryPolicy backed by a fixed list.
type SubcategoryCategories []string

// HasSubcategories implements SubcategoryPolicy.
func (s SubcategoryCategories) HasSubcategories(category string) bool {
	return slices.Contains(s, category)
}

// DefaultSubcategoryPolicy designates only AICategory.
var DefaultSubcategoryPolicy SubcategoryPolicy = SubcategoryCategories{AICategory}

// Result is one computed page.
type Result struct {
	Items        []ToolRecord
	Page         int
	PageSize     int
	TotalPages   int
	TotalResults int
}

// Empty reports whether nothing matched the filters; callers show the
// empty state and no pagination controls.
func (r Result) Empty() bool { return r.TotalResults == 0 }

// Query runs the filter, ordering and pagination pipeline.
type Query struct {
	Subcategories SubcategoryPolicy
	PageSize      int
}

// Run computes the visible page for state. It never fails and never mutates records.
func (q Query) Run(records []ToolRecord, state FilterState) Result {
	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	sorted := PartitionFeatured(Filter(records, state, q.policy()))
	return Result{
		Items:        Paginate(sorted, state.Page, size),
		Page:         state.Page,
		PageSize:     size,
		TotalPages:   TotalPages(len(sorted), size),
		TotalResults: len(sorted),
	}
}

func (q Query) policy() SubcategoryPolicy {
	if q.Subcategories == nil {
		return DefaultSubcategoryPolicy
	}
	return q.Subcategories
}

// ComputeVisiblePage returns the records on state.Page and the page count,
// using the default subcategory policy.
func ComputeVisiblePage(records []ToolRecord, state FilterState, pageSize int) ([]ToolRecord, int) {
	res := Query{PageSize: pageSize}.Run(records, state)
	return res.Items, res.TotalPages
}

// Filter keeps the records that pass every gate, in source order.
func Filter(records []ToolRecord, state FilterState, policy SubcategoryPolicy) []ToolRecord {
	if policy == nil {
		policy = DefaultSubcategoryPolicy
	}
	needle := strings.ToLower(state.Search)
	out := make([]ToolRecord, 0, len(records))
	for _, r := range records {
		if matches(r, state, policy, needle) {
			out = append(out, r)
		}
	}
	return out
}

// Matches reports whether r passes the category, subcategory, access and search gates.
func Matches(r ToolRecord, state FilterState, policy SubcategoryPolicy) bool {
	if policy == nil {
		policy = DefaultSubcategoryPolicy
	}
	return matches(r, state, policy, strings.ToLower(state.Search))
}

func matches(r ToolRecord, state FilterState, policy SubcategoryPolicy, needle string) bool {
	return categoryGate(r, state) &&
		subcategoryGate(r, state, policy) &&
		accessGate(r, state.Access) &&
		searchGate(r, needle)
}

func categoryGate(r ToolRecord, state FilterState) bool {
	if state.Category.IsFavorites() {
		return state.Favorites.Has(r.ID)
	}
	if name, ok := state.Category.Name(); ok {
		return r.Category == name
	}
	return true
}

func subcategoryGate(r ToolRecord, state FilterState, policy SubcategoryPolicy) bool {
	name, ok := state.Category.Name()
	if !ok || state.Subcategory == SubcategoryAll || !policy.HasSubcategories(name) {
		return true
	}
	return r.Subcategory == state.Subcategory
}

func accessGate(r ToolRecord, access AccessFilter) bool {
	switch access {
	case AccessDirect:
		return r.IsDirect()
	case AccessRestricted:
		return r.IsRestricted()
	default:
		return true
	}
}

// searchGate expects needle already lowercased.
func searchGate(r ToolRecord, needle string) bool {
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(r.Title), needle) ||
		strings.Contains(strings.ToLower(r.Description), needle) {
		return true
	}
	for _, tag := range r.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// PartitionFeatured returns a copy with featured records first. Relative order
// inside each partition is preserved.
func PartitionFeatured(records []ToolRecord) []ToolRecord {
	out := make([]ToolRecord, 0, len(records))
	for _, r := range records {
		if r.Featured {
			out = append(out, r)
		}
	}
	for _, r := range records {
		if !r.Featured {
			out = append(out, r)
		}
	}
	return out
}

// TotalPages is ceil(count / pageSize); zero when count is zero.
func TotalPages(count, pageSize int) int {
	if count <= 0 || pageSize <= 0 {
		return 0
	}
	return (count + pageSize - 1) / pageSize
}

// Paginate returns the 1-based page of records. Pages outside the result,
// including page < 1, are empty.
func Paginate(records []ToolRecord, page, pageSize int) []ToolRecord {
	if page < 1 || pageSize <= 0 {
		return []ToolRecord{}
	}
	start := (page - 1) * pageSize
	if start >= len(records) {
		return []ToolRecord{}
	}
	end := min(start+pageSize, len(records))
	return records[start:end]
}
