package catalog

// FilterState is the presentation layer's current selection. Transition
// methods return a new state and keep the page-reset invariants: any change to
// category, subcategory, access or search goes back to page 1, and a new
// category clears the subcategory.
type FilterState struct {
	Category    CategorySelector `json:"category"`
	Subcategory string           `json:"subcategory,omitempty"`
	Access      AccessFilter     `json:"access"`
	Search      string           `json:"search,omitempty"`
	Favorites   IDSet            `json:"-"`
	Page        int              `json:"page"`
}

// NewFilterState returns the initial selection: all categories, page 1.
func NewFilterState() FilterState {
	return FilterState{Category: AllCategories(), Page: 1}
}

// WithCategory selects a category.
func (s FilterState) WithCategory(sel CategorySelector) FilterState {
	if s.Category == sel {
		return s
	}
	s.Category = sel
	s.Subcategory = SubcategoryAll
	s.Page = 1
	return s
}

// WithSubcategory selects a subcategory.
func (s FilterState) WithSubcategory(sub string) FilterState {
	if s.Subcategory == sub {
		return s
	}
	s.Subcategory = sub
	s.Page = 1
	return s
}

// WithAccess sets the access filter.
func (s FilterState) WithAccess(a AccessFilter) FilterState {
	if s.Access == a {
		return s
	}
	s.Access = a
	s.Page = 1
	return s
}

// WithSearch sets the search query.
func (s FilterState) WithSearch(q string) FilterState {
	if s.Search == q {
		return s
	}
	s.Search = q
	s.Page = 1
	return s
}

// WithTag searches for a tag, as when a tag chip is clicked.
func (s FilterState) WithTag(tag string) FilterState {
	return s.WithSearch(tag)
}

// WithFavorites swaps in a new favorite set. The page is kept; callers clamp it.
func (s FilterState) WithFavorites(favs IDSet) FilterState {
	s.Favorites = favs
	return s
}

// Cleared resets search, category and access. Favorites are kept.
func (s FilterState) Cleared() FilterState {
	return s.WithSearch("").WithCategory(AllCategories()).WithSubcategory(SubcategoryAll).WithAccess(AccessAll)
}

// WithPage jumps to page, clamped into [1, totalPages].
func (s FilterState) WithPage(page, totalPages int) FilterState {
	s.Page = page
	return s.Clamped(totalPages)
}

// NextPage advances one page without passing totalPages.
func (s FilterState) NextPage(totalPages int) FilterState {
	s.Page = min(totalPages, s.Page+1)
	return s.Clamped(totalPages)
}

// PrevPage goes back one page, never below 1.
func (s FilterState) PrevPage() FilterState {
	s.Page = max(1, s.Page-1)
	return s
}

// Clamped brings Page into [1, max(totalPages, 1)].
func (s FilterState) Clamped(totalPages int) FilterState {
	s.Page = min(max(s.Page, 1), max(totalPages, 1))
	return s
}
