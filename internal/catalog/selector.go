package catalog

import (
	"strings"

	apierrors "github.com/olgasafonova/teacher-toolkit-mcp-server/internal/errors"
)

// Wire words for the category sentinels. The Chinese labels are the ones the
// directory shows on its tabs and are accepted as aliases.
const (
	CategoryAllWord        = "all"
	CategoryFavoritesWord  = "favorites"
	CategoryAllLabel       = "全部"
	CategoryFavoritesLabel = "我的收藏"

	// namedPrefix escapes a real category whose name collides with a sentinel word.
	namedPrefix = "category:"
)

type selectorKind uint8

const (
	kindAll selectorKind = iota
	kindFavorites
	kindNamed
)

// CategorySelector selects which records pass the category gate: all of them,
// only favorites, or one named category. The zero value selects all.
type CategorySelector struct {
	kind selectorKind
	name string
}

// AllCategories selects every record.
func AllCategories() CategorySelector { return CategorySelector{kind: kindAll} }

// FavoritesView selects only records whose id is a favorite.
func FavoritesView() CategorySelector { return CategorySelector{kind: kindFavorites} }

// Named selects records whose category equals name exactly.
func Named(name string) CategorySelector { return CategorySelector{kind: kindNamed, name: name} }

// IsAll reports whether the selector is the "all" sentinel.
func (s CategorySelector) IsAll() bool { return s.kind == kindAll }

// IsFavorites reports whether the selector is the favorites-only view.
func (s CategorySelector) IsFavorites() bool { return s.kind == kindFavorites }

// Name returns the selected category and true for a Named selector.
func (s CategorySelector) Name() (string, bool) {
	if s.kind != kindNamed {
		return "", false
	}
	return s.name, true
}

// String renders the selector in its wire form.
func (s CategorySelector) String() string {
	switch s.kind {
	case kindFavorites:
		return CategoryFavoritesWord
	case kindNamed:
		if isSentinelWord(s.name) || strings.HasPrefix(s.name, namedPrefix) {
			return namedPrefix + s.name
		}
		return s.name
	default:
		return CategoryAllWord
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s CategorySelector) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *CategorySelector) UnmarshalText(text []byte) error {
	*s = ParseCategorySelector(string(text))
	return nil
}

// ParseCategorySelector maps a wire value to a selector. Empty input, "all" and
// "全部" select all; "favorites" and "我的收藏" select the favorites view; a
// "category:" prefix forces a named category; anything else is a named category.
func ParseCategorySelector(v string) CategorySelector {
	trimmed := strings.TrimSpace(v)
	if rest, ok := strings.CutPrefix(trimmed, namedPrefix); ok {
		return Named(rest)
	}
	switch strings.ToLower(trimmed) {
	case "", CategoryAllWord, CategoryAllLabel:
		return AllCategories()
	case CategoryFavoritesWord, CategoryFavoritesLabel:
		return FavoritesView()
	}
	return Named(trimmed)
}

func isSentinelWord(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", CategoryAllWord, CategoryAllLabel, CategoryFavoritesWord, CategoryFavoritesLabel:
		return true
	}
	return false
}

// AccessFilter restricts records by their access badge.
type AccessFilter int

const (
	AccessAll AccessFilter = iota
	AccessDirect
	AccessRestricted
)

func (a AccessFilter) String() string {
	switch a {
	case AccessDirect:
		return "direct"
	case AccessRestricted:
		return "restricted"
	default:
		return "all"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a AccessFilter) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *AccessFilter) UnmarshalText(text []byte) error {
	parsed, err := ParseAccessFilter(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAccessFilter accepts all, direct or restricted in any case; empty means all.
func ParseAccessFilter(v string) (AccessFilter, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "all":
		return AccessAll, nil
	case "direct", TagDirect:
		return AccessDirect, nil
	case "restricted", TagRestricted:
		return AccessRestricted, nil
	}
	return AccessAll, apierrors.NewValidationError("access", v, "must be all, direct or restricted")
}

// SubcategoryAll is the subcategory sentinel meaning no subcategory filter.
const SubcategoryAll = ""

// ParseSubcategory maps "all" and "全部" to SubcategoryAll.
func ParseSubcategory(v string) string {
	trimmed := strings.TrimSpace(v)
	switch strings.ToLower(trimmed) {
	case CategoryAllWord, CategoryAllLabel:
		return SubcategoryAll
	}
	return trimmed
}
