package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/olgasafonova/teacher-toolkit-mcp-server/internal/errors"
)

func TestParseCategorySelector(t *testing.T) {
	tests := []struct {
		in        string
		all, favs bool
		name      string
	}{
		{in: "", all: true},
		{in: "all", all: true},
		{in: " ALL ", all: true},
		{in: "全部", all: true},
		{in: "favorites", favs: true},
		{in: "我的收藏", favs: true},
		{in: "AI工具", name: "AI工具"},
		{in: "category:all", name: "all"},
		{in: "category:我的收藏", name: "我的收藏"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			sel := ParseCategorySelector(tt.in)
			assert.Equal(t, tt.all, sel.IsAll())
			assert.Equal(t, tt.favs, sel.IsFavorites())
			name, ok := sel.Name()
			assert.Equal(t, tt.name != "", ok)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestCategorySelector_RoundTrip(t *testing.T) {
	for _, sel := range []CategorySelector{
		AllCategories(), FavoritesView(), Named("AI工具"), Named("all"), Named("favorites"), Named("category:x"),
	} {
		assert.Equal(t, sel, ParseCategorySelector(sel.String()), "selector %q", sel.String())
	}
}

func TestCategorySelector_NamedNeverCollides(t *testing.T) {
	named := Named("all")
	assert.False(t, named.IsAll())
	assert.NotEqual(t, AllCategories(), named)

	records := []ToolRecord{{ID: "x", Category: "all"}, {ID: "y", Category: "other"}}
	assert.Equal(t, []string{"x"}, ids(Filter(records, FilterState{Category: named}, nil)))
}

func TestParseAccessFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    AccessFilter
		wantErr bool
	}{
		{"", AccessAll, false},
		{"all", AccessAll, false},
		{"ALL", AccessAll, false},
		{"direct", AccessDirect, false},
		{"DIRECT", AccessDirect, false},
		{TagDirect, AccessDirect, false},
		{"restricted", AccessRestricted, false},
		{TagRestricted, AccessRestricted, false},
		{"sometimes", AccessAll, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAccessFilter(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apierrors.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterState_JSON(t *testing.T) {
	s := FilterState{Category: Named("课件制作"), Access: AccessDirect, Search: "海报", Favorites: NewIDSet("canva"), Page: 2}

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"category":"课件制作","access":"direct","search":"海报","page":2}`, string(data))

	var back FilterState
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s.Category, back.Category)
	assert.Equal(t, s.Access, back.Access)
	assert.Equal(t, s.Search, back.Search)
	assert.Equal(t, s.Page, back.Page)
	assert.Nil(t, back.Favorites, "favorites are never serialized with the filter")
}

func TestParseSubcategory(t *testing.T) {
	assert.Equal(t, SubcategoryAll, ParseSubcategory("全部"))
	assert.Equal(t, SubcategoryAll, ParseSubcategory("all"))
	assert.Equal(t, SubcategoryAll, ParseSubcategory(" "))
	assert.Equal(t, "数字人", ParseSubcategory(" 数字人 "))
}
