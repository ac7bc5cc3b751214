package browse

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/catalog"
	apierrors "github.com/olgasafonova/teacher-toolkit-mcp-server/internal/errors"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/prefs"
)

func newSessions(t *testing.T, opts ...Option) (*Sessions, *prefs.Favorites) {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	favs := prefs.NewFavorites(prefs.NewMemoryStore(), nil)
	s := New(cat, favs, opts...)
	t.Cleanup(s.Close)
	return s, favs
}

func itemIDs(v View) []string {
	out := make([]string, len(v.Items))
	for i, it := range v.Items {
		out[i] = it.ID
	}
	return out
}

func TestApply_InitialView(t *testing.T) {
	s, _ := newSessions(t)

	v, err := s.Apply("", ActionRefresh, "")
	require.NoError(t, err)

	assert.Equal(t, DefaultSession, v.Session)
	assert.Equal(t, "all", v.Category)
	assert.Equal(t, "all", v.Access)
	assert.Equal(t, 1, v.Page)
	assert.Equal(t, 3, v.TotalPages)
	assert.Equal(t, 27, v.TotalResults)
	assert.Len(t, v.Items, 9)
	assert.False(t, v.HasPrev)
	assert.True(t, v.HasNext)
	assert.Empty(t, v.Subcategories)

	require.GreaterOrEqual(t, len(v.Tabs), 2)
	assert.Equal(t, catalog.CategoryFavoritesLabel, v.Tabs[0].Label, "favorites tab comes first")
	assert.Equal(t, catalog.CategoryAllLabel, v.Tabs[1].Label)
	assert.True(t, v.Tabs[1].Active)
	assert.Equal(t, 27, v.Tabs[1].Count)
}

func TestApply_CategoryAndSubcategory(t *testing.T) {
	s, _ := newSessions(t)

	v, err := s.Apply("t1", ActionSelectCategory, "AI工具")
	require.NoError(t, err)
	assert.Equal(t, 14, v.TotalResults)
	assert.Equal(t, 2, v.TotalPages)
	require.NotEmpty(t, v.Subcategories)
	assert.Equal(t, catalog.CategoryAllLabel, v.Subcategories[0].Label)
	assert.True(t, v.Subcategories[0].Active)

	v, err = s.Apply("t1", ActionNextPage, "")
	require.NoError(t, err)
	assert.Equal(t, 2, v.Page)

	v, err = s.Apply("t1", ActionSelectSubcategory, "对话模型")
	require.NoError(t, err)
	assert.Equal(t, 1, v.Page, "subcategory change resets page")
	assert.Equal(t, []string{"kimi", "deepseek", "doubao", "chatgpt"}, itemIDs(v))

	v, err = s.Apply("t1", ActionSetAccess, "direct")
	require.NoError(t, err)
	assert.Equal(t, []string{"kimi", "deepseek", "doubao"}, itemIDs(v))

	v, err = s.Apply("t1", ActionSelectCategory, "课件制作")
	require.NoError(t, err)
	assert.Empty(t, v.Subcategory, "new category clears subcategory")
	assert.Empty(t, v.Subcategories)
	assert.Equal(t, "direct", v.Access, "access survives a category change")
}

func TestApply_Validation(t *testing.T) {
	s, _ := newSessions(t)

	tests := []struct {
		name   string
		action Action
		value  string
	}{
		{"unknown category", ActionSelectCategory, "体育"},
		{"subcategory without bearing category", ActionSelectSubcategory, "对话模型"},
		{"bad access", ActionSetAccess, "vpn"},
		{"bad page", ActionGotoPage, "two"},
		{"unknown action", Action("dance"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Apply("v", tt.action, tt.value)
			require.Error(t, err)
			assert.True(t, apierrors.IsValidation(err), "got %T", err)
		})
	}

	_, err := s.Apply("v", ActionSelectCategory, "AI工具")
	require.NoError(t, err)
	_, err = s.Apply("v", ActionSelectSubcategory, "天文")
	assert.True(t, apierrors.IsValidation(err))
}

func TestApply_FailedActionKeepsState(t *testing.T) {
	s, _ := newSessions(t)
	_, err := s.Apply("k", ActionSearch, "视频")
	require.NoError(t, err)

	_, err = s.Apply("k", ActionSetAccess, "nope")
	require.Error(t, err)

	v, err := s.Apply("k", ActionRefresh, "")
	require.NoError(t, err)
	assert.Equal(t, "视频", v.Search)
}

func TestApply_Paging(t *testing.T) {
	s, _ := newSessions(t)

	v, err := s.Apply("p", ActionGotoPage, "99")
	require.NoError(t, err)
	assert.Equal(t, 3, v.Page, "goto clamps to last page")
	assert.False(t, v.HasNext)

	v, err = s.Apply("p", ActionNextPage, "")
	require.NoError(t, err)
	assert.Equal(t, 3, v.Page)

	v, err = s.Apply("p", ActionPrevPage, "")
	require.NoError(t, err)
	assert.Equal(t, 2, v.Page)

	v, err = s.Apply("p", ActionGotoPage, "0")
	require.NoError(t, err)
	assert.Equal(t, 1, v.Page)

	v, err = s.Apply("p", ActionPrevPage, "")
	require.NoError(t, err)
	assert.Equal(t, 1, v.Page)
}

func TestApply_TagAndClear(t *testing.T) {
	s, _ := newSessions(t)

	_, err := s.Apply("c", ActionSelectCategory, "AI工具")
	require.NoError(t, err)
	v, err := s.Apply("c", ActionTag, "文生视频")
	require.NoError(t, err)
	assert.Equal(t, "文生视频", v.Search)
	assert.ElementsMatch(t, []string{"jimeng", "kling", "runway"}, itemIDs(v))

	v, err = s.Apply("c", ActionSearch, "没有这个工具")
	require.NoError(t, err)
	assert.True(t, v.Empty)
	assert.Equal(t, EmptyMessage, v.EmptyMessage)
	assert.Zero(t, v.TotalPages)
	assert.Empty(t, v.Items)

	v, err = s.Apply("c", ActionClear, "")
	require.NoError(t, err)
	assert.Equal(t, "all", v.Category)
	assert.Empty(t, v.Search)
	assert.Equal(t, 27, v.TotalResults)
}

func TestApply_FavoritesView(t *testing.T) {
	s, favs := newSessions(t)

	v, err := s.Apply("f", ActionSelectCategory, "favorites")
	require.NoError(t, err)
	assert.True(t, v.Empty)
	assert.True(t, v.Tabs[0].Active)

	for _, id := range []string{"chatgpt", "canva"} {
		_, _, err := favs.Toggle(id)
		require.NoError(t, err)
	}

	v, err = s.Apply("f", ActionRefresh, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"canva", "chatgpt"}, itemIDs(v), "featured canva first")
	assert.Equal(t, 2, v.Tabs[0].Count)
	for _, it := range v.Items {
		assert.True(t, it.IsFavorite)
	}
}

func TestApply_ClampsAfterFavoritesShrink(t *testing.T) {
	s, favs := newSessions(t, WithPageSize(1))
	for _, id := range []string{"kimi", "doubao"} {
		_, _, err := favs.Toggle(id)
		require.NoError(t, err)
	}

	_, err := s.Apply("z", ActionSelectCategory, "favorites")
	require.NoError(t, err)
	v, err := s.Apply("z", ActionNextPage, "")
	require.NoError(t, err)
	require.Equal(t, 2, v.Page)

	_, _, err = favs.Toggle("doubao")
	require.NoError(t, err)

	v, err = s.Apply("z", ActionRefresh, "")
	require.NoError(t, err)
	assert.Equal(t, 1, v.Page)
	assert.Equal(t, []string{"kimi"}, itemIDs(v))
}

func TestSessions_Isolated(t *testing.T) {
	s, _ := newSessions(t)

	_, err := s.Apply("a", ActionSearch, "剪辑")
	require.NoError(t, err)
	v, err := s.Apply("b", ActionRefresh, "")
	require.NoError(t, err)
	assert.Empty(t, v.Search)
	assert.Equal(t, 2, s.Len())

	s.Reset("a")
	v, err = s.Apply("a", ActionRefresh, "")
	require.NoError(t, err)
	assert.Empty(t, v.Search)
}

func TestSessions_Limits(t *testing.T) {
	s, _ := newSessions(t, WithSessionLimits(time.Hour, 2))

	for _, id := range []string{"1", "2", "3"} {
		_, err := s.Apply(id, ActionRefresh, "")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, s.Len())
}

func TestSessions_ConcurrentApply(t *testing.T) {
	s, _ := newSessions(t)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Apply("shared", ActionNextPage, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	v, err := s.Apply("shared", ActionRefresh, "")
	require.NoError(t, err)
	assert.Equal(t, 3, v.Page, "next_page stops at the last page")
	assert.Equal(t, 1, s.Len())
}

type brokenFavorites struct{}

func (brokenFavorites) Set() (catalog.IDSet, error) { return nil, errors.New("disk gone") }

func TestApply_FavoritesError(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	s := New(cat, brokenFavorites{})
	defer s.Close()

	_, err = s.Apply("x", ActionRefresh, "")
	assert.ErrorContains(t, err, "disk gone")
}
