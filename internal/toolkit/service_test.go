package toolkit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/base"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/browse"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/catalog"
	apierrors "github.com/olgasafonova/teacher-toolkit-mcp-server/internal/errors"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/prefs"
)

type stubProber struct {
	mu   sync.Mutex
	urls []string
}

func (p *stubProber) Probe(_ context.Context, u string) base.ProbeResult {
	p.mu.Lock()
	p.urls = append(p.urls, u)
	p.mu.Unlock()
	return base.ProbeResult{URL: u, OK: true, StatusCode: 200}
}

type testEnv struct {
	svc       *Service
	store     *prefs.MemoryStore
	prober    *stubProber
	clipboard []string
}

func newTestService(t *testing.T, opts Options) *testEnv {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	env := &testEnv{store: prefs.NewMemoryStore(), prober: &stubProber{}}
	if opts.Prober == nil {
		opts.Prober = env.prober
	}
	if opts.Clipboard == nil {
		opts.Clipboard = func(text string) error {
			env.clipboard = append(env.clipboard, text)
			return nil
		}
	}
	env.svc = New(cat, env.store, nil, opts)
	t.Cleanup(func() { _ = env.svc.Close() })
	return env
}

func toolIDs(items []browse.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestQueryTools_Defaults(t *testing.T) {
	env := newTestService(t, Options{})
	ctx := context.Background()

	res, err := env.svc.QueryToolsMCP(ctx, QueryToolsArgs{})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Page)
	assert.Equal(t, catalog.DefaultPageSize, res.PageSize)
	assert.Equal(t, 27, res.TotalResults)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, "all", res.Category)
	assert.Equal(t, "all", res.Access)
	want := []string{"kimi", "deepseek", "jianying", "canva", "wenjuanxing", "smartedu", "kdocs", "doubao", "chatgpt"}
	if diff := cmp.Diff(want, toolIDs(res.Tools)); diff != "" {
		t.Errorf("first page mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, res.Cached)

	again, err := env.svc.QueryToolsMCP(ctx, QueryToolsArgs{})
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, toolIDs(res.Tools), toolIDs(again.Tools))
}

func TestQueryTools_Filters(t *testing.T) {
	env := newTestService(t, Options{})
	ctx := context.Background()

	res, err := env.svc.QueryToolsMCP(ctx, QueryToolsArgs{Category: "AI工具", Subcategory: "对话模型", Access: "direct"})
	require.NoError(t, err)
	assert.Equal(t, []string{"kimi", "deepseek", "doubao"}, toolIDs(res.Tools))

	res, err = env.svc.QueryToolsMCP(ctx, QueryToolsArgs{Access: "restricted", PageSize: 50})
	require.NoError(t, err)
	assert.Equal(t, 10, res.TotalResults)
	for _, it := range res.Tools {
		assert.True(t, it.IsRestricted(), it.ID)
	}

	res, err = env.svc.QueryToolsMCP(ctx, QueryToolsArgs{Page: 9})
	require.NoError(t, err)
	assert.Empty(t, res.Tools, "page past the end is empty")
	assert.Equal(t, 3, res.TotalPages)
	assert.False(t, res.Empty)

	res, err = env.svc.QueryToolsMCP(ctx, QueryToolsArgs{Search: "zzz-nothing"})
	require.NoError(t, err)
	assert.True(t, res.Empty)
	assert.Zero(t, res.TotalPages)
}

func TestQueryTools_Validation(t *testing.T) {
	env := newTestService(t, Options{})
	for _, args := range []QueryToolsArgs{
		{Access: "vpn"},
		{Page: -1},
		{PageSize: -3},
		{PageSize: MaxPageSize + 1},
	} {
		_, err := env.svc.QueryToolsMCP(context.Background(), args)
		assert.True(t, apierrors.IsValidation(err), "args %+v: %v", args, err)
	}
}

func TestQueryTools_FavoritesView(t *testing.T) {
	env := newTestService(t, Options{})
	ctx := context.Background()

	res, err := env.svc.QueryToolsMCP(ctx, QueryToolsArgs{Category: "favorites"})
	require.NoError(t, err)
	assert.True(t, res.Empty)

	for _, id := range []string{"suno", "kimi"} {
		_, err := env.svc.ToggleFavoriteMCP(ctx, ToggleFavoriteArgs{ID: id})
		require.NoError(t, err)
	}

	res, err = env.svc.QueryToolsMCP(ctx, QueryToolsArgs{Category: "favorites"})
	require.NoError(t, err)
	assert.Equal(t, []string{"kimi", "suno"}, toolIDs(res.Tools))
	assert.False(t, res.Cached, "favorites view is never cached")
	for _, it := range res.Tools {
		assert.True(t, it.IsFavorite)
	}
}

func TestToggleAndListFavorites(t *testing.T) {
	env := newTestService(t, Options{})
	ctx := context.Background()

	got, err := env.svc.ToggleFavoriteMCP(ctx, ToggleFavoriteArgs{ID: "canva"})
	require.NoError(t, err)
	assert.True(t, got.IsFavorite)
	assert.Equal(t, []string{"canva"}, got.Favorites)

	_, err = env.svc.ToggleFavoriteMCP(ctx, ToggleFavoriteArgs{ID: "suno"})
	require.NoError(t, err)

	got, err = env.svc.ToggleFavoriteMCP(ctx, ToggleFavoriteArgs{ID: "canva"})
	require.NoError(t, err)
	assert.False(t, got.IsFavorite)
	assert.Equal(t, 1, got.Count)

	_, err = env.svc.ToggleFavoriteMCP(ctx, ToggleFavoriteArgs{ID: "not-a-tool"})
	assert.True(t, apierrors.IsNotFound(err))

	// A stale id left over from an older catalog.
	require.NoError(t, env.store.Set(prefs.KeyFavorites, `["suno","retired-tool"]`))
	list, err := env.svc.ListFavoritesMCP(ctx, ListFavoritesArgs{})
	require.NoError(t, err)
	assert.Equal(t, []string{"suno"}, toolIDs(list.Tools))
	assert.Equal(t, []string{"retired-tool"}, list.Missing)
	assert.Equal(t, 1, list.Count)

	cats, err := env.svc.ListCategoriesMCP(ctx, ListCategoriesArgs{})
	require.NoError(t, err)
	assert.Equal(t, 1, cats.FavoritesCount)
}

func TestGetTool(t *testing.T) {
	env := newTestService(t, Options{})
	ctx := context.Background()

	res, err := env.svc.GetToolMCP(ctx, GetToolArgs{ID: " kimi "})
	require.NoError(t, err)
	assert.Equal(t, "kimi", res.Tool.ID)
	assert.False(t, res.Tool.IsFavorite)

	_, err = env.svc.GetToolMCP(ctx, GetToolArgs{ID: ""})
	assert.True(t, apierrors.IsValidation(err))

	_, err = env.svc.GetToolMCP(ctx, GetToolArgs{ID: "nope"})
	assert.True(t, apierrors.IsNotFound(err))
}

func TestListCategories(t *testing.T) {
	env := newTestService(t, Options{})

	res, err := env.svc.ListCategoriesMCP(context.Background(), ListCategoriesArgs{})
	require.NoError(t, err)

	assert.Equal(t, 27, res.TotalTools)
	require.Len(t, res.Categories, 5)
	assert.Equal(t, "AI工具", res.Categories[0].Name)
	assert.Equal(t, 14, res.Categories[0].Count)
	assert.Contains(t, res.Categories[0].Subcategories, "对话模型")
	assert.Empty(t, res.Categories[1].Subcategories)
}

func TestTheme(t *testing.T) {
	dark := true
	env := newTestService(t, Options{PrefersDark: &dark})
	ctx := context.Background()

	res, err := env.svc.GetThemeMCP(ctx, GetThemeArgs{})
	require.NoError(t, err)
	assert.Equal(t, ThemeResult{Theme: "dark", Dark: true, Source: "system"}, res)

	light := false
	res, err = env.svc.GetThemeMCP(ctx, GetThemeArgs{PrefersDark: &light})
	require.NoError(t, err)
	assert.False(t, res.Dark, "argument overrides configured signal")

	res, err = env.svc.SetThemeMCP(ctx, SetThemeArgs{Theme: "toggle"})
	require.NoError(t, err)
	assert.Equal(t, "light", res.Theme)

	res, err = env.svc.GetThemeMCP(ctx, GetThemeArgs{})
	require.NoError(t, err)
	assert.Equal(t, ThemeResult{Theme: "light", Dark: false, Source: "stored"}, res)

	res, err = env.svc.SetThemeMCP(ctx, SetThemeArgs{Theme: "DARK"})
	require.NoError(t, err)
	assert.True(t, res.Dark)

	_, err = env.svc.SetThemeMCP(ctx, SetThemeArgs{Theme: "sepia"})
	assert.True(t, apierrors.IsValidation(err))
}

func TestShareTool(t *testing.T) {
	env := newTestService(t, Options{})
	ctx := context.Background()

	res, err := env.svc.ShareToolMCP(ctx, ShareToolArgs{ID: "kimi"})
	require.NoError(t, err)
	assert.Contains(t, res.Text, "推荐好工具：Kimi 智能助手 - ")
	assert.Contains(t, res.IntentURL, "https://twitter.com/intent/tweet?")
	assert.False(t, res.Copied)
	assert.Empty(t, env.clipboard)

	res, err = env.svc.ShareToolMCP(ctx, ShareToolArgs{ID: "kimi", Copy: true})
	require.NoError(t, err)
	assert.True(t, res.Copied)
	assert.Equal(t, []string{"https://kimi.moonshot.cn"}, env.clipboard)
}

func TestShareTool_ClipboardFailure(t *testing.T) {
	env := newTestService(t, Options{Clipboard: func(string) error { return errors.New("headless") }})

	res, err := env.svc.ShareToolMCP(context.Background(), ShareToolArgs{ID: "kimi", Copy: true})
	require.NoError(t, err, "clipboard errors never fail the share")
	assert.False(t, res.Copied)
}

func TestCheckLinks(t *testing.T) {
	env := newTestService(t, Options{})
	ctx := context.Background()

	report, err := env.svc.CheckLinksMCP(ctx, CheckLinksArgs{IDs: []string{"kimi", "suno"}})
	require.NoError(t, err)
	assert.Equal(t, 2, report.OK)
	assert.ElementsMatch(t, []string{"https://kimi.moonshot.cn", "https://suno.com"}, env.prober.urls)

	report, err = env.svc.CheckLinksMCP(ctx, CheckLinksArgs{Category: "课件制作"})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Checked)

	report, err = env.svc.CheckLinksMCP(ctx, CheckLinksArgs{})
	require.NoError(t, err)
	assert.True(t, report.Truncated)
	assert.Equal(t, 20, report.Checked)

	_, err = env.svc.CheckLinksMCP(ctx, CheckLinksArgs{IDs: []string{"ghost"}})
	assert.True(t, apierrors.IsNotFound(err))

	for _, secs := range []int{-1, 61, 10_000_000_000} {
		_, err = env.svc.CheckLinksMCP(ctx, CheckLinksArgs{TimeoutSeconds: secs})
		assert.True(t, apierrors.IsValidation(err), "timeout_seconds=%d", secs)
	}
}

func TestBrowse(t *testing.T) {
	env := newTestService(t, Options{PageSize: 5})
	ctx := context.Background()

	v, err := env.svc.BrowseMCP(ctx, BrowseArgs{Session: "s", Action: "select_category", Value: "AI工具"})
	require.NoError(t, err)
	assert.Equal(t, 3, v.TotalPages)
	assert.Len(t, v.Items, 5)

	v, err = env.svc.BrowseMCP(ctx, BrowseArgs{Session: "s", Action: " next_page "})
	require.NoError(t, err)
	assert.Equal(t, 2, v.Page)

	_, err = env.svc.BrowseMCP(ctx, BrowseArgs{Session: "s", Action: "fly"})
	assert.True(t, apierrors.IsValidation(err))
}

func TestClose_ClosesBoltStore(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	store, err := prefs.OpenBoltStore(t.TempDir()+"/prefs.db", "")
	require.NoError(t, err)

	svc := New(cat, store, nil, Options{Prober: &stubProber{}, LinkTimeout: time.Second})
	require.NoError(t, svc.Close())

	_, _, err = store.Get(prefs.KeyTheme)
	assert.ErrorIs(t, err, prefs.ErrStoreClosed)
}
