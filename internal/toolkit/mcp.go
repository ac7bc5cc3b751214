package toolkit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/browse"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/catalog"
	apierrors "github.com/olgasafonova/teacher-toolkit-mcp-server/internal/errors"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/linkcheck"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/prefs"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/share"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/metrics"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/tracing"
	"go.opentelemetry.io/otel/trace"
)

// MCP Tool wrapper methods
// These methods adapt the service to Args/Result types for MCP integration.

// QueryToolsMCP is the MCP wrapper for a one-shot catalog query
func (s *Service) QueryToolsMCP(ctx context.Context, args QueryToolsArgs) (QueryToolsResult, error) {
	state, size, err := s.queryState(args)
	if err != nil {
		return QueryToolsResult{}, err
	}

	favs, err := s.favorites.Set()
	if err != nil {
		return QueryToolsResult{}, err
	}
	state = state.WithFavorites(favs)

	span := trace.SpanFromContext(ctx)
	tracing.AddQueryAttributes(span, state.Category.String(), state.Subcategory, state.Access.String(), state.Search, state.Page)

	res, cached := s.runQuery(state, size)
	tracing.AddResultAttributes(span, res.TotalResults, res.TotalPages)
	metrics.RecordQuery(viewLabel(state.Category), res.TotalResults, activeFilters(state)...)

	return QueryToolsResult{
		Tools:        s.items(res.Items, favs),
		Category:     state.Category.String(),
		Subcategory:  state.Subcategory,
		Access:       state.Access.String(),
		Search:       state.Search,
		Page:         res.Page,
		PageSize:     res.PageSize,
		TotalPages:   res.TotalPages,
		TotalResults: res.TotalResults,
		Empty:        res.Empty(),
		Cached:       cached,
	}, nil
}

func (s *Service) queryState(args QueryToolsArgs) (catalog.FilterState, int, error) {
	access, err := catalog.ParseAccessFilter(args.Access)
	if err != nil {
		return catalog.FilterState{}, 0, err
	}
	page := args.Page
	switch {
	case page == 0:
		page = 1
	case page < 0:
		return catalog.FilterState{}, 0, apierrors.NewValidationError("page", fmt.Sprint(page), "must be 1 or greater")
	}
	size := args.PageSize
	switch {
	case size == 0:
		size = s.pageSize
	case size < 0 || size > MaxPageSize:
		return catalog.FilterState{}, 0, apierrors.NewValidationError("page_size", fmt.Sprint(size), fmt.Sprintf("must be between 1 and %d", MaxPageSize))
	}

	state := catalog.NewFilterState().
		WithCategory(catalog.ParseCategorySelector(args.Category)).
		WithSubcategory(catalog.ParseSubcategory(args.Subcategory)).
		WithAccess(access).
		WithSearch(args.Search)
	state.Page = page
	return state, size, nil
}

// runQuery serves non-favorites queries from the cache. The favorites view
// depends on mutable preferences and is always computed.
func (s *Service) runQuery(state catalog.FilterState, size int) (catalog.Result, bool) {
	if state.Category.IsFavorites() {
		return s.catalog.Query(state, size), false
	}

	key := fmt.Sprintf("%s\x00%s\x00%s\x00%s\x00%d\x00%d",
		state.Category, state.Subcategory, state.Access, state.Search, state.Page, size)
	if res, ok := s.queryCache.Get(key); ok {
		metrics.RecordCacheAccess(queryCacheName, true)
		return res, true
	}
	metrics.RecordCacheAccess(queryCacheName, false)

	res := s.catalog.Query(state, size)
	s.queryCache.Set(key, res, QueryCacheTTL)
	metrics.SetCacheSize(queryCacheName, s.queryCache.Len())
	return res, false
}

func viewLabel(sel catalog.CategorySelector) string {
	switch {
	case sel.IsAll():
		return "all"
	case sel.IsFavorites():
		return "favorites"
	default:
		return "category"
	}
}

func activeFilters(state catalog.FilterState) []string {
	var out []string
	if state.Subcategory != catalog.SubcategoryAll {
		out = append(out, "subcategory")
	}
	if state.Access != catalog.AccessAll {
		out = append(out, "access")
	}
	if state.Search != "" {
		out = append(out, "search")
	}
	return out
}

// BrowseMCP is the MCP wrapper for a stateful browse action
func (s *Service) BrowseMCP(ctx context.Context, args BrowseArgs) (browse.View, error) {
	v, err := s.sessions.Apply(args.Session, browse.Action(strings.TrimSpace(args.Action)), args.Value)
	if err != nil {
		return browse.View{}, err
	}
	metrics.BrowseSessions.Set(float64(s.sessions.Len()))
	span := trace.SpanFromContext(ctx)
	tracing.AddQueryAttributes(span, v.Category, v.Subcategory, v.Access, v.Search, v.Page)
	tracing.AddResultAttributes(span, v.TotalResults, v.TotalPages)
	return v, nil
}

// GetToolMCP is the MCP wrapper for looking up one tool
func (s *Service) GetToolMCP(ctx context.Context, args GetToolArgs) (GetToolResult, error) {
	r, err := s.lookup(args.ID)
	if err != nil {
		return GetToolResult{}, err
	}
	favs, err := s.favorites.Set()
	if err != nil {
		return GetToolResult{}, err
	}
	return GetToolResult{Tool: s.item(r, favs)}, nil
}

func (s *Service) lookup(id string) (catalog.ToolRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return catalog.ToolRecord{}, apierrors.NewValidationError("id", id, "is required")
	}
	return s.catalog.Get(id)
}

// ListCategoriesMCP is the MCP wrapper for listing category tabs
func (s *Service) ListCategoriesMCP(ctx context.Context, args ListCategoriesArgs) (ListCategoriesResult, error) {
	ids, err := s.favorites.IDs()
	if err != nil {
		return ListCategoriesResult{}, err
	}
	counts := s.catalog.CategoryCounts()

	cats := make([]CategoryInfo, 0, len(counts))
	for _, name := range s.catalog.Categories() {
		cats = append(cats, CategoryInfo{
			Name:          name,
			Value:         catalog.Named(name).String(),
			Count:         counts[name],
			Subcategories: s.catalog.Subcategories(name),
		})
	}
	return ListCategoriesResult{
		Categories:     cats,
		TotalTools:     s.catalog.Len(),
		FavoritesCount: len(s.catalog.Resolve(ids)),
	}, nil
}

// ToggleFavoriteMCP is the MCP wrapper for marking or unmarking a favorite
func (s *Service) ToggleFavoriteMCP(ctx context.Context, args ToggleFavoriteArgs) (ToggleFavoriteResult, error) {
	r, err := s.lookup(args.ID)
	if err != nil {
		return ToggleFavoriteResult{}, err
	}
	ids, added, err := s.favorites.Toggle(r.ID)
	if err != nil {
		return ToggleFavoriteResult{}, err
	}
	metrics.RecordFavoriteToggle(added)
	return ToggleFavoriteResult{ID: r.ID, IsFavorite: added, Favorites: ids, Count: len(ids)}, nil
}

// ListFavoritesMCP is the MCP wrapper for listing favorite tools
func (s *Service) ListFavoritesMCP(ctx context.Context, args ListFavoritesArgs) (ListFavoritesResult, error) {
	ids, err := s.favorites.IDs()
	if err != nil {
		return ListFavoritesResult{}, err
	}
	favs := catalog.NewIDSet(ids...)
	result := ListFavoritesResult{Tools: []browse.Item{}}
	for _, id := range ids {
		r, err := s.catalog.Get(id)
		if err != nil {
			result.Missing = append(result.Missing, id)
			continue
		}
		result.Tools = append(result.Tools, s.item(r, favs))
	}
	result.Count = len(result.Tools)
	return result, nil
}

// GetThemeMCP is the MCP wrapper for resolving the theme
func (s *Service) GetThemeMCP(ctx context.Context, args GetThemeArgs) (ThemeResult, error) {
	dark, source, err := s.theme.Resolve(s.systemDark(args.PrefersDark))
	if err != nil {
		return ThemeResult{}, err
	}
	return themeResult(dark, source), nil
}

// SetThemeMCP is the MCP wrapper for choosing a theme
func (s *Service) SetThemeMCP(ctx context.Context, args SetThemeArgs) (ThemeResult, error) {
	var dark bool
	if strings.EqualFold(strings.TrimSpace(args.Theme), "toggle") {
		var err error
		if dark, err = s.theme.Toggle(s.systemDark(args.PrefersDark)); err != nil {
			return ThemeResult{}, err
		}
	} else {
		var err error
		if dark, err = prefs.ParseTheme(args.Theme); err != nil {
			return ThemeResult{}, err
		}
		if err := s.theme.Set(dark); err != nil {
			return ThemeResult{}, err
		}
	}
	metrics.ThemeChanges.WithLabelValues(prefs.ThemeName(dark)).Inc()
	return themeResult(dark, prefs.SourceStored), nil
}

func (s *Service) systemDark(arg *bool) *bool {
	if arg != nil {
		return arg
	}
	return s.prefersDark
}

func themeResult(dark bool, source prefs.ThemeSource) ThemeResult {
	return ThemeResult{Theme: prefs.ThemeName(dark), Dark: dark, Source: string(source)}
}

// ShareToolMCP is the MCP wrapper for sharing a tool
func (s *Service) ShareToolMCP(ctx context.Context, args ShareToolArgs) (ShareToolResult, error) {
	r, err := s.lookup(args.ID)
	if err != nil {
		return ShareToolResult{}, err
	}
	result := ShareToolResult{
		Payload:   share.NewPayload(r),
		IntentURL: share.IntentURL(r),
	}
	if args.Copy {
		result.Copied = s.sharer.CopyLink(r)
		metrics.RecordShare(result.Copied)
	}
	return result, nil
}

// CheckLinksMCP is the MCP wrapper for the link health check
func (s *Service) CheckLinksMCP(ctx context.Context, args CheckLinksArgs) (linkcheck.Report, error) {
	maxSeconds := int(linkcheck.MaxTimeout / time.Second)
	if args.TimeoutSeconds < 0 || args.TimeoutSeconds > maxSeconds {
		return linkcheck.Report{}, apierrors.NewValidationError("timeout_seconds", fmt.Sprint(args.TimeoutSeconds),
			fmt.Sprintf("must be between 0 and %d", maxSeconds))
	}
	if len(args.IDs) > linkcheck.MaxLinks {
		return linkcheck.Report{}, apierrors.NewValidationError("ids", fmt.Sprint(len(args.IDs)),
			fmt.Sprintf("at most %d ids per check", linkcheck.MaxLinks))
	}

	var records []catalog.ToolRecord
	if len(args.IDs) > 0 {
		for _, id := range args.IDs {
			r, err := s.lookup(id)
			if err != nil {
				return linkcheck.Report{}, err
			}
			records = append(records, r)
		}
	} else {
		state := catalog.NewFilterState().WithCategory(catalog.ParseCategorySelector(args.Category))
		favs, err := s.favorites.Set()
		if err != nil {
			return linkcheck.Report{}, err
		}
		records = catalog.Filter(s.catalog.Records(), state.WithFavorites(favs), s.catalog)
	}

	return s.checker.Check(ctx, records, time.Duration(args.TimeoutSeconds)*time.Second), nil
}
