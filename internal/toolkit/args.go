package toolkit

import (
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/browse"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/share"
)

// QueryToolsArgs contains parameters for a one-shot catalog query
type QueryToolsArgs struct {
	Category    string `json:"category,omitempty" jsonschema:"Category name, or 'all' (default) or 'favorites'. Prefix with 'category:' if a real category is literally named all or favorites"`
	Subcategory string `json:"subcategory,omitempty" jsonschema:"Subcategory within a subcategory-bearing category such as AI工具 (default: all)"`
	Access      string `json:"access,omitempty" jsonschema:"Network access filter: all (default), direct (直连可用) or restricted (网络受限)"`
	Search      string `json:"search,omitempty" jsonschema:"Case-insensitive text matched against title, description and tags"`
	Page        int    `json:"page,omitempty" jsonschema:"1-based page number (default 1)"`
	PageSize    int    `json:"page_size,omitempty" jsonschema:"Results per page (default 9, max 50)"`
}

// QueryToolsResult is one page of matching tools
type QueryToolsResult struct {
	Tools        []browse.Item `json:"tools"`
	Category     string        `json:"category"`
	Subcategory  string        `json:"subcategory,omitempty"`
	Access       string        `json:"access"`
	Search       string        `json:"search,omitempty"`
	Page         int           `json:"page"`
	PageSize     int           `json:"page_size"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
	Empty        bool          `json:"empty"`
	Cached       bool          `json:"cached,omitempty"`
}

// BrowseArgs drives a stateful browse session
type BrowseArgs struct {
	Session string `json:"session,omitempty" jsonschema:"Session id; each id keeps its own filters and page (default: default)"`
	Action  string `json:"action,omitempty" jsonschema:"One of select_category, select_subcategory, set_access, search, tag, next_page, prev_page, goto_page, clear, refresh (default)"`
	Value   string `json:"value,omitempty" jsonschema:"Action argument: category, subcategory, access, search text, tag or page number"`
}

// GetToolArgs contains parameters for looking up one tool
type GetToolArgs struct {
	ID string `json:"id" jsonschema:"Tool id, for example kimi"`
}

// GetToolResult is a single tool
type GetToolResult struct {
	Tool browse.Item `json:"tool"`
}

// ListCategoriesArgs takes no parameters
type ListCategoriesArgs struct{}

// CategoryInfo describes one category tab
type CategoryInfo struct {
	Name          string   `json:"name"`
	Value         string   `json:"value"`
	Count         int      `json:"count"`
	Subcategories []string `json:"subcategories,omitempty"`
}

// ListCategoriesResult lists the category tabs
type ListCategoriesResult struct {
	Categories     []CategoryInfo `json:"categories"`
	TotalTools     int            `json:"total_tools"`
	FavoritesCount int            `json:"favorites_count"`
}

// ToggleFavoriteArgs contains parameters for marking or unmarking a favorite
type ToggleFavoriteArgs struct {
	ID string `json:"id" jsonschema:"Tool id to add to or remove from favorites"`
}

// ToggleFavoriteResult reports the new favorite state
type ToggleFavoriteResult struct {
	ID         string   `json:"id"`
	IsFavorite bool     `json:"is_favorite"`
	Favorites  []string `json:"favorites"`
	Count      int      `json:"count"`
}

// ListFavoritesArgs takes no parameters
type ListFavoritesArgs struct{}

// ListFavoritesResult lists favorite tools in the order they were marked
type ListFavoritesResult struct {
	Tools []browse.Item `json:"tools"`
	Count int           `json:"count"`
	// Missing holds stored ids that are no longer in the catalog.
	Missing []string `json:"missing,omitempty"`
}

// GetThemeArgs contains parameters for resolving the theme
type GetThemeArgs struct {
	PrefersDark *bool `json:"prefers_dark,omitempty" jsonschema:"Operating-system dark-mode preference, used when no explicit choice is stored"`
}

// SetThemeArgs contains parameters for choosing a theme
type SetThemeArgs struct {
	Theme       string `json:"theme" jsonschema:"dark, light or toggle"`
	PrefersDark *bool  `json:"prefers_dark,omitempty" jsonschema:"Operating-system dark-mode preference, used by toggle when nothing is stored yet"`
}

// ThemeResult is the resolved theme
type ThemeResult struct {
	Theme  string `json:"theme"`
	Dark   bool   `json:"dark"`
	Source string `json:"source"`
}

// ShareToolArgs contains parameters for sharing a tool
type ShareToolArgs struct {
	ID   string `json:"id" jsonschema:"Tool id to share"`
	Copy bool   `json:"copy,omitempty" jsonschema:"Also copy the link to the host clipboard (best effort)"`
}

// ShareToolResult is the share payload and fallback link
type ShareToolResult struct {
	share.Payload
	IntentURL string `json:"intent_url"`
	Copied    bool   `json:"copied"`
}

// CheckLinksArgs contains parameters for a link health check
type CheckLinksArgs struct {
	IDs            []string `json:"ids,omitempty" jsonschema:"Tool ids to check (max 20). When empty, checks the category instead"`
	Category       string   `json:"category,omitempty" jsonschema:"Category to check when ids is empty (default: all, first 20 tools)"`
	TimeoutSeconds int      `json:"timeout_seconds,omitempty" jsonschema:"Timeout for the whole check in seconds (default 10, max 60)"`
}
