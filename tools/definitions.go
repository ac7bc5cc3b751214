package tools

// AllTools contains all tool specifications for the teacher toolkit MCP server.
// Tool descriptions follow a structured format for optimal LLM tool selection:
// - USE WHEN: Natural language triggers
// - NOT FOR: Disambiguation from similar tools
// - PARAMETERS: Key arguments with defaults
// - RETURNS: What the tool returns
var AllTools = []ToolSpec{
	// ==========================================================================
	// CATALOG TOOLS
	// ==========================================================================
	{
		Name:     "toolkit_query_tools",
		Method:   "QueryTools",
		Title:    "Query Teaching Tools",
		Category: "catalog",
		Description: `Filter and page through the teacher tool directory in one call.

USE WHEN: User asks "which AI video tools can I use without a VPN", "find tools for making slides", "show page 2 of 课件制作".

NOT FOR: Step-by-step clicking through tabs (use toolkit_browse). Details of one known tool (use toolkit_get_tool).

PARAMETERS:
- category: Category name, "all" (default) or "favorites"
- subcategory: Subcategory of AI工具, e.g. 对话模型 (default all)
- access: all (default), direct (直连可用) or restricted (网络受限)
- search: Text matched in title, description and tags
- page: 1-based page (default 1)
- page_size: Results per page (default 9, max 50)

RETURNS: Featured tools first, then the rest in catalog order; page, total_pages and total_results. total_pages is 0 when nothing matches.`,
		ReadOnly:   true,
		Idempotent: true,
	},
	{
		Name:     "toolkit_browse",
		Method:   "Browse",
		Title:    "Browse Directory",
		Category: "catalog",
		Description: `Click through the directory like the web page: tabs, subcategory chips, access filter, search box and pager. State is kept per session.

USE WHEN: User navigates interactively: "open the AI tab", "only direct access", "next page", "clear filters".

NOT FOR: A single self-contained query (use toolkit_query_tools).

PARAMETERS:
- session: Session id (default "default")
- action: select_category, select_subcategory, set_access, search, tag, next_page, prev_page, goto_page, clear or refresh (default)
- value: Argument for the action

RETURNS: The current screen: items with is_favorite, page, total_pages, category tabs (favorites first) and subcategory chips when the category has them. Changing a filter returns to page 1; picking a new category resets the subcategory.`,
		ReadOnly: true,
	},
	{
		Name:     "toolkit_get_tool",
		Method:   "GetTool",
		Title:    "Get Tool",
		Category: "catalog",
		Description: `Get one tool by id.

USE WHEN: User asks about a specific tool: "what is kimi", "link for 剪映".

NOT FOR: Searching (use toolkit_query_tools).

PARAMETERS:
- id: Tool id (required)

RETURNS: The tool record and whether it is a favorite.`,
		ReadOnly:   true,
		Idempotent: true,
	},
	{
		Name:     "toolkit_list_categories",
		Method:   "ListCategories",
		Title:    "List Categories",
		Category: "catalog",
		Description: `List category tabs with tool counts and subcategories.

USE WHEN: User asks "what kinds of tools are there", or before filtering by category.

RETURNS: Categories in display order with counts, subcategories, total tool count and favorites count.`,
		ReadOnly:   true,
		Idempotent: true,
	},

	// ==========================================================================
	// FAVORITES TOOLS
	// ==========================================================================
	{
		Name:     "toolkit_toggle_favorite",
		Method:   "ToggleFavorite",
		Title:    "Toggle Favorite",
		Category: "favorites",
		Description: `Add a tool to favorites, or remove it if it is already a favorite.

USE WHEN: User says "save kimi", "star this tool", "remove canva from my favorites".

PARAMETERS:
- id: Tool id (required)

RETURNS: Whether the tool is now a favorite and the full favorite list in the order tools were added.`,
	},
	{
		Name:     "toolkit_list_favorites",
		Method:   "ListFavorites",
		Title:    "List Favorites",
		Category: "favorites",
		Description: `List favorite tools in the order they were added.

USE WHEN: User asks "what did I save", "show my favorites".

NOT FOR: Filtering favorites by access or search (use toolkit_query_tools with category=favorites).

RETURNS: Favorite tools, count, and ids no longer present in the catalog.`,
		ReadOnly:   true,
		Idempotent: true,
	},

	// ==========================================================================
	// PREFERENCE TOOLS
	// ==========================================================================
	{
		Name:     "toolkit_get_theme",
		Method:   "GetTheme",
		Title:    "Get Theme",
		Category: "preferences",
		Description: `Resolve the dark/light theme: a stored choice wins, then the system preference, then light.

PARAMETERS:
- prefers_dark: System dark-mode preference (optional)

RETURNS: theme, dark flag and source (stored, system or default).`,
		ReadOnly:   true,
		Idempotent: true,
	},
	{
		Name:     "toolkit_set_theme",
		Method:   "SetTheme",
		Title:    "Set Theme",
		Category: "preferences",
		Description: `Store the theme choice.

USE WHEN: User says "switch to dark mode", "turn off dark mode", "toggle theme".

PARAMETERS:
- theme: dark, light or toggle (required)
- prefers_dark: System preference used by toggle when nothing is stored (optional)

RETURNS: The stored theme.`,
	},

	// ==========================================================================
	// SHARING AND LINK TOOLS
	// ==========================================================================
	{
		Name:     "toolkit_share_tool",
		Method:   "ShareTool",
		Title:    "Share Tool",
		Category: "share",
		Description: `Build a share message for a tool, optionally copying its link to the clipboard.

USE WHEN: User says "share 剪映 with my colleagues", "copy the link to kimi".

PARAMETERS:
- id: Tool id (required)
- copy: Copy the URL to the host clipboard (default false, best effort)

RETURNS: title, text, url, a web share intent URL, and whether the copy succeeded.`,
		ReadOnly:   true,
		Idempotent: true,
	},
	{
		Name:     "toolkit_check_links",
		Method:   "CheckLinks",
		Title:    "Check Tool Links",
		Category: "links",
		Description: `Check whether tool websites respond.

USE WHEN: User asks "are these links still working", "is Runway reachable".

PARAMETERS:
- ids: Tool ids (max 20)
- category: Category to check when ids is empty (first 20 tools)
- timeout_seconds: Timeout for the whole check (default 10, max 60)

RETURNS: Per-tool status (ok or broken), HTTP status code, latency and error. Results are cached for 10 minutes.

NOTE: Reachability is tested from the server's network, which may differ from the user's.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
}

// ToolsByCategory returns the specs in category, in declaration order.
func ToolsByCategory(category string) []ToolSpec {
	var out []ToolSpec
	for _, spec := range AllTools {
		if spec.Category == category {
			out = append(out, spec)
		}
	}
	return out
}
