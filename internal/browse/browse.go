// Package browse keeps per-session filter state for clients that drive the
// directory one action at a time, the way a person clicks through tabs,
// chips and pager buttons.
package browse

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/catalog"
	apierrors "github.com/olgasafonova/teacher-toolkit-mcp-server/internal/errors"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/infra"
)

// Action names a user interaction.
type Action string

const (
	ActionSelectCategory    Action = "select_category"
	ActionSelectSubcategory Action = "select_subcategory"
	ActionSetAccess         Action = "set_access"
	ActionSearch            Action = "search"
	ActionTag               Action = "tag"
	ActionNextPage          Action = "next_page"
	ActionPrevPage          Action = "prev_page"
	ActionGotoPage          Action = "goto_page"
	ActionClear             Action = "clear"
	ActionRefresh           Action = "refresh"
)

// Actions lists every supported action.
var Actions = []Action{
	ActionSelectCategory, ActionSelectSubcategory, ActionSetAccess, ActionSearch, ActionTag,
	ActionNextPage, ActionPrevPage, ActionGotoPage, ActionClear, ActionRefresh,
}

const (
	// DefaultSessionTTL is how long an idle session is kept.
	DefaultSessionTTL = 30 * time.Minute
	// DefaultMaxSessions bounds the number of live sessions.
	DefaultMaxSessions = 256
	// DefaultSession is used when the caller names none.
	DefaultSession = "default"

	// EmptyMessage is shown when a view has no results.
	EmptyMessage = "此分类或筛选条件下暂无内容"
)

// FavoriteSource supplies the current favorite set.
type FavoriteSource interface {
	Set() (catalog.IDSet, error)
}

// Item is a record as shown on a card.
type Item struct {
	catalog.ToolRecord
	IsFavorite bool `json:"is_favorite"`
}

// Tab is a selectable category or subcategory chip.
type Tab struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	Count  int    `json:"count,omitempty"`
	Active bool   `json:"active"`
}

// View is everything a client needs to render the current screen.
type View struct {
	Session       string `json:"session"`
	Category      string `json:"category"`
	Subcategory   string `json:"subcategory,omitempty"`
	Access        string `json:"access"`
	Search        string `json:"search,omitempty"`
	Items         []Item `json:"items"`
	Page          int    `json:"page"`
	TotalPages    int    `json:"total_pages"`
	TotalResults  int    `json:"total_results"`
	HasPrev       bool   `json:"has_prev"`
	HasNext       bool   `json:"has_next"`
	Empty         bool   `json:"empty"`
	EmptyMessage  string `json:"empty_message,omitempty"`
	Tabs          []Tab  `json:"tabs"`
	Subcategories []Tab  `json:"subcategories,omitempty"`
}

// Sessions holds one FilterState per session id.
type Sessions struct {
	mu        sync.Mutex
	catalog   *catalog.Catalog
	favorites FavoriteSource
	pageSize  int
	ttl       time.Duration
	states    *infra.Cache[catalog.FilterState]
}

// Option configures Sessions.
type Option func(*Sessions)

// WithPageSize sets the page size. Non-positive values use the default.
func WithPageSize(n int) Option {
	return func(s *Sessions) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithSessionLimits sets the idle TTL and the session cap.
func WithSessionLimits(ttl time.Duration, maxSessions int) Option {
	return func(s *Sessions) {
		if ttl > 0 {
			s.ttl = ttl
		}
		s.states.Close()
		s.states = infra.NewCache[catalog.FilterState](maxSessions)
	}
}

// New creates an empty session table over cat.
func New(cat *catalog.Catalog, favorites FavoriteSource, opts ...Option) *Sessions {
	s := &Sessions{
		catalog:   cat,
		favorites: favorites,
		pageSize:  catalog.DefaultPageSize,
		ttl:       DefaultSessionTTL,
		states:    infra.NewCache[catalog.FilterState](DefaultMaxSessions),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close stops background work.
func (s *Sessions) Close() {
	s.states.Close()
}

// Len returns the number of stored sessions.
func (s *Sessions) Len() int {
	return s.states.Len()
}

// Reset forgets a session.
func (s *Sessions) Reset(session string) {
	s.states.Delete(sessionKey(session))
}

// Apply performs action with value on session and returns the new view.
// Unknown sessions start from the initial state.
func (s *Sessions) Apply(session string, action Action, value string) (View, error) {
	session = sessionKey(session)

	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states.Get(session)
	if !ok {
		state = catalog.NewFilterState()
	}

	favs, err := s.favorites.Set()
	if err != nil {
		return View{}, fmt.Errorf("load favorites: %w", err)
	}
	state = state.WithFavorites(favs)

	state, err = s.transition(state, action, value)
	if err != nil {
		return View{}, err
	}

	res := s.catalog.Query(state, s.pageSize)
	if clamped := state.Clamped(res.TotalPages); clamped.Page != state.Page {
		state = clamped
		res = s.catalog.Query(state, s.pageSize)
	}

	s.states.Set(session, state, s.ttl)
	return s.view(session, state, res), nil
}

func (s *Sessions) transition(state catalog.FilterState, action Action, value string) (catalog.FilterState, error) {
	switch action {
	case ActionSelectCategory:
		sel := catalog.ParseCategorySelector(value)
		if name, ok := sel.Name(); ok && !s.catalog.HasCategory(name) {
			return state, apierrors.NewValidationError("value", value, "unknown category")
		}
		return state.WithCategory(sel), nil

	case ActionSelectSubcategory:
		sub := catalog.ParseSubcategory(value)
		name, ok := state.Category.Name()
		if !ok || !s.catalog.HasSubcategories(name) {
			return state, apierrors.NewValidationError("value", value, "the selected category has no subcategories")
		}
		if sub != catalog.SubcategoryAll && !slices.Contains(s.catalog.Subcategories(name), sub) {
			return state, apierrors.NewValidationError("value", value, "unknown subcategory of "+name)
		}
		return state.WithSubcategory(sub), nil

	case ActionSetAccess:
		access, err := catalog.ParseAccessFilter(value)
		if err != nil {
			return state, err
		}
		return state.WithAccess(access), nil

	case ActionSearch:
		return state.WithSearch(value), nil

	case ActionTag:
		return state.WithTag(value), nil

	case ActionNextPage:
		return state.NextPage(s.catalog.Query(state, s.pageSize).TotalPages), nil

	case ActionPrevPage:
		return state.PrevPage(), nil

	case ActionGotoPage:
		page, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return state, apierrors.NewValidationError("value", value, "page must be a number")
		}
		return state.WithPage(page, s.catalog.Query(state, s.pageSize).TotalPages), nil

	case ActionClear:
		return state.Cleared(), nil

	case ActionRefresh, "":
		return state, nil
	}
	return state, apierrors.NewValidationError("action", string(action), "unknown action")
}

func (s *Sessions) view(session string, state catalog.FilterState, res catalog.Result) View {
	items := make([]Item, len(res.Items))
	for i, r := range res.Items {
		items[i] = Item{ToolRecord: r, IsFavorite: state.Favorites.Has(r.ID)}
	}

	v := View{
		Session:      session,
		Category:     state.Category.String(),
		Subcategory:  state.Subcategory,
		Access:       state.Access.String(),
		Search:       state.Search,
		Items:        items,
		Page:         state.Page,
		TotalPages:   res.TotalPages,
		TotalResults: res.TotalResults,
		HasPrev:      state.Page > 1,
		HasNext:      state.Page < res.TotalPages,
		Empty:        res.Empty(),
		Tabs:         s.tabs(state),
	}
	if v.Empty {
		v.EmptyMessage = EmptyMessage
	}
	if name, ok := state.Category.Name(); ok && s.catalog.HasSubcategories(name) {
		v.Subcategories = subcategoryTabs(s.catalog.Subcategories(name), state.Subcategory)
	}
	return v
}

// tabs lists the favorites tab first, then all, then each category.
func (s *Sessions) tabs(state catalog.FilterState) []Tab {
	favCount := 0
	for id := range state.Favorites {
		if s.catalog.Has(id) {
			favCount++
		}
	}
	counts := s.catalog.CategoryCounts()

	tabs := []Tab{
		{Label: catalog.CategoryFavoritesLabel, Value: catalog.CategoryFavoritesWord, Count: favCount, Active: state.Category.IsFavorites()},
		{Label: catalog.CategoryAllLabel, Value: catalog.CategoryAllWord, Count: s.catalog.Len(), Active: state.Category.IsAll()},
	}
	current, _ := state.Category.Name()
	for _, name := range s.catalog.Categories() {
		tabs = append(tabs, Tab{
			Label:  name,
			Value:  catalog.Named(name).String(),
			Count:  counts[name],
			Active: current == name,
		})
	}
	return tabs
}

func subcategoryTabs(subs []string, active string) []Tab {
	tabs := make([]Tab, 0, len(subs)+1)
	tabs = append(tabs, Tab{Label: catalog.CategoryAllLabel, Value: catalog.CategoryAllWord, Active: active == catalog.SubcategoryAll})
	for _, sub := range subs {
		tabs = append(tabs, Tab{Label: sub, Value: sub, Active: active == sub})
	}
	return tabs
}

func sessionKey(session string) string {
	session = strings.TrimSpace(session)
	if session == "" {
		return DefaultSession
	}
	return session
}
