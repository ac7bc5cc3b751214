package catalog

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(records []ToolRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func scenarioRecords() []ToolRecord {
	return []ToolRecord{
		{ID: "a", Title: "Alpha", Category: "Design", Tags: []string{TagDirect}},
		{ID: "b", Title: "Beta", Category: "Design", Tags: []string{}, Featured: true},
	}
}

func TestComputeVisiblePage_Scenarios(t *testing.T) {
	records := scenarioRecords()

	tests := []struct {
		name      string
		state     FilterState
		pageSize  int
		wantIDs   []string
		wantPages int
	}{
		{
			name:      "featured first",
			state:     FilterState{Category: Named("Design"), Page: 1},
			pageSize:  9,
			wantIDs:   []string{"b", "a"},
			wantPages: 1,
		},
		{
			name:      "direct only",
			state:     FilterState{Category: Named("Design"), Access: AccessDirect, Page: 1},
			pageSize:  9,
			wantIDs:   []string{"a"},
			wantPages: 1,
		},
		{
			name:      "query longer than any field",
			state:     FilterState{Category: Named("Design"), Search: strings.Repeat("z", 64), Page: 1},
			pageSize:  9,
			wantIDs:   []string{},
			wantPages: 0,
		},
		{
			name:      "second page of size one",
			state:     FilterState{Category: Named("Design"), Page: 2},
			pageSize:  1,
			wantIDs:   []string{"a"},
			wantPages: 2,
		},
		{
			name:      "page past the end",
			state:     FilterState{Category: Named("Design"), Page: 5},
			pageSize:  1,
			wantIDs:   []string{},
			wantPages: 2,
		},
		{
			name:      "page zero is empty",
			state:     FilterState{Category: Named("Design"), Page: 0},
			pageSize:  9,
			wantIDs:   []string{},
			wantPages: 1,
		},
		{
			name:      "default page size",
			state:     FilterState{Page: 1},
			pageSize:  0,
			wantIDs:   []string{"b", "a"},
			wantPages: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, pages := ComputeVisiblePage(records, tt.state, tt.pageSize)
			assert.Equal(t, tt.wantIDs, ids(items))
			assert.Equal(t, tt.wantPages, pages)
		})
	}
}

func TestFilter_Gates(t *testing.T) {
	records := []ToolRecord{
		{ID: "chat", Title: "Chat Bot", Description: "talks", Category: AICategory, Subcategory: "对话模型", Tags: []string{TagDirect}},
		{ID: "video", Title: "Video Maker", Description: "renders clips", Category: AICategory, Subcategory: "视频生成", Tags: []string{TagRestricted}},
		{ID: "quiz", Title: "Quiz", Description: "Online EXAMS", Category: "教学互动", Subcategory: "对话模型", Tags: []string{"问卷", TagDirect}},
		{ID: "plain", Title: "Plain", Description: "nothing", Category: "资源素材"},
	}

	tests := []struct {
		name  string
		state FilterState
		want  []string
	}{
		{"all", FilterState{}, []string{"chat", "video", "quiz", "plain"}},
		{"named category", FilterState{Category: Named("教学互动")}, []string{"quiz"}},
		{"unknown category", FilterState{Category: Named("数学")}, []string{}},
		{"favorites view", FilterState{Category: FavoritesView(), Favorites: NewIDSet("plain", "video")}, []string{"video", "plain"}},
		{"favorites view with no favorites", FilterState{Category: FavoritesView()}, []string{}},
		{"subcategory under bearing category", FilterState{Category: Named(AICategory), Subcategory: "视频生成"}, []string{"video"}},
		{"subcategory ignored for other category", FilterState{Category: Named("教学互动"), Subcategory: "视频生成"}, []string{"quiz"}},
		{"subcategory ignored under all", FilterState{Subcategory: "视频生成"}, []string{"chat", "video", "quiz", "plain"}},
		{"subcategory ignored under favorites", FilterState{Category: FavoritesView(), Subcategory: "视频生成", Favorites: NewIDSet("chat")}, []string{"chat"}},
		{"direct", FilterState{Access: AccessDirect}, []string{"chat", "quiz"}},
		{"restricted", FilterState{Access: AccessRestricted}, []string{"video"}},
		{"search title case-insensitive", FilterState{Search: "chat bot"}, []string{"chat"}},
		{"search description", FilterState{Search: "exams"}, []string{"quiz"}},
		{"search tag", FilterState{Search: "问卷"}, []string{"quiz"}},
		{"search badge tag", FilterState{Search: TagRestricted}, []string{"video"}},
		{"gates combine", FilterState{Category: Named(AICategory), Access: AccessDirect, Search: "bot"}, []string{"chat"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(records, tt.state, nil)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilter_CustomSubcategoryPolicy(t *testing.T) {
	records := []ToolRecord{
		{ID: "a", Category: "课件制作", Subcategory: "模板"},
		{ID: "b", Category: "课件制作", Subcategory: "图标"},
	}
	state := FilterState{Category: Named("课件制作"), Subcategory: "模板"}

	assert.Equal(t, []string{"a", "b"}, ids(Filter(records, state, nil)))
	assert.Equal(t, []string{"a"}, ids(Filter(records, state, SubcategoryCategories{"课件制作"})))
}

func TestPartitionFeatured_Stable(t *testing.T) {
	records := []ToolRecord{
		{ID: "1"}, {ID: "2", Featured: true}, {ID: "3"}, {ID: "4", Featured: true}, {ID: "5"},
	}
	got := PartitionFeatured(records)
	assert.Equal(t, []string{"2", "4", "1", "3", "5"}, ids(got))
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(records), "input must not be reordered")
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		count, size, want int
	}{
		{0, 9, 0},
		{1, 9, 1},
		{9, 9, 1},
		{10, 9, 2},
		{27, 9, 3},
		{28, 9, 4},
		{5, 0, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.count, tt.size), func(t *testing.T) {
			assert.Equal(t, tt.want, TotalPages(tt.count, tt.size))
		})
	}
}

// randomFixture builds a deterministic record set and a batch of filter states.
func randomFixture(seed uint64) ([]ToolRecord, []FilterState) {
	rng := rand.New(rand.NewPCG(seed, seed*31+7))
	categories := []string{AICategory, "课件制作", "教学互动", "资源素材"}
	subs := []string{"对话模型", "视频生成", "数字人"}
	words := []string{"alpha", "Beta", "课件", "视频", "GAMMA", "quiz"}

	records := make([]ToolRecord, 60)
	for i := range records {
		cat := categories[rng.IntN(len(categories))]
		r := ToolRecord{
			ID:          fmt.Sprintf("t%02d", i),
			Title:       words[rng.IntN(len(words))] + fmt.Sprint(i),
			Description: words[rng.IntN(len(words))],
			Category:    cat,
			Featured:    rng.IntN(4) == 0,
		}
		if cat == AICategory {
			r.Subcategory = subs[rng.IntN(len(subs))]
		}
		switch rng.IntN(3) {
		case 0:
			r.Tags = []string{TagDirect, words[rng.IntN(len(words))]}
		case 1:
			r.Tags = []string{TagRestricted}
		}
		records[i] = r
	}

	selectors := []CategorySelector{AllCategories(), FavoritesView(), Named(AICategory), Named("课件制作"), Named("missing")}
	states := make([]FilterState, 200)
	for i := range states {
		favs := NewIDSet()
		for j := 0; j < rng.IntN(10); j++ {
			favs[records[rng.IntN(len(records))].ID] = struct{}{}
		}
		search := ""
		if rng.IntN(2) == 0 {
			search = strings.ToLower(words[rng.IntN(len(words))])
		}
		sub := SubcategoryAll
		if rng.IntN(2) == 0 {
			sub = subs[rng.IntN(len(subs))]
		}
		states[i] = FilterState{
			Category:    selectors[rng.IntN(len(selectors))],
			Subcategory: sub,
			Access:      AccessFilter(rng.IntN(3)),
			Search:      search,
			Favorites:   favs,
			Page:        1 + rng.IntN(4),
		}
	}
	return records, states
}

// wantVisible restates the four gates directly over the raw record fields.
func wantVisible(r ToolRecord, state FilterState) bool {
	name, named := state.Category.Name()
	switch {
	case state.Category.IsFavorites():
		if _, ok := state.Favorites[r.ID]; !ok {
			return false
		}
	case named && r.Category != name:
		return false
	}

	if named && name == AICategory && state.Subcategory != "" && r.Subcategory != state.Subcategory {
		return false
	}

	switch state.Access {
	case AccessDirect:
		if !slices.Contains(r.Tags, TagDirect) {
			return false
		}
	case AccessRestricted:
		if !slices.Contains(r.Tags, TagRestricted) {
			return false
		}
	}

	if state.Search == "" {
		return true
	}
	needle := strings.ToLower(state.Search)
	fields := append([]string{r.Title, r.Description}, r.Tags...)
	return slices.ContainsFunc(fields, func(f string) bool {
		return strings.Contains(strings.ToLower(f), needle)
	})
}

func TestWantVisible_AgreesWithMatches(t *testing.T) {
	records, states := randomFixture(7)
	for _, state := range states {
		for _, r := range records {
			if got, want := Matches(r, state, nil), wantVisible(r, state); got != want {
				t.Fatalf("Matches(%s, %+v) = %v, want %v", r.ID, state, got, want)
			}
		}
	}
}

func TestQuery_Properties(t *testing.T) {
	records, states := randomFixture(42)
	sizes := []int{1, 3, 9}

	for i, state := range states {
		size := sizes[i%len(sizes)]
		name := fmt.Sprintf("state%03d", i)
		t.Run(name, func(t *testing.T) {
			filtered := Filter(records, state, nil)

			// No false negatives: every visible record survives filtering.
			for _, r := range records {
				if wantVisible(r, state) {
					require.Contains(t, ids(filtered), r.ID)
				}
			}

			sorted := PartitionFeatured(filtered)
			total := TotalPages(len(sorted), size)
			require.Equal(t, (len(sorted)+size-1)/size, total)

			// Concatenating every page reproduces the sorted list exactly once.
			var all []ToolRecord
			for p := 1; p <= total; p++ {
				items, pages := ComputeVisiblePage(records, FilterState{
					Category: state.Category, Subcategory: state.Subcategory, Access: state.Access,
					Search: state.Search, Favorites: state.Favorites, Page: p,
				}, size)
				require.Equal(t, total, pages)
				// No false positives.
				for _, r := range items {
					require.True(t, wantVisible(r, state), "record %s is paged but filtered out", r.ID)
				}
				all = append(all, items...)
			}
			if diff := cmp.Diff(ids(sorted), ids(all)); diff != "" {
				t.Fatalf("pages mismatch (-want +got):\n%s", diff)
			}

			// Stable partition: relative source order holds inside each partition.
			featured, rest := []string{}, []string{}
			for _, r := range sorted {
				if r.Featured {
					featured = append(featured, r.ID)
				} else {
					rest = append(rest, r.ID)
				}
			}
			require.True(t, slices.IsSorted(featured))
			require.True(t, slices.IsSorted(rest))
			require.Equal(t, append(featured, rest...), ids(sorted))

			// Pure: same inputs, same outputs.
			first, n1 := ComputeVisiblePage(records, state, size)
			second, n2 := ComputeVisiblePage(records, state, size)
			require.Equal(t, n1, n2)
			if diff := cmp.Diff(first, second); diff != "" {
				t.Fatalf("not idempotent (-first +second):\n%s", diff)
			}
		})
	}
}

func TestQuery_Run(t *testing.T) {
	records := scenarioRecords()
	res := Query{PageSize: 1}.Run(records, FilterState{Page: 1})

	assert.Equal(t, []string{"b"}, ids(res.Items))
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 1, res.PageSize)
	assert.Equal(t, 2, res.TotalPages)
	assert.Equal(t, 2, res.TotalResults)
	assert.False(t, res.Empty())

	empty := Query{}.Run(records, FilterState{Search: "nothing here", Page: 1})
	assert.True(t, empty.Empty())
	assert.Equal(t, 0, empty.TotalPages)
	assert.Equal(t, DefaultPageSize, empty.PageSize)
	assert.Empty(t, empty.Items)
}
