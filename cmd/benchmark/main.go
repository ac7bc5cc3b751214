package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/browse"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/catalog"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/prefs"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/toolkit"
)

const iterations = 10000

type scenario struct {
	name  string
	state catalog.FilterState
}

func scenarios() []scenario {
	base := catalog.NewFilterState()
	return []scenario{
		{"all tools, page 1", base},
		{"AI工具 / 对话模型", base.WithCategory(catalog.Named(catalog.AICategory)).WithSubcategory("对话模型")},
		{"direct only", base.WithAccess(catalog.AccessDirect)},
		{"search 视频", base.WithSearch("视频")},
		{"favorites", base.WithCategory(catalog.FavoritesView()).WithFavorites(catalog.NewIDSet("kimi", "canva", "suno"))},
		{"page past end", base.WithPage(99, 99)},
	}
}

// scaled repeats the records factor times with unique ids.
func scaled(records []catalog.ToolRecord, factor int) []catalog.ToolRecord {
	out := make([]catalog.ToolRecord, 0, len(records)*factor)
	for i := 0; i < factor; i++ {
		for _, r := range records {
			r.ID = fmt.Sprintf("%s-%d", r.ID, i)
			out = append(out, r)
		}
	}
	return out
}

// measureEngineLatency times the query pipeline per filter scenario.
func measureEngineLatency(cat *catalog.Catalog) {
	fmt.Println("=== Query Engine Latency ===")
	fmt.Println()

	for _, factor := range []int{1, 100} {
		records := scaled(cat.Records(), factor)
		fmt.Printf("%d records:\n", len(records))
		q := catalog.Query{Subcategories: cat, PageSize: catalog.DefaultPageSize}
		for _, sc := range scenarios() {
			start := time.Now()
			var res catalog.Result
			for i := 0; i < iterations; i++ {
				res = q.Run(records, sc.state)
			}
			per := time.Since(start) / iterations
			fmt.Printf("   %-22s %10v/op  (%d matched, %d pages)\n", sc.name, per, res.TotalResults, res.TotalPages)
		}
		fmt.Println()
	}
}

// measureCachePerformance compares a computed query with the cached repeat.
func measureCachePerformance(cat *catalog.Catalog, logger *slog.Logger) {
	fmt.Println("=== Query Cache Performance ===")
	fmt.Println()

	svc := toolkit.New(cat, prefs.NewMemoryStore(), logger, toolkit.Options{})
	defer svc.Close()
	ctx := context.Background()
	args := toolkit.QueryToolsArgs{Category: catalog.AICategory, Search: "AI"}

	start := time.Now()
	if _, err := svc.QueryToolsMCP(ctx, args); err != nil {
		fmt.Printf("   Error: %v\n", err)
		return
	}
	first := time.Since(start)

	start = time.Now()
	res, _ := svc.QueryToolsMCP(ctx, args)
	second := time.Since(start)

	fmt.Printf("   First call (computed): %v\n", first)
	fmt.Printf("   Second call (cached=%t): %v\n", res.Cached, second)
	if second > 0 {
		fmt.Printf("   Speedup: %.1fx faster\n", float64(first)/float64(second))
	}
	fmt.Println()
}

// measureBrowseThroughput walks every page of a session repeatedly.
func measureBrowseThroughput(cat *catalog.Catalog, logger *slog.Logger) {
	fmt.Println("=== Browse Session Throughput ===")
	fmt.Println()

	svc := toolkit.New(cat, prefs.NewMemoryStore(), logger, toolkit.Options{})
	defer svc.Close()
	sessions := svc.Sessions()

	const rounds = 1000
	actions := 0
	start := time.Now()
	for i := 0; i < rounds; i++ {
		sessions.Reset("bench")
		for {
			view, err := sessions.Apply("bench", browse.ActionNextPage, "")
			actions++
			if err != nil {
				fmt.Printf("   Error: %v\n", err)
				return
			}
			if !view.HasNext {
				break
			}
		}
	}
	elapsed := time.Since(start)
	fmt.Printf("   %d actions in %v (%v/action)\n", actions, elapsed, elapsed/time.Duration(actions))
	fmt.Println()
}

func main() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cat, err := catalog.Default()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load catalog: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("================================================")
	fmt.Println("   Teacher Toolkit MCP Server Benchmarks")
	fmt.Println("================================================")
	fmt.Println()

	measureEngineLatency(cat)
	measureCachePerformance(cat, logger)
	measureBrowseThroughput(cat, logger)

	fmt.Println("=== Summary ===")
	fmt.Printf("Catalog: %d tools in %d categories, page size %d\n",
		cat.Len(), len(cat.Categories()), catalog.DefaultPageSize)
}
