// Package toolkit is the application service behind the MCP tools and the
// CLI: catalog queries, browse sessions, favorites, theme, sharing and link checks.
package toolkit

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/base"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/browse"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/catalog"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/infra"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/linkcheck"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/prefs"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/share"
)

const (
	// MaxPageSize bounds page_size on queries.
	MaxPageSize = 50

	// QueryCacheTTL is how long a computed page is reused. The catalog is
	// immutable for the life of the process, so this only bounds memory.
	QueryCacheTTL = time.Hour

	queryCacheName = "query"
)

// Options configures a Service.
type Options struct {
	// PageSize is the default page size. Zero means catalog.DefaultPageSize.
	PageSize int
	// PrefersDark is the host's dark-mode signal, nil when unknown.
	PrefersDark *bool
	// LinkTimeout bounds a link check batch.
	LinkTimeout time.Duration
	// Prober overrides the HTTP link prober.
	Prober linkcheck.Prober
	// Clipboard overrides the system clipboard writer.
	Clipboard share.Writer
}

// Service holds the directory and the user's preferences.
type Service struct {
	catalog     *catalog.Catalog
	store       prefs.Store
	favorites   *prefs.Favorites
	theme       *prefs.Theme
	sessions    *browse.Sessions
	sharer      *share.Sharer
	checker     *linkcheck.Checker
	queryCache  *infra.Cache[catalog.Result]
	probeClient *base.Client
	pageSize    int
	prefersDark *bool
	logger      *slog.Logger
}

// New wires a Service over cat and store.
func New(cat *catalog.Catalog, store prefs.Store, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = catalog.DefaultPageSize
	}

	favorites := prefs.NewFavorites(store, logger)
	s := &Service{
		catalog:     cat,
		store:       store,
		favorites:   favorites,
		theme:       prefs.NewTheme(store),
		sessions:    browse.New(cat, favorites, browse.WithPageSize(pageSize)),
		queryCache:  infra.NewCache[catalog.Result](infra.DefaultMaxCacheEntries),
		pageSize:    pageSize,
		prefersDark: opts.PrefersDark,
		logger:      logger,
	}

	if opts.Clipboard != nil {
		s.sharer = share.NewWithWriter(opts.Clipboard, logger)
	} else {
		s.sharer = share.New(logger)
	}

	prober := opts.Prober
	if prober == nil {
		s.probeClient = base.NewClient(base.WithLogger(logger))
		prober = s.probeClient
	}
	s.checker = linkcheck.New(prober, opts.LinkTimeout)
	return s
}

// Close stops background work and closes the store when it can be closed.
func (s *Service) Close() error {
	s.sessions.Close()
	s.queryCache.Close()
	if s.probeClient != nil {
		s.probeClient.Close()
	}
	if c, ok := s.store.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close preference store: %w", err)
		}
	}
	return nil
}

// Catalog returns the loaded catalog.
func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

// PageSize returns the default page size.
func (s *Service) PageSize() int { return s.pageSize }

// Favorites returns the favorite set.
func (s *Service) Favorites() *prefs.Favorites { return s.favorites }

// Sessions returns the browse session table.
func (s *Service) Sessions() *browse.Sessions { return s.sessions }

func (s *Service) item(r catalog.ToolRecord, favs catalog.IDSet) browse.Item {
	return browse.Item{ToolRecord: r, IsFavorite: favs.Has(r.ID)}
}

func (s *Service) items(records []catalog.ToolRecord, favs catalog.IDSet) []browse.Item {
	out := make([]browse.Item, len(records))
	for i, r := range records {
		out[i] = s.item(r, favs)
	}
	return out
}
