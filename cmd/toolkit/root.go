package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/catalog"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/prefs"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/toolkit"
)

type cliOptions struct {
	storePath   string
	profile     string
	catalogFile string
	prefersDark string
	jsonOutput  bool
	debug       bool

	// open builds the service; tests replace it.
	open func(*cliOptions) (*toolkit.Service, error)
}

func newRootCommand() *cobra.Command {
	opts := &cliOptions{
		profile:     prefs.DefaultProfile,
		storePath:   os.Getenv("TOOLKIT_STORE"),
		catalogFile: os.Getenv("TOOLKIT_CATALOG_FILE"),
		prefersDark: os.Getenv("TOOLKIT_PREFERS_DARK"),
		open:        openService,
	}
	return buildRootCommand(opts)
}

func buildRootCommand(opts *cliOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "toolkit",
		Short:         "Browse the teacher toolkit directory",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.storePath, "store", opts.storePath, "preference database path (default: <user config dir>/teacher-toolkit/prefs.db)")
	root.PersistentFlags().StringVar(&opts.profile, "profile", opts.profile, "preference profile")
	root.PersistentFlags().StringVar(&opts.catalogFile, "catalog-file", opts.catalogFile, "YAML catalog to load instead of the embedded one")
	root.PersistentFlags().StringVar(&opts.prefersDark, "prefers-dark", opts.prefersDark, "operating-system dark-mode signal (true/false)")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output JSON")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "log debug output to stderr")

	root.AddCommand(
		newListCmd(opts),
		newShowCmd(opts),
		newCategoriesCmd(opts),
		newFavoriteCmd(opts),
		newFavoritesCmd(opts),
		newThemeCmd(opts),
		newShareCmd(opts),
		newCheckLinksCmd(opts),
	)
	return root
}

// withService opens the service for one command and closes it after fn,
// releasing the store lock even when fn fails.
func (o *cliOptions) withService(fn func(*toolkit.Service) error) (err error) {
	s, err := o.open(o)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(s)
}

func (o *cliOptions) logger() *slog.Logger {
	if !o.debug {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func (o *cliOptions) darkSignal() (*bool, error) {
	if o.prefersDark == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(o.prefersDark)
	if err != nil {
		return nil, fmt.Errorf("--prefers-dark must be true or false, got %q", o.prefersDark)
	}
	return &v, nil
}

func openService(o *cliOptions) (*toolkit.Service, error) {
	var (
		cat *catalog.Catalog
		err error
	)
	if o.catalogFile != "" {
		cat, err = catalog.LoadFile(o.catalogFile)
	} else {
		cat, err = catalog.Default()
	}
	if err != nil {
		return nil, err
	}

	path := o.storePath
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("no --store given and no user config dir: %w", err)
		}
		path = filepath.Join(dir, "teacher-toolkit", "prefs.db")
	}
	store, err := prefs.OpenBoltStore(path, o.profile)
	if err != nil {
		return nil, err
	}

	dark, err := o.darkSignal()
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return toolkit.New(cat, store, o.logger(), toolkit.Options{
		PrefersDark: dark,
		LinkTimeout: 10 * time.Second,
	}), nil
}
