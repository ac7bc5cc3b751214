// Teacher Toolkit MCP Server - A Model Context Protocol server for a curated
// directory of teaching tools, with favorites and a theme preference kept
// in a local preference store.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/olgasafonova/teacher-toolkit-mcp-server/config"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/catalog"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/prefs"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/toolkit"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/tools"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/tracing"
)

// recoverPanic logs a panic instead of letting it crash the process
func recoverPanic(logger *slog.Logger, operation string) {
	if r := recover(); r != nil {
		logger.Error("Panic recovered",
			"operation", operation,
			"panic", r,
			"stack", string(debug.Stack()))
	}
}

const (
	ServerName    = "teacher-toolkit-mcp-server"
	ServerVersion = "1.0.0"
)

const serverInstructions = `Teacher Toolkit MCP Server is a curated directory of online tools for teachers
(AI assistants, courseware, classroom interaction, resources, office tools).

Start with toolkit_query_tools for a one-shot filtered page, or toolkit_browse to
walk the directory step by step with a session that remembers filters and page.
Tools tagged 直连可用 open directly; 网络受限 tools may need a special network.

Favorites and the dark/light theme are stored locally per profile.`

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, config.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Configure logging to stderr (stdout is used for MCP protocol)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	shutdownTracing, err := tracing.Setup(ctx, tracing.DefaultConfig(ServerVersion))
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("Tracing shutdown failed", "error", err)
		}
	}()

	svc, err := buildService(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("Service close failed", "error", err)
		}
	}()

	server := newMCPServer(svc, logger)

	logger.Info("Starting Teacher Toolkit MCP Server",
		"name", ServerName,
		"version", ServerVersion,
		"tools", svc.Catalog().Len(),
		"page_size", svc.PageSize(),
		"http", cfg.HTTPAddr,
	)

	if cfg.HTTPAddr != "" {
		return serveHTTP(ctx, cfg, server, logger)
	}
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	return nil
}

// buildService loads the catalog, opens the preference store and wires the
// toolkit service.
func buildService(cfg *config.Config, logger *slog.Logger) (*toolkit.Service, error) {
	cat, err := loadCatalog(cfg.CatalogFile)
	if err != nil {
		return nil, err
	}

	storePath, err := cfg.ResolveStorePath()
	if err != nil {
		return nil, err
	}
	store, err := prefs.OpenBoltStore(storePath, cfg.Profile)
	if err != nil {
		return nil, fmt.Errorf("open preference store: %w", err)
	}
	logger.Debug("Preference store opened", "path", store.Path(), "profile", store.Profile())

	dark, err := cfg.DarkSignal()
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return toolkit.New(cat, store, logger, toolkit.Options{
		PageSize:    cfg.PageSize,
		PrefersDark: dark,
		LinkTimeout: cfg.LinkTimeout,
	}), nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		cat, err := catalog.Default()
		if err != nil {
			return nil, fmt.Errorf("load embedded catalog: %w", err)
		}
		return cat, nil
	}
	cat, err := catalog.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return cat, nil
}

func newMCPServer(svc *toolkit.Service, logger *slog.Logger) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, &mcp.ServerOptions{
		Logger:       logger,
		Instructions: serverInstructions,
	})
	tools.NewHandlerRegistry(svc, logger).RegisterAll(server)
	return server
}
