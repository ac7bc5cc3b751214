package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/browse"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/linkcheck"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/toolkit"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/metrics"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/tracing"
)

// HandlerRegistry provides type-safe tool registration by mapping
// tool names to their concrete handler implementations.
type HandlerRegistry struct {
	service *toolkit.Service
	logger  *slog.Logger
}

// NewHandlerRegistry creates a new handler registry.
func NewHandlerRegistry(service *toolkit.Service, logger *slog.Logger) *HandlerRegistry {
	return &HandlerRegistry{service: service, logger: logger}
}

// RegisterAll registers all tools with the MCP server.
func (h *HandlerRegistry) RegisterAll(server *mcp.Server) int {
	registered := 0
	for _, spec := range AllTools {
		if h.registerByName(server, spec) {
			registered++
		}
	}
	h.logger.Info("Registered all tools", "count", registered)
	return registered
}

// registerByName dispatches to the correct typed registration function.
func (h *HandlerRegistry) registerByName(server *mcp.Server, spec ToolSpec) bool {
	tool := h.buildTool(spec)
	s := h.service

	switch spec.Method {
	case "QueryTools":
		register(h, server, tool, spec, s.QueryToolsMCP)
	case "Browse":
		register(h, server, tool, spec, s.BrowseMCP)
	case "GetTool":
		register(h, server, tool, spec, s.GetToolMCP)
	case "ListCategories":
		register(h, server, tool, spec, s.ListCategoriesMCP)
	case "ToggleFavorite":
		register(h, server, tool, spec, s.ToggleFavoriteMCP)
	case "ListFavorites":
		register(h, server, tool, spec, s.ListFavoritesMCP)
	case "GetTheme":
		register(h, server, tool, spec, s.GetThemeMCP)
	case "SetTheme":
		register(h, server, tool, spec, s.SetThemeMCP)
	case "ShareTool":
		register(h, server, tool, spec, s.ShareToolMCP)
	case "CheckLinks":
		register(h, server, tool, spec, s.CheckLinksMCP)
	default:
		h.logger.Error("Unknown method, tool not registered", "method", spec.Method, "tool", spec.Name)
		return false
	}
	return true
}

// buildTool creates an mcp.Tool from a ToolSpec.
func (h *HandlerRegistry) buildTool(spec ToolSpec) *mcp.Tool {
	annotations := &mcp.ToolAnnotations{
		Title:          spec.Title,
		ReadOnlyHint:   spec.ReadOnly,
		IdempotentHint: spec.Idempotent,
	}
	// The protocol defaults DestructiveHint and OpenWorldHint to true.
	annotations.DestructiveHint = ptr(spec.Destructive)
	annotations.OpenWorldHint = ptr(spec.OpenWorld)

	return &mcp.Tool{
		Name:        spec.Name,
		Description: spec.Description,
		Annotations: annotations,
	}
}

// register is a generic helper that registers a tool with the MCP server.
// It wraps the service method with panic recovery, metrics, tracing, and logging.
func register[Args, Result any](
	h *HandlerRegistry,
	server *mcp.Server,
	tool *mcp.Tool,
	spec ToolSpec,
	method func(context.Context, Args) (Result, error),
) {
	mcp.AddTool(server, tool, wrap(h, spec, method))
}

// wrap builds the instrumented handler. A recovered panic is reported to the
// client as a tool error.
func wrap[Args, Result any](
	h *HandlerRegistry,
	spec ToolSpec,
	method func(context.Context, Args) (Result, error),
) mcp.ToolHandlerFor[Args, Result] {
	return func(ctx context.Context, req *mcp.CallToolRequest, args Args) (_ *mcp.CallToolResult, result Result, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logPanic(spec.Name, rec)
				var zero Result
				result, err = zero, fmt.Errorf("%s failed: internal error", spec.Name)
			}
		}()

		ctx, span := tracing.StartSpan(ctx, "mcp.tool."+spec.Name)
		defer span.End()

		tracing.AddToolAttributes(span, spec.Name, spec.Category)
		span.SetAttributes(attribute.Bool("mcp.tool.readonly", spec.ReadOnly))

		metrics.RequestInFlight.WithLabelValues(spec.Name).Inc()
		defer metrics.RequestInFlight.WithLabelValues(spec.Name).Dec()

		start := time.Now()
		result, err = method(ctx, args)
		duration := time.Since(start).Seconds()

		span.SetAttributes(attribute.Float64("mcp.tool.duration_seconds", duration))

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			metrics.RecordRequest(spec.Name, duration, false)
			h.logger.Warn("Tool failed", "tool", spec.Name, "error", err)
			var zero Result
			return nil, zero, fmt.Errorf("%s failed: %w", spec.Name, err)
		}

		span.SetStatus(codes.Ok, "")
		metrics.RecordRequest(spec.Name, duration, true)
		h.logExecution(spec, args, result)
		return nil, result, nil
	}
}

// logPanic records a panic recovered in a tool handler.
func (h *HandlerRegistry) logPanic(toolName string, rec any) {
	metrics.PanicsRecovered.WithLabelValues(toolName).Inc()
	h.logger.Error("Panic recovered",
		"tool", toolName,
		"panic", rec,
		"stack", string(debug.Stack()))
}

// logExecution logs tool execution details.
func (h *HandlerRegistry) logExecution(spec ToolSpec, args, result any) {
	attrs := []any{"tool", spec.Name, "category", spec.Category}

	switch a := args.(type) {
	case toolkit.QueryToolsArgs:
		attrs = append(attrs, "filter_category", a.Category, "access", a.Access, "search", a.Search, "page", a.Page)
	case toolkit.BrowseArgs:
		attrs = append(attrs, "session", a.Session, "action", a.Action, "value", a.Value)
	case toolkit.GetToolArgs:
		attrs = append(attrs, "id", a.ID)
	case toolkit.ToggleFavoriteArgs:
		attrs = append(attrs, "id", a.ID)
	case toolkit.SetThemeArgs:
		attrs = append(attrs, "theme", a.Theme)
	case toolkit.ShareToolArgs:
		attrs = append(attrs, "id", a.ID, "copy", a.Copy)
	case toolkit.CheckLinksArgs:
		attrs = append(attrs, "ids", len(a.IDs), "filter_category", a.Category)
	}

	switch r := result.(type) {
	case toolkit.QueryToolsResult:
		attrs = append(attrs, "results_count", len(r.Tools), "total_results", r.TotalResults, "cached", r.Cached)
	case browse.View:
		attrs = append(attrs, "results_count", len(r.Items), "total_results", r.TotalResults, "page", r.Page)
	case toolkit.ToggleFavoriteResult:
		attrs = append(attrs, "is_favorite", r.IsFavorite, "favorites", r.Count)
	case toolkit.ListFavoritesResult:
		attrs = append(attrs, "favorites", r.Count)
	case toolkit.ThemeResult:
		attrs = append(attrs, "resolved", r.Theme, "source", r.Source)
	case toolkit.ShareToolResult:
		attrs = append(attrs, "copied", r.Copied)
	case linkcheck.Report:
		attrs = append(attrs, "checked", r.Checked, "broken", r.Broken)
	}

	h.logger.Info("Tool executed", attrs...)
}
