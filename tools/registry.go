// Package tools provides a metadata-driven registry for MCP tool definitions.
// Tools are declared in AllTools and bound to service methods with
// type-safe handlers.
package tools

// ToolSpec defines a tool's metadata for declarative registration.
// Each spec maps to a toolkit service method with matching Args/Result types.
type ToolSpec struct {
	// Name is the MCP tool name (e.g., "toolkit_query_tools")
	Name string

	// Method is the service method name without the MCP suffix (e.g., "QueryTools")
	Method string

	// Description is the tool description shown to LLMs
	Description string

	// Title is the human-readable tool title for annotations
	Title string

	// Category groups tools logically (catalog, favorites, preferences, links)
	Category string

	// ReadOnly indicates the tool doesn't modify stored preferences
	ReadOnly bool

	// Destructive indicates the tool can delete or overwrite data
	Destructive bool

	// Idempotent indicates repeated calls have the same effect
	Idempotent bool

	// OpenWorld indicates the tool accesses external resources
	OpenWorld bool
}

// ptr is a helper to create a pointer to a value.
func ptr[T any](v T) *T {
	return &v
}
