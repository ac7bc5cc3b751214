package evals

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SurfaceFromTools reads argument names from each tool's input schema.
func SurfaceFromTools(tools []*mcp.Tool) (ToolSurface, error) {
	surface := make(ToolSurface, len(tools))
	for _, tool := range tools {
		data, err := json.Marshal(tool.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("%s: encoding input schema: %w", tool.Name, err)
		}
		var schema struct {
			Properties map[string]json.RawMessage `json:"properties"`
		}
		if err := json.Unmarshal(data, &schema); err != nil {
			return nil, fmt.Errorf("%s: decoding input schema: %w", tool.Name, err)
		}
		args := make([]string, 0, len(schema.Properties))
		for name := range schema.Properties {
			args = append(args, name)
		}
		sort.Strings(args)
		surface[tool.Name] = args
	}
	return surface, nil
}
