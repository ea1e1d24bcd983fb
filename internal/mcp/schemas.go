package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// planChunksTool returns the tool definition for plan_chunks
func planChunksTool() mcp.Tool {
	return mcp.Tool{
		Name:        "plan_chunks",
		Description: "Allocate a module graph into chunks and link cross-chunk references",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"graph_path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to a directory of *.module.yaml / *.module.json manifests",
				},
				"config_path": map[string]interface{}{
					"type":        "string",
					"description": "Config file (YAML or HCL); relative paths resolve against graph_path",
				},
				"input": map[string]interface{}{
					"type":        "array",
					"description": "Entry module ids, overriding the config file's input",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"persist": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, store the build manifest for get_build and list_builds",
					"default":     true,
				},
			},
			Required: []string{"graph_path"},
		},
	}
}

// getBuildTool returns the tool definition for get_build
func getBuildTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_build",
		Description: "Fetch a stored build manifest with its chunks, bindings and diagnostics",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"build_id": map[string]interface{}{
					"type":        "string",
					"description": "Build id returned by plan_chunks",
				},
			},
			Required: []string{"build_id"},
		},
	}
}

// listBuildsTool returns the tool definition for list_builds
func listBuildsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_builds",
		Description: "List stored builds, most recent first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of builds to return (1-100)",
					"default":     20,
					"minimum":     1,
					"maximum":     100,
				},
			},
		},
	}
}

// deleteBuildTool returns the tool definition for delete_build
func deleteBuildTool() mcp.Tool {
	return mcp.Tool{
		Name:        "delete_build",
		Description: "Delete a stored build manifest",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"build_id": map[string]interface{}{
					"type":        "string",
					"description": "Build id to delete",
				},
			},
			Required: []string{"build_id"},
		},
	}
}
