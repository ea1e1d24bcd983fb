package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/dshills/chunklink/internal/bundler"
	"github.com/dshills/chunklink/internal/options"
	"github.com/dshills/chunklink/internal/storage"
	"github.com/dshills/chunklink/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams   = -32602 // Invalid method parameters
	ErrorCodeInternalError   = -32603 // Internal JSON-RPC error
	ErrorCodeGraphNotFound   = -32001 // graph_path is not a readable directory
	ErrorCodeBuildInProgress = -32002 // Another build is already running
	ErrorCodeBuildNotFound   = -32003 // No stored build with that id
	ErrorCodeBuildFailed     = -32004 // The build aborted with a fatal error
)

// handlePlanChunks handles the plan_chunks tool invocation
func (s *Server) handlePlanChunks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	graphPath, ok := args["graph_path"].(string)
	if !ok || graphPath == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "graph_path parameter is required", map[string]interface{}{
			"param":  "graph_path",
			"reason": "missing or empty",
		})
	}

	if err := validatePath(graphPath); err != nil {
		code := ErrorCodeInvalidParams
		if errors.Is(err, ErrPathNotFound) || errors.Is(err, ErrNotDirectory) {
			code = ErrorCodeGraphNotFound
		}
		return nil, newMCPError(code, "invalid graph_path", map[string]interface{}{
			"param":  "graph_path",
			"reason": err.Error(),
		})
	}

	in := options.Input{Env: s.env}

	if configPath := getStringDefault(args, "config_path", ""); configPath != "" {
		if !filepath.IsAbs(configPath) {
			configPath = filepath.Join(graphPath, configPath)
		}
		raw, err := options.LoadFile(configPath)
		if err != nil {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid config_path", map[string]interface{}{
				"param":  "config_path",
				"reason": err.Error(),
			})
		}
		in.File = raw
	}

	if input, ok := args["input"].([]interface{}); ok {
		for _, v := range input {
			id, ok := v.(string)
			if !ok || id == "" {
				return nil, newMCPError(ErrorCodeInvalidParams, "input entries must be non-empty strings", map[string]interface{}{
					"param": "input",
					"value": v,
				})
			}
			in.Flags.Input = append(in.Flags.Input, id)
		}
	}

	persist := getBoolDefault(args, "persist", true)

	if !s.lock.TryAcquire() {
		return nil, newMCPError(ErrorCodeBuildInProgress, "build in progress", nil)
	}
	defer s.lock.Release()

	res, err := s.bundler.Build(ctx, bundler.Request{GraphDir: graphPath, Input: in})
	if err != nil {
		data := map[string]interface{}{"error": err.Error()}
		if code := types.CodeOf(err); code != "" {
			data["code"] = code
		}
		return nil, newMCPError(ErrorCodeBuildFailed, "build failed", data)
	}

	if persist {
		if err := s.storage.SaveBuild(ctx, storage.FromResult(res)); err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to store build", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	s.logger.Info("build planned",
		zap.String("build_id", res.BuildID),
		zap.Int("chunks", len(res.Chunks.Chunks)),
		zap.Int("warnings", len(res.Warnings())),
		zap.Bool("persisted", persist))

	chunks := make([]map[string]interface{}, 0, len(res.Chunks.Chunks))
	for _, c := range res.Chunks.Chunks {
		chunks = append(chunks, chunkResponse(c))
	}

	response := map[string]interface{}{
		"build_id":    res.BuildID,
		"persisted":   persist,
		"modules":     res.Modules,
		"chunks":      chunks,
		"diagnostics": diagnosticsResponse(res),
		"duration_ms": res.Duration.Milliseconds(),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetBuild handles the get_build tool invocation
func (s *Server) handleGetBuild(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	buildID, err := requireBuildID(request)
	if err != nil {
		return nil, err
	}

	build, err := s.storage.GetBuild(ctx, buildID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeBuildNotFound, "build not found", map[string]interface{}{
			"build_id": buildID,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get build", map[string]interface{}{
			"error": err.Error(),
		})
	}

	chunks := make([]map[string]interface{}, 0, len(build.Chunks))
	for _, c := range build.Chunks {
		bindings := make([]map[string]interface{}, 0, len(c.Bindings))
		for _, b := range c.Bindings {
			binding := map[string]interface{}{
				"module":   b.Module,
				"local":    b.Local,
				"imported": b.Imported,
				"kind":     b.Kind,
			}
			setIfNotEmpty(binding, "producer_chunk", b.ProducerChunk)
			setIfNotEmpty(binding, "symbol", b.Symbol)
			setIfNotEmpty(binding, "external", b.External)
			setIfNotEmpty(binding, "wrapper", b.Wrapper)
			bindings = append(bindings, binding)
		}

		chunk := map[string]interface{}{
			"name":         c.Name,
			"kind":         c.Kind,
			"entries":      nonNil(c.Entries),
			"modules":      nonNil(c.Modules),
			"dependencies": nonNil(c.Dependencies),
			"bindings":     bindings,
		}
		setIfNotEmpty(chunk, "facade_of", c.FacadeOf)
		chunks = append(chunks, chunk)
	}

	diagnostics := make([]map[string]interface{}, 0, len(build.Diagnostics))
	for _, d := range build.Diagnostics {
		diagnostics = append(diagnostics, diagnosticResponse(d.Level, d.Code, d.Message))
	}

	response := map[string]interface{}{
		"build_id":     build.ID,
		"graph_dir":    build.GraphDir,
		"modules":      build.ModuleCount,
		"created_at":   build.CreatedAt.Format(time.RFC3339),
		"duration_ms":  build.Duration.Milliseconds(),
		"chunks":       chunks,
		"diagnostics":  diagnostics,
		"store_driver": storage.BuildMode,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListBuilds handles the list_builds tool invocation
func (s *Server) handleListBuilds(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok && request.Params.Arguments != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	limit := getIntDefault(args, "limit", 20)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	builds, err := s.storage.ListBuilds(ctx, limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list builds", map[string]interface{}{
			"error": err.Error(),
		})
	}

	list := make([]map[string]interface{}, 0, len(builds))
	for _, b := range builds {
		list = append(list, map[string]interface{}{
			"build_id":    b.ID,
			"graph_dir":   b.GraphDir,
			"modules":     b.ModuleCount,
			"chunks":      b.ChunkCount,
			"warnings":    b.WarningCount,
			"created_at":  b.CreatedAt.Format(time.RFC3339),
			"duration_ms": b.Duration.Milliseconds(),
		})
	}

	response := map[string]interface{}{
		"count":  len(list),
		"builds": list,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleDeleteBuild handles the delete_build tool invocation
func (s *Server) handleDeleteBuild(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	buildID, err := requireBuildID(request)
	if err != nil {
		return nil, err
	}

	err = s.storage.DeleteBuild(ctx, buildID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeBuildNotFound, "build not found", map[string]interface{}{
			"build_id": buildID,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to delete build", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"deleted":  true,
		"build_id": buildID,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

func requireBuildID(request mcp.CallToolRequest) (string, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return "", newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	buildID, ok := args["build_id"].(string)
	if !ok || buildID == "" {
		return "", newMCPError(ErrorCodeInvalidParams, "build_id parameter is required", map[string]interface{}{
			"param":  "build_id",
			"reason": "missing or empty",
		})
	}
	return buildID, nil
}

// chunkResponse renders a linked chunk
func chunkResponse(c *types.Chunk) map[string]interface{} {
	exports := make([]string, 0, len(c.Exports))
	for _, e := range c.Exports {
		exports = append(exports, e.Name)
	}

	imports := make(map[string][]string, len(c.Imports))
	for _, imp := range c.Imports {
		imports[imp.Chunk] = imp.Symbols
	}

	dynamic := make([]map[string]interface{}, 0, len(c.DynamicImports))
	for _, d := range c.DynamicImports {
		entry := map[string]interface{}{
			"module":    d.Module,
			"specifier": d.Specifier,
		}
		switch {
		case d.Inline:
			entry["inline"] = true
		case d.External != "":
			entry["external"] = d.External
		default:
			entry["chunk"] = d.Chunk
		}
		if d.Wrapper != nil {
			entry["wrapper"] = d.Wrapper.Name
		}
		dynamic = append(dynamic, entry)
	}

	wrappers := make([]string, 0, len(c.Wrappers))
	for _, w := range c.Wrappers {
		wrappers = append(wrappers, w.Name)
	}

	chunk := map[string]interface{}{
		"name":            c.Name,
		"kind":            string(c.Kind),
		"entries":         nonNil(c.Entries),
		"modules":         nonNil(c.Modules),
		"dependencies":    nonNil(c.Dependencies),
		"exports":         exports,
		"imports":         imports,
		"dynamic_imports": dynamic,
		"wrappers":        wrappers,
		"bindings":        len(c.Bindings),
	}
	setIfNotEmpty(chunk, "facade_of", c.FacadeOf)
	return chunk
}

func diagnosticsResponse(res *bundler.Result) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(res.Diagnostics))
	for _, d := range res.Diagnostics {
		out = append(out, diagnosticResponse(string(d.Level), d.Code, d.Message))
	}
	return out
}

func diagnosticResponse(level, code, message string) map[string]interface{} {
	d := map[string]interface{}{
		"level":   level,
		"message": message,
	}
	setIfNotEmpty(d, "code", code)
	return d
}

func setIfNotEmpty(m map[string]interface{}, key, value string) {
	if value != "" {
		m[key] = value
	}
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validatePath checks that a graph directory exists and is readable
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	if !info.IsDir() {
		return ErrNotDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
)
