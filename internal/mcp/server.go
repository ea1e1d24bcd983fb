package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/dshills/chunklink/internal/bundler"
	"github.com/dshills/chunklink/internal/loader"
	"github.com/dshills/chunklink/internal/options"
	"github.com/dshills/chunklink/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "chunklink"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Config holds the server's dependencies
type Config struct {
	// DBPath is the manifest database file; empty means ~/.chunklink/builds.db
	DBPath string
	// Env is the environment override layer applied to every build
	Env    options.Overrides
	Logger *zap.Logger
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp     *server.MCPServer
	storage storage.Storage
	bundler *bundler.Bundler
	env     options.Overrides
	logger  *zap.Logger

	// lock rejects a second plan_chunks call while one is running
	lock loader.BuildLock
}

// NewServer creates a new MCP server instance
func NewServer(cfg Config) (*Server, error) {
	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return newServer(store, cfg), nil
}

// newServer wires a server around an open store
func newServer(store storage.Storage, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		mcp:     server.NewMCPServer(ServerName, ServerVersion, server.WithToolCapabilities(false)),
		storage: store,
		bundler: bundler.New(logger),
		env:     cfg.Env,
		logger:  logger,
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.storage.Close() }()
	s.logger.Info("serving MCP on stdio", zap.String("name", ServerName), zap.String("version", ServerVersion))
	return server.ServeStdio(s.mcp)
}

// Close releases the manifest store
func (s *Server) Close() error {
	return s.storage.Close()
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(planChunksTool(), s.handlePlanChunks)
	s.mcp.AddTool(getBuildTool(), s.handleGetBuild)
	s.mcp.AddTool(listBuildsTool(), s.handleListBuilds)
	s.mcp.AddTool(deleteBuildTool(), s.handleDeleteBuild)
}
