package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/chunklink/internal/mcp"
	"github.com/dshills/chunklink/internal/options"
	"github.com/dshills/chunklink/internal/storage"
)

var serveDBPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve chunk planning tools over MCP (stdio)",
	Long: `Starts an MCP server on stdin/stdout exposing plan_chunks, get_build,
list_builds and delete_build. Logs are written to stderr.

The database path comes from --db, then CHUNKLINK_DB_PATH, then
~/.chunklink/builds.db.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveDBPath, "db", "", "Build manifest database")
}

func runServe(cmd *cobra.Command, args []string) error {
	env, err := options.FromEnv(envFiles...)
	if err != nil {
		return err
	}

	dbPath := serveDBPath
	if dbPath == "" && env.DBPath != nil {
		dbPath = *env.DBPath
	}

	logger.Info("chunklink MCP server starting",
		zap.String("version", version),
		zap.String("build_mode", storage.BuildMode),
		zap.String("driver", storage.DriverName))

	server, err := mcp.NewServer(mcp.Config{
		DBPath: dbPath,
		Env:    env,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		cancel()
		return nil
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}
