// Package mcp implements the Model Context Protocol (MCP) server for chunklink.
//
// The MCP server exposes four tools to MCP clients:
//   - plan_chunks: Allocate a module graph into chunks and link it
//   - get_build: Fetch a stored build manifest
//   - list_builds: List stored builds, most recent first
//   - delete_build: Remove a stored build manifest
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server is started via the serve command:
//
//	chunklink serve --db ~/.chunklink/builds.db
//
// Logs go to stderr; stdout carries protocol messages only.
//
// # Tool: plan_chunks
//
//	Request:
//	{
//	  "name": "plan_chunks",
//	  "arguments": {
//	    "graph_path": "/path/to/graph",
//	    "config_path": "chunklink.yaml",
//	    "persist": true
//	  }
//	}
//
//	Response:
//	{
//	  "build_id": "5f0c…",
//	  "modules": 4,
//	  "chunks": [
//	    {"name": "shared", "kind": "shared", "modules": ["src/shared.js"], ...},
//	    {"name": "main", "kind": "entry", "dependencies": ["shared"], ...}
//	  ],
//	  "diagnostics": [
//	    {"level": "warn", "code": "UNRESOLVED_IMPORT", "message": "..."}
//	  ]
//	}
//
// Only one build runs at a time. A second plan_chunks call made while a
// build is running fails immediately with code -32002 instead of queueing.
// A build that aborts with a fatal error returns -32004 with the error
// code in the error data, and nothing is stored.
//
// # Tool: get_build
//
//	{"name": "get_build", "arguments": {"build_id": "5f0c…"}}
//
// Returns the stored chunk plan, including every resolved binding.
//
// # Tool: list_builds
//
//	{"name": "list_builds", "arguments": {"limit": 20}}
//
// # Error Codes
//
//	-32602  invalid parameters
//	-32603  internal error
//	-32001  graph_path missing or not a directory
//	-32002  build in progress
//	-32003  build not found
//	-32004  build failed
package mcp
