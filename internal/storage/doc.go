// Package storage provides SQLite-based persistence for build manifests.
//
// A manifest is the outcome of one successful build: the chunk plan in
// emission order, each chunk's modules and resolved bindings, and the
// diagnostics delivered while building. Manifests let a long-running server
// answer questions about earlier builds without re-running them.
//
// # Database Schema
//
// Tables:
//   - schema_version: Applied migrations
//   - builds: Build id, graph directory, module count, duration
//   - chunks: One row per chunk (name, kind, entries, dependencies)
//   - chunk_modules: Module membership in execution order
//   - bindings: Resolved import bindings per chunk
//   - diagnostics: Delivered log events in delivery order
//
// Deleting a build cascades to every dependent row.
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("~/.chunklink/builds.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	res, err := bundler.New(logger).Build(ctx, req)
//	if err != nil {
//	    return err
//	}
//	if err := db.SaveBuild(ctx, storage.FromResult(res)); err != nil {
//	    return err
//	}
//
//	build, err := db.GetBuild(ctx, res.BuildID)
//
// SaveBuild writes the whole manifest in one transaction; a failure leaves
// no partial build behind.
//
// # Drivers
//
// The default build uses the pure Go driver (modernc.org/sqlite). Building
// with the sqlite_cgo tag switches to github.com/mattn/go-sqlite3.
//
// # Migrations
//
// Schema versions are semantic versions applied in order on open.
// RollbackMigration undoes the most recent one.
package storage
