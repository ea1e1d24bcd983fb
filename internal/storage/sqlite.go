package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Single writer; also keeps an in-memory database on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Cascading deletes depend on foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Build operations

// SaveBuild stores a build and its full chunk plan in one transaction
func (s *SQLiteStorage) SaveBuild(ctx context.Context, build *Build) error {
	if build.ID == "" {
		return errors.New("build id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.saveBuildWithQuerier(ctx, tx, build); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit build %s: %w", build.ID, err)
	}
	return nil
}

// saveBuildWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) saveBuildWithQuerier(ctx context.Context, q querier, build *Build) error {
	var exists int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM builds WHERE id = ?", build.ID).Scan(&exists)
	if err == nil {
		return fmt.Errorf("build %s: %w", build.ID, ErrAlreadyExists)
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to check build: %w", err)
	}

	if build.CreatedAt.IsZero() {
		build.CreatedAt = time.Now()
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO builds (id, graph_dir, module_count, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, build.ID, build.GraphDir, build.ModuleCount, build.Duration.Milliseconds(), build.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert build: %w", err)
	}

	for _, chunk := range build.Chunks {
		chunk.BuildID = build.ID
		if err := s.insertChunkWithQuerier(ctx, q, chunk); err != nil {
			return err
		}
	}

	for i, d := range build.Diagnostics {
		_, err := q.ExecContext(ctx, `
			INSERT INTO diagnostics (build_id, position, level, code, message)
			VALUES (?, ?, ?, ?, ?)
		`, build.ID, i, d.Level, nullString(d.Code), d.Message)
		if err != nil {
			return fmt.Errorf("failed to insert diagnostic: %w", err)
		}
	}

	return nil
}

// insertChunkWithQuerier stores one chunk with its modules and bindings
func (s *SQLiteStorage) insertChunkWithQuerier(ctx context.Context, q querier, chunk *Chunk) error {
	entries, err := encodeList(chunk.Entries)
	if err != nil {
		return err
	}
	deps, err := encodeList(chunk.Dependencies)
	if err != nil {
		return err
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO chunks (build_id, position, name, kind, facade_of, entries, dependencies)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, chunk.BuildID, chunk.Position, chunk.Name, chunk.Kind, nullString(chunk.FacadeOf), entries, deps)
	if err != nil {
		return fmt.Errorf("failed to insert chunk %s: %w", chunk.Name, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	chunk.ID = id

	for i, module := range chunk.Modules {
		_, err := q.ExecContext(ctx,
			"INSERT INTO chunk_modules (chunk_id, position, module_id) VALUES (?, ?, ?)",
			id, i, module)
		if err != nil {
			return fmt.Errorf("failed to insert module %s: %w", module, err)
		}
	}

	for i, b := range chunk.Bindings {
		_, err := q.ExecContext(ctx, `
			INSERT INTO bindings (chunk_id, position, module_id, local_name, imported, kind,
			                      producer_chunk, symbol, external, wrapper)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, id, i, b.Module, nullString(b.Local), b.Imported, b.Kind,
			nullString(b.ProducerChunk), nullString(b.Symbol), nullString(b.External), nullString(b.Wrapper))
		if err != nil {
			return fmt.Errorf("failed to insert binding: %w", err)
		}
	}

	return nil
}

// GetBuild retrieves a build with its chunks, bindings and diagnostics
func (s *SQLiteStorage) GetBuild(ctx context.Context, buildID string) (*Build, error) {
	return s.getBuildWithQuerier(ctx, s.db, buildID)
}

// getBuildWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getBuildWithQuerier(ctx context.Context, q querier, buildID string) (*Build, error) {
	var build Build
	var durationMS int64
	err := q.QueryRowContext(ctx, `
		SELECT id, graph_dir, module_count, duration_ms, created_at
		FROM builds
		WHERE id = ?
	`, buildID).Scan(&build.ID, &build.GraphDir, &build.ModuleCount, &durationMS, &build.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get build: %w", err)
	}
	build.Duration = time.Duration(durationMS) * time.Millisecond

	chunks, err := s.chunksWithQuerier(ctx, q, buildID)
	if err != nil {
		return nil, err
	}
	for _, chunk := range chunks {
		if chunk.Modules, err = s.modulesWithQuerier(ctx, q, chunk.ID); err != nil {
			return nil, err
		}
		if chunk.Bindings, err = s.bindingsWithQuerier(ctx, q, chunk.ID); err != nil {
			return nil, err
		}
	}
	build.Chunks = chunks

	if build.Diagnostics, err = s.diagnosticsWithQuerier(ctx, q, buildID); err != nil {
		return nil, err
	}

	return &build, nil
}

func (s *SQLiteStorage) chunksWithQuerier(ctx context.Context, q querier, buildID string) ([]*Chunk, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, build_id, position, name, kind, facade_of, entries, dependencies
		FROM chunks
		WHERE build_id = ?
		ORDER BY position
	`, buildID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var chunks []*Chunk
	for rows.Next() {
		var c Chunk
		var facadeOf sql.NullString
		var entries, deps string
		if err := rows.Scan(&c.ID, &c.BuildID, &c.Position, &c.Name, &c.Kind, &facadeOf, &entries, &deps); err != nil {
			return nil, err
		}
		c.FacadeOf = facadeOf.String
		if c.Entries, err = decodeList(entries); err != nil {
			return nil, err
		}
		if c.Dependencies, err = decodeList(deps); err != nil {
			return nil, err
		}
		chunks = append(chunks, &c)
	}
	return chunks, rows.Err()
}

func (s *SQLiteStorage) modulesWithQuerier(ctx context.Context, q querier, chunkID int64) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT module_id FROM chunk_modules WHERE chunk_id = ? ORDER BY position", chunkID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk modules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var modules []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		modules = append(modules, id)
	}
	return modules, rows.Err()
}

func (s *SQLiteStorage) bindingsWithQuerier(ctx context.Context, q querier, chunkID int64) ([]*Binding, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT module_id, local_name, imported, kind, producer_chunk, symbol, external, wrapper
		FROM bindings
		WHERE chunk_id = ?
		ORDER BY position
	`, chunkID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bindings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var bindings []*Binding
	for rows.Next() {
		var b Binding
		var local, producer, symbol, external, wrapper sql.NullString
		if err := rows.Scan(&b.Module, &local, &b.Imported, &b.Kind, &producer, &symbol, &external, &wrapper); err != nil {
			return nil, err
		}
		b.Local = local.String
		b.ProducerChunk = producer.String
		b.Symbol = symbol.String
		b.External = external.String
		b.Wrapper = wrapper.String
		bindings = append(bindings, &b)
	}
	return bindings, rows.Err()
}

func (s *SQLiteStorage) diagnosticsWithQuerier(ctx context.Context, q querier, buildID string) ([]*Diagnostic, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT level, code, message FROM diagnostics WHERE build_id = ? ORDER BY position", buildID)
	if err != nil {
		return nil, fmt.Errorf("failed to query diagnostics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Diagnostic
	for rows.Next() {
		var d Diagnostic
		var code sql.NullString
		if err := rows.Scan(&d.Level, &code, &d.Message); err != nil {
			return nil, err
		}
		d.Code = code.String
		out = append(out, &d)
	}
	return out, rows.Err()
}

// ListBuilds returns the most recent builds first. A limit of zero or less
// returns every build.
func (s *SQLiteStorage) ListBuilds(ctx context.Context, limit int) ([]*BuildSummary, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.graph_dir, b.module_count, b.duration_ms, b.created_at,
		       (SELECT COUNT(*) FROM chunks c WHERE c.build_id = b.id),
		       (SELECT COUNT(*) FROM diagnostics d WHERE d.build_id = b.id AND d.level = 'warn')
		FROM builds b
		ORDER BY b.created_at DESC, b.rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var builds []*BuildSummary
	for rows.Next() {
		var b BuildSummary
		var durationMS int64
		if err := rows.Scan(&b.ID, &b.GraphDir, &b.ModuleCount, &durationMS, &b.CreatedAt,
			&b.ChunkCount, &b.WarningCount); err != nil {
			return nil, err
		}
		b.Duration = time.Duration(durationMS) * time.Millisecond
		builds = append(builds, &b)
	}
	return builds, rows.Err()
}

// DeleteBuild removes a build; chunks, bindings and diagnostics cascade
func (s *SQLiteStorage) DeleteBuild(ctx context.Context, buildID string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM builds WHERE id = ?", buildID)
	if err != nil {
		return fmt.Errorf("failed to delete build: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(data), nil
}

func decodeList(s string) ([]string, error) {
	var list []string
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return nil, fmt.Errorf("failed to decode list: %w", err)
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list, nil
}
