package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPath is the manifest database location relative to the home directory
const DefaultPath = ".chunklink/builds.db"

// ResolvePath expands a leading ~/ and places the default path (or an empty
// one) under the home directory. ":memory:" is returned unchanged.
func ResolvePath(dbPath string) (string, error) {
	if dbPath == ":memory:" {
		return dbPath, nil
	}
	if dbPath == "" {
		dbPath = DefaultPath
	}
	if dbPath == DefaultPath || strings.HasPrefix(dbPath, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(dbPath, "~/")), nil
	}
	return dbPath, nil
}

// Open resolves dbPath, creates its directory and opens the store
func Open(dbPath string) (*SQLiteStorage, error) {
	path, err := ResolvePath(dbPath)
	if err != nil {
		return nil, err
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	return NewSQLiteStorage(path)
}
