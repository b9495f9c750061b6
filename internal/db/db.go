// Package db opens the directory's SQLite store. All state lives in a
// single database file under the workspace's .sitedex directory.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const dbFile = "sitedex.db"

type Config struct {
	Workspace string
}

func dbPath(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, ".sitedex", dbFile)
}

// EnsureWorkspace creates the .sitedex state directory under the given
// workspace and returns its path.
func EnsureWorkspace(workspace string) (string, error) {
	path := filepath.Join(workspace, ".sitedex")
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", err
	}
	return path, nil
}

// Open opens the workspace database, creating the state directory if
// needed. Foreign key enforcement is enabled through the DSN.
func Open(cfg Config) (*sql.DB, error) {
	if _, err := EnsureWorkspace(cfg.Workspace); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=foreign_keys(1)", dbPath(cfg.Workspace))
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Path reports where the workspace database file lives.
func Path(workspace string) string {
	return dbPath(workspace)
}
