package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const memoryPath = ":memory:"

// Open opens the task database. An in-memory database is limited to one
// connection, since every sqlite connection would otherwise get its own.
func Open(databasePath string) (*sql.DB, error) {
	inMemory := databasePath == memoryPath || strings.Contains(databasePath, "mode=memory")
	if !inMemory {
		directory := filepath.Dir(databasePath)
		if err := os.MkdirAll(directory, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	database, err := sql.Open("sqlite", databasePath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if inMemory {
		database.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := database.Exec(pragma); err != nil {
			database.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}

	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return database, nil
}
