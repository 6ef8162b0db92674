package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// validSyncModes lists the allowed values for the synchronous pragma.
var validSyncModes = map[string]bool{
	"OFF":    true,
	"NORMAL": true,
	"FULL":   true,
	"EXTRA":  true, // SQLite also supports EXTRA
}

// OpenDBConnection establishes a connection to a SQLite database with specified options.
// baseDSN is the initial data source name (e.g., file path or ":memory:").
// enableWAL sets the journal_mode to WAL if true.
// syncPragma sets the synchronous pragma (e.g., "OFF", "NORMAL", "FULL", "EXTRA").
//
// The pool is pinned to a single connection: every statement, including the
// per-connection pragmas below, runs on the same SQLite handle, and an
// in-memory database stays the same database for the lifetime of the *sql.DB.
func OpenDBConnection(baseDSN string, enableWAL bool, syncPragma string) (*sql.DB, error) {
	var ucSyncPragma string
	if syncPragma != "" {
		ucSyncPragma = strings.ToUpper(syncPragma)
		if !validSyncModes[ucSyncPragma] {
			return nil, fmt.Errorf("invalid sync pragma value: %s. Must be one of OFF, NORMAL, FULL, EXTRA", syncPragma)
		}
	}

	db, err := sql.Open(driverName, baseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database with DSN '%s': %w", baseDSN, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Ping the database to ensure the connection is alive and the DSN is valid.
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database with DSN '%s': %w", baseDSN, err)
	}

	pragmas := []string{
		// Crucial for ON DELETE CASCADE on the junction table.
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	if enableWAL && !isMemoryDSN(baseDSN) {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	if ucSyncPragma != "" {
		pragmas = append(pragmas, "PRAGMA synchronous = "+ucSyncPragma)
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q for DSN '%s': %w", p, baseDSN, err)
		}
	}

	return db, nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.HasPrefix(dsn, "file::memory:") || strings.Contains(dsn, "mode=memory")
}
