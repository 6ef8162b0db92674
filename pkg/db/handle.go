package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/unowned-ai/moodlog/pkg/utils"
)

// Config describes how to open the moods database.
type Config struct {
	// Path is a file path or ":memory:". Empty means the platform default.
	Path string
	WAL  bool
	// Sync is the synchronous pragma: OFF, NORMAL, FULL or EXTRA.
	Sync string
}

// DefaultConfig returns the configuration used when no flags are given.
func DefaultConfig() Config {
	return Config{
		Path: utils.GetDefaultDBPathOnly(),
		WAL:  true,
		Sync: "FULL",
	}
}

// Open resolves cfg.Path, opens the database and bootstraps the schema.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	dsn := cfg.Path
	if !isMemoryDSN(dsn) {
		resolved, err := utils.ResolveAndEnsureDBPath(dsn)
		if err != nil {
			return nil, err
		}
		dsn = resolved
	}

	conn, err := OpenDBConnection(dsn, cfg.WAL, cfg.Sync)
	if err != nil {
		return nil, err
	}
	if err := Bootstrap(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize/upgrade database schema for '%s': %w", dsn, err)
	}
	slog.Debug("database ready", "path", dsn, "wal", cfg.WAL, "sync", cfg.Sync)
	return conn, nil
}

// Handle is a lazily opened, shared database connection. The first call to
// DB opens and bootstraps the store; callers arriving while that is in
// progress wait for it and receive the same *sql.DB. A failed open is not
// remembered, so a later call tries again.
type Handle struct {
	cfg Config

	mu sync.Mutex
	db *sql.DB
}

// NewHandle returns a Handle that will open cfg on first use.
func NewHandle(cfg Config) *Handle {
	return &Handle{cfg: cfg}
}

// DB returns the shared connection, opening it if needed.
func (h *Handle) DB(ctx context.Context) (*sql.DB, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.db != nil {
		return h.db, nil
	}
	conn, err := Open(ctx, h.cfg)
	if err != nil {
		return nil, err
	}
	h.db = conn
	return h.db, nil
}

// Path reports the configured database path.
func (h *Handle) Path() string {
	return h.cfg.Path
}

// Close checkpoints the WAL and closes the connection if it was opened.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.db == nil {
		return nil
	}
	if h.cfg.WAL {
		// TRUNCATE mode waits for transactions and writes the WAL back to the main DB.
		if _, err := h.db.Exec("PRAGMA wal_checkpoint(TRUNCATE);"); err != nil {
			slog.Warn("WAL checkpoint failed during close", "err", err)
		}
	}
	err := h.db.Close()
	h.db = nil
	return err
}
