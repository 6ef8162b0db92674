package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

const (
	// TargetSchemaVersion is the highest schema version this version of the code supports for the moodsdb component.
	TargetSchemaVersion int64 = 3
	// MoodsDBComponent is the name for the main moods database component.
	MoodsDBComponent = "moodsdb"
)

// Querier is the subset of *sql.DB and *sql.Tx the schema helpers need.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetComponentSchemaVersion retrieves the schema version for a given component.
// Returns 0 if the component is not found, the versions table is uninitialized, or the table doesn't exist.
func GetComponentSchemaVersion(ctx context.Context, q Querier, componentName string) (int64, error) {
	var version int64
	err := q.QueryRowContext(ctx, `SELECT version FROM moodlog_versions WHERE component = ?`, componentName).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		if strings.Contains(err.Error(), "no such table") && strings.Contains(err.Error(), "moodlog_versions") {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to scan version for component '%s': %w", componentName, err)
	}
	return version, nil
}

// SetComponentSchemaVersion records version for componentName.
func SetComponentSchemaVersion(ctx context.Context, q Querier, componentName string, version int64) error {
	if _, err := q.ExecContext(ctx, createVersionsTable); err != nil {
		return fmt.Errorf("failed to create versions table: %w", err)
	}
	_, err := q.ExecContext(ctx, `
INSERT INTO moodlog_versions (component, version) VALUES (?, ?)
ON CONFLICT(component) DO UPDATE SET version = excluded.version, created_at = unixepoch()`,
		componentName, version)
	if err != nil {
		return fmt.Errorf("failed to insert/update version for component %s to %d: %w", componentName, version, err)
	}
	return nil
}

// TableColumns returns the column names of table in declaration order.
func TableColumns(ctx context.Context, q Querier, table string) ([]string, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid          int
			name, typ    string
			notNull, pk  int
			defaultValue any
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultValue, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns of %s: %w", table, err)
	}
	return columns, nil
}

// IndexNames returns the names of the explicitly created indexes on table.
func IndexNames(ctx context.Context, q Querier, table string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = ? AND sql IS NOT NULL ORDER BY name`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexes of %s: %w", table, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func tableExists(ctx context.Context, q Querier, table string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	return n > 0, nil
}

// Bootstrap brings the moodsdb component up to TargetSchemaVersion. It creates
// missing tables and indexes and adds missing columns; it never drops or
// rewrites existing data. The whole run is one transaction, so a failing
// statement leaves the store exactly as it was. Running it again is a no-op.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	return WithTx(ctx, db, func(tx *sql.Tx) error {
		current, err := GetComponentSchemaVersion(ctx, tx, MoodsDBComponent)
		if err != nil {
			return err
		}
		if current > TargetSchemaVersion {
			return fmt.Errorf("component %s has schema version %d, which is newer than application's target schema version %d. Please upgrade the application", MoodsDBComponent, current, TargetSchemaVersion)
		}

		if _, err := tx.ExecContext(ctx, createMoodsTable); err != nil {
			return fmt.Errorf("failed to create moods table: %w", err)
		}

		existing, err := TableColumns(ctx, tx, "moods")
		if err != nil {
			return err
		}
		have := make(map[string]bool, len(existing))
		for _, c := range existing {
			have[c] = true
		}
		for _, m := range moodColumnMigrations {
			if have[m.column] {
				continue
			}
			stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.table, m.column, m.definition)
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to add column %s.%s: %w", m.table, m.column, err)
			}
			have[m.column] = true
			slog.Info("schema migration applied", "table", m.table, "column", m.column)
		}

		catalogExisted, err := tableExists(ctx, tx, "emotions")
		if err != nil {
			return err
		}
		for _, stmt := range []string{createEmotionsTable, createMoodEmotionsTable, createIndexes} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to create catalog schema: %w", err)
			}
		}
		if catalogExisted {
			if err := migrateEmotionKeys(ctx, tx); err != nil {
				return err
			}
		} else {
			for _, e := range DefaultEmotions {
				if _, err := tx.ExecContext(ctx, seedEmotionStatement, e.Name, EmotionKey(e.Name), e.Category); err != nil {
					return fmt.Errorf("failed to seed emotion %q: %w", e.Name, err)
				}
			}
			slog.Debug("emotion catalog seeded", "count", len(DefaultEmotions))
		}

		if current != TargetSchemaVersion {
			if err := SetComponentSchemaVersion(ctx, tx, MoodsDBComponent, TargetSchemaVersion); err != nil {
				return err
			}
			slog.Info("schema version recorded", "component", MoodsDBComponent, "from", current, "to", TargetSchemaVersion)
		}
		return nil
	})
}

// migrateEmotionKeys adds and backfills emotions.name_key on a catalog created
// before the column existed. Rows whose names collide on the key are merged
// into the oldest one, with their entry links moved over.
func migrateEmotionKeys(ctx context.Context, tx *sql.Tx) error {
	columns, err := TableColumns(ctx, tx, "emotions")
	if err != nil {
		return err
	}
	for _, c := range columns {
		if c == "name_key" {
			return nil
		}
	}
	if _, err := tx.ExecContext(ctx, `ALTER TABLE emotions ADD COLUMN name_key TEXT`); err != nil {
		return fmt.Errorf("failed to add column emotions.name_key: %w", err)
	}

	type catalogRow struct {
		id   int64
		name string
	}
	rows, err := tx.QueryContext(ctx, `SELECT id, name FROM emotions ORDER BY id`)
	if err != nil {
		return fmt.Errorf("failed to read emotions: %w", err)
	}
	var all []catalogRow
	for rows.Next() {
		var r catalogRow
		if err := rows.Scan(&r.id, &r.name); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan emotion row: %w", err)
		}
		all = append(all, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating emotion rows: %w", err)
	}

	kept := make(map[string]int64, len(all))
	for _, r := range all {
		key := EmotionKey(r.name)
		keepID, dup := kept[key]
		if !dup {
			kept[key] = r.id
			if _, err := tx.ExecContext(ctx, `UPDATE emotions SET name_key = ? WHERE id = ?`, key, r.id); err != nil {
				return fmt.Errorf("failed to backfill key of emotion %q: %w", r.name, err)
			}
			continue
		}
		stmts := []struct {
			query string
			args  []any
		}{
			{`INSERT OR IGNORE INTO mood_emotions (mood_id, emotion_id) SELECT mood_id, ? FROM mood_emotions WHERE emotion_id = ?`, []any{keepID, r.id}},
			{`DELETE FROM mood_emotions WHERE emotion_id = ?`, []any{r.id}},
			{`DELETE FROM emotions WHERE id = ?`, []any{r.id}},
		}
		for _, st := range stmts {
			if _, err := tx.ExecContext(ctx, st.query, st.args...); err != nil {
				return fmt.Errorf("failed to merge emotion %q: %w", r.name, err)
			}
		}
		slog.Warn("merged emotions differing only by case", "name", r.name, "into", keepID)
	}

	if _, err := tx.ExecContext(ctx, createEmotionKeyIndex); err != nil {
		return fmt.Errorf("failed to index emotions.name_key: %w", err)
	}
	slog.Info("schema migration applied", "table", "emotions", "column", "name_key")
	return nil
}
