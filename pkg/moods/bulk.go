package moods

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	pkgdb "github.com/unowned-ai/moodlog/pkg/db"
)

const (
	scanSnapshotsStatement = `
	SELECT id, emotions FROM moods ORDER BY id
	`

	rewriteSnapshotStatement = `
	UPDATE moods SET emotions = ? WHERE id = ?
	`
)

type snapshot struct {
	id       int64
	emotions []Emotion
}

// loadSnapshots reads every entry's embedded emotion list. Rows are fully
// read before returning so the caller can write on the same connection.
func loadSnapshots(ctx context.Context, q DBTX) ([]snapshot, error) {
	rows, err := q.QueryContext(ctx, scanSnapshotsStatement)
	if err != nil {
		return nil, fmt.Errorf("failed to scan emotion snapshots: %w", err)
	}
	defer rows.Close()

	var out []snapshot
	for rows.Next() {
		var (
			s    snapshot
			blob sql.NullString
		)
		if err := rows.Scan(&s.id, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		s.emotions = DeserializeEmotions(blob.String)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}
	return out, nil
}

// rewriteSnapshots applies rewrite to every snapshot mentioning name and
// stores the result. It returns the rewritten snapshots.
func rewriteSnapshots(ctx context.Context, tx *sql.Tx, name string, rewrite func(e Emotion) (Emotion, bool)) ([]snapshot, error) {
	all, err := loadSnapshots(ctx, tx)
	if err != nil {
		return nil, err
	}
	key := pkgdb.EmotionKey(name)

	var changed []snapshot
	for _, s := range all {
		matched := false
		next := make([]Emotion, 0, len(s.emotions))
		for _, e := range s.emotions {
			if e.Key() != key {
				next = append(next, e)
				continue
			}
			matched = true
			if kept, ok := rewrite(e); ok {
				next = append(next, kept)
			}
		}
		if !matched {
			continue
		}
		next = normalizeEmotions(next)
		if _, err := tx.ExecContext(ctx, rewriteSnapshotStatement, SerializeEmotions(next), s.id); err != nil {
			return nil, fmt.Errorf("failed to rewrite emotions of entry %d: %w", s.id, err)
		}
		changed = append(changed, snapshot{id: s.id, emotions: next})
	}
	return changed, nil
}

// RecategorizeEverywhere gives name the category c in every entry snapshot
// and in the catalog, in one transaction. It returns the number of entries
// rewritten.
func RecategorizeEverywhere(ctx context.Context, db *sql.DB, name string, c Category) (int, error) {
	target, err := normalizeEmotion(Emotion{Name: name, Category: c})
	if err != nil {
		return 0, err
	}

	var changed []snapshot
	err = pkgdb.WithTx(ctx, db, func(tx *sql.Tx) error {
		var err error
		changed, err = rewriteSnapshots(ctx, tx, target.Name, func(e Emotion) (Emotion, bool) {
			e.Category = target.Category
			return e, true
		})
		if err != nil {
			return err
		}

		err = RecategorizeEmotion(ctx, tx, target.Name, target.Category)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrEmotionNotFound) && len(changed) > 0:
			// Known only from history; register it so the rewritten entries link to it.
			return relink(ctx, tx, changed)
		default:
			return err
		}
	})
	if err != nil {
		return 0, err
	}
	slog.Debug("emotion recategorized", "name", target.Name, "category", target.Category, "entries", len(changed))
	return len(changed), nil
}

// RemoveEverywhere drops name from every entry snapshot, relinks those
// entries and deletes the catalog row, in one transaction. It returns the
// number of entries rewritten.
func RemoveEverywhere(ctx context.Context, db *sql.DB, name string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: name is empty", ErrInvalidEmotion)
	}

	var changed []snapshot
	err := pkgdb.WithTx(ctx, db, func(tx *sql.Tx) error {
		var err error
		changed, err = rewriteSnapshots(ctx, tx, name, func(Emotion) (Emotion, bool) {
			return Emotion{}, false
		})
		if err != nil {
			return err
		}
		if err := relink(ctx, tx, changed); err != nil {
			return err
		}
		_, err = DeleteEmotion(ctx, tx, name)
		return err
	})
	if err != nil {
		return 0, err
	}
	slog.Debug("emotion removed", "name", name, "entries", len(changed))
	return len(changed), nil
}

// RenameEverywhere renames oldName to e in every entry snapshot and in the
// catalog, in one transaction. It returns the number of entries rewritten.
func RenameEverywhere(ctx context.Context, db *sql.DB, oldName string, e Emotion) (int, error) {
	target, err := normalizeEmotion(e)
	if err != nil {
		return 0, err
	}

	var changed []snapshot
	err = pkgdb.WithTx(ctx, db, func(tx *sql.Tx) error {
		var err error
		changed, err = rewriteSnapshots(ctx, tx, oldName, func(Emotion) (Emotion, bool) {
			return target, true
		})
		if err != nil {
			return err
		}

		err = RenameEmotion(ctx, tx, oldName, target)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrEmotionNotFound) && len(changed) > 0:
			return relink(ctx, tx, changed)
		default:
			return err
		}
	})
	if err != nil {
		return 0, err
	}
	slog.Debug("emotion renamed", "from", oldName, "to", target.Name, "entries", len(changed))
	return len(changed), nil
}

func relink(ctx context.Context, tx *sql.Tx, changed []snapshot) error {
	for _, s := range changed {
		if err := LinkEntry(ctx, tx, s.id, s.emotions); err != nil {
			return err
		}
	}
	return nil
}

// EmotionNamesInUse returns the distinct emotion names found in entry
// snapshots, sorted case-insensitively. The first spelling seen wins.
func EmotionNamesInUse(ctx context.Context, db DBTX) ([]string, error) {
	all, err := loadSnapshots(ctx, db)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	names := []string{}
	for _, s := range all {
		for _, e := range s.emotions {
			if seen[e.Key()] {
				continue
			}
			seen[e.Key()] = true
			names = append(names, e.Name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names, nil
}
