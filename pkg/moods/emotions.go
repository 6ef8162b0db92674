package moods

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgdb "github.com/unowned-ai/moodlog/pkg/db"
)

var (
	ErrEmotionNotFound  = errors.New("emotion not found")
	ErrDuplicateEmotion = errors.New("emotion already exists")
	ErrInvalidEmotion   = errors.New("invalid emotion")
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const (
	// Lookups match on name_key, see pkgdb.EmotionKey.
	findEmotionStatement = `
	SELECT id, category FROM emotions WHERE name_key = ?
	`

	getEmotionStatement = `
	SELECT id, name, category, created_at FROM emotions WHERE name_key = ?
	`

	insertEmotionStatement = `
	INSERT INTO emotions (name, name_key, category) VALUES (?, ?, ?)
	`

	setEmotionCategoryStatement = `
	UPDATE emotions SET category = ? WHERE id = ?
	`

	renameEmotionStatement = `
	UPDATE emotions SET name = ?, name_key = ?, category = ? WHERE id = ?
	`

	findOtherEmotionStatement = `
	SELECT count(*) FROM emotions WHERE name_key = ? AND id != ?
	`

	deleteEmotionStatement = `
	DELETE FROM emotions WHERE name_key = ?
	`

	listEmotionsStatement = `
	SELECT id, name, category, created_at FROM emotions ORDER BY name COLLATE NOCASE ASC
	`

	clearEntryLinksStatement = `
	DELETE FROM mood_emotions WHERE mood_id = ?
	`

	linkEntryStatement = `
	INSERT OR IGNORE INTO mood_emotions (mood_id, emotion_id) VALUES (?, ?)
	`

	emotionsForEntryStatement = `
	SELECT e.name, e.category
	FROM emotions e
	JOIN mood_emotions me ON me.emotion_id = e.id
	WHERE me.mood_id = ?
	ORDER BY e.name COLLATE NOCASE ASC
	`

	entriesUsingEmotionStatement = `
	SELECT me.mood_id
	FROM mood_emotions me
	JOIN emotions e ON e.id = me.emotion_id
	JOIN moods m ON m.id = me.mood_id
	WHERE e.name_key = ?
	ORDER BY m.timestamp DESC, m.id DESC
	`
)

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// normalizeEmotion trims the name and checks both parts.
func normalizeEmotion(e Emotion) (Emotion, error) {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return Emotion{}, fmt.Errorf("%w: name is empty", ErrInvalidEmotion)
	}
	if !e.Category.Valid() {
		return Emotion{}, fmt.Errorf("%w: unknown category %q", ErrInvalidEmotion, e.Category)
	}
	return e, nil
}

// GetOrCreateEmotion returns the catalog id for e.Name, inserting the emotion
// when no row matches case-insensitively. When overwrite is set an existing
// row takes e.Category.
func GetOrCreateEmotion(ctx context.Context, q DBTX, e Emotion, overwrite bool) (int64, error) {
	e, err := normalizeEmotion(e)
	if err != nil {
		return 0, err
	}

	var (
		id       int64
		category string
	)
	err = q.QueryRowContext(ctx, findEmotionStatement, e.Key()).Scan(&id, &category)
	switch {
	case err == nil:
		if overwrite && Category(category) != e.Category {
			if _, err := q.ExecContext(ctx, setEmotionCategoryStatement, e.Category, id); err != nil {
				return 0, fmt.Errorf("failed to update category of %q: %w", e.Name, err)
			}
		}
		return id, nil
	case errors.Is(err, sql.ErrNoRows):
		res, err := q.ExecContext(ctx, insertEmotionStatement, e.Name, e.Key(), e.Category)
		if err != nil {
			return 0, fmt.Errorf("failed to insert emotion %q: %w", e.Name, err)
		}
		return res.LastInsertId()
	default:
		return 0, fmt.Errorf("failed to look up emotion %q: %w", e.Name, err)
	}
}

// AddEmotion registers a new catalog emotion.
func AddEmotion(ctx context.Context, q DBTX, e Emotion) (EmotionRecord, error) {
	e, err := normalizeEmotion(e)
	if err != nil {
		return EmotionRecord{}, err
	}
	if _, err := GetEmotion(ctx, q, e.Name); err == nil {
		return EmotionRecord{}, fmt.Errorf("%w: %s", ErrDuplicateEmotion, e.Name)
	} else if !errors.Is(err, ErrEmotionNotFound) {
		return EmotionRecord{}, err
	}

	if _, err := q.ExecContext(ctx, insertEmotionStatement, e.Name, e.Key(), e.Category); err != nil {
		if isUniqueViolation(err) {
			return EmotionRecord{}, fmt.Errorf("%w: %s", ErrDuplicateEmotion, e.Name)
		}
		return EmotionRecord{}, fmt.Errorf("failed to insert emotion %q: %w", e.Name, err)
	}
	return GetEmotion(ctx, q, e.Name)
}

// GetEmotion finds a catalog emotion by case-insensitive name.
func GetEmotion(ctx context.Context, q DBTX, name string) (EmotionRecord, error) {
	rec, err := scanEmotion(q.QueryRowContext(ctx, getEmotionStatement, pkgdb.EmotionKey(name)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return EmotionRecord{}, ErrEmotionNotFound
		}
		return EmotionRecord{}, err
	}
	return rec, nil
}

// RenameEmotion changes the name and category of the catalog row matching
// oldName. It touches the catalog only; RenameEverywhere also rewrites entries.
func RenameEmotion(ctx context.Context, q DBTX, oldName string, e Emotion) error {
	e, err := normalizeEmotion(e)
	if err != nil {
		return err
	}
	current, err := GetEmotion(ctx, q, oldName)
	if err != nil {
		return err
	}

	var others int
	if err := q.QueryRowContext(ctx, findOtherEmotionStatement, e.Key(), current.ID).Scan(&others); err != nil {
		return fmt.Errorf("failed to check emotion name %q: %w", e.Name, err)
	}
	if others > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateEmotion, e.Name)
	}

	if _, err := q.ExecContext(ctx, renameEmotionStatement, e.Name, e.Key(), e.Category, current.ID); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateEmotion, e.Name)
		}
		return fmt.Errorf("failed to rename emotion %q: %w", oldName, err)
	}
	return nil
}

// RecategorizeEmotion sets the category of a catalog emotion. It touches the
// catalog only; RecategorizeEverywhere also rewrites entries.
func RecategorizeEmotion(ctx context.Context, q DBTX, name string, c Category) error {
	if !c.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidEmotion, c)
	}
	current, err := GetEmotion(ctx, q, name)
	if err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, setEmotionCategoryStatement, c, current.ID); err != nil {
		return fmt.Errorf("failed to recategorize emotion %q: %w", name, err)
	}
	return nil
}

// DeleteEmotion removes a catalog row and, by cascade, its junction rows.
// Entry snapshots are left alone; use RemoveEverywhere to keep them in step.
func DeleteEmotion(ctx context.Context, q DBTX, name string) (int64, error) {
	res, err := q.ExecContext(ctx, deleteEmotionStatement, pkgdb.EmotionKey(name))
	if err != nil {
		return 0, fmt.Errorf("failed to delete emotion %q: %w", name, err)
	}
	return res.RowsAffected()
}

// ListEmotions returns the whole catalog ordered by name.
func ListEmotions(ctx context.Context, q DBTX) ([]EmotionRecord, error) {
	rows, err := q.QueryContext(ctx, listEmotionsStatement)
	if err != nil {
		return nil, fmt.Errorf("failed to query emotions: %w", err)
	}
	defer rows.Close()

	records := []EmotionRecord{}
	for rows.Next() {
		rec, err := scanEmotion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan emotion row: %w", err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating emotion rows: %w", err)
	}
	return records, nil
}

// LoadCatalog returns every catalog category keyed by emotion key.
func LoadCatalog(ctx context.Context, q DBTX) (CategoryLookup, error) {
	records, err := ListEmotions(ctx, q)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]Category, len(records))
	for _, r := range records {
		byName[pkgdb.EmotionKey(r.Name)] = r.Category
	}
	return func(name string) (Category, bool) {
		c, ok := byName[pkgdb.EmotionKey(name)]
		return c, ok
	}, nil
}

// LinkEntry replaces the junction rows of an entry with links to emotions,
// creating catalog rows as needed. Catalog categories are overwritten so the
// junction describes the same pairs as the entry snapshot. An empty list
// leaves the entry with no links.
func LinkEntry(ctx context.Context, q DBTX, entryID int64, emotions []Emotion) error {
	if _, err := q.ExecContext(ctx, clearEntryLinksStatement, entryID); err != nil {
		return fmt.Errorf("failed to clear emotion links of entry %d: %w", entryID, err)
	}
	for _, e := range emotions {
		emotionID, err := GetOrCreateEmotion(ctx, q, e, true)
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, linkEntryStatement, entryID, emotionID); err != nil {
			return fmt.Errorf("failed to link emotion %q to entry %d: %w", e.Name, entryID, err)
		}
	}
	return nil
}

// EmotionsForEntry reads an entry's emotions through the junction table.
func EmotionsForEntry(ctx context.Context, q DBTX, entryID int64) ([]Emotion, error) {
	rows, err := q.QueryContext(ctx, emotionsForEntryStatement, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query emotions of entry %d: %w", entryID, err)
	}
	defer rows.Close()

	emotions := []Emotion{}
	for rows.Next() {
		var e Emotion
		if err := rows.Scan(&e.Name, &e.Category); err != nil {
			return nil, fmt.Errorf("failed to scan emotion row: %w", err)
		}
		emotions = append(emotions, e)
	}
	return emotions, rows.Err()
}

// EntriesUsingEmotion returns the ids of entries linked to name, newest first.
func EntriesUsingEmotion(ctx context.Context, q DBTX, name string) ([]int64, error) {
	rows, err := q.QueryContext(ctx, entriesUsingEmotionStatement, pkgdb.EmotionKey(name))
	if err != nil {
		return nil, fmt.Errorf("failed to query entries using %q: %w", name, err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmotion(s rowScanner) (EmotionRecord, error) {
	var (
		rec       EmotionRecord
		category  string
		createdAt sql.NullFloat64
	)
	if err := s.Scan(&rec.ID, &rec.Name, &category, &createdAt); err != nil {
		return EmotionRecord{}, err
	}
	rec.Category = Category(category)
	if createdAt.Valid {
		sec := int64(createdAt.Float64)
		rec.CreatedAt = time.Unix(sec, int64((createdAt.Float64-float64(sec))*1e9))
	}
	return rec, nil
}
