package db

import "strings"

const (
	// createVersionsTable tracks the schema version recorded per component.
	createVersionsTable = `
CREATE TABLE IF NOT EXISTS moodlog_versions (
    component TEXT PRIMARY KEY,
    version INTEGER NOT NULL,
    created_at REAL DEFAULT (unixepoch())
);`

	// createMoodsTable is the base shape of the entries table. Columns added
	// after the first release are brought in by moodColumnMigrations, so an
	// old store and a fresh one converge on the same shape.
	createMoodsTable = `
CREATE TABLE IF NOT EXISTS moods (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    mood INTEGER NOT NULL,
    note TEXT,
    timestamp INTEGER NOT NULL,
    emotions TEXT NOT NULL DEFAULT '[]',
    context_tags TEXT NOT NULL DEFAULT '[]',
    energy INTEGER
);`

	createEmotionsTable = `
CREATE TABLE IF NOT EXISTS emotions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL COLLATE NOCASE UNIQUE,
    name_key TEXT NOT NULL UNIQUE,
    category TEXT NOT NULL CHECK (category IN ('positive', 'negative', 'neutral')),
    created_at REAL DEFAULT (unixepoch())
);`

	createMoodEmotionsTable = `
CREATE TABLE IF NOT EXISTS mood_emotions (
    mood_id INTEGER NOT NULL REFERENCES moods(id) ON DELETE CASCADE,
    emotion_id INTEGER NOT NULL REFERENCES emotions(id) ON DELETE CASCADE,
    PRIMARY KEY (mood_id, emotion_id)
);`

	createIndexes = `
CREATE INDEX IF NOT EXISTS idx_moods_timestamp ON moods(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_mood_emotions_mood ON mood_emotions(mood_id);`

	seedEmotionStatement = `INSERT OR IGNORE INTO emotions (name, name_key, category) VALUES (?, ?, ?)`

	// createEmotionKeyIndex enforces name_key uniqueness on catalogs that got
	// the column through ALTER TABLE.
	createEmotionKeyIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_emotions_name_key ON emotions(name_key)`
)

// EmotionKey is the catalog identity of an emotion name. NOCASE only folds
// ASCII, so uniqueness and lookups go through this key instead.
func EmotionKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// columnMigration adds one column to a table when it is missing.
type columnMigration struct {
	table      string
	column     string
	definition string
}

// moodColumnMigrations are applied in order. Each one is skipped when the
// column already exists, so the list only ever grows.
var moodColumnMigrations = []columnMigration{
	{table: "moods", column: "emotions", definition: "TEXT NOT NULL DEFAULT '[]'"},
	{table: "moods", column: "context_tags", definition: "TEXT NOT NULL DEFAULT '[]'"},
	{table: "moods", column: "energy", definition: "INTEGER DEFAULT NULL"},
	{table: "moods", column: "photos", definition: "TEXT NOT NULL DEFAULT '[]'"},
	{table: "moods", column: "location", definition: "TEXT DEFAULT NULL"},
	{table: "moods", column: "voice_memos", definition: "TEXT NOT NULL DEFAULT '[]'"},
	{table: "moods", column: "based_on_entry_id", definition: "INTEGER DEFAULT NULL"},
}

// DefaultEmotion is a catalog row seeded when the catalog is first created.
type DefaultEmotion struct {
	Name     string
	Category string
}

// DefaultEmotions seeds a new catalog so that legacy imports, which carry bare
// emotion names, can resolve a category other than neutral.
var DefaultEmotions = []DefaultEmotion{
	{"Happy", "positive"},
	{"Excited", "positive"},
	{"Grateful", "positive"},
	{"Calm", "positive"},
	{"Content", "positive"},
	{"Hopeful", "positive"},
	{"Proud", "positive"},
	{"Loved", "positive"},
	{"Relaxed", "positive"},
	{"Sad", "negative"},
	{"Anxious", "negative"},
	{"Angry", "negative"},
	{"Frustrated", "negative"},
	{"Stressed", "negative"},
	{"Lonely", "negative"},
	{"Tired", "negative"},
	{"Overwhelmed", "negative"},
	{"Guilty", "negative"},
	{"Bored", "neutral"},
	{"Confused", "neutral"},
	{"Nostalgic", "neutral"},
	{"Surprised", "neutral"},
}
