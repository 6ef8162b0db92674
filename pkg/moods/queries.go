package moods

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DefaultPageSize is used when ListEntriesPage is given no positive limit.
const DefaultPageSize = 20

const (
	entryColumns = `id, mood, note, timestamp, emotions, context_tags, energy, photos, location, voice_memos, based_on_entry_id`

	getEntryStatement = `
	SELECT ` + entryColumns + `
	FROM moods
	WHERE id = ?
	`

	listEntriesStatement = `
	SELECT ` + entryColumns + `
	FROM moods
	ORDER BY timestamp DESC, id DESC
	`

	listEntriesInRangeStatement = `
	SELECT ` + entryColumns + `
	FROM moods
	WHERE timestamp >= ? AND timestamp <= ?
	ORDER BY timestamp DESC, id DESC
	`

	listEntriesPageStatement = `
	SELECT ` + entryColumns + `
	FROM moods
	ORDER BY timestamp DESC, id DESC
	LIMIT ? OFFSET ?
	`

	countEntriesStatement = `
	SELECT count(*) FROM moods
	`

	loggedBetweenStatement = `
	SELECT EXISTS (SELECT 1 FROM moods WHERE timestamp >= ? AND timestamp < ?)
	`

	statsStatement = `
	SELECT count(*), avg(mood), avg(energy), min(timestamp), max(timestamp) FROM moods
	`
)

// GetEntry retrieves an entry by id.
func GetEntry(ctx context.Context, db DBTX, id int64) (MoodEntry, error) {
	entry, err := scanEntry(db.QueryRowContext(ctx, getEntryStatement, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return MoodEntry{}, ErrEntryNotFound
		}
		return MoodEntry{}, err
	}
	return entry, nil
}

// ListEntries returns every entry, newest first.
func ListEntries(ctx context.Context, db DBTX) ([]MoodEntry, error) {
	return queryEntries(ctx, db, listEntriesStatement)
}

// ListEntriesInRange returns entries with start <= timestamp <= end, newest first.
func ListEntriesInRange(ctx context.Context, db DBTX, start, end int64) ([]MoodEntry, error) {
	return queryEntries(ctx, db, listEntriesInRangeStatement, start, end)
}

// ListEntriesPage returns one page of the timeline with the total entry count.
func ListEntriesPage(ctx context.Context, db DBTX, limit, offset int) (Page, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	entries, err := queryEntries(ctx, db, listEntriesPageStatement, limit, offset)
	if err != nil {
		return Page{}, err
	}
	total, err := CountEntries(ctx, db)
	if err != nil {
		return Page{}, err
	}
	return Page{
		Entries: entries,
		Total:   total,
		HasMore: offset+len(entries) < total,
		Limit:   limit,
		Offset:  offset,
	}, nil
}

// CountEntries returns the number of stored entries.
func CountEntries(ctx context.Context, db DBTX) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, countEntriesStatement).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return n, nil
}

// LoggedToday reports whether an entry exists between local midnight today and
// local midnight tomorrow.
func LoggedToday(ctx context.Context, db DBTX) (bool, error) {
	return LoggedOn(ctx, db, nowFunc())
}

// LoggedOn reports whether an entry exists on the calendar day of day, in
// day's location.
func LoggedOn(ctx context.Context, db DBTX, day time.Time) (bool, error) {
	y, m, d := day.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var exists bool
	err := db.QueryRowContext(ctx, loggedBetweenStatement, start.UnixMilli(), end.UnixMilli()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check entries for %s: %w", start.Format(time.DateOnly), err)
	}
	return exists, nil
}

// GetStats summarizes every stored entry.
func GetStats(ctx context.Context, db DBTX) (Stats, error) {
	var (
		s             Stats
		avgMood       sql.NullFloat64
		avgEnergy     sql.NullFloat64
		first, latest sql.NullInt64
	)
	err := db.QueryRowContext(ctx, statsStatement).Scan(&s.Count, &avgMood, &avgEnergy, &first, &latest)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to compute stats: %w", err)
	}
	if avgMood.Valid {
		s.AverageMood = &avgMood.Float64
	}
	if avgEnergy.Valid {
		s.AverageEnergy = &avgEnergy.Float64
	}
	if first.Valid {
		s.FirstTimestamp = &first.Int64
	}
	if latest.Valid {
		s.LastTimestamp = &latest.Int64
	}
	return s, nil
}

func queryEntries(ctx context.Context, db DBTX, query string, args ...any) ([]MoodEntry, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entries := []MoodEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entry rows: %w", err)
	}
	return entries, nil
}

func scanEntry(s rowScanner) (MoodEntry, error) {
	var (
		entry                              MoodEntry
		note, location                     sql.NullString
		emotions, tags, photos, voiceMemos sql.NullString
		energy                             sql.NullFloat64
		basedOn                            sql.NullInt64
	)
	err := s.Scan(
		&entry.ID,
		&entry.Mood,
		&note,
		&entry.Timestamp,
		&emotions,
		&tags,
		&energy,
		&photos,
		&location,
		&voiceMemos,
		&basedOn,
	)
	if err != nil {
		return MoodEntry{}, err
	}

	if note.Valid {
		entry.Note = &note.String
	}
	entry.Emotions = DeserializeEmotions(emotions.String)
	entry.ContextTags = DeserializeArray(tags.String)
	entry.Photos = DeserializeArray(photos.String)
	entry.VoiceMemos = DeserializeArray(voiceMemos.String)
	entry.Location = deserializeLocation(location)
	if energy.Valid {
		entry.Energy = SanitizeEnergy(energy.Float64)
	}
	if basedOn.Valid {
		entry.BasedOnEntryID = &basedOn.Int64
	}
	return entry, nil
}
