package moods

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgdb "github.com/unowned-ai/moodlog/pkg/db"
)

// setupTestDB opens a bootstrapped in-memory store.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := pkgdb.OpenDBConnection(":memory:", false, "NORMAL")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, pkgdb.Bootstrap(context.Background(), db))
	return db
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func int64Ptr(n int64) *int64 { return &n }

// assertLinksMatchSnapshot checks that the junction rows of an entry describe
// the same (name, category) pairs as its embedded emotion list.
func assertLinksMatchSnapshot(t *testing.T, db *sql.DB, id int64) {
	t.Helper()
	ctx := context.Background()
	entry, err := GetEntry(ctx, db, id)
	require.NoError(t, err)
	linked, err := EmotionsForEntry(ctx, db, id)
	require.NoError(t, err)

	pairs := func(es []Emotion) []string {
		out := make([]string, 0, len(es))
		for _, e := range es {
			out = append(out, e.Key()+"/"+string(e.Category))
		}
		sort.Strings(out)
		return out
	}
	assert.Equal(t, pairs(entry.Emotions), pairs(linked), "entry %d", id)
}

func countRows(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(query, args...).Scan(&n))
	return n
}

// failOn installs a trigger that aborts the given statement.
func failOn(t *testing.T, db *sql.DB, name, when string) {
	t.Helper()
	stmt := fmt.Sprintf(`CREATE TRIGGER %s %s BEGIN SELECT RAISE(ABORT, 'injected failure'); END;`, name, when)
	_, err := db.Exec(stmt)
	require.NoError(t, err)
}

func TestInsert_RoundTripsMoodAndEnergy(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for m := MinMood; m <= MaxMood; m++ {
		for e := 0; e <= 10; e++ {
			created, err := Insert(ctx, db, m, strPtr("note"), &Metadata{Energy: floatPtr(float64(e))})
			require.NoError(t, err)

			got, err := GetEntry(ctx, db, created.ID)
			require.NoError(t, err)
			assert.Equal(t, m, got.Mood)
			require.NotNil(t, got.Energy)
			assert.Equal(t, e, *got.Energy)
			require.NotNil(t, got.Note)
			assert.Equal(t, "note", *got.Note)
		}
	}
}

func TestInsertEntry_Defaults(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, 2, 2, 10, 0, 0, 0, time.Local)
	stubNow(t, now)

	entry, err := InsertEntry(context.Background(), db, EntryInput{Mood: 5})
	require.NoError(t, err)
	assert.Positive(t, entry.ID)
	assert.Equal(t, now.UnixMilli(), entry.Timestamp)
	assert.Nil(t, entry.Note)
	assert.Nil(t, entry.Energy)
	assert.Nil(t, entry.Location)
	assert.Empty(t, entry.Emotions)
	assert.Empty(t, entry.ContextTags)
	assert.Equal(t, 0, countRows(t, db, `SELECT count(*) FROM mood_emotions`))
}

func TestInsertEntry_AllFields(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	ts := int64(1700000000000)
	entry, err := InsertEntry(ctx, db, EntryInput{
		Mood:        8,
		Note:        strPtr("sunny walk"),
		Timestamp:   &ts,
		Emotions:    []Emotion{{Name: "happy", Category: CategoryPositive}, {Name: "Tired", Category: CategoryNeutral}},
		ContextTags: []string{"outdoors", "friends"},
		Energy:      floatPtr(6.6),
		Photos:      []string{"file:///a.jpg"},
		VoiceMemos:  []string{"file:///a.m4a"},
		Location:    &Location{Latitude: 48.85, Longitude: 2.35, Name: "Paris"},
	})
	require.NoError(t, err)

	assert.Equal(t, ts, entry.Timestamp)
	assert.Equal(t, []Emotion{{Name: "happy", Category: CategoryPositive}, {Name: "Tired", Category: CategoryNeutral}}, entry.Emotions)
	assert.Equal(t, []string{"outdoors", "friends"}, entry.ContextTags)
	require.NotNil(t, entry.Energy)
	assert.Equal(t, 7, *entry.Energy)
	assert.Equal(t, []string{"file:///a.jpg"}, entry.Photos)
	assert.Equal(t, []string{"file:///a.m4a"}, entry.VoiceMemos)
	require.NotNil(t, entry.Location)
	assert.Equal(t, "Paris", entry.Location.Name)
	assertLinksMatchSnapshot(t, db, entry.ID)

	// Linking upserted the seeded category of Tired.
	rec, err := GetEmotion(ctx, db, "tired")
	require.NoError(t, err)
	assert.Equal(t, "Tired", rec.Name)
	assert.Equal(t, CategoryNeutral, rec.Category)
}

func TestInsertEntry_Validation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := InsertEntry(ctx, db, EntryInput{Mood: 11})
	assert.ErrorIs(t, err, ErrInvalidMood)
	_, err = InsertEntry(ctx, db, EntryInput{Mood: -1})
	assert.ErrorIs(t, err, ErrInvalidMood)
	_, err = InsertEntry(ctx, db, EntryInput{Mood: 5, Emotions: []Emotion{{Name: " ", Category: CategoryPositive}}})
	assert.ErrorIs(t, err, ErrInvalidEmotion)
	_, err = InsertEntry(ctx, db, EntryInput{Mood: 5, Emotions: []Emotion{{Name: "Happy", Category: "great"}}})
	assert.ErrorIs(t, err, ErrInvalidEmotion)
	_, err = InsertEntry(ctx, db, EntryInput{Mood: 5, Location: &Location{Latitude: 91}})
	assert.ErrorIs(t, err, ErrInvalidLocation)

	n, err := CountEntries(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestInsertEntry_RollsBackWhenLinkingFails(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	failOn(t, db, "fail_link", "BEFORE INSERT ON mood_emotions")

	_, err := InsertEntry(ctx, db, EntryInput{Mood: 4, Emotions: []Emotion{{Name: "Brand New", Category: CategoryPositive}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "injected failure")

	assert.Equal(t, 0, countRows(t, db, `SELECT count(*) FROM moods`))
	assert.Equal(t, 0, countRows(t, db, `SELECT count(*) FROM emotions WHERE name = 'Brand New'`))
}

func TestUpdateEntry(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	ts := int64(1700000000000)
	entry, err := InsertEntry(ctx, db, EntryInput{
		Mood:        5,
		Note:        strPtr("before"),
		Timestamp:   &ts,
		Emotions:    []Emotion{{Name: "Sad", Category: CategoryNegative}},
		ContextTags: []string{"work"},
		Energy:      floatPtr(4),
	})
	require.NoError(t, err)

	t.Run("empty patch returns current row", func(t *testing.T) {
		got, err := UpdateEntry(ctx, db, entry.ID, EntryPatch{})
		require.NoError(t, err)
		assert.Equal(t, entry, got)
	})

	t.Run("only supplied fields change", func(t *testing.T) {
		got, err := UpdateEntry(ctx, db, entry.ID, EntryPatch{Mood: Some(9)})
		require.NoError(t, err)
		assert.Equal(t, 9, got.Mood)
		assert.Equal(t, "before", *got.Note)
		assert.Equal(t, []string{"work"}, got.ContextTags)
		assert.Equal(t, entry.Emotions, got.Emotions)
		assert.Equal(t, ts, got.Timestamp)
	})

	t.Run("null clears a field", func(t *testing.T) {
		got, err := UpdateEntry(ctx, db, entry.ID, EntryPatch{Note: Null[string](), Energy: Null[float64]()})
		require.NoError(t, err)
		assert.Nil(t, got.Note)
		assert.Nil(t, got.Energy)
	})

	t.Run("energy is clamped at write time", func(t *testing.T) {
		got, err := UpdateEntry(ctx, db, entry.ID, EntryPatch{Energy: Some(floatPtr(14.2))})
		require.NoError(t, err)
		require.NotNil(t, got.Energy)
		assert.Equal(t, 10, *got.Energy)
	})

	t.Run("emotions are relinked", func(t *testing.T) {
		got, err := UpdateEntry(ctx, db, entry.ID, EntryPatch{
			Emotions: Some([]Emotion{{Name: "Calm", Category: CategoryPositive}, {Name: "Hopeful", Category: CategoryPositive}}),
		})
		require.NoError(t, err)
		assert.Len(t, got.Emotions, 2)
		assertLinksMatchSnapshot(t, db, entry.ID)

		got, err = UpdateEntry(ctx, db, entry.ID, EntryPatch{Emotions: Some([]Emotion{})})
		require.NoError(t, err)
		assert.Empty(t, got.Emotions)
		assert.Equal(t, 0, countRows(t, db, `SELECT count(*) FROM mood_emotions WHERE mood_id = ?`, entry.ID))
	})

	t.Run("invalid mood is rejected", func(t *testing.T) {
		_, err := UpdateEntry(ctx, db, entry.ID, EntryPatch{Mood: Some(42)})
		assert.ErrorIs(t, err, ErrInvalidMood)
	})

	t.Run("missing entry", func(t *testing.T) {
		_, err := UpdateEntry(ctx, db, 9999, EntryPatch{Mood: Some(1)})
		assert.ErrorIs(t, err, ErrEntryNotFound)
		_, err = UpdateEntry(ctx, db, 9999, EntryPatch{})
		assert.ErrorIs(t, err, ErrEntryNotFound)
	})
}

func TestUpdateEntry_RollsBackWhenLinkingFails(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	entry, err := InsertEntry(ctx, db, EntryInput{Mood: 5, Emotions: []Emotion{{Name: "Sad", Category: CategoryNegative}}})
	require.NoError(t, err)
	failOn(t, db, "fail_link", "BEFORE INSERT ON mood_emotions")

	_, err = UpdateEntry(ctx, db, entry.ID, EntryPatch{
		Mood:     Some(2),
		Emotions: Some([]Emotion{{Name: "Angry", Category: CategoryNegative}}),
	})
	require.Error(t, err)

	got, err := GetEntry(ctx, db, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry, got)
	assertLinksMatchSnapshot(t, db, entry.ID)
}

func insertAt(t *testing.T, db *sql.DB, mood int, ts int64) MoodEntry {
	t.Helper()
	entry, err := InsertEntry(context.Background(), db, EntryInput{Mood: mood, Timestamp: &ts})
	require.NoError(t, err)
	return entry
}

func TestListEntries_OrderAndRange(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		insertAt(t, db, int(i), i*1000)
	}

	all, err := ListEntries(ctx, db)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i, e := range all {
		assert.Equal(t, int64(5-i)*1000, e.Timestamp)
	}

	inRange, err := ListEntriesInRange(ctx, db, 2000, 4000)
	require.NoError(t, err)
	require.Len(t, inRange, 3)
	assert.Equal(t, int64(4000), inRange[0].Timestamp)
	assert.Equal(t, int64(2000), inRange[2].Timestamp)

	empty, err := ListEntriesInRange(ctx, db, 10000, 20000)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestListEntriesPage(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		insertAt(t, db, int(i), i*1000)
	}

	page, err := ListEntriesPage(ctx, db, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.True(t, page.HasMore)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, int64(5000), page.Entries[0].Timestamp)

	page, err = ListEntriesPage(ctx, db, 2, 4)
	require.NoError(t, err)
	assert.False(t, page.HasMore)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, int64(1000), page.Entries[0].Timestamp)

	page, err = ListEntriesPage(ctx, db, 0, -3)
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, page.Limit)
	assert.Equal(t, 0, page.Offset)
	assert.Len(t, page.Entries, 5)
}

func TestDeleteEntry_CascadesLinks(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	entry, err := InsertEntry(ctx, db, EntryInput{Mood: 3, Emotions: []Emotion{{Name: "Lonely", Category: CategoryNegative}}})
	require.NoError(t, err)
	require.Equal(t, 1, countRows(t, db, `SELECT count(*) FROM mood_emotions WHERE mood_id = ?`, entry.ID))

	n, err := DeleteEntry(ctx, db, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 0, countRows(t, db, `SELECT count(*) FROM mood_emotions WHERE mood_id = ?`, entry.ID))

	_, err = GetEntry(ctx, db, entry.ID)
	assert.ErrorIs(t, err, ErrEntryNotFound)

	n, err = DeleteEntry(ctx, db, entry.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLoggedToday(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 10, 15, 0, 0, 0, time.Local)
	stubNow(t, now)

	logged, err := LoggedToday(ctx, db)
	require.NoError(t, err)
	assert.False(t, logged)

	// Late yesterday does not count for today.
	insertAt(t, db, 5, time.Date(2025, 6, 9, 23, 59, 0, 0, time.Local).UnixMilli())
	logged, err = LoggedToday(ctx, db)
	require.NoError(t, err)
	assert.False(t, logged)

	insertAt(t, db, 5, time.Date(2025, 6, 10, 0, 0, 0, 0, time.Local).UnixMilli())
	logged, err = LoggedToday(ctx, db)
	require.NoError(t, err)
	assert.True(t, logged)

	logged, err = LoggedOn(ctx, db, now.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, logged)
}

func TestCloneEntry(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	src, err := InsertEntry(ctx, db, EntryInput{
		Mood:        6,
		Note:        strPtr("same as usual"),
		Emotions:    []Emotion{{Name: "Content", Category: CategoryPositive}},
		ContextTags: []string{"home"},
		Energy:      floatPtr(5),
	})
	require.NoError(t, err)

	ts := src.Timestamp + 3600_000
	clone, err := CloneEntry(ctx, db, src.ID, &ts)
	require.NoError(t, err)
	assert.NotEqual(t, src.ID, clone.ID)
	require.NotNil(t, clone.BasedOnEntryID)
	assert.Equal(t, src.ID, *clone.BasedOnEntryID)
	assert.Equal(t, ts, clone.Timestamp)
	assert.Equal(t, src.Mood, clone.Mood)
	assert.Equal(t, src.Emotions, clone.Emotions)
	assert.Equal(t, src.Energy, clone.Energy)
	assertLinksMatchSnapshot(t, db, clone.ID)

	_, err = CloneEntry(ctx, db, 4242, nil)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestGetStats(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	s, err := GetStats(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, s.Count)
	assert.Nil(t, s.AverageMood)
	assert.Nil(t, s.FirstTimestamp)

	_, err = Insert(ctx, db, 4, nil, &Metadata{Timestamp: int64Ptr(1000), Energy: floatPtr(2)})
	require.NoError(t, err)
	_, err = Insert(ctx, db, 8, nil, &Metadata{Timestamp: int64Ptr(3000)})
	require.NoError(t, err)

	s, err = GetStats(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Count)
	require.NotNil(t, s.AverageMood)
	assert.InDelta(t, 6.0, *s.AverageMood, 1e-9)
	require.NotNil(t, s.AverageEnergy)
	assert.InDelta(t, 2.0, *s.AverageEnergy, 1e-9)
	assert.Equal(t, int64(1000), *s.FirstTimestamp)
	assert.Equal(t, int64(3000), *s.LastTimestamp)
}

func TestGetEntry_ToleratesCorruptColumns(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO moods (mood, timestamp, emotions, context_tags, location) VALUES (5, 1, 'oops', '{"a":1}', '{"latitude":500}')`)
	require.NoError(t, err)

	entries, err := ListEntries(ctx, db)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Emotions)
	assert.Empty(t, entries[0].ContextTags)
	assert.Nil(t, entries[0].Location)
	assert.Equal(t, 5, entries[0].Mood)
}
