package moods

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	pkgdb "github.com/unowned-ai/moodlog/pkg/db"
)

var (
	ErrEntryNotFound   = errors.New("entry not found")
	ErrInvalidMood     = errors.New("mood must be between 0 and 10")
	ErrInvalidLocation = errors.New("invalid location")
)

const (
	MinMood = 0
	MaxMood = 10
)

const (
	insertEntryStatement = `
	INSERT INTO moods (mood, note, timestamp, emotions, context_tags, energy, photos, location, voice_memos, based_on_entry_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	deleteEntryStatement = `
	DELETE FROM moods WHERE id = ?
	`
)

// Insert records a mood with an optional note and metadata.
func Insert(ctx context.Context, db *sql.DB, mood int, note *string, meta *Metadata) (MoodEntry, error) {
	in := EntryInput{Mood: mood, Note: note}
	if meta != nil {
		in.Timestamp = meta.Timestamp
		in.Emotions = meta.Emotions
		in.ContextTags = meta.ContextTags
		in.Energy = meta.Energy
		in.Photos = meta.Photos
		in.VoiceMemos = meta.VoiceMemos
		in.Location = meta.Location
		in.BasedOnEntryID = meta.BasedOnEntryID
	}
	return InsertEntry(ctx, db, in)
}

// InsertEntry validates and normalizes in, writes it together with its
// emotion links in one transaction and returns the stored row.
func InsertEntry(ctx context.Context, db *sql.DB, in EntryInput) (MoodEntry, error) {
	if err := validateMood(in.Mood); err != nil {
		return MoodEntry{}, err
	}
	if err := validateEmotions(in.Emotions); err != nil {
		return MoodEntry{}, err
	}
	if err := validateLocation(in.Location); err != nil {
		return MoodEntry{}, err
	}

	n := NormalizeInput(in)
	var id int64
	err := pkgdb.WithTx(ctx, db, func(tx *sql.Tx) error {
		var err error
		id, err = InsertNormalized(ctx, tx, n)
		return err
	})
	if err != nil {
		return MoodEntry{}, err
	}
	return GetEntry(ctx, db, id)
}

// InsertNormalized writes one normalized entry and links its emotions. It is
// meant to run inside a caller's transaction.
func InsertNormalized(ctx context.Context, q DBTX, n NormalizedEntry) (int64, error) {
	emotions := normalizeEmotions(n.Emotions)
	var energy any
	if n.Energy != nil {
		energy = *n.Energy
	}
	res, err := q.ExecContext(ctx, insertEntryStatement,
		n.Mood,
		n.Note,
		n.Timestamp,
		SerializeEmotions(emotions),
		SerializeArray(n.ContextTags),
		energy,
		SerializeArray(n.Photos),
		serializeLocation(n.Location),
		SerializeArray(n.VoiceMemos),
		n.BasedOnEntryID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert mood entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if len(emotions) > 0 {
		if err := LinkEntry(ctx, q, id, emotions); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// UpdateEntry changes only the fields set in patch. Emotions are relinked in
// the same transaction. With an empty patch the current row is returned as is.
func UpdateEntry(ctx context.Context, db *sql.DB, id int64, patch EntryPatch) (MoodEntry, error) {
	if patch.Empty() {
		return GetEntry(ctx, db, id)
	}

	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if patch.Mood.Set {
		if err := validateMood(patch.Mood.Value); err != nil {
			return MoodEntry{}, err
		}
		add("mood", patch.Mood.Value)
	}
	if patch.Note.Set {
		add("note", patch.Note.Value)
	}
	if patch.Timestamp.Set {
		add("timestamp", patch.Timestamp.Value)
	}
	var emotions []Emotion
	if patch.Emotions.Set {
		if err := validateEmotions(patch.Emotions.Value); err != nil {
			return MoodEntry{}, err
		}
		emotions = normalizeEmotions(patch.Emotions.Value)
		add("emotions", SerializeEmotions(emotions))
	}
	if patch.ContextTags.Set {
		add("context_tags", SerializeArray(patch.ContextTags.Value))
	}
	if patch.Energy.Set {
		var energy any
		if patch.Energy.Value != nil {
			if n := SanitizeEnergy(*patch.Energy.Value); n != nil {
				energy = *n
			}
		}
		add("energy", energy)
	}
	if patch.Photos.Set {
		add("photos", SerializeArray(patch.Photos.Value))
	}
	if patch.Location.Set {
		if err := validateLocation(patch.Location.Value); err != nil {
			return MoodEntry{}, err
		}
		add("location", serializeLocation(SanitizeLocation(patch.Location.Value)))
	}
	if patch.VoiceMemos.Set {
		add("voice_memos", SerializeArray(patch.VoiceMemos.Value))
	}
	if patch.BasedOnEntryID.Set {
		add("based_on_entry_id", patch.BasedOnEntryID.Value)
	}

	stmt := fmt.Sprintf("UPDATE moods SET %s WHERE id = ?", strings.Join(sets, ", "))
	args = append(args, id)

	err := pkgdb.WithTx(ctx, db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, stmt, args...)
		if err != nil {
			return fmt.Errorf("failed to update mood entry %d: %w", id, err)
		}
		rowsAffected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return ErrEntryNotFound
		}
		if patch.Emotions.Set {
			return LinkEntry(ctx, tx, id, emotions)
		}
		return nil
	})
	if err != nil {
		return MoodEntry{}, err
	}
	return GetEntry(ctx, db, id)
}

// DeleteEntry removes an entry. Its junction rows go with it by cascade.
func DeleteEntry(ctx context.Context, db *sql.DB, id int64) (int64, error) {
	res, err := db.ExecContext(ctx, deleteEntryStatement, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete mood entry %d: %w", id, err)
	}
	return res.RowsAffected()
}

// CloneEntry records a copy of an existing entry at timestamp, pointing back
// at the source through BasedOnEntryID.
func CloneEntry(ctx context.Context, db *sql.DB, id int64, timestamp *int64) (MoodEntry, error) {
	src, err := GetEntry(ctx, db, id)
	if err != nil {
		return MoodEntry{}, err
	}
	var energy *float64
	if src.Energy != nil {
		e := float64(*src.Energy)
		energy = &e
	}
	return InsertEntry(ctx, db, EntryInput{
		Mood:           src.Mood,
		Note:           src.Note,
		Timestamp:      timestamp,
		Emotions:       src.Emotions,
		ContextTags:    src.ContextTags,
		Energy:         energy,
		Photos:         src.Photos,
		VoiceMemos:     src.VoiceMemos,
		Location:       src.Location,
		BasedOnEntryID: &src.ID,
	})
}

func validateMood(mood int) error {
	if mood < MinMood || mood > MaxMood {
		return fmt.Errorf("%w: got %d", ErrInvalidMood, mood)
	}
	return nil
}

func validateEmotions(emotions []Emotion) error {
	for _, e := range emotions {
		if _, err := normalizeEmotion(e); err != nil {
			return err
		}
	}
	return nil
}

func validateLocation(loc *Location) error {
	if loc == nil {
		return nil
	}
	if !validCoordinates(loc.Latitude, loc.Longitude) {
		return fmt.Errorf("%w: latitude %v, longitude %v", ErrInvalidLocation, loc.Latitude, loc.Longitude)
	}
	return nil
}
