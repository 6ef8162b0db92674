package moods

import (
	"strings"
	"time"

	pkgdb "github.com/unowned-ai/moodlog/pkg/db"
)

// MaxListItems caps every list stored on an entry.
const MaxListItems = 50

// Category classifies an emotion.
type Category string

const (
	CategoryPositive Category = "positive"
	CategoryNegative Category = "negative"
	CategoryNeutral  Category = "neutral"
)

// Valid reports whether c is one of the three known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryPositive, CategoryNegative, CategoryNeutral:
		return true
	}
	return false
}

// ParseCategory accepts a category name in any case, surrounded by any whitespace.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	return c, c.Valid()
}

// Emotion is an immutable (name, category) pair. Identity is the lower-cased name.
type Emotion struct {
	Name     string   `json:"name" jsonschema:"required,minLength=1"`
	Category Category `json:"category" jsonschema:"required,enum=positive,enum=negative,enum=neutral"`
}

// Key returns the identity of the emotion.
func (e Emotion) Key() string {
	return pkgdb.EmotionKey(e.Name)
}

// EmotionRecord is a row of the emotion catalog.
type EmotionRecord struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Category  Category  `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// Emotion returns the value part of the record.
func (r EmotionRecord) Emotion() Emotion {
	return Emotion{Name: r.Name, Category: r.Category}
}

// Location is where an entry was recorded.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
}

// MoodEntry is a single recorded mood observation.
type MoodEntry struct {
	ID             int64     `json:"id"`
	Mood           int       `json:"mood"`
	Note           *string   `json:"note"`
	Timestamp      int64     `json:"timestamp"`
	Emotions       []Emotion `json:"emotions"`
	ContextTags    []string  `json:"contextTags"`
	Energy         *int      `json:"energy"`
	Photos         []string  `json:"photos"`
	VoiceMemos     []string  `json:"voiceMemos"`
	Location       *Location `json:"location"`
	BasedOnEntryID *int64    `json:"basedOnEntryId"`
}

// Metadata holds the optional fields accepted by Insert.
type Metadata struct {
	Timestamp      *int64
	Emotions       []Emotion
	ContextTags    []string
	Energy         *float64
	Photos         []string
	VoiceMemos     []string
	Location       *Location
	BasedOnEntryID *int64
}

// EntryInput is a new entry as supplied by a caller. Nil fields are omitted
// and receive defaults during normalization.
type EntryInput struct {
	Mood           int
	Note           *string
	Timestamp      *int64
	Emotions       []Emotion
	ContextTags    []string
	Energy         *float64
	Photos         []string
	VoiceMemos     []string
	Location       *Location
	BasedOnEntryID *int64
}

// NormalizedEntry is an entry ready to be written: every default applied,
// every list truncated, energy clamped.
type NormalizedEntry struct {
	Mood           int
	Note           *string
	Timestamp      int64
	Emotions       []Emotion
	ContextTags    []string
	Energy         *int
	Photos         []string
	VoiceMemos     []string
	Location       *Location
	BasedOnEntryID *int64
}

// Field is an optional patch value. Set distinguishes "provided" from
// "omitted"; for pointer types a set nil value means "clear".
type Field[T any] struct {
	Value T
	Set   bool
}

// Some returns a provided Field holding v.
func Some[T any](v T) Field[T] {
	return Field[T]{Value: v, Set: true}
}

// Null returns a provided Field that clears a nullable column.
func Null[T any]() Field[*T] {
	return Field[*T]{Set: true}
}

// EntryPatch lists the fields UpdateEntry may change.
type EntryPatch struct {
	Mood           Field[int]
	Note           Field[*string]
	Timestamp      Field[int64]
	Emotions       Field[[]Emotion]
	ContextTags    Field[[]string]
	Energy         Field[*float64]
	Photos         Field[[]string]
	Location       Field[*Location]
	VoiceMemos     Field[[]string]
	BasedOnEntryID Field[*int64]
}

// Empty reports whether no field was supplied.
func (p EntryPatch) Empty() bool {
	return !p.Mood.Set && !p.Note.Set && !p.Timestamp.Set && !p.Emotions.Set &&
		!p.ContextTags.Set && !p.Energy.Set && !p.Photos.Set && !p.Location.Set &&
		!p.VoiceMemos.Set && !p.BasedOnEntryID.Set
}

// Page is one slice of the timeline.
type Page struct {
	Entries []MoodEntry `json:"entries"`
	Total   int         `json:"total"`
	HasMore bool        `json:"hasMore"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
}

// Stats summarizes the whole log.
type Stats struct {
	Count          int      `json:"count"`
	AverageMood    *float64 `json:"averageMood"`
	AverageEnergy  *float64 `json:"averageEnergy"`
	FirstTimestamp *int64   `json:"firstTimestamp"`
	LastTimestamp  *int64   `json:"lastTimestamp"`
}
