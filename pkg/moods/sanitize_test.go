package moods

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestSanitizeEnergy(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want *int
	}{
		{"nil", nil, nil},
		{"string", "7", nil},
		{"nan", math.NaN(), nil},
		{"bool", true, nil},
		{"in range", 7, intPtr(7)},
		{"rounds down", 3.4, intPtr(3)},
		{"rounds half up", 3.5, intPtr(4)},
		{"clamps low", -2.0, intPtr(0)},
		{"clamps high", 12.7, intPtr(10)},
		{"positive infinity", math.Inf(1), intPtr(10)},
		{"negative infinity", math.Inf(-1), intPtr(0)},
		{"json number", json.Number("5.5"), intPtr(6)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeEnergy(tt.in))
		})
	}
}

func TestSanitizeEnergy_AlwaysInRange(t *testing.T) {
	for f := -25.0; f <= 25.0; f += 0.25 {
		got := SanitizeEnergy(f)
		require.NotNil(t, got)
		assert.GreaterOrEqual(t, *got, 0, "input %v", f)
		assert.LessOrEqual(t, *got, 10, "input %v", f)
	}
}

func TestSanitizeImportedArray(t *testing.T) {
	assert.Equal(t, []string{}, SanitizeImportedArray("work"))
	assert.Equal(t, []string{}, SanitizeImportedArray(nil))
	assert.Equal(t, []string{"a", "b"}, SanitizeImportedArray([]any{"a", 1.0, nil, "b"}))

	var many []any
	for i := 0; i < 55; i++ {
		many = append(many, fmt.Sprintf("t%d", i))
	}
	got := SanitizeImportedArray(many)
	require.Len(t, got, MaxListItems)
	assert.Equal(t, "t0", got[0])
	assert.Equal(t, "t49", got[49])
}

func TestSanitizeImportedEmotions(t *testing.T) {
	in := []any{
		" Calm ",
		"",
		map[string]any{"name": "Angry", "category": "negative"},
		map[string]any{"name": "Odd", "category": "weird"},
		map[string]any{"name": "NoCategory"},
		7.0,
	}
	assert.Equal(t, []Emotion{
		{Name: "Calm", Category: CategoryNeutral},
		{Name: "Angry", Category: CategoryNegative},
	}, SanitizeImportedEmotions(in))
	assert.Equal(t, []Emotion{}, SanitizeImportedEmotions("Happy"))
}

func TestParseLegacyEmotion(t *testing.T) {
	lookup := func(name string) (Category, bool) {
		if strings.EqualFold(name, "happy") {
			return CategoryPositive, true
		}
		return "", false
	}

	tests := []struct {
		name string
		in   any
		want Emotion
		ok   bool
	}{
		{"known bare string", "happy", Emotion{Name: "happy", Category: CategoryPositive}, true},
		{"unknown bare string", " Meh ", Emotion{Name: "Meh", Category: CategoryNeutral}, true},
		{"object with category", map[string]any{"name": "Happy", "category": "NEGATIVE"}, Emotion{Name: "Happy", Category: CategoryNegative}, true},
		{"object without category", map[string]any{"name": "Happy"}, Emotion{Name: "Happy", Category: CategoryPositive}, true},
		{"object with bad category", map[string]any{"name": "Meh", "category": 3.0}, Emotion{Name: "Meh", Category: CategoryNeutral}, true},
		{"object without name", map[string]any{"category": "positive"}, Emotion{}, false},
		{"empty string", "  ", Emotion{}, false},
		{"number", 4.0, Emotion{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLegacyEmotion(tt.in, lookup)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	got, ok := ParseLegacyEmotion("happy", nil)
	require.True(t, ok)
	assert.Equal(t, CategoryNeutral, got.Category)
}

func TestSanitizeLocation(t *testing.T) {
	got := SanitizeLocation(map[string]any{"latitude": 52.5, "longitude": 13.4, "name": " Berlin "})
	require.NotNil(t, got)
	assert.Equal(t, Location{Latitude: 52.5, Longitude: 13.4, Name: "Berlin"}, *got)

	assert.Nil(t, SanitizeLocation(map[string]any{"latitude": 95.0, "longitude": 0.0}))
	assert.Nil(t, SanitizeLocation(map[string]any{"latitude": 10.0, "longitude": -180.5}))
	assert.Nil(t, SanitizeLocation(map[string]any{"latitude": "10", "longitude": 1.0}))
	assert.Nil(t, SanitizeLocation(map[string]any{"latitude": 10.0}))
	assert.Nil(t, SanitizeLocation("Berlin"))
	assert.Nil(t, SanitizeLocation((*Location)(nil)))
}

func TestNormalizeInput_Defaults(t *testing.T) {
	now := time.Date(2025, 5, 4, 8, 0, 0, 0, time.UTC)
	stubNow(t, now)

	n := NormalizeInput(EntryInput{Mood: 6})
	assert.Equal(t, 6, n.Mood)
	assert.Nil(t, n.Note)
	assert.Nil(t, n.Energy)
	assert.Nil(t, n.Location)
	assert.Nil(t, n.BasedOnEntryID)
	assert.Equal(t, now.UnixMilli(), n.Timestamp)
	assert.Equal(t, []Emotion{}, n.Emotions)
	assert.Equal(t, []string{}, n.ContextTags)
	assert.Equal(t, []string{}, n.Photos)
	assert.Equal(t, []string{}, n.VoiceMemos)
}

func TestNormalizeInput_SanitizesFields(t *testing.T) {
	energy := 11.6
	ts := int64(1700000000000)
	var tags []string
	for i := 0; i < 51; i++ {
		tags = append(tags, fmt.Sprintf("t%d", i))
	}
	n := NormalizeInput(EntryInput{
		Mood:        3,
		Timestamp:   &ts,
		Energy:      &energy,
		ContextTags: tags,
		Emotions: []Emotion{
			{Name: " Happy ", Category: CategoryPositive},
			{Name: "happy", Category: CategoryNegative},
			{Name: "Sad", Category: CategoryNegative},
		},
	})
	require.NotNil(t, n.Energy)
	assert.Equal(t, 10, *n.Energy)
	assert.Equal(t, ts, n.Timestamp)
	assert.Len(t, n.ContextTags, MaxListItems)
	assert.Equal(t, []Emotion{
		{Name: "Happy", Category: CategoryPositive},
		{Name: "Sad", Category: CategoryNegative},
	}, n.Emotions)
}

func TestParseEmotionList(t *testing.T) {
	got, err := ParseEmotionList("Happy:positive, tired ,Meh:NEUTRAL,,")
	require.NoError(t, err)
	assert.Equal(t, []Emotion{
		{Name: "Happy", Category: CategoryPositive},
		{Name: "tired", Category: CategoryNeutral},
		{Name: "Meh", Category: CategoryNeutral},
	}, got)

	_, err = ParseEmotionList("Happy:great")
	assert.ErrorIs(t, err, ErrInvalidEmotion)

	assert.Equal(t, []string{"work", "home"}, ParseTagList(" work, ,home "))
}
