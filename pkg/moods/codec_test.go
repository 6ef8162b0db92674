package moods

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeArray(t *testing.T) {
	assert.Equal(t, "[]", SerializeArray(nil))
	assert.Equal(t, "[]", SerializeArray([]string{}))
	assert.Equal(t, `["a","b"]`, SerializeArray([]string{"a", "b"}))

	var many []string
	for i := 0; i < 60; i++ {
		many = append(many, fmt.Sprintf("tag-%d", i))
	}
	var decoded []string
	require.NoError(t, json.Unmarshal([]byte(SerializeArray(many)), &decoded))
	require.Len(t, decoded, MaxListItems)
	assert.Equal(t, many[:MaxListItems], decoded)
}

func TestSerializeEmotions_Truncates(t *testing.T) {
	var many []Emotion
	for i := 0; i < 75; i++ {
		many = append(many, Emotion{Name: fmt.Sprintf("e%d", i), Category: CategoryPositive})
	}
	decoded := DeserializeEmotions(SerializeEmotions(many))
	require.Len(t, decoded, MaxListItems)
	assert.Equal(t, many[:MaxListItems], decoded)
	assert.Equal(t, "[]", SerializeEmotions(nil))
}

func TestDeserializeArray(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"not json", "not json", []string{}},
		{"empty text", "", []string{}},
		{"object", `{"a":1}`, []string{}},
		{"mixed items", `["a", 1, null, "b"]`, []string{"a", "b"}},
		{"empty array", `[]`, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeserializeArray(tt.in)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeserializeEmotions(t *testing.T) {
	in := `[" Happy ", {"name":"Sad","category":"negative"}, {"name":"X","category":"bogus"},
		{"name":"  ","category":"positive"}, {"category":"positive"}, 42, ""]`
	got := DeserializeEmotions(in)
	assert.Equal(t, []Emotion{
		{Name: "Happy", Category: CategoryNeutral},
		{Name: "Sad", Category: CategoryNegative},
	}, got)

	assert.Empty(t, DeserializeEmotions("{broken"))
	assert.NotNil(t, DeserializeEmotions("{broken"))
}

func stubNow(t *testing.T, now time.Time) {
	t.Helper()
	prev := nowFunc
	nowFunc = func() time.Time { return now }
	t.Cleanup(func() { nowFunc = prev })
}

func TestParseTimestamp(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	stubNow(t, now)

	tests := []struct {
		name string
		in   any
		want int64
		ok   bool
	}{
		{"number", float64(1700000000000), 1700000000000, true},
		{"int64", int64(42), 42, true},
		{"numeric string", "1700000000000", 1700000000000, true},
		{"iso string", "2024-01-15T12:00:00Z", 1705320000000, true},
		{"time value", time.UnixMilli(1234567890123), 1234567890123, true},
		{"json number", json.Number("99"), 99, true},
		{"garbage", "yesterday-ish", now.UnixMilli(), false},
		{"nil", nil, now.UnixMilli(), false},
		{"nan", math.NaN(), now.UnixMilli(), false},
		{"object", map[string]any{"at": 1}, now.UnixMilli(), false},
		{"beyond int64", 1e20, now.UnixMilli(), false},
		{"beyond int64 string", "-1e20", now.UnixMilli(), false},
		{"date only is utc", "2024-01-15", 1705276800000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimestampStrict(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, ParseTimestamp(tt.in))
		})
	}
}
