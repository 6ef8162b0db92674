package moods

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// nowFunc is replaced in tests.
var nowFunc = time.Now

func nowMillis() int64 {
	return nowFunc().UnixMilli()
}

// timestampLayouts are tried in order after a string fails to parse as a
// number. Date-times without an offset are local; a bare date is UTC midnight.
var timestampLayouts = []struct {
	layout string
	loc    *time.Location
}{
	{time.RFC3339Nano, time.Local},
	{time.RFC3339, time.Local},
	{"2006-01-02T15:04:05.000", time.Local},
	{"2006-01-02T15:04:05", time.Local},
	{"2006-01-02 15:04:05", time.Local},
	{"2006-01-02T15:04", time.Local},
	{time.DateOnly, time.UTC},
}

// millisFromFloat truncates f to int64, rejecting values int64 cannot hold.
func millisFromFloat(f float64) (int64, bool) {
	if !isFinite(f) || math.Abs(f) >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// ParseTimestamp converts a date-like value to epoch milliseconds. Values it
// cannot interpret become the current time.
func ParseTimestamp(v any) int64 {
	ts, _ := ParseTimestampStrict(v)
	return ts
}

// ParseTimestampStrict is ParseTimestamp that also reports whether v was
// understood. When ok is false the returned value is the current time.
func ParseTimestampStrict(v any) (ts int64, ok bool) {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			break
		}
		return t.UnixMilli(), true
	case *time.Time:
		if t != nil {
			return ParseTimestampStrict(*t)
		}
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			break
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			if ms, inRange := millisFromFloat(f); inRange {
				return ms, true
			}
			break
		}
		for _, l := range timestampLayouts {
			if parsed, err := time.ParseInLocation(l.layout, s, l.loc); err == nil {
				return parsed.UnixMilli(), true
			}
		}
	default:
		if f, isNum := toFloat(v); isNum {
			if ms, inRange := millisFromFloat(f); inRange {
				return ms, true
			}
		}
	}
	return nowMillis(), false
}

// SanitizeEnergy rounds a numeric value to the nearest integer and clamps it
// to [0,10]. Nil, non-numeric and NaN values yield nil.
func SanitizeEnergy(v any) *int {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) {
		return nil
	}
	n := int(math.Max(0, math.Min(10, math.Round(f))))
	return &n
}

// SanitizeImportedArray keeps the string items of an array, up to MaxListItems.
func SanitizeImportedArray(v any) []string {
	out := []string{}
	switch arr := v.(type) {
	case []string:
		out = append(out, arr...)
	case []any:
		for _, item := range arr {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	}
	return truncate(out)
}

// SanitizeImportedEmotions keeps well-formed emotion items of an array, up to
// MaxListItems. Bare strings become neutral emotions.
func SanitizeImportedEmotions(v any) []Emotion {
	out := []Emotion{}
	switch arr := v.(type) {
	case []Emotion:
		for _, item := range arr {
			if e, ok := parseEmotionItem(item); ok {
				out = append(out, e)
			}
		}
	case []any:
		for _, item := range arr {
			if e, ok := parseEmotionItem(item); ok {
				out = append(out, e)
			}
		}
	}
	return truncate(out)
}

// CategoryLookup resolves the catalog category of a name, if the catalog has one.
type CategoryLookup func(name string) (Category, bool)

// ParseLegacyEmotion reads one emotion item written by older exports. A bare
// string takes the catalog category for that name, or neutral. An object
// needs a name; its own category wins when valid, then the catalog's, then
// neutral.
func ParseLegacyEmotion(item any, lookup CategoryLookup) (Emotion, bool) {
	resolve := func(name string) Category {
		if lookup != nil {
			if c, ok := lookup(name); ok {
				return c
			}
		}
		return CategoryNeutral
	}

	switch v := item.(type) {
	case string:
		name := strings.TrimSpace(v)
		if name == "" {
			return Emotion{}, false
		}
		return Emotion{Name: name, Category: resolve(name)}, true
	case map[string]any:
		name, _ := v["name"].(string)
		name = strings.TrimSpace(name)
		if name == "" {
			return Emotion{}, false
		}
		if raw, ok := v["category"].(string); ok {
			if c, ok := ParseCategory(raw); ok {
				return Emotion{Name: name, Category: c}, true
			}
		}
		return Emotion{Name: name, Category: resolve(name)}, true
	}
	return Emotion{}, false
}

// SanitizeLocation accepts a location object with finite coordinates in range.
func SanitizeLocation(v any) *Location {
	switch t := v.(type) {
	case *Location:
		if t == nil {
			return nil
		}
		return SanitizeLocation(*t)
	case Location:
		if !validCoordinates(t.Latitude, t.Longitude) {
			return nil
		}
		loc := t
		loc.Name = strings.TrimSpace(loc.Name)
		return &loc
	case map[string]any:
		lat, okLat := toFloat(t["latitude"])
		lng, okLng := toFloat(t["longitude"])
		if !okLat || !okLng {
			return nil
		}
		name, _ := t["name"].(string)
		return SanitizeLocation(Location{Latitude: lat, Longitude: lng, Name: name})
	}
	return nil
}

func validCoordinates(lat, lng float64) bool {
	return isFinite(lat) && isFinite(lng) &&
		lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// NormalizeInput applies the defaults of an omitted field and the list caps.
func NormalizeInput(in EntryInput) NormalizedEntry {
	n := NormalizedEntry{
		Mood:           in.Mood,
		Note:           in.Note,
		Emotions:       normalizeEmotions(in.Emotions),
		ContextTags:    normalizeList(in.ContextTags),
		Photos:         normalizeList(in.Photos),
		VoiceMemos:     normalizeList(in.VoiceMemos),
		Location:       SanitizeLocation(in.Location),
		BasedOnEntryID: in.BasedOnEntryID,
	}
	if in.Timestamp != nil {
		n.Timestamp = *in.Timestamp
	} else {
		n.Timestamp = nowMillis()
	}
	if in.Energy != nil {
		n.Energy = SanitizeEnergy(*in.Energy)
	}
	return n
}

func normalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	out = append(out, truncate(items)...)
	return out
}

// normalizeEmotions trims names, drops invalid items and keeps the first
// occurrence of each name, so a snapshot never holds two spellings of one
// catalog row.
func normalizeEmotions(emotions []Emotion) []Emotion {
	out := make([]Emotion, 0, len(emotions))
	seen := make(map[string]bool, len(emotions))
	for _, e := range emotions {
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" || !e.Category.Valid() || seen[e.Key()] {
			continue
		}
		seen[e.Key()] = true
		out = append(out, e)
	}
	return truncate(out)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// toFloat reports the numeric value of v. Strings are not numbers.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case *float64:
		if n == nil {
			return 0, false
		}
		return *n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case *int:
		if n == nil {
			return 0, false
		}
		return float64(*n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
