package moods

import (
	"database/sql"
	"encoding/json"
	"strings"
)

// emptyArray is how an empty list is stored.
const emptyArray = "[]"

// SerializeArray encodes at most the first MaxListItems strings, in order.
func SerializeArray(items []string) string {
	if len(items) == 0 {
		return emptyArray
	}
	b, err := json.Marshal(truncate(items))
	if err != nil {
		return emptyArray
	}
	return string(b)
}

// SerializeEmotions encodes at most the first MaxListItems emotions, in order.
func SerializeEmotions(emotions []Emotion) string {
	if len(emotions) == 0 {
		return emptyArray
	}
	b, err := json.Marshal(truncate(emotions))
	if err != nil {
		return emptyArray
	}
	return string(b)
}

// DeserializeArray decodes a stored string list. Anything that is not a JSON
// array yields an empty list; non-string items are dropped.
func DeserializeArray(text string) []string {
	var raw []any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return []string{}
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// DeserializeEmotions decodes a stored emotion list. Bare strings are read as
// neutral emotions; objects survive only with a name and a valid category.
func DeserializeEmotions(text string) []Emotion {
	var raw []any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return []Emotion{}
	}
	out := make([]Emotion, 0, len(raw))
	for _, item := range raw {
		if e, ok := parseEmotionItem(item); ok {
			out = append(out, e)
		}
	}
	return out
}

// parseEmotionItem is the strict item parser shared by stored blobs and
// current-format imports.
func parseEmotionItem(item any) (Emotion, bool) {
	switch v := item.(type) {
	case string:
		name := strings.TrimSpace(v)
		if name == "" {
			return Emotion{}, false
		}
		return Emotion{Name: name, Category: CategoryNeutral}, true
	case map[string]any:
		name, _ := v["name"].(string)
		name = strings.TrimSpace(name)
		cat, _ := v["category"].(string)
		c := Category(cat)
		if name == "" || !c.Valid() {
			return Emotion{}, false
		}
		return Emotion{Name: name, Category: c}, true
	case Emotion:
		return parseEmotionItem(map[string]any{"name": v.Name, "category": string(v.Category)})
	}
	return Emotion{}, false
}

// serializeLocation returns the column value for loc.
func serializeLocation(loc *Location) any {
	if loc == nil {
		return nil
	}
	b, err := json.Marshal(loc)
	if err != nil {
		return nil
	}
	return string(b)
}

// deserializeLocation reads a stored location, dropping anything out of range.
func deserializeLocation(col sql.NullString) *Location {
	if !col.Valid || col.String == "" {
		return nil
	}
	var raw any
	if err := json.Unmarshal([]byte(col.String), &raw); err != nil {
		return nil
	}
	return SanitizeLocation(raw)
}

func truncate[T any](items []T) []T {
	if len(items) > MaxListItems {
		return items[:MaxListItems]
	}
	return items
}
