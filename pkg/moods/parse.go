package moods

import (
	"fmt"
	"strings"
)

// ParseEmotionArg reads "Name" or "Name:category". A missing category is neutral.
func ParseEmotionArg(arg string) (Emotion, error) {
	name, rawCategory, hasCategory := strings.Cut(arg, ":")
	e := Emotion{Name: strings.TrimSpace(name), Category: CategoryNeutral}
	if hasCategory {
		c, ok := ParseCategory(rawCategory)
		if !ok {
			return Emotion{}, fmt.Errorf("%w: unknown category %q for %q", ErrInvalidEmotion, rawCategory, e.Name)
		}
		e.Category = c
	}
	return normalizeEmotion(e)
}

// ParseEmotionList reads a comma separated list of Name[:category] items. Empty items
// are skipped.
func ParseEmotionList(list string) ([]Emotion, error) {
	out := []Emotion{}
	for _, item := range strings.Split(list, ",") {
		if strings.TrimSpace(item) == "" {
			continue
		}
		e, err := ParseEmotionArg(item)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// ParseTagList splits a comma separated list, trimming items and dropping empty ones.
func ParseTagList(list string) []string {
	out := []string{}
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
