package transfer

import (
	"fmt"
	"strings"
	"time"

	"github.com/unowned-ai/moodlog/pkg/moods"
)

// ExportRow is one element of the export wire format. Its keys are stable and
// intentionally differ from the store's field names.
type ExportRow struct {
	Timestamp int64           `json:"timestamp" jsonschema:"required,description=Milliseconds since the Unix epoch"`
	Mood      int             `json:"mood" jsonschema:"required,minimum=0,maximum=10"`
	Emotions  []moods.Emotion `json:"emotions" jsonschema:"required,maxItems=50"`
	Context   []string        `json:"context" jsonschema:"required,maxItems=50"`
	Energy    *int            `json:"energy" jsonschema:"required,nullable,minimum=0,maximum=10"`
	Notes     *string         `json:"notes" jsonschema:"required,nullable"`
}

func toExportRow(e moods.MoodEntry) ExportRow {
	row := ExportRow{
		Timestamp: e.Timestamp,
		Mood:      e.Mood,
		Emotions:  e.Emotions,
		Context:   e.ContextTags,
		Energy:    e.Energy,
		Notes:     e.Note,
	}
	if row.Emotions == nil {
		row.Emotions = []moods.Emotion{}
	}
	if row.Context == nil {
		row.Context = []string{}
	}
	return row
}

// Preset names a rolling export window ending now.
type Preset string

const (
	PresetLast7Days  Preset = "7d"
	PresetLast14Days Preset = "14d"
	PresetLast30Days Preset = "30d"
)

var presetDays = map[Preset]int{
	PresetLast7Days:  7,
	PresetLast14Days: 14,
	PresetLast30Days: 30,
}

// Presets lists the accepted preset names.
func Presets() []Preset {
	return []Preset{PresetLast7Days, PresetLast14Days, PresetLast30Days}
}

// ParsePreset accepts "7d", "14d" or "30d".
func ParsePreset(s string) (Preset, error) {
	p := Preset(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := presetDays[p]; !ok {
		return "", fmt.Errorf("unknown export preset %q (want 7d, 14d or 30d)", s)
	}
	return p, nil
}

// Range selects the entries to export. Either Preset is set, or Start and End
// bound the timestamps inclusively.
type Range struct {
	Preset Preset
	Start  int64
	End    int64
}

// PresetRange returns the range for p.
func PresetRange(p Preset) *Range {
	return &Range{Preset: p}
}

// Between returns an explicit inclusive range.
func Between(start, end time.Time) *Range {
	return &Range{Start: start.UnixMilli(), End: end.UnixMilli()}
}

// Bounds resolves r against now.
func (r Range) Bounds(now time.Time) (start, end int64, err error) {
	if r.Preset != "" {
		days, ok := presetDays[r.Preset]
		if !ok {
			return 0, 0, fmt.Errorf("unknown export preset %q", r.Preset)
		}
		return now.AddDate(0, 0, -days).UnixMilli(), now.UnixMilli(), nil
	}
	if r.End < r.Start {
		return 0, 0, fmt.Errorf("export range ends before it starts")
	}
	return r.Start, r.End, nil
}
