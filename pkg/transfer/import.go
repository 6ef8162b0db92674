package transfer

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	pkgdb "github.com/unowned-ai/moodlog/pkg/db"
	"github.com/unowned-ai/moodlog/pkg/moods"
)

// ErrMalformedPayload is returned when an import payload is not a JSON array.
// Nothing is written in that case.
var ErrMalformedPayload = errors.New("malformed import payload")

// RowDefect describes why one import row could not be used.
type RowDefect struct {
	Index  int
	Field  string
	Reason string
}

func (d *RowDefect) Error() string {
	return fmt.Sprintf("row %d: %s: %s", d.Index, d.Field, d.Reason)
}

// ImportResult summarizes one import run.
type ImportResult struct {
	BatchID  uuid.UUID `json:"batchId"`
	Imported int       `json:"imported"`
	Skipped  int       `json:"skipped"`
	Errors   []string  `json:"errors"`
	Warnings []string  `json:"warnings,omitempty"`
}

// rowOutcome is either a usable entry or a defect, plus any non-fatal notes
// the sanitizers produced.
type rowOutcome struct {
	entry    moods.NormalizedEntry
	defect   *RowDefect
	warnings []string
}

func (o *rowOutcome) warn(index int, format string, args ...any) {
	o.warnings = append(o.warnings, fmt.Sprintf("row %d: ", index)+fmt.Sprintf(format, args...))
}

func defect(index int, field, format string, args ...any) rowOutcome {
	return rowOutcome{defect: &RowDefect{Index: index, Field: field, Reason: fmt.Sprintf(format, args...)}}
}

// parsePayload decodes the whole payload as one JSON array.
func parsePayload(data []byte) ([]any, error) {
	var top any
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	items, ok := top.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level is not an array", ErrMalformedPayload)
	}
	return items, nil
}

// ImportCurrent imports an export-format payload. Rows with a missing or
// invalid mood are skipped and reported; every other row is sanitized and
// inserted. All inserts share one transaction, so a storage failure leaves
// the store untouched.
func ImportCurrent(ctx context.Context, db *sql.DB, data []byte) (ImportResult, error) {
	items, err := parsePayload(data)
	if err != nil {
		return ImportResult{}, err
	}

	res := newResult()
	err = pkgdb.WithTx(ctx, db, func(tx *sql.Tx) error {
		for i, raw := range items {
			out := decodeRow(i, raw, false, func(item any) (moods.Emotion, bool) {
				emotions := moods.SanitizeImportedEmotions([]any{item})
				if len(emotions) == 0 {
					return moods.Emotion{}, false
				}
				return emotions[0], true
			})
			res.Warnings = append(res.Warnings, out.warnings...)
			if out.defect != nil {
				res.Skipped++
				res.Errors = append(res.Errors, out.defect.Error())
				continue
			}
			if _, err := moods.InsertNormalized(ctx, tx, out.entry); err != nil {
				slog.Error("import aborted", "batch", res.BatchID, "row", i, "error", err)
				return err
			}
			res.Imported++
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	slog.Info("import finished", "batch", res.BatchID, "format", "current", "imported", res.Imported, "skipped", res.Skipped)
	return res, nil
}

// ImportLegacy imports payloads written by older exports: emotions may be
// bare names resolved against the catalog, timestamps may be date strings.
// The first defective row aborts the whole import and is returned as a
// *RowDefect.
func ImportLegacy(ctx context.Context, db *sql.DB, data []byte) (ImportResult, error) {
	items, err := parsePayload(data)
	if err != nil {
		return ImportResult{}, err
	}

	res := newResult()
	err = pkgdb.WithTx(ctx, db, func(tx *sql.Tx) error {
		lookup, err := moods.LoadCatalog(ctx, tx)
		if err != nil {
			return err
		}
		for i, raw := range items {
			out := decodeRow(i, raw, true, func(item any) (moods.Emotion, bool) {
				return moods.ParseLegacyEmotion(item, lookup)
			})
			if out.defect != nil {
				return out.defect
			}
			res.Warnings = append(res.Warnings, out.warnings...)
			if _, err := moods.InsertNormalized(ctx, tx, out.entry); err != nil {
				slog.Error("legacy import aborted", "batch", res.BatchID, "row", i, "error", err)
				return err
			}
			res.Imported++
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	slog.Info("import finished", "batch", res.BatchID, "format", "legacy", "imported", res.Imported)
	return res, nil
}

func newResult() ImportResult {
	return ImportResult{BatchID: uuid.New(), Errors: []string{}}
}

// aliased returns obj[preferred] when that key is present, else obj[fallback].
func aliased(obj map[string]any, preferred, fallback string) (any, bool) {
	if v, ok := obj[preferred]; ok {
		return v, true
	}
	v, ok := obj[fallback]
	return v, ok
}

// decodeRow turns one payload item into an outcome. Only the mood can make a
// row defective; every other field degrades to a safe default.
func decodeRow(index int, raw any, lenient bool, parseEmotion func(any) (moods.Emotion, bool)) rowOutcome {
	obj, ok := raw.(map[string]any)
	if !ok {
		return defect(index, "row", "expected an object, got %s", jsonKind(raw))
	}

	mood, out := decodeMood(index, obj["mood"], lenient)
	if out.defect != nil {
		return out
	}

	n := moods.NormalizedEntry{Mood: mood}

	rawTS, hasTS := obj["timestamp"]
	ts, ok := moods.ParseTimestampStrict(rawTS)
	if hasTS && rawTS != nil && !ok {
		out.warn(index, "timestamp %v not understood, using import time", rawTS)
	}
	n.Timestamp = ts

	if v, ok := aliased(obj, "notes", "note"); ok && v != nil {
		if s, isString := v.(string); isString {
			n.Note = &s
		} else {
			out.warn(index, "notes is %s, dropped", jsonKind(v))
		}
	}

	if v, ok := aliased(obj, "contextTags", "context"); ok {
		n.ContextTags = moods.SanitizeImportedArray(v)
	} else {
		n.ContextTags = []string{}
	}

	n.Emotions = []moods.Emotion{}
	if arr, isArray := obj["emotions"].([]any); isArray {
		for _, item := range arr {
			if e, ok := parseEmotion(item); ok {
				n.Emotions = append(n.Emotions, e)
			}
		}
		if dropped := len(arr) - len(n.Emotions); dropped > 0 {
			out.warn(index, "%d malformed emotion(s) dropped", dropped)
		}
		if len(n.Emotions) > moods.MaxListItems {
			n.Emotions = n.Emotions[:moods.MaxListItems]
		}
	}

	if v, ok := obj["energy"]; ok && v != nil {
		n.Energy = moods.SanitizeEnergy(v)
		if n.Energy == nil {
			out.warn(index, "energy %v is not a number, dropped", v)
		} else if f, isNum := v.(float64); isNum && f != float64(*n.Energy) {
			out.warn(index, "energy %v stored as %d", v, *n.Energy)
		}
	}

	n.Photos = moods.SanitizeImportedArray(obj["photos"])
	n.VoiceMemos = moods.SanitizeImportedArray(obj["voiceMemos"])
	if v, ok := obj["location"]; ok && v != nil {
		if n.Location = moods.SanitizeLocation(v); n.Location == nil {
			out.warn(index, "location dropped")
		}
	}

	out.entry = n
	return out
}

// decodeMood validates the mood of a row. Legacy payloads may carry the mood
// as a numeric string.
func decodeMood(index int, v any, lenient bool) (int, rowOutcome) {
	if v == nil {
		return 0, defect(index, "mood", "missing mood")
	}
	var f float64
	switch m := v.(type) {
	case float64:
		f = m
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(m), 64)
		if !lenient || err != nil {
			return 0, defect(index, "mood", "mood must be a number, got %q", m)
		}
		f = parsed
	default:
		return 0, defect(index, "mood", "mood must be a number, got %s", jsonKind(v))
	}
	if math.IsNaN(f) || f != math.Trunc(f) {
		return 0, defect(index, "mood", "mood %v is not a whole number", f)
	}
	if f < moods.MinMood || f > moods.MaxMood {
		return 0, defect(index, "mood", "mood %v is out of range %d-%d", f, moods.MinMood, moods.MaxMood)
	}
	return int(f), rowOutcome{}
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case float64:
		return "a number"
	case string:
		return "a string"
	case []any:
		return "an array"
	case map[string]any:
		return "an object"
	}
	return fmt.Sprintf("%T", v)
}
