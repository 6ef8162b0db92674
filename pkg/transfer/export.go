package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/unowned-ai/moodlog/pkg/moods"
)

// nowFunc is replaced in tests.
var nowFunc = time.Now

// Export returns the entries selected by r in the wire format, newest first.
// A nil range exports everything.
func Export(ctx context.Context, db moods.DBTX, r *Range) ([]ExportRow, error) {
	var (
		entries []moods.MoodEntry
		err     error
	)
	if r == nil {
		entries, err = moods.ListEntries(ctx, db)
	} else {
		start, end, rangeErr := r.Bounds(nowFunc())
		if rangeErr != nil {
			return nil, rangeErr
		}
		entries, err = moods.ListEntriesInRange(ctx, db, start, end)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read entries for export: %w", err)
	}

	rows := make([]ExportRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, toExportRow(e))
	}
	return rows, nil
}

// ExportJSON is Export encoded as an indented JSON array.
func ExportJSON(ctx context.Context, db moods.DBTX, r *Range) ([]byte, error) {
	rows, err := Export(ctx, db, r)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(rows, "", "  ")
}
