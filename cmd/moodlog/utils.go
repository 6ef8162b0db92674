package main

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	pkgdb "github.com/unowned-ai/moodlog/pkg/db"
	"github.com/unowned-ai/moodlog/pkg/moods"
)

var (
	dbPath   string
	walMode  bool
	syncMode string
	logLevel string
)

func dbConfig() pkgdb.Config {
	cfg := pkgdb.DefaultConfig()
	if dbPath != "" {
		cfg.Path = dbPath
	}
	cfg.WAL = walMode
	cfg.Sync = syncMode
	return cfg
}

// openDB opens and bootstraps the configured database.
func openDB(cmd *cobra.Command) (*sql.DB, error) {
	return pkgdb.Open(cmd.Context(), dbConfig())
}

// setupLogging sends slog output to stderr so stdout stays usable for data.
func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid entry ID: %q", arg)
	}
	return id, nil
}

// parseTimeFlag accepts epoch milliseconds or an ISO 8601 date/time.
func parseTimeFlag(name, value string) (int64, error) {
	ts, ok := moods.ParseTimestampStrict(value)
	if !ok {
		return 0, fmt.Errorf("invalid --%s %q: want epoch milliseconds or an ISO 8601 date/time", name, value)
	}
	return ts, nil
}

// formatTimestamp renders epoch milliseconds as local RFC3339.
func formatTimestamp(ms int64) string {
	return time.UnixMilli(ms).Local().Format(time.RFC3339)
}

func formatEmotions(p palette, emotions []moods.Emotion) string {
	if len(emotions) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(emotions))
	for _, e := range emotions {
		parts = append(parts, p.category(e.Category, fmt.Sprintf("%s (%s)", e.Name, e.Category)))
	}
	return strings.Join(parts, ", ")
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func printEntry(w io.Writer, e moods.MoodEntry) {
	p := newPalette(w)
	fmt.Fprintln(w, p.title.Render("Entry Details:"))
	fmt.Fprintf(w, "ID:          %d\n", e.ID)
	fmt.Fprintf(w, "Mood:        %s\n", p.mood(e.Mood, fmt.Sprintf("%d/10", e.Mood)))
	if e.Energy != nil {
		fmt.Fprintf(w, "Energy:      %d/10\n", *e.Energy)
	}
	fmt.Fprintf(w, "Time:        %s\n", formatTimestamp(e.Timestamp))
	fmt.Fprintf(w, "Emotions:    %s\n", formatEmotions(p, e.Emotions))
	fmt.Fprintf(w, "Context:     %s\n", formatList(e.ContextTags))
	if len(e.Photos) > 0 {
		fmt.Fprintf(w, "Photos:      %s\n", formatList(e.Photos))
	}
	if len(e.VoiceMemos) > 0 {
		fmt.Fprintf(w, "Voice memos: %s\n", formatList(e.VoiceMemos))
	}
	if e.Location != nil {
		fmt.Fprintf(w, "Location:    %.5f, %.5f %s\n", e.Location.Latitude, e.Location.Longitude, e.Location.Name)
	}
	if e.BasedOnEntryID != nil {
		fmt.Fprintf(w, "Based on:    %d\n", *e.BasedOnEntryID)
	}
	if e.Note != nil {
		fmt.Fprintln(w, "\nNote:")
		fmt.Fprintln(w, "------------------------------------------------------------")
		fmt.Fprintln(w, *e.Note)
		fmt.Fprintln(w, "------------------------------------------------------------")
	}
}

func printEntryRows(w io.Writer, entries []moods.MoodEntry) {
	p := newPalette(w)
	fmt.Fprintln(w, p.header.Render("ID | Time | Mood | Energy | Emotions | Context"))
	fmt.Fprintln(w, "------------------------------------------------------------")
	for _, e := range entries {
		energy := "-"
		if e.Energy != nil {
			energy = strconv.Itoa(*e.Energy)
		}
		fmt.Fprintf(w, "%d | %s | %s | %s | %s | %s\n",
			e.ID, formatTimestamp(e.Timestamp), p.mood(e.Mood, strconv.Itoa(e.Mood)), energy, formatEmotions(p, e.Emotions), formatList(e.ContextTags))
	}
}
