package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/unowned-ai/moodlog/pkg/moods"
)

var logCmd = &cobra.Command{
	Use:   "log [mood]",
	Short: "Record a mood from 0 to 10",
	Long: `Record a mood entry. Emotions are given as a comma separated list of
"Name" or "Name:category" (positive, negative, neutral); unknown names are
added to the emotion catalog.

Example:
  moodlog log 7 --emotions "Happy:positive,Tired" --tags work,gym --energy 6 --note "long day"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mood, err := parseMoodArg(args[0])
		if err != nil {
			return err
		}
		in := moods.EntryInput{Mood: mood}
		flags := cmd.Flags()

		if flags.Changed("note") {
			note, _ := flags.GetString("note")
			in.Note = &note
		}
		emotionsStr, _ := flags.GetString("emotions")
		if in.Emotions, err = moods.ParseEmotionList(emotionsStr); err != nil {
			return err
		}
		tagsStr, _ := flags.GetString("tags")
		in.ContextTags = moods.ParseTagList(tagsStr)
		in.Photos, _ = flags.GetStringSlice("photo")
		in.VoiceMemos, _ = flags.GetStringSlice("voice-memo")

		if flags.Changed("energy") {
			energy, _ := flags.GetFloat64("energy")
			in.Energy = &energy
		}
		if flags.Changed("at") {
			at, _ := flags.GetString("at")
			ts, err := parseTimeFlag("at", at)
			if err != nil {
				return err
			}
			in.Timestamp = &ts
		}
		if flags.Changed("lat") || flags.Changed("lon") {
			if !flags.Changed("lat") || !flags.Changed("lon") {
				return errors.New("--lat and --lon must be given together")
			}
			lat, _ := flags.GetFloat64("lat")
			lon, _ := flags.GetFloat64("lon")
			place, _ := flags.GetString("place")
			in.Location = &moods.Location{Latitude: lat, Longitude: lon, Name: place}
		}

		dbConn, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		entry, err := moods.InsertEntry(cmd.Context(), dbConn, in)
		if err != nil {
			return fmt.Errorf("failed to log mood: %w", err)
		}
		printEntry(cmd.OutOrStdout(), entry)
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get [entry-id]",
	Short: "Show an entry by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		dbConn, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		entry, err := moods.GetEntry(cmd.Context(), dbConn, id)
		if errors.Is(err, moods.ErrEntryNotFound) {
			return fmt.Errorf("entry not found: %d", id)
		}
		if err != nil {
			return fmt.Errorf("failed to get entry: %w", err)
		}
		printEntry(cmd.OutOrStdout(), entry)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List entries, newest first",
	Long: `List entries newest first, one page at a time. With --from or --to, list
every entry in that inclusive time range instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		asJSON, _ := flags.GetBool("json")

		dbConn, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		var entries []moods.MoodEntry
		footer := ""
		if flags.Changed("from") || flags.Changed("to") {
			start, end, err := rangeFlags(cmd)
			if err != nil {
				return err
			}
			if entries, err = moods.ListEntriesInRange(cmd.Context(), dbConn, start, end); err != nil {
				return fmt.Errorf("failed to list entries: %w", err)
			}
		} else {
			limit, _ := flags.GetInt("limit")
			offset, _ := flags.GetInt("offset")
			page, err := moods.ListEntriesPage(cmd.Context(), dbConn, limit, offset)
			if err != nil {
				return fmt.Errorf("failed to list entries: %w", err)
			}
			entries = page.Entries
			footer = fmt.Sprintf("Showing %d-%d of %d.", page.Offset+1, page.Offset+len(page.Entries), page.Total)
			if page.HasMore {
				footer += fmt.Sprintf(" Use --offset %d for more.", page.Offset+len(page.Entries))
			}
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(out, "No entries found.")
			return nil
		}
		printEntryRows(out, entries)
		if footer != "" {
			fmt.Fprintln(out, footer)
		}
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:   "update [entry-id]",
	Short: "Change fields of an entry",
	Long: `Change fields of an entry. Only flags that are given are applied;
--emotions "" and --tags "" clear those lists.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		flags := cmd.Flags()

		var patch moods.EntryPatch
		if flags.Changed("mood") {
			mood, _ := flags.GetInt("mood")
			patch.Mood = moods.Some(mood)
		}
		if flags.Changed("note") {
			note, _ := flags.GetString("note")
			patch.Note = moods.Some(&note)
		}
		if clearNote, _ := flags.GetBool("clear-note"); clearNote {
			patch.Note = moods.Null[string]()
		}
		if flags.Changed("emotions") {
			emotionsStr, _ := flags.GetString("emotions")
			emotions, err := moods.ParseEmotionList(emotionsStr)
			if err != nil {
				return err
			}
			patch.Emotions = moods.Some(emotions)
		}
		if flags.Changed("tags") {
			tagsStr, _ := flags.GetString("tags")
			patch.ContextTags = moods.Some(moods.ParseTagList(tagsStr))
		}
		if flags.Changed("energy") {
			energy, _ := flags.GetFloat64("energy")
			patch.Energy = moods.Some(&energy)
		}
		if clearEnergy, _ := flags.GetBool("clear-energy"); clearEnergy {
			patch.Energy = moods.Null[float64]()
		}
		if flags.Changed("at") {
			at, _ := flags.GetString("at")
			ts, err := parseTimeFlag("at", at)
			if err != nil {
				return err
			}
			patch.Timestamp = moods.Some(ts)
		}
		if patch.Empty() {
			return errors.New("nothing to update: pass at least one of --mood, --note, --clear-note, --emotions, --tags, --energy, --clear-energy, --at")
		}

		dbConn, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		entry, err := moods.UpdateEntry(cmd.Context(), dbConn, id, patch)
		if errors.Is(err, moods.ErrEntryNotFound) {
			return fmt.Errorf("entry not found: %d", id)
		}
		if err != nil {
			return fmt.Errorf("failed to update entry: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Entry updated successfully!")
		printEntry(cmd.OutOrStdout(), entry)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [entry-id]",
	Short: "Permanently delete an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		dbConn, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		n, err := moods.DeleteEntry(cmd.Context(), dbConn, id)
		if err != nil {
			return fmt.Errorf("failed to delete entry: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("entry not found: %d", id)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Entry %d deleted.\n", id)
		return nil
	},
}

var cloneCmd = &cobra.Command{
	Use:   "clone [entry-id]",
	Short: "Record a new entry copying an existing one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		var ts *int64
		if cmd.Flags().Changed("at") {
			at, _ := cmd.Flags().GetString("at")
			parsed, err := parseTimeFlag("at", at)
			if err != nil {
				return err
			}
			ts = &parsed
		}

		dbConn, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		entry, err := moods.CloneEntry(cmd.Context(), dbConn, id, ts)
		if errors.Is(err, moods.ErrEntryNotFound) {
			return fmt.Errorf("entry not found: %d", id)
		}
		if err != nil {
			return fmt.Errorf("failed to clone entry: %w", err)
		}
		printEntry(cmd.OutOrStdout(), entry)
		return nil
	},
}

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Report whether a mood was logged today",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbConn, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		logged, err := moods.LoggedToday(cmd.Context(), dbConn)
		if err != nil {
			return fmt.Errorf("failed to check today's entries: %w", err)
		}
		if logged {
			fmt.Fprintln(cmd.OutOrStdout(), "A mood was logged today.")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "No mood logged today yet.")
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize all entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbConn, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		stats, err := moods.GetStats(cmd.Context(), dbConn)
		if err != nil {
			return fmt.Errorf("failed to compute stats: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Entries:        %d\n", stats.Count)
		if stats.AverageMood != nil {
			fmt.Fprintf(out, "Average mood:   %.2f\n", *stats.AverageMood)
		}
		if stats.AverageEnergy != nil {
			fmt.Fprintf(out, "Average energy: %.2f\n", *stats.AverageEnergy)
		}
		if stats.FirstTimestamp != nil && stats.LastTimestamp != nil {
			fmt.Fprintf(out, "First entry:    %s\n", formatTimestamp(*stats.FirstTimestamp))
			fmt.Fprintf(out, "Last entry:     %s\n", formatTimestamp(*stats.LastTimestamp))
		}
		return nil
	},
}

var entryCmds = []*cobra.Command{logCmd, getCmd, listCmd, updateCmd, deleteCmd, cloneCmd, todayCmd, statsCmd}

func parseMoodArg(arg string) (int, error) {
	mood, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || mood < moods.MinMood || mood > moods.MaxMood {
		return 0, fmt.Errorf("%w: got %q", moods.ErrInvalidMood, arg)
	}
	return mood, nil
}

// rangeFlags resolves --from/--to. A missing --to means now.
func rangeFlags(cmd *cobra.Command) (start, end int64, err error) {
	end = moods.ParseTimestamp(nil)
	if cmd.Flags().Changed("from") {
		from, _ := cmd.Flags().GetString("from")
		if start, err = parseTimeFlag("from", from); err != nil {
			return 0, 0, err
		}
	}
	if cmd.Flags().Changed("to") {
		to, _ := cmd.Flags().GetString("to")
		if end, err = parseTimeFlag("to", to); err != nil {
			return 0, 0, err
		}
	}
	if end < start {
		return 0, 0, errors.New("--to must not be before --from")
	}
	return start, end, nil
}

func initEntriesCmds() {
	logCmd.Flags().String("note", "", "Free-text note")
	logCmd.Flags().String("emotions", "", `Comma separated emotions, each "Name" or "Name:category"`)
	logCmd.Flags().String("tags", "", "Comma separated context tags")
	logCmd.Flags().Float64("energy", 0, "Energy level 0-10 (rounded and clamped)")
	logCmd.Flags().String("at", "", "Time of the entry (epoch milliseconds or ISO 8601); defaults to now")
	logCmd.Flags().Float64("lat", 0, "Latitude of the location")
	logCmd.Flags().Float64("lon", 0, "Longitude of the location")
	logCmd.Flags().String("place", "", "Name of the location")
	logCmd.Flags().StringSlice("photo", nil, "Photo reference (repeatable)")
	logCmd.Flags().StringSlice("voice-memo", nil, "Voice memo reference (repeatable)")

	listCmd.Flags().Int("limit", moods.DefaultPageSize, "Entries per page")
	listCmd.Flags().Int("offset", 0, "Entries to skip")
	listCmd.Flags().String("from", "", "Range start (epoch milliseconds or ISO 8601)")
	listCmd.Flags().String("to", "", "Range end (epoch milliseconds or ISO 8601); defaults to now")
	listCmd.Flags().Bool("json", false, "Print entries as JSON")

	updateCmd.Flags().Int("mood", 0, "New mood 0-10")
	updateCmd.Flags().String("note", "", "New note")
	updateCmd.Flags().Bool("clear-note", false, "Remove the note")
	updateCmd.Flags().String("emotions", "", "Replacement emotions")
	updateCmd.Flags().String("tags", "", "Replacement context tags")
	updateCmd.Flags().Float64("energy", 0, "New energy level")
	updateCmd.Flags().Bool("clear-energy", false, "Remove the energy level")
	updateCmd.Flags().String("at", "", "New time of the entry")

	cloneCmd.Flags().String("at", "", "Time of the copy; defaults to now")
}
