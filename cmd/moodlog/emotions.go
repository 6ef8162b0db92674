package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/unowned-ai/moodlog/pkg/moods"
)

var emotionsCmd = &cobra.Command{
	Use:   "emotions",
	Short: "Manage the emotion catalog",
	Long: `List, add, rename, recategorize and remove emotions. Renames, category
changes and removals are applied to every entry that uses the emotion.`,
}

var listEmotionsCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog emotions",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbConn, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		records, err := moods.ListEmotions(cmd.Context(), dbConn)
		if err != nil {
			return fmt.Errorf("failed to list emotions: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(records) == 0 {
			fmt.Fprintln(out, "No emotions in the catalog.")
			return nil
		}
		fmt.Fprintln(out, "Name | Category | Created At")
		fmt.Fprintln(out, "------------------------------------------------------------")
		for _, r := range records {
			fmt.Fprintf(out, "%s | %s | %s\n", r.Name, r.Category, r.CreatedAt.Local().Format(time.RFC3339))
		}
		return nil
	},
}

var addEmotionCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add an emotion to the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, err := categoryFlag(cmd, moods.CategoryNeutral)
		if err != nil {
			return err
		}
		dbConn, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		record, err := moods.AddEmotion(cmd.Context(), dbConn, moods.Emotion{Name: args[0], Category: category})
		if errors.Is(err, moods.ErrDuplicateEmotion) {
			return fmt.Errorf("emotion already exists: %s", args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to add emotion: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Emotion %s (%s) added.\n", record.Name, record.Category)
		return nil
	},
}

var renameEmotionCmd = &cobra.Command{
	Use:   "rename [old-name] [new-name]",
	Short: "Rename an emotion everywhere",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbConn, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		current := moods.CategoryNeutral
		if record, err := moods.GetEmotion(cmd.Context(), dbConn, args[0]); err == nil {
			current = record.Category
		} else if !errors.Is(err, moods.ErrEmotionNotFound) {
			return err
		}
		category, err := categoryFlag(cmd, current)
		if err != nil {
			return err
		}

		n, err := moods.RenameEverywhere(cmd.Context(), dbConn, args[0], moods.Emotion{Name: args[1], Category: category})
		switch {
		case errors.Is(err, moods.ErrEmotionNotFound):
			return fmt.Errorf("emotion not found: %s", args[0])
		case errors.Is(err, moods.ErrDuplicateEmotion):
			return fmt.Errorf("emotion already exists: %s", args[1])
		case err != nil:
			return fmt.Errorf("failed to rename emotion: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Emotion %s renamed to %s (%d entries updated).\n", args[0], args[1], n)
		return nil
	},
}

var recategorizeEmotionCmd = &cobra.Command{
	Use:       "recategorize [name] [positive|negative|neutral]",
	Short:     "Change an emotion's category everywhere",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{string(moods.CategoryPositive), string(moods.CategoryNegative), string(moods.CategoryNeutral)},
	RunE: func(cmd *cobra.Command, args []string) error {
		category, ok := moods.ParseCategory(args[1])
		if !ok {
			return fmt.Errorf("%w: unknown category %q", moods.ErrInvalidEmotion, args[1])
		}
		dbConn, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		n, err := moods.RecategorizeEverywhere(cmd.Context(), dbConn, args[0], category)
		if errors.Is(err, moods.ErrEmotionNotFound) {
			return fmt.Errorf("emotion not found: %s", args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to recategorize emotion: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Emotion %s is now %s (%d entries updated).\n", args[0], category, n)
		return nil
	},
}

var removeEmotionCmd = &cobra.Command{
	Use:   "remove [name]",
	Short: "Remove an emotion from the catalog and from every entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbConn, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		n, err := moods.RemoveEverywhere(cmd.Context(), dbConn, args[0])
		if err != nil {
			return fmt.Errorf("failed to remove emotion: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Emotion %s removed (%d entries updated).\n", args[0], n)
		return nil
	},
}

var suggestEmotionsCmd = &cobra.Command{
	Use:   "suggest",
	Short: "List emotions used by entries but missing from the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbConn, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		inUse, err := moods.EmotionNamesInUse(cmd.Context(), dbConn)
		if err != nil {
			return fmt.Errorf("failed to scan entries: %w", err)
		}
		lookup, err := moods.LoadCatalog(cmd.Context(), dbConn)
		if err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
		var missing []string
		for _, name := range inUse {
			if _, known := lookup(name); !known {
				missing = append(missing, name)
			}
		}
		out := cmd.OutOrStdout()
		if len(missing) == 0 {
			fmt.Fprintln(out, "Every emotion in use is in the catalog.")
			return nil
		}
		fmt.Fprintf(out, "Not in the catalog: %s\n", strings.Join(missing, ", "))
		return nil
	},
}

var emotionEntriesCmd = &cobra.Command{
	Use:   "entries [name]",
	Short: "List entries linked to an emotion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbConn, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		ids, err := moods.EntriesUsingEmotion(cmd.Context(), dbConn, args[0])
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}
		entries := make([]moods.MoodEntry, 0, len(ids))
		for _, id := range ids {
			e, err := moods.GetEntry(cmd.Context(), dbConn, id)
			if err != nil {
				return fmt.Errorf("failed to get entry %d: %w", id, err)
			}
			entries = append(entries, e)
		}
		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintf(out, "No entries use %s.\n", args[0])
			return nil
		}
		printEntryRows(out, entries)
		return nil
	},
}

// categoryFlag reads --category, falling back to def when it is not given.
func categoryFlag(cmd *cobra.Command, def moods.Category) (moods.Category, error) {
	if !cmd.Flags().Changed("category") {
		return def, nil
	}
	raw, _ := cmd.Flags().GetString("category")
	c, ok := moods.ParseCategory(raw)
	if !ok {
		return "", fmt.Errorf("%w: unknown category %q", moods.ErrInvalidEmotion, raw)
	}
	return c, nil
}

func initEmotionsCmd() {
	addEmotionCmd.Flags().String("category", string(moods.CategoryNeutral), "positive, negative or neutral")
	renameEmotionCmd.Flags().String("category", "", "New category (defaults to the current one)")

	emotionsCmd.AddCommand(listEmotionsCmd, addEmotionCmd, renameEmotionCmd, recategorizeEmotionCmd,
		removeEmotionCmd, suggestEmotionsCmd, emotionEntriesCmd)
}
