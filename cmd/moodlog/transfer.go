package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/unowned-ai/moodlog/pkg/transfer"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export entries as JSON",
	Long: `Write entries as a JSON array in the moodlog export format, newest first.
Select a rolling window with --preset (7d, 14d, 30d) or an inclusive range
with --from/--to; with neither, every entry is exported.

Example:
  moodlog export --preset 30d --out last-month.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		var r *transfer.Range
		switch {
		case flags.Changed("preset") && (flags.Changed("from") || flags.Changed("to")):
			return errors.New("--preset cannot be combined with --from/--to")
		case flags.Changed("preset"):
			raw, _ := flags.GetString("preset")
			p, err := transfer.ParsePreset(raw)
			if err != nil {
				return err
			}
			r = transfer.PresetRange(p)
		case flags.Changed("from") || flags.Changed("to"):
			start, end, err := rangeFlags(cmd)
			if err != nil {
				return err
			}
			r = transfer.Between(time.UnixMilli(start), time.UnixMilli(end))
		}

		dbConn, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		payload, err := transfer.ExportJSON(cmd.Context(), dbConn, r)
		if err != nil {
			return err
		}
		outPath, _ := flags.GetString("out")
		return writeOutput(cmd, outPath, payload)
	},
}

var exportSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the export format",
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := transfer.ExportSchema()
		if err != nil {
			return err
		}
		outPath, _ := cmd.Flags().GetString("out")
		return writeOutput(cmd, outPath, schema)
	},
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import entries from a JSON export",
	Long: `Import a JSON array of entries. Use "-" to read from stdin.

Rows with a missing or invalid mood are skipped and reported; everything else
is sanitized and stored in one transaction. With --legacy the payload is read
in the older export format (bare emotion names, date strings) and the first
bad row aborts the import without writing anything.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		legacy, _ := cmd.Flags().GetBool("legacy")

		dbConn, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		importer := transfer.ImportCurrent
		if legacy {
			importer = transfer.ImportLegacy
		}
		res, err := importer(cmd.Context(), dbConn, data)
		if err != nil {
			var rowErr *transfer.RowDefect
			if errors.As(err, &rowErr) {
				return fmt.Errorf("import aborted, nothing was written: %w", err)
			}
			return fmt.Errorf("failed to import: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Imported %d entries, skipped %d (batch %s).\n", res.Imported, res.Skipped, res.BatchID)
		for _, e := range res.Errors {
			fmt.Fprintf(out, "  skipped: %s\n", e)
		}
		for _, w := range res.Warnings {
			fmt.Fprintf(out, "  warning: %s\n", w)
		}
		return nil
	},
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
	return nil
}

func initTransferCmds() {
	presets := make([]string, 0, 3)
	for _, p := range transfer.Presets() {
		presets = append(presets, string(p))
	}
	exportCmd.Flags().String("preset", "", "Rolling window ending now: "+strings.Join(presets, ", "))
	exportCmd.Flags().String("from", "", "Range start (epoch milliseconds or ISO 8601)")
	exportCmd.Flags().String("to", "", "Range end (epoch milliseconds or ISO 8601); defaults to now")
	exportCmd.PersistentFlags().String("out", "", "Write to this file instead of stdout")
	exportCmd.AddCommand(exportSchemaCmd)

	importCmd.Flags().Bool("legacy", false, "Read the legacy export format; abort on the first bad row")
}
