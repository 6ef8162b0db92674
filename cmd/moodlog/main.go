package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	moodlog "github.com/unowned-ai/moodlog/pkg"
	pkgdb "github.com/unowned-ai/moodlog/pkg/db"
)

var rootCmd = &cobra.Command{
	Use:     "moodlog",
	Short:   "A local mood journal with an emotion catalog, import/export and an MCP server.",
	Version: fmt.Sprintf("v%s", moodlog.Version),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(logLevel)
	},
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

var completionCmd = &cobra.Command{
	Use:   fmt.Sprintf("completion %s", strings.Join(completionShells, "|")),
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for moodlog.

The command prints a completion script to stdout. You can source it in your shell
or install it to the appropriate location for your shell to enable completions permanently.

Examples:

  Bash (current shell):
    $ source <(moodlog completion bash)

  Zsh:
    $ moodlog completion zsh > "${fpath[1]}/_moodlog"

  Fish:
    $ moodlog completion fish > ~/.config/fish/completions/moodlog.fish

  PowerShell:
    PS> moodlog completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             completionShells,
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(cmd.OutOrStdout())
		case "zsh":
			return rootCmd.GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(cmd.OutOrStdout())
		default:
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of moodlog",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), moodlog.Version)
	},
}

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the moodlog database",
}

var dbUpgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Create or upgrade the moodlog database schema",
	Long: `Opens the SQLite database selected by --db (or the platform default) and
brings the moods component to the current schema version: missing tables and
columns are added, existing rows are kept. A database written by a newer
moodlog is refused.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := dbConfig()
		slog.Info("upgrading database", "path", cfg.Path, "wal", cfg.WAL, "sync", cfg.Sync)

		dbConn, err := pkgdb.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		version, err := pkgdb.GetComponentSchemaVersion(cmd.Context(), dbConn, pkgdb.MoodsDBComponent)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Database at %s is at schema version %d.\n", cfg.Path, version)
		return nil
	},
}

func initCmd() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the database file (uses a system-specific default if not provided)")
	rootCmd.PersistentFlags().BoolVar(&walMode, "wal", true, "Enable SQLite WAL (Write-Ahead Logging) mode")
	rootCmd.PersistentFlags().StringVar(&syncMode, "sync", "FULL", "SQLite synchronous pragma (OFF, NORMAL, FULL, EXTRA)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level for stderr diagnostics (debug, info, warn, error)")

	dbCmd.AddCommand(dbUpgradeCmd)

	initEntriesCmds()
	initEmotionsCmd()
	initTransferCmds()
	rootCmd.AddCommand(completionCmd, versionCmd, dbCmd, emotionsCmd, exportCmd, importCmd, mcpCmd)
	rootCmd.AddCommand(entryCmds...)
}

func main() {
	initCmd()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
