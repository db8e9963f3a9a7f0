package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pgingest",
	Short: "Bulk-load CSV and TSV directories into PostgreSQL",
	Long: `pgingest loads every .csv and .tsv file in a directory (optionally
compressed with .gz or .zst) into PostgreSQL, one table per file.

Tables are created on first sight from the file header with every column
typed as text. Existing tables are never altered; rows are appended.
Each file is loaded in its own transaction: a file either lands completely
or not at all, and one bad file never stops the others.

Exit Codes:
  0  - Success (every file loaded)
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or parameters
  11 - Database connection failed
  15 - Source directory not found
  16 - One or more files failed to load`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("help", false, "Help for pgingest")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
