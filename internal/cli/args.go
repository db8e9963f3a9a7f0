package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RequireSourcePath validates that exactly one source directory argument is provided.
// Returns a helpful error message with usage and examples if missing or too many.
func RequireSourcePath(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf(`requires at least 1 arg(s): missing <directory>

Usage: %s

Example:
  %s ./exports -d warehouse`, cmd.UseLine(), cmd.CommandPath())
	}
	if len(args) > 1 {
		return fmt.Errorf("accepts 1 arg(s), received %d", len(args))
	}
	return nil
}
