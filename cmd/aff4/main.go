// aff4 is the command line tool to manage AFF4 image volumes and
// acquire images.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forensix/aff4/cmd/aff4/commands"
	"github.com/forensix/aff4/config"
	"github.com/forensix/aff4/logger"
)

var rootCmd = &cobra.Command{
	Use:   "aff4",
	Short: "AFF4 forensic imager",
	Long: `aff4 - AFF4 forensic container imager and metadata viewer.

The AFF4 resolver tracks which typed object exists at which URN and what
attributes describe it. This tool drives acquisition into AFF4 volumes
and inspects their metadata.

Available commands:
  acquire - Image an input stream into an AFF4 volume
  view    - Show AFF4 metadata from one or more volumes
  version - Show version information

Examples:
  aff4 acquire -i /dev/sda -o evidence.aff4    # Acquire an image
  aff4 acquire -i disk.dd -o out.aff4 -t       # Truncate existing output
  aff4 view evidence.aff4                      # Inspect volume metadata`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if err := logger.Initialize(cfg.Log.JSON, logger.VerbosityToLevel(verbosity)); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")

	rootCmd.AddCommand(commands.AcquireCmd)
	rootCmd.AddCommand(commands.ViewCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
