package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pedtrack/internal/config"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "pedtrack",
	Short: "Track loot, skills and session economics from the game chat log",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The setup command writes the config; don't require one to exist.
		if cmd.Name() == "setup" {
			return nil
		}

		global, err := config.LoadGlobal()
		if err != nil {
			return fmt.Errorf("loading global config: %w", err)
		}
		project, err := config.LoadProject()
		if err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		cfg = config.Merge(global, project)
		return nil
	},
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}
