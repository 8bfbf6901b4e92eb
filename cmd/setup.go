package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pedtrack/internal/config"
)

var setupForce bool

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Write a default global config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GlobalPath()
		if err != nil {
			return err
		}

		if _, err := os.Stat(path); err == nil && !setupForce {
			fmt.Printf("Config already exists at %s (use --force to overwrite).\n", path)
			return nil
		}

		if err := config.Save(config.Defaults(), path); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		fmt.Printf("Wrote %s\n", path)
		fmt.Println("Set log_path to your game chat log before running pedtrack track.")
		return nil
	},
}

func init() {
	setupCmd.Flags().BoolVar(&setupForce, "force", false, "overwrite an existing config")
	rootCmd.AddCommand(setupCmd)
}
