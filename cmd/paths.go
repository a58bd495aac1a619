package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// pathsCmd represents the paths command
var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show paths and the backend used by the application",
	Example: `  # Show all application paths
  mediadash paths`,
	Run: func(cmd *cobra.Command, args []string) {
		configFile := config.ConfigFileUsed
		if configFile == "" {
			configFile = "(none, using defaults)"
		}
		fmt.Printf("Config file: %s\n", configFile)
		fmt.Printf("Config directory: %s\n", config.ConfigDir)
		fmt.Printf("Data directory: %s\n", config.DataDir)
		fmt.Printf("Cache directory: %s\n", config.CacheDir)
		fmt.Printf("Log file: %s\n", config.LogFile)
		fmt.Printf("API base: %s\n", config.APIBase)
	},
}

func init() {
	rootCmd.AddCommand(pathsCmd)
}
