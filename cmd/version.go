package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	version = "dev" // overridden at build time via -ldflags
	commit  = ""
	date    = ""
)

type buildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Date    string `json:"date,omitempty"`
	Go      string `json:"go"`
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Example: `  # Show version information
  mediadash version

  # Machine readable
  mediadash version --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := buildInfo{Version: version, Commit: commit, Date: date, Go: runtime.Version()}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return json.NewEncoder(os.Stdout).Encode(info)
		}

		fmt.Printf("mediadash v%s (commit: %s, built %s, %s)\n", info.Version, info.Commit, info.Date, info.Go)
		return nil
	},
}

func init() {
	versionCmd.Flags().Bool("json", false, "Output JSON instead of formatted text")
	rootCmd.AddCommand(versionCmd)
}
