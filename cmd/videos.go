package cmd

import (
	"github.com/spf13/cobra"
)

// videosCmd represents the videos command
var videosCmd = &cobra.Command{
	Use:     "videos",
	Aliases: []string{"ls"},
	Short:   "List processed videos",
	Example: `  # List processed videos as "video_id<TAB>title (uploader)"
  mediadash videos

  # Output the raw list as JSON
  mediadash videos --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newApp()

		videos, err := app.ListVideos(cmd.Context())
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		return app.PrintVideos(videos, asJSON)
	},
}

func init() {
	videosCmd.Flags().Bool("json", false, "Output JSON instead of formatted text")
	rootCmd.AddCommand(videosCmd)
}
