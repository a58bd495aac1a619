package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process [URL or ID]",
	Short: "Submit a YouTube video for processing",
	Long: `Submit a YouTube video to the backend, which downloads, transcribes,
summarizes and scores it. This usually takes a few minutes.

Once processed, the video list is reloaded and the new video's metrics
are fetched.`,
	Example: `  # Process a video
  mediadash process "https://www.youtube.com/watch?v=tAP1eZYEuKA"
  mediadash process tAP1eZYEuKA

  # Print the metrics once processing is done
  mediadash process tAP1eZYEuKA --show`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newApp()

		d, err := app.ProcessVideo(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("video_id: %s\n", d.Selected())

		show, _ := cmd.Flags().GetBool("show")
		if !show {
			return nil
		}
		return app.ShowMetrics(d)
	},
}

func init() {
	processCmd.Flags().Bool("show", false, "Render the video's metrics after processing")
	rootCmd.AddCommand(processCmd)
}
