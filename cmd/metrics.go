package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rtzll/mediadash/internal"
)

// metricsCmd represents the metrics command
var metricsCmd = &cobra.Command{
	Use:   "metrics [video_id]",
	Short: "Show the metrics of a processed video",
	Example: `  # Render metrics in the terminal
  mediadash metrics 3f2c9a

  # Output the metrics document as JSON
  mediadash metrics 3f2c9a --json --pretty

  # Save the metrics as markdown
  mediadash metrics 3f2c9a -o metrics.md`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newApp()

		metrics, err := app.FetchMetrics(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		pretty, _ := cmd.Flags().GetBool("pretty")
		outputFile, _ := cmd.Flags().GetString("output")

		opts := internal.MetricsOutput{JSON: asJSON, Pretty: pretty}

		// Handle output flag
		if outputFile != "" {
			f, err := os.Create(outputFile)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()

			opts.Raw = true
			if err := app.WriteMetrics(f, metrics, opts); err != nil {
				return err
			}
			return f.Close()
		}

		return app.WriteMetrics(os.Stdout, metrics, opts)
	},
}

func init() {
	metricsCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	internal.AddJSONFlags(metricsCmd)
	rootCmd.AddCommand(metricsCmd)
}
