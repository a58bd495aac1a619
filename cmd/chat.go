package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rtzll/mediadash/internal"
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat [video_id]",
	Short: "Ask questions about a processed video",
	Long: `Ask questions about a processed video. The backend answers from the
video's transcript.

Without --question, reads one question per line from stdin until EOF or
"exit". Only one question is in flight at a time, and asking the same
question twice in a row is ignored.`,
	Example: `  # Interactive chat
  mediadash chat 3f2c9a

  # One-shot question
  mediadash chat 3f2c9a -q "What are the main arguments?"

  # Use more transcript passages per answer
  mediadash chat 3f2c9a --top-k 8`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := internal.HandleChatFlags(cmd, config); err != nil {
			return err
		}

		app := newApp()

		question, _ := cmd.Flags().GetString("question")
		if question != "" {
			answer, err := app.Ask(cmd.Context(), args[0], question)
			if err != nil {
				return err
			}
			fmt.Println(answer)
			return nil
		}

		return app.Chat(cmd.Context(), args[0])
	},
}

func init() {
	internal.AddChatFlags(chatCmd)
	rootCmd.AddCommand(chatCmd)
}
