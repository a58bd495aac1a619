package internal

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// AddConnectionFlags adds the flags that locate and bound calls to the backend
func AddConnectionFlags(flags *pflag.FlagSet) {
	flags.String("api-base", "", "Backend base URL (default http://localhost:8000)")
	flags.Duration("timeout", 0, "Per-request timeout (default 2m0s)")
}

// AddJSONFlags adds flags for machine readable output
func AddJSONFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("json", false, "Output JSON instead of formatted text")
	cmd.Flags().Bool("pretty", false, "Indent JSON output (with --json)")
}

// AddChatFlags adds flags related to the chat flow
func AddChatFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("question", "q", "", "Ask a single question and exit")
	cmd.Flags().Int("top-k", 0, "Number of transcript passages used per answer (default from config)")
}

// HandleChatFlags applies --top-k to the config
func HandleChatFlags(cmd *cobra.Command, config *Config) error {
	topK, err := cmd.Flags().GetInt("top-k")
	if err != nil {
		return fmt.Errorf("failed to get top-k flag: %w", err)
	}
	if topK < 0 {
		return fmt.Errorf("--top-k must be positive, got %d", topK)
	}
	if topK > 0 {
		config.TopK = topK
	}
	return nil
}
