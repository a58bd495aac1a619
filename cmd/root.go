package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/rtzll/mediadash/internal"
	"github.com/rtzll/mediadash/internal/tui"
)

var (
	cfgFile string
	config  *internal.Config
	logger  *internal.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mediadash",
	Short: "Media monitoring dashboard for processed YouTube videos",
	Long: `mediadash is a terminal client for the media monitoring backend.

The backend downloads and transcribes YouTube videos, summarizes them and
scores their sentiment. mediadash submits videos for processing, shows the
metrics of processed videos and lets you chat with a video's transcript.

Without a subcommand it opens the interactive dashboard.`,
	Example: `  # Open the dashboard against a local backend
  mediadash

  # Use a remote backend
  mediadash --api-base https://media.example.com
  API_BASE=https://media.example.com mediadash

  # Process a video and print its metrics
  mediadash process "https://www.youtube.com/watch?v=tAP1eZYEuKA" --show`,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		config, err = internal.InitConfig(cfgFile, cmd.Root().PersistentFlags())
		if err != nil {
			return err
		}

		if err := internal.EnsureDirs(config.ConfigDir, config.DataDir, config.CacheDir); err != nil {
			return fmt.Errorf("creating XDG directories: %w", err)
		}
		if cfgFile == "" {
			if err := internal.EnsureDefaultConfig(config.ConfigDir); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: Failed to ensure default config: %v\n", err)
			}
		}

		// the dashboard owns the terminal, so only subcommands mirror logs to stderr
		logger = internal.NewLogger(config.LogFile, config.Verbose && cmd != cmd.Root())
		logger.Debug("config loaded", "file", config.ConfigFileUsed, "api_base", config.APIBase, "timeout", config.Timeout)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Close()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newApp()

		if !isatty.IsTerminal(os.Stdout.Fd()) || !isatty.IsTerminal(os.Stdin.Fd()) {
			videos, err := app.ListVideos(cmd.Context())
			if err != nil {
				return err
			}
			return app.PrintVideos(videos, false)
		}

		return runDashboard(cmd.Context(), app)
	},
}

func newApp() *internal.App {
	return internal.NewApp(config, internal.WithLogger(logger.Logger))
}

func runDashboard(ctx context.Context, app *internal.App) error {
	model := tui.New(ctx, app.NewDashboard())
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	app.Logger().Info("dashboard started", "api_base", app.Client().BaseURL())
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Create a cancellable context for the entire application
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-sigCh:
		case <-done:
			return
		}
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal. Shutting down...")

		// Cancel the main context to abort in-flight requests
		cancel()

		select {
		case <-done:
		case <-time.After(3 * time.Second):
			fmt.Fprintln(os.Stderr, "Warning: Shutdown timed out, forcing exit")
			os.Exit(1)
		}
	}()

	rootCmd.SetContext(ctx)

	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for debugging")
	rootCmd.PersistentFlags().Bool("quiet", false, "Suppress status output and spinners")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default is $XDG_CONFIG_HOME/mediadash/config.toml)")
	internal.AddConnectionFlags(rootCmd.PersistentFlags())
}
