package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"

	"github.com/rtzll/mediadash/internal"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP server for the media dashboard",
	Long: `Run a Model Context Protocol (MCP) server that exposes the dashboard backend as tools.

Tools:
- list_videos: List processed videos
- get_video_metrics: Metrics, summary and sentiment of a processed video
- process_video: Submit a YouTube video for processing
- ask_video: Ask a question about a processed video

Transport options:
- stdio (default): Standard MCP transport via stdin/stdout
- http: HTTP transport on specified port (use --port to configure)`,
	Example: `  # Run MCP server with stdio transport (e.g. for Claude Desktop)
  mediadash mcp

  # Run MCP server with HTTP transport on port 8080
  mediadash mcp --transport=http --port=8080

  # Set up Claude Desktop integration
  mediadash mcp setup-claude`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// stdout belongs to the protocol
		config.Quiet = true
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		mcpServer := internal.NewMCPServer(newApp(), version)

		logger.Info("starting mcp server", "transport", transport, "port", port, "api_base", config.APIBase)

		// Blocks until the context is cancelled
		return mcpServer.Start(cmd.Context(), transport, port)
	},
}

// setupClaudeCmd represents the setup-claude subcommand
var setupClaudeCmd = &cobra.Command{
	Use:   "setup-claude",
	Short: "Configure Claude Desktop to use the mediadash MCP server",
	Long: `Automatically configure Claude Desktop to use mediadash as an MCP server.

This command will:
- Detect Claude Desktop installation and config location
- Add the mediadash MCP server configuration to claude_desktop_config.json
- Preserve existing MCP server configurations
- Set XDG environment variables and the backend URL for the current platform`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setupClaudeDesktop(config.APIBase)
	},
}

// MCPServerConfig is one entry of mcpServers in claude_desktop_config.json
type MCPServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env"`
}

func setupClaudeDesktop(apiBase string) error {
	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("getting executable path: %w", err)
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return fmt.Errorf("resolving executable path: %w", err)
	}

	configPath, err := claudeDesktopConfigPath(runtime.GOOS)
	if err != nil {
		return fmt.Errorf("getting Claude Desktop config path: %w", err)
	}

	if err := addDesktopServer(configPath, internal.AppName, desktopServer(execPath, apiBase)); err != nil {
		return err
	}

	fmt.Printf("Added %q to %s\n", internal.AppName, configPath)
	fmt.Println("Restart Claude Desktop to use the mediadash MCP server")
	return nil
}

// desktopServer describes how Claude Desktop launches the server. Claude
// Desktop does not inherit the shell environment, so the XDG paths and the
// backend URL are passed explicitly.
func desktopServer(execPath, apiBase string) MCPServerConfig {
	return MCPServerConfig{
		Command: execPath,
		Args:    []string{"mcp"},
		Env: map[string]string{
			"XDG_DATA_HOME":      xdg.DataHome,
			"XDG_CONFIG_HOME":    xdg.ConfigHome,
			"XDG_CACHE_HOME":     xdg.CacheHome,
			"MEDIADASH_API_BASE": apiBase,
		},
	}
}

// addDesktopServer sets mcpServers[name] in an existing Claude Desktop
// config. Other servers and unrelated top-level keys are kept as they are.
func addDesktopServer(configPath, name string, entry MCPServerConfig) error {
	data, err := os.ReadFile(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config for Claude Desktop not found at %s", configPath)
	}
	if err != nil {
		return fmt.Errorf("reading existing config: %w", err)
	}

	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing existing config: %w", err)
	}

	servers := map[string]json.RawMessage{}
	if raw, ok := doc["mcpServers"]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &servers); err != nil {
			return fmt.Errorf("parsing mcpServers: %w", err)
		}
	}

	if servers[name], err = json.Marshal(entry); err != nil {
		return fmt.Errorf("encoding server entry: %w", err)
	}
	if doc["mcpServers"], err = json.Marshal(servers); err != nil {
		return fmt.Errorf("encoding mcpServers: %w", err)
	}

	data, err = json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func claudeDesktopConfigPath(goos string) (string, error) {
	const file = "claude_desktop_config.json"

	if goos == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", errors.New("APPDATA environment variable not set")
		}
		return filepath.Join(appData, "Claude", file), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	switch goos {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Claude", file), nil
	case "linux":
		return filepath.Join(home, ".config", "Claude", file), nil
	}
	return "", fmt.Errorf("unsupported platform: %s", goos)
}

func init() {
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol (stdio or http)")
	mcpCmd.Flags().Int("port", 8080, "Port for HTTP transport (only used with --transport=http)")
	mcpCmd.AddCommand(setupClaudeCmd)
	rootCmd.AddCommand(mcpCmd)
}
