package internal

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rtzll/mediadash/internal/api"
	"github.com/rtzll/mediadash/internal/dashboard"
)

// AppName names the XDG directories and the env prefix
const AppName = "mediadash"

// Config holds application settings
type Config struct {
	// User configurable settings
	APIBase   string
	Timeout   time.Duration
	TopK      int
	ChatScope dashboard.ChatScope
	Verbose   bool
	Quiet     bool

	// Fixed XDG paths (not configurable)
	ConfigDir string
	DataDir   string
	CacheDir  string
	LogFile   string

	// ConfigFileUsed is empty when only defaults and env apply
	ConfigFileUsed string
}

//go:embed config.toml
var defaultFS embed.FS

// EnsureDefaultConfig checks if a config file exists in the XDG config directory
// and creates it from the embedded default if it doesn't exist
func EnsureDefaultConfig(configDir string) error {
	filePath := filepath.Join(configDir, "config.toml")
	if FileExists(filePath) {
		return nil
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	defaultContent, err := defaultFS.ReadFile("config.toml")
	if err != nil {
		return fmt.Errorf("reading embedded default configuration: %w", err)
	}

	if err := os.WriteFile(filePath, defaultContent, 0644); err != nil {
		return fmt.Errorf("writing default configuration: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Created default configuration at %s\n", filePath)
	return nil
}

// InitConfig loads .env, the config file and MEDIADASH_* env vars. Flags that
// were set on the command line win over everything else.
func InitConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: Error reading .env: %v\n", err)
	}

	configDir := filepath.Join(xdg.ConfigHome, AppName)
	dataDir := filepath.Join(xdg.DataHome, AppName)
	cacheDir := filepath.Join(xdg.CacheHome, AppName)

	v := viper.New()

	v.SetDefault("api_base", api.DefaultBaseURL)
	v.SetDefault("timeout", api.DefaultTimeout)
	v.SetDefault("top_k", api.DefaultTopK)
	v.SetDefault("chat_scope", string(dashboard.ChatScopeGlobal))
	v.SetDefault("verbose", false)
	v.SetDefault("quiet", false)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.AutomaticEnv()
	_ = v.BindEnv("api_base", "MEDIADASH_API_BASE", "API_BASE")

	if flags != nil {
		for key, name := range map[string]string{
			"api_base": "api-base",
			"timeout":  "timeout",
			"verbose":  "verbose",
			"quiet":    "quiet",
			"top_k":    "top-k",
		} {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	scope, err := dashboard.ParseChatScope(v.GetString("chat_scope"))
	if err != nil {
		return nil, err
	}

	timeout := v.GetDuration("timeout")
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", v.GetString("timeout"))
	}

	config := &Config{
		APIBase:   strings.TrimRight(strings.TrimSpace(v.GetString("api_base")), "/"),
		Timeout:   timeout,
		TopK:      v.GetInt("top_k"),
		ChatScope: scope,
		Verbose:   v.GetBool("verbose"),
		Quiet:     v.GetBool("quiet"),

		ConfigDir: configDir,
		DataDir:   dataDir,
		CacheDir:  cacheDir,
		LogFile:   filepath.Join(cacheDir, AppName+".log"),

		ConfigFileUsed: v.ConfigFileUsed(),
	}

	if config.APIBase == "" {
		config.APIBase = api.DefaultBaseURL
	}
	if config.TopK <= 0 {
		config.TopK = api.DefaultTopK
	}

	return config, nil
}
