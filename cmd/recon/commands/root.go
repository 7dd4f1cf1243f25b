package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/reconhq/recon/cmd/recon/internal/config"
)

var (
	// Global flags
	verbose bool

	// Global configuration (loaded at init time)
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "recon",
	Short: "Lead discovery and outreach from the terminal",
	Long: `recon - search-grounded lead discovery, outreach drafting, and a
live voice assistant.

Configuration is stored in the OS config directory:
  macOS:   ~/Library/Application Support/recon/
  Linux:   ~/.config/recon/
  Windows: %AppData%/recon/

Use 'recon config' to manage contexts and service configurations.

Examples:
  # Create a context and configure the Gemini credential
  recon config add-context dev
  recon config set dev gemini api_key YOUR_KEY
  recon config use-context dev

  # Run the API server and search from another terminal
  recon serve --addr :8787
  recon leads --industry "3D printing" --city Oslo

  # Talk to the assistant about a saved company
  recon voice --company-file acme.yaml`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// configLoadErr stores the error from config.Load() for deferred
// reporting, so commands that need no config (version) still run.
var configLoadErr error

func initConfig() {
	if verbose {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	cfg, err := config.Load()
	if err != nil {
		configLoadErr = err
		return
	}
	globalConfig = cfg
}

// GetConfig returns the global configuration, or the deferred load
// error for commands that actually need it.
func GetConfig() (*config.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

// geminiConfig resolves the gemini service config for a context name
// (empty means current context).
func geminiConfig(contextName string) (*config.Gemini, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	dir, err := cfg.ResolveContext(contextName)
	if err != nil {
		return nil, err
	}
	return config.LoadService[config.Gemini](dir, "gemini")
}

// apiConfig resolves the api service config; absence is fine, defaults
// apply.
func apiConfig(contextName string) (*config.API, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	dir, err := cfg.ResolveContext(contextName)
	if err != nil {
		return nil, err
	}
	api, err := config.LoadService[config.API](dir, "api")
	if err != nil {
		return &config.API{}, nil
	}
	return api, nil
}
