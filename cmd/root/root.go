// Package root contains the root command for the application
package root

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"fjacquet/txledger/internal/config"
	"fjacquet/txledger/internal/container"
	"fjacquet/txledger/internal/logging"
)

// CommonFlags represents the flags that are common to all commands
type CommonFlags struct {
	ConfigFile     string
	LogLevel       string
	OrganizationID string
}

var (
	// Log is the shared logger instance for commands
	Log = logging.NewLogrusAdapter("info", "text")

	// AppConfig is the configuration loaded before any subcommand runs
	AppConfig *config.Config

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "txledger",
		Short: "Ingest, deduplicate and classify financial transactions.",
		Long: `txledger stores bank transactions per organization, drops duplicates
from overlapping feeds and exports, and suggests categories from the
organization's validated history.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to txledger!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return Setup()
		},
	}

	// SharedFlags holds the persistent flag values
	SharedFlags = CommonFlags{}

	appContainer *container.Container
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.ConfigFile, "config", "c", "", "Config file (default: ./config.yaml or $HOME/.txledger/config.yaml)")
	Cmd.PersistentFlags().StringVar(&SharedFlags.LogLevel, "log-level", "", "Override the configured log level")
	Cmd.PersistentFlags().StringVar(&SharedFlags.OrganizationID, "org", "", "Organization id (default: import.organization_id)")
}

// Setup loads .env, the configuration and the logger.
func Setup() error {
	if path, err := config.LoadEnv(); err != nil {
		return fmt.Errorf("error loading %s: %w", path, err)
	}

	cfg, err := config.Load(SharedFlags.ConfigFile)
	if err != nil {
		return err
	}
	if SharedFlags.LogLevel != "" {
		if _, err := logrus.ParseLevel(SharedFlags.LogLevel); err != nil {
			return fmt.Errorf("invalid log level: %s", SharedFlags.LogLevel)
		}
		cfg.Log.Level = strings.ToLower(SharedFlags.LogLevel)
	}

	AppConfig = cfg
	Log = logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)
	return nil
}

// GetContainer builds the application container on first use.
func GetContainer(ctx context.Context) (*container.Container, error) {
	if appContainer != nil {
		return appContainer, nil
	}
	if AppConfig == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}

	c, err := container.NewContainer(ctx, AppConfig, container.WithLogger(Log))
	if err != nil {
		return nil, err
	}
	appContainer = c
	return c, nil
}

// SetContainer installs a prebuilt container. Used by tests.
func SetContainer(c *container.Container) {
	appContainer = c
	if c != nil {
		AppConfig = c.GetConfig()
		Log = c.GetLogger()
	}
}

// Close releases the container if one was built.
func Close() {
	if appContainer == nil {
		return
	}
	if err := appContainer.Close(); err != nil {
		Log.WithError(err).Warn("Failed to close container")
	}
	appContainer = nil
}

// OrganizationID returns the --org flag, falling back to the configuration.
func OrganizationID() string {
	if org := strings.TrimSpace(SharedFlags.OrganizationID); org != "" {
		return org
	}
	if AppConfig != nil {
		return strings.TrimSpace(AppConfig.Import.OrganizationID)
	}
	return ""
}

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
