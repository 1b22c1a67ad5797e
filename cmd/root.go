package cmd

import (
	"context"
	"fmt"

	"projector/config"
	"projector/database"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "projector",
	Short:         "Weekly savings projections with staged and permanent results",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, projectCmd, userCmd, tokenCmd)
}

// Execute runs the command selected by the process arguments
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadConfig loads configuration and applies logging settings
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.ConfigureLogging(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// databaseURL returns DATABASE_URL pointed at DATABASE_NAME when one is set
func databaseURL(cfg *config.Config) (string, error) {
	url, err := database.ConstructDatabaseURL(cfg.DatabaseURL, cfg.DatabaseName)
	if err != nil {
		return "", fmt.Errorf("failed to construct database URL: %w", err)
	}
	return url, nil
}
