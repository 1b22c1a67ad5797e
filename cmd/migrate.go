package cmd

import (
	"fmt"
	"strconv"

	"projector/database"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := migrationURL()
		if err != nil {
			return err
		}
		return database.MigrateUp(url)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Roll back migrations, one step by default",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid steps %q: %w", args[0], err)
			}
			steps = n
		}

		url, err := migrationURL()
		if err != nil {
			return err
		}
		return database.MigrateDown(url, steps)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := migrationURL()
		if err != nil {
			return err
		}

		status, err := database.GetMigrationStatus(url)
		if err != nil {
			return err
		}

		if !status.Applied {
			fmt.Fprintln(cmd.OutOrStdout(), "No migrations applied")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Version: %d\nDirty: %t\n", status.Version, status.Dirty)
		if status.Dirty {
			log.Warn("Schema is dirty; fix the failed migration and force the version")
		}
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
}

func migrationURL() (string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	return databaseURL(cfg)
}
