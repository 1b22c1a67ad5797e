package cmd

import (
	"fmt"
	"time"

	"projector/api"
	"projector/database"
	"projector/events"
	"projector/models"
	"projector/repository"
	"projector/service"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users mirrored from the authentication system",
}

var userAddFlags struct {
	email   string
	manager bool
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Register a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dbURL, err := databaseURL(cfg)
		if err != nil {
			return err
		}

		db, err := database.NewConnection(cmd.Context(), dbURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		// Isolation only matters for promotions; user writes are single statements
		users := service.NewUserService(repository.NewUnitOfWorkFactory(db, events.NewBus(), pgx.ReadCommitted))
		user, err := users.Register(cmd.Context(), args[0], userAddFlags.email, userAddFlags.manager)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Registered %s with id %d\n", user.Username, user.ID)
		return nil
	},
}

var tokenFlags struct {
	ttl time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token <username>",
	Short: "Issue a bearer token for a registered user, for local development",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.RequireJWTSecret(); err != nil {
			return err
		}
		if cfg.Environment == "production" {
			return fmt.Errorf("tokens are issued by the authentication system in production")
		}
		dbURL, err := databaseURL(cfg)
		if err != nil {
			return err
		}

		db, err := database.NewConnection(cmd.Context(), dbURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		users := service.NewUserService(repository.NewUnitOfWorkFactory(db, events.NewBus(), pgx.ReadCommitted))
		user, err := users.GetByUsername(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		token, err := api.IssueToken([]byte(cfg.JWTSecret), models.Principal{
			UserID:    user.ID,
			Username:  user.Username,
			IsManager: user.IsManager,
		}, tokenFlags.ttl)
		if err != nil {
			return err
		}

		log.WithField("username", user.Username).Debug("Issued development token")
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	userAddCmd.Flags().StringVar(&userAddFlags.email, "email", "", "email address (required)")
	userAddCmd.Flags().BoolVar(&userAddFlags.manager, "manager", false, "grant manager rights")
	_ = userAddCmd.MarkFlagRequired("email")
	userCmd.AddCommand(userAddCmd)

	tokenCmd.Flags().DurationVar(&tokenFlags.ttl, "ttl", time.Hour, "token lifetime")
}
