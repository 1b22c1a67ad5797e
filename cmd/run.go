package cmd

import (
	"context"
	"fmt"
	"time"

	"projector/api"
	"projector/config"
	"projector/database"
	"projector/events"
	"projector/infrastructure"
	"projector/observability"
	"projector/repository"
	"projector/service"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return Run(cmd.Context(), cfg)
	},
}

// Run initializes the application and serves HTTP until ctx is cancelled
func Run(ctx context.Context, cfg *config.Config) error {
	log.WithField("environment", cfg.Environment).Info("Starting projector")

	if err := cfg.RequireJWTSecret(); err != nil {
		return err
	}
	isoLevel, err := database.ParseIsolation(cfg.TxIsolation)
	if err != nil {
		return err
	}

	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	metrics := observability.GetMetrics()

	dbURL, err := databaseURL(cfg)
	if err != nil {
		return err
	}

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established")

	eventBus := events.NewBus()

	var natsClient *infrastructure.NATSClient
	if cfg.NATSEnabled {
		natsClient, err = connectNATS(ctx, cfg)
		if err != nil {
			return err
		}
		infrastructure.NewEventForwarder(natsClient, metrics).Register(eventBus)
	}

	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus, isoLevel)

	analysisService := service.NewAnalysisService(uowFactory, service.AnalysisServiceOptions{
		MaxProjectionWeeks: cfg.MaxProjectionWeeks,
		AllowRepromotion:   cfg.AllowRepromotion,
		Metrics:            metrics,
	})
	reportService := service.NewReportService(uowFactory)

	server := api.NewServer(api.Config{
		Addr:           cfg.HTTPAddr,
		JWTSecret:      []byte(cfg.JWTSecret),
		RequestTimeout: cfg.RequestTimeout,
	}, api.Dependencies{
		Analyses: analysisService,
		Reports:  reportService,
		Database: db,
	})

	serveErr := server.Run(ctx)

	log.Info("Shutting down projector...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.WithError(err).Error("Error closing NATS connection")
		}
	}
	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics")
	}

	return serveErr
}

func connectNATS(ctx context.Context, cfg *config.Config) (*infrastructure.NATSClient, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := client.Connect(connectCtx); err != nil {
		return nil, err
	}
	if err := client.EnsureAnalysisStream(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
