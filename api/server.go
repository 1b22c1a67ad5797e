package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"projector/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// Pinger reports whether the database is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the services the HTTP API exposes
type Dependencies struct {
	Analyses service.AnalysisService
	Reports  service.ReportService
	Database Pinger
}

// Config holds HTTP server settings
type Config struct {
	Addr            string
	JWTSecret       []byte
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// Server is the projector HTTP API
type Server struct {
	router *chi.Mux
	server *http.Server
	config Config
}

// NewServer wires the routes and middleware
func NewServer(config Config, deps Dependencies) *Server {
	analyses := NewAnalysisHandler(deps.Analyses)
	reports := NewReportHandler(deps.Reports)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)
	if config.RequestTimeout > 0 {
		router.Use(middleware.Timeout(config.RequestTimeout))
	}

	router.Get("/health", health(deps.Database))

	router.Route("/api", func(r chi.Router) {
		r.Use(Authenticate(config.JWTSecret))

		r.Route("/analyses", func(r chi.Router) {
			r.Post("/", analyses.Create)
			r.Get("/", analyses.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", analyses.Get)
				r.Put("/", analyses.Update)
				r.Delete("/", analyses.Delete)
				r.Get("/staging", analyses.Staging)
				r.Get("/permanent", analyses.Permanent)
				r.Post("/promote", analyses.Promote)
			})
		})

		r.Route("/manager", func(r chi.Router) {
			r.Use(RequireManager)
			r.Get("/analyses/{id}/ending-balance", reports.EndingBalance)
			r.Get("/reports", reports.Reports)
			r.Get("/results", reports.Results)
		})
	})

	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	return &Server{
		router: router,
		config: config,
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	serverErrors := make(chan error, 1)

	go func() {
		log.WithField("addr", s.server.Addr).Info("Starting HTTP server")
		serverErrors <- s.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("HTTP server shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Graceful shutdown failed")
			return s.server.Close()
		}
	}

	return nil
}

func health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				loggerFrom(r).WithError(err).Warn("Health check database ping failed")
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
