package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/predmaint/rulserve/internal/alerting"
	"github.com/predmaint/rulserve/internal/database"
	"github.com/predmaint/rulserve/internal/handlers"
	"github.com/predmaint/rulserve/internal/metrics"
	"github.com/predmaint/rulserve/internal/model"
	"github.com/predmaint/rulserve/internal/monitoring"
)

// Config holds server dependencies.
type Config struct {
	Model          *model.Regressor
	Monitor        *monitoring.Monitor
	Baseline       monitoring.Baseline
	Store          database.Store
	Metrics        *metrics.Metrics
	Webhooks       []alerting.WebhookConfig
	ModelVersion   string
	AllowedOrigins string
	// EvalInterval is the drift evaluation cadence; it also paces the
	// WebSocket monitoring topics.
	EvalInterval time.Duration
}

// Server is the HTTP server for the RUL prediction API.
type Server struct {
	Router    chi.Router
	Config    Config
	Hub       *Hub
	Evaluator *alerting.Evaluator
}

// New creates a new Server with all routes and middleware configured.
func New(cfg Config) *Server {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(RequestLogger)
	r.Use(CORS(cfg.AllowedOrigins))
	r.Use(chimw.Recoverer)
	r.Use(MaxBodySize(1 << 20)) // 1MB max body size

	eval := alerting.New(cfg.Monitor, cfg.Metrics, cfg.EvalInterval, cfg.Webhooks)
	eval.Start(context.Background())

	hub := NewHub()
	RegisterMonitoringTopics(hub, cfg.Monitor, eval, cfg.EvalInterval)
	hub.Start()

	s := &Server{Router: r, Config: cfg, Hub: hub, Evaluator: eval}
	s.registerRoutes()

	return s
}

// Run starts the HTTP server on the given address with graceful shutdown.
func (s *Server) Run(addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Router,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	}

	s.Evaluator.Stop()
	s.Hub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("server stopped gracefully")
	return nil
}

// registerRoutes mounts the API surface.
func (s *Server) registerRoutes() {
	health := &handlers.HealthHandler{Model: s.Config.Model}
	predict := &handlers.PredictHandler{
		Model:    s.Config.Model,
		Monitor:  s.Config.Monitor,
		Baseline: s.Config.Baseline,
		Store:    s.Config.Store,
		Metrics:  s.Config.Metrics,
		Version:  s.Config.ModelVersion,
	}
	monitor := &handlers.MonitoringHandler{Monitor: s.Config.Monitor}
	info := &handlers.ModelInfoHandler{Model: s.Config.Model}
	history := &handlers.PredictionsHandler{Store: s.Config.Store}

	s.Router.Get("/", handlers.Root)

	// Health check endpoint (outside the API group for probe simplicity)
	s.Router.Get("/api/v1/health", health.Check)

	s.Router.Route("/api/v1", func(r chi.Router) {
		r.Post("/predict", predict.Predict)
		r.Get("/model-info", info.Get)
		r.Get("/predictions", history.List)

		r.Route("/monitoring", func(r chi.Router) {
			r.Get("/", monitor.Status)
			r.Post("/reset", monitor.Reset)
		})

		// Monitoring WebSocket topics
		r.Get("/ws/monitoring/drift-status", s.Hub.ServeWS(TopicDriftStatus))
		r.Get("/ws/monitoring/drift-alerts", s.Hub.ServeWS(TopicDriftAlerts))
	})

	if s.Config.Metrics != nil {
		s.Router.Method(http.MethodGet, "/metrics", s.Config.Metrics.Handler())
	}
}
