package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/predmaint/rulserve/internal/alerting"
	"github.com/predmaint/rulserve/internal/config"
	"github.com/predmaint/rulserve/internal/database"
	"github.com/predmaint/rulserve/internal/metrics"
	"github.com/predmaint/rulserve/internal/model"
	"github.com/predmaint/rulserve/internal/monitoring"
	"github.com/predmaint/rulserve/internal/server"
	"github.com/predmaint/rulserve/pkg/version"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	port := flag.Int("port", 0, "HTTP listen port (overrides config)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("rulserve %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		os.Exit(0)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	reg := model.New()
	if err := reg.LoadFile(cfg.Model.Path); err != nil {
		slog.Error("failed to load model artifact", "path", cfg.Model.Path, "error", err)
		os.Exit(1)
	}
	info := reg.Info()
	slog.Info("model loaded",
		"path", cfg.Model.Path,
		"model_type", info.ModelType,
		"model_version", info.Version,
		"trees", reg.NumTrees(),
		"features", len(reg.FeatureColumns()),
	)

	monitor, err := monitoring.New(cfg.Monitoring.Baseline,
		monitoring.WithWindowSize(cfg.Monitoring.WindowSize),
		monitoring.WithThreshold(cfg.Monitoring.ThresholdPct),
	)
	if err != nil {
		slog.Error("failed to create drift monitor", "error", err)
		os.Exit(1)
	}

	store, err := openStore(cfg.Database)
	if err != nil {
		slog.Error("failed to open prediction store", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	if err := store.Migrate(context.Background()); err != nil {
		slog.Error("failed to migrate prediction store", "error", err)
		os.Exit(1)
	}

	webhooks := make([]alerting.WebhookConfig, 0, len(cfg.Webhooks))
	for _, wh := range cfg.Webhooks {
		webhooks = append(webhooks, alerting.WebhookConfig{URL: wh.URL, Headers: wh.Headers})
	}

	slog.Info("starting RUL prediction API server",
		"port", cfg.Server.Port,
		"db_driver", cfg.Database.Driver,
		"drift_threshold_pct", cfg.Monitoring.ThresholdPct,
		"window_size", cfg.Monitoring.WindowSize,
		"version", version.Version,
	)

	srv := server.New(server.Config{
		Model:          reg,
		Monitor:        monitor,
		Baseline:       monitoring.Baseline(cfg.Monitoring.Baseline),
		Store:          store,
		Metrics:        metrics.New(),
		Webhooks:       webhooks,
		ModelVersion:   info.Version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		EvalInterval:   cfg.Monitoring.Interval,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	if err := srv.Run(addr); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return config.Load(path)
}

func openStore(cfg config.DatabaseConfig) (database.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return database.NewSQLite(cfg.Path)
	case "postgres":
		return database.NewPostgres(cfg.DSN)
	case "memory":
		return database.NewMockStore(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
