// Command apiserver runs the RankScope HTTP API.  Run creation is published
// to Kafka for the worker to execute; read endpoints serve straight from
// Postgres and MinIO.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rankscope/rankscope/internal/app"
	"github.com/rankscope/rankscope/internal/config"
	"github.com/rankscope/rankscope/internal/infrastructure/messaging/kafka"
	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	httpapi "github.com/rankscope/rankscope/internal/interfaces/http"
	"github.com/rankscope/rankscope/internal/interfaces/http/handlers"
)

// Populated via -ldflags at build time.
var (
	version = "dev"
)

func main() {
	configPath := flag.String("config", "", "path to the configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	core, err := app.Build(ctx, cfg, logger, app.Options{Migrate: true})
	if err != nil {
		return err
	}
	defer core.Close()

	var dispatcher handlers.RunDispatcher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka, logger)
		if err != nil {
			return err
		}
		defer producer.Close()
		dispatcher = &kafkaDispatcher{producer: producer}
	} else {
		logger.Warn("kafka brokers not configured, created runs stay queued")
	}

	runsHandler, err := handlers.NewRunsHandler(handlers.RunsHandlerConfig{
		Requester:          core.Orchestrator,
		Dispatcher:         dispatcher,
		Runs:               core.Runs,
		DefaultTarget:      cfg.Target.Domain,
		DefaultCompetitors: cfg.CompetitorDomains(),
		Logger:             logger,
	})
	if err != nil {
		return err
	}

	var reportHandler *handlers.ReportHandler
	if core.Reports != nil {
		reportHandler, err = handlers.NewReportHandler(core.Runs, core.Reports)
		if err != nil {
			return err
		}
	}

	checks := make(map[string]handlers.HealthCheck)
	for name, check := range core.HealthChecks() {
		checks[name] = check
	}

	router, err := httpapi.NewRouter(httpapi.RouterConfig{
		Mode:    cfg.Server.Mode,
		Runs:    runsHandler,
		Reports: reportHandler,
		Health:  handlers.NewHealthHandler(version, checks),
		Metrics: core.Metrics,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	server, err := httpapi.NewServer(cfg.Server, router, logger)
	if err != nil {
		return err
	}

	logger.Info("apiserver starting",
		logging.String("version", version),
		logging.Int("port", cfg.Server.Port))
	return server.Run(ctx)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}
