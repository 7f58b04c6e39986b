// Command worker consumes analysis.requested events, executes the gap
// analysis pipeline, and publishes completion or failure events.  A Redis
// lock per target domain prevents concurrent runs against the same site.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rankscope/rankscope/internal/app"
	"github.com/rankscope/rankscope/internal/config"
	"github.com/rankscope/rankscope/internal/infrastructure/messaging/kafka"
	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/pkg/errors"
)

var (
	version = "dev"
)

func main() {
	configPath := flag.String("config", "", "path to the configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if len(cfg.Kafka.Brokers) == 0 {
		return errors.NewValidation("worker requires kafka brokers")
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	core, err := app.Build(ctx, cfg, logger, app.Options{})
	if err != nil {
		return err
	}
	defer core.Close()

	producer, err := kafka.NewProducer(cfg.Kafka, logger)
	if err != nil {
		return err
	}
	defer producer.Close()

	consumer, err := kafka.NewConsumer(cfg.Kafka, kafka.ConsumerOptions{
		Topics:     []string{kafka.TopicAnalysisRequested},
		DeadLetter: producer,
	}, logger)
	if err != nil {
		return err
	}
	defer consumer.Close()

	exec := &executor{
		core:     core,
		producer: producer,
		logger:   logger,
		lockTTL:  10 * time.Minute,
	}
	consumer.Register(kafka.TopicAnalysisRequested, exec.handleRequested)

	logger.Info("worker starting",
		logging.String("version", version),
		logging.String("group_id", cfg.Kafka.GroupID))
	return consumer.Run(ctx)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}
