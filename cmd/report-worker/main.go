package main

import (
	"context"
	"os"
	"time"

	"spendlens/internal/amqp"
	"spendlens/internal/analytics"
	"spendlens/internal/backend"
	"spendlens/internal/cli"
	"spendlens/internal/log"
	"spendlens/internal/services"
	"spendlens/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting report-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the report worker")
		os.Exit(1)
	}

	startCtx := context.Background()
	res := cli.InitLedger(startCtx, logger, cfg)

	// Initialize AMQP client for consuming requests and publishing reports
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRequestQueue, cfg.AMQPReportQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		res.Cleanup()
		os.Exit(1)
	}

	sinks, err := backend.CreateSinks(startCtx, cfg, amqpClient, logger.Logger)
	if err != nil {
		logger.Error("Failed to initialize report sinks", log.FieldError, err)
		amqpClient.Close()
		res.Cleanup()
		os.Exit(1)
	}

	engine := analytics.New(res.Ledger, cfg.AnalyticsConfig())
	service := services.NewReportService(engine, logger, sinks.Sinks...)
	reportWorker := worker.NewReportWorker(service)

	logger.Info("Report worker configured",
		log.FieldBackend, cfg.DataBackend,
		"request_queue", cfg.AMQPRequestQueue,
		"sinks", service.SinkNames())

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func() {
		if err := amqpClient.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", log.FieldError, err)
		}
		if err := sinks.Cleanup(); err != nil {
			logger.Warn("Failed to close report sinks", log.FieldError, err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Warn("Failed to close ledger", log.FieldError, err)
		}
	})

	go func() {
		if err := reportWorker.Run(ctx, amqpClient); err != nil {
			logger.Error("Report request consumption failed", log.FieldError, err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
}
