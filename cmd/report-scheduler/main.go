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
	"spendlens/internal/report"
	"spendlens/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentScheduler)
	logger.Info("Starting report-scheduler")

	cfg := cli.LoadAndValidateConfig(logger)

	startCtx := context.Background()
	res := cli.InitLedger(startCtx, logger, cfg)

	// AMQP is optional here; without it reports only reach the other sinks
	var publisher report.Publisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRequestQueue, cfg.AMQPReportQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without AMQP sink", log.FieldError, err)
			amqpClient = nil
		} else {
			publisher = amqpClient
		}
	} else {
		logger.Info("AMQP disabled - reports will not be published")
	}

	sinks, err := backend.CreateSinks(startCtx, cfg, publisher, logger.Logger)
	if err != nil {
		logger.Error("Failed to initialize report sinks", log.FieldError, err)
		os.Exit(1)
	}
	if len(sinks.Sinks) == 0 {
		logger.Warn("No report sink configured - generated reports are discarded")
	}

	engine := analytics.New(res.Ledger, cfg.AnalyticsConfig())
	service := services.NewReportService(engine, logger, sinks.Sinks...)
	batch := services.NewBatchReporter(service, res.Ledger, cfg.ReportConcurrency)

	scheduler := services.NewScheduler(batch, services.SchedulerConfig{
		Interval:   cfg.ScheduleInterval,
		RunOnStart: true,
	})

	logger.Info("Report scheduler configured",
		"interval", cfg.ScheduleInterval,
		"concurrency", cfg.ReportConcurrency,
		"sinks", service.SinkNames())

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := scheduler.Stop(stopCtx); err != nil {
			logger.Warn("Scheduler did not stop cleanly", log.FieldError, err)
		}
		if amqpClient != nil {
			amqpClient.Close()
		}
		if err := sinks.Cleanup(); err != nil {
			logger.Warn("Failed to close report sinks", log.FieldError, err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Warn("Failed to close ledger", log.FieldError, err)
		}
	})

	if err := scheduler.Start(ctx); err != nil {
		logger.Error("Failed to start scheduler", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
}
