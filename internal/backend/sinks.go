package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"spendlens/internal/config"
	"spendlens/internal/report"
)

// SinkSet is the list of configured report sinks and the resources they hold.
type SinkSet struct {
	Sinks   []report.Sink
	Cleanup CleanupFunc
}

// CreateSinks builds every sink the configuration enables. The AMQP sink is
// added only when publisher is non-nil. A sink that cannot be initialized
// fails the whole set.
func CreateSinks(ctx context.Context, cfg *config.Config, publisher report.Publisher, logger *slog.Logger) (*SinkSet, error) {
	if logger == nil {
		logger = slog.Default()
	}

	set := &SinkSet{}
	var closers []func() error

	if cfg.ReportOutputDir != "" {
		set.Sinks = append(set.Sinks, report.NewFileSink(cfg.ReportOutputDir))
		logger.InfoContext(ctx, "Enabled file report sink", "dir", cfg.ReportOutputDir)
	}

	if cfg.ReportGCSBucket != "" {
		gcs, err := report.NewGCSSink(ctx, cfg.ReportGCSBucket, cfg.ReportGCSPrefix)
		if err != nil {
			return nil, fmt.Errorf("gcs sink: %w", err)
		}
		set.Sinks = append(set.Sinks, gcs)
		closers = append(closers, gcs.Close)
		logger.InfoContext(ctx, "Enabled GCS report sink", "bucket", cfg.ReportGCSBucket, "prefix", cfg.ReportGCSPrefix)
	}

	if cfg.GoogleSpreadsheetID != "" {
		sheets, err := report.NewSheetsSink(ctx, cfg.GoogleSpreadsheetID, cfg.ReportSheetName, report.Credentials{
			JSON:            cfg.GoogleServiceAccountJSON,
			File:            cfg.GoogleServiceAccountFile,
			ApplicationFile: cfg.GoogleApplicationCredential,
		})
		if err != nil {
			closeAll(closers)
			return nil, fmt.Errorf("sheets sink: %w", err)
		}
		set.Sinks = append(set.Sinks, sheets)
		logger.InfoContext(ctx, "Enabled Google Sheets report sink", "sheet", cfg.ReportSheetName)
	}

	if publisher != nil {
		set.Sinks = append(set.Sinks, report.NewAMQPSink(publisher))
		logger.InfoContext(ctx, "Enabled AMQP report sink", "queue", publisher.ReportQueue())
	}

	set.Cleanup = func() error { return closeAll(closers) }
	return set, nil
}

func closeAll(closers []func() error) error {
	var errs []error
	for _, c := range closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
