package log

import (
	"context"
	"log/slog"
	"time"
)

// StructuredLogger provides the recurring report log lines
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// LogReportGenerated logs a composed report and how long it took.
func (sl *StructuredLogger) LogReportGenerated(ctx context.Context, userID int64, reportID string, anomalies int, elapsed time.Duration) {
	fields := NewFields().
		WithUser(userID).
		WithReport(reportID).
		WithOperation(OpGenerate).
		WithComponent(ComponentReport)
	fields[FieldDuration] = elapsed.Milliseconds()
	fields["anomalies"] = anomalies

	sl.logger.Logger.InfoContext(ctx, "Report generated", fields.ToSlice()...)
}

// LogAnomaly logs a single flagged category at debug level.
func (sl *StructuredLogger) LogAnomaly(ctx context.Context, userID int64, category string, z float64) {
	fields := NewFields().
		WithUser(userID).
		WithAnomaly(category, z).
		WithComponent(ComponentAnalytics)

	sl.logger.Logger.DebugContext(ctx, "Unusual spending detected", fields.ToSlice()...)
}

// LogSinkFailure logs a sink write that did not succeed. The report itself is unaffected.
func (sl *StructuredLogger) LogSinkFailure(ctx context.Context, reportID, sink string, err error) {
	fields := NewFields().
		WithReport(reportID).
		WithSink(sink, "").
		WithError(err).
		WithErrorType(ErrorTypeSink).
		WithOperation(OpWrite).
		WithComponent(ComponentReport)

	sl.logger.Logger.WarnContext(ctx, "Report sink failed", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithOperation(operation).
		WithComponent(component)

	sl.logger.Logger.Log(ctx, slog.LevelError, msg, allFields.ToSlice()...)
}
