package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"spendlens/internal/amqp"
	"spendlens/internal/core"
	"spendlens/internal/services"
)

// ReportWorker turns report requests from AMQP into delivered reports
type ReportWorker struct {
	service *services.ReportService
}

func NewReportWorker(service *services.ReportService) *ReportWorker {
	return &ReportWorker{service: service}
}

// HandleReportRequest generates the requested report. Requests without a
// valid user id are discarded, and a user with no ledger rows gets an empty
// report. Store failures are returned so the broker redelivers.
// Sink failures are logged and acknowledged since the report was produced.
func (w *ReportWorker) HandleReportRequest(ctx context.Context, msg *amqp.ReportRequestMessage) error {
	res, err := w.service.Generate(ctx, msg.UserID)
	if err != nil {
		if errors.Is(err, core.ErrMissingUser) {
			return fmt.Errorf("%w: %w", amqp.ErrDiscard, err)
		}
		return fmt.Errorf("report request %s: %w", msg.RequestID, err)
	}

	if res.SinkErr != nil {
		slog.WarnContext(ctx, "Report delivered partially",
			"request_id", msg.RequestID,
			"report_id", res.Report.ReportID,
			"error", res.SinkErr)
	}

	slog.InfoContext(ctx, "Report request completed",
		"request_id", msg.RequestID,
		"report_id", res.Report.ReportID,
		"user_id", msg.UserID,
		"sinks", len(res.SinkRefs))

	return nil
}

// Run consumes report requests until ctx is cancelled.
func (w *ReportWorker) Run(ctx context.Context, client *amqp.Client) error {
	err := client.ConsumeReportRequests(ctx, w.HandleReportRequest)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
