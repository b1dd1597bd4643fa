package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spendlens/internal/analytics"
	"spendlens/internal/log"
	"spendlens/internal/report"
)

// Generator composes the report of one user. *analytics.Engine implements it.
type Generator interface {
	Report(ctx context.Context, userID int64) (*analytics.Report, error)
}

// Result is a generated report and the outcome of delivering it.
type Result struct {
	Report *analytics.Report
	// SinkRefs maps sink name to the reference it returned.
	SinkRefs map[string]string
	// SinkErr joins every sink failure. The report stays valid when set.
	SinkErr error
}

// ReportService composes reports and fans them out to the configured sinks
type ReportService struct {
	engine Generator
	sinks  []report.Sink
	log    *log.Logger
	logger *log.StructuredLogger
}

func NewReportService(engine Generator, logger *log.Logger, sinks ...report.Sink) *ReportService {
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithComponent(log.ComponentReport)
	return &ReportService{
		engine: engine,
		sinks:  sinks,
		log:    logger,
		logger: log.NewStructuredLogger(logger),
	}
}

// SinkNames lists the configured sinks in delivery order.
func (s *ReportService) SinkNames() []string {
	names := make([]string, len(s.sinks))
	for i, sink := range s.sinks {
		names[i] = sink.Name()
	}
	return names
}

// Generate builds the report of userID and writes it to every sink. Engine
// failures are returned as errors; sink failures only populate Result.SinkErr.
func (s *ReportService) Generate(ctx context.Context, userID int64) (*Result, error) {
	// Sinks log through the service logger
	ctx = log.NewContext(ctx, s.log)

	start := time.Now()
	rep, err := s.engine.Report(ctx, userID)
	if err != nil {
		s.logger.LogError(ctx, "Report generation failed", err,
			log.ComponentReport, log.OpGenerate, log.NewFields().WithUser(userID))
		return nil, fmt.Errorf("generate report for user %d: %w", userID, err)
	}

	s.logger.LogReportGenerated(ctx, userID, rep.ReportID, len(rep.UnusualSpending), time.Since(start))
	for _, a := range rep.UnusualSpending {
		s.logger.LogAnomaly(ctx, userID, a.Category, a.ZScore)
	}

	res := &Result{
		Report:   rep,
		SinkRefs: make(map[string]string, len(s.sinks)),
	}

	var errs []error
	for _, sink := range s.sinks {
		ref, err := sink.Write(ctx, rep)
		if err != nil {
			s.logger.LogSinkFailure(ctx, rep.ReportID, sink.Name(), err)
			errs = append(errs, fmt.Errorf("%s sink: %w", sink.Name(), err))
			continue
		}
		res.SinkRefs[sink.Name()] = ref
	}
	res.SinkErr = errors.Join(errs...)

	return res, nil
}
